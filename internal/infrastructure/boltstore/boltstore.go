package boltstore

import (
	"context"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/engagement-ledger/ledger/internal/domain/ledger"
)

var (
	bucketName  = []byte("ledger")
	documentKey = []byte("document")
)

// Repository keeps the ledger document in an embedded bbolt database.
type Repository struct {
	db *bolt.DB
}

// Open opens or creates the database file.
func Open(path string) (*Repository, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bolt %s: %w", path, err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketName)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create bucket: %w", err)
	}
	return &Repository{db: db}, nil
}

func (r *Repository) Load(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var data []byte
	err := r.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(bucketName).Get(documentKey)
		if v == nil {
			return ledger.ErrNotFound
		}
		// v is only valid inside the transaction.
		data = append([]byte(nil), v...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return data, nil
}

func (r *Repository) Save(ctx context.Context, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return r.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketName).Put(documentKey, data)
	})
}

func (r *Repository) Close() error {
	return r.db.Close()
}
