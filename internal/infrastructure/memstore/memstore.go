package memstore

import (
	"context"
	"sync"

	"github.com/engagement-ledger/ledger/internal/domain/ledger"
)

// Repository keeps the encoded document in memory. It backs tests and
// throwaway deployments.
type Repository struct {
	mu    sync.RWMutex
	data  []byte
	saves int
}

func New() *Repository {
	return &Repository{}
}

// NewWithData starts from an existing encoded document.
func NewWithData(data []byte) *Repository {
	return &Repository{data: append([]byte(nil), data...)}
}

func (r *Repository) Load(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.data == nil {
		return nil, ledger.ErrNotFound
	}
	return append([]byte(nil), r.data...), nil
}

func (r *Repository) Save(ctx context.Context, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data = append([]byte(nil), data...)
	r.saves++
	return nil
}

// Saves returns how many writes succeeded.
func (r *Repository) Saves() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.saves
}
