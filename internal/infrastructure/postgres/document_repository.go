package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/engagement-ledger/ledger/internal/domain/ledger"
)

// DefaultDocumentName is the row holding the ledger when no name is given.
const DefaultDocumentName = "ledger"

// DocumentRepository implements ledger.Repository on a single jsonb row.
type DocumentRepository struct {
	pool *pgxpool.Pool
	name string
}

func NewDocumentRepository(pool *pgxpool.Pool, name string) *DocumentRepository {
	if name == "" {
		name = DefaultDocumentName
	}
	return &DocumentRepository{pool: pool, name: name}
}

func (r *DocumentRepository) Load(ctx context.Context) ([]byte, error) {
	var data []byte
	err := r.pool.QueryRow(ctx, `
		SELECT document::text FROM ledger_documents WHERE name=$1
	`, r.name).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ledger.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load ledger document: %w", err)
	}
	return data, nil
}

func (r *DocumentRepository) Save(ctx context.Context, data []byte) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO ledger_documents (name, document, revision, updated_at)
		VALUES ($1, $2::jsonb, 1, now())
		ON CONFLICT (name) DO UPDATE
		SET document=EXCLUDED.document, revision=ledger_documents.revision+1, updated_at=now()
	`, r.name, string(data))
	if err != nil {
		return fmt.Errorf("save ledger document: %w", err)
	}
	return nil
}
