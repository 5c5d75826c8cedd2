package ledger

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("not found")

// Repository persists the encoded ledger document as one unit. Load returns
// ErrNotFound when nothing has been written yet.
type Repository interface {
	Load(ctx context.Context) ([]byte, error)
	Save(ctx context.Context, data []byte) error
}
