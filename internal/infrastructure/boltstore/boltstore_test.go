package boltstore

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/engagement-ledger/ledger/internal/domain/ledger"
)

func TestRepository_LoadSaveReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.db")
	ctx := context.Background()

	repo, err := Open(path)
	require.NoError(t, err)

	_, err = repo.Load(ctx)
	assert.ErrorIs(t, err, ledger.ErrNotFound)

	require.NoError(t, repo.Save(ctx, []byte(`{"7":{"events":["Spring Jam"]}}`)))
	require.NoError(t, repo.Close())

	repo, err = Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	data, err := repo.Load(ctx)
	require.NoError(t, err)
	doc, err := ledger.Decode(data)
	require.NoError(t, err)
	assert.Equal(t, ledger.StateJoined, doc.Participants[7].State(ledger.EventName{Display: "Spring Jam"}))
}
