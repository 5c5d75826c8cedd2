package postgres

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/engagement-ledger/ledger/internal/domain/ledger"
)

func testPool(t *testing.T) *DocumentRepository {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set; skipping postgres tests")
	}
	ctx := context.Background()
	pool, err := NewPool(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	_, file, _, _ := runtime.Caller(0)
	migrations := filepath.Join(filepath.Dir(file), "..", "..", "migrations")
	require.NoError(t, RunMigrations(ctx, pool, migrations))

	name := "test-" + t.Name()
	_, err = pool.Exec(ctx, `DELETE FROM ledger_documents WHERE name=$1`, name)
	require.NoError(t, err)
	return NewDocumentRepository(pool, name)
}

func TestDocumentRepository_LoadSave(t *testing.T) {
	repo := testPool(t)
	ctx := context.Background()

	_, err := repo.Load(ctx)
	assert.ErrorIs(t, err, ledger.ErrNotFound)

	doc := ledger.NewDocument()
	doc.Record(42).Join(ledger.EventName{Display: "Spring Jam"})
	data, err := ledger.Encode(doc)
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, data))
	require.NoError(t, repo.Save(ctx, data))

	loaded, err := repo.Load(ctx)
	require.NoError(t, err)
	got, err := ledger.Decode(loaded)
	require.NoError(t, err)
	assert.Equal(t, ledger.StateJoined, got.Participants[42].State(ledger.EventName{Display: "spring jam"}))
}
