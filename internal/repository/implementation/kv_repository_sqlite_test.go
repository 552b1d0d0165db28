package implementation

import (
	"context"
	"path/filepath"
	"testing"

	"design-companion-be/internal/repository/contract"
	"design-companion-be/pkg/database"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLiteKVRepository(t *testing.T) {
	ctx := context.Background()
	conn, err := database.NewSQLiteDB(filepath.Join(t.TempDir(), "nested", "kv.db"))
	require.NoError(t, err)
	defer conn.Close()

	repo, err := NewSQLiteKVRepository(conn)
	require.NoError(t, err)

	_, err = repo.Get(ctx, "ns", "dc_auth")
	assert.ErrorIs(t, err, contract.ErrKeyNotFound)

	require.NoError(t, repo.Set(ctx, "ns", "dc_auth", []byte(`{"role":"ADMIN"}`)))
	require.NoError(t, repo.Set(ctx, "ns", "dc_auth", []byte(`{"role":"ARCHITECT"}`)))

	got, err := repo.Get(ctx, "ns", "dc_auth")
	require.NoError(t, err)
	assert.JSONEq(t, `{"role":"ARCHITECT"}`, string(got))

	_, err = repo.Get(ctx, "other", "dc_auth")
	assert.ErrorIs(t, err, contract.ErrKeyNotFound)

	require.NoError(t, repo.Delete(ctx, "ns", "dc_auth"))
	_, err = repo.Get(ctx, "ns", "dc_auth")
	assert.ErrorIs(t, err, contract.ErrKeyNotFound)

	// re-opening the schema is a no-op
	_, err = NewSQLiteKVRepository(conn)
	assert.NoError(t, err)
}
