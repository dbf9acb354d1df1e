package sqlkv_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"hotelstay/internal/storage/sqlkv"
)

func openRepo(t *testing.T, path string) *sqlkv.Repo {
	t.Helper()
	db, err := sqlkv.OpenSQLite(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	repo := sqlkv.New(db, sqlkv.SQLite)
	require.NoError(t, repo.Migrate(context.Background()))
	return repo
}

func TestRepo_SQLite_UpsertGetDelete(t *testing.T) {
	ctx := context.Background()
	repo := openRepo(t, filepath.Join(t.TempDir(), "nested", "state.db"))

	_, ok, err := repo.Get(ctx, "@current_hotel")
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, repo.Set(ctx, "@current_hotel", "h-1"))
	require.NoError(t, repo.Set(ctx, "@current_hotel", "h-2"))

	v, ok, err := repo.Get(ctx, "@current_hotel")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "h-2", v)

	require.NoError(t, repo.Delete(ctx, "@current_hotel"))
	_, ok, err = repo.Get(ctx, "@current_hotel")
	require.NoError(t, err)
	require.False(t, ok)

	// deleting a missing key is not an error
	require.NoError(t, repo.Delete(ctx, "@current_hotel"))
}

func TestRepo_SQLite_SurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "state.db")

	db, err := sqlkv.OpenSQLite(path)
	require.NoError(t, err)
	first := sqlkv.New(db, sqlkv.SQLite)
	require.NoError(t, first.Migrate(ctx))
	require.NoError(t, first.Migrate(ctx)) // idempotent
	require.NoError(t, first.Set(ctx, "currentGroupId", "5"))
	require.NoError(t, db.Close())

	second := openRepo(t, path)
	v, ok, err := second.Get(ctx, "currentGroupId")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "5", v)
}
