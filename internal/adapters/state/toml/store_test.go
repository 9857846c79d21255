package toml

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/avelara/coachctl/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := NewStoreAtPath(filepath.Join(t.TempDir(), "state.toml"))
	require.NoError(t, err)
	return store
}

func TestStorePutGetRoundTripAndPermissions(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)

	err := store.Put(context.Background(), "token", "bearer-abc")
	require.NoError(t, err)

	got, err := store.Get(context.Background(), "token")
	require.NoError(t, err)
	assert.Equal(t, "bearer-abc", got)

	info, err := os.Stat(store.statePath)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(stateFileMode), info.Mode().Perm())
}

func TestStoreGetMissingKeyReturnsSentinel(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)

	_, err := store.Get(context.Background(), "user_cache")
	require.ErrorIs(t, err, domain.ErrStateKeyMissing)
}

func TestStoreRejectsEmptyKeys(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)

	err := store.Put(context.Background(), "   ", "value")
	require.Error(t, err)
	assert.ErrorContains(t, err, "state key is empty")
}

func TestStoreDeleteIsIdempotentWhenKeyMissing(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)

	require.NoError(t, store.Delete(context.Background(), "token"))
	require.NoError(t, store.Delete(context.Background(), "token"))
}

func TestStorePreservesOtherKeysAcrossWrites(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "token", "bearer-abc"))
	require.NoError(t, store.Put(ctx, "language_preference", "fr"))
	require.NoError(t, store.Delete(ctx, "token"))

	got, err := store.Get(ctx, "language_preference")
	require.NoError(t, err)
	assert.Equal(t, "fr", got)

	_, err = store.Get(ctx, "token")
	require.ErrorIs(t, err, domain.ErrStateKeyMissing)
}

func TestStoreRejectsNewerSchemaVersion(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "state.toml")
	require.NoError(t, os.WriteFile(path, []byte("version = 99\n"), 0o600))

	store, err := NewStoreAtPath(path)
	require.NoError(t, err)

	_, err = store.Get(context.Background(), "token")
	require.Error(t, err)
	assert.ErrorContains(t, err, "unsupported state schema version")
}
