package prefs

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTemp(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "nested", "prefs.db")
	store, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store, path
}

func TestSetGetRemove(t *testing.T) {
	store, _ := openTemp(t)
	ctx := context.Background()

	_, ok, err := store.Get(ctx, "theme")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Set(ctx, "theme", "dark"))
	require.NoError(t, store.Set(ctx, "theme", "light"))
	value, ok, err := store.Get(ctx, "theme")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "light", value)

	require.NoError(t, store.Remove(ctx, "theme", "missing"))
	_, ok, err = store.Get(ctx, "theme")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCredentialsPersistAcrossOpen(t *testing.T) {
	store, path := openTemp(t)
	ctx := context.Background()
	require.NoError(t, store.SaveAPIKey(ctx, "  sk-live  "))
	require.NoError(t, store.SaveProvider(ctx, "openrouter"))
	require.NoError(t, store.Close())

	reopened, err := Open(path)
	require.NoError(t, err)
	defer reopened.Close()
	creds, err := reopened.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, Credentials{APIKey: "sk-live", Provider: "openrouter"}, creds)

	require.NoError(t, reopened.Forget(ctx))
	creds, err = reopened.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, Credentials{}, creds)
}

func TestSaveEmptyKeyRemovesIt(t *testing.T) {
	store, _ := openTemp(t)
	ctx := context.Background()
	require.NoError(t, store.SaveAPIKey(ctx, "sk"))
	require.NoError(t, store.SaveAPIKey(ctx, " "))
	_, ok, err := store.Get(ctx, KeyAPIKey)
	require.NoError(t, err)
	assert.False(t, ok)
}
