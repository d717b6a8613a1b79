package cache

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreRoundTrip(t *testing.T) {
	store, err := Open(filepath.Join(t.TempDir(), "responses.db"))
	require.NoError(t, err)
	defer store.Close()

	_, ok := store.Get("https://api.github.com/repos/bevry/github-api/contributors")
	assert.False(t, ok)

	require.NoError(t, store.Put("https://api.github.com/repos/bevry/github-api/contributors", []byte(`[]`)))
	body, ok := store.Get("https://api.github.com/repos/bevry/github-api/contributors")
	require.True(t, ok)
	assert.Equal(t, []byte(`[]`), body)

	// Replacing an entry keeps one row per URL.
	require.NoError(t, store.Put("https://api.github.com/repos/bevry/github-api/contributors", []byte(`[{}]`)))
	body, ok = store.Get("https://api.github.com/repos/bevry/github-api/contributors")
	require.True(t, ok)
	assert.Equal(t, []byte(`[{}]`), body)
}

func TestOpenCreatesDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested.db")
	store, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, store.Close())

	// Reopening sees the persisted rows.
	store, err = Open(path)
	require.NoError(t, err)
	defer store.Close()
	require.NoError(t, store.Put("https://example.com", []byte("body")))
}
