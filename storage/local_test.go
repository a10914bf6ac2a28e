package storage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) *LocalStore {
	t.Helper()
	store, err := NewLocalStore(filepath.Join(t.TempDir(), "photos"), "http://localhost:8080")
	require.NoError(t, err)
	return store
}

func TestSaveAndPublicURL(t *testing.T) {
	store := newStore(t)

	err := store.Save("proofs/user-a-123.jpg", []byte("jpeg-bytes"), "image/jpeg")
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(store.Root(), "proofs", "user-a-123.jpg"))
	require.NoError(t, err)
	assert.Equal(t, []byte("jpeg-bytes"), data)

	url := store.PublicURL("proofs/user-a-123.jpg")
	assert.Equal(t, "http://localhost:8080/photos/proofs/user-a-123.jpg", url)

	path, ok := store.PathFromURL(url)
	require.True(t, ok)
	assert.Equal(t, "proofs/user-a-123.jpg", path)
}

func TestSave_RejectsNonJPEG(t *testing.T) {
	store := newStore(t)

	err := store.Save("proofs/x.png", []byte("png-bytes"), "image/png")
	assert.ErrorIs(t, err, ErrUnsupportedContentType)
}

func TestSave_RejectsTraversal(t *testing.T) {
	store := newStore(t)

	err := store.Save("../escape.jpg", []byte("jpeg-bytes"), "image/jpeg")
	require.NoError(t, err)

	// Cleaned into the root, never outside it
	_, statErr := os.Stat(filepath.Join(store.Root(), "escape.jpg"))
	assert.NoError(t, statErr)
	_, statErr = os.Stat(filepath.Join(filepath.Dir(store.Root()), "escape.jpg"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestPathFromURL_ForeignURL(t *testing.T) {
	store := newStore(t)

	_, ok := store.PathFromURL("https://elsewhere.example/photos/proofs/x.jpg")
	assert.False(t, ok)
}

func TestRemove(t *testing.T) {
	store := newStore(t)

	require.NoError(t, store.Save("proofs/a.jpg", []byte("a"), "image/jpeg"))
	require.NoError(t, store.Save("proofs/b.jpg", []byte("b"), "image/jpeg"))

	err := store.Remove([]string{"proofs/a.jpg", "proofs/b.jpg"})
	require.NoError(t, err)

	_, statErr := os.Stat(filepath.Join(store.Root(), "proofs", "a.jpg"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestRemove_MissingFileIsFine(t *testing.T) {
	store := newStore(t)

	require.NoError(t, store.Save("proofs/a.jpg", []byte("a"), "image/jpeg"))

	err := store.Remove([]string{"proofs/never-existed.jpg", "proofs/a.jpg"})
	require.NoError(t, err)

	_, statErr := os.Stat(filepath.Join(store.Root(), "proofs", "a.jpg"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestProofPath(t *testing.T) {
	path := ProofPath("user-a")
	assert.True(t, strings.HasPrefix(path, "proofs/user-a-"))
	assert.True(t, strings.HasSuffix(path, ".jpg"))
}
