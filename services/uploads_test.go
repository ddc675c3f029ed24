package services

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUploadStore(t *testing.T) {
	t.Parallel()

	t.Run("saves and removes files inside the store", func(t *testing.T) {
		t.Parallel()

		store, err := NewUploadStore(t.TempDir())
		require.NoError(t, err)

		path, err := store.Save("blood-work.pdf", []byte("pdf bytes"))
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(store.Dir, "blood-work.pdf"), path)

		content, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, []byte("pdf bytes"), content)

		require.NoError(t, store.Remove("blood-work.pdf"))
		_, err = os.Stat(path)
		assert.True(t, os.IsNotExist(err))
	})

	t.Run("strips path traversal from filenames", func(t *testing.T) {
		t.Parallel()

		store, err := NewUploadStore(t.TempDir())
		require.NoError(t, err)

		// The directory components are dropped; the file lands in the store.
		path, err := store.Save("../../etc/passwd", []byte("x"))
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(store.Dir, "passwd"), path)
	})

	t.Run("removing a missing file is not an error", func(t *testing.T) {
		t.Parallel()

		store, err := NewUploadStore(t.TempDir())
		require.NoError(t, err)
		assert.NoError(t, store.Remove("never-uploaded.txt"))
	})

	t.Run("empty directory is rejected", func(t *testing.T) {
		t.Parallel()

		_, err := NewUploadStore("")
		assert.Error(t, err)
	})
}
