package storage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalFileStore(t *testing.T) {
	root := filepath.Join(t.TempDir(), "uploads")
	fs, err := NewLocalFileStore(root)
	require.NoError(t, err)

	path, size, err := fs.Save("../../Invoice.PDF", strings.NewReader("hello"))
	require.NoError(t, err)
	assert.EqualValues(t, 5, size)
	assert.True(t, strings.HasSuffix(path, ".pdf"))
	assert.NotContains(t, path, "..")

	data, err := os.ReadFile(filepath.Join(root, path))
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))

	require.NoError(t, fs.Remove(path))
	_, err = os.Stat(filepath.Join(root, path))
	assert.True(t, os.IsNotExist(err))

	assert.NoError(t, fs.Remove(path), "removing twice is fine")
}
