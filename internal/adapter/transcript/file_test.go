package transcript

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppend_CreatesFile(t *testing.T) {
	dir := t.TempDir()
	sink := NewFileSink(dir)

	path, err := sink.Append("My Episode", "hello")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "My Episode.txt"), path)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "hello\n", string(content))
}

func TestAppend_NeverTruncatesExistingContent(t *testing.T) {
	dir := t.TempDir()
	sink := NewFileSink(dir)

	_, err := sink.Append("Same Title", "A")
	require.NoError(t, err)
	path, err := sink.Append("Same Title", "B")
	require.NoError(t, err)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "A\nB\n", string(content))
}

func TestAppend_CreatesOutputDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "out")
	sink := NewFileSink(dir)

	path, err := sink.Append("t", "x")
	require.NoError(t, err)
	assert.FileExists(t, path)
}

func TestAppend_DirectoryCreationFailure(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	sink := NewFileSink(filepath.Join(blocker, "sub"))
	_, err := sink.Append("t", "x")
	assert.Error(t, err)
}
