package fsutil

import (
	"io"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryFileSystem_WriteAndRead(t *testing.T) {
	t.Parallel()
	m := NewMemoryFileSystem()

	require.NoError(t, m.WriteFile("out/flow.flo", []byte("abc"), 0o644))
	data, err := m.ReadFile("out/./flow.flo")
	require.NoError(t, err)
	assert.Equal(t, []byte("abc"), data)

	// Returned data is a copy.
	data[0] = 'z'
	again, _ := m.ReadFile("out/flow.flo")
	assert.Equal(t, []byte("abc"), again)
}

func TestMemoryFileSystem_CreateVisibleOnClose(t *testing.T) {
	t.Parallel()
	m := NewMemoryFileSystem()

	w, err := m.Create("flow.png")
	require.NoError(t, err)
	_, err = w.Write([]byte("png"))
	require.NoError(t, err)

	data, err := m.ReadFile("flow.png")
	require.NoError(t, err)
	assert.Empty(t, data, "content must not be visible before Close")

	require.NoError(t, w.Close())
	data, err = m.ReadFile("flow.png")
	require.NoError(t, err)
	assert.Equal(t, []byte("png"), data)
}

func TestMemoryFileSystem_OpenAndStat(t *testing.T) {
	t.Parallel()
	m := NewMemoryFileSystem()
	require.NoError(t, m.WriteFile("a/b.txt", []byte("hello"), 0o644))

	f, err := m.Open("a/b.txt")
	require.NoError(t, err)
	defer f.Close()
	data, err := io.ReadAll(f)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))

	info, err := f.Stat()
	require.NoError(t, err)
	assert.Equal(t, int64(5), info.Size())
	assert.Equal(t, "b.txt", info.Name())

	_, err = m.Open("missing")
	assert.Error(t, err)
	_, err = m.Stat("missing")
	assert.Error(t, err)
}

func TestMemoryFileSystem_MkdirAll(t *testing.T) {
	t.Parallel()
	m := NewMemoryFileSystem()
	require.NoError(t, m.MkdirAll("runs/2025/out", 0o755))

	for _, dir := range []string{"runs", "runs/2025", "runs/2025/out"} {
		info, err := m.Stat(dir)
		require.NoError(t, err, dir)
		assert.True(t, info.IsDir(), dir)
	}
}

func TestMemoryFileSystem_Files(t *testing.T) {
	t.Parallel()
	m := NewMemoryFileSystem()
	require.NoError(t, m.WriteFile("x", nil, 0o644))
	require.NoError(t, m.WriteFile("y/z", nil, 0o644))
	assert.ElementsMatch(t, []string{"x", filepath.Join("y", "z")}, m.Files())
}

func TestOSFileSystem_RoundTrip(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	var fsys OSFileSystem

	sub := filepath.Join(dir, "nested", "out")
	require.NoError(t, fsys.MkdirAll(sub, 0o755))

	path := filepath.Join(sub, "data.bin")
	w, err := fsys.Create(path)
	require.NoError(t, err)
	_, err = w.Write([]byte{1, 2, 3})
	require.NoError(t, err)
	require.NoError(t, w.Close())

	data, err := fsys.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3}, data)

	info, err := fsys.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, int64(3), info.Size())
}
