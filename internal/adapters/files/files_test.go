package files

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jsamuelsen/quotekeeper/internal/domain"
)

func TestWriteExport(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested")
	data := []byte("[]\n")

	path, err := WriteExport(dir, data)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, ExportFileName), path)

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, data, got)

	if runtime.GOOS != "windows" {
		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
	}

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files left behind")
}

func TestWriteExport_Overwrites(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("rename over an existing file is not atomic on windows")
	}

	dir := t.TempDir()

	_, err := WriteExport(dir, []byte("old"))
	require.NoError(t, err)

	path, err := WriteExport(dir, []byte("new"))
	require.NoError(t, err)

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "new", string(got))
}

func TestWriteExport_RefusesSymlink(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "elsewhere.json")
	require.NoError(t, os.WriteFile(target, []byte("keep"), 0o600))

	if err := os.Symlink(target, filepath.Join(dir, ExportFileName)); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	_, err := WriteExport(dir, []byte("[]"))
	require.Error(t, err)
	assert.True(t, IsSymlinkRefusal(err))

	got, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, "keep", string(got))
}

func TestReadImport(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "in.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"text":"a","category":"b"}]`), 0o600))

	data, err := ReadImport(path, 1024)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"text":"a","category":"b"}]`, string(data))
}

func TestReadImport_Errors(t *testing.T) {
	dir := t.TempDir()

	big := filepath.Join(dir, "big.json")
	require.NoError(t, os.WriteFile(big, []byte("["+strings.Repeat(" ", 64)+"]"), 0o600))

	_, err := ReadImport(big, 16)
	assert.True(t, domain.IsFormat(err), "oversized file: %v", err)

	_, err = ReadImport(big, 0)
	assert.NoError(t, err, "zero disables the limit")

	_, err = ReadImport(filepath.Join(dir, "missing.json"), 16)
	assert.True(t, domain.IsNotFound(err), "missing file: %v", err)

	link := filepath.Join(dir, "link.json")
	if err := os.Symlink(big, link); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	_, err = ReadImport(link, 0)
	assert.True(t, IsSymlinkRefusal(err), "symlink: %v", err)
}
