package plugin

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte{0}, 0o644))
}

func TestResolveLibraryPathDirectFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reverb"+libraryExtension())
	touch(t, path)

	resolved, err := resolveLibraryPath(path)
	require.NoError(t, err)
	assert.Equal(t, path, resolved)
}

func TestResolveLibraryPathFromScanPath(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "chorus"+libraryExtension()))
	t.Setenv("PLUGHOST_PLUGIN_PATH", dir)

	resolved, err := resolveLibraryPath("chorus")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "chorus"+libraryExtension()), resolved)
}

func TestResolveLibraryPathNotFound(t *testing.T) {
	t.Setenv("PLUGHOST_PLUGIN_PATH", t.TempDir())
	_, err := resolveLibraryPath("definitely-not-installed")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "plugin not found")
}

func TestNewVST2PluginIsUnopened(t *testing.T) {
	path := filepath.Join(t.TempDir(), "delay"+libraryExtension())
	touch(t, path)

	p, err := New(path)
	require.NoError(t, err)
	assert.Equal(t, TypeVST2, p.Type())
	assert.Equal(t, KindUnknown, p.Kind())
	assert.Equal(t, path, p.Name())
}
