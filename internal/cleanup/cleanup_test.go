package cleanup_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/hkaya/unity_mcp_bridge/internal/cleanup"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFileAged(t *testing.T, dir, name string, age time.Duration) string {
	t.Helper()

	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("cached"), 0o644))

	mtime := time.Now().Add(-age)
	require.NoError(t, os.Chtimes(path, mtime, mtime))

	return path
}

func TestSweepCache(t *testing.T) {
	dir := t.TempDir()

	expired := writeFileAged(t, dir, "old.fbx", 48*time.Hour)
	fresh := writeFileAged(t, dir, "new.fbx", time.Hour)

	subdir := filepath.Join(dir, "nested")
	require.NoError(t, os.Mkdir(subdir, 0o755))

	deleted, err := cleanup.SweepCache(context.Background(), dir, 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, deleted)

	_, err = os.Stat(expired)
	assert.True(t, os.IsNotExist(err), "expired file should be deleted")

	_, err = os.Stat(fresh)
	assert.NoError(t, err, "fresh file should survive the sweep")

	_, err = os.Stat(subdir)
	assert.NoError(t, err, "directories are never swept")
}

func TestSweepCache_NothingExpired(t *testing.T) {
	dir := t.TempDir()
	writeFileAged(t, dir, "new.fbx", time.Minute)

	deleted, err := cleanup.SweepCache(context.Background(), dir, 24*time.Hour)
	require.NoError(t, err)
	assert.Zero(t, deleted)
}

func TestSweepCache_MissingDir(t *testing.T) {
	deleted, err := cleanup.SweepCache(context.Background(), filepath.Join(t.TempDir(), "never-created"), time.Hour)
	require.NoError(t, err, "an absent cache directory is not an error")
	assert.Zero(t, deleted)
}
