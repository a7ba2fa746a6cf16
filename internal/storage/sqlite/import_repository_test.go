package sqlite_test

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/hkaya/unity_mcp_bridge/internal/storage"
	"github.com/hkaya/unity_mcp_bridge/internal/storage/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepository(t *testing.T) *sqlite.ImportRepository {
	t.Helper()

	db, err := sqlite.InitDB(filepath.Join(t.TempDir(), "imports.db"))
	require.NoError(t, err)

	t.Cleanup(func() { db.Close() })

	return sqlite.NewImportRepository(db)
}

func TestRecordAndReadImports(t *testing.T) {
	repo := newTestRepository(t)

	records := []storage.ImportRecord{
		{URL: "http://example.com/a.fbx", TargetPath: "Assets/Models/a.fbx", Status: "imported", ImportedAt: time.Now().UTC()},
		{URL: "http://example.com/b.png", TargetPath: "Assets/Textures/b.png", Status: "download_failed", Message: "unexpected status 404", ImportedAt: time.Now().UTC()},
	}
	for _, rec := range records {
		require.NoError(t, repo.RecordImport(rec))
	}

	got, err := repo.RecentImports(10)
	require.NoError(t, err)
	require.Len(t, got, 2)

	// Newest first.
	assert.Equal(t, "http://example.com/b.png", got[0].URL)
	assert.Equal(t, "download_failed", got[0].Status)
	assert.Equal(t, "unexpected status 404", got[0].Message)
	assert.Equal(t, "http://example.com/a.fbx", got[1].URL)
	assert.WithinDuration(t, time.Now().UTC(), got[0].ImportedAt, time.Minute)
}

func TestRecentImports_Limit(t *testing.T) {
	repo := newTestRepository(t)

	for i := 0; i < 5; i++ {
		require.NoError(t, repo.RecordImport(storage.ImportRecord{
			URL:        "http://example.com/a.fbx",
			TargetPath: "Assets/Models/a.fbx",
			Status:     "imported",
			ImportedAt: time.Now().UTC(),
		}))
	}

	got, err := repo.RecentImports(3)
	require.NoError(t, err)
	assert.Len(t, got, 3)
}

func TestRecentImports_Empty(t *testing.T) {
	repo := newTestRepository(t)

	got, err := repo.RecentImports(10)
	require.NoError(t, err)
	assert.Empty(t, got)
}
