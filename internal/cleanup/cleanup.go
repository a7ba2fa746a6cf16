package cleanup

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/hkaya/unity_mcp_bridge/internal/logctx"
)

// SweepCache deletes files in the persistent download cache older than
// keepFor, judged by modification time. Temp-storage imports never land
// here; only the shared cache directory is swept. Returns the number of
// files deleted.
func SweepCache(ctx context.Context, dir string, keepFor time.Duration) (int, error) {
	logger := logctx.LoggerFromContext(ctx)
	now := time.Now()

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil // nothing cached yet
		}

		return 0, err
	}

	deleted := 0

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		filePath := filepath.Join(dir, entry.Name())

		info, err := entry.Info()
		if err != nil {
			if os.IsNotExist(err) {
				continue // already deleted
			}

			logger.Error("failed to stat cache file", "file", filePath, "err", err)

			return deleted, err
		}

		if now.Sub(info.ModTime()) > keepFor {
			if err := os.Remove(filePath); err != nil && !os.IsNotExist(err) {
				logger.Error("failed to delete expired cache file", "file", filePath, "err", err)

				return deleted, err
			}

			deleted++

			logger.Info("deleted expired cache file", "file", filePath)
		}
	}

	return deleted, nil
}
