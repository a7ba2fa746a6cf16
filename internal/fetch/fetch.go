package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/hkaya/unity_mcp_bridge/internal/fetch/progress"
	"github.com/hkaya/unity_mcp_bridge/internal/logctx"
)

const (
	dirPerm = 0755

	// partSuffix marks an in-flight download. The file is renamed to its
	// final name only after the body has been fully written, so a truncated
	// transfer never leaves a file at the resolved download path.
	partSuffix = ".part"

	progressInterval = int64(10 * 1024 * 1024) // 10MB
)

// StatusError reports a non-2xx response from the remote host.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d fetching %s", e.StatusCode, e.URL)
}

// Fetcher streams remote resources to local files.
type Fetcher struct {
	client *http.Client
}

// New creates a Fetcher whose requests are bounded by timeout. Zero means no
// client-side timeout beyond the caller's context.
func New(timeout time.Duration) *Fetcher {
	return &Fetcher{
		client: &http.Client{Timeout: timeout},
	}
}

// FilenameFromURL returns the final path segment of rawURL with any query
// string stripped. Falls back to naive string splitting when the URL does
// not parse, matching how opaque asset URLs are handled.
func FilenameFromURL(rawURL string) string {
	trimmed := rawURL
	if idx := strings.IndexByte(trimmed, '?'); idx >= 0 {
		trimmed = trimmed[:idx]
	}

	if u, err := url.Parse(trimmed); err == nil && u.Path != "" {
		return path.Base(u.Path)
	}

	if idx := strings.LastIndexByte(trimmed, '/'); idx >= 0 {
		return trimmed[idx+1:]
	}

	return trimmed
}

// Download streams the resource at rawURL into destPath and returns the
// number of bytes written. The body is written to a temporary name and
// renamed into place on success; on any failure the partial file is removed
// and destPath is left untouched.
func (f *Fetcher) Download(ctx context.Context, rawURL, destPath string) (int64, error) {
	logger := logctx.LoggerFromContext(ctx)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch %s: %w", rawURL, err)
	}

	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return 0, &StatusError{URL: rawURL, StatusCode: resp.StatusCode}
	}

	if err := os.MkdirAll(path.Dir(destPath), dirPerm); err != nil {
		return 0, fmt.Errorf("failed to create download directory: %w", err)
	}

	partPath := destPath + partSuffix

	out, err := os.Create(partPath)
	if err != nil {
		return 0, fmt.Errorf("failed to create download file: %w", err)
	}

	written, err := f.writeBody(ctx, out, resp.Body, rawURL, resp.ContentLength)

	closeErr := out.Close()

	if err == nil {
		err = closeErr
	}

	if err != nil {
		os.Remove(partPath)

		return 0, fmt.Errorf("failed to download %s: %w", rawURL, err)
	}

	if err := os.Rename(partPath, destPath); err != nil {
		os.Remove(partPath)

		return 0, fmt.Errorf("failed to finalize download: %w", err)
	}

	logger.Info("downloaded file", "url", rawURL, "target", destPath, "size", humanize.Bytes(uint64(written)))

	return written, nil
}

func (f *Fetcher) writeBody(ctx context.Context, out *os.File, body io.Reader, rawURL string, totalBytes int64) (int64, error) {
	logger := logctx.LoggerFromContext(ctx)

	progressCb := func(written int64, total int64) {
		if total > 0 {
			logger.Debug("download progress",
				"url", rawURL,
				"downloaded", humanize.Bytes(uint64(written)),
				"total", humanize.Bytes(uint64(total)),
				"percent", humanize.FtoaWithDigits(float64(written)*100/float64(total), 2))
		} else {
			logger.Debug("download progress", "url", rawURL, "downloaded", humanize.Bytes(uint64(written)))
		}
	}
	pr := progress.NewReader(body, totalBytes, progressInterval, progressCb)

	written, err := io.Copy(out, pr)
	if err != nil {
		return written, fmt.Errorf("failed to copy response body: %w", err)
	}

	return written, nil
}
