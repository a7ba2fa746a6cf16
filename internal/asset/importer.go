package asset

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/hkaya/unity_mcp_bridge/internal/fetch"
	"github.com/hkaya/unity_mcp_bridge/internal/logctx"
	"github.com/hkaya/unity_mcp_bridge/internal/notifier"
	"github.com/hkaya/unity_mcp_bridge/internal/storage"
	"github.com/hkaya/unity_mcp_bridge/internal/telemetry"
	"github.com/hkaya/unity_mcp_bridge/internal/unity"
	"golang.org/x/sync/errgroup"
)

const (
	dirPerm = 0755

	tempDirPattern = "unity_asset_*"
)

// ImportRequest describes one remote asset to download and import.
type ImportRequest struct {
	URL        string
	TargetPath string
	Overwrite  bool
	// UseTempStorage downloads into a fresh temporary directory removed
	// after the import; otherwise the shared persistent cache is used.
	UseTempStorage bool
}

// Importer downloads remote resources and hands them to the editor plugin
// for import. Both public operations convert every failure into a Result;
// nothing propagates as an error past this boundary.
type Importer struct {
	sender      unity.CommandSender
	fetcher     *fetch.Fetcher
	assetRoot   string
	cacheRoot   string
	maxParallel int

	// History records outcomes best-effort when set; a recording failure
	// never changes the Result.
	History storage.ImportWriteRepository
	// Notifier is told about failed imports when set.
	Notifier notifier.Notifier
	// Telemetry instruments downloads and surfaces swallowed cleanup errors.
	Telemetry *telemetry.Telemetry

	locks pathLocks
}

// NewImporter creates an Importer. assetRoot is the project asset tree root
// ("Assets"); cacheRoot is the persistent download cache used when a request
// opts out of temp storage; maxParallel bounds batch fan-out.
func NewImporter(sender unity.CommandSender, fetcher *fetch.Fetcher, assetRoot, cacheRoot string, maxParallel int) *Importer {
	if maxParallel < 1 {
		maxParallel = 1
	}

	return &Importer{
		sender:      sender,
		fetcher:     fetcher,
		assetRoot:   assetRoot,
		cacheRoot:   cacheRoot,
		maxParallel: maxParallel,
	}
}

// NormalizeTargetPath roots path under the asset tree.
func (i *Importer) NormalizeTargetPath(path string) string {
	if path == i.assetRoot || strings.HasPrefix(path, i.assetRoot+"/") {
		return path
	}

	return i.assetRoot + "/" + path
}

// ImportRemote downloads the resource at req.URL and imports it at
// req.TargetPath. The existence check runs before any network I/O, temp
// storage is removed unconditionally, and every outcome is a Result.
func (i *Importer) ImportRemote(ctx context.Context, req ImportRequest) Result {
	res := i.importRemote(ctx, req)

	i.record(ctx, res)
	i.notifyFailure(ctx, res)

	return res
}

func (i *Importer) importRemote(ctx context.Context, req ImportRequest) Result {
	logger := logctx.LoggerFromContext(ctx)

	if req.URL == "" {
		return Result{
			Kind:    KindInvalidArgument,
			Message: "Error importing remote asset: url must be a non-empty string",
		}
	}

	if req.TargetPath == "" {
		return Result{
			Kind:      KindInvalidArgument,
			Message:   "Error importing remote asset: target_path must be a non-empty string",
			SourceURL: req.URL,
		}
	}

	targetPath := i.NormalizeTargetPath(req.TargetPath)

	fail := func(kind Kind, msg string) Result {
		return Result{Kind: kind, Message: msg, SourceURL: req.URL, TargetPath: targetPath}
	}

	// Serialize the check+download+import pipeline per resolved target so
	// concurrent batch items can never race on the same asset path.
	unlock := i.locks.lock(targetPath)
	defer unlock()

	targetDir, targetFilename := splitAssetPath(targetPath, i.assetRoot)

	listing, err := i.sender.SendCommand(ctx, unity.CmdGetAssetList, unity.Params{
		"search_pattern": targetFilename,
		"folder":         targetDir,
	})
	if err != nil {
		return fail(KindInternal, fmt.Sprintf("Error importing remote asset: %v (URL: %s, Target: %s)", err, req.URL, targetPath))
	}

	if listing.HasAssetAt(targetPath) && !req.Overwrite {
		return Result{
			Kind:       KindAlreadyExists,
			Message:    fmt.Sprintf("Asset already exists at '%s'. Use overwrite=true to replace it.", targetPath),
			SourceURL:  req.URL,
			TargetPath: targetPath,
		}
	}

	filename := fetch.FilenameFromURL(req.URL)
	if filename == "" {
		return fail(KindInvalidArgument, fmt.Sprintf("Error importing remote asset: cannot derive a filename from URL %s", req.URL))
	}

	var downloadDir string

	if req.UseTempStorage {
		downloadDir, err = os.MkdirTemp("", tempDirPattern)
		if err != nil {
			return fail(KindInternal, fmt.Sprintf("Error importing remote asset: failed to create temp directory: %v (URL: %s, Target: %s)", err, req.URL, targetPath))
		}

		// Best-effort removal regardless of how the import ends. The error
		// is surfaced through logs and a metric, never through the Result.
		defer func() {
			if rmErr := os.RemoveAll(downloadDir); rmErr != nil {
				logger.Warn("failed to remove temp download directory", "dir", downloadDir, "err", rmErr)
				i.Telemetry.RecordCleanupFailure("temp_dir")
			}
		}()
	} else {
		downloadDir = i.cacheRoot
		// Shared across requests: existing directory is success, not error.
		if err := os.MkdirAll(downloadDir, dirPerm); err != nil {
			return fail(KindInternal, fmt.Sprintf("Error importing remote asset: failed to create cache directory: %v (URL: %s, Target: %s)", err, req.URL, targetPath))
		}
	}

	downloadPath := filepath.Join(downloadDir, filename)

	if err := i.download(ctx, req.URL, downloadPath); err != nil {
		return fail(KindDownloadFailed, fmt.Sprintf("Error importing remote asset: failed to download from %s: %v", req.URL, err))
	}

	if _, err := os.Stat(downloadPath); err != nil {
		return fail(KindFileMissing, fmt.Sprintf("Download appeared to succeed but the file is missing: %s", downloadPath))
	}

	response, err := i.sender.SendCommand(ctx, unity.CmdImportAsset, unity.Params{
		"source_path": downloadPath,
		"target_path": targetPath,
		"overwrite":   req.Overwrite,
	})
	if err != nil {
		return fail(KindInternal, fmt.Sprintf("Error importing remote asset: %v (URL: %s, Target: %s)", err, req.URL, targetPath))
	}

	if !response.OK() {
		return fail(KindImportFailed, fmt.Sprintf("Error importing remote asset: %s (URL: %s, Target: %s)", response.ErrorMessage(), req.URL, targetPath))
	}

	return Result{
		Kind:       KindImported,
		Message:    response.Message(fmt.Sprintf("Asset imported successfully from %s to %s", req.URL, targetPath)),
		SourceURL:  req.URL,
		TargetPath: targetPath,
	}
}

// BatchImportRemote imports every URL into targetFolder, one Result per URL
// in input order. Fan-out is bounded by maxParallel and one item's failure
// never aborts the rest. An empty urls slice returns nil without any
// collaborator call.
func (i *Importer) BatchImportRemote(ctx context.Context, urls []string, targetFolder string, overwrite bool) []Result {
	if len(urls) == 0 {
		return nil
	}

	results := make([]Result, len(urls))

	wg, ctx := errgroup.WithContext(ctx)
	wg.SetLimit(i.maxParallel)

	for idx, url := range urls {
		wg.Go(func() error {
			results[idx] = i.ImportRemote(ctx, ImportRequest{
				URL:            url,
				TargetPath:     targetFolder + "/" + fetch.FilenameFromURL(url),
				Overwrite:      overwrite,
				UseTempStorage: true,
			})

			return nil
		})
	}

	// Workers report through results, never through errors.
	_ = wg.Wait()

	return results
}

// FormatBatch renders per-item results as indexed status lines, one per
// input URL, in input order.
func FormatBatch(urls []string, results []Result) string {
	if len(urls) == 0 {
		return "URL list is empty, no assets to import"
	}

	lines := make([]string, len(results))
	for idx, res := range results {
		lines[idx] = fmt.Sprintf("[%d/%d] %s: %s", idx+1, len(urls), fetch.FilenameFromURL(urls[idx]), res.Message)
	}

	return strings.Join(lines, "\n")
}

func (i *Importer) download(ctx context.Context, url, downloadPath string) error {
	if i.Telemetry == nil {
		_, err := i.fetcher.Download(ctx, url, downloadPath)

		return err
	}

	return i.Telemetry.InstrumentDownload(ctx, func(ctx context.Context) (int64, error) {
		return i.fetcher.Download(ctx, url, downloadPath)
	})
}

func (i *Importer) record(ctx context.Context, res Result) {
	if i.History == nil {
		return
	}

	err := i.History.RecordImport(storage.ImportRecord{
		URL:        res.SourceURL,
		TargetPath: res.TargetPath,
		Status:     res.Kind.String(),
		Message:    res.Message,
		ImportedAt: time.Now().UTC(),
	})
	if err != nil {
		logctx.LoggerFromContext(ctx).Warn("failed to record import history", "url", res.SourceURL, "err", err)
	}
}

func (i *Importer) notifyFailure(ctx context.Context, res Result) {
	if i.Notifier == nil || !res.Kind.Failed() {
		return
	}

	logger := logctx.LoggerFromContext(ctx)

	go func() {
		if err := i.Notifier.Notify("Remote asset import failed: " + res.Message); err != nil {
			logger.Error("failed to send notification", "url", res.SourceURL, "err", err)
		}
	}()
}

// splitAssetPath splits an asset path into its containing folder and
// filename, defaulting the folder to the asset root for top-level paths.
func splitAssetPath(path, assetRoot string) (dir, filename string) {
	idx := strings.LastIndexByte(path, '/')
	if idx < 0 {
		return assetRoot, path
	}

	dir = path[:idx]
	if dir == "" {
		dir = assetRoot
	}

	return dir, path[idx+1:]
}

// pathLocks hands out one mutex per target path.
type pathLocks struct {
	mu sync.Mutex
	m  map[string]*sync.Mutex
}

func (l *pathLocks) lock(key string) (unlock func()) {
	l.mu.Lock()

	if l.m == nil {
		l.m = make(map[string]*sync.Mutex)
	}

	pathMu, ok := l.m[key]
	if !ok {
		pathMu = &sync.Mutex{}
		l.m[key] = pathMu
	}

	l.mu.Unlock()

	pathMu.Lock()

	return pathMu.Unlock
}
