package asset_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/hkaya/unity_mcp_bridge/internal/asset"
	"github.com/hkaya/unity_mcp_bridge/internal/fetch"
	"github.com/hkaya/unity_mcp_bridge/internal/storage"
	"github.com/hkaya/unity_mcp_bridge/internal/unity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sentCommand struct {
	name   string
	params unity.Params
}

// fakeSender scripts per-command responses and records every call.
type fakeSender struct {
	mu        sync.Mutex
	responses map[string]unity.Response
	errs      map[string]error
	calls     []sentCommand
}

func newFakeSender() *fakeSender {
	return &fakeSender{
		responses: map[string]unity.Response{},
		errs:      map[string]error{},
	}
}

func (f *fakeSender) SendCommand(_ context.Context, name string, params map[string]any) (unity.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls = append(f.calls, sentCommand{name: name, params: params})

	if err := f.errs[name]; err != nil {
		return nil, err
	}

	if resp, ok := f.responses[name]; ok {
		return resp, nil
	}

	return unity.Response{"success": true}, nil
}

func (f *fakeSender) callsFor(name string) []sentCommand {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []sentCommand

	for _, call := range f.calls {
		if call.name == name {
			out = append(out, call)
		}
	}

	return out
}

type memoryLedger struct {
	mu      sync.Mutex
	records []storage.ImportRecord
}

func (m *memoryLedger) RecordImport(record storage.ImportRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.records = append(m.records, record)

	return nil
}

func assetServer(t *testing.T, hits *int32) *httptest.Server {
	t.Helper()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits != nil {
			atomic.AddInt32(hits, 1)
		}

		fmt.Fprint(w, "fbx-bytes")
	}))
	t.Cleanup(ts.Close)

	return ts
}

func newTestImporter(t *testing.T, sender unity.CommandSender, maxParallel int) *asset.Importer {
	t.Helper()

	return asset.NewImporter(sender, fetch.New(5*time.Second), "Assets", filepath.Join(t.TempDir(), "cache"), maxParallel)
}

func TestImportRemote_InvalidArguments(t *testing.T) {
	tests := []struct {
		name    string
		req     asset.ImportRequest
		wantMsg string
	}{
		{"empty url", asset.ImportRequest{TargetPath: "Assets/Models/a.fbx"}, "url must be a non-empty string"},
		{"empty target", asset.ImportRequest{URL: "http://example.com/a.fbx"}, "target_path must be a non-empty string"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sender := newFakeSender()
			imp := newTestImporter(t, sender, 1)

			res := imp.ImportRemote(context.Background(), tt.req)

			assert.Equal(t, asset.KindInvalidArgument, res.Kind)
			assert.Contains(t, res.Message, tt.wantMsg)
			assert.Empty(t, sender.calls, "no editor command should be sent for invalid input")
		})
	}
}

func TestImportRemote_ExistingAssetSkipsNetwork(t *testing.T) {
	var hits int32

	ts := assetServer(t, &hits)

	sender := newFakeSender()
	sender.responses[unity.CmdGetAssetList] = unity.Response{
		"success": true,
		"assets":  []any{map[string]any{"path": "Assets/Models/robot.fbx", "name": "robot"}},
	}

	imp := newTestImporter(t, sender, 1)

	res := imp.ImportRemote(context.Background(), asset.ImportRequest{
		URL:        ts.URL + "/robot.fbx",
		TargetPath: "Models/robot.fbx",
	})

	assert.Equal(t, asset.KindAlreadyExists, res.Kind)
	assert.False(t, res.Kind.Failed())
	assert.Contains(t, res.Message, "Asset already exists at 'Assets/Models/robot.fbx'")
	assert.Contains(t, res.Message, "overwrite=true")
	assert.Zero(t, atomic.LoadInt32(&hits), "existence check must run before any download")
	assert.Empty(t, sender.callsFor(unity.CmdImportAsset))
}

func TestImportRemote_OverwriteReplacesExisting(t *testing.T) {
	ts := assetServer(t, nil)

	sender := newFakeSender()
	sender.responses[unity.CmdGetAssetList] = unity.Response{
		"success": true,
		"assets":  []any{map[string]any{"path": "Assets/Models/robot.fbx", "name": "robot"}},
	}

	imp := newTestImporter(t, sender, 1)

	res := imp.ImportRemote(context.Background(), asset.ImportRequest{
		URL:        ts.URL + "/robot.fbx",
		TargetPath: "Models/robot.fbx",
		Overwrite:  true,
	})

	require.Equal(t, asset.KindImported, res.Kind)

	imported := sender.callsFor(unity.CmdImportAsset)
	require.Len(t, imported, 1)
	assert.Equal(t, "Assets/Models/robot.fbx", imported[0].params["target_path"])
	assert.Equal(t, true, imported[0].params["overwrite"])
}

func TestImportRemote_TempStorageRemoved(t *testing.T) {
	ts := assetServer(t, nil)

	sender := newFakeSender()

	var importedSource string

	imp := newTestImporter(t, sender, 1)

	res := imp.ImportRemote(context.Background(), asset.ImportRequest{
		URL:            ts.URL + "/robot.fbx",
		TargetPath:     "Models/robot.fbx",
		UseTempStorage: true,
	})

	require.Equal(t, asset.KindImported, res.Kind, res.Message)

	imported := sender.callsFor(unity.CmdImportAsset)
	require.Len(t, imported, 1)
	importedSource, _ = imported[0].params["source_path"].(string)
	require.NotEmpty(t, importedSource)

	_, err := os.Stat(filepath.Dir(importedSource))
	assert.True(t, os.IsNotExist(err), "temp directory must be removed after the import")
}

func TestImportRemote_CacheStoragePersists(t *testing.T) {
	ts := assetServer(t, nil)

	sender := newFakeSender()
	cacheDir := filepath.Join(t.TempDir(), "cache")
	imp := asset.NewImporter(sender, fetch.New(5*time.Second), "Assets", cacheDir, 1)

	res := imp.ImportRemote(context.Background(), asset.ImportRequest{
		URL:        ts.URL + "/robot.fbx",
		TargetPath: "Models/robot.fbx",
	})

	require.Equal(t, asset.KindImported, res.Kind, res.Message)

	data, err := os.ReadFile(filepath.Join(cacheDir, "robot.fbx"))
	require.NoError(t, err)
	assert.Equal(t, "fbx-bytes", string(data))
}

func TestImportRemote_DownloadFailure(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer ts.Close()

	sender := newFakeSender()
	imp := newTestImporter(t, sender, 1)

	res := imp.ImportRemote(context.Background(), asset.ImportRequest{
		URL:            ts.URL + "/missing.fbx",
		TargetPath:     "Models/missing.fbx",
		UseTempStorage: true,
	})

	assert.Equal(t, asset.KindDownloadFailed, res.Kind)
	assert.True(t, res.Kind.Failed())
	assert.Contains(t, res.Message, "failed to download from")
	assert.Empty(t, sender.callsFor(unity.CmdImportAsset), "failed download must not reach the editor")
}

func TestImportRemote_EditorRejectsImport(t *testing.T) {
	ts := assetServer(t, nil)

	sender := newFakeSender()
	sender.responses[unity.CmdImportAsset] = unity.Response{"success": false, "error": "unsupported format"}

	imp := newTestImporter(t, sender, 1)

	res := imp.ImportRemote(context.Background(), asset.ImportRequest{
		URL:            ts.URL + "/robot.fbx",
		TargetPath:     "Models/robot.fbx",
		UseTempStorage: true,
	})

	assert.Equal(t, asset.KindImportFailed, res.Kind)
	assert.Contains(t, res.Message, "unsupported format")
	assert.Contains(t, res.Message, "Assets/Models/robot.fbx")
}

func TestImportRemote_EditorUnreachable(t *testing.T) {
	sender := newFakeSender()
	sender.errs[unity.CmdGetAssetList] = fmt.Errorf("connection refused")

	imp := newTestImporter(t, sender, 1)

	res := imp.ImportRemote(context.Background(), asset.ImportRequest{
		URL:        "http://example.com/robot.fbx",
		TargetPath: "Models/robot.fbx",
	})

	assert.Equal(t, asset.KindInternal, res.Kind)
	assert.Contains(t, res.Message, "connection refused")
}

func TestImportRemote_RecordsHistory(t *testing.T) {
	ts := assetServer(t, nil)

	sender := newFakeSender()
	ledger := &memoryLedger{}

	imp := newTestImporter(t, sender, 1)
	imp.History = ledger

	res := imp.ImportRemote(context.Background(), asset.ImportRequest{
		URL:            ts.URL + "/robot.fbx",
		TargetPath:     "Models/robot.fbx",
		UseTempStorage: true,
	})

	require.Equal(t, asset.KindImported, res.Kind)
	require.Len(t, ledger.records, 1)
	assert.Equal(t, "imported", ledger.records[0].Status)
	assert.Equal(t, "Assets/Models/robot.fbx", ledger.records[0].TargetPath)
}

func TestBatchImportRemote_Empty(t *testing.T) {
	sender := newFakeSender()
	imp := newTestImporter(t, sender, 4)

	results := imp.BatchImportRemote(context.Background(), nil, "Assets/ImportedAssets", false)

	assert.Nil(t, results)
	assert.Empty(t, sender.calls, "empty batch must not touch the editor")
}

func TestBatchImportRemote_OrderedResults(t *testing.T) {
	ts := assetServer(t, nil)

	sender := newFakeSender()
	imp := newTestImporter(t, sender, 3)

	urls := []string{
		ts.URL + "/a.fbx",
		"", // invalid entry must fail alone
		ts.URL + "/c.fbx",
	}

	results := imp.BatchImportRemote(context.Background(), urls, "Assets/ImportedAssets", false)

	require.Len(t, results, len(urls))
	assert.Equal(t, asset.KindImported, results[0].Kind)
	assert.Equal(t, asset.KindInvalidArgument, results[1].Kind)
	assert.Equal(t, asset.KindImported, results[2].Kind)
	assert.Equal(t, "Assets/ImportedAssets/a.fbx", results[0].TargetPath)
	assert.Equal(t, "Assets/ImportedAssets/c.fbx", results[2].TargetPath)
}

func TestFormatBatch(t *testing.T) {
	urls := []string{"http://example.com/a.fbx?v=2", "http://example.com/b.png"}
	results := []asset.Result{
		{Kind: asset.KindImported, Message: "Asset imported successfully from http://example.com/a.fbx?v=2 to Assets/ImportedAssets/a.fbx"},
		{Kind: asset.KindDownloadFailed, Message: "Error importing remote asset: failed to download from http://example.com/b.png: boom"},
	}

	out := asset.FormatBatch(urls, results)

	assert.Contains(t, out, "[1/2] a.fbx: Asset imported successfully")
	assert.Contains(t, out, "[2/2] b.png: Error importing remote asset")
}

func TestFormatBatch_Empty(t *testing.T) {
	assert.Equal(t, "URL list is empty, no assets to import", asset.FormatBatch(nil, nil))
}

func TestKindFailed(t *testing.T) {
	tests := []struct {
		kind   asset.Kind
		failed bool
	}{
		{asset.KindImported, false},
		{asset.KindAlreadyExists, false},
		{asset.KindInvalidArgument, true},
		{asset.KindDownloadFailed, true},
		{asset.KindFileMissing, true},
		{asset.KindImportFailed, true},
		{asset.KindInternal, true},
	}
	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			assert.Equal(t, tt.failed, tt.kind.Failed())
		})
	}
}
