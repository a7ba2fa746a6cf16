package rest_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/hkaya/unity_mcp_bridge/internal/http/rest"
	"github.com/hkaya/unity_mcp_bridge/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePinger struct {
	err error
}

func (f *fakePinger) Ping(context.Context) error { return f.err }

type fakeImports struct {
	records  []storage.ImportRecord
	err      error
	gotLimit int
}

func (f *fakeImports) RecentImports(limit int) ([]storage.ImportRecord, error) {
	f.gotLimit = limit

	return f.records, f.err
}

func TestHandleHealth(t *testing.T) {
	tests := []struct {
		name       string
		pingErr    error
		wantCode   int
		wantStatus string
		wantEditor string
	}{
		{"editor up", nil, http.StatusOK, "ok", "connected"},
		{"editor down", fmt.Errorf("connection refused"), http.StatusServiceUnavailable, "degraded", "unreachable"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := rest.NewManagementHandler(&fakePinger{err: tt.pingErr}, &fakeImports{}, nil, "1.2.0")

			rec := httptest.NewRecorder()
			handler.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

			assert.Equal(t, tt.wantCode, rec.Code)

			var body map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.wantStatus, body["status"])
			assert.Equal(t, tt.wantEditor, body["editor"])
			assert.Equal(t, "1.2.0", body["version"])
		})
	}
}

func TestHandleImports(t *testing.T) {
	imports := &fakeImports{
		records: []storage.ImportRecord{
			{
				URL:        "http://example.com/robot.fbx",
				TargetPath: "Assets/Models/robot.fbx",
				Status:     "imported",
				ImportedAt: time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
			},
		},
	}

	handler := rest.NewManagementHandler(&fakePinger{}, imports, nil, "1.2.0")

	rec := httptest.NewRecorder()
	handler.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/imports?limit=5", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 5, imports.gotLimit)

	var body struct {
		Imports []map[string]string `json:"imports"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Imports, 1)
	assert.Equal(t, "http://example.com/robot.fbx", body.Imports[0]["url"])
	assert.Equal(t, "imported", body.Imports[0]["status"])
	assert.Equal(t, "2026-08-01T12:00:00Z", body.Imports[0]["imported_at"])
}

func TestHandleImports_DefaultLimit(t *testing.T) {
	imports := &fakeImports{}
	handler := rest.NewManagementHandler(&fakePinger{}, imports, nil, "1.2.0")

	rec := httptest.NewRecorder()
	handler.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/imports", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 50, imports.gotLimit)
}

func TestHandleImports_BadLimit(t *testing.T) {
	tests := []string{"abc", "0", "-3"}
	for _, limit := range tests {
		t.Run(limit, func(t *testing.T) {
			handler := rest.NewManagementHandler(&fakePinger{}, &fakeImports{}, nil, "1.2.0")

			rec := httptest.NewRecorder()
			handler.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/imports?limit="+limit, nil))

			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestHandleImports_RepositoryError(t *testing.T) {
	handler := rest.NewManagementHandler(&fakePinger{}, &fakeImports{err: fmt.Errorf("db locked")}, nil, "1.2.0")

	rec := httptest.NewRecorder()
	handler.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/imports", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
