package rest

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hkaya/unity_mcp_bridge/internal/logctx"
	"github.com/hkaya/unity_mcp_bridge/internal/storage"
	"github.com/hkaya/unity_mcp_bridge/internal/telemetry"
)

const defaultImportsLimit = 50

// Pinger checks connectivity with the editor plugin.
type Pinger interface {
	Ping(ctx context.Context) error
}

type healthResponse struct {
	Status    string `json:"status"`
	Editor    string `json:"editor"`
	Version   string `json:"version"`
	Timestamp string `json:"timestamp"`
}

type importEntry struct {
	URL        string `json:"url"`
	TargetPath string `json:"target_path"`
	Status     string `json:"status"`
	Message    string `json:"message,omitempty"`
	ImportedAt string `json:"imported_at"`
}

// ManagementHandler exposes operational endpoints next to the MCP surface.
type ManagementHandler struct {
	pinger    Pinger
	imports   storage.ImportReadRepository
	telemetry *telemetry.Telemetry
	version   string
}

// NewManagementHandler creates a new management handler.
func NewManagementHandler(pinger Pinger, imports storage.ImportReadRepository, t *telemetry.Telemetry, version string) *ManagementHandler {
	return &ManagementHandler{
		pinger:    pinger,
		imports:   imports,
		telemetry: t,
		version:   version,
	}
}

func (h *ManagementHandler) Routes() http.Handler {
	r := chi.NewRouter()

	r.Get("/health", h.HandleHealth)
	r.Get("/imports", h.HandleImports)

	if h.telemetry != nil {
		r.Handle("/metrics", h.telemetry.Handler())
	}

	return r
}

// HandleHealth reports service liveness and editor connectivity.
func (h *ManagementHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	logger := logctx.LoggerFromContext(r.Context())

	resp := healthResponse{
		Status:    "ok",
		Editor:    "connected",
		Version:   h.version,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}

	code := http.StatusOK

	if err := h.pinger.Ping(r.Context()); err != nil {
		logger.Warn("editor ping failed", "err", err)

		resp.Status = "degraded"
		resp.Editor = "unreachable"
		code = http.StatusServiceUnavailable
	}

	writeJSON(w, code, resp)
}

// HandleImports returns the most recent import ledger entries.
func (h *ManagementHandler) HandleImports(w http.ResponseWriter, r *http.Request) {
	logger := logctx.LoggerFromContext(r.Context())

	limit := defaultImportsLimit

	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			http.Error(w, "limit must be a positive integer", http.StatusBadRequest)

			return
		}

		limit = parsed
	}

	records, err := h.imports.RecentImports(limit)
	if err != nil {
		logger.Error("failed to read import history", "err", err)
		http.Error(w, "failed to read import history", http.StatusInternalServerError)

		return
	}

	entries := make([]importEntry, len(records))

	for i, rec := range records {
		entries[i] = importEntry{
			URL:        rec.URL,
			TargetPath: rec.TargetPath,
			Status:     rec.Status,
			Message:    rec.Message,
			ImportedAt: rec.ImportedAt.UTC().Format(time.RFC3339),
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{"imports": entries})
}

func writeJSON(w http.ResponseWriter, code int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)

	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
	}
}
