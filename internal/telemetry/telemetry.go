package telemetry

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/trace"
)

// Telemetry holds all telemetry instruments and providers.
type Telemetry struct {
	meterProvider metric.MeterProvider
	tracer        trace.Tracer
	meter         metric.Meter
	exporter      *prometheus.Exporter

	// RED metrics for the management HTTP surface
	httpRequestsTotal    metric.Int64Counter
	httpRequestDuration  metric.Float64Histogram
	httpRequestsInFlight metric.Int64UpDownCounter

	// Business metrics
	toolCallsTotal       metric.Int64Counter
	toolCallDuration     metric.Float64Histogram
	editorCommandsTotal  metric.Int64Counter
	editorCommandErrors  metric.Int64Counter
	downloadsTotal       metric.Int64Counter
	downloadsActive      metric.Int64UpDownCounter
	downloadDuration     metric.Float64Histogram
	downloadBytes        metric.Int64Counter
	cleanupFailuresTotal metric.Int64Counter
	cacheSweepDeletes    metric.Int64Counter
}

// Config holds telemetry configuration.
type Config struct {
	Enabled        bool
	ServiceName    string
	ServiceVersion string
}

// New creates a new telemetry instance. With Enabled=false all record and
// instrument methods are no-ops.
func New(ctx context.Context, cfg Config) (*Telemetry, error) {
	if !cfg.Enabled {
		return &Telemetry{}, nil
	}

	exporter, err := prometheus.New()
	if err != nil {
		return nil, fmt.Errorf("failed to create prometheus exporter: %w", err)
	}

	meterProvider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(exporter),
	)

	otel.SetMeterProvider(meterProvider)

	t := &Telemetry{
		meterProvider: meterProvider,
		tracer:        otel.Tracer(cfg.ServiceName),
		meter:         otel.Meter(cfg.ServiceName),
		exporter:      exporter,
	}

	if err := t.initializeMetrics(); err != nil {
		return nil, fmt.Errorf("failed to initialize metrics: %w", err)
	}

	return t, nil
}

// Tracer returns the OpenTelemetry tracer.
func (t *Telemetry) Tracer() trace.Tracer {
	return t.tracer
}

// RecordHTTPRequest records HTTP request metrics.
func (t *Telemetry) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	if t.httpRequestsTotal != nil {
		t.httpRequestsTotal.Add(context.Background(), 1,
			metric.WithAttributes(
				attribute.String("method", method),
				attribute.String("path", path),
				attribute.String("status", status),
			),
		)
	}

	if t.httpRequestDuration != nil {
		t.httpRequestDuration.Record(context.Background(), duration.Seconds(),
			metric.WithAttributes(
				attribute.String("method", method),
				attribute.String("path", path),
				attribute.String("status", status),
			),
		)
	}
}

// IncrementHTTPInFlight increments in-flight HTTP requests.
func (t *Telemetry) IncrementHTTPInFlight() {
	if t.httpRequestsInFlight != nil {
		t.httpRequestsInFlight.Add(context.Background(), 1)
	}
}

// DecrementHTTPInFlight decrements in-flight HTTP requests.
func (t *Telemetry) DecrementHTTPInFlight() {
	if t.httpRequestsInFlight != nil {
		t.httpRequestsInFlight.Add(context.Background(), -1)
	}
}

// RecordToolCall records the outcome of one MCP tool invocation.
func (t *Telemetry) RecordToolCall(tool, status string, duration time.Duration) {
	if t.toolCallsTotal != nil {
		t.toolCallsTotal.Add(context.Background(), 1,
			metric.WithAttributes(
				attribute.String("tool", tool),
				attribute.String("status", status),
			),
		)
	}

	if t.toolCallDuration != nil {
		t.toolCallDuration.Record(context.Background(), duration.Seconds(),
			metric.WithAttributes(
				attribute.String("tool", tool),
				attribute.String("status", status),
			),
		)
	}
}

// RecordEditorCommand records one command exchange with the editor plugin.
func (t *Telemetry) RecordEditorCommand(command, status string) {
	if t.editorCommandsTotal != nil {
		t.editorCommandsTotal.Add(context.Background(), 1,
			metric.WithAttributes(
				attribute.String("command", command),
				attribute.String("status", status),
			),
		)
	}

	if status != "success" && t.editorCommandErrors != nil {
		t.editorCommandErrors.Add(context.Background(), 1,
			metric.WithAttributes(attribute.String("command", command)),
		)
	}
}

// RecordDownload records download metrics.
func (t *Telemetry) RecordDownload(status string, duration time.Duration, bytes int64) {
	if t.downloadsTotal != nil {
		t.downloadsTotal.Add(context.Background(), 1,
			metric.WithAttributes(attribute.String("status", status)),
		)
	}

	if t.downloadDuration != nil {
		t.downloadDuration.Record(context.Background(), duration.Seconds(),
			metric.WithAttributes(attribute.String("status", status)),
		)
	}

	if bytes > 0 && t.downloadBytes != nil {
		t.downloadBytes.Add(context.Background(), bytes)
	}
}

// IncrementActiveDownloads increments the active downloads counter.
func (t *Telemetry) IncrementActiveDownloads() {
	if t.downloadsActive != nil {
		t.downloadsActive.Add(context.Background(), 1)
	}
}

// DecrementActiveDownloads decrements the active downloads counter.
func (t *Telemetry) DecrementActiveDownloads() {
	if t.downloadsActive != nil {
		t.downloadsActive.Add(context.Background(), -1)
	}
}

// RecordCleanupFailure records a best-effort cleanup that could not complete.
// Temp-dir removal errors are swallowed at the call site, so this counter is
// the only signal that disk cleanup is misbehaving.
func (t *Telemetry) RecordCleanupFailure(kind string) {
	if t == nil || t.cleanupFailuresTotal == nil {
		return
	}

	t.cleanupFailuresTotal.Add(context.Background(), 1,
		metric.WithAttributes(attribute.String("kind", kind)),
	)
}

// RecordCacheSweep records files deleted by the cache retention sweeper.
func (t *Telemetry) RecordCacheSweep(deleted int64) {
	if t == nil || t.cacheSweepDeletes == nil {
		return
	}

	t.cacheSweepDeletes.Add(context.Background(), deleted)
}

// Handler returns the HTTP handler for the metrics endpoint.
func (t *Telemetry) Handler() http.Handler {
	if t.exporter == nil {
		return http.NotFoundHandler()
	}

	return promhttp.Handler()
}

// Shutdown gracefully shuts down the telemetry system.
func (t *Telemetry) Shutdown(ctx context.Context) error {
	if mp, ok := t.meterProvider.(*sdkmetric.MeterProvider); ok {
		return mp.Shutdown(ctx)
	}

	return nil
}

func (t *Telemetry) initializeMetrics() error {
	var err error

	t.httpRequestsTotal, err = t.meter.Int64Counter(
		"http_requests_total",
		metric.WithDescription("Total number of HTTP requests"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return fmt.Errorf("failed to create http_requests_total counter: %w", err)
	}

	t.httpRequestDuration, err = t.meter.Float64Histogram(
		"http_request_duration_seconds",
		metric.WithDescription("HTTP request duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return fmt.Errorf("failed to create http_request_duration histogram: %w", err)
	}

	t.httpRequestsInFlight, err = t.meter.Int64UpDownCounter(
		"http_requests_in_flight",
		metric.WithDescription("Number of HTTP requests currently being processed"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return fmt.Errorf("failed to create http_requests_in_flight counter: %w", err)
	}

	t.toolCallsTotal, err = t.meter.Int64Counter(
		"tool_calls_total",
		metric.WithDescription("Total number of MCP tool invocations"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return fmt.Errorf("failed to create tool_calls_total counter: %w", err)
	}

	t.toolCallDuration, err = t.meter.Float64Histogram(
		"tool_call_duration_seconds",
		metric.WithDescription("MCP tool invocation duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return fmt.Errorf("failed to create tool_call_duration histogram: %w", err)
	}

	t.editorCommandsTotal, err = t.meter.Int64Counter(
		"editor_commands_total",
		metric.WithDescription("Total number of commands sent to the editor plugin"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return fmt.Errorf("failed to create editor_commands_total counter: %w", err)
	}

	t.editorCommandErrors, err = t.meter.Int64Counter(
		"editor_command_errors_total",
		metric.WithDescription("Total number of failed editor commands"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return fmt.Errorf("failed to create editor_command_errors counter: %w", err)
	}

	t.downloadsTotal, err = t.meter.Int64Counter(
		"downloads_total",
		metric.WithDescription("Total number of remote asset downloads"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return fmt.Errorf("failed to create downloads_total counter: %w", err)
	}

	t.downloadsActive, err = t.meter.Int64UpDownCounter(
		"downloads_active",
		metric.WithDescription("Number of active downloads"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return fmt.Errorf("failed to create downloads_active counter: %w", err)
	}

	t.downloadDuration, err = t.meter.Float64Histogram(
		"download_duration_seconds",
		metric.WithDescription("Download duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return fmt.Errorf("failed to create download_duration histogram: %w", err)
	}

	t.downloadBytes, err = t.meter.Int64Counter(
		"download_bytes_total",
		metric.WithDescription("Total bytes downloaded"),
		metric.WithUnit("By"),
	)
	if err != nil {
		return fmt.Errorf("failed to create download_bytes counter: %w", err)
	}

	t.cleanupFailuresTotal, err = t.meter.Int64Counter(
		"cleanup_failures_total",
		metric.WithDescription("Total number of best-effort cleanups that failed"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return fmt.Errorf("failed to create cleanup_failures counter: %w", err)
	}

	t.cacheSweepDeletes, err = t.meter.Int64Counter(
		"cache_sweep_deletes_total",
		metric.WithDescription("Total number of cache files deleted by the retention sweeper"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return fmt.Errorf("failed to create cache_sweep_deletes counter: %w", err)
	}

	return nil
}
