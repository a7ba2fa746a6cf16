package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// High-cardinality values (URLs, asset paths, request IDs) are kept out of
// span attributes and metric labels; they belong in logs. Bounded sets only:
// command names, tool names, status values.

// InstrumentedFunc represents a function that can be instrumented.
type InstrumentedFunc func(ctx context.Context) error

// InstrumentOperation instruments a generic operation with telemetry.
func (t *Telemetry) InstrumentOperation(ctx context.Context, operationName, component string, fn InstrumentedFunc) error {
	if t == nil || t.tracer == nil {
		return fn(ctx)
	}

	start := time.Now()
	ctx, span := t.tracer.Start(ctx, operationName)

	defer span.End()

	span.SetAttributes(
		attribute.String("component", component),
		attribute.String("operation", operationName),
	)

	err := fn(ctx)
	duration := time.Since(start)

	status := "success"
	if err != nil {
		status = "error"

		span.SetAttributes(attribute.Bool("error", true))
		span.SetStatus(codes.Error, err.Error())
	}

	span.SetAttributes(
		attribute.String("status", status),
		attribute.Float64("duration_seconds", duration.Seconds()),
	)

	return err
}

// InstrumentCommand instruments a single editor command exchange.
func (t *Telemetry) InstrumentCommand(ctx context.Context, command string, fn InstrumentedFunc) error {
	if t == nil {
		return fn(ctx)
	}

	err := t.InstrumentOperation(ctx, "editor_command", "unity_client", func(ctx context.Context) error {
		if t.tracer != nil {
			span := trace.SpanFromContext(ctx)
			span.SetAttributes(attribute.String("command.name", command))
		}

		return fn(ctx)
	})

	status := "success"
	if err != nil {
		status = "error"
	}

	t.RecordEditorCommand(command, status)

	return err
}

// InstrumentDownload instruments a remote asset download.
func (t *Telemetry) InstrumentDownload(ctx context.Context, fn func(ctx context.Context) (int64, error)) error {
	if t == nil {
		_, err := fn(ctx)

		return err
	}

	start := time.Now()

	t.IncrementActiveDownloads()
	defer t.DecrementActiveDownloads()

	var written int64

	err := t.InstrumentOperation(ctx, "download", "fetch", func(ctx context.Context) error {
		var fnErr error
		written, fnErr = fn(ctx)

		return fnErr
	})

	duration := time.Since(start)

	status := "success"
	if err != nil {
		status = "error"
	}

	t.RecordDownload(status, duration, written)

	return err
}
