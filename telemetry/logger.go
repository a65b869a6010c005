package telemetry

import (
	"context"
	"os"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// OTELHook adds trace and span IDs to every log entry
type OTELHook struct{}

func (h OTELHook) Run(e *zerolog.Event, level zerolog.Level, msg string) {
	ctx := e.GetCtx()
	if ctx == nil {
		return
	}

	span := trace.SpanFromContext(ctx)
	if !span.SpanContext().IsValid() {
		return
	}

	e.Str("trace_id", span.SpanContext().TraceID().String())
	e.Str("span_id", span.SpanContext().SpanID().String())

	if level == zerolog.ErrorLevel {
		span.SetStatus(codes.Error, msg)
	}
}

// Logger wraps zerolog with OTEL integration
type Logger struct {
	zerolog.Logger
}

// NewLogger creates a new logger with OTEL hooks
func NewLogger(service string) *Logger {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnixMs

	logger := zerolog.New(os.Stderr).
		With().
		Timestamp().
		Str("service", service).
		Logger().
		Hook(OTELHook{})

	return &Logger{Logger: logger}
}

// WithContext returns a logger with context (for trace propagation)
func (l *Logger) WithContext(ctx context.Context) *zerolog.Logger {
	logger := l.Logger.With().Ctx(ctx).Logger()
	return &logger
}

// Convenience methods for scan and delete operations

func (l *Logger) LogScanStart(ctx context.Context, resourceType string, regions []string) {
	l.WithContext(ctx).Info().
		Str("resource_type", resourceType).
		Strs("regions", regions).
		Str("operation", "scan").
		Msg("starting scan")
}

func (l *Logger) LogScanComplete(ctx context.Context, resourceType string, total, unused int, durationMs float64) {
	l.WithContext(ctx).Info().
		Str("resource_type", resourceType).
		Int("total", total).
		Int("unused", unused).
		Float64("duration_ms", durationMs).
		Str("operation", "scan").
		Msg("scan completed")
}

func (l *Logger) LogCollectorError(ctx context.Context, collector string, err error) {
	l.WithContext(ctx).Warn().
		Err(err).
		Str("collector", collector).
		Msg("collector failed, results may include false positives")
}

func (l *Logger) LogRegionError(ctx context.Context, region string, err error) {
	l.WithContext(ctx).Error().
		Err(err).
		Str("region", region).
		Msg("region scan failed")
}

func (l *Logger) LogDeleteOutcome(ctx context.Context, resourceID, region, status, reason string) {
	event := l.WithContext(ctx).Info()
	if status == "failed" {
		event = l.WithContext(ctx).Error()
	}
	event.
		Str("resource_id", resourceID).
		Str("region", region).
		Str("status", status).
		Str("reason", reason).
		Str("operation", "delete").
		Msg("delete attempted")
}
