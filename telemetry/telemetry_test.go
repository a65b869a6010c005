package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestNewLoggerHasServiceField(t *testing.T) {
	logger := NewLogger("netprune")
	require.NotNil(t, logger)
}

func TestOTELHookAddsTraceContext(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	provider := sdktrace.NewTracerProvider(
		sdktrace.WithSyncer(exporter),
	)
	tracer := provider.Tracer("test")

	ctx, span := tracer.Start(context.Background(), "test-span")
	defer span.End()

	logger := NewLogger("test")
	// Must not panic with and without span context
	logger.WithContext(ctx).Info().Msg("with span")
	logger.WithContext(context.Background()).Info().Msg("without span")
}

func TestInitScanMetrics(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	meter := provider.Meter("test")

	m, err := InitScanMetrics(meter)
	require.NoError(t, err)
	require.NotNil(t, m)

	ctx := context.Background()
	m.RecordResourcesScanned(ctx, "security_group", "us-east-1", 12)
	m.RecordUnusedFound(ctx, "security_group", "us-east-1", 3)
	m.RecordCollectorError(ctx, "ec2-instances", "us-east-1")
	m.RecordDeleteAttempt(ctx, "security_group", "us-east-1", "succeeded")
	m.RecordScanDuration(ctx, "security_group", 1234.5)
	m.RecordRegionDuration(ctx, "security_group", "us-east-1", 456.7)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))
	require.Len(t, rm.ScopeMetrics, 1)

	names := make(map[string]bool)
	for _, sm := range rm.ScopeMetrics[0].Metrics {
		names[sm.Name] = true
	}
	assert.True(t, names["netprune.resources.scanned.total"])
	assert.True(t, names["netprune.unused.found.total"])
	assert.True(t, names["netprune.collector.errors.total"])
	assert.True(t, names["netprune.deletes.attempted.total"])
	assert.True(t, names["netprune.scan.duration.ms"])
	assert.True(t, names["netprune.region.duration.ms"])
}
