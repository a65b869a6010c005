package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// ScanMetrics holds all scan and cleanup metrics
type ScanMetrics struct {
	// Counters
	ResourcesScanned metric.Int64Counter
	UnusedFound      metric.Int64Counter
	CollectorErrors  metric.Int64Counter
	DeletesAttempted metric.Int64Counter

	// Histograms
	ScanDuration   metric.Float64Histogram
	RegionDuration metric.Float64Histogram
}

// InitScanMetrics initializes all scan metrics
func InitScanMetrics(meter metric.Meter) (*ScanMetrics, error) {
	m := &ScanMetrics{}

	if err := m.initCounters(meter); err != nil {
		return nil, err
	}

	if err := m.initHistograms(meter); err != nil {
		return nil, err
	}

	return m, nil
}

// initCounters initializes counter metrics
func (m *ScanMetrics) initCounters(meter metric.Meter) error {
	var err error

	m.ResourcesScanned, err = meter.Int64Counter(
		"netprune.resources.scanned.total",
		metric.WithDescription("Total number of resources inventoried"),
		metric.WithUnit("resources"),
	)
	if err != nil {
		return err
	}

	m.UnusedFound, err = meter.Int64Counter(
		"netprune.unused.found.total",
		metric.WithDescription("Total number of unused resources detected"),
		metric.WithUnit("resources"),
	)
	if err != nil {
		return err
	}

	m.CollectorErrors, err = meter.Int64Counter(
		"netprune.collector.errors.total",
		metric.WithDescription("Total number of evidence collector failures"),
		metric.WithUnit("errors"),
	)
	if err != nil {
		return err
	}

	m.DeletesAttempted, err = meter.Int64Counter(
		"netprune.deletes.attempted.total",
		metric.WithDescription("Total number of delete attempts by outcome"),
		metric.WithUnit("deletes"),
	)
	if err != nil {
		return err
	}

	return nil
}

// initHistograms initializes histogram metrics
func (m *ScanMetrics) initHistograms(meter metric.Meter) error {
	var err error

	m.ScanDuration, err = meter.Float64Histogram(
		"netprune.scan.duration.ms",
		metric.WithDescription("Time taken to complete a multi-region scan"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return err
	}

	m.RegionDuration, err = meter.Float64Histogram(
		"netprune.region.duration.ms",
		metric.WithDescription("Time taken to evaluate one region"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return err
	}

	return nil
}

// RecordResourcesScanned records inventoried resource counts
func (m *ScanMetrics) RecordResourcesScanned(
	ctx context.Context,
	resourceType string,
	region string,
	count int64,
) {
	m.ResourcesScanned.Add(ctx, count,
		metric.WithAttributeSet(attribute.NewSet(
			attribute.String("resource_type", resourceType),
			attribute.String("region", region),
		)),
	)
}

// RecordUnusedFound records detected unused resources
func (m *ScanMetrics) RecordUnusedFound(
	ctx context.Context,
	resourceType string,
	region string,
	count int64,
) {
	m.UnusedFound.Add(ctx, count,
		metric.WithAttributeSet(attribute.NewSet(
			attribute.String("resource_type", resourceType),
			attribute.String("region", region),
		)),
	)
}

// RecordCollectorError records an evidence collector failure
func (m *ScanMetrics) RecordCollectorError(
	ctx context.Context,
	collector string,
	region string,
) {
	m.CollectorErrors.Add(ctx, 1,
		metric.WithAttributeSet(attribute.NewSet(
			attribute.String("collector", collector),
			attribute.String("region", region),
		)),
	)
}

// RecordDeleteAttempt records a delete attempt with its outcome status
func (m *ScanMetrics) RecordDeleteAttempt(
	ctx context.Context,
	resourceType string,
	region string,
	status string,
) {
	m.DeletesAttempted.Add(ctx, 1,
		metric.WithAttributeSet(attribute.NewSet(
			attribute.String("resource_type", resourceType),
			attribute.String("region", region),
			attribute.String("status", status),
		)),
	)
}

// RecordScanDuration records how long a full multi-region scan took
func (m *ScanMetrics) RecordScanDuration(
	ctx context.Context,
	resourceType string,
	durationMs float64,
) {
	m.ScanDuration.Record(ctx, durationMs,
		metric.WithAttributeSet(attribute.NewSet(
			attribute.String("resource_type", resourceType),
		)),
	)
}

// RecordRegionDuration records how long one region evaluation took
func (m *ScanMetrics) RecordRegionDuration(
	ctx context.Context,
	resourceType string,
	region string,
	durationMs float64,
) {
	m.RegionDuration.Record(ctx, durationMs,
		metric.WithAttributeSet(attribute.NewSet(
			attribute.String("resource_type", resourceType),
			attribute.String("region", region),
		)),
	)
}
