// Package orchestrator fans a scan out across regions with bounded
// concurrency. Each region gets its own client bundle and its own
// timeout; one bad region never poisons the others.
package orchestrator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/netprune/netprune/scanner"
	"github.com/netprune/netprune/telemetry"
	"github.com/netprune/netprune/types"
)

const (
	defaultMaxWorkers    = 10
	defaultRegionTimeout = 5 * time.Minute
)

// ProgressEvent marks a phase change for one region.
type ProgressEvent string

const (
	EventScanning ProgressEvent = "scanning"
	EventComplete ProgressEvent = "complete"
	EventError    ProgressEvent = "error"
)

// ProgressFunc receives per-region progress. Report is set on
// EventComplete, err on EventError.
type ProgressFunc func(region string, event ProgressEvent, report *types.ScanReport, err error)

// DescriptorFactory builds the per-region descriptor, including the
// region's own client bundle. Clients are never shared across regions.
type DescriptorFactory func(ctx context.Context, region string) (scanner.Descriptor, error)

// RegionLister discovers the regions to scan when the caller names none.
type RegionLister func(ctx context.Context) ([]string, error)

// Orchestrator runs one resource type's scan across many regions.
type Orchestrator struct {
	factory       DescriptorFactory
	regionLister  RegionLister
	scanOpts      scanner.Options
	maxWorkers    int64
	regionTimeout time.Duration
	logger        *telemetry.Logger
	metrics       *telemetry.ScanMetrics
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithMaxWorkers bounds concurrent region scans.
func WithMaxWorkers(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.maxWorkers = int64(n)
		}
	}
}

// WithRegionTimeout caps each region's evaluation.
func WithRegionTimeout(d time.Duration) Option {
	return func(o *Orchestrator) {
		if d > 0 {
			o.regionTimeout = d
		}
	}
}

// WithRegionLister sets the discovery used when no regions are given.
func WithRegionLister(lister RegionLister) Option {
	return func(o *Orchestrator) { o.regionLister = lister }
}

// WithScanOptions sets the options passed to every region evaluation.
func WithScanOptions(opts scanner.Options) Option {
	return func(o *Orchestrator) { o.scanOpts = opts }
}

// WithLogger sets the logger.
func WithLogger(logger *telemetry.Logger) Option {
	return func(o *Orchestrator) { o.logger = logger }
}

// WithMetrics sets the scan metrics.
func WithMetrics(metrics *telemetry.ScanMetrics) Option {
	return func(o *Orchestrator) { o.metrics = metrics }
}

// New builds an orchestrator around a descriptor factory.
func New(factory DescriptorFactory, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		factory:       factory,
		maxWorkers:    defaultMaxWorkers,
		regionTimeout: defaultRegionTimeout,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// ScanRegions evaluates the resource type in every region and merges
// the results. An empty region list triggers discovery. Region
// failures and panics land in ErrorsByRegion; only discovery failure
// returns an error.
func (o *Orchestrator) ScanRegions(ctx context.Context, resourceType types.ResourceType, regions []string, progress ProgressFunc) (*types.AggregateReport, error) {
	ctx, span := telemetry.Tracer.Start(ctx, "orchestrator.ScanRegions")
	defer span.End()
	span.SetAttributes(attribute.String("resource_type", string(resourceType)))

	if len(regions) == 0 {
		if o.regionLister == nil {
			return nil, fmt.Errorf("no regions given and no region discovery configured")
		}
		discovered, err := o.regionLister(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to discover regions: %w", err)
		}
		regions = discovered
	}

	if o.logger != nil {
		o.logger.LogScanStart(ctx, string(resourceType), regions)
	}

	start := time.Now()
	aggregate := &types.AggregateReport{
		ResourceType:    resourceType,
		RegionsScanned:  regions,
		ResultsByRegion: make(map[string]types.ScanReport),
		ErrorsByRegion:  make(map[string][]string),
		ScanTime:        start.UTC(),
	}

	var mu sync.Mutex
	sem := semaphore.NewWeighted(o.maxWorkers)
	group := &errgroup.Group{}

	for _, region := range regions {
		group.Go(func() error {
			if err := sem.Acquire(ctx, 1); err != nil {
				mu.Lock()
				aggregate.ErrorsByRegion[region] = append(aggregate.ErrorsByRegion[region],
					fmt.Sprintf("region scan not started: %v", err))
				mu.Unlock()
				return nil
			}
			defer sem.Release(1)

			report, err := o.scanRegion(ctx, region, progress)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				aggregate.ErrorsByRegion[region] = append(aggregate.ErrorsByRegion[region], err.Error())
				return nil
			}
			aggregate.ResultsByRegion[region] = report
			if report.HasErrors() {
				aggregate.ErrorsByRegion[region] = append(aggregate.ErrorsByRegion[region], report.Errors...)
			}
			return nil
		})
	}

	_ = group.Wait()

	if len(aggregate.ErrorsByRegion) == 0 {
		aggregate.ErrorsByRegion = nil
	}
	for _, report := range aggregate.ResultsByRegion {
		aggregate.TotalResources += report.TotalCount
		aggregate.TotalUnused += report.UnusedCount
	}

	if o.metrics != nil {
		o.metrics.RecordScanDuration(ctx, string(resourceType), float64(time.Since(start).Milliseconds()))
	}
	if o.logger != nil {
		o.logger.LogScanComplete(ctx, string(resourceType),
			aggregate.TotalResources, aggregate.TotalUnused,
			float64(time.Since(start).Milliseconds()))
	}
	return aggregate, nil
}

// scanRegion evaluates one region under its own timeout, converting
// panics into errors so siblings keep running.
func (o *Orchestrator) scanRegion(ctx context.Context, region string, progress ProgressFunc) (report types.ScanReport, err error) {
	ctx, cancel := context.WithTimeout(ctx, o.regionTimeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("region scan panicked: %v", r)
			o.notify(progress, region, EventError, nil, err)
			if o.logger != nil {
				o.logger.LogRegionError(ctx, region, err)
			}
		}
	}()

	o.notify(progress, region, EventScanning, nil, nil)

	start := time.Now()
	desc, err := o.factory(ctx, region)
	if err != nil {
		err = fmt.Errorf("region setup failed: %w", err)
		o.notify(progress, region, EventError, nil, err)
		if o.logger != nil {
			o.logger.LogRegionError(ctx, region, err)
		}
		return types.ScanReport{}, err
	}

	report = scanner.Evaluate(ctx, desc, o.scanOpts)
	if o.metrics != nil {
		o.metrics.RecordRegionDuration(ctx, string(report.ResourceType), region,
			float64(time.Since(start).Milliseconds()))
	}

	o.notify(progress, region, EventComplete, &report, nil)
	return report, nil
}

// notify invokes the progress hook, swallowing its panics. A broken
// display callback must not kill a scan.
func (o *Orchestrator) notify(progress ProgressFunc, region string, event ProgressEvent, report *types.ScanReport, err error) {
	if progress == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil && o.logger != nil {
			o.logger.Warn().
				Str("region", region).
				Str("event", string(event)).
				Interface("panic", r).
				Msg("progress callback panicked")
		}
	}()
	progress(region, event, report, err)
}
