// Package scanner decides which resources are unused. A resource is
// unused when no evidence collector saw it referenced anywhere in the
// account. Missing evidence means false positives, so descriptors wire
// in every known reference source for their type.
package scanner

import (
	"context"
	"fmt"
	"time"

	"github.com/netprune/netprune/telemetry"
	"github.com/netprune/netprune/types"
	"go.opentelemetry.io/otel/attribute"
)

// Collector gathers in-use resource IDs from one reference source.
// Collect returns whatever partial evidence it gathered even on error.
type Collector interface {
	Name() string
	Collect(ctx context.Context) (types.EvidenceSet, error)
}

// CollectorFunc adapts a function to the Collector interface.
type CollectorFunc struct {
	CollectorName string
	Fn            func(ctx context.Context) (types.EvidenceSet, error)
}

func (c CollectorFunc) Name() string { return c.CollectorName }

func (c CollectorFunc) Collect(ctx context.Context) (types.EvidenceSet, error) {
	return c.Fn(ctx)
}

// InventoryFunc lists every resource of one type in one region.
type InventoryFunc func(ctx context.Context) ([]types.Resource, error)

// ExemptFunc lists IDs that must never be reported unused, such as the
// default security group of each VPC. Nil when the type has no
// exemption concept.
type ExemptFunc func(ctx context.Context) (types.EvidenceSet, error)

// Descriptor wires one resource type to its inventory and evidence
// sources for a single region.
type Descriptor struct {
	ResourceType types.ResourceType
	Region       string
	Inventory    InventoryFunc
	Collectors   []Collector
	Exempt       ExemptFunc
}

// Options control an evaluation.
type Options struct {
	// ExcludeDefault keeps default/implicit resources out of the unused
	// list even when nothing references them.
	ExcludeDefault bool

	Logger  *telemetry.Logger
	Metrics *telemetry.ScanMetrics
}

// Evaluate runs one scan: inventory, evidence collection, set
// subtraction. Collector failures degrade the result instead of
// aborting it; each failure is recorded in the report errors.
func Evaluate(ctx context.Context, desc Descriptor, opts Options) types.ScanReport {
	ctx, span := telemetry.Tracer.Start(ctx, "scanner.Evaluate")
	defer span.End()
	span.SetAttributes(
		attribute.String("resource_type", string(desc.ResourceType)),
		attribute.String("region", desc.Region),
	)

	report := types.ScanReport{
		ResourceType: desc.ResourceType,
		Region:       desc.Region,
		ScanTime:     time.Now().UTC(),
	}

	inventory := fetchInventory(ctx, desc, &report)
	evidence := collectEvidence(ctx, desc, opts, &report)

	if opts.ExcludeDefault && desc.Exempt != nil {
		exempt, err := desc.Exempt(ctx)
		if err != nil {
			report.Errors = append(report.Errors,
				fmt.Sprintf("exemption listing failed: %v", err))
		}
		evidence.Merge(exempt)
	}

	report.TotalCount = len(inventory)
	report.UnusedResources = subtract(inventory, evidence, opts.ExcludeDefault)
	report.UnusedCount = len(report.UnusedResources)

	recordMetrics(ctx, opts, report)
	return report
}

// fetchInventory lists the region's resources. A listing failure is
// recorded and the scan continues over an empty inventory.
func fetchInventory(ctx context.Context, desc Descriptor, report *types.ScanReport) []types.Resource {
	inventory, err := desc.Inventory(ctx)
	if err != nil {
		report.Errors = append(report.Errors,
			fmt.Sprintf("inventory listing failed: %v", err))
		return nil
	}
	return inventory
}

// collectEvidence runs every collector and merges the results. A failed
// collector contributes its partial set and a warning; it never aborts
// the scan.
func collectEvidence(ctx context.Context, desc Descriptor, opts Options, report *types.ScanReport) types.EvidenceSet {
	evidence := types.NewEvidenceSet()

	for _, collector := range desc.Collectors {
		partial, err := collector.Collect(ctx)
		evidence.Merge(partial)
		if err != nil {
			report.Errors = append(report.Errors,
				fmt.Sprintf("collector %s: %v", collector.Name(), err))
			if opts.Logger != nil {
				opts.Logger.LogCollectorError(ctx, collector.Name(), err)
			}
			if opts.Metrics != nil {
				opts.Metrics.RecordCollectorError(ctx, collector.Name(), desc.Region)
			}
		}
	}

	return evidence
}

// subtract returns the inventory records with no evidence of use,
// preserving encounter order. Records without an ID cannot be matched
// against evidence and are skipped. When excludeDefault is set,
// default-flagged records are dropped here too, in case the exemption
// listing missed one.
func subtract(inventory []types.Resource, evidence types.EvidenceSet, excludeDefault bool) []types.Resource {
	var unused []types.Resource
	for _, res := range inventory {
		if res.ID == "" {
			continue
		}
		if evidence.Contains(res.ID) {
			continue
		}
		if excludeDefault && res.IsDefault {
			continue
		}
		unused = append(unused, res)
	}
	return unused
}

func recordMetrics(ctx context.Context, opts Options, report types.ScanReport) {
	if opts.Metrics == nil {
		return
	}
	opts.Metrics.RecordResourcesScanned(ctx, string(report.ResourceType), report.Region, int64(report.TotalCount))
	opts.Metrics.RecordUnusedFound(ctx, string(report.ResourceType), report.Region, int64(report.UnusedCount))
}
