package types

import (
	"sort"
	"time"
)

// ScanReport is the outcome of evaluating one resource type in one region.
type ScanReport struct {
	ResourceType    ResourceType `json:"resource_type"`
	Region          string       `json:"region"`
	TotalCount      int          `json:"total_count"`
	UnusedCount     int          `json:"unused_count"`
	UnusedResources []Resource   `json:"unused_resources"`
	Errors          []string     `json:"errors,omitempty"`
	ScanTime        time.Time    `json:"scan_time"`
}

// HasErrors reports whether any sub-operation failed during the scan.
func (r ScanReport) HasErrors() bool { return len(r.Errors) > 0 }

// AggregateReport merges per-region scan reports for one resource type.
// A region appears either in ResultsByRegion or, when its whole
// evaluation failed, only in ErrorsByRegion - never both absent.
type AggregateReport struct {
	ResourceType    ResourceType          `json:"resource_type"`
	RegionsScanned  []string              `json:"regions_scanned"`
	TotalResources  int                   `json:"total_resources"`
	TotalUnused     int                   `json:"total_unused"`
	ResultsByRegion map[string]ScanReport `json:"results_by_region"`
	ErrorsByRegion  map[string][]string   `json:"errors_by_region,omitempty"`
	ScanTime        time.Time             `json:"scan_time"`
}

// HasErrors reports whether any region recorded errors.
func (a AggregateReport) HasErrors() bool { return len(a.ErrorsByRegion) > 0 }

// SuccessfulRegions returns the regions that produced a report, sorted.
func (a AggregateReport) SuccessfulRegions() []string {
	regions := make([]string, 0, len(a.ResultsByRegion))
	for region := range a.ResultsByRegion {
		regions = append(regions, region)
	}
	sort.Strings(regions)
	return regions
}

// FailedRegions returns the regions that recorded errors, sorted.
func (a AggregateReport) FailedRegions() []string {
	regions := make([]string, 0, len(a.ErrorsByRegion))
	for region := range a.ErrorsByRegion {
		regions = append(regions, region)
	}
	sort.Strings(regions)
	return regions
}

// UsagePercent returns the share of resources in use across all
// contributing regions. An empty inventory counts as fully used.
func (a AggregateReport) UsagePercent() float64 {
	if a.TotalResources == 0 {
		return 100.0
	}
	used := a.TotalResources - a.TotalUnused
	return float64(used) / float64(a.TotalResources) * 100
}

// AllUnusedResources flattens the per-region unused lists, stamping each
// record with its region. Regions are visited in sorted order so the
// output is deterministic.
func (a AggregateReport) AllUnusedResources() []Resource {
	var all []Resource
	for _, region := range a.SuccessfulRegions() {
		for _, res := range a.ResultsByRegion[region].UnusedResources {
			res.Region = region
			all = append(all, res)
		}
	}
	return all
}

// RegionSummary holds per-region counts for display.
type RegionSummary struct {
	Region string `json:"region"`
	Total  int    `json:"total"`
	Unused int    `json:"unused"`
	Used   int    `json:"used"`
}

// Summaries returns per-region counts in sorted region order.
func (a AggregateReport) Summaries() []RegionSummary {
	summaries := make([]RegionSummary, 0, len(a.ResultsByRegion))
	for _, region := range a.SuccessfulRegions() {
		r := a.ResultsByRegion[region]
		summaries = append(summaries, RegionSummary{
			Region: region,
			Total:  r.TotalCount,
			Unused: r.UnusedCount,
			Used:   r.TotalCount - r.UnusedCount,
		})
	}
	return summaries
}
