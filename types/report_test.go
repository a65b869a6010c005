package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func aggregateFixture() AggregateReport {
	return AggregateReport{
		ResourceType:   ResourceSecurityGroup,
		RegionsScanned: []string{"us-east-1", "us-west-2", "eu-west-1"},
		TotalResources: 10,
		TotalUnused:    3,
		ResultsByRegion: map[string]ScanReport{
			"us-west-2": {
				ResourceType: ResourceSecurityGroup,
				Region:       "us-west-2",
				TotalCount:   6,
				UnusedCount:  2,
				UnusedResources: []Resource{
					{ID: "sg-b1", Type: ResourceSecurityGroup},
					{ID: "sg-b2", Type: ResourceSecurityGroup},
				},
			},
			"us-east-1": {
				ResourceType: ResourceSecurityGroup,
				Region:       "us-east-1",
				TotalCount:   4,
				UnusedCount:  1,
				UnusedResources: []Resource{
					{ID: "sg-a1", Type: ResourceSecurityGroup},
				},
			},
		},
		ErrorsByRegion: map[string][]string{
			"eu-west-1": {"region scan failed: timeout"},
		},
	}
}

func TestScanReportHasErrors(t *testing.T) {
	r := ScanReport{}
	assert.False(t, r.HasErrors())

	r.Errors = append(r.Errors, "collector ec2-instances: throttled")
	assert.True(t, r.HasErrors())
}

func TestAggregateRegionPartition(t *testing.T) {
	a := aggregateFixture()

	assert.Equal(t, []string{"us-east-1", "us-west-2"}, a.SuccessfulRegions())
	assert.Equal(t, []string{"eu-west-1"}, a.FailedRegions())
	assert.True(t, a.HasErrors())
}

func TestAggregateUsagePercent(t *testing.T) {
	a := aggregateFixture()
	assert.InDelta(t, 70.0, a.UsagePercent(), 0.001)

	empty := AggregateReport{}
	assert.Equal(t, 100.0, empty.UsagePercent())
}

func TestAggregateAllUnusedResources(t *testing.T) {
	a := aggregateFixture()

	all := a.AllUnusedResources()
	assert.Len(t, all, 3)

	// regions contribute in sorted order and each record is stamped
	assert.Equal(t, "sg-a1", all[0].ID)
	assert.Equal(t, "us-east-1", all[0].Region)
	assert.Equal(t, "sg-b1", all[1].ID)
	assert.Equal(t, "us-west-2", all[1].Region)
	assert.Equal(t, "sg-b2", all[2].ID)
}

func TestAggregateSummaries(t *testing.T) {
	a := aggregateFixture()

	summaries := a.Summaries()
	assert.Len(t, summaries, 2)
	assert.Equal(t, RegionSummary{Region: "us-east-1", Total: 4, Unused: 1, Used: 3}, summaries[0])
	assert.Equal(t, RegionSummary{Region: "us-west-2", Total: 6, Unused: 2, Used: 4}, summaries[1])
}
