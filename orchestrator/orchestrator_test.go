package orchestrator

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/netprune/netprune/scanner"
	"github.com/netprune/netprune/telemetry"
	"github.com/netprune/netprune/types"
)

func descriptorForRegion(region string, resources []types.Resource, evidence types.EvidenceSet) scanner.Descriptor {
	return scanner.Descriptor{
		ResourceType: types.ResourceSecurityGroup,
		Region:       region,
		Inventory: func(ctx context.Context) ([]types.Resource, error) {
			return resources, nil
		},
		Collectors: []scanner.Collector{
			scanner.CollectorFunc{
				CollectorName: "static",
				Fn: func(ctx context.Context) (types.EvidenceSet, error) {
					return evidence, nil
				},
			},
		},
	}
}

func TestScanRegionsMergesResults(t *testing.T) {
	factory := func(ctx context.Context, region string) (scanner.Descriptor, error) {
		switch region {
		case "us-east-1":
			return descriptorForRegion(region,
				[]types.Resource{{ID: "sg-1"}, {ID: "sg-2"}},
				types.NewEvidenceSet("sg-1")), nil
		case "us-west-2":
			return descriptorForRegion(region,
				[]types.Resource{{ID: "sg-3"}},
				types.NewEvidenceSet()), nil
		}
		return scanner.Descriptor{}, errors.New("unexpected region")
	}

	o := New(factory)
	report, err := o.ScanRegions(context.Background(), types.ResourceSecurityGroup,
		[]string{"us-east-1", "us-west-2"}, nil)

	require.NoError(t, err)
	assert.Equal(t, 3, report.TotalResources)
	assert.Equal(t, 2, report.TotalUnused)
	assert.Len(t, report.ResultsByRegion, 2)
	assert.False(t, report.HasErrors())
	assert.Equal(t, "sg-2", report.ResultsByRegion["us-east-1"].UnusedResources[0].ID)
}

func TestScanRegionsIsolatesFailedRegion(t *testing.T) {
	factory := func(ctx context.Context, region string) (scanner.Descriptor, error) {
		if region == "eu-west-1" {
			return scanner.Descriptor{}, errors.New("credential error")
		}
		return descriptorForRegion(region,
			[]types.Resource{{ID: "sg-1"}}, types.NewEvidenceSet()), nil
	}

	o := New(factory)
	report, err := o.ScanRegions(context.Background(), types.ResourceSecurityGroup,
		[]string{"us-east-1", "eu-west-1"}, nil)

	require.NoError(t, err)
	assert.Equal(t, []string{"us-east-1"}, report.SuccessfulRegions())
	assert.Equal(t, []string{"eu-west-1"}, report.FailedRegions())
	assert.Contains(t, report.ErrorsByRegion["eu-west-1"][0], "credential error")
	// totals come from successful regions only
	assert.Equal(t, 1, report.TotalResources)
}

func TestScanRegionsIsolatesPanic(t *testing.T) {
	factory := func(ctx context.Context, region string) (scanner.Descriptor, error) {
		if region == "ap-south-1" {
			panic("boom")
		}
		return descriptorForRegion(region,
			[]types.Resource{{ID: "sg-1"}}, types.NewEvidenceSet()), nil
	}

	o := New(factory)
	report, err := o.ScanRegions(context.Background(), types.ResourceSecurityGroup,
		[]string{"us-east-1", "ap-south-1"}, nil)

	require.NoError(t, err)
	assert.Equal(t, []string{"us-east-1"}, report.SuccessfulRegions())
	require.Contains(t, report.ErrorsByRegion, "ap-south-1")
	assert.Contains(t, report.ErrorsByRegion["ap-south-1"][0], "panicked")
}

func TestScanRegionsBoundsConcurrency(t *testing.T) {
	var active, peak int64
	factory := func(ctx context.Context, region string) (scanner.Descriptor, error) {
		current := atomic.AddInt64(&active, 1)
		for {
			old := atomic.LoadInt64(&peak)
			if current <= old || atomic.CompareAndSwapInt64(&peak, old, current) {
				break
			}
		}
		time.Sleep(10 * time.Millisecond)
		atomic.AddInt64(&active, -1)
		return descriptorForRegion(region, nil, types.NewEvidenceSet()), nil
	}

	regions := []string{"r1", "r2", "r3", "r4", "r5", "r6", "r7", "r8"}
	o := New(factory, WithMaxWorkers(2))
	_, err := o.ScanRegions(context.Background(), types.ResourceSecurityGroup, regions, nil)

	require.NoError(t, err)
	assert.LessOrEqual(t, atomic.LoadInt64(&peak), int64(2))
}

func TestScanRegionsProgressEvents(t *testing.T) {
	factory := func(ctx context.Context, region string) (scanner.Descriptor, error) {
		if region == "bad" {
			return scanner.Descriptor{}, errors.New("down")
		}
		return descriptorForRegion(region, nil, types.NewEvidenceSet()), nil
	}

	var mu sync.Mutex
	events := map[string][]ProgressEvent{}
	progress := func(region string, event ProgressEvent, report *types.ScanReport, err error) {
		mu.Lock()
		events[region] = append(events[region], event)
		mu.Unlock()
	}

	o := New(factory)
	_, err := o.ScanRegions(context.Background(), types.ResourceSecurityGroup,
		[]string{"good", "bad"}, progress)

	require.NoError(t, err)
	assert.Equal(t, []ProgressEvent{EventScanning, EventComplete}, events["good"])
	assert.Equal(t, []ProgressEvent{EventScanning, EventError}, events["bad"])
}

func TestScanRegionsRecoversProgressPanic(t *testing.T) {
	factory := func(ctx context.Context, region string) (scanner.Descriptor, error) {
		return descriptorForRegion(region,
			[]types.Resource{{ID: "sg-1"}}, types.NewEvidenceSet()), nil
	}

	progress := func(region string, event ProgressEvent, report *types.ScanReport, err error) {
		panic("display broke")
	}

	o := New(factory)
	report, err := o.ScanRegions(context.Background(), types.ResourceSecurityGroup,
		[]string{"us-east-1"}, progress)

	require.NoError(t, err)
	assert.Len(t, report.ResultsByRegion, 1)
}

func TestScanRegionsUsesDiscoveryWhenEmpty(t *testing.T) {
	factory := func(ctx context.Context, region string) (scanner.Descriptor, error) {
		return descriptorForRegion(region, nil, types.NewEvidenceSet()), nil
	}

	t.Run("with lister", func(t *testing.T) {
		lister := func(ctx context.Context) ([]string, error) {
			return []string{"us-east-1", "us-west-2"}, nil
		}
		o := New(factory, WithRegionLister(lister))
		report, err := o.ScanRegions(context.Background(), types.ResourceSecurityGroup, nil, nil)
		require.NoError(t, err)
		assert.Len(t, report.ResultsByRegion, 2)
	})

	t.Run("discovery failure", func(t *testing.T) {
		lister := func(ctx context.Context) ([]string, error) {
			return nil, errors.New("sts unavailable")
		}
		o := New(factory, WithRegionLister(lister))
		_, err := o.ScanRegions(context.Background(), types.ResourceSecurityGroup, nil, nil)
		assert.Error(t, err)
	})

	t.Run("no lister", func(t *testing.T) {
		o := New(factory)
		_, err := o.ScanRegions(context.Background(), types.ResourceSecurityGroup, nil, nil)
		assert.Error(t, err)
	})
}

func TestScanRegionsLogsLifecycle(t *testing.T) {
	factory := func(ctx context.Context, region string) (scanner.Descriptor, error) {
		if region == "bad" {
			return scanner.Descriptor{}, errors.New("down")
		}
		return descriptorForRegion(region,
			[]types.Resource{{ID: "sg-1"}}, types.NewEvidenceSet()), nil
	}

	o := New(factory, WithLogger(telemetry.NewLogger("test")))
	report, err := o.ScanRegions(context.Background(), types.ResourceSecurityGroup,
		[]string{"good", "bad"}, nil)

	require.NoError(t, err)
	assert.Equal(t, 1, report.TotalResources)
	assert.Contains(t, report.ErrorsByRegion, "bad")
}

func TestScanRegionsFoldsReportErrors(t *testing.T) {
	factory := func(ctx context.Context, region string) (scanner.Descriptor, error) {
		desc := descriptorForRegion(region,
			[]types.Resource{{ID: "sg-1"}}, types.NewEvidenceSet())
		desc.Collectors = append(desc.Collectors, scanner.CollectorFunc{
			CollectorName: "flaky",
			Fn: func(ctx context.Context) (types.EvidenceSet, error) {
				return types.NewEvidenceSet(), errors.New("throttled")
			},
		})
		return desc, nil
	}

	o := New(factory)
	report, err := o.ScanRegions(context.Background(), types.ResourceSecurityGroup,
		[]string{"us-east-1"}, nil)

	require.NoError(t, err)
	// partial failure: region contributes results and errors
	assert.Contains(t, report.ResultsByRegion, "us-east-1")
	require.Contains(t, report.ErrorsByRegion, "us-east-1")
	assert.Contains(t, report.ErrorsByRegion["us-east-1"][0], "flaky")
}
