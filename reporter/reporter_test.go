package reporter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/netprune/netprune/types"
)

func sampleReport() *types.AggregateReport {
	return &types.AggregateReport{
		ResourceType:   types.ResourceSecurityGroup,
		RegionsScanned: []string{"us-east-1", "us-west-2"},
		TotalResources: 5,
		TotalUnused:    2,
		ResultsByRegion: map[string]types.ScanReport{
			"us-east-1": {
				ResourceType: types.ResourceSecurityGroup,
				Region:       "us-east-1",
				TotalCount:   3,
				UnusedCount:  2,
				UnusedResources: []types.Resource{
					{ID: "sg-1", Name: "old-web", Type: types.ResourceSecurityGroup, VpcID: "vpc-1", Description: "legacy"},
					{ID: "sg-2", Type: types.ResourceSecurityGroup, VpcID: "vpc-1"},
				},
			},
			"us-west-2": {
				ResourceType: types.ResourceSecurityGroup,
				Region:       "us-west-2",
				TotalCount:   2,
			},
		},
		ScanTime: time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestParseFormat(t *testing.T) {
	for _, valid := range []string{"table", "json", "csv"} {
		format, err := ParseFormat(valid)
		require.NoError(t, err)
		assert.Equal(t, Format(valid), format)
	}

	_, err := ParseFormat("yaml")
	assert.Error(t, err)
}

func TestWriteScanJSONRoundTrips(t *testing.T) {
	var buf bytes.Buffer
	r := New(&buf, FormatJSON)

	require.NoError(t, r.WriteScan(sampleReport()))

	var decoded types.AggregateReport
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, types.ResourceSecurityGroup, decoded.ResourceType)
	assert.Equal(t, 2, decoded.TotalUnused)
	assert.Len(t, decoded.ResultsByRegion["us-east-1"].UnusedResources, 2)
}

func TestWriteScanCSV(t *testing.T) {
	var buf bytes.Buffer
	r := New(&buf, FormatCSV)

	require.NoError(t, r.WriteScan(sampleReport()))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3) // header + 2 unused
	assert.Equal(t, "region", rows[0][0])
	assert.Equal(t, "sg-1", rows[1][2])
	assert.Equal(t, "us-east-1", rows[1][0])
}

func TestWriteScanTable(t *testing.T) {
	var buf bytes.Buffer
	r := New(&buf, FormatTable)

	require.NoError(t, r.WriteScan(sampleReport()))

	out := buf.String()
	assert.Contains(t, out, "us-east-1")
	assert.Contains(t, out, "sg-1")
	assert.Contains(t, out, "old-web")
	// sg-2 has no name, display falls back to the id
	assert.True(t, strings.Count(out, "sg-2") >= 1)
	assert.Contains(t, out, "3 of 5 in use")
}

func TestWriteScanTableShowsRegionErrors(t *testing.T) {
	report := sampleReport()
	report.ErrorsByRegion = map[string][]string{
		"eu-west-1": {"region scan failed: timeout"},
	}

	var buf bytes.Buffer
	r := New(&buf, FormatTable)
	require.NoError(t, r.WriteScan(report))

	assert.Contains(t, buf.String(), "eu-west-1: region scan failed: timeout")
}

func TestWriteDeleteSummary(t *testing.T) {
	summary := types.NewDeleteSummary()
	summary.Add(types.DeleteOutcome{ResourceID: "sg-1", ResourceName: "old", Region: "us-east-1", Status: types.DeleteSucceeded})
	summary.Add(types.DeleteOutcome{ResourceID: "sg-2", Region: "us-east-1", Status: types.DeleteFailed, Error: "dependency"})
	summary.Complete()

	t.Run("table", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, New(&buf, FormatTable).WriteDeleteSummary(summary))
		assert.Contains(t, buf.String(), "1 deleted, 1 failed, 0 skipped, 0 simulated (of 2)")
	})

	t.Run("csv", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, New(&buf, FormatCSV).WriteDeleteSummary(summary))
		rows, err := csv.NewReader(&buf).ReadAll()
		require.NoError(t, err)
		require.Len(t, rows, 3)
		assert.Equal(t, "succeeded", rows[1][3])
		assert.Equal(t, "dependency", rows[2][4])
	})

	t.Run("json", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, New(&buf, FormatJSON).WriteDeleteSummary(summary))
		var decoded types.DeleteSummary
		require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
		assert.Equal(t, 2, decoded.Total)
	})
}
