package reporter

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/fatih/color"

	"github.com/netprune/netprune/types"
)

var (
	headerColor = color.New(color.FgCyan, color.Bold)
	unusedColor = color.New(color.FgYellow)
	errorColor  = color.New(color.FgRed)
	okColor     = color.New(color.FgGreen)
)

// WriteScan renders an aggregate scan report.
func (r *Reporter) WriteScan(report *types.AggregateReport) error {
	switch r.format {
	case FormatJSON:
		return r.writeScanJSON(report)
	case FormatCSV:
		return r.writeScanCSV(report)
	default:
		return r.writeScanTable(report)
	}
}

func (r *Reporter) writeScanJSON(report *types.AggregateReport) error {
	enc := json.NewEncoder(r.w)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

func (r *Reporter) writeScanCSV(report *types.AggregateReport) error {
	w := csv.NewWriter(r.w)

	header := []string{"region", "resource_type", "id", "name", "vpc_id", "cidr_block", "public_ip", "state"}
	if err := w.Write(header); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}

	for _, res := range report.AllUnusedResources() {
		row := []string{
			res.Region,
			string(res.Type),
			res.ID,
			res.Name,
			res.VpcID,
			res.CIDRBlock,
			res.PublicIP,
			res.State,
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("failed to write csv row: %w", err)
		}
	}

	w.Flush()
	return w.Error()
}

func (r *Reporter) writeScanTable(report *types.AggregateReport) error {
	fmt.Fprintf(r.w, "%s %s\n\n",
		headerColor.Sprint("Unused"),
		headerColor.Sprint(string(report.ResourceType)))

	tw := tabwriter.NewWriter(r.w, 0, 4, 2, ' ', 0)

	fmt.Fprintln(tw, "REGION\tTOTAL\tUSED\tUNUSED")
	for _, summary := range report.Summaries() {
		unused := strconv.Itoa(summary.Unused)
		if summary.Unused > 0 {
			unused = unusedColor.Sprint(unused)
		}
		fmt.Fprintf(tw, "%s\t%d\t%d\t%s\n", summary.Region, summary.Total, summary.Used, unused)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if unused := report.AllUnusedResources(); len(unused) > 0 {
		fmt.Fprintln(r.w)
		tw = tabwriter.NewWriter(r.w, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tNAME\tREGION\tVPC\tDETAIL")
		for _, res := range unused {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
				res.ID, res.DisplayName(), res.Region, res.VpcID, resourceDetail(res))
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}

	fmt.Fprintf(r.w, "\n%d of %d in use (%.1f%%)\n",
		report.TotalResources-report.TotalUnused, report.TotalResources, report.UsagePercent())

	for _, region := range report.FailedRegions() {
		for _, msg := range report.ErrorsByRegion[region] {
			fmt.Fprintf(r.w, "%s %s: %s\n", errorColor.Sprint("warning:"), region, msg)
		}
	}

	return nil
}

func resourceDetail(res types.Resource) string {
	switch res.Type {
	case types.ResourceElasticIP:
		return res.PublicIP
	case types.ResourceSubnet, types.ResourceVPC:
		return res.CIDRBlock
	default:
		return res.Description
	}
}

// WriteDeleteSummary renders a delete batch summary.
func (r *Reporter) WriteDeleteSummary(summary *types.DeleteSummary) error {
	switch r.format {
	case FormatJSON:
		enc := json.NewEncoder(r.w)
		enc.SetIndent("", "  ")
		return enc.Encode(summary)
	case FormatCSV:
		return r.writeDeleteCSV(summary)
	default:
		return r.writeDeleteTable(summary)
	}
}

func (r *Reporter) writeDeleteCSV(summary *types.DeleteSummary) error {
	w := csv.NewWriter(r.w)

	if err := w.Write([]string{"resource_id", "resource_name", "region", "status", "error"}); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}
	for _, outcome := range summary.Outcomes {
		row := []string{outcome.ResourceID, outcome.ResourceName, outcome.Region, string(outcome.Status), outcome.Error}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("failed to write csv row: %w", err)
		}
	}

	w.Flush()
	return w.Error()
}

func (r *Reporter) writeDeleteTable(summary *types.DeleteSummary) error {
	tw := tabwriter.NewWriter(r.w, 0, 4, 2, ' ', 0)

	fmt.Fprintln(tw, "ID\tNAME\tREGION\tSTATUS\tDETAIL")
	for _, outcome := range summary.Outcomes {
		status := string(outcome.Status)
		switch outcome.Status {
		case types.DeleteSucceeded:
			status = okColor.Sprint(status)
		case types.DeleteFailed:
			status = errorColor.Sprint(status)
		case types.DeleteSkipped:
			status = unusedColor.Sprint(status)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			outcome.ResourceID, outcome.ResourceName, outcome.Region, status, outcome.Error)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(r.w, "\n%d deleted, %d failed, %d skipped, %d simulated (of %d)\n",
		summary.Deleted, summary.Failed, summary.Skipped, summary.Simulated, summary.Total)
	return nil
}
