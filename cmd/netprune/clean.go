package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/netprune/netprune/cleaner"
	"github.com/netprune/netprune/providers/aws"
	"github.com/netprune/netprune/reporter"
	"github.com/netprune/netprune/types"
)

// CleanCommand implements the 'netprune clean' command: a scan
// followed by per-region delete batches.
type CleanCommand struct {
	ScanCommand

	DryRun  bool
	Confirm bool
}

// Run executes the clean command
func (cmd *CleanCommand) Run(ctx context.Context) error {
	format, err := reporter.ParseFormat(cmd.Output)
	if err != nil {
		return err
	}

	regions, err := cmd.resolveRegions(ctx)
	if err != nil {
		return err
	}
	if err := cmd.validateCredentials(ctx, regions); err != nil {
		return err
	}

	report, err := cmd.scan(ctx, regions)
	if err != nil {
		return err
	}

	unused := report.AllUnusedResources()
	if len(unused) == 0 {
		fmt.Fprintln(os.Stderr, "nothing to delete")
		return nil
	}

	confirm := cmd.confirmFunc()
	combined := types.NewDeleteSummary()

	// one cleaner per region; deletes never cross regions
	for _, region := range report.SuccessfulRegions() {
		items := report.ResultsByRegion[region].UnusedResources
		if len(items) == 0 {
			continue
		}

		client, err := aws.NewClient(ctx, region, cmd.Profile)
		if err != nil {
			return fmt.Errorf("failed to build client for %s: %w", region, err)
		}

		c := cleaner.New(client.EC2(), region,
			cleaner.WithLogger(logger),
			cleaner.WithMetrics(metrics),
		)
		summary := c.DeleteWithConfirmation(ctx, items, confirm, cmd.DryRun, cleanProgress)
		for _, outcome := range summary.Outcomes {
			combined.Add(outcome)
		}
	}
	combined.Complete()

	return writeReport(format, cmd.OutputFile, func(r *reporter.Reporter) error {
		return r.WriteDeleteSummary(combined)
	})
}

// confirmFunc builds the per-resource confirmation hook. With --yes
// the hook approves without prompting; otherwise each resource gets
// its own prompt, so one decline never skips the rest of the batch.
func (cmd *CleanCommand) confirmFunc() cleaner.ConfirmFunc {
	if !cmd.Confirm || cmd.DryRun {
		return func(types.Resource) bool { return true }
	}

	reader := bufio.NewReader(os.Stdin)
	return func(res types.Resource) bool {
		fmt.Fprintf(os.Stderr, "Delete %s %s (%s)? [y/N]: ",
			cmd.ResourceType, res.ID, res.DisplayName())

		line, err := reader.ReadString('\n')
		if err != nil {
			return false
		}
		answer := strings.ToLower(strings.TrimSpace(line))
		return answer == "y" || answer == "yes"
	}
}

func cleanProgress(outcome types.DeleteOutcome) {
	detail := ""
	if outcome.Error != "" {
		detail = ": " + outcome.Error
	}
	fmt.Fprintf(os.Stderr, "%s %s%s\n", outcome.Status, outcome.ResourceID, detail)
}
