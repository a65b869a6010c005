package main

import (
	"context"
	"fmt"
	"os"

	"github.com/netprune/netprune/orchestrator"
	"github.com/netprune/netprune/providers/aws"
	"github.com/netprune/netprune/reporter"
	"github.com/netprune/netprune/scanner"
	"github.com/netprune/netprune/types"
)

// ScanCommand implements the 'netprune scan' command
type ScanCommand struct {
	ResourceType   types.ResourceType
	Region         string
	Regions        []string
	AllRegions     bool
	Profile        string
	VpcID          string
	Output         string
	OutputFile     string
	MaxWorkers     int
	ExcludeDefault bool
}

// Run executes the scan command
func (cmd *ScanCommand) Run(ctx context.Context) error {
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

	return writeReport(format, cmd.OutputFile, func(r *reporter.Reporter) error {
		return r.WriteScan(report)
	})
}

// validateCredentials fails fast when the credential chain resolves to
// nothing. A broken chain would otherwise surface as one opaque error
// per region after the fan-out has already started.
func (cmd *ScanCommand) validateCredentials(ctx context.Context, regions []string) error {
	region := "us-east-1"
	if len(regions) > 0 {
		region = regions[0]
	}

	client, err := aws.NewClient(ctx, region, cmd.Profile)
	if err != nil {
		return err
	}
	account, err := client.ValidateCredentials(ctx)
	if err != nil {
		return err
	}
	logger.Debug().Str("account", account).Msg("credentials validated")
	return nil
}

// resolveRegions turns the region flags into an explicit list. Nil
// means discover every enabled region.
func (cmd *ScanCommand) resolveRegions(ctx context.Context) ([]string, error) {
	switch {
	case cmd.AllRegions:
		return nil, nil
	case len(cmd.Regions) > 0:
		return cmd.Regions, nil
	case cmd.Region != "":
		return []string{cmd.Region}, nil
	case len(cfg.Regions) > 0:
		return cfg.Regions, nil
	}

	if region := os.Getenv("AWS_REGION"); region != "" {
		return []string{region}, nil
	}
	return nil, fmt.Errorf("no region given: use --region, --regions or --all-regions")
}

func (cmd *ScanCommand) scan(ctx context.Context, regions []string) (*types.AggregateReport, error) {
	scope := aws.Scope{VpcID: cmd.VpcID}
	factory := func(ctx context.Context, region string) (scanner.Descriptor, error) {
		client, err := aws.NewClient(ctx, region, cmd.Profile)
		if err != nil {
			return scanner.Descriptor{}, err
		}
		return aws.DescriptorFor(client, cmd.ResourceType, scope)
	}

	o := orchestrator.New(factory,
		orchestrator.WithMaxWorkers(cmd.MaxWorkers),
		orchestrator.WithRegionTimeout(cfg.RegionTimeout.Std()),
		orchestrator.WithLogger(logger),
		orchestrator.WithMetrics(metrics),
		orchestrator.WithScanOptions(scanner.Options{
			ExcludeDefault: cmd.ExcludeDefault,
			Logger:         logger,
			Metrics:        metrics,
		}),
		orchestrator.WithRegionLister(func(ctx context.Context) ([]string, error) {
			return aws.ListRegions(ctx, cmd.Profile)
		}),
	)

	return o.ScanRegions(ctx, cmd.ResourceType, regions, scanProgress)
}

// scanProgress keeps long multi-region scans from looking stuck.
func scanProgress(region string, event orchestrator.ProgressEvent, report *types.ScanReport, err error) {
	switch event {
	case orchestrator.EventScanning:
		fmt.Fprintf(os.Stderr, "scanning %s...\n", region)
	case orchestrator.EventComplete:
		fmt.Fprintf(os.Stderr, "done %s: %d of %d unused\n", region, report.UnusedCount, report.TotalCount)
	case orchestrator.EventError:
		fmt.Fprintf(os.Stderr, "failed %s: %v\n", region, err)
	}
}

func writeReport(format reporter.Format, outputFile string, write func(*reporter.Reporter) error) error {
	out := os.Stdout
	if outputFile != "" {
		f, err := os.Create(outputFile) // #nosec G304 -- path is intentional user input
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer func() { _ = f.Close() }()
		out = f
	}
	return write(reporter.New(out, format))
}

// resourceTypeFromArg maps CLI names to resource types.
func resourceTypeFromArg(arg string) (types.ResourceType, error) {
	switch arg {
	case "security-groups":
		return types.ResourceSecurityGroup, nil
	case "vpcs":
		return types.ResourceVPC, nil
	case "subnets":
		return types.ResourceSubnet, nil
	case "eips":
		return types.ResourceElasticIP, nil
	}
	return "", fmt.Errorf("unknown resource type %q", arg)
}

func profileOrConfig(flag string) string {
	if flag != "" {
		return flag
	}
	return cfg.Profile
}

func outputOrConfig(flag string) string {
	if flag != "" {
		return flag
	}
	return cfg.Output
}

func workersOrConfig(flag int) int {
	if flag > 0 {
		return flag
	}
	return cfg.MaxWorkers
}
