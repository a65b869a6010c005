package main

import (
	"github.com/spf13/cobra"
)

var (
	scanRegion         string
	scanRegions        []string
	scanAllRegions     bool
	scanProfile        string
	scanVpcID          string
	scanOutput         string
	scanOutputFile     string
	scanMaxWorkers     int
	scanIncludeDefault bool
)

// scanCmd represents the scan command
var scanCmd = &cobra.Command{
	Use:       "scan <resource-type>",
	Short:     "Find unused network resources",
	ValidArgs: []string{"security-groups", "vpcs", "subnets", "eips"},
	Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	Long: `Scan one resource type across regions and report the resources
nothing references. Evidence is gathered from EC2 instances, network
interfaces, RDS, load balancers, Lambda, ElastiCache, Redshift, EKS,
MemoryDB, NAT gateways and the VPC attachment surfaces, so a resource
only shows up when every known reference source came back empty.`,
	Example: `  netprune scan security-groups                    # current default region
  netprune scan vpcs --all-regions                 # every enabled region
  netprune scan subnets --vpc-id vpc-0abc123       # one VPC only
  netprune scan eips --regions us-east-1,eu-west-1 # explicit region list
  netprune scan security-groups -o json > unused.json`,
	RunE: runScan,
}

func init() {
	rootCmd.AddCommand(scanCmd)

	scanCmd.Flags().StringVarP(&scanRegion, "region", "r", "", "Single AWS region to scan")
	scanCmd.Flags().StringSliceVar(&scanRegions, "regions", nil, "Comma-separated list of regions to scan")
	scanCmd.Flags().BoolVar(&scanAllRegions, "all-regions", false, "Scan every enabled region")
	scanCmd.Flags().StringVarP(&scanProfile, "profile", "p", "", "AWS shared config profile")
	scanCmd.Flags().StringVar(&scanVpcID, "vpc-id", "", "Limit subnet scans to one VPC")
	scanCmd.Flags().StringVarP(&scanOutput, "output", "o", "", "Output format: table, json, csv")
	scanCmd.Flags().StringVar(&scanOutputFile, "output-file", "", "Write the report to a file instead of stdout")
	scanCmd.Flags().IntVar(&scanMaxWorkers, "max-workers", 0, "Concurrent region scans")
	scanCmd.Flags().BoolVar(&scanIncludeDefault, "include-default", false, "Report default resources as unused too")
}

func runScan(cmd *cobra.Command, args []string) error {
	resourceType, err := resourceTypeFromArg(args[0])
	if err != nil {
		return err
	}

	scanCommand := &ScanCommand{
		ResourceType:   resourceType,
		Region:         scanRegion,
		Regions:        scanRegions,
		AllRegions:     scanAllRegions,
		Profile:        profileOrConfig(scanProfile),
		VpcID:          scanVpcID,
		Output:         outputOrConfig(scanOutput),
		OutputFile:     scanOutputFile,
		MaxWorkers:     workersOrConfig(scanMaxWorkers),
		ExcludeDefault: !scanIncludeDefault && cfg.ExcludesDefault(),
	}

	return scanCommand.Run(cmd.Context())
}
