package main

import (
	"github.com/spf13/cobra"
)

var (
	cleanRegion         string
	cleanRegions        []string
	cleanAllRegions     bool
	cleanProfile        string
	cleanVpcID          string
	cleanOutput         string
	cleanOutputFile     string
	cleanMaxWorkers     int
	cleanDryRun         bool
	cleanYes            bool
)

// cleanCmd represents the clean command
var cleanCmd = &cobra.Command{
	Use:       "clean <resource-type>",
	Short:     "Delete unused network resources",
	ValidArgs: []string{"security-groups", "vpcs", "subnets", "eips"},
	Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	Long: `Scan one resource type, then delete what came back unused.
Default resources and still-associated Elastic IPs are never touched.
Nothing is deleted without confirmation; use --dry-run to see the
batch without issuing a single delete call.`,
	Example: `  netprune clean security-groups --dry-run   # simulate only
  netprune clean eips --region us-east-1      # prompt, then release
  netprune clean subnets --vpc-id vpc-0abc123 --yes`,
	RunE: runClean,
}

func init() {
	rootCmd.AddCommand(cleanCmd)

	cleanCmd.Flags().StringVarP(&cleanRegion, "region", "r", "", "Single AWS region to clean")
	cleanCmd.Flags().StringSliceVar(&cleanRegions, "regions", nil, "Comma-separated list of regions to clean")
	cleanCmd.Flags().BoolVar(&cleanAllRegions, "all-regions", false, "Clean every enabled region")
	cleanCmd.Flags().StringVarP(&cleanProfile, "profile", "p", "", "AWS shared config profile")
	cleanCmd.Flags().StringVar(&cleanVpcID, "vpc-id", "", "Limit subnet cleanup to one VPC")
	cleanCmd.Flags().StringVarP(&cleanOutput, "output", "o", "", "Output format: table, json, csv")
	cleanCmd.Flags().StringVar(&cleanOutputFile, "output-file", "", "Write the summary to a file instead of stdout")
	cleanCmd.Flags().IntVar(&cleanMaxWorkers, "max-workers", 0, "Concurrent region scans")
	cleanCmd.Flags().BoolVar(&cleanDryRun, "dry-run", false, "Report what would be deleted without deleting")
	cleanCmd.Flags().BoolVarP(&cleanYes, "yes", "y", false, "Skip the confirmation prompt")
}

func runClean(cmd *cobra.Command, args []string) error {
	resourceType, err := resourceTypeFromArg(args[0])
	if err != nil {
		return err
	}

	cleanCommand := &CleanCommand{
		ScanCommand: ScanCommand{
			ResourceType:   resourceType,
			Region:         cleanRegion,
			Regions:        cleanRegions,
			AllRegions:     cleanAllRegions,
			Profile:        profileOrConfig(cleanProfile),
			VpcID:          cleanVpcID,
			Output:         outputOrConfig(cleanOutput),
			OutputFile:     cleanOutputFile,
			MaxWorkers:     workersOrConfig(cleanMaxWorkers),
			ExcludeDefault: true,
		},
		DryRun:  cleanDryRun,
		Confirm: !cleanYes,
	}

	return cleanCommand.Run(cmd.Context())
}
