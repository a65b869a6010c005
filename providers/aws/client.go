// Package aws provides the inventory listings and usage evidence
// collectors for AWS network resources. One Client serves one region;
// cross-region scans build one Client per region.
package aws

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/autoscaling"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/eks"
	"github.com/aws/aws-sdk-go-v2/service/elasticache"
	elb "github.com/aws/aws-sdk-go-v2/service/elasticloadbalancing"
	elbv2 "github.com/aws/aws-sdk-go-v2/service/elasticloadbalancingv2"
	"github.com/aws/aws-sdk-go-v2/service/lambda"
	"github.com/aws/aws-sdk-go-v2/service/memorydb"
	"github.com/aws/aws-sdk-go-v2/service/rds"
	"github.com/aws/aws-sdk-go-v2/service/redshift"
	"github.com/aws/aws-sdk-go-v2/service/sts"
)

var (
	// ErrCredentials means no usable AWS credentials were found.
	ErrCredentials = errors.New("aws credentials invalid or missing")

	// ErrRegionDiscovery means the enabled-region listing failed.
	ErrRegionDiscovery = errors.New("region discovery failed")
)

// bootstrapRegion is used for account-level calls that need some
// region before the caller has chosen one.
const bootstrapRegion = "us-east-1"

// Client bundles the per-region service clients used by the
// inventories and collectors.
type Client struct {
	region string

	ec2         *ec2.Client
	rds         *rds.Client
	elb         *elb.Client
	elbv2       *elbv2.Client
	lambda      *lambda.Client
	elasticache *elasticache.Client
	redshift    *redshift.Client
	eks         *eks.Client
	autoscaling *autoscaling.Client
	memorydb    *memorydb.Client
	sts         STSIdentityAPI
}

// NewClient builds the service client bundle for one region. An empty
// profile uses the default credential chain.
func NewClient(ctx context.Context, region, profile string) (*Client, error) {
	opts := []func(*config.LoadOptions) error{
		config.WithRegion(region),
	}
	if profile != "" {
		opts = append(opts, config.WithSharedConfigProfile(profile))
	}

	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config for %s: %w", region, err)
	}

	return &Client{
		region:      region,
		ec2:         ec2.NewFromConfig(cfg),
		rds:         rds.NewFromConfig(cfg),
		elb:         elb.NewFromConfig(cfg),
		elbv2:       elbv2.NewFromConfig(cfg),
		lambda:      lambda.NewFromConfig(cfg),
		elasticache: elasticache.NewFromConfig(cfg),
		redshift:    redshift.NewFromConfig(cfg),
		eks:         eks.NewFromConfig(cfg),
		autoscaling: autoscaling.NewFromConfig(cfg),
		memorydb:    memorydb.NewFromConfig(cfg),
		sts:         sts.NewFromConfig(cfg),
	}, nil
}

// Region returns the region this client is bound to.
func (c *Client) Region() string { return c.region }

// EC2 exposes the raw EC2 client for deletion calls.
func (c *Client) EC2() *ec2.Client { return c.ec2 }

// ValidateCredentials verifies the credential chain actually resolves
// to an identity before a scan fans out across regions.
func (c *Client) ValidateCredentials(ctx context.Context) (string, error) {
	out, err := c.sts.GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrCredentials, err)
	}
	return aws.ToString(out.Account), nil
}

// ListRegions returns the account's enabled regions, sorted. It runs
// against the bootstrap region so it works before any region choice.
func ListRegions(ctx context.Context, profile string) ([]string, error) {
	client, err := NewClient(ctx, bootstrapRegion, profile)
	if err != nil {
		return nil, err
	}

	out, err := client.ec2.DescribeRegions(ctx, &ec2.DescribeRegionsInput{})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRegionDiscovery, err)
	}

	regions := make([]string, 0, len(out.Regions))
	for _, r := range out.Regions {
		if name := aws.ToString(r.RegionName); name != "" {
			regions = append(regions, name)
		}
	}
	sort.Strings(regions)
	return regions, nil
}
