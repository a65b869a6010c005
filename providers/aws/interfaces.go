package aws

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/eks"
	"github.com/aws/aws-sdk-go-v2/service/sts"
)

// The paginated listings take the SDK-generated *APIClient interfaces
// directly. The interfaces below cover the handful of calls the SDK
// ships no paginator for.

// EC2AddressesAPI covers the Elastic IP listing.
type EC2AddressesAPI interface {
	DescribeAddresses(ctx context.Context, params *ec2.DescribeAddressesInput, optFns ...func(*ec2.Options)) (*ec2.DescribeAddressesOutput, error)
}

// EC2VpnGatewaysAPI covers the VPN gateway listing.
type EC2VpnGatewaysAPI interface {
	DescribeVpnGateways(ctx context.Context, params *ec2.DescribeVpnGatewaysInput, optFns ...func(*ec2.Options)) (*ec2.DescribeVpnGatewaysOutput, error)
}

// EKSClustersAPI pages cluster names and describes each one.
type EKSClustersAPI interface {
	eks.ListClustersAPIClient
	DescribeCluster(ctx context.Context, params *eks.DescribeClusterInput, optFns ...func(*eks.Options)) (*eks.DescribeClusterOutput, error)
}

// STSIdentityAPI covers the caller-identity check used to validate
// the credential chain.
type STSIdentityAPI interface {
	GetCallerIdentity(ctx context.Context, params *sts.GetCallerIdentityInput, optFns ...func(*sts.Options)) (*sts.GetCallerIdentityOutput, error)
}

var (
	_ EC2AddressesAPI   = (*ec2.Client)(nil)
	_ EC2VpnGatewaysAPI = (*ec2.Client)(nil)
	_ EKSClustersAPI    = (*eks.Client)(nil)
	_ STSIdentityAPI    = (*sts.Client)(nil)
)
