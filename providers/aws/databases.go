package aws

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/elasticache"
	"github.com/aws/aws-sdk-go-v2/service/memorydb"
	"github.com/aws/aws-sdk-go-v2/service/rds"
	"github.com/aws/aws-sdk-go-v2/service/redshift"
	redshifttypes "github.com/aws/aws-sdk-go-v2/service/redshift/types"

	"github.com/netprune/netprune/scanner"
	"github.com/netprune/netprune/types"
)

// Database-side evidence. The RDS, ElastiCache, Redshift and MemoryDB
// APIs take no vpc-id filter, so VPC scoping is applied after listing.

func rdsSecurityGroups(api rds.DescribeDBInstancesAPIClient) scanner.Collector {
	return scanner.CollectorFunc{
		CollectorName: "rds-instance-security-groups",
		Fn: func(ctx context.Context) (types.EvidenceSet, error) {
			evidence := types.NewEvidenceSet()

			paginator := rds.NewDescribeDBInstancesPaginator(api, &rds.DescribeDBInstancesInput{})
			for paginator.HasMorePages() {
				page, err := paginator.NextPage(ctx)
				if err != nil {
					return evidence, fmt.Errorf("failed to describe db instances: %w", err)
				}
				for _, db := range page.DBInstances {
					for _, sg := range db.VpcSecurityGroups {
						evidence.Add(aws.ToString(sg.VpcSecurityGroupId))
					}
				}
			}

			return evidence, nil
		},
	}
}

func rdsVpcs(api rds.DescribeDBInstancesAPIClient) scanner.Collector {
	return scanner.CollectorFunc{
		CollectorName: "rds-instance-vpcs",
		Fn: func(ctx context.Context) (types.EvidenceSet, error) {
			evidence := types.NewEvidenceSet()

			paginator := rds.NewDescribeDBInstancesPaginator(api, &rds.DescribeDBInstancesInput{})
			for paginator.HasMorePages() {
				page, err := paginator.NextPage(ctx)
				if err != nil {
					return evidence, fmt.Errorf("failed to describe db instances: %w", err)
				}
				for _, db := range page.DBInstances {
					if db.DBSubnetGroup != nil {
						evidence.Add(aws.ToString(db.DBSubnetGroup.VpcId))
					}
				}
			}

			return evidence, nil
		},
	}
}

func rdsSubnets(api rds.DescribeDBSubnetGroupsAPIClient, scope Scope) scanner.Collector {
	return scanner.CollectorFunc{
		CollectorName: "rds-subnet-groups",
		Fn: func(ctx context.Context) (types.EvidenceSet, error) {
			evidence := types.NewEvidenceSet()

			paginator := rds.NewDescribeDBSubnetGroupsPaginator(api, &rds.DescribeDBSubnetGroupsInput{})
			for paginator.HasMorePages() {
				page, err := paginator.NextPage(ctx)
				if err != nil {
					return evidence, fmt.Errorf("failed to describe db subnet groups: %w", err)
				}
				for _, group := range page.DBSubnetGroups {
					if scope.VpcID != "" && aws.ToString(group.VpcId) != scope.VpcID {
						continue
					}
					for _, subnet := range group.Subnets {
						evidence.Add(aws.ToString(subnet.SubnetIdentifier))
					}
				}
			}

			return evidence, nil
		},
	}
}

func cacheSubnetGroupCollector(api elasticache.DescribeCacheSubnetGroupsAPIClient, name string, scope Scope, wantSubnets bool) scanner.Collector {
	return scanner.CollectorFunc{
		CollectorName: name,
		Fn: func(ctx context.Context) (types.EvidenceSet, error) {
			evidence := types.NewEvidenceSet()

			paginator := elasticache.NewDescribeCacheSubnetGroupsPaginator(api, &elasticache.DescribeCacheSubnetGroupsInput{})
			for paginator.HasMorePages() {
				page, err := paginator.NextPage(ctx)
				if err != nil {
					return evidence, fmt.Errorf("failed to describe cache subnet groups: %w", err)
				}
				for _, group := range page.CacheSubnetGroups {
					if wantSubnets {
						if scope.VpcID != "" && aws.ToString(group.VpcId) != scope.VpcID {
							continue
						}
						for _, subnet := range group.Subnets {
							evidence.Add(aws.ToString(subnet.SubnetIdentifier))
						}
					} else {
						evidence.Add(aws.ToString(group.VpcId))
					}
				}
			}

			return evidence, nil
		},
	}
}

func elasticacheSubnets(api elasticache.DescribeCacheSubnetGroupsAPIClient, scope Scope) scanner.Collector {
	return cacheSubnetGroupCollector(api, "elasticache-subnet-groups", scope, true)
}

func elasticacheVpcs(api elasticache.DescribeCacheSubnetGroupsAPIClient) scanner.Collector {
	return cacheSubnetGroupCollector(api, "elasticache-subnet-group-vpcs", Scope{}, false)
}

func redshiftClusterCollector(api redshift.DescribeClustersAPIClient, name string, extract func(cluster redshifttypes.Cluster, evidence types.EvidenceSet)) scanner.Collector {
	return scanner.CollectorFunc{
		CollectorName: name,
		Fn: func(ctx context.Context) (types.EvidenceSet, error) {
			evidence := types.NewEvidenceSet()

			paginator := redshift.NewDescribeClustersPaginator(api, &redshift.DescribeClustersInput{})
			for paginator.HasMorePages() {
				page, err := paginator.NextPage(ctx)
				if err != nil {
					return evidence, fmt.Errorf("failed to describe redshift clusters: %w", err)
				}
				for _, cluster := range page.Clusters {
					extract(cluster, evidence)
				}
			}

			return evidence, nil
		},
	}
}

func redshiftSecurityGroups(api redshift.DescribeClustersAPIClient) scanner.Collector {
	return redshiftClusterCollector(api, "redshift-cluster-security-groups",
		func(cluster redshifttypes.Cluster, evidence types.EvidenceSet) {
			for _, sg := range cluster.VpcSecurityGroups {
				evidence.Add(aws.ToString(sg.VpcSecurityGroupId))
			}
		})
}

func redshiftVpcs(api redshift.DescribeClustersAPIClient) scanner.Collector {
	return redshiftClusterCollector(api, "redshift-cluster-vpcs",
		func(cluster redshifttypes.Cluster, evidence types.EvidenceSet) {
			evidence.Add(aws.ToString(cluster.VpcId))
		})
}

func redshiftSubnets(api redshift.DescribeClusterSubnetGroupsAPIClient, scope Scope) scanner.Collector {
	return scanner.CollectorFunc{
		CollectorName: "redshift-subnet-groups",
		Fn: func(ctx context.Context) (types.EvidenceSet, error) {
			evidence := types.NewEvidenceSet()

			paginator := redshift.NewDescribeClusterSubnetGroupsPaginator(api, &redshift.DescribeClusterSubnetGroupsInput{})
			for paginator.HasMorePages() {
				page, err := paginator.NextPage(ctx)
				if err != nil {
					return evidence, fmt.Errorf("failed to describe cluster subnet groups: %w", err)
				}
				for _, group := range page.ClusterSubnetGroups {
					if scope.VpcID != "" && aws.ToString(group.VpcId) != scope.VpcID {
						continue
					}
					for _, subnet := range group.Subnets {
						evidence.Add(aws.ToString(subnet.SubnetIdentifier))
					}
				}
			}

			return evidence, nil
		},
	}
}

func memorydbSecurityGroups(api memorydb.DescribeClustersAPIClient) scanner.Collector {
	return scanner.CollectorFunc{
		CollectorName: "memorydb-cluster-security-groups",
		Fn: func(ctx context.Context) (types.EvidenceSet, error) {
			evidence := types.NewEvidenceSet()

			paginator := memorydb.NewDescribeClustersPaginator(api, &memorydb.DescribeClustersInput{})
			for paginator.HasMorePages() {
				page, err := paginator.NextPage(ctx)
				if err != nil {
					return evidence, fmt.Errorf("failed to describe memorydb clusters: %w", err)
				}
				for _, cluster := range page.Clusters {
					for _, sg := range cluster.SecurityGroups {
						evidence.Add(aws.ToString(sg.SecurityGroupId))
					}
				}
			}

			return evidence, nil
		},
	}
}

func memorydbSubnetGroupCollector(api memorydb.DescribeSubnetGroupsAPIClient, name string, scope Scope, wantSubnets bool) scanner.Collector {
	return scanner.CollectorFunc{
		CollectorName: name,
		Fn: func(ctx context.Context) (types.EvidenceSet, error) {
			evidence := types.NewEvidenceSet()

			paginator := memorydb.NewDescribeSubnetGroupsPaginator(api, &memorydb.DescribeSubnetGroupsInput{})
			for paginator.HasMorePages() {
				page, err := paginator.NextPage(ctx)
				if err != nil {
					return evidence, fmt.Errorf("failed to describe memorydb subnet groups: %w", err)
				}
				for _, group := range page.SubnetGroups {
					if wantSubnets {
						if scope.VpcID != "" && aws.ToString(group.VpcId) != scope.VpcID {
							continue
						}
						for _, subnet := range group.Subnets {
							evidence.Add(aws.ToString(subnet.Identifier))
						}
					} else {
						evidence.Add(aws.ToString(group.VpcId))
					}
				}
			}

			return evidence, nil
		},
	}
}

func memorydbSubnets(api memorydb.DescribeSubnetGroupsAPIClient, scope Scope) scanner.Collector {
	return memorydbSubnetGroupCollector(api, "memorydb-subnet-groups", scope, true)
}

func memorydbVpcs(api memorydb.DescribeSubnetGroupsAPIClient) scanner.Collector {
	return memorydbSubnetGroupCollector(api, "memorydb-subnet-group-vpcs", Scope{}, false)
}
