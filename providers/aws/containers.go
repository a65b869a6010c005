package aws

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/autoscaling"
	"github.com/aws/aws-sdk-go-v2/service/eks"

	"github.com/netprune/netprune/scanner"
	"github.com/netprune/netprune/types"
)

// EKS and Auto Scaling evidence. EKS clusters pin security groups and
// subnets through their VPC config; ASGs pin subnets through
// VPCZoneIdentifier.

func pageEKSClusters(ctx context.Context, api EKSClustersAPI, visit func(*eks.DescribeClusterOutput)) error {
	paginator := eks.NewListClustersPaginator(api, &eks.ListClustersInput{})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return fmt.Errorf("failed to list eks clusters: %w", err)
		}
		for _, name := range page.Clusters {
			out, err := api.DescribeCluster(ctx, &eks.DescribeClusterInput{Name: aws.String(name)})
			if err != nil {
				return fmt.Errorf("failed to describe eks cluster %s: %w", name, err)
			}
			visit(out)
		}
	}
	return nil
}

func eksCollector(api EKSClustersAPI, name string, extract func(*eks.DescribeClusterOutput, types.EvidenceSet)) scanner.Collector {
	return scanner.CollectorFunc{
		CollectorName: name,
		Fn: func(ctx context.Context) (types.EvidenceSet, error) {
			evidence := types.NewEvidenceSet()
			err := pageEKSClusters(ctx, api, func(out *eks.DescribeClusterOutput) {
				if out.Cluster == nil || out.Cluster.ResourcesVpcConfig == nil {
					return
				}
				extract(out, evidence)
			})
			return evidence, err
		},
	}
}

func eksSecurityGroups(api EKSClustersAPI) scanner.Collector {
	return eksCollector(api, "eks-cluster-security-groups",
		func(out *eks.DescribeClusterOutput, evidence types.EvidenceSet) {
			cfg := out.Cluster.ResourcesVpcConfig
			for _, sgID := range cfg.SecurityGroupIds {
				evidence.Add(sgID)
			}
			evidence.Add(aws.ToString(cfg.ClusterSecurityGroupId))
		})
}

func eksSubnets(api EKSClustersAPI, scope Scope) scanner.Collector {
	return eksCollector(api, "eks-cluster-subnets",
		func(out *eks.DescribeClusterOutput, evidence types.EvidenceSet) {
			cfg := out.Cluster.ResourcesVpcConfig
			if scope.VpcID != "" && aws.ToString(cfg.VpcId) != scope.VpcID {
				return
			}
			for _, subnetID := range cfg.SubnetIds {
				evidence.Add(subnetID)
			}
		})
}

func eksVpcs(api EKSClustersAPI) scanner.Collector {
	return eksCollector(api, "eks-cluster-vpcs",
		func(out *eks.DescribeClusterOutput, evidence types.EvidenceSet) {
			evidence.Add(aws.ToString(out.Cluster.ResourcesVpcConfig.VpcId))
		})
}

// autoscalingSubnets reads subnet IDs from each group's
// VPCZoneIdentifier, a comma-separated list.
func autoscalingSubnets(api autoscaling.DescribeAutoScalingGroupsAPIClient) scanner.Collector {
	return scanner.CollectorFunc{
		CollectorName: "autoscaling-group-subnets",
		Fn: func(ctx context.Context) (types.EvidenceSet, error) {
			evidence := types.NewEvidenceSet()

			paginator := autoscaling.NewDescribeAutoScalingGroupsPaginator(api, &autoscaling.DescribeAutoScalingGroupsInput{})
			for paginator.HasMorePages() {
				page, err := paginator.NextPage(ctx)
				if err != nil {
					return evidence, fmt.Errorf("failed to describe auto scaling groups: %w", err)
				}
				for _, group := range page.AutoScalingGroups {
					for _, subnetID := range strings.Split(aws.ToString(group.VPCZoneIdentifier), ",") {
						evidence.Add(strings.TrimSpace(subnetID))
					}
				}
			}

			return evidence, nil
		},
	}
}
