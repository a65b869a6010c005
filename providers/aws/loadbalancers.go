package aws

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	elb "github.com/aws/aws-sdk-go-v2/service/elasticloadbalancing"
	elbtypes "github.com/aws/aws-sdk-go-v2/service/elasticloadbalancing/types"
	elbv2 "github.com/aws/aws-sdk-go-v2/service/elasticloadbalancingv2"
	elbv2types "github.com/aws/aws-sdk-go-v2/service/elasticloadbalancingv2/types"

	"github.com/netprune/netprune/scanner"
	"github.com/netprune/netprune/types"
)

// Load balancer evidence. Classic ELBs and ALB/NLBs live on separate
// APIs and both hold security groups and subnets.

func pageClassicLoadBalancers(ctx context.Context, api elb.DescribeLoadBalancersAPIClient, visit func(elbtypes.LoadBalancerDescription)) error {
	paginator := elb.NewDescribeLoadBalancersPaginator(api, &elb.DescribeLoadBalancersInput{})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return fmt.Errorf("failed to describe classic load balancers: %w", err)
		}
		for _, lb := range page.LoadBalancerDescriptions {
			visit(lb)
		}
	}
	return nil
}

func classicELBCollector(api elb.DescribeLoadBalancersAPIClient, name string, extract func(elbtypes.LoadBalancerDescription, types.EvidenceSet)) scanner.Collector {
	return scanner.CollectorFunc{
		CollectorName: name,
		Fn: func(ctx context.Context) (types.EvidenceSet, error) {
			evidence := types.NewEvidenceSet()
			err := pageClassicLoadBalancers(ctx, api, func(lb elbtypes.LoadBalancerDescription) {
				extract(lb, evidence)
			})
			return evidence, err
		},
	}
}

func classicELBSecurityGroups(api elb.DescribeLoadBalancersAPIClient) scanner.Collector {
	return classicELBCollector(api, "classic-elb-security-groups",
		func(lb elbtypes.LoadBalancerDescription, evidence types.EvidenceSet) {
			for _, sgID := range lb.SecurityGroups {
				evidence.Add(sgID)
			}
		})
}

func classicELBSubnets(api elb.DescribeLoadBalancersAPIClient, scope Scope) scanner.Collector {
	return classicELBCollector(api, "classic-elb-subnets",
		func(lb elbtypes.LoadBalancerDescription, evidence types.EvidenceSet) {
			if scope.VpcID != "" && aws.ToString(lb.VPCId) != scope.VpcID {
				return
			}
			for _, subnetID := range lb.Subnets {
				evidence.Add(subnetID)
			}
		})
}

func classicELBVpcs(api elb.DescribeLoadBalancersAPIClient) scanner.Collector {
	return classicELBCollector(api, "classic-elb-vpcs",
		func(lb elbtypes.LoadBalancerDescription, evidence types.EvidenceSet) {
			evidence.Add(aws.ToString(lb.VPCId))
		})
}

func pageLoadBalancersV2(ctx context.Context, api elbv2.DescribeLoadBalancersAPIClient, visit func(elbv2types.LoadBalancer)) error {
	paginator := elbv2.NewDescribeLoadBalancersPaginator(api, &elbv2.DescribeLoadBalancersInput{})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return fmt.Errorf("failed to describe load balancers: %w", err)
		}
		for _, lb := range page.LoadBalancers {
			visit(lb)
		}
	}
	return nil
}

func loadBalancerV2Collector(api elbv2.DescribeLoadBalancersAPIClient, name string, extract func(elbv2types.LoadBalancer, types.EvidenceSet)) scanner.Collector {
	return scanner.CollectorFunc{
		CollectorName: name,
		Fn: func(ctx context.Context) (types.EvidenceSet, error) {
			evidence := types.NewEvidenceSet()
			err := pageLoadBalancersV2(ctx, api, func(lb elbv2types.LoadBalancer) {
				extract(lb, evidence)
			})
			return evidence, err
		},
	}
}

func loadBalancerV2SecurityGroups(api elbv2.DescribeLoadBalancersAPIClient) scanner.Collector {
	return loadBalancerV2Collector(api, "alb-nlb-security-groups",
		func(lb elbv2types.LoadBalancer, evidence types.EvidenceSet) {
			for _, sgID := range lb.SecurityGroups {
				evidence.Add(sgID)
			}
		})
}

func loadBalancerV2Subnets(api elbv2.DescribeLoadBalancersAPIClient, scope Scope) scanner.Collector {
	return loadBalancerV2Collector(api, "alb-nlb-subnets",
		func(lb elbv2types.LoadBalancer, evidence types.EvidenceSet) {
			if scope.VpcID != "" && aws.ToString(lb.VpcId) != scope.VpcID {
				return
			}
			for _, az := range lb.AvailabilityZones {
				evidence.Add(aws.ToString(az.SubnetId))
			}
		})
}

func loadBalancerV2Vpcs(api elbv2.DescribeLoadBalancersAPIClient) scanner.Collector {
	return loadBalancerV2Collector(api, "alb-nlb-vpcs",
		func(lb elbv2types.LoadBalancer, evidence types.EvidenceSet) {
			evidence.Add(aws.ToString(lb.VpcId))
		})
}
