package aws

import (
	"context"
	"fmt"

	"github.com/netprune/netprune/scanner"
	"github.com/netprune/netprune/types"
)

// DescriptorFor wires the inventory, the full collector list and the
// exemption source for one resource type in this client's region.
// Every known reference source must be listed here; a missing
// collector shows up as false positives in scan results.
func DescriptorFor(client *Client, resourceType types.ResourceType, scope Scope) (scanner.Descriptor, error) {
	switch resourceType {
	case types.ResourceSecurityGroup:
		return client.securityGroupDescriptor(), nil
	case types.ResourceVPC:
		return client.vpcDescriptor(), nil
	case types.ResourceSubnet:
		return client.subnetDescriptor(scope), nil
	case types.ResourceElasticIP:
		return client.elasticIPDescriptor(), nil
	default:
		return scanner.Descriptor{}, fmt.Errorf("unknown resource type %q", resourceType)
	}
}

func (c *Client) securityGroupDescriptor() scanner.Descriptor {
	return scanner.Descriptor{
		ResourceType: types.ResourceSecurityGroup,
		Region:       c.region,
		Inventory: func(ctx context.Context) ([]types.Resource, error) {
			return listSecurityGroups(ctx, c.ec2, c.region)
		},
		Collectors: []scanner.Collector{
			instanceSecurityGroups(c.ec2, Scope{}),
			interfaceSecurityGroups(c.ec2, Scope{}),
			securityGroupRules(c.ec2),
			rdsSecurityGroups(c.rds),
			classicELBSecurityGroups(c.elb),
			loadBalancerV2SecurityGroups(c.elbv2),
			lambdaSecurityGroups(c.lambda),
			redshiftSecurityGroups(c.redshift),
			eksSecurityGroups(c.eks),
			memorydbSecurityGroups(c.memorydb),
		},
		Exempt: func(ctx context.Context) (types.EvidenceSet, error) {
			return exemptSecurityGroups(ctx, c.ec2)
		},
	}
}

func (c *Client) vpcDescriptor() scanner.Descriptor {
	return scanner.Descriptor{
		ResourceType: types.ResourceVPC,
		Region:       c.region,
		Inventory: func(ctx context.Context) ([]types.Resource, error) {
			return listVpcs(ctx, c.ec2, c.region)
		},
		Collectors: []scanner.Collector{
			instanceVpcs(c.ec2, Scope{}),
			interfaceVpcs(c.ec2, Scope{}),
			natGatewayVpcs(c.ec2),
			vpcEndpointVpcs(c.ec2),
			internetGatewayVpcs(c.ec2),
			vpnGatewayVpcs(c.ec2),
			transitGatewayVpcs(c.ec2),
			vpcPeeringVpcs(c.ec2),
			rdsVpcs(c.rds),
			classicELBVpcs(c.elb),
			loadBalancerV2Vpcs(c.elbv2),
			lambdaVpcs(c.lambda),
			elasticacheVpcs(c.elasticache),
			redshiftVpcs(c.redshift),
			eksVpcs(c.eks),
			memorydbVpcs(c.memorydb),
		},
		Exempt: func(ctx context.Context) (types.EvidenceSet, error) {
			return exemptVpcs(ctx, c.ec2)
		},
	}
}

func (c *Client) subnetDescriptor(scope Scope) scanner.Descriptor {
	return scanner.Descriptor{
		ResourceType: types.ResourceSubnet,
		Region:       c.region,
		Inventory: func(ctx context.Context) ([]types.Resource, error) {
			return listSubnets(ctx, c.ec2, c.region, scope)
		},
		Collectors: []scanner.Collector{
			instanceSubnets(c.ec2, scope),
			interfaceSubnets(c.ec2, scope),
			natGatewaySubnets(c.ec2, scope),
			vpcEndpointSubnets(c.ec2),
			rdsSubnets(c.rds, scope),
			classicELBSubnets(c.elb, scope),
			loadBalancerV2Subnets(c.elbv2, scope),
			lambdaSubnets(c.lambda, scope),
			elasticacheSubnets(c.elasticache, scope),
			redshiftSubnets(c.redshift, scope),
			eksSubnets(c.eks, scope),
			memorydbSubnets(c.memorydb, scope),
			autoscalingSubnets(c.autoscaling),
		},
		Exempt: func(ctx context.Context) (types.EvidenceSet, error) {
			return exemptSubnets(ctx, c.ec2, scope)
		},
	}
}

func (c *Client) elasticIPDescriptor() scanner.Descriptor {
	return scanner.Descriptor{
		ResourceType: types.ResourceElasticIP,
		Region:       c.region,
		Inventory: func(ctx context.Context) ([]types.Resource, error) {
			return listAddresses(ctx, c.ec2, c.region)
		},
		Collectors: []scanner.Collector{
			addressAssociations(c.ec2),
			natGatewayAllocations(c.ec2),
		},
	}
}
