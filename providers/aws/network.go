package aws

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"

	"github.com/netprune/netprune/scanner"
	"github.com/netprune/netprune/types"
)

// EC2-side evidence collectors. Each one pages a single listing and
// extracts the IDs it proves in use. Partial evidence is returned even
// when paging fails partway.

func pageInstances(ctx context.Context, api ec2.DescribeInstancesAPIClient, scope Scope, visit func(ec2types.Instance)) error {
	input := &ec2.DescribeInstancesInput{Filters: scope.vpcFilter("vpc-id")}
	paginator := ec2.NewDescribeInstancesPaginator(api, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return fmt.Errorf("failed to describe instances: %w", err)
		}
		for _, reservation := range page.Reservations {
			for _, instance := range reservation.Instances {
				if instance.State != nil && instance.State.Name == ec2types.InstanceStateNameTerminated {
					continue
				}
				visit(instance)
			}
		}
	}
	return nil
}

func instanceCollector(api ec2.DescribeInstancesAPIClient, scope Scope, name string, extract func(ec2types.Instance, types.EvidenceSet)) scanner.Collector {
	return scanner.CollectorFunc{
		CollectorName: name,
		Fn: func(ctx context.Context) (types.EvidenceSet, error) {
			evidence := types.NewEvidenceSet()
			err := pageInstances(ctx, api, scope, func(instance ec2types.Instance) {
				extract(instance, evidence)
			})
			return evidence, err
		},
	}
}

func instanceSecurityGroups(api ec2.DescribeInstancesAPIClient, scope Scope) scanner.Collector {
	return instanceCollector(api, scope, "ec2-instance-security-groups",
		func(instance ec2types.Instance, evidence types.EvidenceSet) {
			for _, sg := range instance.SecurityGroups {
				evidence.Add(aws.ToString(sg.GroupId))
			}
		})
}

func instanceSubnets(api ec2.DescribeInstancesAPIClient, scope Scope) scanner.Collector {
	return instanceCollector(api, scope, "ec2-instance-subnets",
		func(instance ec2types.Instance, evidence types.EvidenceSet) {
			evidence.Add(aws.ToString(instance.SubnetId))
		})
}

func instanceVpcs(api ec2.DescribeInstancesAPIClient, scope Scope) scanner.Collector {
	return instanceCollector(api, scope, "ec2-instance-vpcs",
		func(instance ec2types.Instance, evidence types.EvidenceSet) {
			evidence.Add(aws.ToString(instance.VpcId))
		})
}

func pageNetworkInterfaces(ctx context.Context, api ec2.DescribeNetworkInterfacesAPIClient, filters []ec2types.Filter, visit func(ec2types.NetworkInterface)) error {
	input := &ec2.DescribeNetworkInterfacesInput{Filters: filters}
	paginator := ec2.NewDescribeNetworkInterfacesPaginator(api, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return fmt.Errorf("failed to describe network interfaces: %w", err)
		}
		for _, eni := range page.NetworkInterfaces {
			visit(eni)
		}
	}
	return nil
}

// interfaceSecurityGroups treats any interface referencing a group as
// evidence, attached or not, since detaching does not drop the
// reference.
func interfaceSecurityGroups(api ec2.DescribeNetworkInterfacesAPIClient, scope Scope) scanner.Collector {
	return scanner.CollectorFunc{
		CollectorName: "network-interface-security-groups",
		Fn: func(ctx context.Context) (types.EvidenceSet, error) {
			evidence := types.NewEvidenceSet()
			err := pageNetworkInterfaces(ctx, api, scope.vpcFilter("vpc-id"), func(eni ec2types.NetworkInterface) {
				for _, group := range eni.Groups {
					evidence.Add(aws.ToString(group.GroupId))
				}
			})
			return evidence, err
		},
	}
}

func inUseInterfaceFilter(scope Scope) []ec2types.Filter {
	filters := []ec2types.Filter{{
		Name:   aws.String("status"),
		Values: []string{"in-use"},
	}}
	return append(filters, scope.vpcFilter("vpc-id")...)
}

func interfaceSubnets(api ec2.DescribeNetworkInterfacesAPIClient, scope Scope) scanner.Collector {
	return scanner.CollectorFunc{
		CollectorName: "network-interface-subnets",
		Fn: func(ctx context.Context) (types.EvidenceSet, error) {
			evidence := types.NewEvidenceSet()
			err := pageNetworkInterfaces(ctx, api, inUseInterfaceFilter(scope), func(eni ec2types.NetworkInterface) {
				evidence.Add(aws.ToString(eni.SubnetId))
			})
			return evidence, err
		},
	}
}

func interfaceVpcs(api ec2.DescribeNetworkInterfacesAPIClient, scope Scope) scanner.Collector {
	return scanner.CollectorFunc{
		CollectorName: "network-interface-vpcs",
		Fn: func(ctx context.Context) (types.EvidenceSet, error) {
			evidence := types.NewEvidenceSet()
			err := pageNetworkInterfaces(ctx, api, inUseInterfaceFilter(scope), func(eni ec2types.NetworkInterface) {
				evidence.Add(aws.ToString(eni.VpcId))
			})
			return evidence, err
		},
	}
}

// securityGroupRules cross-references groups from ingress and egress
// rules. A group referenced by another group's rule is in use even
// with nothing attached to it.
func securityGroupRules(api ec2.DescribeSecurityGroupsAPIClient) scanner.Collector {
	return scanner.CollectorFunc{
		CollectorName: "security-group-rule-references",
		Fn: func(ctx context.Context) (types.EvidenceSet, error) {
			evidence := types.NewEvidenceSet()

			paginator := ec2.NewDescribeSecurityGroupsPaginator(api, &ec2.DescribeSecurityGroupsInput{})
			for paginator.HasMorePages() {
				page, err := paginator.NextPage(ctx)
				if err != nil {
					return evidence, fmt.Errorf("failed to describe security groups: %w", err)
				}
				for _, sg := range page.SecurityGroups {
					addRulePairs(sg.IpPermissions, evidence)
					addRulePairs(sg.IpPermissionsEgress, evidence)
				}
			}

			return evidence, nil
		},
	}
}

func addRulePairs(permissions []ec2types.IpPermission, evidence types.EvidenceSet) {
	for _, permission := range permissions {
		for _, pair := range permission.UserIdGroupPairs {
			evidence.Add(aws.ToString(pair.GroupId))
		}
	}
}

func natGatewayActive(state ec2types.NatGatewayState) bool {
	return state == ec2types.NatGatewayStateAvailable || state == ec2types.NatGatewayStatePending
}

func pageNatGateways(ctx context.Context, api ec2.DescribeNatGatewaysAPIClient, scope Scope, visit func(ec2types.NatGateway)) error {
	input := &ec2.DescribeNatGatewaysInput{Filter: scope.vpcFilter("vpc-id")}
	paginator := ec2.NewDescribeNatGatewaysPaginator(api, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return fmt.Errorf("failed to describe nat gateways: %w", err)
		}
		for _, gateway := range page.NatGateways {
			if !natGatewayActive(gateway.State) {
				continue
			}
			visit(gateway)
		}
	}
	return nil
}

func natGatewayCollector(api ec2.DescribeNatGatewaysAPIClient, scope Scope, name string, extract func(ec2types.NatGateway, types.EvidenceSet)) scanner.Collector {
	return scanner.CollectorFunc{
		CollectorName: name,
		Fn: func(ctx context.Context) (types.EvidenceSet, error) {
			evidence := types.NewEvidenceSet()
			err := pageNatGateways(ctx, api, scope, func(gateway ec2types.NatGateway) {
				extract(gateway, evidence)
			})
			return evidence, err
		},
	}
}

func natGatewayAllocations(api ec2.DescribeNatGatewaysAPIClient) scanner.Collector {
	return natGatewayCollector(api, Scope{}, "nat-gateway-allocations",
		func(gateway ec2types.NatGateway, evidence types.EvidenceSet) {
			for _, address := range gateway.NatGatewayAddresses {
				evidence.Add(aws.ToString(address.AllocationId))
			}
		})
}

func natGatewaySubnets(api ec2.DescribeNatGatewaysAPIClient, scope Scope) scanner.Collector {
	return natGatewayCollector(api, scope, "nat-gateway-subnets",
		func(gateway ec2types.NatGateway, evidence types.EvidenceSet) {
			evidence.Add(aws.ToString(gateway.SubnetId))
		})
}

func natGatewayVpcs(api ec2.DescribeNatGatewaysAPIClient) scanner.Collector {
	return natGatewayCollector(api, Scope{}, "nat-gateway-vpcs",
		func(gateway ec2types.NatGateway, evidence types.EvidenceSet) {
			evidence.Add(aws.ToString(gateway.VpcId))
		})
}

// addressAssociations marks allocations with any live association or
// attachment as in use.
func addressAssociations(api EC2AddressesAPI) scanner.Collector {
	return scanner.CollectorFunc{
		CollectorName: "eip-associations",
		Fn: func(ctx context.Context) (types.EvidenceSet, error) {
			evidence := types.NewEvidenceSet()

			out, err := api.DescribeAddresses(ctx, &ec2.DescribeAddressesInput{})
			if err != nil {
				return evidence, fmt.Errorf("failed to describe addresses: %w", err)
			}
			for _, address := range out.Addresses {
				associated := aws.ToString(address.AssociationId) != "" ||
					aws.ToString(address.InstanceId) != "" ||
					aws.ToString(address.NetworkInterfaceId) != ""
				if associated {
					evidence.Add(aws.ToString(address.AllocationId))
				}
			}

			return evidence, nil
		},
	}
}

func vpcEndpointCollector(api ec2.DescribeVpcEndpointsAPIClient, name string, extract func(ec2types.VpcEndpoint, types.EvidenceSet)) scanner.Collector {
	return scanner.CollectorFunc{
		CollectorName: name,
		Fn: func(ctx context.Context) (types.EvidenceSet, error) {
			evidence := types.NewEvidenceSet()

			paginator := ec2.NewDescribeVpcEndpointsPaginator(api, &ec2.DescribeVpcEndpointsInput{})
			for paginator.HasMorePages() {
				page, err := paginator.NextPage(ctx)
				if err != nil {
					return evidence, fmt.Errorf("failed to describe vpc endpoints: %w", err)
				}
				for _, endpoint := range page.VpcEndpoints {
					extract(endpoint, evidence)
				}
			}

			return evidence, nil
		},
	}
}

func vpcEndpointVpcs(api ec2.DescribeVpcEndpointsAPIClient) scanner.Collector {
	return vpcEndpointCollector(api, "vpc-endpoint-vpcs",
		func(endpoint ec2types.VpcEndpoint, evidence types.EvidenceSet) {
			evidence.Add(aws.ToString(endpoint.VpcId))
		})
}

func vpcEndpointSubnets(api ec2.DescribeVpcEndpointsAPIClient) scanner.Collector {
	return vpcEndpointCollector(api, "vpc-endpoint-subnets",
		func(endpoint ec2types.VpcEndpoint, evidence types.EvidenceSet) {
			for _, subnetID := range endpoint.SubnetIds {
				evidence.Add(subnetID)
			}
		})
}

func internetGatewayVpcs(api ec2.DescribeInternetGatewaysAPIClient) scanner.Collector {
	return scanner.CollectorFunc{
		CollectorName: "internet-gateway-vpcs",
		Fn: func(ctx context.Context) (types.EvidenceSet, error) {
			evidence := types.NewEvidenceSet()

			paginator := ec2.NewDescribeInternetGatewaysPaginator(api, &ec2.DescribeInternetGatewaysInput{})
			for paginator.HasMorePages() {
				page, err := paginator.NextPage(ctx)
				if err != nil {
					return evidence, fmt.Errorf("failed to describe internet gateways: %w", err)
				}
				for _, gateway := range page.InternetGateways {
					for _, attachment := range gateway.Attachments {
						// the API reports "available" for IGWs even though
						// the enum only documents "attached"
						state := string(attachment.State)
						if state == "available" || state == "attached" {
							evidence.Add(aws.ToString(attachment.VpcId))
						}
					}
				}
			}

			return evidence, nil
		},
	}
}

func vpnGatewayVpcs(api EC2VpnGatewaysAPI) scanner.Collector {
	return scanner.CollectorFunc{
		CollectorName: "vpn-gateway-vpcs",
		Fn: func(ctx context.Context) (types.EvidenceSet, error) {
			evidence := types.NewEvidenceSet()

			out, err := api.DescribeVpnGateways(ctx, &ec2.DescribeVpnGatewaysInput{})
			if err != nil {
				return evidence, fmt.Errorf("failed to describe vpn gateways: %w", err)
			}
			for _, gateway := range out.VpnGateways {
				for _, attachment := range gateway.VpcAttachments {
					if attachment.State == ec2types.AttachmentStatusAttached {
						evidence.Add(aws.ToString(attachment.VpcId))
					}
				}
			}

			return evidence, nil
		},
	}
}

func transitGatewayVpcs(api ec2.DescribeTransitGatewayVpcAttachmentsAPIClient) scanner.Collector {
	return scanner.CollectorFunc{
		CollectorName: "transit-gateway-attachment-vpcs",
		Fn: func(ctx context.Context) (types.EvidenceSet, error) {
			evidence := types.NewEvidenceSet()

			paginator := ec2.NewDescribeTransitGatewayVpcAttachmentsPaginator(api, &ec2.DescribeTransitGatewayVpcAttachmentsInput{})
			for paginator.HasMorePages() {
				page, err := paginator.NextPage(ctx)
				if err != nil {
					return evidence, fmt.Errorf("failed to describe transit gateway attachments: %w", err)
				}
				for _, attachment := range page.TransitGatewayVpcAttachments {
					switch attachment.State {
					case ec2types.TransitGatewayAttachmentStateAvailable,
						ec2types.TransitGatewayAttachmentStatePending:
						evidence.Add(aws.ToString(attachment.VpcId))
					}
				}
			}

			return evidence, nil
		},
	}
}

func vpcPeeringVpcs(api ec2.DescribeVpcPeeringConnectionsAPIClient) scanner.Collector {
	return scanner.CollectorFunc{
		CollectorName: "vpc-peering-vpcs",
		Fn: func(ctx context.Context) (types.EvidenceSet, error) {
			evidence := types.NewEvidenceSet()

			paginator := ec2.NewDescribeVpcPeeringConnectionsPaginator(api, &ec2.DescribeVpcPeeringConnectionsInput{})
			for paginator.HasMorePages() {
				page, err := paginator.NextPage(ctx)
				if err != nil {
					return evidence, fmt.Errorf("failed to describe vpc peering connections: %w", err)
				}
				for _, peering := range page.VpcPeeringConnections {
					if peering.Status == nil || peering.Status.Code != ec2types.VpcPeeringConnectionStateReasonCodeActive {
						continue
					}
					if peering.RequesterVpcInfo != nil {
						evidence.Add(aws.ToString(peering.RequesterVpcInfo.VpcId))
					}
					if peering.AccepterVpcInfo != nil {
						evidence.Add(aws.ToString(peering.AccepterVpcInfo.VpcId))
					}
				}
			}

			return evidence, nil
		},
	}
}
