package aws

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"

	"github.com/netprune/netprune/types"
)

// Scope narrows a scan. A set VpcID limits subnet inventories and the
// EC2-side collectors to that VPC.
type Scope struct {
	VpcID string
}

func (s Scope) vpcFilter(field string) []ec2types.Filter {
	if s.VpcID == "" {
		return nil
	}
	return []ec2types.Filter{{
		Name:   aws.String(field),
		Values: []string{s.VpcID},
	}}
}

// tagValue returns the value of the named tag, or empty.
func tagValue(tags []ec2types.Tag, key string) string {
	for _, tag := range tags {
		if aws.ToString(tag.Key) == key {
			return aws.ToString(tag.Value)
		}
	}
	return ""
}

func tagMap(tags []ec2types.Tag) map[string]string {
	if len(tags) == 0 {
		return nil
	}
	m := make(map[string]string, len(tags))
	for _, tag := range tags {
		m[aws.ToString(tag.Key)] = aws.ToString(tag.Value)
	}
	return m
}

// listSecurityGroups inventories every security group in the region.
func listSecurityGroups(ctx context.Context, api ec2.DescribeSecurityGroupsAPIClient, region string) ([]types.Resource, error) {
	var resources []types.Resource

	paginator := ec2.NewDescribeSecurityGroupsPaginator(api, &ec2.DescribeSecurityGroupsInput{})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to describe security groups: %w", err)
		}
		for _, sg := range page.SecurityGroups {
			resources = append(resources, buildSecurityGroupRecord(sg, region))
		}
	}

	return resources, nil
}

func buildSecurityGroupRecord(sg ec2types.SecurityGroup, region string) types.Resource {
	name := tagValue(sg.Tags, "Name")
	if name == "" {
		name = aws.ToString(sg.GroupName)
	}

	return types.Resource{
		ID:          aws.ToString(sg.GroupId),
		Name:        name,
		Type:        types.ResourceSecurityGroup,
		Region:      region,
		VpcID:       aws.ToString(sg.VpcId),
		Description: aws.ToString(sg.Description),
		IsDefault:   aws.ToString(sg.GroupName) == "default",
		Tags:        tagMap(sg.Tags),
	}
}

// listVpcs inventories every VPC in the region.
func listVpcs(ctx context.Context, api ec2.DescribeVpcsAPIClient, region string) ([]types.Resource, error) {
	var resources []types.Resource

	paginator := ec2.NewDescribeVpcsPaginator(api, &ec2.DescribeVpcsInput{})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to describe vpcs: %w", err)
		}
		for _, vpc := range page.Vpcs {
			resources = append(resources, buildVpcRecord(vpc, region))
		}
	}

	return resources, nil
}

func buildVpcRecord(vpc ec2types.Vpc, region string) types.Resource {
	return types.Resource{
		ID:        aws.ToString(vpc.VpcId),
		Name:      tagValue(vpc.Tags, "Name"),
		Type:      types.ResourceVPC,
		Region:    region,
		CIDRBlock: aws.ToString(vpc.CidrBlock),
		State:     string(vpc.State),
		IsDefault: aws.ToBool(vpc.IsDefault),
		Tags:      tagMap(vpc.Tags),
	}
}

// listSubnets inventories subnets, optionally narrowed to one VPC.
func listSubnets(ctx context.Context, api ec2.DescribeSubnetsAPIClient, region string, scope Scope) ([]types.Resource, error) {
	var resources []types.Resource

	input := &ec2.DescribeSubnetsInput{Filters: scope.vpcFilter("vpc-id")}
	paginator := ec2.NewDescribeSubnetsPaginator(api, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to describe subnets: %w", err)
		}
		for _, subnet := range page.Subnets {
			resources = append(resources, buildSubnetRecord(subnet, region))
		}
	}

	return resources, nil
}

func buildSubnetRecord(subnet ec2types.Subnet, region string) types.Resource {
	return types.Resource{
		ID:               aws.ToString(subnet.SubnetId),
		Name:             tagValue(subnet.Tags, "Name"),
		Type:             types.ResourceSubnet,
		Region:           region,
		VpcID:            aws.ToString(subnet.VpcId),
		CIDRBlock:        aws.ToString(subnet.CidrBlock),
		AvailabilityZone: aws.ToString(subnet.AvailabilityZone),
		State:            string(subnet.State),
		IsDefault:        aws.ToBool(subnet.DefaultForAz),
		Tags:             tagMap(subnet.Tags),
	}
}

// listAddresses inventories Elastic IPs. DescribeAddresses has no
// paginator; the API returns the full set in one call.
func listAddresses(ctx context.Context, api EC2AddressesAPI, region string) ([]types.Resource, error) {
	out, err := api.DescribeAddresses(ctx, &ec2.DescribeAddressesInput{})
	if err != nil {
		return nil, fmt.Errorf("failed to describe addresses: %w", err)
	}

	resources := make([]types.Resource, 0, len(out.Addresses))
	for _, addr := range out.Addresses {
		resources = append(resources, buildAddressRecord(addr, region))
	}
	return resources, nil
}

func buildAddressRecord(addr ec2types.Address, region string) types.Resource {
	name := tagValue(addr.Tags, "Name")
	if name == "" {
		name = aws.ToString(addr.PublicIp)
	}

	return types.Resource{
		ID:            aws.ToString(addr.AllocationId),
		Name:          name,
		Type:          types.ResourceElasticIP,
		Region:        region,
		PublicIP:      aws.ToString(addr.PublicIp),
		AssociationID: aws.ToString(addr.AssociationId),
		State:         string(addr.Domain),
		Tags:          tagMap(addr.Tags),
	}
}

// exemptSecurityGroups lists the default group of every VPC. AWS will
// not delete them and reporting them unused is noise.
func exemptSecurityGroups(ctx context.Context, api ec2.DescribeSecurityGroupsAPIClient) (types.EvidenceSet, error) {
	exempt := types.NewEvidenceSet()

	input := &ec2.DescribeSecurityGroupsInput{
		Filters: []ec2types.Filter{{
			Name:   aws.String("group-name"),
			Values: []string{"default"},
		}},
	}
	paginator := ec2.NewDescribeSecurityGroupsPaginator(api, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return exempt, fmt.Errorf("failed to list default security groups: %w", err)
		}
		for _, sg := range page.SecurityGroups {
			exempt.Add(aws.ToString(sg.GroupId))
		}
	}

	return exempt, nil
}

// exemptVpcs lists default VPCs.
func exemptVpcs(ctx context.Context, api ec2.DescribeVpcsAPIClient) (types.EvidenceSet, error) {
	exempt := types.NewEvidenceSet()

	input := &ec2.DescribeVpcsInput{
		Filters: []ec2types.Filter{{
			Name:   aws.String("is-default"),
			Values: []string{"true"},
		}},
	}
	paginator := ec2.NewDescribeVpcsPaginator(api, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return exempt, fmt.Errorf("failed to list default vpcs: %w", err)
		}
		for _, vpc := range page.Vpcs {
			exempt.Add(aws.ToString(vpc.VpcId))
		}
	}

	return exempt, nil
}

// exemptSubnets lists default-for-AZ subnets.
func exemptSubnets(ctx context.Context, api ec2.DescribeSubnetsAPIClient, scope Scope) (types.EvidenceSet, error) {
	exempt := types.NewEvidenceSet()

	filters := []ec2types.Filter{{
		Name:   aws.String("default-for-az"),
		Values: []string{"true"},
	}}
	filters = append(filters, scope.vpcFilter("vpc-id")...)

	paginator := ec2.NewDescribeSubnetsPaginator(api, &ec2.DescribeSubnetsInput{Filters: filters})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return exempt, fmt.Errorf("failed to list default subnets: %w", err)
		}
		for _, subnet := range page.Subnets {
			exempt.Add(aws.ToString(subnet.SubnetId))
		}
	}

	return exempt, nil
}
