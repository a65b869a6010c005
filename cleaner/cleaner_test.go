package cleaner

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/netprune/netprune/types"
)

// fakeDeleteAPI records delete calls and returns configured errors.
type fakeDeleteAPI struct {
	deletedGroups  []string
	deletedVpcs    []string
	deletedSubnets []string
	released       []string
	errByID        map[string]error
}

func (f *fakeDeleteAPI) DeleteSecurityGroup(ctx context.Context, params *ec2.DeleteSecurityGroupInput, optFns ...func(*ec2.Options)) (*ec2.DeleteSecurityGroupOutput, error) {
	id := aws.ToString(params.GroupId)
	if err := f.errByID[id]; err != nil {
		return nil, err
	}
	f.deletedGroups = append(f.deletedGroups, id)
	return &ec2.DeleteSecurityGroupOutput{}, nil
}

func (f *fakeDeleteAPI) DeleteVpc(ctx context.Context, params *ec2.DeleteVpcInput, optFns ...func(*ec2.Options)) (*ec2.DeleteVpcOutput, error) {
	id := aws.ToString(params.VpcId)
	if err := f.errByID[id]; err != nil {
		return nil, err
	}
	f.deletedVpcs = append(f.deletedVpcs, id)
	return &ec2.DeleteVpcOutput{}, nil
}

func (f *fakeDeleteAPI) DeleteSubnet(ctx context.Context, params *ec2.DeleteSubnetInput, optFns ...func(*ec2.Options)) (*ec2.DeleteSubnetOutput, error) {
	id := aws.ToString(params.SubnetId)
	if err := f.errByID[id]; err != nil {
		return nil, err
	}
	f.deletedSubnets = append(f.deletedSubnets, id)
	return &ec2.DeleteSubnetOutput{}, nil
}

func (f *fakeDeleteAPI) ReleaseAddress(ctx context.Context, params *ec2.ReleaseAddressInput, optFns ...func(*ec2.Options)) (*ec2.ReleaseAddressOutput, error) {
	id := aws.ToString(params.AllocationId)
	if err := f.errByID[id]; err != nil {
		return nil, err
	}
	f.released = append(f.released, id)
	return &ec2.ReleaseAddressOutput{}, nil
}

func (f *fakeDeleteAPI) callCount() int {
	return len(f.deletedGroups) + len(f.deletedVpcs) + len(f.deletedSubnets) + len(f.released)
}

func TestCanDelete(t *testing.T) {
	tests := []struct {
		name     string
		resource types.Resource
		want     bool
	}{
		{"plain security group", types.Resource{ID: "sg-1", Type: types.ResourceSecurityGroup}, true},
		{"default security group", types.Resource{ID: "sg-2", Type: types.ResourceSecurityGroup, IsDefault: true}, false},
		{"group named default", types.Resource{ID: "sg-3", Type: types.ResourceSecurityGroup, Name: "default"}, false},
		{"plain vpc", types.Resource{ID: "vpc-1", Type: types.ResourceVPC}, true},
		{"default vpc", types.Resource{ID: "vpc-2", Type: types.ResourceVPC, IsDefault: true}, false},
		{"default subnet", types.Resource{ID: "subnet-1", Type: types.ResourceSubnet, IsDefault: true}, false},
		{"unassociated eip", types.Resource{ID: "eipalloc-1", Type: types.ResourceElasticIP}, true},
		{"associated eip", types.Resource{ID: "eipalloc-2", Type: types.ResourceElasticIP, AssociationID: "eipassoc-1"}, false},
		{"unknown type", types.Resource{ID: "x", Type: types.ResourceType("nat")}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, reason := CanDelete(tt.resource)
			assert.Equal(t, tt.want, ok)
			if !ok {
				assert.NotEmpty(t, reason)
			}
		})
	}
}

func TestDeleteOneSucceeds(t *testing.T) {
	api := &fakeDeleteAPI{}
	c := New(api, "us-east-1")

	outcome := c.DeleteOne(context.Background(),
		types.Resource{ID: "sg-1", Name: "old-sg", Type: types.ResourceSecurityGroup}, false)

	assert.Equal(t, types.DeleteSucceeded, outcome.Status)
	assert.Empty(t, outcome.Error)
	assert.Equal(t, "us-east-1", outcome.Region)
	assert.Equal(t, []string{"sg-1"}, api.deletedGroups)
}

func TestDeleteOneDryRunIssuesNoCall(t *testing.T) {
	api := &fakeDeleteAPI{}
	c := New(api, "us-east-1")

	outcome := c.DeleteOne(context.Background(),
		types.Resource{ID: "vpc-1", Type: types.ResourceVPC}, true)

	assert.Equal(t, types.DeleteSimulated, outcome.Status)
	assert.Zero(t, api.callCount())
}

func TestDeleteOneGuardWinsOverDryRun(t *testing.T) {
	api := &fakeDeleteAPI{}
	c := New(api, "us-east-1")

	outcome := c.DeleteOne(context.Background(),
		types.Resource{ID: "vpc-1", Type: types.ResourceVPC, IsDefault: true}, true)

	assert.Equal(t, types.DeleteSkipped, outcome.Status)
	assert.Contains(t, outcome.Error, "default")
	assert.Zero(t, api.callCount())
}

func TestDeleteOneTranslatesAPIErrors(t *testing.T) {
	tests := []struct {
		name     string
		code     string
		rawMsg   string
		expected string
	}{
		{
			name:     "dependency violation",
			code:     "DependencyViolation",
			rawMsg:   "resource sg-1 has a dependent object",
			expected: "resource has a dependent object and cannot be deleted",
		},
		{
			name:     "already gone",
			code:     "InvalidGroup.NotFound",
			rawMsg:   "The security group 'sg-1' does not exist",
			expected: "security group no longer exists",
		},
		{
			name:     "unknown code falls back to raw message",
			code:     "Throttling",
			rawMsg:   "Rate exceeded",
			expected: "Rate exceeded",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := &fakeDeleteAPI{
				errByID: map[string]error{
					"sg-1": &smithy.GenericAPIError{Code: tt.code, Message: tt.rawMsg},
				},
			}
			c := New(api, "us-east-1")

			outcome := c.DeleteOne(context.Background(),
				types.Resource{ID: "sg-1", Type: types.ResourceSecurityGroup}, false)

			assert.Equal(t, types.DeleteFailed, outcome.Status)
			assert.Equal(t, tt.expected, outcome.Error)
		})
	}
}

func TestDeleteOneNonAPIError(t *testing.T) {
	api := &fakeDeleteAPI{
		errByID: map[string]error{"subnet-1": errors.New("connection reset")},
	}
	c := New(api, "us-east-1")

	outcome := c.DeleteOne(context.Background(),
		types.Resource{ID: "subnet-1", Type: types.ResourceSubnet}, false)

	assert.Equal(t, types.DeleteFailed, outcome.Status)
	assert.Equal(t, "connection reset", outcome.Error)
}

func TestDeleteBatchKeepsOrderAndCounts(t *testing.T) {
	api := &fakeDeleteAPI{
		errByID: map[string]error{
			"sg-2": &smithy.GenericAPIError{Code: "DependencyViolation"},
		},
	}
	c := New(api, "us-east-1")

	items := []types.Resource{
		{ID: "sg-1", Type: types.ResourceSecurityGroup},
		{ID: "sg-2", Type: types.ResourceSecurityGroup},
		{ID: "sg-3", Type: types.ResourceSecurityGroup, IsDefault: true},
		{ID: "sg-4", Type: types.ResourceSecurityGroup},
	}

	var seen []string
	summary := c.DeleteBatch(context.Background(), items, false, func(outcome types.DeleteOutcome) {
		seen = append(seen, outcome.ResourceID)
	})

	assert.Equal(t, 4, summary.Total)
	assert.Equal(t, 2, summary.Deleted)
	assert.Equal(t, 1, summary.Failed)
	assert.Equal(t, 1, summary.Skipped)
	assert.Equal(t, summary.Total, summary.Deleted+summary.Failed+summary.Skipped+summary.Simulated)
	assert.Equal(t, []string{"sg-1", "sg-2", "sg-3", "sg-4"}, seen)
	assert.False(t, summary.EndTime.IsZero())
	// the failed delete did not stop later ones
	assert.Equal(t, []string{"sg-1", "sg-4"}, api.deletedGroups)
}

func TestDeleteBatchDryRunIdempotent(t *testing.T) {
	api := &fakeDeleteAPI{}
	c := New(api, "us-east-1")

	items := []types.Resource{
		{ID: "eipalloc-1", Type: types.ResourceElasticIP},
		{ID: "eipalloc-2", Type: types.ResourceElasticIP},
	}

	first := c.DeleteBatch(context.Background(), items, true, nil)
	second := c.DeleteBatch(context.Background(), items, true, nil)

	assert.Equal(t, 2, first.Simulated)
	assert.Equal(t, 2, second.Simulated)
	assert.Zero(t, api.callCount())
}

func TestDeleteBatchRecoversProgressPanic(t *testing.T) {
	api := &fakeDeleteAPI{}
	c := New(api, "us-east-1")

	items := []types.Resource{
		{ID: "sg-1", Type: types.ResourceSecurityGroup},
		{ID: "sg-2", Type: types.ResourceSecurityGroup},
	}

	summary := c.DeleteBatch(context.Background(), items, false, func(outcome types.DeleteOutcome) {
		panic("progress bar broke")
	})

	assert.Equal(t, 2, summary.Deleted)
	assert.Len(t, api.deletedGroups, 2)
}

func TestDeleteWithConfirmation(t *testing.T) {
	items := []types.Resource{
		{ID: "sg-1", Type: types.ResourceSecurityGroup},
		{ID: "sg-2", Type: types.ResourceSecurityGroup},
	}

	t.Run("all confirmed", func(t *testing.T) {
		api := &fakeDeleteAPI{}
		c := New(api, "us-east-1")

		summary := c.DeleteWithConfirmation(context.Background(), items,
			func(types.Resource) bool { return true }, false, nil)

		assert.Equal(t, 2, summary.Deleted)
		assert.Equal(t, []string{"sg-1", "sg-2"}, api.deletedGroups)
	})

	t.Run("all declined", func(t *testing.T) {
		api := &fakeDeleteAPI{}
		c := New(api, "us-east-1")

		summary := c.DeleteWithConfirmation(context.Background(), items,
			func(types.Resource) bool { return false }, false, nil)

		assert.Equal(t, 2, summary.Skipped)
		assert.Zero(t, api.callCount())
		for _, outcome := range summary.Outcomes {
			assert.Equal(t, "deletion not confirmed", outcome.Error)
		}
	})

	t.Run("declined resource skipped, approved sibling deleted", func(t *testing.T) {
		api := &fakeDeleteAPI{}
		c := New(api, "us-east-1")

		summary := c.DeleteWithConfirmation(context.Background(), items,
			func(res types.Resource) bool { return res.ID != "sg-1" }, false, nil)

		require.Len(t, summary.Outcomes, 2)
		assert.Equal(t, types.DeleteSkipped, summary.Outcomes[0].Status)
		assert.Equal(t, "deletion not confirmed", summary.Outcomes[0].Error)
		assert.Equal(t, types.DeleteSucceeded, summary.Outcomes[1].Status)
		assert.Equal(t, 1, summary.Skipped)
		assert.Equal(t, 1, summary.Deleted)
		assert.Equal(t, []string{"sg-2"}, api.deletedGroups)
	})

	t.Run("confirmation panic fails safe", func(t *testing.T) {
		api := &fakeDeleteAPI{}
		c := New(api, "us-east-1")

		summary := c.DeleteWithConfirmation(context.Background(), items,
			func(types.Resource) bool { panic("tty gone") }, false, nil)

		assert.Equal(t, 2, summary.Skipped)
		assert.Zero(t, api.callCount())
	})

	t.Run("nil confirmation fails safe", func(t *testing.T) {
		api := &fakeDeleteAPI{}
		c := New(api, "us-east-1")

		summary := c.DeleteWithConfirmation(context.Background(), items, nil, false, nil)

		assert.Equal(t, 2, summary.Skipped)
		assert.Zero(t, api.callCount())
	})
}

func TestTranslateDeleteErrorEmptyAPIMessage(t *testing.T) {
	err := &smithy.GenericAPIError{Code: "SomethingOdd"}
	msg := translateDeleteError(err)
	require.NotEmpty(t, msg)
}
