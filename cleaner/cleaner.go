// Package cleaner deletes unused network resources one at a time.
// Every attempt produces an outcome; errors are recorded, never
// re-thrown, so a failing resource does not stop the batch.
package cleaner

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"go.opentelemetry.io/otel/attribute"

	"github.com/netprune/netprune/telemetry"
	"github.com/netprune/netprune/types"
)

// EC2DeleteAPI covers the four delete calls the cleaner issues.
type EC2DeleteAPI interface {
	DeleteSecurityGroup(ctx context.Context, params *ec2.DeleteSecurityGroupInput, optFns ...func(*ec2.Options)) (*ec2.DeleteSecurityGroupOutput, error)
	DeleteVpc(ctx context.Context, params *ec2.DeleteVpcInput, optFns ...func(*ec2.Options)) (*ec2.DeleteVpcOutput, error)
	DeleteSubnet(ctx context.Context, params *ec2.DeleteSubnetInput, optFns ...func(*ec2.Options)) (*ec2.DeleteSubnetOutput, error)
	ReleaseAddress(ctx context.Context, params *ec2.ReleaseAddressInput, optFns ...func(*ec2.Options)) (*ec2.ReleaseAddressOutput, error)
}

var _ EC2DeleteAPI = (*ec2.Client)(nil)

// ConfirmFunc approves one deletion before its call is issued. A false
// return or a panic skips that resource; the rest of the batch
// proceeds.
type ConfirmFunc func(res types.Resource) bool

// ProgressFunc receives each outcome as it lands.
type ProgressFunc func(outcome types.DeleteOutcome)

// Cleaner deletes resources in one region.
type Cleaner struct {
	api     EC2DeleteAPI
	region  string
	logger  *telemetry.Logger
	metrics *telemetry.ScanMetrics
}

// Option configures a Cleaner.
type Option func(*Cleaner)

// WithLogger sets the logger.
func WithLogger(logger *telemetry.Logger) Option {
	return func(c *Cleaner) { c.logger = logger }
}

// WithMetrics sets the delete metrics.
func WithMetrics(metrics *telemetry.ScanMetrics) Option {
	return func(c *Cleaner) { c.metrics = metrics }
}

// New builds a cleaner for one region.
func New(api EC2DeleteAPI, region string, opts ...Option) *Cleaner {
	c := &Cleaner{api: api, region: region}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CanDelete reports whether the resource is safe to delete, with the
// reason when it is not. AWS would reject most of these anyway; the
// guard keeps the protected set out of delete calls entirely.
func CanDelete(res types.Resource) (bool, string) {
	switch res.Type {
	case types.ResourceSecurityGroup:
		if res.IsDefault || res.Name == "default" {
			return false, "default security groups cannot be deleted"
		}
	case types.ResourceVPC:
		if res.IsDefault {
			return false, "default vpcs are not deleted"
		}
	case types.ResourceSubnet:
		if res.IsDefault {
			return false, "default subnets are not deleted"
		}
	case types.ResourceElasticIP:
		if res.AssociationID != "" {
			return false, "elastic ip is still associated"
		}
	default:
		return false, fmt.Sprintf("unsupported resource type %q", res.Type)
	}
	return true, ""
}

// DeleteOne attempts a single deletion. The guard is checked before
// anything else; dry runs simulate without a remote call; real
// failures come back as a Failed outcome with a translated message.
func (c *Cleaner) DeleteOne(ctx context.Context, res types.Resource, dryRun bool) types.DeleteOutcome {
	outcome := types.DeleteOutcome{
		ResourceID:   res.ID,
		ResourceName: res.DisplayName(),
		Region:       c.region,
		Timestamp:    time.Now().UTC(),
	}

	if ok, reason := CanDelete(res); !ok {
		outcome.Status = types.DeleteSkipped
		outcome.Error = reason
		c.record(ctx, res, outcome)
		return outcome
	}

	if dryRun {
		outcome.Status = types.DeleteSimulated
		c.record(ctx, res, outcome)
		return outcome
	}

	if err := c.deleteCall(ctx, res); err != nil {
		outcome.Status = types.DeleteFailed
		outcome.Error = translateDeleteError(err)
	} else {
		outcome.Status = types.DeleteSucceeded
	}

	c.record(ctx, res, outcome)
	return outcome
}

func (c *Cleaner) deleteCall(ctx context.Context, res types.Resource) error {
	switch res.Type {
	case types.ResourceSecurityGroup:
		_, err := c.api.DeleteSecurityGroup(ctx, &ec2.DeleteSecurityGroupInput{
			GroupId: aws.String(res.ID),
		})
		return err
	case types.ResourceVPC:
		_, err := c.api.DeleteVpc(ctx, &ec2.DeleteVpcInput{
			VpcId: aws.String(res.ID),
		})
		return err
	case types.ResourceSubnet:
		_, err := c.api.DeleteSubnet(ctx, &ec2.DeleteSubnetInput{
			SubnetId: aws.String(res.ID),
		})
		return err
	case types.ResourceElasticIP:
		_, err := c.api.ReleaseAddress(ctx, &ec2.ReleaseAddressInput{
			AllocationId: aws.String(res.ID),
		})
		return err
	}
	return fmt.Errorf("unsupported resource type %q", res.Type)
}

// DeleteBatch deletes items in input order, accumulating a streaming
// summary. Progress callback panics are recovered; the batch finishes
// regardless.
func (c *Cleaner) DeleteBatch(ctx context.Context, items []types.Resource, dryRun bool, onProgress ProgressFunc) *types.DeleteSummary {
	ctx, span := telemetry.Tracer.Start(ctx, "cleaner.DeleteBatch")
	defer span.End()
	span.SetAttributes(
		attribute.Int("batch_size", len(items)),
		attribute.Bool("dry_run", dryRun),
	)

	summary := types.NewDeleteSummary()
	for _, res := range items {
		outcome := c.DeleteOne(ctx, res, dryRun)
		summary.Add(outcome)
		notifyProgress(onProgress, outcome, c.logger)
	}
	summary.Complete()
	return summary
}

// DeleteWithConfirmation runs the confirmation hook per resource,
// deleting in input order. A declined resource becomes a Skipped
// outcome and its siblings still get their own prompt; nothing is
// deleted without an explicit yes for that resource.
func (c *Cleaner) DeleteWithConfirmation(ctx context.Context, items []types.Resource, confirm ConfirmFunc, dryRun bool, onProgress ProgressFunc) *types.DeleteSummary {
	ctx, span := telemetry.Tracer.Start(ctx, "cleaner.DeleteWithConfirmation")
	defer span.End()
	span.SetAttributes(
		attribute.Int("batch_size", len(items)),
		attribute.Bool("dry_run", dryRun),
	)

	summary := types.NewDeleteSummary()
	for _, res := range items {
		var outcome types.DeleteOutcome
		if confirmed(confirm, res) {
			outcome = c.DeleteOne(ctx, res, dryRun)
		} else {
			outcome = types.DeleteOutcome{
				ResourceID:   res.ID,
				ResourceName: res.DisplayName(),
				Region:       c.region,
				Status:       types.DeleteSkipped,
				Error:        "deletion not confirmed",
				Timestamp:    time.Now().UTC(),
			}
			c.record(ctx, res, outcome)
		}
		summary.Add(outcome)
		notifyProgress(onProgress, outcome, c.logger)
	}
	summary.Complete()
	return summary
}

// confirmed treats a panicking confirmation hook as a no.
func confirmed(confirm ConfirmFunc, res types.Resource) (ok bool) {
	if confirm == nil {
		return false
	}
	defer func() {
		if r := recover(); r != nil {
			ok = false
		}
	}()
	return confirm(res)
}

func notifyProgress(onProgress ProgressFunc, outcome types.DeleteOutcome, logger *telemetry.Logger) {
	if onProgress == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil && logger != nil {
			logger.Warn().
				Str("resource_id", outcome.ResourceID).
				Interface("panic", r).
				Msg("delete progress callback panicked")
		}
	}()
	onProgress(outcome)
}

func (c *Cleaner) record(ctx context.Context, res types.Resource, outcome types.DeleteOutcome) {
	if c.logger != nil {
		c.logger.LogDeleteOutcome(ctx, outcome.ResourceID, c.region, string(outcome.Status), outcome.Error)
	}
	if c.metrics != nil {
		c.metrics.RecordDeleteAttempt(ctx, string(res.Type), c.region, string(outcome.Status))
	}
}
