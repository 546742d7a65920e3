package aws

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/aws/smithy-go"
	"github.com/younsl/ebs-autobackup/internal/models"
	"github.com/younsl/ebs-autobackup/pkg/utils"
)

// EC2API is the subset of the EC2 API used for volume backups
type EC2API interface {
	DescribeVolumes(context.Context, *ec2.DescribeVolumesInput, ...func(*ec2.Options)) (*ec2.DescribeVolumesOutput, error)
	DescribeTags(context.Context, *ec2.DescribeTagsInput, ...func(*ec2.Options)) (*ec2.DescribeTagsOutput, error)
	CreateTags(context.Context, *ec2.CreateTagsInput, ...func(*ec2.Options)) (*ec2.CreateTagsOutput, error)
	CreateSnapshot(context.Context, *ec2.CreateSnapshotInput, ...func(*ec2.Options)) (*ec2.CreateSnapshotOutput, error)
	DescribeSnapshots(context.Context, *ec2.DescribeSnapshotsInput, ...func(*ec2.Options)) (*ec2.DescribeSnapshotsOutput, error)
	DeleteSnapshot(context.Context, *ec2.DeleteSnapshotInput, ...func(*ec2.Options)) (*ec2.DeleteSnapshotOutput, error)
}

// EC2Client struct for EC2 client
type EC2Client struct {
	client EC2API
	region string
}

// LoadConfig loads the AWS config for a region. Every API call is attempted
// exactly once: the SDK retryer is replaced with a no-op one.
func LoadConfig(ctx context.Context, region string) (aws.Config, error) {
	cfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(region),
		config.WithRetryer(func() aws.Retryer { return aws.NopRetryer{} }),
	)
	if err != nil {
		return aws.Config{}, fmt.Errorf("error loading AWS config: %w", err)
	}
	return cfg, nil
}

// NewEC2Client creates a new EC2Client
func NewEC2Client(cfg aws.Config) *EC2Client {
	return &EC2Client{
		client: ec2.NewFromConfig(cfg),
		region: cfg.Region,
	}
}

// NewEC2ClientWithAPI creates an EC2Client around an existing API implementation
func NewEC2ClientWithAPI(api EC2API, region string) *EC2Client {
	return &EC2Client{
		client: api,
		region: region,
	}
}

// Region returns the region the client talks to
func (c *EC2Client) Region() string {
	return c.region
}

// ListVolumes returns every EBS volume in the region
func (c *EC2Client) ListVolumes(ctx context.Context) ([]models.Volume, error) {
	var volumes []models.Volume

	paginator := ec2.NewDescribeVolumesPaginator(c.client, &ec2.DescribeVolumesInput{})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("error querying EBS volumes in %s: %w", c.region, err)
		}

		for _, volume := range page.Volumes {
			volumes = append(volumes, toVolume(volume))
		}
	}

	return volumes, nil
}

// toVolume converts an EC2 volume, keeping only its first attachment
func toVolume(volume types.Volume) models.Volume {
	v := models.Volume{
		VolumeID: aws.ToString(volume.VolumeId),
		Tags:     utils.GetTagsMap(volume.Tags),
	}
	if len(volume.Attachments) > 0 {
		attachment := volume.Attachments[0]
		v.AttachmentState = string(attachment.State)
		v.InstanceID = aws.ToString(attachment.InstanceId)
		v.Device = aws.ToString(attachment.Device)
	}
	return v
}

// GetTags returns the tags on a resource, excluding reserved aws: keys
func (c *EC2Client) GetTags(ctx context.Context, resourceID string) (models.Tags, error) {
	input := &ec2.DescribeTagsInput{
		Filters: []types.Filter{
			{
				Name:   aws.String("resource-id"),
				Values: []string{resourceID},
			},
		},
	}

	tags := make(models.Tags)
	paginator := ec2.NewDescribeTagsPaginator(c.client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("error describing tags of %s: %w", resourceID, err)
		}
		for k, v := range utils.GetTagsMapFromDescriptions(page.Tags) {
			tags[k] = v
		}
	}

	return tags, nil
}

// CreateTags adds or overwrites tags on a resource
func (c *EC2Client) CreateTags(ctx context.Context, resourceID string, tags models.Tags) error {
	_, err := c.client.CreateTags(ctx, &ec2.CreateTagsInput{
		Resources: []string{resourceID},
		Tags:      utils.ConvertToEC2Tags(tags),
	})
	if err != nil {
		return fmt.Errorf("error tagging %s: %w", resourceID, err)
	}
	return nil
}

// CreateSnapshot starts a snapshot of a volume
func (c *EC2Client) CreateSnapshot(ctx context.Context, volumeID, description string) (models.Snapshot, error) {
	out, err := c.client.CreateSnapshot(ctx, &ec2.CreateSnapshotInput{
		VolumeId:    aws.String(volumeID),
		Description: aws.String(description),
	})
	if err != nil {
		return models.Snapshot{}, fmt.Errorf("error creating snapshot of %s: %w", volumeID, err)
	}

	return models.Snapshot{
		SnapshotID:  aws.ToString(out.SnapshotId),
		VolumeID:    aws.ToString(out.VolumeId),
		StartTime:   aws.ToTime(out.StartTime),
		Description: aws.ToString(out.Description),
		Tags:        utils.GetTagsMap(out.Tags),
	}, nil
}

// ListSnapshots returns the snapshots of a volume owned by this account
func (c *EC2Client) ListSnapshots(ctx context.Context, volumeID string) ([]models.Snapshot, error) {
	input := &ec2.DescribeSnapshotsInput{
		OwnerIds: []string{"self"},
		Filters: []types.Filter{
			{
				Name:   aws.String("volume-id"),
				Values: []string{volumeID},
			},
		},
	}

	var snapshots []models.Snapshot
	paginator := ec2.NewDescribeSnapshotsPaginator(c.client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("error querying snapshots of %s: %w", volumeID, err)
		}

		for _, snapshot := range page.Snapshots {
			snapshots = append(snapshots, models.Snapshot{
				SnapshotID:  aws.ToString(snapshot.SnapshotId),
				VolumeID:    aws.ToString(snapshot.VolumeId),
				StartTime:   aws.ToTime(snapshot.StartTime),
				Description: aws.ToString(snapshot.Description),
				Tags:        utils.GetTagsMap(snapshot.Tags),
			})
		}
	}

	return snapshots, nil
}

// DeleteSnapshot deletes a snapshot
func (c *EC2Client) DeleteSnapshot(ctx context.Context, snapshotID string) error {
	_, err := c.client.DeleteSnapshot(ctx, &ec2.DeleteSnapshotInput{
		SnapshotId: aws.String(snapshotID),
	})
	if err != nil {
		return fmt.Errorf("error deleting snapshot %s: %w", snapshotID, err)
	}
	return nil
}

// ErrorCode returns the AWS API error code wrapped in err, or "" if there is none
func ErrorCode(err error) string {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return apiErr.ErrorCode()
	}
	return ""
}
