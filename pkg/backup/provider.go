// Package backup implements the naming and retention reconciliation of
// EBS volume backups: it names attached volumes, snapshots them with an
// AutoBackup retention tag, and deletes snapshots whose window has passed.
package backup

import (
	"context"

	"github.com/younsl/ebs-autobackup/internal/models"
)

// TagProvider reads and writes resource tags
type TagProvider interface {
	GetTags(ctx context.Context, resourceID string) (models.Tags, error)
	CreateTags(ctx context.Context, resourceID string, tags models.Tags) error
}

// SnapshotProvider creates, lists and deletes volume snapshots
type SnapshotProvider interface {
	CreateSnapshot(ctx context.Context, volumeID, description string) (models.Snapshot, error)
	ListSnapshots(ctx context.Context, volumeID string) ([]models.Snapshot, error)
	DeleteSnapshot(ctx context.Context, snapshotID string) error
}

// Provider is everything a region run needs from the cloud provider.
// It is implemented by *aws.EC2Client.
type Provider interface {
	TagProvider
	SnapshotProvider
	ListVolumes(ctx context.Context) ([]models.Volume, error)
}
