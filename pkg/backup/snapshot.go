package backup

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/younsl/ebs-autobackup/internal/models"
	"github.com/younsl/ebs-autobackup/pkg/utils"
)

// SnapshotCreator snapshots volumes and stamps them with a retention policy
type SnapshotCreator struct {
	provider interface {
		SnapshotProvider
		TagProvider
	}
	log logrus.FieldLogger
}

// NewSnapshotCreator creates a SnapshotCreator
func NewSnapshotCreator(provider Provider, log logrus.FieldLogger) *SnapshotCreator {
	return &SnapshotCreator{
		provider: provider,
		log:      log,
	}
}

// SnapshotDescription returns "<instanceName>_backup_<YYYY-MM-DD-HHMM>"
func SnapshotDescription(instanceName string, runStarted time.Time) string {
	return fmt.Sprintf("%s_backup_%s", instanceName, utils.FormatBackupTimestamp(runStarted))
}

// Create snapshots a volume and tags the new snapshot with the AutoBackup policy
func (c *SnapshotCreator) Create(ctx context.Context, volumeID, volumeName, instanceName string, policy models.RetentionPolicy, runStarted time.Time) (models.Snapshot, error) {
	snapshot, err := c.provider.CreateSnapshot(ctx, volumeID, SnapshotDescription(instanceName, runStarted))
	if err != nil {
		return models.Snapshot{}, err
	}

	policyTag := models.Tags{AutoBackupTagKey: FormatPolicy(policy)}
	if err := c.provider.CreateTags(ctx, snapshot.SnapshotID, policyTag); err != nil {
		return snapshot, fmt.Errorf("snapshot %s created but not tagged: %w", snapshot.SnapshotID, err)
	}
	if snapshot.Tags == nil {
		snapshot.Tags = make(models.Tags)
	}
	snapshot.Tags[AutoBackupTagKey] = policyTag[AutoBackupTagKey]

	c.log.WithFields(logrus.Fields{
		"volume":   volumeID,
		"snapshot": snapshot.SnapshotID,
	}).Infof("Created snapshot %s for volume %s", snapshot.SnapshotID, volumeName)

	return snapshot, nil
}
