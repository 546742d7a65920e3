package backup

import (
	"context"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/juju/clock"
	"github.com/sirupsen/logrus"
	"github.com/younsl/ebs-autobackup/pkg/aws"
	"github.com/younsl/ebs-autobackup/pkg/utils"
)

// ExpiryWindowDays is the age in days after which an AutoBackup snapshot is
// deleted. It is applied regardless of the RetentionPeriodDays in the tag
// unless the scanner is told to honor the tag.
const ExpiryWindowDays = 7

// PruneResult lists what a retention scan did for one volume
type PruneResult struct {
	Deleted []string
	Failed  []string
}

// RetentionScanner deletes expired AutoBackup snapshots of a volume
type RetentionScanner struct {
	provider          SnapshotProvider
	clock             clock.Clock
	honorRetentionTag bool
	log               logrus.FieldLogger
}

// NewRetentionScanner creates a RetentionScanner
func NewRetentionScanner(provider SnapshotProvider, clk clock.Clock, honorRetentionTag bool, log logrus.FieldLogger) *RetentionScanner {
	return &RetentionScanner{
		provider:          provider,
		clock:             clk,
		honorRetentionTag: honorRetentionTag,
		log:               log,
	}
}

// IsExpired reports whether a snapshot started on or before the date that
// lies windowDays before now. Times of day are ignored.
func IsExpired(startTime, now time.Time, windowDays int) bool {
	limit := utils.DaysBefore(now, windowDays)
	return !utils.DateOf(startTime).After(limit)
}

// Prune deletes the expired AutoBackup snapshots of a volume. Snapshots
// without an AutoBackup tag are never touched. A failed delete is logged and
// the scan moves on; only a failure to list snapshots is returned.
func (s *RetentionScanner) Prune(ctx context.Context, volumeID, volumeName string) (PruneResult, error) {
	var result PruneResult

	snapshots, err := s.provider.ListSnapshots(ctx, volumeID)
	if err != nil {
		return result, err
	}

	now := s.clock.Now()
	for _, snapshot := range snapshots {
		value, ok := utils.FilterReservedTags(snapshot.Tags)[AutoBackupTagKey]
		if !ok {
			continue
		}

		policy := ParsePolicy(value)
		window := ExpiryWindowDays
		if s.honorRetentionTag {
			window = policy.RetentionDays
		}
		if !IsExpired(snapshot.StartTime, now, window) {
			continue
		}

		entry := s.log.WithFields(logrus.Fields{
			"volume":         volumeID,
			"snapshot":       snapshot.SnapshotID,
			"retention_days": policy.RetentionDays,
			"age":            humanize.RelTime(snapshot.StartTime, now, "old", "in the future"),
		})

		if err := s.provider.DeleteSnapshot(ctx, snapshot.SnapshotID); err != nil {
			if code := aws.ErrorCode(err); code != "" {
				entry = entry.WithField("error_code", code)
			}
			entry.WithError(err).Warnf("Failed to delete snapshot %s for %s with RetentionPeriodDays=%d and description %s",
				snapshot.SnapshotID, volumeName, policy.RetentionDays, snapshot.Description)
			result.Failed = append(result.Failed, snapshot.SnapshotID)
			continue
		}

		entry.Infof("Deleted expired snapshot %s for %s with RetentionPeriodDays=%d and description %s",
			snapshot.SnapshotID, volumeName, policy.RetentionDays, snapshot.Description)
		result.Deleted = append(result.Deleted, snapshot.SnapshotID)
	}

	return result, nil
}
