package backup

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/juju/clock"
	"github.com/sirupsen/logrus"
	"github.com/younsl/ebs-autobackup/internal/models"
	"github.com/younsl/ebs-autobackup/pkg/aws"
)

// Reasons a volume is left out of a run
const (
	SkipNotAttached   = "not attached"
	SkipOtherInstance = "attached to another instance"
	SkipSwap          = "swap volume"
)

const swapSuffix = "-swap"

// Config is the run configuration shared by every region
type Config struct {
	BackupType        string
	RetentionDays     int
	InstanceID        string // only back up volumes of this instance when set
	HonorRetentionTag bool   // expire after the tag's RetentionPeriodDays instead of ExpiryWindowDays
}

// Validate checks the configuration before any provider call is made
func (c Config) Validate() error {
	if c.BackupType == "" {
		return fmt.Errorf("backup type must not be empty")
	}
	if strings.ContainsAny(c.BackupType, policyPairSeparator+policyKeyValueSep) {
		return fmt.Errorf("backup type %q must not contain %q or %q", c.BackupType, policyPairSeparator, policyKeyValueSep)
	}
	if c.RetentionDays <= 0 {
		return fmt.Errorf("retention days must be a positive integer, got %d", c.RetentionDays)
	}
	return nil
}

// Policy returns the retention policy stamped on new snapshots
func (c Config) Policy() models.RetentionPolicy {
	return models.RetentionPolicy{
		BackupType:    c.BackupType,
		RetentionDays: c.RetentionDays,
	}
}

// Processor backs up the volumes of one region, one volume at a time
type Processor struct {
	cfg      Config
	region   string
	provider Provider
	clock    clock.Clock
	log      logrus.FieldLogger

	tags     *TagStore
	creator  *SnapshotCreator
	retainer *RetentionScanner
}

// NewProcessor creates a Processor for the region served by provider
func NewProcessor(cfg Config, region string, provider Provider, clk clock.Clock, log logrus.FieldLogger) *Processor {
	log = log.WithField("region", region)
	return &Processor{
		cfg:      cfg,
		region:   region,
		provider: provider,
		clock:    clk,
		log:      log,
		tags:     NewTagStore(provider, log),
		creator:  NewSnapshotCreator(provider, log),
		retainer: NewRetentionScanner(provider, clk, cfg.HonorRetentionTag, log),
	}
}

// SkipReason returns why a volume is excluded before its name is known,
// or "" if it is eligible so far.
func SkipReason(volume models.Volume, instanceFilter string) string {
	if !volume.IsAttached() {
		return SkipNotAttached
	}
	if instanceFilter != "" && volume.InstanceID != instanceFilter {
		return SkipOtherInstance
	}
	return ""
}

// IsSwapName reports whether a resolved volume name marks a swap volume
func IsSwapName(name string) bool {
	return strings.HasSuffix(name, swapSuffix)
}

// ProcessRegion snapshots every eligible volume and prunes its expired
// snapshots. A failure on one volume is recorded and the next volume is
// processed; only a failure to list volumes stops the region.
func (p *Processor) ProcessRegion(ctx context.Context) models.RegionResult {
	result := models.RegionResult{Region: p.region}
	runStarted := p.clock.Now()

	volumes, err := p.provider.ListVolumes(ctx)
	if err != nil {
		result.Err = err
		p.log.WithError(err).Warn("Failed to list volumes")
		return result
	}

	for _, volume := range volumes {
		volumeResult := p.processVolume(ctx, volume, runStarted)
		if volumeResult.Err != nil {
			entry := p.log.WithField("volume", volume.VolumeID).WithError(volumeResult.Err)
			if code := aws.ErrorCode(volumeResult.Err); code != "" {
				entry = entry.WithField("error_code", code)
			}
			entry.Warnf("Failed to back up volume %s", volume.VolumeID)
		}
		result.Volumes = append(result.Volumes, volumeResult)
	}

	return result
}

func (p *Processor) processVolume(ctx context.Context, volume models.Volume, runStarted time.Time) models.VolumeResult {
	result := models.VolumeResult{
		Region:   p.region,
		VolumeID: volume.VolumeID,
	}
	log := p.log.WithField("volume", volume.VolumeID)

	if reason := SkipReason(volume, p.cfg.InstanceID); reason != "" {
		result.SkipReason = reason
		log.Debugf("Skipping volume %s: %s", volume.VolumeID, reason)
		return result
	}

	instanceTags, err := p.tags.Get(ctx, volume.InstanceID)
	if err != nil {
		result.Err = err
		return result
	}
	instance := models.Instance{InstanceID: volume.InstanceID, Tags: instanceTags}

	resolution, err := ResolveName(ctx, p.tags, volume, instance)
	result.Name = resolution.Name
	if err != nil {
		result.Err = err
		return result
	}

	if IsSwapName(resolution.Name) {
		result.SkipReason = SkipSwap
		log.Debugf("Skipping volume %s: %s", resolution.Name, SkipSwap)
		return result
	}

	snapshot, err := p.creator.Create(ctx, volume.VolumeID, resolution.Name, resolution.InstanceName, p.cfg.Policy(), runStarted)
	result.SnapshotID = snapshot.SnapshotID
	if err != nil {
		result.Err = err
		return result
	}

	pruned, err := p.retainer.Prune(ctx, volume.VolumeID, resolution.Name)
	result.DeletedSnapshots = pruned.Deleted
	result.FailedDeletes = pruned.Failed
	if err != nil {
		result.Err = err
	}
	return result
}
