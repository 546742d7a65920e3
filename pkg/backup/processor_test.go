package backup

import (
	"context"
	"errors"
	"testing"

	"github.com/juju/clock/testclock"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/younsl/ebs-autobackup/internal/models"
)

var dailyConfig = Config{BackupType: "daily", RetentionDays: 14}

func attached(volumeID, instanceID, device string) models.Volume {
	return models.Volume{
		VolumeID:        volumeID,
		AttachmentState: models.AttachmentStateAttached,
		InstanceID:      instanceID,
		Device:          device,
	}
}

func TestProcessRegionUnnamedVolumeOnUnnamedInstance(t *testing.T) {
	provider := newFakeProvider(today)
	provider.volumes = []models.Volume{attached("vol-1", "i-0abc", "/dev/xvdb")}
	log, _ := test.NewNullLogger()

	result := NewProcessor(dailyConfig, "eu-west-1", provider, testclock.NewClock(today), log).
		ProcessRegion(context.Background())

	require.NoError(t, result.Err)
	require.Len(t, result.Volumes, 1)
	volume := result.Volumes[0]
	assert.NoError(t, volume.Err)
	assert.Equal(t, "i-0abc-xvdb", volume.Name)
	assert.Equal(t, "snap-new1", volume.SnapshotID)

	assert.Equal(t, []createSnapshotCall{
		{volumeID: "vol-1", description: "i-0abc_backup_2026-10-19-1200"},
	}, provider.createdCalls)
	assert.Equal(t, models.Tags{AutoBackupTagKey: "Type=daily|RetentionPeriodDays=14"}, provider.tags["snap-new1"])

	// the ephemeral name is never written to the volume
	for _, call := range provider.createTagsCalls {
		assert.NotEqual(t, "vol-1", call.resourceID)
	}
}

func TestProcessRegionNamedSystemDisk(t *testing.T) {
	provider := newFakeProvider(today)
	provider.volumes = []models.Volume{attached("vol-1", "i-1", RootDevice)}
	provider.tags["i-1"] = models.Tags{"Name": "web", "aws:autoscaling:groupName": "web-asg"}
	log, hook := test.NewNullLogger()

	result := NewProcessor(dailyConfig, "eu-west-1", provider, testclock.NewClock(today), log).
		ProcessRegion(context.Background())

	require.Len(t, result.Volumes, 1)
	assert.Equal(t, "web-system", result.Volumes[0].Name)
	assert.Equal(t, "web-system", provider.tags["vol-1"]["Name"])
	assert.Equal(t, "web_backup_2026-10-19-1200", provider.createdCalls[0].description)

	var messages []string
	for _, entry := range hook.AllEntries() {
		messages = append(messages, entry.Message)
	}
	assert.Equal(t, []string{
		"Tagging vol-1 with [Name: web-system]",
		"Created snapshot snap-new1 for volume web-system",
	}, messages)
}

func TestProcessRegionSkipsIneligibleVolumes(t *testing.T) {
	provider := newFakeProvider(today)
	provider.volumes = []models.Volume{
		{VolumeID: "vol-detached"},
		attached("vol-swap", "i-1", "/dev/sdb"),
		attached("vol-other", "i-2", "/dev/sdf"),
		attached("vol-data", "i-1", "/dev/sdf"),
	}
	provider.tags["vol-swap"] = models.Tags{"Name": "web-swap"}
	provider.tags["i-1"] = models.Tags{"Name": "web"}
	// expired snapshots of skipped volumes are left alone
	provider.addSnapshot("vol-swap", "snap-swap-old", daysAgo(30), autoBackup("7"))
	log, _ := test.NewNullLogger()

	cfg := dailyConfig
	cfg.InstanceID = "i-1"
	result := NewProcessor(cfg, "eu-west-1", provider, testclock.NewClock(today), log).
		ProcessRegion(context.Background())

	require.Len(t, result.Volumes, 4)
	assert.Equal(t, SkipNotAttached, result.Volumes[0].SkipReason)
	assert.Equal(t, SkipSwap, result.Volumes[1].SkipReason)
	assert.Equal(t, "web-swap", result.Volumes[1].Name)
	assert.Equal(t, SkipOtherInstance, result.Volumes[2].SkipReason)
	assert.False(t, result.Volumes[3].Skipped())

	require.Len(t, provider.createdCalls, 1)
	assert.Equal(t, "vol-data", provider.createdCalls[0].volumeID)
	assert.Empty(t, provider.deleted)
	assert.NotContains(t, provider.getTagsCalls, "i-2")
}

func TestProcessRegionIsolatesVolumeFailures(t *testing.T) {
	provider := newFakeProvider(today)
	provider.volumes = []models.Volume{
		attached("vol-1", "i-1", "/dev/sdf"),
		attached("vol-2", "i-1", "/dev/sdg"),
		attached("vol-3", "i-3", "/dev/sdf"),
	}
	provider.createSnapshotErr["vol-1"] = errors.New("SnapshotCreationPerVolumeRateExceeded")
	provider.getTagsErr["i-3"] = errors.New("timeout")
	provider.addSnapshot("vol-1", "snap-1-old", daysAgo(30), autoBackup("7"))
	provider.addSnapshot("vol-2", "snap-2-old", daysAgo(30), autoBackup("7"))
	log, _ := test.NewNullLogger()

	result := NewProcessor(dailyConfig, "eu-west-1", provider, testclock.NewClock(today), log).
		ProcessRegion(context.Background())

	require.NoError(t, result.Err)
	require.Len(t, result.Volumes, 3)
	assert.EqualError(t, result.Volumes[0].Err, "SnapshotCreationPerVolumeRateExceeded")
	assert.NoError(t, result.Volumes[1].Err)
	assert.Equal(t, []string{"snap-2-old"}, result.Volumes[1].DeletedSnapshots)
	assert.EqualError(t, result.Volumes[2].Err, "timeout")

	// a volume whose snapshot failed is not pruned
	assert.Equal(t, []string{"snap-2-old"}, provider.deleted)
	assert.True(t, result.Failed())

	created, deleted, deleteFailures, volumesFailed := result.Counts()
	assert.Equal(t, 1, created)
	assert.Equal(t, 1, deleted)
	assert.Equal(t, 0, deleteFailures)
	assert.Equal(t, 2, volumesFailed)
}

func TestProcessRegionListVolumesFailure(t *testing.T) {
	provider := newFakeProvider(today)
	provider.listVolumesErr = errors.New("AuthFailure")
	log, _ := test.NewNullLogger()

	result := NewProcessor(dailyConfig, "eu-west-1", provider, testclock.NewClock(today), log).
		ProcessRegion(context.Background())

	assert.EqualError(t, result.Err, "AuthFailure")
	assert.Empty(t, result.Volumes)
	assert.Empty(t, provider.createdCalls)
}

func TestProcessRegionPrunesAfterCreating(t *testing.T) {
	provider := newFakeProvider(today)
	provider.volumes = []models.Volume{attached("vol-1", "i-1", "/dev/sdf")}
	provider.addSnapshot("vol-1", "snap-old", daysAgo(8), autoBackup("30"))
	provider.addSnapshot("vol-1", "snap-recent", daysAgo(2), autoBackup("30"))
	log, _ := test.NewNullLogger()

	result := NewProcessor(dailyConfig, "eu-west-1", provider, testclock.NewClock(today), log).
		ProcessRegion(context.Background())

	require.Len(t, result.Volumes, 1)
	assert.Equal(t, []string{"snap-old"}, result.Volumes[0].DeletedSnapshots)
	assert.Equal(t, []string{"snap-old"}, provider.deleted)
	require.Len(t, provider.snapshots["vol-1"], 2)
}

func TestConfigValidate(t *testing.T) {
	assert.NoError(t, dailyConfig.Validate())
	assert.Error(t, Config{RetentionDays: 7}.Validate())
	assert.Error(t, Config{BackupType: "daily"}.Validate())
	assert.Error(t, Config{BackupType: "daily", RetentionDays: -1}.Validate())
	assert.Error(t, Config{BackupType: "daily|x", RetentionDays: 7}.Validate())
	assert.Error(t, Config{BackupType: "Type=daily", RetentionDays: 7}.Validate())
	assert.NoError(t, Config{BackupType: "nightly db", RetentionDays: 7}.Validate())
}
