package backup

import (
	"context"
	"fmt"
	"time"

	"github.com/younsl/ebs-autobackup/internal/models"
)

type createTagsCall struct {
	resourceID string
	tags       models.Tags
}

type createSnapshotCall struct {
	volumeID    string
	description string
}

// fakeProvider is an in-memory Provider. Tags of every resource, snapshots
// included, live in tags; snapshots carry no tags of their own.
type fakeProvider struct {
	now       time.Time
	volumes   []models.Volume
	tags      map[string]models.Tags
	snapshots map[string][]models.Snapshot

	listVolumesErr    error
	getTagsErr        map[string]error
	createSnapshotErr map[string]error
	listSnapshotsErr  error
	deleteErr         map[string]error

	getTagsCalls    []string
	createTagsCalls []createTagsCall
	createdCalls    []createSnapshotCall
	deleted         []string
	nextSnapshot    int
}

func newFakeProvider(now time.Time) *fakeProvider {
	return &fakeProvider{
		now:               now,
		tags:              make(map[string]models.Tags),
		snapshots:         make(map[string][]models.Snapshot),
		getTagsErr:        make(map[string]error),
		createSnapshotErr: make(map[string]error),
		deleteErr:         make(map[string]error),
	}
}

func (f *fakeProvider) addSnapshot(volumeID, snapshotID string, started time.Time, tags models.Tags) {
	f.snapshots[volumeID] = append(f.snapshots[volumeID], models.Snapshot{
		SnapshotID:  snapshotID,
		VolumeID:    volumeID,
		StartTime:   started,
		Description: "old_backup_" + snapshotID,
	})
	if tags != nil {
		f.tags[snapshotID] = tags
	}
}

func (f *fakeProvider) ListVolumes(_ context.Context) ([]models.Volume, error) {
	if f.listVolumesErr != nil {
		return nil, f.listVolumesErr
	}
	volumes := make([]models.Volume, 0, len(f.volumes))
	for _, v := range f.volumes {
		v.Tags = copyTags(f.tags[v.VolumeID])
		volumes = append(volumes, v)
	}
	return volumes, nil
}

func (f *fakeProvider) GetTags(_ context.Context, resourceID string) (models.Tags, error) {
	f.getTagsCalls = append(f.getTagsCalls, resourceID)
	if err := f.getTagsErr[resourceID]; err != nil {
		return nil, err
	}
	return copyTags(f.tags[resourceID]), nil
}

func (f *fakeProvider) CreateTags(_ context.Context, resourceID string, tags models.Tags) error {
	f.createTagsCalls = append(f.createTagsCalls, createTagsCall{resourceID: resourceID, tags: copyTags(tags)})
	if f.tags[resourceID] == nil {
		f.tags[resourceID] = make(models.Tags)
	}
	for k, v := range tags {
		f.tags[resourceID][k] = v
	}
	return nil
}

func (f *fakeProvider) CreateSnapshot(_ context.Context, volumeID, description string) (models.Snapshot, error) {
	f.createdCalls = append(f.createdCalls, createSnapshotCall{volumeID: volumeID, description: description})
	if err := f.createSnapshotErr[volumeID]; err != nil {
		return models.Snapshot{}, err
	}
	f.nextSnapshot++
	snapshot := models.Snapshot{
		SnapshotID:  fmt.Sprintf("snap-new%d", f.nextSnapshot),
		VolumeID:    volumeID,
		StartTime:   f.now,
		Description: description,
	}
	f.snapshots[volumeID] = append(f.snapshots[volumeID], snapshot)
	return snapshot, nil
}

func (f *fakeProvider) ListSnapshots(_ context.Context, volumeID string) ([]models.Snapshot, error) {
	if f.listSnapshotsErr != nil {
		return nil, f.listSnapshotsErr
	}
	var snapshots []models.Snapshot
	for _, s := range f.snapshots[volumeID] {
		s.Tags = copyTags(f.tags[s.SnapshotID])
		snapshots = append(snapshots, s)
	}
	return snapshots, nil
}

func (f *fakeProvider) DeleteSnapshot(_ context.Context, snapshotID string) error {
	if err := f.deleteErr[snapshotID]; err != nil {
		return err
	}
	f.deleted = append(f.deleted, snapshotID)
	for volumeID, snapshots := range f.snapshots {
		kept := snapshots[:0]
		for _, s := range snapshots {
			if s.SnapshotID != snapshotID {
				kept = append(kept, s)
			}
		}
		f.snapshots[volumeID] = kept
	}
	delete(f.tags, snapshotID)
	return nil
}

func copyTags(tags models.Tags) models.Tags {
	if tags == nil {
		return models.Tags{}
	}
	out := make(models.Tags, len(tags))
	for k, v := range tags {
		out[k] = v
	}
	return out
}
