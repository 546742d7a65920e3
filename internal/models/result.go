package models

// VolumeResult is the outcome of processing a single volume in one run
type VolumeResult struct {
	Region           string
	VolumeID         string
	Name             string
	SkipReason       string // empty when the volume was backed up
	SnapshotID       string
	DeletedSnapshots []string
	FailedDeletes    []string
	Err              error
}

// Skipped reports whether the volume was excluded from backup
func (r VolumeResult) Skipped() bool {
	return r.SkipReason != ""
}

// RegionResult is the outcome of processing all volumes in one region
type RegionResult struct {
	Region  string
	Volumes []VolumeResult
	Err     error // set when the region's volumes could not be listed
}

// Failed reports whether the region or any of its volumes failed
func (r RegionResult) Failed() bool {
	if r.Err != nil {
		return true
	}
	for _, v := range r.Volumes {
		if v.Err != nil {
			return true
		}
	}
	return false
}

// Counts returns created, deleted, failed-delete and failed-volume totals
func (r RegionResult) Counts() (created, deleted, deleteFailures, volumesFailed int) {
	for _, v := range r.Volumes {
		if v.SnapshotID != "" {
			created++
		}
		deleted += len(v.DeletedSnapshots)
		deleteFailures += len(v.FailedDeletes)
		if v.Err != nil {
			volumesFailed++
		}
	}
	return created, deleted, deleteFailures, volumesFailed
}
