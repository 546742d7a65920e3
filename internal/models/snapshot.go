package models

import "time"

// Snapshot represents an EBS snapshot
type Snapshot struct {
	SnapshotID  string
	VolumeID    string
	StartTime   time.Time
	Description string
	Tags        Tags
}

// RetentionPolicy is the typed form of the AutoBackup tag value
type RetentionPolicy struct {
	BackupType    string
	RetentionDays int
}
