package models

// AttachmentStateAttached is the EC2 attachment state of an in-use volume
const AttachmentStateAttached = "attached"

// Tags maps tag keys to values on a volume, instance or snapshot
type Tags map[string]string

// Name returns the value of the Name tag and whether it is set
func (t Tags) Name() (string, bool) {
	name, ok := t["Name"]
	return name, ok
}

// Volume represents an EBS volume and its first attachment
type Volume struct {
	VolumeID        string
	AttachmentState string // "attached", "attaching", "detaching", ... or empty when unattached
	InstanceID      string
	Device          string // e.g. /dev/sda1
	Tags            Tags
}

// IsAttached reports whether the volume is currently attached to an instance
func (v Volume) IsAttached() bool {
	return v.AttachmentState == AttachmentStateAttached
}

// Instance represents the EC2 instance a volume is attached to
type Instance struct {
	InstanceID string
	Tags       Tags
}
