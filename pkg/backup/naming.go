package backup

import (
	"context"
	"strings"

	"github.com/younsl/ebs-autobackup/internal/models"
)

const (
	// RootDevice is the device path of an instance's system disk
	RootDevice = "/dev/sda1"

	systemVolumeSuffix = "-system"
	devicePrefix       = "/dev/"
)

// Resolution is the display name chosen for a volume
type Resolution struct {
	Name         string
	InstanceName string
	Persisted    bool // the name was written to the volume's Name tag in this call
}

// ResolveName picks the display name of an attached volume.
//
// An existing Name tag always wins. The root device of a named instance is
// its system disk, so that name is stored on the volume for future runs. Any
// other volume gets a name derived from the instance and device, which is
// recomputed every run because the attachment may change.
func ResolveName(ctx context.Context, tags *TagStore, volume models.Volume, instance models.Instance) (Resolution, error) {
	instanceName, instanceNamed := instance.Tags.Name()
	if !instanceNamed {
		instanceName = instance.InstanceID
	}

	res := Resolution{InstanceName: instanceName}

	if name, ok := volume.Tags.Name(); ok {
		res.Name = name
		return res, nil
	}

	switch {
	case instanceNamed && volume.Device == RootDevice:
		res.Name = instanceName + systemVolumeSuffix
		written, err := tags.Set(ctx, volume.VolumeID, models.Tags{"Name": res.Name})
		if err != nil {
			return res, err
		}
		res.Persisted = len(written) > 0
	default:
		res.Name = instanceName + deviceSuffix(volume.Device)
	}

	if res.Name == "" {
		res.Name = volume.VolumeID
	}
	return res, nil
}

// deviceSuffix turns a device path into a name suffix, e.g. "/dev/xvdb" -> "-xvdb"
func deviceSuffix(device string) string {
	trimmed := strings.Trim(strings.TrimPrefix(device, devicePrefix), "/")
	if trimmed == "" {
		return ""
	}
	return "-" + strings.ReplaceAll(trimmed, "/", "-")
}
