package utils

import (
	"regexp"
	"strings"
)

// regionPattern matches region codes such as "us-east-1", "ap-southeast-7"
// or "us-gov-west-1". Whether the region exists is left to the AWS API.
var regionPattern = regexp.MustCompile(`^[a-z]{2}(-[a-z]+)+-\d+$`)

// IsValidRegion checks if a region code is well formed
func IsValidRegion(region string) bool {
	return regionPattern.MatchString(region)
}

// RegionFromAvailabilityZone strips the trailing zone letter, e.g. "eu-west-1a" -> "eu-west-1"
func RegionFromAvailabilityZone(az string) string {
	az = strings.TrimSpace(az)
	if len(az) < 2 {
		return ""
	}
	return az[:len(az)-1]
}
