package backup

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/younsl/ebs-autobackup/internal/models"
)

const (
	// AutoBackupTagKey is the snapshot tag holding the retention policy
	AutoBackupTagKey = "AutoBackup"

	// DefaultRetentionDays applies when RetentionPeriodDays is missing or malformed
	DefaultRetentionDays = 7

	policyTypeKey          = "Type"
	policyRetentionDaysKey = "RetentionPeriodDays"
	policyPairSeparator    = "|"
	policyKeyValueSep      = "="
)

// retentionDaysPattern finds the day count anywhere in the value, so
// "RetentionPeriodDays=30d" and space separated pairs still yield 30
var retentionDaysPattern = regexp.MustCompile(policyRetentionDaysKey + policyKeyValueSep + `(\d+)`)

// FormatPolicy encodes a policy as "Type=<label>|RetentionPeriodDays=<n>"
func FormatPolicy(policy models.RetentionPolicy) string {
	return fmt.Sprintf("%s=%s%s%s=%d",
		policyTypeKey, policy.BackupType,
		policyPairSeparator,
		policyRetentionDaysKey, policy.RetentionDays)
}

// ParsePolicy decodes an AutoBackup tag value. Type comes from the
// |-separated Key=Value pairs. RetentionDays is the first run of digits after
// "RetentionPeriodDays=" and falls back to DefaultRetentionDays when there is
// none or it is zero.
func ParsePolicy(value string) models.RetentionPolicy {
	policy := models.RetentionPolicy{RetentionDays: DefaultRetentionDays}

	for _, pair := range strings.Split(value, policyPairSeparator) {
		key, val, ok := strings.Cut(pair, policyKeyValueSep)
		if ok && strings.TrimSpace(key) == policyTypeKey {
			policy.BackupType = val
			break
		}
	}

	if m := retentionDaysPattern.FindStringSubmatch(value); m != nil {
		if days, err := strconv.Atoi(m[1]); err == nil && days > 0 {
			policy.RetentionDays = days
		}
	}

	return policy
}
