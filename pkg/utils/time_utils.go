package utils

import "time"

// BackupTimestampLayout is the layout used in snapshot descriptions (YYYY-MM-DD-HHMM)
const BackupTimestampLayout = "2006-01-02-1504"

// FormatBackupTimestamp formats the run start time for snapshot descriptions
func FormatBackupTimestamp(t time.Time) string {
	return t.Format(BackupTimestampLayout)
}

// DateOf truncates t to midnight UTC of its calendar day in UTC
func DateOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DaysBefore returns the UTC date that lies the given number of days before t
func DaysBefore(t time.Time, days int) time.Time {
	return DateOf(t).AddDate(0, 0, -days)
}
