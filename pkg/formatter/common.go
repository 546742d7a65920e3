package formatter

import (
	"fmt"
	"io"
	"strings"
	"time"
)

// printTimestamp prints the run timestamp and duration
func printTimestamp(out io.Writer, runStarted time.Time, runDuration time.Duration) {
	timeStr := runStarted.Format("2006-01-02 15:04:05")
	durationStr := fmt.Sprintf("%.2fs", runDuration.Seconds())

	fmt.Fprintf(out, "Backup completed at %s (took %s)\n", timeStr, durationStr)
}

// truncateString shortens s to at most max display columns, marking the cut
// with "..." and never splitting a rune
func truncateString(s string, max int) string {
	if StringWidth(s) <= max {
		return s
	}

	limit, suffix := max-3, "..."
	if max <= 3 {
		limit, suffix = max, ""
	}

	var b strings.Builder
	width := 0
	for _, r := range s {
		rw := RuneWidth(r)
		if width+rw > limit {
			break
		}
		b.WriteRune(r)
		width += rw
	}
	return b.String() + suffix
}
