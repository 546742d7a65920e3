package formatter

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/younsl/ebs-autobackup/internal/models"
)

// MAX_NAME_WIDTH defines the maximum width for Name column
const MAX_NAME_WIDTH = 30

// PrintRunTable prints one row per processed volume
func PrintRunTable(out io.Writer, results []models.RegionResult, runStarted time.Time, runDuration time.Duration) {
	w := tabwriter.NewWriter(out, 0, 8, 2, ' ', 0)

	fmt.Fprintln(w, "REGION\tVOLUME ID\tNAME\tSNAPSHOT\tDELETED\tSTATUS")

	rows := 0
	for _, region := range results {
		if region.Err != nil {
			fmt.Fprintf(w, "%s\t-\t-\t-\t-\t%s\n", region.Region, errorStatus(region.Err))
			rows++
			continue
		}

		for _, volume := range region.Volumes {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%s\n",
				volume.Region,
				volume.VolumeID,
				displayName(volume.Name),
				orDash(volume.SnapshotID),
				len(volume.DeletedSnapshots),
				volumeStatus(volume),
			)
			rows++
		}
	}

	w.Flush()

	if rows == 0 {
		fmt.Fprintln(out, "No volumes found.")
	}
	printTimestamp(out, runStarted, runDuration)
}

// PrintRunSummary prints totals across all regions
func PrintRunSummary(out io.Writer, results []models.RegionResult) {
	var created, deleted, deleteFailures, volumesFailed, regionsFailed int
	for _, region := range results {
		c, d, df, vf := region.Counts()
		created += c
		deleted += d
		deleteFailures += df
		volumesFailed += vf
		if region.Err != nil {
			regionsFailed++
		}
	}

	fmt.Fprintf(out, "Snapshots created: %d, deleted: %d, delete failures: %d, failed volumes: %d, failed regions: %d\n",
		created, deleted, deleteFailures, volumesFailed, regionsFailed)
}

func volumeStatus(volume models.VolumeResult) string {
	switch {
	case volume.Err != nil:
		return errorStatus(volume.Err)
	case volume.Skipped():
		return "skipped (" + volume.SkipReason + ")"
	case len(volume.FailedDeletes) > 0:
		return fmt.Sprintf("ok, %d delete(s) failed", len(volume.FailedDeletes))
	default:
		return "ok"
	}
}

func errorStatus(err error) string {
	return "error: " + truncateString(err.Error(), 60)
}

// displayName limits long names so the table stays readable
func displayName(name string) string {
	if name == "" {
		return "-"
	}
	if StringWidth(name) <= MAX_NAME_WIDTH {
		return name
	}

	var b strings.Builder
	width := 0
	for _, r := range name {
		rw := RuneWidth(r)
		if width+rw > MAX_NAME_WIDTH-2 { // -2 for ".."
			break
		}
		b.WriteRune(r)
		width += rw
	}
	return b.String() + ".."
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
