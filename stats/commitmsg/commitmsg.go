// Package commitmsg generates and parses the stats
// update commit messages. The subject line carries the
// run date; the body lists the refreshed files between
// markers so a later run can tell what the last update
// touched.
package commitmsg

import (
	"log/slog"
	"strings"
	"time"
)

const (
	begin = "--- refreshed files begin ---"
	end   = "--- refreshed files end ---"
)

// DateLayout is the date format used in the subject
// line.
const DateLayout = "2006-01-02"

// Generate produces the full commit message for a run
// on the given date that refreshed the given files.
func Generate(date time.Time, files []string) string {
	var sb strings.Builder

	sb.WriteString("Update GitHub stats: ")
	sb.WriteString(date.Format(DateLayout))
	sb.WriteByte('\n')
	sb.WriteByte('\n')
	sb.WriteString(begin)
	sb.WriteByte('\n')

	for _, f := range files {
		sb.WriteString(f)
		sb.WriteByte('\n')
	}

	sb.WriteString(end)
	sb.WriteByte('\n')

	return sb.String()
}

// ExtractFiles extracts the refreshed file list from a
// commit message delimited by begin/end markers. Returns
// nil when the markers are absent or unbalanced.
func ExtractFiles(msg string) []string {
	var files []string

	betweenMarkers := false

	for _, line := range strings.Split(msg, "\n") {
		switch line {
		case begin:
			betweenMarkers = true
		case end:
			betweenMarkers = false
		default:
			if betweenMarkers && line != "" {
				files = append(files, line)
			}
		}
	}

	if betweenMarkers {
		slog.Warn(
			"unable to find end marker in commit message",
		)

		return nil
	}

	return files
}
