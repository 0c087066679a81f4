package loccache

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// ArchiveFile is the well-known name of the archived
// repository stats file inside the cache directory.
const ArchiveFile = "repository_archive.txt"

// archive file layout constants.
const (
	archiveHeaderLines = 7
	archiveFooterLines = 3
)

// ArchiveStats aggregates contributions preserved from
// repositories that no longer exist on GitHub.
type ArchiveStats struct {
	// Additions is the sum of added lines.
	Additions int
	// Deletions is the sum of deleted lines.
	Deletions int
	// Net is Additions minus Deletions.
	Net int
	// Commits is the preserved own-commit count.
	Commits int
	// Repos is the number of archived repositories.
	Repos int
}

// ReadArchive parses the archived repository stats file
// in dir. The file has a fixed header and footer around
// record lines in the cache line format; the footer's
// last line carries an extra commit count in its fifth
// field (trailing punctuation stripped). A missing or
// malformed file yields zero stats with a warning, so a
// corrupt archive never blocks the run.
func ReadArchive(dir string) (ArchiveStats, error) {
	const errCtx = "reading archive"

	path := filepath.Join(dir, ArchiveFile)

	raw, err := os.ReadFile(path) //nolint:gosec // path derives from config
	if os.IsNotExist(err) {
		slog.Warn(
			"archive file not found, skipping",
			"path", path,
		)

		return ArchiveStats{}, nil
	}

	if err != nil {
		return ArchiveStats{}, fmt.Errorf(
			"%s: %w", errCtx, err,
		)
	}

	stats, err := parseArchive(string(raw))
	if err != nil {
		slog.Warn(
			"archive file malformed, skipping",
			"path", path,
			"error", err,
		)

		return ArchiveStats{}, nil
	}

	return stats, nil
}

// parseArchive decodes the archive file content.
func parseArchive(raw string) (ArchiveStats, error) {
	const errCtx = "parsing archive"

	rows := strings.Split(
		strings.TrimRight(raw, "\n"), "\n",
	)

	if len(rows) <
		archiveHeaderLines+archiveFooterLines {
		return ArchiveStats{}, fmt.Errorf(
			"%s: file too short (%d lines)",
			errCtx, len(rows),
		)
	}

	records := rows[archiveHeaderLines : len(rows)-
		archiveFooterLines]

	var stats ArchiveStats

	stats.Repos = len(records)

	for _, row := range records {
		fields := strings.Fields(row)
		if len(fields) < 5 {
			return ArchiveStats{}, fmt.Errorf(
				"%s: record %q: want 5 fields",
				errCtx, row,
			)
		}

		adds, err := strconv.Atoi(fields[3])
		if err != nil {
			return ArchiveStats{}, fmt.Errorf(
				"%s: record %q: %w", errCtx, row, err,
			)
		}

		dels, err := strconv.Atoi(fields[4])
		if err != nil {
			return ArchiveStats{}, fmt.Errorf(
				"%s: record %q: %w", errCtx, row, err,
			)
		}

		stats.Additions += adds
		stats.Deletions += dels

		// The own-commit field may hold a placeholder
		// for repos whose history was lost.
		if commits, err := strconv.Atoi(
			fields[2],
		); err == nil {
			stats.Commits += commits
		}
	}

	extra, err := footerCommits(rows[len(rows)-1])
	if err != nil {
		return ArchiveStats{}, fmt.Errorf(
			"%s: %w", errCtx, err,
		)
	}

	stats.Commits += extra
	stats.Net = stats.Additions - stats.Deletions

	return stats, nil
}

// footerCommits extracts the extra commit count from
// the last footer line: its fifth field, with one
// trailing punctuation character stripped.
func footerCommits(row string) (int, error) {
	const errCtx = "parsing archive footer"

	fields := strings.Fields(row)
	if len(fields) < 5 {
		return 0, fmt.Errorf(
			"%s: want at least 5 fields in %q",
			errCtx, row,
		)
	}

	field := fields[4]
	if len(field) < 2 {
		return 0, fmt.Errorf(
			"%s: field %q too short", errCtx, field,
		)
	}

	n, err := strconv.Atoi(field[:len(field)-1])
	if err != nil {
		return 0, fmt.Errorf(
			"%s: %w", errCtx, err,
		)
	}

	return n, nil
}
