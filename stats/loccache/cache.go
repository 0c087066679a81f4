package loccache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/Sriram-PR/Sriram-PR/stats/collect"
)

// commentFiller is written into fresh comment block
// lines. The block is preserved verbatim afterwards so
// users can replace it with their own notes.
const commentFiller = "This line is a comment block. " +
	"Write whatever you want here."

// Fetcher re-fetches the LOC stats of a single
// repository whose cache line went stale.
type Fetcher func(
	ctx context.Context,
	owner string,
	name string,
) (collect.LOC, error)

// Cache is the on-disk store of per-repository LOC
// lines. One file per user, keyed by the hash of the
// login so the file name leaks nothing.
type Cache struct {
	// Dir is the cache directory.
	Dir string
	// CommentLines is the size of the comment block at
	// the top of the file.
	CommentLines int
	// Parallelism bounds concurrent re-fetches of stale
	// repositories.
	Parallelism int
}

// New returns a Cache rooted at dir with the given
// comment block size.
func New(dir string, commentLines int) *Cache {
	return &Cache{
		Dir:          dir,
		CommentLines: commentLines,
		Parallelism:  1,
	}
}

// Totals is the aggregated LOC result of a cache build.
type Totals struct {
	// Additions is the sum of added lines.
	Additions int
	// Deletions is the sum of deleted lines.
	Deletions int
	// Net is Additions minus Deletions.
	Net int
	// Cached is false when the cache had to be rebuilt
	// from scratch.
	Cached bool
}

// line is one repository record:
// <hash> <commits> <myCommits> <additions> <deletions>.
type line struct {
	hash      string
	commits   int
	myCommits int
	additions int
	deletions int
}

// String renders the record in file format.
func (l line) String() string {
	return fmt.Sprintf(
		"%s %d %d %d %d",
		l.hash,
		l.commits,
		l.myCommits,
		l.additions,
		l.deletions,
	)
}

// parseLine decodes one record line. Extra fields are
// tolerated, missing ones are an error.
func parseLine(raw string) (line, error) {
	const errCtx = "parsing cache line"

	fields := strings.Fields(raw)
	if len(fields) < 5 {
		return line{}, fmt.Errorf(
			"%s: want 5 fields, got %d",
			errCtx, len(fields),
		)
	}

	nums := make([]int, 4)

	for i := 0; i < 4; i++ {
		n, err := strconv.Atoi(fields[i+1])
		if err != nil {
			return line{}, fmt.Errorf(
				"%s: field %d: %w", errCtx, i+1, err,
			)
		}

		nums[i] = n
	}

	return line{
		hash:      fields[0],
		commits:   nums[0],
		myCommits: nums[1],
		additions: nums[2],
		deletions: nums[3],
	}, nil
}

// HashName returns the SHA256 hex digest used to key
// both file names and repository lines.
func HashName(name string) string {
	sum := sha256.Sum256([]byte(name))

	return hex.EncodeToString(sum[:])
}

// Path returns the cache file path for a login,
// creating the cache directory if needed.
func (c *Cache) Path(login string) (string, error) {
	const errCtx = "resolving cache path"

	if err := os.MkdirAll(c.Dir, 0o755); err != nil {
		return "", fmt.Errorf(
			"%s: %w", errCtx, err,
		)
	}

	return filepath.Join(
		c.Dir, HashName(login)+".txt",
	), nil
}

// Build reconciles the cache file against the live
// repository heads and returns LOC totals. Stale lines
// (commit count changed) are re-fetched through fetch
// with bounded parallelism. On fetch failure the
// partially updated cache is written back before the
// error is returned, so progress is never lost.
func (c *Cache) Build(
	ctx context.Context,
	login string,
	heads []collect.RepoHead,
	fetch Fetcher,
	force bool,
) (Totals, error) {
	const errCtx = "building loc cache"

	path, err := c.Path(login)
	if err != nil {
		return Totals{}, fmt.Errorf(
			"%s: %w", errCtx, err,
		)
	}

	comment, lines, err := c.read(path)
	if err != nil {
		return Totals{}, fmt.Errorf(
			"%s: %w", errCtx, err,
		)
	}

	cached := true

	// Repo set changed or rebuild forced: reset every
	// line to zeros keyed by the current heads.
	if len(lines) != len(heads) || force {
		cached = false
		lines = flushLines(heads)
	}

	fetchErr := c.refresh(
		ctx, heads, lines, fetch,
	)

	// Persist whatever was collected, even on failure.
	if err := c.write(
		path, comment, lines,
	); err != nil {
		return Totals{}, fmt.Errorf(
			"%s: %w", errCtx, err,
		)
	}

	if fetchErr != nil {
		slog.Warn(
			"saved partial loc cache before error",
			"path", path,
		)

		return Totals{}, fmt.Errorf(
			"%s: %w", errCtx, fetchErr,
		)
	}

	totals := Totals{Cached: cached}

	for _, l := range lines {
		totals.Additions += l.additions
		totals.Deletions += l.deletions
	}

	totals.Net = totals.Additions - totals.Deletions

	return totals, nil
}

// refresh re-fetches every line whose recorded commit
// count no longer matches the live head. Lines update
// in place; the first error is returned after all
// workers finish.
func (c *Cache) refresh(
	ctx context.Context,
	heads []collect.RepoHead,
	lines []line,
	fetch Fetcher,
) error {
	parallelism := c.Parallelism
	if parallelism <= 0 {
		parallelism = 1
	}

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)

	sem := make(chan struct{}, parallelism)

	for i := range heads {
		head := heads[i]

		wantHash := HashName(head.NameWithOwner)
		if lines[i].hash != wantHash {
			// Hash mismatch means the line belongs to
			// another repo; reset it.
			lines[i] = line{hash: wantHash}
		}

		if head.Empty {
			lines[i] = line{hash: wantHash}

			continue
		}

		if lines[i].commits == head.Commits {
			continue
		}

		if ctx.Err() != nil {
			mu.Lock()
			errs = append(errs, ctx.Err())
			mu.Unlock()

			break
		}

		owner, name, ok := splitNameWithOwner(
			head.NameWithOwner,
		)
		if !ok {
			continue
		}

		wg.Add(1)
		sem <- struct{}{}

		go func(idx int, commits int) {
			defer wg.Done()
			defer func() { <-sem }()

			loc, fetchErr := fetch(ctx, owner, name)
			if fetchErr != nil {
				mu.Lock()
				errs = append(errs, fetchErr)
				mu.Unlock()

				return
			}

			lines[idx] = line{
				hash:      wantHash,
				commits:   commits,
				myCommits: loc.Commits,
				additions: loc.Additions,
				deletions: loc.Deletions,
			}
		}(i, head.Commits)
	}

	wg.Wait()

	if len(errs) > 0 {
		return fmt.Errorf(
			"refreshing loc lines: %d errors, first: %w",
			len(errs), errs[0],
		)
	}

	return nil
}

// CommitTotal sums the own-commit column of the cache
// file. A missing file yields zero with a warning, not
// an error.
func (c *Cache) CommitTotal(login string) (int, error) {
	const errCtx = "counting cached commits"

	path, err := c.Path(login)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", errCtx, err)
	}

	_, lines, err := c.read(path)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", errCtx, err)
	}

	total := 0
	for _, l := range lines {
		total += l.myCommits
	}

	return total, nil
}

// read loads the comment block and record lines from
// path. A missing file is created with a fresh comment
// block and no records.
func (c *Cache) read(
	path string,
) ([]string, []line, error) {
	const errCtx = "reading cache file"

	raw, err := os.ReadFile(path) //nolint:gosec // path derives from config
	if os.IsNotExist(err) {
		comment := freshComment(c.CommentLines)

		if err := c.write(
			path, comment, nil,
		); err != nil {
			return nil, nil, fmt.Errorf(
				"%s: %w", errCtx, err,
			)
		}

		return comment, nil, nil
	}

	if err != nil {
		return nil, nil, fmt.Errorf(
			"%s: %w", errCtx, err,
		)
	}

	rows := strings.Split(
		strings.TrimRight(string(raw), "\n"), "\n",
	)

	if len(rows) == 1 && rows[0] == "" {
		rows = nil
	}

	commentSize := c.CommentLines
	if commentSize > len(rows) {
		commentSize = len(rows)
	}

	comment := rows[:commentSize]

	var lines []line

	for _, row := range rows[commentSize:] {
		if strings.TrimSpace(row) == "" {
			continue
		}

		l, err := parseLine(row)
		if err != nil {
			return nil, nil, fmt.Errorf(
				"%s: %w", errCtx, err,
			)
		}

		lines = append(lines, l)
	}

	return comment, lines, nil
}

// write stores the comment block and record lines at
// path.
func (c *Cache) write(
	path string,
	comment []string,
	lines []line,
) error {
	const errCtx = "writing cache file"

	var sb strings.Builder

	for _, cl := range comment {
		sb.WriteString(cl)
		sb.WriteByte('\n')
	}

	for _, l := range lines {
		sb.WriteString(l.String())
		sb.WriteByte('\n')
	}

	//nolint:gosec // cache is not sensitive
	if err := os.WriteFile(
		path, []byte(sb.String()), 0o644,
	); err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	return nil
}

// freshComment builds a default comment block of n
// lines.
func freshComment(n int) []string {
	comment := make([]string, n)
	for i := range comment {
		comment[i] = commentFiller
	}

	return comment
}

// flushLines builds zeroed records for the given heads.
func flushLines(heads []collect.RepoHead) []line {
	lines := make([]line, len(heads))
	for i, head := range heads {
		lines[i] = line{
			hash: HashName(head.NameWithOwner),
		}
	}

	return lines
}

// splitNameWithOwner splits "owner/name" into its two
// parts.
func splitNameWithOwner(
	nameWithOwner string,
) (string, string, bool) {
	owner, name, ok := strings.Cut(nameWithOwner, "/")
	if !ok || owner == "" || name == "" {
		return "", "", false
	}

	return owner, name, true
}
