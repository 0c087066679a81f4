package git

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	oe "os/exec"
	"path/filepath"
	"strings"

	"github.com/Sriram-PR/Sriram-PR/stats/exec"
)

// Repo is a local checkout of a git repository, usually
// the working directory the updater runs in.
type Repo struct {
	// Dir is the filesystem location of the checkout.
	Dir string
	// RemoteName is the name of the upstream remote.
	RemoteName string
}

// Open wraps an existing checkout at dir. It fails when
// dir is not inside a git work tree.
func Open(dir string) (*Repo, error) {
	const errCtx = "opening repository"

	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf(
				"%s: resolve working dir: %w",
				errCtx, err,
			)
		}

		dir = wd
	}

	out, err := exec.Run(
		dir, "git",
		"rev-parse", "--is-inside-work-tree",
	)
	if err != nil || out != "true" {
		return nil, fmt.Errorf(
			"%s: %s is not a git work tree",
			errCtx, dir,
		)
	}

	return &Repo{
		Dir:        dir,
		RemoteName: "origin",
	}, nil
}

// SetIdentity configures the commit author name and
// email locally for this checkout.
func (r *Repo) SetIdentity(
	name string,
	email string,
) error {
	const errCtx = "setting identity"

	if _, err := exec.Run(
		r.Dir, "git",
		"config", "--local", "user.name", name,
	); err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	if _, err := exec.Run(
		r.Dir, "git",
		"config", "--local", "user.email", email,
	); err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	return nil
}

// StageAll stages every change in the work tree.
func (r *Repo) StageAll() error {
	const errCtx = "staging changes"

	if _, err := exec.Run(
		r.Dir, "git", "add", ".",
	); err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	return nil
}

// IsClean reports whether the working tree has no
// uncommitted changes.
func (r *Repo) IsClean() bool {
	//nolint:gosec // args are constants
	cmd := oe.CommandContext(
		context.Background(),
		"git", "status", "--porcelain",
	)
	cmd.Dir = r.Dir

	by, err := cmd.CombinedOutput()
	if err != nil {
		slog.Error(
			"failed to check repo status",
			"error", err,
		)

		return false
	}

	return len(by) == 0
}

// Commit stages all changes and commits them. Returns
// true when a commit was created, false when the tree
// was already clean.
func (r *Repo) Commit(message string) (bool, error) {
	const errCtx = "committing changes"

	if err := r.StageAll(); err != nil {
		return false, fmt.Errorf(
			"%s: %w", errCtx, err,
		)
	}

	if r.IsClean() {
		return false, nil
	}

	if _, err := exec.Run(
		r.Dir, "git", "commit", "-m", message,
	); err != nil {
		return false, fmt.Errorf(
			"%s: %w", errCtx, err,
		)
	}

	return true, nil
}

// Push pushes the given branch to the remote. All
// changes should be committed before calling Push.
func (r *Repo) Push(branch string) error {
	const errCtx = "pushing branch"

	if _, err := exec.Run(
		r.Dir, "git",
		"push", r.RemoteName, branch,
	); err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	return nil
}

// LastCommitMessage returns the most recent commit
// message on the current branch. Returns empty string
// on error.
func (r *Repo) LastCommitMessage() string {
	msg, err := exec.Run(
		r.Dir, "git", "log", "-1", "--pretty=%B",
	)
	if err != nil {
		return ""
	}

	return msg
}

// ChangedFiles returns paths with staged or unstaged
// differences against HEAD. NUL-terminated output keeps
// renames and paths with spaces intact.
func (r *Repo) ChangedFiles() []string {
	out, err := exec.Run(
		r.Dir, "git",
		"status", "--porcelain", "-z",
	)
	if err != nil {
		slog.Error(
			"failed to get changed files",
			"error", err,
		)

		return nil
	}

	var files []string

	entries := strings.Split(out, "\x00")

	for i := 0; i < len(entries); i++ {
		// Entries are "XY path".
		entry := entries[i]
		if len(entry) < 4 {
			continue
		}

		files = append(
			files,
			filepath.ToSlash(entry[3:]),
		)

		// Rename and copy entries carry the original
		// path as the next NUL-terminated field.
		if entry[0] == 'R' || entry[0] == 'C' {
			i++
		}
	}

	return files
}
