package updater

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
)

// Lock is an exclusive run lock backed by a lock file.
// It serializes overlapping runs the way the CI
// concurrency group does: a second run either takes
// over a stale lock or refuses to start.
type Lock struct {
	path string
}

// AcquireLock takes the lock file at path, creating
// parent directories as needed. A lock held by a live
// process is an error; a lock left behind by a dead
// process is removed and re-taken.
func AcquireLock(path string) (*Lock, error) {
	const errCtx = "acquiring run lock"

	if err := os.MkdirAll(
		filepath.Dir(path), 0o755,
	); err != nil {
		return nil, fmt.Errorf(
			"%s: %w", errCtx, err,
		)
	}

	for attempt := 0; attempt < 2; attempt++ {
		fi, err := os.OpenFile(
			path,
			os.O_CREATE|os.O_EXCL|os.O_WRONLY,
			0o644,
		)
		if err == nil {
			_, werr := fmt.Fprintf(
				fi, "%d\n", os.Getpid(),
			)

			if cerr := fi.Close(); werr == nil {
				werr = cerr
			}

			if werr != nil {
				_ = os.Remove(path)

				return nil, fmt.Errorf(
					"%s: %w", errCtx, werr,
				)
			}

			return &Lock{path: path}, nil
		}

		if !errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf(
				"%s: %w", errCtx, err,
			)
		}

		pid, readErr := readLockPID(path)
		if readErr == nil && processAlive(pid) {
			return nil, fmt.Errorf(
				"%s: another run holds %s (pid %d)",
				errCtx, path, pid,
			)
		}

		slog.Warn(
			"removing stale run lock",
			"path", path,
		)

		if err := os.Remove(path); err != nil &&
			!errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf(
				"%s: remove stale lock: %w",
				errCtx, err,
			)
		}
	}

	return nil, fmt.Errorf(
		"%s: could not take %s", errCtx, path,
	)
}

// Release removes the lock file.
func (l *Lock) Release() {
	if err := os.Remove(l.path); err != nil &&
		!errors.Is(err, os.ErrNotExist) {
		slog.Error(
			"failed to release run lock",
			"path", l.path,
			"error", err,
		)
	}
}

// readLockPID reads the holder PID from the lock file.
func readLockPID(path string) (int, error) {
	raw, err := os.ReadFile(path) //nolint:gosec // lock path from config
	if err != nil {
		return 0, err
	}

	return strconv.Atoi(
		strings.TrimSpace(string(raw)),
	)
}

// processAlive reports whether a process with the given
// PID exists.
func processAlive(pid int) bool {
	if pid <= 0 {
		return false
	}

	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}

	err = proc.Signal(syscall.Signal(0))

	return err == nil ||
		errors.Is(err, syscall.EPERM)
}
