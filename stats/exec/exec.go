// Package exec provides shell command execution helpers
// for the git persistence layer.
package exec

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
)

// Run executes the named command in the given directory
// and returns combined stdout+stderr output with
// surrounding whitespace trimmed. Pass empty dir to use
// the current working directory.
func Run(
	dir string,
	name string,
	arg ...string,
) (string, error) {
	const errCtx = "executing command"

	slog.Debug(
		"executing",
		"cmd", name,
		"args", strings.Join(arg, " "),
	)

	cmd := exec.CommandContext(context.Background(), name, arg...)
	if dir != "" {
		cmd.Dir = dir
	}

	by, err := cmd.CombinedOutput()

	out := strings.TrimSpace(string(by))

	if err != nil {
		return out, fmt.Errorf(
			"%s: %s %s: %w",
			errCtx, name, strings.Join(arg, " "), err,
		)
	}

	return out, nil
}

// MustRun executes the command and panics on failure.
func MustRun(dir string, name string, arg ...string) {
	if _, err := Run(dir, name, arg...); err != nil {
		panic(fmt.Sprintf("command failed: %v", err))
	}
}
