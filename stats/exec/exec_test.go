package exec_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sriram-PR/Sriram-PR/stats/exec"
)

func TestRun_success(t *testing.T) {
	t.Parallel()

	out, err := exec.Run("", "echo", "hello")

	require.NoError(t, err)
	assert.Equal(t, "hello", out)
}

func TestRun_with_dir(t *testing.T) {
	t.Parallel()

	out, err := exec.Run("/tmp", "pwd")

	require.NoError(t, err)
	assert.Contains(t, out, "/tmp")
}

func TestRun_failure(t *testing.T) {
	t.Parallel()

	_, err := exec.Run("", "false")

	assert.Error(t, err)
}

func TestMustRun_panics_on_failure(t *testing.T) {
	t.Parallel()

	assert.Panics(t, func() {
		exec.MustRun("", "false")
	})
}

func TestMustRun_success(t *testing.T) {
	t.Parallel()

	assert.NotPanics(t, func() {
		exec.MustRun("", "echo", "ok")
	})
}
