package execdeploy

import (
	"context"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/botstack/publisher/internal/core"
)

func TestNewRunner_RequiresCommand(t *testing.T) {
	_, err := NewRunner(Config{})
	assert.Error(t, err)

	_, err = NewRunner(Config{Command: "   "})
	assert.Error(t, err)
}

func TestRunner_DeployStreamsOutput(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("relies on sh")
	}

	r, err := NewRunner(Config{Command: "sh", Args: []string{"-c", `echo "line one"; echo "line two"; true`, "sh"}})
	require.NoError(t, err)

	var lines []string
	err = r.Deploy(context.Background(), core.DeployRequest{
		WorkDir: t.TempDir(),
		Name:    "weather-bot-dev",
		LogSink: func(line string) { lines = append(lines, line) },
	})
	require.NoError(t, err)
	assert.Contains(t, lines, "line one")
	assert.Contains(t, lines, "line two")
}

func TestRunner_DeployFailsOnNonZeroExit(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("relies on sh")
	}

	r, err := NewRunner(Config{Command: "sh", Args: []string{"-c", `echo "boom" >&2; exit 3`, "sh"}})
	require.NoError(t, err)

	var lines []string
	err = r.Deploy(context.Background(), core.DeployRequest{
		WorkDir: t.TempDir(),
		LogSink: func(line string) { lines = append(lines, line) },
	})
	require.Error(t, err)
	assert.Contains(t, lines, "boom", "stderr is folded into the log stream")
}

func TestRunner_DeployRequiresWorkDir(t *testing.T) {
	r, err := NewRunner(Config{Command: "true"})
	require.NoError(t, err)

	err = r.Deploy(context.Background(), core.DeployRequest{})
	assert.Error(t, err)
}

func TestRunner_DeployHonorsContextCancel(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("relies on sleep")
	}

	r, err := NewRunner(Config{Command: "sleep", Args: []string{"60"}})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err = r.Deploy(ctx, core.DeployRequest{WorkDir: t.TempDir()})
	assert.ErrorIs(t, err, context.Canceled)
}
