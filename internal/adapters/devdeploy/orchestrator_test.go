package devdeploy

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/botstack/publisher/internal/core"
	"github.com/botstack/publisher/internal/domain/model"
)

func stagedDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "assets"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "assets", "main.dialog"), []byte("{}"), 0o644))
	return dir
}

func TestOrchestrator_DeploySucceedsAndLogs(t *testing.T) {
	o := NewOrchestrator(Config{})

	var lines []string
	err := o.Deploy(context.Background(), core.DeployRequest{
		WorkDir:     stagedDir(t),
		Name:        "weather-bot-production",
		Environment: "composer",
		LUIS:        &model.LuisCredentials{AuthoringKey: "key"},
		LogSink:     func(line string) { lines = append(lines, line) },
	})
	require.NoError(t, err)
	assert.NotEmpty(t, lines)
	assert.Contains(t, lines[len(lines)-1], "complete")
}

func TestOrchestrator_DeployFailsWhenConfigured(t *testing.T) {
	o := NewOrchestrator(Config{FailWith: "quota exceeded"})

	err := o.Deploy(context.Background(), core.DeployRequest{WorkDir: stagedDir(t)})
	require.Error(t, err)
	assert.EqualError(t, err, "quota exceeded")
}

func TestOrchestrator_DeployMissingWorkDir(t *testing.T) {
	o := NewOrchestrator(Config{})

	err := o.Deploy(context.Background(), core.DeployRequest{
		WorkDir: filepath.Join(t.TempDir(), "does-not-exist"),
	})
	assert.Error(t, err)
}

func TestOrchestrator_DeployHonorsContext(t *testing.T) {
	o := NewOrchestrator(Config{Latency: time.Minute})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := o.Deploy(ctx, core.DeployRequest{WorkDir: stagedDir(t)})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestOrchestrator_NilLogSinkIsTolerated(t *testing.T) {
	o := NewOrchestrator(Config{})

	err := o.Deploy(context.Background(), core.DeployRequest{WorkDir: stagedDir(t)})
	assert.NoError(t, err)
}
