package service

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/botstack/publisher/internal/domain/model"
	"github.com/botstack/publisher/internal/testutil"
)

func newStaging(t *testing.T, opts StagingServiceOptions) *StagingService {
	t.Helper()
	if opts.Root == "" {
		opts.Root = t.TempDir()
	}
	s, err := NewStagingService(opts)
	require.NoError(t, err)
	return s
}

func TestNewStagingServiceRequiresRoot(t *testing.T) {
	_, err := NewStagingService(StagingServiceOptions{Root: "   "})
	assert.Error(t, err)
}

func TestResourceKeyStableAndDistinct(t *testing.T) {
	s := newStaging(t, StagingServiceOptions{})

	base := testutil.NewPublishConfig().Build()
	again := testutil.NewPublishConfig().Build()
	assert.Equal(t, s.ResourceKey(base), s.ResourceKey(again), "identical inputs map to the same key")

	other := testutil.NewPublishConfig().WithProvisionPassword("different").Build()
	assert.NotEqual(t, s.ResourceKey(base), s.ResourceKey(other))

	withLuis := testutil.NewPublishConfig().
		WithLUIS(&model.LuisCredentials{AuthoringKey: "abc"}).
		Build()
	assert.NotEqual(t, s.ResourceKey(base), s.ResourceKey(withLuis))
}

func TestStageWritesAssetsAndSettings(t *testing.T) {
	s := newStaging(t, StagingServiceOptions{})
	project := testutil.NewBotProject().
		WithFile("dialogs/main.dialog", `{"$kind":"Microsoft.AdaptiveDialog"}`).
		WithFile("lg/common.lg", "# Greeting\n- Hello!").
		WithSettingsString(`{"runtime":{"command":"dotnet run"}}`).
		Build()

	key := "stage-test"
	require.NoError(t, s.Stage(context.Background(), project, key))

	dir := s.Dir(key)
	assert.FileExists(t, filepath.Join(dir, "assets", "dialogs", "main.dialog"))
	assert.FileExists(t, filepath.Join(dir, "assets", "lg", "common.lg"))

	raw, err := os.ReadFile(s.SettingsPath(key))
	require.NoError(t, err)
	var settings map[string]any
	require.NoError(t, json.Unmarshal(raw, &settings))
	runtime, ok := settings["runtime"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "dotnet run", runtime["command"])
}

func TestStageIsIdempotentPerKey(t *testing.T) {
	s := newStaging(t, StagingServiceOptions{})
	ctx := context.Background()
	key := "restage"

	first := testutil.NewBotProject().WithFile("old.dialog", "v1").Build()
	require.NoError(t, s.Stage(ctx, first, key))

	second := testutil.NewBotProject().WithFile("new.dialog", "v2").Build()
	require.NoError(t, s.Stage(ctx, second, key))

	assert.NoFileExists(t, filepath.Join(s.Dir(key), "assets", "old.dialog"),
		"re-staging clears the previous contents")
	assert.FileExists(t, filepath.Join(s.Dir(key), "assets", "new.dialog"))
}

func TestStageCopiesRuntimeTemplate(t *testing.T) {
	runtime := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(runtime, "azurewebapp"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(runtime, "azurewebapp", "Startup.cs"), []byte("class Startup {}"), 0o644))

	s := newStaging(t, StagingServiceOptions{RuntimeTemplateDir: runtime})
	project := testutil.NewBotProject().Build()

	key := "with-runtime"
	require.NoError(t, s.Stage(context.Background(), project, key))
	assert.FileExists(t, filepath.Join(s.Dir(key), "azurewebapp", "Startup.cs"))
}

func TestStagePrefersEjectedRuntime(t *testing.T) {
	template := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(template, "template.txt"), []byte("default"), 0o644))
	ejected := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(ejected, "ejected.txt"), []byte("custom"), 0o644))

	s := newStaging(t, StagingServiceOptions{RuntimeTemplateDir: template})
	project := testutil.NewBotProject().WithRuntimePath(ejected).Build()

	key := "ejected-runtime"
	require.NoError(t, s.Stage(context.Background(), project, key))
	assert.FileExists(t, filepath.Join(s.Dir(key), "ejected.txt"))
	assert.NoFileExists(t, filepath.Join(s.Dir(key), "template.txt"))
}

func TestTeardownTolerantOfAbsentDir(t *testing.T) {
	s := newStaging(t, StagingServiceOptions{})
	assert.NoError(t, s.Teardown("never-staged"))

	key := "staged"
	require.NoError(t, s.Stage(context.Background(), testutil.NewBotProject().Build(), key))
	require.NoError(t, s.Teardown(key))
	assert.NoDirExists(t, s.Dir(key))
}

func TestSweepRemovesOnlyStaleDirs(t *testing.T) {
	root := t.TempDir()
	s := newStaging(t, StagingServiceOptions{Root: root})

	stale := filepath.Join(root, "stale")
	require.NoError(t, os.MkdirAll(stale, 0o755))
	old := time.Now().Add(-2 * time.Hour)
	require.NoError(t, os.Chtimes(stale, old, old))

	fresh := filepath.Join(root, "fresh")
	require.NoError(t, os.MkdirAll(fresh, 0o755))

	removed, err := s.Sweep(time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
	assert.NoDirExists(t, stale)
	assert.DirExists(t, fresh)
}

func TestSweepMissingRootIsNoop(t *testing.T) {
	s := newStaging(t, StagingServiceOptions{Root: filepath.Join(t.TempDir(), "does-not-exist")})
	removed, err := s.Sweep(time.Hour)
	require.NoError(t, err)
	assert.Zero(t, removed)
}

func TestRunJanitorStopsOnContextCancel(t *testing.T) {
	s := newStaging(t, StagingServiceOptions{})
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		done <- s.RunJanitor(ctx, 10*time.Millisecond, time.Hour)
	}()

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("janitor did not stop after cancel")
	}
}
