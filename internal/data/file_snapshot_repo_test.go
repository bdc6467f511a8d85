package data

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/botstack/publisher/internal/domain/model"
)

func TestFileSnapshotRepo_LoadMissingFileReturnsEmpty(t *testing.T) {
	repo := NewFileSnapshotRepo(filepath.Join(t.TempDir(), "history.json"))

	table, err := repo.Load(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, table)
	assert.Empty(t, table)
}

func TestFileSnapshotRepo_SaveThenLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "history.json")
	repo := NewFileSnapshotRepo(path)
	ctx := context.Background()

	table := model.HistoryTable{
		"weather-bot": {
			"production": {
				{
					Status:  200,
					ID:      "job-1",
					Time:    time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
					Message: "Publish success.",
					Comment: "release",
				},
			},
		},
	}
	require.NoError(t, repo.Save(ctx, table))

	got, err := repo.Load(ctx)
	require.NoError(t, err)
	require.Len(t, got["weather-bot"]["production"], 1)
	assert.Equal(t, "job-1", got["weather-bot"]["production"][0].ID)
	assert.Equal(t, 200, got["weather-bot"]["production"][0].Status)
}

func TestFileSnapshotRepo_SaveReplacesPreviousContent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.json")
	repo := NewFileSnapshotRepo(path)
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, model.HistoryTable{
		"bot-a": {"dev": {{Status: 500, ID: "old"}}},
	}))
	require.NoError(t, repo.Save(ctx, model.HistoryTable{
		"bot-b": {"dev": {{Status: 200, ID: "new"}}},
	}))

	got, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.NotContains(t, got, "bot-a")
	assert.Equal(t, "new", got["bot-b"]["dev"][0].ID)
}

func TestFileSnapshotRepo_LoadCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	repo := NewFileSnapshotRepo(path)
	_, err := repo.Load(context.Background())
	assert.ErrorIs(t, err, ErrSnapshotCorrupt)
}
