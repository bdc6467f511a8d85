package data

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/botstack/publisher/internal/domain/model"
	"github.com/botstack/publisher/internal/testutil"
)

func TestRedisSnapshotRepo_LoadMissingKeyReturnsEmpty(t *testing.T) {
	client := testutil.SetupTestRedis(t)
	repo := NewRedisSnapshotRepo(client, "publisher:test:history:missing")

	table, err := repo.Load(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, table)
	assert.Empty(t, table)
}

func TestRedisSnapshotRepo_SaveThenLoadRoundTrip(t *testing.T) {
	client := testutil.SetupTestRedis(t)
	repo := NewRedisSnapshotRepo(client, "publisher:test:history")
	ctx := context.Background()

	table := model.HistoryTable{
		"weather-bot": {
			"dev": {
				{Status: 202, ID: "job-42", Message: "Accepted for publishing."},
			},
		},
	}
	require.NoError(t, repo.Save(ctx, table))

	got, err := repo.Load(ctx)
	require.NoError(t, err)
	require.Len(t, got["weather-bot"]["dev"], 1)
	assert.Equal(t, "job-42", got["weather-bot"]["dev"][0].ID)
}

func TestRedisSnapshotRepo_SaveReplacesDocument(t *testing.T) {
	client := testutil.SetupTestRedis(t)
	repo := NewRedisSnapshotRepo(client, "publisher:test:history")
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

func TestRedisSnapshotRepo_LoadCorruptDocument(t *testing.T) {
	client := testutil.SetupTestRedis(t)
	ctx := context.Background()
	require.NoError(t, client.Set(ctx, "publisher:test:history", "{bad", 0).Err())

	repo := NewRedisSnapshotRepo(client, "publisher:test:history")
	_, err := repo.Load(ctx)
	assert.ErrorIs(t, err, ErrSnapshotCorrupt)
}

func TestRedisSnapshotRepo_DefaultKey(t *testing.T) {
	repo := NewRedisSnapshotRepo(nil, "")
	assert.Equal(t, "publisher:history", repo.key)
}
