package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/botstack/publisher/internal/domain/model"
	"github.com/botstack/publisher/internal/testutil"
)

type fakeSnapshotStore struct {
	mu      sync.Mutex
	table   model.HistoryTable
	loadErr error
	saveErr error
	saves   int
}

func (f *fakeSnapshotStore) Load(context.Context) (model.HistoryTable, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	return f.table.Clone(), nil
}

func (f *fakeSnapshotStore) Save(_ context.Context, table model.HistoryTable) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return f.saveErr
	}
	f.table = table
	f.saves++
	return nil
}

type fakeHistoryArchive struct {
	table     model.HistoryTable
	listErr   error
	appendErr error
	appended  []model.HistoryEntry
}

func (f *fakeHistoryArchive) Append(_ context.Context, _, _ string, entry model.HistoryEntry) error {
	if f.appendErr != nil {
		return f.appendErr
	}
	f.appended = append(f.appended, entry)
	return nil
}

func (f *fakeHistoryArchive) ListAll(context.Context) (model.HistoryTable, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.table.Clone(), nil
}

func entryWithID(id string, status int) model.HistoryEntry {
	return model.HistoryEntry{
		Status:  status,
		ID:      id,
		Time:    testutil.TestTime(),
		Message: "Publish success.",
	}
}

func TestHistoryAppendInsertsNewestFirst(t *testing.T) {
	s := NewHistoryService(context.Background(), HistoryServiceOptions{})
	ctx := context.Background()

	require.NoError(t, s.Append(ctx, "weather-bot", "production", entryWithID("job-1", model.StatusSuccess)))
	require.NoError(t, s.Append(ctx, "weather-bot", "production", entryWithID("job-2", model.StatusFailed)))

	entries := s.Get("weather-bot", "production")
	require.Len(t, entries, 2)
	assert.Equal(t, "job-2", entries[0].ID)
	assert.Equal(t, "job-1", entries[1].ID)

	newest, ok := s.Newest("weather-bot", "production")
	require.True(t, ok)
	assert.Equal(t, "job-2", newest.ID)
}

func TestHistoryGetUnseenKeyIsEmpty(t *testing.T) {
	s := NewHistoryService(context.Background(), HistoryServiceOptions{})

	entries := s.Get("ghost-bot", "production")
	assert.NotNil(t, entries)
	assert.Empty(t, entries)

	_, ok := s.Newest("ghost-bot", "production")
	assert.False(t, ok)
}

func TestHistoryGetReturnsACopy(t *testing.T) {
	s := NewHistoryService(context.Background(), HistoryServiceOptions{})
	ctx := context.Background()
	require.NoError(t, s.Append(ctx, "weather-bot", "production", entryWithID("job-1", model.StatusSuccess)))

	entries := s.Get("weather-bot", "production")
	entries[0].ID = "mutated"

	fresh := s.Get("weather-bot", "production")
	assert.Equal(t, "job-1", fresh[0].ID)
}

func TestHistoryHydratesFromSnapshot(t *testing.T) {
	store := &fakeSnapshotStore{table: model.HistoryTable{
		"weather-bot": {"production": {entryWithID("job-1", model.StatusSuccess)}},
	}}

	s := NewHistoryService(context.Background(), HistoryServiceOptions{Snapshot: store})
	entries := s.Get("weather-bot", "production")
	require.Len(t, entries, 1)
	assert.Equal(t, "job-1", entries[0].ID)
}

func TestHistoryHydrationFailureStartsEmpty(t *testing.T) {
	store := &fakeSnapshotStore{loadErr: errors.New("snapshot corrupt")}

	s := NewHistoryService(context.Background(), HistoryServiceOptions{Snapshot: store})
	assert.Empty(t, s.Get("weather-bot", "production"))

	// The service still accepts appends after a failed hydration.
	require.NoError(t, s.Append(context.Background(), "weather-bot", "production",
		entryWithID("job-1", model.StatusSuccess)))
	assert.Len(t, s.Get("weather-bot", "production"), 1)
}

func TestHistoryWritesThroughToSnapshot(t *testing.T) {
	store := &fakeSnapshotStore{}
	s := NewHistoryService(context.Background(), HistoryServiceOptions{Snapshot: store})
	ctx := context.Background()

	require.NoError(t, s.Append(ctx, "weather-bot", "production", entryWithID("job-1", model.StatusSuccess)))
	require.NoError(t, s.Append(ctx, "weather-bot", "staging", entryWithID("job-2", model.StatusFailed)))

	assert.Equal(t, 2, store.saves)
	require.Len(t, store.table["weather-bot"]["production"], 1)
	require.Len(t, store.table["weather-bot"]["staging"], 1)
}

func TestHistoryPersistFailureKeepsMemoryConsistent(t *testing.T) {
	store := &fakeSnapshotStore{saveErr: errors.New("disk full")}
	s := NewHistoryService(context.Background(), HistoryServiceOptions{Snapshot: store})

	err := s.Append(context.Background(), "weather-bot", "production", entryWithID("job-1", model.StatusSuccess))
	assert.Error(t, err)
	assert.Len(t, s.Get("weather-bot", "production"), 1, "the in-memory insert survives a persistence failure")
}

func TestHistoryArchiveWinsHydrationAndReceivesWrites(t *testing.T) {
	archive := &fakeHistoryArchive{table: model.HistoryTable{
		"weather-bot": {"production": {entryWithID("archived", model.StatusSuccess)}},
	}}
	store := &fakeSnapshotStore{table: model.HistoryTable{
		"weather-bot": {"production": {entryWithID("snapshotted", model.StatusSuccess)}},
	}}

	s := NewHistoryService(context.Background(), HistoryServiceOptions{Snapshot: store, Archive: archive})

	entries := s.Get("weather-bot", "production")
	require.Len(t, entries, 1)
	assert.Equal(t, "archived", entries[0].ID)

	require.NoError(t, s.Append(context.Background(), "weather-bot", "production",
		entryWithID("job-1", model.StatusFailed)))
	require.Len(t, archive.appended, 1)
	assert.Equal(t, 1, store.saves)
}
