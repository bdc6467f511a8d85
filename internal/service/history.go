package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/botstack/publisher/internal/core"
	"github.com/botstack/publisher/internal/domain/model"
)

// HistoryServiceOptions groups dependencies for HistoryService.
type HistoryServiceOptions struct {
	// Snapshot persists the whole table per append (file or redis backed).
	// Optional; when nil together with Archive, history is in-memory only.
	Snapshot core.SnapshotStore

	// Archive persists entries row-by-row (postgres backed). Optional.
	// When both Snapshot and Archive are set, Archive wins for hydration and
	// both receive writes.
	Archive core.HistoryArchive

	Logger *slog.Logger
}

// HistoryService owns the durable record of terminal publish outcomes per
// (bot, profile). Entries are ordered newest-first; appends insert at the
// head. The in-memory table is the source of truth for reads; configured
// backends are written through synchronously on every append.
type HistoryService struct {
	mu       sync.RWMutex
	table    model.HistoryTable
	snapshot core.SnapshotStore
	archive  core.HistoryArchive
	logger   *slog.Logger
}

// NewHistoryService constructs a HistoryService, hydrating the in-memory
// table from the configured backend. A missing snapshot or empty archive is
// not an error; a corrupt one is logged and startup proceeds with an empty
// table, per the contract that hydration never fails the process.
func NewHistoryService(ctx context.Context, opts HistoryServiceOptions) *HistoryService {
	var logger *slog.Logger
	if opts.Logger != nil {
		logger = opts.Logger.With("component", "history_service")
	}

	s := &HistoryService{
		table:    model.HistoryTable{},
		snapshot: opts.Snapshot,
		archive:  opts.Archive,
		logger:   logger,
	}
	s.hydrate(ctx)
	return s
}

func (s *HistoryService) hydrate(ctx context.Context) {
	var (
		table model.HistoryTable
		err   error
	)
	switch {
	case s.archive != nil:
		table, err = s.archive.ListAll(ctx)
	case s.snapshot != nil:
		table, err = s.snapshot.Load(ctx)
	default:
		return
	}

	if err != nil {
		if s.logger != nil {
			s.logger.WarnContext(ctx, "history hydration failed, starting empty", "error", err)
		}
		return
	}
	if table != nil {
		s.table = table
	}
}

// Get returns the ordered history for (botID, profile), newest first. Unseen
// keys yield an empty slice. The returned slice is a copy; callers may hold
// it without synchronization.
func (s *HistoryService) Get(botID, profile string) []model.HistoryEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := s.table[botID][profile]
	if len(entries) == 0 {
		return []model.HistoryEntry{}
	}
	return append([]model.HistoryEntry(nil), entries...)
}

// Newest returns the most recent entry for (botID, profile), if any.
func (s *HistoryService) Newest(botID, profile string) (model.HistoryEntry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := s.table[botID][profile]
	if len(entries) == 0 {
		return model.HistoryEntry{}, false
	}
	return entries[0], true
}

// Append inserts entry at the head of the (botID, profile) sequence, creating
// containers as needed, and writes through to the configured backends. A
// persistence failure is returned for the caller to log but the in-memory
// insert always takes effect first, so reads stay consistent.
func (s *HistoryService) Append(ctx context.Context, botID, profile string, entry model.HistoryEntry) error {
	s.mu.Lock()
	profiles, ok := s.table[botID]
	if !ok {
		profiles = make(map[string][]model.HistoryEntry)
		s.table[botID] = profiles
	}
	profiles[profile] = append([]model.HistoryEntry{entry}, profiles[profile]...)

	var snapshotCopy model.HistoryTable
	if s.snapshot != nil {
		snapshotCopy = s.table.Clone()
	}
	s.mu.Unlock()

	if s.logger != nil {
		s.logger.DebugContext(ctx, "history entry appended",
			"bot_id", botID, "profile", profile, "job_id", entry.ID, "status", entry.Status)
	}

	if s.archive != nil {
		if err := s.archive.Append(ctx, botID, profile, entry); err != nil {
			return fmt.Errorf("archive history entry: %w", err)
		}
	}
	if s.snapshot != nil {
		if err := s.snapshot.Save(ctx, snapshotCopy); err != nil {
			return fmt.Errorf("save history snapshot: %w", err)
		}
	}
	return nil
}
