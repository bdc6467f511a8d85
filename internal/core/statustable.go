// Package core provides the state machine primitives and ports for the bot
// publishing system.
package core

import (
	"sync"

	"github.com/botstack/publisher/internal/domain/model"
)

// StatusTable tracks jobs that are currently running or just finished, before
// their outcome is folded into history. Records are keyed by (botID, profile)
// and kept in acceptance order: the tail of a list is the most recently
// accepted job.
//
// The table stores record values, never shared pointers, so reads are pure
// and completion handlers own the record they remove. All methods are safe
// for concurrent use.
type StatusTable struct {
	mu    sync.RWMutex
	byBot map[string]map[string][]model.JobRecord
}

// NewStatusTable returns an empty status table.
func NewStatusTable() *StatusTable {
	return &StatusTable{byBot: make(map[string]map[string][]model.JobRecord)}
}

// Add appends rec at the tail of the list for (botID, profile), creating the
// containers if absent. Uniqueness of the job id is the caller's invariant:
// each publish call generates a fresh id.
func (t *StatusTable) Add(botID, profile string, rec model.JobRecord) {
	t.mu.Lock()
	defer t.mu.Unlock()

	profiles, ok := t.byBot[botID]
	if !ok {
		profiles = make(map[string][]model.JobRecord)
		t.byBot[botID] = profiles
	}
	profiles[profile] = append(profiles[profile], rec)
}

// Latest returns the most recently accepted record for (botID, profile).
// The second return value is false when the key is absent or its list is
// empty.
func (t *StatusTable) Latest(botID, profile string) (model.JobRecord, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	list := t.byBot[botID][profile]
	if len(list) == 0 {
		return model.JobRecord{}, false
	}
	return list[len(list)-1], true
}

// Get returns the record whose result id matches jobID, scanning in insertion
// order. Absence is signaled through the boolean, never a panic.
func (t *StatusTable) Get(botID, profile, jobID string) (model.JobRecord, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	for _, rec := range t.byBot[botID][profile] {
		if rec.Result.ID == jobID {
			return rec, true
		}
	}
	return model.JobRecord{}, false
}

// Remove removes the record with the given job id, preserving the relative
// order of the remaining records, and returns it. Removing from an absent key
// or an empty list is a no-op that reports not-found.
func (t *StatusTable) Remove(botID, profile, jobID string) (model.JobRecord, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	list := t.byBot[botID][profile]
	for i, rec := range list {
		if rec.Result.ID != jobID {
			continue
		}
		t.byBot[botID][profile] = append(list[:i:i], list[i+1:]...)
		return rec, true
	}
	return model.JobRecord{}, false
}

// Len reports the number of in-flight records for (botID, profile).
func (t *StatusTable) Len(botID, profile string) int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.byBot[botID][profile])
}
