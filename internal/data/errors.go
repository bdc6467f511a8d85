package data

import "errors"

// Shared sentinel errors for data-layer repositories.
var (
	// ErrDuplicateHistoryEntry is returned when the archive already holds an
	// entry for the same job id.
	ErrDuplicateHistoryEntry = errors.New("history entry already exists")

	// ErrSnapshotCorrupt is returned when a persisted snapshot cannot be
	// decoded. Callers treat it as "start empty", never as fatal.
	ErrSnapshotCorrupt = errors.New("history snapshot is corrupt")
)
