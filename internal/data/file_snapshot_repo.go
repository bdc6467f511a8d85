// Package data provides persistence adapters backing the publishing core's
// ports.
package data

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/botstack/publisher/internal/domain/model"
)

// FileSnapshotRepo implements core.SnapshotStore on a single JSON file. The
// whole history table is loaded wholesale at startup and rewritten wholesale
// on every save, via a temp-file rename so readers never observe a partial
// write.
type FileSnapshotRepo struct {
	path string
}

// NewFileSnapshotRepo creates a FileSnapshotRepo writing to path.
func NewFileSnapshotRepo(path string) *FileSnapshotRepo {
	return &FileSnapshotRepo{path: path}
}

// Load reads the snapshot file. A missing file yields an empty table and nil
// error; a present-but-undecodable file yields ErrSnapshotCorrupt.
func (r *FileSnapshotRepo) Load(_ context.Context) (model.HistoryTable, error) {
	raw, err := os.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return model.HistoryTable{}, nil
		}
		return nil, fmt.Errorf("read history snapshot: %w", err)
	}

	var table model.HistoryTable
	if err := json.Unmarshal(raw, &table); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSnapshotCorrupt, err)
	}
	if table == nil {
		table = model.HistoryTable{}
	}
	return table, nil
}

// Save serializes the whole table to the snapshot file.
func (r *FileSnapshotRepo) Save(_ context.Context, table model.HistoryTable) error {
	if table == nil {
		table = model.HistoryTable{}
	}
	raw, err := json.MarshalIndent(table, "", "  ")
	if err != nil {
		return fmt.Errorf("encode history snapshot: %w", err)
	}

	dir := filepath.Dir(r.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create snapshot dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".history-*")
	if err != nil {
		return fmt.Errorf("create snapshot temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(raw); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write snapshot temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close snapshot temp file: %w", err)
	}
	if err := os.Rename(tmpName, r.path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("replace snapshot file: %w", err)
	}
	return nil
}
