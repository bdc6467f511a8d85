package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/botstack/publisher/internal/domain/model"
)

// HistoryArchiveRepo implements core.HistoryArchive on PostgreSQL, one row
// per terminal outcome. Unlike the snapshot stores it never rewrites the
// whole table; hydration at startup uses a single ordered scan.
type HistoryArchiveRepo struct {
	db *sql.DB
}

// NewHistoryArchiveRepo creates a HistoryArchiveRepo using the given database.
func NewHistoryArchiveRepo(db *sql.DB) *HistoryArchiveRepo {
	return &HistoryArchiveRepo{db: db}
}

// EnsureSchema creates the publish_history table when absent. Safe to run on
// every startup.
func (r *HistoryArchiveRepo) EnsureSchema(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS publish_history (
			job_id     TEXT PRIMARY KEY,
			bot_id     TEXT NOT NULL,
			profile    TEXT NOT NULL,
			status     INTEGER NOT NULL,
			occurred_at TIMESTAMPTZ NOT NULL,
			message    TEXT NOT NULL DEFAULT '',
			log        TEXT NOT NULL DEFAULT '',
			comment    TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);
		CREATE INDEX IF NOT EXISTS publish_history_bot_profile_idx
			ON publish_history (bot_id, profile, created_at DESC);
	`)
	if err != nil {
		return fmt.Errorf("ensure publish_history schema: %w", err)
	}
	return nil
}

// Append inserts one history entry. A duplicate job id maps to
// ErrDuplicateHistoryEntry.
func (r *HistoryArchiveRepo) Append(ctx context.Context, botID, profile string, entry model.HistoryEntry) error {
	if entry.ID == "" {
		return errors.New("history entry id is required")
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO publish_history (job_id, bot_id, profile, status, occurred_at, message, log, comment)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, entry.ID, botID, profile, entry.Status, entry.Time, entry.Message, entry.Log, entry.Comment)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return fmt.Errorf("%w: job %s", ErrDuplicateHistoryEntry, entry.ID)
		}
		return fmt.Errorf("insert history entry: %w", err)
	}
	return nil
}

// ListAll returns the full archive grouped per (bot, profile), newest first
// within each key.
func (r *HistoryArchiveRepo) ListAll(ctx context.Context) (model.HistoryTable, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT bot_id, profile, status, job_id, occurred_at, message, log, comment
		FROM publish_history
		ORDER BY bot_id, profile, created_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("query history archive: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	table := model.HistoryTable{}
	for rows.Next() {
		var (
			botID, profile string
			entry          model.HistoryEntry
		)
		if err := rows.Scan(
			&botID, &profile,
			&entry.Status, &entry.ID, &entry.Time, &entry.Message, &entry.Log, &entry.Comment,
		); err != nil {
			return nil, fmt.Errorf("scan history entry: %w", err)
		}

		profiles, ok := table[botID]
		if !ok {
			profiles = make(map[string][]model.HistoryEntry)
			table[botID] = profiles
		}
		profiles[profile] = append(profiles[profile], entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history archive: %w", err)
	}
	return table, nil
}

// List returns the ordered history for one (bot, profile), newest first.
func (r *HistoryArchiveRepo) List(ctx context.Context, botID, profile string) ([]model.HistoryEntry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT status, job_id, occurred_at, message, log, comment
		FROM publish_history
		WHERE bot_id = $1 AND profile = $2
		ORDER BY created_at DESC
	`, botID, profile)
	if err != nil {
		return nil, fmt.Errorf("query history for %s/%s: %w", botID, profile, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var entries []model.HistoryEntry
	for rows.Next() {
		var entry model.HistoryEntry
		if err := rows.Scan(&entry.Status, &entry.ID, &entry.Time, &entry.Message, &entry.Log, &entry.Comment); err != nil {
			return nil, fmt.Errorf("scan history entry: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history: %w", err)
	}
	return entries, nil
}
