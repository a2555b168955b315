// Package sqlite provides SQLite-backed persistence for timeline
// snapshots.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/TitzMcgie/Metavern/core/timeline"
	_ "modernc.org/sqlite"
)

// Store persists sessions in two tables: one row of metadata per
// session and one row per event, replaced wholesale on every save.
type Store struct {
	sqlDB *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS sessions (
	id TEXT PRIMARY KEY,
	title TEXT NOT NULL DEFAULT '',
	participants TEXT NOT NULL DEFAULT '',
	current_participants TEXT NOT NULL DEFAULT '',
	summary TEXT NOT NULL DEFAULT '',
	visible_to_user INTEGER NOT NULL DEFAULT 1
);

CREATE TABLE IF NOT EXISTS events (
	session_id TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
	position INTEGER NOT NULL,
	type TEXT NOT NULL,
	id TEXT NOT NULL,
	timestamp TEXT NOT NULL,
	character TEXT NOT NULL DEFAULT '',
	dialogue TEXT NOT NULL DEFAULT '',
	action_description TEXT NOT NULL DEFAULT '',
	location TEXT NOT NULL DEFAULT '',
	description TEXT NOT NULL DEFAULT '',
	circumstances TEXT NOT NULL DEFAULT '',
	PRIMARY KEY (session_id, position)
);
`

// Open opens a SQLite store at the provided path. Use ":memory:" for an
// ephemeral store.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}

	dsn := path
	if path != ":memory:" {
		dsn = path + "?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=5000&_synchronous=NORMAL"
	}
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := sqlDB.Exec(schema); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &Store{sqlDB: sqlDB}, nil
}

// Close closes the underlying SQLite database.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

const timestampLayout = "2006-01-02T15:04:05.999999999Z07:00"

func encodeNames(names []string) string {
	return strings.Join(names, "\x1f")
}

func decodeNames(value string) []string {
	if value == "" {
		return []string{}
	}
	return strings.Split(value, "\x1f")
}

// Save replaces the stored snapshot in one transaction.
func (s *Store) Save(ctx context.Context, history timeline.History) error {
	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save: %w", err)
	}
	defer tx.Rollback()

	visible := 0
	if history.VisibleToUser {
		visible = 1
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO sessions (id, title, participants, current_participants, summary, visible_to_user)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			participants = excluded.participants,
			current_participants = excluded.current_participants,
			summary = excluded.summary,
			visible_to_user = excluded.visible_to_user`,
		history.ID, history.Title,
		encodeNames(history.Participants), encodeNames(history.CurrentParticipants),
		history.Summary, visible,
	); err != nil {
		return fmt.Errorf("upsert session: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM events WHERE session_id = ?`, history.ID); err != nil {
		return fmt.Errorf("clear events: %w", err)
	}

	for position, record := range history.Events {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO events (session_id, position, type, id, timestamp,
				character, dialogue, action_description, location, description, circumstances)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			history.ID, position, string(record.Type), record.ID,
			record.Timestamp.UTC().Format(timestampLayout),
			record.Character, record.Dialogue, record.ActionDescription,
			record.Location, record.Description, record.Circumstances,
		); err != nil {
			return fmt.Errorf("insert event %d: %w", position, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit save: %w", err)
	}
	return nil
}

func (s *Store) Load(ctx context.Context, id string) (timeline.History, error) {
	history := timeline.History{ID: id}

	var participants, currentParticipants string
	var visible int
	err := s.sqlDB.QueryRowContext(ctx, `
		SELECT title, participants, current_participants, summary, visible_to_user
		FROM sessions WHERE id = ?`, id,
	).Scan(&history.Title, &participants, &currentParticipants, &history.Summary, &visible)
	if err != nil {
		return timeline.History{}, fmt.Errorf("load session: %w", err)
	}
	history.Participants = decodeNames(participants)
	history.CurrentParticipants = decodeNames(currentParticipants)
	history.VisibleToUser = visible != 0

	rows, err := s.sqlDB.QueryContext(ctx, `
		SELECT type, id, timestamp, character, dialogue, action_description,
			location, description, circumstances
		FROM events WHERE session_id = ? ORDER BY position`, id)
	if err != nil {
		return timeline.History{}, fmt.Errorf("load events: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		record := timeline.Record{}
		var kind, timestamp string
		if err := rows.Scan(&kind, &record.ID, &timestamp,
			&record.Character, &record.Dialogue, &record.ActionDescription,
			&record.Location, &record.Description, &record.Circumstances,
		); err != nil {
			return timeline.History{}, fmt.Errorf("scan event: %w", err)
		}
		record.Type = timeline.Kind(kind)
		if record.Timestamp, err = parseTimestamp(timestamp); err != nil {
			return timeline.History{}, err
		}
		history.Events = append(history.Events, record)
	}
	if err := rows.Err(); err != nil {
		return timeline.History{}, fmt.Errorf("iterate events: %w", err)
	}

	return history, nil
}

func parseTimestamp(value string) (time.Time, error) {
	parsed, err := time.Parse(timestampLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse event timestamp: %w", err)
	}
	return parsed, nil
}
