// Package archive persists completed call sessions. The store keeps the
// frozen transcript and intelligence record as JSON next to the queryable
// scalar columns, so the dashboard can both list sessions and sum the time
// wasted across them.
package archive

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/SPY-Github22/Shining-Zenith/internal/call"
	"github.com/SPY-Github22/Shining-Zenith/internal/intel"
)

// SQLiteStore implements session archival on SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the database at dsn and runs migrations.
func NewSQLiteStore(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

func (s *SQLiteStore) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			persona TEXT NOT NULL,
			started_at DATETIME NOT NULL,
			ended_at DATETIME NOT NULL,
			duration_ms INTEGER NOT NULL,
			scam_type TEXT NOT NULL,
			intel TEXT NOT NULL,
			turns TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_started ON sessions(started_at)`,
	}
	for _, m := range migrations {
		if _, err := s.db.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %w\n%s", err, m)
		}
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Save stores a frozen session. Saving the same id twice overwrites, which
// keeps End idempotent across retries.
func (s *SQLiteStore) Save(ctx context.Context, sess call.Session) error {
	intelJSON, err := json.Marshal(sess.Intel)
	if err != nil {
		return fmt.Errorf("encode intel: %w", err)
	}
	turnsJSON, err := json.Marshal(sess.Turns)
	if err != nil {
		return fmt.Errorf("encode turns: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO sessions (id, persona, started_at, ended_at, duration_ms, scam_type, intel, turns)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		sess.ID, sess.PersonaID, sess.StartedAt, sess.EndedAt,
		sess.Duration.Milliseconds(), sess.ScamType, string(intelJSON), string(turnsJSON))
	return err
}

// Get retrieves one archived session. Returns nil when the id is unknown.
func (s *SQLiteStore) Get(ctx context.Context, id string) (*call.Session, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, persona, started_at, ended_at, duration_ms, scam_type, intel, turns
		 FROM sessions WHERE id = ?`, id)
	sess, err := scanSession(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return sess, nil
}

// List returns archived sessions, newest first.
func (s *SQLiteStore) List(ctx context.Context) ([]call.Session, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, persona, started_at, ended_at, duration_ms, scam_type, intel, turns
		 FROM sessions ORDER BY started_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []call.Session
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, *sess)
	}
	return sessions, rows.Err()
}

// Delete removes an archived session.
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("no session %s", id)
	}
	return nil
}

// TotalDuration sums the scammer time wasted across all archived sessions.
func (s *SQLiteStore) TotalDuration(ctx context.Context) (time.Duration, error) {
	var ms sql.NullInt64
	err := s.db.QueryRowContext(ctx, `SELECT SUM(duration_ms) FROM sessions`).Scan(&ms)
	if err != nil {
		return 0, err
	}
	return time.Duration(ms.Int64) * time.Millisecond, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (*call.Session, error) {
	var sess call.Session
	var durationMS int64
	var intelJSON, turnsJSON string
	if err := row.Scan(&sess.ID, &sess.PersonaID, &sess.StartedAt, &sess.EndedAt,
		&durationMS, &sess.ScamType, &intelJSON, &turnsJSON); err != nil {
		return nil, err
	}
	sess.Duration = time.Duration(durationMS) * time.Millisecond
	sess.Intel = intel.NewRecord()
	if err := json.Unmarshal([]byte(intelJSON), &sess.Intel); err != nil {
		return nil, fmt.Errorf("decode intel: %w", err)
	}
	if err := json.Unmarshal([]byte(turnsJSON), &sess.Turns); err != nil {
		return nil, fmt.Errorf("decode turns: %w", err)
	}
	return &sess, nil
}
