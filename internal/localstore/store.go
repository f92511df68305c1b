// Package localstore keeps the on-device copy of a user's sessions in
// SQLite and tracks which of them still need to reach the server.
package localstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite"

	"github.com/claude/trainload/internal/analytics"
	"github.com/claude/trainload/internal/models"
)

// ErrClosed is returned by every operation after Close.
var ErrClosed = errors.New("local store closed")

// IDPrefix marks ids owned by the local store.
const IDPrefix = "session_"

const schema = `
CREATE TABLE IF NOT EXISTS local_sessions (
	id                TEXT PRIMARY KEY,
	user_id           TEXT NOT NULL,
	name              TEXT NOT NULL DEFAULT '',
	date              TEXT NOT NULL,
	start_time        TEXT,
	end_time          TEXT,
	total_volume_load REAL,
	source            TEXT NOT NULL DEFAULT '',
	updated_at        TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
	synced_at         TIMESTAMP
);
CREATE INDEX IF NOT EXISTS local_sessions_user ON local_sessions (user_id, date);
CREATE TABLE IF NOT EXISTS local_sets (
	session_id    TEXT NOT NULL,
	position      INTEGER NOT NULL,
	exercise_id   TEXT NOT NULL,
	exercise_name TEXT NOT NULL DEFAULT '',
	weight        REAL NOT NULL,
	reps          REAL NOT NULL,
	rpe           REAL,
	completed     INTEGER NOT NULL,
	set_type      TEXT NOT NULL DEFAULT '',
	PRIMARY KEY (session_id, position)
);`

// Store is the SQLite-backed local session source.
type Store struct {
	db     *sql.DB
	closed atomic.Bool
}

// Open opens (or creates) the store at dir/trainload.db.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating local store dir %s: %w", dir, err)
	}

	db, err := sql.Open("sqlite", filepath.Join(dir, "trainload.db"))
	if err != nil {
		return nil, fmt.Errorf("opening local store: %w", err)
	}
	// one writer keeps sqlite from returning SQLITE_BUSY
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating local store tables: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	return s.db.Close()
}

func (s *Store) check() error {
	if s.closed.Load() {
		return ErrClosed
	}
	return nil
}

// UpsertSessions stores sessions for a user, replacing each session's sets.
// A rewritten session is marked unsynced again.
func (s *Store) UpsertSessions(ctx context.Context, userID string, sessions []models.WorkoutSession) (int, error) {
	if err := s.check(); err != nil {
		return 0, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	for _, ws := range sessions {
		id := IDPrefix + analytics.NormalizeID(ws.ID)
		_, err := tx.ExecContext(ctx, `
			INSERT INTO local_sessions (id, user_id, name, date, start_time, end_time, total_volume_load, source, updated_at, synced_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP, NULL)
			ON CONFLICT (id) DO UPDATE SET
				user_id = excluded.user_id,
				name = excluded.name,
				date = excluded.date,
				start_time = excluded.start_time,
				end_time = excluded.end_time,
				total_volume_load = excluded.total_volume_load,
				source = excluded.source,
				updated_at = CURRENT_TIMESTAMP,
				synced_at = NULL`,
			id, userID, ws.Name, formatTime(ws.Date), nullTime(ws.StartTime), nullTime(ws.EndTime),
			nullFloat(ws.TotalVolumeLoad), ws.Source,
		)
		if err != nil {
			return 0, fmt.Errorf("upserting session %s: %w", id, err)
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM local_sets WHERE session_id = ?`, id); err != nil {
			return 0, fmt.Errorf("clearing sets of %s: %w", id, err)
		}
		for i, set := range ws.Sets {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO local_sets (session_id, position, exercise_id, exercise_name, weight, reps, rpe, completed, set_type)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				id, i, set.ExerciseID, set.ExerciseName, set.Weight, set.Reps,
				nullFloat(set.RPE), set.Completed, string(set.SetType),
			)
			if err != nil {
				return 0, fmt.Errorf("inserting set %d of %s: %w", i, id, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return len(sessions), nil
}

// Sessions returns every stored session of the user, oldest first.
func (s *Store) Sessions(ctx context.Context, userID string) ([]models.WorkoutSession, error) {
	if err := s.check(); err != nil {
		return nil, err
	}
	return s.query(ctx, `WHERE s.user_id = ?`, userID)
}

// Unsynced returns the user's sessions not yet acknowledged by the server.
func (s *Store) Unsynced(ctx context.Context, userID string) ([]models.WorkoutSession, error) {
	if err := s.check(); err != nil {
		return nil, err
	}
	return s.query(ctx, `WHERE s.user_id = ? AND s.synced_at IS NULL`, userID)
}

// MarkSynced records that the given sessions reached the server.
func (s *Store) MarkSynced(ctx context.Context, ids []string) error {
	if err := s.check(); err != nil {
		return err
	}
	if len(ids) == 0 {
		return nil
	}

	placeholders := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		placeholders[i] = "?"
		args[i] = IDPrefix + analytics.NormalizeID(id)
	}
	_, err := s.db.ExecContext(ctx,
		`UPDATE local_sessions SET synced_at = CURRENT_TIMESTAMP WHERE id IN (`+strings.Join(placeholders, ",")+`)`,
		args...,
	)
	if err != nil {
		return fmt.Errorf("marking sessions synced: %w", err)
	}
	return nil
}

type sessionRow struct {
	id              string
	userID          string
	name            string
	date            string
	startTime       sql.NullString
	endTime         sql.NullString
	totalVolumeLoad sql.NullFloat64
	source          string
}

type setRow struct {
	sessionID    string
	exerciseID   string
	exerciseName string
	weight       float64
	reps         float64
	rpe          sql.NullFloat64
	completed    bool
	setType      string
}

func (s *Store) query(ctx context.Context, where string, args ...any) ([]models.WorkoutSession, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT s.id, s.user_id, s.name, s.date, s.start_time, s.end_time, s.total_volume_load, s.source
		FROM local_sessions s `+where+`
		ORDER BY s.date, s.id`, args...)
	if err != nil {
		return nil, fmt.Errorf("querying local sessions: %w", err)
	}
	defer rows.Close()

	var sessions []models.WorkoutSession
	index := make(map[string]int)
	for rows.Next() {
		var r sessionRow
		if err := rows.Scan(&r.id, &r.userID, &r.name, &r.date, &r.startTime, &r.endTime, &r.totalVolumeLoad, &r.source); err != nil {
			return nil, fmt.Errorf("scanning local session: %w", err)
		}
		ws, err := toSession(r)
		if err != nil {
			return nil, err
		}
		index[r.id] = len(sessions)
		sessions = append(sessions, ws)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(sessions) == 0 {
		return nil, nil
	}

	setRows, err := s.db.QueryContext(ctx, `
		SELECT t.session_id, t.exercise_id, t.exercise_name, t.weight, t.reps, t.rpe, t.completed, t.set_type
		FROM local_sets t
		JOIN local_sessions s ON s.id = t.session_id `+where+`
		ORDER BY t.session_id, t.position`, args...)
	if err != nil {
		return nil, fmt.Errorf("querying local sets: %w", err)
	}
	defer setRows.Close()

	for setRows.Next() {
		var r setRow
		if err := setRows.Scan(&r.sessionID, &r.exerciseID, &r.exerciseName, &r.weight, &r.reps, &r.rpe, &r.completed, &r.setType); err != nil {
			return nil, fmt.Errorf("scanning local set: %w", err)
		}
		i, ok := index[r.sessionID]
		if !ok {
			continue
		}
		sessions[i].Sets = append(sessions[i].Sets, toSet(r))
	}
	return sessions, setRows.Err()
}

// toSession maps a local row to the canonical session.
func toSession(r sessionRow) (models.WorkoutSession, error) {
	ws := models.WorkoutSession{
		ID:     r.id,
		UserID: r.userID,
		Name:   r.name,
		Source: r.source,
	}
	var err error
	if ws.Date, err = parseTime(r.date); err != nil {
		return ws, fmt.Errorf("session %s date: %w", r.id, err)
	}
	if r.startTime.Valid {
		if ws.StartTime, err = parseTime(r.startTime.String); err != nil {
			return ws, fmt.Errorf("session %s start: %w", r.id, err)
		}
	}
	if r.endTime.Valid {
		if ws.EndTime, err = parseTime(r.endTime.String); err != nil {
			return ws, fmt.Errorf("session %s end: %w", r.id, err)
		}
	}
	if r.totalVolumeLoad.Valid {
		v := r.totalVolumeLoad.Float64
		ws.TotalVolumeLoad = &v
	}
	return ws, nil
}

func toSet(r setRow) models.SetRecord {
	set := models.SetRecord{
		ExerciseID:   r.exerciseID,
		ExerciseName: r.exerciseName,
		Weight:       r.weight,
		Reps:         r.reps,
		Completed:    r.completed,
		SetType:      models.SetType(r.setType),
	}
	if r.rpe.Valid {
		v := r.rpe.Float64
		set.RPE = &v
	}
	return set
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func nullTime(t time.Time) sql.NullString {
	if t.IsZero() {
		return sql.NullString{}
	}
	return sql.NullString{String: formatTime(t), Valid: true}
}

func nullFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}
