package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/claude/trainload/internal/analytics"
	"github.com/claude/trainload/internal/models"
)

const setColumns = 10

// UpsertSessions stores sessions for a user. Each session row is upserted
// and its sets are replaced, all in one transaction. Sessions without an id
// get a random one.
func (db *DB) UpsertSessions(ctx context.Context, userID string, sessions []models.WorkoutSession) (int, error) {
	if len(sessions) == 0 {
		return 0, nil
	}

	tx, err := db.q.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	for _, ws := range sessions {
		id := analytics.NormalizeID(ws.ID)
		if id == "" {
			id = uuid.NewString()
		}

		_, err := tx.Exec(ctx,
			`INSERT INTO workout_sessions (id, user_id, name, date, start_time, end_time, total_volume_load, source)
			 VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
			 ON CONFLICT (user_id, id) DO UPDATE SET
			 name = EXCLUDED.name, date = EXCLUDED.date,
			 start_time = EXCLUDED.start_time, end_time = EXCLUDED.end_time,
			 total_volume_load = EXCLUDED.total_volume_load, source = EXCLUDED.source,
			 updated_at = now()`,
			id, userID, ws.Name, ws.Date, nullTime(ws.StartTime), nullTime(ws.EndTime),
			ws.TotalVolumeLoad, ws.Source)
		if err != nil {
			return 0, fmt.Errorf("upserting session %s: %w", id, err)
		}

		if _, err := tx.Exec(ctx,
			`DELETE FROM workout_session_sets WHERE user_id = $1 AND session_id = $2`,
			userID, id); err != nil {
			return 0, fmt.Errorf("clearing sets of %s: %w", id, err)
		}

		if err := insertSets(ctx, tx, userID, id, ws.Sets); err != nil {
			return 0, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return len(sessions), nil
}

// insertSets batch-inserts one session's sets.
func insertSets(ctx context.Context, tx pgx.Tx, userID, sessionID string, sets []models.SetRecord) error {
	if len(sets) == 0 {
		return nil
	}

	query := `INSERT INTO workout_session_sets (user_id, session_id, position, exercise_id,
		exercise_name, weight, reps, rpe, completed, set_type) VALUES `
	args := make([]any, 0, len(sets)*setColumns)
	valueStrings := make([]string, 0, len(sets))

	for i, s := range sets {
		base := i * setColumns
		valueStrings = append(valueStrings, fmt.Sprintf(
			"($%d,$%d,$%d,$%d,$%d,$%d,$%d,$%d,$%d,$%d)",
			base+1, base+2, base+3, base+4, base+5,
			base+6, base+7, base+8, base+9, base+10,
		))
		args = append(args, userID, sessionID, i, s.ExerciseID,
			s.ExerciseName, s.Weight, s.Reps, s.RPE, s.Completed, string(s.SetType))
	}

	query += strings.Join(valueStrings, ",")

	if _, err := tx.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("inserting sets of %s: %w", sessionID, err)
	}
	return nil
}

// Sessions returns every stored session of the user, oldest first.
func (db *DB) Sessions(ctx context.Context, userID string) ([]models.WorkoutSession, error) {
	return db.querySessions(ctx, `s.user_id = $1`, userID)
}

// QuerySessions returns the user's sessions dated in [start, end).
func (db *DB) QuerySessions(ctx context.Context, userID string, start, end time.Time) ([]models.WorkoutSession, error) {
	return db.querySessions(ctx, `s.user_id = $1 AND s.date >= $2 AND s.date < $3`, userID, start, end)
}

type sessionRow struct {
	ID              string
	UserID          string
	Name            string
	Date            time.Time
	StartTime       *time.Time
	EndTime         *time.Time
	TotalVolumeLoad *float64
	Source          string
}

type setRow struct {
	SessionID    string
	ExerciseID   string
	ExerciseName string
	Weight       float64
	Reps         float64
	RPE          *float64
	Completed    bool
	SetType      string
}

func (db *DB) querySessions(ctx context.Context, where string, args ...any) ([]models.WorkoutSession, error) {
	rows, err := db.q.Query(ctx,
		`SELECT s.id, s.user_id, s.name, s.date, s.start_time, s.end_time, s.total_volume_load, s.source
		 FROM workout_sessions s
		 WHERE `+where+`
		 ORDER BY s.date ASC, s.id ASC`,
		args...)
	if err != nil {
		return nil, fmt.Errorf("querying sessions: %w", err)
	}
	defer rows.Close()

	var sessions []models.WorkoutSession
	index := make(map[string]int)
	for rows.Next() {
		var r sessionRow
		if err := rows.Scan(&r.ID, &r.UserID, &r.Name, &r.Date, &r.StartTime, &r.EndTime,
			&r.TotalVolumeLoad, &r.Source); err != nil {
			return nil, fmt.Errorf("scanning session: %w", err)
		}
		index[r.ID] = len(sessions)
		sessions = append(sessions, toSession(r))
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(sessions) == 0 {
		return nil, nil
	}

	setRows, err := db.q.Query(ctx,
		`SELECT t.session_id, t.exercise_id, t.exercise_name, t.weight, t.reps, t.rpe, t.completed, t.set_type
		 FROM workout_session_sets t
		 JOIN workout_sessions s ON s.user_id = t.user_id AND s.id = t.session_id
		 WHERE `+where+`
		 ORDER BY t.session_id ASC, t.position ASC`,
		args...)
	if err != nil {
		return nil, fmt.Errorf("querying sets: %w", err)
	}
	defer setRows.Close()

	for setRows.Next() {
		var r setRow
		if err := setRows.Scan(&r.SessionID, &r.ExerciseID, &r.ExerciseName, &r.Weight, &r.Reps,
			&r.RPE, &r.Completed, &r.SetType); err != nil {
			return nil, fmt.Errorf("scanning set: %w", err)
		}
		i, ok := index[r.SessionID]
		if !ok {
			continue
		}
		sessions[i].Sets = append(sessions[i].Sets, toSet(r))
	}
	return sessions, setRows.Err()
}

// toSession maps a stored row to the canonical session.
func toSession(r sessionRow) models.WorkoutSession {
	ws := models.WorkoutSession{
		ID:              r.ID,
		UserID:          r.UserID,
		Name:            r.Name,
		Date:            r.Date.UTC(),
		TotalVolumeLoad: r.TotalVolumeLoad,
		Source:          r.Source,
	}
	if r.StartTime != nil {
		ws.StartTime = r.StartTime.UTC()
	}
	if r.EndTime != nil {
		ws.EndTime = r.EndTime.UTC()
	}
	return ws
}

func toSet(r setRow) models.SetRecord {
	return models.SetRecord{
		ExerciseID:   r.ExerciseID,
		ExerciseName: r.ExerciseName,
		Weight:       r.Weight,
		Reps:         r.Reps,
		RPE:          r.RPE,
		Completed:    r.Completed,
		SetType:      models.SetType(r.SetType),
	}
}

func nullTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
