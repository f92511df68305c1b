package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// Import log statuses.
const (
	ImportRunning = "running"
	ImportSuccess = "success"
	ImportError   = "error"
)

// ImportLog represents a single import operation's outcome.
type ImportLog struct {
	ID               int64            `json:"id"`
	UserID           string           `json:"user_id"`
	CreatedAt        time.Time        `json:"created_at"`
	Source           string           `json:"source"`
	Status           string           `json:"status"`
	SessionsReceived int              `json:"sessions_received"`
	SessionsInserted int              `json:"sessions_inserted"`
	SetsInserted     int              `json:"sets_inserted"`
	DurationMs       *int             `json:"duration_ms"`
	ErrorMessage     *string          `json:"error_message"`
	Metadata         *json.RawMessage `json:"metadata"`
}

// InsertImportLog creates a new import log entry and returns its ID.
func (db *DB) InsertImportLog(ctx context.Context, log ImportLog) (int64, error) {
	var id int64
	err := db.q.QueryRow(ctx,
		`INSERT INTO import_logs (user_id, source, status, sessions_received, sessions_inserted,
		 sets_inserted, duration_ms, error_message, metadata)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		 RETURNING id`,
		log.UserID, log.Source, log.Status, log.SessionsReceived, log.SessionsInserted,
		log.SetsInserted, log.DurationMs, log.ErrorMessage, log.Metadata,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("inserting import log: %w", err)
	}
	return id, nil
}

// UpdateImportLog updates an existing import log entry (typically from "running" to "success" or "error").
func (db *DB) UpdateImportLog(ctx context.Context, id int64, log ImportLog) error {
	_, err := db.q.Exec(ctx,
		`UPDATE import_logs SET
		 status = $2, sessions_received = $3, sessions_inserted = $4,
		 sets_inserted = $5, duration_ms = $6, error_message = $7, metadata = $8
		 WHERE id = $1`,
		id, log.Status, log.SessionsReceived, log.SessionsInserted,
		log.SetsInserted, log.DurationMs, log.ErrorMessage, log.Metadata,
	)
	if err != nil {
		return fmt.Errorf("updating import log %d: %w", id, err)
	}
	return nil
}

// QueryImportLogs returns the most recent import logs for a user.
func (db *DB) QueryImportLogs(ctx context.Context, userID string, limit int) ([]ImportLog, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := db.q.Query(ctx,
		`SELECT id, user_id, created_at, source, status, sessions_received, sessions_inserted,
		 sets_inserted, duration_ms, error_message, metadata
		 FROM import_logs
		 WHERE user_id = $1
		 ORDER BY created_at DESC
		 LIMIT $2`,
		userID, limit)
	if err != nil {
		return nil, fmt.Errorf("querying import logs: %w", err)
	}
	defer rows.Close()

	var result []ImportLog
	for rows.Next() {
		var l ImportLog
		if err := rows.Scan(&l.ID, &l.UserID, &l.CreatedAt, &l.Source, &l.Status,
			&l.SessionsReceived, &l.SessionsInserted, &l.SetsInserted,
			&l.DurationMs, &l.ErrorMessage, &l.Metadata); err != nil {
			return nil, fmt.Errorf("scanning import log: %w", err)
		}
		result = append(result, l)
	}
	return result, rows.Err()
}
