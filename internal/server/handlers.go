package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/claude/trainload/internal/analytics"
	"github.com/claude/trainload/internal/export"
	"github.com/claude/trainload/internal/ingest"
	"github.com/claude/trainload/internal/ingest/alpha"
	"github.com/claude/trainload/internal/models"
	"github.com/claude/trainload/internal/storage"
)

// maxIngestBytes caps request bodies on the ingest endpoints.
const maxIngestBytes = 32 << 20

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, userInfoFromContext(r))
}

func (s *Server) handleAnalytics(w http.ResponseWriter, r *http.Request) {
	include, err := analytics.ParseInclude(r.URL.Query().Get("include"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	snap, err := s.svc.Snapshot(r.Context(), userIDFromContext(r), include)
	if err != nil {
		s.log.Error("snapshot failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleSessions(w http.ResponseWriter, r *http.Request) {
	start, end, ranged, err := parseTimeRange(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	sessions, err := s.svc.Sessions(r.Context(), userIDFromContext(r))
	if err != nil {
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": err.Error()})
		return
	}

	exercise := r.URL.Query().Get("exercise")
	if ranged || exercise != "" {
		if !ranged {
			start, end = time.Time{}, time.Now().AddDate(100, 0, 0)
		}
		sessions = analytics.FilterSessions(sessions, start, end, exercise)
	}
	if sessions == nil {
		sessions = []models.WorkoutSession{}
	}
	writeJSON(w, http.StatusOK, sessions)
}

func (s *Server) handleExportLoad(w http.ResponseWriter, r *http.Request) {
	samples, err := s.svc.LoadSeries(r.Context(), userIDFromContext(r))
	if err != nil {
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": err.Error()})
		return
	}

	data, err := export.MarshalLoadSeries(samples)
	if err != nil {
		s.log.Error("parquet export failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	w.Header().Set("Content-Type", "application/vnd.apache.parquet")
	w.Header().Set("Content-Disposition", `attachment; filename="load.parquet"`)
	w.WriteHeader(http.StatusOK)
	w.Write(data) //nolint:errcheck
}

func (s *Server) handleAlphaIngest(w http.ResponseWriter, r *http.Request) {
	uid := userIDFromContext(r)
	body := http.MaxBytesReader(w, r.Body, maxIngestBytes)
	meta := map[string]any{"filename": r.Header.Get("X-Filename")}

	result, err := s.runImport(r.Context(), uid, "alpha", meta, func(ctx context.Context) (*ingest.Result, error) {
		return s.alpha.Ingest(ctx, body, uid)
	})
	if err != nil {
		s.log.Error("alpha ingest error", "error", err)
		status := http.StatusInternalServerError
		if errors.Is(err, alpha.ErrInvalidExport) {
			status = http.StatusBadRequest
		}
		writeJSON(w, status, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleSessionsIngest(w http.ResponseWriter, r *http.Request) {
	uid := userIDFromContext(r)

	var batch models.SessionBatch
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxIngestBytes)).Decode(&batch); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}
	if err := normalizeBatch(uid, batch.Sessions); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	meta := map[string]any{"user_agent": r.UserAgent()}
	result, err := s.runImport(r.Context(), uid, "upload", meta, func(ctx context.Context) (*ingest.Result, error) {
		res := &ingest.Result{}
		res.Tally(batch.Sessions)
		if len(batch.Sessions) == 0 {
			res.Message = "no sessions found"
			return res, nil
		}
		n, err := s.store.UpsertSessions(ctx, uid, batch.Sessions)
		if err != nil {
			return nil, fmt.Errorf("storing sessions: %w", err)
		}
		res.SessionsInserted = n
		res.SetsInserted = res.SetsReceived
		return res, nil
	})
	if err != nil {
		s.log.Error("session ingest error", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleImportLogs(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if l := r.URL.Query().Get("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	logs, err := s.store.QueryImportLogs(r.Context(), userIDFromContext(r), limit)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if logs == nil {
		logs = []storage.ImportLog{}
	}
	writeJSON(w, http.StatusOK, logs)
}

// runImport wraps an ingest in an import_logs row: inserted as running,
// then finalized with the outcome. Bookkeeping failures are logged only.
func (s *Server) runImport(ctx context.Context, userID, source string, meta map[string]any, run func(context.Context) (*ingest.Result, error)) (*ingest.Result, error) {
	started := time.Now()
	rawMeta := rawJSON(meta)

	logID, logErr := s.store.InsertImportLog(ctx, storage.ImportLog{
		UserID:   userID,
		Source:   source,
		Status:   storage.ImportRunning,
		Metadata: rawMeta,
	})
	if logErr != nil {
		s.log.Error("failed to create import log", "error", logErr)
	}

	result, err := run(ctx)

	if s.metrics != nil && result != nil {
		s.metrics.CounterIngestedSessions.WithLabelValues(source).Add(float64(result.SessionsInserted))
	}
	if logErr != nil {
		return result, err
	}

	durationMs := int(time.Since(started).Milliseconds())
	final := storage.ImportLog{
		Status:     storage.ImportSuccess,
		DurationMs: &durationMs,
		Metadata:   rawMeta,
	}
	if err != nil {
		msg := err.Error()
		final.Status = storage.ImportError
		final.ErrorMessage = &msg
	} else {
		final.SessionsReceived = result.SessionsReceived
		final.SessionsInserted = result.SessionsInserted
		final.SetsInserted = result.SetsInserted
	}
	// The request context may already be done; the log row must still close.
	updCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if uerr := s.store.UpdateImportLog(updCtx, logID, final); uerr != nil {
		s.log.Error("failed to finalize import log", "log_id", logID, "error", uerr)
	}
	return result, err
}

// normalizeBatch checks uploaded sessions and fills server-side fields.
func normalizeBatch(userID string, sessions []models.WorkoutSession) error {
	for i := range sessions {
		ws := &sessions[i]
		if ws.ID == "" {
			return fmt.Errorf("session %d: id is required", i)
		}
		if _, ok := ws.Timestamp(); !ok {
			return fmt.Errorf("session %s: no date, start or end time", ws.ID)
		}
		if ws.Date.IsZero() {
			ws.Date, _ = ws.Timestamp()
		}
		if ws.Source == "" {
			ws.Source = "upload"
		}
		ws.UserID = userID
	}
	return nil
}

func rawJSON(v any) *json.RawMessage {
	b, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	raw := json.RawMessage(b)
	return &raw
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

var errBadTime = errors.New("expected RFC 3339 or YYYY-MM-DD")

// parseTimeRange reads optional start and end parameters. ranged is false
// when neither is given. A date-only end covers that whole day.
func parseTimeRange(r *http.Request) (start, end time.Time, ranged bool, err error) {
	startStr := r.URL.Query().Get("start")
	endStr := r.URL.Query().Get("end")
	if startStr == "" && endStr == "" {
		return time.Time{}, time.Time{}, false, nil
	}

	if startStr != "" {
		if start, _, err = parseTime(startStr); err != nil {
			return time.Time{}, time.Time{}, false, fmt.Errorf("start: %w", err)
		}
	}

	end = time.Now()
	if endStr != "" {
		var dateOnly bool
		if end, dateOnly, err = parseTime(endStr); err != nil {
			return time.Time{}, time.Time{}, false, fmt.Errorf("end: %w", err)
		}
		if dateOnly {
			end = end.Add(24 * time.Hour)
		}
	}
	return start, end, true, nil
}

func parseTime(s string) (t time.Time, dateOnly bool, err error) {
	if t, err = time.Parse(time.RFC3339, s); err == nil {
		return t, false, nil
	}
	if t, err = time.Parse(time.DateOnly, s); err == nil {
		return t, true, nil
	}
	return time.Time{}, false, fmt.Errorf("%w, got %q", errBadTime, s)
}
