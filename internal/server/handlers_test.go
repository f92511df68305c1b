package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/claude/trainload/internal/analytics"
	"github.com/claude/trainload/internal/ingest"
	"github.com/claude/trainload/internal/ingest/alpha"
	"github.com/claude/trainload/internal/models"
	"github.com/claude/trainload/internal/storage"
	"github.com/claude/trainload/internal/telemetry/metrics"
)

type fakeAnalytics struct {
	snap     *models.AnalyticsSnapshot
	sessions []models.WorkoutSession
	samples  []models.TrainingLoadSample
	err      error

	gotUser    string
	gotInclude analytics.Include
}

func (f *fakeAnalytics) Snapshot(_ context.Context, userID string, include analytics.Include) (*models.AnalyticsSnapshot, error) {
	f.gotUser, f.gotInclude = userID, include
	if f.err != nil {
		return nil, f.err
	}
	return f.snap, nil
}

func (f *fakeAnalytics) Sessions(_ context.Context, userID string) ([]models.WorkoutSession, error) {
	f.gotUser = userID
	return f.sessions, f.err
}

func (f *fakeAnalytics) LoadSeries(_ context.Context, userID string) ([]models.TrainingLoadSample, error) {
	f.gotUser = userID
	return f.samples, f.err
}

type fakeStore struct {
	stored    []models.WorkoutSession
	storedFor string
	upsertErr error

	inserted []storage.ImportLog
	updated  []storage.ImportLog
	logs     []storage.ImportLog
	gotLimit int
}

func (f *fakeStore) UpsertSessions(_ context.Context, userID string, sessions []models.WorkoutSession) (int, error) {
	if f.upsertErr != nil {
		return 0, f.upsertErr
	}
	f.storedFor = userID
	f.stored = append(f.stored, sessions...)
	return len(sessions), nil
}

func (f *fakeStore) InsertImportLog(_ context.Context, log storage.ImportLog) (int64, error) {
	f.inserted = append(f.inserted, log)
	return int64(len(f.inserted)), nil
}

func (f *fakeStore) UpdateImportLog(_ context.Context, _ int64, log storage.ImportLog) error {
	f.updated = append(f.updated, log)
	return nil
}

func (f *fakeStore) QueryImportLogs(_ context.Context, _ string, limit int) ([]storage.ImportLog, error) {
	f.gotLimit = limit
	return f.logs, nil
}

func newTestServer(svc *fakeAnalytics, store *fakeStore) *Server {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(svc, store, alpha.NewProvider(store, log), "secret", log)
}

func do(h http.Handler, method, target string, body io.Reader, apiKey string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, body)
	if apiKey != "" {
		req.Header.Set("X-API-Key", apiKey)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

const alphaCSV = `"Push";"2024-03-01 17:04 h";"45 min"
"1. Bench Press · Barbell · 6 reps";"WU1 · 40 kg · 10 reps"
#;KG;REPS;RIR
1;100;6;2
2;100;6;-
`

// TestHandleMeDefault verifies the /api/v1/me endpoint returns the dev user
// identity when no Tailscale middleware is active.
func TestHandleMeDefault(t *testing.T) {
	s := newTestServer(&fakeAnalytics{}, &fakeStore{})
	s.SetDevUser("alice")

	rec := do(s.Handler(), http.MethodGet, "/api/v1/me", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var info UserInfo
	if err := json.NewDecoder(rec.Body).Decode(&info); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if info.Login != "alice" {
		t.Errorf("login = %q, want %q", info.Login, "alice")
	}
	if info.DisplayName != "Local Dev User" {
		t.Errorf("display_name = %q, want %q", info.DisplayName, "Local Dev User")
	}
}

// TestHandleMeTailscaleUser verifies the /api/v1/me endpoint returns the
// Tailscale user identity when set in context.
func TestHandleMeTailscaleUser(t *testing.T) {
	s := &Server{}
	req := httptest.NewRequest(http.MethodGet, "/api/v1/me", nil)
	ctx := context.WithValue(req.Context(), userInfoKey, UserInfo{Login: "alice@example.com", DisplayName: "Alice"})
	req = req.WithContext(ctx)
	rec := httptest.NewRecorder()

	s.handleMe(rec, req)

	var info UserInfo
	if err := json.NewDecoder(rec.Body).Decode(&info); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if info.Login != "alice@example.com" || info.DisplayName != "Alice" {
		t.Errorf("info = %+v, want alice@example.com/Alice", info)
	}
}

// TestHealthz verifies the liveness endpoint needs no identity or key.
func TestHealthz(t *testing.T) {
	s := newTestServer(&fakeAnalytics{}, &fakeStore{})
	s.SetTailscale(&fakeWhoIs{err: errors.New("not a peer")})

	rec := do(s.Handler(), http.MethodGet, "/healthz", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}

// TestAnalyticsPassesIncludeAndUser verifies that the include list is parsed
// and the snapshot is requested for the caller.
func TestAnalyticsPassesIncludeAndUser(t *testing.T) {
	svc := &fakeAnalytics{snap: &models.AnalyticsSnapshot{UserID: "alice", SessionCount: 4}}
	s := newTestServer(svc, &fakeStore{})
	s.SetDevUser("alice")

	rec := do(s.Handler(), http.MethodGet, "/api/v1/analytics?include=acwr,sfr", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	if svc.gotUser != "alice" {
		t.Errorf("user = %q, want alice", svc.gotUser)
	}
	if svc.gotInclude != analytics.IncludeACWR|analytics.IncludeSFR {
		t.Errorf("include = %b, want acwr|sfr", svc.gotInclude)
	}

	var snap models.AnalyticsSnapshot
	if err := json.NewDecoder(rec.Body).Decode(&snap); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if snap.SessionCount != 4 {
		t.Errorf("session count = %d, want 4", snap.SessionCount)
	}
}

// TestAnalyticsErrors verifies status codes for a bad include list and a
// failing snapshot.
func TestAnalyticsErrors(t *testing.T) {
	tests := []struct {
		name   string
		target string
		err    error
		want   int
	}{
		{"unknown view", "/api/v1/analytics?include=vo2max", nil, http.StatusBadRequest},
		{"snapshot failure", "/api/v1/analytics", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		s := newTestServer(&fakeAnalytics{err: tt.err}, &fakeStore{})
		rec := do(s.Handler(), http.MethodGet, tt.target, nil, "")
		if rec.Code != tt.want {
			t.Errorf("%s: status = %d, want %d", tt.name, rec.Code, tt.want)
		}
	}
}

// TestSessionsRange verifies the optional date range, the exercise filter
// and the empty-array encoding.
func TestSessionsRange(t *testing.T) {
	day := time.Date(2024, 3, 1, 18, 0, 0, 0, time.UTC)
	svc := &fakeAnalytics{sessions: []models.WorkoutSession{
		{ID: "a", Date: day.AddDate(0, 0, -1), Sets: []models.SetRecord{{ExerciseID: "squat"}}},
		{ID: "b", Date: day, Sets: []models.SetRecord{{ExerciseID: "bench_press"}}},
		{ID: "c", Date: day.AddDate(0, 0, 1), Sets: []models.SetRecord{{ExerciseID: "squat"}}},
	}}
	s := newTestServer(svc, &fakeStore{})
	h := s.Handler()

	tests := []struct {
		target string
		want   []string
	}{
		{"/api/v1/sessions", []string{"a", "b", "c"}},
		{"/api/v1/sessions?start=2024-03-01&end=2024-03-01", []string{"b"}},
		{"/api/v1/sessions?start=2024-03-01T00:00:00Z", []string{"b", "c"}},
		{"/api/v1/sessions?exercise=squat", []string{"a", "c"}},
		{"/api/v1/sessions?start=2030-01-01", []string{}},
	}
	for _, tt := range tests {
		rec := do(h, http.MethodGet, tt.target, nil, "")
		if rec.Code != http.StatusOK {
			t.Fatalf("%s: status = %d", tt.target, rec.Code)
		}
		var got []models.WorkoutSession
		if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
			t.Fatalf("%s: decode: %v", tt.target, err)
		}
		if got == nil {
			t.Errorf("%s: decoded null, want array", tt.target)
		}
		ids := make([]string, 0, len(got))
		for _, ws := range got {
			ids = append(ids, ws.ID)
		}
		if strings.Join(ids, ",") != strings.Join(tt.want, ",") {
			t.Errorf("%s: ids = %v, want %v", tt.target, ids, tt.want)
		}
	}

	if rec := do(h, http.MethodGet, "/api/v1/sessions?start=yesterday", nil, ""); rec.Code != http.StatusBadRequest {
		t.Errorf("bad start: status = %d, want 400", rec.Code)
	}
}

// TestSessionsSourceFailure verifies that a failed fetch maps to 502.
func TestSessionsSourceFailure(t *testing.T) {
	s := newTestServer(&fakeAnalytics{err: errors.New("all sources failed")}, &fakeStore{})
	if rec := do(s.Handler(), http.MethodGet, "/api/v1/sessions", nil, ""); rec.Code != http.StatusBadGateway {
		t.Errorf("status = %d, want 502", rec.Code)
	}
}

// TestExportLoad verifies the Parquet download.
func TestExportLoad(t *testing.T) {
	day := time.Date(2024, 3, 1, 18, 0, 0, 0, time.UTC)
	svc := &fakeAnalytics{samples: []models.TrainingLoadSample{
		{Date: day, Load: 1000},
		{Date: day.AddDate(0, 0, 2), Load: 800},
	}}
	s := newTestServer(svc, &fakeStore{})

	rec := do(s.Handler(), http.MethodGet, "/api/v1/export/load.parquet", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/vnd.apache.parquet" {
		t.Errorf("content type = %q", ct)
	}
	if !bytes.HasPrefix(rec.Body.Bytes(), []byte("PAR1")) {
		t.Errorf("body does not start with the parquet magic")
	}
}

// TestIngestRequiresAPIKey verifies both ingest endpoints reject missing
// and wrong keys.
func TestIngestRequiresAPIKey(t *testing.T) {
	store := &fakeStore{}
	h := newTestServer(&fakeAnalytics{}, store).Handler()

	for _, path := range []string{"/api/v1/ingest/alpha", "/api/v1/ingest/sessions"} {
		if rec := do(h, http.MethodPost, path, strings.NewReader("{}"), ""); rec.Code != http.StatusUnauthorized {
			t.Errorf("%s without key: status = %d, want 401", path, rec.Code)
		}
		if rec := do(h, http.MethodPost, path, strings.NewReader("{}"), "nope"); rec.Code != http.StatusForbidden {
			t.Errorf("%s wrong key: status = %d, want 403", path, rec.Code)
		}
	}
	if len(store.inserted) != 0 {
		t.Errorf("import logs written for rejected requests: %d", len(store.inserted))
	}
}

// TestIngestSessions verifies the uploader endpoint stores the batch for the
// caller and closes its import log.
func TestIngestSessions(t *testing.T) {
	store := &fakeStore{}
	s := newTestServer(&fakeAnalytics{}, store)
	s.SetDevUser("alice")
	m, _ := metrics.NewTestManagerAndRegistry()
	s.SetMetrics(m, nil)

	rpe := 8.0
	batch := models.SessionBatch{Sessions: []models.WorkoutSession{{
		ID:      "session_1",
		EndTime: time.Date(2024, 3, 1, 19, 0, 0, 0, time.UTC),
		Sets: []models.SetRecord{
			{ExerciseID: "squat", Weight: 100, Reps: 5, RPE: &rpe, Completed: true},
			{ExerciseID: "squat", Weight: 60, Reps: 5, Completed: true, SetType: models.SetTypeWarmup},
		},
	}}}
	body, _ := json.Marshal(batch)

	rec := do(s.Handler(), http.MethodPost, "/api/v1/ingest/sessions", bytes.NewReader(body), "secret")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}

	var res ingest.Result
	if err := json.NewDecoder(rec.Body).Decode(&res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if res.SessionsInserted != 1 || res.SetsInserted != 2 || res.WarmupSets != 1 {
		t.Errorf("result = %+v", res)
	}

	if store.storedFor != "alice" || len(store.stored) != 1 {
		t.Fatalf("stored %d sessions for %q", len(store.stored), store.storedFor)
	}
	got := store.stored[0]
	if got.Source != "upload" || got.UserID != "alice" || got.Date.IsZero() {
		t.Errorf("stored session = %+v", got)
	}

	if len(store.inserted) != 1 || store.inserted[0].Status != storage.ImportRunning || store.inserted[0].Source != "upload" {
		t.Errorf("inserted logs = %+v", store.inserted)
	}
	if len(store.updated) != 1 || store.updated[0].Status != storage.ImportSuccess || store.updated[0].SetsInserted != 2 {
		t.Errorf("updated logs = %+v", store.updated)
	}
}

// TestIngestSessionsValidation verifies malformed batches are rejected before
// anything is written.
func TestIngestSessionsValidation(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"invalid JSON", `{"sessions":`},
		{"missing id", `{"sessions":[{"date":"2024-03-01T00:00:00Z","sets":[]}]}`},
		{"undated", `{"sessions":[{"id":"x","sets":[]}]}`},
	}
	for _, tt := range tests {
		store := &fakeStore{}
		h := newTestServer(&fakeAnalytics{}, store).Handler()
		rec := do(h, http.MethodPost, "/api/v1/ingest/sessions", strings.NewReader(tt.body), "secret")
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", tt.name, rec.Code)
		}
		if len(store.stored) != 0 || len(store.inserted) != 0 {
			t.Errorf("%s: wrote %d sessions, %d logs", tt.name, len(store.stored), len(store.inserted))
		}
	}
}

// TestIngestSessionsStoreFailure verifies a failed write is recorded in the
// import log.
func TestIngestSessionsStoreFailure(t *testing.T) {
	store := &fakeStore{upsertErr: errors.New("db down")}
	h := newTestServer(&fakeAnalytics{}, store).Handler()

	body := `{"sessions":[{"id":"x","date":"2024-03-01T00:00:00Z","sets":[]}]}`
	rec := do(h, http.MethodPost, "/api/v1/ingest/sessions", strings.NewReader(body), "secret")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	if len(store.updated) != 1 || store.updated[0].Status != storage.ImportError ||
		store.updated[0].ErrorMessage == nil || !strings.Contains(*store.updated[0].ErrorMessage, "db down") {
		t.Errorf("updated logs = %+v", store.updated)
	}
}

// TestIngestAlpha verifies the CSV endpoint parses, stores and logs.
func TestIngestAlpha(t *testing.T) {
	store := &fakeStore{}
	h := newTestServer(&fakeAnalytics{}, store).Handler()

	rec := do(h, http.MethodPost, "/api/v1/ingest/alpha", strings.NewReader(alphaCSV), "secret")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	var res ingest.Result
	if err := json.NewDecoder(rec.Body).Decode(&res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if res.SessionsInserted != 1 || res.SetsInserted != 3 || res.WarmupSets != 1 || res.UntrackedRIR != 1 {
		t.Errorf("result = %+v", res)
	}
	if len(store.stored) != 1 || store.stored[0].Source != alpha.SourceName {
		t.Errorf("stored = %+v", store.stored)
	}
	if len(store.inserted) != 1 || store.inserted[0].Source != "alpha" {
		t.Errorf("inserted logs = %+v", store.inserted)
	}
	if len(store.updated) != 1 || store.updated[0].Status != storage.ImportSuccess || store.updated[0].DurationMs == nil {
		t.Errorf("updated logs = %+v", store.updated)
	}
}

// TestIngestAlphaParseError verifies a broken export is a 400 and an error
// import log.
func TestIngestAlphaParseError(t *testing.T) {
	store := &fakeStore{}
	h := newTestServer(&fakeAnalytics{}, store).Handler()

	rec := do(h, http.MethodPost, "/api/v1/ingest/alpha", strings.NewReader(`"1. Bench Press · Barbell · 6 reps"`), "secret")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if len(store.updated) != 1 || store.updated[0].Status != storage.ImportError {
		t.Errorf("updated logs = %+v", store.updated)
	}
}

// TestImportLogs verifies the limit parameter and the empty-array encoding.
func TestImportLogs(t *testing.T) {
	store := &fakeStore{}
	h := newTestServer(&fakeAnalytics{}, store).Handler()

	tests := []struct {
		target string
		limit  int
	}{
		{"/api/v1/imports", 50},
		{"/api/v1/imports?limit=5", 5},
		{"/api/v1/imports?limit=-1", 50},
	}
	for _, tt := range tests {
		rec := do(h, http.MethodGet, tt.target, nil, "")
		if rec.Code != http.StatusOK {
			t.Fatalf("%s: status = %d", tt.target, rec.Code)
		}
		if store.gotLimit != tt.limit {
			t.Errorf("%s: limit = %d, want %d", tt.target, store.gotLimit, tt.limit)
		}
		if body := strings.TrimSpace(rec.Body.String()); body != "[]" {
			t.Errorf("%s: body = %s, want []", tt.target, body)
		}
	}
}

// TestMCPMount verifies the MCP handler is mounted behind identity.
func TestMCPMount(t *testing.T) {
	s := newTestServer(&fakeAnalytics{}, &fakeStore{})
	s.SetDevUser("alice")
	var gotUser string
	s.SetMCP(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUser = UserID(r)
		w.WriteHeader(http.StatusAccepted)
	}))

	rec := do(s.Handler(), http.MethodPost, "/mcp", strings.NewReader("{}"), "")
	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202", rec.Code)
	}
	if gotUser != "alice" {
		t.Errorf("user = %q, want alice", gotUser)
	}
}

// TestMetricsEndpoint verifies requests are counted and exposed.
func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(&fakeAnalytics{}, &fakeStore{})
	m, reg := metrics.NewTestManagerAndRegistry()
	s.SetMetrics(m, reg)
	h := s.Handler()

	do(h, http.MethodGet, "/healthz", nil, "")
	rec := do(h, http.MethodGet, "/metrics", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "trainload_test_request_duration_seconds") {
		t.Errorf("metrics output lacks request duration histogram")
	}
}
