package warmer

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/claude/trainload/internal/telemetry/metrics"
)

type fakeService struct {
	mu     sync.Mutex
	warmed []string
	fail   map[string]error
}

func (f *fakeService) Warm(_ context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.warmed = append(f.warmed, userID)
	return f.fail[userID]
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRunOnce_WarmsEveryUserDespiteFailures(t *testing.T) {
	svc := &fakeService{fail: map[string]error{"bob": errors.New("db down")}}
	m := metrics.NewTestManager()
	w := New(svc, []string{"alice", "bob", "carol"}, discard(), m)

	err := w.RunOnce(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "warming bob")
	assert.Equal(t, []string{"alice", "bob", "carol"}, svc.warmed)
	assert.Equal(t, 2.0, testutil.ToFloat64(m.CounterWarmerRuns.WithLabelValues("success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CounterWarmerRuns.WithLabelValues("error")))
}

func TestRunOnce_StopsOnCancelledContext(t *testing.T) {
	svc := &fakeService{}
	w := New(svc, []string{"alice", "bob"}, discard(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := w.RunOnce(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, svc.warmed)
}

func TestStart_RejectsBadSchedule(t *testing.T) {
	w := New(&fakeService{}, []string{"alice"}, discard(), nil)
	err := w.Start(context.Background(), "every now and then")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid warmer schedule")
	w.Stop()
}

func TestStartStop(t *testing.T) {
	w := New(&fakeService{}, []string{"alice"}, discard(), nil)
	require.NoError(t, w.Start(context.Background(), "@every 6h"))
	assert.NotNil(t, w.cron)
	w.Stop()
	assert.Nil(t, w.cron)
	w.Stop()
}
