package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager_CountersRegistered(t *testing.T) {
	m, reg := NewTestManagerAndRegistry()
	require.NotNil(t, m)

	m.CounterModelCache.WithLabelValues("hit").Inc()
	m.CounterModelCache.WithLabelValues("hit").Inc()
	m.CounterModelCache.WithLabelValues("miss").Inc()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.CounterModelCache.WithLabelValues("hit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CounterModelCache.WithLabelValues("miss")))

	count, err := testutil.GatherAndCount(reg, "trainload_test_model_cache")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestHandler_ServesRegistry(t *testing.T) {
	reg := SetupPrometheus()
	m := NewManager("trainload", "main", reg)
	m.GaugeLifeSignal.Set(1)

	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "trainload_main_life_signal 1"))
	assert.True(t, strings.Contains(rec.Body.String(), "go_goroutines"))
}
