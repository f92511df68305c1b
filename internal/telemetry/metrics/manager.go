package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Manager struct {
	// counters
	CounterRequests         *prometheus.CounterVec
	CounterModelCache       *prometheus.CounterVec
	CounterSourceErrors     *prometheus.CounterVec
	CounterSnapshots        *prometheus.CounterVec
	CounterWarmerRuns       *prometheus.CounterVec
	CounterIngestedSessions *prometheus.CounterVec

	// gauges
	GaugeLifeSignal prometheus.Gauge

	// histograms
	HistRequestDuration  prometheus.Histogram
	HistSnapshotDuration prometheus.Histogram
	HistModelFitDuration prometheus.Histogram
}

func NewTestManager() *Manager {
	return NewManager("trainload", "test", prometheus.NewRegistry())
}

func NewTestManagerAndRegistry() (*Manager, *prometheus.Registry) {
	reg := prometheus.NewRegistry()
	return NewManager("trainload", "test", reg), reg
}

func NewManager(namespace, subsystem string, reg prometheus.Registerer) *Manager {
	factory := promauto.With(reg)

	counterRequests := factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "request",
		Help:      "The total number of incoming requests",
	}, []string{"method", "status"})
	counterModelCache := factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "model_cache",
		Help:      "Fatigue model cache lookups and stores by result (hit, miss, skip, error)",
	}, []string{"result"})
	counterSourceErrors := factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "source_fetch_errors",
		Help:      "Failed session source fetches",
	}, []string{"source"})
	counterSnapshots := factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "snapshots",
		Help:      "Analytics snapshots computed",
	}, []string{"status"})
	counterWarmerRuns := factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "warmer_runs",
		Help:      "Model cache warm-ups per user",
	}, []string{"status"})
	counterIngestedSessions := factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "ingested_sessions",
		Help:      "Sessions written by ingest endpoints",
	}, []string{"source"})

	gaugeLifeSignal := factory.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "life_signal",
		Help:      "Shows whether the service is alive",
	})

	histReqDuration := factory.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 10, 60},
		Name:      "request_duration_seconds",
		Help:      "Total duration of requests in seconds",
	})
	histSnapshotDuration := factory.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		Name:      "snapshot_duration_seconds",
		Help:      "Duration of a full analytics snapshot in seconds",
	})
	histModelFitDuration := factory.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		Name:      "model_fit_duration_seconds",
		Help:      "Duration of a hierarchical fatigue model fit in seconds",
	})

	return &Manager{
		CounterRequests:         counterRequests,
		CounterModelCache:       counterModelCache,
		CounterSourceErrors:     counterSourceErrors,
		CounterSnapshots:        counterSnapshots,
		CounterWarmerRuns:       counterWarmerRuns,
		CounterIngestedSessions: counterIngestedSessions,
		GaugeLifeSignal:         gaugeLifeSignal,
		HistRequestDuration:     histReqDuration,
		HistSnapshotDuration:    histSnapshotDuration,
		HistModelFitDuration:    histModelFitDuration,
	}
}
