// Package metrics exposes Prometheus collectors for the HTTP API and the
// live session engines.
package metrics

import (
	"github.com/claude/repcoach/internal/session"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Manager struct {
	// counters
	CounterRequests      *prometheus.CounterVec
	CounterSessions      *prometheus.CounterVec
	CounterSetsCompleted prometheus.Counter
	CounterRejections    *prometheus.CounterVec

	// gauges
	GaugeActiveSessions prometheus.Gauge

	// histograms
	HistogramRequestDuration *prometheus.HistogramVec
	HistRestDuration         prometheus.Histogram
	HistSessionDuration      prometheus.Histogram
	HistOverallScore         prometheus.Histogram
}

func NewTestManager() *Manager {
	return NewManager("repcoach", "test_server", prometheus.NewRegistry())
}

func NewTestManagerAndRegistry() (*Manager, *prometheus.Registry) {
	reg := prometheus.NewRegistry()
	return NewManager("repcoach", "test_server", reg), reg
}

func NewManager(namespace, subsystem string, reg prometheus.Registerer) *Manager {
	factory := promauto.With(reg)

	counterRequests := factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "request",
		Help:      "The total number of incoming requests",
	}, []string{"method", "status"})
	counterSessions := factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "sessions",
		Help:      "Sessions started, finalized and cancelled",
	}, []string{"event"})
	counterSetsCompleted := factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "sets_completed",
		Help:      "The total number of completed sets",
	})
	counterRejections := factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "rejected_operations",
		Help:      "Session operations rejected by the state machine",
	}, []string{"op", "code"})

	gaugeActiveSessions := factory.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "active_sessions",
		Help:      "Sessions currently open in an engine",
	})

	histogramRequestDuration := factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "request_duration_seconds",
		Help:      "Histogram of response time for requests in seconds",
		Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
	}, []string{"route", "method", "status_code"})
	histRestDuration := factory.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "rest_duration_seconds",
		Help:      "Actual rest taken between sets and exercises",
		Buckets:   []float64{10, 20, 30, 45, 60, 90, 120, 180, 240, 300},
	})
	histSessionDuration := factory.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "session_duration_seconds",
		Help:      "Elapsed time of finalized sessions",
		Buckets:   []float64{600, 1200, 1800, 2700, 3600, 5400, 7200},
	})
	histOverallScore := factory.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "fitscore_overall",
		Help:      "Overall FitScore after each rescore",
		Buckets:   prometheus.LinearBuckets(100, 100, 9),
	})

	return &Manager{
		CounterRequests:          counterRequests,
		CounterSessions:          counterSessions,
		CounterSetsCompleted:     counterSetsCompleted,
		CounterRejections:        counterRejections,
		GaugeActiveSessions:      gaugeActiveSessions,
		HistogramRequestDuration: histogramRequestDuration,
		HistRestDuration:         histRestDuration,
		HistSessionDuration:      histSessionDuration,
		HistOverallScore:         histOverallScore,
	}
}

// Observe is a session.Listener that feeds the session collectors.
func (m *Manager) Observe(ev session.Event) {
	switch ev.Type {
	case session.EventStarted:
		m.CounterSessions.WithLabelValues("started").Inc()
	case session.EventSetCompleted:
		m.CounterSetsCompleted.Inc()
	case session.EventRestEnded:
		m.HistRestDuration.Observe(float64(ev.RestedSecs))
	case session.EventFinalized:
		m.CounterSessions.WithLabelValues("finalized").Inc()
		m.HistSessionDuration.Observe(float64(ev.ElapsedSecs))
	case session.EventRescored:
		m.HistOverallScore.Observe(ev.Overall)
	case session.EventCancelled:
		m.CounterSessions.WithLabelValues("cancelled").Inc()
	case session.EventRejected:
		if ev.Rejection != nil {
			m.CounterRejections.WithLabelValues(ev.Rejection.Op, string(ev.Rejection.Code)).Inc()
		}
	}
}
