package service

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation for the HTTP
// surface and the solver.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec

	jobsSubmitted prometheus.Counter
	jobsCompleted *prometheus.CounterVec
	improvements  prometheus.Counter
	moves         prometheus.Counter
	solveDuration prometheus.Histogram
	bestHardScore prometheus.Gauge
	bestSoftScore prometheus.Gauge
}

// NewMetricsService registers core Prometheus collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	jobsSubmitted := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "solver_jobs_submitted_total",
		Help: "Total solver jobs accepted",
	})

	jobsCompleted := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "solver_jobs_completed_total",
		Help: "Total solver jobs finished, by feasibility of the final schedule",
	}, []string{"feasible"})

	improvements := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "solver_improvements_total",
		Help: "Total improving solutions reported across all jobs",
	})

	moves := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "solver_moves_total",
		Help: "Total local search moves evaluated across all jobs",
	})

	solveDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "solver_run_duration_seconds",
		Help:    "Wall-clock time of finished solver runs",
		Buckets: []float64{0.1, 0.5, 1, 5, 15, 30, 60, 120, 300},
	})

	bestHardScore := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "solver_last_hard_score",
		Help: "Hard score of the most recently finished job",
	})

	bestSoftScore := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "solver_last_soft_score",
		Help: "Soft score of the most recently finished job",
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, jobsSubmitted, jobsCompleted,
		improvements, moves, solveDuration, bestHardScore, bestSoftScore, goroutines)

	return &MetricsService{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		jobsSubmitted:   jobsSubmitted,
		jobsCompleted:   jobsCompleted,
		improvements:    improvements,
		moves:           moves,
		solveDuration:   solveDuration,
		bestHardScore:   bestHardScore,
		bestSoftScore:   bestSoftScore,
	}
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// JobSubmitted counts an accepted solve.
func (m *MetricsService) JobSubmitted() {
	if m == nil {
		return
	}
	m.jobsSubmitted.Inc()
}

// JobCompleted records a finished run with its final score.
func (m *MetricsService) JobCompleted(feasible bool, hard, soft float64, duration time.Duration) {
	if m == nil {
		return
	}
	m.jobsCompleted.WithLabelValues(fmt.Sprintf("%t", feasible)).Inc()
	m.solveDuration.Observe(duration.Seconds())
	m.bestHardScore.Set(hard)
	m.bestSoftScore.Set(soft)
}

// SolveProgress accumulates move and improvement counters from one run.
func (m *MetricsService) SolveProgress(moves, improvements int64) {
	if m == nil {
		return
	}
	m.moves.Add(float64(moves))
	m.improvements.Add(float64(improvements))
}
