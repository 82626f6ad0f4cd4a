// Package metrics exposes Prometheus metrics and a JSON health endpoint
// for the signal generator.
package metrics

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the generator.
type Metrics struct {
	CyclesTotal     prometheus.Counter
	CycleFailures   *prometheus.CounterVec // labels: stage=fetch|submit
	BarsFetched     prometheus.Counter
	PointsSubmitted prometheus.Counter
	LinesSubmitted  prometheus.Counter

	FetchDur  prometheus.Histogram
	SubmitDur prometheus.Histogram

	LastCycleSuccess prometheus.Gauge // 1=ok, 0=failed
	LastCycleTime    prometheus.Gauge // unix seconds
}

// NewMetrics registers and returns all Prometheus metrics.
func NewMetrics() *Metrics {
	m := &Metrics{
		CyclesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "signalgen_cycles_total",
			Help: "Total fetch-derive-submit cycles started",
		}),
		CycleFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "signalgen_cycle_failures_total",
			Help: "Cycles that failed, by stage",
		}, []string{"stage"}),
		BarsFetched: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "signalgen_bars_fetched_total",
			Help: "Total OHLC bars fetched from the API",
		}),
		PointsSubmitted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "signalgen_points_submitted_total",
			Help: "Total signal points accepted by the API",
		}),
		LinesSubmitted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "signalgen_lines_submitted_total",
			Help: "Total level lines accepted by the API",
		}),
		FetchDur: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "signalgen_fetch_duration_seconds",
			Help:    "Bar fetch request latency",
			Buckets: prometheus.DefBuckets,
		}),
		SubmitDur: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "signalgen_submit_duration_seconds",
			Help:    "Signal submission request latency",
			Buckets: prometheus.DefBuckets,
		}),
		LastCycleSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "signalgen_last_cycle_success",
			Help: "Whether the most recent cycle succeeded (1) or failed (0)",
		}),
		LastCycleTime: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "signalgen_last_cycle_timestamp_seconds",
			Help: "Unix time the most recent cycle finished",
		}),
	}

	prometheus.MustRegister(
		m.CyclesTotal,
		m.CycleFailures,
		m.BarsFetched,
		m.PointsSubmitted,
		m.LinesSubmitted,
		m.FetchDur,
		m.SubmitDur,
		m.LastCycleSuccess,
		m.LastCycleTime,
	)

	return m
}

// HealthStatus tracks the outcome of the most recent cycle for /healthz.
type HealthStatus struct {
	mu sync.RWMutex

	startedAt time.Time
	lastRunAt time.Time
	lastRunOK bool
	lastError string
}

// NewHealthStatus returns a default health status.
func NewHealthStatus() *HealthStatus {
	return &HealthStatus{startedAt: time.Now()}
}

// RecordCycle stores the outcome of a completed cycle.
func (h *HealthStatus) RecordCycle(err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.lastRunAt = time.Now()
	h.lastRunOK = err == nil
	if err != nil {
		h.lastError = err.Error()
	} else {
		h.lastError = ""
	}
}

// ServeHTTP handles the /healthz endpoint.
func (h *HealthStatus) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	code := http.StatusOK
	overall := "healthy"
	if !h.lastRunAt.IsZero() && !h.lastRunOK {
		overall = "degraded"
		code = http.StatusServiceUnavailable
	}

	lastRun := ""
	if !h.lastRunAt.IsZero() {
		lastRun = h.lastRunAt.Format(time.RFC3339)
	}

	status := struct {
		Status    string `json:"status"`
		Uptime    string `json:"uptime"`
		LastRunAt string `json:"last_run_at"`
		LastRunOK bool   `json:"last_run_ok"`
		LastError string `json:"last_error,omitempty"`
	}{
		Status:    overall,
		Uptime:    time.Since(h.startedAt).Round(time.Second).String(),
		LastRunAt: lastRun,
		LastRunOK: h.lastRunOK,
		LastError: h.lastError,
	}

	w.Header().Set("Content-Type", "application/json")
	if code != http.StatusOK {
		w.WriteHeader(code)
	}
	json.NewEncoder(w).Encode(status)
}

// Server runs an HTTP server exposing /metrics and /healthz.
type Server struct {
	addr string
	srv  *http.Server
	log  *slog.Logger
}

// NewServer creates a metrics and health server.
func NewServer(addr string, health *HealthStatus, log *slog.Logger) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", health.ServeHTTP)

	return &Server{
		addr: addr,
		srv:  &http.Server{Addr: addr, Handler: mux},
		log:  log,
	}
}

// Start launches the HTTP server in a goroutine.
func (s *Server) Start() {
	go func() {
		s.log.Info("metrics server listening", slog.String("addr", s.addr))
		if err := s.srv.ListenAndServe(); err != http.ErrServerClosed {
			s.log.Error("metrics server error", slog.Any("err", err))
		}
	}()
}

// Stop gracefully shuts down the metrics server.
func (s *Server) Stop(ctx context.Context) {
	s.srv.Shutdown(ctx)
}
