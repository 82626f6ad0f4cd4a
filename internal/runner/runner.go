// Package runner sequences the fetch -> derive -> submit cycle and, in
// continuous mode, repeats it on a fixed interval until the context is
// cancelled. A cycle failure never terminates the loop; it is logged,
// counted, and followed by the normal inter-cycle sleep.
package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"signalgen/internal/client"
	"signalgen/internal/logger"
	"signalgen/internal/metrics"
	"signalgen/internal/model"
	"signalgen/internal/notification"
	"signalgen/internal/store/redis"
	"signalgen/internal/store/sqlite"
	"signalgen/internal/strategy"
)

// DefaultInterval is the continuous-mode sleep between cycles.
const DefaultInterval = 300 * time.Second

// API is the subset of the trading API the runner needs.
type API interface {
	GetBars(ctx context.Context, symbol string, timeframe, limit int) ([]model.Bar, error)
	SubmitSignals(ctx context.Context, indicatorID string, payload model.SubmissionPayload) (*model.SubmitResult, error)
}

// Config carries the static per-process settings for the runner.
type Config struct {
	Symbol        string
	Timeframe     int // minutes
	IndicatorID   string
	IndicatorName string
	BarLimit      int
}

// Runner orchestrates signal cycles. Journal, status writer, and
// notifier are optional; nil disables them.
type Runner struct {
	cfg      Config
	api      API
	strat    strategy.Strategy
	log      *slog.Logger
	prom     *metrics.Metrics
	health   *metrics.HealthStatus
	journal  *sqlite.Journal
	status   *redis.StatusWriter
	notifier notification.Notifier
}

// Option customizes a Runner.
type Option func(*Runner)

// WithMetrics attaches Prometheus metrics and health tracking.
func WithMetrics(m *metrics.Metrics, h *metrics.HealthStatus) Option {
	return func(r *Runner) {
		r.prom = m
		r.health = h
	}
}

// WithJournal attaches a submission journal.
func WithJournal(j *sqlite.Journal) Option {
	return func(r *Runner) { r.journal = j }
}

// WithStatusWriter attaches a Redis last-run status publisher.
func WithStatusWriter(w *redis.StatusWriter) Option {
	return func(r *Runner) { r.status = w }
}

// WithNotifier attaches an alert channel for cycle failures.
func WithNotifier(n notification.Notifier) Option {
	return func(r *Runner) { r.notifier = n }
}

// New creates a Runner.
func New(cfg Config, api API, strat strategy.Strategy, log *slog.Logger, opts ...Option) *Runner {
	r := &Runner{
		cfg:   cfg,
		api:   api,
		strat: strat,
		log:   log,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// RunOnce executes a single fetch -> derive -> submit cycle.
// A fetch failure aborts before derivation; a submit failure aborts
// after it. Both are reported through the journal, status writer, and
// notifier before the error is returned.
func (r *Runner) RunOnce(ctx context.Context) error {
	start := time.Now().UTC()
	ctx = logger.WithCycleID(ctx, logger.GenerateCycleID(r.cfg.Symbol, start))
	log := r.log.With(slog.String("cycle_id", logger.CycleID(ctx)))

	if r.prom != nil {
		r.prom.CyclesTotal.Inc()
	}

	log.Info("cycle started",
		slog.String("symbol", r.cfg.Symbol),
		slog.Int("timeframe", r.cfg.Timeframe),
	)

	// 1. Fetch bars
	fetchStart := time.Now()
	bars, err := r.api.GetBars(ctx, r.cfg.Symbol, r.cfg.Timeframe, r.cfg.BarLimit)
	if r.prom != nil {
		r.prom.FetchDur.Observe(time.Since(fetchStart).Seconds())
	}
	if err != nil {
		log.Error("bar fetch failed", slog.Any("err", err))
		return r.finish(ctx, cycleResult{start: start, err: fmt.Errorf("fetch bars: %w", err), stage: "fetch"})
	}
	if len(bars) == 0 {
		log.Error("bar fetch returned no data")
		return r.finish(ctx, cycleResult{start: start, err: errors.New("fetch bars: empty response"), stage: "fetch"})
	}
	if r.prom != nil {
		r.prom.BarsFetched.Add(float64(len(bars)))
	}
	log.Info("bars fetched",
		slog.Int("count", len(bars)),
		slog.Time("latest_bar", bars[len(bars)-1].TS()),
	)

	// 2. Derive signals
	points, lines := r.strat.Derive(bars)
	buys, sells := countLabels(points)
	log.Info("signals derived",
		slog.Int("points", len(points)),
		slog.Int("lines", len(lines)),
		slog.Int("buy", buys),
		slog.Int("sell", sells),
	)

	if len(points) == 0 && len(lines) == 0 {
		log.Info("no signals to submit")
		return r.finish(ctx, cycleResult{start: start})
	}

	// 3. Submit
	payload := model.SubmissionPayload{
		Symbol:        r.cfg.Symbol,
		Timeframe:     r.cfg.Timeframe,
		IndicatorName: r.cfg.IndicatorName,
		Version:       model.SchemaVersion,
		Points:        points,
		Lines:         lines,
		Metadata: map[string]any{
			"generated_at": start.Format(time.RFC3339),
			"total_points": len(points),
			"total_lines":  len(lines),
			"buy_count":    buys,
			"sell_count":   sells,
			"strategy":     r.strat.Name(),
		},
	}

	submitStart := time.Now()
	result, err := r.api.SubmitSignals(ctx, r.cfg.IndicatorID, payload)
	if r.prom != nil {
		r.prom.SubmitDur.Observe(time.Since(submitStart).Seconds())
	}
	if err != nil {
		log.Error("signal submission failed", slog.Any("err", err))
		return r.finish(ctx, cycleResult{
			start: start, err: fmt.Errorf("submit signals: %w", err),
			stage: "submit", points: len(points), lines: len(lines),
		})
	}

	if r.prom != nil {
		r.prom.PointsSubmitted.Add(float64(result.PointsReceived))
		r.prom.LinesSubmitted.Add(float64(result.LinesReceived))
	}
	log.Info("signals submitted",
		slog.Int("points_received", result.PointsReceived),
		slog.Int("lines_received", result.LinesReceived),
		slog.String("expires_at", result.ExpiresAt),
	)

	return r.finish(ctx, cycleResult{start: start, points: len(points), lines: len(lines)})
}

// RunContinuous repeats RunOnce every interval until ctx is cancelled.
// The wait is cancellable; cycle errors are swallowed after reporting.
func (r *Runner) RunContinuous(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultInterval
	}
	r.log.Info("continuous mode started", slog.Duration("interval", interval))

	timer := time.NewTimer(0) // first cycle immediately
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			r.log.Info("continuous mode stopped")
			return
		case <-timer.C:
		}

		if err := r.RunOnce(ctx); err != nil && ctx.Err() == nil {
			r.log.Warn("cycle failed, retrying after interval", slog.Any("err", err))
		}
		timer.Reset(interval)
	}
}

// cycleResult aggregates the outcome of one cycle for reporting.
type cycleResult struct {
	start  time.Time
	err    error
	stage  string
	points int
	lines  int
}

// finish records the cycle outcome in metrics, journal, Redis status,
// and alerts, then returns the cycle error (nil on success).
func (r *Runner) finish(ctx context.Context, res cycleResult) error {
	ok := res.err == nil

	if r.prom != nil {
		if ok {
			r.prom.LastCycleSuccess.Set(1)
		} else {
			r.prom.LastCycleSuccess.Set(0)
			r.prom.CycleFailures.WithLabelValues(res.stage).Inc()
		}
		r.prom.LastCycleTime.SetToCurrentTime()
	}
	if r.health != nil {
		r.health.RecordCycle(res.err)
	}

	detail := ""
	if res.err != nil {
		detail = res.err.Error()
	}

	if r.journal != nil {
		entry := sqlite.Entry{
			RunAt:       res.start.Format(time.RFC3339),
			Symbol:      r.cfg.Symbol,
			Timeframe:   r.cfg.Timeframe,
			IndicatorID: r.cfg.IndicatorID,
			Points:      res.points,
			Lines:       res.lines,
			Success:     ok,
			Detail:      detail,
		}
		if err := r.journal.Record(entry); err != nil {
			r.log.Warn("journal write failed", slog.Any("err", err))
		}
	}

	if r.status != nil {
		st := redis.Status{
			IndicatorID: r.cfg.IndicatorID,
			Symbol:      r.cfg.Symbol,
			Timeframe:   r.cfg.Timeframe,
			RunAt:       res.start.Format(time.RFC3339),
			Success:     ok,
			Points:      res.points,
			Lines:       res.lines,
			Error:       detail,
		}
		if err := r.status.Publish(ctx, st); err != nil {
			r.log.Warn("status publish failed", slog.Any("err", err))
		}
	}

	if !ok && r.notifier != nil {
		alert := notification.Alert{
			Level:   notification.AlertWarning,
			Title:   "Signal cycle failed: " + r.cfg.Symbol,
			Message: detail,
		}
		if err := r.notifier.Send(ctx, alert); err != nil {
			r.log.Warn("alert delivery failed", slog.Any("err", err))
		}
	}

	return res.err
}

// countLabels tallies BUY and SELL entry markers in a point set.
func countLabels(points []model.SignalPoint) (buys, sells int) {
	for _, p := range points {
		switch p.Label {
		case "BUY":
			buys++
		case "SELL":
			sells++
		}
	}
	return buys, sells
}

// IsHTTPStatus reports whether err is an HTTP error with the given status.
// Used by callers that want to special-case auth failures in logs.
func IsHTTPStatus(err error, status int) bool {
	var httpErr *client.HTTPError
	return errors.As(err, &httpErr) && httpErr.Status == status
}
