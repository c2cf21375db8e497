package coordinator

import (
	"context"
	"log/slog"
	"time"
)

// Loop refreshes every coordinator on a fixed ticker from one goroutine.
// Upstream calls are charged against a request budget per window; when a
// refresh would overrun it, that refresh is skipped until the window rolls
// over. The budget protects the public API, it is not back-pressure.
type Loop struct {
	log          *slog.Logger
	interval     time.Duration
	budget       int
	budgetWindow time.Duration

	coordinators []Coordinator
	onRefresh    func(Coordinator)

	used        int
	windowStart time.Time
}

// NewLoop builds the poll loop. budget <= 0 disables budgeting. onRefresh
// runs after every refresh attempt, failed ones included, so listeners can
// track availability; it may be nil.
func NewLoop(log *slog.Logger, interval time.Duration, budget int, budgetWindow time.Duration, coordinators []Coordinator, onRefresh func(Coordinator)) *Loop {
	return &Loop{
		log:          log.With("component", "poll"),
		interval:     interval,
		budget:       budget,
		budgetWindow: budgetWindow,
		coordinators: coordinators,
		onRefresh:    onRefresh,
	}
}

// Interval returns the tick interval.
func (l *Loop) Interval() time.Duration { return l.interval }

// Run polls until ctx is canceled. An initial refresh runs before the first
// tick so sensors are live at startup; its failures are logged like any
// other tick's.
func (l *Loop) Run(ctx context.Context) {
	l.windowStart = time.Now()
	l.RefreshAll(ctx)

	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()
	l.log.Info("poll loop started",
		"interval", l.interval, "coordinators", len(l.coordinators))

	for {
		select {
		case <-ctx.Done():
			l.log.Info("poll loop stopped")
			return
		case <-ticker.C:
			start := time.Now()
			l.RefreshAll(ctx)
			l.log.Debug("poll tick completed", "duration", time.Since(start))
		}
	}
}

// RefreshAll refreshes every coordinator sequentially, once. It is the body
// of one tick and also serves the oneshot mode.
func (l *Loop) RefreshAll(ctx context.Context) {
	for _, c := range l.coordinators {
		if ctx.Err() != nil {
			return
		}
		if !l.spend(c.Requests()) {
			l.log.Warn("request budget exhausted, skipping refresh",
				"subentry", c.SubentryID(), "budget", l.budget)
			continue
		}
		if err := c.Refresh(ctx); err != nil {
			l.log.Warn("refresh failed", "subentry", c.SubentryID(), "error", err)
		}
		if l.onRefresh != nil {
			l.onRefresh(c)
		}
	}
}

// spend charges n requests against the current window.
func (l *Loop) spend(n int) bool {
	now := time.Now()
	if now.Sub(l.windowStart) > l.budgetWindow {
		l.used = 0
		l.windowStart = now
	}
	if l.budget > 0 && l.used+n > l.budget {
		return false
	}
	l.used += n
	return true
}
