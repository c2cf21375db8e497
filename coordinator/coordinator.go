package coordinator

import (
	"context"
	"sync"
	"time"

	"github.com/tjorim/belgiantrain/irail"
)

// RailAPI is the slice of the iRail client the coordinators poll.
type RailAPI interface {
	Connections(ctx context.Context, from, to string) ([]irail.Connection, error)
	Liveboard(ctx context.Context, station string) (*irail.Liveboard, error)
}

// Coordinator is one polled subentry.
type Coordinator interface {
	SubentryID() string
	Refresh(ctx context.Context) error
	Healthy() bool
	LastSuccess() time.Time
	LastError() error

	// Requests is the number of upstream calls one refresh costs,
	// charged against the loop's request budget.
	Requests() int
}

// refreshState tracks the outcome of the most recent refresh.
type refreshState struct {
	mu          sync.RWMutex
	lastSuccess time.Time
	lastErr     error
	healthy     bool
}

func (s *refreshState) succeed() {
	s.mu.Lock()
	s.healthy = true
	s.lastErr = nil
	s.lastSuccess = time.Now()
	s.mu.Unlock()
}

func (s *refreshState) fail(err error) error {
	s.mu.Lock()
	s.healthy = false
	s.lastErr = err
	s.mu.Unlock()
	return err
}

// Healthy reports whether the last refresh succeeded.
func (s *refreshState) Healthy() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.healthy
}

// LastSuccess returns the time of the last successful refresh.
func (s *refreshState) LastSuccess() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastSuccess
}

// LastError returns the error of the last failed refresh, nil after a
// successful one.
func (s *refreshState) LastError() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastErr
}
