package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

type BreakerState int

const (
	BreakerClosed BreakerState = iota
	BreakerOpen
	BreakerHalfOpen
)

func (s BreakerState) String() string {
	switch s {
	case BreakerOpen:
		return "open"
	case BreakerHalfOpen:
		return "half-open"
	default:
		return "closed"
	}
}

type BreakerConfig struct {
	MaxFailures      int           `json:"max_failures"`
	Timeout          time.Duration `json:"timeout"`
	HalfOpenMaxCalls int           `json:"half_open_max_calls"`
}

func DefaultBreakerConfig() *BreakerConfig {
	return &BreakerConfig{
		MaxFailures:      5,
		Timeout:          30 * time.Second,
		HalfOpenMaxCalls: 3,
	}
}

// GuardedStore wraps a remote store with a circuit breaker. After
// MaxFailures consecutive backend errors it rejects calls with
// ErrUnavailable for Timeout, then lets trial calls through.
type GuardedStore struct {
	next Store
	now  func() time.Time

	mu              sync.Mutex
	state           BreakerState
	failureCount    int
	successCount    int
	lastFailureTime time.Time

	maxFailures      int
	timeout          time.Duration
	halfOpenMaxCalls int
}

func NewGuardedStore(next Store, cfg *BreakerConfig) *GuardedStore {
	if cfg == nil {
		cfg = DefaultBreakerConfig()
	}
	return &GuardedStore{
		next:             next,
		now:              time.Now,
		state:            BreakerClosed,
		maxFailures:      cfg.MaxFailures,
		timeout:          cfg.Timeout,
		halfOpenMaxCalls: cfg.HalfOpenMaxCalls,
	}
}

func (g *GuardedStore) WithClock(now func() time.Time) *GuardedStore {
	g.now = now
	return g
}

func (g *GuardedStore) execute(fn func() error) error {
	if !g.allow() {
		return fmt.Errorf("circuit open: %w", ErrUnavailable)
	}

	err := fn()
	// A missing session is an answer, not a backend failure.
	if err != nil && !errors.Is(err, ErrNotFound) {
		g.recordFailure()
		return err
	}
	g.recordSuccess()
	return err
}

func (g *GuardedStore) allow() bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	switch g.state {
	case BreakerOpen:
		if g.now().Sub(g.lastFailureTime) < g.timeout {
			return false
		}
		g.state = BreakerHalfOpen
		g.successCount = 0
		return true
	case BreakerHalfOpen:
		return g.successCount < g.halfOpenMaxCalls
	default:
		return true
	}
}

func (g *GuardedStore) recordFailure() {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.failureCount++
	g.lastFailureTime = g.now()

	switch g.state {
	case BreakerClosed:
		if g.failureCount >= g.maxFailures {
			g.state = BreakerOpen
		}
	case BreakerHalfOpen:
		g.state = BreakerOpen
		g.successCount = 0
	}
}

func (g *GuardedStore) recordSuccess() {
	g.mu.Lock()
	defer g.mu.Unlock()

	switch g.state {
	case BreakerClosed:
		g.failureCount = 0
	case BreakerHalfOpen:
		g.successCount++
		if g.successCount >= g.halfOpenMaxCalls {
			g.state = BreakerClosed
			g.failureCount = 0
			g.successCount = 0
		}
	}
}

func (g *GuardedStore) State() BreakerState {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

func (g *GuardedStore) Save(ctx context.Context, id string, record Record, ttl time.Duration) error {
	return g.execute(func() error {
		return g.next.Save(ctx, id, record, ttl)
	})
}

func (g *GuardedStore) Get(ctx context.Context, id string) (*Record, error) {
	var record *Record
	err := g.execute(func() error {
		var err error
		record, err = g.next.Get(ctx, id)
		return err
	})
	return record, err
}

func (g *GuardedStore) Delete(ctx context.Context, id string) error {
	return g.execute(func() error {
		return g.next.Delete(ctx, id)
	})
}

// Health always asks the backend so readiness reflects recovery even while
// the circuit is open.
func (g *GuardedStore) Health(ctx context.Context) error {
	return g.next.Health(ctx)
}

func (g *GuardedStore) Stats() map[string]interface{} {
	stats := map[string]interface{}{}
	if reporter, ok := g.next.(interface{ Stats() map[string]interface{} }); ok {
		for k, v := range reporter.Stats() {
			stats[k] = v
		}
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	stats["breaker"] = map[string]interface{}{
		"state":           g.state.String(),
		"failure_count":   g.failureCount,
		"max_failures":    g.maxFailures,
		"timeout_seconds": g.timeout.Seconds(),
	}
	return stats
}

func (g *GuardedStore) Close() error {
	return g.next.Close()
}
