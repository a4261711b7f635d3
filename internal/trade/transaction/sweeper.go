package transaction

import (
	"context"
	"time"
)

// Sweeper applies an externally configured time-to-live to pending trades.
// The TTL value is policy and belongs to the collaborator configuring the
// sweeper; the expiry mechanism belongs to the manager.
type Sweeper struct {
	manager *Manager
	ttl     time.Duration
	clock   func() time.Time
}

// SweeperOption configures a Sweeper.
type SweeperOption func(*Sweeper)

// WithSweeperClock overrides the wall-clock source used for staleness.
func WithSweeperClock(clock func() time.Time) SweeperOption {
	return func(s *Sweeper) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// NewSweeper creates a sweeper expiring pending trades older than ttl.
func NewSweeper(manager *Manager, ttl time.Duration, opts ...SweeperOption) *Sweeper {
	s := &Sweeper{manager: manager, ttl: ttl, clock: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Sweep expires every pending trade whose age has reached the TTL and
// returns the expired records. Records resolved by another caller between
// the listing and the expiry call are skipped, not errors.
func (s *Sweeper) Sweep(ctx context.Context) []Record {
	if s.ttl <= 0 {
		return nil
	}
	now := s.clock().UTC()
	var expired []Record
	for rec := range s.manager.Pending() {
		if rec.ProposedAt.Add(s.ttl).After(now) {
			continue
		}
		resolved, err := s.manager.Expire(ctx, rec.ID, now)
		if err != nil {
			continue
		}
		expired = append(expired, resolved)
	}
	return expired
}
