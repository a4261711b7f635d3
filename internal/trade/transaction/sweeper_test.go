package transaction

import (
	"context"
	"testing"
	"time"

	"github.com/tannhaus/accord/internal/trade/ledger"
	"github.com/tannhaus/accord/internal/trade/resource"
)

func sweeperFixture(t *testing.T, ttl time.Duration, clock func() time.Time) (*Manager, *Sweeper) {
	t.Helper()
	book := ledger.New()
	if err := book.Credit("alpha", resource.KindTradeGoods, 10); err != nil {
		t.Fatalf("Credit() error = %v", err)
	}
	if err := book.Credit("beta", resource.KindCommodities, 10); err != nil {
		t.Fatalf("Credit() error = %v", err)
	}
	manager := NewManager(book, AdjacencyFunc(everyoneAdjacent),
		WithClock(clock), WithIDGenerator(sequentialIDs()))
	sweeper := NewSweeper(manager, ttl, WithSweeperClock(clock))
	return manager, sweeper
}

func TestSweepExpiresOnlyStaleRecords(t *testing.T) {
	base := time.Date(2026, time.March, 9, 12, 0, 0, 0, time.UTC)
	now := base
	clock := func() time.Time { return now }
	manager, sweeper := sweeperFixture(t, time.Hour, clock)
	ctx := context.Background()

	stale, err := manager.Propose(ctx, "alpha", "beta",
		resource.Offer{TradeGoods: 1}, resource.Offer{Commodities: 1})
	if err != nil {
		t.Fatalf("Propose() error = %v", err)
	}

	now = base.Add(30 * time.Minute)
	fresh, err := manager.Propose(ctx, "alpha", "beta",
		resource.Offer{TradeGoods: 2}, resource.Offer{Commodities: 2})
	if err != nil {
		t.Fatalf("Propose() error = %v", err)
	}

	now = base.Add(time.Hour)
	expired := sweeper.Sweep(ctx)
	if len(expired) != 1 || expired[0].ID != stale.ID {
		t.Fatalf("Sweep() = %v, want only %s", expired, stale.ID)
	}
	if expired[0].Status != StatusExpired {
		t.Errorf("Status = %q, want %q", expired[0].Status, StatusExpired)
	}

	got, ok := manager.Lookup(fresh.ID)
	if !ok || got.Status != StatusPending {
		t.Errorf("fresh record = %v, %v, want still pending", got, ok)
	}
}

func TestSweepTTLBoundary(t *testing.T) {
	base := time.Date(2026, time.March, 9, 12, 0, 0, 0, time.UTC)
	now := base
	clock := func() time.Time { return now }
	manager, sweeper := sweeperFixture(t, time.Hour, clock)
	ctx := context.Background()

	if _, err := manager.Propose(ctx, "alpha", "beta",
		resource.Offer{TradeGoods: 1}, resource.Offer{Commodities: 1}); err != nil {
		t.Fatalf("Propose() error = %v", err)
	}

	// One instant before the deadline nothing expires; at the deadline the
	// record does.
	now = base.Add(time.Hour - time.Nanosecond)
	if expired := sweeper.Sweep(ctx); len(expired) != 0 {
		t.Fatalf("Sweep() before deadline = %v, want none", expired)
	}
	now = base.Add(time.Hour)
	if expired := sweeper.Sweep(ctx); len(expired) != 1 {
		t.Fatalf("Sweep() at deadline = %v, want one", expired)
	}
}

func TestSweepDisabledWithoutTTL(t *testing.T) {
	base := time.Date(2026, time.March, 9, 12, 0, 0, 0, time.UTC)
	now := base
	clock := func() time.Time { return now }
	manager, sweeper := sweeperFixture(t, 0, clock)
	ctx := context.Background()

	if _, err := manager.Propose(ctx, "alpha", "beta",
		resource.Offer{TradeGoods: 1}, resource.Offer{Commodities: 1}); err != nil {
		t.Fatalf("Propose() error = %v", err)
	}

	now = base.Add(1000 * time.Hour)
	if expired := sweeper.Sweep(ctx); len(expired) != 0 {
		t.Fatalf("Sweep() with zero TTL = %v, want none", expired)
	}
}
