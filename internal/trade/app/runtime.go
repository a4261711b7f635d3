// Package app wires the exchange core into a runnable unit: ledger, trade
// manager, expiry sweeper, and the optional resolved-trade journal.
package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/tannhaus/accord/internal/trade/ledger"
	"github.com/tannhaus/accord/internal/trade/storage"
	"github.com/tannhaus/accord/internal/trade/transaction"
)

// Options configures a Runtime.
type Options struct {
	// Ledger is the opening book of balances and instrument owners. Required.
	Ledger *ledger.Ledger
	// Oracle answers adjacency questions for the manager. Required.
	Oracle transaction.AdjacencyOracle
	// Journal receives every terminal trade. Optional; nil disables journaling.
	Journal storage.TransactionStore
	// PendingTTL is the lifetime of a pending trade before the sweeper expires
	// it. Zero or negative disables expiry.
	PendingTTL time.Duration
	// SweepInterval is how often the sweeper scans pending trades. Defaults to
	// one minute when the TTL is set.
	SweepInterval time.Duration
	// Clock overrides time.Now for the manager and sweeper.
	Clock func() time.Time
}

// Runtime owns a trade manager and its supporting loops.
type Runtime struct {
	manager *transaction.Manager
	sweeper *transaction.Sweeper
	journal storage.TransactionStore
	events  chan transaction.ResolvedEvent

	sweepInterval time.Duration
	closeOnce     sync.Once
}

// New builds a runtime from the provided options. The manager is usable
// immediately; Run starts the background loops.
func New(opts Options) (*Runtime, error) {
	if opts.Ledger == nil {
		return nil, errors.New("ledger is required")
	}
	if opts.Oracle == nil {
		return nil, errors.New("adjacency oracle is required")
	}

	var managerOpts []transaction.Option
	if opts.Clock != nil {
		managerOpts = append(managerOpts, transaction.WithClock(opts.Clock))
	}
	manager := transaction.NewManager(opts.Ledger, opts.Oracle, managerOpts...)

	rt := &Runtime{
		manager: manager,
		journal: opts.Journal,
		// Resolution events are emitted outside the manager lock; the buffer
		// absorbs bursts so trade resolution never waits on journal writes.
		events:        make(chan transaction.ResolvedEvent, 64),
		sweepInterval: opts.SweepInterval,
	}

	if opts.PendingTTL > 0 {
		var sweeperOpts []transaction.SweeperOption
		if opts.Clock != nil {
			sweeperOpts = append(sweeperOpts, transaction.WithSweeperClock(opts.Clock))
		}
		rt.sweeper = transaction.NewSweeper(manager, opts.PendingTTL, sweeperOpts...)
		if rt.sweepInterval <= 0 {
			rt.sweepInterval = time.Minute
		}
	}

	if rt.journal != nil {
		manager.Subscribe(func(event transaction.ResolvedEvent) {
			select {
			case rt.events <- event:
			default:
				// Journal is best-effort; the manager's history remains the
				// authoritative record.
				log.Printf("trade journal buffer full, dropping event for trade %s", event.Record.ID)
			}
		})
	}

	return rt, nil
}

// Manager returns the trade manager for direct use by callers.
func (rt *Runtime) Manager() *transaction.Manager {
	return rt.manager
}

// Run starts the journal drain and sweeper loops and blocks until the context
// ends or a loop fails.
func (rt *Runtime) Run(ctx context.Context) error {
	if rt == nil {
		return errors.New("runtime is nil")
	}
	defer rt.Close()

	group, ctx := errgroup.WithContext(ctx)

	if rt.journal != nil {
		group.Go(func() error {
			return rt.drainJournal(ctx)
		})
	}

	if rt.sweeper != nil {
		group.Go(func() error {
			ticker := time.NewTicker(rt.sweepInterval)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return nil
				case <-ticker.C:
					for _, rec := range rt.sweeper.Sweep(ctx) {
						log.Printf("expired pending trade %s", rec.ID)
					}
				}
			}
		})
	}

	if err := group.Wait(); err != nil {
		return fmt.Errorf("run trade loops: %w", err)
	}
	return nil
}

// drainJournal appends resolved trades to the journal until the context ends,
// then flushes whatever is already buffered.
func (rt *Runtime) drainJournal(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			for {
				select {
				case event := <-rt.events:
					rt.appendEvent(event)
				default:
					return nil
				}
			}
		case event := <-rt.events:
			rt.appendEvent(event)
		}
	}
}

func (rt *Runtime) appendEvent(event transaction.ResolvedEvent) {
	// Uses a fresh context so a cancelled run context still flushes buffered
	// events.
	writeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rt.journal.AppendResolved(writeCtx, event.Record); err != nil {
		log.Printf("journal trade %s: %v", event.Record.ID, err)
	}
}

// Close releases the runtime's resources.
func (rt *Runtime) Close() {
	if rt == nil {
		return
	}
	rt.closeOnce.Do(func() {
		if rt.journal != nil {
			if err := rt.journal.Close(); err != nil {
				log.Printf("close trade journal: %v", err)
			}
		}
	})
}
