// Package seed populates a demo trade journal by scripting exchanges between
// a small set of factions.
package seed

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	entrypoint "github.com/tannhaus/accord/internal/platform/cmd"
	"github.com/tannhaus/accord/internal/trade/app"
	"github.com/tannhaus/accord/internal/trade/filter"
	"github.com/tannhaus/accord/internal/trade/ledger"
	"github.com/tannhaus/accord/internal/trade/resource"
	"github.com/tannhaus/accord/internal/trade/storage/sqlite"
	"github.com/tannhaus/accord/internal/trade/transaction"
)

// Config holds seed command configuration.
type Config struct {
	DBPath  string `env:"ACCORD_DB_PATH" envDefault:"data/trades.db"`
	Verbose bool
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.StringVar(&cfg.DBPath, "db", cfg.DBPath, "journal database path")
	fs.BoolVar(&cfg.Verbose, "v", cfg.Verbose, "verbose output")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// demoAdjacency is the fixed trade-route map for the seeded factions. Outland
// has no routes and exists to demonstrate adjacency rejection.
var demoAdjacency = map[[2]resource.ParticipantID]bool{
	{"meridian", "kestrel"}: true,
	{"kestrel", "harbor"}:   true,
	{"meridian", "harbor"}:  true,
}

func neighbors(a, b resource.ParticipantID) bool {
	return demoAdjacency[[2]resource.ParticipantID{a, b}] ||
		demoAdjacency[[2]resource.ParticipantID{b, a}]
}

func demoLedger() (*ledger.Ledger, error) {
	book := ledger.New()
	credits := []struct {
		p      resource.ParticipantID
		kind   resource.Kind
		amount int
	}{
		{"meridian", resource.KindTradeGoods, 20},
		{"meridian", resource.KindCommodities, 5},
		{"meridian", resource.KindRelicFragments, 2},
		{"kestrel", resource.KindTradeGoods, 3},
		{"kestrel", resource.KindCommodities, 15},
		{"harbor", resource.KindTradeGoods, 6},
		{"harbor", resource.KindRelicFragments, 8},
	}
	for _, c := range credits {
		if err := book.Credit(c.p, c.kind, c.amount); err != nil {
			return nil, fmt.Errorf("seed balance %s/%s: %w", c.p, c.kind, err)
		}
	}
	instruments := []struct {
		p     resource.ParticipantID
		instr resource.InstrumentID
	}{
		{"meridian", "astrolabe"},
		{"meridian", "sextant"},
		{"kestrel", "chronometer"},
	}
	for _, i := range instruments {
		if err := book.AssignInstrument(i.p, i.instr); err != nil {
			return nil, fmt.Errorf("seed instrument %s: %w", i.instr, err)
		}
	}
	return book, nil
}

// Run seeds the journal at cfg.DBPath with a scripted set of exchanges that
// cover every terminal status.
func Run(ctx context.Context, cfg Config, out io.Writer) error {
	if out == nil {
		out = io.Discard
	}

	if dir := filepath.Dir(cfg.DBPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create storage dir: %w", err)
		}
	}
	journal, err := sqlite.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open trade journal: %w", err)
	}

	book, err := demoLedger()
	if err != nil {
		_ = journal.Close()
		return err
	}

	rt, err := app.New(app.Options{
		Ledger:  book,
		Oracle:  transaction.AdjacencyFunc(neighbors),
		Journal: journal,
	})
	if err != nil {
		_ = journal.Close()
		return err
	}

	runCtx, stopRun := context.WithCancel(ctx)
	runDone := make(chan error, 1)
	go func() {
		runDone <- rt.Run(runCtx)
	}()

	scriptErr := runScript(ctx, rt.Manager(), cfg, out)

	resolved, accepted, countErr := resolvedCounts(rt.Manager())

	stopRun()
	if err := <-runDone; err != nil {
		return err
	}
	if scriptErr != nil {
		return scriptErr
	}
	if countErr != nil {
		return countErr
	}

	fmt.Fprintf(out, "seeded trade journal at %s: %d resolved, %d accepted\n",
		cfg.DBPath, resolved, accepted)
	return nil
}

// resolvedCounts tallies the live history, counting accepted trades through
// the same filter language tradelog queries the journal with.
func resolvedCounts(manager *transaction.Manager) (resolved, accepted int, err error) {
	match, err := filter.ParseTradePredicate(`status = "ACCEPTED"`)
	if err != nil {
		return 0, 0, fmt.Errorf("parse summary filter: %w", err)
	}
	for range manager.Resolved() {
		resolved++
	}
	for range filter.Matching(manager.Resolved(), match) {
		accepted++
	}
	return resolved, accepted, nil
}

func runScript(ctx context.Context, manager *transaction.Manager, cfg Config, out io.Writer) error {
	verbose := func(format string, args ...any) {
		if cfg.Verbose {
			fmt.Fprintf(out, format+"\n", args...)
		}
	}

	// Accepted: goods and an instrument for commodities along an open route.
	accepted, err := manager.Propose(ctx, "meridian", "kestrel",
		resource.Offer{TradeGoods: 5, Instruments: []resource.InstrumentID{"astrolabe"}},
		resource.Offer{Commodities: 4})
	if err != nil {
		return fmt.Errorf("propose accepted trade: %w", err)
	}
	if _, _, err := manager.Accept(ctx, accepted.ID); err != nil {
		return fmt.Errorf("accept trade %s: %w", accepted.ID, err)
	}
	verbose("accepted %s: meridian traded goods and the astrolabe to kestrel", accepted.ID)

	// Rejected by the counterparty.
	rejected, err := manager.Propose(ctx, "kestrel", "harbor",
		resource.Offer{Commodities: 3},
		resource.Offer{RelicFragments: 2})
	if err != nil {
		return fmt.Errorf("propose rejected trade: %w", err)
	}
	if _, err := manager.Reject(ctx, rejected.ID); err != nil {
		return fmt.Errorf("reject trade %s: %w", rejected.ID, err)
	}
	verbose("rejected %s: harbor declined kestrel's commodities", rejected.ID)

	// Rejected at acceptance: harbor asks meridian for an instrument kestrel
	// owns, which only surfaces when the full holdings check runs.
	invalid, err := manager.Propose(ctx, "harbor", "meridian",
		resource.Offer{RelicFragments: 1},
		resource.Offer{Instruments: []resource.InstrumentID{"chronometer"}})
	if err != nil {
		return fmt.Errorf("propose invalid trade: %w", err)
	}
	if _, _, err := manager.Accept(ctx, invalid.ID); err != nil {
		if _, ok := transaction.AsValidationFailed(err); !ok {
			return fmt.Errorf("accept trade %s: %w", invalid.ID, err)
		}
		verbose("rejected %s: meridian does not hold the chronometer", invalid.ID)
	}

	// Cancelled by the proposer.
	cancelled, err := manager.Propose(ctx, "meridian", "harbor",
		resource.Offer{TradeGoods: 2},
		resource.Offer{RelicFragments: 1})
	if err != nil {
		return fmt.Errorf("propose cancelled trade: %w", err)
	}
	if _, err := manager.Cancel(ctx, cancelled.ID); err != nil {
		return fmt.Errorf("cancel trade %s: %w", cancelled.ID, err)
	}
	verbose("cancelled %s: meridian withdrew the offer", cancelled.ID)

	// Expired: left pending past its lifetime.
	stale, err := manager.Propose(ctx, "meridian", "kestrel",
		resource.Offer{TradeGoods: 1},
		resource.Offer{Commodities: 1})
	if err != nil {
		return fmt.Errorf("propose stale trade: %w", err)
	}
	if _, err := manager.Expire(ctx, stale.ID, stale.ProposedAt.Add(time.Hour)); err != nil {
		return fmt.Errorf("expire trade %s: %w", stale.ID, err)
	}
	verbose("expired %s: meridian's offer lapsed unanswered", stale.ID)

	// Blocked at proposal: no trade route reaches outland.
	if _, err := manager.Propose(ctx, "meridian", "outland",
		resource.Offer{TradeGoods: 1},
		resource.Offer{Commodities: 1}); err == nil {
		return fmt.Errorf("propose to outland unexpectedly succeeded")
	}
	verbose("blocked: no trade route between meridian and outland")

	return nil
}
