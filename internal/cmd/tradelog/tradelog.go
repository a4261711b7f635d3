// Package tradelog reads a trade journal and prints resolved trades.
package tradelog

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strings"

	entrypoint "github.com/tannhaus/accord/internal/platform/cmd"
	"github.com/tannhaus/accord/internal/trade/resource"
	"github.com/tannhaus/accord/internal/trade/storage"
	"github.com/tannhaus/accord/internal/trade/storage/sqlite"
	"github.com/tannhaus/accord/internal/trade/transaction"
)

// Config holds tradelog command configuration.
type Config struct {
	DBPath      string `env:"ACCORD_DB_PATH" envDefault:"data/trades.db"`
	Participant string
	Filter      string
	Limit       int
	Trade       string
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.StringVar(&cfg.DBPath, "db", cfg.DBPath, "journal database path")
	fs.StringVar(&cfg.Participant, "participant", "", "only trades involving this participant")
	fs.StringVar(&cfg.Filter, "filter", "", `journal filter, e.g. status = "ACCEPTED" AND kind = "instruments"`)
	fs.IntVar(&cfg.Limit, "limit", 0, "cap the number of printed trades (0 = all)")
	fs.StringVar(&cfg.Trade, "trade", "", "print a single trade by id")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run prints the resolved trades matching the configuration.
func Run(ctx context.Context, cfg Config, out io.Writer) error {
	if out == nil {
		out = io.Discard
	}

	journal, err := sqlite.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open trade journal: %w", err)
	}
	defer journal.Close()

	if cfg.Trade != "" {
		rec, err := journal.GetResolved(ctx, cfg.Trade)
		if err != nil {
			return err
		}
		printRecord(out, rec)
		return nil
	}

	records, err := journal.ListResolved(ctx, storage.ListQuery{
		Participant: resource.ParticipantID(cfg.Participant),
		Filter:      cfg.Filter,
		Limit:       cfg.Limit,
	})
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Fprintln(out, "no resolved trades")
		return nil
	}
	for _, rec := range records {
		printRecord(out, rec)
	}
	return nil
}

func printRecord(out io.Writer, rec transaction.Record) {
	resolved := ""
	if rec.ResolvedAt != nil {
		resolved = rec.ResolvedAt.Format("2006-01-02 15:04:05")
	}
	fmt.Fprintf(out, "%s  %-9s  %s -> %s  offered %s for %s  at %s\n",
		rec.ID, rec.Status, rec.Proposer, rec.Counterparty,
		formatBundle(rec.Offer), formatBundle(rec.Request), resolved)
	for _, reason := range rec.FailureReasons {
		fmt.Fprintf(out, "    reason: %s (%s)\n", reason.Message, reason.Code)
	}
}

func formatBundle(bundle resource.Offer) string {
	var parts []string
	if bundle.TradeGoods > 0 {
		parts = append(parts, fmt.Sprintf("%d trade goods", bundle.TradeGoods))
	}
	if bundle.Commodities > 0 {
		parts = append(parts, fmt.Sprintf("%d commodities", bundle.Commodities))
	}
	if bundle.RelicFragments > 0 {
		parts = append(parts, fmt.Sprintf("%d relic fragments", bundle.RelicFragments))
	}
	for _, instr := range bundle.Instruments {
		parts = append(parts, string(instr))
	}
	if len(parts) == 0 {
		return "nothing"
	}
	return strings.Join(parts, ", ")
}
