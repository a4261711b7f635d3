package tradelog

import (
	"bytes"
	"context"
	"flag"
	"path/filepath"
	"strings"
	"testing"
	"time"

	apperrors "github.com/tannhaus/accord/internal/errors"
	"github.com/tannhaus/accord/internal/trade/resource"
	"github.com/tannhaus/accord/internal/trade/storage/sqlite"
	"github.com/tannhaus/accord/internal/trade/transaction"
)

func seedJournal(t *testing.T) string {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "trades.db")
	journal, err := sqlite.Open(dbPath)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer journal.Close()

	base := time.Date(2026, time.March, 9, 12, 0, 0, 0, time.UTC)
	records := []transaction.Record{
		{
			ID:           "trade-1",
			Proposer:     "meridian",
			Counterparty: "kestrel",
			Offer:        resource.Offer{TradeGoods: 5},
			Request:      resource.Offer{Commodities: 4},
			Status:       transaction.StatusAccepted,
			ProposedAt:   base.Add(-time.Minute),
			ResolvedAt:   timePtr(base),
		},
		{
			ID:           "trade-2",
			Proposer:     "kestrel",
			Counterparty: "harbor",
			Offer:        resource.Offer{Commodities: 3},
			Request:      resource.Offer{RelicFragments: 2},
			Status:       transaction.StatusRejected,
			FailureReasons: []transaction.Reason{{
				Code:    apperrors.CodeTradeInsufficientBalance,
				Message: "not enough relic fragments",
			}},
			ProposedAt: base,
			ResolvedAt: timePtr(base.Add(time.Minute)),
		},
	}
	for _, rec := range records {
		if err := journal.AppendResolved(context.Background(), rec); err != nil {
			t.Fatalf("AppendResolved(%s) error = %v", rec.ID, err)
		}
	}
	return dbPath
}

func timePtr(value time.Time) *time.Time {
	return &value
}

func TestParseConfigFlags(t *testing.T) {
	fs := flag.NewFlagSet("tradelog", flag.ContinueOnError)
	cfg, err := ParseConfig(fs, []string{
		"-db", "/tmp/trades.db",
		"-participant", "meridian",
		"-filter", `status = "ACCEPTED"`,
		"-limit", "5",
	})
	if err != nil {
		t.Fatalf("ParseConfig() error = %v", err)
	}
	if cfg.DBPath != "/tmp/trades.db" {
		t.Errorf("DBPath = %q, want /tmp/trades.db", cfg.DBPath)
	}
	if cfg.Participant != "meridian" {
		t.Errorf("Participant = %q, want meridian", cfg.Participant)
	}
	if cfg.Filter != `status = "ACCEPTED"` {
		t.Errorf("Filter = %q", cfg.Filter)
	}
	if cfg.Limit != 5 {
		t.Errorf("Limit = %d, want 5", cfg.Limit)
	}
}

func TestRunPrintsAllTrades(t *testing.T) {
	dbPath := seedJournal(t)
	var out bytes.Buffer

	if err := Run(context.Background(), Config{DBPath: dbPath}, &out); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	got := out.String()
	if !strings.Contains(got, "trade-1") || !strings.Contains(got, "trade-2") {
		t.Errorf("output missing trades:\n%s", got)
	}
	if !strings.Contains(got, "not enough relic fragments") {
		t.Errorf("output missing failure reason:\n%s", got)
	}
}

func TestRunFiltersByStatus(t *testing.T) {
	dbPath := seedJournal(t)
	var out bytes.Buffer

	cfg := Config{DBPath: dbPath, Filter: `status = "ACCEPTED"`}
	if err := Run(context.Background(), cfg, &out); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	got := out.String()
	if !strings.Contains(got, "trade-1") {
		t.Errorf("output missing accepted trade:\n%s", got)
	}
	if strings.Contains(got, "trade-2") {
		t.Errorf("output includes rejected trade:\n%s", got)
	}
}

func TestRunFiltersByParticipant(t *testing.T) {
	dbPath := seedJournal(t)
	var out bytes.Buffer

	cfg := Config{DBPath: dbPath, Participant: "harbor"}
	if err := Run(context.Background(), cfg, &out); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	got := out.String()
	if strings.Contains(got, "trade-1") || !strings.Contains(got, "trade-2") {
		t.Errorf("output = %q, want only trade-2", got)
	}
}

func TestRunSingleTrade(t *testing.T) {
	dbPath := seedJournal(t)
	var out bytes.Buffer

	cfg := Config{DBPath: dbPath, Trade: "trade-1"}
	if err := Run(context.Background(), cfg, &out); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !strings.Contains(out.String(), "5 trade goods") {
		t.Errorf("output missing offer detail:\n%s", out.String())
	}

	err := Run(context.Background(), Config{DBPath: dbPath, Trade: "missing"}, &out)
	if !apperrors.IsCode(err, apperrors.CodeNotFound) {
		t.Fatalf("Run() error = %v, want code %s", err, apperrors.CodeNotFound)
	}
}

func TestRunEmptyJournal(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "trades.db")
	var out bytes.Buffer

	if err := Run(context.Background(), Config{DBPath: dbPath}, &out); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !strings.Contains(out.String(), "no resolved trades") {
		t.Errorf("output = %q, want no-trades notice", out.String())
	}
}
