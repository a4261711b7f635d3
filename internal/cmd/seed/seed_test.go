package seed

import (
	"bytes"
	"context"
	"flag"
	"path/filepath"
	"strings"
	"testing"

	"github.com/tannhaus/accord/internal/trade/storage"
	"github.com/tannhaus/accord/internal/trade/storage/sqlite"
	"github.com/tannhaus/accord/internal/trade/transaction"
)

func TestParseConfigDefaults(t *testing.T) {
	fs := flag.NewFlagSet("seed", flag.ContinueOnError)
	cfg, err := ParseConfig(fs, nil)
	if err != nil {
		t.Fatalf("ParseConfig() error = %v", err)
	}
	if cfg.DBPath != filepath.Join("data", "trades.db") {
		t.Errorf("DBPath = %q, want %q", cfg.DBPath, filepath.Join("data", "trades.db"))
	}
	if cfg.Verbose {
		t.Error("Verbose = true, want false")
	}
}

func TestParseConfigFlags(t *testing.T) {
	fs := flag.NewFlagSet("seed", flag.ContinueOnError)
	cfg, err := ParseConfig(fs, []string{"-db", "/tmp/custom.db", "-v"})
	if err != nil {
		t.Fatalf("ParseConfig() error = %v", err)
	}
	if cfg.DBPath != "/tmp/custom.db" {
		t.Errorf("DBPath = %q, want /tmp/custom.db", cfg.DBPath)
	}
	if !cfg.Verbose {
		t.Error("Verbose = false, want true")
	}
}

func TestRunSeedsEveryTerminalStatus(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "trades.db")
	var out bytes.Buffer

	if err := Run(context.Background(), Config{DBPath: dbPath, Verbose: true}, &out); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !strings.Contains(out.String(), "seeded trade journal") {
		t.Errorf("output missing seed confirmation: %q", out.String())
	}
	if !strings.Contains(out.String(), "5 resolved, 1 accepted") {
		t.Errorf("output missing resolution summary: %q", out.String())
	}

	journal, err := sqlite.Open(dbPath)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer journal.Close()

	records, err := journal.ListResolved(context.Background(), storage.ListQuery{})
	if err != nil {
		t.Fatalf("ListResolved() error = %v", err)
	}
	if len(records) != 5 {
		t.Fatalf("len(records) = %d, want 5", len(records))
	}

	counts := map[transaction.Status]int{}
	for _, rec := range records {
		counts[rec.Status]++
	}
	want := map[transaction.Status]int{
		transaction.StatusAccepted:  1,
		transaction.StatusRejected:  2,
		transaction.StatusCancelled: 1,
		transaction.StatusExpired:   1,
	}
	for status, n := range want {
		if counts[status] != n {
			t.Errorf("counts[%s] = %d, want %d", status, counts[status], n)
		}
	}

	for _, rec := range records {
		if rec.Status != transaction.StatusRejected {
			continue
		}
		if rec.Proposer == "harbor" && len(rec.FailureReasons) == 0 {
			t.Error("validation-rejected trade has no failure reasons")
		}
	}
}
