package filter

import (
	"testing"

	apperrors "github.com/tannhaus/accord/internal/errors"
)

func TestParseTradeFilterEmpty(t *testing.T) {
	cond, err := ParseTradeFilter("   ")
	if err != nil {
		t.Fatalf("ParseTradeFilter() error = %v", err)
	}
	if cond.Clause != "" || len(cond.Params) != 0 {
		t.Errorf("ParseTradeFilter(blank) = %+v, want empty condition", cond)
	}
}

func TestParseTradeFilterTranslations(t *testing.T) {
	tests := []struct {
		name       string
		filter     string
		wantClause string
		wantParams []any
	}{
		{
			name:       "status equality",
			filter:     `status = "ACCEPTED"`,
			wantClause: "status = ?",
			wantParams: []any{"ACCEPTED"},
		},
		{
			name:       "status inequality",
			filter:     `status != "REJECTED"`,
			wantClause: "status != ?",
			wantParams: []any{"REJECTED"},
		},
		{
			name:       "proposer",
			filter:     `proposer = "meridian"`,
			wantClause: "proposer = ?",
			wantParams: []any{"meridian"},
		},
		{
			name:       "participant matches either side",
			filter:     `participant = "kestrel"`,
			wantClause: "(proposer = ? OR counterparty = ?)",
			wantParams: []any{"kestrel", "kestrel"},
		},
		{
			name:       "kind membership",
			filter:     `kind = "instruments"`,
			wantClause: "instr(kinds, ?) > 0",
			wantParams: []any{"instruments"},
		},
		{
			name:       "timestamp lower bound",
			filter:     `ts >= timestamp("2026-03-09T12:00:00Z")`,
			wantClause: "resolved_at >= ?",
			wantParams: []any{int64(1773057600000)},
		},
		{
			name:       "conjunction",
			filter:     `status = "ACCEPTED" AND counterparty = "harbor"`,
			wantClause: "(status = ? AND counterparty = ?)",
			wantParams: []any{"ACCEPTED", "harbor"},
		},
		{
			name:       "disjunction",
			filter:     `proposer = "meridian" OR proposer = "kestrel"`,
			wantClause: "(proposer = ? OR proposer = ?)",
			wantParams: []any{"meridian", "kestrel"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cond, err := ParseTradeFilter(tt.filter)
			if err != nil {
				t.Fatalf("ParseTradeFilter(%q) error = %v", tt.filter, err)
			}
			if cond.Clause != tt.wantClause {
				t.Errorf("Clause = %q, want %q", cond.Clause, tt.wantClause)
			}
			if len(cond.Params) != len(tt.wantParams) {
				t.Fatalf("Params = %v, want %v", cond.Params, tt.wantParams)
			}
			for i := range tt.wantParams {
				if cond.Params[i] != tt.wantParams[i] {
					t.Errorf("Params[%d] = %v, want %v", i, cond.Params[i], tt.wantParams[i])
				}
			}
		})
	}
}

func TestParseTradeFilterRejectsInvalid(t *testing.T) {
	tests := []struct {
		name   string
		filter string
	}{
		{name: "syntax error", filter: `status ~ "ACCEPTED"`},
		{name: "unknown field", filter: `color = "red"`},
		{name: "participant inequality", filter: `participant != "kestrel"`},
		{name: "kind ordering", filter: `kind > "instruments"`},
		{name: "bad timestamp", filter: `ts >= timestamp("not-a-time")`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseTradeFilter(tt.filter); err == nil {
				t.Fatalf("ParseTradeFilter(%q) expected error", tt.filter)
			}
		})
	}
}

func TestParseTradeFilterInvalidSyntaxCode(t *testing.T) {
	_, err := ParseTradeFilter(`status ~ "ACCEPTED"`)
	if !apperrors.IsCode(err, apperrors.CodeFilterInvalid) {
		t.Fatalf("error = %v, want code %s", err, apperrors.CodeFilterInvalid)
	}
}
