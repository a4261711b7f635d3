// Package sqlite provides the SQLite-backed trade journal.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	apperrors "github.com/tannhaus/accord/internal/errors"
	"github.com/tannhaus/accord/internal/platform/storage/sqlitemigrate"
	"github.com/tannhaus/accord/internal/trade/filter"
	"github.com/tannhaus/accord/internal/trade/resource"
	"github.com/tannhaus/accord/internal/trade/storage"
	"github.com/tannhaus/accord/internal/trade/storage/sqlite/migrations"
	"github.com/tannhaus/accord/internal/trade/transaction"
)

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Store provides SQLite-backed persistence for resolved trades.
type Store struct {
	sqlDB *sql.DB
}

// Open opens a SQLite journal at the provided path.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}

	cleanPath := filepath.Clean(path)
	dsn := cleanPath + "?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=5000&_synchronous=NORMAL"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}

	store := &Store{sqlDB: sqlDB}
	if err := sqlitemigrate.ApplyMigrations(sqlDB, migrations.FS); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return store, nil
}

// Close closes the underlying SQLite database.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// AppendResolved records one terminal trade.
func (s *Store) AppendResolved(ctx context.Context, rec transaction.Record) error {
	if !rec.Status.Terminal() {
		return apperrors.WithMetadata(
			apperrors.CodeTradeNotTerminal,
			fmt.Sprintf("trade %s has status %s, the journal only holds resolved trades", rec.ID, rec.Status),
			map[string]string{"Trade": rec.ID, "Status": string(rec.Status)},
		)
	}
	if rec.ResolvedAt == nil {
		return apperrors.WithMetadata(
			apperrors.CodeTradeNotTerminal,
			fmt.Sprintf("trade %s is terminal but has no resolution time", rec.ID),
			map[string]string{"Trade": rec.ID},
		)
	}

	offerJSON, err := encodeBundle(rec.Offer)
	if err != nil {
		return err
	}
	requestJSON, err := encodeBundle(rec.Request)
	if err != nil {
		return err
	}
	reasonsJSON, err := encodeReasons(rec.FailureReasons)
	if err != nil {
		return err
	}

	_, err = s.sqlDB.ExecContext(ctx, `
INSERT INTO resolved_trades
    (id, proposer, counterparty, status, offer_json, request_json, failure_reasons, kinds, proposed_at, resolved_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID,
		string(rec.Proposer),
		string(rec.Counterparty),
		string(rec.Status),
		offerJSON,
		requestJSON,
		reasonsJSON,
		kindsOf(rec),
		toMillis(rec.ProposedAt),
		toMillis(*rec.ResolvedAt),
	)
	if err != nil {
		return fmt.Errorf("insert resolved trade: %w", err)
	}
	return nil
}

// GetResolved returns one resolved trade by id.
func (s *Store) GetResolved(ctx context.Context, id string) (transaction.Record, error) {
	row := s.sqlDB.QueryRowContext(ctx, `
SELECT id, proposer, counterparty, status, offer_json, request_json, failure_reasons, proposed_at, resolved_at
FROM resolved_trades WHERE id = ?`, id)
	rec, err := scanRecord(row.Scan)
	if err == sql.ErrNoRows {
		return transaction.Record{}, apperrors.WithMetadata(
			apperrors.CodeNotFound,
			fmt.Sprintf("resolved trade %s not found", id),
			map[string]string{"Trade": id},
		)
	}
	if err != nil {
		return transaction.Record{}, fmt.Errorf("get resolved trade: %w", err)
	}
	return rec, nil
}

// ListResolved returns resolved trades in resolution order, narrowed by the
// query's participant, AIP-160 filter, and limit.
func (s *Store) ListResolved(ctx context.Context, q storage.ListQuery) ([]transaction.Record, error) {
	var (
		clauses []string
		params  []any
	)
	if q.Participant != "" {
		clauses = append(clauses, "(proposer = ? OR counterparty = ?)")
		params = append(params, string(q.Participant), string(q.Participant))
	}
	if strings.TrimSpace(q.Filter) != "" {
		cond, err := filter.ParseTradeFilter(q.Filter)
		if err != nil {
			return nil, err
		}
		if cond.Clause != "" {
			clauses = append(clauses, cond.Clause)
			params = append(params, cond.Params...)
		}
	}

	query := `
SELECT id, proposer, counterparty, status, offer_json, request_json, failure_reasons, proposed_at, resolved_at
FROM resolved_trades`
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY resolved_at ASC, id ASC"
	if q.Limit > 0 {
		query += " LIMIT ?"
		params = append(params, q.Limit)
	}

	rows, err := s.sqlDB.QueryContext(ctx, query, params...)
	if err != nil {
		return nil, fmt.Errorf("list resolved trades: %w", err)
	}
	defer rows.Close()

	var records []transaction.Record
	for rows.Next() {
		rec, err := scanRecord(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan resolved trade: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate resolved trades: %w", err)
	}
	return records, nil
}

var _ storage.TransactionStore = (*Store)(nil)

func scanRecord(scan func(dest ...any) error) (transaction.Record, error) {
	var (
		rec         transaction.Record
		proposer    string
		counterpart string
		status      string
		offerJSON   string
		requestJSON string
		reasonsJSON string
		proposedAt  int64
		resolvedAt  int64
	)
	if err := scan(
		&rec.ID,
		&proposer,
		&counterpart,
		&status,
		&offerJSON,
		&requestJSON,
		&reasonsJSON,
		&proposedAt,
		&resolvedAt,
	); err != nil {
		return transaction.Record{}, err
	}

	parsedStatus, err := transaction.ParseStatus(status)
	if err != nil {
		return transaction.Record{}, err
	}
	offer, err := decodeBundle(offerJSON)
	if err != nil {
		return transaction.Record{}, err
	}
	request, err := decodeBundle(requestJSON)
	if err != nil {
		return transaction.Record{}, err
	}
	reasons, err := decodeReasons(reasonsJSON)
	if err != nil {
		return transaction.Record{}, err
	}

	rec.Proposer = resource.ParticipantID(proposer)
	rec.Counterparty = resource.ParticipantID(counterpart)
	rec.Status = parsedStatus
	rec.Offer = offer
	rec.Request = request
	rec.FailureReasons = reasons
	rec.ProposedAt = fromMillis(proposedAt)
	resolved := fromMillis(resolvedAt)
	rec.ResolvedAt = &resolved
	return rec, nil
}

type bundleRow struct {
	TradeGoods     int      `json:"trade_goods,omitempty"`
	Commodities    int      `json:"commodities,omitempty"`
	RelicFragments int      `json:"relic_fragments,omitempty"`
	Instruments    []string `json:"instruments,omitempty"`
}

func encodeBundle(bundle resource.Offer) (string, error) {
	row := bundleRow{
		TradeGoods:     bundle.TradeGoods,
		Commodities:    bundle.Commodities,
		RelicFragments: bundle.RelicFragments,
	}
	for _, instr := range bundle.Instruments {
		row.Instruments = append(row.Instruments, string(instr))
	}
	encoded, err := json.Marshal(row)
	if err != nil {
		return "", fmt.Errorf("marshal bundle: %w", err)
	}
	return string(encoded), nil
}

func decodeBundle(value string) (resource.Offer, error) {
	var row bundleRow
	if err := json.Unmarshal([]byte(value), &row); err != nil {
		return resource.Offer{}, fmt.Errorf("unmarshal bundle: %w", err)
	}
	bundle := resource.Offer{
		TradeGoods:     row.TradeGoods,
		Commodities:    row.Commodities,
		RelicFragments: row.RelicFragments,
	}
	for _, instr := range row.Instruments {
		bundle.Instruments = append(bundle.Instruments, resource.InstrumentID(instr))
	}
	return bundle, nil
}

type reasonRow struct {
	Code     string            `json:"code"`
	Message  string            `json:"message"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

func encodeReasons(reasons []transaction.Reason) (string, error) {
	if len(reasons) == 0 {
		return "[]", nil
	}
	rows := make([]reasonRow, 0, len(reasons))
	for _, reason := range reasons {
		rows = append(rows, reasonRow{
			Code:     string(reason.Code),
			Message:  reason.Message,
			Metadata: reason.Metadata,
		})
	}
	encoded, err := json.Marshal(rows)
	if err != nil {
		return "", fmt.Errorf("marshal failure reasons: %w", err)
	}
	return string(encoded), nil
}

func decodeReasons(value string) ([]transaction.Reason, error) {
	value = strings.TrimSpace(value)
	if value == "" || value == "[]" {
		return nil, nil
	}
	var rows []reasonRow
	if err := json.Unmarshal([]byte(value), &rows); err != nil {
		return nil, fmt.Errorf("unmarshal failure reasons: %w", err)
	}
	reasons := make([]transaction.Reason, 0, len(rows))
	for _, row := range rows {
		reasons = append(reasons, transaction.Reason{
			Code:     apperrors.Code(row.Code),
			Message:  row.Message,
			Metadata: row.Metadata,
		})
	}
	return reasons, nil
}

// kindsOf joins the kinds a trade references for the journal's kind filter
// column.
func kindsOf(rec transaction.Record) string {
	var kinds []string
	for _, kind := range resource.Kinds() {
		if rec.References(kind) {
			kinds = append(kinds, string(kind))
		}
	}
	return strings.Join(kinds, ",")
}
