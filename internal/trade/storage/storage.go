// Package storage defines the persistence contracts for the trade journal.
// The trade core owns no file format; stores consume resolved records
// through the manager's event hook and serve read paths for tooling.
package storage

import (
	"context"

	"github.com/tannhaus/accord/internal/trade/resource"
	"github.com/tannhaus/accord/internal/trade/transaction"
)

// ListQuery narrows a journal read.
type ListQuery struct {
	// Participant restricts to trades involving the participant from either
	// side. Empty matches all.
	Participant resource.ParticipantID
	// Filter is an AIP-160 expression over status, proposer, counterparty,
	// participant, kind, and ts. Empty matches all.
	Filter string
	// Limit caps the number of returned records. Zero means no cap.
	Limit int
}

// TransactionStore persists resolved trade records.
type TransactionStore interface {
	// AppendResolved records one terminal trade. Non-terminal records are a
	// programming error and fail closed.
	AppendResolved(ctx context.Context, rec transaction.Record) error
	// GetResolved returns one resolved trade by id.
	GetResolved(ctx context.Context, id string) (transaction.Record, error)
	// ListResolved returns resolved trades in resolution order.
	ListResolved(ctx context.Context, q ListQuery) ([]transaction.Record, error)
	// Close releases the underlying resources.
	Close() error
}
