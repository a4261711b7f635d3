package transaction

import (
	"fmt"
	"iter"
	"slices"
	"time"

	apperrors "github.com/tannhaus/accord/internal/errors"
	"github.com/tannhaus/accord/internal/trade/resource"
)

// History is the append-only log of resolved trade records, ordered by
// resolution time. Only terminal records may enter; nothing is ever mutated
// in place.
type History struct {
	records       []Record
	byParticipant map[resource.ParticipantID][]int
}

// NewHistory creates an empty history.
func NewHistory() *History {
	return &History{
		byParticipant: make(map[resource.ParticipantID][]int),
	}
}

// Append adds a resolved record. Appending a non-terminal record is a
// programming error and fails closed.
func (h *History) Append(rec Record) error {
	if !rec.Status.Terminal() {
		return apperrors.WithMetadata(
			apperrors.CodeTradeNotTerminal,
			fmt.Sprintf("trade %s has status %s, history only holds resolved trades", rec.ID, rec.Status),
			map[string]string{"Trade": rec.ID, "Status": string(rec.Status)},
		)
	}
	idx := len(h.records)
	h.records = append(h.records, rec.Clone())
	h.byParticipant[rec.Proposer] = append(h.byParticipant[rec.Proposer], idx)
	if rec.Counterparty != rec.Proposer {
		h.byParticipant[rec.Counterparty] = append(h.byParticipant[rec.Counterparty], idx)
	}
	return nil
}

// Len returns the number of resolved records.
func (h *History) Len() int {
	return len(h.records)
}

// All yields every resolved record in resolution order. The sequence is
// finite and restartable; each iteration yields fresh copies.
func (h *History) All() iter.Seq[Record] {
	return func(yield func(Record) bool) {
		for _, rec := range h.records {
			if !yield(rec.Clone()) {
				return
			}
		}
	}
}

// For yields the resolved records involving a participant, filtered by the
// query, in resolution order.
func (h *History) For(p resource.ParticipantID, q Query) iter.Seq[Record] {
	return func(yield func(Record) bool) {
		for _, idx := range h.byParticipant[p] {
			rec := h.records[idx]
			if !q.Matches(rec) {
				continue
			}
			if !yield(rec.Clone()) {
				return
			}
		}
	}
}

// Query filters history reads. Zero-valued fields match everything.
type Query struct {
	// Statuses restricts to the given terminal statuses.
	Statuses []Status
	// After and Before bound the resolution time (inclusive after,
	// exclusive before).
	After  time.Time
	Before time.Time
	// Kind restricts to trades whose offer or request carries the kind.
	Kind resource.Kind
}

// Matches reports whether a record satisfies every set filter.
func (q Query) Matches(rec Record) bool {
	if len(q.Statuses) > 0 && !slices.Contains(q.Statuses, rec.Status) {
		return false
	}
	if rec.ResolvedAt != nil {
		if !q.After.IsZero() && rec.ResolvedAt.Before(q.After) {
			return false
		}
		if !q.Before.IsZero() && !rec.ResolvedAt.Before(q.Before) {
			return false
		}
	}
	if q.Kind != "" && !rec.References(q.Kind) {
		return false
	}
	return true
}
