package transaction

import (
	"time"

	"github.com/tannhaus/accord/internal/trade/resource"
)

// Record is one proposed exchange and its resolution. Records are immutable
// values: the manager replaces a record wholesale on transition and never
// mutates one that has reached a terminal status. A retry is a new record.
type Record struct {
	ID           string
	Proposer     resource.ParticipantID
	Counterparty resource.ParticipantID
	// Offer is what the proposer puts in; Request is what the proposer wants
	// from the counterparty.
	Offer   resource.Offer
	Request resource.Offer
	Status  Status
	// FailureReasons carries the validator's full error list when the record
	// was rejected by re-validation.
	FailureReasons []Reason
	ProposedAt     time.Time
	ResolvedAt     *time.Time
}

// Involves reports whether the participant is either side of the exchange.
func (r Record) Involves(p resource.ParticipantID) bool {
	return r.Proposer == p || r.Counterparty == p
}

// References reports whether either bundle carries anything of the kind.
func (r Record) References(kind resource.Kind) bool {
	return r.Offer.References(kind) || r.Request.References(kind)
}

// Clone returns a deep copy of the record.
func (r Record) Clone() Record {
	cloned := r
	cloned.Offer = r.Offer.Clone()
	cloned.Request = r.Request.Clone()
	cloned.FailureReasons = append([]Reason(nil), r.FailureReasons...)
	if r.ResolvedAt != nil {
		resolved := *r.ResolvedAt
		cloned.ResolvedAt = &resolved
	}
	return cloned
}
