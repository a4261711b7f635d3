// Package ledger holds authoritative per-participant balances and instrument
// ownership. It is pure data plus mutation primitives; exchange policy lives
// in the transaction package.
//
// Instrument ownership is kept as a single owner index (instrument id to
// current owner) so uniqueness is structural: an instrument cannot be in two
// ownership sets because there is only one cell per instrument.
package ledger

import (
	"fmt"
	"sort"

	apperrors "github.com/tannhaus/accord/internal/errors"
	"github.com/tannhaus/accord/internal/trade/resource"
)

// Ledger stores scalar balances and the instrument owner index.
type Ledger struct {
	balances map[resource.ParticipantID]map[resource.Kind]int
	owners   map[resource.InstrumentID]resource.ParticipantID
}

// New creates an empty ledger.
func New() *Ledger {
	return &Ledger{
		balances: make(map[resource.ParticipantID]map[resource.Kind]int),
		owners:   make(map[resource.InstrumentID]resource.ParticipantID),
	}
}

// Balance returns the participant's balance for a scalar kind. Unknown kinds
// fail closed.
func (l *Ledger) Balance(p resource.ParticipantID, kind resource.Kind) (int, error) {
	if _, err := zeroAmountFor(kind); err != nil {
		return 0, err
	}
	return l.balances[p][kind], nil
}

// Owns reports whether the participant currently owns the instrument.
func (l *Ledger) Owns(p resource.ParticipantID, instr resource.InstrumentID) bool {
	owner, ok := l.owners[instr]
	return ok && owner == p
}

// Owner returns the current owner of an instrument, if it exists.
func (l *Ledger) Owner(instr resource.InstrumentID) (resource.ParticipantID, bool) {
	owner, ok := l.owners[instr]
	return owner, ok
}

// InstrumentsOf returns the participant's ownership set, sorted.
func (l *Ledger) InstrumentsOf(p resource.ParticipantID) []resource.InstrumentID {
	var instruments []resource.InstrumentID
	for instr, owner := range l.owners {
		if owner == p {
			instruments = append(instruments, instr)
		}
	}
	sort.Slice(instruments, func(i, j int) bool { return instruments[i] < instruments[j] })
	return instruments
}

// Credit increases a participant's balance for a scalar kind.
func (l *Ledger) Credit(p resource.ParticipantID, kind resource.Kind, amount int) error {
	if _, err := zeroAmountFor(kind); err != nil {
		return err
	}
	if amount < 0 {
		return apperrors.WithMetadata(
			apperrors.CodeOfferNegativeAmount,
			fmt.Sprintf("credit amount must be non-negative, got %d", amount),
			map[string]string{"Resource": string(kind), "Amount": fmt.Sprintf("%d", amount)},
		)
	}
	if l.balances[p] == nil {
		l.balances[p] = make(map[resource.Kind]int)
	}
	l.balances[p][kind] += amount
	return nil
}

// Debit decreases a participant's balance for a scalar kind. Balances never
// go negative.
func (l *Ledger) Debit(p resource.ParticipantID, kind resource.Kind, amount int) error {
	if _, err := zeroAmountFor(kind); err != nil {
		return err
	}
	if amount < 0 {
		return apperrors.WithMetadata(
			apperrors.CodeOfferNegativeAmount,
			fmt.Sprintf("debit amount must be non-negative, got %d", amount),
			map[string]string{"Resource": string(kind), "Amount": fmt.Sprintf("%d", amount)},
		)
	}
	have := l.balances[p][kind]
	if have < amount {
		return insufficientBalanceError(p, kind, have, amount)
	}
	l.balances[p][kind] = have - amount
	return nil
}

// AssignInstrument places an unowned instrument into a participant's set.
// Assigning an instrument that already has an owner violates uniqueness.
func (l *Ledger) AssignInstrument(p resource.ParticipantID, instr resource.InstrumentID) error {
	if owner, ok := l.owners[instr]; ok {
		return apperrors.WithMetadata(
			apperrors.CodeLedgerInvariantViolated,
			fmt.Sprintf("instrument %s is already owned by %s", instr, owner),
			map[string]string{"Instrument": string(instr), "Owner": string(owner)},
		)
	}
	l.owners[instr] = p
	return nil
}

// Totals returns the ledger-wide sum per scalar kind. Accepted exchanges must
// leave these sums unchanged.
func (l *Ledger) Totals() map[resource.Kind]int {
	totals := make(map[resource.Kind]int, len(resource.ScalarKinds()))
	for _, kind := range resource.ScalarKinds() {
		totals[kind] = 0
	}
	for _, perKind := range l.balances {
		for kind, amount := range perKind {
			totals[kind] += amount
		}
	}
	return totals
}

// InstrumentCount returns the total instrument population.
func (l *Ledger) InstrumentCount() int {
	return len(l.owners)
}

// Snapshot returns a deep copy. Validators and read paths only ever see
// snapshots, never the live ledger.
func (l *Ledger) Snapshot() *Ledger {
	snap := New()
	for p, perKind := range l.balances {
		cloned := make(map[resource.Kind]int, len(perKind))
		for kind, amount := range perKind {
			cloned[kind] = amount
		}
		snap.balances[p] = cloned
	}
	for instr, owner := range l.owners {
		snap.owners[instr] = owner
	}
	return snap
}

// Delta is the symmetric pair of transfers implied by an accepted exchange:
// the proposer's bundle moves to the counterparty and the counterparty's
// bundle moves to the proposer.
type Delta struct {
	Proposer         resource.ParticipantID
	Counterparty     resource.ParticipantID
	FromProposer     resource.Offer
	FromCounterparty resource.Offer
}

// Apply performs both legs of the exchange as one all-or-nothing mutation.
//
// Every precondition is checked before any state changes. A failed
// precondition here means the validator approved an exchange the ledger
// cannot safely apply; that is a defect, reported as a fatal
// LEDGER_INVARIANT_VIOLATED error and never clamped or partially applied.
func (l *Ledger) Apply(delta Delta) error {
	if delta.Proposer == "" || delta.Counterparty == "" {
		return invariantError("exchange delta is missing a participant", nil)
	}
	if delta.Proposer == delta.Counterparty {
		return invariantError("exchange delta names the same participant on both sides", nil)
	}

	type leg struct {
		giver    resource.ParticipantID
		receiver resource.ParticipantID
		bundle   resource.Offer
	}
	legs := []leg{
		{giver: delta.Proposer, receiver: delta.Counterparty, bundle: delta.FromProposer},
		{giver: delta.Counterparty, receiver: delta.Proposer, bundle: delta.FromCounterparty},
	}

	// Stage: verify every debit and instrument movement before mutating.
	for _, lg := range legs {
		for _, kind := range resource.ScalarKinds() {
			amount, err := lg.bundle.Amount(kind)
			if err != nil {
				return invariantError("exchange delta carries an unrecognized kind", err)
			}
			if amount < 0 {
				return invariantError(
					fmt.Sprintf("exchange delta has negative %s for %s", kind, lg.giver), nil)
			}
			if have := l.balances[lg.giver][kind]; have < amount {
				return invariantError(fmt.Sprintf(
					"%s would go negative on %s: have %d, need %d", lg.giver, kind, have, amount), nil)
			}
		}
		for _, instr := range lg.bundle.Instruments {
			owner, ok := l.owners[instr]
			if !ok || owner != lg.giver {
				return invariantError(fmt.Sprintf(
					"instrument %s is not owned by %s", instr, lg.giver), nil)
			}
		}
	}
	for _, instr := range delta.FromProposer.Instruments {
		if delta.FromCounterparty.HasInstrument(instr) {
			return invariantError(fmt.Sprintf(
				"instrument %s appears on both sides of the exchange", instr), nil)
		}
	}

	totalsBefore := l.Totals()
	instrumentsBefore := l.InstrumentCount()

	// Commit.
	for _, lg := range legs {
		for _, kind := range resource.ScalarKinds() {
			amount, _ := lg.bundle.Amount(kind)
			if amount == 0 {
				continue
			}
			l.balances[lg.giver][kind] -= amount
			if l.balances[lg.receiver] == nil {
				l.balances[lg.receiver] = make(map[resource.Kind]int)
			}
			l.balances[lg.receiver][kind] += amount
		}
		for _, instr := range lg.bundle.Instruments {
			l.owners[instr] = lg.receiver
		}
	}

	// An exchange moves holdings between the two parties; the per-kind
	// totals and the instrument population must come out unchanged.
	for kind, total := range l.Totals() {
		if total != totalsBefore[kind] {
			return invariantError(fmt.Sprintf(
				"exchange changed the %s supply: %d -> %d", kind, totalsBefore[kind], total), nil)
		}
	}
	if count := l.InstrumentCount(); count != instrumentsBefore {
		return invariantError(fmt.Sprintf(
			"exchange changed the instrument population: %d -> %d", instrumentsBefore, count), nil)
	}
	return nil
}

func insufficientBalanceError(p resource.ParticipantID, kind resource.Kind, have, need int) *apperrors.Error {
	return apperrors.WithMetadata(
		apperrors.CodeTradeInsufficientBalance,
		fmt.Sprintf("%s has insufficient %s: have %d, need %d", p, kind, have, need),
		map[string]string{
			"Participant": string(p),
			"Resource":    string(kind),
			"Have":        fmt.Sprintf("%d", have),
			"Need":        fmt.Sprintf("%d", need),
		},
	)
}

func invariantError(message string, cause error) *apperrors.Error {
	if cause != nil {
		return apperrors.Wrap(apperrors.CodeLedgerInvariantViolated, message, cause)
	}
	return apperrors.New(apperrors.CodeLedgerInvariantViolated, message)
}

// zeroAmountFor is the exhaustive scalar-kind gate shared by all balance
// operations.
func zeroAmountFor(kind resource.Kind) (int, error) {
	return resource.Offer{}.Amount(kind)
}
