package transaction

import (
	"fmt"

	apperrors "github.com/tannhaus/accord/internal/errors"
	"github.com/tannhaus/accord/internal/trade/ledger"
	"github.com/tannhaus/accord/internal/trade/resource"
)

// AdjacencyOracle answers whether two participants may currently exchange.
// The answer is authoritative and may change between calls, which is why
// acceptance re-asks instead of trusting the value seen at proposal.
type AdjacencyOracle interface {
	AreNeighbors(a, b resource.ParticipantID) bool
}

// AdjacencyFunc adapts a function to the AdjacencyOracle interface.
type AdjacencyFunc func(a, b resource.ParticipantID) bool

// AreNeighbors implements AdjacencyOracle.
func (f AdjacencyFunc) AreNeighbors(a, b resource.ParticipantID) bool {
	return f(a, b)
}

// pledgeIndex maps an instrument to the id of the pending record it backs.
// An instrument backs at most one pending record at a time.
type pledgeIndex map[resource.InstrumentID]string

// validateProposal runs the proposal-time pre-check: adjacency, shape,
// non-degeneracy, and offer sufficiency. Request sufficiency is deferred to
// acceptance because the counterparty's balances are not the proposer's to
// assert against prematurely.
//
// A non-nil error is an internal inconsistency (unrecognized kind), never a
// user-facing rejection; those accumulate in the verdict.
func validateProposal(rec Record, snap *ledger.Ledger, oracle AdjacencyOracle, pledged pledgeIndex) (Verdict, error) {
	var verdict Verdict
	if err := checkShape(rec, &verdict); err != nil {
		return Verdict{}, err
	}
	checkAdjacency(rec, oracle, &verdict)
	if err := checkSufficiency(rec.Proposer, rec.Offer, snap, &verdict); err != nil {
		return Verdict{}, err
	}
	checkPledges(rec, rec.Offer, pledged, &verdict)
	return verdict, nil
}

// validateAcceptance runs the full rule set against the current ledger and
// oracle: everything the pre-check covered plus request sufficiency.
//
// The pledge check stays offer-side only. Instruments requested from the
// counterparty may well be pledged in the counterparty's own pending offers;
// acceptance is first-committer-wins, so this exchange commits and the
// counterparty's overlapping proposals fail their own re-validation later
// because ownership has moved.
func validateAcceptance(rec Record, snap *ledger.Ledger, oracle AdjacencyOracle, pledged pledgeIndex) (Verdict, error) {
	var verdict Verdict
	if err := checkShape(rec, &verdict); err != nil {
		return Verdict{}, err
	}
	checkAdjacency(rec, oracle, &verdict)
	if err := checkSufficiency(rec.Proposer, rec.Offer, snap, &verdict); err != nil {
		return Verdict{}, err
	}
	if err := checkSufficiency(rec.Counterparty, rec.Request, snap, &verdict); err != nil {
		return Verdict{}, err
	}
	checkPledges(rec, rec.Offer, pledged, &verdict)
	return verdict, nil
}

// checkShape covers structural rules that do not consult the ledger: bundle
// validity, the non-degenerate-exchange rule, distinct participants, and
// instrument disjointness across the two sides.
func checkShape(rec Record, verdict *Verdict) error {
	if rec.Proposer == "" || rec.Counterparty == "" {
		verdict.addError(apperrors.New(
			apperrors.CodeExchangeParticipant,
			"both exchange participants are required",
		))
	}
	if rec.Proposer != "" && rec.Proposer == rec.Counterparty {
		verdict.addError(apperrors.WithMetadata(
			apperrors.CodeExchangeParticipant,
			fmt.Sprintf("%s cannot trade with itself", rec.Proposer),
			map[string]string{"Participant": string(rec.Proposer)},
		))
	}

	for _, bundle := range []resource.Offer{rec.Offer, rec.Request} {
		if err := bundle.Validate(); err != nil {
			appErr, ok := err.(*apperrors.Error)
			if !ok {
				return err
			}
			if appErr.Code == apperrors.CodeUnknownResource {
				return err
			}
			verdict.addError(appErr)
		}
	}

	if rec.Offer.IsEmpty() && rec.Request.IsEmpty() {
		verdict.addError(apperrors.New(
			apperrors.CodeExchangeEmpty,
			"an exchange must offer or request something",
		))
	} else if rec.Offer.IsEmpty() || rec.Request.IsEmpty() {
		verdict.addWarning(apperrors.New(
			apperrors.CodeExchangeEmpty,
			"one-sided exchange: nothing flows back",
		))
	}

	for _, instr := range rec.Offer.Instruments {
		if rec.Request.HasInstrument(instr) {
			verdict.addError(apperrors.WithMetadata(
				apperrors.CodeExchangeInstrumentTwice,
				fmt.Sprintf("instrument %s appears on both sides of the exchange", instr),
				map[string]string{"Instrument": string(instr)},
			))
		}
	}
	return nil
}

func checkAdjacency(rec Record, oracle AdjacencyOracle, verdict *Verdict) {
	if oracle == nil || !oracle.AreNeighbors(rec.Proposer, rec.Counterparty) {
		verdict.addError(apperrors.WithMetadata(
			apperrors.CodeTradeNotAdjacent,
			fmt.Sprintf("%s and %s are not neighbors", rec.Proposer, rec.Counterparty),
			map[string]string{
				"Proposer":     string(rec.Proposer),
				"Counterparty": string(rec.Counterparty),
			},
		))
	}
}

// checkSufficiency verifies the giver currently holds every scalar amount
// and owns every instrument in the bundle. The scalar loop iterates the
// closed kind set; an unrecognized kind aborts validation as a defect rather
// than passing silently.
func checkSufficiency(giver resource.ParticipantID, bundle resource.Offer, snap *ledger.Ledger, verdict *Verdict) error {
	for _, kind := range resource.ScalarKinds() {
		need, err := bundle.Amount(kind)
		if err != nil {
			return err
		}
		if need == 0 {
			continue
		}
		have, err := snap.Balance(giver, kind)
		if err != nil {
			return err
		}
		if have < need {
			verdict.addError(apperrors.WithMetadata(
				apperrors.CodeTradeInsufficientBalance,
				fmt.Sprintf("%s has insufficient %s: have %d, need %d", giver, kind, have, need),
				map[string]string{
					"Participant": string(giver),
					"Resource":    string(kind),
					"Have":        fmt.Sprintf("%d", have),
					"Need":        fmt.Sprintf("%d", need),
				},
			))
		}
	}
	for _, instr := range bundle.Instruments {
		if !snap.Owns(giver, instr) {
			verdict.addError(apperrors.WithMetadata(
				apperrors.CodeTradeInstrumentNotOwned,
				fmt.Sprintf("%s does not own instrument %s", giver, instr),
				map[string]string{
					"Participant": string(giver),
					"Instrument":  string(instr),
				},
			))
		}
	}
	return nil
}

// checkPledges rejects instruments already backing a different pending
// record. A participant may hold many pending proposals, but each instrument
// backs at most one at a time.
func checkPledges(rec Record, bundle resource.Offer, pledged pledgeIndex, verdict *Verdict) {
	for _, instr := range bundle.Instruments {
		holder, ok := pledged[instr]
		if ok && holder != rec.ID {
			verdict.addError(apperrors.WithMetadata(
				apperrors.CodeTradeInstrumentPledged,
				fmt.Sprintf("instrument %s is already pledged in trade %s", instr, holder),
				map[string]string{
					"Instrument": string(instr),
					"Trade":      holder,
				},
			))
		}
	}
}
