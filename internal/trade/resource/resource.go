// Package resource defines the tradeable resource vocabulary: scalar
// balances (trade goods, commodities, relic fragments) and uniquely-owned
// instruments. The kind set is closed; every dispatch over it fails closed on
// anything it does not recognize.
package resource

import (
	"fmt"
	"sort"

	apperrors "github.com/tannhaus/accord/internal/errors"
)

// ParticipantID identifies an independent actor exchanging resources.
type ParticipantID string

// InstrumentID identifies a uniquely-owned, non-divisible tradeable item.
type InstrumentID string

// Kind names a category of tradeable resource.
type Kind string

const (
	KindTradeGoods     Kind = "trade_goods"
	KindCommodities    Kind = "commodities"
	KindRelicFragments Kind = "relic_fragments"
	// KindInstruments is the set-valued kind. It is queryable but carries no
	// scalar amount; Amount rejects it.
	KindInstruments Kind = "instruments"
)

// ScalarKinds returns the closed set of scalar kinds. Balance and
// sufficiency checks iterate this set so that adding a kind is a
// compile-time-visible change, never a silent pass-through.
func ScalarKinds() []Kind {
	return []Kind{KindTradeGoods, KindCommodities, KindRelicFragments}
}

// Kinds returns every queryable kind, including instruments.
func Kinds() []Kind {
	return append(ScalarKinds(), KindInstruments)
}

// ParseKind converts a string into a known Kind, failing closed on anything
// outside the enumerated set.
func ParseKind(value string) (Kind, error) {
	switch Kind(value) {
	case KindTradeGoods:
		return KindTradeGoods, nil
	case KindCommodities:
		return KindCommodities, nil
	case KindRelicFragments:
		return KindRelicFragments, nil
	case KindInstruments:
		return KindInstruments, nil
	default:
		return "", unknownKindError(value)
	}
}

// Offer is a bundle of resources one side puts into an exchange. The zero
// value is the empty bundle.
type Offer struct {
	TradeGoods     int
	Commodities    int
	RelicFragments int
	Instruments    []InstrumentID
}

// Validate rejects bundles with negative scalar amounts or duplicate
// instrument entries.
func (o Offer) Validate() error {
	for _, kind := range ScalarKinds() {
		amount, err := o.Amount(kind)
		if err != nil {
			return err
		}
		if amount < 0 {
			return apperrors.WithMetadata(
				apperrors.CodeOfferNegativeAmount,
				fmt.Sprintf("offer has negative %s: %d", kind, amount),
				map[string]string{"Resource": string(kind), "Amount": fmt.Sprintf("%d", amount)},
			)
		}
	}
	seen := make(map[InstrumentID]bool, len(o.Instruments))
	for _, instr := range o.Instruments {
		if seen[instr] {
			return apperrors.WithMetadata(
				apperrors.CodeOfferDuplicateInstrument,
				fmt.Sprintf("offer lists instrument %s twice", instr),
				map[string]string{"Instrument": string(instr)},
			)
		}
		seen[instr] = true
	}
	return nil
}

// IsEmpty reports whether every field of the bundle is zero or empty.
func (o Offer) IsEmpty() bool {
	for _, kind := range ScalarKinds() {
		amount, err := o.Amount(kind)
		if err != nil || amount != 0 {
			return false
		}
	}
	return len(o.Instruments) == 0
}

// Amount returns the scalar amount for a kind. Asking for the instruments
// kind or an unknown kind is an internal inconsistency, not a zero.
func (o Offer) Amount(kind Kind) (int, error) {
	switch kind {
	case KindTradeGoods:
		return o.TradeGoods, nil
	case KindCommodities:
		return o.Commodities, nil
	case KindRelicFragments:
		return o.RelicFragments, nil
	default:
		return 0, unknownKindError(string(kind))
	}
}

// References reports whether the bundle carries anything of the given kind.
func (o Offer) References(kind Kind) bool {
	if kind == KindInstruments {
		return len(o.Instruments) > 0
	}
	amount, err := o.Amount(kind)
	return err == nil && amount != 0
}

// HasInstrument reports whether the bundle pledges the given instrument.
func (o Offer) HasInstrument(instr InstrumentID) bool {
	for _, candidate := range o.Instruments {
		if candidate == instr {
			return true
		}
	}
	return false
}

// Normalize returns a copy with instruments sorted and deduplicated.
func (o Offer) Normalize() Offer {
	normalized := o
	normalized.Instruments = nil
	if len(o.Instruments) == 0 {
		return normalized
	}
	seen := make(map[InstrumentID]bool, len(o.Instruments))
	for _, instr := range o.Instruments {
		if !seen[instr] {
			seen[instr] = true
			normalized.Instruments = append(normalized.Instruments, instr)
		}
	}
	sort.Slice(normalized.Instruments, func(i, j int) bool {
		return normalized.Instruments[i] < normalized.Instruments[j]
	})
	return normalized
}

// Clone returns a deep copy of the bundle.
func (o Offer) Clone() Offer {
	cloned := o
	cloned.Instruments = append([]InstrumentID(nil), o.Instruments...)
	return cloned
}

func unknownKindError(value string) *apperrors.Error {
	return apperrors.WithMetadata(
		apperrors.CodeUnknownResource,
		fmt.Sprintf("unknown resource kind: %s", value),
		map[string]string{"Resource": value},
	)
}
