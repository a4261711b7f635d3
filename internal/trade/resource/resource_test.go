package resource

import (
	"testing"

	apperrors "github.com/tannhaus/accord/internal/errors"
)

func TestParseKind(t *testing.T) {
	for _, kind := range Kinds() {
		parsed, err := ParseKind(string(kind))
		if err != nil {
			t.Fatalf("ParseKind(%q) error = %v", kind, err)
		}
		if parsed != kind {
			t.Errorf("ParseKind(%q) = %q, want %q", kind, parsed, kind)
		}
	}
}

func TestParseKindRejectsUnknown(t *testing.T) {
	_, err := ParseKind("gold")
	if !apperrors.IsCode(err, apperrors.CodeUnknownResource) {
		t.Fatalf("ParseKind(gold) error = %v, want code %s", err, apperrors.CodeUnknownResource)
	}
}

func TestOfferValidate(t *testing.T) {
	tests := []struct {
		name     string
		offer    Offer
		wantCode apperrors.Code
	}{
		{
			name:  "empty bundle is valid",
			offer: Offer{},
		},
		{
			name:  "positive amounts are valid",
			offer: Offer{TradeGoods: 3, Commodities: 1, RelicFragments: 2, Instruments: []InstrumentID{"a", "b"}},
		},
		{
			name:     "negative trade goods",
			offer:    Offer{TradeGoods: -1},
			wantCode: apperrors.CodeOfferNegativeAmount,
		},
		{
			name:     "negative relic fragments",
			offer:    Offer{RelicFragments: -5},
			wantCode: apperrors.CodeOfferNegativeAmount,
		},
		{
			name:     "duplicate instrument",
			offer:    Offer{Instruments: []InstrumentID{"a", "b", "a"}},
			wantCode: apperrors.CodeOfferDuplicateInstrument,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.offer.Validate()
			if tt.wantCode == "" {
				if err != nil {
					t.Fatalf("Validate() error = %v, want nil", err)
				}
				return
			}
			if !apperrors.IsCode(err, tt.wantCode) {
				t.Fatalf("Validate() error = %v, want code %s", err, tt.wantCode)
			}
		})
	}
}

func TestOfferIsEmpty(t *testing.T) {
	if !(Offer{}).IsEmpty() {
		t.Error("zero Offer.IsEmpty() = false, want true")
	}
	if (Offer{Commodities: 1}).IsEmpty() {
		t.Error("Offer{Commodities: 1}.IsEmpty() = true, want false")
	}
	if (Offer{Instruments: []InstrumentID{"a"}}).IsEmpty() {
		t.Error("Offer with instrument IsEmpty() = true, want false")
	}
}

func TestOfferAmountFailsClosed(t *testing.T) {
	offer := Offer{TradeGoods: 7}

	amount, err := offer.Amount(KindTradeGoods)
	if err != nil || amount != 7 {
		t.Fatalf("Amount(trade_goods) = %d, %v, want 7, nil", amount, err)
	}

	if _, err := offer.Amount(KindInstruments); !apperrors.IsCode(err, apperrors.CodeUnknownResource) {
		t.Fatalf("Amount(instruments) error = %v, want code %s", err, apperrors.CodeUnknownResource)
	}
	if _, err := offer.Amount(Kind("spice")); !apperrors.IsCode(err, apperrors.CodeUnknownResource) {
		t.Fatalf("Amount(spice) error = %v, want code %s", err, apperrors.CodeUnknownResource)
	}
}

func TestOfferReferences(t *testing.T) {
	offer := Offer{Commodities: 2, Instruments: []InstrumentID{"a"}}

	if !offer.References(KindCommodities) {
		t.Error("References(commodities) = false, want true")
	}
	if !offer.References(KindInstruments) {
		t.Error("References(instruments) = false, want true")
	}
	if offer.References(KindTradeGoods) {
		t.Error("References(trade_goods) = true, want false")
	}
	if offer.References(Kind("spice")) {
		t.Error("References(spice) = true, want false")
	}
}

func TestOfferNormalize(t *testing.T) {
	offer := Offer{Instruments: []InstrumentID{"c", "a", "c", "b"}}

	normalized := offer.Normalize()
	want := []InstrumentID{"a", "b", "c"}
	if len(normalized.Instruments) != len(want) {
		t.Fatalf("Instruments = %v, want %v", normalized.Instruments, want)
	}
	for i := range want {
		if normalized.Instruments[i] != want[i] {
			t.Errorf("Instruments[%d] = %q, want %q", i, normalized.Instruments[i], want[i])
		}
	}
	if len(offer.Instruments) != 4 {
		t.Errorf("Normalize mutated the receiver: %v", offer.Instruments)
	}
}

func TestOfferClone(t *testing.T) {
	offer := Offer{Instruments: []InstrumentID{"a", "b"}}

	cloned := offer.Clone()
	cloned.Instruments[0] = "z"
	if offer.Instruments[0] != "a" {
		t.Errorf("Clone shares instrument backing array")
	}
}
