package i18n

// Error codes must match the codes defined in internal/errors/codes.go.
// These are duplicated as strings to avoid an import cycle.
const (
	CodeOfferNegativeAmount      = "OFFER_NEGATIVE_AMOUNT"
	CodeOfferDuplicateInstrument = "OFFER_DUPLICATE_INSTRUMENT"
	CodeExchangeEmpty            = "EXCHANGE_EMPTY"
	CodeExchangeInstrumentTwice  = "EXCHANGE_INSTRUMENT_ON_BOTH_SIDES"
	CodeExchangeParticipant      = "EXCHANGE_PARTICIPANT_REQUIRED"
	CodeTradeNotAdjacent         = "TRADE_PARTIES_NOT_ADJACENT"
	CodeTradeInsufficientBalance = "TRADE_INSUFFICIENT_BALANCE"
	CodeTradeInstrumentNotOwned  = "TRADE_INSTRUMENT_NOT_OWNED"
	CodeTradeInstrumentPledged   = "TRADE_INSTRUMENT_ALREADY_PLEDGED"
	CodeTradeValidationFailed    = "TRADE_VALIDATION_FAILED"
	CodeTradeNotFound            = "TRADE_NOT_FOUND"
	CodeTradeNotTerminal         = "TRADE_NOT_TERMINAL"
	CodeUnknownResource          = "UNKNOWN_RESOURCE"
	CodeLedgerInvariantViolated  = "LEDGER_INVARIANT_VIOLATED"
	CodeNotFound                 = "NOT_FOUND"
	CodeFilterInvalid            = "FILTER_INVALID"
)

var enUSCatalog = &Catalog{
	locale: "en-US",
	messages: map[Code]string{
		// Offer/request shape errors
		CodeOfferNegativeAmount:      "Offered amounts cannot be negative",
		CodeOfferDuplicateInstrument: "Instrument {{.Instrument}} is listed twice in the same bundle",
		CodeExchangeEmpty:            "An exchange must offer or request something",
		CodeExchangeInstrumentTwice:  "Instrument {{.Instrument}} cannot appear on both sides of an exchange",
		CodeExchangeParticipant:      "Both exchange participants are required",

		// Validation errors
		CodeTradeNotAdjacent:         "{{.Proposer}} and {{.Counterparty}} are not neighbors",
		CodeTradeInsufficientBalance: "{{.Participant}} has insufficient {{.Resource}}: have {{.Have}}, need {{.Need}}",
		CodeTradeInstrumentNotOwned:  "{{.Participant}} does not own instrument {{.Instrument}}",
		CodeTradeInstrumentPledged:   "Instrument {{.Instrument}} is already pledged in another pending trade",
		CodeTradeValidationFailed:    "The trade could not be validated",

		// Lifecycle errors
		CodeTradeNotFound:    "Trade {{.Trade}} was not found or is already resolved",
		CodeTradeNotTerminal: "Trade {{.Trade}} has not been resolved",

		// Fail-closed internal errors
		CodeUnknownResource:         "Unknown resource: {{.Resource}}",
		CodeLedgerInvariantViolated: "The ledger rejected an exchange it should never have seen",

		// Storage errors
		CodeNotFound: "The requested resource was not found",

		// Filter errors
		CodeFilterInvalid: "The filter expression is invalid",
	},
}
