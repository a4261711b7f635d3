// Package errors provides structured error handling with i18n support.
package errors

import "google.golang.org/grpc/codes"

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Offer/request shape errors
	CodeOfferNegativeAmount      Code = "OFFER_NEGATIVE_AMOUNT"
	CodeOfferDuplicateInstrument Code = "OFFER_DUPLICATE_INSTRUMENT"
	CodeExchangeEmpty            Code = "EXCHANGE_EMPTY"
	CodeExchangeInstrumentTwice  Code = "EXCHANGE_INSTRUMENT_ON_BOTH_SIDES"
	CodeExchangeParticipant      Code = "EXCHANGE_PARTICIPANT_REQUIRED"

	// Validation errors
	CodeTradeNotAdjacent         Code = "TRADE_PARTIES_NOT_ADJACENT"
	CodeTradeInsufficientBalance Code = "TRADE_INSUFFICIENT_BALANCE"
	CodeTradeInstrumentNotOwned  Code = "TRADE_INSTRUMENT_NOT_OWNED"
	CodeTradeInstrumentPledged   Code = "TRADE_INSTRUMENT_ALREADY_PLEDGED"
	CodeTradeValidationFailed    Code = "TRADE_VALIDATION_FAILED"

	// Lifecycle errors
	CodeTradeNotFound    Code = "TRADE_NOT_FOUND"
	CodeTradeNotTerminal Code = "TRADE_NOT_TERMINAL"

	// Fail-closed internal errors
	CodeUnknownResource         Code = "UNKNOWN_RESOURCE"
	CodeLedgerInvariantViolated Code = "LEDGER_INVARIANT_VIOLATED"

	// Storage errors
	CodeNotFound Code = "NOT_FOUND"

	// Filter errors
	CodeFilterInvalid Code = "FILTER_INVALID"
)

// GRPCCode maps domain codes to gRPC status codes.
func (c Code) GRPCCode() codes.Code {
	switch c {
	// InvalidArgument - validation failures, bad input
	case CodeOfferNegativeAmount,
		CodeOfferDuplicateInstrument,
		CodeExchangeEmpty,
		CodeExchangeInstrumentTwice,
		CodeExchangeParticipant,
		CodeFilterInvalid:
		return codes.InvalidArgument

	// FailedPrecondition - state doesn't allow operation
	case CodeTradeNotAdjacent,
		CodeTradeInsufficientBalance,
		CodeTradeInstrumentNotOwned,
		CodeTradeInstrumentPledged,
		CodeTradeValidationFailed:
		return codes.FailedPrecondition

	// NotFound - resource doesn't exist
	case CodeTradeNotFound,
		CodeNotFound:
		return codes.NotFound

	// Internal - defects surfaced as errors, never user input problems
	case CodeUnknownResource,
		CodeLedgerInvariantViolated,
		CodeTradeNotTerminal:
		return codes.Internal

	default:
		return codes.Internal
	}
}
