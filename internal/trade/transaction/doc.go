// Package transaction implements the trade lifecycle over the resource
// ledger: a proposal creates a PENDING record, and a single resolving call
// moves it to exactly one terminal status (ACCEPTED, REJECTED, CANCELLED,
// EXPIRED).
//
// Acceptance is validate-then-commit as one step against the then-current
// ledger and adjacency oracle. Nothing is reserved at proposal time; records
// that raced and lost re-validate as invalid and resolve to REJECTED, which
// is the intended fail-closed behavior, not an error in the mechanism.
package transaction
