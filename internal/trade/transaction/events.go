package transaction

import "github.com/tannhaus/accord/internal/trade/ledger"

// ResolvedEvent is emitted once per terminal transition so the surrounding
// game-state layer can react, e.g. trigger instrument effects. The core does
// not interpret effects itself.
type ResolvedEvent struct {
	Record Record
	// Delta is the transfer applied to the ledger. Nil for every terminal
	// status except ACCEPTED.
	Delta *ledger.Delta
}

// ResolvedFunc receives resolved-transaction events. Handlers run
// synchronously on the resolving call, after the transition is recorded.
type ResolvedFunc func(ResolvedEvent)
