package transaction

import (
	"context"
	"fmt"
	"iter"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	apperrors "github.com/tannhaus/accord/internal/errors"
	"github.com/tannhaus/accord/internal/platform/id"
	"github.com/tannhaus/accord/internal/trade/ledger"
	"github.com/tannhaus/accord/internal/trade/resource"
)

var tracer = otel.Tracer("github.com/tannhaus/accord/internal/trade/transaction")

// Manager orchestrates the trade lifecycle: propose, validate, commit or
// abort, record. It is the sole mutator of the ledger and the sole producer
// of trade records.
//
// Every mutating operation takes the manager lock for its whole
// validate-then-commit critical section, so proposals and resolutions from
// independent participants serialize against the then-current ledger state.
type Manager struct {
	mu      sync.Mutex
	ledger  *ledger.Ledger
	oracle  AdjacencyOracle
	history *History
	pending map[string]Record
	order   []string
	clock   func() time.Time
	newID   func() (string, error)
	subs    []ResolvedFunc
}

// Option configures a Manager.
type Option func(*Manager)

// WithClock overrides the wall-clock source used for timestamps.
func WithClock(clock func() time.Time) Option {
	return func(m *Manager) {
		if clock != nil {
			m.clock = clock
		}
	}
}

// WithIDGenerator overrides the record id generator.
func WithIDGenerator(newID func() (string, error)) Option {
	return func(m *Manager) {
		if newID != nil {
			m.newID = newID
		}
	}
}

// NewManager creates a manager over the given ledger and adjacency oracle.
// The ledger must not be mutated by anyone else while trades are in flight,
// except through the game-state owner's own primitives between operations.
func NewManager(l *ledger.Ledger, oracle AdjacencyOracle, opts ...Option) *Manager {
	m := &Manager{
		ledger:  l,
		oracle:  oracle,
		history: NewHistory(),
		pending: make(map[string]Record),
		clock:   time.Now,
		newID:   id.NewID,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Subscribe registers a handler for resolved-transaction events. Handlers
// run synchronously after each terminal transition, outside the manager
// lock.
func (m *Manager) Subscribe(fn ResolvedFunc) {
	if fn == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subs = append(m.subs, fn)
}

// Propose runs the proposal-time pre-check and creates a PENDING record.
// The pre-check covers adjacency and the proposer's side only; the
// counterparty's balances are re-validated at acceptance. A failed pre-check
// returns a ValidationFailedError and creates nothing.
func (m *Manager) Propose(ctx context.Context, proposer, counterparty resource.ParticipantID, offer, request resource.Offer) (Record, error) {
	_, span := tracer.Start(ctx, "trade.propose", trace.WithAttributes(
		attribute.String("trade.proposer", string(proposer)),
		attribute.String("trade.counterparty", string(counterparty)),
	))
	defer span.End()

	m.mu.Lock()
	defer m.mu.Unlock()

	recordID, err := m.newID()
	if err != nil {
		return Record{}, fmt.Errorf("generate trade id: %w", err)
	}
	rec := Record{
		ID:           recordID,
		Proposer:     proposer,
		Counterparty: counterparty,
		Offer:        offer.Normalize(),
		Request:      request.Normalize(),
		Status:       StatusPending,
		ProposedAt:   m.clock().UTC(),
	}

	verdict, err := validateProposal(rec, m.ledger.Snapshot(), m.oracle, m.pledgesLocked())
	if err != nil {
		span.RecordError(err)
		return Record{}, err
	}
	if !verdict.OK() {
		return Record{}, newValidationFailedError(verdict)
	}

	m.pending[rec.ID] = rec
	m.order = append(m.order, rec.ID)
	span.SetAttributes(attribute.String("trade.id", rec.ID))
	return rec.Clone(), nil
}

// Accept re-validates a PENDING record against the current ledger and
// adjacency oracle, and on a fully valid verdict applies the paired transfer
// atomically and marks the record ACCEPTED. If state drifted since the
// proposal, the record is marked REJECTED with the validator's full error
// list, the ledger is untouched, and the rejected record is returned
// alongside a ValidationFailedError.
//
// On success, Accept also returns a snapshot of the post-commit ledger.
func (m *Manager) Accept(ctx context.Context, recordID string) (Record, *ledger.Ledger, error) {
	_, span := tracer.Start(ctx, "trade.accept", trace.WithAttributes(
		attribute.String("trade.id", recordID),
	))
	defer span.End()

	m.mu.Lock()

	rec, ok := m.pending[recordID]
	if !ok {
		m.mu.Unlock()
		return Record{}, nil, notFoundError(recordID)
	}

	verdict, err := validateAcceptance(rec, m.ledger.Snapshot(), m.oracle, m.pledgesLocked())
	if err != nil {
		m.mu.Unlock()
		span.RecordError(err)
		return Record{}, nil, err
	}
	if !verdict.OK() {
		rejected, event := m.resolveLocked(rec, StatusRejected, m.clock().UTC(), verdict.Errors, nil)
		m.mu.Unlock()
		m.emit(event)
		span.SetAttributes(attribute.String("trade.status", string(StatusRejected)))
		return rejected, nil, newValidationFailedError(verdict)
	}

	delta := ledger.Delta{
		Proposer:         rec.Proposer,
		Counterparty:     rec.Counterparty,
		FromProposer:     rec.Offer,
		FromCounterparty: rec.Request,
	}
	if err := m.ledger.Apply(delta); err != nil {
		// The validator approved an exchange the ledger refused. The record
		// stays pending, the ledger is untouched, and the defect propagates.
		m.mu.Unlock()
		span.RecordError(err)
		return Record{}, nil, err
	}

	accepted, event := m.resolveLocked(rec, StatusAccepted, m.clock().UTC(), nil, &delta)
	snap := m.ledger.Snapshot()
	m.mu.Unlock()
	m.emit(event)
	span.SetAttributes(attribute.String("trade.status", string(StatusAccepted)))
	return accepted, snap, nil
}

// Reject marks a PENDING record REJECTED without touching the ledger.
// Rejection is counterparty-initiated; authorization is the caller's.
func (m *Manager) Reject(ctx context.Context, recordID string) (Record, error) {
	return m.terminate(ctx, "trade.reject", recordID, StatusRejected, time.Time{})
}

// Cancel marks a PENDING record CANCELLED without touching the ledger.
// Cancellation is proposer-initiated; authorization is the caller's.
func (m *Manager) Cancel(ctx context.Context, recordID string) (Record, error) {
	return m.terminate(ctx, "trade.cancel", recordID, StatusCancelled, time.Time{})
}

// Expire marks a PENDING record EXPIRED. Staleness is judged by the caller's
// expiry policy; the manager only provides the mechanism.
func (m *Manager) Expire(ctx context.Context, recordID string, now time.Time) (Record, error) {
	return m.terminate(ctx, "trade.expire", recordID, StatusExpired, now)
}

func (m *Manager) terminate(ctx context.Context, spanName, recordID string, status Status, at time.Time) (Record, error) {
	_, span := tracer.Start(ctx, spanName, trace.WithAttributes(
		attribute.String("trade.id", recordID),
	))
	defer span.End()

	m.mu.Lock()
	rec, ok := m.pending[recordID]
	if !ok {
		m.mu.Unlock()
		return Record{}, notFoundError(recordID)
	}
	if at.IsZero() {
		at = m.clock().UTC()
	}
	resolved, event := m.resolveLocked(rec, status, at.UTC(), nil, nil)
	m.mu.Unlock()
	m.emit(event)
	return resolved, nil
}

// PendingFor yields the PENDING records where the participant is proposer or
// counterparty, in proposal order. The sequence is finite and restartable.
func (m *Manager) PendingFor(p resource.ParticipantID) iter.Seq[Record] {
	m.mu.Lock()
	records := make([]Record, 0, len(m.order))
	for _, recordID := range m.order {
		if rec, ok := m.pending[recordID]; ok && rec.Involves(p) {
			records = append(records, rec.Clone())
		}
	}
	m.mu.Unlock()
	return sliceSeq(records)
}

// Pending yields every PENDING record in proposal order.
func (m *Manager) Pending() iter.Seq[Record] {
	m.mu.Lock()
	records := make([]Record, 0, len(m.order))
	for _, recordID := range m.order {
		if rec, ok := m.pending[recordID]; ok {
			records = append(records, rec.Clone())
		}
	}
	m.mu.Unlock()
	return sliceSeq(records)
}

// Resolved yields every terminal record in resolution order.
func (m *Manager) Resolved() iter.Seq[Record] {
	m.mu.Lock()
	records := make([]Record, 0, m.history.Len())
	for rec := range m.history.All() {
		records = append(records, rec)
	}
	m.mu.Unlock()
	return sliceSeq(records)
}

// HistoryFor yields the terminal records involving the participant, filtered
// by the query, in resolution order.
func (m *Manager) HistoryFor(p resource.ParticipantID, q Query) iter.Seq[Record] {
	m.mu.Lock()
	var records []Record
	for rec := range m.history.For(p, q) {
		records = append(records, rec)
	}
	m.mu.Unlock()
	return sliceSeq(records)
}

// Lookup returns a record by id, pending or resolved.
func (m *Manager) Lookup(recordID string) (Record, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if rec, ok := m.pending[recordID]; ok {
		return rec.Clone(), true
	}
	for rec := range m.history.All() {
		if rec.ID == recordID {
			return rec, true
		}
	}
	return Record{}, false
}

// resolveLocked transitions a pending record to a terminal status, appends
// it to history, and prepares the resolved event. Callers hold the lock and
// emit the event after releasing it so subscribers can call back into the
// manager.
func (m *Manager) resolveLocked(rec Record, status Status, at time.Time, reasons []Reason, delta *ledger.Delta) (Record, ResolvedEvent) {
	rec.Status = status
	rec.ResolvedAt = &at
	rec.FailureReasons = reasons
	delete(m.pending, rec.ID)
	for i, recordID := range m.order {
		if recordID == rec.ID {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	// Append cannot fail here: status is terminal by construction.
	_ = m.history.Append(rec)
	return rec.Clone(), ResolvedEvent{Record: rec.Clone(), Delta: delta}
}

func (m *Manager) emit(event ResolvedEvent) {
	m.mu.Lock()
	subs := append([]ResolvedFunc(nil), m.subs...)
	m.mu.Unlock()
	for _, fn := range subs {
		fn(event)
	}
}

// pledgesLocked indexes every instrument offered in a pending record by the
// record backing it. Proposal-time validation consults this to stop a
// participant double-pledging one instrument across concurrent proposals.
func (m *Manager) pledgesLocked() pledgeIndex {
	pledged := make(pledgeIndex)
	for _, recordID := range m.order {
		rec, ok := m.pending[recordID]
		if !ok {
			continue
		}
		for _, instr := range rec.Offer.Instruments {
			pledged[instr] = rec.ID
		}
	}
	return pledged
}

func notFoundError(recordID string) *apperrors.Error {
	return apperrors.WithMetadata(
		apperrors.CodeTradeNotFound,
		fmt.Sprintf("trade %s was not found or is already resolved", recordID),
		map[string]string{"Trade": recordID},
	)
}

func sliceSeq(records []Record) iter.Seq[Record] {
	return func(yield func(Record) bool) {
		for _, rec := range records {
			if !yield(rec) {
				return
			}
		}
	}
}
