package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/hospital-erp/backend/internal/domain/inventory"
	"go.uber.org/zap"
)

// Target names a view an operation writes into. Operations started against
// the same target invalidate each other's pending responses.
type Target string

// LedgerTarget is the target of operations on one ledger scope
func LedgerTarget(scope inventory.Scope) Target {
	return Target("ledger:" + scope.String())
}

// RequestTarget is the target of operations on one inventory request
func RequestTarget(id int64) Target {
	return Target(fmt.Sprintf("request:%d", id))
}

const (
	TargetSession          Target = "session"
	TargetRequests         Target = "requests"
	TargetPurchaseRequests Target = "purchase-requests"
	TargetTransactions     Target = "transactions"
	TargetDepartments      Target = "departments"
	TargetUsers            Target = "users"
)

// Generation identifies one started operation on a target
type Generation struct {
	target Target
	n      uint64
}

// Target returns the target the generation was started on
func (g Generation) Target() Target {
	return g.target
}

// Listener is notified after each applied event with the new state
type Listener func(State, Event)

// Store serializes every state change. Snapshots it hands out are never
// modified afterwards, so readers need no locking.
type Store struct {
	mu          sync.Mutex
	state       State
	generations map[Target]uint64
	listeners   []Listener
	logger      *zap.Logger
}

// New creates an empty store
func New(logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		state:       NewState(),
		generations: make(map[Target]uint64),
		logger:      logger,
	}
}

// Subscribe registers a listener called after every applied event
func (s *Store) Subscribe(l Listener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, l)
}

// Snapshot returns the current state
func (s *Store) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Dispatch applies an event. On error the state is left as it was.
func (s *Store) Dispatch(ev Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.applyLocked(ev)
}

// Begin starts an operation on target and invalidates every operation
// started on it before
func (s *Store) Begin(target Target) Generation {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generations[target]++
	return Generation{target: target, n: s.generations[target]}
}

// Abandon invalidates the pending operation on target, if any
func (s *Store) Abandon(target Target) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generations[target]++
}

// IsCurrent reports whether gen is still the latest operation on its target
func (s *Store) IsCurrent(gen Generation) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generations[gen.target] == gen.n
}

// DispatchIfCurrent applies ev only while gen is the latest operation on its
// target and ctx is still live. A late response is dropped and reported as
// not applied.
func (s *Store) DispatchIfCurrent(ctx context.Context, gen Generation, ev Event) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ctx.Err() != nil || s.generations[gen.target] != gen.n {
		s.logger.Debug("Dropping stale response",
			zap.String("target", string(gen.target)),
			zap.String("event", Name(ev)),
			zap.Uint64("generation", gen.n),
			zap.Uint64("current", s.generations[gen.target]))
		return false, nil
	}
	if err := s.applyLocked(ev); err != nil {
		return false, err
	}
	return true, nil
}

func (s *Store) applyLocked(ev Event) error {
	next, err := Reduce(s.state, ev)
	if err != nil {
		s.logger.Debug("Event refused", zap.String("event", Name(ev)), zap.Error(err))
		return err
	}

	for i := len(s.state.Deficits); i < len(next.Deficits); i++ {
		d := next.Deficits[i]
		s.logger.Warn("Local depletion ran short, cached ledger is stale",
			zap.String("scope", d.Scope.String()),
			zap.String("item_name", d.ItemName),
			zap.Int("requested", d.Requested),
			zap.Int("deficit", d.Missing),
			zap.Int64p("request_id", d.RequestID))
	}

	s.state = next
	for _, l := range s.listeners {
		l(next, ev)
	}
	return nil
}
