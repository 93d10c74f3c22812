// Package store holds the in-memory order set shared by the push pipeline
// and display readers. All writers go through Upsert or ReplaceBranch;
// readers get deep-copied snapshots, never live views.
package store

import (
	"sync"

	"github.com/google/uuid"
	"github.com/kiwari-pos/display/internal/order"
)

// Store is a keyed order collection guarded by a mutex so pushes,
// reconciliation and HTTP readers can share it.
type Store struct {
	mu     sync.RWMutex
	orders map[uuid.UUID]order.Order
}

// New creates an empty Store.
func New() *Store {
	return &Store{orders: make(map[uuid.UUID]order.Order)}
}

// Upsert inserts the order or fully replaces the stored entry with the same
// ID. The push payload is always a whole snapshot, so there is no
// field-level merge; applying the same snapshot twice is a no-op in effect.
func (s *Store) Upsert(o order.Order) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orders[o.ID] = o.Clone()
}

// Get returns a copy of the order, if present.
func (s *Store) Get(id uuid.UUID) (order.Order, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.orders[id]
	if !ok {
		return order.Order{}, false
	}
	return o.Clone(), true
}

// All returns a snapshot of every stored order. Iteration order is
// unspecified; display ordering is a presentation concern.
func (s *Store) All() []order.Order {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]order.Order, 0, len(s.orders))
	for _, o := range s.orders {
		out = append(out, o.Clone())
	}
	return out
}

// Len returns the number of stored orders.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.orders)
}

// ReplaceBranch atomically swaps every entry belonging to branchID for the
// given set. Entries for other branches are untouched. Used only by
// reconciliation.
func (s *Store) ReplaceBranch(branchID string, orders []order.Order) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, o := range s.orders {
		if o.BranchID == branchID {
			delete(s.orders, id)
		}
	}
	for _, o := range orders {
		s.orders[o.ID] = o.Clone()
	}
}
