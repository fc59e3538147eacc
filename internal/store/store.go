// Package store holds the in-memory lead record store and its CSV snapshots.
package store

import (
	"sync"

	"github.com/kavir10/lead-scoring/internal/model"
)

// Store is an ordered collection of leads keyed by identity. Records are
// never removed once inserted; enrichment stages merge results into it at
// stage boundaries.
type Store struct {
	mu    sync.RWMutex
	order []model.Key
	leads map[model.Key]*model.Lead
}

// New creates a store seeded with leads. Later leads whose key is already
// present are dropped, so the first occurrence wins.
func New(leads ...model.Lead) *Store {
	s := &Store{leads: make(map[model.Key]*model.Lead, len(leads))}
	for _, l := range leads {
		s.Insert(l)
	}
	return s
}

// Insert adds a lead. It returns false when a lead with the same key exists.
func (s *Store) Insert(l model.Lead) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := l.Key()
	if _, ok := s.leads[k]; ok {
		return false
	}
	cp := l
	s.leads[k] = &cp
	s.order = append(s.order, k)
	return true
}

// Len returns the number of leads.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order)
}

// Get returns a copy of the lead with key k.
func (s *Store) Get(k model.Key) (model.Lead, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	l, ok := s.leads[k]
	if !ok {
		return model.Lead{}, false
	}
	return *l, true
}

// Leads returns copies of all leads in insertion order.
func (s *Store) Leads() []model.Lead {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Lead, 0, len(s.order))
	for _, k := range s.order {
		out = append(out, *s.leads[k])
	}
	return out
}

// Each calls fn on every lead in insertion order under the write lock.
func (s *Store) Each(fn func(l *model.Lead)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, k := range s.order {
		fn(s.leads[k])
	}
}

// Apply merges per-lead results into the store. Results are visited in store
// order rather than map order, and keys the store does not know are ignored.
// It returns the number of leads updated.
func Apply[T any](s *Store, results map[model.Key]T, merge func(l *model.Lead, v T)) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, k := range s.order {
		v, ok := results[k]
		if !ok {
			continue
		}
		merge(s.leads[k], v)
		n++
	}
	return n
}
