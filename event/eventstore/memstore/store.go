// Package memstore provides a thread-safe in-memory event store.
package memstore

import (
	"context"
	"fmt"
	"sync"

	"github.com/jeroenvanmaanen/dendrite/event"
	"github.com/jeroenvanmaanen/dendrite/internal/slice"
)

// Store is an in-memory event.Store.
type Store struct {
	mux    sync.RWMutex
	events map[string][]event.Event
}

// New returns an in-memory event store, optionally seeded with events.
func New(events ...event.Event) *Store {
	s := &Store{events: make(map[string][]event.Event)}
	for _, evt := range events {
		s.events[evt.AggregateIdentifier] = append(s.events[evt.AggregateIdentifier], evt.Clone())
	}
	return s
}

// ReadEvents returns the events of the given aggregate.
func (s *Store) ReadEvents(_ context.Context, aggregateID string) ([]event.Event, error) {
	s.mux.RLock()
	defer s.mux.RUnlock()
	stored := s.events[aggregateID]
	if len(stored) == 0 {
		return nil, nil
	}
	return slice.Map(stored, event.Event.Clone), nil
}

// ReadHighestSequenceNr returns the highest sequence number of the aggregate.
func (s *Store) ReadHighestSequenceNr(_ context.Context, aggregateID string, fromSequenceNr int64) (int64, error) {
	s.mux.RLock()
	defer s.mux.RUnlock()
	highest := s.highest(aggregateID)
	if highest < fromSequenceNr {
		return event.NoSequenceNr, nil
	}
	return highest, nil
}

// AppendEvents appends the events if every aggregate is still at the
// expected sequence number.
func (s *Store) AppendEvents(_ context.Context, events ...event.Event) error {
	batches, err := event.Batches(events)
	if err != nil {
		return err
	}

	s.mux.Lock()
	defer s.mux.Unlock()

	for _, b := range batches {
		if actual := s.highest(b.AggregateIdentifier); actual != b.Expected() {
			return fmt.Errorf("append events: %w", &event.ConflictError{
				AggregateIdentifier: b.AggregateIdentifier,
				Expected:            b.Expected(),
				Actual:              actual,
			})
		}
	}

	for _, b := range batches {
		s.events[b.AggregateIdentifier] = append(s.events[b.AggregateIdentifier], slice.Map(b.Events, event.Event.Clone)...)
	}

	return nil
}

func (s *Store) highest(aggregateID string) int64 {
	stored := s.events[aggregateID]
	if len(stored) == 0 {
		return event.NoSequenceNr
	}
	return stored[len(stored)-1].AggregateSequenceNumber
}
