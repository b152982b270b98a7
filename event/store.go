package event

//go:generate mockgen -source=store.go -destination=./mocks/store.go
//go:generate mockgen -source=publish.go -destination=./mocks/publish.go

import (
	"context"
	"errors"
	"fmt"
)

// NoSequenceNr is reported as the highest sequence number of an aggregate
// that has no events.
const NoSequenceNr int64 = -1

// ErrInvalidSequence is returned when the events passed to AppendEvents are
// not numbered consecutively per aggregate.
var ErrInvalidSequence = errors.New("non-consecutive sequence numbers")

// Store is the event store of the command pipeline.
//
// AppendEvents must implement compare-and-append: for every aggregate in the
// appended events, the first sequence number must directly follow the highest
// stored sequence number of that aggregate. Otherwise AppendEvents appends
// nothing and returns an error that wraps ErrConflict.
type Store interface {
	// ReadEvents returns the events of the given aggregate, ordered by
	// sequence number.
	ReadEvents(ctx context.Context, aggregateID string) ([]Event, error)

	// ReadHighestSequenceNr returns the highest sequence number of the given
	// aggregate that is at least fromSequenceNr, or NoSequenceNr if there is
	// none.
	ReadHighestSequenceNr(ctx context.Context, aggregateID string, fromSequenceNr int64) (int64, error)

	// AppendEvents appends the given events atomically.
	AppendEvents(ctx context.Context, events ...Event) error
}

// Batch is a consecutive run of events of a single aggregate.
type Batch struct {
	AggregateIdentifier string
	Events              []Event
}

// Expected returns the highest sequence number that the store must have for
// the aggregate so that the batch can be appended.
func (b Batch) Expected() int64 {
	return b.Events[0].AggregateSequenceNumber - 1
}

// Batches groups events by aggregate in order of first appearance and checks
// that the sequence numbers of each aggregate are consecutive.
func Batches(events []Event) ([]Batch, error) {
	index := make(map[string]int)
	var batches []Batch
	for _, evt := range events {
		i, ok := index[evt.AggregateIdentifier]
		if !ok {
			if evt.AggregateSequenceNumber < 0 {
				return nil, fmt.Errorf("%w: negative sequence number %d [aggregate=%v]", ErrInvalidSequence, evt.AggregateSequenceNumber, evt.AggregateIdentifier)
			}
			index[evt.AggregateIdentifier] = len(batches)
			batches = append(batches, Batch{AggregateIdentifier: evt.AggregateIdentifier, Events: []Event{evt}})
			continue
		}

		b := &batches[i]
		if prev := b.Events[len(b.Events)-1].AggregateSequenceNumber; evt.AggregateSequenceNumber != prev+1 {
			return nil, fmt.Errorf("%w: %d follows %d [aggregate=%v]", ErrInvalidSequence, evt.AggregateSequenceNumber, prev, evt.AggregateIdentifier)
		}
		b.Events = append(b.Events, evt)
	}
	return batches, nil
}
