// Package test provides a conformance test suite for event.Store
// implementations.
package test

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/jeroenvanmaanen/dendrite/codec"
	"github.com/jeroenvanmaanen/dendrite/event"
	"golang.org/x/sync/errgroup"
)

// EventStoreFactory creates an empty event.Store.
type EventStoreFactory func() event.Store

// EventStore tests an event.Store implementation.
func EventStore(t *testing.T, name string, newStore EventStoreFactory) {
	t.Run(name, func(t *testing.T) {
		run(t, "Append", newStore, testAppend)
		run(t, "ReadEvents", newStore, testReadEvents)
		run(t, "ReadHighestSequenceNr", newStore, testReadHighestSequenceNr)
		run(t, "Conflict", newStore, testConflict)
		run(t, "InvalidSequence", newStore, testInvalidSequence)
		run(t, "Concurrency", newStore, testConcurrency)
	})
}

// NewEvent returns an event of the given aggregate with a unique message id.
func NewEvent(aggregateID string, seq int64) event.Event {
	return event.Event{
		MessageIdentifier:       uuid.NewString(),
		Timestamp:               1000 + seq,
		AggregateIdentifier:     aggregateID,
		AggregateSequenceNumber: seq,
		AggregateType:           "test",
		Payload: codec.SerializedObject{
			Type: "TestEvent",
			Data: []byte(fmt.Sprintf(`{"seq":%d}`, seq)),
		},
		MetaData: map[string]string{event.MetaBatchID: "batch"},
	}
}

func run(t *testing.T, name string, newStore EventStoreFactory, runner func(*testing.T, EventStoreFactory)) {
	t.Run(name, func(t *testing.T) {
		runner(t, newStore)
	})
}

func aggregateID() string {
	return uuid.NewString()
}

func testAppend(t *testing.T, newStore EventStoreFactory) {
	store := newStore()
	ctx := context.Background()
	id := aggregateID()

	events := []event.Event{NewEvent(id, 0), NewEvent(id, 1), NewEvent(id, 2)}
	if err := store.AppendEvents(ctx, events...); err != nil {
		t.Fatalf("AppendEvents() failed with %q", err)
	}

	more := []event.Event{NewEvent(id, 3)}
	if err := store.AppendEvents(ctx, more...); err != nil {
		t.Fatalf("appending a following event should not fail; got %q", err)
	}

	result, err := store.ReadEvents(ctx, id)
	if err != nil {
		t.Fatalf("ReadEvents() failed with %q", err)
	}

	AssertEqualEvents(t, append(events, more...), result)
}

func testReadEvents(t *testing.T, newStore EventStoreFactory) {
	store := newStore()
	ctx := context.Background()
	a, b := aggregateID(), aggregateID()

	if err := store.AppendEvents(ctx, NewEvent(a, 0), NewEvent(b, 0), NewEvent(a, 1)); err != nil {
		t.Fatalf("AppendEvents() failed with %q", err)
	}

	result, err := store.ReadEvents(ctx, a)
	if err != nil {
		t.Fatalf("ReadEvents() failed with %q", err)
	}

	if len(result) != 2 {
		t.Fatalf("ReadEvents() should return %d events; got %d", 2, len(result))
	}

	for i, evt := range result {
		if evt.AggregateIdentifier != a {
			t.Errorf("event #%d belongs to aggregate %q; want %q", i, evt.AggregateIdentifier, a)
		}
		if evt.AggregateSequenceNumber != int64(i) {
			t.Errorf("event #%d should have sequence number %d; has %d", i, i, evt.AggregateSequenceNumber)
		}
	}

	empty, err := store.ReadEvents(ctx, aggregateID())
	if err != nil {
		t.Fatalf("ReadEvents() for an unknown aggregate failed with %q", err)
	}
	if len(empty) != 0 {
		t.Fatalf("ReadEvents() for an unknown aggregate should return no events; got %d", len(empty))
	}
}

func testReadHighestSequenceNr(t *testing.T, newStore EventStoreFactory) {
	store := newStore()
	ctx := context.Background()
	id := aggregateID()

	highest, err := store.ReadHighestSequenceNr(ctx, id, 0)
	if err != nil {
		t.Fatalf("ReadHighestSequenceNr() failed with %q", err)
	}
	if highest != event.NoSequenceNr {
		t.Fatalf("highest sequence number of an empty aggregate should be %d; is %d", event.NoSequenceNr, highest)
	}

	if err := store.AppendEvents(ctx, NewEvent(id, 0), NewEvent(id, 1)); err != nil {
		t.Fatalf("AppendEvents() failed with %q", err)
	}

	if highest, err = store.ReadHighestSequenceNr(ctx, id, 0); err != nil {
		t.Fatalf("ReadHighestSequenceNr() failed with %q", err)
	}
	if highest != 1 {
		t.Fatalf("highest sequence number should be %d; is %d", 1, highest)
	}

	if highest, err = store.ReadHighestSequenceNr(ctx, id, 5); err != nil {
		t.Fatalf("ReadHighestSequenceNr() failed with %q", err)
	}
	if highest != event.NoSequenceNr {
		t.Fatalf("highest sequence number from 5 should be %d; is %d", event.NoSequenceNr, highest)
	}
}

func testConflict(t *testing.T, newStore EventStoreFactory) {
	store := newStore()
	ctx := context.Background()
	id := aggregateID()

	if err := store.AppendEvents(ctx, NewEvent(id, 0), NewEvent(id, 1)); err != nil {
		t.Fatalf("AppendEvents() failed with %q", err)
	}

	// a writer that read the aggregate before the second event was appended
	err := store.AppendEvents(ctx, NewEvent(id, 1))
	if !errors.Is(err, event.ErrConflict) {
		t.Fatalf("AppendEvents() should fail with %q; got %q", event.ErrConflict, err)
	}

	// a writer that skips a sequence number
	if err := store.AppendEvents(ctx, NewEvent(id, 3)); !errors.Is(err, event.ErrConflict) {
		t.Fatalf("AppendEvents() should fail with %q; got %q", event.ErrConflict, err)
	}

	// a failed append must not leave partial writes behind
	other := aggregateID()
	if err := store.AppendEvents(ctx, NewEvent(other, 0), NewEvent(id, 0)); !errors.Is(err, event.ErrConflict) {
		t.Fatalf("AppendEvents() should fail with %q; got %q", event.ErrConflict, err)
	}

	events, err := store.ReadEvents(ctx, other)
	if err != nil {
		t.Fatalf("ReadEvents() failed with %q", err)
	}
	if len(events) != 0 {
		t.Fatalf("conflicting append should not store any events; got %d", len(events))
	}
}

func testInvalidSequence(t *testing.T, newStore EventStoreFactory) {
	store := newStore()
	id := aggregateID()

	err := store.AppendEvents(context.Background(), NewEvent(id, 0), NewEvent(id, 2))
	if !errors.Is(err, event.ErrInvalidSequence) {
		t.Fatalf("AppendEvents() should fail with %q; got %q", event.ErrInvalidSequence, err)
	}
}

func testConcurrency(t *testing.T, newStore EventStoreFactory) {
	store := newStore()
	ctx := context.Background()
	id := aggregateID()

	var succeeded int32
	group, ctx := errgroup.WithContext(ctx)
	for i := 0; i < 10; i++ {
		group.Go(func() error {
			err := store.AppendEvents(ctx, NewEvent(id, 0))
			if err == nil {
				atomic.AddInt32(&succeeded, 1)
				return nil
			}
			if errors.Is(err, event.ErrConflict) {
				return nil
			}
			return err
		})
	}

	if err := group.Wait(); err != nil {
		t.Fatalf("concurrent appends failed with %q", err)
	}

	if succeeded != 1 {
		t.Fatalf("exactly one concurrent append of the first event should succeed; %d did", succeeded)
	}

	events, err := store.ReadEvents(context.Background(), id)
	if err != nil {
		t.Fatalf("ReadEvents() failed with %q", err)
	}
	if len(events) != 1 {
		t.Fatalf("store should contain %d event; has %d", 1, len(events))
	}
}

// AssertEqualEvents fails the test if the events differ in identity, order,
// sequence number, or payload.
func AssertEqualEvents(t *testing.T, want, got []event.Event) {
	t.Helper()

	if len(want) != len(got) {
		t.Fatalf("expected %d events; got %d", len(want), len(got))
	}

	for i := range want {
		w, g := want[i], got[i]
		if w.MessageIdentifier != g.MessageIdentifier ||
			w.AggregateIdentifier != g.AggregateIdentifier ||
			w.AggregateSequenceNumber != g.AggregateSequenceNumber ||
			w.AggregateType != g.AggregateType ||
			w.Timestamp != g.Timestamp ||
			w.Payload.Type != g.Payload.Type ||
			string(w.Payload.Data) != string(g.Payload.Data) {
			t.Errorf("event #%d differs:\n%s", i, cmp.Diff(w, g))
		}
		if w.MetaData[event.MetaBatchID] != g.MetaData[event.MetaBatchID] {
			t.Errorf("event #%d should have batch id %q; has %q", i, w.MetaData[event.MetaBatchID], g.MetaData[event.MetaBatchID])
		}
	}
}
