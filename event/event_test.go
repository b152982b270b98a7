package event_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/jeroenvanmaanen/dendrite/codec"
	"github.com/jeroenvanmaanen/dendrite/event"
)

func newEvent(aggregateID string, seq int64) event.Event {
	return event.Event{
		MessageIdentifier:       fmt.Sprintf("%s-%d", aggregateID, seq),
		AggregateIdentifier:     aggregateID,
		AggregateSequenceNumber: seq,
		AggregateType:           "foo",
		Payload:                 codec.SerializedObject{Type: "bar", Data: []byte("{}")},
	}
}

func TestBatches(t *testing.T) {
	events := []event.Event{
		newEvent("a", 3),
		newEvent("b", 0),
		newEvent("a", 4),
		newEvent("b", 1),
	}

	batches, err := event.Batches(events)
	if err != nil {
		t.Fatalf("Batches() failed with %q", err)
	}

	want := []event.Batch{
		{AggregateIdentifier: "a", Events: []event.Event{events[0], events[2]}},
		{AggregateIdentifier: "b", Events: []event.Event{events[1], events[3]}},
	}

	if !cmp.Equal(want, batches) {
		t.Fatalf("Batches() returned wrong batches:\n%s", cmp.Diff(want, batches))
	}

	if batches[0].Expected() != 2 {
		t.Fatalf("Expected() should return %d; got %d", 2, batches[0].Expected())
	}

	if batches[1].Expected() != event.NoSequenceNr {
		t.Fatalf("Expected() should return %d; got %d", event.NoSequenceNr, batches[1].Expected())
	}
}

func TestBatches_gap(t *testing.T) {
	_, err := event.Batches([]event.Event{newEvent("a", 0), newEvent("a", 2)})
	if !errors.Is(err, event.ErrInvalidSequence) {
		t.Fatalf("Batches() should fail with %q; got %q", event.ErrInvalidSequence, err)
	}
}

func TestBatches_negative(t *testing.T) {
	_, err := event.Batches([]event.Event{newEvent("a", -1)})
	if !errors.Is(err, event.ErrInvalidSequence) {
		t.Fatalf("Batches() should fail with %q; got %q", event.ErrInvalidSequence, err)
	}
}

func TestConflictError(t *testing.T) {
	var err error = &event.ConflictError{AggregateIdentifier: "a", Expected: 1, Actual: 3}
	wrapped := fmt.Errorf("append events: %w", err)

	if !errors.Is(wrapped, event.ErrConflict) {
		t.Fatalf("errors.Is(%q, ErrConflict) should be true", wrapped)
	}

	cerr, ok := event.IsConflict(wrapped)
	if !ok || cerr == nil {
		t.Fatalf("IsConflict() should return the *ConflictError")
	}

	if cerr.Actual != 3 {
		t.Fatalf("Actual should be %d; is %d", 3, cerr.Actual)
	}

	if _, ok := event.IsConflict(errors.New("foo")); ok {
		t.Fatalf("IsConflict() should return false for unrelated errors")
	}

	if cerr, ok := event.IsConflict(fmt.Errorf("remote: %w", event.ErrConflict)); !ok || cerr != nil {
		t.Fatalf("IsConflict() should report a plain ErrConflict without details")
	}
}

func TestEvent_Clone(t *testing.T) {
	evt := newEvent("a", 0)
	evt.MetaData = map[string]string{"foo": "bar"}

	clone := evt.Clone()
	clone.MetaData["foo"] = "baz"
	clone.Payload.Data[0] = 'x'

	if evt.MetaData["foo"] != "bar" {
		t.Fatalf("modifying the clone's meta data should not modify the original")
	}

	if string(evt.Payload.Data) != "{}" {
		t.Fatalf("modifying the clone's payload should not modify the original")
	}
}
