package memstore_test

import (
	"context"
	"testing"

	"github.com/jeroenvanmaanen/dendrite/codec"
	"github.com/jeroenvanmaanen/dendrite/event"
	"github.com/jeroenvanmaanen/dendrite/event/eventstore/memstore"
	"github.com/jeroenvanmaanen/dendrite/event/eventstore/test"
)

func TestStore(t *testing.T) {
	test.EventStore(t, "memstore", func() event.Store {
		return memstore.New()
	})
}

func TestNew_seeded(t *testing.T) {
	s := memstore.New(event.Event{
		AggregateIdentifier:     "a",
		AggregateSequenceNumber: 0,
		Payload:                 codec.SerializedObject{Type: "foo"},
	})

	highest, err := s.ReadHighestSequenceNr(context.Background(), "a", 0)
	if err != nil {
		t.Fatalf("ReadHighestSequenceNr() failed with %q", err)
	}

	if highest != 0 {
		t.Fatalf("highest sequence number should be %d; is %d", 0, highest)
	}
}
