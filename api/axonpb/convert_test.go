package axonpb_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/jeroenvanmaanen/dendrite/api/axonpb"
	"github.com/jeroenvanmaanen/dendrite/codec"
	"github.com/jeroenvanmaanen/dendrite/command"
	"github.com/jeroenvanmaanen/dendrite/event"
)

func TestCodec_Event(t *testing.T) {
	evt := event.Event{
		MessageIdentifier:       "m1",
		Timestamp:               1234,
		AggregateIdentifier:     "a1",
		AggregateSequenceNumber: 7,
		AggregateType:           "Greeting",
		Payload:                 codec.SerializedObject{Type: "GreetedEvent", Data: []byte(`{"message":"hi"}`)},
		MetaData:                map[string]string{event.MetaBatchID: "b1"},
	}

	var c axonpb.Codec
	b, err := c.Marshal(axonpb.NewEvent(evt))
	if err != nil {
		t.Fatalf("Marshal() failed with %q", err)
	}

	var decoded axonpb.Event
	if err := c.Unmarshal(b, &decoded); err != nil {
		t.Fatalf("Unmarshal() failed with %q", err)
	}

	if got := decoded.AsEvent(); !cmp.Equal(evt, got) {
		t.Fatalf("event changed on the wire:\n%s", cmp.Diff(evt, got))
	}
}

func TestCommand_withoutPayload(t *testing.T) {
	cmd := command.Command{Name: "foo", MessageIdentifier: "1"}

	var c axonpb.Codec
	b, err := c.Marshal(axonpb.NewCommand(cmd))
	if err != nil {
		t.Fatalf("Marshal() failed with %q", err)
	}

	var decoded axonpb.Command
	if err := c.Unmarshal(b, &decoded); err != nil {
		t.Fatalf("Unmarshal() failed with %q", err)
	}

	if got := decoded.AsCommand(); got.Payload != nil {
		t.Fatalf("missing payload should stay missing; got %v", got.Payload)
	}
}

func TestCodec_Name(t *testing.T) {
	if got := (axonpb.Codec{}).Name(); got != "json" {
		t.Fatalf("Name() should return %q; got %q", "json", got)
	}
}
