package eventscmd_test

import (
	"bytes"
	"testing"
	"time"

	"github.com/jeroenvanmaanen/dendrite/cli/internal/cmd/eventscmd"
	"github.com/jeroenvanmaanen/dendrite/cli/internal/cmdtest"
	"github.com/jeroenvanmaanen/dendrite/codec"
	"github.com/jeroenvanmaanen/dendrite/event"
	"github.com/jeroenvanmaanen/dendrite/example/greeting"
	"github.com/spf13/cobra"
)

func TestRender(t *testing.T) {
	ts := time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC)

	reg := greeting.Codecs()
	greeted, err := reg.Marshal(greeting.Greeted, greeting.GreetedEvent{Message: "World"})
	if err != nil {
		t.Fatalf("Marshal() failed with %q", err)
	}

	events := []event.Event{
		{
			AggregateIdentifier:     "xxx",
			AggregateSequenceNumber: 0,
			Timestamp:               ts.UnixMilli(),
			Payload:                 greeted,
		},
		{
			AggregateIdentifier:     "xxx",
			AggregateSequenceNumber: 1,
			Timestamp:               ts.Add(time.Minute).UnixMilli(),
			Payload:                 codec.SerializedObject{Type: "Unknown", Data: []byte("abc")},
		},
	}

	var out bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&out)

	if err := eventscmd.Render(cmd, reg, events); err != nil {
		t.Fatalf("Render() failed with %q", err)
	}

	want := cmdtest.Table([][]string{
		{"SEQ", "TYPE", "TIME", "PAYLOAD"},
		{"0", greeting.Greeted, "2024-03-01T12:00:00Z", "{Message:World}"},
		{"1", "Unknown", "2024-03-01T12:01:00Z", "<3 bytes>"},
	})

	if got := out.String(); got != want {
		t.Fatalf("Render() has wrong output.\n\nwant:\n%v\n\ngot:\n%v\n", want, got)
	}
}
