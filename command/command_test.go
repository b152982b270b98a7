package command_test

import (
	"testing"

	"github.com/jeroenvanmaanen/dendrite/command"
)

func TestNew(t *testing.T) {
	cmd := command.New("foo", "1", []byte("{}"))

	if cmd.Payload == nil {
		t.Fatalf("Payload should not be nil")
	}

	if cmd.Payload.Type != "foo" {
		t.Fatalf("payload type should be %q; is %q", "foo", cmd.Payload.Type)
	}
}

func TestCommand_Clone(t *testing.T) {
	cmd := command.New("foo", "1", []byte("{}"))
	cmd.MetaData = map[string]string{"a": "b"}

	clone := cmd.Clone()
	clone.Payload.Data[0] = 'x'
	clone.MetaData["a"] = "c"

	if string(cmd.Payload.Data) != "{}" {
		t.Fatalf("modifying the clone's payload should not modify the original")
	}

	if cmd.MetaData["a"] != "b" {
		t.Fatalf("modifying the clone's meta data should not modify the original")
	}

	if (command.Command{}).Clone().Payload != nil {
		t.Fatalf("cloning a command without payload should keep the payload nil")
	}
}
