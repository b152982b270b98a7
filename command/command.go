// Package command defines the command message that the worker receives from
// the command router.
package command

import (
	"fmt"

	"github.com/jeroenvanmaanen/dendrite/codec"
	"golang.org/x/exp/maps"
)

// Command is a request to change the state of an aggregate. Name is the
// routing key. Payload is nil for commands that were sent without one.
type Command struct {
	Name              string
	MessageIdentifier string
	Payload           *codec.SerializedObject
	MetaData          map[string]string
}

// New returns a command with the given name and payload. The payload type is
// the command name.
func New(name, messageID string, data []byte) Command {
	return Command{
		Name:              name,
		MessageIdentifier: messageID,
		Payload:           &codec.SerializedObject{Type: name, Data: data},
	}
}

// Clone returns a deep copy of cmd.
func (cmd Command) Clone() Command {
	if cmd.Payload != nil {
		p := cmd.Payload.Clone()
		cmd.Payload = &p
	}
	if cmd.MetaData != nil {
		cmd.MetaData = maps.Clone(cmd.MetaData)
	}
	return cmd
}

func (cmd Command) String() string {
	return fmt.Sprintf("%s[%s]", cmd.Name, cmd.MessageIdentifier)
}
