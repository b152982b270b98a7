package axonpb

import (
	"github.com/jeroenvanmaanen/dendrite/codec"
	"github.com/jeroenvanmaanen/dendrite/command"
	"github.com/jeroenvanmaanen/dendrite/event"
)

// NewSerializedObject returns the wire form of obj.
func NewSerializedObject(obj codec.SerializedObject) *SerializedObject {
	return &SerializedObject{Type: obj.Type, Revision: obj.Revision, Data: obj.Data}
}

// AsSerializedObject returns the domain form of obj.
func (obj *SerializedObject) AsSerializedObject() codec.SerializedObject {
	if obj == nil {
		return codec.SerializedObject{}
	}
	return codec.SerializedObject{Type: obj.Type, Revision: obj.Revision, Data: obj.Data}
}

func optionalObject(obj *codec.SerializedObject) *SerializedObject {
	if obj == nil {
		return nil
	}
	return NewSerializedObject(*obj)
}

// NewCommand returns the wire form of cmd.
func NewCommand(cmd command.Command) *Command {
	return &Command{
		MessageIdentifier: cmd.MessageIdentifier,
		Name:              cmd.Name,
		Payload:           optionalObject(cmd.Payload),
		MetaData:          cmd.MetaData,
	}
}

// AsCommand returns the domain form of cmd.
func (cmd *Command) AsCommand() command.Command {
	out := command.Command{
		Name:              cmd.Name,
		MessageIdentifier: cmd.MessageIdentifier,
		MetaData:          cmd.MetaData,
	}
	if cmd.Payload != nil {
		p := cmd.Payload.AsSerializedObject()
		out.Payload = &p
	}
	return out
}

// NewEvent returns the wire form of evt.
func NewEvent(evt event.Event) *Event {
	return &Event{
		MessageIdentifier:       evt.MessageIdentifier,
		AggregateIdentifier:     evt.AggregateIdentifier,
		AggregateSequenceNumber: evt.AggregateSequenceNumber,
		AggregateType:           evt.AggregateType,
		Timestamp:               evt.Timestamp,
		Payload:                 NewSerializedObject(evt.Payload),
		MetaData:                evt.MetaData,
		Snapshot:                evt.Snapshot,
	}
}

// AsEvent returns the domain form of evt.
func (evt *Event) AsEvent() event.Event {
	return event.Event{
		MessageIdentifier:       evt.MessageIdentifier,
		Timestamp:               evt.Timestamp,
		AggregateIdentifier:     evt.AggregateIdentifier,
		AggregateSequenceNumber: evt.AggregateSequenceNumber,
		AggregateType:           evt.AggregateType,
		Payload:                 evt.Payload.AsSerializedObject(),
		MetaData:                evt.MetaData,
		Snapshot:                evt.Snapshot,
	}
}

// ResponsePayload returns the payload of resp in domain form, or nil.
func (resp *CommandResponse) ResponsePayload() *codec.SerializedObject {
	if resp.Payload == nil {
		return nil
	}
	p := resp.Payload.AsSerializedObject()
	return &p
}
