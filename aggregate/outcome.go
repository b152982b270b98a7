package aggregate

import "github.com/jeroenvanmaanen/dendrite/codec"

// Outcome is the result of a command handler: the events to append to the
// aggregate, in order, and an optional response for the sender of the command.
type Outcome struct {
	Events   []codec.SerializedObject
	Response *codec.SerializedObject
}

// Emit returns an Outcome with the given events and no response.
func Emit(events ...codec.SerializedObject) Outcome {
	return Outcome{Events: events}
}

// Respond returns an Outcome with the given response and events.
func Respond(response codec.SerializedObject, events ...codec.SerializedObject) Outcome {
	return Outcome{Events: events, Response: &response}
}

// WithoutEvents returns a copy of the outcome that only carries the response.
func (o Outcome) WithoutEvents() Outcome {
	return Outcome{Response: o.Response}
}
