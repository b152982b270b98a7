package greeting

import (
	"context"
	"fmt"

	"github.com/jeroenvanmaanen/dendrite/client"
	"github.com/jeroenvanmaanen/dendrite/codec"
)

const (
	Greeted          = "GreetedEvent"
	StartedRecording = "StartedRecordingEvent"
	StoppedRecording = "StoppedRecordingEvent"
)

type GreetedEvent struct {
	Message string `json:"message"`
}

type StartedRecordingEvent struct{}

type StoppedRecordingEvent struct{}

// RegisterEvents registers the codecs of the greeting events.
func RegisterEvents(r *codec.Registry) {
	codec.Register(r, Greeted, codec.JSON[GreetedEvent]())
	codec.Register(r, StartedRecording, codec.JSON[StartedRecordingEvent]())
	codec.Register(r, StoppedRecording, codec.JSON[StoppedRecordingEvent]())
}

// Greetings returns the recorded greetings in the order they were recorded.
func Greetings(ctx context.Context, g *client.Gateway) ([]string, error) {
	events, err := g.QueryEvents(ctx, DefaultAggregateID)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}

	greetings := make([]string, 0, len(events))
	for _, evt := range events {
		if evt.Payload.Type != Greeted {
			continue
		}
		data, err := codec.Deserialize(codec.JSON[GreetedEvent](), Greeted, evt.Payload)
		if err != nil {
			return greetings, fmt.Errorf("decode greeting #%d: %w", evt.AggregateSequenceNumber, err)
		}
		greetings = append(greetings, data.Message)
	}

	return greetings, nil
}
