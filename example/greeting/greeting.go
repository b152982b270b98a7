// Package greeting is an example aggregate. Greetings are acknowledged
// always, but only recorded as events while recording is switched on.
package greeting

import (
	"context"
	"fmt"

	"github.com/jeroenvanmaanen/dendrite/aggregate"
	"github.com/jeroenvanmaanen/dendrite/codec"
	"github.com/jeroenvanmaanen/dendrite/handler"
)

// Aggregate is the name of the greeting aggregate.
const Aggregate = "Greeting"

// Projection is the state of a greeting aggregate.
type Projection struct {
	IsRecording bool
}

// New returns the definition of the greeting aggregate.
func New() *aggregate.Definition[Projection] {
	ids := handler.NewRegistry[struct{}, string](handler.Strict())
	must(handler.Insert(ids, GreetCmd, codec.JSON[GreetCommand](), func(_ context.Context, cmd GreetCommand, _ struct{}) (string, error) {
		return cmd.AggregateIdentifier, nil
	}))
	must(handler.Insert(ids, RecordCmd, codec.JSON[RecordCommand](), func(_ context.Context, cmd RecordCommand, _ struct{}) (string, error) {
		return cmd.AggregateIdentifier, nil
	}))
	must(handler.Insert(ids, StopCmd, codec.JSON[StopCommand](), func(_ context.Context, cmd StopCommand, _ struct{}) (string, error) {
		return cmd.AggregateIdentifier, nil
	}))

	commands := handler.NewRegistry[Projection, aggregate.Outcome](handler.Strict())
	must(handler.Insert(commands, GreetCmd, codec.JSON[GreetCommand](), greet))
	must(handler.Insert(commands, RecordCmd, codec.JSON[RecordCommand](), record))
	must(handler.Insert(commands, StopCmd, codec.JSON[StopCommand](), stop))

	sourcing := handler.NewRegistry[Projection, Projection](handler.Strict())
	must(handler.Insert(sourcing, Greeted, codec.JSON[GreetedEvent](), func(_ context.Context, _ GreetedEvent, p Projection) (Projection, error) {
		return p, nil
	}))
	must(handler.Insert(sourcing, StartedRecording, codec.JSON[StartedRecordingEvent](), func(_ context.Context, _ StartedRecordingEvent, p Projection) (Projection, error) {
		p.IsRecording = true
		return p, nil
	}))
	must(handler.Insert(sourcing, StoppedRecording, codec.JSON[StoppedRecordingEvent](), func(_ context.Context, _ StoppedRecordingEvent, p Projection) (Projection, error) {
		p.IsRecording = false
		return p, nil
	}))

	return aggregate.New(Aggregate, func() Projection { return Projection{} }, ids, commands, sourcing)
}

func greet(_ context.Context, cmd GreetCommand, p Projection) (aggregate.Outcome, error) {
	ack, err := codec.Serialize(codec.JSON[Acknowledgement](), AcknowledgementType, Acknowledgement{
		Message: fmt.Sprintf("Hello %s!", cmd.Message),
	})
	if err != nil {
		return aggregate.Outcome{}, err
	}

	if !p.IsRecording {
		return aggregate.Respond(ack), nil
	}

	evt, err := codec.Serialize(codec.JSON[GreetedEvent](), Greeted, GreetedEvent{Message: cmd.Message})
	if err != nil {
		return aggregate.Outcome{}, err
	}

	return aggregate.Respond(ack, evt), nil
}

func record(_ context.Context, _ RecordCommand, p Projection) (aggregate.Outcome, error) {
	if p.IsRecording {
		return aggregate.Outcome{}, nil
	}
	evt, err := codec.Serialize(codec.JSON[StartedRecordingEvent](), StartedRecording, StartedRecordingEvent{})
	if err != nil {
		return aggregate.Outcome{}, err
	}
	return aggregate.Emit(evt), nil
}

func stop(_ context.Context, _ StopCommand, p Projection) (aggregate.Outcome, error) {
	if !p.IsRecording {
		return aggregate.Outcome{}, nil
	}
	evt, err := codec.Serialize(codec.JSON[StoppedRecordingEvent](), StoppedRecording, StoppedRecordingEvent{})
	if err != nil {
		return aggregate.Outcome{}, err
	}
	return aggregate.Emit(evt), nil
}

// Codecs returns a codec.Registry with all command, response, and event types
// of the greeting aggregate.
func Codecs() *codec.Registry {
	r := codec.New()
	RegisterCommands(r)
	RegisterEvents(r)
	return r
}

func must(err error) {
	if err != nil {
		panic(err)
	}
}
