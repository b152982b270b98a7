package greeting

import (
	"context"

	"github.com/jeroenvanmaanen/dendrite/client"
	"github.com/jeroenvanmaanen/dendrite/codec"
)

const (
	GreetCmd  = "GreetCommand"
	RecordCmd = "RecordCommand"
	StopCmd   = "StopCommand"

	AcknowledgementType = "Acknowledgement"
)

// DefaultAggregateID is the id of the single greeting aggregate that the
// helpers in this package address.
const DefaultAggregateID = "xxx"

type GreetCommand struct {
	AggregateIdentifier string `json:"aggregate_identifier"`
	Message             string `json:"message"`
}

type RecordCommand struct {
	AggregateIdentifier string `json:"aggregate_identifier"`
}

type StopCommand struct {
	AggregateIdentifier string `json:"aggregate_identifier"`
}

// Acknowledgement is the response to a GreetCommand.
type Acknowledgement struct {
	Message string `json:"message"`
}

// RegisterCommands registers the codecs of the command and response types.
func RegisterCommands(r *codec.Registry) {
	codec.Register(r, GreetCmd, codec.JSON[GreetCommand]())
	codec.Register(r, RecordCmd, codec.JSON[RecordCommand]())
	codec.Register(r, StopCmd, codec.JSON[StopCommand]())
	codec.Register(r, AcknowledgementType, codec.JSON[Acknowledgement]())
}

// Greet sends a GreetCommand and returns the acknowledged greeting.
func Greet(ctx context.Context, g *client.Gateway, message string) (string, error) {
	ack, err := client.Send(
		ctx, g, GreetCmd,
		GreetCommand{AggregateIdentifier: DefaultAggregateID, Message: message},
		codec.JSON[GreetCommand](),
		codec.JSON[Acknowledgement](),
	)
	if err != nil {
		return "", err
	}
	return ack.Message, nil
}

// Record starts recording greetings.
func Record(ctx context.Context, g *client.Gateway) error {
	return send(ctx, g, RecordCmd, RecordCommand{AggregateIdentifier: DefaultAggregateID})
}

// Stop stops recording greetings.
func Stop(ctx context.Context, g *client.Gateway) error {
	return send(ctx, g, StopCmd, StopCommand{AggregateIdentifier: DefaultAggregateID})
}

func send[C any](ctx context.Context, g *client.Gateway, name string, cmd C) error {
	b, err := codec.JSON[C]().Marshal(cmd)
	if err != nil {
		return err
	}
	_, err = g.SendCommand(ctx, name, b)
	return err
}
