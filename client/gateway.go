package client

import (
	"context"
	"errors"
	"fmt"

	"github.com/jeroenvanmaanen/dendrite/api/axonpb"
	"github.com/jeroenvanmaanen/dendrite/codec"
	"github.com/jeroenvanmaanen/dendrite/event"
	"github.com/jeroenvanmaanen/dendrite/internal"
	"google.golang.org/grpc"
)

// ErrNoResponse is returned by Send when a command has no response.
var ErrNoResponse = errors.New("command has no response")

// CommandError is a command that failed at the worker or could not be routed.
type CommandError struct {
	Code    string
	Message string
}

func (err *CommandError) Error() string {
	return fmt.Sprintf("command failed [code=%v]: %s", err.Code, err.Message)
}

// Gateway sends commands to the server and queries the events of aggregates.
type Gateway struct {
	commands axonpb.CommandServiceClient
	events   event.Store
	newID    func() string
}

// GatewayOption is an option for a Gateway.
type GatewayOption func(*Gateway)

// MessageIDGenerator returns a GatewayOption that sets the generator of
// command message identifiers.
func MessageIDGenerator(newID func() string) GatewayOption {
	return func(g *Gateway) {
		g.newID = newID
	}
}

// NewGateway returns a Gateway that uses conn.
func NewGateway(conn grpc.ClientConnInterface, opts ...GatewayOption) *Gateway {
	g := &Gateway{
		commands: axonpb.NewCommandServiceClient(conn),
		events:   NewEventStore(conn),
		newID:    internal.NewID,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// SendCommand sends a command with the given payload and returns its response,
// which is nil if the command handler did not respond. The type name is both
// the command name and the payload type. Failed commands return a
// *CommandError.
func (g *Gateway) SendCommand(ctx context.Context, typeName string, payload []byte) (*codec.SerializedObject, error) {
	resp, err := g.commands.Dispatch(ctx, &axonpb.Command{
		MessageIdentifier: g.newID(),
		Name:              typeName,
		Payload:           &axonpb.SerializedObject{Type: typeName, Data: payload},
	})
	if err != nil {
		return nil, fmt.Errorf("dispatch %q command: %w", typeName, err)
	}

	if resp.ErrorCode != "" {
		cerr := &CommandError{Code: resp.ErrorCode}
		if resp.ErrorMessage != nil {
			cerr.Message = resp.ErrorMessage.Message
		}
		return nil, cerr
	}

	return resp.ResponsePayload(), nil
}

// QueryEvents returns the events of the given aggregate.
func (g *Gateway) QueryEvents(ctx context.Context, aggregateID string) ([]event.Event, error) {
	return g.events.ReadEvents(ctx, aggregateID)
}

// Send encodes cmd, sends it as a command of the given type, and decodes the
// response. Send returns ErrNoResponse if the command handler did not respond.
func Send[C, R any](ctx context.Context, g *Gateway, typeName string, cmd C, cmdCodec codec.Codec[C], respCodec codec.Codec[R]) (R, error) {
	var zero R

	b, err := cmdCodec.Marshal(cmd)
	if err != nil {
		return zero, fmt.Errorf("marshal %q command: %w", typeName, err)
	}

	resp, err := g.SendCommand(ctx, typeName, b)
	if err != nil {
		return zero, err
	}

	if resp == nil {
		return zero, fmt.Errorf("%w [command=%v]", ErrNoResponse, typeName)
	}

	return codec.Deserialize(respCodec, "", *resp)
}
