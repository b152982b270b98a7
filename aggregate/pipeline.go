package aggregate

import (
	"context"
	"fmt"
	"time"

	"github.com/jeroenvanmaanen/dendrite/codec"
	"github.com/jeroenvanmaanen/dendrite/command"
	"github.com/jeroenvanmaanen/dendrite/event"
	"github.com/sirupsen/logrus"
)

// Pipeline routes commands to the aggregates of a Registry and handles them
// against an event store.
type Pipeline struct {
	reg     *Registry
	routing Routing
	store   event.Store
	log     logrus.FieldLogger
	clock   func() time.Time
	newID   func() string
}

// PipelineOption is an option for a Pipeline.
type PipelineOption func(*Pipeline)

// Logger returns a PipelineOption that sets the logger of the Pipeline.
// Defaults to logrus.StandardLogger().
func Logger(l logrus.FieldLogger) PipelineOption {
	return func(p *Pipeline) {
		p.log = l
	}
}

// Clock returns a PipelineOption that sets the time source for event
// timestamps.
func Clock(now func() time.Time) PipelineOption {
	return func(p *Pipeline) {
		p.clock = now
	}
}

// IDGenerator returns a PipelineOption that sets the generator of event
// message identifiers and batch ids.
func IDGenerator(newID func() string) PipelineOption {
	return func(p *Pipeline) {
		p.newID = newID
	}
}

// NewPipeline builds the routing table of reg and returns a Pipeline that
// handles commands against store. Aggregates that are inserted into reg
// afterwards are not routed.
func NewPipeline(reg *Registry, store event.Store, opts ...PipelineOption) (*Pipeline, error) {
	if store == nil {
		panic("[dendrite/aggregate.NewPipeline] nil store")
	}

	p := &Pipeline{reg: reg, store: store}
	for _, opt := range opts {
		opt(p)
	}
	if p.log == nil {
		p.log = logrus.StandardLogger()
	}

	routing, err := reg.Routes()
	if err != nil {
		return nil, fmt.Errorf("build routing table: %w", err)
	}
	p.routing = routing

	return p, nil
}

// Commands returns the names of the commands the Pipeline can handle.
func (p *Pipeline) Commands() []string {
	return p.routing.Commands()
}

// Handle handles a single command and returns its response, which is nil if
// the command handler did not respond.
func (p *Pipeline) Handle(ctx context.Context, cmd command.Command) (*codec.SerializedObject, error) {
	log := p.log.WithFields(logrus.Fields{
		"command":    cmd.Name,
		"message_id": cmd.MessageIdentifier,
	})

	outcome, err := p.handle(ctx, cmd, log)
	if err != nil {
		log.WithError(err).Warn("command handling failed")
		return nil, err
	}

	log.Debug("command handled")

	return outcome.Response, nil
}

func (p *Pipeline) handle(ctx context.Context, cmd command.Command, log logrus.FieldLogger) (Outcome, error) {
	if cmd.Payload == nil {
		return Outcome{}, fmt.Errorf("%w [command=%v]", ErrMissingPayload, cmd.Name)
	}

	name, ok := p.routing.Lookup(cmd.Name)
	if !ok {
		return Outcome{}, fmt.Errorf("%w [command=%v]", ErrUnknownCommand, cmd.Name)
	}

	agg, ok := p.reg.Get(name)
	if !ok {
		return Outcome{}, fmt.Errorf("%w [command=%v, aggregate=%v]", ErrUnknownCommand, cmd.Name, name)
	}

	return agg.HandleCommand(ctx, cmd, Runtime{
		Store: p.store,
		Log:   log.WithField("aggregate", name),
		Clock: p.clock,
		NewID: p.newID,
	})
}
