// Package aggregate implements event-sourced aggregates that handle commands.
//
// A Definition describes one aggregate type: how to extract the aggregate id
// from a command, how to handle its commands, and how to rebuild its state
// from its events. A Registry holds the definitions of a worker and routes
// commands to them, and a Pipeline runs the full handling of a single command.
package aggregate

import (
	"context"
	"fmt"
	"time"

	"github.com/jeroenvanmaanen/dendrite/codec"
	"github.com/jeroenvanmaanen/dendrite/command"
	"github.com/jeroenvanmaanen/dendrite/event"
	"github.com/jeroenvanmaanen/dendrite/handler"
	"github.com/jeroenvanmaanen/dendrite/internal"
	"github.com/sirupsen/logrus"
)

// IDExtractors extract the aggregate identifier from a command payload or a
// command response. An extractor that returns an empty string does not
// identify an aggregate.
type IDExtractors = handler.Registry[struct{}, string]

// Handle is the type-erased interface of a Definition.
type Handle interface {
	// Name returns the aggregate name.
	Name() string

	// CommandNames returns the names of the commands the aggregate handles.
	CommandNames() []string

	// HandleCommand handles cmd and returns the outcome without its events.
	HandleCommand(ctx context.Context, cmd command.Command, rt Runtime) (Outcome, error)
}

// Runtime provides the collaborators of HandleCommand. Zero fields fall back
// to defaults.
type Runtime struct {
	Store event.Store
	Log   logrus.FieldLogger
	Clock func() time.Time
	NewID func() string
}

func (rt Runtime) log() logrus.FieldLogger {
	if rt.Log == nil {
		return logrus.StandardLogger()
	}
	return rt.Log
}

func (rt Runtime) now() time.Time {
	if rt.Clock == nil {
		return time.Now()
	}
	return rt.Clock()
}

func (rt Runtime) newID() string {
	if rt.NewID == nil {
		return internal.NewID()
	}
	return rt.NewID()
}

// Definition is an aggregate type with projection P. A Definition is
// immutable once it is registered and safe for concurrent use.
type Definition[P any] struct {
	name     string
	empty    func() P
	ids      *IDExtractors
	commands *handler.Registry[P, Outcome]
	sourcing *handler.Registry[P, P]
}

// New returns the Definition of an aggregate. empty creates the projection of
// an aggregate without history. commands handle the commands of the aggregate
// and sourcing applies its events to the projection. Nil registries are
// replaced by empty ones.
func New[P any](name string, empty func() P, ids *IDExtractors, commands *handler.Registry[P, Outcome], sourcing *handler.Registry[P, P]) *Definition[P] {
	if empty == nil {
		panic("[dendrite/aggregate.New] nil empty projection factory")
	}
	if ids == nil {
		ids = handler.NewRegistry[struct{}, string]()
	}
	if commands == nil {
		commands = handler.NewRegistry[P, Outcome]()
	}
	if sourcing == nil {
		sourcing = handler.NewRegistry[P, P]()
	}
	return &Definition[P]{
		name:     name,
		empty:    empty,
		ids:      ids,
		commands: commands,
		sourcing: sourcing,
	}
}

// Name returns the aggregate name.
func (def *Definition[P]) Name() string {
	return def.name
}

// CommandNames returns the names of the registered command handlers.
func (def *Definition[P]) CommandNames() []string {
	return def.commands.Names()
}

// Empty returns the projection of an aggregate without history.
func (def *Definition[P]) Empty() P {
	return def.empty()
}

// HandleCommand extracts the aggregate id from cmd, replays the history of
// the aggregate, calls the command handler, and appends the emitted events to
// the store. The returned Outcome has no events.
func (def *Definition[P]) HandleCommand(ctx context.Context, cmd command.Command, rt Runtime) (Outcome, error) {
	if cmd.Payload == nil {
		return Outcome{}, fmt.Errorf("%w [command=%v]", ErrMissingPayload, cmd.Name)
	}
	log := rt.log()
	payload := cmd.Payload.Data

	aggregateID, err := def.extractID(ctx, cmd.Name, payload)
	if err != nil {
		return Outcome{}, fmt.Errorf("extract aggregate id from %q command: %w", cmd.Name, err)
	}

	projection := def.empty()
	last := event.NoSequenceNr
	replayed := aggregateID != ""
	if replayed {
		if projection, last, err = def.Replay(ctx, rt.Store, aggregateID); err != nil {
			return Outcome{}, err
		}
		log.WithFields(logrus.Fields{
			"aggregate_id": aggregateID,
			"sequence_nr":  last,
		}).Debugf("restored projection: %+v", projection)
	}

	h, ok := def.commands.Get(cmd.Name)
	if !ok {
		return Outcome{}, fmt.Errorf("%w [aggregate=%v, command=%v]", ErrNoCommandHandler, def.name, cmd.Name)
	}

	outcome, err := h.Handle(ctx, payload, projection)
	if err != nil {
		return Outcome{}, fmt.Errorf("handle %q command: %w", cmd.Name, err)
	}

	if aggregateID == "" && outcome.Response != nil {
		if aggregateID, err = def.extractID(ctx, outcome.Response.Type, outcome.Response.Data); err != nil {
			return Outcome{}, fmt.Errorf("extract aggregate id from %q response: %w", outcome.Response.Type, err)
		}
	}

	if aggregateID == "" {
		return Outcome{}, fmt.Errorf("%w [aggregate=%v, command=%v]", ErrMissingAggregateIdentifier, def.name, cmd.Name)
	}

	if err := def.persist(ctx, rt, cmd, aggregateID, outcome.Events, replayed, last); err != nil {
		return Outcome{}, err
	}

	return outcome.WithoutEvents(), nil
}

func (def *Definition[P]) extractID(ctx context.Context, typeName string, data []byte) (string, error) {
	h, ok := def.ids.Get(typeName)
	if !ok {
		return "", nil
	}
	return h.Handle(ctx, data, struct{}{})
}

// Replay reads the events of the given aggregate from the store and folds them
// into an empty projection. It also returns the sequence number of the last
// event, or event.NoSequenceNr if the aggregate has no history.
func (def *Definition[P]) Replay(ctx context.Context, store event.Store, aggregateID string) (P, int64, error) {
	events, err := store.ReadEvents(ctx, aggregateID)
	if err != nil {
		var zero P
		return zero, event.NoSequenceNr, fmt.Errorf("read events [aggregate=%v]: %w", aggregateID, err)
	}
	return def.Fold(ctx, def.empty(), events)
}

// Fold applies events in order to projection. Events without payload count
// towards the last sequence number but leave the projection unchanged.
func (def *Definition[P]) Fold(ctx context.Context, projection P, events []event.Event) (P, int64, error) {
	last := event.NoSequenceNr
	for _, evt := range events {
		if evt.Payload.Type == "" {
			last = evt.AggregateSequenceNumber
			continue
		}

		h, ok := def.sourcing.Get(evt.Payload.Type)
		if !ok {
			return projection, last, fmt.Errorf("%w [aggregate=%v, event=%v]", ErrMissingSourcingHandler, def.name, evt.Payload.Type)
		}

		next, err := h.Handle(ctx, evt.Payload.Data, projection)
		if err != nil {
			return projection, last, fmt.Errorf("apply %q event #%d: %w", evt.Payload.Type, evt.AggregateSequenceNumber, err)
		}
		projection = next
		last = evt.AggregateSequenceNumber
	}
	return projection, last, nil
}

func (def *Definition[P]) persist(
	ctx context.Context,
	rt Runtime,
	cmd command.Command,
	aggregateID string,
	payloads []codec.SerializedObject,
	replayed bool,
	last int64,
) error {
	if len(payloads) == 0 {
		return nil
	}

	highest, err := rt.Store.ReadHighestSequenceNr(ctx, aggregateID, 0)
	if err != nil {
		return fmt.Errorf("read highest sequence number [aggregate=%v]: %w", aggregateID, err)
	}

	if replayed && highest != last {
		return fmt.Errorf("persist events: %w", &event.ConflictError{
			AggregateIdentifier: aggregateID,
			Expected:            last,
			Actual:              highest,
		})
	}

	now := rt.now().UnixMilli()
	batchID := rt.newID()
	events := make([]event.Event, len(payloads))
	for i, p := range payloads {
		events[i] = event.Event{
			MessageIdentifier:       rt.newID(),
			Timestamp:               now,
			AggregateIdentifier:     aggregateID,
			AggregateSequenceNumber: highest + 1 + int64(i),
			AggregateType:           def.name,
			Payload:                 p.Clone(),
			MetaData: map[string]string{
				event.MetaCorrelationID: cmd.MessageIdentifier,
				event.MetaBatchID:       batchID,
			},
		}
	}

	if err := rt.Store.AppendEvents(ctx, events...); err != nil {
		return fmt.Errorf("append events [aggregate=%v]: %w", aggregateID, err)
	}

	rt.log().WithFields(logrus.Fields{
		"aggregate_id": aggregateID,
		"events":       len(events),
		"sequence_nr":  highest + int64(len(events)),
	}).Debug("appended events")

	return nil
}
