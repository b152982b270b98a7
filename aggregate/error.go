package aggregate

import "errors"

var (
	// ErrMissingPayload is returned for a command without payload.
	ErrMissingPayload = errors.New("missing payload")

	// ErrUnknownCommand is returned for a command that is not routed to any
	// registered aggregate.
	ErrUnknownCommand = errors.New("unknown command")

	// ErrNoCommandHandler is returned when the aggregate that a command is
	// routed to has no handler for it.
	ErrNoCommandHandler = errors.New("no command handler")

	// ErrMissingSourcingHandler is returned when the history of an aggregate
	// contains an event type that the aggregate cannot apply.
	ErrMissingSourcingHandler = errors.New("missing sourcing handler")

	// ErrMissingAggregateIdentifier is returned when neither the command nor
	// its response identifies the aggregate instance.
	ErrMissingAggregateIdentifier = errors.New("missing aggregate identifier")

	// ErrDuplicateAggregate is returned by a strict Registry when an aggregate
	// name is registered twice.
	ErrDuplicateAggregate = errors.New("duplicate aggregate")

	// ErrDuplicateCommand is returned by a strict Registry when two aggregates
	// handle the same command.
	ErrDuplicateCommand = errors.New("command handled by multiple aggregates")
)
