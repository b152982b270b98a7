package client

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/jeroenvanmaanen/dendrite/api/axonpb"
	"github.com/jeroenvanmaanen/dendrite/event"
	"github.com/jeroenvanmaanen/dendrite/internal/slice"
	"google.golang.org/grpc"
)

// EventStore is an event.Store that is served by a remote EventStore service.
type EventStore struct {
	client axonpb.EventStoreClient
}

var _ event.Store = (*EventStore)(nil)

// NewEventStore returns the remote event store at conn.
func NewEventStore(conn grpc.ClientConnInterface) *EventStore {
	return &EventStore{client: axonpb.NewEventStoreClient(conn)}
}

// ReadEvents returns the events of the given aggregate.
func (s *EventStore) ReadEvents(ctx context.Context, aggregateID string) ([]event.Event, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	stream, err := s.client.ListAggregateEvents(ctx, &axonpb.GetAggregateEventsRequest{AggregateID: aggregateID})
	if err != nil {
		return nil, fmt.Errorf("list aggregate events: %w", err)
	}

	var events []event.Event
	for {
		evt, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			return events, nil
		}
		if err != nil {
			return events, fmt.Errorf("receive event: %w", axonpb.ErrorFromStatus(err))
		}
		events = append(events, evt.AsEvent())
	}
}

// ReadHighestSequenceNr returns the highest sequence number of the aggregate.
func (s *EventStore) ReadHighestSequenceNr(ctx context.Context, aggregateID string, fromSequenceNr int64) (int64, error) {
	resp, err := s.client.ReadHighestSequenceNr(ctx, &axonpb.ReadHighestSequenceNrRequest{
		AggregateID:    aggregateID,
		FromSequenceNr: fromSequenceNr,
	})
	if err != nil {
		return event.NoSequenceNr, fmt.Errorf("read highest sequence number: %w", axonpb.ErrorFromStatus(err))
	}
	return resp.ToSequenceNr, nil
}

// AppendEvents streams the events to the server, which appends them in one
// transaction.
func (s *EventStore) AppendEvents(ctx context.Context, events ...event.Event) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	stream, err := s.client.AppendEvent(ctx)
	if err != nil {
		return fmt.Errorf("open append stream: %w", err)
	}

	for _, evt := range slice.Map(events, axonpb.NewEvent) {
		if err := stream.Send(evt); err != nil {
			if errors.Is(err, io.EOF) {
				// the server rejected the stream, the status follows from CloseAndRecv
				break
			}
			return fmt.Errorf("send event: %w", err)
		}
	}

	if _, err := stream.CloseAndRecv(); err != nil {
		return fmt.Errorf("append events: %w", axonpb.ErrorFromStatus(err))
	}

	return nil
}
