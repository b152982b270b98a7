package server

import (
	"context"
	"errors"
	"io"

	"github.com/jeroenvanmaanen/dendrite/api/axonpb"
	"github.com/jeroenvanmaanen/dendrite/event"
	"github.com/sirupsen/logrus"
)

// EventStore serves an event.Store as the EventStore service.
type EventStore struct {
	axonpb.UnimplementedEventStoreServer

	store event.Store
	log   logrus.FieldLogger
}

// NewEventStore returns the EventStore service for store.
func NewEventStore(store event.Store, log logrus.FieldLogger) *EventStore {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &EventStore{store: store, log: log}
}

// ListAggregateEvents streams the events of an aggregate.
func (s *EventStore) ListAggregateEvents(req *axonpb.GetAggregateEventsRequest, stream axonpb.EventStore_ListAggregateEventsServer) error {
	events, err := s.store.ReadEvents(stream.Context(), req.AggregateID)
	if err != nil {
		return axonpb.StatusError(err)
	}

	for _, evt := range events {
		if evt.AggregateSequenceNumber < req.InitialSequence {
			continue
		}
		if err := stream.Send(axonpb.NewEvent(evt)); err != nil {
			return err
		}
	}

	return nil
}

// ReadHighestSequenceNr returns the highest sequence number of an aggregate.
func (s *EventStore) ReadHighestSequenceNr(ctx context.Context, req *axonpb.ReadHighestSequenceNrRequest) (*axonpb.ReadHighestSequenceNrResponse, error) {
	highest, err := s.store.ReadHighestSequenceNr(ctx, req.AggregateID, req.FromSequenceNr)
	if err != nil {
		return nil, axonpb.StatusError(err)
	}
	return &axonpb.ReadHighestSequenceNrResponse{ToSequenceNr: highest}, nil
}

// AppendEvent appends the streamed events in one call to the store.
func (s *EventStore) AppendEvent(stream axonpb.EventStore_AppendEventServer) error {
	var events []event.Event
	for {
		evt, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return err
		}
		events = append(events, evt.AsEvent())
	}

	if err := s.store.AppendEvents(stream.Context(), events...); err != nil {
		s.log.WithError(err).Warn("append events")
		return axonpb.StatusError(err)
	}

	s.log.WithField("events", len(events)).Debug("appended events")

	return stream.SendAndClose(&axonpb.Confirmation{Success: true})
}
