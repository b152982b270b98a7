// Package redis provides a Redis event store. The events of an aggregate are
// kept in a list, so the sequence number of an event is its index.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jeroenvanmaanen/dendrite/codec"
	"github.com/jeroenvanmaanen/dendrite/event"
	"github.com/jeroenvanmaanen/dendrite/internal/env"
	"github.com/redis/go-redis/v9"
)

// ConnectTimeout limits the initial ping in Dial.
const ConnectTimeout = 5 * time.Second

// ErrUnexpectedLuaResult is returned when the append script returns a result
// of unexpected shape.
var ErrUnexpectedLuaResult = errors.New("unexpected result from Lua script")

var _ event.Store = &EventStore{}

// EventStore is a Redis event store. A single append is atomic, even when it
// spans multiple aggregates.
type EventStore struct {
	client          redis.UniversalClient
	prefix          string
	codec           codec.Codec[event.Event]
	appendEventsLua *redis.Script
}

// EventStoreOption is an option for the Redis event store.
type EventStoreOption func(*EventStore)

// Prefix returns an EventStoreOption that sets the key prefix. Defaults to
// "dendrite".
func Prefix(prefix string) EventStoreOption {
	return func(s *EventStore) {
		s.prefix = prefix
	}
}

// Dial connects to the Redis server at url. An empty url defaults to
// $REDIS_URL.
func Dial(ctx context.Context, url string) (*redis.Client, error) {
	if url == "" {
		url = env.String("REDIS_URL")
	}

	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(ctx, ConnectTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping: %w [addr=%v]", err, opts.Addr)
	}

	return client, nil
}

// NewEventStore returns an event store that uses client.
func NewEventStore(client redis.UniversalClient, opts ...EventStoreOption) *EventStore {
	s := &EventStore{
		client:          client,
		prefix:          "dendrite",
		codec:           codec.JSON[event.Event](),
		appendEventsLua: redis.NewScript(luaAppendEvents),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *EventStore) key(aggregateID string) string {
	return fmt.Sprintf("%s:%s:events", s.prefix, aggregateID)
}

// ReadEvents returns the events of the given aggregate.
func (s *EventStore) ReadEvents(ctx context.Context, aggregateID string) ([]event.Event, error) {
	raw, err := s.client.LRange(ctx, s.key(aggregateID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("read events: %w [aggregate=%v]", err, aggregateID)
	}

	if len(raw) == 0 {
		return nil, nil
	}

	events := make([]event.Event, len(raw))
	for i, data := range raw {
		if events[i], err = s.codec.Unmarshal([]byte(data)); err != nil {
			return events[:i], fmt.Errorf("unmarshal event #%d: %w [aggregate=%v]", i, err, aggregateID)
		}
	}

	return events, nil
}

// ReadHighestSequenceNr returns the highest sequence number of the aggregate.
func (s *EventStore) ReadHighestSequenceNr(ctx context.Context, aggregateID string, fromSequenceNr int64) (int64, error) {
	n, err := s.client.LLen(ctx, s.key(aggregateID)).Result()
	if err != nil {
		return event.NoSequenceNr, fmt.Errorf("read event count: %w [aggregate=%v]", err, aggregateID)
	}

	highest := n - 1
	if highest < fromSequenceNr {
		return event.NoSequenceNr, nil
	}

	return highest, nil
}

// AppendEvents appends the events with a Lua script that checks the list
// lengths of all aggregates before it pushes any event.
func (s *EventStore) AppendEvents(ctx context.Context, events ...event.Event) error {
	batches, err := event.Batches(events)
	if err != nil {
		return err
	}

	if len(batches) == 0 {
		return nil
	}

	keys := make([]string, len(batches))
	var args []any
	for i, b := range batches {
		keys[i] = s.key(b.AggregateIdentifier)
		args = append(args, b.Expected()+1, len(b.Events))
		for _, evt := range b.Events {
			data, err := s.codec.Marshal(evt)
			if err != nil {
				return fmt.Errorf("marshal event %q: %w", evt.MessageIdentifier, err)
			}
			args = append(args, string(data))
		}
	}

	result, err := s.appendEventsLua.Run(ctx, s.client, keys, args...).Int64Slice()
	if err != nil {
		return fmt.Errorf("append events: %w", err)
	}

	if len(result) != 3 {
		return ErrUnexpectedLuaResult
	}

	if result[0] == 1 {
		return nil
	}

	i := result[1] - 1
	if i < 0 || int(i) >= len(batches) {
		return ErrUnexpectedLuaResult
	}

	b := batches[i]
	return fmt.Errorf("append events: %w", &event.ConflictError{
		AggregateIdentifier: b.AggregateIdentifier,
		Expected:            b.Expected(),
		Actual:              result[2] - 1,
	})
}
