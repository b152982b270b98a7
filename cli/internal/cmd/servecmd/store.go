package servecmd

import (
	"context"
	"fmt"

	"github.com/jeroenvanmaanen/dendrite/backend/mongo"
	"github.com/jeroenvanmaanen/dendrite/backend/nats"
	"github.com/jeroenvanmaanen/dendrite/backend/postgres"
	"github.com/jeroenvanmaanen/dendrite/backend/redis"
	"github.com/jeroenvanmaanen/dendrite/event"
	"github.com/jeroenvanmaanen/dendrite/event/eventstore/memstore"
	"github.com/sirupsen/logrus"
)

// Store kinds.
const (
	Memory   = "memory"
	Postgres = "postgres"
	Mongo    = "mongo"
	Redis    = "redis"
)

// openStore opens the event store of the given kind. The returned function
// releases its connections.
func openStore(ctx context.Context, kind string, publish bool, log logrus.FieldLogger) (event.Store, func(), error) {
	store, closeStore, err := open(ctx, kind)
	if err != nil {
		return nil, nil, err
	}

	if !publish {
		return store, closeStore, nil
	}

	bus := nats.NewEventBus(nats.Logger(log))
	if err := bus.Connect(ctx); err != nil {
		closeStore()
		return nil, nil, fmt.Errorf("connect to NATS: %w", err)
	}

	return event.Publishing(store, bus), func() {
		bus.Close()
		closeStore()
	}, nil
}

func open(ctx context.Context, kind string) (event.Store, func(), error) {
	switch kind {
	case Memory:
		return memstore.New(), func() {}, nil
	case Postgres:
		store := postgres.NewEventStore()
		if err := store.Connect(ctx); err != nil {
			return nil, nil, fmt.Errorf("connect to postgres: %w", err)
		}
		return store, store.Close, nil
	case Mongo:
		store := mongo.NewEventStore()
		client, err := store.Connect(ctx)
		if err != nil {
			return nil, nil, fmt.Errorf("connect to mongo: %w", err)
		}
		return store, func() { client.Disconnect(context.Background()) }, nil
	case Redis:
		client, err := redis.Dial(ctx, "")
		if err != nil {
			return nil, nil, fmt.Errorf("connect to redis: %w", err)
		}
		return redis.NewEventStore(client), func() { client.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unknown store %q [stores=%v]", kind, []string{Memory, Postgres, Mongo, Redis})
	}
}
