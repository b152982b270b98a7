package redis_test

import (
	"context"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/jeroenvanmaanen/dendrite/backend/redis"
	"github.com/jeroenvanmaanen/dendrite/event"
	"github.com/jeroenvanmaanen/dendrite/event/eventstore/test"
	goredis "github.com/redis/go-redis/v9"
)

func newClient(t *testing.T) (*goredis.Client, *miniredis.Miniredis) {
	srv := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { client.Close() })
	return client, srv
}

func TestEventStore(t *testing.T) {
	test.EventStore(t, "redis", func() event.Store {
		client, _ := newClient(t)
		return redis.NewEventStore(client)
	})
}

func TestEventStore_Prefix(t *testing.T) {
	client, srv := newClient(t)
	store := redis.NewEventStore(client, redis.Prefix("foo"))

	if err := store.AppendEvents(context.Background(), test.NewEvent("bar", 0)); err != nil {
		t.Fatalf("AppendEvents() failed with %q", err)
	}

	if !srv.Exists("foo:bar:events") {
		t.Fatalf("events should be stored under %q; keys are %v", "foo:bar:events", srv.Keys())
	}
}

func TestEventStore_conflictActual(t *testing.T) {
	client, _ := newClient(t)
	store := redis.NewEventStore(client)
	ctx := context.Background()

	if err := store.AppendEvents(ctx, test.NewEvent("foo", 0), test.NewEvent("foo", 1)); err != nil {
		t.Fatalf("AppendEvents() failed with %q", err)
	}

	err := store.AppendEvents(ctx, test.NewEvent("foo", 1))

	var cerr *event.ConflictError
	if !errors.As(err, &cerr) {
		t.Fatalf("AppendEvents() should fail with a %T; got %q", cerr, err)
	}

	if cerr.Expected != 0 || cerr.Actual != 1 {
		t.Fatalf("conflict should expect %d and find %d; got %+v", 0, 1, cerr)
	}
}

func TestDial(t *testing.T) {
	srv := miniredis.RunT(t)

	client, err := redis.Dial(context.Background(), "redis://"+srv.Addr())
	if err != nil {
		t.Fatalf("Dial() failed with %q", err)
	}
	client.Close()

	if _, err := redis.Dial(context.Background(), "not a url"); err == nil {
		t.Fatalf("Dial() should fail for an invalid url")
	}
}
