//go:build postgres

package postgres_test

import (
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/jeroenvanmaanen/dendrite/backend/postgres"
	"github.com/jeroenvanmaanen/dendrite/event"
	"github.com/jeroenvanmaanen/dendrite/event/eventstore/test"
)

func TestEventStore(t *testing.T) {
	test.EventStore(t, "postgres", func() event.Store {
		store := postgres.NewEventStore(postgres.Database(nextDatabase()))
		t.Cleanup(store.Close)
		return store
	})
}

var databaseN uint64

func nextDatabase() string {
	n := atomic.AddUint64(&databaseN, 1)
	return fmt.Sprintf("dendrite_%d", n)
}
