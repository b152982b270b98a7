// Package mongotest creates MongoDB event stores with unique database names
// for tests.
package mongotest

import (
	"github.com/google/uuid"
	"github.com/jeroenvanmaanen/dendrite/backend/mongo"
)

// NewEventStore returns a Store from the given Options, but adds an Option
// that ensures a unique database name for every call to NewEventStore.
func NewEventStore(opts ...mongo.EventStoreOption) *mongo.EventStore {
	return mongo.NewEventStore(append(
		[]mongo.EventStoreOption{mongo.Database(UniqueName("event_"))},
		opts...,
	)...)
}

// UniqueName appends a random identifier to prefix.
func UniqueName(prefix string) string {
	return prefix + uuid.NewString()[:8]
}
