package event

import (
	"context"
	"fmt"
)

// Publisher publishes events to subscribers outside of the event store.
type Publisher interface {
	Publish(ctx context.Context, events ...Event) error
}

type publishingStore struct {
	Store

	pub Publisher
}

// Publishing returns a Store that publishes events using pub after they have
// been appended to s. Events that fail to append are not published.
func Publishing(s Store, pub Publisher) Store {
	return &publishingStore{Store: s, pub: pub}
}

func (s *publishingStore) AppendEvents(ctx context.Context, events ...Event) error {
	if err := s.Store.AppendEvents(ctx, events...); err != nil {
		return err
	}

	if err := s.pub.Publish(ctx, events...); err != nil {
		return fmt.Errorf("publish events: %w", err)
	}

	return nil
}
