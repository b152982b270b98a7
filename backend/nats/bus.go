// Package nats publishes appended events over NATS.
package nats

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/jeroenvanmaanen/dendrite/codec"
	"github.com/jeroenvanmaanen/dendrite/event"
	"github.com/jeroenvanmaanen/dendrite/internal/env"
	"github.com/nats-io/nats.go"
	"github.com/sirupsen/logrus"
)

var _ event.Publisher = &EventBus{}

// EventBus is an event.Publisher that publishes events to NATS subjects, one
// subject per aggregate type. Wrap an event store with event.Publishing to
// publish every appended event.
type EventBus struct {
	url         string
	queue       string
	subjectFunc func(aggregateType string) string
	log         logrus.FieldLogger
	codec       codec.Codec[event.Event]

	conn     *nats.Conn
	natsOpts []nats.Option

	onceConnect sync.Once
	connectErr  error
}

// EventBusOption is an option for the EventBus.
type EventBusOption func(*EventBus)

// NewEventBus returns a NATS event bus.
func NewEventBus(opts ...EventBusOption) *EventBus {
	bus := &EventBus{codec: codec.Gob[event.Event]()}

	if prefix := strings.TrimSpace(env.String("NATS_SUBJECT_PREFIX")); prefix != "" {
		SubjectPrefix(prefix)(bus)
	}

	for _, opt := range opts {
		opt(bus)
	}

	if bus.subjectFunc == nil {
		bus.subjectFunc = defaultSubject
	}
	if bus.log == nil {
		bus.log = logrus.StandardLogger()
	}

	return bus
}

// Connect connects to NATS. Connect is called automatically by Publish and
// Subscribe.
func (bus *EventBus) Connect(ctx context.Context) error {
	bus.onceConnect.Do(func() {
		if bus.conn != nil {
			return
		}

		conn, err := nats.Connect(bus.natsURL(), bus.natsOpts...)
		if err != nil {
			bus.connectErr = fmt.Errorf("nats.Connect: %w [url=%v]", err, bus.natsURL())
			return
		}
		bus.conn = conn
	})
	return bus.connectErr
}

// Close closes the connection if the EventBus created it.
func (bus *EventBus) Close() {
	if bus.conn != nil {
		bus.conn.Close()
	}
}

func (bus *EventBus) natsURL() string {
	if bus.url != "" {
		return bus.url
	}
	return env.StringOr("NATS_URL", nats.DefaultURL)
}

// Subject returns the subject that events of the given aggregate type are
// published to.
func (bus *EventBus) Subject(aggregateType string) string {
	return bus.subjectFunc(aggregateType)
}

// Publish publishes the events.
func (bus *EventBus) Publish(ctx context.Context, events ...event.Event) error {
	if err := bus.Connect(ctx); err != nil {
		return fmt.Errorf("connect: %w", err)
	}

	for _, evt := range events {
		b, err := bus.codec.Marshal(evt)
		if err != nil {
			return fmt.Errorf("encode event: %w [event=%v]", err, evt)
		}

		subject := bus.Subject(evt.AggregateType)
		if err := bus.conn.Publish(subject, b); err != nil {
			return fmt.Errorf("nats: %w [subject=%v]", err, subject)
		}
	}

	return nil
}

// Subscribe subscribes to the events of the given aggregate types. The
// returned channels are closed when ctx is canceled.
func (bus *EventBus) Subscribe(ctx context.Context, aggregateTypes ...string) (<-chan event.Event, <-chan error, error) {
	if err := bus.Connect(ctx); err != nil {
		return nil, nil, fmt.Errorf("connect: %w", err)
	}

	msgs := make(chan *nats.Msg, 64)
	subs := make([]*nats.Subscription, 0, len(aggregateTypes))
	for _, aggregateType := range aggregateTypes {
		subject := bus.Subject(aggregateType)

		var (
			sub *nats.Subscription
			err error
		)
		if bus.queue != "" {
			sub, err = bus.conn.ChanQueueSubscribe(subject, bus.queue, msgs)
		} else {
			sub, err = bus.conn.ChanSubscribe(subject, msgs)
		}
		if err != nil {
			for _, s := range subs {
				s.Unsubscribe()
			}
			return nil, nil, fmt.Errorf("subscribe: %w [subject=%v, queue=%v]", err, subject, bus.queue)
		}
		subs = append(subs, sub)
	}

	out := make(chan event.Event)
	errs := make(chan error)

	go func() {
		defer close(out)
		defer close(errs)
		defer func() {
			for _, sub := range subs {
				if err := sub.Unsubscribe(); err != nil {
					bus.log.WithError(err).WithField("subject", sub.Subject).Warn("unsubscribe")
				}
			}
		}()

		for {
			select {
			case <-ctx.Done():
				return
			case msg := <-msgs:
				evt, err := bus.codec.Unmarshal(msg.Data)
				if err != nil {
					select {
					case <-ctx.Done():
						return
					case errs <- fmt.Errorf("decode event: %w [subject=%v]", err, msg.Subject):
					}
					continue
				}

				select {
				case <-ctx.Done():
					return
				case out <- evt:
				}
			}
		}
	}()

	return out, errs, nil
}
