package nats

import (
	"github.com/nats-io/nats.go"
	"github.com/sirupsen/logrus"
)

// URL returns an Option that sets the connection URL to the NATS server. If no
// URL is specified, the environment variable "NATS_URL" will be used as the
// connection URL.
func URL(url string) EventBusOption {
	return func(bus *EventBus) {
		bus.url = url
	}
}

// Conn returns an Option that provides the underlying *nats.Conn for the
// EventBus.
func Conn(conn *nats.Conn) EventBusOption {
	return func(bus *EventBus) {
		bus.conn = conn
	}
}

// SubjectFunc returns an Option that sets the NATS subject of published events
// by calling fn with the aggregate type of the event.
func SubjectFunc(fn func(aggregateType string) string) EventBusOption {
	return func(bus *EventBus) {
		bus.subjectFunc = fn
	}
}

// SubjectPrefix returns an Option that sets the NATS subject of published
// events by prepending prefix to the aggregate type.
//
// Can also be set with the "NATS_SUBJECT_PREFIX" environment variable.
func SubjectPrefix(prefix string) EventBusOption {
	return SubjectFunc(func(aggregateType string) string {
		return prefix + replaceDots(aggregateType)
	})
}

// QueueGroup returns an Option that subscribes in the given queue group, so
// that events are load-balanced between subscribers of the same group.
//
// Read more about queue groups: https://docs.nats.io/nats-concepts/queue
func QueueGroup(queue string) EventBusOption {
	return func(bus *EventBus) {
		bus.queue = queue
	}
}

// Logger returns an Option that sets the logger. Defaults to
// logrus.StandardLogger().
func Logger(l logrus.FieldLogger) EventBusOption {
	return func(bus *EventBus) {
		bus.log = l
	}
}

// NATSOptions returns an Option that adds nats.Options to the connection.
func NATSOptions(opts ...nats.Option) EventBusOption {
	return func(bus *EventBus) {
		bus.natsOpts = append(bus.natsOpts, opts...)
	}
}
