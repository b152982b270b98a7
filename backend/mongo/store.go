// Package mongo provides a MongoDB event store.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/jeroenvanmaanen/dendrite/backend/mongo/indices"
	"github.com/jeroenvanmaanen/dendrite/codec"
	"github.com/jeroenvanmaanen/dendrite/event"
	"github.com/jeroenvanmaanen/dendrite/internal/env"
	"github.com/jeroenvanmaanen/dendrite/internal/slice"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var _ event.Store = &EventStore{}

// EventStore is a MongoDB event store.
type EventStore struct {
	url               string
	dbname            string
	entriesCol        string
	noIndex           bool
	transactions      bool
	additionalIndices []mongo.IndexModel

	client  *mongo.Client
	db      *mongo.Database
	entries *mongo.Collection

	onceConnect sync.Once
	connectErr  error
}

// EventStoreOption is an EventStore option.
type EventStoreOption func(*EventStore)

type entry struct {
	ID              string            `bson:"id"`
	Time            int64             `bson:"time"`
	AggregateID     string            `bson:"aggregateId"`
	SequenceNr      int64             `bson:"sequenceNr"`
	AggregateType   string            `bson:"aggregateType"`
	PayloadType     string            `bson:"payloadType"`
	PayloadRevision string            `bson:"payloadRevision,omitempty"`
	Payload         []byte            `bson:"payload"`
	MetaData        map[string]string `bson:"metaData,omitempty"`
	Snapshot        bool              `bson:"snapshot,omitempty"`
}

func newEntry(evt event.Event) entry {
	return entry{
		ID:              evt.MessageIdentifier,
		Time:            evt.Timestamp,
		AggregateID:     evt.AggregateIdentifier,
		SequenceNr:      evt.AggregateSequenceNumber,
		AggregateType:   evt.AggregateType,
		PayloadType:     evt.Payload.Type,
		PayloadRevision: evt.Payload.Revision,
		Payload:         evt.Payload.Data,
		MetaData:        evt.MetaData,
		Snapshot:        evt.Snapshot,
	}
}

func (e entry) event() event.Event {
	return event.Event{
		MessageIdentifier:       e.ID,
		Timestamp:               e.Time,
		AggregateIdentifier:     e.AggregateID,
		AggregateSequenceNumber: e.SequenceNr,
		AggregateType:           e.AggregateType,
		Payload: codec.SerializedObject{
			Type:     e.PayloadType,
			Revision: e.PayloadRevision,
			Data:     e.Payload,
		},
		MetaData: e.MetaData,
		Snapshot: e.Snapshot,
	}
}

// URL returns an Option that specifies the URL to the MongoDB instance. An
// empty URL means "use the default".
//
// Defaults to the environment variable "MONGO_URL".
func URL(url string) EventStoreOption {
	return func(s *EventStore) {
		s.url = url
	}
}

// Client returns an Option that specifies the underlying mongo.Client to be
// used by the Store.
func Client(c *mongo.Client) EventStoreOption {
	return func(s *EventStore) {
		s.client = c
	}
}

// Database returns an Option that sets the mongo database to use for the events.
func Database(name string) EventStoreOption {
	return func(s *EventStore) {
		s.dbname = name
	}
}

// Collection returns an Option that sets the mongo collection where the events
// are stored in.
func Collection(name string) EventStoreOption {
	return func(s *EventStore) {
		s.entriesCol = name
	}
}

// Transactions returns an Option that, if tx is true, configures a Store to use
// MongoDB Transactions when appending events. Without transactions, an append
// that spans multiple aggregates may be partially applied when a concurrent
// append to one of them wins.
//
// Transactions can only be used in replica sets or sharded clusters:
// https://docs.mongodb.com/manual/core/transactions/
func Transactions(tx bool) EventStoreOption {
	return func(s *EventStore) {
		s.transactions = tx
	}
}

// NoIndex returns an option to completely disable index creation when
// connecting to the database.
func NoIndex(ni bool) EventStoreOption {
	return func(es *EventStore) {
		es.noIndex = ni
	}
}

// WithIndices returns an EventStoreOption that creates additional indices for
// the event collection:
//
//	WithIndices(indices.EventStore.Time)
func WithIndices(models ...mongo.IndexModel) EventStoreOption {
	return func(s *EventStore) {
		s.additionalIndices = append(s.additionalIndices, models...)
	}
}

// NewEventStore returns a MongoDB event store.
func NewEventStore(opts ...EventStoreOption) *EventStore {
	s := EventStore{
		dbname:     "event",
		entriesCol: "events",
	}
	for _, opt := range opts {
		opt(&s)
	}
	return &s
}

// Client returns the underlying mongo.Client, which is nil until the store
// is connected.
func (s *EventStore) Client() *mongo.Client {
	return s.client
}

// Collection returns the underlying *mongo.Collection where the events are
// stored in, which is nil until the store is connected.
func (s *EventStore) Collection() *mongo.Collection {
	return s.entries
}

// Connect establishes the connection to the underlying MongoDB and returns the
// mongo.Client. Connect doesn't need to be called manually as it's called
// automatically by the other methods.
func (s *EventStore) Connect(ctx context.Context, opts ...*options.ClientOptions) (*mongo.Client, error) {
	if err := s.connectOnce(ctx, opts...); err != nil {
		return nil, err
	}
	return s.client, nil
}

func (s *EventStore) connectOnce(ctx context.Context, opts ...*options.ClientOptions) error {
	s.onceConnect.Do(func() {
		if s.connectErr = s.connect(ctx, opts...); s.connectErr != nil {
			return
		}

		if s.noIndex {
			return
		}

		if err := s.ensureIndexes(ctx); err != nil {
			s.connectErr = fmt.Errorf("ensure indexes: %w", err)
		}
	})
	return s.connectErr
}

func (s *EventStore) connect(ctx context.Context, opts ...*options.ClientOptions) error {
	if s.client == nil {
		uri := s.url
		if uri == "" {
			uri = env.String("MONGO_URL")
		}
		opts = append(
			[]*options.ClientOptions{options.Client().ApplyURI(uri)},
			opts...,
		)

		var err error
		if s.client, err = mongo.Connect(ctx, opts...); err != nil {
			s.client = nil
			return fmt.Errorf("mongo.Connect: %w", err)
		}
	}
	s.db = s.client.Database(s.dbname)
	s.entries = s.db.Collection(s.entriesCol)
	return nil
}

func (s *EventStore) ensureIndexes(ctx context.Context) error {
	models := append(indices.EventStoreCore(), s.additionalIndices...)
	if _, err := s.entries.Indexes().CreateMany(ctx, models); err != nil {
		return fmt.Errorf("create indexes: %w", err)
	}
	return nil
}

// ReadEvents returns the events of the given aggregate.
func (s *EventStore) ReadEvents(ctx context.Context, aggregateID string) ([]event.Event, error) {
	if err := s.connectOnce(ctx); err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}

	cur, err := s.entries.Find(
		ctx,
		bson.D{{Key: "aggregateId", Value: aggregateID}},
		options.Find().SetSort(bson.D{{Key: "sequenceNr", Value: 1}}),
	)
	if err != nil {
		return nil, fmt.Errorf("find events: %w [aggregate=%v]", err, aggregateID)
	}
	defer cur.Close(ctx)

	var entries []entry
	if err := cur.All(ctx, &entries); err != nil {
		return nil, fmt.Errorf("decode events: %w", err)
	}

	if len(entries) == 0 {
		return nil, nil
	}

	return slice.Map(entries, entry.event), nil
}

// ReadHighestSequenceNr returns the highest sequence number of the aggregate.
func (s *EventStore) ReadHighestSequenceNr(ctx context.Context, aggregateID string, fromSequenceNr int64) (int64, error) {
	if err := s.connectOnce(ctx); err != nil {
		return event.NoSequenceNr, fmt.Errorf("connect: %w", err)
	}

	highest, err := s.highest(ctx, aggregateID)
	if err != nil {
		return event.NoSequenceNr, err
	}

	if highest < fromSequenceNr {
		return event.NoSequenceNr, nil
	}

	return highest, nil
}

func (s *EventStore) highest(ctx context.Context, aggregateID string) (int64, error) {
	var e struct {
		SequenceNr int64 `bson:"sequenceNr"`
	}

	err := s.entries.FindOne(
		ctx,
		bson.D{{Key: "aggregateId", Value: aggregateID}},
		options.FindOne().
			SetSort(bson.D{{Key: "sequenceNr", Value: -1}}).
			SetProjection(bson.D{{Key: "sequenceNr", Value: 1}}),
	).Decode(&e)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return event.NoSequenceNr, nil
	}
	if err != nil {
		return event.NoSequenceNr, fmt.Errorf("find highest sequence number: %w [aggregate=%v]", err, aggregateID)
	}

	return e.SequenceNr, nil
}

// AppendEvents checks the expected sequence numbers of all aggregates and then
// inserts the events. The unique (aggregateId, sequenceNr) index rejects
// concurrent appends to the same aggregate.
func (s *EventStore) AppendEvents(ctx context.Context, events ...event.Event) error {
	if err := s.connectOnce(ctx); err != nil {
		return fmt.Errorf("connect: %w", err)
	}

	batches, err := event.Batches(events)
	if err != nil {
		return err
	}

	if len(batches) == 0 {
		return nil
	}

	if !s.transactions {
		return s.append(ctx, batches)
	}

	sess, err := s.client.StartSession()
	if err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(ctx mongo.SessionContext) (any, error) {
		return nil, s.append(ctx, batches)
	})

	return err
}

func (s *EventStore) append(ctx context.Context, batches []event.Batch) error {
	for _, b := range batches {
		actual, err := s.highest(ctx, b.AggregateIdentifier)
		if err != nil {
			return err
		}

		if actual != b.Expected() {
			return fmt.Errorf("append events: %w", &event.ConflictError{
				AggregateIdentifier: b.AggregateIdentifier,
				Expected:            b.Expected(),
				Actual:              actual,
			})
		}
	}

	for _, b := range batches {
		docs := make([]any, len(b.Events))
		for i, evt := range b.Events {
			docs[i] = newEntry(evt)
		}

		if _, err := s.entries.InsertMany(ctx, docs); err != nil {
			if mongo.IsDuplicateKeyError(err) {
				return fmt.Errorf("append events: %w", &event.ConflictError{
					AggregateIdentifier: b.AggregateIdentifier,
					Expected:            b.Expected(),
					Actual:              b.Expected() + 1,
				})
			}
			return fmt.Errorf("insert events: %w [aggregate=%v]", err, b.AggregateIdentifier)
		}
	}

	return nil
}
