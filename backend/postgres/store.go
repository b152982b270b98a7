// Package postgres provides a PostgreSQL event store.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/jeroenvanmaanen/dendrite/codec"
	"github.com/jeroenvanmaanen/dendrite/event"
	"github.com/jeroenvanmaanen/dendrite/internal/env"
)

// uniqueViolation is the SQLSTATE of a unique constraint violation.
const uniqueViolation = "23505"

var _ event.Store = &EventStore{}

var metaCodec = codec.JSON[map[string]string]()

// EventStore is a PostgreSQL event store.
type EventStore struct {
	onceConnect   sync.Once
	connectErr    error
	connectionURL string
	database      string
	table         string
	pool          *pgxpool.Pool
}

// EventStoreOption is an option for the PostgreSQL event store.
type EventStoreOption func(*EventStore)

// URL returns an EventStoreOption that specifies the connection string to the
// PostgreSQL server.
func URL(url string) EventStoreOption {
	return func(store *EventStore) {
		store.connectionURL = url
	}
}

// Database returns an EventStoreOption that configures the used database.
// Defaults to "dendrite".
func Database(name string) EventStoreOption {
	if name = strings.TrimSpace(name); name == "" {
		panic("database name cannot be empty")
	}

	return func(store *EventStore) {
		store.database = name
	}
}

// Table returns an EventStoreOption that configures the used table for events.
// Defaults to "events".
func Table(name string) EventStoreOption {
	if name = strings.TrimSpace(name); name == "" {
		panic(fmt.Errorf("table name cannot be empty"))
	}

	return func(store *EventStore) {
		store.table = name
	}
}

// NewEventStore returns a new PostgreSQL event store. If not otherwise
// specified using the URL() option, $POSTGRES_EVENTSTORE is used as the
// connection string.
func NewEventStore(opts ...EventStoreOption) *EventStore {
	store := &EventStore{
		database:      "dendrite",
		table:         "events",
		connectionURL: env.String("POSTGRES_EVENTSTORE"),
	}
	for _, opt := range opts {
		opt(store)
	}
	return store
}

// Pool returns the underlying Postgres connection pool, or nil if the store
// is not connected yet.
func (store *EventStore) Pool() *pgxpool.Pool {
	return store.pool
}

// Connect connects to the PostgreSQL server and creates the database, table,
// and indexes if necessary. Connect is called automatically by the other
// methods.
func (store *EventStore) Connect(ctx context.Context) error {
	store.onceConnect.Do(func() {
		ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
		defer cancel()

		if store.connectErr = store.connect(ctx); store.connectErr != nil {
			return
		}

		if store.connectErr = store.createDatabase(ctx); store.connectErr != nil {
			return
		}

		if store.connectErr = store.useDatabase(ctx); store.connectErr != nil {
			return
		}

		if store.connectErr = store.createTable(ctx); store.connectErr != nil {
			return
		}

		store.connectErr = store.createIndexes(ctx)
	})
	return store.connectErr
}

// Close closes the connection pool.
func (store *EventStore) Close() {
	if store.pool != nil {
		store.pool.Close()
	}
}

func (store *EventStore) connect(ctx context.Context) error {
	url := store.connectionURL
	if url == "" {
		return fmt.Errorf("missing connection string")
	}

	cfg, err := pgx.ParseConfig(url)
	if err != nil {
		return fmt.Errorf("parse connection string: %w", err)
	}

	pool, err := pgxpool.Connect(ctx, cfg.ConnString())
	if err != nil {
		return fmt.Errorf("connect to postgres: %w [url=%s]", err, url)
	}
	store.pool = pool

	if err := pool.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}

	return nil
}

func (store *EventStore) createDatabase(ctx context.Context) error {
	var exists bool
	err := store.pool.QueryRow(ctx, "SELECT EXISTS (SELECT FROM pg_database WHERE datname = $1)", store.database).Scan(&exists)
	if err != nil {
		return fmt.Errorf("check if %q database exists: %w", store.database, err)
	}

	if exists {
		return nil
	}

	if _, err := store.pool.Exec(ctx, fmt.Sprintf("CREATE DATABASE %s", store.database)); err != nil {
		return fmt.Errorf("create %q database: %w", store.database, err)
	}

	return nil
}

func (store *EventStore) useDatabase(ctx context.Context) error {
	store.pool.Close()

	cfg, err := pgx.ParseConfig(store.connectionURL)
	if err != nil {
		return fmt.Errorf("parse connection string: %w [url=%s]", err, store.connectionURL)
	}

	purl, err := url.Parse(cfg.ConnString())
	if err != nil {
		return fmt.Errorf("parse url: %w", err)
	}

	purl.Path = "/" + store.database
	connURL := purl.String()

	pool, err := pgxpool.Connect(ctx, connURL)
	if err != nil {
		return fmt.Errorf("connect to postgres: %w [url=%s]", err, cfg.ConnString())
	}
	store.pool = pool

	if err := pool.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}

	return nil
}

func (store *EventStore) createTable(ctx context.Context) error {
	if _, err := store.pool.Exec(ctx, eventTableSQL(store.table)); err != nil {
		return fmt.Errorf("create %q table: %w", store.table, err)
	}
	return nil
}

func (store *EventStore) createIndexes(ctx context.Context) error {
	tx, err := store.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	indexes := []struct {
		name   string
		fields []string
		unique bool
	}{
		{
			name:   store.table + "_aggregate_sequence",
			fields: []string{"aggregate_id", "sequence_nr"},
			unique: true,
		},
		{
			name:   store.table + "_time",
			fields: []string{"time"},
		},
	}

	for _, idx := range indexes {
		schema := indexSQL(idx.name, store.table, idx.fields, idx.unique)
		if _, err := tx.Exec(ctx, schema); err != nil {
			return fmt.Errorf("create %q index: %w [fields=%v]", idx.name, err, idx.fields)
		}
	}

	return tx.Commit(ctx)
}

// ReadEvents returns the events of the given aggregate.
func (store *EventStore) ReadEvents(ctx context.Context, aggregateID string) ([]event.Event, error) {
	if err := store.Connect(ctx); err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}

	sql, args, err := squirrel.
		Select("id", "time", "aggregate_id", "sequence_nr", "aggregate_type", "payload_type", "payload_revision", "payload", "meta_data", "snapshot").
		From(store.table).
		Where(squirrel.Eq{"aggregate_id": aggregateID}).
		OrderBy("sequence_nr ASC").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	rows, err := store.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query events: %w [aggregate=%v]", err, aggregateID)
	}
	defer rows.Close()

	var events []event.Event
	for rows.Next() {
		var (
			evt  event.Event
			meta []byte
		)
		if err := rows.Scan(
			&evt.MessageIdentifier,
			&evt.Timestamp,
			&evt.AggregateIdentifier,
			&evt.AggregateSequenceNumber,
			&evt.AggregateType,
			&evt.Payload.Type,
			&evt.Payload.Revision,
			&evt.Payload.Data,
			&meta,
			&evt.Snapshot,
		); err != nil {
			return events, fmt.Errorf("scan row: %w", err)
		}

		if len(meta) > 0 {
			if evt.MetaData, err = metaCodec.Unmarshal(meta); err != nil {
				return events, fmt.Errorf("unmarshal meta data of event %q: %w", evt.MessageIdentifier, err)
			}
		}

		events = append(events, evt)
	}

	return events, rows.Err()
}

// ReadHighestSequenceNr returns the highest sequence number of the aggregate.
func (store *EventStore) ReadHighestSequenceNr(ctx context.Context, aggregateID string, fromSequenceNr int64) (int64, error) {
	if err := store.Connect(ctx); err != nil {
		return event.NoSequenceNr, fmt.Errorf("connect: %w", err)
	}

	highest, err := store.highest(ctx, store.pool, aggregateID)
	if err != nil {
		return event.NoSequenceNr, err
	}

	if highest < fromSequenceNr {
		return event.NoSequenceNr, nil
	}

	return highest, nil
}

type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func (store *EventStore) highest(ctx context.Context, q querier, aggregateID string) (int64, error) {
	sql, args, err := squirrel.
		Select(fmt.Sprintf("COALESCE(MAX(sequence_nr), %d)", event.NoSequenceNr)).
		From(store.table).
		Where(squirrel.Eq{"aggregate_id": aggregateID}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return event.NoSequenceNr, fmt.Errorf("build query: %w", err)
	}

	var highest int64
	if err := q.QueryRow(ctx, sql, args...).Scan(&highest); err != nil {
		return event.NoSequenceNr, fmt.Errorf("query highest sequence number: %w [aggregate=%v]", err, aggregateID)
	}

	return highest, nil
}

// AppendEvents inserts the events in a single transaction. The unique index on
// (aggregate_id, sequence_nr) rejects concurrent appends to the same aggregate.
func (store *EventStore) AppendEvents(ctx context.Context, events ...event.Event) error {
	if err := store.Connect(ctx); err != nil {
		return fmt.Errorf("connect: %w", err)
	}

	batches, err := event.Batches(events)
	if err != nil {
		return err
	}

	if len(batches) == 0 {
		return nil
	}

	tx, err := store.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, b := range batches {
		actual, err := store.highest(ctx, tx, b.AggregateIdentifier)
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

		if err := store.insert(ctx, tx, b.Events); err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("append events: %w", &event.ConflictError{
					AggregateIdentifier: b.AggregateIdentifier,
					Expected:            b.Expected(),
					Actual:              b.Expected() + 1,
				})
			}
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("commit: %w", event.ErrConflict)
		}
		return fmt.Errorf("commit: %w", err)
	}

	return nil
}

func (store *EventStore) insert(ctx context.Context, tx pgx.Tx, events []event.Event) error {
	builder := squirrel.
		Insert(store.table).
		Columns("id", "time", "aggregate_id", "sequence_nr", "aggregate_type", "payload_type", "payload_revision", "payload", "meta_data", "snapshot").
		PlaceholderFormat(squirrel.Dollar)

	for _, evt := range events {
		var meta []byte
		if evt.MetaData != nil {
			var err error
			if meta, err = metaCodec.Marshal(evt.MetaData); err != nil {
				return fmt.Errorf("marshal meta data of event %q: %w", evt.MessageIdentifier, err)
			}
		}

		builder = builder.Values(
			evt.MessageIdentifier,
			evt.Timestamp,
			evt.AggregateIdentifier,
			evt.AggregateSequenceNumber,
			evt.AggregateType,
			evt.Payload.Type,
			evt.Payload.Revision,
			evt.Payload.Data,
			meta,
			evt.Snapshot,
		)
	}

	sql, args, err := builder.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := tx.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert events: %w", err)
	}

	return nil
}

func isUniqueViolation(err error) bool {
	var sqlErr interface{ SQLState() string }
	return errors.As(err, &sqlErr) && sqlErr.SQLState() == uniqueViolation
}

func eventTableSQL(name string) string {
	return fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		id VARCHAR(64) PRIMARY KEY NOT NULL,
		time BIGINT NOT NULL,
		aggregate_id VARCHAR(255) NOT NULL,
		sequence_nr BIGINT NOT NULL,
		aggregate_type VARCHAR(255) NOT NULL,
		payload_type VARCHAR(255) NOT NULL,
		payload_revision VARCHAR(255) NOT NULL DEFAULT '',
		payload BYTEA,
		meta_data JSONB,
		snapshot BOOLEAN NOT NULL DEFAULT FALSE
	)`, name)
}

func indexSQL(name, table string, fields []string, unique bool) string {
	var uniqueOpt string
	if unique {
		uniqueOpt = "UNIQUE"
	}
	return fmt.Sprintf("CREATE %s INDEX IF NOT EXISTS %s ON %s (%s)", uniqueOpt, name, table, strings.Join(fields, ", "))
}
