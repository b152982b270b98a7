// Package clifactory provides the configuration shared by the CLI commands.
package clifactory

import (
	"context"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"github.com/jeroenvanmaanen/dendrite/client"
	"github.com/jeroenvanmaanen/dendrite/internal/env"
	"github.com/sirupsen/logrus"
	"google.golang.org/grpc/test/bufconn"
)

// Factory is used by commands to provide common configuration.
type Factory struct {
	Context        context.Context
	Address        string
	ConnectTimeout time.Duration
	Debug          bool
	TestListener   *bufconn.Listener

	// Log is the logger of the commands. Its level is raised to debug when
	// Debug is set.
	Log *logrus.Logger

	mux  sync.Mutex
	conn *client.Connection
}

// Option is a Factory option.
type Option func(*Factory)

// Context returns an Option that sets the Context of a Factory.
func Context(ctx context.Context) Option {
	return func(f *Factory) {
		f.Context = ctx
	}
}

// Address returns an Option that specifies the address of the server.
func Address(addr string) Option {
	return func(f *Factory) {
		f.Address = addr
	}
}

// ConnectTimeout returns an Option that specifies the timeout for connecting to
// the server.
func ConnectTimeout(d time.Duration) Option {
	return func(f *Factory) {
		f.ConnectTimeout = d
	}
}

// TestListener returns an Option that provides a Factory with a
// *bufconn.Listener. When connecting to the server, Factory will use the
// Listener to dial the gRPC server instead of using the Address.
func TestListener(lis *bufconn.Listener) Option {
	return func(f *Factory) {
		f.TestListener = lis
	}
}

// Logger returns an Option that sets the logger of the commands.
func Logger(l *logrus.Logger) Option {
	return func(f *Factory) {
		f.Log = l
	}
}

// Output returns an Option that writes the logs of the commands to w.
func Output(w io.Writer) Option {
	return func(f *Factory) {
		if f.Log == nil {
			f.Log = logrus.New()
		}
		f.Log.SetOutput(w)
	}
}

// New returns a new Factory. Defaults are read from $DENDRITE_ADDRESS and
// $DENDRITE_DEBUG.
func New(opts ...Option) *Factory {
	f := Factory{
		Address: env.StringOr("DENDRITE_ADDRESS", client.DefaultAddress),
		Debug:   env.Bool("DENDRITE_DEBUG"),
	}
	for _, opt := range opts {
		opt(&f)
	}
	if f.Context == nil {
		f.Context = context.Background()
	}
	if f.Log == nil {
		f.Log = logrus.StandardLogger()
	}
	return &f
}

// Logger returns the logger of the commands with the level applied.
func (f *Factory) Logger() *logrus.Logger {
	if f.Debug {
		f.Log.SetLevel(logrus.DebugLevel)
	}
	return f.Log
}

// Connect connects to the server and returns the connection. If the connection
// cannot be established within the configured ConnectTimeout Duration,
// client.ErrServerUnavailable is returned.
func (f *Factory) Connect(ctx context.Context) (*client.Connection, error) {
	f.mux.Lock()
	defer f.mux.Unlock()

	if f.conn != nil {
		return f.conn, nil
	}

	opts := []client.ConnectOption{client.Timeout(f.ConnectTimeout)}

	if f.TestListener != nil {
		opts = append(opts, client.Dialer(func(context.Context, string) (net.Conn, error) {
			return f.TestListener.Dial()
		}))
	}

	conn, err := client.Connect(ctx, f.Address, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect to %v: %w", f.Address, err)
	}
	f.conn = conn

	return conn, nil
}

// Close closes the connection to the server, if any.
func (f *Factory) Close() error {
	f.mux.Lock()
	defer f.mux.Unlock()

	if f.conn == nil {
		return nil
	}

	err := f.conn.Close()
	f.conn = nil
	return err
}
