// Package client connects to a dendrite server and provides the command
// gateway and the remote event store.
package client

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/jeroenvanmaanen/dendrite/internal"
	"github.com/jeroenvanmaanen/dendrite/internal/env"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// DefaultAddress is the default address of a dendrite server.
const DefaultAddress = "localhost:8124"

// ErrServerUnavailable is returned when the connection to the server cannot
// be established within the connect timeout.
var ErrServerUnavailable = errors.New("server unavailable")

// Connection is a connection to a dendrite server.
type Connection struct {
	*grpc.ClientConn

	// ClientID identifies this process at the server.
	ClientID string
}

// ConnectOption is an option for Connect.
type ConnectOption func(*connectConfig)

type connectConfig struct {
	clientID string
	timeout  time.Duration
	dialer   func(context.Context, string) (net.Conn, error)
	dialOpts []grpc.DialOption
}

// ClientID returns a ConnectOption that sets the client id of the connection.
// Defaults to $DENDRITE_CLIENT_ID, or a random id.
func ClientID(id string) ConnectOption {
	return func(cfg *connectConfig) {
		cfg.clientID = id
	}
}

// Timeout returns a ConnectOption that limits the time to establish the
// connection. Without a timeout, Connect does not wait for the connection.
func Timeout(d time.Duration) ConnectOption {
	return func(cfg *connectConfig) {
		cfg.timeout = d
	}
}

// Dialer returns a ConnectOption that dials the server using fn.
func Dialer(fn func(context.Context, string) (net.Conn, error)) ConnectOption {
	return func(cfg *connectConfig) {
		cfg.dialer = fn
	}
}

// DialOptions returns a ConnectOption that adds grpc.DialOptions.
func DialOptions(opts ...grpc.DialOption) ConnectOption {
	return func(cfg *connectConfig) {
		cfg.dialOpts = append(cfg.dialOpts, opts...)
	}
}

// Connect connects to the server at address. An empty address defaults to
// $DENDRITE_ADDRESS, or DefaultAddress.
func Connect(ctx context.Context, address string, opts ...ConnectOption) (*Connection, error) {
	cfg := connectConfig{clientID: env.String("DENDRITE_CLIENT_ID")}
	for _, opt := range opts {
		opt(&cfg)
	}

	if address == "" {
		address = env.StringOr("DENDRITE_ADDRESS", DefaultAddress)
	}

	if cfg.clientID == "" {
		cfg.clientID = internal.NewID()
	}

	dialOpts := []grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}

	if cfg.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.timeout)
		defer cancel()
		dialOpts = append(dialOpts, grpc.WithBlock())
	}

	if cfg.dialer != nil {
		dialOpts = append(dialOpts, grpc.WithContextDialer(cfg.dialer))
	}

	conn, err := grpc.DialContext(ctx, address, append(dialOpts, cfg.dialOpts...)...)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w [address=%v]", ErrServerUnavailable, address)
		}
		return nil, fmt.Errorf("grpc.DialContext: %w", err)
	}

	return &Connection{ClientConn: conn, ClientID: cfg.clientID}, nil
}
