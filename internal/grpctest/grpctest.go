// Package grpctest runs gRPC servers over in-memory connections in tests.
package grpctest

import (
	"context"
	"fmt"
	"net"
	"testing"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/test/bufconn"
)

// NewServer returns a new *grpc.Server and a *grpc.ClientConn that is connected
// to the returned *bufconn.Listener.
func NewServer(t *testing.T, init func(grpc.ServiceRegistrar)) (*grpc.Server, *grpc.ClientConn, *bufconn.Listener) {
	srv := grpc.NewServer()
	lis := bufconn.Listen(1024 * 1024)
	if init != nil {
		init(srv)
	}
	return srv, ClientConn(t, lis), lis
}

// NewRunningServer returns the same as NewServer, but also starts the server in
// a new goroutine. The server is stopped and the connection closed when the
// test finishes.
func NewRunningServer(t *testing.T, init func(grpc.ServiceRegistrar)) (*grpc.Server, *grpc.ClientConn, *bufconn.Listener) {
	srv, conn, lis := NewServer(t, init)
	go func() {
		if err := srv.Serve(lis); err != nil {
			panic(err)
		}
	}()
	t.Cleanup(func() {
		conn.Close()
		srv.Stop()
	})
	return srv, conn, lis
}

// ClientConn returns a *grpc.ClientConn that dials using the provided
// *bufconn.Listener.
func ClientConn(t *testing.T, lis *bufconn.Listener) *grpc.ClientConn {
	conn, err := grpc.DialContext(
		context.Background(), "",
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithContextDialer(func(context.Context, string) (net.Conn, error) {
			return lis.Dial()
		}),
	)
	if err != nil {
		t.Fatal(fmt.Errorf("grpc.DialContext: %w", err))
	}
	return conn
}
