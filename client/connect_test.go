package client_test

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/jeroenvanmaanen/dendrite/client"
	"github.com/jeroenvanmaanen/dendrite/internal/env"
	"google.golang.org/grpc"
	"google.golang.org/grpc/test/bufconn"
)

func serve(t *testing.T, init func(*grpc.Server)) *bufconn.Listener {
	srv := grpc.NewServer()
	if init != nil {
		init(srv)
	}
	lis := bufconn.Listen(1024 * 1024)
	go srv.Serve(lis)
	t.Cleanup(srv.Stop)
	return lis
}

func connect(t *testing.T, lis *bufconn.Listener, opts ...client.ConnectOption) *client.Connection {
	t.Helper()

	conn, err := client.Connect(context.Background(), "bufnet", append([]client.ConnectOption{
		client.Timeout(3 * time.Second),
		client.Dialer(func(context.Context, string) (net.Conn, error) {
			return lis.Dial()
		}),
	}, opts...)...)
	if err != nil {
		t.Fatalf("Connect() failed with %q", err)
	}
	t.Cleanup(func() { conn.Close() })

	return conn
}

func TestConnect(t *testing.T) {
	conn := connect(t, serve(t, nil))

	if len(conn.ClientID) != 32 {
		t.Fatalf("Connect() should generate a client id of 32 characters; got %q", conn.ClientID)
	}
}

func TestConnect_clientID(t *testing.T) {
	lis := serve(t, nil)

	if conn := connect(t, lis, client.ClientID("foo")); conn.ClientID != "foo" {
		t.Fatalf("ClientID should be %q; is %q", "foo", conn.ClientID)
	}

	defer env.Temp("DENDRITE_CLIENT_ID", "bar")()

	if conn := connect(t, lis); conn.ClientID != "bar" {
		t.Fatalf("ClientID should be %q; is %q", "bar", conn.ClientID)
	}
}

func TestConnect_timeout(t *testing.T) {
	_, err := client.Connect(
		context.Background(), "bufnet",
		client.Timeout(50*time.Millisecond),
		client.Dialer(func(context.Context, string) (net.Conn, error) {
			return nil, errors.New("connection refused")
		}),
	)

	if !errors.Is(err, client.ErrServerUnavailable) {
		t.Fatalf("Connect() should fail with %q; got %q", client.ErrServerUnavailable, err)
	}
}
