package server_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/jeroenvanmaanen/dendrite/api/axonpb"
	"github.com/jeroenvanmaanen/dendrite/client"
	"github.com/jeroenvanmaanen/dendrite/event/eventstore/memstore"
	"github.com/jeroenvanmaanen/dendrite/internal/grpctest"
	"github.com/jeroenvanmaanen/dendrite/server"
	"github.com/sirupsen/logrus/hooks/test"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func newServer(t *testing.T) (*server.Server, *grpc.ClientConn) {
	log, _ := test.NewNullLogger()
	srv := server.New(memstore.New(), server.Logger(log))
	_, conn, _ := grpctest.NewRunningServer(t, srv.Register)
	return srv, conn
}

func awaitSubscription(t *testing.T, r *server.Router, want ...string) {
	t.Helper()

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cmp.Equal(want, r.Commands(), cmpopts.EquateEmpty()) {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}

	t.Fatalf("router should have subscriptions %v; has %v", want, r.Commands())
}

// openProvider opens a command stream and subscribes to command without
// granting permits.
func openProvider(t *testing.T, ctx context.Context, conn grpc.ClientConnInterface, command string) axonpb.CommandService_OpenStreamClient {
	t.Helper()

	stream, err := axonpb.NewCommandServiceClient(conn).OpenStream(ctx)
	if err != nil {
		t.Fatalf("OpenStream() failed with %q", err)
	}

	if err := stream.Send(&axonpb.CommandProviderOutbound{
		InstructionID: "sub",
		Subscribe:     &axonpb.CommandSubscription{Command: command, ClientID: "provider", ComponentName: "test"},
	}); err != nil {
		t.Fatalf("Send() failed with %q", err)
	}

	return stream
}

func TestRouter_Dispatch_noHandler(t *testing.T) {
	_, conn := newServer(t)
	g := client.NewGateway(conn)

	_, err := g.SendCommand(context.Background(), "foo", []byte("{}"))

	var cerr *client.CommandError
	if !errors.As(err, &cerr) {
		t.Fatalf("SendCommand() should fail with a %T; got %q", cerr, err)
	}
	if cerr.Code != server.NoHandlerErrorCode {
		t.Fatalf("error code should be %q; is %q", server.NoHandlerErrorCode, cerr.Code)
	}
}

func TestRouter_Dispatch_waitsForPermits(t *testing.T) {
	srv, conn := newServer(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stream := openProvider(t, ctx, conn, "foo")
	awaitSubscription(t, srv.Router(), "foo")

	dispatchCtx, cancelDispatch := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancelDispatch()

	_, err := axonpb.NewCommandServiceClient(conn).Dispatch(dispatchCtx, &axonpb.Command{
		MessageIdentifier: "c1",
		Name:              "foo",
	})
	if status.Code(err) != codes.DeadlineExceeded {
		t.Fatalf("Dispatch() without permits should fail with %v; got %q", codes.DeadlineExceeded, err)
	}

	if err := stream.Send(&axonpb.CommandProviderOutbound{
		InstructionID: "flow",
		FlowControl:   &axonpb.FlowControl{ClientID: "provider", Permits: 1},
	}); err != nil {
		t.Fatalf("Send() failed with %q", err)
	}

	result := make(chan *axonpb.CommandResponse, 1)
	go func() {
		resp, err := axonpb.NewCommandServiceClient(conn).Dispatch(context.Background(), &axonpb.Command{
			MessageIdentifier: "c2",
			Name:              "foo",
		})
		if err != nil {
			t.Errorf("Dispatch() failed with %q", err)
		}
		result <- resp
	}()

	in, err := stream.Recv()
	if err != nil {
		t.Fatalf("Recv() failed with %q", err)
	}
	if in.Command == nil || in.Command.MessageIdentifier != "c2" {
		t.Fatalf("provider should receive command %q; got %+v", "c2", in)
	}

	if err := stream.Send(&axonpb.CommandProviderOutbound{
		InstructionID: "resp",
		CommandResponse: &axonpb.CommandResponse{
			MessageIdentifier: "r2",
			RequestIdentifier: "c2",
			Payload:           &axonpb.SerializedObject{Type: "bar", Data: []byte("ok")},
		},
	}); err != nil {
		t.Fatalf("Send() failed with %q", err)
	}

	select {
	case resp := <-result:
		if resp == nil || resp.RequestIdentifier != "c2" || string(resp.Payload.Data) != "ok" {
			t.Fatalf("Dispatch() returned wrong response: %+v", resp)
		}
	case <-time.After(3 * time.Second):
		t.Fatalf("Dispatch() did not return")
	}
}

func TestRouter_Dispatch_providerDisconnects(t *testing.T) {
	srv, conn := newServer(t)

	stream := openProvider(t, context.Background(), conn, "foo")
	if err := stream.Send(&axonpb.CommandProviderOutbound{
		InstructionID: "flow",
		FlowControl:   &axonpb.FlowControl{ClientID: "provider", Permits: 1},
	}); err != nil {
		t.Fatalf("Send() failed with %q", err)
	}
	awaitSubscription(t, srv.Router(), "foo")

	result := make(chan error, 1)
	go func() {
		_, err := axonpb.NewCommandServiceClient(conn).Dispatch(context.Background(), &axonpb.Command{
			MessageIdentifier: "c1",
			Name:              "foo",
		})
		result <- err
	}()

	if _, err := stream.Recv(); err != nil {
		t.Fatalf("Recv() failed with %q", err)
	}

	if err := stream.CloseSend(); err != nil {
		t.Fatalf("CloseSend() failed with %q", err)
	}

	select {
	case err := <-result:
		if status.Code(err) != codes.Unavailable {
			t.Fatalf("Dispatch() should fail with %v; got %q", codes.Unavailable, err)
		}
	case <-time.After(3 * time.Second):
		t.Fatalf("Dispatch() did not return")
	}

	awaitSubscription(t, srv.Router())
}

func TestRouter_Dispatch_duplicateMessageID(t *testing.T) {
	srv, conn := newServer(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stream := openProvider(t, ctx, conn, "foo")
	if err := stream.Send(&axonpb.CommandProviderOutbound{
		InstructionID: "flow",
		FlowControl:   &axonpb.FlowControl{ClientID: "provider", Permits: 2},
	}); err != nil {
		t.Fatalf("Send() failed with %q", err)
	}
	awaitSubscription(t, srv.Router(), "foo")

	commands := axonpb.NewCommandServiceClient(conn)

	result := make(chan *axonpb.CommandResponse, 1)
	go func() {
		resp, err := commands.Dispatch(ctx, &axonpb.Command{MessageIdentifier: "c1", Name: "foo"})
		if err != nil {
			t.Errorf("Dispatch() failed with %q", err)
		}
		result <- resp
	}()

	// the first dispatch is pending once the provider received it
	if _, err := stream.Recv(); err != nil {
		t.Fatalf("Recv() failed with %q", err)
	}

	_, err := commands.Dispatch(ctx, &axonpb.Command{MessageIdentifier: "c1", Name: "foo"})
	if status.Code(err) != codes.AlreadyExists {
		t.Fatalf("Dispatch() of a pending message id should fail with %v; got %q", codes.AlreadyExists, err)
	}

	if err := stream.Send(&axonpb.CommandProviderOutbound{
		InstructionID: "resp",
		CommandResponse: &axonpb.CommandResponse{
			MessageIdentifier: "r1",
			RequestIdentifier: "c1",
		},
	}); err != nil {
		t.Fatalf("Send() failed with %q", err)
	}

	select {
	case resp := <-result:
		if resp == nil || resp.RequestIdentifier != "c1" {
			t.Fatalf("first Dispatch() should receive its response; got %+v", resp)
		}
	case <-time.After(3 * time.Second):
		t.Fatalf("first Dispatch() did not return")
	}
}
