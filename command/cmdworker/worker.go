// Package cmdworker provides the worker that subscribes to commands at the
// command router, handles them, and streams the responses back under
// credit-based flow control.
package cmdworker

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/jeroenvanmaanen/dendrite/api/axonpb"
	"github.com/jeroenvanmaanen/dendrite/codec"
	"github.com/jeroenvanmaanen/dendrite/command"
	"github.com/jeroenvanmaanen/dendrite/internal"
	"github.com/jeroenvanmaanen/dendrite/internal/env"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
)

const (
	// DefaultQueueSize is the default capacity of the result queue.
	DefaultQueueSize = 10

	// DefaultComponentName is the default component name of a worker.
	DefaultComponentName = "dendrite"
)

// ErrStreamClosed is returned by Worker.Run when the router ends the stream.
var ErrStreamClosed = errors.New("command stream closed")

// Handler handles the commands of a Worker. *aggregate.Pipeline implements
// Handler.
type Handler interface {
	// Commands returns the names of the commands to subscribe to.
	Commands() []string

	// Handle handles a command and returns its optional response.
	Handle(context.Context, command.Command) (*codec.SerializedObject, error)
}

// Worker subscribes to the commands of a Handler and handles them.
type Worker struct {
	client  axonpb.CommandServiceClient
	handler Handler

	clientID  string
	component string
	batchSize int
	queueSize int
	log       logrus.FieldLogger
	newID     func() string
}

// Option is an option for a Worker.
type Option func(*Worker)

// ClientID returns an Option that sets the client id of the worker. Defaults
// to $DENDRITE_CLIENT_ID, or a random id.
func ClientID(id string) Option {
	return func(w *Worker) {
		w.clientID = id
	}
}

// ComponentName returns an Option that sets the component name of the worker.
// Defaults to $DENDRITE_COMPONENT, or "dendrite".
func ComponentName(name string) Option {
	return func(w *Worker) {
		w.component = name
	}
}

// BatchSize returns an Option that sets the number of permits that are granted
// at once. The initial grant is twice the batch size. Defaults to
// $DENDRITE_BATCH_SIZE, or 3.
func BatchSize(n int) Option {
	return func(w *Worker) {
		w.batchSize = n
	}
}

// QueueSize returns an Option that sets the capacity of the queue between
// command handling and response emission. Defaults to $DENDRITE_QUEUE_SIZE,
// or 10.
func QueueSize(n int) Option {
	return func(w *Worker) {
		w.queueSize = n
	}
}

// Logger returns an Option that sets the logger of the worker. Defaults to
// logrus.StandardLogger().
func Logger(l logrus.FieldLogger) Option {
	return func(w *Worker) {
		w.log = l
	}
}

// IDGenerator returns an Option that sets the generator of instruction
// identifiers. Defaults to random UUIDs in simple form.
func IDGenerator(newID func() string) Option {
	return func(w *Worker) {
		w.newID = newID
	}
}

// New returns a Worker that handles commands from the router at conn.
func New(conn grpc.ClientConnInterface, h Handler, opts ...Option) *Worker {
	if h == nil {
		panic("[dendrite/cmdworker.New] nil handler")
	}

	w := &Worker{
		client:    axonpb.NewCommandServiceClient(conn),
		handler:   h,
		clientID:  env.String("DENDRITE_CLIENT_ID"),
		component: env.StringOr("DENDRITE_COMPONENT", DefaultComponentName),
		batchSize: env.IntOr("DENDRITE_BATCH_SIZE", DefaultBatchSize),
		queueSize: env.IntOr("DENDRITE_QUEUE_SIZE", DefaultQueueSize),
		newID:     internal.NewID,
	}
	for _, opt := range opts {
		opt(w)
	}

	if w.clientID == "" {
		w.clientID = internal.NewID()
	}
	if w.batchSize <= 0 {
		w.batchSize = DefaultBatchSize
	}
	if w.queueSize <= 0 {
		w.queueSize = DefaultQueueSize
	}
	if w.log == nil {
		w.log = logrus.StandardLogger()
	}
	w.log = w.log.WithFields(logrus.Fields{
		"client_id": w.clientID,
		"component": w.component,
	})

	return w
}

// ClientID returns the client id of the worker.
func (w *Worker) ClientID() string {
	return w.clientID
}

// Run opens the command stream and handles commands until the stream ends or
// ctx is canceled. Run returns ErrStreamClosed when the router ends the
// stream, and the receive error when the stream fails.
func (w *Worker) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// A failing task cancels gctx and with it the stream, which unblocks the
	// other task.
	g, gctx := errgroup.WithContext(ctx)

	stream, err := w.client.OpenStream(gctx)
	if err != nil {
		return fmt.Errorf("open command stream: %w", err)
	}

	driver := NewDriver(w.handler.Commands(), w.clientID, w.component, w.batchSize, w.newID)
	if err := w.send(stream, driver.Open()...); err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}
	w.log.WithField("balance", driver.Balance()).Info("subscribed to commands")

	queue := make(chan Result, w.queueSize)

	g.Go(func() error {
		defer close(queue)
		return w.ingest(gctx, stream, queue)
	})

	g.Go(func() error {
		return w.emit(stream, driver, queue)
	})

	err = g.Wait()
	stream.CloseSend()

	if ctxErr := ctx.Err(); ctxErr != nil && !errors.Is(err, ErrStreamClosed) {
		return ctxErr
	}

	return err
}

func (w *Worker) ingest(ctx context.Context, stream axonpb.CommandService_OpenStreamClient, queue chan<- Result) error {
	for {
		in, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			w.log.Info("command stream closed by router")
			return ErrStreamClosed
		}
		if err != nil {
			w.log.WithError(err).Error("receive instruction")
			return fmt.Errorf("receive instruction: %w", err)
		}

		if in.Ack != nil {
			w.log.WithFields(logrus.Fields{
				"instruction_id": in.Ack.InstructionID,
				"success":        in.Ack.Success,
			}).Debug("received ack")
		}

		if in.Command == nil {
			continue
		}

		cmd := in.Command.AsCommand()
		w.log.WithFields(logrus.Fields{
			"command":    cmd.Name,
			"message_id": cmd.MessageIdentifier,
		}).Debug("received command")

		resp, err := w.handler.Handle(ctx, cmd)
		res := Result{RequestIdentifier: cmd.MessageIdentifier, Response: resp, Err: err}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case queue <- res:
		}
	}
}

func (w *Worker) emit(stream axonpb.CommandService_OpenStreamClient, driver *Driver, queue <-chan Result) error {
	for res := range queue {
		if err := w.send(stream, driver.Respond(res)...); err != nil {
			w.log.WithError(err).Error("send response")
			return fmt.Errorf("send response to %q: %w", res.RequestIdentifier, err)
		}
		w.log.WithFields(logrus.Fields{
			"request_id": res.RequestIdentifier,
			"balance":    driver.Balance(),
		}).Debug("sent response")
	}
	return nil
}

func (w *Worker) send(stream axonpb.CommandService_OpenStreamClient, instructions ...*axonpb.CommandProviderOutbound) error {
	for _, instr := range instructions {
		if err := stream.Send(instr); err != nil {
			return err
		}
		w.log.WithField("instruction", describe(instr)).Debug("sent instruction")
	}
	return nil
}

func describe(instr *axonpb.CommandProviderOutbound) string {
	switch {
	case instr.Subscribe != nil:
		return "subscribe " + instr.Subscribe.Command
	case instr.Unsubscribe != nil:
		return "unsubscribe " + instr.Unsubscribe.Command
	case instr.FlowControl != nil:
		return fmt.Sprintf("flow control +%d", instr.FlowControl.Permits)
	case instr.CommandResponse != nil:
		return "response to " + instr.CommandResponse.RequestIdentifier
	default:
		return "instruction " + instr.InstructionID
	}
}
