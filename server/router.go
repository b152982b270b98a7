package server

import (
	"context"
	"errors"
	"io"
	"sync"

	"github.com/jeroenvanmaanen/dendrite/api/axonpb"
	"github.com/jeroenvanmaanen/dendrite/internal"
	"github.com/sirupsen/logrus"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// NoHandlerErrorCode is the error code of a dispatched command that no
// worker is subscribed to.
const NoHandlerErrorCode = "NO_HANDLER_FOR_COMMAND"

// Router is the CommandService. Workers subscribe to commands over OpenStream
// and Dispatch sends each command to a subscribed worker that has permits
// left, waiting for permits if necessary.
type Router struct {
	axonpb.UnimplementedCommandServiceServer

	log logrus.FieldLogger

	mux       sync.Mutex
	providers map[*provider]struct{}
	pending   map[string]chan *axonpb.CommandResponse
	changed   chan struct{}
}

type provider struct {
	clientID  string
	component string
	commands  map[string]bool
	permits   int64
	done      chan struct{}

	sendMux sync.Mutex
	stream  axonpb.CommandService_OpenStreamServer
}

func (p *provider) send(in *axonpb.CommandProviderInbound) error {
	p.sendMux.Lock()
	defer p.sendMux.Unlock()
	return p.stream.Send(in)
}

// NewRouter returns a Router without subscriptions.
func NewRouter(log logrus.FieldLogger) *Router {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Router{
		log:       log,
		providers: make(map[*provider]struct{}),
		pending:   make(map[string]chan *axonpb.CommandResponse),
		changed:   make(chan struct{}),
	}
}

// broadcast wakes up all dispatches that wait for permits. r.mux must be held.
func (r *Router) broadcast() {
	close(r.changed)
	r.changed = make(chan struct{})
}

// OpenStream serves the subscription stream of a worker.
func (r *Router) OpenStream(stream axonpb.CommandService_OpenStreamServer) error {
	p := &provider{
		commands: make(map[string]bool),
		done:     make(chan struct{}),
		stream:   stream,
	}

	r.mux.Lock()
	r.providers[p] = struct{}{}
	r.mux.Unlock()

	defer func() {
		r.mux.Lock()
		defer r.mux.Unlock()
		delete(r.providers, p)
		close(p.done)
		r.broadcast()
		r.log.WithField("client_id", p.clientID).Info("worker disconnected")
	}()

	for {
		instr, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		r.handleInstruction(p, instr)
	}
}

func (r *Router) handleInstruction(p *provider, instr *axonpb.CommandProviderOutbound) {
	r.mux.Lock()
	defer r.mux.Unlock()

	switch {
	case instr.Subscribe != nil:
		p.clientID = instr.Subscribe.ClientID
		p.component = instr.Subscribe.ComponentName
		p.commands[instr.Subscribe.Command] = true
		r.log.WithFields(logrus.Fields{
			"client_id": p.clientID,
			"component": p.component,
			"command":   instr.Subscribe.Command,
		}).Info("worker subscribed")
	case instr.Unsubscribe != nil:
		delete(p.commands, instr.Unsubscribe.Command)
	case instr.FlowControl != nil:
		p.permits += instr.FlowControl.Permits
		r.log.WithFields(logrus.Fields{
			"client_id": p.clientID,
			"permits":   p.permits,
		}).Debug("permits granted")
	case instr.CommandResponse != nil:
		id := instr.CommandResponse.RequestIdentifier
		if ch, ok := r.pending[id]; ok {
			delete(r.pending, id)
			ch <- instr.CommandResponse
		} else {
			r.log.WithField("request_id", id).Warn("response to unknown command")
		}
		return
	default:
		return
	}

	r.broadcast()
}

// Commands returns the sorted names of the commands that at least one worker
// is subscribed to.
func (r *Router) Commands() []string {
	r.mux.Lock()
	defer r.mux.Unlock()

	set := make(map[string]struct{})
	for p := range r.providers {
		for cmd := range p.commands {
			set[cmd] = struct{}{}
		}
	}

	names := maps.Keys(set)
	slices.Sort(names)
	return names
}

// pick returns the subscribed provider with the most permits. subscribed
// reports whether any provider is subscribed to the command at all.
func (r *Router) pick(command string) (best *provider, subscribed bool) {
	for p := range r.providers {
		if !p.commands[command] {
			continue
		}
		subscribed = true
		if p.permits > 0 && (best == nil || p.permits > best.permits) {
			best = p
		}
	}
	return best, subscribed
}

// Dispatch sends cmd to a subscribed worker and returns its response.
func (r *Router) Dispatch(ctx context.Context, cmd *axonpb.Command) (*axonpb.CommandResponse, error) {
	if cmd.MessageIdentifier == "" {
		cmd.MessageIdentifier = internal.NewID()
	}

	responses := make(chan *axonpb.CommandResponse, 1)

	var p *provider
	for {
		r.mux.Lock()
		if _, ok := r.pending[cmd.MessageIdentifier]; ok {
			r.mux.Unlock()
			return nil, status.Errorf(codes.AlreadyExists, "command %q is already being dispatched", cmd.MessageIdentifier)
		}

		best, subscribed := r.pick(cmd.Name)
		if best != nil {
			best.permits--
			r.pending[cmd.MessageIdentifier] = responses
			p = best
			r.mux.Unlock()
			break
		}
		changed := r.changed
		r.mux.Unlock()

		if !subscribed {
			return &axonpb.CommandResponse{
				MessageIdentifier: internal.NewID(),
				RequestIdentifier: cmd.MessageIdentifier,
				ErrorCode:         NoHandlerErrorCode,
				ErrorMessage: &axonpb.ErrorMessage{
					Message:   "no handler for command: " + cmd.Name,
					ErrorCode: NoHandlerErrorCode,
				},
			}, nil
		}

		select {
		case <-ctx.Done():
			return nil, status.FromContextError(ctx.Err()).Err()
		case <-changed:
		}
	}

	defer func() {
		r.mux.Lock()
		defer r.mux.Unlock()
		if r.pending[cmd.MessageIdentifier] == responses {
			delete(r.pending, cmd.MessageIdentifier)
		}
	}()

	if err := p.send(&axonpb.CommandProviderInbound{InstructionID: internal.NewID(), Command: cmd}); err != nil {
		return nil, status.Errorf(codes.Unavailable, "send command to worker: %v", err)
	}

	select {
	case resp := <-responses:
		return resp, nil
	case <-p.done:
		select {
		case resp := <-responses:
			return resp, nil
		default:
			return nil, status.Error(codes.Unavailable, "worker disconnected before responding")
		}
	case <-ctx.Done():
		return nil, status.FromContextError(ctx.Err()).Err()
	}
}
