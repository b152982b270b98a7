// Package server provides a development server that routes commands to
// subscribed workers and serves an event store over gRPC.
package server

import (
	"context"
	"fmt"
	"net"

	"github.com/jeroenvanmaanen/dendrite/api/axonpb"
	"github.com/jeroenvanmaanen/dendrite/event"
	"github.com/sirupsen/logrus"
	"google.golang.org/grpc"
)

// DefaultPort is the default port of the server.
const DefaultPort = uint16(8124)

// Server combines the command Router and the EventStore service.
type Server struct {
	router *Router
	events *EventStore
}

// Option is an option for a Server.
type Option func(*config)

type config struct {
	log logrus.FieldLogger
}

// Logger returns an Option that sets the logger of the server. Defaults to
// logrus.StandardLogger().
func Logger(l logrus.FieldLogger) Option {
	return func(cfg *config) {
		cfg.log = l
	}
}

// New returns a Server that stores events in store.
func New(store event.Store, opts ...Option) *Server {
	var cfg config
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.log == nil {
		cfg.log = logrus.StandardLogger()
	}
	return &Server{
		router: NewRouter(cfg.log.WithField("service", "command")),
		events: NewEventStore(store, cfg.log.WithField("service", "event")),
	}
}

// Router returns the command router.
func (s *Server) Router() *Router {
	return s.router
}

// Register registers the services of the server on srv.
func (s *Server) Register(srv grpc.ServiceRegistrar) {
	axonpb.RegisterCommandServiceServer(srv, s.router)
	axonpb.RegisterEventStoreServer(srv, s.events)
}

// ServeOption is an option for serving a Server.
type ServeOption func(*serveConfig)

type serveConfig struct {
	port   uint16
	server *grpc.Server
	lis    net.Listener
}

// Port returns a ServeOption that specifies the port to listen on. Default
// port is 8124. Port has no effect when providing a custom Listener through
// the Listener ServeOption.
func Port(p uint16) ServeOption {
	return func(cfg *serveConfig) {
		cfg.port = p
	}
}

// GRPCServer returns a ServeOption that specifies the underlying grpc.Server
// to use.
func GRPCServer(srv *grpc.Server) ServeOption {
	return func(cfg *serveConfig) {
		cfg.server = srv
	}
}

// Listener returns a ServeOption that provides a custom Listener. When a
// Listener is provided, the Port ServeOption has no effect.
func Listener(lis net.Listener) ServeOption {
	return func(cfg *serveConfig) {
		cfg.lis = lis
	}
}

// Serve serves the Server until ctx is canceled.
//
//	s := server.New(memstore.New())
//	err := s.Serve(context.TODO(), server.Port(8124))
func (s *Server) Serve(ctx context.Context, opts ...ServeOption) error {
	cfg, err := s.newServeConfig(opts...)
	if err != nil {
		return err
	}

	serveError := s.serve(ctx, cfg.server, cfg.lis)
	stopped := s.stopOnCancel(ctx, cfg.server)

	select {
	case err := <-serveError:
		return err
	case <-stopped:
		return nil
	}
}

func (s *Server) newServeConfig(opts ...ServeOption) (serveConfig, error) {
	cfg := serveConfig{port: DefaultPort}
	for _, opt := range opts {
		opt(&cfg)
	}

	if cfg.server == nil {
		cfg.server = grpc.NewServer()
	}
	s.Register(cfg.server)

	if cfg.lis == nil {
		lis, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.port))
		if err != nil {
			return cfg, fmt.Errorf("create Listener: %w", err)
		}
		cfg.lis = lis
	}

	return cfg, nil
}

func (s *Server) serve(ctx context.Context, srv *grpc.Server, lis net.Listener) <-chan error {
	serveError := make(chan error)
	go func() {
		if err := srv.Serve(lis); err != nil {
			select {
			case <-ctx.Done():
			case serveError <- err:
			}
		}
	}()
	return serveError
}

// stopOnCancel stops srv when ctx is canceled. Open worker streams never end
// on their own, so the server is stopped hard.
func (s *Server) stopOnCancel(ctx context.Context, srv *grpc.Server) <-chan struct{} {
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		<-ctx.Done()
		srv.Stop()
	}()
	return stopped
}
