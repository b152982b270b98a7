package axonpb

import (
	context "context"

	grpc "google.golang.org/grpc"
	codes "google.golang.org/grpc/codes"
	status "google.golang.org/grpc/status"
)

func callOptions(opts []grpc.CallOption) []grpc.CallOption {
	return append([]grpc.CallOption{grpc.CallContentSubtype(Name)}, opts...)
}

// CommandServiceClient is the client API for the CommandService service.
type CommandServiceClient interface {
	// OpenStream opens a command subscription stream for a worker.
	OpenStream(ctx context.Context, opts ...grpc.CallOption) (CommandService_OpenStreamClient, error)
	// Dispatch sends a command to a subscribed worker and waits for its response.
	Dispatch(ctx context.Context, in *Command, opts ...grpc.CallOption) (*CommandResponse, error)
}

type commandServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewCommandServiceClient returns a CommandServiceClient that uses the json
// content subtype for every call.
func NewCommandServiceClient(cc grpc.ClientConnInterface) CommandServiceClient {
	return &commandServiceClient{cc}
}

func (c *commandServiceClient) OpenStream(ctx context.Context, opts ...grpc.CallOption) (CommandService_OpenStreamClient, error) {
	stream, err := c.cc.NewStream(ctx, &CommandService_ServiceDesc.Streams[0], "/dendrite.command.CommandService/OpenStream", callOptions(opts)...)
	if err != nil {
		return nil, err
	}
	x := &commandServiceOpenStreamClient{stream}
	return x, nil
}

// CommandService_OpenStreamClient is the worker side of an OpenStream call.
type CommandService_OpenStreamClient interface {
	Send(*CommandProviderOutbound) error
	Recv() (*CommandProviderInbound, error)
	grpc.ClientStream
}

type commandServiceOpenStreamClient struct {
	grpc.ClientStream
}

func (x *commandServiceOpenStreamClient) Send(m *CommandProviderOutbound) error {
	return x.ClientStream.SendMsg(m)
}

func (x *commandServiceOpenStreamClient) Recv() (*CommandProviderInbound, error) {
	m := new(CommandProviderInbound)
	if err := x.ClientStream.RecvMsg(m); err != nil {
		return nil, err
	}
	return m, nil
}

func (c *commandServiceClient) Dispatch(ctx context.Context, in *Command, opts ...grpc.CallOption) (*CommandResponse, error) {
	out := new(CommandResponse)
	err := c.cc.Invoke(ctx, "/dendrite.command.CommandService/Dispatch", in, out, callOptions(opts)...)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// CommandServiceServer is the server API for the CommandService service.
type CommandServiceServer interface {
	// OpenStream opens a command subscription stream for a worker.
	OpenStream(CommandService_OpenStreamServer) error
	// Dispatch sends a command to a subscribed worker and waits for its response.
	Dispatch(context.Context, *Command) (*CommandResponse, error)
	mustEmbedUnimplementedCommandServiceServer()
}

// UnimplementedCommandServiceServer must be embedded to have forward compatible implementations.
type UnimplementedCommandServiceServer struct{}

func (UnimplementedCommandServiceServer) OpenStream(CommandService_OpenStreamServer) error {
	return status.Errorf(codes.Unimplemented, "method OpenStream not implemented")
}
func (UnimplementedCommandServiceServer) Dispatch(context.Context, *Command) (*CommandResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method Dispatch not implemented")
}
func (UnimplementedCommandServiceServer) mustEmbedUnimplementedCommandServiceServer() {}

// RegisterCommandServiceServer registers srv on s.
func RegisterCommandServiceServer(s grpc.ServiceRegistrar, srv CommandServiceServer) {
	s.RegisterService(&CommandService_ServiceDesc, srv)
}

func _CommandService_OpenStream_Handler(srv interface{}, stream grpc.ServerStream) error {
	return srv.(CommandServiceServer).OpenStream(&commandServiceOpenStreamServer{stream})
}

// CommandService_OpenStreamServer is the router side of an OpenStream call.
type CommandService_OpenStreamServer interface {
	Send(*CommandProviderInbound) error
	Recv() (*CommandProviderOutbound, error)
	grpc.ServerStream
}

type commandServiceOpenStreamServer struct {
	grpc.ServerStream
}

func (x *commandServiceOpenStreamServer) Send(m *CommandProviderInbound) error {
	return x.ServerStream.SendMsg(m)
}

func (x *commandServiceOpenStreamServer) Recv() (*CommandProviderOutbound, error) {
	m := new(CommandProviderOutbound)
	if err := x.ServerStream.RecvMsg(m); err != nil {
		return nil, err
	}
	return m, nil
}

func _CommandService_Dispatch_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(Command)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(CommandServiceServer).Dispatch(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: "/dendrite.command.CommandService/Dispatch",
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(CommandServiceServer).Dispatch(ctx, req.(*Command))
	}
	return interceptor(ctx, in, info, handler)
}

// CommandService_ServiceDesc is the grpc.ServiceDesc for the CommandService service.
var CommandService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: "dendrite.command.CommandService",
	HandlerType: (*CommandServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "Dispatch",
			Handler:    _CommandService_Dispatch_Handler,
		},
	},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "OpenStream",
			Handler:       _CommandService_OpenStream_Handler,
			ServerStreams: true,
			ClientStreams: true,
		},
	},
	Metadata: "dendrite/command.proto",
}
