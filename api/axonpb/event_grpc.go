package axonpb

import (
	context "context"

	grpc "google.golang.org/grpc"
	codes "google.golang.org/grpc/codes"
	status "google.golang.org/grpc/status"
)

// EventStoreClient is the client API for the EventStore service.
type EventStoreClient interface {
	// ListAggregateEvents streams the events of an aggregate in order.
	ListAggregateEvents(ctx context.Context, in *GetAggregateEventsRequest, opts ...grpc.CallOption) (EventStore_ListAggregateEventsClient, error)
	// ReadHighestSequenceNr returns the highest sequence number of an aggregate.
	ReadHighestSequenceNr(ctx context.Context, in *ReadHighestSequenceNrRequest, opts ...grpc.CallOption) (*ReadHighestSequenceNrResponse, error)
	// AppendEvent appends the streamed events in one transaction.
	AppendEvent(ctx context.Context, opts ...grpc.CallOption) (EventStore_AppendEventClient, error)
}

type eventStoreClient struct {
	cc grpc.ClientConnInterface
}

// NewEventStoreClient returns an EventStoreClient that uses the json content
// subtype for every call.
func NewEventStoreClient(cc grpc.ClientConnInterface) EventStoreClient {
	return &eventStoreClient{cc}
}

func (c *eventStoreClient) ListAggregateEvents(ctx context.Context, in *GetAggregateEventsRequest, opts ...grpc.CallOption) (EventStore_ListAggregateEventsClient, error) {
	stream, err := c.cc.NewStream(ctx, &EventStore_ServiceDesc.Streams[0], "/dendrite.event.EventStore/ListAggregateEvents", callOptions(opts)...)
	if err != nil {
		return nil, err
	}
	x := &eventStoreListAggregateEventsClient{stream}
	if err := x.ClientStream.SendMsg(in); err != nil {
		return nil, err
	}
	if err := x.ClientStream.CloseSend(); err != nil {
		return nil, err
	}
	return x, nil
}

// EventStore_ListAggregateEventsClient receives the events of an aggregate.
type EventStore_ListAggregateEventsClient interface {
	Recv() (*Event, error)
	grpc.ClientStream
}

type eventStoreListAggregateEventsClient struct {
	grpc.ClientStream
}

func (x *eventStoreListAggregateEventsClient) Recv() (*Event, error) {
	m := new(Event)
	if err := x.ClientStream.RecvMsg(m); err != nil {
		return nil, err
	}
	return m, nil
}

func (c *eventStoreClient) ReadHighestSequenceNr(ctx context.Context, in *ReadHighestSequenceNrRequest, opts ...grpc.CallOption) (*ReadHighestSequenceNrResponse, error) {
	out := new(ReadHighestSequenceNrResponse)
	err := c.cc.Invoke(ctx, "/dendrite.event.EventStore/ReadHighestSequenceNr", in, out, callOptions(opts)...)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (c *eventStoreClient) AppendEvent(ctx context.Context, opts ...grpc.CallOption) (EventStore_AppendEventClient, error) {
	stream, err := c.cc.NewStream(ctx, &EventStore_ServiceDesc.Streams[1], "/dendrite.event.EventStore/AppendEvent", callOptions(opts)...)
	if err != nil {
		return nil, err
	}
	x := &eventStoreAppendEventClient{stream}
	return x, nil
}

// EventStore_AppendEventClient sends the events to append.
type EventStore_AppendEventClient interface {
	Send(*Event) error
	CloseAndRecv() (*Confirmation, error)
	grpc.ClientStream
}

type eventStoreAppendEventClient struct {
	grpc.ClientStream
}

func (x *eventStoreAppendEventClient) Send(m *Event) error {
	return x.ClientStream.SendMsg(m)
}

func (x *eventStoreAppendEventClient) CloseAndRecv() (*Confirmation, error) {
	if err := x.ClientStream.CloseSend(); err != nil {
		return nil, err
	}
	m := new(Confirmation)
	if err := x.ClientStream.RecvMsg(m); err != nil {
		return nil, err
	}
	return m, nil
}

// EventStoreServer is the server API for the EventStore service.
type EventStoreServer interface {
	// ListAggregateEvents streams the events of an aggregate in order.
	ListAggregateEvents(*GetAggregateEventsRequest, EventStore_ListAggregateEventsServer) error
	// ReadHighestSequenceNr returns the highest sequence number of an aggregate.
	ReadHighestSequenceNr(context.Context, *ReadHighestSequenceNrRequest) (*ReadHighestSequenceNrResponse, error)
	// AppendEvent appends the streamed events in one transaction.
	AppendEvent(EventStore_AppendEventServer) error
	mustEmbedUnimplementedEventStoreServer()
}

// UnimplementedEventStoreServer must be embedded to have forward compatible implementations.
type UnimplementedEventStoreServer struct{}

func (UnimplementedEventStoreServer) ListAggregateEvents(*GetAggregateEventsRequest, EventStore_ListAggregateEventsServer) error {
	return status.Errorf(codes.Unimplemented, "method ListAggregateEvents not implemented")
}
func (UnimplementedEventStoreServer) ReadHighestSequenceNr(context.Context, *ReadHighestSequenceNrRequest) (*ReadHighestSequenceNrResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method ReadHighestSequenceNr not implemented")
}
func (UnimplementedEventStoreServer) AppendEvent(EventStore_AppendEventServer) error {
	return status.Errorf(codes.Unimplemented, "method AppendEvent not implemented")
}
func (UnimplementedEventStoreServer) mustEmbedUnimplementedEventStoreServer() {}

// RegisterEventStoreServer registers srv on s.
func RegisterEventStoreServer(s grpc.ServiceRegistrar, srv EventStoreServer) {
	s.RegisterService(&EventStore_ServiceDesc, srv)
}

func _EventStore_ListAggregateEvents_Handler(srv interface{}, stream grpc.ServerStream) error {
	m := new(GetAggregateEventsRequest)
	if err := stream.RecvMsg(m); err != nil {
		return err
	}
	return srv.(EventStoreServer).ListAggregateEvents(m, &eventStoreListAggregateEventsServer{stream})
}

// EventStore_ListAggregateEventsServer sends the events of an aggregate.
type EventStore_ListAggregateEventsServer interface {
	Send(*Event) error
	grpc.ServerStream
}

type eventStoreListAggregateEventsServer struct {
	grpc.ServerStream
}

func (x *eventStoreListAggregateEventsServer) Send(m *Event) error {
	return x.ServerStream.SendMsg(m)
}

func _EventStore_ReadHighestSequenceNr_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(ReadHighestSequenceNrRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(EventStoreServer).ReadHighestSequenceNr(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: "/dendrite.event.EventStore/ReadHighestSequenceNr",
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(EventStoreServer).ReadHighestSequenceNr(ctx, req.(*ReadHighestSequenceNrRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _EventStore_AppendEvent_Handler(srv interface{}, stream grpc.ServerStream) error {
	return srv.(EventStoreServer).AppendEvent(&eventStoreAppendEventServer{stream})
}

// EventStore_AppendEventServer receives the events to append.
type EventStore_AppendEventServer interface {
	SendAndClose(*Confirmation) error
	Recv() (*Event, error)
	grpc.ServerStream
}

type eventStoreAppendEventServer struct {
	grpc.ServerStream
}

func (x *eventStoreAppendEventServer) SendAndClose(m *Confirmation) error {
	return x.ServerStream.SendMsg(m)
}

func (x *eventStoreAppendEventServer) Recv() (*Event, error) {
	m := new(Event)
	if err := x.ServerStream.RecvMsg(m); err != nil {
		return nil, err
	}
	return m, nil
}

// EventStore_ServiceDesc is the grpc.ServiceDesc for the EventStore service.
var EventStore_ServiceDesc = grpc.ServiceDesc{
	ServiceName: "dendrite.event.EventStore",
	HandlerType: (*EventStoreServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "ReadHighestSequenceNr",
			Handler:    _EventStore_ReadHighestSequenceNr_Handler,
		},
	},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "ListAggregateEvents",
			Handler:       _EventStore_ListAggregateEvents_Handler,
			ServerStreams: true,
		},
		{
			StreamName:    "AppendEvent",
			Handler:       _EventStore_AppendEvent_Handler,
			ClientStreams: true,
		},
	},
	Metadata: "dendrite/event.proto",
}
