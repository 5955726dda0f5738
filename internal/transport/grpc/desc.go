package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully qualified name of the executor service.
const ServiceName = "combitest.v1.Executor"

// ExecutorServer is the server API of the executor service. Messages are
// well-known protobuf types, so no generated code is needed.
type ExecutorServer interface {
	InitialTests(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	SubmitResult(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Report(context.Context, *emptypb.Empty) (*structpb.Struct, error)
}

// ExecutorServiceDesc describes the executor service for grpc.Server.RegisterService.
var ExecutorServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*ExecutorServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("InitialTests", newEmpty, ExecutorServer.InitialTests),
		unary("SubmitResult", newStruct, ExecutorServer.SubmitResult),
		unary("Report", newEmpty, ExecutorServer.Report),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "combitest/v1/executor.proto",
}

func newEmpty() *emptypb.Empty   { return new(emptypb.Empty) }
func newStruct() *structpb.Struct { return new(structpb.Struct) }

func fullMethod(method string) string {
	return "/" + ServiceName + "/" + method
}

func unary[Req proto.Message](
	method string,
	newReq func() Req,
	call func(ExecutorServer, context.Context, Req) (*structpb.Struct, error),
) grpc.MethodDesc {
	handler := func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := newReq()
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(ExecutorServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod(method)}
		return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
			return call(srv.(ExecutorServer), ctx, req.(Req))
		})
	}
	return grpc.MethodDesc{MethodName: method, Handler: handler}
}
