package grpc

import (
	"context"
	"errors"

	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/example/combitest/internal/endpoint"
)

var errPanic = errors.New("handler panicked")

// InitialTests implements the InitialTests RPC.
func (s *Server) InitialTests(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	resp, err := s.endpoints.InitialTests(ctx, nil)
	if err != nil {
		return nil, endpoint.MapErrorToStatus(err)
	}
	return encodeInitialTests(resp.(*endpoint.InitialTestsResponse))
}

// SubmitResult implements the SubmitResult RPC.
func (s *Server) SubmitResult(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	svcReq, err := decodeSubmitResultRequest(req)
	if err != nil {
		return nil, err
	}

	resp, err := s.endpoints.SubmitResult(ctx, svcReq)
	if err != nil {
		return nil, endpoint.MapErrorToStatus(err)
	}
	return encodeSubmitResultResponse(resp.(*endpoint.SubmitResultResponse))
}

// Report implements the Report RPC.
func (s *Server) Report(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	resp, err := s.endpoints.Report(ctx, nil)
	if err != nil {
		return nil, endpoint.MapErrorToStatus(err)
	}
	return encodeReport(resp.(*endpoint.ReportResponse))
}
