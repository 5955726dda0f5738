// Package endpoint adapts the session service to transport-neutral requests
// that reference parameters and values by name.
package endpoint

import (
	"context"
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/example/combitest/combinatorial/domain"
	"github.com/example/combitest/internal/service"
)

// Endpoint is a function that takes a request and returns a response.
type Endpoint func(ctx context.Context, request any) (response any, err error)

// Endpoints holds all endpoint handlers.
type Endpoints struct {
	InitialTests Endpoint
	SubmitResult Endpoint
	Report       Endpoint
}

// Assignment maps parameter names to value names.
type Assignment map[string]string

// InitialTestsResponse is the response of InitialTests.
type InitialTestsResponse struct {
	SessionID string
	Inputs    []Assignment
}

// SubmitResultRequest reports the result of one test input.
type SubmitResultRequest struct {
	Input Assignment

	// Outcome is "PASS" or "FAIL", in any case.
	Outcome string
	Cause   string
}

// SubmitResultResponse lists the test inputs that became necessary.
type SubmitResultResponse struct {
	Next     []Assignment
	Finished bool
}

// ReportResponse is the response of Report. FailureInducing assignments
// only name the parameters of the combination.
type ReportResponse struct {
	SessionID       string
	Started         bool
	Finished        bool
	Executed        int
	Failed          int
	Pending         int
	FailureInducing []Assignment
}

// MakeEndpoints creates all endpoints from the service.
func MakeEndpoints(svc *service.SessionService) Endpoints {
	return Endpoints{
		InitialTests: makeInitialTestsEndpoint(svc),
		SubmitResult: makeSubmitResultEndpoint(svc),
		Report:       makeReportEndpoint(svc),
	}
}

func makeInitialTestsEndpoint(svc *service.SessionService) Endpoint {
	return func(ctx context.Context, _ any) (any, error) {
		inputs, err := svc.InitialTests(ctx)
		if err != nil {
			return nil, err
		}
		return &InitialTestsResponse{
			SessionID: svc.Report(ctx).ID,
			Inputs:    toAssignments(svc, inputs),
		}, nil
	}
}

func makeSubmitResultEndpoint(svc *service.SessionService) Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req := request.(*SubmitResultRequest)
		input, result, err := validateSubmitResultRequest(svc.Model(), req)
		if err != nil {
			return nil, err
		}
		resp, err := svc.SubmitResult(ctx, input, result)
		if err != nil {
			return nil, err
		}
		return &SubmitResultResponse{
			Next:     toAssignments(svc, resp.Next),
			Finished: resp.Finished,
		}, nil
	}
}

func makeReportEndpoint(svc *service.SessionService) Endpoint {
	return func(ctx context.Context, _ any) (any, error) {
		r := svc.Report(ctx)
		return &ReportResponse{
			SessionID:       r.ID,
			Started:         r.Started,
			Finished:        r.Finished,
			Executed:        r.Executed,
			Failed:          r.Failed,
			Pending:         r.Pending,
			FailureInducing: toAssignments(svc, r.FailureInducing),
		}, nil
	}
}

func toAssignments(svc *service.SessionService, combinations []domain.Combination) []Assignment {
	out := make([]Assignment, len(combinations))
	for i, c := range combinations {
		out[i] = assignmentOf(svc.Model(), c)
	}
	return out
}

// MapErrorToStatus maps domain errors to gRPC status codes.
func MapErrorToStatus(err error) error {
	if err == nil {
		return nil
	}

	// Already a gRPC status error
	if _, ok := status.FromError(err); ok {
		return err
	}

	switch {
	case errors.Is(err, domain.ErrNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, domain.ErrInvalidState):
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.Is(err, domain.ErrInvalidCombination),
		errors.Is(err, domain.ErrInvalidModel),
		errors.Is(err, domain.ErrInvalidConfig):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	default:
		return status.Error(codes.Internal, "internal error")
	}
}
