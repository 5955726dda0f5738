package grpc

import (
	"fmt"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/example/combitest/internal/endpoint"
)

func encodeInitialTests(resp *endpoint.InitialTestsResponse) (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]any{
		"session_id": resp.SessionID,
		"inputs":     assignmentsToList(resp.Inputs),
	})
}

func decodeInitialTests(s *structpb.Struct) (*endpoint.InitialTestsResponse, error) {
	inputs, err := assignmentsFromValue(s.GetFields()["inputs"])
	if err != nil {
		return nil, err
	}
	return &endpoint.InitialTestsResponse{
		SessionID: s.GetFields()["session_id"].GetStringValue(),
		Inputs:    inputs,
	}, nil
}

func encodeSubmitResultRequest(req *endpoint.SubmitResultRequest) (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]any{
		"input":   assignmentToMap(req.Input),
		"outcome": req.Outcome,
		"cause":   req.Cause,
	})
}

func decodeSubmitResultRequest(s *structpb.Struct) (*endpoint.SubmitResultRequest, error) {
	fields := s.GetFields()
	input, err := assignmentFromValue(fields["input"])
	if err != nil {
		return nil, err
	}
	return &endpoint.SubmitResultRequest{
		Input:   input,
		Outcome: fields["outcome"].GetStringValue(),
		Cause:   fields["cause"].GetStringValue(),
	}, nil
}

func encodeSubmitResultResponse(resp *endpoint.SubmitResultResponse) (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]any{
		"next":     assignmentsToList(resp.Next),
		"finished": resp.Finished,
	})
}

func decodeSubmitResultResponse(s *structpb.Struct) (*endpoint.SubmitResultResponse, error) {
	next, err := assignmentsFromValue(s.GetFields()["next"])
	if err != nil {
		return nil, err
	}
	return &endpoint.SubmitResultResponse{
		Next:     next,
		Finished: s.GetFields()["finished"].GetBoolValue(),
	}, nil
}

func encodeReport(r *endpoint.ReportResponse) (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]any{
		"session_id":       r.SessionID,
		"started":          r.Started,
		"finished":         r.Finished,
		"executed":         r.Executed,
		"failed":           r.Failed,
		"pending":          r.Pending,
		"failure_inducing": assignmentsToList(r.FailureInducing),
	})
}

func decodeReport(s *structpb.Struct) (*endpoint.ReportResponse, error) {
	fields := s.GetFields()
	fics, err := assignmentsFromValue(fields["failure_inducing"])
	if err != nil {
		return nil, err
	}
	return &endpoint.ReportResponse{
		SessionID:       fields["session_id"].GetStringValue(),
		Started:         fields["started"].GetBoolValue(),
		Finished:        fields["finished"].GetBoolValue(),
		Executed:        int(fields["executed"].GetNumberValue()),
		Failed:          int(fields["failed"].GetNumberValue()),
		Pending:         int(fields["pending"].GetNumberValue()),
		FailureInducing: fics,
	}, nil
}

func assignmentToMap(a endpoint.Assignment) map[string]any {
	m := make(map[string]any, len(a))
	for name, value := range a {
		m[name] = value
	}
	return m
}

func assignmentsToList(as []endpoint.Assignment) []any {
	list := make([]any, len(as))
	for i, a := range as {
		list[i] = assignmentToMap(a)
	}
	return list
}

// assignmentFromValue accepts numbers and booleans as value names too.
func assignmentFromValue(v *structpb.Value) (endpoint.Assignment, error) {
	s := v.GetStructValue()
	if s == nil {
		return nil, status.Error(codes.InvalidArgument, "assignment must be an object")
	}
	a := make(endpoint.Assignment, len(s.GetFields()))
	for name, value := range s.GetFields() {
		switch value.GetKind().(type) {
		case *structpb.Value_StringValue, *structpb.Value_NumberValue, *structpb.Value_BoolValue:
			a[name] = fmt.Sprint(value.AsInterface())
		default:
			return nil, status.Errorf(codes.InvalidArgument, "value of %q must be a scalar", name)
		}
	}
	return a, nil
}

func assignmentsFromValue(v *structpb.Value) ([]endpoint.Assignment, error) {
	values := v.GetListValue().GetValues()
	out := make([]endpoint.Assignment, 0, len(values))
	for _, value := range values {
		a, err := assignmentFromValue(value)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}
