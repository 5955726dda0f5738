package grpc

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/example/combitest/combinatorial/domain"
	"github.com/example/combitest/internal/endpoint"
)

// Client calls the executor service.
type Client struct {
	conn *grpc.ClientConn
}

// Dial connects to the service at addr without transport security.
func Dial(addr string, opts ...grpc.DialOption) (*Client, error) {
	opts = append([]grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}, opts...)
	conn, err := grpc.NewClient(addr, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", addr, err)
	}
	return &Client{conn: conn}, nil
}

// Close closes the connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

// InitialTests starts the session if needed and returns its pending inputs.
func (c *Client) InitialTests(ctx context.Context) (*endpoint.InitialTestsResponse, error) {
	out := new(structpb.Struct)
	if err := c.conn.Invoke(ctx, fullMethod("InitialTests"), &emptypb.Empty{}, out); err != nil {
		return nil, err
	}
	return decodeInitialTests(out)
}

// SubmitResult reports the result of one pending input.
func (c *Client) SubmitResult(ctx context.Context, req *endpoint.SubmitResultRequest) (*endpoint.SubmitResultResponse, error) {
	in, err := encodeSubmitResultRequest(req)
	if err != nil {
		return nil, err
	}
	out := new(structpb.Struct)
	if err := c.conn.Invoke(ctx, fullMethod("SubmitResult"), in, out); err != nil {
		return nil, err
	}
	return decodeSubmitResultResponse(out)
}

// Report returns the progress of the session.
func (c *Client) Report(ctx context.Context) (*endpoint.ReportResponse, error) {
	out := new(structpb.Struct)
	if err := c.conn.Invoke(ctx, fullMethod("Report"), &emptypb.Empty{}, out); err != nil {
		return nil, err
	}
	return decodeReport(out)
}

// Work executes pending inputs one at a time with run until the session is
// finished. It returns the number of executed inputs.
func (c *Client) Work(ctx context.Context, run func(context.Context, endpoint.Assignment) (domain.TestResult, error)) (int, error) {
	initial, err := c.InitialTests(ctx)
	if err != nil {
		return 0, err
	}

	executed := 0
	pending := initial.Inputs
	for len(pending) > 0 {
		input := pending[0]
		pending = pending[1:]

		result, err := run(ctx, input)
		if err != nil {
			return executed, err
		}
		resp, err := c.SubmitResult(ctx, &endpoint.SubmitResultRequest{
			Input:   input,
			Outcome: result.Outcome.String(),
			Cause:   result.Cause,
		})
		if err != nil {
			return executed, err
		}
		executed++
		pending = append(pending, resp.Next...)
	}
	return executed, nil
}
