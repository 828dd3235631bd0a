package client

import (
	"context"
	"encoding/json"

	"github.com/erlorenz/bc-go/pkg/bc"
)

// Result is a successful response body with its metadata.
type Result struct {
	Body          json.RawMessage
	StatusCode    int
	CorrelationID string
}

// Requester issues one request. *Client is the standard implementation.
type Requester interface {
	Request(ctx context.Context, endpoint string, opts *bc.RequestOptions) (*Result, error)
}

// ExecuteFunc adapts an Execute method, such as bc.Client's, to Requester.
// Results carry no status or correlation id.
type ExecuteFunc func(ctx context.Context, endpoint string, opts *bc.RequestOptions) (json.RawMessage, error)

// Request calls f.
func (f ExecuteFunc) Request(ctx context.Context, endpoint string, opts *bc.RequestOptions) (*Result, error) {
	body, err := f(ctx, endpoint, opts)
	if err != nil {
		return nil, err
	}

	return &Result{Body: body}, nil
}

// RequesterFor returns c itself when it implements Requester, and an
// ExecuteFunc around c.Execute otherwise.
func RequesterFor(c bc.Client) Requester {
	if requester, ok := c.(Requester); ok {
		return requester
	}

	return ExecuteFunc(c.Execute)
}
