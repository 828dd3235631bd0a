package client

import (
	internalhttp "github.com/erlorenz/bc-go/internal/http"
)

// NewTestClient creates a client for baseURL that sends no Authorization
// header.
func NewTestClient(baseURL string, opts ...internalhttp.Option) *Client {
	return newClient(internalhttp.NewClient(baseURL, nil, opts...), nil, nil)
}
