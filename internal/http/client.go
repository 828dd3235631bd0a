// Package http implements the request executor: one authenticated request per
// call, with every failure normalized into a *bc.Error.
package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/erlorenz/bc-go/internal/constants"
	"github.com/erlorenz/bc-go/pkg/bc"
	"github.com/hashicorp/go-retryablehttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/erlorenz/bc-go/internal/http"

// Client is the request executor.
type Client struct {
	baseURL       string
	httpClient    *retryablehttp.Client
	tokenProvider bc.TokenProvider
	scope         string
	logger        bc.Logger
	debug         bool
	userAgent     string
	timeout       time.Duration
	tracer        trace.Tracer

	transport *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the logger.
func WithLogger(logger bc.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithDebug enables request and response logging.
func WithDebug(debug bool) Option {
	return func(c *Client) {
		c.debug = debug
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(userAgent string) Option {
	return func(c *Client) {
		if userAgent != "" {
			c.userAgent = userAgent
		}
	}
}

// WithTimeout sets the default per-request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.timeout = timeout
		}
	}
}

// WithScope overrides the token scope.
func WithScope(scope string) Option {
	return func(c *Client) {
		if scope != "" {
			c.scope = scope
		}
	}
}

// WithTracerProvider sets the tracer provider used for request spans.
func WithTracerProvider(provider trace.TracerProvider) Option {
	return func(c *Client) {
		if provider != nil {
			c.tracer = provider.Tracer(tracerName)
		}
	}
}

// WithHTTPClient replaces the underlying transport client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.transport = client
	}
}

// Request represents an HTTP request.
type Request struct {
	Method  string
	Path    string
	Query   url.Values
	Body    interface{}
	Headers map[string]string
	// Timeout overrides the client default when positive.
	Timeout time.Duration
	// ServerPageSize is sent as a Prefer: odata.maxpagesize hint when positive.
	ServerPageSize int
}

// Response represents an HTTP response.
type Response struct {
	StatusCode    int
	CorrelationID string
	// Body is nil when the server returned no content.
	Body json.RawMessage
}

// NewClient creates a new HTTP client. A nil tokenProvider sends requests
// without an Authorization header.
func NewClient(baseURL string, tokenProvider bc.TokenProvider, opts ...Option) *Client {
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}

	client := &Client{
		baseURL:       baseURL,
		tokenProvider: tokenProvider,
		scope:         constants.TokenScope,
		userAgent:     constants.DefaultUserAgent,
		timeout:       constants.DefaultHTTPTimeout,
		tracer:        otel.GetTracerProvider().Tracer(tracerName),
	}

	for _, opt := range opts {
		opt(client)
	}

	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = 0
	retryClient.CheckRetry = func(context.Context, *http.Response, error) (bool, error) {
		return false, nil
	}
	retryClient.ErrorHandler = retryablehttp.PassthroughErrorHandler
	retryClient.Logger = nil

	if client.transport != nil {
		retryClient.HTTPClient = client.transport
	}

	if client.debug && client.logger != nil {
		retryClient.RequestLogHook = client.logRequest
		retryClient.ResponseLogHook = client.logResponse
	}

	client.httpClient = retryClient

	return client
}

// BaseURL returns the root that request paths are joined onto.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Do executes an HTTP request. The returned error is always a *bc.Error. For
// non-success statuses the response is returned alongside the error.
func (c *Client) Do(ctx context.Context, req *Request) (*Response, error) {
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	ctx, span := c.tracer.Start(ctx, "bc.request "+method,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", method),
			attribute.String("bc.endpoint", req.Path),
		),
	)
	defer span.End()

	target := c.buildURL(req.Path, req.Query)

	var token string

	if c.tokenProvider != nil {
		var err error

		token, err = c.tokenProvider.GetToken(ctx, c.scope)
		if err != nil {
			return nil, c.fail(span, bc.NewTokenError(err))
		}
	}

	timeout := c.timeout
	if req.Timeout > 0 {
		timeout = req.Timeout
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var body interface{}

	if req.Body != nil {
		encoded, err := json.Marshal(req.Body)
		if err != nil {
			return nil, c.fail(span, bc.NewRequestError(fmt.Errorf("encoding request body: %w", err)))
		}

		body = encoded
	}

	httpReq, err := retryablehttp.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, c.fail(span, bc.NewRequestError(fmt.Errorf("creating request: %w", err)))
	}

	c.setHeaders(httpReq.Header, method, token, req)

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, c.fail(span, bc.NewNetworkError(err))
	}

	defer func() { _ = httpResp.Body.Close() }()

	correlationID := httpResp.Header.Get(constants.HeaderCorrelationID)
	span.SetAttributes(attribute.Int("http.response.status_code", httpResp.StatusCode))

	raw, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, c.fail(span, bc.NewNetworkError(fmt.Errorf("reading response body: %w", err)))
	}

	resp := &Response{
		StatusCode:    httpResp.StatusCode,
		CorrelationID: correlationID,
	}

	success := httpResp.StatusCode >= 200 && httpResp.StatusCode < 300

	if len(bytes.TrimSpace(raw)) == 0 {
		if !success {
			return resp, c.fail(span, bc.NewResponseError(httpResp.StatusCode, nil, correlationID))
		}

		return resp, nil
	}

	if !success {
		var decoded interface{}
		if err := json.Unmarshal(raw, &decoded); err != nil {
			return resp, c.fail(span, bc.NewParseError(err, httpResp.StatusCode, correlationID, raw))
		}

		return resp, c.fail(span, bc.NewResponseError(httpResp.StatusCode, decoded, correlationID))
	}

	var parsed json.RawMessage
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, c.fail(span, bc.NewParseError(err, httpResp.StatusCode, correlationID, raw))
	}

	resp.Body = parsed

	return resp, nil
}

// Get performs a GET request.
func (c *Client) Get(ctx context.Context, path string, query url.Values) (*Response, error) {
	return c.Do(ctx, &Request{
		Method: http.MethodGet,
		Path:   path,
		Query:  query,
	})
}

// Post performs a POST request.
func (c *Client) Post(ctx context.Context, path string, body interface{}) (*Response, error) {
	return c.Do(ctx, &Request{
		Method: http.MethodPost,
		Path:   path,
		Body:   body,
	})
}

// Patch performs a PATCH request.
func (c *Client) Patch(ctx context.Context, path string, body interface{}) (*Response, error) {
	return c.Do(ctx, &Request{
		Method: http.MethodPatch,
		Path:   path,
		Body:   body,
	})
}

// Delete performs a DELETE request.
func (c *Client) Delete(ctx context.Context, path string) (*Response, error) {
	return c.Do(ctx, &Request{
		Method: http.MethodDelete,
		Path:   path,
	})
}

func (c *Client) buildURL(path string, query url.Values) string {
	target := c.baseURL + strings.TrimPrefix(path, "/")

	if len(query) > 0 {
		separator := "?"
		if strings.Contains(target, "?") {
			separator = "&"
		}

		target += separator + query.Encode()
	}

	return target
}

func (c *Client) setHeaders(header http.Header, method, token string, req *Request) {
	header.Set(constants.HeaderAccept, constants.ContentTypeJSON)
	header.Set(constants.HeaderContentType, constants.ContentTypeJSON)
	header.Set(constants.HeaderUserAgent, c.userAgent)

	if token != "" {
		header.Set(constants.HeaderAuthorization, "Bearer "+token)
	}

	switch method {
	case http.MethodGet:
		header.Set(constants.HeaderDataAccessIntent, constants.DataAccessReadOnly)
	case http.MethodPatch:
		header.Set(constants.HeaderIfMatch, constants.IfMatchAny)
	}

	if req.ServerPageSize > 0 {
		header.Set(constants.HeaderPrefer, fmt.Sprintf(constants.PreferMaxPageSizeFmt, req.ServerPageSize))
	}

	for key, value := range req.Headers {
		header.Set(key, value)
	}
}

func (c *Client) fail(span trace.Span, err *bc.Error) error {
	span.SetAttributes(err.Attributes()...)
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Message)

	if c.logger != nil {
		c.logger.Warn("Business Central request failed", err.LogFields())
	}

	return err
}

func (c *Client) logRequest(_ retryablehttp.Logger, req *http.Request, attempt int) {
	c.logger.Debug("HTTP Request", map[string]interface{}{
		"method":  req.Method,
		"url":     req.URL.String(),
		"attempt": attempt,
	})
}

func (c *Client) logResponse(_ retryablehttp.Logger, resp *http.Response) {
	c.logger.Debug("HTTP Response", map[string]interface{}{
		"status":        resp.StatusCode,
		"url":           resp.Request.URL.String(),
		"correlationId": resp.Header.Get(constants.HeaderCorrelationID),
	})
}
