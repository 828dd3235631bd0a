package bc

import (
	"context"
	"encoding/json"
	"iter"
	"net/http"
	"net/url"
	"time"

	"go.opentelemetry.io/otel/trace"
)

// TokenProvider supplies bearer tokens for a scope.
type TokenProvider interface {
	GetToken(ctx context.Context, scope string) (string, error)
}

// TokenRefresher is implemented by token providers that can discard a cached
// token and fetch a new one.
type TokenRefresher interface {
	RefreshToken(ctx context.Context, scope string) error
}

// RequestOptions describes a single call to an endpoint.
type RequestOptions struct {
	// Method defaults to GET.
	Method string
	Query  url.Values
	// Payload is serialized as the JSON request body when non-nil.
	Payload interface{}
	// Timeout overrides the client timeout for this request.
	Timeout time.Duration
	// ServerPageSize is sent as a Prefer: odata.maxpagesize hint when positive.
	ServerPageSize int
}

// ResourcePage exposes the standard operations of one entity collection.
type ResourcePage[T any] interface {
	Get(ctx context.Context, id string, params *QueryParams) (*T, error)
	List(ctx context.Context, params *QueryParams, opts *PaginationOptions) iter.Seq2[T, error]
	FindOne(ctx context.Context, params *QueryParams) (*T, error)
	Create(ctx context.Context, payload interface{}) (*T, error)
	Update(ctx context.Context, id string, payload interface{}) (*T, error)
	Delete(ctx context.Context, id string) error
	Action(ctx context.Context, id, action string) error
}

// Client is a company-scoped API client.
type Client interface {
	// Execute issues one request and returns the raw JSON body.
	Execute(ctx context.Context, endpoint string, opts *RequestOptions) (json.RawMessage, error)

	Customers() ResourcePage[Customer]
	Vendors() ResourcePage[Vendor]
	Items() ResourcePage[Item]
	SalesInvoices() ResourcePage[SalesInvoice]
}

// Config represents client configuration for building a bc.Client.
//
// # Authentication precedence
//
//  1. TokenProvider: used as-is.
//  2. AccessToken: sent as a static bearer token.
//  3. ClientID/ClientSecret: OAuth2 client credentials grant against the
//     tenant's Entra ID token endpoint (AuthorityURL overrides the host).
//
// # Endpoints
//
// Requests are sent to
// <BaseURL>/<TenantID>/<Environment>/<APIPath>/companies(<CompanyID>)/<endpoint>.
type Config struct {
	// Required identifiers.
	TenantID    string
	Environment string
	CompanyID   string

	// BaseURL overrides the service root (default https://api.businesscentral.dynamics.com/v2.0).
	BaseURL string
	// APIPath selects the API route (default api/v2.0).
	APIPath string

	TokenProvider TokenProvider
	AccessToken   string
	ClientID      string
	ClientSecret  string
	AuthorityURL  string

	// Timeout is the default per-request timeout (default 30s).
	Timeout time.Duration
	// UserAgent overrides the default User-Agent header.
	UserAgent string
	// Debug enables request/response logging when a Logger is provided.
	Debug  bool
	Logger Logger
	// TracerProvider defaults to the global otel provider.
	TracerProvider trace.TracerProvider
	// HTTPClient replaces the underlying transport client.
	HTTPClient *http.Client
}
