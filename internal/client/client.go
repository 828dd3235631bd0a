package client

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/erlorenz/bc-go/internal/auth"
	internalhttp "github.com/erlorenz/bc-go/internal/http"
	"github.com/erlorenz/bc-go/pkg/bc"
	"github.com/erlorenz/bc-go/pkg/schema"
)

// Client implements the bc.Client interface.
type Client struct {
	httpClient    *internalhttp.Client
	tokenProvider bc.TokenProvider
	logger        bc.Logger

	// Resource pages
	customers     bc.ResourcePage[bc.Customer]
	vendors       bc.ResourcePage[bc.Vendor]
	items         bc.ResourcePage[bc.Item]
	salesInvoices bc.ResourcePage[bc.SalesInvoice]
}

// createTokenProvider picks a token provider from config: an explicit
// provider, then a static access token, then client credentials.
func createTokenProvider(config *bc.Config) (bc.TokenProvider, error) {
	if config.TokenProvider != nil {
		return config.TokenProvider, nil
	}

	if config.AccessToken != "" {
		return auth.NewStaticTokenProvider(config.AccessToken), nil
	}

	if config.ClientID != "" && config.ClientSecret != "" {
		provider, err := auth.NewClientCredentialsProvider(auth.ClientCredentialsConfig{
			TenantID:     config.TenantID,
			ClientID:     config.ClientID,
			ClientSecret: config.ClientSecret,
			AuthorityURL: config.AuthorityURL,
			HTTPClient:   config.HTTPClient,
		})
		if err != nil {
			return nil, err
		}

		return provider, nil
	}

	return nil, bc.ErrTokenProviderRequired
}

// createHTTPClientOptions builds HTTP client options from config.
func createHTTPClientOptions(config *bc.Config) []internalhttp.Option {
	httpOpts := []internalhttp.Option{
		internalhttp.WithTimeout(config.EffectiveTimeout()),
	}

	if config.Logger != nil {
		httpOpts = append(httpOpts, internalhttp.WithLogger(config.Logger))
	}

	if config.Debug {
		httpOpts = append(httpOpts, internalhttp.WithDebug(true))
	}

	if config.UserAgent != "" {
		httpOpts = append(httpOpts, internalhttp.WithUserAgent(config.UserAgent))
	}

	if config.TracerProvider != nil {
		httpOpts = append(httpOpts, internalhttp.WithTracerProvider(config.TracerProvider))
	}

	if config.HTTPClient != nil {
		httpOpts = append(httpOpts, internalhttp.WithHTTPClient(config.HTTPClient))
	}

	return httpOpts
}

// New creates a company-scoped client. Configuration errors are returned
// before any request is made.
func New(_ context.Context, config *bc.Config) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	tokenProvider, err := createTokenProvider(config)
	if err != nil {
		return nil, err
	}

	httpClient := internalhttp.NewClient(config.CompanyURL(), tokenProvider, createHTTPClientOptions(config)...)

	return newClient(httpClient, tokenProvider, config.Logger), nil
}

func newClient(httpClient *internalhttp.Client, tokenProvider bc.TokenProvider, logger bc.Logger) *Client {
	client := &Client{
		httpClient:    httpClient,
		tokenProvider: tokenProvider,
		logger:        logger,
	}

	client.initializeResourcePages()

	return client
}

func (c *Client) initializeResourcePages() {
	c.customers = NewResourcePage(c, bc.EndpointCustomers, schema.Struct[bc.Customer]())
	c.vendors = NewResourcePage(c, bc.EndpointVendors, schema.Struct[bc.Vendor]())
	c.items = NewResourcePage(c, bc.EndpointItems, schema.Struct[bc.Item]())
	c.salesInvoices = NewResourcePage(c, bc.EndpointSalesInvoices, schema.Struct[bc.SalesInvoice]())
}

// TokenProvider returns the token provider used for requests.
func (c *Client) TokenProvider() bc.TokenProvider {
	return c.tokenProvider
}

// BaseURL returns the company-scoped root URL.
func (c *Client) BaseURL() string {
	return c.httpClient.BaseURL()
}

// Execute issues one request and returns the raw JSON body, or nil when the
// server returned no content.
func (c *Client) Execute(ctx context.Context, endpoint string, opts *bc.RequestOptions) (json.RawMessage, error) {
	result, err := c.Request(ctx, endpoint, opts)
	if err != nil {
		return nil, err
	}

	return result.Body, nil
}

// Request issues one request and returns the body with its metadata.
func (c *Client) Request(ctx context.Context, endpoint string, opts *bc.RequestOptions) (*Result, error) {
	if opts == nil {
		opts = &bc.RequestOptions{}
	}

	method := opts.Method
	if method == "" {
		method = http.MethodGet
	}

	resp, err := c.httpClient.Do(ctx, &internalhttp.Request{
		Method:         method,
		Path:           endpoint,
		Query:          opts.Query,
		Body:           opts.Payload,
		Timeout:        opts.Timeout,
		ServerPageSize: opts.ServerPageSize,
	})
	if err != nil {
		return nil, err
	}

	return &Result{
		Body:          resp.Body,
		StatusCode:    resp.StatusCode,
		CorrelationID: resp.CorrelationID,
	}, nil
}

// Customers returns the customers resource page.
func (c *Client) Customers() bc.ResourcePage[bc.Customer] {
	return c.customers
}

// Vendors returns the vendors resource page.
func (c *Client) Vendors() bc.ResourcePage[bc.Vendor] {
	return c.vendors
}

// Items returns the items resource page.
func (c *Client) Items() bc.ResourcePage[bc.Item] {
	return c.items
}

// SalesInvoices returns the sales invoices resource page.
func (c *Client) SalesInvoices() bc.ResourcePage[bc.SalesInvoice] {
	return c.salesInvoices
}
