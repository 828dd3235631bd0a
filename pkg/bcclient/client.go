// Package bcclient provides the main entry point for creating Business Central
// API clients.
package bcclient

import (
	"context"
	"fmt"
	"strings"

	"github.com/erlorenz/bc-go/internal/client"
	"github.com/erlorenz/bc-go/pkg/bc"
)

// New creates a company-scoped Business Central API client.
func New(ctx context.Context, config *bc.Config) (bc.Client, error) {
	if config == nil {
		return nil, bc.ErrConfigRequired
	}

	normalized := *config

	if normalized.BaseURL != "" {
		baseURL := strings.TrimSuffix(strings.TrimSpace(normalized.BaseURL), "/")
		if !strings.HasPrefix(baseURL, "http://") && !strings.HasPrefix(baseURL, "https://") {
			baseURL = "https://" + baseURL
		}

		normalized.BaseURL = baseURL
	}

	c, err := client.New(ctx, &normalized)
	if err != nil {
		return nil, fmt.Errorf("failed to create new client: %w", err)
	}

	return c, nil
}

// NewWithClientCredentials creates a client that authenticates as an Entra ID
// application.
func NewWithClientCredentials(ctx context.Context, tenantID, environment, companyID, clientID, clientSecret string) (bc.Client, error) {
	return New(ctx, &bc.Config{
		TenantID:     tenantID,
		Environment:  environment,
		CompanyID:    companyID,
		ClientID:     clientID,
		ClientSecret: clientSecret,
	})
}

// NewWithToken creates a client that sends a pre-acquired bearer token.
func NewWithToken(ctx context.Context, tenantID, environment, companyID, token string) (bc.Client, error) {
	return New(ctx, &bc.Config{
		TenantID:    tenantID,
		Environment: environment,
		CompanyID:   companyID,
		AccessToken: token,
	})
}

// Resource returns a resource page for any collection endpoint, including
// custom API pages, validating records with schema.
func Resource[T any](c bc.Client, endpoint string, schema bc.Schema[T]) bc.ResourcePage[T] {
	return client.NewResourcePage(client.RequesterFor(c), endpoint, schema)
}

// ExecuteWithSchema issues one request and validates the body with schema.
func ExecuteWithSchema[T any](ctx context.Context, c bc.Client, endpoint string, schema bc.Schema[T], opts *bc.RequestOptions) (T, error) {
	return client.ExecuteWithSchema(ctx, client.RequesterFor(c), endpoint, schema, opts)
}

// TokenRefresher returns the client's token provider when it can refresh
// tokens, or nil.
func TokenRefresher(c bc.Client) bc.TokenRefresher {
	holder, ok := c.(interface{ TokenProvider() bc.TokenProvider })
	if !ok {
		return nil
	}

	refresher, _ := holder.TokenProvider().(bc.TokenRefresher)

	return refresher
}
