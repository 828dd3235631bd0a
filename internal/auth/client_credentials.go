package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/erlorenz/bc-go/internal/constants"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
	"golang.org/x/sync/singleflight"
)

// Static errors for err113 compliance.
var (
	ErrMissingTenant      = errors.New("tenant ID is required for client credentials")
	ErrMissingCredentials = errors.New("client ID and client secret are required")
)

// ClientCredentialsConfig configures an Entra ID client credentials flow.
type ClientCredentialsConfig struct {
	TenantID     string
	ClientID     string
	ClientSecret string
	// AuthorityURL defaults to https://login.microsoftonline.com.
	AuthorityURL string
	// HTTPClient is used for token requests when set.
	HTTPClient *http.Client
}

// ClientCredentialsProvider acquires app-only tokens and caches one per scope.
// Concurrent requests for the same scope share a single token request.
type ClientCredentialsProvider struct {
	config   ClientCredentialsConfig
	tokenURL string

	mu     sync.Mutex
	stores map[string]*TokenStore
	group  singleflight.Group
}

// NewClientCredentialsProvider validates cfg and creates a provider.
func NewClientCredentialsProvider(cfg ClientCredentialsConfig) (*ClientCredentialsProvider, error) {
	if strings.TrimSpace(cfg.TenantID) == "" {
		return nil, ErrMissingTenant
	}

	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, ErrMissingCredentials
	}

	authority := cfg.AuthorityURL
	if authority == "" {
		authority = constants.DefaultAuthorityURL
	}

	return &ClientCredentialsProvider{
		config:   cfg,
		tokenURL: fmt.Sprintf("%s/%s/oauth2/v2.0/token", strings.TrimRight(authority, "/"), strings.TrimSpace(cfg.TenantID)),
		stores:   make(map[string]*TokenStore),
	}, nil
}

// TokenURL returns the token endpoint.
func (p *ClientCredentialsProvider) TokenURL() string {
	return p.tokenURL
}

// GetToken returns a cached token for scope, requesting a new one when the
// cached token is missing or about to expire.
func (p *ClientCredentialsProvider) GetToken(ctx context.Context, scope string) (string, error) {
	store := p.store(scope)
	if token := store.Get(); token.Valid() {
		return token.AccessToken, nil
	}

	result, err, _ := p.group.Do(scope, func() (interface{}, error) {
		if token := store.Get(); token.Valid() {
			return token, nil
		}

		return p.fetch(ctx, scope, store)
	})
	if err != nil {
		return "", err
	}

	token, _ := result.(*Token)

	return token.AccessToken, nil
}

// RefreshToken discards the cached token for scope and requests a new one.
func (p *ClientCredentialsProvider) RefreshToken(ctx context.Context, scope string) error {
	store := p.store(scope)
	store.Clear()

	_, err, _ := p.group.Do(scope, func() (interface{}, error) {
		return p.fetch(ctx, scope, store)
	})

	return err
}

func (p *ClientCredentialsProvider) store(scope string) *TokenStore {
	p.mu.Lock()
	defer p.mu.Unlock()

	store, ok := p.stores[scope]
	if !ok {
		store = NewTokenStore()
		p.stores[scope] = store
	}

	return store
}

func (p *ClientCredentialsProvider) fetch(ctx context.Context, scope string, store *TokenStore) (*Token, error) {
	cfg := clientcredentials.Config{
		ClientID:     p.config.ClientID,
		ClientSecret: p.config.ClientSecret,
		TokenURL:     p.tokenURL,
		Scopes:       []string{scope},
		AuthStyle:    oauth2.AuthStyleInParams,
	}

	ctx, cancel := context.WithTimeout(ctx, constants.ShortHTTPTimeout)
	defer cancel()

	if p.config.HTTPClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, p.config.HTTPClient)
	}

	tok, err := cfg.Token(ctx)
	if err != nil {
		return nil, fmt.Errorf("requesting token for scope %s: %w", scope, err)
	}

	token := &Token{
		AccessToken: tok.AccessToken,
		TokenType:   tok.TokenType,
		ExpiresAt:   tok.Expiry,
	}
	store.Set(token)

	return token, nil
}
