package auth

import (
	"context"
	"errors"
)

// ErrNoToken is returned by a StaticTokenProvider with an empty token.
var ErrNoToken = errors.New("no access token configured")

// StaticTokenProvider returns the same bearer token for every scope.
type StaticTokenProvider struct {
	token string
}

// NewStaticTokenProvider creates a provider for a pre-acquired token.
func NewStaticTokenProvider(token string) *StaticTokenProvider {
	return &StaticTokenProvider{token: token}
}

// GetToken returns the configured token.
func (p *StaticTokenProvider) GetToken(context.Context, string) (string, error) {
	if p.token == "" {
		return "", ErrNoToken
	}

	return p.token, nil
}
