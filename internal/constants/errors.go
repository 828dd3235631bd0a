package constants

import "errors"

// CLI configuration errors.
var (
	ErrNoTenantConfigured  = errors.New("no tenant configured, set tenant_id in the config file or BC_TENANT_ID")
	ErrNoCompanyConfigured = errors.New("no company configured, set company_id in the config file or BC_COMPANY_ID")
	ErrNoCredentials       = errors.New("no credentials configured, set a token or client_id and client_secret")
	ErrNotATerminal        = errors.New("client secret not configured and stdin is not a terminal")
)

// CLI argument errors.
var (
	ErrInvalidOutputFormat = errors.New("invalid output format, use table, json or yaml")
	ErrInvalidPayload      = errors.New("payload must be a JSON object")
	ErrUnknownConfigKey    = errors.New("unknown configuration key")
)
