package bc

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/erlorenz/bc-go/internal/constants"
	"github.com/google/uuid"
)

var (
	environmentPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_-]{0,29}$`)
	domainPattern      = regexp.MustCompile(`^(?i:[a-z0-9](?:[a-z0-9-]{0,61}[a-z0-9])?)(?:\.(?i:[a-z0-9](?:[a-z0-9-]{0,61}[a-z0-9])?))+$`)
)

// Validate checks the required identifiers and the optional base URL.
func (c *Config) Validate() error {
	if c == nil {
		return ErrConfigRequired
	}

	tenant := strings.TrimSpace(c.TenantID)
	if tenant == "" {
		return ErrTenantIDRequired
	}

	if _, err := uuid.Parse(tenant); err != nil && !domainPattern.MatchString(tenant) {
		return fmt.Errorf("%w: %q", ErrInvalidTenantID, tenant)
	}

	env := strings.TrimSpace(c.Environment)
	if env == "" {
		return ErrEnvironmentRequired
	}

	if !environmentPattern.MatchString(env) {
		return fmt.Errorf("%w: %q", ErrInvalidEnvironment, env)
	}

	company := strings.TrimSpace(c.CompanyID)
	if company == "" {
		return ErrCompanyIDRequired
	}

	if _, err := uuid.Parse(company); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidCompanyID, company)
	}

	if c.BaseURL != "" {
		parsed, err := url.Parse(c.BaseURL)
		if err != nil || parsed.Host == "" || (parsed.Scheme != "http" && parsed.Scheme != "https") {
			return fmt.Errorf("%w: %q", ErrInvalidBaseURL, c.BaseURL)
		}
	}

	return nil
}

// CompanyURL returns the company-scoped root that endpoints are joined onto.
// It always ends with a slash.
func (c *Config) CompanyURL() string {
	root := c.BaseURL
	if root == "" {
		root = constants.DefaultServiceURL
	}

	apiPath := strings.Trim(c.APIPath, "/")
	if apiPath == "" {
		apiPath = constants.DefaultAPIPath
	}

	return fmt.Sprintf("%s/%s/%s/%s/companies(%s)/",
		strings.TrimRight(root, "/"),
		url.PathEscape(strings.TrimSpace(c.TenantID)),
		url.PathEscape(strings.TrimSpace(c.Environment)),
		apiPath,
		strings.TrimSpace(c.CompanyID),
	)
}

// EffectiveTimeout returns Timeout, or the 30 second default when unset.
func (c *Config) EffectiveTimeout() time.Duration {
	if c.Timeout > 0 {
		return c.Timeout
	}

	return constants.DefaultHTTPTimeout
}
