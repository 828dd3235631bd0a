package constants

import "time"

// File and directory permissions.
const (
	// ConfigDirPerm is the permission for configuration directories.
	ConfigDirPerm = 0750

	// ConfigFilePerm is the permission for configuration files.
	ConfigFilePerm = 0600
)

// HTTP and network timeouts.
const (
	// DefaultHTTPTimeout is the default timeout for HTTP requests.
	DefaultHTTPTimeout = 30 * time.Second

	// ShortHTTPTimeout is used for token acquisition.
	ShortHTTPTimeout = 10 * time.Second

	// TokenExpirationBuffer is how long before expiry a token is refreshed.
	TokenExpirationBuffer = 30 * time.Second
)

// Service endpoints.
const (
	// DefaultServiceURL is the root of the hosted API.
	DefaultServiceURL = "https://api.businesscentral.dynamics.com/v2.0"

	// DefaultAPIPath is the standard API route.
	DefaultAPIPath = "api/v2.0"

	// DefaultAuthorityURL is the Entra ID login host.
	DefaultAuthorityURL = "https://login.microsoftonline.com"

	// TokenScope is the scope requested for every API call.
	TokenScope = "https://api.businesscentral.dynamics.com/.default"

	// ActionNamespace qualifies bound action names.
	ActionNamespace = "Microsoft.NAV."

	// DefaultUserAgent is sent when no override is configured.
	DefaultUserAgent = "bc-go/" + Version
)

// Version is the library version reported in the User-Agent.
const Version = "0.3.0"

// Request and response headers.
const (
	HeaderAuthorization    = "Authorization"
	HeaderAccept           = "Accept"
	HeaderContentType      = "Content-Type"
	HeaderUserAgent        = "User-Agent"
	HeaderDataAccessIntent = "Data-Access-Intent"
	HeaderIfMatch          = "If-Match"
	HeaderPrefer           = "Prefer"
	HeaderCorrelationID    = "request-id"

	ContentTypeJSON      = "application/json"
	DataAccessReadOnly   = "ReadOnly"
	IfMatchAny           = "*"
	PreferMaxPageSizeFmt = "odata.maxpagesize=%d"
)

// OData query and envelope keys.
const (
	// SkipTokenParam carries the continuation cursor.
	SkipTokenParam = "$skiptoken"

	// ValueProperty holds the items of a list response.
	ValueProperty = "value"

	// NextLinkProperty holds the continuation link of a list response.
	NextLinkProperty = "@odata.nextLink"
)

// Retry defaults for the caller-side helper.
const (
	// DefaultRetryMax is the default maximum number of attempts.
	DefaultRetryMax = 3

	// DefaultRetryWaitMin is the first backoff interval.
	DefaultRetryWaitMin = 500 * time.Millisecond

	// DefaultRetryWaitMax caps the backoff interval.
	DefaultRetryWaitMax = 10 * time.Second
)

// Pagination and display limits.
const (
	// StandardPageSize is the server page size hint used by the CLI.
	StandardPageSize = 100

	// FindOnePageSize is the server page size hint used by FindOne.
	FindOnePageSize = 1

	// DefaultBatchConcurrency is the number of batch operations run at once.
	DefaultBatchConcurrency = 5
)

// Format constants.
const (
	// FormatJSON represents JSON output format.
	FormatJSON = "json"

	// FormatYAML represents YAML output format.
	FormatYAML = "yaml"

	// FormatTable represents table output format.
	FormatTable = "table"
)
