package bc

import "strings"

// Category is the stable classification of a failure.
type Category string

const (
	CategoryAuthentication     Category = "AUTHENTICATION"
	CategoryAuthorization      Category = "AUTHORIZATION"
	CategoryBadRequest         Category = "BAD_REQUEST"
	CategoryNotFound           Category = "NOT_FOUND"
	CategoryConflict           Category = "CONFLICT"
	CategorySchemaMismatch     Category = "SCHEMA_MISMATCH"
	CategoryNetworkError       Category = "NETWORK_ERROR"
	CategoryUnexpectedResponse Category = "UNEXPECTED_RESPONSE"
	CategoryServerError        Category = "SERVER_ERROR"
	CategoryUnknown            Category = "UNKNOWN"
)

// Categories lists every category in the taxonomy.
func Categories() []Category {
	return []Category{
		CategoryAuthentication,
		CategoryAuthorization,
		CategoryBadRequest,
		CategoryNotFound,
		CategoryConflict,
		CategorySchemaMismatch,
		CategoryNetworkError,
		CategoryUnexpectedResponse,
		CategoryServerError,
		CategoryUnknown,
	}
}

// RetryStrategy is advisory guidance on how a caller may retry a failed call.
type RetryStrategy string

const (
	RetryNone               RetryStrategy = "NO_RETRY"
	RetryExponentialBackoff RetryStrategy = "EXPONENTIAL_BACKOFF"
	RetryRefreshToken       RetryStrategy = "REFRESH_TOKEN"
)

// Classification is the result of categorizing a vendor error code.
type Classification struct {
	Category      Category
	RetryStrategy RetryStrategy
}

// knownCodes maps exact vendor error codes to a category. Entries here win
// over the prefix defaults below.
var knownCodes = map[string]Category{
	"Authentication_InvalidCredentials": CategoryAuthentication,
	"Unauthorized":                      CategoryAuthentication,
	"Authorization_InsufficientRights":  CategoryAuthorization,
	"Internal_PermissionError":          CategoryAuthorization,
	"Internal_RecordNotFound":           CategoryNotFound,
	"Internal_CompanyNotFound":          CategoryNotFound,
	"BadRequest_NotFound":               CategoryNotFound,
	"BadRequest_ResourceNotFound":       CategoryNotFound,
	"BadRequest_MethodNotAllowed":       CategoryBadRequest,
	"BadRequest_InvalidToken":           CategoryAuthentication,
	"Internal_EntityWithSameKeyExists":  CategoryConflict,
	"Internal_RecordAlreadyExists":      CategoryConflict,
	"Request_EntityChanged":             CategoryConflict,
	"Internal_InvalidTableRelation":     CategoryBadRequest,
	"Internal_ServerError":              CategoryServerError,
	"Internal_ServiceUnavailable":       CategoryServerError,
	"Application_DialogException":       CategoryBadRequest,
	"Application_NotFound":              CategoryNotFound,
}

// codePrefixes maps vendor code prefixes to a default category.
var codePrefixes = map[string]Category{
	"BadRequest_":     CategoryBadRequest,
	"Internal_":       CategoryServerError,
	"Application_":    CategoryBadRequest,
	"Authentication_": CategoryAuthentication,
	"Authorization_":  CategoryAuthorization,
	"Request_":        CategoryConflict,
}

var strategies = map[Category]RetryStrategy{
	CategoryAuthentication: RetryRefreshToken,
	CategoryServerError:    RetryExponentialBackoff,
	CategoryNetworkError:   RetryExponentialBackoff,
}

// StrategyFor returns the retry strategy of a category.
func StrategyFor(category Category) RetryStrategy {
	if strategy, ok := strategies[category]; ok {
		return strategy
	}

	return RetryNone
}

// Categorize maps a vendor error code to its category and retry strategy.
// Exact matches win, then the longest matching prefix, then CategoryUnknown.
func Categorize(code string) Classification {
	category, ok := knownCodes[code]
	if !ok {
		category = categoryByPrefix(code)
	}

	return Classification{
		Category:      category,
		RetryStrategy: StrategyFor(category),
	}
}

func categoryByPrefix(code string) Category {
	category := CategoryUnknown
	longest := 0

	for prefix, candidate := range codePrefixes {
		if len(prefix) > longest && strings.HasPrefix(code, prefix) {
			category = candidate
			longest = len(prefix)
		}
	}

	return category
}
