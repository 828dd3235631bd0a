package bc

import (
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
)

// Static errors for err113 compliance.
var (
	ErrConfigRequired        = errors.New("config is required")
	ErrTenantIDRequired      = errors.New("tenant ID is required")
	ErrInvalidTenantID       = errors.New("tenant ID must be a GUID or a domain name")
	ErrEnvironmentRequired   = errors.New("environment name is required")
	ErrInvalidEnvironment    = errors.New("environment name is not a valid identifier")
	ErrCompanyIDRequired     = errors.New("company ID is required")
	ErrInvalidCompanyID      = errors.New("company ID must be a GUID")
	ErrInvalidBaseURL        = errors.New("base URL must be an absolute http(s) URL")
	ErrTokenProviderRequired = errors.New("a token provider, access token or client credentials are required")
	ErrIDRequired            = errors.New("record ID is required")
	ErrActionRequired        = errors.New("action name is required")
)

// Fixed messages for errors that do not carry a server-supplied message.
const (
	MessageUnexpectedResponse = "unexpected response format from server"
	MessageParseFailure       = "failed to parse response body as JSON"
	MessageSchemaMismatch     = "response failed schema validation"
	MessageMissingValue       = "missing value property on list response"
)

const errorName = "BusinessCentralError"

// ServerError is the vendor's original error payload.
type ServerError struct {
	Code    string `json:"code"    yaml:"code"`
	Message string `json:"message" yaml:"message"`
}

// ValidationIssue is one schema violation, with its path flattened to a
// dot-separated string.
type ValidationIssue struct {
	Message string `json:"message" yaml:"message"`
	Path    string `json:"path"    yaml:"path"`
}

// Error is the structured error returned by every operation of this library.
// The retry strategy is derived from the category and cannot be set on its own.
type Error struct {
	category Category

	// Message describes the failure.
	Message string
	// HTTPStatus is the response status; 0 when no response was received.
	HTTPStatus int
	// CorrelationID is the server request id, empty when unavailable.
	CorrelationID string
	// ServerError is set when the body matched the vendor error envelope.
	ServerError *ServerError
	// ResponseData holds the raw payload when it could not be interpreted.
	ResponseData interface{}
	// ValidationDetails lists schema issues for CategorySchemaMismatch.
	ValidationDetails []ValidationIssue
	// Cause is the underlying network, parse or provider error.
	Cause error
	// Timestamp is when the error was created.
	Timestamp time.Time
}

func newError(category Category, message string) *Error {
	return &Error{
		category:  category,
		Message:   message,
		Timestamp: time.Now(),
	}
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.HTTPStatus > 0 {
		return fmt.Sprintf("bc: %s (HTTP %d): %s", e.category, e.HTTPStatus, e.Message)
	}

	return fmt.Sprintf("bc: %s: %s", e.category, e.Message)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Category returns the error category.
func (e *Error) Category() Category {
	return e.category
}

// RetryStrategy returns the advisory retry strategy for the category.
func (e *Error) RetryStrategy() RetryStrategy {
	return StrategyFor(e.category)
}

// IsRetryable reports whether the retry strategy is anything but RetryNone.
func (e *Error) IsRetryable() bool {
	return e.RetryStrategy() != RetryNone
}

// HasValidationDetails reports whether schema issues are attached.
func (e *Error) HasValidationDetails() bool {
	return len(e.ValidationDetails) > 0
}

// ValidationFields returns the issue paths in their original order.
func (e *Error) ValidationFields() []string {
	fields := make([]string, 0, len(e.ValidationDetails))
	for _, issue := range e.ValidationDetails {
		fields = append(fields, issue.Path)
	}

	return fields
}

// LogFields returns a flat view of the error suitable for structured logging.
func (e *Error) LogFields() map[string]interface{} {
	fields := map[string]interface{}{
		"name":          errorName,
		"message":       e.Message,
		"category":      string(e.category),
		"httpStatus":    e.HTTPStatus,
		"retryStrategy": string(e.RetryStrategy()),
		"correlationId": e.CorrelationID,
		"timestamp":     e.Timestamp.UTC().Format(time.RFC3339Nano),
	}

	if len(e.ValidationDetails) > 0 {
		fields["validationDetails"] = e.ValidationDetails
	}

	if e.ResponseData != nil {
		fields["responseData"] = e.ResponseData
	}

	if e.ServerError != nil {
		fields["serverError"] = *e.ServerError
	}

	return fields
}

// Attributes returns the minimal observability view of the error. The
// correlation id is always present, empty when unknown.
func (e *Error) Attributes() []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String("bc.error.category", string(e.category)),
		attribute.Bool("bc.error.retryable", e.IsRetryable()),
		attribute.String("bc.correlation_id", e.CorrelationID),
	}
}

// MarshalZerologObject implements zerolog.LogObjectMarshaler.
func (e *Error) MarshalZerologObject(event *zerolog.Event) {
	event.Fields(e.LogFields())
}

// NewResponseError builds an error from a non-success HTTP response. A body of
// the form {"error": {"code": "...", "message": "..."}} is categorized by its
// code; anything else is reported as CategoryUnexpectedResponse.
func NewResponseError(status int, body interface{}, correlationID string) *Error {
	serverErr, ok := parseServerError(body)
	if !ok {
		err := newError(CategoryUnexpectedResponse, MessageUnexpectedResponse)
		err.HTTPStatus = status
		err.CorrelationID = correlationID
		err.ResponseData = body

		return err
	}

	err := newError(Categorize(serverErr.Code).Category, serverErr.Message)
	err.HTTPStatus = status
	err.CorrelationID = correlationID
	err.ServerError = serverErr

	return err
}

// NewNetworkError wraps a transport failure where no response was received.
func NewNetworkError(cause error) *Error {
	message := fmt.Sprintf("network request failed: %v", cause)
	if code := nativeErrorCode(cause); code != "" {
		message = fmt.Sprintf("network request failed (%s): %v", code, cause)
	}

	err := newError(CategoryNetworkError, message)
	err.Cause = cause

	return err
}

// NewRequestError reports a request that could not be built, for example an
// unencodable payload. Nothing was sent.
func NewRequestError(cause error) *Error {
	err := newError(CategoryBadRequest, fmt.Sprintf("invalid request: %v", cause))
	err.Cause = cause

	return err
}

// NewParseError wraps a response body that is not valid JSON.
func NewParseError(cause error, status int, correlationID string, raw []byte) *Error {
	err := newError(CategoryUnexpectedResponse, MessageParseFailure)
	err.HTTPStatus = status
	err.CorrelationID = correlationID
	err.Cause = cause

	if len(raw) > 0 {
		err.ResponseData = string(raw)
	}

	return err
}

// NewValidationError reports schema issues found in a response body.
func NewValidationError(issues []ValidationIssue) *Error {
	err := newError(CategorySchemaMismatch, MessageSchemaMismatch)
	err.ValidationDetails = append([]ValidationIssue(nil), issues...)

	return err
}

// NewListEnvelopeError reports a list response without a "value" array.
func NewListEnvelopeError(envelope interface{}, correlationID string) *Error {
	err := newError(CategorySchemaMismatch, MessageMissingValue)
	err.CorrelationID = correlationID
	err.ResponseData = envelope

	return err
}

// NewTokenError wraps a failure of the token provider.
func NewTokenError(cause error) *Error {
	err := newError(CategoryAuthentication, fmt.Sprintf("failed to acquire access token: %v", cause))
	err.HTTPStatus = 401
	err.Cause = cause

	return err
}

func parseServerError(body interface{}) (*ServerError, bool) {
	envelope, ok := body.(map[string]interface{})
	if !ok {
		return nil, false
	}

	inner, ok := envelope["error"].(map[string]interface{})
	if !ok {
		return nil, false
	}

	code, codeOK := inner["code"].(string)
	message, messageOK := inner["message"].(string)

	if !codeOK || !messageOK {
		return nil, false
	}

	return &ServerError{Code: code, Message: message}, true
}

// AsError extracts a *Error from err.
func AsError(err error) (*Error, bool) {
	var bcErr *Error
	if errors.As(err, &bcErr) {
		return bcErr, true
	}

	return nil, false
}

// IsCategory checks if err is a *Error of the given category.
func IsCategory(err error, category Category) bool {
	bcErr, ok := AsError(err)

	return ok && bcErr.category == category
}

// IsNotFound checks if the error is a not found error.
func IsNotFound(err error) bool {
	return IsCategory(err, CategoryNotFound)
}

// IsRetryable checks if the error carries a retry strategy other than RetryNone.
func IsRetryable(err error) bool {
	bcErr, ok := AsError(err)

	return ok && bcErr.IsRetryable()
}
