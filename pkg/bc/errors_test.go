package bc

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"os"
	"syscall"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
)

func TestNewResponseError_ServerEnvelope(t *testing.T) {
	t.Parallel()

	body := map[string]interface{}{
		"error": map[string]interface{}{
			"code":    "Internal_ServerError",
			"message": "m",
		},
	}

	err := NewResponseError(500, body, "corr-1")

	assert.Equal(t, CategoryServerError, err.Category())
	assert.Equal(t, RetryExponentialBackoff, err.RetryStrategy())
	assert.True(t, err.IsRetryable())
	require.NotNil(t, err.ServerError)
	assert.Equal(t, ServerError{Code: "Internal_ServerError", Message: "m"}, *err.ServerError)
	assert.Nil(t, err.ResponseData)
	assert.Equal(t, 500, err.HTTPStatus)
	assert.Equal(t, "corr-1", err.CorrelationID)
	assert.Equal(t, "bc: SERVER_ERROR (HTTP 500): m", err.Error())
}

func TestNewResponseError_MalformedBody(t *testing.T) {
	t.Parallel()

	bodies := []interface{}{
		map[string]interface{}{"notAnError": "x"},
		map[string]interface{}{"error": "flat string"},
		map[string]interface{}{"error": map[string]interface{}{"code": 42, "message": "m"}},
		map[string]interface{}{"error": map[string]interface{}{"code": "X"}},
		[]interface{}{"a"},
		"plain text",
		nil,
	}

	for _, status := range []int{400, 404, 500, 503} {
		for i, body := range bodies {
			t.Run(fmt.Sprintf("status %d body %d", status, i), func(t *testing.T) {
				t.Parallel()

				err := NewResponseError(status, body, "")

				assert.Equal(t, CategoryUnexpectedResponse, err.Category())
				assert.Equal(t, RetryNone, err.RetryStrategy())
				assert.Equal(t, body, err.ResponseData)
				assert.Nil(t, err.ServerError)
				assert.Equal(t, MessageUnexpectedResponse, err.Message)
				assert.Equal(t, status, err.HTTPStatus)
			})
		}
	}
}

func TestNewNetworkError_ConnectionRefused(t *testing.T) {
	t.Parallel()

	cause := &net.OpError{
		Op:  "dial",
		Net: "tcp",
		Err: &os.SyscallError{Syscall: "connect", Err: syscall.ECONNREFUSED},
	}

	err := NewNetworkError(cause)

	assert.Equal(t, CategoryNetworkError, err.Category())
	assert.Equal(t, RetryExponentialBackoff, err.RetryStrategy())
	assert.Equal(t, 0, err.HTTPStatus)
	assert.Contains(t, err.Message, "ECONNREFUSED")
	assert.Empty(t, err.CorrelationID)
	assert.ErrorIs(t, err, syscall.ECONNREFUSED)
	assert.Same(t, cause, err.Cause)
}

func TestNewNetworkError_NativeCodes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		cause error
		code  string
	}{
		{"dns", &net.DNSError{Err: "no such host", Name: "nope.invalid", IsNotFound: true}, "ENOTFOUND"},
		{"reset", &os.SyscallError{Syscall: "read", Err: syscall.ECONNRESET}, "ECONNRESET"},
		{"deadline", fmt.Errorf("request: %w", os.ErrDeadlineExceeded), "ETIMEDOUT"},
		{"host unreachable", syscall.EHOSTUNREACH, "EHOSTUNREACH"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := NewNetworkError(tt.cause)
			assert.Contains(t, err.Message, tt.code)
			assert.Equal(t, CategoryNetworkError, err.Category())
		})
	}

	plain := NewNetworkError(errors.New("boom"))
	assert.Equal(t, "network request failed: boom", plain.Message)
}

func TestNewParseError(t *testing.T) {
	t.Parallel()

	var target interface{}
	cause := json.Unmarshal([]byte("<html>"), &target)
	require.Error(t, cause)

	err := NewParseError(cause, 502, "corr", []byte("<html>"))

	assert.Equal(t, CategoryUnexpectedResponse, err.Category())
	assert.Equal(t, RetryNone, err.RetryStrategy())
	assert.Equal(t, 502, err.HTTPStatus)
	assert.Equal(t, "corr", err.CorrelationID)
	assert.Equal(t, "<html>", err.ResponseData)
	assert.Nil(t, err.ServerError)
	assert.ErrorIs(t, err, cause)
}

func TestNewValidationError(t *testing.T) {
	t.Parallel()

	for _, n := range []int{0, 1, 3} {
		t.Run(fmt.Sprintf("%d issues", n), func(t *testing.T) {
			t.Parallel()

			issues := make([]ValidationIssue, 0, n)
			paths := make([]string, 0, n)

			for i := range n {
				path := fmt.Sprintf("value.%d.field%d", i, i)
				issues = append(issues, ValidationIssue{Message: "bad", Path: path})
				paths = append(paths, path)
			}

			err := NewValidationError(issues)

			assert.Equal(t, CategorySchemaMismatch, err.Category())
			assert.Equal(t, RetryNone, err.RetryStrategy())
			assert.False(t, err.IsRetryable())
			assert.Equal(t, n > 0, err.HasValidationDetails())
			assert.Equal(t, paths, err.ValidationFields())
			assert.Nil(t, err.ServerError)
			assert.Nil(t, err.ResponseData)
		})
	}
}

func TestNewListEnvelopeError(t *testing.T) {
	t.Parallel()

	envelope := map[string]interface{}{"items": []interface{}{}}
	err := NewListEnvelopeError(envelope, "corr")

	assert.Equal(t, CategorySchemaMismatch, err.Category())
	assert.Equal(t, MessageMissingValue, err.Message)
	assert.Equal(t, envelope, err.ResponseData)
	assert.Equal(t, "corr", err.CorrelationID)
}

func TestNewTokenError(t *testing.T) {
	t.Parallel()

	cause := errors.New("invalid_client")
	err := NewTokenError(cause)

	assert.Equal(t, CategoryAuthentication, err.Category())
	assert.Equal(t, RetryRefreshToken, err.RetryStrategy())
	assert.Equal(t, 401, err.HTTPStatus)
	assert.Contains(t, err.Message, "invalid_client")
	assert.ErrorIs(t, err, cause)
}

func TestError_LogFields(t *testing.T) {
	t.Parallel()

	err := NewResponseError(404, map[string]interface{}{
		"error": map[string]interface{}{"code": "Internal_RecordNotFound", "message": "gone"},
	}, "")
	err.Timestamp = time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	fields := err.LogFields()

	assert.Equal(t, "BusinessCentralError", fields["name"])
	assert.Equal(t, "gone", fields["message"])
	assert.Equal(t, "NOT_FOUND", fields["category"])
	assert.Equal(t, 404, fields["httpStatus"])
	assert.Equal(t, "NO_RETRY", fields["retryStrategy"])
	assert.Equal(t, "2024-01-02T03:04:05Z", fields["timestamp"])
	assert.Equal(t, ServerError{Code: "Internal_RecordNotFound", Message: "gone"}, fields["serverError"])
	assert.Contains(t, fields, "correlationId")
	assert.Equal(t, "", fields["correlationId"])
	assert.NotContains(t, fields, "responseData")
	assert.NotContains(t, fields, "validationDetails")

	validation := NewValidationError([]ValidationIssue{{Message: "required", Path: "id"}})
	validation.CorrelationID = "abc"
	fields = validation.LogFields()

	assert.Equal(t, "abc", fields["correlationId"])
	assert.Equal(t, []ValidationIssue{{Message: "required", Path: "id"}}, fields["validationDetails"])
}

func TestError_Attributes(t *testing.T) {
	t.Parallel()

	err := NewNetworkError(errors.New("boom"))
	attrs := err.Attributes()

	assert.Equal(t, []attribute.KeyValue{
		attribute.String("bc.error.category", "NETWORK_ERROR"),
		attribute.Bool("bc.error.retryable", true),
		attribute.String("bc.correlation_id", ""),
	}, attrs)
}

func TestError_MarshalZerologObject(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	logger := zerolog.New(&buf)
	logger.Warn().Object("error", NewValidationError(nil)).Msg("failed")

	var line map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))

	embedded, ok := line["error"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "SCHEMA_MISMATCH", embedded["category"])
	assert.Equal(t, "BusinessCentralError", embedded["name"])
}

func TestErrorHelpers(t *testing.T) {
	t.Parallel()

	notFound := NewResponseError(404, map[string]interface{}{
		"error": map[string]interface{}{"code": "Internal_RecordNotFound", "message": "gone"},
	}, "")
	wrapped := fmt.Errorf("getting customer: %w", notFound)

	got, ok := AsError(wrapped)
	require.True(t, ok)
	assert.Same(t, notFound, got)

	assert.True(t, IsNotFound(wrapped))
	assert.False(t, IsRetryable(wrapped))
	assert.True(t, IsCategory(wrapped, CategoryNotFound))
	assert.False(t, IsCategory(errors.New("plain"), CategoryNotFound))
	assert.False(t, IsNotFound(nil))
	assert.True(t, IsRetryable(NewNetworkError(errors.New("x"))))

	_, ok = AsError(errors.New("plain"))
	assert.False(t, ok)

	noStatus := NewValidationError(nil)
	assert.Equal(t, "bc: SCHEMA_MISMATCH: response failed schema validation", noStatus.Error())
}

func TestNewRequestError(t *testing.T) {
	t.Parallel()

	cause := errors.New("json: unsupported type: chan int")
	err := NewRequestError(cause)

	assert.Equal(t, CategoryBadRequest, err.Category())
	assert.Equal(t, 0, err.HTTPStatus)
	assert.False(t, err.IsRetryable())
	assert.ErrorIs(t, err, cause)
}
