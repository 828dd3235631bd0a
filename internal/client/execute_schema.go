package client

import (
	"context"
	"encoding/json"

	"github.com/erlorenz/bc-go/pkg/bc"
)

// ExecuteWithSchema issues one request and passes the body through schema.
// Schema issues are reported as a CategorySchemaMismatch error.
func ExecuteWithSchema[T any](ctx context.Context, requester Requester, endpoint string, schema bc.Schema[T], opts *bc.RequestOptions) (T, error) {
	result, err := requester.Request(ctx, endpoint, opts)
	if err != nil {
		var zero T

		return zero, err
	}

	return validate(ctx, schema, result.Body, result)
}

func validate[T any](ctx context.Context, schema bc.Schema[T], raw json.RawMessage, result *Result) (T, error) {
	value, issues := schema.Validate(ctx, raw)
	if len(issues) == 0 {
		return value, nil
	}

	var zero T

	err := bc.NewValidationError(bc.ToValidationIssues(issues))
	err.HTTPStatus = result.StatusCode
	err.CorrelationID = result.CorrelationID

	return zero, err
}
