// Package schema provides Schema implementations for the bc client: struct
// decoding with tag validation, function adapters, and transforms.
package schema

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/erlorenz/bc-go/pkg/bc"
	"github.com/go-playground/validator/v10"
)

// Func adapts a function to bc.Schema.
type Func[T any] func(ctx context.Context, raw json.RawMessage) (T, []bc.SchemaIssue)

// Validate calls f.
func (f Func[T]) Validate(ctx context.Context, raw json.RawMessage) (T, []bc.SchemaIssue) {
	return f(ctx, raw)
}

// Struct returns a schema that decodes a JSON object into T and checks its
// `validate` struct tags. T should be a struct type.
func Struct[T any]() bc.Schema[T] {
	return Func[T](func(ctx context.Context, raw json.RawMessage) (T, []bc.SchemaIssue) {
		var value T

		trimmed := bytes.TrimSpace(raw)
		if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
			return value, []bc.SchemaIssue{{Message: "expected an object, received null"}}
		}

		if err := json.Unmarshal(trimmed, &value); err != nil {
			return value, []bc.SchemaIssue{decodeIssue(err)}
		}

		err := getValidator().StructCtx(ctx, &value)
		if err == nil {
			return value, nil
		}

		var invalid *validator.InvalidValidationError
		if errors.As(err, &invalid) {
			return value, nil
		}

		var fieldErrors validator.ValidationErrors
		if !errors.As(err, &fieldErrors) {
			return value, []bc.SchemaIssue{{Message: err.Error()}}
		}

		issues := make([]bc.SchemaIssue, 0, len(fieldErrors))
		for _, fe := range fieldErrors {
			issues = append(issues, bc.SchemaIssue{
				Message: describe(fe),
				Path:    issuePath(fe.Namespace()),
			})
		}

		return value, issues
	})
}

// Raw returns a schema that accepts any value unchanged.
func Raw() bc.Schema[json.RawMessage] {
	return Func[json.RawMessage](func(_ context.Context, raw json.RawMessage) (json.RawMessage, []bc.SchemaIssue) {
		return raw, nil
	})
}

// Map validates with inner and then transforms the result with fn. An error
// from fn is reported as a root issue.
func Map[T, U any](inner bc.Schema[T], fn func(T) (U, error)) bc.Schema[U] {
	return Func[U](func(ctx context.Context, raw json.RawMessage) (U, []bc.SchemaIssue) {
		var out U

		value, issues := inner.Validate(ctx, raw)
		if len(issues) > 0 {
			return out, issues
		}

		out, err := fn(value)
		if err != nil {
			return out, []bc.SchemaIssue{{Message: err.Error()}}
		}

		return out, nil
	})
}

func decodeIssue(err error) bc.SchemaIssue {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		var path []interface{}

		if typeErr.Field != "" {
			for _, segment := range strings.Split(typeErr.Field, ".") {
				path = append(path, segment)
			}
		}

		return bc.SchemaIssue{
			Message: fmt.Sprintf("expected %s, received %s", typeErr.Type, typeErr.Value),
			Path:    path,
		}
	}

	return bc.SchemaIssue{Message: err.Error()}
}
