package bc

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// SchemaIssue is a violation reported by a Schema. Path segments are field
// names or element indexes.
type SchemaIssue struct {
	Message string
	Path    []interface{}
}

// Schema validates a raw JSON value and converts it to T. It may also reshape
// the value. A non-empty issue list means validation failed.
type Schema[T any] interface {
	Validate(ctx context.Context, raw json.RawMessage) (T, []SchemaIssue)
}

// FormatIssuePath joins path segments with "." and returns "root" for an
// empty path.
func FormatIssuePath(path []interface{}) string {
	if len(path) == 0 {
		return "root"
	}

	segments := make([]string, 0, len(path))
	for _, segment := range path {
		segments = append(segments, fmt.Sprint(segment))
	}

	return strings.Join(segments, ".")
}

// ToValidationIssues flattens schema issues into validation details.
func ToValidationIssues(issues []SchemaIssue) []ValidationIssue {
	details := make([]ValidationIssue, 0, len(issues))
	for _, issue := range issues {
		details = append(details, ValidationIssue{
			Message: issue.Message,
			Path:    FormatIssuePath(issue.Path),
		})
	}

	return details
}
