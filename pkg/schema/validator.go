package schema

import (
	"reflect"
	"strconv"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validate *validator.Validate
	once     sync.Once
)

// getValidator returns the singleton validator instance.
func getValidator() *validator.Validate {
	once.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())

		// Report json names so issue paths match the wire format.
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}

			if name == "" {
				return fld.Name
			}

			return name
		})
	})

	return validate
}

// issuePath converts a validator namespace such as "Invoice.lines[2].amount"
// into path segments, dropping the root type name.
func issuePath(namespace string) []interface{} {
	parts := strings.Split(namespace, ".")
	if len(parts) > 0 {
		parts = parts[1:]
	}

	path := make([]interface{}, 0, len(parts))

	for _, part := range parts {
		name, rest, found := strings.Cut(part, "[")
		if name != "" {
			path = append(path, name)
		}

		for found {
			var key string

			key, rest, _ = strings.Cut(rest, "]")
			if index, err := strconv.Atoi(key); err == nil {
				path = append(path, index)
			} else {
				path = append(path, key)
			}

			_, rest, found = strings.Cut(rest, "[")
		}
	}

	return path
}

// describe creates a human-readable message for a failed tag.
func describe(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "uuid", "uuid4":
		return "must be a valid UUID"
	case "oneof":
		return "must be one of: " + e.Param()
	case "min":
		return "must be at least " + e.Param()
	case "max":
		return "must be at most " + e.Param()
	case "gte":
		return "must be greater than or equal to " + e.Param()
	case "lte":
		return "must be less than or equal to " + e.Param()
	case "datetime":
		return "must be a date in the format " + e.Param()
	case "url":
		return "must be a valid URL"
	default:
		return "failed the " + e.Tag() + " check"
	}
}
