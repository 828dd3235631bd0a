package client

import (
	"context"
	"encoding/json"
	"iter"
	"net/http"
	"net/url"
	"strings"

	"github.com/erlorenz/bc-go/internal/constants"
	"github.com/erlorenz/bc-go/pkg/bc"
)

// page is one decoded list response.
type page struct {
	items    []json.RawMessage
	nextLink string
	hasLink  bool
}

// List returns a lazy sequence over a paginated collection. Each call starts
// a fresh pagination session with an empty cursor. Iteration ends when the
// server returns an empty value array, when MaxResults items have been
// yielded, at the first error, or when the caller stops ranging.
func List[T any](ctx context.Context, requester Requester, endpoint string, schema bc.Schema[T], params *bc.QueryParams, opts *bc.PaginationOptions) iter.Seq2[T, error] {
	var maxResults, pageSize int
	if opts != nil {
		maxResults = opts.MaxResults
		pageSize = opts.ServerPageSize
	}

	return func(yield func(T, error) bool) {
		var zero T

		cursor := ""
		yielded := 0

		for {
			query := params.ToValues()
			if cursor != "" {
				query.Set(constants.SkipTokenParam, cursor)
			}

			result, err := requester.Request(ctx, endpoint, &bc.RequestOptions{
				Method:         http.MethodGet,
				Query:          query,
				ServerPageSize: pageSize,
			})
			if err != nil {
				yield(zero, err)

				return
			}

			current, err := decodePage(result)
			if err != nil {
				yield(zero, err)

				return
			}

			if current.hasLink {
				if token := skipToken(current.nextLink); token != "" {
					cursor = token
				}
			}

			if len(current.items) == 0 {
				return
			}

			batch := current.items
			if maxResults > 0 && len(batch) > maxResults-yielded {
				batch = batch[:maxResults-yielded]
			}

			// The whole batch is validated before anything from it is yielded.
			values := make([]T, 0, len(batch))

			for _, raw := range batch {
				value, err := validate(ctx, schema, raw, result)
				if err != nil {
					yield(zero, err)

					return
				}

				values = append(values, value)
			}

			for _, value := range values {
				if !yield(value, nil) {
					return
				}

				yielded++
				if maxResults > 0 && yielded >= maxResults {
					return
				}
			}
		}
	}
}

// FindOne returns the first item of the collection matching params, or nil
// when there is none. The server page size hint is 1.
func FindOne[T any](ctx context.Context, requester Requester, endpoint string, schema bc.Schema[T], params *bc.QueryParams) (*T, error) {
	seq := List(ctx, requester, endpoint, schema, params, &bc.PaginationOptions{
		MaxResults:     1,
		ServerPageSize: constants.FindOnePageSize,
	})

	for item, err := range seq {
		if err != nil {
			return nil, err
		}

		return &item, nil
	}

	return nil, nil
}

func decodePage(result *Result) (*page, error) {
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(result.Body, &envelope); err != nil || envelope == nil {
		return nil, envelopeError(result)
	}

	value, ok := envelope[constants.ValueProperty]
	if !ok {
		return nil, envelopeError(result)
	}

	var items []json.RawMessage
	if err := json.Unmarshal(value, &items); err != nil || items == nil {
		return nil, envelopeError(result)
	}

	current := &page{items: items}

	if rawLink, ok := envelope[constants.NextLinkProperty]; ok {
		var link string
		if err := json.Unmarshal(rawLink, &link); err == nil && link != "" {
			current.nextLink = link
			current.hasLink = true
		}
	}

	return current, nil
}

func envelopeError(result *Result) *bc.Error {
	var envelope interface{}
	if len(result.Body) > 0 {
		_ = json.Unmarshal(result.Body, &envelope)
	}

	err := bc.NewListEnvelopeError(envelope, result.CorrelationID)
	err.HTTPStatus = result.StatusCode

	return err
}

// skipToken extracts the continuation cursor from a next link. The parameter
// name is matched case-insensitively.
func skipToken(link string) string {
	parsed, err := url.Parse(link)
	if err != nil {
		return ""
	}

	for key, values := range parsed.Query() {
		if strings.EqualFold(key, constants.SkipTokenParam) && len(values) > 0 {
			return values[0]
		}
	}

	return ""
}
