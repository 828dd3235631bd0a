package client

import (
	"context"
	"fmt"
	"iter"
	"net/http"
	"net/url"
	"strings"

	"github.com/erlorenz/bc-go/internal/constants"
	"github.com/erlorenz/bc-go/pkg/bc"
)

// ResourcePage implements bc.ResourcePage for one entity collection.
type ResourcePage[T any] struct {
	requester Requester
	endpoint  string
	schema    bc.Schema[T]
}

// NewResourcePage creates a resource page for endpoint, validating every
// returned record with schema.
func NewResourcePage[T any](requester Requester, endpoint string, schema bc.Schema[T]) *ResourcePage[T] {
	return &ResourcePage[T]{
		requester: requester,
		endpoint:  strings.Trim(endpoint, "/"),
		schema:    schema,
	}
}

// Endpoint returns the collection path.
func (r *ResourcePage[T]) Endpoint() string {
	return r.endpoint
}

// Get retrieves one record by id.
func (r *ResourcePage[T]) Get(ctx context.Context, id string, params *bc.QueryParams) (*T, error) {
	path, err := r.itemPath(id)
	if err != nil {
		return nil, err
	}

	return r.one(ctx, path, &bc.RequestOptions{Method: http.MethodGet, Query: params.ToValues()})
}

// List iterates over the collection.
func (r *ResourcePage[T]) List(ctx context.Context, params *bc.QueryParams, opts *bc.PaginationOptions) iter.Seq2[T, error] {
	return List(ctx, r.requester, r.endpoint, r.schema, params, opts)
}

// FindOne returns the first matching record, or nil.
func (r *ResourcePage[T]) FindOne(ctx context.Context, params *bc.QueryParams) (*T, error) {
	return FindOne(ctx, r.requester, r.endpoint, r.schema, params)
}

// Create creates a record.
func (r *ResourcePage[T]) Create(ctx context.Context, payload interface{}) (*T, error) {
	return r.one(ctx, r.endpoint, &bc.RequestOptions{Method: http.MethodPost, Payload: payload})
}

// Update overwrites fields of a record. No concurrency check is made.
func (r *ResourcePage[T]) Update(ctx context.Context, id string, payload interface{}) (*T, error) {
	path, err := r.itemPath(id)
	if err != nil {
		return nil, err
	}

	return r.one(ctx, path, &bc.RequestOptions{Method: http.MethodPatch, Payload: payload})
}

// Delete deletes a record.
func (r *ResourcePage[T]) Delete(ctx context.Context, id string) error {
	path, err := r.itemPath(id)
	if err != nil {
		return err
	}

	_, err = r.requester.Request(ctx, path, &bc.RequestOptions{Method: http.MethodDelete})

	return err
}

// Action invokes a bound action on a record, for example "post" on a sales
// invoice. The Microsoft.NAV. namespace is added when missing.
func (r *ResourcePage[T]) Action(ctx context.Context, id, action string) error {
	path, err := r.itemPath(id)
	if err != nil {
		return err
	}

	action = strings.TrimSpace(action)
	if action == "" {
		return bc.NewRequestError(bc.ErrActionRequired)
	}

	if !strings.HasPrefix(action, constants.ActionNamespace) {
		action = constants.ActionNamespace + action
	}

	_, err = r.requester.Request(ctx, path+"/"+action, &bc.RequestOptions{Method: http.MethodPost})

	return err
}

func (r *ResourcePage[T]) one(ctx context.Context, path string, opts *bc.RequestOptions) (*T, error) {
	value, err := ExecuteWithSchema(ctx, r.requester, path, r.schema, opts)
	if err != nil {
		return nil, err
	}

	return &value, nil
}

func (r *ResourcePage[T]) itemPath(id string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", bc.NewRequestError(bc.ErrIDRequired)
	}

	return fmt.Sprintf("%s(%s)", r.endpoint, url.PathEscape(id)), nil
}
