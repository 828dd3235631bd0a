package bc

import (
	"net/url"
	"strconv"
	"strings"
)

// QueryParams represents OData query options for API requests.
type QueryParams struct {
	Filter  string
	Select  []string
	Expand  []string
	OrderBy string
	Top     int
	Skip    int
	Extra   url.Values
}

// NewQueryParams creates a new QueryParams instance.
func NewQueryParams() *QueryParams {
	return &QueryParams{
		Extra: url.Values{},
	}
}

// ToValues converts QueryParams to url.Values.
func (q *QueryParams) ToValues() url.Values {
	values := url.Values{}
	if q == nil {
		return values
	}

	if q.Filter != "" {
		values.Set("$filter", q.Filter)
	}

	if len(q.Select) > 0 {
		values.Set("$select", strings.Join(q.Select, ","))
	}

	if len(q.Expand) > 0 {
		values.Set("$expand", strings.Join(q.Expand, ","))
	}

	if q.OrderBy != "" {
		values.Set("$orderby", q.OrderBy)
	}

	if q.Top > 0 {
		values.Set("$top", strconv.Itoa(q.Top))
	}

	if q.Skip > 0 {
		values.Set("$skip", strconv.Itoa(q.Skip))
	}

	for key, vals := range q.Extra {
		for _, val := range vals {
			values.Add(key, val)
		}
	}

	return values
}

// WithFilter sets the $filter expression.
func (q *QueryParams) WithFilter(filter string) *QueryParams {
	q.Filter = filter

	return q
}

// WithSelect sets the $select fields.
func (q *QueryParams) WithSelect(fields ...string) *QueryParams {
	q.Select = fields

	return q
}

// WithExpand sets the $expand navigation properties.
func (q *QueryParams) WithExpand(properties ...string) *QueryParams {
	q.Expand = properties

	return q
}

// WithOrderBy sets the $orderby expression.
func (q *QueryParams) WithOrderBy(orderBy string) *QueryParams {
	q.OrderBy = orderBy

	return q
}

// WithTop sets $top.
func (q *QueryParams) WithTop(top int) *QueryParams {
	q.Top = top

	return q
}

// WithSkip sets $skip.
func (q *QueryParams) WithSkip(skip int) *QueryParams {
	q.Skip = skip

	return q
}

// WithParam adds a free-form query parameter.
func (q *QueryParams) WithParam(key, value string) *QueryParams {
	if q.Extra == nil {
		q.Extra = url.Values{}
	}

	q.Extra.Add(key, value)

	return q
}

// PaginationOptions controls how a collection is drained.
type PaginationOptions struct {
	// MaxResults caps the number of items yielded; 0 means no cap.
	MaxResults int
	// ServerPageSize is sent as a Prefer: odata.maxpagesize hint; 0 omits it.
	ServerPageSize int
}
