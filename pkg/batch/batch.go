// Package batch runs many record operations against one resource page with
// bounded concurrency. Each operation is an independent request; a failure of
// one does not stop the others.
package batch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/erlorenz/bc-go/internal/constants"
	"github.com/erlorenz/bc-go/pkg/bc"
	"golang.org/x/sync/errgroup"
)

// ErrUnsupportedOperationType is returned for an unknown Operation.Type.
var ErrUnsupportedOperationType = errors.New("unsupported operation type")

// OperationType names a resource page operation.
type OperationType string

const (
	OperationGet    OperationType = "get"
	OperationCreate OperationType = "create"
	OperationUpdate OperationType = "update"
	OperationDelete OperationType = "delete"
	OperationAction OperationType = "action"
)

// Operation represents a single operation in a batch.
type Operation struct {
	// ID identifies the operation in the results.
	ID       string
	Type     OperationType
	RecordID string
	Payload  interface{}
	// Action is the bound action name for OperationAction.
	Action string
}

// Result represents the result of a batch operation. Data is nil for delete
// and action operations.
type Result[T any] struct {
	ID       string
	Success  bool
	Data     *T
	Error    error
	Duration time.Duration
}

// Executor executes batch operations.
type Executor[T any] struct {
	page        bc.ResourcePage[T]
	concurrency int
	timeout     time.Duration
}

// NewExecutor creates a new batch executor. A non-positive concurrency uses
// the default of 5.
func NewExecutor[T any](page bc.ResourcePage[T], concurrency int) *Executor[T] {
	if concurrency <= 0 {
		concurrency = constants.DefaultBatchConcurrency
	}

	return &Executor[T]{
		page:        page,
		concurrency: concurrency,
		timeout:     constants.DefaultHTTPTimeout,
	}
}

// SetTimeout sets the per-operation timeout.
func (e *Executor[T]) SetTimeout(timeout time.Duration) {
	e.timeout = timeout
}

// Execute runs operations and returns their results in input order. When ctx
// is done before the batch finishes, Execute returns the interruption error and
// every operation that never started carries it in its Result.
func (e *Executor[T]) Execute(ctx context.Context, operations []Operation) ([]Result[T], error) {
	results := make([]Result[T], len(operations))

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(e.concurrency)

	started := 0

	for index, operation := range operations {
		if groupCtx.Err() != nil {
			break
		}

		started++

		group.Go(func() error {
			opCtx, cancel := context.WithTimeout(groupCtx, e.timeout)
			defer cancel()

			start := time.Now()
			result := e.execute(opCtx, operation)
			result.Duration = time.Since(start)
			results[index] = result

			return nil
		})
	}

	_ = group.Wait()

	if err := ctx.Err(); err != nil {
		interrupted := fmt.Errorf("batch interrupted: %w", err)

		for index := started; index < len(operations); index++ {
			results[index] = Result[T]{ID: operations[index].ID, Error: interrupted}
		}

		return results, interrupted
	}

	return results, nil
}

func (e *Executor[T]) execute(ctx context.Context, operation Operation) Result[T] {
	result := Result[T]{ID: operation.ID}

	var err error

	switch operation.Type {
	case OperationGet:
		result.Data, err = e.page.Get(ctx, operation.RecordID, nil)
	case OperationCreate:
		result.Data, err = e.page.Create(ctx, operation.Payload)
	case OperationUpdate:
		result.Data, err = e.page.Update(ctx, operation.RecordID, operation.Payload)
	case OperationDelete:
		err = e.page.Delete(ctx, operation.RecordID)
	case OperationAction:
		err = e.page.Action(ctx, operation.RecordID, operation.Action)
	default:
		err = fmt.Errorf("%w: %s", ErrUnsupportedOperationType, operation.Type)
	}

	result.Success = err == nil
	result.Error = err

	return result
}

// Failed returns the results that did not succeed.
func Failed[T any](results []Result[T]) []Result[T] {
	var failed []Result[T]

	for _, result := range results {
		if !result.Success {
			failed = append(failed, result)
		}
	}

	return failed
}

// Builder builds batch operations.
type Builder struct {
	operations []Operation
}

// NewBuilder creates a new batch builder.
func NewBuilder() *Builder {
	return &Builder{
		operations: make([]Operation, 0),
	}
}

// AddGet adds a get operation.
func (b *Builder) AddGet(id, recordID string) *Builder {
	return b.Add(Operation{ID: id, Type: OperationGet, RecordID: recordID})
}

// AddCreate adds a create operation.
func (b *Builder) AddCreate(id string, payload interface{}) *Builder {
	return b.Add(Operation{ID: id, Type: OperationCreate, Payload: payload})
}

// AddUpdate adds an update operation.
func (b *Builder) AddUpdate(id, recordID string, payload interface{}) *Builder {
	return b.Add(Operation{ID: id, Type: OperationUpdate, RecordID: recordID, Payload: payload})
}

// AddDelete adds a delete operation.
func (b *Builder) AddDelete(id, recordID string) *Builder {
	return b.Add(Operation{ID: id, Type: OperationDelete, RecordID: recordID})
}

// AddAction adds a bound action operation.
func (b *Builder) AddAction(id, recordID, action string) *Builder {
	return b.Add(Operation{ID: id, Type: OperationAction, RecordID: recordID, Action: action})
}

// Add adds an operation.
func (b *Builder) Add(operation Operation) *Builder {
	b.operations = append(b.operations, operation)

	return b
}

// Build returns the built operations.
func (b *Builder) Build() []Operation {
	return b.operations
}
