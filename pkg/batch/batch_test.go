package batch_test

import (
	"context"
	"errors"
	"iter"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/erlorenz/bc-go/pkg/batch"
	"github.com/erlorenz/bc-go/pkg/bc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type record struct {
	ID   string
	Name string
}

// fakePage records calls and tracks how many run at once.
type fakePage struct {
	delay time.Duration
	// block makes Get wait for its context to end.
	block bool

	inFlight    atomic.Int32
	maxInFlight atomic.Int32

	mu    sync.Mutex
	calls []string
}

func (p *fakePage) enter(call string) func() {
	p.mu.Lock()
	p.calls = append(p.calls, call)
	p.mu.Unlock()

	current := p.inFlight.Add(1)
	for {
		seen := p.maxInFlight.Load()
		if current <= seen || p.maxInFlight.CompareAndSwap(seen, current) {
			break
		}
	}

	time.Sleep(p.delay)

	return func() { p.inFlight.Add(-1) }
}

func (p *fakePage) Get(ctx context.Context, id string, _ *bc.QueryParams) (*record, error) {
	defer p.enter("get " + id)()

	if p.block {
		<-ctx.Done()

		return nil, ctx.Err()
	}

	if id == "missing" {
		return nil, bc.NewResponseError(404, map[string]interface{}{
			"error": map[string]interface{}{"code": "Internal_RecordNotFound", "message": "gone"},
		}, "")
	}

	return &record{ID: id}, nil
}

func (p *fakePage) List(context.Context, *bc.QueryParams, *bc.PaginationOptions) iter.Seq2[record, error] {
	return func(func(record, error) bool) {}
}

func (p *fakePage) FindOne(context.Context, *bc.QueryParams) (*record, error) {
	return nil, nil
}

func (p *fakePage) Create(_ context.Context, payload interface{}) (*record, error) {
	defer p.enter("create")()

	fields, _ := payload.(map[string]string)

	return &record{ID: "new", Name: fields["name"]}, nil
}

func (p *fakePage) Update(_ context.Context, id string, _ interface{}) (*record, error) {
	defer p.enter("update " + id)()

	return &record{ID: id, Name: "updated"}, nil
}

func (p *fakePage) Delete(_ context.Context, id string) error {
	defer p.enter("delete " + id)()

	return nil
}

func (p *fakePage) Action(_ context.Context, id, action string) error {
	defer p.enter("action " + id + " " + action)()

	return nil
}

func TestExecutor_Execute(t *testing.T) {
	t.Parallel()

	page := &fakePage{}
	operations := batch.NewBuilder().
		AddGet("g1", "a").
		AddGet("g2", "missing").
		AddCreate("c1", map[string]string{"name": "Adatum"}).
		AddUpdate("u1", "b", map[string]string{"name": "x"}).
		AddDelete("d1", "c").
		AddAction("a1", "d", bc.ActionPost).
		Add(batch.Operation{ID: "bad", Type: "merge"}).
		Build()

	results, err := batch.NewExecutor[record](page, 3).Execute(context.Background(), operations)
	require.NoError(t, err)
	require.Len(t, results, len(operations))

	for i, result := range results {
		assert.Equal(t, operations[i].ID, result.ID)
	}

	assert.True(t, results[0].Success)
	assert.Equal(t, "a", results[0].Data.ID)

	assert.False(t, results[1].Success)
	assert.True(t, bc.IsNotFound(results[1].Error))

	assert.Equal(t, "Adatum", results[2].Data.Name)
	assert.Equal(t, "updated", results[3].Data.Name)
	assert.True(t, results[4].Success)
	assert.Nil(t, results[4].Data)
	assert.True(t, results[5].Success)

	assert.False(t, results[6].Success)
	require.ErrorIs(t, results[6].Error, batch.ErrUnsupportedOperationType)

	failed := batch.Failed(results)
	require.Len(t, failed, 2)
	assert.Equal(t, "g2", failed[0].ID)
	assert.Equal(t, "bad", failed[1].ID)

	assert.Contains(t, page.calls, "action d post")
}

func TestExecutor_BoundsConcurrency(t *testing.T) {
	t.Parallel()

	page := &fakePage{delay: 20 * time.Millisecond}

	builder := batch.NewBuilder()
	for i := range 12 {
		builder.AddGet(string(rune('a'+i)), string(rune('a'+i)))
	}

	results, err := batch.NewExecutor[record](page, 4).Execute(context.Background(), builder.Build())
	require.NoError(t, err)
	assert.Empty(t, batch.Failed(results))
	assert.LessOrEqual(t, page.maxInFlight.Load(), int32(4))
	assert.Len(t, page.calls, 12)
}

func TestExecutor_CanceledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := batch.NewExecutor[record](&fakePage{}, 0).Execute(ctx, batch.NewBuilder().AddGet("g", "a").Build())
	require.ErrorIs(t, err, context.Canceled)
	assert.False(t, errors.Is(err, batch.ErrUnsupportedOperationType))
}

func TestExecutor_InterruptedBatchIdentifiesEveryFailure(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	operations := batch.NewBuilder().
		AddGet("g1", "a").
		AddGet("g2", "b").
		AddGet("g3", "c").
		Build()

	page := &fakePage{block: true}

	results, err := batch.NewExecutor[record](page, 1).Execute(ctx, operations)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.Len(t, results, len(operations))

	failed := batch.Failed(results)
	require.Len(t, failed, len(operations))

	for i, result := range results {
		assert.Equal(t, operations[i].ID, result.ID)
		assert.False(t, result.Success)
		assert.ErrorIs(t, result.Error, context.DeadlineExceeded)
	}

	assert.Less(t, len(page.calls), len(operations))
}
