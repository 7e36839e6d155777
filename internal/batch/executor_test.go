package batch

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeTxManager records transaction outcomes without a database.
type fakeTxManager struct {
	commits   int
	rollbacks int
}

func (f *fakeTxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := fn(ctx); err != nil {
		f.rollbacks++
		return err
	}
	f.commits++
	return nil
}

func TestRunWriteBatch_StopsAtFirstFailure(t *testing.T) {
	txm := &fakeTxManager{}
	e := NewExecutor(txm)

	var executed []string
	e.Register("step", func(ctx context.Context, params []any) (any, error) {
		name := params[0].(string)
		executed = append(executed, name)
		if name == "boom" {
			return nil, errors.New("exploded")
		}
		return name, nil
	})

	results, err := e.RunWriteBatch(context.Background(), []Request{
		{ID: "1", Type: "step", Params: []any{"a"}},
		{ID: "2", Type: "step", Params: []any{"boom"}},
		{ID: "3", Type: "step", Params: []any{"never"}},
	})
	require.Error(t, err)

	assert.Equal(t, []string{"a", "boom"}, executed)
	require.Len(t, results, 2)
	assert.True(t, results[0].Success)
	assert.False(t, results[1].Success)
	assert.Contains(t, results[1].Error, "exploded")
	assert.Equal(t, 1, txm.rollbacks)
	assert.Zero(t, txm.commits)
}

func TestRunWriteBatch_AllSucceedCommitsOnce(t *testing.T) {
	txm := &fakeTxManager{}
	e := NewExecutor(txm)
	e.Register("ok", func(ctx context.Context, params []any) (any, error) {
		return "done", nil
	})

	results, err := e.RunWriteBatch(context.Background(), []Request{
		{ID: "1", Type: "ok"},
		{ID: "2", Type: "ok"},
	})
	require.NoError(t, err)
	assert.Len(t, results, 2)
	assert.Equal(t, 1, txm.commits)
	assert.Zero(t, txm.rollbacks)
}

func TestRunWriteBatch_UnknownOpAbortsBeforeAnyWork(t *testing.T) {
	txm := &fakeTxManager{}
	e := NewExecutor(txm)

	ran := false
	e.Register("ok", func(ctx context.Context, params []any) (any, error) {
		ran = true
		return nil, nil
	})

	_, err := e.RunWriteBatch(context.Background(), []Request{
		{ID: "1", Type: "ok"},
		{ID: "2", Type: "missing"},
	})
	require.Error(t, err)
	assert.False(t, ran, "no op should run when the batch contains an unknown type")
	assert.Zero(t, txm.commits)
	assert.Zero(t, txm.rollbacks)
}

func TestRunReadBatch_PartialSuccess(t *testing.T) {
	e := NewExecutor(&fakeTxManager{})
	e.Register("read", func(ctx context.Context, params []any) (any, error) {
		if params[0].(bool) {
			return "value", nil
		}
		return nil, errors.New("read failed")
	})

	results := e.RunReadBatch(context.Background(), []Request{
		{ID: "1", Type: "read", Params: []any{true}},
		{ID: "2", Type: "read", Params: []any{false}},
		{ID: "3", Type: "unknown"},
		{ID: "4", Type: "read", Params: []any{true}},
	})
	require.Len(t, results, 4)
	assert.True(t, results[0].Success)
	assert.Equal(t, "value", results[0].Data)
	assert.False(t, results[1].Success)
	assert.False(t, results[2].Success)
	assert.Contains(t, results[2].Error, "unknown operation")
	assert.True(t, results[3].Success)
}

func TestRunDeleteBatch_SharesAtomicContract(t *testing.T) {
	txm := &fakeTxManager{}
	e := NewExecutor(txm)
	e.Register("del", func(ctx context.Context, params []any) (any, error) {
		return nil, errors.New("gone wrong")
	})

	results, err := e.RunDeleteBatch(context.Background(), []Request{
		{ID: "1", Type: "del"},
	})
	require.Error(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, 1, txm.rollbacks)
}
