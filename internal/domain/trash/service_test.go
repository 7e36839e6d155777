package trash

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRepo struct {
	items map[string]*Item
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{items: make(map[string]*Item)}
}

func (r *fakeRepo) Insert(ctx context.Context, item *Item) error {
	r.items[item.ID] = item
	return nil
}

func (r *fakeRepo) GetByID(ctx context.Context, id string) (*Item, error) {
	item, ok := r.items[id]
	if !ok {
		return nil, errors.New("not found")
	}
	return item, nil
}

func (r *fakeRepo) Delete(ctx context.Context, id string) error {
	delete(r.items, id)
	return nil
}

func (r *fakeRepo) List(ctx context.Context) ([]*Item, error) {
	out := make([]*Item, 0, len(r.items))
	for _, item := range r.items {
		out = append(out, item)
	}
	return out, nil
}

type passthroughTx struct{}

func (passthroughTx) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func TestCheckHandlers_RequiresAllEntityTypes(t *testing.T) {
	s := NewService(newFakeRepo(), passthroughTx{})
	require.Error(t, s.CheckHandlers())

	for _, et := range AllEntityTypes {
		s.Register(et, Handler{})
	}
	assert.NoError(t, s.CheckHandlers())
}

func TestSoftDelete_UnknownEntityType(t *testing.T) {
	s := NewService(newFakeRepo(), passthroughTx{})
	_, err := s.SoftDelete(context.Background(), EntityType("widget"), 1)
	require.Error(t, err)
}

func TestSoftDeleteThenRestore(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepo()
	s := NewService(repo, passthroughTx{})

	deleted := false
	var restoredData json.RawMessage
	s.Register(EntityCompany, Handler{
		Snapshot: func(ctx context.Context, id int64) (json.RawMessage, error) {
			return json.RawMessage(`{"id":7,"name":"Acme"}`), nil
		},
		Delete: func(ctx context.Context, id int64) error {
			deleted = true
			return nil
		},
		Restore: func(ctx context.Context, data json.RawMessage) error {
			restoredData = data
			return nil
		},
	})

	item, err := s.SoftDelete(ctx, EntityCompany, 7)
	require.NoError(t, err)
	assert.True(t, deleted)
	assert.Equal(t, int64(7), item.EntityID)
	assert.Len(t, repo.items, 1)

	require.NoError(t, s.Restore(ctx, item.ID))
	assert.JSONEq(t, `{"id":7,"name":"Acme"}`, string(restoredData))
	assert.Empty(t, repo.items, "restore consumes the envelope")
}

func TestSoftDelete_DeleteFailureKeepsNothing(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepo()
	s := NewService(repo, passthroughTx{})

	s.Register(EntityMaterial, Handler{
		Snapshot: func(ctx context.Context, id int64) (json.RawMessage, error) {
			return json.RawMessage(`{}`), nil
		},
		Delete: func(ctx context.Context, id int64) error {
			return errors.New("row is referenced")
		},
	})

	_, err := s.SoftDelete(ctx, EntityMaterial, 3)
	require.Error(t, err)
}

func TestEmptyTrash(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepo()
	s := NewService(repo, passthroughTx{})

	for i := 0; i < 3; i++ {
		require.NoError(t, repo.Insert(ctx, NewItem(EntityCompany, int64(i), json.RawMessage(`{}`))))
	}

	n, err := s.EmptyTrash(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Empty(t, repo.items)
}
