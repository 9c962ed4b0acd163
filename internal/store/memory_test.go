package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"example.com/recipes/internal/recipe"
)

func TestMemoryListOrdersByPosition(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	require.NoError(t, m.Save(ctx, "t1", "u1", recipe.Recipe{ID: "b", Title: "second", Order: 1}))
	require.NoError(t, m.Save(ctx, "t1", "u1", recipe.Recipe{ID: "a", Title: "first", Order: 0}))
	require.NoError(t, m.Save(ctx, "t1", "u1", recipe.Recipe{ID: "c", Title: "also first", Order: 0}))

	recs, err := m.List(ctx, "t1", "u1")
	require.NoError(t, err)
	require.Len(t, recs, 3)
	require.Equal(t, "a", recs[0].ID)
	require.Equal(t, "c", recs[1].ID, "equal positions fall back to ID order")
	require.Equal(t, "b", recs[2].ID)
}

func TestMemoryIsolatesUsersAndTenants(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	require.NoError(t, m.Save(ctx, "t1", "u1", recipe.Recipe{ID: "r1", Title: "mine"}))

	_, err := m.Get(ctx, "t1", "u2", "r1")
	require.ErrorIs(t, err, recipe.ErrNotFound)

	_, err = m.Get(ctx, "t2", "u1", "r1")
	require.ErrorIs(t, err, recipe.ErrNotFound)
}

func TestMemorySaveAssignsID(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	require.NoError(t, m.Save(ctx, "t1", "u1", recipe.Recipe{Title: "no id"}))

	recs, err := m.List(ctx, "t1", "u1")
	require.NoError(t, err)
	require.Len(t, recs, 1)
	require.NotEmpty(t, recs[0].ID)
}

func TestMemoryDelete(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	require.NoError(t, m.Save(ctx, "t1", "u1", recipe.Recipe{ID: "r1"}))
	require.NoError(t, m.Delete(ctx, "t1", "u1", "r1"))
	require.ErrorIs(t, m.Delete(ctx, "t1", "u1", "r1"), recipe.ErrNotFound)
}

func TestMemoryDeleteUser(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	require.NoError(t, m.Save(ctx, "t1", "u1", recipe.Recipe{ID: "r1"}))
	require.NoError(t, m.Save(ctx, "t1", "u2", recipe.Recipe{ID: "r2"}))

	require.NoError(t, m.DeleteUser(ctx, "t1", "u1"))

	recs, err := m.List(ctx, "t1", "u1")
	require.NoError(t, err)
	require.Empty(t, recs)

	recs, err = m.List(ctx, "t1", "u2")
	require.NoError(t, err)
	require.Len(t, recs, 1)
}
