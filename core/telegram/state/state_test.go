package state

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/likebot/core/kv"
)

const awaitingName State = "awaiting_like_name"

func TestManagerLifecycle(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemory()
	m := NewManager(store)

	st, err := m.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, StateIdle, st)

	require.NoError(t, m.Set(ctx, 1, awaitingName))
	raw, err := store.Get(ctx, "user_state:1")
	require.NoError(t, err)
	assert.Equal(t, `"awaiting_like_name"`, string(raw))

	busy, err := m.InProgress(ctx, 1)
	require.NoError(t, err)
	assert.True(t, busy)

	require.NoError(t, m.Set(ctx, 1, StateIdle))
	busy, err = m.InProgress(ctx, 1)
	require.NoError(t, err)
	assert.False(t, busy)

	require.NoError(t, m.Clear(ctx, 99))
}

func TestManagerIsolatesUsers(t *testing.T) {
	ctx := context.Background()
	m := NewManager(kv.NewMemory())
	require.NoError(t, m.Set(ctx, 1, awaitingName))
	st, err := m.Get(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, StateIdle, st)
}

func TestSteps(t *testing.T) {
	steps := NewSteps[string, int]()
	steps.Register(awaitingName, func(_ context.Context, in string) (int, error) { return len(in), nil })
	steps.Register(StateIdle, func(context.Context, string) (int, error) { return -1, nil })
	steps.Register("nil", nil)

	step, ok := steps.Lookup(awaitingName)
	require.True(t, ok)
	n, err := step(context.Background(), "abc")
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	_, ok = steps.Lookup(StateIdle)
	assert.False(t, ok)
	_, ok = steps.Lookup("nil")
	assert.False(t, ok)
}
