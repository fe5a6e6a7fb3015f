package dialog

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/likebot/core/kv"
	"github.com/m3rciful/likebot/core/telegram/state"
	"github.com/m3rciful/likebot/internal/likes"
)

type fixture struct {
	m     *Machine
	likes *likes.Store
	store kv.Store
}

func newFixture() fixture {
	store := kv.NewMemory()
	ls := likes.New(store)
	return fixture{m: New(state.NewManager(store), ls), likes: ls, store: store}
}

var ann = likes.Owner{ID: 42, DisplayName: "@ann"}

func TestNormalizeChannel(t *testing.T) {
	cases := map[string]string{
		"mychan":              "@mychan",
		"@mychan":             "@mychan",
		"  @mychan  ":         "@mychan",
		"https://t.me/mychan": "@mychan",
		"t.me/mychan/":        "@mychan",
		"канал":               "@канал",
	}
	for in, want := range cases {
		got, err := NormalizeChannel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	for _, in := range []string{"", "ab", "@ab", "  @a ", "t.me/ab"} {
		_, err := NormalizeChannel(in)
		assert.ErrorIs(t, err, ErrInvalidChannel, in)
	}
}

func TestCreateLikeFlow(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	require.NoError(t, f.m.BeginLikeCreation(ctx, ann.ID))
	st, err := f.m.Current(ctx, ann.ID)
	require.NoError(t, err)
	assert.Equal(t, AwaitingLikeName, st)

	res, err := f.m.Submit(ctx, Input{Owner: ann, Text: "Launch Promo"})
	require.NoError(t, err)
	assert.Equal(t, LikeCreated, res.Kind)
	assert.Equal(t, AwaitingLikeName, res.State)
	require.NotNil(t, res.Like)
	assert.Equal(t, "Launch Promo", res.Like.Name)
	assert.Zero(t, res.Like.Likes)

	ids, err := f.likes.OwnerLikes(ctx, ann.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{res.Like.ID}, ids)

	st, err = f.m.Current(ctx, ann.ID)
	require.NoError(t, err)
	assert.Equal(t, state.StateIdle, st)
}

func TestEmptyLikeNameKeepsState(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	require.NoError(t, f.m.BeginLikeCreation(ctx, ann.ID))

	res, err := f.m.Submit(ctx, Input{Owner: ann, Text: "   "})
	require.NoError(t, err)
	assert.Equal(t, Invalid, res.Kind)
	assert.ErrorIs(t, res.Err, likes.ErrInvalidName)

	busy, err := f.m.InProgress(ctx, ann.ID)
	require.NoError(t, err)
	assert.True(t, busy)
}

func TestChannelValidationRetry(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	require.NoError(t, f.m.BeginChannelSettings(ctx, ann.ID))

	res, err := f.m.Submit(ctx, Input{Owner: ann, Text: "ab"})
	require.NoError(t, err)
	assert.Equal(t, Invalid, res.Kind)
	assert.ErrorIs(t, res.Err, ErrInvalidChannel)

	st, err := f.m.Current(ctx, ann.ID)
	require.NoError(t, err)
	assert.Equal(t, AwaitingChannelName, st)
	_, bound, err := f.likes.Channel(ctx, ann.ID)
	require.NoError(t, err)
	assert.False(t, bound)

	res, err = f.m.Submit(ctx, Input{Owner: ann, Text: "abc"})
	require.NoError(t, err)
	assert.Equal(t, ChannelBound, res.Kind)
	assert.Equal(t, "@abc", res.Channel)

	handle, bound, err := f.likes.Channel(ctx, ann.ID)
	require.NoError(t, err)
	assert.True(t, bound)
	assert.Equal(t, "@abc", handle)

	st, err = f.m.Current(ctx, ann.ID)
	require.NoError(t, err)
	assert.Equal(t, state.StateIdle, st)
}

func TestIdleTextIgnored(t *testing.T) {
	f := newFixture()
	res, err := f.m.Submit(context.Background(), Input{Owner: ann, Text: "hello"})
	require.NoError(t, err)
	assert.Equal(t, Ignored, res.Kind)

	ids, err := f.likes.OwnerLikes(context.Background(), ann.ID)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestNewExpectationReplacesOld(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	require.NoError(t, f.m.BeginLikeCreation(ctx, ann.ID))
	require.NoError(t, f.m.BeginChannelSettings(ctx, ann.ID))

	res, err := f.m.Submit(ctx, Input{Owner: ann, Text: "mychan"})
	require.NoError(t, err)
	assert.Equal(t, ChannelBound, res.Kind)

	ids, err := f.likes.OwnerLikes(ctx, ann.ID)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestResetAndUnknownState(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	require.NoError(t, f.m.BeginLikeCreation(ctx, ann.ID))
	require.NoError(t, f.m.Reset(ctx, ann.ID))
	busy, err := f.m.InProgress(ctx, ann.ID)
	require.NoError(t, err)
	assert.False(t, busy)

	require.NoError(t, kv.SetJSON(ctx, f.store, state.Key(ann.ID), "waiting_like_name"))
	res, err := f.m.Submit(ctx, Input{Owner: ann, Text: "x"})
	require.NoError(t, err)
	assert.Equal(t, Ignored, res.Kind)
	busy, err = f.m.InProgress(ctx, ann.ID)
	require.NoError(t, err)
	assert.False(t, busy)
}
