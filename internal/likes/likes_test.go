package likes

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/likebot/core/kv"
)

var fixedNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func newStore(t *testing.T, opts ...Option) (*Store, kv.Store) {
	t.Helper()
	mem := kv.NewMemory()
	return New(mem, append([]Option{WithClock(func() time.Time { return fixedNow })}, opts...)...), mem
}

func TestCreateLikePersistsAndIndexes(t *testing.T) {
	s, mem := newStore(t)
	ctx := context.Background()

	like, err := s.CreateLike(ctx, Owner{ID: 7, DisplayName: "@ann"}, "  Launch Promo ")
	require.NoError(t, err)
	assert.True(t, ValidID(like.ID))
	assert.Equal(t, "Launch Promo", like.Name)
	assert.Equal(t, 0, like.Likes)
	assert.Equal(t, fixedNow, like.CreatedAt)

	got, err := s.Like(ctx, like.ID)
	require.NoError(t, err)
	assert.Equal(t, like, got)

	ids, err := s.OwnerLikes(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, []string{like.ID}, ids)

	raw, err := mem.Get(ctx, LikeKey(like.ID))
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"`+like.ID+`","name":"Launch Promo","owner_id":7,"owner_name":"@ann","created_at":"2024-05-01T12:00:00Z","likes":0}`, string(raw))
}

func TestCreateLikeRejectsInvalidNames(t *testing.T) {
	s, _ := newStore(t, WithMaxNameLength(5))
	ctx := context.Background()

	_, err := s.CreateLike(ctx, Owner{ID: 1}, "   ")
	assert.ErrorIs(t, err, ErrInvalidName)
	_, err = s.CreateLike(ctx, Owner{ID: 1}, "toolong")
	assert.ErrorIs(t, err, ErrInvalidName)
	_, err = s.CreateLike(ctx, Owner{ID: 1}, "héllo")
	assert.NoError(t, err)

	ids, err := s.OwnerLikes(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, ids, 1)
}

func TestLikeNotFound(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()

	for _, id := range []string{"", "garbage", "like_1700000000_5", "{6f1c4c2e-5a43-4c8e-9a47-0a4a1f7c0a11}", "6f1c4c2e-5a43-4c8e-9a47-0a4a1f7c0a11"} {
		_, err := s.Like(ctx, id)
		assert.ErrorIs(t, err, ErrNotFound, id)
	}
}

func TestChannelBinding(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()

	_, ok, err := s.Channel(ctx, 3)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.SetChannel(ctx, 3, "@first"))
	require.NoError(t, s.SetChannel(ctx, 3, "@second"))
	handle, ok, err := s.Channel(ctx, 3)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "@second", handle)
}

func TestRecordVoteIsSetIfAbsent(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()
	id := "6f1c4c2e-5a43-4c8e-9a47-0a4a1f7c0a11"

	voted, err := s.HasVoted(ctx, 9, id)
	require.NoError(t, err)
	assert.False(t, voted)

	wrote, err := s.RecordVote(ctx, 9, id, fixedNow)
	require.NoError(t, err)
	assert.True(t, wrote)

	wrote, err = s.RecordVote(ctx, 9, id, fixedNow.Add(time.Minute))
	require.NoError(t, err)
	assert.False(t, wrote)

	voted, err = s.HasVoted(ctx, 9, id)
	require.NoError(t, err)
	assert.True(t, voted)
}

func TestStatsNewestFirstSkipsMissing(t *testing.T) {
	s, mem := newStore(t)
	ctx := context.Background()

	var ids []string
	for _, name := range []string{"one", "two", "three", "four"} {
		like, err := s.CreateLike(ctx, Owner{ID: 5}, name)
		require.NoError(t, err)
		ids = append(ids, like.ID)
	}
	require.NoError(t, mem.Delete(ctx, LikeKey(ids[2])))

	st, err := s.Stats(ctx, 5, 2)
	require.NoError(t, err)
	assert.Equal(t, 4, st.Total)
	require.Len(t, st.Recent, 2)
	assert.Equal(t, "four", st.Recent[0].Name)
	assert.Equal(t, "two", st.Recent[1].Name)

	empty, err := s.Stats(ctx, 99, 5)
	require.NoError(t, err)
	assert.Zero(t, empty.Total)
	assert.Empty(t, empty.Recent)
}

func TestKeys(t *testing.T) {
	assert.Equal(t, "like:abc", LikeKey("abc"))
	assert.Equal(t, "user_channel:12", ChannelKey(12))
	assert.Equal(t, "user_likes:12", IndexKey(12))
	assert.Equal(t, "user_liked:3:abc", VoteKey(3, "abc"))
}
