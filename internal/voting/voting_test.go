package voting

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/likebot/core/kv"
	"github.com/m3rciful/likebot/internal/gate"
	"github.com/m3rciful/likebot/internal/likes"
)

// members answers membership from a set the test mutates.
type members struct {
	mu  sync.Mutex
	in  map[int64]bool
	err error
}

func (m *members) Check(_ context.Context, _ string, userID int64) gate.Verdict {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return gate.Unverified
	}
	if m.in[userID] {
		return gate.Member
	}
	return gate.NotMember
}

func (m *members) join(userID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.in[userID] = true
}

type fixture struct {
	engine  *Engine
	likes   *likes.Store
	members *members
	store   kv.Store
}

func newFixture(t *testing.T, store kv.Store) fixture {
	t.Helper()
	ls := likes.New(store)
	m := &members{in: map[int64]bool{}}
	return fixture{engine: New(ls, m), likes: ls, members: m, store: store}
}

func (f fixture) create(t *testing.T, ownerID int64) *likes.Like {
	t.Helper()
	like, err := f.likes.CreateLike(context.Background(), likes.Owner{ID: ownerID, DisplayName: "@owner"}, "Launch Promo")
	require.NoError(t, err)
	return like
}

func (f fixture) count(t *testing.T, id string) int {
	t.Helper()
	like, err := f.likes.Like(context.Background(), id)
	require.NoError(t, err)
	return like.Likes
}

func TestDoubleVote(t *testing.T) {
	f := newFixture(t, kv.NewMemory())
	like := f.create(t, 1)
	ctx := context.Background()

	res, err := f.engine.CastVote(ctx, 2, like.ID)
	require.NoError(t, err)
	assert.Equal(t, OK, res.Outcome)
	assert.Equal(t, 1, res.Like.Likes)

	res, err = f.engine.CastVote(ctx, 2, like.ID)
	require.NoError(t, err)
	assert.Equal(t, AlreadyVoted, res.Outcome)
	assert.Equal(t, 1, f.count(t, like.ID))
}

func TestCountMatchesVoteRecords(t *testing.T) {
	for name, store := range map[string]kv.Store{
		"memory": kv.NewMemory(),
		"redis":  redisStore(t),
	} {
		t.Run(name, func(t *testing.T) {
			f := newFixture(t, store)
			ctx := context.Background()
			a, b := f.create(t, 1), f.create(t, 1)

			votes := []struct {
				voter int64
				like  string
			}{{2, a.ID}, {3, a.ID}, {2, a.ID}, {2, b.ID}, {4, a.ID}, {3, a.ID}}
			for _, v := range votes {
				_, err := f.engine.CastVote(ctx, v.voter, v.like)
				require.NoError(t, err)
			}

			for _, like := range []*likes.Like{a, b} {
				records := 0
				for voter := int64(1); voter <= 4; voter++ {
					voted, err := f.likes.HasVoted(ctx, voter, like.ID)
					require.NoError(t, err)
					if voted {
						records++
					}
				}
				assert.Equal(t, records, f.count(t, like.ID))
			}
			assert.Equal(t, 3, f.count(t, a.ID))
			assert.Equal(t, 1, f.count(t, b.ID))
		})
	}
}

func TestGatedVote(t *testing.T) {
	f := newFixture(t, kv.NewMemory())
	ctx := context.Background()
	like := f.create(t, 1)
	// Binding set after the Like existed still gates it.
	require.NoError(t, f.likes.SetChannel(ctx, 1, "@mychan"))

	res, err := f.engine.CastVote(ctx, 5, like.ID)
	require.NoError(t, err)
	assert.Equal(t, NotSubscribed, res.Outcome)
	assert.Equal(t, "@mychan", res.Channel)
	assert.False(t, res.Unverified)
	assert.Zero(t, f.count(t, like.ID))

	f.members.join(5)
	res, err = f.engine.CastVote(ctx, 5, like.ID)
	require.NoError(t, err)
	assert.Equal(t, OK, res.Outcome)

	res, err = f.engine.CastVote(ctx, 5, like.ID)
	require.NoError(t, err)
	assert.Equal(t, AlreadyVoted, res.Outcome)
	assert.Equal(t, 1, f.count(t, like.ID))
}

func TestGateFailureFailsClosed(t *testing.T) {
	f := newFixture(t, kv.NewMemory())
	ctx := context.Background()
	like := f.create(t, 1)
	require.NoError(t, f.likes.SetChannel(ctx, 1, "@mychan"))
	f.members.err = errors.New("bot is not a member of the channel")

	res, err := f.engine.CastVote(ctx, 5, like.ID)
	require.NoError(t, err)
	assert.Equal(t, NotSubscribed, res.Outcome)
	assert.True(t, res.Unverified)
	assert.Zero(t, f.count(t, like.ID))
}

func TestUnknownLike(t *testing.T) {
	f := newFixture(t, kv.NewMemory())
	for _, id := range []string{"nope", "6f1c4c2e-5a43-4c8e-9a47-0a4a1f7c0a11"} {
		res, err := f.engine.CastVote(context.Background(), 5, id)
		require.NoError(t, err)
		assert.Equal(t, NotFound, res.Outcome)
	}
}

// racingStore lets a competing vote record land between the check and the write.
type racingStore struct {
	kv.Store
	once sync.Once
}

func (r *racingStore) SetNX(ctx context.Context, key string, value []byte) (bool, error) {
	r.once.Do(func() {
		_, _ = r.Store.SetNX(ctx, key, []byte(`{"voted_at":"2024-01-01T00:00:00Z"}`))
	})
	return r.Store.SetNX(ctx, key, value)
}

func TestLostRaceRollsBack(t *testing.T) {
	store := &racingStore{Store: kv.NewMemory()}
	f := newFixture(t, store)
	like := f.create(t, 1)

	res, err := f.engine.CastVote(context.Background(), 2, like.ID)
	require.NoError(t, err)
	assert.Equal(t, AlreadyVoted, res.Outcome)
	assert.Zero(t, f.count(t, like.ID))
}

type failingStore struct {
	kv.Store
}

func (failingStore) SetNX(context.Context, string, []byte) (bool, error) {
	return false, errors.New("connection reset")
}

func TestStoreFailurePropagates(t *testing.T) {
	f := newFixture(t, failingStore{Store: kv.NewMemory()})
	like := f.create(t, 1)

	_, err := f.engine.CastVote(context.Background(), 2, like.ID)
	assert.ErrorContains(t, err, "connection reset")
}

func redisStore(t *testing.T) kv.Store {
	t.Helper()
	mr := miniredis.RunT(t)
	store, err := kv.NewRedis(context.Background(), kv.RedisConfig{Addr: mr.Addr(), Prefix: "test:"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}
