package store

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robalobadob/priceguess/internal/game"
)

func newRound(t *testing.T) *game.Round {
	t.Helper()
	e := game.NewEngine(nil)
	r := e.StartRound(game.Product{ID: "kettle", Name: "Kettle", ImageRef: "k.jpg", Price: decimal.RequireFromString("34.99")})
	_, err := e.Submit("30")
	require.NoError(t, err)
	return r
}

func exercise(t *testing.T, st Store) {
	ctx := context.Background()
	r := newRound(t)

	require.NoError(t, st.Save(ctx, "alice", r))

	got, err := st.Get(ctx, "alice", r.ID)
	require.NoError(t, err)
	assert.Equal(t, r.ID, got.ID)
	assert.Equal(t, "kettle", got.Target.ID)
	assert.True(t, r.Target.Price.Equal(got.Target.Price))
	require.Len(t, got.Attempts, 1)
	assert.Equal(t, game.FeedbackHigher, got.Attempts[0].Feedback)
	assert.Equal(t, game.OutcomeInProgress, got.Outcome)

	_, err = st.Get(ctx, "bob", r.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	// Mutating the returned copy does not change the stored round.
	_, err = got.Submit(decimal.RequireFromString("34.99"))
	require.NoError(t, err)
	again, err := st.Get(ctx, "alice", r.ID)
	require.NoError(t, err)
	assert.Len(t, again.Attempts, 1)

	require.NoError(t, st.Save(ctx, "alice", got))
	again, err = st.Get(ctx, "alice", r.ID)
	require.NoError(t, err)
	assert.Equal(t, game.OutcomeWon, again.Outcome)

	require.NoError(t, st.Delete(ctx, "alice", r.ID))
	_, err = st.Get(ctx, "alice", r.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, st.Delete(ctx, "alice", r.ID))
}

func TestMemoryStore(t *testing.T) {
	exercise(t, NewMemoryStore(time.Hour))
}

func TestMemoryStoreExpiry(t *testing.T) {
	now := time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC)
	m := newMemory(time.Minute, func() time.Time { return now })
	ctx := context.Background()
	r := newRound(t)
	require.NoError(t, m.Save(ctx, "alice", r))

	now = now.Add(59 * time.Second)
	_, err := m.Get(ctx, "alice", r.ID)
	require.NoError(t, err)

	now = now.Add(time.Second)
	_, err = m.Get(ctx, "alice", r.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	// The next save prunes the expired entry.
	require.NoError(t, m.Save(ctx, "bob", newRound(t)))
	assert.Len(t, m.rounds, 1)
}

func TestMemoryStoreSweepIsThrottled(t *testing.T) {
	now := time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC)
	m := newMemory(time.Second, func() time.Time { return now })
	ctx := context.Background()

	require.NoError(t, m.Save(ctx, "alice", newRound(t)))
	now = now.Add(2 * time.Second)

	// Within sweepEvery of the first sweep the expired round lingers, hidden.
	require.NoError(t, m.Save(ctx, "bob", newRound(t)))
	assert.Len(t, m.rounds, 2)

	now = now.Add(sweepEvery)
	require.NoError(t, m.Save(ctx, "carol", newRound(t)))
	assert.Len(t, m.rounds, 1)
}

func TestRedisStore(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	exercise(t, NewRedisStore(rdb, time.Hour))
}

func TestRedisStoreExpiry(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	st := NewRedisStore(rdb, time.Minute)
	ctx := context.Background()
	r := newRound(t)
	require.NoError(t, st.Save(ctx, "alice", r))
	assert.True(t, mr.Exists(redisPrefix+"alice|"+r.ID))

	mr.FastForward(2 * time.Minute)
	_, err := st.Get(ctx, "alice", r.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}
