package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sspzz/burn-stats/internal/models"
	"github.com/sspzz/burn-stats/internal/store"
)

func newMiniRedis(t *testing.T) (*Redis, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	r := NewRedis(mr.Addr(), 0)
	t.Cleanup(func() { _ = r.Close() })
	return r, mr
}

func TestRedisGetPut(t *testing.T) {
	r, mr := newMiniRedis(t)
	ctx := context.Background()

	require.NoError(t, r.Ping(ctx))

	_, err := r.Get(ctx, store.FlameLeaderboard)
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = r.WrittenAt(ctx, store.FlameLeaderboard)
	assert.ErrorIs(t, err, store.ErrNotFound)

	require.NoError(t, r.Put(ctx, store.FlameLeaderboard, []byte(`{"leaderboard":[]}`)))

	b, err := r.Get(ctx, store.FlameLeaderboard)
	require.NoError(t, err)
	assert.Equal(t, `{"leaderboard":[]}`, string(b))

	raw, err := mr.Get("burns:leaderboard/flame")
	require.NoError(t, err)
	assert.Equal(t, `{"leaderboard":[]}`, raw)
	assert.Zero(t, mr.TTL("burns:leaderboard/flame"))

	at, err := r.WrittenAt(ctx, store.FlameLeaderboard)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now(), at, time.Minute)
}

func TestRedisKeysAreIndependent(t *testing.T) {
	r, _ := newMiniRedis(t)
	ctx := context.Background()

	require.NoError(t, r.Put(ctx, store.FlameLeaderboard, []byte(`{"a":1}`)))
	require.NoError(t, r.Put(ctx, store.TreatBoxLeaderboard, []byte(`{"b":2}`)))

	a, err := r.Get(ctx, store.FlameLeaderboard)
	require.NoError(t, err)
	b, err := r.Get(ctx, store.TreatBoxLeaderboard)
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, string(a))
	assert.Equal(t, `{"b":2}`, string(b))
}

func TestRedisBackedGate(t *testing.T) {
	r, _ := newMiniRedis(t)
	g := &Gate{Blobs: r, Window: 20 * time.Minute}
	ctx := context.Background()

	assert.False(t, g.Check(ctx, store.ShameList, now).Present)

	require.NoError(t, g.Save(ctx, store.ShameList, &models.ShameData{Owners: []models.OwnerData{}}, now))

	st := g.Check(ctx, store.ShameList, now.Add(5*time.Minute))
	assert.True(t, st.Fresh)
	st = g.Check(ctx, store.ShameList, now.Add(25*time.Minute))
	assert.True(t, st.Present)
	assert.False(t, st.Fresh)
}

func TestRedisUnavailable(t *testing.T) {
	r, mr := newMiniRedis(t)
	mr.Close()

	_, err := r.Get(context.Background(), store.ShameList)
	require.Error(t, err)
	assert.NotErrorIs(t, err, store.ErrNotFound)
}
