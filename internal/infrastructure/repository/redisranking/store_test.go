package redisranking

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/VictoryFairy/VictoryFairy-backend-sub000/internal/domain/rank"
	"github.com/VictoryFairy/VictoryFairy-backend-sub000/internal/domain/ranking"
)

func newTestStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewStore(client), mr
}

func TestStore_SetScoresWritesEveryScope(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store, mr := newTestStore(t)

	require.NoError(t, store.SetScores(ctx, 7, map[string]float64{
		rank.ScopeTotal: 10030004,
		"1":             10030003,
	}))
	require.NoError(t, store.SetScores(ctx, 8, nil))

	score, err := mr.ZScore(ranking.Key(rank.ScopeTotal), "7")
	require.NoError(t, err)
	assert.Equal(t, float64(10030004), score)

	members, err := mr.ZMembers(ranking.Key("1"))
	require.NoError(t, err)
	assert.Equal(t, []string{"7"}, members)
}

func TestStore_RankAndRange(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store, _ := newTestStore(t)

	scores := map[int64]float64{1: 10000001, 2: 10030002, 3: 9970003, 4: 10060004}
	for userID, score := range scores {
		require.NoError(t, store.SetScore(ctx, rank.ScopeTotal, userID, score))
	}

	pos, ok, err := store.GetRank(ctx, rank.ScopeTotal, 2)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int64(1), pos)

	_, ok, err = store.GetRank(ctx, rank.ScopeTotal, 99)
	require.NoError(t, err)
	assert.False(t, ok)

	entries, err := store.GetRange(ctx, rank.ScopeTotal, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, []ranking.Entry{
		{UserID: 2, Score: 10030002, Rank: 1},
		{UserID: 1, Score: 10000001, Rank: 2},
	}, entries)

	all, err := store.GetRange(ctx, rank.ScopeTotal, 0, -5)
	require.NoError(t, err)
	require.Len(t, all, 4)
	assert.Equal(t, int64(4), all[0].UserID)
	assert.Equal(t, int64(3), all[3].UserID)
	assert.Equal(t, int64(3), all[3].Rank)
}

func TestStore_DeleteUser(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store, _ := newTestStore(t)

	require.NoError(t, store.SetScore(ctx, "10", 5, 10000001))
	require.NoError(t, store.DeleteUser(ctx, "10", 5))
	require.NoError(t, store.DeleteUser(ctx, "10", 5))

	entries, err := store.GetRange(ctx, "10", 0, -1)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestStore_RejectsForeignMembers(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store, mr := newTestStore(t)

	_, err := mr.ZAdd(ranking.Key("total"), 1, "not-a-user")
	require.NoError(t, err)

	_, err = store.GetRange(ctx, "total", 0, -1)
	require.Error(t, err)
}

func TestStore_PropagatesConnectionErrors(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store, mr := newTestStore(t)
	mr.Close()

	require.Error(t, store.SetScore(ctx, "total", 1, 1))
	_, _, err := store.GetRank(ctx, "total", 1)
	require.Error(t, err)
}
