package redisranking

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/VictoryFairy/VictoryFairy-backend-sub000/internal/domain/ranking"
)

// Store keeps one sorted set per leaderboard scope under ranking:<scope>.
// Members are decimal user ids, so equal scores order by member text.
type Store struct {
	client redis.UniversalClient
}

var _ ranking.Store = (*Store)(nil)

func NewStore(client redis.UniversalClient) *Store {
	return &Store{client: client}
}

func (s *Store) SetScore(ctx context.Context, scope string, userID int64, score float64) error {
	if err := s.client.ZAdd(ctx, ranking.Key(scope), redis.Z{Score: score, Member: member(userID)}).Err(); err != nil {
		return fmt.Errorf("zadd %s user=%d: %w", ranking.Key(scope), userID, err)
	}
	return nil
}

// SetScores writes every scope of one user in a single MULTI/EXEC round trip.
func (s *Store) SetScores(ctx context.Context, userID int64, scores map[string]float64) error {
	if len(scores) == 0 {
		return nil
	}

	pipe := s.client.TxPipeline()
	for scope, score := range scores {
		pipe.ZAdd(ctx, ranking.Key(scope), redis.Z{Score: score, Member: member(userID)})
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("zadd %d scopes user=%d: %w", len(scores), userID, err)
	}
	return nil
}

func (s *Store) GetRank(ctx context.Context, scope string, userID int64) (int64, bool, error) {
	pos, err := s.client.ZRevRank(ctx, ranking.Key(scope), member(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("zrevrank %s user=%d: %w", ranking.Key(scope), userID, err)
	}
	return pos, true, nil
}

// GetRange returns positions start..end inclusive. A negative end reads to the last member.
func (s *Store) GetRange(ctx context.Context, scope string, start, end int64) ([]ranking.Entry, error) {
	start = max(start, 0)
	if end < 0 {
		end = -1
	}

	items, err := s.client.ZRevRangeWithScores(ctx, ranking.Key(scope), start, end).Result()
	if err != nil {
		return nil, fmt.Errorf("zrevrange %s %d..%d: %w", ranking.Key(scope), start, end, err)
	}

	out := make([]ranking.Entry, 0, len(items))
	for idx, item := range items {
		raw, ok := item.Member.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected member type %T in %s", item.Member, ranking.Key(scope))
		}
		userID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parse member %q in %s: %w", raw, ranking.Key(scope), err)
		}
		out = append(out, ranking.Entry{
			UserID: userID,
			Score:  item.Score,
			Rank:   start + int64(idx),
		})
	}
	return out, nil
}

func (s *Store) DeleteUser(ctx context.Context, scope string, userID int64) error {
	if err := s.client.ZRem(ctx, ranking.Key(scope), member(userID)).Err(); err != nil {
		return fmt.Errorf("zrem %s user=%d: %w", ranking.Key(scope), userID, err)
	}
	return nil
}

func member(userID int64) string {
	return strconv.FormatInt(userID, 10)
}
