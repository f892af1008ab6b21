package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/VictoryFairy/VictoryFairy-backend-sub000/internal/domain/ranking"
)

// RankingStore is an in-process leaderboard with sorted-set semantics:
// descending by score, ties ordered by descending user id.
type RankingStore struct {
	mu     sync.RWMutex
	scopes map[string]map[int64]float64
}

func NewRankingStore() *RankingStore {
	return &RankingStore{scopes: make(map[string]map[int64]float64)}
}

func (s *RankingStore) SetScore(_ context.Context, scope string, userID int64, score float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.setLocked(scope, userID, score)
	return nil
}

func (s *RankingStore) SetScores(_ context.Context, userID int64, scores map[string]float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for scope, score := range scores {
		s.setLocked(scope, userID, score)
	}
	return nil
}

func (s *RankingStore) GetRank(_ context.Context, scope string, userID int64) (int64, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for idx, entry := range s.sortedLocked(scope) {
		if entry.UserID == userID {
			return int64(idx), true, nil
		}
	}
	return 0, false, nil
}

func (s *RankingStore) GetRange(_ context.Context, scope string, start, end int64) ([]ranking.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sorted := s.sortedLocked(scope)
	size := int64(len(sorted))
	if end < 0 || end >= size {
		end = size - 1
	}
	if start < 0 {
		start = 0
	}
	if start > end {
		return []ranking.Entry{}, nil
	}
	return sorted[start : end+1], nil
}

func (s *RankingStore) DeleteUser(_ context.Context, scope string, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.scopes[scope], userID)
	return nil
}

func (s *RankingStore) setLocked(scope string, userID int64, score float64) {
	members, ok := s.scopes[scope]
	if !ok {
		members = make(map[int64]float64)
		s.scopes[scope] = members
	}
	members[userID] = score
}

func (s *RankingStore) sortedLocked(scope string) []ranking.Entry {
	members := s.scopes[scope]
	out := make([]ranking.Entry, 0, len(members))
	for userID, score := range members {
		out = append(out, ranking.Entry{UserID: userID, Score: score})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].UserID > out[j].UserID
	})
	for idx := range out {
		out[idx].Rank = int64(idx)
	}
	return out
}
