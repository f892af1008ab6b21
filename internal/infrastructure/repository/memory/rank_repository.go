package memory

import (
	"context"
	"sort"

	"github.com/VictoryFairy/VictoryFairy-backend-sub000/internal/domain/rank"
)

type RankRepository struct {
	store *Store
}

func (r *RankRepository) GetForUpdate(_ context.Context, teamID, userID int64, year int) (rank.Record, bool, error) {
	var (
		record rank.Record
		exists bool
	)
	r.store.read(func(t *tables) {
		record, exists = t.ranks[rankKey{teamID: teamID, userID: userID, year: year}]
	})
	if !exists {
		record = rank.Record{TeamID: teamID, UserID: userID, ActiveYear: year}
	}
	return record, exists, nil
}

func (r *RankRepository) Save(_ context.Context, record rank.Record) error {
	return r.store.write(func(t *tables) error {
		t.ranks[rankKey{teamID: record.TeamID, userID: record.UserID, year: record.ActiveYear}] = record
		return nil
	})
}

func (r *RankRepository) ListByUser(_ context.Context, userID int64) ([]rank.Record, error) {
	out := make([]rank.Record, 0)
	r.store.read(func(t *tables) {
		for key, record := range t.ranks {
			if key.userID == userID {
				out = append(out, record)
			}
		}
	})
	sort.Slice(out, func(i, j int) bool {
		if out[i].TeamID != out[j].TeamID {
			return out[i].TeamID < out[j].TeamID
		}
		return out[i].ActiveYear < out[j].ActiveYear
	})
	return out, nil
}

func (r *RankRepository) ListUserIDs(_ context.Context) ([]int64, error) {
	seen := make(map[int64]struct{})
	r.store.read(func(t *tables) {
		for key := range t.ranks {
			seen[key.userID] = struct{}{}
		}
	})

	out := make([]int64, 0, len(seen))
	for userID := range seen {
		out = append(out, userID)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

func (r *RankRepository) DeleteByUser(_ context.Context, userID int64) error {
	return r.store.write(func(t *tables) error {
		for key := range t.ranks {
			if key.userID == userID {
				delete(t.ranks, key)
			}
		}
		return nil
	})
}
