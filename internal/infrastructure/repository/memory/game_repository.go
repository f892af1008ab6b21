package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/VictoryFairy/VictoryFairy-backend-sub000/internal/domain/game"
)

type GameRepository struct {
	store *Store
}

func (r *GameRepository) GetByID(_ context.Context, id string) (game.Game, bool, error) {
	var (
		item   game.Game
		exists bool
	)
	r.store.read(func(t *tables) {
		item, exists = t.games[id]
	})
	return item, exists, nil
}

func (r *GameRepository) ListByDateRange(_ context.Context, from, to time.Time) ([]game.Game, error) {
	fromDay, toDay := dateKey(from), dateKey(to)

	out := make([]game.Game, 0)
	r.store.read(func(t *tables) {
		for _, item := range t.games {
			day := dateKey(item.Date)
			if day < fromDay || day > toDay {
				continue
			}
			out = append(out, item)
		}
	})

	sort.Slice(out, func(i, j int) bool {
		if di, dj := dateKey(out[i].Date), dateKey(out[j].Date); di != dj {
			return di < dj
		}
		if out[i].Time != out[j].Time {
			return out[i].Time < out[j].Time
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *GameRepository) Upsert(_ context.Context, games []game.Game) error {
	return r.store.write(func(t *tables) error {
		for _, item := range games {
			if item.ID == "" {
				return fmt.Errorf("game id is required")
			}
			t.games[item.ID] = item
		}
		return nil
	})
}

func (r *GameRepository) Save(_ context.Context, g game.Game) error {
	return r.store.write(func(t *tables) error {
		if _, ok := t.games[g.ID]; !ok {
			return fmt.Errorf("game %s not found", g.ID)
		}
		t.games[g.ID] = g
		return nil
	})
}

// Rename moves a game to a new id and repoints its attendance records.
func (r *GameRepository) Rename(_ context.Context, fromID, toID string) error {
	return r.store.write(func(t *tables) error {
		item, ok := t.games[fromID]
		if !ok {
			return fmt.Errorf("game %s not found", fromID)
		}
		if _, taken := t.games[toID]; taken {
			return fmt.Errorf("game %s already exists", toID)
		}

		delete(t.games, fromID)
		item.ID = toID
		t.games[toID] = item

		for id, record := range t.attendance {
			if record.GameID == fromID {
				record.GameID = toID
				t.attendance[id] = record
			}
		}
		return nil
	})
}

// dateKey compares calendar dates independent of the time zone they carry.
func dateKey(t time.Time) string {
	return t.Format(time.DateOnly)
}
