package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/VictoryFairy/VictoryFairy-backend-sub000/internal/domain/stadium"
)

type StadiumRepository struct {
	mu       sync.RWMutex
	stadiums map[int64]stadium.Stadium
	nextID   int64
}

func NewStadiumRepository(stadiums []stadium.Stadium) *StadiumRepository {
	byID := make(map[int64]stadium.Stadium, len(stadiums))
	var maxID int64
	for _, item := range stadiums {
		byID[item.ID] = item
		maxID = max(maxID, item.ID)
	}

	return &StadiumRepository{stadiums: byID, nextID: maxID}
}

func (r *StadiumRepository) List(_ context.Context) ([]stadium.Stadium, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]stadium.Stadium, 0, len(r.stadiums))
	for _, item := range r.stadiums {
		out = append(out, item)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })

	return out, nil
}

func (r *StadiumRepository) GetByID(_ context.Context, stadiumID int64) (stadium.Stadium, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.stadiums[stadiumID]
	return item, ok, nil
}

// CreateByName returns the stadium with that name, creating it when missing.
func (r *StadiumRepository) CreateByName(_ context.Context, name string) (stadium.Stadium, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return stadium.Stadium{}, fmt.Errorf("stadium name is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, item := range r.stadiums {
		if item.Name == name {
			return item, nil
		}
	}
	r.nextID++
	item := stadium.Stadium{ID: r.nextID, Name: name, FullName: name}
	r.stadiums[item.ID] = item
	return item, nil
}
