package cache

import (
	"context"
	"strconv"

	"github.com/VictoryFairy/VictoryFairy-backend-sub000/internal/domain/stadium"
	"github.com/VictoryFairy/VictoryFairy-backend-sub000/internal/domain/team"
	basecache "github.com/VictoryFairy/VictoryFairy-backend-sub000/internal/platform/cache"
)

const (
	teamListKey    = "team:list"
	teamIDPrefix   = "team:id:"
	stadiumPrefix  = "stadium:"
	stadiumListKey = stadiumPrefix + "list"
	stadiumIDKey   = stadiumPrefix + "id:"
)

type TeamRepository struct {
	next  team.Repository
	cache *basecache.Store
}

func NewTeamRepository(next team.Repository, cache *basecache.Store) *TeamRepository {
	return &TeamRepository{next: next, cache: cache}
}

func (r *TeamRepository) List(ctx context.Context) ([]team.Team, error) {
	v, err := r.cache.GetOrLoad(ctx, teamListKey, func(ctx context.Context) (any, error) {
		items, err := r.next.List(ctx)
		if err != nil {
			return nil, err
		}
		return append([]team.Team(nil), items...), nil
	})
	if err != nil {
		return nil, err
	}

	items, _ := v.([]team.Team)
	return append([]team.Team(nil), items...), nil
}

func (r *TeamRepository) GetByID(ctx context.Context, teamID int64) (team.Team, bool, error) {
	key := teamIDPrefix + strconv.FormatInt(teamID, 10)
	v, err := r.cache.GetOrLoad(ctx, key, func(ctx context.Context) (any, error) {
		item, exists, err := r.next.GetByID(ctx, teamID)
		if err != nil {
			return nil, err
		}
		return cachedTeamByID{value: item, exists: exists}, nil
	})
	if err != nil {
		return team.Team{}, false, err
	}

	cached, _ := v.(cachedTeamByID)
	return cached.value, cached.exists, nil
}

type cachedTeamByID struct {
	value  team.Team
	exists bool
}

type StadiumRepository struct {
	next  stadium.Repository
	cache *basecache.Store
}

func NewStadiumRepository(next stadium.Repository, cache *basecache.Store) *StadiumRepository {
	return &StadiumRepository{next: next, cache: cache}
}

func (r *StadiumRepository) List(ctx context.Context) ([]stadium.Stadium, error) {
	v, err := r.cache.GetOrLoad(ctx, stadiumListKey, func(ctx context.Context) (any, error) {
		items, err := r.next.List(ctx)
		if err != nil {
			return nil, err
		}
		return append([]stadium.Stadium(nil), items...), nil
	})
	if err != nil {
		return nil, err
	}

	items, _ := v.([]stadium.Stadium)
	return append([]stadium.Stadium(nil), items...), nil
}

func (r *StadiumRepository) GetByID(ctx context.Context, stadiumID int64) (stadium.Stadium, bool, error) {
	key := stadiumIDKey + strconv.FormatInt(stadiumID, 10)
	v, err := r.cache.GetOrLoad(ctx, key, func(ctx context.Context) (any, error) {
		item, exists, err := r.next.GetByID(ctx, stadiumID)
		if err != nil {
			return nil, err
		}
		return cachedStadiumByID{value: item, exists: exists}, nil
	})
	if err != nil {
		return stadium.Stadium{}, false, err
	}

	cached, _ := v.(cachedStadiumByID)
	return cached.value, cached.exists, nil
}

// CreateByName always reaches the store and drops every cached stadium entry,
// including a cached miss for the new id.
func (r *StadiumRepository) CreateByName(ctx context.Context, name string) (stadium.Stadium, error) {
	item, err := r.next.CreateByName(ctx, name)
	if err != nil {
		return stadium.Stadium{}, err
	}
	r.cache.DeletePrefix(ctx, stadiumPrefix)
	return item, nil
}

type cachedStadiumByID struct {
	value  stadium.Stadium
	exists bool
}
