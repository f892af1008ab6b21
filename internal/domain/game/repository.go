package game

import (
	"context"
	"time"
)

// Repository describes game persistence needs from use cases.
type Repository interface {
	GetByID(ctx context.Context, id string) (Game, bool, error)
	ListByDateRange(ctx context.Context, from, to time.Time) ([]Game, error)
	Upsert(ctx context.Context, games []Game) error
	Save(ctx context.Context, g Game) error
	Rename(ctx context.Context, fromID, toID string) error
}
