package attendance

import "context"

// Repository describes attendance persistence. Methods ending in ForUpdate
// lock the returned rows when called inside a transaction.
type Repository interface {
	Create(ctx context.Context, record Record) (Record, error)
	GetByIDForUpdate(ctx context.Context, id int64) (Record, bool, error)
	ListPendingByGameForUpdate(ctx context.Context, gameID string) ([]Record, error)
	ListByUserForUpdate(ctx context.Context, userID int64) ([]Record, error)
	UpdateStatuses(ctx context.Context, records []Record) error
	UpdateCheeringTeam(ctx context.Context, id, teamID int64, status *Status) error
	Delete(ctx context.Context, id int64) error
	DeleteByUser(ctx context.Context, userID int64) error
}
