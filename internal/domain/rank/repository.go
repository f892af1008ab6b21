package rank

import "context"

// Repository describes rank counter persistence. Inside a transaction
// GetForUpdate locks the row, even one that did not exist yet; exists reports
// whether it held counters before the call.
type Repository interface {
	GetForUpdate(ctx context.Context, teamID, userID int64, year int) (Record, bool, error)
	Save(ctx context.Context, record Record) error
	ListByUser(ctx context.Context, userID int64) ([]Record, error)
	ListUserIDs(ctx context.Context) ([]int64, error)
	DeleteByUser(ctx context.Context, userID int64) error
}
