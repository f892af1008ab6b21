package stadium

import "context"

type Repository interface {
	List(ctx context.Context) ([]Stadium, error)
	GetByID(ctx context.Context, stadiumID int64) (Stadium, bool, error)
	CreateByName(ctx context.Context, name string) (Stadium, error)
}
