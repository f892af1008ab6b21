package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/VictoryFairy/VictoryFairy-backend-sub000/internal/domain/unitofwork"
)

// Transactor implements unitofwork.Transactor over one sqlx transaction.
type Transactor struct {
	db  *sqlx.DB
	loc *time.Location
}

var _ unitofwork.Transactor = (*Transactor)(nil)

func NewTransactor(db *sqlx.DB, loc *time.Location) *Transactor {
	return &Transactor{db: db, loc: loc}
}

func (t *Transactor) WithinTx(ctx context.Context, fn func(ctx context.Context, repos unitofwork.Repositories) error) error {
	tx, err := t.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := fn(ctx, Repositories(tx, t.loc)); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// Repositories binds the transactional repositories to db, which may be a
// *sqlx.DB for autocommit reads or a *sqlx.Tx.
func Repositories(db queryer, loc *time.Location) unitofwork.Repositories {
	return unitofwork.Repositories{
		Games:      NewGameRepository(db, loc),
		Attendance: NewAttendanceRepository(db),
		Ranks:      NewRankRepository(db),
	}
}
