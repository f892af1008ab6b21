package unitofwork

import (
	"context"

	crerr "github.com/cockroachdb/errors"

	"github.com/VictoryFairy/VictoryFairy-backend-sub000/internal/domain/attendance"
	"github.com/VictoryFairy/VictoryFairy-backend-sub000/internal/domain/game"
	"github.com/VictoryFairy/VictoryFairy-backend-sub000/internal/domain/rank"
)

// Repositories are bound to a single transaction.
type Repositories struct {
	Games      game.Repository
	Attendance attendance.Repository
	Ranks      rank.Repository
}

// Transactor runs fn inside one relational transaction. The transaction is
// committed when fn returns nil and rolled back otherwise.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error
}

// PostCommit collects side effects that may only run after a successful commit.
type PostCommit struct {
	actions []func(ctx context.Context)
}

func (p *PostCommit) Add(action func(ctx context.Context)) {
	if action == nil {
		return
	}
	p.actions = append(p.actions, action)
}

func (p *PostCommit) Len() int {
	return len(p.actions)
}

// Run executes the actions in order and forgets them. A panicking action is
// recovered and reported in the returned error; the remaining actions still run.
func (p *PostCommit) Run(ctx context.Context) error {
	actions := p.actions
	p.actions = nil

	var errs error
	for i, action := range actions {
		errs = crerr.CombineErrors(errs, runAction(ctx, i, action))
	}
	return errs
}

func runAction(ctx context.Context, index int, action func(ctx context.Context)) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = crerr.Newf("post-commit action %d panicked: %v", index, r)
		}
	}()
	action(ctx)
	return nil
}
