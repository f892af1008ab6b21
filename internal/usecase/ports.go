package usecase

import (
	"context"
	"time"

	"github.com/VictoryFairy/VictoryFairy-backend-sub000/internal/domain/game"
)

// JobScheduler arms named, cancelable jobs. Arming an existing name replaces the
// previous job, so at most one job per name is ever armed.
type JobScheduler interface {
	ArmTrigger(name string, fireAt time.Time, job func(ctx context.Context)) error
	ArmInterval(name string, period time.Duration, job func(ctx context.Context)) error
	Cancel(name string)
	Exists(name string) bool
}

type ScoreQuery struct {
	LeagueID int
	SeriesID int
	GameID   string
	Year     int
}

// ScoreSnapshot is whatever the score source could read. Nil fields were not
// available on this fetch.
type ScoreSnapshot struct {
	HomeScore *int
	AwayScore *int
	Status    *string
}

func (s ScoreSnapshot) Update() game.Update {
	return game.Update{
		Status:    s.Status,
		HomeScore: s.HomeScore,
		AwayScore: s.AwayScore,
	}
}

// ScoreSource reads the live score of one game. The score and status
// sub-requests fail independently: a partial snapshot is returned together
// with the combined error of the failed parts.
type ScoreSource interface {
	FetchScore(ctx context.Context, query ScoreQuery) (ScoreSnapshot, error)
}

// ExternalScheduleRow is one game line of the monthly schedule feed.
type ExternalScheduleRow struct {
	GameID    string    `validate:"omitempty,len=13"`
	Date      time.Time `validate:"required"`
	Time      string    `validate:"required,datetime=15:04"`
	HomeTeam  string    `validate:"required"`
	AwayTeam  string    `validate:"required,nefield=HomeTeam"`
	HomeScore *int      `validate:"omitempty,min=0"`
	AwayScore *int      `validate:"omitempty,min=0"`
	Stadium   string    `validate:"required"`
	Note      string
	SeriesID  int `validate:"min=0"`
}

type ScheduleSource interface {
	FetchMonth(ctx context.Context, year int, month time.Month) ([]ExternalScheduleRow, error)
}

// RankingRefresher refreshes leaderboard entries after commit.
type RankingRefresher interface {
	RefreshUser(ctx context.Context, userID int64)
	RefreshUsers(ctx context.Context, userIDs []int64)
	RemoveUser(ctx context.Context, userID int64)
}

// GameFinalizer resolves the attendance of a game that reached a terminal state.
type GameFinalizer interface {
	OnGameFinalized(ctx context.Context, gameID string) error
}

// CronRegistrar arms jobs on a cron expression.
type CronRegistrar interface {
	ArmCron(name, spec string, job func(ctx context.Context)) error
}

type PollStarter interface {
	StartPolling(ctx context.Context, gameID string) error
}
