package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/VictoryFairy/VictoryFairy-backend-sub000/internal/domain/attendance"
	"github.com/VictoryFairy/VictoryFairy-backend-sub000/internal/domain/game"
	"github.com/VictoryFairy/VictoryFairy-backend-sub000/internal/domain/rank"
	"github.com/VictoryFairy/VictoryFairy-backend-sub000/internal/domain/unitofwork"
	"github.com/VictoryFairy/VictoryFairy-backend-sub000/internal/platform/logging"
	"github.com/VictoryFairy/VictoryFairy-backend-sub000/internal/platform/metrics"
	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel/attribute"
)

type RegisterAttendanceInput struct {
	GameID         string `validate:"required,len=13"`
	UserID         int64  `validate:"required,gt=0"`
	CheeringTeamID int64  `validate:"required,gt=0"`
	Seat           string `validate:"max=100"`
	Review         string `validate:"max=2000"`
	Image          string `validate:"omitempty,url"`
}

// AttendanceService keeps attendance records and rank counters consistent.
// Every mutation runs in one transaction; leaderboard refreshes are deferred
// until after commit.
type AttendanceService struct {
	tx        unitofwork.Transactor
	rankings  RankingRefresher
	validator *validator.Validate
	logger    *logging.Logger
	metrics   *metrics.Recorder
}

func NewAttendanceService(
	tx unitofwork.Transactor,
	rankings RankingRefresher,
	logger *logging.Logger,
	recorder *metrics.Recorder,
) *AttendanceService {
	if logger == nil {
		logger = logging.Default()
	}
	return &AttendanceService{
		tx:        tx,
		rankings:  rankings,
		validator: validator.New(),
		logger:    logger,
		metrics:   recorder,
	}
}

// OnGameFinalized resolves every pending record of a terminal game and counts
// the outcome toward each supporter's rank for the game's season.
func (s *AttendanceService) OnGameFinalized(ctx context.Context, gameID string) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.AttendanceService.OnGameFinalized", attribute.String("game.id", gameID))
	defer span.End()

	var post unitofwork.PostCommit
	resolved := make(map[attendance.Status]int, 4)
	affected := 0

	err := s.tx.WithinTx(ctx, func(ctx context.Context, repos unitofwork.Repositories) error {
		g, err := s.loadGame(ctx, repos.Games, gameID)
		if err != nil {
			return err
		}
		if !g.IsTerminal() {
			return fmt.Errorf("%w: game %s is not final (status=%q)", ErrInvalidInput, gameID, g.Status)
		}

		records, err := repos.Attendance.ListPendingByGameForUpdate(ctx, gameID)
		if err != nil {
			return fmt.Errorf("list pending attendance game_id=%s: %w", gameID, err)
		}
		if len(records) == 0 {
			return nil
		}

		users := make(map[int64]struct{}, len(records))
		for i := range records {
			status, _ := attendance.Resolve(g, records[i].CheeringTeamID)
			records[i].Status = attendance.StatusPtr(status)
			if err := s.incrementRank(ctx, repos.Ranks, records[i].CheeringTeamID, records[i].UserID, g.Year(), status); err != nil {
				return err
			}
			resolved[status]++
			users[records[i].UserID] = struct{}{}
		}

		if err := repos.Attendance.UpdateStatuses(ctx, records); err != nil {
			return fmt.Errorf("update attendance statuses game_id=%s: %w", gameID, err)
		}

		userIDs := make([]int64, 0, len(users))
		for userID := range users {
			userIDs = append(userIDs, userID)
		}
		sort.Slice(userIDs, func(i, j int) bool { return userIDs[i] < userIDs[j] })
		affected = len(userIDs)
		post.Add(func(ctx context.Context) { s.rankings.RefreshUsers(ctx, userIDs) })
		return nil
	})
	if err != nil {
		return err
	}

	for status, count := range resolved {
		s.metrics.AddReconciled(string(status), count)
	}
	if affected > 0 {
		s.logger.InfoContext(ctx, "attendance reconciled",
			"game_id", gameID,
			"users", affected,
			"win", resolved[attendance.StatusWin],
			"lose", resolved[attendance.StatusLose],
			"tie", resolved[attendance.StatusTie],
			"no_game", resolved[attendance.StatusNoGame],
		)
	}
	logPostCommit(ctx, s.logger, &post)
	return nil
}

// Register records a user's attendance. When the game is already final the
// outcome is resolved immediately.
func (s *AttendanceService) Register(ctx context.Context, input RegisterAttendanceInput) (attendance.Record, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.AttendanceService.Register")
	defer span.End()

	input.GameID = strings.TrimSpace(input.GameID)
	if err := s.validator.StructCtx(ctx, input); err != nil {
		return attendance.Record{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	var post unitofwork.PostCommit
	var created attendance.Record
	err := s.tx.WithinTx(ctx, func(ctx context.Context, repos unitofwork.Repositories) error {
		g, err := s.loadGame(ctx, repos.Games, input.GameID)
		if err != nil {
			return err
		}
		if !g.HasTeam(input.CheeringTeamID) {
			return fmt.Errorf("%w: team %d does not play in game %s", ErrInvalidInput, input.CheeringTeamID, g.ID)
		}

		record := attendance.Record{
			GameID:         g.ID,
			UserID:         input.UserID,
			CheeringTeamID: input.CheeringTeamID,
			Seat:           input.Seat,
			Review:         input.Review,
			Image:          input.Image,
		}
		status, final := attendance.Resolve(g, input.CheeringTeamID)
		if final {
			record.Status = attendance.StatusPtr(status)
		}

		created, err = repos.Attendance.Create(ctx, record)
		if err != nil {
			if errors.Is(err, attendance.ErrAlreadyRegistered) {
				return fmt.Errorf("%w: user %d already registered game %s", ErrConflict, input.UserID, g.ID)
			}
			return fmt.Errorf("create attendance: %w", err)
		}

		if final {
			if err := s.incrementRank(ctx, repos.Ranks, input.CheeringTeamID, input.UserID, g.Year(), status); err != nil {
				return err
			}
			post.Add(func(ctx context.Context) { s.rankings.RefreshUser(ctx, input.UserID) })
		}
		return nil
	})
	if err != nil {
		return attendance.Record{}, err
	}

	logPostCommit(ctx, s.logger, &post)
	return created, nil
}

// ChangeCheeringTeam switches the supported side. A resolved Win becomes Lose
// and vice versa without consulting the score source again.
func (s *AttendanceService) ChangeCheeringTeam(ctx context.Context, recordID, userID, teamID int64) (attendance.Record, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.AttendanceService.ChangeCheeringTeam")
	defer span.End()

	var post unitofwork.PostCommit
	var updated attendance.Record
	err := s.tx.WithinTx(ctx, func(ctx context.Context, repos unitofwork.Repositories) error {
		record, err := s.loadOwnedRecord(ctx, repos.Attendance, recordID, userID)
		if err != nil {
			return err
		}
		if record.CheeringTeamID == teamID {
			updated = record
			return nil
		}

		g, err := s.loadGame(ctx, repos.Games, record.GameID)
		if err != nil {
			return err
		}
		if !g.HasTeam(teamID) {
			return fmt.Errorf("%w: team %d does not play in game %s", ErrInvalidInput, teamID, g.ID)
		}

		var nextStatus *attendance.Status
		if record.Status != nil {
			flipped := record.Status.Flip()
			nextStatus = &flipped
			if err := s.decrementRank(ctx, repos.Ranks, record.CheeringTeamID, userID, g.Year(), *record.Status); err != nil {
				return err
			}
			if err := s.incrementRank(ctx, repos.Ranks, teamID, userID, g.Year(), flipped); err != nil {
				return err
			}
			post.Add(func(ctx context.Context) { s.rankings.RefreshUser(ctx, userID) })
		}

		if err := repos.Attendance.UpdateCheeringTeam(ctx, recordID, teamID, nextStatus); err != nil {
			return fmt.Errorf("update cheering team record_id=%d: %w", recordID, err)
		}

		updated = record
		updated.CheeringTeamID = teamID
		updated.Status = nextStatus
		return nil
	})
	if err != nil {
		return attendance.Record{}, err
	}

	logPostCommit(ctx, s.logger, &post)
	return updated, nil
}

// Delete removes one attendance record, reverting its rank contribution first.
func (s *AttendanceService) Delete(ctx context.Context, recordID, userID int64) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.AttendanceService.Delete")
	defer span.End()

	var post unitofwork.PostCommit
	err := s.tx.WithinTx(ctx, func(ctx context.Context, repos unitofwork.Repositories) error {
		record, err := s.loadOwnedRecord(ctx, repos.Attendance, recordID, userID)
		if err != nil {
			return err
		}

		if record.Status != nil {
			g, err := s.loadGame(ctx, repos.Games, record.GameID)
			if err != nil {
				return err
			}
			if err := s.decrementRank(ctx, repos.Ranks, record.CheeringTeamID, userID, g.Year(), *record.Status); err != nil {
				return err
			}
			post.Add(func(ctx context.Context) { s.rankings.RefreshUser(ctx, userID) })
		}

		if err := repos.Attendance.Delete(ctx, recordID); err != nil {
			return fmt.Errorf("delete attendance record_id=%d: %w", recordID, err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	logPostCommit(ctx, s.logger, &post)
	return nil
}

// DeleteAllForUser removes every record and rank row of a deleted account and
// drops the user from the leaderboards after commit.
func (s *AttendanceService) DeleteAllForUser(ctx context.Context, userID int64) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.AttendanceService.DeleteAllForUser")
	defer span.End()

	if userID <= 0 {
		return fmt.Errorf("%w: user id must be > 0", ErrInvalidInput)
	}

	var post unitofwork.PostCommit
	err := s.tx.WithinTx(ctx, func(ctx context.Context, repos unitofwork.Repositories) error {
		records, err := repos.Attendance.ListByUserForUpdate(ctx, userID)
		if err != nil {
			return fmt.Errorf("list attendance user_id=%d: %w", userID, err)
		}

		years := make(map[string]int, len(records))
		for _, record := range records {
			if record.Status == nil {
				continue
			}
			year, ok := years[record.GameID]
			if !ok {
				g, err := s.loadGame(ctx, repos.Games, record.GameID)
				if err != nil {
					return err
				}
				year = g.Year()
				years[record.GameID] = year
			}
			if err := s.decrementRank(ctx, repos.Ranks, record.CheeringTeamID, userID, year, *record.Status); err != nil {
				return err
			}
		}

		if err := repos.Attendance.DeleteByUser(ctx, userID); err != nil {
			return fmt.Errorf("delete attendance user_id=%d: %w", userID, err)
		}
		if err := repos.Ranks.DeleteByUser(ctx, userID); err != nil {
			return fmt.Errorf("delete rank records user_id=%d: %w", userID, err)
		}

		post.Add(func(ctx context.Context) { s.rankings.RemoveUser(ctx, userID) })
		return nil
	})
	if err != nil {
		return err
	}

	logPostCommit(ctx, s.logger, &post)
	return nil
}

func (s *AttendanceService) loadGame(ctx context.Context, repo game.Repository, gameID string) (game.Game, error) {
	g, exists, err := repo.GetByID(ctx, gameID)
	if err != nil {
		return game.Game{}, fmt.Errorf("get game id=%s: %w", gameID, err)
	}
	if !exists {
		return game.Game{}, fmt.Errorf("%w: game %s", ErrNotFound, gameID)
	}
	return g, nil
}

func (s *AttendanceService) loadOwnedRecord(ctx context.Context, repo attendance.Repository, recordID, userID int64) (attendance.Record, error) {
	record, exists, err := repo.GetByIDForUpdate(ctx, recordID)
	if err != nil {
		return attendance.Record{}, fmt.Errorf("get attendance record_id=%d: %w", recordID, err)
	}
	if !exists {
		return attendance.Record{}, fmt.Errorf("%w: attendance record %d", ErrNotFound, recordID)
	}
	if record.UserID != userID {
		return attendance.Record{}, fmt.Errorf("%w: attendance record %d belongs to another user", ErrForbidden, recordID)
	}
	return record, nil
}

func (s *AttendanceService) incrementRank(ctx context.Context, repo rank.Repository, teamID, userID int64, year int, status attendance.Status) error {
	record, _, err := repo.GetForUpdate(ctx, teamID, userID, year)
	if err != nil {
		return fmt.Errorf("get rank team_id=%d user_id=%d year=%d: %w", teamID, userID, year, err)
	}
	record.TeamID, record.UserID, record.ActiveYear = teamID, userID, year

	next, err := record.Increment(status)
	if err != nil {
		return err
	}
	if err := repo.Save(ctx, next); err != nil {
		return fmt.Errorf("save rank team_id=%d user_id=%d year=%d: %w", teamID, userID, year, err)
	}
	return nil
}

func (s *AttendanceService) decrementRank(ctx context.Context, repo rank.Repository, teamID, userID int64, year int, status attendance.Status) error {
	record, exists, err := repo.GetForUpdate(ctx, teamID, userID, year)
	if err != nil {
		return fmt.Errorf("get rank team_id=%d user_id=%d year=%d: %w", teamID, userID, year, err)
	}
	if !exists {
		record = rank.Record{TeamID: teamID, UserID: userID, ActiveYear: year}
	}

	next, err := record.Decrement(status)
	if err != nil {
		return err
	}
	if err := repo.Save(ctx, next); err != nil {
		return fmt.Errorf("save rank team_id=%d user_id=%d year=%d: %w", teamID, userID, year, err)
	}
	return nil
}

func logPostCommit(ctx context.Context, logger *logging.Logger, post *unitofwork.PostCommit) {
	if err := post.Run(ctx); err != nil {
		logger.ErrorContext(ctx, "post-commit action failed", "error", err)
	}
}
