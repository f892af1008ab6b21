package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/VictoryFairy/VictoryFairy-backend-sub000/internal/domain/game"
	"github.com/VictoryFairy/VictoryFairy-backend-sub000/internal/domain/jobscheduler"
	"github.com/VictoryFairy/VictoryFairy-backend-sub000/internal/domain/unitofwork"
	"github.com/VictoryFairy/VictoryFairy-backend-sub000/internal/platform/logging"
	"github.com/VictoryFairy/VictoryFairy-backend-sub000/internal/platform/metrics"
	"go.opentelemetry.io/otel/attribute"
)

const (
	defaultPollInterval     = time.Minute
	defaultPollFetchTimeout = 20 * time.Second
)

// TickOutcome is the result of one poll tick.
type TickOutcome string

const (
	TickUpdated     TickOutcome = "updated"
	TickUnchanged   TickOutcome = "unchanged"
	TickFinalized   TickOutcome = "finalized"
	TickFetchFailed TickOutcome = "fetch_failed"
	TickStopped     TickOutcome = "stopped"
	TickFailed      TickOutcome = "failed"
)

type ScorePollerConfig struct {
	LeagueID     int
	Interval     time.Duration
	FetchTimeout time.Duration
}

// ScorePollerService drives one game at a time from in progress to a terminal
// state. Each game owns exactly one poll job named poll:<gameID>.
type ScorePollerService struct {
	games     game.Repository
	tx        unitofwork.Transactor
	source    ScoreSource
	scheduler JobScheduler
	finalizer GameFinalizer
	cfg       ScorePollerConfig
	logger    *logging.Logger
	metrics   *metrics.Recorder
}

func NewScorePollerService(
	games game.Repository,
	tx unitofwork.Transactor,
	source ScoreSource,
	scheduler JobScheduler,
	finalizer GameFinalizer,
	cfg ScorePollerConfig,
	logger *logging.Logger,
	recorder *metrics.Recorder,
) *ScorePollerService {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.Interval <= 0 {
		cfg.Interval = defaultPollInterval
	}
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = defaultPollFetchTimeout
	}

	return &ScorePollerService{
		games:     games,
		tx:        tx,
		source:    source,
		scheduler: scheduler,
		finalizer: finalizer,
		cfg:       cfg,
		logger:    logger,
		metrics:   recorder,
	}
}

// StartPolling arms the poll job for gameID. Arming again replaces the job,
// so repeated calls never produce two pollers for one game.
func (s *ScorePollerService) StartPolling(ctx context.Context, gameID string) error {
	if gameID == "" {
		return fmt.Errorf("%w: game id is required", ErrInvalidInput)
	}

	name := jobscheduler.PollName(gameID)
	if err := s.scheduler.ArmInterval(name, s.cfg.Interval, func(ctx context.Context) {
		s.Tick(ctx, gameID)
	}); err != nil {
		return fmt.Errorf("arm poll job %s: %w", name, err)
	}

	s.logger.InfoContext(ctx, "score polling started", "game_id", gameID, "interval", s.cfg.Interval)
	return nil
}

// Tick runs one poll cycle. It never returns an error: failures are logged and
// retried on the next tick while the job stays armed.
func (s *ScorePollerService) Tick(ctx context.Context, gameID string) TickOutcome {
	ctx, span := startUsecaseSpan(ctx, "usecase.ScorePollerService.Tick", attribute.String("game.id", gameID))
	defer span.End()

	started := time.Now()
	outcome := s.tick(ctx, gameID)
	s.metrics.ObservePollTick(string(outcome), time.Since(started))
	span.SetAttributes(attribute.String("poll.outcome", string(outcome)))
	return outcome
}

func (s *ScorePollerService) tick(ctx context.Context, gameID string) TickOutcome {
	pollName := jobscheduler.PollName(gameID)

	current, exists, err := s.games.GetByID(ctx, gameID)
	if err != nil {
		s.logger.WarnContext(ctx, "load polled game failed", "game_id", gameID, "error", err)
		return TickFailed
	}
	if !exists {
		s.scheduler.Cancel(pollName)
		s.logger.WarnContext(ctx, "polled game no longer exists, stopping", "game_id", gameID)
		return TickStopped
	}
	if current.IsTerminal() {
		s.scheduler.Cancel(pollName)
		s.logger.InfoContext(ctx, "polled game already terminal, stopping", "game_id", gameID, "status", current.Status)
		return TickStopped
	}

	snapshot, fetchErr := s.fetch(ctx, current)
	if fetchErr != nil {
		s.metrics.IncSourceFailure("fetch_score")
		s.logger.WarnContext(ctx, "score fetch failed", "game_id", gameID, "error", fetchErr)
	}
	update := snapshot.Update()
	if update.IsEmpty() {
		return TickFetchFailed
	}

	next, err := game.ApplyInProgressUpdate(current, update)
	if err == nil && !next.IsTerminal() {
		err = game.Validate(next)
	}
	if err != nil {
		s.logger.WarnContext(ctx, "apply in-progress update failed", "game_id", gameID, "error", err)
		return TickFailed
	}

	if !next.IsTerminal() {
		if sameProgress(current, next) {
			return TickUnchanged
		}
		if err := s.games.Save(ctx, next); err != nil {
			s.logger.WarnContext(ctx, "save in-progress game failed", "game_id", gameID, "error", err)
			return TickFailed
		}
		s.logger.DebugContext(ctx, "game progress saved",
			"game_id", gameID,
			"status", next.Status,
			"home_score", derefInt(next.HomeScore),
			"away_score", derefInt(next.AwayScore),
		)
		return TickUpdated
	}

	// Stop first so the job cannot fire again once finalization has begun.
	s.scheduler.Cancel(pollName)
	if err := s.finalize(ctx, gameID, update); err != nil {
		s.logger.ErrorContext(ctx, "finalize game failed, polling resumes next interval", "game_id", gameID, "error", err)
		s.resumeLater(ctx, gameID)
		return TickFailed
	}

	if err := s.finalizer.OnGameFinalized(ctx, gameID); err != nil {
		s.logger.ErrorContext(ctx, "attendance reconcile failed", "game_id", gameID, "error", err)
	}
	return TickFinalized
}

// resumeLater arms a trigger one interval ahead that restarts polling. Arming
// the poll job directly would run its first tick immediately.
func (s *ScorePollerService) resumeLater(ctx context.Context, gameID string) {
	fireAt := time.Now().Add(s.cfg.Interval)
	err := s.scheduler.ArmTrigger(jobscheduler.TriggerName(gameID), fireAt, func(ctx context.Context) {
		if err := s.StartPolling(ctx, gameID); err != nil {
			s.logger.ErrorContext(ctx, "resume polling failed", "game_id", gameID, "error", err)
		}
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "arm resume trigger failed", "game_id", gameID, "error", err)
	}
}

func (s *ScorePollerService) fetch(ctx context.Context, g game.Game) (ScoreSnapshot, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, s.cfg.FetchTimeout)
	defer cancel()

	return s.source.FetchScore(fetchCtx, ScoreQuery{
		LeagueID: s.cfg.LeagueID,
		SeriesID: g.SeriesID,
		GameID:   g.ID,
		Year:     g.Year(),
	})
}

// finalize re-reads the game inside a transaction and persists the final state.
func (s *ScorePollerService) finalize(ctx context.Context, gameID string, update game.Update) error {
	return s.tx.WithinTx(ctx, func(ctx context.Context, repos unitofwork.Repositories) error {
		current, exists, err := repos.Games.GetByID(ctx, gameID)
		if err != nil {
			return fmt.Errorf("get game id=%s: %w", gameID, err)
		}
		if !exists {
			return fmt.Errorf("%w: game %s", ErrNotFound, gameID)
		}

		final, err := game.ApplyFinalUpdate(current, update)
		if err != nil {
			return err
		}
		if err := repos.Games.Save(ctx, final); err != nil {
			return fmt.Errorf("save final game id=%s: %w", gameID, err)
		}

		s.logger.InfoContext(ctx, "game finalized",
			"game_id", gameID,
			"state", final.State(),
			"home_score", derefInt(final.HomeScore),
			"away_score", derefInt(final.AwayScore),
			"winning_team_id", derefInt64(final.WinningTeamID),
		)
		return nil
	})
}

func sameProgress(a, b game.Game) bool {
	return a.Status == b.Status && equalIntPtr(a.HomeScore, b.HomeScore) && equalIntPtr(a.AwayScore, b.AwayScore)
}

func equalIntPtr(a, b *int) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func derefInt(v *int) any {
	if v == nil {
		return nil
	}
	return *v
}

func derefInt64(v *int64) any {
	if v == nil {
		return nil
	}
	return *v
}
