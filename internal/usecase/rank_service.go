package usecase

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/VictoryFairy/VictoryFairy-backend-sub000/internal/domain/rank"
	"github.com/VictoryFairy/VictoryFairy-backend-sub000/internal/domain/ranking"
	"github.com/VictoryFairy/VictoryFairy-backend-sub000/internal/domain/team"
	"github.com/VictoryFairy/VictoryFairy-backend-sub000/internal/platform/logging"
	"github.com/VictoryFairy/VictoryFairy-backend-sub000/internal/platform/metrics"
	"github.com/panjf2000/ants/v2"
)

const (
	defaultRewarmWorkers = 8
	defaultTopLimit      = 10
	maxTopLimit          = 100
)

type RankServiceConfig struct {
	RewarmWorkers int
}

type RankingEntry struct {
	UserID     int64   `json:"user_id"`
	Rank       int64   `json:"rank"`
	Score      float64 `json:"score"`
	Margin     int     `json:"margin"`
	TotalGames int     `json:"total_games"`
}

type RewarmResult struct {
	Users    int           `json:"users"`
	Failed   int           `json:"failed"`
	Duration time.Duration `json:"duration"`
}

// RankService aggregates rank counters and keeps the leaderboard cache in sync.
type RankService struct {
	rankRepo rank.Repository
	teamRepo team.Repository
	store    ranking.Store
	cfg      RankServiceConfig
	logger   *logging.Logger
	metrics  *metrics.Recorder
}

func NewRankService(
	rankRepo rank.Repository,
	teamRepo team.Repository,
	store ranking.Store,
	cfg RankServiceConfig,
	logger *logging.Logger,
	recorder *metrics.Recorder,
) *RankService {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.RewarmWorkers <= 0 {
		cfg.RewarmWorkers = defaultRewarmWorkers
	}

	return &RankService{
		rankRepo: rankRepo,
		teamRepo: teamRepo,
		store:    store,
		cfg:      cfg,
		logger:   logger,
		metrics:  recorder,
	}
}

// Aggregate sums the user's counters across seasons per team plus the total scope.
func (s *RankService) Aggregate(ctx context.Context, userID int64) (map[string]rank.Stats, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.RankService.Aggregate")
	defer span.End()

	records, err := s.rankRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list rank records user_id=%d: %w", userID, err)
	}
	return rank.Aggregate(records), nil
}

// UpdateRankings writes the encoded score of every scope for one user.
func (s *RankService) UpdateRankings(ctx context.Context, userID int64, statsByScope map[string]rank.Stats) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.RankService.UpdateRankings")
	defer span.End()

	if len(statsByScope) == 0 {
		return nil
	}
	scores := make(map[string]float64, len(statsByScope))
	for scope, stats := range statsByScope {
		scores[scope] = rank.Encode(stats)
	}
	if err := s.store.SetScores(ctx, userID, scores); err != nil {
		return fmt.Errorf("set ranking scores user_id=%d: %w", userID, err)
	}
	return nil
}

// RefreshUser recomputes and publishes one user's scores. Failures only leave
// the cache stale, so they are logged and swallowed.
func (s *RankService) RefreshUser(ctx context.Context, userID int64) {
	if err := s.refresh(ctx, userID); err != nil {
		s.metrics.IncRankingSyncFailure("refresh")
		s.logger.WarnContext(ctx, "refresh user ranking failed", "user_id", userID, "error", err)
	}
}

// RefreshUsers refreshes several users concurrently on the worker pool.
// Failures are logged and swallowed like RefreshUser.
func (s *RankService) RefreshUsers(ctx context.Context, userIDs []int64) {
	switch len(userIDs) {
	case 0:
		return
	case 1:
		s.RefreshUser(ctx, userIDs[0])
		return
	}
	if _, err := s.fanOut(ctx, userIDs, "refresh"); err != nil {
		s.logger.WarnContext(ctx, "refresh user rankings failed", "users", len(userIDs), "error", err)
	}
}

// RemoveUser drops the user from every scope.
func (s *RankService) RemoveUser(ctx context.Context, userID int64) {
	scopes, err := s.scopes(ctx)
	if err != nil {
		s.metrics.IncRankingSyncFailure("remove")
		s.logger.WarnContext(ctx, "list ranking scopes failed", "user_id", userID, "error", err)
		return
	}
	for _, scope := range scopes {
		if err := s.store.DeleteUser(ctx, scope, userID); err != nil {
			s.metrics.IncRankingSyncFailure("remove")
			s.logger.WarnContext(ctx, "remove user from ranking failed", "user_id", userID, "scope", scope, "error", err)
		}
	}
}

// RewarmAll rebuilds the leaderboard cache for every user with rank records.
func (s *RankService) RewarmAll(ctx context.Context) (RewarmResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.RankService.RewarmAll")
	defer span.End()

	started := time.Now()
	userIDs, err := s.rankRepo.ListUserIDs(ctx)
	if err != nil {
		return RewarmResult{}, fmt.Errorf("list ranked users: %w", err)
	}

	failed, err := s.fanOut(ctx, userIDs, "rewarm")
	if err != nil {
		return RewarmResult{}, err
	}

	result := RewarmResult{
		Users:    len(userIDs),
		Failed:   failed,
		Duration: time.Since(started),
	}
	s.logger.InfoContext(ctx, "ranking rewarm finished",
		"users", result.Users,
		"failed", result.Failed,
		"duration", result.Duration,
	)
	return result, nil
}

// fanOut refreshes userIDs on an ants pool sized by RewarmWorkers and returns
// how many users failed. op labels metrics and logs.
func (s *RankService) fanOut(ctx context.Context, userIDs []int64, op string) (int, error) {
	if len(userIDs) == 0 {
		return 0, nil
	}
	pool, err := ants.NewPool(min(s.cfg.RewarmWorkers, len(userIDs)))
	if err != nil {
		return 0, fmt.Errorf("create worker pool: %w", err)
	}
	defer pool.Release()

	var failed atomic.Int32
	var workers sync.WaitGroup
	for _, userID := range userIDs {
		workers.Add(1)
		if err := pool.Submit(func() {
			defer workers.Done()
			if err := s.refresh(ctx, userID); err != nil {
				failed.Add(1)
				s.metrics.IncRankingSyncFailure(op)
				s.logger.WarnContext(ctx, op+" user ranking failed", "user_id", userID, "error", err)
			}
		}); err != nil {
			workers.Done()
			failed.Add(1)
			s.logger.WarnContext(ctx, "submit "+op+" task failed", "user_id", userID, "error", err)
		}
	}
	workers.Wait()
	return int(failed.Load()), nil
}

// Nearby returns the user together with the entries directly above and below.
func (s *RankService) Nearby(ctx context.Context, scope string, userID int64) ([]RankingEntry, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.RankService.Nearby")
	defer span.End()

	if err := s.validateScope(ctx, scope); err != nil {
		return nil, err
	}

	position, ok, err := s.store.GetRank(ctx, scope, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: get rank: %v", ErrDependencyUnavailable, err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: user %d has no rank in scope %s", ErrNotFound, userID, scope)
	}

	start := position - 1
	if start < 0 {
		start = 0
	}
	entries, err := s.store.GetRange(ctx, scope, start, position+1)
	if err != nil {
		return nil, fmt.Errorf("%w: get ranking range: %v", ErrDependencyUnavailable, err)
	}
	return toRankingEntries(entries), nil
}

func (s *RankService) Top(ctx context.Context, scope string, limit int) ([]RankingEntry, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.RankService.Top")
	defer span.End()

	if err := s.validateScope(ctx, scope); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultTopLimit
	}
	if limit > maxTopLimit {
		limit = maxTopLimit
	}

	entries, err := s.store.GetRange(ctx, scope, 0, int64(limit-1))
	if err != nil {
		return nil, fmt.Errorf("%w: get ranking range: %v", ErrDependencyUnavailable, err)
	}
	return toRankingEntries(entries), nil
}

func (s *RankService) refresh(ctx context.Context, userID int64) error {
	stats, err := s.Aggregate(ctx, userID)
	if err != nil {
		return err
	}
	return s.UpdateRankings(ctx, userID, stats)
}

func (s *RankService) scopes(ctx context.Context) ([]string, error) {
	teams, err := s.teamRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list teams: %w", err)
	}
	out := make([]string, 0, len(teams)+1)
	out = append(out, rank.ScopeTotal)
	for _, item := range teams {
		out = append(out, rank.Scope(item.ID))
	}
	return out, nil
}

func (s *RankService) validateScope(ctx context.Context, scope string) error {
	scope = strings.TrimSpace(scope)
	if scope == rank.ScopeTotal {
		return nil
	}
	teamID, err := strconv.ParseInt(scope, 10, 64)
	if err != nil || teamID <= 0 {
		return fmt.Errorf("%w: unknown ranking scope %q", ErrInvalidInput, scope)
	}
	_, exists, err := s.teamRepo.GetByID(ctx, teamID)
	if err != nil {
		return fmt.Errorf("get team id=%d: %w", teamID, err)
	}
	if !exists {
		return fmt.Errorf("%w: team %d", ErrNotFound, teamID)
	}
	return nil
}

func toRankingEntries(entries []ranking.Entry) []RankingEntry {
	out := make([]RankingEntry, 0, len(entries))
	for _, entry := range entries {
		decoded := rank.Decode(entry.Score)
		out = append(out, RankingEntry{
			UserID:     entry.UserID,
			Rank:       entry.Rank,
			Score:      entry.Score,
			Margin:     decoded.Margin,
			TotalGames: decoded.TotalGames,
		})
	}
	return out
}
