package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/VictoryFairy/VictoryFairy-backend-sub000/internal/domain/game"
	"github.com/VictoryFairy/VictoryFairy-backend-sub000/internal/domain/jobscheduler"
	"github.com/VictoryFairy/VictoryFairy-backend-sub000/internal/domain/stadium"
	"github.com/VictoryFairy/VictoryFairy-backend-sub000/internal/domain/team"
	"github.com/VictoryFairy/VictoryFairy-backend-sub000/internal/domain/unitofwork"
	"github.com/VictoryFairy/VictoryFairy-backend-sub000/internal/platform/logging"
	"github.com/VictoryFairy/VictoryFairy-backend-sub000/internal/platform/metrics"
	crerr "github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel/attribute"
)

const (
	DailyCrawlJob           = "daily-crawl"
	defaultDailyCrawlCron   = "0 6 * * *"
	defaultCrawlTimeout     = 2 * time.Minute
	defaultScheduleTimeZone = "Asia/Seoul"
)

type GameScheduleConfig struct {
	Location       *time.Location
	CrawlCron      string
	CrawlOnStartup bool
	CrawlTimeout   time.Duration
}

type CrawlResult struct {
	Months     int `json:"months"`
	Rows       int `json:"rows"`
	Invalid    int `json:"invalid"`
	Skipped    int `json:"skipped"`
	Upserted   int `json:"upserted"`
	Renamed    int `json:"renamed"`
	Finalized  int `json:"finalized"`
	Reconciled int `json:"reconciled"`
}

func (r *CrawlResult) add(other CrawlResult) {
	r.Months += other.Months
	r.Rows += other.Rows
	r.Invalid += other.Invalid
	r.Skipped += other.Skipped
	r.Upserted += other.Upserted
	r.Renamed += other.Renamed
	r.Finalized += other.Finalized
	r.Reconciled += other.Reconciled
}

// GameScheduleService crawls the monthly schedule into the game table and arms
// one start trigger per game of the day.
type GameScheduleService struct {
	source    ScheduleSource
	games     game.Repository
	teams     team.Repository
	stadiums  stadium.Repository
	tx        unitofwork.Transactor
	scheduler JobScheduler
	cron      CronRegistrar
	poller    PollStarter
	finalizer GameFinalizer
	validator *validator.Validate
	cfg       GameScheduleConfig
	logger    *logging.Logger
	metrics   *metrics.Recorder
	now       func() time.Time
}

type GameScheduleDeps struct {
	Source    ScheduleSource
	Games     game.Repository
	Teams     team.Repository
	Stadiums  stadium.Repository
	Tx        unitofwork.Transactor
	Scheduler JobScheduler
	Cron      CronRegistrar
	Poller    PollStarter
	Finalizer GameFinalizer
}

func NewGameScheduleService(deps GameScheduleDeps, cfg GameScheduleConfig, logger *logging.Logger, recorder *metrics.Recorder) *GameScheduleService {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.Location == nil {
		loc, err := time.LoadLocation(defaultScheduleTimeZone)
		if err != nil {
			loc = time.FixedZone("KST", 9*60*60)
		}
		cfg.Location = loc
	}
	if strings.TrimSpace(cfg.CrawlCron) == "" {
		cfg.CrawlCron = defaultDailyCrawlCron
	}
	if cfg.CrawlTimeout <= 0 {
		cfg.CrawlTimeout = defaultCrawlTimeout
	}

	return &GameScheduleService{
		source:    deps.Source,
		games:     deps.Games,
		teams:     deps.Teams,
		stadiums:  deps.Stadiums,
		tx:        deps.Tx,
		scheduler: deps.Scheduler,
		cron:      deps.Cron,
		poller:    deps.Poller,
		finalizer: deps.Finalizer,
		validator: validator.New(),
		cfg:       cfg,
		logger:    logger,
		metrics:   recorder,
		now:       time.Now,
	}
}

// RegisterDailyCrawl arms the cron job that crawls the schedule and arms the
// day's triggers.
func (s *GameScheduleService) RegisterDailyCrawl(ctx context.Context) error {
	if s.cron == nil {
		return fmt.Errorf("cron registrar is not configured")
	}
	name := jobscheduler.CronName(DailyCrawlJob)
	if err := s.cron.ArmCron(name, s.cfg.CrawlCron, func(ctx context.Context) {
		if _, err := s.RunDaily(ctx); err != nil {
			s.logger.ErrorContext(ctx, "daily crawl failed", "error", err)
		}
	}); err != nil {
		return fmt.Errorf("arm daily crawl: %w", err)
	}

	s.logger.InfoContext(ctx, "daily crawl registered", "job", name, "spec", s.cfg.CrawlCron, "location", s.cfg.Location.String())
	return nil
}

// RunDaily crawls the current and next month, then arms today's triggers and
// reconciles yesterday's and today's terminal games again, so a reconcile that
// failed before midnight is retried. Both steps still run when the crawl
// partially fails.
func (s *GameScheduleService) RunDaily(ctx context.Context) (result CrawlResult, err error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.GameScheduleService.RunDaily")
	defer func() { finishSpan(span, err) }()

	result, err = s.CrawlMonths(ctx)
	if _, armErr := s.ArmToday(ctx); armErr != nil {
		err = crerr.CombineErrors(err, armErr)
	}
	today := s.today()
	reconciled, reconcileErr := s.reconcileTerminal(ctx, today.AddDate(0, 0, -1), today)
	result.Reconciled = reconciled
	if reconcileErr != nil {
		err = crerr.CombineErrors(err, reconcileErr)
	}
	return result, err
}

// CrawlMonths fetches and upserts the current and the next month.
func (s *GameScheduleService) CrawlMonths(ctx context.Context) (CrawlResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.GameScheduleService.CrawlMonths")
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, s.cfg.CrawlTimeout)
	defer cancel()

	now := s.now().In(s.cfg.Location)
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, s.cfg.Location)

	var total CrawlResult
	var errs error
	for _, month := range []time.Time{first, first.AddDate(0, 1, 0)} {
		result, err := s.CrawlMonth(ctx, month.Year(), month.Month())
		total.add(result)
		if err != nil {
			errs = crerr.CombineErrors(errs, err)
		}
	}

	s.metrics.AddCrawledGames(total.Upserted)
	s.logger.InfoContext(ctx, "schedule crawl finished",
		"months", total.Months,
		"rows", total.Rows,
		"invalid", total.Invalid,
		"skipped", total.Skipped,
		"upserted", total.Upserted,
		"renamed", total.Renamed,
		"finalized", total.Finalized,
	)
	return total, errs
}

// CrawlMonth upserts one month of the schedule feed.
func (s *GameScheduleService) CrawlMonth(ctx context.Context, year int, month time.Month) (CrawlResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.GameScheduleService.CrawlMonth",
		attribute.Int("crawl.year", year),
		attribute.Int("crawl.month", int(month)),
	)
	defer span.End()

	rows, err := s.source.FetchMonth(ctx, year, month)
	if err != nil {
		s.metrics.IncSourceFailure("fetch_schedule")
		return CrawlResult{}, fmt.Errorf("%w: fetch schedule %04d-%02d: %v", ErrDependencyUnavailable, year, int(month), err)
	}
	result := CrawlResult{Months: 1, Rows: len(rows)}

	lookup, err := s.loadLookup(ctx)
	if err != nil {
		return result, err
	}

	candidates := make([]game.Game, 0, len(rows))
	for _, row := range rows {
		candidate, err := s.toGame(ctx, row, lookup)
		if err != nil {
			result.Invalid++
			s.logger.WarnContext(ctx, "skip invalid schedule row",
				"game_id", row.GameID,
				"date", row.Date.Format(time.DateOnly),
				"home", row.HomeTeam,
				"away", row.AwayTeam,
				"error", err,
			)
			continue
		}
		if _, dup := lookup.rows[candidate.Game.ID]; dup {
			result.Invalid++
			s.logger.WarnContext(ctx, "skip duplicate schedule row", "game_id", candidate.Game.ID)
			continue
		}
		candidates = append(candidates, candidate.Game)
		lookup.rows[candidate.Game.ID] = candidate
	}
	if len(candidates) == 0 {
		return result, nil
	}

	from := time.Date(year, month, 1, 0, 0, 0, 0, s.cfg.Location)
	to := from.AddDate(0, 1, -1)
	today := s.today()

	var post unitofwork.PostCommit
	err = s.tx.WithinTx(ctx, func(ctx context.Context, repos unitofwork.Repositories) error {
		existing, err := repos.Games.ListByDateRange(ctx, from, to)
		if err != nil {
			return fmt.Errorf("list games %s..%s: %w", from.Format(time.DateOnly), to.Format(time.DateOnly), err)
		}
		byID := make(map[string]game.Game, len(existing))
		for _, item := range existing {
			byID[item.ID] = item
		}
		inFeed := make(map[string]struct{}, len(candidates))
		for _, item := range candidates {
			inFeed[item.ID] = struct{}{}
		}

		upserts := make([]game.Game, 0, len(candidates))
		for _, incoming := range candidates {
			renamedFrom, err := s.resolveDoubleHeader(ctx, repos.Games, incoming.ID, byID, inFeed)
			if err != nil {
				return err
			}
			if renamedFrom != "" {
				result.Renamed++
				post.Add(func(context.Context) { s.scheduler.Cancel(jobscheduler.TriggerName(renamedFrom)) })
			}

			current, found := byID[incoming.ID]
			if found && current.IsTerminal() {
				result.Skipped++
				continue
			}

			polled := s.scheduler.Exists(jobscheduler.PollName(incoming.ID))
			next, final, err := planUpsert(current, found, incoming, lookup.rows[incoming.ID].update, polled, incoming.Date.Before(today))
			if err != nil {
				result.Invalid++
				s.logger.WarnContext(ctx, "skip schedule row violating game invariants", "game_id", incoming.ID, "error", err)
				continue
			}
			upserts = append(upserts, next)

			if final {
				result.Finalized++
				gameID := next.ID
				post.Add(func(ctx context.Context) {
					s.scheduler.Cancel(jobscheduler.TriggerName(gameID))
					if err := s.finalizer.OnGameFinalized(ctx, gameID); err != nil {
						s.logger.ErrorContext(ctx, "reconcile crawled game failed", "game_id", gameID, "error", err)
					}
				})
			}
		}

		if err := repos.Games.Upsert(ctx, upserts); err != nil {
			return fmt.Errorf("upsert games: %w", err)
		}
		result.Upserted = len(upserts)
		return nil
	})
	if err != nil {
		return result, err
	}

	logPostCommit(ctx, s.logger, &post)
	return result, nil
}

// ArmToday arms a start trigger for every non-terminal game of today. Games
// whose start time already passed begin polling right away.
func (s *GameScheduleService) ArmToday(ctx context.Context) (int, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.GameScheduleService.ArmToday")
	defer span.End()

	today := s.today()
	games, err := s.games.ListByDateRange(ctx, today, today)
	if err != nil {
		return 0, fmt.Errorf("list today's games: %w", err)
	}

	armed := 0
	var errs error
	for _, item := range games {
		if item.IsTerminal() || s.scheduler.Exists(jobscheduler.PollName(item.ID)) {
			continue
		}
		startsAt, err := item.StartsAt(s.cfg.Location)
		if err != nil {
			errs = crerr.CombineErrors(errs, err)
			continue
		}

		gameID := item.ID
		if err := s.scheduler.ArmTrigger(jobscheduler.TriggerName(gameID), startsAt, func(ctx context.Context) {
			if err := s.poller.StartPolling(ctx, gameID); err != nil {
				s.logger.ErrorContext(ctx, "start polling failed", "game_id", gameID, "error", err)
			}
		}); err != nil {
			errs = crerr.CombineErrors(errs, fmt.Errorf("arm trigger game_id=%s: %w", gameID, err))
			continue
		}
		armed++
	}

	s.logger.InfoContext(ctx, "today's game triggers armed", "date", today.Format(time.DateOnly), "games", len(games), "armed", armed)
	return armed, errs
}

// Recover rebuilds the in-memory job state after a restart from the persisted
// games of today.
func (s *GameScheduleService) Recover(ctx context.Context) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.GameScheduleService.Recover")
	defer span.End()

	if s.cfg.CrawlOnStartup {
		if _, err := s.CrawlMonths(ctx); err != nil {
			s.logger.WarnContext(ctx, "startup crawl failed, recovering from stored games", "error", err)
		}
	}

	if _, err := s.ArmToday(ctx); err != nil {
		return fmt.Errorf("arm today's games: %w", err)
	}

	today := s.today()
	_, err := s.reconcileTerminal(ctx, today, today)
	return err
}

// reconcileTerminal runs the attendance reconcile for every terminal game
// between from and to. Reconciling touches only pending records, so games
// already settled cost one empty pass. A failure on one game is logged and the
// rest still run.
func (s *GameScheduleService) reconcileTerminal(ctx context.Context, from, to time.Time) (int, error) {
	games, err := s.games.ListByDateRange(ctx, from, to)
	if err != nil {
		return 0, fmt.Errorf("list games %s..%s: %w", from.Format(time.DateOnly), to.Format(time.DateOnly), err)
	}

	reconciled := 0
	for _, item := range games {
		if !item.IsTerminal() {
			continue
		}
		if err := s.finalizer.OnGameFinalized(ctx, item.ID); err != nil {
			s.logger.WarnContext(ctx, "catch-up reconcile failed", "game_id", item.ID, "error", err)
			continue
		}
		reconciled++
	}
	return reconciled, nil
}

func (s *GameScheduleService) today() time.Time {
	now := s.now().In(s.cfg.Location)
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.cfg.Location)
}

type scheduleLookup struct {
	teamsByName   map[string]team.Team
	stadiumByName map[string]stadium.Stadium
	rows          map[string]scheduleCandidate
}

type scheduleCandidate struct {
	Game   game.Game
	update game.Update
}

func (s *GameScheduleService) loadLookup(ctx context.Context) (*scheduleLookup, error) {
	teams, err := s.teams.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list teams: %w", err)
	}
	stadiums, err := s.stadiums.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list stadiums: %w", err)
	}

	lookup := &scheduleLookup{
		teamsByName:   make(map[string]team.Team, len(teams)*3),
		stadiumByName: make(map[string]stadium.Stadium, len(stadiums)),
		rows:          make(map[string]scheduleCandidate),
	}
	for _, item := range teams {
		for _, key := range []string{item.ShortName, item.Name, item.Code} {
			if key = normalizeName(key); key != "" {
				lookup.teamsByName[key] = item
			}
		}
	}
	for _, item := range stadiums {
		lookup.stadiumByName[normalizeName(item.Name)] = item
	}
	return lookup, nil
}

func (s *GameScheduleService) toGame(ctx context.Context, row ExternalScheduleRow, lookup *scheduleLookup) (scheduleCandidate, error) {
	if err := s.validator.StructCtx(ctx, row); err != nil {
		return scheduleCandidate{}, err
	}

	home, ok := lookup.teamsByName[normalizeName(row.HomeTeam)]
	if !ok {
		return scheduleCandidate{}, fmt.Errorf("unknown home team %q", row.HomeTeam)
	}
	away, ok := lookup.teamsByName[normalizeName(row.AwayTeam)]
	if !ok {
		return scheduleCandidate{}, fmt.Errorf("unknown away team %q", row.AwayTeam)
	}

	venue, err := s.resolveStadium(ctx, row.Stadium, lookup)
	if err != nil {
		return scheduleCandidate{}, err
	}

	y, m, d := row.Date.Date()
	date := time.Date(y, m, d, 0, 0, 0, 0, s.cfg.Location)

	gameID := strings.TrimSpace(row.GameID)
	if gameID == "" {
		gameID = game.ID{Date: date, AwayCode: away.Code, HomeCode: home.Code}.String()
	}
	if _, err := game.ParseID(gameID, s.cfg.Location); err != nil {
		return scheduleCandidate{}, err
	}

	update := game.Update{HomeScore: row.HomeScore, AwayScore: row.AwayScore}
	if status := rowStatus(row, date.Before(s.today())); status != "" {
		update.Status = game.StringPtr(status)
	}

	return scheduleCandidate{
		Game: game.Game{
			ID:         gameID,
			Date:       date,
			Time:       strings.TrimSpace(row.Time),
			HomeTeamID: home.ID,
			AwayTeamID: away.ID,
			StadiumID:  venue.ID,
			SeriesID:   row.SeriesID,
		},
		update: update,
	}, nil
}

func (s *GameScheduleService) resolveStadium(ctx context.Context, name string, lookup *scheduleLookup) (stadium.Stadium, error) {
	key := normalizeName(name)
	if venue, ok := lookup.stadiumByName[key]; ok {
		return venue, nil
	}

	venue, err := s.stadiums.CreateByName(ctx, strings.TrimSpace(name))
	if err != nil {
		return stadium.Stadium{}, fmt.Errorf("create stadium %q: %w", name, err)
	}
	lookup.stadiumByName[key] = venue
	s.logger.InfoContext(ctx, "stadium created from schedule feed", "stadium_id", venue.ID, "name", venue.Name)
	return venue, nil
}

// resolveDoubleHeader renames a stored single-game id to the double-header id
// the feed now reports, e.g. 20250513WOLG0 -> 20250513WOLG1.
func (s *GameScheduleService) resolveDoubleHeader(
	ctx context.Context,
	repo game.Repository,
	gameID string,
	byID map[string]game.Game,
	inFeed map[string]struct{},
) (string, error) {
	if _, ok := byID[gameID]; ok {
		return "", nil
	}
	parsed, err := game.ParseID(gameID, s.cfg.Location)
	if err != nil || !parsed.IsDoubleHeader() {
		return "", nil
	}

	baseID := parsed.WithDoubleHeader(0).String()
	stored, ok := byID[baseID]
	if !ok {
		return "", nil
	}
	if _, stillListed := inFeed[baseID]; stillListed {
		return "", nil
	}

	if err := repo.Rename(ctx, baseID, gameID); err != nil {
		return "", fmt.Errorf("rename game %s to %s: %w", baseID, gameID, err)
	}
	stored.ID = gameID
	byID[gameID] = stored
	delete(byID, baseID)

	s.logger.InfoContext(ctx, "double-header game id resolved", "from", baseID, "to", gameID)
	return baseID, nil
}

// planUpsert merges a feed row into the stored game. Polled games only take
// schedule fields, past games take the feed result and upcoming games only
// take a cancellation.
func planUpsert(current game.Game, found bool, incoming game.Game, update game.Update, polled, past bool) (game.Game, bool, error) {
	base := incoming
	if found {
		base = current
		base.Date = incoming.Date
		base.Time = incoming.Time
		base.HomeTeamID = incoming.HomeTeamID
		base.AwayTeamID = incoming.AwayTeamID
		base.StadiumID = incoming.StadiumID
		base.SeriesID = incoming.SeriesID
	}

	switch {
	case polled:
		update = game.Update{}
	case !past:
		if update.Status == nil || game.StateOf(*update.Status, nil, nil) != game.StateCanceled {
			update = game.Update{}
		} else {
			update = game.Update{Status: update.Status}
		}
	}

	if game.StateOf(statusAfter(base, update), nil, nil).IsTerminal() {
		next, err := game.ApplyFinalUpdate(base, update)
		if err != nil {
			return base, false, err
		}
		return next, true, nil
	}

	next, err := game.ApplyInProgressUpdate(base, update)
	if err != nil {
		return base, false, err
	}
	if err := game.Validate(next); err != nil {
		return base, false, err
	}
	return next, false, nil
}

// rowStatus derives a raw status for a feed row. The feed only carries a note
// for cancellations; a past game with both scores is final.
func rowStatus(row ExternalScheduleRow, past bool) string {
	note := strings.TrimSpace(row.Note)
	if game.StateOf(note, nil, nil) == game.StateCanceled {
		return note
	}
	if past && row.HomeScore != nil && row.AwayScore != nil {
		return game.RawStatusFinished
	}
	return ""
}

func statusAfter(g game.Game, update game.Update) string {
	if update.Status != nil {
		return *update.Status
	}
	return g.Status
}

func normalizeName(name string) string {
	return strings.ToUpper(strings.Join(strings.Fields(name), ""))
}
