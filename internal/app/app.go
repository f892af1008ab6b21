package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/VictoryFairy/VictoryFairy-backend-sub000/external/kbo"
	"github.com/VictoryFairy/VictoryFairy-backend-sub000/internal/config"
	"github.com/VictoryFairy/VictoryFairy-backend-sub000/internal/domain/stadium"
	"github.com/VictoryFairy/VictoryFairy-backend-sub000/internal/domain/team"
	"github.com/VictoryFairy/VictoryFairy-backend-sub000/internal/infrastructure/repository/cache"
	"github.com/VictoryFairy/VictoryFairy-backend-sub000/internal/infrastructure/repository/postgres"
	"github.com/VictoryFairy/VictoryFairy-backend-sub000/internal/infrastructure/repository/redisranking"
	"github.com/VictoryFairy/VictoryFairy-backend-sub000/internal/interfaces/httpapi"
	basecache "github.com/VictoryFairy/VictoryFairy-backend-sub000/internal/platform/cache"
	"github.com/VictoryFairy/VictoryFairy-backend-sub000/internal/platform/logging"
	"github.com/VictoryFairy/VictoryFairy-backend-sub000/internal/platform/metrics"
	"github.com/VictoryFairy/VictoryFairy-backend-sub000/internal/platform/resilience"
	"github.com/VictoryFairy/VictoryFairy-backend-sub000/internal/platform/scheduler"
	"github.com/VictoryFairy/VictoryFairy-backend-sub000/internal/usecase"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"github.com/uptrace/opentelemetry-go-extra/otelsql"
	"github.com/uptrace/opentelemetry-go-extra/otelsqlx"
)

const dependencyPingTimeout = 5 * time.Second

// App owns every long-lived component of the scheduler process.
type App struct {
	cfg       config.Config
	logger    *logging.Logger
	db        *sqlx.DB
	redis     *redis.Client
	scheduler *scheduler.CronScheduler
	schedule  *usecase.GameScheduleService
	rankings  *usecase.RankService
	server    *http.Server
	lookups   *basecache.Store
}

func New(ctx context.Context, cfg config.Config, logger *logging.Logger) (*App, error) {
	if logger == nil {
		logger = logging.Default()
	}

	var recorder *metrics.Recorder
	if cfg.MetricsEnabled {
		recorder = metrics.NewRecorder()
	}

	db, err := openDB(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := postgres.BootstrapSeed(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("bootstrap seed data: %w", err)
	}

	redisClient, err := openRedis(ctx, cfg)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	loc := cfg.Location
	games := postgres.NewGameRepository(db, loc)
	tx := postgres.NewTransactor(db, loc)
	var (
		teams    team.Repository    = postgres.NewTeamRepository(db)
		stadiums stadium.Repository = postgres.NewStadiumRepository(db)
	)
	var lookupCache *basecache.Store
	if cfg.CacheEnabled {
		lookupCache = basecache.NewStore(cfg.CacheTTL)
		teams = cache.NewTeamRepository(teams, lookupCache)
		stadiums = cache.NewStadiumRepository(stadiums, lookupCache)
	}

	source := kbo.NewClient(kbo.ClientConfig{
		BaseURL:    cfg.KBOBaseURL,
		Timeout:    cfg.KBOTimeout,
		MaxRetries: cfg.KBOMaxRetries,
		LeagueID:   cfg.KBOLeagueID,
		SeriesIDs:  cfg.KBOSeriesIDs,
		Location:   loc,
		Logger:     logger.Named("kbo"),
		CircuitBreaker: resilience.CircuitBreakerConfig{
			Enabled:          cfg.KBOCircuitEnabled,
			FailureThreshold: cfg.KBOCircuitFailureCount,
			OpenTimeout:      cfg.KBOCircuitOpenTimeout,
			HalfOpenMaxReq:   cfg.KBOCircuitHalfOpenMaxReq,
		},
	})

	jobs := scheduler.New(scheduler.Config{
		Location: loc,
		Logger:   logger.Named("scheduler"),
		Metrics:  recorder,
	})

	rankSvc := usecase.NewRankService(
		postgres.NewRankRepository(db),
		teams,
		redisranking.NewStore(redisClient),
		usecase.RankServiceConfig{RewarmWorkers: cfg.RankRewarmWorkers},
		logger,
		recorder,
	)
	attendanceSvc := usecase.NewAttendanceService(tx, rankSvc, logger, recorder)
	pollerSvc := usecase.NewScorePollerService(
		games,
		tx,
		source,
		jobs,
		attendanceSvc,
		usecase.ScorePollerConfig{
			LeagueID:     cfg.KBOLeagueID,
			Interval:     cfg.PollInterval,
			FetchTimeout: cfg.PollFetchTimeout,
		},
		logger.Named("poller"),
		recorder,
	)
	scheduleSvc := usecase.NewGameScheduleService(usecase.GameScheduleDeps{
		Source:    source,
		Games:     games,
		Teams:     teams,
		Stadiums:  stadiums,
		Tx:        tx,
		Scheduler: jobs,
		Cron:      jobs,
		Poller:    pollerSvc,
		Finalizer: attendanceSvc,
	}, usecase.GameScheduleConfig{
		Location:       loc,
		CrawlCron:      cfg.CrawlCron,
		CrawlOnStartup: cfg.CrawlOnStartup,
		CrawlTimeout:   cfg.CrawlTimeout,
	}, logger, recorder)

	var metricsHandler http.Handler
	if recorder != nil {
		metricsHandler = recorder.Handler()
	}
	handler := httpapi.NewHandler(jobs, scheduleSvc, rankSvc, logger)
	server := &http.Server{
		Addr:              cfg.OpsHTTPAddr,
		Handler:           httpapi.NewRouter(handler, logger, cfg.InternalJobToken, metricsHandler),
		ReadHeaderTimeout: cfg.ReadTimeout,
		ReadTimeout:       cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
	}

	return &App{
		cfg:       cfg,
		logger:    logger,
		db:        db,
		redis:     redisClient,
		scheduler: jobs,
		schedule:  scheduleSvc,
		rankings:  rankSvc,
		server:    server,
		lookups:   lookupCache,
	}, nil
}

// Start arms the daily crawl, rebuilds today's jobs from storage and serves the
// ops surface. Serve errors are reported on the returned channel.
func (a *App) Start(ctx context.Context) (<-chan error, error) {
	a.scheduler.Start()

	if err := a.schedule.RegisterDailyCrawl(ctx); err != nil {
		return nil, fmt.Errorf("register daily crawl: %w", err)
	}
	if err := a.schedule.Recover(ctx); err != nil {
		return nil, fmt.Errorf("recover scheduled games: %w", err)
	}
	if a.cfg.RankRewarmOnStartup {
		go func() {
			if _, err := a.rankings.RewarmAll(context.WithoutCancel(ctx)); err != nil {
				a.logger.WarnContext(ctx, "startup ranking rewarm failed", "error", err)
			}
		}()
	}

	serveErr := make(chan error, 1)
	go func() {
		a.logger.Info("ops http server starting", "addr", a.server.Addr)
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()
	return serveErr, nil
}

// Shutdown stops accepting ops requests, cancels every armed job and closes
// the stores. Running jobs get until ctx expires to finish.
func (a *App) Shutdown(ctx context.Context) error {
	var errs error
	if err := a.server.Shutdown(ctx); err != nil {
		errs = errors.Join(errs, fmt.Errorf("shutdown ops server: %w", err))
	}
	if err := a.scheduler.Stop(ctx); err != nil {
		errs = errors.Join(errs, fmt.Errorf("stop scheduler: %w", err))
	}
	if a.lookups != nil {
		stats := a.lookups.Stats()
		a.logger.Info("lookup cache stats", "hits", stats.Hits, "misses", stats.Misses, "loads", stats.Loads, "entries", stats.Entries)
	}
	if err := a.redis.Close(); err != nil {
		errs = errors.Join(errs, fmt.Errorf("close redis: %w", err))
	}
	if err := a.db.Close(); err != nil {
		errs = errors.Join(errs, fmt.Errorf("close db: %w", err))
	}
	return errs
}

func openDB(ctx context.Context, cfg config.Config) (*sqlx.DB, error) {
	db, err := otelsqlx.Open("postgres", cfg.DatabaseURL(),
		otelsql.WithDBSystem("postgresql"),
		otelsql.WithDBName(dbNameFromURL(cfg.DBURL)),
		otelsql.WithQueryFormatter(formatDBQueryForTrace),
	)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	db.SetMaxOpenConns(cfg.DBMaxOpenConns)
	db.SetMaxIdleConns(cfg.DBMaxIdleConns)

	pingCtx, cancel := context.WithTimeout(ctx, dependencyPingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}
	return db, nil
}

func openRedis(ctx context.Context, cfg config.Config) (*redis.Client, error) {
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("parse REDIS_URL: %w", err)
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, dependencyPingTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}
