package app

import (
	"context"
	"net/http"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/nfl-pickem/external/espn"
	"github.com/riskibarqy/nfl-pickem/internal/config"
	"github.com/riskibarqy/nfl-pickem/internal/domain/game"
	"github.com/riskibarqy/nfl-pickem/internal/domain/league"
	"github.com/riskibarqy/nfl-pickem/internal/domain/pick"
	"github.com/riskibarqy/nfl-pickem/internal/domain/season"
	"github.com/riskibarqy/nfl-pickem/internal/domain/user"
	"github.com/riskibarqy/nfl-pickem/internal/infrastructure/account/anubis"
	"github.com/riskibarqy/nfl-pickem/internal/infrastructure/events"
	"github.com/riskibarqy/nfl-pickem/internal/infrastructure/repository/cache"
	"github.com/riskibarqy/nfl-pickem/internal/infrastructure/repository/memory"
	"github.com/riskibarqy/nfl-pickem/internal/infrastructure/repository/postgres"
	"github.com/riskibarqy/nfl-pickem/internal/interfaces/httpapi"
	"github.com/riskibarqy/nfl-pickem/internal/observability"
	idgen "github.com/riskibarqy/nfl-pickem/internal/platform/id"
	"github.com/riskibarqy/nfl-pickem/internal/platform/logging"
	"github.com/riskibarqy/nfl-pickem/internal/usecase"
)

const seasonCacheTTL = 30 * time.Second

type repositories struct {
	seasons season.Repository
	games   game.Repository
	picks   pick.Repository
	users   user.Repository
	leagues league.Repository
}

// App owns the HTTP server and the background result poller along with every
// resource they hold open.
type App struct {
	Server  *http.Server
	Metrics *observability.Metrics

	poller    *usecase.ResultPoller
	sync      *usecase.ResultSyncService
	publisher interface{ Close() }
	db        *sqlx.DB
	logger    *logging.Logger
}

func New(ctx context.Context, cfg config.Config, logger *logging.Logger) (*App, error) {
	if logger == nil {
		logger = logging.Default()
	}
	logger = logger.Named("app")

	a := &App{logger: logger, Metrics: observability.NewMetrics()}

	repos, err := a.buildRepositories(ctx, cfg)
	if err != nil {
		return nil, err
	}

	publisher, err := buildPublisher(cfg, logger)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.publisher = publisher

	ids := idgen.NewUUIDGenerator()
	scheduleSvc := usecase.NewScheduleService(repos.seasons, repos.games, ids, publisher, logger)
	pickSvc := usecase.NewPickService(repos.users, repos.seasons, repos.games, repos.picks, ids, publisher, logger)
	leagueSvc := usecase.NewLeagueService(repos.leagues, repos.users, ids)

	syncSvc, err := usecase.NewResultSyncService(buildFeed(cfg, logger), scheduleSvc, repos.seasons, repos.games, cfg.FeedSyncWorkers, a.Metrics, logger)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.sync = syncSvc
	if cfg.ESPNEnabled {
		a.poller = usecase.NewResultPoller(syncSvc, cfg.FeedSyncInterval, logger)
	}

	standingsSvc := usecase.NewStandingsService(repos.leagues, repos.seasons, repos.games, repos.picks, syncSvc, logger)

	verifier := anubis.NewClient(anubis.ClientConfig{
		BaseURL:        cfg.AnubisBaseURL,
		IntrospectPath: cfg.AnubisIntrospectPath,
		AdminKey:       cfg.AnubisAdminKey,
		Timeout:        cfg.AnubisTimeout,
		CacheTTL:       cfg.AnubisCacheTTL,
		CircuitBreaker: cfg.AnubisCircuit,
		Logger:         logger,
	})

	handler := httpapi.NewHandler(scheduleSvc, pickSvc, leagueSvc, standingsSvc, syncSvc, a.Metrics, logger)
	routerCfg := httpapi.RouterConfig{
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		InternalJobToken:   cfg.InternalJobToken,
		Metrics:            a.Metrics,
		PickRateLimiter:    httpapi.NewRateLimiter(cfg.PickRateLimitPerMinute, cfg.PickRateLimitBurst, a.Metrics),
	}
	if cfg.MetricsEnabled {
		routerCfg.MetricsHandler = a.Metrics.Handler()
	}

	a.Server = &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           httpapi.NewRouter(handler, verifier, logger, routerCfg),
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
	}
	if a.Server.Addr == "" {
		a.Close()
		return nil, errors.New("http server addr cannot be empty")
	}

	return a, nil
}

func (a *App) buildRepositories(ctx context.Context, cfg config.Config) (repositories, error) {
	if cfg.InMemory() {
		repos := memory.NewRepositories()
		year := season.YearAt(time.Now())
		if err := repos.Load(ctx, memory.Seed(year)); err != nil {
			return repositories{}, errors.Wrap(err, "load seed fixtures")
		}
		a.logger.Warn("DB_URL is empty, running on in-memory repositories with demo fixtures", "season_year", year)
		return repositories{
			seasons: repos.Seasons,
			games:   repos.Games,
			picks:   repos.Picks,
			users:   repos.Users,
			leagues: repos.Leagues,
		}, nil
	}

	db, err := openDatabase(ctx, cfg)
	if err != nil {
		return repositories{}, err
	}
	a.db = db

	return repositories{
		seasons: cache.NewSeasonRepository(postgres.NewSeasonRepository(db), seasonCacheTTL),
		games:   postgres.NewGameRepository(db),
		picks:   postgres.NewPickRepository(db),
		users:   postgres.NewUserRepository(db),
		leagues: postgres.NewLeagueRepository(db),
	}, nil
}

type closablePublisher interface {
	usecase.EventPublisher
	Close()
}

func buildPublisher(cfg config.Config, logger *logging.Logger) (closablePublisher, error) {
	if cfg.NATSURL == "" {
		return events.NopPublisher{}, nil
	}
	publisher, err := events.Connect(cfg.NATSURL, cfg.NATSSubjectPrefix, logger)
	if err != nil {
		return nil, err
	}
	return publisher, nil
}

func buildFeed(cfg config.Config, logger *logging.Logger) usecase.ResultFeed {
	if !cfg.ESPNEnabled {
		return disabledFeed{}
	}
	return espn.NewClient(espn.ClientConfig{
		BaseURL:        cfg.ESPNBaseURL,
		Timeout:        cfg.ESPNTimeout,
		MaxRetries:     cfg.ESPNMaxRetries,
		Logger:         logger,
		CircuitBreaker: cfg.ESPNCircuit,
	})
}

// disabledFeed answers manual sync requests when ESPN_ENABLED=false.
type disabledFeed struct{}

func (disabledFeed) FetchResults(context.Context, int, int) ([]usecase.ExternalGameResult, error) {
	return nil, errors.Wrap(usecase.ErrUpstreamUnavailable, "result feed is disabled")
}

// StartBackground launches the result poller when the feed is enabled.
func (a *App) StartBackground(ctx context.Context) {
	if a.poller != nil {
		a.poller.Start(ctx)
	}
}

// Close stops background work and releases connections. Safe to call on a
// partially built App.
func (a *App) Close() {
	if a.poller != nil {
		a.poller.Stop()
	}
	if a.sync != nil {
		a.sync.Close()
	}
	if a.publisher != nil {
		a.publisher.Close()
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Warn("close database failed", "error", err)
		}
	}
}
