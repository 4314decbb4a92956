package app

import (
	"context"
	"fmt"
	"net/http"

	"github.com/andrei73/pushup-counter/internal/config"
	"github.com/andrei73/pushup-counter/internal/domain/competition"
	"github.com/andrei73/pushup-counter/internal/domain/jobscheduler"
	"github.com/andrei73/pushup-counter/internal/domain/pushup"
	"github.com/andrei73/pushup-counter/internal/infrastructure/account/identity"
	"github.com/andrei73/pushup-counter/internal/infrastructure/repository/cache"
	"github.com/andrei73/pushup-counter/internal/infrastructure/repository/memory"
	"github.com/andrei73/pushup-counter/internal/infrastructure/repository/postgres"
	"github.com/andrei73/pushup-counter/internal/infrastructure/webhook"
	"github.com/andrei73/pushup-counter/internal/interfaces/httpapi"
	"github.com/andrei73/pushup-counter/internal/observability"
	basecache "github.com/andrei73/pushup-counter/internal/platform/cache"
	idgen "github.com/andrei73/pushup-counter/internal/platform/id"
	"github.com/andrei73/pushup-counter/internal/platform/logging"
	"github.com/andrei73/pushup-counter/internal/usecase"
	"github.com/jmoiron/sqlx"
)

// Services is the fully wired usecase layer shared by the API server and the CLIs.
type Services struct {
	Entries      *usecase.EntryService
	Stats        *usecase.StatsService
	Competitions *usecase.CompetitionService
	Dashboard    *usecase.DashboardService
	Jobs         *usecase.JobService
	Metrics      *observability.Metrics

	db *sqlx.DB
}

// Close releases the database pool, if any.
func (s *Services) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

type repositories struct {
	entries pushup.Repository
	// entriesDirect bypasses the read cache; winner determination reads through it.
	entriesDirect pushup.Repository
	competitions  competition.Repository
	dispatches    jobscheduler.Repository
	db            *sqlx.DB
}

func NewServices(ctx context.Context, cfg config.Config, logger *logging.Logger) (*Services, error) {
	if logger == nil {
		logger = logging.Default()
	}

	repos, err := openRepositories(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	publisher, err := newCompletionPublisher(cfg, logger)
	if err != nil {
		if repos.db != nil {
			_ = repos.db.Close()
		}
		return nil, err
	}

	metrics := observability.NewMetrics()
	ids := idgen.NewUUIDGenerator()

	stats := usecase.NewStatsService(repos.entries, cfg.Location)
	entries := usecase.NewEntryService(repos.entries, ids, metrics, cfg.Location, logger)
	competitions := usecase.NewCompetitionService(
		repos.competitions,
		usecase.NewStatsService(repos.entriesDirect, cfg.Location),
		publisher,
		metrics,
		ids,
		usecase.CompetitionServiceConfig{RefreshWorkers: cfg.RefreshWorkers, Location: cfg.Location},
		logger,
	)

	return &Services{
		Entries:      entries,
		Stats:        stats,
		Competitions: competitions,
		Dashboard:    usecase.NewDashboardService(stats, repos.entries, competitions, cfg.Location),
		Jobs:         usecase.NewJobService(competitions, repos.dispatches, cfg.Location, logger),
		Metrics:      metrics,
		db:           repos.db,
	}, nil
}

// NewHTTPServer wires the API server. The returned cleanup closes what the server owns.
func NewHTTPServer(ctx context.Context, cfg config.Config, logger *logging.Logger) (*http.Server, func() error, error) {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.HTTPAddr == "" {
		return nil, nil, fmt.Errorf("http server addr cannot be empty")
	}

	services, err := NewServices(ctx, cfg, logger)
	if err != nil {
		return nil, nil, err
	}

	verifier := identity.NewClient(
		&http.Client{Timeout: cfg.IdentityTimeout},
		identity.ClientConfig{
			BaseURL:        cfg.IdentityBaseURL,
			IntrospectPath: cfg.IdentityIntrospectPath,
			AdminKey:       cfg.IdentityAdminKey,
			CacheTTL:       cfg.IdentityCacheTTL,
			CircuitBreaker: cfg.IdentityCircuit,
		},
		logger,
	)

	handler := httpapi.NewHandler(
		services.Entries,
		services.Stats,
		services.Competitions,
		services.Dashboard,
		services.Jobs,
		logger,
	)

	routerCfg := httpapi.RouterConfig{
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		InternalJobToken:   cfg.InternalJobToken,
		ElevatedRoles:      cfg.ElevatedRoles,
		RateLimit:          httpapi.RateLimitConfig{RPS: cfg.RateLimitRPS, Burst: cfg.RateLimitBurst},
	}
	if cfg.MetricsEnabled {
		routerCfg.Metrics = services.Metrics
		routerCfg.MetricsHandler = services.Metrics.Handler()
	}

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           httpapi.NewRouter(handler, verifier, logger, routerCfg),
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
	}

	return server, services.Close, nil
}

func openRepositories(ctx context.Context, cfg config.Config, logger *logging.Logger) (repositories, error) {
	var repos repositories

	switch cfg.StorageDriver {
	case config.StoragePostgres:
		db, err := openDatabase(ctx, cfg)
		if err != nil {
			return repositories{}, err
		}
		repos = repositories{
			entries:      postgres.NewPushupRepository(db),
			competitions: postgres.NewCompetitionRepository(db),
			dispatches:   postgres.NewJobDispatchRepository(db),
			db:           db,
		}
	default:
		repos = repositories{
			entries:      memory.NewPushupRepository(),
			competitions: memory.NewCompetitionRepository(),
			dispatches:   memory.NewJobDispatchRepository(),
		}
	}

	repos.entriesDirect = repos.entries
	if cfg.CacheEnabled {
		repos.entries = cache.NewPushupRepository(repos.entries, basecache.NewStore(cfg.CacheTTL))
	}

	logger.Info("storage ready", "driver", cfg.StorageDriver, "cache_enabled", cfg.CacheEnabled)
	return repos, nil
}

func newCompletionPublisher(cfg config.Config, logger *logging.Logger) (usecase.CompletionPublisher, error) {
	if !cfg.WebhookEnabled {
		return usecase.NewNoopCompletionPublisher(), nil
	}

	publisher, err := webhook.NewPublisher(webhook.PublisherConfig{
		URL:            cfg.WebhookURL,
		Secret:         cfg.WebhookSecret,
		Timeout:        cfg.WebhookTimeout,
		CircuitBreaker: cfg.WebhookCircuit,
	}, logger)
	if err != nil {
		return nil, err
	}
	return publisher, nil
}
