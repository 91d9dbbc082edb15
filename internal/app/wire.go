package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	s3blob "github.com/alanyoungcy/impactsim/internal/blob/s3"
	"github.com/alanyoungcy/impactsim/internal/cache/redis"
	"github.com/alanyoungcy/impactsim/internal/casualty"
	"github.com/alanyoungcy/impactsim/internal/config"
	"github.com/alanyoungcy/impactsim/internal/domain"
	"github.com/alanyoungcy/impactsim/internal/metrics"
	"github.com/alanyoungcy/impactsim/internal/notify"
	"github.com/alanyoungcy/impactsim/internal/orbit"
	"github.com/alanyoungcy/impactsim/internal/physics"
	"github.com/alanyoungcy/impactsim/internal/platform/openelevation"
	"github.com/alanyoungcy/impactsim/internal/platform/population"
	"github.com/alanyoungcy/impactsim/internal/platform/sbdb"
	"github.com/alanyoungcy/impactsim/internal/scenario"
	"github.com/alanyoungcy/impactsim/internal/server/handler"
	"github.com/alanyoungcy/impactsim/internal/service"
	"github.com/alanyoungcy/impactsim/internal/store/postgres"
	"github.com/alanyoungcy/impactsim/internal/study"
	"github.com/alanyoungcy/impactsim/internal/tsunami"
)

// Dependencies bundles every dependency that the application modes need to
// operate. It is constructed by Wire and torn down by the returned cleanup
// function. Infrastructure fields are nil when the backing system is
// disabled in the configuration.
type Dependencies struct {
	// Stores
	Reports domain.ReportStore
	Studies domain.StudyStore
	Audit   domain.AuditStore

	// Caches and coordination
	RateLimiter domain.RateLimiter
	LockManager domain.LockManager
	SignalBus   domain.SignalBus

	// Blob storage
	BlobReader domain.BlobReader
	Archiver   domain.Archiver

	// External data
	Elevation  domain.ElevationSource
	Population domain.PopulationSource
	Elements   domain.ElementSource

	Catalog  *scenario.Catalog
	Notifier *notify.Notifier
	Metrics  *metrics.Collector

	// Checks feed the health endpoint.
	Checks map[string]handler.Check

	// Services
	Impact *service.ImpactService
	Study  *service.StudyService
	Batch  *service.BatchService
}

// Wire constructs all concrete dependency implementations from the given
// configuration and returns them together with a cleanup function that should
// be called on shutdown to release resources.
func Wire(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}
	fail := func(stage string, err error) (*Dependencies, func(), error) {
		cleanup()
		return nil, nil, fmt.Errorf("wire: %s: %w", stage, err)
	}

	deps := &Dependencies{
		Catalog: scenario.New(),
		Checks:  make(map[string]handler.Check),
	}

	m, err := metrics.New(prometheus.DefaultRegisterer)
	if err != nil {
		return fail("metrics", err)
	}
	deps.Metrics = m

	// --- PostgreSQL ---
	if cfg.Postgres.Enabled {
		pgClient, err := postgres.New(ctx, postgres.ClientConfig{
			DSN:      cfg.Postgres.DSN,
			Host:     cfg.Postgres.Host,
			Port:     cfg.Postgres.Port,
			Database: cfg.Postgres.Database,
			User:     cfg.Postgres.User,
			Password: cfg.Postgres.Password,
			SSLMode:  cfg.Postgres.SSLMode,
			MaxConns: cfg.Postgres.PoolMaxConns,
			MinConns: cfg.Postgres.PoolMinConns,
		})
		if err != nil {
			return fail("postgres", err)
		}
		closers = append(closers, pgClient.Close)

		if cfg.Postgres.RunMigrations {
			if err := pgClient.RunMigrations(ctx); err != nil {
				return fail("postgres migrations", err)
			}
		}

		pool := pgClient.Pool()
		deps.Reports = postgres.NewReportStore(pool)
		deps.Studies = postgres.NewStudyStore(pool)
		deps.Audit = postgres.NewAuditStore(pool)
		deps.Checks["postgres"] = pgClient.Ping
	}

	// --- External sources ---
	var elevation domain.ElevationSource = openelevation.NewClient(cfg.Sources.ElevationURL, cfg.Sources.ElevationTimeout.Duration)
	var elements domain.ElementSource = sbdb.NewClient(cfg.Sources.SBDBURL, cfg.Sources.SBDBTimeout.Duration)
	deps.Population = population.NewModel(nil, cfg.Sources.BackgroundDensityPerKm2)

	// --- Redis ---
	if cfg.Redis.Enabled {
		redisClient, err := redis.New(ctx, redis.ClientConfig{
			Addr:       cfg.Redis.Addr,
			Password:   cfg.Redis.Password,
			DB:         cfg.Redis.DB,
			PoolSize:   cfg.Redis.PoolSize,
			MaxRetries: cfg.Redis.MaxRetries,
			TLSEnabled: cfg.Redis.TLSEnabled,
		})
		if err != nil {
			return fail("redis", err)
		}
		closers = append(closers, func() { _ = redisClient.Close() })

		ttl := cfg.Redis.CacheTTL.Duration
		elevation = service.NewCachedElevation(elevation, redis.NewElevationCache(redisClient, ttl), logger)
		elements = service.NewCachedBodies(elements, redis.NewBodyCache(redisClient, ttl), logger)
		deps.RateLimiter = redis.NewRateLimiter(redisClient)
		deps.LockManager = redis.NewLockManager(redisClient, logger)
		deps.SignalBus = redis.NewSignalBus(redisClient, cfg.Redis.StreamMaxLen)
		deps.Checks["redis"] = redisClient.Ping
	}
	deps.Elevation, deps.Elements = elevation, elements

	// --- S3 blob storage ---
	if cfg.S3.Enabled {
		s3Client, err := s3blob.New(ctx, s3blob.ClientConfig{
			Endpoint:       cfg.S3.Endpoint,
			Region:         cfg.S3.Region,
			Bucket:         cfg.S3.Bucket,
			AccessKey:      cfg.S3.AccessKey,
			SecretKey:      cfg.S3.SecretKey,
			UseSSL:         cfg.S3.UseSSL,
			ForcePathStyle: cfg.S3.ForcePathStyle,
		})
		if err != nil {
			return fail("s3", err)
		}
		if cfg.S3.CreateBucket {
			if err := s3Client.EnsureBucket(ctx); err != nil {
				return fail("s3 bucket", err)
			}
		}
		deps.BlobReader = s3blob.NewReader(s3Client)
		deps.Archiver = s3blob.NewArchiver(s3blob.NewWriter(s3Client), deps.Audit, logger)
		deps.Checks["s3"] = s3Client.Health
	}

	// --- Notifications ---
	var senders []notify.Sender
	if cfg.Notify.TelegramToken != "" && cfg.Notify.TelegramChatID != "" {
		senders = append(senders, notify.NewTelegramSender(
			cfg.Notify.TelegramToken,
			cfg.Notify.TelegramChatID,
		))
	}
	if cfg.Notify.DiscordWebhookURL != "" {
		senders = append(senders, notify.NewDiscordSender(cfg.Notify.DiscordWebhookURL))
	}
	deps.Notifier = notify.NewNotifier(senders, cfg.Notify.Events, logger)

	// --- Models and services ---
	alert, err := cfg.AlertLevel()
	if err != nil {
		return fail("alert level", err)
	}
	engine := physics.NewEngine(cfg.Physics)
	impact := service.NewImpactService(service.ImpactDeps{
		Physics:    engine,
		Casualty:   casualty.NewEstimator(cfg.Casualty, logger),
		Tsunami:    tsunami.NewAssessor(cfg.Tsunami, logger),
		Propagator: orbit.NewPropagator(cfg.Orbit, orbit.WithIterationObserver(m.KeplerSolved)),
		Catalog:    deps.Catalog,
		Elevation:  deps.Elevation,
		Population: deps.Population,
		Elements:   deps.Elements,
		Reports:    deps.Reports,
		Audit:      deps.Audit,
		Bus:        deps.SignalBus,
		Notifier:   deps.Notifier,
		Metrics:    m,
		Logger:     logger,
		AlertLevel: alert,
	})
	deps.Impact = impact

	deps.Study = service.NewStudyService(service.StudyDeps{
		Runner:   study.NewRunner(engine, cfg.Study),
		Studies:  deps.Studies,
		Archiver: deps.Archiver,
		Archive:  deps.BlobReader,
		Bus:      deps.SignalBus,
		Audit:    deps.Audit,
		Notifier: deps.Notifier,
		Metrics:  m,
		Logger:   logger,
	})

	if deps.LockManager != nil {
		deps.Batch = service.NewBatchService(service.BatchDeps{
			Impact:   impact,
			Catalog:  deps.Catalog,
			Locks:    deps.LockManager,
			LockTTL:  cfg.Batch.LockTTL.Duration,
			Archiver: deps.Archiver,
			Audit:    deps.Audit,
			Notifier: deps.Notifier,
			Logger:   logger,
		})
	}

	return deps, cleanup, nil
}
