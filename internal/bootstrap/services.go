package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"

	"github.com/neighborcast/neighborcast-api/config"
	"github.com/neighborcast/neighborcast-api/internal/core"
	"github.com/neighborcast/neighborcast-api/internal/data"
	"github.com/neighborcast/neighborcast-api/internal/domain/model"
	httpx "github.com/neighborcast/neighborcast-api/internal/http"
	"github.com/neighborcast/neighborcast-api/internal/observability/metrics"
	"github.com/neighborcast/neighborcast-api/internal/observability/statsd"
	"github.com/neighborcast/neighborcast-api/internal/service"
	"github.com/neighborcast/neighborcast-api/internal/service/configcache"
)

// ServiceContainer holds all application services.
type ServiceContainer struct {
	Jobs    *service.JobService
	Bulk    *service.BulkService
	Cutover *service.CutoverService
	Cache   *configcache.ActiveConfigCache

	// CacheCounters mirrors every cache event in process for diagnostics.
	CacheCounters *configcache.CounterMetrics
	Repos         Repositories
}

// Repositories groups data adapters backing service ports.
type Repositories struct {
	DB       *sql.DB
	Jobs     *data.JobRepo
	Settings *data.SettingsRepo
	Configs  *data.WeightConfigRepo
	Posts    *data.PostQueryRepo
	// Cache is nil when Redis is not configured.
	Cache *data.RedisCacheRepo
}

// ServiceDeps groups dependencies for service initialization.
type ServiceDeps struct {
	Config      *config.AppConfig
	DB          *sql.DB
	RedisClient redis.UniversalClient // optional: without it the cache runs local-only
	Metrics     statsd.Sink           // optional
	Logger      *slog.Logger
}

// BuildServices wires repositories, the active-configuration cache and the services.
func BuildServices(deps ServiceDeps) (*ServiceContainer, error) {
	if deps.Config == nil {
		return nil, errors.New("config is required")
	}
	if deps.DB == nil {
		return nil, errors.New("database is required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	cfg := deps.Config

	repoCfg := data.RepoConfig{Logger: logger}
	repos := Repositories{
		DB:       deps.DB,
		Jobs:     data.NewJobRepo(deps.DB, repoCfg),
		Settings: data.NewSettingsRepo(deps.DB, repoCfg),
		Configs:  data.NewWeightConfigRepo(deps.DB),
		Posts:    data.NewPostQueryRepo(deps.DB, logger),
	}
	if deps.RedisClient != nil {
		repos.Cache = data.NewRedisCacheRepo(deps.RedisClient)
	} else {
		logger.Warn("redis not configured; active config cache runs without a shared tier")
	}

	counters := configcache.NewCounterMetrics()
	cache := configcache.New(configcache.Deps{
		Local:  configcache.NewLocalLRU[string](configcache.LocalLRUConfig{Capacity: cfg.Cache.Capacity}),
		Shared: sharedTier(repos.Cache),
		Store:  repos.Settings,
		Config: configcache.Config{
			LocalTTL:   cfg.Cache.LocalTTL,
			SharedTTL:  cfg.Cache.SharedTTL,
			SharedKey:  cfg.Cache.SharedKey,
			VersionKey: cfg.Cache.VersionKey,
			Channel:    cfg.Cache.Channel,
		},
		Metrics: metrics.Tee{counters, metrics.NewCacheRecorder(deps.Metrics)},
		Logger:  logger,
	})

	cutover, err := service.NewCutoverService(service.CutoverServiceOptions{
		Stores: service.CutoverStores{Settings: repos.Settings, Configs: repos.Configs},
		Cache:  cache,
		Logger: logger,
	})
	if err != nil {
		return nil, fmt.Errorf("create cutover service: %w", err)
	}

	jobs, err := service.NewJobService(service.JobServiceOptions{
		Repo:      repos.Jobs,
		Activator: cutover,
		Configs:   repos.Configs,
		Logger:    logger,
		Metrics:   deps.Metrics,
		Config: service.JobServiceConfig{
			ListDefaultLimit: cfg.Jobs.ListDefaultLimit,
			ListMaxLimit:     cfg.Jobs.ListMaxLimit,
			Params:           model.ParamsPolicy{PermalinkDomains: cfg.Jobs.PermalinkDomains},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create job service: %w", err)
	}

	bulk, err := service.NewBulkService(service.BulkServiceOptions{
		Stores: service.BulkStores{Posts: repos.Posts, Jobs: repos.Jobs},
		Active: cache,
		Logger: logger,
		Config: service.BulkServiceConfig{
			MaxIDs:        cfg.Bulk.MaxIDs,
			PreviewSample: cfg.Bulk.PreviewSample,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create bulk service: %w", err)
	}

	return &ServiceContainer{
		Jobs:          jobs,
		Bulk:          bulk,
		Cutover:       cutover,
		Cache:         cache,
		CacheCounters: counters,
		Repos:         repos,
	}, nil
}

// sharedTier keeps a nil *RedisCacheRepo from becoming a non-nil interface.
//
//nolint:ireturn // the cache accepts any CacheRepository
func sharedTier(repo *data.RedisCacheRepo) core.CacheRepository {
	if repo == nil {
		return nil
	}
	return repo
}

// RouterServices maps the container onto the HTTP router's dependencies.
func (c *ServiceContainer) RouterServices(cfg *config.AppConfig, auth AuthComponents, logger *slog.Logger) httpx.RouterServices {
	var limiter *rate.Limiter
	if cfg.Bulk.RateLimited() {
		limiter = rate.NewLimiter(rate.Limit(cfg.Bulk.ApplyRate), cfg.Bulk.ApplyBurst)
	}
	return httpx.RouterServices{
		Jobs:             c.Jobs,
		Bulk:             c.Bulk,
		Cutover:          c.Cutover,
		Verifier:         auth.Verifier,
		Roles:            auth.Roles,
		BulkApplyLimiter: limiter,
		HealthChecks:     c.healthChecks(),
		Logger:           logger,
	}
}

func (c *ServiceContainer) healthChecks() []httpx.HealthCheck {
	checks := []httpx.HealthCheck{{
		Name:  "postgres",
		Check: func(ctx context.Context) error { return c.Repos.DB.PingContext(ctx) },
	}}
	if c.Repos.Cache != nil {
		checks = append(checks, httpx.HealthCheck{Name: "redis", Check: c.Repos.Cache.Health})
	}
	return checks
}
