package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/neighborcast/neighborcast-api/config"
	httpx "github.com/neighborcast/neighborcast-api/internal/http"
	"github.com/neighborcast/neighborcast-api/internal/observability/statsd"
)

// Infrastructure holds the external connections opened at startup.
type Infrastructure struct {
	DB      *sql.DB
	Redis   redis.UniversalClient
	Metrics *statsd.Client
}

// Close releases every connection, joining their errors.
func (i *Infrastructure) Close() error {
	if i == nil {
		return nil
	}
	var errs []error
	if i.Metrics != nil {
		errs = append(errs, i.Metrics.Close())
	}
	if i.Redis != nil {
		errs = append(errs, i.Redis.Close())
	}
	if i.DB != nil {
		errs = append(errs, i.DB.Close())
	}
	return errors.Join(errs...)
}

// OpenInfrastructure connects Postgres, Redis and StatsD and applies migrations when configured.
func OpenInfrastructure(ctx context.Context, cfg *config.AppConfig, logger *slog.Logger) (*Infrastructure, error) {
	dbCfg := DatabaseConfig{DBConfig: cfg.Postgres, RedisConfig: cfg.Redis, Logger: logger}

	db, err := ConnectDB(ctx, dbCfg)
	if err != nil {
		return nil, err
	}
	infra := &Infrastructure{DB: db}

	if cfg.Postgres.RunMigrationsOnStart {
		if err := RunMigrations(ctx, db, logger); err != nil {
			return nil, errors.Join(err, infra.Close())
		}
	}

	rdb, err := ConnectRedis(ctx, dbCfg)
	if err != nil {
		return nil, errors.Join(err, infra.Close())
	}
	infra.Redis = rdb

	sink, err := statsd.NewClient(statsd.Config{
		Enabled: cfg.Observability.Metrics.IsEnabled(),
		Address: cfg.Observability.Metrics.StatsdAddress,
		Prefix:  cfg.Observability.Metrics.Prefix,
		Logger:  logger,
	})
	if err != nil {
		return nil, errors.Join(err, infra.Close())
	}
	infra.Metrics = sink
	return infra, nil
}

// Run serves the API and the cache invalidation listener until ctx is done or either fails.
func Run(ctx context.Context, cfg *config.AppConfig, logger *slog.Logger) error {
	infra, err := OpenInfrastructure(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := infra.Close(); cerr != nil {
			logger.Error("failed to close infrastructure", "error", cerr)
		}
	}()

	svcs, err := BuildServices(ServiceDeps{
		Config:      cfg,
		DB:          infra.DB,
		RedisClient: infra.Redis,
		Metrics:     infra.Metrics,
		Logger:      logger,
	})
	if err != nil {
		return err
	}

	auth, err := BuildAuth(ctx, AuthConfig{Auth: cfg.Auth, Logger: logger})
	if err != nil {
		return err
	}

	handler := httpx.NewRouter(svcs.RouterServices(cfg, auth, logger))
	server := NewHTTPServer(cfg.HTTP, handler)
	ln, err := net.Listen("tcp", server.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", server.Addr, err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return ServeHTTP(gctx, server, ln, cfg.HTTP.ShutdownTimeout, logger)
	})
	g.Go(func() error {
		if err := svcs.Cache.Listen(gctx); err != nil {
			return fmt.Errorf("config invalidation listener: %w", err)
		}
		return nil
	})
	return g.Wait()
}
