package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/neighborcast/neighborcast-api/config"
	"github.com/neighborcast/neighborcast-api/internal/bootstrap"
)

// adminInfra holds the connections a command opened.
type adminInfra struct {
	DB    *sql.DB
	Redis redis.UniversalClient
}

func (i *adminInfra) Close() error {
	var closeErr error
	if i.Redis != nil {
		if err := i.Redis.Close(); err != nil {
			closeErr = errors.Join(closeErr, fmt.Errorf("close redis: %w", err))
		}
	}
	if i.DB != nil {
		if err := i.DB.Close(); err != nil {
			closeErr = errors.Join(closeErr, fmt.Errorf("close db: %w", err))
		}
	}
	return closeErr
}

// connectInfra opens Postgres and, when configured, Redis.
// Commands that change the active configuration need Redis to reach the shared tier.
func connectInfra(ctx context.Context, logger *slog.Logger, cfg *config.AppConfig, wantRedis bool) (*adminInfra, error) {
	dbCfg := bootstrap.DatabaseConfig{DBConfig: cfg.Postgres, RedisConfig: cfg.Redis, Logger: logger}
	db, err := bootstrap.ConnectDB(ctx, dbCfg)
	if err != nil {
		return nil, fmt.Errorf("connect db: %w", err)
	}
	infra := &adminInfra{DB: db}
	if !wantRedis {
		return infra, nil
	}
	if !hasRedisConfig(&cfg.Redis) {
		logger.Info("no redis configuration detected; skipping redis connection")
		return infra, nil
	}
	client, err := bootstrap.ConnectRedis(ctx, dbCfg)
	if err != nil {
		return nil, errors.Join(fmt.Errorf("connect redis: %w", err), infra.Close())
	}
	infra.Redis = client
	return infra, nil
}

func hasRedisConfig(cfg *config.RedisConfig) bool {
	if cfg == nil {
		return false
	}
	if cfg.UseCluster {
		return len(cfg.ClusterNodes) > 0 || cfg.URI != ""
	}
	if cfg.UseSentinel {
		return len(cfg.SentinelNodes) > 0
	}
	return cfg.URI != ""
}

// withServices connects infrastructure, builds the service container and runs fn.
func withServices(cmdCtx *commandContext, wantRedis bool, fn func(ctx context.Context, svcs *bootstrap.ServiceContainer) error) error {
	ctx := cmdCtx.Ctx
	infra, err := connectInfra(ctx, cmdCtx.Logger, &cmdCtx.Config, wantRedis)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := infra.Close(); cerr != nil {
			cmdCtx.Logger.Warn("close infrastructure failed", "error", cerr)
		}
	}()

	svcs, err := bootstrap.BuildServices(bootstrap.ServiceDeps{
		Config:      &cmdCtx.Config,
		DB:          infra.DB,
		RedisClient: infra.Redis,
		Logger:      cmdCtx.Logger,
	})
	if err != nil {
		return err
	}
	return fn(ctx, svcs)
}
