package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/neighborcast/neighborcast-api/internal/core"
	"github.com/neighborcast/neighborcast-api/internal/domain/model"
	apperrors "github.com/neighborcast/neighborcast-api/internal/errors"
)

// ConfigCache is the view of the active-configuration cache that the cutover needs.
type ConfigCache interface {
	Get(ctx context.Context) (string, bool, error)
	InvalidateShared(ctx context.Context) error
	InvalidateLocal()
	Broadcast(ctx context.Context, configID string) error
}

// CutoverServiceOptions groups dependencies for CutoverService.
type CutoverServiceOptions struct {
	Stores CutoverStores // Required: pointer and weight-config stores
	Cache  ConfigCache   // Required: active-configuration cache
	Logger *slog.Logger  // Optional: structured logger
}

// CutoverStores bundles the durable stores a cutover writes.
type CutoverStores struct {
	Settings core.SettingsRepository
	Configs  core.WeightConfigRepository
}

// CutoverService is the only writer of the active configuration pointer.
type CutoverService struct {
	settings core.SettingsRepository
	configs  core.WeightConfigRepository
	cache    ConfigCache
	logger   *slog.Logger
}

// NewCutoverService constructs a CutoverService.
func NewCutoverService(opts CutoverServiceOptions) (*CutoverService, error) {
	if opts.Stores.Settings == nil {
		return nil, errors.New("SettingsRepository is required")
	}
	if opts.Stores.Configs == nil {
		return nil, errors.New("WeightConfigRepository is required")
	}
	if opts.Cache == nil {
		return nil, errors.New("ConfigCache is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &CutoverService{
		settings: opts.Stores.Settings,
		configs:  opts.Stores.Configs,
		cache:    opts.Cache,
		logger:   logger.With("component", "cutover_service"),
	}, nil
}

// Activate makes configID the active configuration.
//
// The pointer upsert is the commit point: if it fails nothing else runs. After
// it, cache invalidation and the is_active flag are best-effort and their
// failures are returned as warnings.
func (s *CutoverService) Activate(ctx context.Context, configID, actor string) (*model.CutoverResult, error) {
	if _, err := uuid.Parse(configID); err != nil {
		return nil, apperrors.NotFoundf("weight config %s not found", configID)
	}
	if _, err := s.configs.GetByID(ctx, configID); err != nil {
		return nil, fmt.Errorf("activate config: %w", err)
	}

	activatedAt, err := s.settings.UpsertActiveConfig(ctx, configID)
	if err != nil {
		if !apperrors.IsStoreFailure(err) {
			err = apperrors.StoreFailure(err, "upsert active config pointer")
		}
		return nil, fmt.Errorf("activate config: %w", err)
	}

	res := &model.CutoverResult{ConfigID: configID, ActivatedAt: activatedAt, ActivatedBy: actor}
	warn := func(step string, err error) {
		s.logger.WarnContext(ctx, "cutover step failed", "step", step, "config_id", configID, "error", err)
		res.Warnings = append(res.Warnings, fmt.Sprintf("%s: %v", step, err))
	}

	if err := s.cache.InvalidateShared(ctx); err != nil {
		warn("invalidate shared cache", err)
	}
	s.cache.InvalidateLocal()
	if err := s.cache.Broadcast(ctx, configID); err != nil {
		warn("broadcast invalidation", err)
	}
	if err := s.configs.SetActiveFlag(ctx, configID); err != nil {
		warn("update is_active flag", err)
	}

	s.logger.InfoContext(ctx, "active config cut over",
		"config_id", configID, "actor", actor, "warnings", len(res.Warnings))
	return res, nil
}

// Active returns the active configuration id through the cache. It fails with
// NoActiveConfiguration when none has been activated.
func (s *CutoverService) Active(ctx context.Context) (string, error) {
	id, ok, err := s.cache.Get(ctx)
	if err != nil {
		return "", fmt.Errorf("read active config: %w", err)
	}
	if !ok {
		return "", apperrors.NoActiveConfiguration()
	}
	return id, nil
}

// List returns every weight configuration, newest first. IsActive follows the
// active pointer rather than the denormalized column, which can lag a cutover
// whose flag update failed.
func (s *CutoverService) List(ctx context.Context) ([]*model.WeightConfig, error) {
	configs, err := s.configs.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list weight configs: %w", err)
	}
	active, ok, err := s.cache.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("read active config: %w", err)
	}
	for _, wc := range configs {
		wc.IsActive = ok && wc.ID == active
	}
	return configs, nil
}
