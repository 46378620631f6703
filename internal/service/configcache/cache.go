// Package configcache holds the two-tier cache of the active weight configuration id.
//
// Reads try the per-process LocalLRU, then the shared tier, then the durable
// settings pointer. Local entries live for a short TTL, which bounds how stale a
// process can be when an invalidation broadcast is missed. Shared entries are
// keyed by a version that every cutover bumps, so a fill racing a cutover in
// another process cannot republish the old pointer.
package configcache

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/neighborcast/neighborcast-api/internal/core"
)

// Defaults for Config.
const (
	DefaultLocalTTL   = 5 * time.Second
	DefaultSharedTTL  = 10 * time.Minute
	DefaultSharedKey  = "neighborcast:active_weight_config_id"
	DefaultVersionKey = "neighborcast:active_weight_config_version"
	DefaultChannel    = "neighborcast:config:invalidate"
)

const localKey = "active_weight_config_id"

// Config controls TTLs and shared-tier names.
type Config struct {
	LocalTTL   time.Duration
	SharedTTL  time.Duration
	SharedKey  string
	VersionKey string
	Channel    string
}

func (c Config) withDefaults() Config {
	if c.LocalTTL <= 0 {
		c.LocalTTL = DefaultLocalTTL
	}
	if c.SharedTTL <= 0 {
		c.SharedTTL = DefaultSharedTTL
	}
	if c.SharedKey == "" {
		c.SharedKey = DefaultSharedKey
	}
	if c.VersionKey == "" {
		c.VersionKey = DefaultVersionKey
	}
	if c.Channel == "" {
		c.Channel = DefaultChannel
	}
	return c
}

// Deps bundles the collaborators of ActiveConfigCache. Shared may be nil, in
// which case reads go straight from the local tier to the store.
type Deps struct {
	Local   *LocalLRU[string]
	Shared  core.CacheRepository
	Store   core.SettingsRepository
	Config  Config
	Metrics CacheMetrics
	Logger  *slog.Logger
}

// ActiveConfigCache answers "which weight configuration is active".
type ActiveConfigCache struct {
	local    *LocalLRU[string]
	shared   core.CacheRepository
	versions *Versioner
	store    core.SettingsRepository
	cfg      Config
	metrics  CacheMetrics
	logger   *slog.Logger

	loads singleflight.Group
	// generation is bumped by every local invalidation; a durable load that
	// started under an older generation does not repopulate the tiers.
	generation atomic.Uint64
}

// New constructs an ActiveConfigCache.
func New(deps Deps) *ActiveConfigCache {
	local := deps.Local
	if local == nil {
		local = NewLocalLRU[string](LocalLRUConfig{Capacity: 4})
	}
	m := deps.Metrics
	if m == nil {
		m = NoopCacheMetrics{}
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	cfg := deps.Config.withDefaults()
	c := &ActiveConfigCache{
		local:   local,
		shared:  deps.Shared,
		store:   deps.Store,
		cfg:     cfg,
		metrics: m,
		logger:  logger.With("component", "active_config_cache"),
	}
	if deps.Shared != nil {
		c.versions = NewVersioner(deps.Shared, cfg.VersionKey, nil)
	}
	return c
}

func (c *ActiveConfigCache) emit(tier CacheTier, op CacheOp, ok bool) {
	c.metrics.RecordCacheEvent(CacheEvent{Tier: tier, Op: op, Ok: ok})
}

// Get returns the active configuration id. ok is false when none is active;
// that answer is never cached, so the next read goes back to the store.
func (c *ActiveConfigCache) Get(ctx context.Context) (string, bool, error) {
	if id, hit := c.local.Get(localKey); hit {
		c.emit(TierLocal, OpHit, true)
		return id, true, nil
	}
	c.emit(TierLocal, OpMiss, true)

	gen := c.generation.Load()
	version, versioned := c.sharedVersion(ctx)
	if versioned {
		if id, hit := c.getShared(ctx, version); hit {
			c.setLocal(gen, id)
			return id, true, nil
		}
	}

	// Loads under different versions must not share a result: a caller that
	// saw a newer version needs a store read that started after the cutover.
	v, err, _ := c.loads.Do(localKey+":"+version, func() (any, error) {
		return c.loadFromStore(ctx, gen, version, versioned)
	})
	if err != nil {
		return "", false, err
	}
	id, _ := v.(string)
	return id, id != "", nil
}

// sharedVersion reports the current version, or false when there is no shared
// tier or it cannot be read. Without a version nothing is read from or written
// to the shared tier.
func (c *ActiveConfigCache) sharedVersion(ctx context.Context) (string, bool) {
	if c.versions == nil {
		return "", false
	}
	version, err := c.versions.Current(ctx)
	if err != nil {
		c.emit(TierShared, OpMiss, false)
		c.logger.WarnContext(ctx, "shared cache version read failed, falling back to store", "error", err)
		return "", false
	}
	return version, true
}

func (c *ActiveConfigCache) getShared(ctx context.Context, version string) (string, bool) {
	b, err := c.shared.Get(ctx, entryKey(c.cfg.SharedKey, version))
	if err != nil {
		c.emit(TierShared, OpMiss, false)
		c.logger.WarnContext(ctx, "shared cache read failed, falling back to store", "error", err)
		return "", false
	}
	if len(b) == 0 {
		c.emit(TierShared, OpMiss, true)
		return "", false
	}
	c.emit(TierShared, OpHit, true)
	return string(b), true
}

func (c *ActiveConfigCache) loadFromStore(ctx context.Context, gen uint64, version string, versioned bool) (string, error) {
	id, ok, err := c.store.GetActiveConfigID(ctx)
	if err != nil {
		c.emit(TierStore, OpMiss, false)
		return "", fmt.Errorf("load active config: %w", err)
	}
	if !ok {
		c.emit(TierStore, OpMiss, true)
		return "", nil
	}
	c.emit(TierStore, OpHit, true)

	if c.generation.Load() != gen {
		// A cutover ran in this process while we were reading.
		return id, nil
	}
	if versioned {
		key := entryKey(c.cfg.SharedKey, version)
		if err := c.shared.Set(ctx, key, []byte(id), c.cfg.SharedTTL); err != nil {
			c.emit(TierShared, OpWrite, false)
			c.logger.WarnContext(ctx, "shared cache write failed", "error", err)
		} else {
			c.emit(TierShared, OpWrite, true)
		}
	}
	c.setLocal(gen, id)
	return id, nil
}

func (c *ActiveConfigCache) setLocal(gen uint64, id string) {
	if c.generation.Load() != gen {
		return
	}
	c.local.Set(localKey, id, c.cfg.LocalTTL)
	c.emit(TierLocal, OpWrite, true)
}

// InvalidateLocal drops this process's entry.
func (c *ActiveConfigCache) InvalidateLocal() {
	c.generation.Add(1)
	c.local.Delete(localKey)
	c.emit(TierLocal, OpInvalidate, true)
}

// InvalidateShared bumps the shared version so every process misses the
// shared tier on its next read. Entries under older versions expire by TTL.
func (c *ActiveConfigCache) InvalidateShared(ctx context.Context) error {
	if c.versions == nil {
		return nil
	}
	version, err := c.versions.Bump(ctx)
	if err != nil {
		c.emit(TierShared, OpInvalidate, false)
		return err
	}
	c.emit(TierShared, OpInvalidate, true)
	c.logger.DebugContext(ctx, "shared cache version bumped", "version", version)
	return nil
}

// Broadcast tells every process listening on the channel to drop its local entry.
func (c *ActiveConfigCache) Broadcast(ctx context.Context, configID string) error {
	if c.shared == nil {
		return nil
	}
	n, err := c.shared.Publish(ctx, c.cfg.Channel, configID)
	if err != nil {
		return fmt.Errorf("publish invalidation: %w", err)
	}
	c.logger.DebugContext(ctx, "invalidation broadcast", "config_id", configID, "receivers", n)
	return nil
}

// Listen drops the local entry for every invalidation broadcast until ctx is done.
func (c *ActiveConfigCache) Listen(ctx context.Context) error {
	if c.shared == nil {
		<-ctx.Done()
		return nil
	}
	c.logger.InfoContext(ctx, "listening for config invalidations", "channel", c.cfg.Channel)
	return c.shared.Subscribe(ctx, c.cfg.Channel, func(payload string) {
		c.InvalidateLocal()
		c.logger.InfoContext(ctx, "local active config dropped", "config_id", payload)
	})
}
