package config

import (
	"strings"
	"time"
)

// DBConfig contains PostgreSQL database configuration.
type DBConfig struct {
	Host     string `env:"HOST"     envDefault:"localhost"`
	Port     int    `env:"PORT"     envDefault:"5432"`
	User     string `env:"USER"     envDefault:"neighborcast"`
	Password string `env:"PASSWORD" envDefault:"neighborcast"`
	Name     string `env:"NAME"     envDefault:"neighborcast"`
	SSLMode  string `env:"SSL_MODE" envDefault:"disable"` // Use 'disable' for local dev, 'require' for production
	// RunMigrationsOnStart controls whether the application automatically applies migrations during startup.
	RunMigrationsOnStart bool `env:"RUN_MIGRATIONS_ON_START" envDefault:"true"`
	MaxOpenConns         int  `env:"MAX_OPEN_CONNS"          envDefault:"25"`
}

// RedisConfig contains Redis configuration.
type RedisConfig struct {
	URI                string   `env:"URI"                  envDefault:"localhost:6379"`
	Password           string   `env:"PASSWORD"             envDefault:""`
	SentinelNodes      []string `env:"SENTINEL_NODES"       envDefault:"localhost:26379"`
	SentinelMasterName string   `env:"SENTINEL_MASTER_NAME" envDefault:"mymaster"`
	SentinelPassword   string   `env:"SENTINEL_PASSWORD"    envDefault:""`
	UseSentinel        bool     `env:"USE_SENTINEL"         envDefault:"false"`
	ClusterNodes       []string `env:"CLUSTER_NODES"        envDefault:""`
	UseCluster         bool     `env:"USE_CLUSTER"          envDefault:"false"`
}

// Sanitize trims node lists.
func (c *RedisConfig) Sanitize() {
	c.URI = strings.TrimSpace(c.URI)
	c.SentinelNodes = trimList(c.SentinelNodes)
	c.ClusterNodes = trimList(c.ClusterNodes)
}

// Active-configuration cache defaults.
const (
	DefaultCacheLocalTTL  = 5 * time.Second
	DefaultCacheSharedTTL = 10 * time.Minute
	DefaultCacheCapacity  = 16
)

// CacheConfig controls the two-tier active-configuration cache.
type CacheConfig struct {
	LocalTTL   time.Duration `env:"ACTIVE_CONFIG_LOCAL_TTL"   envDefault:"5s"`
	SharedTTL  time.Duration `env:"ACTIVE_CONFIG_SHARED_TTL"  envDefault:"10m"`
	Capacity   int           `env:"ACTIVE_CONFIG_CAPACITY"    envDefault:"16"`
	SharedKey  string        `env:"ACTIVE_CONFIG_SHARED_KEY"  envDefault:"neighborcast:active_weight_config_id"`
	VersionKey string        `env:"ACTIVE_CONFIG_VERSION_KEY" envDefault:"neighborcast:active_weight_config_version"`
	Channel    string        `env:"INVALIDATION_CHANNEL"      envDefault:"neighborcast:config:invalidate"`
}

// Sanitize replaces non-positive TTLs and capacity with defaults.
func (c *CacheConfig) Sanitize() {
	if c.LocalTTL <= 0 {
		c.LocalTTL = DefaultCacheLocalTTL
	}
	if c.SharedTTL <= 0 {
		c.SharedTTL = DefaultCacheSharedTTL
	}
	if c.Capacity < 1 {
		c.Capacity = DefaultCacheCapacity
	}
	c.SharedKey = strings.TrimSpace(c.SharedKey)
	c.VersionKey = strings.TrimSpace(c.VersionKey)
	c.Channel = strings.TrimSpace(c.Channel)
}

func trimList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, v := range in {
		if t := strings.TrimSpace(v); t != "" {
			out = append(out, t)
		}
	}
	return out
}
