// Package core defines the repository ports the service layer depends on.
package core

import (
	"context"
	"time"

	"github.com/neighborcast/neighborcast-api/internal/domain/model"
)

// This file contains repository interface definitions (ports in hexagonal architecture).
// These interfaces define the contracts between the service layer and data layer.
// Service implementations should depend on these interfaces, not concrete implementations.

// JobRepository defines the interface for job data operations.
// Every mutating call is a single conditional statement; a stale or illegal
// transition reports InvalidState and changes nothing.
type JobRepository interface {
	Create(ctx context.Context, req *model.CreateJobRequest) (*model.Job, error)
	// CreateMany inserts all requests in one transaction, or none of them.
	CreateMany(ctx context.Context, reqs []*model.CreateJobRequest) ([]*model.Job, error)
	// CreateRetry clones a job in error or cancelled state as a fresh pending job.
	CreateRetry(ctx context.Context, req model.RetryJobRequest) (*model.Job, error)
	GetByID(ctx context.Context, id string) (*model.Job, error)
	// Delete removes a pending or running job.
	Delete(ctx context.Context, id string) error
	// Claim moves the oldest pending job of jobType to running.
	// It returns model.ErrNoJobsAvailable when there is nothing to claim.
	Claim(ctx context.Context, jobType model.JobType) (*model.Job, error)
	Complete(ctx context.Context, id string) (*model.Job, error)
	Fail(ctx context.Context, req *model.FailJobRequest) (*model.Job, error)
	Cancel(ctx context.Context, id string) (*model.Job, error)
	// UpdateProgress records executor progress on a running job.
	UpdateProgress(ctx context.Context, req *model.ProgressJobRequest) (*model.Job, error)
	List(ctx context.Context, opts model.JobListOptions) ([]*model.Job, error)
	StatSamples(ctx context.Context) ([]model.JobStatSample, error)
	// ActiveReprocessPostIDs returns the subset of postIDs that already have a
	// pending or running reprocess job.
	ActiveReprocessPostIDs(ctx context.Context, postIDs []string) (map[string]struct{}, error)
}

// SettingsRepository reads and writes the active configuration pointer.
type SettingsRepository interface {
	// GetActiveConfigID returns ok=false when no configuration has been activated.
	GetActiveConfigID(ctx context.Context) (id string, ok bool, err error)
	// UpsertActiveConfig atomically replaces the pointer and returns its update time.
	UpsertActiveConfig(ctx context.Context, configID string) (time.Time, error)
}

// WeightConfigRepository defines the interface for weight configuration records.
type WeightConfigRepository interface {
	GetByID(ctx context.Context, id string) (*model.WeightConfig, error)
	List(ctx context.Context) ([]*model.WeightConfig, error)
	// SetActiveFlag flips the denormalized is_active flag so only activeID carries it.
	SetActiveFlag(ctx context.Context, activeID string) error
}

// PostQueryRepository resolves bulk query specs and applies flag actions to posts.
type PostQueryRepository interface {
	ResolveIDs(ctx context.Context, q model.ResolvedPostQuery) ([]string, error)
	ExistingIDs(ctx context.Context, ids []string) ([]string, error)
	UpdateFlag(ctx context.Context, action model.BulkAction, ids []string) (int, error)
}

// CacheRepository defines the interface for the shared cache tier and its broadcast channel.
type CacheRepository interface {
	// Set stores a value in the cache with the given key and TTL.
	// If TTL is 0, the key will not expire.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Get retrieves a value from the cache by key.
	// Returns nil if the key doesn't exist or has expired.
	Get(ctx context.Context, key string) ([]byte, error)

	// Delete removes a key from the cache.
	// Returns true if the key was deleted, false if it didn't exist.
	Delete(ctx context.Context, key string) (bool, error)

	// Publish broadcasts payload on channel and returns the number of receivers.
	Publish(ctx context.Context, channel, payload string) (int64, error)

	// Subscribe delivers every message on channel to handler until ctx is done.
	Subscribe(ctx context.Context, channel string, handler func(payload string)) error

	// Health checks the health of the cache connection.
	Health(ctx context.Context) error
}
