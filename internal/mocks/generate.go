// Package mocks provides mock implementations for testing the neighborcast job system.
//
// This package uses go.uber.org/mock (gomock) to generate type-safe mocks for our repository interfaces.
// The mocks are generated using go:generate directives and provide a fluent API for setting up test expectations.
//
// To regenerate mocks after interface changes, run:
//
//	go generate ./internal/mocks
//
// Usage in tests:
//
//	ctrl := gomock.NewController(t)
//	mockRepo := mocks.NewMockJobRepository(ctrl)
//	mockRepo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(job, nil)
package mocks

// Generate mock for JobRepository interface from internal/core package.
// This creates MockJobRepository with methods for all JobRepository interface methods:
// Create, CreateMany, CreateRetry, GetByID, Delete, Claim, Complete, Fail, Cancel, List, StatSamples, ActiveReprocessPostIDs
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=job_repository_mock.go github.com/neighborcast/neighborcast-api/internal/core JobRepository

// Generate mock for CacheRepository interface from internal/core package.
// This creates MockCacheRepository with methods for all CacheRepository interface methods:
// Set, Get, Delete, Publish, Subscribe, Health
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=cache_repository_mock.go github.com/neighborcast/neighborcast-api/internal/core CacheRepository

// Generate mock for SettingsRepository interface from internal/core package.
// GetActiveConfigID, UpsertActiveConfig
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=settings_repository_mock.go github.com/neighborcast/neighborcast-api/internal/core SettingsRepository

// Generate mock for WeightConfigRepository interface from internal/core package.
// GetByID, List, SetActiveFlag
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=weight_config_repository_mock.go github.com/neighborcast/neighborcast-api/internal/core WeightConfigRepository

// Generate mock for PostQueryRepository interface from internal/core package.
// ResolveIDs, ExistingIDs, UpdateFlag
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=post_query_repository_mock.go github.com/neighborcast/neighborcast-api/internal/core PostQueryRepository
