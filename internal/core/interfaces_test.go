package core_test

import (
	"testing"

	"github.com/neighborcast/neighborcast-api/internal/core"
	"github.com/neighborcast/neighborcast-api/internal/data"
)

// Compile-time checks that the data layer satisfies the ports.
func TestDataLayerImplementsPorts(t *testing.T) {
	t.Helper()

	var _ core.JobRepository = (*data.JobRepo)(nil)
	var _ core.SettingsRepository = (*data.SettingsRepo)(nil)
	var _ core.WeightConfigRepository = (*data.WeightConfigRepo)(nil)
	var _ core.PostQueryRepository = (*data.PostQueryRepo)(nil)
	var _ core.CacheRepository = (*data.RedisCacheRepo)(nil)
}
