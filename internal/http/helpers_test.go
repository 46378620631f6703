package httpx

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"golang.org/x/time/rate"

	"github.com/neighborcast/neighborcast-api/internal/adapters/authroles"
	"github.com/neighborcast/neighborcast-api/internal/domain/model"
	"github.com/neighborcast/neighborcast-api/internal/mocks"
	mockauth "github.com/neighborcast/neighborcast-api/internal/mocks/auth"
	"github.com/neighborcast/neighborcast-api/internal/service"
	"github.com/neighborcast/neighborcast-api/internal/service/configcache"
)

const (
	userToken     = "user-token"
	executorToken = "executor-token"
	adminToken    = "admin-token"
	guestToken    = "guest-token"

	jobID   = "3f0c9a7e-1b2d-4c5e-8f9a-0b1c2d3e4f5a"
	postID1 = "11111111-1111-4111-8111-111111111111"
	postID2 = "22222222-2222-4222-8222-222222222222"
	cfgID   = "0d3f1c2e-8a4b-4f6e-9c1d-2b3a4c5d6e7f"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type apiEnv struct {
	handler  http.Handler
	jobs     *mocks.MockJobRepository
	posts    *mocks.MockPostQueryRepository
	settings *mocks.MockSettingsRepository
	configs  *mocks.MockWeightConfigRepository
	shared   *mocks.MockCacheRepository
	verifier *mockauth.StaticTokenVerifier
}

type envOptions struct {
	limiter *rate.Limiter
	checks  []HealthCheck
}

func quietLogger() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func newAPIEnv(t *testing.T, opts envOptions) *apiEnv {
	t.Helper()
	ctrl := gomock.NewController(t)
	env := &apiEnv{
		jobs:     mocks.NewMockJobRepository(ctrl),
		posts:    mocks.NewMockPostQueryRepository(ctrl),
		settings: mocks.NewMockSettingsRepository(ctrl),
		configs:  mocks.NewMockWeightConfigRepository(ctrl),
		shared:   mocks.NewMockCacheRepository(ctrl),
		verifier: mockauth.NewStaticTokenVerifier().
			Add(userToken, "alice", "neighborcast-users").
			Add(executorToken, "worker-1", "neighborcast-executors").
			Add(adminToken, "root", "neighborcast-admins").
			Add(guestToken, "mallory"),
	}
	logger := quietLogger()

	cache := configcache.New(configcache.Deps{
		Shared: env.shared,
		Store:  env.settings,
		Logger: logger,
	})
	cutover, err := service.NewCutoverService(service.CutoverServiceOptions{
		Stores: service.CutoverStores{Settings: env.settings, Configs: env.configs},
		Cache:  cache,
		Logger: logger,
	})
	require.NoError(t, err)
	jobs := service.MustNewJobService(service.JobServiceOptions{
		Repo:      env.jobs,
		Activator: cutover,
		Configs:   env.configs,
		Logger:    logger,
	})
	bulk, err := service.NewBulkService(service.BulkServiceOptions{
		Stores: service.BulkStores{Posts: env.posts, Jobs: env.jobs},
		Active: cache,
		Logger: logger,
	})
	require.NoError(t, err)

	env.handler = NewRouter(RouterServices{
		Jobs:             jobs,
		Bulk:             bulk,
		Cutover:          cutover,
		Verifier:         env.verifier,
		Roles: authroles.StaticRoleMapper{
			AdminGroup:    "neighborcast-admins",
			ExecutorGroup: "neighborcast-executors",
			UserGroup:     "neighborcast-users",
		},
		BulkApplyLimiter: opts.limiter,
		HealthChecks:     opts.checks,
		Logger:           logger,
	})
	return env
}

func (e *apiEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		rd = bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		rd = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, rd)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func errorBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	return decodeBody[map[string]string](t, rec)
}

func testJob(st model.JobStatus) *model.Job {
	return &model.Job{
		ID:         jobID,
		Type:       model.JobTypeReprocess,
		Params:     json.RawMessage(`{"post_id":"` + postID1 + `"}`),
		Status:     st,
		MaxRetries: 0,
		CreatedBy:  "alice",
		CreatedAt:  testNow,
	}
}

// expectActiveRead expects one cold read of the active configuration id through
// the shared tier at the initial version.
func (e *apiEnv) expectActiveRead(id string) {
	entry := configcache.DefaultSharedKey + ":0"
	e.shared.EXPECT().Get(gomock.Any(), configcache.DefaultVersionKey).Return(nil, nil)
	e.shared.EXPECT().Get(gomock.Any(), entry).Return(nil, nil)
	if id == "" {
		e.settings.EXPECT().GetActiveConfigID(gomock.Any()).Return("", false, nil)
		return
	}
	e.settings.EXPECT().GetActiveConfigID(gomock.Any()).Return(id, true, nil)
	e.shared.EXPECT().Set(gomock.Any(), entry, []byte(id), configcache.DefaultSharedTTL).Return(nil)
}
