package httpx

import (
	"log/slog"
	"net/http"

	"golang.org/x/time/rate"

	domainauth "github.com/neighborcast/neighborcast-api/internal/domain/auth"
	"github.com/neighborcast/neighborcast-api/internal/ports"
	"github.com/neighborcast/neighborcast-api/internal/service"
)

// RouterServices holds all the services needed by the HTTP router.
type RouterServices struct {
	Jobs    *service.JobService
	Bulk    *service.BulkService
	Cutover *service.CutoverService

	Verifier ports.TokenVerifier
	Roles    ports.RoleMapper

	// Optional: limiter shared by the bulk apply endpoints. Nil disables limiting.
	BulkApplyLimiter *rate.Limiter
	// Optional: dependency checks reported by /healthz.
	HealthChecks []HealthCheck
	Logger       *slog.Logger
}

// NewRouter creates the API router wrapped in recovery and request logging.
func NewRouter(services RouterServices) http.Handler {
	logger := services.Logger
	if logger == nil {
		logger = slog.Default()
	}
	mux := http.NewServeMux()

	authed := RequireAuth(AuthDeps{Verifier: services.Verifier, Roles: services.Roles, Logger: logger})
	admin := func(h http.HandlerFunc) http.Handler {
		return authed(RequireRole(domainauth.RoleAdmin)(h))
	}
	executor := func(h http.HandlerFunc) http.Handler {
		return authed(RequireRole(domainauth.RoleExecutor)(h))
	}
	user := func(h http.HandlerFunc) http.Handler { return authed(h) }

	registerJobRoutes(mux, &JobHandlers{Svc: services.Jobs, Logger: logger}, user, executor)
	registerBulkRoutes(mux, &BulkHandlers{Svc: services.Bulk, Logger: logger}, bulkRouteConfig{
		wrap:    user,
		limiter: services.BulkApplyLimiter,
	})
	registerConfigRoutes(mux, &ConfigHandlers{Svc: services.Cutover, Logger: logger}, user, admin)

	health := healthHandler(services.HealthChecks)
	mux.Handle("GET /healthz", health)
	mux.Handle("HEAD /healthz", health)

	return Recover(logger)(Logging(logger)(mux))
}

type wrapFunc func(http.HandlerFunc) http.Handler

func registerJobRoutes(mux *http.ServeMux, h *JobHandlers, user, executor wrapFunc) {
	mux.Handle("POST /api/jobs", user(h.Submit))
	mux.Handle("GET /api/jobs", user(h.List))
	mux.Handle("GET /api/jobs/stats", user(h.Stats))
	mux.Handle("GET /api/jobs/{id}", user(h.Get))
	mux.Handle("DELETE /api/jobs/{id}", user(h.Delete))
	mux.Handle("POST /api/jobs/{id}/retry", user(h.Retry))

	mux.Handle("POST /api/jobs/types/{type}/claim", executor(h.Claim))
	mux.Handle("POST /api/jobs/{id}/progress", executor(h.Progress))
	mux.Handle("POST /api/jobs/{id}/complete", executor(h.Complete))
	mux.Handle("POST /api/jobs/{id}/fail", executor(h.Fail))
	mux.Handle("POST /api/jobs/{id}/cancel", executor(h.Cancel))
}

type bulkRouteConfig struct {
	wrap    wrapFunc
	limiter *rate.Limiter
}

func registerBulkRoutes(mux *http.ServeMux, h *BulkHandlers, cfg bulkRouteConfig) {
	limited := func(fn http.HandlerFunc) http.Handler {
		return cfg.wrap(RateLimit(cfg.limiter)(fn).ServeHTTP)
	}
	mux.Handle("POST /api/bulk/count", cfg.wrap(h.Count))
	mux.Handle("POST /api/bulk/preview", cfg.wrap(h.Preview))
	mux.Handle("POST /api/bulk/apply", limited(h.Apply))
	mux.Handle("POST /api/bulk/apply-ids", limited(h.ApplyIDs))
}

func registerConfigRoutes(mux *http.ServeMux, h *ConfigHandlers, user, admin wrapFunc) {
	mux.Handle("GET /api/weight-configs", user(h.List))
	mux.Handle("GET /api/weight-configs/active", user(h.Active))
	mux.Handle("POST /api/weight-configs/{id}/activate", admin(h.Activate))
}
