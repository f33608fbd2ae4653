package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/datalakehq/catalogd/internal/logger"
	"github.com/datalakehq/catalogd/pkg/api/auth"
	"github.com/datalakehq/catalogd/pkg/api/handlers"
	mw "github.com/datalakehq/catalogd/pkg/api/middleware"
	"github.com/datalakehq/catalogd/pkg/catalog/service"
	"github.com/datalakehq/catalogd/pkg/catalog/store"
	"github.com/datalakehq/catalogd/pkg/metrics"
)

// NewRouter creates and configures the chi router with all middleware and
// routes.
//
// The router is configured with:
//   - Request ID middleware for request tracking
//   - Real IP extraction for proper client identification
//   - Custom request logging using the internal logger
//   - Panic recovery to prevent server crashes
//   - Request timeout to prevent hung requests
//
// Health and metrics routes are unauthenticated; tenant provisioning and
// login need no resolved identity; everything else runs behind the
// Authenticate middleware.
func NewRouter(cfg APIConfig, svc *service.Service, st *store.GORMStore, httpMetrics *metrics.HTTPMetrics) http.Handler {
	r := chi.NewRouter()

	// Middleware stack - order matters
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(requestLogger)
	r.Use(metricsRecorder(httpMetrics))
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(cfg.RequestTimeout))

	var jwtService *auth.JWTService
	if secret := cfg.GetJWTSecret(); secret != "" {
		var err error
		jwtService, err = auth.NewJWTService(auth.JWTConfig{
			Secret:               secret,
			AccessTokenDuration:  cfg.JWT.AccessTokenDuration,
			RefreshTokenDuration: cfg.JWT.RefreshTokenDuration,
		})
		if err != nil {
			logger.Warn("JWT disabled", logger.Err(err))
		}
	}

	healthHandler := handlers.NewHealthHandler(st)
	authHandler := handlers.NewAuthHandler(st, jwtService)
	tenantHandler := handlers.NewTenantHandler(svc)
	userHandler := handlers.NewUserHandler(svc)
	directoryHandler := handlers.NewDirectoryHandler(svc)
	fileHandler := handlers.NewFileHandler(svc)
	searchHandler := handlers.NewSearchHandler(svc)

	// Health routes - unauthenticated
	r.Route("/health", func(r chi.Router) {
		r.Get("/", healthHandler.Liveness)
		r.Get("/ready", healthHandler.Readiness)
	})

	// Prometheus scrape endpoint; answers 404 while metrics are disabled.
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/tenants", tenantHandler.Provision)
		r.Post("/auth/login", authHandler.Login)
		r.Post("/auth/refresh", authHandler.Refresh)

		r.Group(func(r chi.Router) {
			r.Use(mw.Authenticate(jwtService, st))

			r.Route("/tenant", func(r chi.Router) {
				r.Put("/settings", tenantHandler.UpdateSettings)
				r.Get("/quota", tenantHandler.GetQuota)
				r.Put("/quota", tenantHandler.SetQuota)
				r.Put("/schema", tenantHandler.ReplaceSchema)
				r.Delete("/schema/{name}", tenantHandler.DeleteSchemaDef)
			})

			r.Route("/users", func(r chi.Router) {
				r.Post("/", userHandler.Register)
				r.Put("/{username}/role", userHandler.UpdateRole)
				r.Delete("/{username}/role", userHandler.DeleteRole)
			})

			r.Route("/directories", func(r chi.Router) {
				r.Post("/", directoryHandler.Create)
				r.Get("/", directoryHandler.Get)
				r.Delete("/", directoryHandler.Delete)
				r.Put("/permissions", directoryHandler.UpdatePermissions)
				r.Delete("/permissions", directoryHandler.DeletePermission)
				r.Put("/rules", directoryHandler.UpdateRules)
				r.Delete("/rules", directoryHandler.DeleteRules)
				r.Put("/meta", directoryHandler.UpdateMeta)
				r.Delete("/meta", directoryHandler.DeleteMeta)
			})

			r.Route("/files", func(r chi.Router) {
				r.Post("/", fileHandler.Catalog)
				r.Get("/", fileHandler.Get)
				r.Put("/", fileHandler.Update)
				r.Delete("/", fileHandler.Delete)
			})

			r.Post("/search", searchHandler.Search)
		})
	})

	// Root redirect to health for convenience
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/health", http.StatusTemporaryRedirect)
	})

	return r
}

// requestLogger is a custom middleware that logs requests using the
// internal logger and seeds the request-scoped log context.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := chimw.GetReqID(r.Context())

		lc := logger.NewLogContext(r.RemoteAddr)
		lc.RequestID = requestID
		ctx := logger.WithContext(r.Context(), lc)

		logger.Debug("API request started",
			logger.RequestID(requestID),
			"method", r.Method,
			logger.Path(r.URL.Path),
			logger.ClientIP(r.RemoteAddr),
		)

		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r.WithContext(ctx))

		logger.Info("API request completed",
			logger.RequestID(requestID),
			"method", r.Method,
			logger.Path(r.URL.Path),
			logger.Status(ww.Status()),
			logger.DurationMs(float64(time.Since(start).Microseconds())/1000.0),
		)
	})
}

// metricsRecorder observes every request on the HTTP metrics. The chi
// route pattern keeps the label cardinality bounded.
func metricsRecorder(m *metrics.HTTPMetrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if m == nil {
				next.ServeHTTP(w, r)
				return
			}
			start := time.Now()
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			route := chi.RouteContext(r.Context()).RoutePattern()
			if route == "" {
				route = "unmatched"
			}
			m.RecordRequest(r.Method, route, strconv.Itoa(ww.Status()), time.Since(start))
		})
	}
}
