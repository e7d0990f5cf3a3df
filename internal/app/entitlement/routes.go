package entitlement

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"golang.org/x/time/rate"

	"github.com/magabrotheeeer/course-entitlement/internal/http/handlers/access/check"
	"github.com/magabrotheeeer/course-entitlement/internal/http/handlers/access/debug"
	"github.com/magabrotheeeer/course-entitlement/internal/http/handlers/access/eligibility"
	"github.com/magabrotheeeer/course-entitlement/internal/http/handlers/access/invalidate"
	"github.com/magabrotheeeer/course-entitlement/internal/http/handlers/health"
	"github.com/magabrotheeeer/course-entitlement/internal/http/middlewarectx"
	entitlementservice "github.com/magabrotheeeer/course-entitlement/internal/services/entitlement"
)

// Routes зависимости маршрутов.
type Routes struct {
	Logger  *slog.Logger
	Service *entitlementservice.Service
	Tokens  middlewarectx.TokenParser
	Limiter *rate.Limiter
	DB      health.Pinger
	Metrics http.Handler
}

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, deps Routes) {
	logger := deps.Logger

	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Logger,
		middleware.Recoverer,
	)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", health.New(logger, deps.DB).ServeHTTP)

		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.JWTMiddleware(deps.Tokens, logger))
			r.Use(middlewarectx.RateLimitMiddleware(logger, deps.Limiter))

			// Страница курса и оформление оплаты
			r.Get("/courses/{courseID}/access", check.New(logger, deps.Service).ServeHTTP)
			r.Get("/checkout/{courseID}/eligibility", eligibility.New(logger, deps.Service).ServeHTTP)

			r.Route("/admin", func(r chi.Router) {
				r.Use(middlewarectx.RequireAdmin(logger))
				r.Get("/users/{userID}/courses/{courseID}/access", debug.New(logger, deps.Service).ServeHTTP)
				r.Post("/entitlements/invalidate", invalidate.New(logger, deps.Service).ServeHTTP)
			})
		})
	})

	r.Handle("/metrics", deps.Metrics)
}
