// Package accessguard предоставляет маршруты для основного приложения.
package accessguard

import (
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/magabrotheeeer/access-guard/internal/audit"
	"github.com/magabrotheeeer/access-guard/internal/config"
	"github.com/magabrotheeeer/access-guard/internal/entitlement"
	"github.com/magabrotheeeer/access-guard/internal/http/handlers/demoquotes"
	"github.com/magabrotheeeer/access-guard/internal/http/handlers/entitlementstatus"
	"github.com/magabrotheeeer/access-guard/internal/http/handlers/health"
	"github.com/magabrotheeeer/access-guard/internal/http/handlers/pricing"
	"github.com/magabrotheeeer/access-guard/internal/http/handlers/quote"
	"github.com/magabrotheeeer/access-guard/internal/http/middlewarectx"
	jwtlib "github.com/magabrotheeeer/access-guard/internal/lib/jwt"
	"github.com/magabrotheeeer/access-guard/internal/models"
	"github.com/magabrotheeeer/access-guard/internal/ratelimit"
	"github.com/magabrotheeeer/access-guard/internal/services/marketdata"
)

// RegisterRoutes регистрирует все маршруты приложения.
//
// Порядок цепочки фиксирован: заголовки безопасности снаружи Recoverer,
// чтобы 500 после паники тоже нёс заголовки; внутри групп — сначала
// проверка прав, затем лимит, затем бизнес-обработчик.
func RegisterRoutes(r chi.Router, logger *slog.Logger, cfg *config.Config, engine *entitlement.Engine,
	limiter *ratelimit.Limiter, aud *audit.Recorder, jwtMaker jwtlib.Maker, quotes *marketdata.Provider) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middlewarectx.SecurityHeaders(),
		middleware.Recoverer,
		middleware.URLFormat,
	)

	trustXFF := cfg.RateLimits.TrustForwardedFor

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middlewarectx.PrincipalMiddleware(jwtMaker, logger))

		// Открытая конечная точка живости
		r.Get("/health", health.New(logger).ServeHTTP)

		// Публичные demo-маршруты с общим пресетом лимита по IP
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.RequireAccess(models.LevelDemo, engine, cfg.Access, aud, logger))
			r.Use(middlewarectx.RateLimit(limiter, cfg.RateLimits.General, "general",
				middlewarectx.KeyByIP, trustXFF, aud, logger))
			r.Get("/pricing", pricing.New(logger).ServeHTTP)
			r.Get("/demo/quotes", demoquotes.New(logger, quotes).ServeHTTP)
		})

		// Состояние прав — чувствительная точка, жёсткий пресет по IP
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.RequireAccess(models.LevelDemo, engine, cfg.Access, aud, logger))
			r.Use(middlewarectx.RateLimit(limiter, cfg.RateLimits.Auth, "auth",
				middlewarectx.KeyByIP, trustXFF, aud, logger))
			r.Get("/entitlement", entitlementstatus.New(logger).ServeHTTP)
		})

		// Маршруты полного доступа с лимитом по пользователю
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.RequireAccess(models.LevelFull, engine, cfg.Access, aud, logger))
			r.Use(middlewarectx.RateLimit(limiter, cfg.RateLimits.User, "user",
				middlewarectx.KeyByUser, trustXFF, aud, logger))
			r.Get("/quotes/{symbol}", quote.New(logger, quotes).ServeHTTP)
		})
	})

	r.Handle("/metrics", promhttp.Handler())
	// Swagger docs endpoint
	r.Get("/docs/*", httpSwagger.WrapHandler)
}
