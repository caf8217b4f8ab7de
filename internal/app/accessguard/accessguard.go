// Package accessguard собирает приложение: хранилище, кеш, движок прав,
// ограничитель частоты запросов и HTTP-сервер с цепочкой защиты запросов.
package accessguard

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/magabrotheeeer/access-guard/internal/audit"
	"github.com/magabrotheeeer/access-guard/internal/cache"
	"github.com/magabrotheeeer/access-guard/internal/config"
	"github.com/magabrotheeeer/access-guard/internal/entitlement"
	jwtlib "github.com/magabrotheeeer/access-guard/internal/lib/jwt"
	"github.com/magabrotheeeer/access-guard/internal/migrations"
	"github.com/magabrotheeeer/access-guard/internal/ratelimit"
	"github.com/magabrotheeeer/access-guard/internal/services/marketdata"
	"github.com/magabrotheeeer/access-guard/internal/services/subscription"
	"github.com/magabrotheeeer/access-guard/internal/storage/repository"
)

// App — собранное приложение с явным жизненным циклом: New создаёт все
// сервисы, Run запускает сервер и освобождает ресурсы при остановке.
type App struct {
	server  *http.Server
	logger  *slog.Logger
	db      *repository.Storage
	limiter *ratelimit.Limiter
}

// New создаёт приложение из конфигурации.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	db, err := repository.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, err
	}
	if err = migrations.Run(db.DB, "./migrations"); err != nil {
		return nil, err
	}

	cacheRedis, err := cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		return nil, err
	}

	jwtMaker := jwtlib.NewMaker(cfg.JWTSecretKey, cfg.TokenTTL)

	subService := subscription.New(db, cacheRedis, cfg.Access.TrialDuration, logger)
	aud := audit.NewRecorder(logger, prometheus.DefaultRegisterer)
	engine := entitlement.New(subService, cfg.Access, aud, logger)

	limiter := ratelimit.New(ratelimit.Config{
		BlockDuration:   cfg.RateLimits.BlockDuration,
		CleanupInterval: cfg.RateLimits.CleanupInterval,
		StaleAfter:      cfg.RateLimits.StaleAfter,
	}, logger)

	quotes := marketdata.NewStatic()

	router := chi.NewRouter()
	RegisterRoutes(router, logger, cfg, engine, limiter, aud, jwtMaker, quotes)

	srv := &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return &App{
		server:  srv,
		logger:  logger,
		db:      db,
		limiter: limiter,
	}, nil
}

// Run запускает HTTP-сервер и блокируется до отмены контекста или ошибки.
// При остановке сервер завершается корректно, фоновая очистка ограничителя
// останавливается, соединение с базой закрывается.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err := a.server.Shutdown(timeoutCtx)
		a.limiter.Shutdown()
		if closeErr := a.db.Close(); closeErr != nil {
			a.logger.Error("failed to close storage", slog.Any("err", closeErr))
		}
		return err
	}
}
