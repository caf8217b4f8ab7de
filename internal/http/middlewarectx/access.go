package middlewarectx

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/access-guard/internal/audit"
	"github.com/magabrotheeeer/access-guard/internal/config"
	"github.com/magabrotheeeer/access-guard/internal/entitlement"
	"github.com/magabrotheeeer/access-guard/internal/http/response"
	"github.com/magabrotheeeer/access-guard/internal/models"
)

// RequireAccess возвращает middleware, которое разрешает принципала в уровень
// доступа и пропускает запрос дальше, только если уровень покрывает required.
//
// При отказе ответ выбирается детерминированно по заголовкам запроса:
// если Accept или Content-Type содержит application/json — JSON-ошибка
// 401 (аноним) либо 403 (аутентифицирован), иначе 302 на страницу входа
// (аноним) либо страницу апгрейда (аутентифицирован).
func RequireAccess(required models.AccessLevel, engine *entitlement.Engine, cfg config.Access,
	aud *audit.Recorder, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "middlewarectx.RequireAccess"
			requestID := middleware.GetReqID(r.Context())

			principal := PrincipalFromContext(r.Context())
			level := engine.Resolve(r.Context(), principal, r.URL.Path, time.Now())

			decision := entitlement.Authorize(level, required)
			if !decision.Allowed {
				aud.Denial(requestID, r.URL.Path, principal, level, required)

				if wantsJSON(r) {
					if principal.IsAuthenticated {
						w.WriteHeader(http.StatusForbidden)
						render.JSON(w, r, response.Denial("access_denied",
							"upgrade your plan to access this resource"))
						return
					}
					w.WriteHeader(http.StatusUnauthorized)
					render.JSON(w, r, response.Denial("authentication_required",
						"sign in to access this resource"))
					return
				}

				target := cfg.LoginPath
				if principal.IsAuthenticated {
					target = cfg.UpgradePath
				}
				http.Redirect(w, r, target, http.StatusFound)
				return
			}

			log.Debug("access granted",
				slog.String("op", op),
				slog.String("request_id", requestID),
				slog.String("level", level.String()),
			)

			ctx := context.WithValue(r.Context(), AccessLevelKey, level)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// wantsJSON сообщает, ожидает ли клиент JSON-ответ. Правило фиксировано:
// JSON тогда и только тогда, когда Accept или Content-Type содержит
// application/json.
func wantsJSON(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "application/json") ||
		strings.Contains(r.Header.Get("Content-Type"), "application/json")
}
