// Package middlewarectx содержит HTTP middleware цепочки защиты запросов:
// разрешение принципала, проверку уровня доступа, ограничение частоты
// запросов и заголовки безопасности. Порядок в цепочке детерминирован:
// принципал → права → лимит → бизнес-обработчик.
package middlewarectx

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/middleware"

	jwtlib "github.com/magabrotheeeer/access-guard/internal/lib/jwt"
	"github.com/magabrotheeeer/access-guard/internal/models"
)

// Key тип для ключей контекста HTTP-запроса.
type Key string

const (
	// PrincipalKey — ключ принципала в контексте.
	PrincipalKey Key = "principal"
	// AccessLevelKey — ключ разрешённого уровня доступа в контексте.
	AccessLevelKey Key = "access_level"
)

// PrincipalFromContext возвращает принципала из контекста.
// Отсутствующий или нераспознанный принципал трактуется как аноним
// с минимальными привилегиями.
func PrincipalFromContext(ctx context.Context) models.Principal {
	p, ok := ctx.Value(PrincipalKey).(models.Principal)
	if !ok {
		return models.Anonymous()
	}
	return p
}

// LevelFromContext возвращает уровень доступа, вычисленный RequireAccess.
func LevelFromContext(ctx context.Context) models.AccessLevel {
	level, ok := ctx.Value(AccessLevelKey).(models.AccessLevel)
	if !ok {
		return models.LevelNone
	}
	return level
}

// PrincipalMiddleware разбирает Bearer токен из заголовка Authorization
// и кладёт принципала в контекст запроса. Отсутствующий или невалидный
// токен не является ошибкой: запрос продолжается от имени анонима,
// решение о доступе принимает RequireAccess.
func PrincipalMiddleware(maker jwtlib.Maker, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "middlewarectx.PrincipalMiddleware"

			principal := models.Anonymous()

			authHeader := r.Header.Get("Authorization")
			if strings.HasPrefix(authHeader, "Bearer ") {
				tokenStr := strings.TrimPrefix(authHeader, "Bearer ")
				claims, err := maker.ParseToken(tokenStr)
				if err != nil {
					log.Debug("token rejected, continuing as anonymous",
						slog.String("op", op),
						slog.String("request_id", middleware.GetReqID(r.Context())),
					)
				} else {
					principal = models.Principal{
						UID:             claims.UserUID,
						Email:           claims.Email,
						IsAuthenticated: true,
					}
				}
			}

			ctx := context.WithValue(r.Context(), PrincipalKey, principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
