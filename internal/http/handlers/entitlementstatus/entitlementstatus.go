// Package entitlementstatus реализует обработчик, возвращающий вызывающему
// его разрешённый уровень доступа. Уровень вычисляется middleware RequireAccess
// и читается из контекста запроса, сам обработчик повторного разрешения
// не выполняет.
package entitlementstatus

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	"github.com/magabrotheeeer/access-guard/internal/http/middlewarectx"
	"github.com/magabrotheeeer/access-guard/internal/http/response"
)

type Handler struct {
	log *slog.Logger
}

func New(log *slog.Logger) *Handler {
	return &Handler{log: log}
}

// ServeHTTP godoc
// @Summary Текущий уровень доступа
// @Description Возвращает разрешённый уровень доступа вызывающего и признак аутентификации.
// @Tags Entitlement
// @Produce json
// @Success 200 {object} response.Response
// @Router /entitlement [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	principal := middlewarectx.PrincipalFromContext(r.Context())
	level := middlewarectx.LevelFromContext(r.Context())

	render.JSON(w, r, response.OKWithData(map[string]any{
		"level":         level.String(),
		"authenticated": principal.IsAuthenticated,
	}))
}
