// Package demoquotes реализует публичный обработчик демонстрационных
// котировок. Маршрут входит в demo-список и доступен без подписки.
package demoquotes

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/render"
	"github.com/magabrotheeeer/access-guard/internal/http/response"
	"github.com/magabrotheeeer/access-guard/internal/models"
)

// Service описывает интерфейс поставщика демонстрационных данных.
type Service interface {
	DemoQuotes(ctx context.Context) []models.Quote
}

type Handler struct {
	log     *slog.Logger
	service Service
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Демонстрационные котировки
// @Tags Public
// @Produce json
// @Success 200 {object} response.Response
// @Router /demo/quotes [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	quotes := h.service.DemoQuotes(r.Context())

	render.JSON(w, r, response.OKWithData(map[string]any{
		"quotes": quotes,
	}))
}
