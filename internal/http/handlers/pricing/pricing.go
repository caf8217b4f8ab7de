// Package pricing реализует публичный обработчик списка тарифов.
// Маршрут входит в demo-список и доступен без подписки.
package pricing

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/render"
	"github.com/magabrotheeeer/access-guard/internal/http/response"
)

// Plan описывает тариф для страницы цен.
type Plan struct {
	Name         string `json:"name"`
	PricePerMon  int    `json:"price_per_month"`
	TrialDays    int    `json:"trial_days"`
	QuoteHistory bool   `json:"quote_history"`
}

type Handler struct {
	log *slog.Logger
}

func New(log *slog.Logger) *Handler {
	return &Handler{log: log}
}

// ServeHTTP godoc
// @Summary Список тарифов
// @Tags Public
// @Produce json
// @Success 200 {object} response.Response
// @Router /pricing [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	plans := []Plan{
		{Name: "demo", PricePerMon: 0, TrialDays: 0, QuoteHistory: false},
		{Name: "pro", PricePerMon: 900, TrialDays: 14, QuoteHistory: true},
	}

	render.JSON(w, r, response.OKWithData(map[string]any{
		"plans": plans,
	}))
}
