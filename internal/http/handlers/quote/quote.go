// Package quote реализует HTTP-обработчик котировки инструмента.
// Маршрут требует уровня доступа Full и охраняется цепочкой middleware;
// сам обработчик — тонкая прослойка над поставщиком рыночных данных.
package quote

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/access-guard/internal/http/response"
	"github.com/magabrotheeeer/access-guard/internal/lib/sl"
	"github.com/magabrotheeeer/access-guard/internal/models"
	"github.com/magabrotheeeer/access-guard/internal/services/marketdata"
)

// Service описывает интерфейс поставщика котировок.
type Service interface {
	Quote(ctx context.Context, symbol string) (*models.Quote, error)
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
// @Summary Котировка инструмента
// @Description Возвращает текущую котировку по тикеру. Требует полного доступа.
// @Tags Quotes
// @Produce json
// @Param symbol path string true "Тикер инструмента"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.ErrorResponse "Неизвестный тикер"
// @Failure 500 {object} response.ErrorResponse "Ошибка поставщика данных"
// @Security BearerAuth
// @Router /quotes/{symbol} [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.quote"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	symbol := chi.URLParam(r, "symbol")
	if symbol == "" {
		log.Error("symbol not found in url")
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("missing symbol"))
		return
	}

	q, err := h.service.Quote(r.Context(), symbol)
	if err != nil {
		if errors.Is(err, marketdata.ErrUnknownSymbol) {
			log.Info("unknown symbol requested", slog.String("symbol", symbol))
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("unknown symbol"))
			return
		}
		log.Error("failed to fetch quote", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not fetch quote"))
		return
	}

	render.JSON(w, r, response.OKWithData(q))
}
