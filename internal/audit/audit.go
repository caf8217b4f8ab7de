// Package audit записывает события отказа в доступе, блокировки по частоте
// запросов и деградации внешних зависимостей. Каждое событие получает
// уникальный идентификатор, пишется в структурированный лог и увеличивает
// счётчик prometheus.
package audit

import (
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/magabrotheeeer/access-guard/internal/lib/sl"
	"github.com/magabrotheeeer/access-guard/internal/models"
)

// Recorder — регистратор событий безопасности.
type Recorder struct {
	log *slog.Logger

	denials  *prometheus.CounterVec
	blocks   *prometheus.CounterVec
	degraded prometheus.Counter
}

// NewRecorder создаёт Recorder и регистрирует счётчики в переданном реестре.
func NewRecorder(log *slog.Logger, reg prometheus.Registerer) *Recorder {
	r := &Recorder{
		log: log,
		denials: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "access_guard_entitlement_denials_total",
			Help: "Number of requests denied by the entitlement engine.",
		}, []string{"required"}),
		blocks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "access_guard_rate_limit_blocks_total",
			Help: "Number of requests rejected by the rate limiter.",
		}, []string{"policy"}),
		degraded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "access_guard_degraded_lookups_total",
			Help: "Number of subscription lookups that failed or timed out.",
		}),
	}
	reg.MustRegister(r.denials, r.blocks, r.degraded)
	return r
}

// Denial фиксирует отказ движка прав: уровень принципала не достиг требования маршрута.
func (r *Recorder) Denial(requestID, route string, p models.Principal, level, required models.AccessLevel) {
	r.denials.WithLabelValues(required.String()).Inc()
	r.log.Warn("entitlement denied",
		slog.String("event_id", uuid.NewString()),
		slog.String("request_id", requestID),
		slog.String("route", route),
		slog.String("user_uid", p.UID),
		slog.Bool("authenticated", p.IsAuthenticated),
		slog.String("level", level.String()),
		slog.String("required", required.String()),
	)
}

// Block фиксирует блокировку идентификатора ограничителем частоты запросов.
func (r *Recorder) Block(requestID, route, identifier, policy string, retryAfter time.Duration) {
	r.blocks.WithLabelValues(policy).Inc()
	r.log.Warn("rate limit exceeded",
		slog.String("event_id", uuid.NewString()),
		slog.String("request_id", requestID),
		slog.String("route", route),
		slog.String("identifier", identifier),
		slog.String("policy", policy),
		slog.Duration("retry_after", retryAfter),
	)
}

// DegradedLookup фиксирует недоступность внешнего хранилища статусов подписок.
// Решение в деградированном режиме: маршруты уровня Demo и ниже остаются
// доступными, маршруты уровня Full закрываются.
func (r *Recorder) DegradedLookup(userUID string, err error) {
	r.degraded.Inc()
	r.log.Warn("subscription lookup degraded, applying fallback policy",
		slog.String("event_id", uuid.NewString()),
		slog.String("user_uid", userUID),
		sl.Err(err),
	)
}
