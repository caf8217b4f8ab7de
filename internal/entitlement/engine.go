// Package entitlement реализует движок прав доступа: разрешение принципала
// в уровень доступа по упорядоченной цепочке правил и проверку уровня против
// требования маршрута.
//
// Порядок правил фиксирован и значим:
//  1. адрес в списке исключений — Exempt;
//  2. активная подписка — Full;
//  3. действующий пробный период — Trial;
//  4. иначе Demo для публичных маршрутов, None для остальных.
package entitlement

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/magabrotheeeer/access-guard/internal/audit"
	"github.com/magabrotheeeer/access-guard/internal/config"
	"github.com/magabrotheeeer/access-guard/internal/models"
)

// SubscriptionProvider описывает внешний источник статусов подписок.
// Вызов может блокироваться или завершаться ошибкой, поэтому выполняется
// с коротким таймаутом.
type SubscriptionProvider interface {
	GetSubscriptionStatus(ctx context.Context, userUID string) (*models.SubscriptionStatus, error)
}

// Engine разрешает принципала в уровень доступа. После создания не имеет
// изменяемого состояния: список исключений и публичных маршрутов читаются
// конкурентно без синхронизации.
type Engine struct {
	provider      SubscriptionProvider
	exempt        map[string]struct{}
	demoRoutes    []string
	lookupTimeout time.Duration
	aud           *audit.Recorder
	log           *slog.Logger
}

// New создаёт Engine из политики доступа в конфиге.
func New(provider SubscriptionProvider, cfg config.Access, aud *audit.Recorder, log *slog.Logger) *Engine {
	exempt := make(map[string]struct{}, len(cfg.ExemptEmails))
	for _, email := range cfg.ExemptEmails {
		exempt[strings.ToLower(strings.TrimSpace(email))] = struct{}{}
	}
	return &Engine{
		provider:      provider,
		exempt:        exempt,
		demoRoutes:    cfg.DemoRoutes,
		lookupTimeout: cfg.LookupTimeout,
		aud:           aud,
		log:           log,
	}
}

// Resolve вычисляет уровень доступа принципала для маршрута на момент now.
// При недоступности внешнего хранилища подписок применяется единая политика
// деградации: правила подписки и пробного периода пропускаются, уровень
// опускается до Demo/None. Маршруты, требующие Full, при этом закрыты,
// маршруты уровня Demo и ниже остаются доступными.
func (e *Engine) Resolve(ctx context.Context, p models.Principal, route string, now time.Time) models.AccessLevel {
	if e.isExempt(p.Email) {
		return models.LevelExempt
	}

	if !p.IsAuthenticated || p.UID == "" {
		return e.fallbackLevel(route)
	}

	lookupCtx, cancel := context.WithTimeout(ctx, e.lookupTimeout)
	defer cancel()

	sub, err := e.provider.GetSubscriptionStatus(lookupCtx, p.UID)
	if err != nil {
		e.aud.DegradedLookup(p.UID, err)
		return e.fallbackLevel(route)
	}

	switch sub.Status {
	case models.SubscriptionActive:
		return models.LevelFull
	case models.SubscriptionTrialing:
		if withinTrial(sub, now) {
			return models.LevelTrial
		}
	}
	return e.fallbackLevel(route)
}

// withinTrial проверяет попадание now в полуинтервал [TrialStartedAt, TrialEndsAt).
func withinTrial(sub *models.SubscriptionStatus, now time.Time) bool {
	if sub.TrialStartedAt == nil || sub.TrialEndsAt == nil {
		return false
	}
	return !now.Before(*sub.TrialStartedAt) && now.Before(*sub.TrialEndsAt)
}

func (e *Engine) isExempt(email string) bool {
	if email == "" {
		return false
	}
	_, ok := e.exempt[strings.ToLower(email)]
	return ok
}

// fallbackLevel возвращает Demo для маршрутов из публичного списка, иначе None.
// Шаблон с суффиксом "*" совпадает по префиксу, остальные — точно.
func (e *Engine) fallbackLevel(route string) models.AccessLevel {
	for _, pattern := range e.demoRoutes {
		if prefix, ok := strings.CutSuffix(pattern, "*"); ok {
			if strings.HasPrefix(route, prefix) {
				return models.LevelDemo
			}
			continue
		}
		if route == pattern {
			return models.LevelDemo
		}
	}
	return models.LevelNone
}

// Decision — результат проверки уровня против требования маршрута.
type Decision struct {
	Allowed bool
	Reason  string
}

// Authorize разрешает доступ, если уровень level покрывает требование
// required в порядке None < Demo < Trial < Full == Exempt.
func Authorize(level, required models.AccessLevel) Decision {
	if level.Meets(required) {
		return Decision{Allowed: true}
	}
	return Decision{
		Allowed: false,
		Reason:  "level " + level.String() + " does not meet required " + required.String(),
	}
}
