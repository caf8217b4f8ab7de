// Package subscription содержит сервис чтения статуса подписки пользователя
// с кешированием. Сервис — граница с внешним биллингом: значения могут быть
// устаревшими, валидация выполняется один раз здесь, а не в движке прав.
package subscription

import (
	"context"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/access-guard/internal/lib/sl"
	"github.com/magabrotheeeer/access-guard/internal/models"
)

// statusCacheTTL ограничивает время жизни кешированного статуса: после
// оплаты или истечения пробного периода уровень доступа обновится не позже
// чем через минуту.
const statusCacheTTL = time.Minute

// UserRepository определяет чтение состояния подписки из хранилища.
type UserRepository interface {
	GetSubscriptionStatus(ctx context.Context, userUID string) (*models.SubscriptionStatus, error)
}

// Cache описывает методы для кэширования данных.
type Cache interface {
	Get(ctx context.Context, key string, result any) (bool, error)
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
}

// Service реализует получение статуса подписки с кешированием.
type Service struct {
	repo          UserRepository
	cache         Cache
	trialDuration time.Duration
	log           *slog.Logger
}

// New создает новый экземпляр Service.
func New(repo UserRepository, cache Cache, trialDuration time.Duration, log *slog.Logger) *Service {
	return &Service{
		repo:          repo,
		cache:         cache,
		trialDuration: trialDuration,
		log:           log,
	}
}

// GetSubscriptionStatus возвращает статус подписки пользователя, используя
// кеш или хранилище. Ошибка кеша не считается ошибкой поиска: запрос уходит
// в хранилище. Ошибка хранилища возвращается вызывающему и включает
// деградированный режим движка прав.
func (s *Service) GetSubscriptionStatus(ctx context.Context, userUID string) (*models.SubscriptionStatus, error) {
	cacheKey := "subscription:status:" + userUID

	var cached models.SubscriptionStatus
	found, err := s.cache.Get(ctx, cacheKey, &cached)
	if err != nil {
		s.log.Warn("failed to read subscription status from cache",
			slog.String("key", cacheKey), sl.Err(err))
	}
	if found {
		return &cached, nil
	}

	sub, err := s.repo.GetSubscriptionStatus(ctx, userUID)
	if err != nil {
		return nil, err
	}

	normalized := s.normalize(sub)
	if err := s.cache.Set(ctx, cacheKey, normalized, statusCacheTTL); err != nil {
		s.log.Warn("failed to cache subscription status",
			slog.String("key", cacheKey), sl.Err(err))
	}
	return normalized, nil
}

// normalize приводит запись внешнего хранилища к строгой форме:
// неизвестный статус опускается до none, отсутствующая дата окончания
// пробного периода достраивается из его начала и настроенной длительности.
func (s *Service) normalize(sub *models.SubscriptionStatus) *models.SubscriptionStatus {
	result := *sub

	switch result.Status {
	case models.SubscriptionActive, models.SubscriptionTrialing,
		models.SubscriptionExpired, models.SubscriptionNone:
	default:
		s.log.Warn("unknown subscription status, downgrading to none",
			slog.String("status", result.Status))
		result.Status = models.SubscriptionNone
	}

	if result.Status == models.SubscriptionTrialing &&
		result.TrialStartedAt != nil && result.TrialEndsAt == nil {
		ends := result.TrialStartedAt.Add(s.trialDuration)
		result.TrialEndsAt = &ends
	}

	return &result
}
