package models

import "time"

// Principal представляет идентичность вызывающей стороны, разрешённую внешним
// компонентом аутентификации. Для анонимных запросов все поля пустые.
// Подсистема прав только читает эту структуру, никогда не изменяет.
type Principal struct {
	UID             string // Уникальный идентификатор пользователя, пустой для анонима
	Email           string // Электронная почта, может быть пустой
	IsAuthenticated bool   // Подтверждена ли идентичность
}

// Anonymous возвращает принципала с минимальными привилегиями.
// Используется, когда идентичность отсутствует или не может быть разобрана.
func Anonymous() Principal {
	return Principal{}
}

// Статусы подписки, приходящие от внешнего хранилища.
const (
	SubscriptionNone     = "none"
	SubscriptionTrialing = "trialing"
	SubscriptionActive   = "active"
	SubscriptionExpired  = "expired"
)

// SubscriptionStatus — снимок состояния подписки пользователя, полученный
// от внешнего коллаборатора. Данные могут быть устаревшими или недоступными,
// опциональные даты выражены указателями и валидируются на границе.
type SubscriptionStatus struct {
	Status         string     `json:"status"`
	TrialStartedAt *time.Time `json:"trial_started_at,omitempty"`
	TrialEndsAt    *time.Time `json:"trial_ends_at,omitempty"`
	PlanName       string     `json:"plan_name,omitempty"`
}
