package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/magabrotheeeer/access-guard/internal/models"
)

// GetSubscriptionStatus возвращает снимок состояния подписки пользователя.
// Неизвестный пользователь трактуется как отсутствие подписки, а не ошибка:
// ошибка здесь означает недоступность хранилища и включает деградированный
// режим движка прав.
func (s *Storage) GetSubscriptionStatus(ctx context.Context, userUID string) (*models.SubscriptionStatus, error) {
	const op = "storage.repository.GetSubscriptionStatus"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT subscription_status, trial_started_at, trial_ends_at, plan_name
			  FROM users
			  WHERE uid = $1`

	var (
		status                  string
		trialStarted, trialEnds sql.NullTime
		planName                sql.NullString
	)
	row := s.DB.QueryRowContext(ctx, query, userUID)
	if err := row.Scan(&status, &trialStarted, &trialEnds, &planName); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return &models.SubscriptionStatus{Status: models.SubscriptionNone}, nil
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	result := &models.SubscriptionStatus{Status: status}
	if trialStarted.Valid {
		result.TrialStartedAt = &trialStarted.Time
	}
	if trialEnds.Valid {
		result.TrialEndsAt = &trialEnds.Time
	}
	if planName.Valid {
		result.PlanName = planName.String
	}
	return result, nil
}
