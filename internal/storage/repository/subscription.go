package repository

import (
	"context"
	"database/sql"

	"github.com/magabrotheeeer/course-entitlement/internal/models"
	"github.com/magabrotheeeer/course-entitlement/internal/storage"
)

// LoadSubscriptions возвращает всю историю подписок пользователя, новые первыми.
// Отсутствие подписок не является ошибкой.
func (s *Storage) LoadSubscriptions(ctx context.Context, userID string) ([]models.Subscription, error) {
	const op = "storage.LoadSubscriptions"
	select {
	case <-ctx.Done():
		return nil, storage.Classify(op, ctx.Err())
	default:
	}

	query := `SELECT id, user_id, status, trial_ends_at, current_period_end, canceled_at, created_at
			  FROM subscriptions
			  WHERE user_id = $1
			  ORDER BY created_at DESC`
	rows, err := s.DB.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, storage.Classify(op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	result := make([]models.Subscription, 0)
	for rows.Next() {
		var sub models.Subscription
		var status string
		var trialEndsAt, canceledAt sql.NullTime
		if err = rows.Scan(&sub.ID, &sub.UserID, &status, &trialEndsAt,
			&sub.CurrentPeriodEnd, &canceledAt, &sub.CreatedAt); err != nil {
			return nil, storage.Classify(op, err)
		}
		sub.Status = models.SubscriptionState(status)
		if trialEndsAt.Valid {
			t := trialEndsAt.Time.UTC()
			sub.TrialEndsAt = &t
		}
		if canceledAt.Valid {
			t := canceledAt.Time.UTC()
			sub.CanceledAt = &t
		}
		sub.CurrentPeriodEnd = sub.CurrentPeriodEnd.UTC()
		sub.CreatedAt = sub.CreatedAt.UTC()
		result = append(result, sub)
	}
	if err = rows.Err(); err != nil {
		return nil, storage.Classify(op, err)
	}
	return result, nil
}
