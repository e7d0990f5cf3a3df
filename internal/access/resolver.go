// Package access содержит чистую логику доступа к курсам: вычисление статуса
// подписки и правило принятия решения. Функции пакета не выполняют ввод-вывод,
// не имеют состояния и безопасны для конкурентного вызова.
package access

import (
	"math"
	"slices"
	"time"

	"github.com/magabrotheeeer/course-entitlement/internal/models"
)

const day = 24 * time.Hour

// Resolve вычисляет статус подписки на момент now.
//
// Текущей считается подписка с наибольшим CreatedAt (при равенстве первая
// во входном срезе). Отсутствие подписок трактуется как истёкший триал.
func Resolve(subscriptions []models.Subscription, now time.Time) models.SubscriptionStatus {
	if len(subscriptions) == 0 {
		return models.SubscriptionStatus{IsTrialExpired: true}
	}

	current := slices.MaxFunc(subscriptions, func(a, b models.Subscription) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})

	status := models.SubscriptionStatus{
		State:         current.Status,
		IsPremium:     current.Status == models.SubscriptionActive,
		TrialDaysLeft: trialDaysLeft(current.TrialEndsAt, now),
	}

	if current.Status == models.SubscriptionTrial {
		// Триал без даты окончания не даёт окна доступа.
		if current.TrialEndsAt != nil && current.TrialEndsAt.After(now) {
			status.IsInTrial = true
		} else {
			status.IsTrialExpired = true
		}
	}

	status.CanAccessFreeCourses = status.IsInTrial
	status.CanAccessPremiumCourses = status.IsPremium
	return status
}

func trialDaysLeft(trialEndsAt *time.Time, now time.Time) int {
	if trialEndsAt == nil {
		return 0
	}
	left := trialEndsAt.Sub(now)
	if left <= 0 {
		return 0
	}
	return int(math.Ceil(float64(left) / float64(day)))
}
