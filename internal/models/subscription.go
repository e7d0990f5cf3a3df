package models

import "time"

// SubscriptionState статус записи подписки в хранилище.
type SubscriptionState string

const (
	SubscriptionTrial    SubscriptionState = "trial"
	SubscriptionActive   SubscriptionState = "active"
	SubscriptionPastDue  SubscriptionState = "past_due"
	SubscriptionCanceled SubscriptionState = "canceled"
	SubscriptionExpired  SubscriptionState = "expired"
)

// Subscription запись подписки пользователя. У пользователя может быть
// несколько записей, в том числе пересекающихся; текущей считается
// созданная последней.
type Subscription struct {
	ID               string
	UserID           string
	Status           SubscriptionState
	TrialEndsAt      *time.Time
	CurrentPeriodEnd time.Time
	CanceledAt       *time.Time
	CreatedAt        time.Time
}

// SubscriptionStatus производный статус подписки на момент вычисления.
// Не хранится, всегда вычисляется заново из текущей подписки.
type SubscriptionStatus struct {
	State                   SubscriptionState `json:"state,omitempty"` // Статус текущей записи, пусто если подписок нет
	IsPremium               bool              `json:"is_premium"`
	IsInTrial               bool              `json:"is_in_trial"`
	IsTrialExpired          bool              `json:"is_trial_expired"`
	TrialDaysLeft           int               `json:"trial_days_left"`
	CanAccessFreeCourses    bool              `json:"can_access_free_courses"`
	CanAccessPremiumCourses bool              `json:"can_access_premium_courses"`
}
