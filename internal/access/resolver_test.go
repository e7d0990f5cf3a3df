package access

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/magabrotheeeer/course-entitlement/internal/models"
)

var now = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func at(d time.Duration) *time.Time {
	t := now.Add(d)
	return &t
}

func TestResolve(t *testing.T) {
	tests := []struct {
		name string
		subs []models.Subscription
		want models.SubscriptionStatus
	}{
		{
			name: "no subscriptions means expired trial",
			subs: nil,
			want: models.SubscriptionStatus{IsTrialExpired: true},
		},
		{
			name: "empty slice means expired trial",
			subs: []models.Subscription{},
			want: models.SubscriptionStatus{IsTrialExpired: true},
		},
		{
			name: "active trial",
			subs: []models.Subscription{
				{Status: models.SubscriptionTrial, TrialEndsAt: at(3 * day), CreatedAt: now.Add(-4 * day)},
			},
			want: models.SubscriptionStatus{
				State:                models.SubscriptionTrial,
				IsInTrial:            true,
				TrialDaysLeft:        3,
				CanAccessFreeCourses: true,
			},
		},
		{
			name: "partial day rounds up",
			subs: []models.Subscription{
				{Status: models.SubscriptionTrial, TrialEndsAt: at(25 * time.Hour), CreatedAt: now},
			},
			want: models.SubscriptionStatus{
				State:                models.SubscriptionTrial,
				IsInTrial:            true,
				TrialDaysLeft:        2,
				CanAccessFreeCourses: true,
			},
		},
		{
			name: "trial ending exactly now is expired",
			subs: []models.Subscription{
				{Status: models.SubscriptionTrial, TrialEndsAt: at(0), CreatedAt: now.Add(-7 * day)},
			},
			want: models.SubscriptionStatus{State: models.SubscriptionTrial, IsTrialExpired: true},
		},
		{
			name: "trial ended yesterday",
			subs: []models.Subscription{
				{Status: models.SubscriptionTrial, TrialEndsAt: at(-day), CreatedAt: now.Add(-8 * day)},
			},
			want: models.SubscriptionStatus{State: models.SubscriptionTrial, IsTrialExpired: true},
		},
		{
			name: "trial without end date is expired",
			subs: []models.Subscription{
				{Status: models.SubscriptionTrial, CreatedAt: now},
			},
			want: models.SubscriptionStatus{State: models.SubscriptionTrial, IsTrialExpired: true},
		},
		{
			name: "active premium",
			subs: []models.Subscription{
				{Status: models.SubscriptionActive, CurrentPeriodEnd: now.Add(20 * day), CreatedAt: now},
			},
			want: models.SubscriptionStatus{
				State:                   models.SubscriptionActive,
				IsPremium:               true,
				CanAccessPremiumCourses: true,
			},
		},
		{
			name: "canceled subscription is neither premium nor trial",
			subs: []models.Subscription{
				{Status: models.SubscriptionCanceled, CanceledAt: at(-day), CreatedAt: now.Add(-30 * day)},
			},
			want: models.SubscriptionStatus{State: models.SubscriptionCanceled},
		},
		{
			name: "past due keeps trial days for display",
			subs: []models.Subscription{
				{Status: models.SubscriptionPastDue, TrialEndsAt: at(2 * day), CreatedAt: now},
			},
			want: models.SubscriptionStatus{State: models.SubscriptionPastDue, TrialDaysLeft: 2},
		},
		{
			name: "most recently created wins regardless of order",
			subs: []models.Subscription{
				{ID: "old", Status: models.SubscriptionActive, CreatedAt: now.Add(-60 * day)},
				{ID: "new", Status: models.SubscriptionTrial, TrialEndsAt: at(-day), CreatedAt: now.Add(-10 * day)},
				{ID: "older", Status: models.SubscriptionExpired, CreatedAt: now.Add(-90 * day)},
			},
			want: models.SubscriptionStatus{State: models.SubscriptionTrial, IsTrialExpired: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Resolve(tt.subs, now))
		})
	}
}

func TestResolve_TiesKeepFirstRecord(t *testing.T) {
	created := now.Add(-day)
	subs := []models.Subscription{
		{ID: "a", Status: models.SubscriptionActive, CreatedAt: created},
		{ID: "b", Status: models.SubscriptionCanceled, CreatedAt: created},
	}

	got := Resolve(subs, now)

	assert.True(t, got.IsPremium)
	assert.Equal(t, models.SubscriptionActive, got.State)
}

func TestResolve_DoesNotReorderInput(t *testing.T) {
	subs := []models.Subscription{
		{ID: "1", CreatedAt: now.Add(-2 * day)},
		{ID: "2", CreatedAt: now.Add(-day)},
	}

	Resolve(subs, now)

	assert.Equal(t, "1", subs[0].ID)
	assert.Equal(t, "2", subs[1].ID)
}

func TestResolve_Deterministic(t *testing.T) {
	subs := []models.Subscription{
		{Status: models.SubscriptionTrial, TrialEndsAt: at(36 * time.Hour), CreatedAt: now},
	}

	assert.Equal(t, Resolve(subs, now), Resolve(subs, now))
}
