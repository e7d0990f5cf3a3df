package access

import (
	"fmt"
	"time"

	"github.com/magabrotheeeer/course-entitlement/internal/models"
)

// Evaluate принимает решение о доступе user к course на момент now.
//
// Правила проверяются по порядку, срабатывает первое подходящее:
// аутентификация, статус учётной записи, роль администратора, блок-лист,
// явный allow-list, устаревшее окно доступа и, наконец, подписка.
// Функция тотальна: любая комбинация входов даёт ровно одно решение.
func Evaluate(user *models.User, course *models.Course, status models.SubscriptionStatus, now time.Time) models.AccessDecision {
	if user == nil {
		return deny(models.ReasonNotAuthenticated, "Sign in to access this course.", nil)
	}
	if course == nil {
		return deny(models.ReasonNotFound, "Course not found.", nil)
	}

	summary := course.Summary()

	if !user.IsActive() {
		return deny(models.ReasonAccountInactive, "Your account is not active. Contact support.", summary)
	}
	if user.IsAdmin() {
		return grant(models.ReasonAdminAccess, "Administrator access.", summary)
	}
	if user.BlockedCourses.Has(course.ID) {
		return deny(models.ReasonBlocked, "Your access to this course has been blocked.", summary)
	}

	// Явный allow-list полностью определяет доступ, окно и подписка не учитываются.
	if user.AllowedCourses.Restricted() {
		if user.AllowedCourses.Allows(course.ID) {
			return grant(models.ReasonAllowedList, "Access granted for this course.", summary)
		}
		return deny(models.ReasonNotInList, "This course is not included in your access list.", summary)
	}

	if user.AccessExpiresAt != nil {
		if user.AccessExpiresAt.After(now) {
			return grant(models.ReasonAccessWindowActive,
				fmt.Sprintf("Access granted until %s.", user.AccessExpiresAt.UTC().Format(time.DateOnly)), summary)
		}
		return deny(models.ReasonAccessWindowExpired,
			fmt.Sprintf("Your access expired on %s.", user.AccessExpiresAt.UTC().Format(time.DateOnly)), summary)
	}

	return evaluateSubscription(course, status, summary)
}

func evaluateSubscription(course *models.Course, status models.SubscriptionStatus, summary *models.CourseSummary) models.AccessDecision {
	switch {
	case status.IsPremium:
		return grant(models.ReasonPremiumActive, "Premium subscription active.", summary)

	case status.IsTrialExpired:
		d := deny(models.ReasonTrialExpired,
			"Your free trial has ended. Upgrade to premium to keep learning.", summary)
		d.TrialDaysLeft = intPtr(0)
		return d

	case status.IsInTrial:
		days := status.TrialDaysLeft
		if course.IsFree {
			d := grant(models.ReasonFreeTrialAccess,
				fmt.Sprintf("Free course available during your trial (%d days left).", days), summary)
			d.TrialDaysLeft = intPtr(days)
			return d
		}
		d := deny(models.ReasonPremiumRequired,
			"This course requires a premium subscription. Upgrade to get access.", summary)
		d.TrialDaysLeft = intPtr(days)
		return d

	default:
		return deny(models.ReasonNoSubscription, "Subscribe to access this course.", summary)
	}
}

func grant(reason models.ReasonCode, message string, course *models.CourseSummary) models.AccessDecision {
	return models.AccessDecision{CanAccess: true, Reason: reason, Message: message, Course: course}
}

func deny(reason models.ReasonCode, message string, course *models.CourseSummary) models.AccessDecision {
	return models.AccessDecision{CanAccess: false, Reason: reason, Message: message, Course: course}
}

func intPtr(v int) *int {
	return &v
}
