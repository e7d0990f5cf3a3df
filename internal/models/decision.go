package models

// ReasonCode стабильный код причины решения о доступе.
// Значения существующих кодов не меняются; новые коды только добавляются
// с увеличением ReasonCodesVersion.
type ReasonCode string

// ReasonCodesVersion версия перечня кодов причин.
const ReasonCodesVersion = 1

const (
	ReasonNotAuthenticated    ReasonCode = "not_authenticated"
	ReasonAccountInactive     ReasonCode = "account_inactive"
	ReasonAdminAccess         ReasonCode = "admin_access"
	ReasonBlocked             ReasonCode = "blocked"
	ReasonAllowedList         ReasonCode = "allowed_list"
	ReasonNotInList           ReasonCode = "no_access_not_in_list"
	ReasonAccessWindowActive  ReasonCode = "access_window_active"
	ReasonAccessWindowExpired ReasonCode = "access_window_expired"
	ReasonPremiumActive       ReasonCode = "premium_active"
	ReasonTrialExpired        ReasonCode = "trial_expired"
	ReasonFreeTrialAccess     ReasonCode = "free_trial_access"
	ReasonPremiumRequired     ReasonCode = "premium_required"
	ReasonNoSubscription      ReasonCode = "no_subscription"
	ReasonNotFound            ReasonCode = "not_found"
)

// CheckoutRequired сообщает, может ли пользователь получить доступ оплатой подписки.
func (r ReasonCode) CheckoutRequired() bool {
	switch r {
	case ReasonPremiumRequired, ReasonTrialExpired, ReasonNoSubscription:
		return true
	default:
		return false
	}
}

// AccessDecision итоговое решение о доступе пользователя к курсу.
type AccessDecision struct {
	CanAccess     bool           `json:"canAccess"`
	Reason        ReasonCode     `json:"reason"`
	Message       string         `json:"message"`
	TrialDaysLeft *int           `json:"trialDaysLeft,omitempty"`
	Course        *CourseSummary `json:"course,omitempty"`
}
