// Package view содержит общее представление решения о доступе для HTTP-ответов
// и отображение ошибок сервиса в HTTP-статусы.
package view

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	"github.com/magabrotheeeer/course-entitlement/internal/http/response"
	"github.com/magabrotheeeer/course-entitlement/internal/lib/sl"
	"github.com/magabrotheeeer/course-entitlement/internal/models"
	"github.com/magabrotheeeer/course-entitlement/internal/services/entitlement"
)

// RetryAfterSeconds подсказка клиенту при временной недоступности.
const RetryAfterSeconds = "5"

// Decision решение о доступе с версией набора кодов причин.
type Decision struct {
	models.AccessDecision
	ReasonVersion int `json:"reason_version"`
}

// NewDecision оборачивает решение для ответа.
func NewDecision(d models.AccessDecision) Decision {
	return Decision{AccessDecision: d, ReasonVersion: models.ReasonCodesVersion}
}

// WriteError пишет ответ для ошибки сервиса: 400 для некорректного ввода,
// 503 с Retry-After для недоступности, иначе 500.
func WriteError(w http.ResponseWriter, r *http.Request, log *slog.Logger, err error) {
	switch {
	case errors.Is(err, entitlement.ErrInvalidInput):
		log.Warn("invalid input", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("user id and course id are required"))
	case errors.Is(err, entitlement.ErrUnavailable):
		log.Error("entitlement unavailable", sl.Err(err))
		w.Header().Set("Retry-After", RetryAfterSeconds)
		render.Status(r, http.StatusServiceUnavailable)
		render.JSON(w, r, response.Error("access check temporarily unavailable, retry later"))
	default:
		log.Error("access check failed", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("internal service error"))
	}
}

// Unauthorized пишет 401, когда в контексте нет пользователя.
func Unauthorized(w http.ResponseWriter, r *http.Request, log *slog.Logger) {
	log.Warn("user id not found in context")
	render.Status(r, http.StatusUnauthorized)
	render.JSON(w, r, response.Error("unauthorized"))
}
