// Package debug реализует административный просмотр решения о доступе любого пользователя.
// Решение вычисляется заново, без кеша, и дополняется производным статусом подписки.
package debug

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/course-entitlement/internal/http/handlers/access/view"
	"github.com/magabrotheeeer/course-entitlement/internal/http/response"
	"github.com/magabrotheeeer/course-entitlement/internal/models"
	"github.com/magabrotheeeer/course-entitlement/internal/services/entitlement"
)

// Handler обрабатывает GET /admin/users/{userID}/courses/{courseID}/access.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service вычисляет решение вместе со статусом подписки.
type Service interface {
	Inspect(ctx context.Context, userID, courseID string) (entitlement.Inspection, error)
}

// Report ответ отладочного просмотра.
type Report struct {
	UserID             string                    `json:"user_id"`
	CourseID           string                    `json:"course_id"`
	Decision           view.Decision             `json:"decision"`
	SubscriptionStatus models.SubscriptionStatus `json:"subscription_status"`
	EvaluatedAt        time.Time                 `json:"evaluated_at"`
}

// New создает Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.access.debug"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	userID, courseID := chi.URLParam(r, "userID"), chi.URLParam(r, "courseID")
	insp, err := h.service.Inspect(r.Context(), userID, courseID)
	if err != nil {
		view.WriteError(w, r, log, err)
		return
	}

	log.Info("access inspected",
		slog.String("user_id", userID),
		slog.String("course_id", courseID),
		slog.String("reason", string(insp.Decision.Reason)),
	)
	render.JSON(w, r, response.StatusOKWithData(Report{
		UserID:             userID,
		CourseID:           courseID,
		Decision:           view.NewDecision(insp.Decision),
		SubscriptionStatus: insp.SubscriptionStatus,
		EvaluatedAt:        insp.EvaluatedAt,
	}))
}
