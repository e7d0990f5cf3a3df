// Package eligibility реализует проверку перед оформлением оплаты:
// решение о доступе и признак того, что оплата его изменит.
package eligibility

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/course-entitlement/internal/http/handlers/access/view"
	"github.com/magabrotheeeer/course-entitlement/internal/http/middlewarectx"
	"github.com/magabrotheeeer/course-entitlement/internal/http/response"
	"github.com/magabrotheeeer/course-entitlement/internal/models"
)

// Handler обрабатывает GET /checkout/{courseID}/eligibility.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service принимает решение о доступе.
type Service interface {
	CheckAccess(ctx context.Context, userID, courseID string) (models.AccessDecision, error)
}

// Eligibility ответ проверки.
type Eligibility struct {
	view.Decision
	CheckoutRequired bool `json:"checkout_required"`
}

// New создает Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.access.eligibility"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	userID, ok := middlewarectx.UserIDFrom(r.Context())
	if !ok {
		view.Unauthorized(w, r, log)
		return
	}

	decision, err := h.service.CheckAccess(r.Context(), userID, chi.URLParam(r, "courseID"))
	if err != nil {
		view.WriteError(w, r, log, err)
		return
	}

	render.JSON(w, r, response.StatusOKWithData(Eligibility{
		Decision:         view.NewDecision(decision),
		CheckoutRequired: !decision.CanAccess && decision.Reason.CheckoutRequired(),
	}))
}
