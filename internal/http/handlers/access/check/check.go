// Package check реализует проверку доступа текущего пользователя к странице курса.
package check

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

// Handler обрабатывает GET /courses/{courseID}/access.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service принимает решение о доступе.
type Service interface {
	CheckAccess(ctx context.Context, userID, courseID string) (models.AccessDecision, error)
}

// New создает Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP отвечает решением о доступе. Отказ в доступе это успешный ответ с canAccess=false.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.access.check"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	userID, ok := middlewarectx.UserIDFrom(r.Context())
	if !ok {
		view.Unauthorized(w, r, log)
		return
	}
	courseID := chi.URLParam(r, "courseID")

	decision, err := h.service.CheckAccess(r.Context(), userID, courseID)
	if err != nil {
		view.WriteError(w, r, log, err)
		return
	}

	log.Debug("access checked", slog.String("course_id", courseID), slog.String("reason", string(decision.Reason)))
	render.JSON(w, r, response.StatusOKWithData(view.NewDecision(decision)))
}
