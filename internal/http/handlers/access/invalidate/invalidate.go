// Package invalidate реализует явный сброс кешированных решений администратором.
package invalidate

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/course-entitlement/internal/cache"
	"github.com/magabrotheeeer/course-entitlement/internal/http/handlers/access/view"
	"github.com/magabrotheeeer/course-entitlement/internal/http/response"
	"github.com/magabrotheeeer/course-entitlement/internal/lib/sl"
)

// Request тело запроса. Оба поля пустые означают сброс всего кеша.
type Request struct {
	UserID   string `json:"user_id,omitempty" validate:"omitempty,max=128,printascii"`
	CourseID string `json:"course_id,omitempty" validate:"omitempty,max=128,printascii"`
	Reason   string `json:"reason,omitempty" validate:"omitempty,max=256"`
}

// Handler обрабатывает POST /admin/entitlements/invalidate.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service сбрасывает решения.
type Service interface {
	Invalidate(ctx context.Context, userID, courseID string) error
}

// New создает Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.access.invalidate"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req Request
	if err := render.DecodeJSON(r.Body, &req); err != nil && !errors.Is(err, io.EOF) {
		log.Warn("failed to decode request", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	if err := h.validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			log.Error("validation failed", sl.Err(err))
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error("invalid request body"))
			return
		}
		log.Warn("validation failed", sl.Err(err))
		render.Status(r, http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(verrs))
		return
	}

	if err := h.service.Invalidate(r.Context(), req.UserID, req.CourseID); err != nil {
		view.WriteError(w, r, log, err)
		return
	}

	scope := cache.ScopeOf(req.UserID, req.CourseID)
	log.Info("entitlements invalidated by admin",
		slog.String("scope", string(scope)),
		slog.String("reason", req.Reason),
	)
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"scope": scope,
	}))
}
