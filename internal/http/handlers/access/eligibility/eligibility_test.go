package eligibility

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/course-entitlement/internal/http/middlewarectx"
	"github.com/magabrotheeeer/course-entitlement/internal/models"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) CheckAccess(ctx context.Context, userID, courseID string) (models.AccessDecision, error) {
	args := m.Called(ctx, userID, courseID)
	return args.Get(0).(models.AccessDecision), args.Error(1)
}

func TestEligibilityHandler(t *testing.T) {
	tests := []struct {
		name         string
		decision     models.AccessDecision
		wantCheckout bool
	}{
		{name: "нужна премиум-подписка", decision: models.AccessDecision{Reason: models.ReasonPremiumRequired}, wantCheckout: true},
		{name: "триал истёк", decision: models.AccessDecision{Reason: models.ReasonTrialExpired}, wantCheckout: true},
		{name: "нет подписки", decision: models.AccessDecision{Reason: models.ReasonNoSubscription}, wantCheckout: true},
		{name: "заблокирован", decision: models.AccessDecision{Reason: models.ReasonBlocked}, wantCheckout: false},
		{name: "вне allow-листа", decision: models.AccessDecision{Reason: models.ReasonNotInList}, wantCheckout: false},
		{name: "уже есть доступ", decision: models.AccessDecision{CanAccess: true, Reason: models.ReasonPremiumActive}, wantCheckout: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockService)
			svc.On("CheckAccess", mock.Anything, "u1", "c1").Return(tt.decision, nil)
			handler := New(slog.New(slog.NewTextHandler(io.Discard, nil)), svc)

			req := httptest.NewRequest(http.MethodGet, "/api/v1/checkout/c1/eligibility", nil)
			rctx := chi.NewRouteContext()
			rctx.URLParams.Add("courseID", "c1")
			ctx := context.WithValue(req.Context(), chi.RouteCtxKey, rctx)
			ctx = context.WithValue(ctx, middlewarectx.UserID, "u1")
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req.WithContext(ctx))

			require.Equal(t, http.StatusOK, w.Code)
			var body struct {
				Status string `json:"status"`
				Data   struct {
					CanAccess        bool   `json:"canAccess"`
					Reason           string `json:"reason"`
					ReasonVersion    int    `json:"reason_version"`
					CheckoutRequired bool   `json:"checkout_required"`
				} `json:"data"`
			}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, "OK", body.Status)
			assert.Equal(t, string(tt.decision.Reason), body.Data.Reason)
			assert.Equal(t, tt.decision.CanAccess, body.Data.CanAccess)
			assert.Equal(t, models.ReasonCodesVersion, body.Data.ReasonVersion)
			assert.Equal(t, tt.wantCheckout, body.Data.CheckoutRequired)
		})
	}
}
