package invalidate

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/course-entitlement/internal/services/entitlement"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) Invalidate(ctx context.Context, userID, courseID string) error {
	return m.Called(ctx, userID, courseID).Error(0)
}

func TestInvalidateHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	tests := []struct {
		name           string
		body           string
		setupMock      func(*MockService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name: "по пользователю",
			body: `{"user_id":"u1","reason":"allow list edited"}`,
			setupMock: func(m *MockService) {
				m.On("Invalidate", mock.Anything, "u1", "").Return(nil).Once()
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"scope":"user"`,
		},
		{
			name: "по курсу",
			body: `{"course_id":"c1"}`,
			setupMock: func(m *MockService) {
				m.On("Invalidate", mock.Anything, "", "c1").Return(nil).Once()
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"scope":"course"`,
		},
		{
			name: "пустое тело сбрасывает всё",
			body: ``,
			setupMock: func(m *MockService) {
				m.On("Invalidate", mock.Anything, "", "").Return(nil).Once()
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"scope":"global"`,
		},
		{
			name:           "некорректный JSON",
			body:           `{"user_id":`,
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `invalid request body`,
		},
		{
			name:           "слишком длинный идентификатор",
			body:           `{"user_id":"` + strings.Repeat("a", 200) + `"}`,
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusUnprocessableEntity,
			expectedBody:   `field UserID is too long`,
		},
		{
			name:           "непечатаемые символы",
			body:           `{"course_id":"курс"}`,
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusUnprocessableEntity,
			expectedBody:   `field CourseID can contain only printable characters`,
		},
		{
			name: "разделитель внутри идентификатора допустим",
			body: `{"user_id":"a|b","course_id":"c"}`,
			setupMock: func(m *MockService) {
				m.On("Invalidate", mock.Anything, "a|b", "c").Return(nil).Once()
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"scope":"pair"`,
		},
		{
			name: "кеш недоступен",
			body: `{"user_id":"u1"}`,
			setupMock: func(m *MockService) {
				m.On("Invalidate", mock.Anything, "u1", "").
					Return(fmt.Errorf("op: %w: %w", entitlement.ErrUnavailable, errors.New("redis down"))).Once()
			},
			expectedStatus: http.StatusServiceUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockService)
			tt.setupMock(svc)

			req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/entitlements/invalidate", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()

			New(logger, svc).ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Contains(t, w.Body.String(), tt.expectedBody)
			svc.AssertExpectations(t)
		})
	}
}
