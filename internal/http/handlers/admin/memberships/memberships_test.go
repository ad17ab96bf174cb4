package memberships

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

	"github.com/magabrotheeeer/kvira-space/internal/entitlement"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) AddMembership(ctx context.Context, username, passType string) (int, error) {
	args := m.Called(ctx, username, passType)
	return args.Int(0), args.Error(1)
}

func TestMembershipsHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))

	tests := []struct {
		name           string
		body           string
		setupMock      func(*MockService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name: "новый абонемент",
			body: `{"username":"Puk","pass_type":"10day"}`,
			setupMock: func(m *MockService) {
				m.On("AddMembership", mock.Anything, "Puk", "10day").Return(8, nil).Once()
			},
			expectedStatus: http.StatusCreated,
			expectedBody:   `{"status":"OK","data":{"row_id":8}}`,
		},
		{
			name: "неизвестный тип",
			body: `{"username":"Puk","pass_type":"2day"}`,
			setupMock: func(m *MockService) {
				m.On("AddMembership", mock.Anything, "Puk", "2day").
					Return(0, fmt.Errorf("punch.AddMembership: %w", entitlement.ErrUnknownPassType)).Once()
			},
			expectedStatus: http.StatusUnprocessableEntity,
			expectedBody:   `{"status":"Error","error":"unknown pass type"}`,
		},
		{
			name:           "без пользователя",
			body:           `{"pass_type":"5day"}`,
			setupMock:      func(*MockService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `field Username is a required field`,
		},
		{
			name: "ошибка записи",
			body: `{"username":"Puk","pass_type":"5day"}`,
			setupMock: func(m *MockService) {
				m.On("AddMembership", mock.Anything, "Puk", "5day").Return(0, errors.New("db error")).Once()
			},
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   `could not add membership`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockService)
			tt.setupMock(svc)

			req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/memberships", strings.NewReader(tt.body))
			w := httptest.NewRecorder()

			New(logger, svc).ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Contains(t, w.Body.String(), tt.expectedBody)
			svc.AssertExpectations(t)
		})
	}
}
