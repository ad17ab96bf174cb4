package status

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/kvira-space/internal/models"
	"github.com/magabrotheeeer/kvira-space/internal/services/checkin"
	"github.com/magabrotheeeer/kvira-space/internal/services/users"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) Status(ctx context.Context, userID int64) (checkin.Reply, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(checkin.Reply), args.Error(1)
}

func TestStatusHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
	row := 3
	activated := true
	reply := checkin.Reply{
		Profile: models.UserProfile{UserID: 42, Username: "Puk", Lang: models.LangEng},
		Lines:   []string{"Visits left: 3", "Valid until 01.07.2024"},
		Membership: models.WorkingMembership{
			RowID:     &row,
			Activated: &activated,
			Data:      &models.MembershipRecord{Username: "Puk", PassType: "5day", DateActivated: "01.06.2024"},
		},
	}

	tests := []struct {
		name           string
		id             string
		setupMock      func(*MockService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name: "активный абонемент",
			id:   "42",
			setupMock: func(m *MockService) {
				m.On("Status", mock.Anything, int64(42)).Return(reply, nil).Once()
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"row_id":3,"activated":true`,
		},
		{
			name:           "некорректный id",
			id:             "x",
			setupMock:      func(*MockService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `failed to decode id from url`,
		},
		{
			name: "неизвестный пользователь",
			id:   "7",
			setupMock: func(m *MockService) {
				m.On("Status", mock.Anything, int64(7)).
					Return(checkin.Reply{}, fmt.Errorf("checkin.Status: %w", users.ErrUserNotFound)).Once()
			},
			expectedStatus: http.StatusNotFound,
			expectedBody:   `user not found`,
		},
		{
			name: "журнал недоступен",
			id:   "42",
			setupMock: func(m *MockService) {
				m.On("Status", mock.Anything, int64(42)).Return(checkin.Reply{}, errors.New("db error")).Once()
			},
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   `{"status":"Error","error":"could not read membership"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockService)
			tt.setupMock(svc)

			req := httptest.NewRequest(http.MethodGet, "/api/v1/users/"+tt.id+"/membership", nil)
			rctx := chi.NewRouteContext()
			rctx.URLParams.Add("id", tt.id)
			req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
			w := httptest.NewRecorder()

			New(logger, svc).ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Contains(t, w.Body.String(), tt.expectedBody)
			svc.AssertExpectations(t)
		})
	}
}
