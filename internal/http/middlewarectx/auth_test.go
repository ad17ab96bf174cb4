package middlewarectx_test

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/kvira-space/internal/http/middlewarectx"
	"github.com/magabrotheeeer/kvira-space/internal/lib/jwt"
)

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func TestAdminOnly(t *testing.T) {
	maker := jwt.NewMaker("test_secret", time.Minute)
	adminToken, err := maker.GenerateToken("kvira_admin", jwt.RoleAdmin)
	require.NoError(t, err)
	userToken, err := maker.GenerateToken("Puk", "user")
	require.NoError(t, err)
	foreignToken, err := jwt.NewMaker("other_secret", time.Minute).GenerateToken("kvira_admin", jwt.RoleAdmin)
	require.NoError(t, err)

	tests := []struct {
		name       string
		authHeader string
		wantStatus int
		wantCalled bool
	}{
		{name: "missing header", authHeader: "", wantStatus: http.StatusUnauthorized},
		{name: "wrong scheme", authHeader: "Basic " + adminToken, wantStatus: http.StatusUnauthorized},
		{name: "bad signature", authHeader: "Bearer " + foreignToken, wantStatus: http.StatusUnauthorized},
		{name: "not an admin", authHeader: "Bearer " + userToken, wantStatus: http.StatusForbidden},
		{name: "admin", authHeader: "Bearer " + adminToken, wantStatus: http.StatusOK, wantCalled: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				called = true
				assert.Equal(t, "kvira_admin", r.Context().Value(middlewarectx.User))
				assert.Equal(t, jwt.RoleAdmin, r.Context().Value(middlewarectx.Role))
				w.WriteHeader(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/chats", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			w := httptest.NewRecorder()

			middlewarectx.AdminOnly(maker, newNoopLogger())(next).ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.wantCalled, called)
		})
	}
}
