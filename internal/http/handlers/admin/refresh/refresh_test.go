package refresh

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

type refresherStub struct {
	err   error
	calls int
}

func (r *refresherStub) Refresh(context.Context) error {
	r.calls++
	return r.err
}

func TestRefreshHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))

	t.Run("refreshed", func(t *testing.T) {
		svc := &refresherStub{}
		w := httptest.NewRecorder()
		New(logger, svc).ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/admin/texts/refresh", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"status":"OK","data":{"refreshed":true}}`, w.Body.String())
		assert.Equal(t, 1, svc.calls)
	})

	t.Run("source unavailable", func(t *testing.T) {
		svc := &refresherStub{err: errors.New("db error")}
		w := httptest.NewRecorder()
		New(logger, svc).ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/admin/texts/refresh", nil))

		assert.Equal(t, http.StatusBadGateway, w.Code)
		assert.JSONEq(t, `{"status":"Error","error":"could not refresh texts"}`, w.Body.String())
	})
}
