// Package refresh реализует ручное обновление каталога текстов оператором.
package refresh

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/kvira-space/internal/http/middlewarectx"
	"github.com/magabrotheeeer/kvira-space/internal/http/response"
	"github.com/magabrotheeeer/kvira-space/internal/lib/sl"
)

// Service кэш текстов.
type Service interface {
	Refresh(ctx context.Context) error
}

// Handler обрабатывает POST /api/v1/admin/texts/refresh.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создаёт Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP перечитывает тексты из источника.
//
// @Summary Обновить тексты сообщений
// @Tags Admin
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Failure 401 {object} response.ErrorResponse
// @Failure 403 {object} response.ErrorResponse
// @Failure 502 {object} response.ErrorResponse "Источник текстов недоступен"
// @Router /admin/texts/refresh [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.refresh"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)
	admin, _ := r.Context().Value(middlewarectx.User).(string)

	if err := h.service.Refresh(r.Context()); err != nil {
		log.Error("failed to refresh texts", slog.String("admin", admin), sl.Err(err))
		render.Status(r, http.StatusBadGateway)
		render.JSON(w, r, response.Error("could not refresh texts"))
		return
	}

	log.Info("texts refreshed", slog.String("admin", admin))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"refreshed": true,
	}))
}
