// Package chatlist реализует просмотр чатов администраторов.
package chatlist

import (
	"context"
	"log/slog"
	"net/http"
	"sort"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/kvira-space/internal/http/response"
	"github.com/magabrotheeeer/kvira-space/internal/lib/sl"
)

// Service список чатов администраторов.
type Service interface {
	AdminChats(ctx context.Context) ([]string, error)
}

// Handler обрабатывает GET /api/v1/admin/chats.
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

// ServeHTTP возвращает отсортированный список чатов.
//
// @Summary Список чатов администраторов
// @Tags Admin
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Failure 500 {object} response.ErrorResponse
// @Router /admin/chats [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.chatlist"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	chats, err := h.service.AdminChats(r.Context())
	if err != nil {
		log.Error("failed to list admin chats", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not list chats"))
		return
	}
	if chats == nil {
		chats = []string{}
	}
	sort.Strings(chats)

	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"chats": chats,
	}))
}
