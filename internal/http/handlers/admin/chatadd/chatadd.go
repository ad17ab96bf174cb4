// Package chatadd реализует регистрацию чата администраторов для уведомлений.
package chatadd

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/kvira-space/internal/http/response"
	"github.com/magabrotheeeer/kvira-space/internal/lib/sl"
)

// Request тело запроса.
type Request struct {
	ChatID string `json:"chat_id" validate:"required,max=64"`
}

// Service список чатов администраторов.
type Service interface {
	RegisterAdminChat(ctx context.Context, chatID string) error
}

// Handler обрабатывает POST /api/v1/admin/chats.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// New создаёт Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP добавляет чат в список получателей уведомлений.
//
// @Summary Добавить чат администраторов
// @Tags Admin
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param request body Request true "ID чата"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.ErrorResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /admin/chats [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.chatadd"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	if err := h.validate.Struct(req); err != nil {
		log.Error("validation failed", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	if err := h.service.RegisterAdminChat(r.Context(), req.ChatID); err != nil {
		log.Error("failed to register admin chat", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not register chat"))
		return
	}

	log.Info("admin chat registered", slog.String("chat_id", req.ChatID))
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"chat_id": req.ChatID,
	}))
}
