// Package memberships реализует добавление купленного абонемента в журнал оператором.
package memberships

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/kvira-space/internal/entitlement"
	"github.com/magabrotheeeer/kvira-space/internal/http/middlewarectx"
	"github.com/magabrotheeeer/kvira-space/internal/http/response"
	"github.com/magabrotheeeer/kvira-space/internal/lib/sl"
)

// Request тело запроса.
type Request struct {
	Username string `json:"username" validate:"required,max=64"`
	PassType string `json:"pass_type" validate:"required"`
}

// Service журнал абонементов.
type Service interface {
	AddMembership(ctx context.Context, username, passType string) (int, error)
}

// Handler обрабатывает POST /api/v1/admin/memberships.
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

// ServeHTTP добавляет неактивированный абонемент в конец журнала.
//
// @Summary Добавить абонемент
// @Tags Admin
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param request body Request true "Пользователь и тип абонемента (5day, 10day, 30day)"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.ErrorResponse
// @Failure 422 {object} response.ErrorResponse "Неизвестный тип абонемента"
// @Failure 500 {object} response.ErrorResponse
// @Router /admin/memberships [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.memberships"

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

	rowID, err := h.service.AddMembership(r.Context(), req.Username, req.PassType)
	switch {
	case errors.Is(err, entitlement.ErrUnknownPassType):
		log.Warn("unknown pass type", slog.String("pass_type", req.PassType))
		render.Status(r, http.StatusUnprocessableEntity)
		render.JSON(w, r, response.Error("unknown pass type"))
		return
	case err != nil:
		log.Error("failed to add membership", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not add membership"))
		return
	}

	admin, _ := r.Context().Value(middlewarectx.User).(string)
	log.Info("membership added", slog.String("admin", admin), slog.String("username", req.Username), slog.Int("row_id", rowID))
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"row_id": rowID,
	}))
}
