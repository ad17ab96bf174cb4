// Package checkin реализует HTTP-обработчик отметки посещения.
package checkin

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/kvira-space/internal/http/response"
	"github.com/magabrotheeeer/kvira-space/internal/lib/sl"
	checkinservice "github.com/magabrotheeeer/kvira-space/internal/services/checkin"
	"github.com/magabrotheeeer/kvira-space/internal/services/users"
)

// Service сценарий отметки посещения.
type Service interface {
	CheckIn(ctx context.Context, userID int64) (checkinservice.Result, error)
}

// Handler обрабатывает POST /api/v1/users/{id}/checkin.
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

// ServeHTTP отмечает посещение за сегодня.
// Отказ (нет абонемента, уже отмечен, ошибка записи) возвращается как outcome с кодом 200.
//
// @Summary Отметка посещения
// @Tags Membership
// @Produce  json
// @Param id path int true "ID пользователя"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.ErrorResponse
// @Failure 404 {object} response.ErrorResponse "Пользователь не найден"
// @Failure 500 {object} response.ErrorResponse
// @Router /users/{id}/checkin [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.kvira.checkin"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	userID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		log.Error("failed to decode id from url", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("failed to decode id from url"))
		return
	}

	res, err := h.service.CheckIn(r.Context(), userID)
	switch {
	case errors.Is(err, users.ErrUserNotFound):
		log.Warn("user not found", slog.Int64("user_id", userID))
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, response.Error("user not found"))
		return
	case err != nil:
		log.Error("failed to check in", slog.Int64("user_id", userID), sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not check in"))
		return
	}

	log.Info("check-in handled", slog.Int64("user_id", userID), slog.String("outcome", res.Outcome))
	render.JSON(w, r, response.StatusOKWithData(res))
}
