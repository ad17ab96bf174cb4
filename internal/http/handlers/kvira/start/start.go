// Package start реализует HTTP-обработчик первого обращения пользователя (/start).
//
// Handler регистрирует профиль пользователя и возвращает приветствие
// вместе со статусом абонемента.
package start

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
	"github.com/magabrotheeeer/kvira-space/internal/models"
	"github.com/magabrotheeeer/kvira-space/internal/services/checkin"
)

// Request тело запроса регистрации пользователя.
type Request struct {
	UserID   int64  `json:"user_id" validate:"required,gt=0"`
	Username string `json:"username" validate:"required,max=64"`
	Language string `json:"language,omitempty" validate:"omitempty,oneof=eng rus"`
}

// Service сценарий первого обращения.
type Service interface {
	Start(ctx context.Context, userID int64, username string, lang models.Lang) (checkin.Reply, error)
}

// Handler обрабатывает POST /api/v1/users.
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

// ServeHTTP регистрирует пользователя.
//
// @Summary Регистрация пользователя
// @Description Создаёт профиль (язык по умолчанию rus) и возвращает приветствие со статусом абонемента.
// @Tags Users
// @Accept  json
// @Produce  json
// @Param request body Request true "Пользователь мессенджера"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON или ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /users [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.kvira.start"

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

	reply, err := h.service.Start(r.Context(), req.UserID, req.Username, models.Lang(req.Language))
	if err != nil {
		log.Error("failed to start user", slog.Int64("user_id", req.UserID), sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not register user"))
		return
	}

	log.Info("user started", slog.Int64("user_id", req.UserID))
	render.JSON(w, r, response.StatusOKWithData(reply))
}
