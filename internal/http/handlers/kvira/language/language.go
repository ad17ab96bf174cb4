// Package language реализует HTTP-обработчик смены языка пользователя.
package language

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/kvira-space/internal/http/response"
	"github.com/magabrotheeeer/kvira-space/internal/lib/sl"
	"github.com/magabrotheeeer/kvira-space/internal/models"
	"github.com/magabrotheeeer/kvira-space/internal/services/users"
)

// Request тело запроса. Пустой language переключает язык на противоположный.
type Request struct {
	Language string `json:"language,omitempty" validate:"omitempty,oneof=eng rus"`
}

// Service каталог профилей.
type Service interface {
	SetLanguage(ctx context.Context, userID int64, lang models.Lang) (models.UserProfile, error)
	ToggleLanguage(ctx context.Context, userID int64) (models.UserProfile, error)
}

// Handler обрабатывает PUT /api/v1/users/{id}/language.
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

// ServeHTTP меняет язык сообщений пользователя.
//
// @Summary Смена языка
// @Tags Users
// @Accept  json
// @Produce  json
// @Param id path int true "ID пользователя"
// @Param request body Request false "Новый язык (eng или rus)"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.ErrorResponse
// @Failure 404 {object} response.ErrorResponse "Пользователь не найден"
// @Failure 500 {object} response.ErrorResponse
// @Router /users/{id}/language [put]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.kvira.language"

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

	var profile models.UserProfile
	if req.Language == "" {
		profile, err = h.service.ToggleLanguage(r.Context(), userID)
	} else {
		profile, err = h.service.SetLanguage(r.Context(), userID, models.Lang(req.Language))
	}
	switch {
	case errors.Is(err, users.ErrUserNotFound):
		log.Warn("user not found", slog.Int64("user_id", userID))
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, response.Error("user not found"))
		return
	case err != nil:
		log.Error("failed to change language", slog.Int64("user_id", userID), sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not change language"))
		return
	}

	log.Info("language changed", slog.Int64("user_id", userID), slog.String("lang", string(profile.Lang)))
	render.JSON(w, r, response.StatusOKWithData(profile))
}
