// Package kvira собирает HTTP-приложение сервиса абонементов.
package kvira

import (
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"
	"golang.org/x/time/rate"

	"github.com/magabrotheeeer/kvira-space/internal/http/handlers/admin/chatadd"
	"github.com/magabrotheeeer/kvira-space/internal/http/handlers/admin/chatlist"
	"github.com/magabrotheeeer/kvira-space/internal/http/handlers/admin/memberships"
	"github.com/magabrotheeeer/kvira-space/internal/http/handlers/admin/refresh"
	"github.com/magabrotheeeer/kvira-space/internal/http/handlers/kvira/checkin"
	"github.com/magabrotheeeer/kvira-space/internal/http/handlers/kvira/health"
	"github.com/magabrotheeeer/kvira-space/internal/http/handlers/kvira/language"
	"github.com/magabrotheeeer/kvira-space/internal/http/handlers/kvira/start"
	"github.com/magabrotheeeer/kvira-space/internal/http/handlers/kvira/status"
	"github.com/magabrotheeeer/kvira-space/internal/http/middlewarectx"
	checkinservice "github.com/magabrotheeeer/kvira-space/internal/services/checkin"
	"github.com/magabrotheeeer/kvira-space/internal/services/notify"
	"github.com/magabrotheeeer/kvira-space/internal/services/punch"
	"github.com/magabrotheeeer/kvira-space/internal/services/text"
	"github.com/magabrotheeeer/kvira-space/internal/services/users"
)

// Services зависимости обработчиков.
type Services struct {
	CheckIn  *checkinservice.Service
	Users    *users.Directory
	Ledger   *punch.Ledger
	Texts    *text.Cache
	Notifier *notify.Notifier
	Tokens   middlewarectx.TokenParser
	Limiter  *rate.Limiter
	Health   map[string]health.Pinger
}

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger, s Services) {
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
	)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middlewarectx.RateLimitMiddleware(logger, s.Limiter))

		r.Post("/users", start.New(logger, s.CheckIn).ServeHTTP)
		r.Put("/users/{id}/language", language.New(logger, s.Users).ServeHTTP)
		r.Get("/users/{id}/membership", status.New(logger, s.CheckIn).ServeHTTP)
		r.Post("/users/{id}/checkin", checkin.New(logger, s.CheckIn).ServeHTTP)

		r.Route("/admin", func(r chi.Router) {
			r.Use(middlewarectx.AdminOnly(s.Tokens, logger))
			r.Post("/texts/refresh", refresh.New(logger, s.Texts).ServeHTTP)
			r.Post("/chats", chatadd.New(logger, s.Notifier).ServeHTTP)
			r.Get("/chats", chatlist.New(logger, s.Notifier).ServeHTTP)
			r.Post("/memberships", memberships.New(logger, s.Ledger).ServeHTTP)
		})
	})

	r.Get("/health", health.New(logger, s.Health).ServeHTTP)
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/docs/*", httpSwagger.WrapHandler)
}
