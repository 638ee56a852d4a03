// http собирает HTTP-поверхность auth-сервиса: роутер chi, мидлвары
// и регистрацию эндпойнтов жизненного цикла аккаунта.
package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/pribylovaa/go-blogger-auth/internal/config"
	"github.com/pribylovaa/go-blogger-auth/internal/ratelimit"
	"github.com/pribylovaa/go-blogger-auth/internal/service"
	"github.com/pribylovaa/go-blogger-auth/internal/transport/http/handlers"
	"github.com/pribylovaa/go-blogger-auth/internal/transport/http/middleware"
)

// Options — параметры сборки HTTP-роутера.
type Options struct {
	Logger   *slog.Logger
	Timeout  time.Duration
	BasePath string // например, "/auth"; если пустой — роуты регистрируются на корне.

	// Limiter/Threshold — троттлинг auth-эндпойнтов; nil/0 выключает.
	Limiter   *ratelimit.Limiter
	Threshold int64
}

// NewRouter собирает http.Handler с подключёнными middleware и роутами.
func NewRouter(svc *service.Service, auth config.AuthConfig, opts Options) http.Handler {
	root := chi.NewRouter()

	// Middleware (внешний -> внутренний). RateLimit стоит после Logging,
	// чтобы отклонённые запросы тоже попадали в лог с request_id.
	root.Use(
		middleware.Recover(),
		middleware.RequestID(),
		middleware.Logging(opts.Logger),
		middleware.RateLimit(opts.Limiter, opts.Threshold),
	)
	if opts.Timeout > 0 {
		root.Use(middleware.Timeout(opts.Timeout))
	}

	h := handlers.New(svc, auth, opts.BasePath)

	if opts.BasePath != "" {
		sub := chi.NewRouter()
		registerRoutes(sub, h)
		root.Mount(opts.BasePath, sub)
		return root
	}

	registerRoutes(root, h)
	return root
}

// registerRoutes — единая точка регистрации всех REST-эндпойнтов.
func registerRoutes(r chi.Router, h *handlers.Handlers) {
	r.Post("/registration", h.Registration)
	r.Post("/registration-confirmation", h.RegistrationConfirmation)
	r.Post("/registration-email-resending", h.RegistrationEmailResending)
	r.Post("/login", h.Login)
	r.Post("/refresh-token", h.RefreshToken)
	r.Post("/logout", h.Logout)
}
