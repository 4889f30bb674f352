// Package api serves the dashboard REST API under /api using fiber.
package api

import (
	"context"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/couchcryptid/weather-insights-service/internal/auth"
	"github.com/couchcryptid/weather-insights-service/internal/domain"
	"github.com/couchcryptid/weather-insights-service/internal/observability"
)

// WeatherService is the weather log surface the API exposes.
type WeatherService interface {
	Create(ctx context.Context, in domain.WeatherLogInput) (domain.WeatherLog, error)
	List(ctx context.Context, limit int) ([]domain.WeatherLog, error)
	Latest(ctx context.Context) (domain.WeatherLog, error)
}

// UserService manages dashboard accounts.
type UserService interface {
	Create(ctx context.Context, in domain.UserInput) (domain.User, error)
	List(ctx context.Context) ([]domain.User, error)
	Get(ctx context.Context, id string) (domain.User, error)
	Delete(ctx context.Context, id string) error
}

// Authenticator logs users in and verifies bearer tokens.
type Authenticator interface {
	Login(ctx context.Context, email, password string) (auth.LoginResult, error)
	Verify(token string) (auth.Claims, error)
}

// Options configures the API app.
type Options struct {
	CORSOrigin string
}

// Handler holds the services behind the REST routes.
type Handler struct {
	weather WeatherService
	users   UserService
	auth    Authenticator
	logger  *slog.Logger
}

// NewApp builds the fiber app with middleware and all /api routes registered.
func NewApp(opts Options, weather WeatherService, users UserService, authn Authenticator, metrics *observability.Metrics, logger *slog.Logger) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "weather-insights-service",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          10 * time.Second,
		ErrorHandler:          errorHandler(logger),
	})

	app.Use(requestObserver(metrics, logger))
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     opts.CORSOrigin,
		AllowCredentials: true,
		AllowMethods:     "GET,HEAD,PUT,PATCH,POST,DELETE,OPTIONS",
		AllowHeaders:     "Content-Type, Authorization",
	}))

	h := &Handler{weather: weather, users: users, auth: authn, logger: logger}
	h.RegisterRoutes(app)
	return app
}

// RegisterRoutes wires the handlers into app under /api.
func (h *Handler) RegisterRoutes(app *fiber.App) {
	api := app.Group("/api")

	api.Post("/auth/login", h.login)

	api.Post("/weather/logs", h.createLog)
	api.Get("/weather/logs", h.listLogs)
	api.Get("/weather/latest", h.latestLog)

	users := api.Group("/users", requireAuth(h.auth))
	users.Post("/", h.createUser)
	users.Get("/", h.listUsers)
	users.Get("/:id", h.getUser)
	users.Delete("/:id", h.deleteUser)
}
