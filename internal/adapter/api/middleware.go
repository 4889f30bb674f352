package api

import (
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"

	"github.com/couchcryptid/weather-insights-service/internal/domain"
	"github.com/couchcryptid/weather-insights-service/internal/observability"
)

const claimsKey = "claims"

// errorHandler writes errors as {"statusCode", "message", "error"}.
func errorHandler(logger *slog.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code, message := classify(err)
		if code >= fiber.StatusInternalServerError {
			logger.Error("request failed",
				"method", c.Method(),
				"path", c.Path(),
				"error", err,
			)
		}
		return c.Status(code).JSON(fiber.Map{
			"statusCode": code,
			"message":    message,
			"error":      utils.StatusMessage(code),
		})
	}
}

func classify(err error) (int, string) {
	var fe *fiber.Error
	switch {
	case errors.As(err, &fe):
		return fe.Code, fe.Message
	case errors.Is(err, domain.ErrValidation):
		return fiber.StatusBadRequest, err.Error()
	case errors.Is(err, domain.ErrUnauthorized):
		return fiber.StatusUnauthorized, "Unauthorized"
	case errors.Is(err, domain.ErrInvalidCredentials):
		return fiber.StatusUnauthorized, msgInvalidCredentials
	case errors.Is(err, domain.ErrNotFound):
		return fiber.StatusNotFound, "Not Found"
	case errors.Is(err, domain.ErrConflict):
		return fiber.StatusConflict, "Conflict"
	default:
		return fiber.StatusInternalServerError, "Internal server error"
	}
}

// requestObserver records request metrics and logs each request. Errors from
// later handlers are rendered here so the recorded status is the one sent.
func requestObserver(metrics *observability.Metrics, logger *slog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		if chainErr := c.Next(); chainErr != nil {
			if err := c.App().ErrorHandler(c, chainErr); err != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
		}

		elapsed := time.Since(start)
		status := c.Response().StatusCode()
		route := c.Route().Path
		method := c.Method()

		metrics.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())

		logger.Info("http request",
			"method", method,
			"path", c.Path(),
			"route", route,
			"status", status,
			"duration", elapsed,
			"ip", c.IP(),
		)
		return nil
	}
}

// requireAuth rejects requests without a valid bearer token and stores the
// verified claims in the request locals.
func requireAuth(authn Authenticator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get(fiber.HeaderAuthorization)
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			return domain.ErrUnauthorized
		}

		claims, err := authn.Verify(strings.TrimSpace(token))
		if err != nil {
			return domain.ErrUnauthorized
		}
		c.Locals(claimsKey, claims)
		return c.Next()
	}
}
