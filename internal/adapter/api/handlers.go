package api

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/couchcryptid/weather-insights-service/internal/domain"
)

const (
	msgInvalidBody        = "invalid request body"
	msgInvalidCredentials = "Credenciais inválidas"
	msgEmailExists        = "Email já existe"
	msgUserNotFound       = "Usuário não encontrado"
	msgUserRemoved        = "Usuário removido com sucesso"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, msgInvalidBody)
	}

	result, err := h.auth.Login(c.UserContext(), req.Email, req.Password)
	if errors.Is(err, domain.ErrInvalidCredentials) {
		return fiber.NewError(fiber.StatusUnauthorized, msgInvalidCredentials)
	}
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(result)
}

func (h *Handler) createLog(c *fiber.Ctx) error {
	var in domain.WeatherLogInput
	if err := c.BodyParser(&in); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, msgInvalidBody)
	}

	log, err := h.weather.Create(c.UserContext(), in)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(log)
}

func (h *Handler) listLogs(c *fiber.Ctx) error {
	// Unparsable limits fall back to the default.
	logs, err := h.weather.List(c.UserContext(), c.QueryInt("limit", 0))
	if err != nil {
		return err
	}
	return c.JSON(logs)
}

func (h *Handler) latestLog(c *fiber.Ctx) error {
	log, err := h.weather.Latest(c.UserContext())
	if errors.Is(err, domain.ErrNotFound) {
		return c.JSON(nil)
	}
	if err != nil {
		return err
	}
	return c.JSON(log)
}

func (h *Handler) createUser(c *fiber.Ctx) error {
	var in domain.UserInput
	if err := c.BodyParser(&in); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, msgInvalidBody)
	}

	user, err := h.users.Create(c.UserContext(), in)
	if errors.Is(err, domain.ErrConflict) {
		return fiber.NewError(fiber.StatusConflict, msgEmailExists)
	}
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(user)
}

func (h *Handler) listUsers(c *fiber.Ctx) error {
	users, err := h.users.List(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(users)
}

func (h *Handler) getUser(c *fiber.Ctx) error {
	user, err := h.users.Get(c.UserContext(), c.Params("id"))
	if errors.Is(err, domain.ErrNotFound) {
		return fiber.NewError(fiber.StatusNotFound, msgUserNotFound)
	}
	if err != nil {
		return err
	}
	return c.JSON(user)
}

func (h *Handler) deleteUser(c *fiber.Ctx) error {
	err := h.users.Delete(c.UserContext(), c.Params("id"))
	if errors.Is(err, domain.ErrNotFound) {
		return fiber.NewError(fiber.StatusNotFound, msgUserNotFound)
	}
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": msgUserRemoved})
}
