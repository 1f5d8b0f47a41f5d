package httpapi

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/relentnet/matchops-sync/internal/auth"
)

type signInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) handleSignIn(c *fiber.Ctx) error {
	if s.cloud == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(ErrorResponse{Status: "unavailable", Error: "cloud auth not configured"})
	}
	req, err := decodeBody[signInRequest](c)
	if err != nil {
		return writeError(c, err)
	}
	user, err := s.cloud.SignIn(c.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredential) {
			return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{Status: "unauthorized", Error: "invalid email or password"})
		}
		return c.Status(fiber.StatusBadGateway).JSON(ErrorResponse{Status: "error", Error: err.Error()})
	}
	return c.JSON(user)
}

func (s *Server) handleSignOut(c *fiber.Ctx) error {
	if err := s.cloud.SignOut(c.Context()); err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) handleGetCurrentUser(c *fiber.Ctx) error {
	user, err := s.cloud.GetCurrentUser(c.Context())
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{Status: "unauthorized", Error: err.Error()})
	}
	return c.JSON(user)
}
