package handler

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"docvault/internal/service"
)

// CookieConfig controls the session cookie set after a successful login.
type CookieConfig struct {
	Name   string
	Secure bool
}

type accessRequest struct {
	Code string `json:"code" example:"123456"`
}

type accessResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Login exchanges the access code for a session token, returned in the body
// and as an HTTP-only cookie.
//
// @Summary  Unlock the vault
// @Tags     access
// @Accept   json
// @Produce  json
// @Param    body body accessRequest true "access code"
// @Success  200 {object} accessResponse
// @Success  204 "gate disabled"
// @Failure  400 {object} errorPayload
// @Failure  401 {object} errorPayload
// @Router   /access [post]
func Login(access *service.AccessService, cookie CookieConfig) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !access.Enabled() {
			return c.SendStatus(fiber.StatusNoContent)
		}

		var req accessRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.ErrBadRequest
		}

		session, err := access.Login(c.UserContext(), req.Code)
		if err != nil {
			return err
		}

		c.Cookie(&fiber.Cookie{
			Name:     cookie.Name,
			Value:    session.Token,
			Path:     "/",
			Expires:  session.ExpiresAt,
			Secure:   cookie.Secure,
			HTTPOnly: true,
			SameSite: fiber.CookieSameSiteLaxMode,
		})
		c.Set(fiber.HeaderCacheControl, "no-store")
		return c.JSON(accessResponse{Token: session.Token, ExpiresAt: session.ExpiresAt})
	}
}

// Logout clears the session cookie. Tokens stay valid until they expire.
func Logout(cookie CookieConfig) fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Cookie(&fiber.Cookie{
			Name:     cookie.Name,
			Value:    "",
			Path:     "/",
			Expires:  time.Unix(0, 0),
			Secure:   cookie.Secure,
			HTTPOnly: true,
			SameSite: fiber.CookieSameSiteLaxMode,
		})
		return c.SendStatus(fiber.StatusNoContent)
	}
}
