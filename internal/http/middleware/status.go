package middleware

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"docvault/internal/apperr"
)

// responseStatus is the status the client will see. Errors returned down
// the chain are rendered later by the global error handler, so the status
// has to be derived from the error itself.
func responseStatus(c *fiber.Ctx, err error) int {
	if err == nil {
		return c.Response().StatusCode()
	}
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return fe.Code
	}
	return apperr.FromError(err).Status
}
