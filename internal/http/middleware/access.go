package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"docvault/internal/apperr"
)

// Authorizer validates session tokens. A disabled authorizer lets every
// request through.
type Authorizer interface {
	Enabled() bool
	Authorize(token string) error
}

// RequireAccess rejects requests without a valid session token. The cookie
// is tried first; a bearer header is still honoured when the cookie is stale.
func RequireAccess(a Authorizer, cookieName string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if a == nil || !a.Enabled() {
			return c.Next()
		}

		var lastErr error
		for _, token := range []string{
			c.Cookies(cookieName),
			bearerToken(c.Get(fiber.HeaderAuthorization)),
		} {
			if token == "" {
				continue
			}
			if lastErr = a.Authorize(token); lastErr == nil {
				return c.Next()
			}
		}
		if lastErr != nil {
			return lastErr
		}
		return apperr.Clone(apperr.ErrUnauthorized, "access code required")
	}
}

func bearerToken(header string) string {
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
