package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/example/grocer/internal/models"
	"github.com/example/grocer/internal/utils"
)

const (
	identityKey = "identity"

	// AccessTokenCookie carries the access token set at login.
	AccessTokenCookie = "accessToken"
	// RefreshTokenCookie carries the refresh token set at login.
	RefreshTokenCookie = "refreshToken"
)

// Authenticate validates the access token from the accessToken cookie or the
// Authorization header and stores the caller identity on the context.
func Authenticate(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := c.Cookies(AccessTokenCookie)
		if token == "" {
			authHeader := c.Get(fiber.HeaderAuthorization)
			if authHeader == "" {
				return fiber.NewError(fiber.StatusUnauthorized, "authentication required")
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				return fiber.NewError(fiber.StatusUnauthorized, "invalid authorization header")
			}
			token = strings.TrimSpace(parts[1])
		}

		ident, err := utils.ParseToken(secret, token, utils.AccessToken)
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid or expired token")
		}

		c.Locals(identityKey, ident)
		return c.Next()
	}
}

// RequireAdmin rejects callers whose role is not admin. It must run after
// Authenticate.
func RequireAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		ident, ok := CurrentUser(c)
		if !ok {
			return fiber.NewError(fiber.StatusUnauthorized, "authentication required")
		}
		if ident.RoleType != models.RoleAdmin {
			return fiber.NewError(fiber.StatusForbidden, "admin access required")
		}
		return c.Next()
	}
}

// CurrentUser returns the identity stored by Authenticate.
func CurrentUser(c *fiber.Ctx) (utils.Identity, bool) {
	ident, ok := c.Locals(identityKey).(utils.Identity)
	return ident, ok
}
