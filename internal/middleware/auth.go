package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"listings_backend/pkg/logger"
	"listings_backend/pkg/utils/apperror"
	"listings_backend/pkg/utils/jwt"
)

// ClaimsKey is the fiber Locals key holding *jwt.Claims for authenticated requests.
const ClaimsKey = "user"

// AuthMiddleware requires a valid "Authorization: Bearer <token>" header.
func AuthMiddleware(tokens *jwt.Manager) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get(fiber.HeaderAuthorization)
		if header == "" {
			return apperror.Unauthorized("missing authorization header")
		}

		scheme, token, ok := strings.Cut(header, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
			return apperror.Unauthorized("authorization header must be a bearer token")
		}

		claims, err := tokens.ValidateToken(strings.TrimSpace(token))
		if err != nil {
			return apperror.Unauthorized("invalid or expired token")
		}

		c.Locals(ClaimsKey, claims)
		c.SetUserContext(logger.ContextWithIdentity(c.UserContext(), claims.Email))
		return c.Next()
	}
}

// Claims returns the authenticated claims, or nil on public routes.
func Claims(c *fiber.Ctx) *jwt.Claims {
	claims, _ := c.Locals(ClaimsKey).(*jwt.Claims)
	return claims
}
