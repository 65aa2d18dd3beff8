package middleware

import (
	"github.com/gofiber/fiber/v2"

	"listings_backend/pkg/utils/apperror"
)

// CheckUserAccess lets a user read or change only their own account (":id").
func CheckUserAccess() fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims := Claims(c)
		if claims == nil {
			return apperror.Unauthorized("authentication required")
		}

		id, err := c.ParamsInt("id")
		if err != nil || id <= 0 {
			return apperror.Validation("id must be a positive integer")
		}

		if uint(id) != claims.UserID {
			return apperror.Forbidden("you don't have permission to access this user")
		}
		return c.Next()
	}
}

// CheckCompanyAccess restricts ":id" company routes to members of that company.
func CheckCompanyAccess() fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims := Claims(c)
		if claims == nil {
			return apperror.Unauthorized("authentication required")
		}

		id, err := c.ParamsInt("id")
		if err != nil || id <= 0 {
			return apperror.Validation("id must be a positive integer")
		}

		if claims.CompanyID == nil || *claims.CompanyID != uint(id) {
			return apperror.Forbidden("you don't have permission to access this company")
		}
		return c.Next()
	}
}
