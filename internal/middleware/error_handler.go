package middleware

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"listings_backend/pkg/logger"
	"listings_backend/pkg/utils/apperror"
)

// ErrorHandler renders every error as {status, message[, errors]}. When hideInternal is
// set, 5xx messages are replaced and only logged.
func ErrorHandler(hideInternal bool) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		message := err.Error()
		var fieldErrors []string

		var fe *fiber.Error
		if appErr, ok := apperror.As(err); ok {
			code = appErr.Status()
			message = appErr.Message
			if message == "" {
				message = appErr.Error()
			}
			if len(appErr.Fields) > 0 {
				fieldErrors = appErr.FieldMessages()
			}
		} else if errors.As(err, &fe) {
			code = fe.Code
			message = fe.Message
		}

		if code >= fiber.StatusInternalServerError {
			logger.FromContext(c.UserContext()).
				WithError(err).
				WithField("path", c.Path()).
				WithField("method", c.Method()).
				Error("request failed")
			if hideInternal {
				message = "internal server error"
			} else {
				message = err.Error()
			}
		}

		body := fiber.Map{
			"status":  code,
			"message": message,
		}
		if len(fieldErrors) > 0 {
			body["errors"] = fieldErrors
		}
		return c.Status(code).JSON(body)
	}
}
