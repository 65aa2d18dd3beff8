package controller

import (
	"mime/multipart"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"

	"listings_backend/pkg/utils/apperror"
	"listings_backend/pkg/utils/validation"
)

// respond writes the success envelope.
func respond(c *fiber.Ctx, status int, data interface{}) error {
	return c.Status(status).JSON(fiber.Map{
		"status": "success",
		"data":   data,
	})
}

// idParam reads a positive integer route parameter.
func idParam(c *fiber.Ctx, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Params(name), 10, 32)
	if err != nil || id == 0 {
		return 0, apperror.Validationf("%s must be a positive integer", name)
	}
	return uint(id), nil
}

// parseBody decodes a JSON body into dst and validates it.
func parseBody(c *fiber.Ctx, dst interface{}) error {
	if err := c.BodyParser(dst); err != nil {
		return apperror.Validation("invalid request body")
	}
	return validation.Struct(dst)
}

// parseMultipart decodes the "json" form field into dst and returns the files posted
// under fileField. Bodies that are plain JSON are accepted too and carry no files.
func parseMultipart(c *fiber.Ctx, dst interface{}, fileField string) ([]*multipart.FileHeader, error) {
	if !strings.HasPrefix(strings.ToLower(c.Get(fiber.HeaderContentType)), fiber.MIMEMultipartForm) {
		if err := c.BodyParser(dst); err != nil {
			return nil, apperror.Validation("invalid request body")
		}
		return nil, nil
	}

	form, err := c.MultipartForm()
	if err != nil {
		return nil, apperror.Validation("invalid multipart form")
	}

	raw := form.Value["json"]
	if len(raw) == 0 || strings.TrimSpace(raw[0]) == "" {
		return nil, apperror.ValidationFields(map[string]string{"json": "json is required"})
	}
	if err := json.Unmarshal([]byte(raw[0]), dst); err != nil {
		return nil, apperror.ValidationFields(map[string]string{"json": "json must be a valid JSON object"})
	}
	return form.File[fileField], nil
}
