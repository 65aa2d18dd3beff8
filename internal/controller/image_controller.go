package controller

import (
	"github.com/gofiber/fiber/v2"

	"listings_backend/internal/listing"
)

type imageOrderInput struct {
	PropertyID uint     `json:"propertyId" validate:"required,gt=0"`
	ImageOrder []string `json:"imageOrder" validate:"required,min=1,dive,required"`
}

// UpdatePropertyImage deletes one image by external id or appends the uploaded "images".
func (h *PropertyHandler) UpdatePropertyImage(c *fiber.Ctx) error {
	var in listing.ImageActionInput
	files, err := parseMultipart(c, &in, "images")
	if err != nil {
		return err
	}

	images, err := h.mutations.UpdateImages(c.UserContext(), in, files)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, images)
}

func (h *PropertyHandler) OrderPropertyImages(c *fiber.Ctx) error {
	var in imageOrderInput
	if err := parseBody(c, &in); err != nil {
		return err
	}

	property, err := h.mutations.OrderImages(c.UserContext(), in.PropertyID, in.ImageOrder)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, property)
}
