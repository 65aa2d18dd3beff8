package controller

import (
	"github.com/gofiber/fiber/v2"

	"listings_backend/internal/listing"
)

type PropertyHandler struct {
	queries   *listing.QueryService
	mutations *listing.MutationService
	paginator listing.Paginator
}

func NewPropertyHandler(queries *listing.QueryService, mutations *listing.MutationService, paginator listing.Paginator) *PropertyHandler {
	return &PropertyHandler{queries: queries, mutations: mutations, paginator: paginator}
}

// ListProperties serves GET /properties?limit&page&filters=<json>.
func (h *PropertyHandler) ListProperties(c *fiber.Ctx) error {
	preds, err := listing.ParseFilters(c.Query("filters"))
	if err != nil {
		return err
	}
	page, err := h.paginator.Parse(c.Query("limit"), c.Query("page"))
	if err != nil {
		return err
	}

	result, err := h.queries.List(c.UserContext(), preds, page)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, result)
}

func (h *PropertyHandler) AllProperties(c *fiber.Ctx) error {
	properties, err := h.queries.All(c.UserContext())
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, properties)
}

func (h *PropertyHandler) GetProperty(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	detail, err := h.queries.GetByID(c.UserContext(), id)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, detail)
}

func (h *PropertyHandler) SimilarProperties(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	similar, err := h.queries.Similar(c.UserContext(), id)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, similar)
}

// CreateProperty expects multipart form data: the payload as a JSON string in "json" and
// the pictures under "images".
func (h *PropertyHandler) CreateProperty(c *fiber.Ctx) error {
	var in listing.CreateInput
	files, err := parseMultipart(c, &in, "images")
	if err != nil {
		return err
	}

	property, err := h.mutations.Create(c.UserContext(), in, files)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusCreated, property)
}

func (h *PropertyHandler) UpdateProperty(c *fiber.Ctx) error {
	var in listing.UpdateInput
	files, err := parseMultipart(c, &in, "images")
	if err != nil {
		return err
	}

	property, err := h.mutations.Update(c.UserContext(), in, files)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusCreated, property)
}

func (h *PropertyHandler) DeleteProperty(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	if err := h.mutations.Delete(c.UserContext(), id); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}
