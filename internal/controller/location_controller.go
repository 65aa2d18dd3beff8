package controller

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"listings_backend/internal/model"
	"listings_backend/pkg/utils/apperror"
)

type LocationInput struct {
	LocationName string `json:"locationName" validate:"required,max=255"`
	Latitude     string `json:"latitude"`
	Longitude    string `json:"longitude"`
}

type LocationUpdateInput struct {
	ID           uint    `json:"id" validate:"required,gt=0"`
	LocationName *string `json:"locationName" validate:"omitempty,min=1,max=255"`
	Latitude     *string `json:"latitude"`
	Longitude    *string `json:"longitude"`
}

type LocationHandler struct {
	db *gorm.DB
}

func NewLocationHandler(db *gorm.DB) *LocationHandler {
	return &LocationHandler{db: db}
}

func (h *LocationHandler) GetLocations(c *fiber.Ctx) error {
	var locations []model.Location
	if err := h.db.WithContext(c.UserContext()).Order("location_name ASC").Find(&locations).Error; err != nil {
		return apperror.Server("could not fetch locations", err)
	}
	return respond(c, fiber.StatusOK, locations)
}

func (h *LocationHandler) GetLocation(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	var location model.Location
	if err := h.db.WithContext(c.UserContext()).First(&location, id).Error; err != nil {
		return notFoundOr(err, "location", "could not fetch location")
	}
	return respond(c, fiber.StatusOK, location)
}

func (h *LocationHandler) CreateLocation(c *fiber.Ctx) error {
	var in LocationInput
	if err := parseBody(c, &in); err != nil {
		return err
	}

	location := model.Location{
		LocationName: strings.TrimSpace(in.LocationName),
		Latitude:     in.Latitude,
		Longitude:    in.Longitude,
	}
	if err := h.db.WithContext(c.UserContext()).Create(&location).Error; err != nil {
		return apperror.Server("could not create location", err)
	}
	return respond(c, fiber.StatusCreated, location)
}

func (h *LocationHandler) UpdateLocation(c *fiber.Ctx) error {
	var in LocationUpdateInput
	if err := parseBody(c, &in); err != nil {
		return err
	}

	db := h.db.WithContext(c.UserContext())
	var location model.Location
	if err := db.First(&location, in.ID).Error; err != nil {
		return notFoundOr(err, "location", "could not fetch location")
	}
	if in.LocationName != nil {
		location.LocationName = strings.TrimSpace(*in.LocationName)
	}
	if in.Latitude != nil {
		location.Latitude = *in.Latitude
	}
	if in.Longitude != nil {
		location.Longitude = *in.Longitude
	}
	if err := db.Save(&location).Error; err != nil {
		return apperror.Server("could not update location", err)
	}
	return respond(c, fiber.StatusOK, location)
}

func (h *LocationHandler) DeleteLocation(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	res := h.db.WithContext(c.UserContext()).Delete(&model.Location{}, id)
	if res.Error != nil {
		return apperror.Server("could not delete location", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperror.NotFound("location")
	}
	return c.SendStatus(fiber.StatusNoContent)
}
