package controller

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"listings_backend/internal/middleware"
	"listings_backend/internal/model"
	"listings_backend/pkg/utils/apperror"
)

type TestimonialInput struct {
	Name        string `json:"name" validate:"required,max=255"`
	ImageURL    string `json:"imageUrl" validate:"omitempty,url"`
	Description string `json:"description" validate:"required"`
	UserID      *uint  `json:"userId" validate:"omitempty,gt=0"`
	OnBehalfOf  string `json:"onBehalfOf" validate:"required"`
	Rating      int    `json:"rating" validate:"required,gte=1,lte=5"`
}

type TestimonialUpdateInput struct {
	ID          uint    `json:"id" validate:"required,gt=0"`
	Name        *string `json:"name" validate:"omitempty,min=1,max=255"`
	ImageURL    *string `json:"imageUrl" validate:"omitempty,url"`
	Description *string `json:"description" validate:"omitempty,min=1"`
	OnBehalfOf  *string `json:"onBehalfOf" validate:"omitempty,min=1"`
	Rating      *int    `json:"rating" validate:"omitempty,gte=1,lte=5"`
}

type TestimonialHandler struct {
	db *gorm.DB
}

func NewTestimonialHandler(db *gorm.DB) *TestimonialHandler {
	return &TestimonialHandler{db: db}
}

func (h *TestimonialHandler) GetTestimonials(c *fiber.Ctx) error {
	var testimonials []model.Testimonial
	if err := h.db.WithContext(c.UserContext()).Preload("User").Order("created_at DESC").Find(&testimonials).Error; err != nil {
		return apperror.Server("could not fetch testimonials", err)
	}
	return respond(c, fiber.StatusOK, testimonials)
}

func (h *TestimonialHandler) GetTestimonial(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	var testimonial model.Testimonial
	if err := h.db.WithContext(c.UserContext()).Preload("User").First(&testimonial, id).Error; err != nil {
		return notFoundOr(err, "testimonial", "could not fetch testimonial")
	}
	return respond(c, fiber.StatusOK, testimonial)
}

// CreateTestimonial attributes the testimonial to the caller unless userId is given.
func (h *TestimonialHandler) CreateTestimonial(c *fiber.Ctx) error {
	var in TestimonialInput
	if err := parseBody(c, &in); err != nil {
		return err
	}

	testimonial := model.Testimonial{
		Name:        strings.TrimSpace(in.Name),
		ImageURL:    in.ImageURL,
		Description: in.Description,
		UserID:      in.UserID,
		OnBehalfOf:  in.OnBehalfOf,
		Rating:      in.Rating,
	}
	if testimonial.UserID == nil {
		if claims := middleware.Claims(c); claims != nil {
			testimonial.UserID = &claims.UserID
		}
	}

	if err := h.db.WithContext(c.UserContext()).Create(&testimonial).Error; err != nil {
		return apperror.Server("could not create testimonial", err)
	}
	return respond(c, fiber.StatusCreated, testimonial)
}

func (h *TestimonialHandler) UpdateTestimonial(c *fiber.Ctx) error {
	var in TestimonialUpdateInput
	if err := parseBody(c, &in); err != nil {
		return err
	}

	db := h.db.WithContext(c.UserContext())
	var testimonial model.Testimonial
	if err := db.First(&testimonial, in.ID).Error; err != nil {
		return notFoundOr(err, "testimonial", "could not fetch testimonial")
	}
	if in.Name != nil {
		testimonial.Name = strings.TrimSpace(*in.Name)
	}
	assign(&testimonial.ImageURL, in.ImageURL)
	assign(&testimonial.Description, in.Description)
	assign(&testimonial.OnBehalfOf, in.OnBehalfOf)
	if in.Rating != nil {
		testimonial.Rating = *in.Rating
	}

	if err := db.Omit("User").Save(&testimonial).Error; err != nil {
		return apperror.Server("could not update testimonial", err)
	}
	return respond(c, fiber.StatusOK, testimonial)
}

func (h *TestimonialHandler) DeleteTestimonial(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	res := h.db.WithContext(c.UserContext()).Delete(&model.Testimonial{}, id)
	if res.Error != nil {
		return apperror.Server("could not delete testimonial", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperror.NotFound("testimonial")
	}
	return c.SendStatus(fiber.StatusNoContent)
}
