package controller

import (
	"strings"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"listings_backend/internal/model"
	"listings_backend/pkg/utils/apperror"
)

type CompanyInput struct {
	CompanyName    string            `json:"companyName" validate:"required,max=255"`
	StreetAddress  string            `json:"streetAddress"`
	StreetAddress2 string            `json:"streetAddress2"`
	LocationID     *uint             `json:"locationId" validate:"omitempty,gt=0"`
	Phone          string            `json:"phone"`
	Phone2         string            `json:"phone2"`
	Email          string            `json:"email" validate:"omitempty,email"`
	SocialLinks    map[string]string `json:"socialLinks" validate:"omitempty,dive,url"`
}

type CompanyUpdateInput struct {
	ID             uint              `json:"id" validate:"required,gt=0"`
	CompanyName    *string           `json:"companyName" validate:"omitempty,min=1,max=255"`
	StreetAddress  *string           `json:"streetAddress"`
	StreetAddress2 *string           `json:"streetAddress2"`
	LocationID     *uint             `json:"locationId" validate:"omitempty,gt=0"`
	Phone          *string           `json:"phone"`
	Phone2         *string           `json:"phone2"`
	Email          *string           `json:"email" validate:"omitempty,email"`
	SocialLinks    map[string]string `json:"socialLinks" validate:"omitempty,dive,url"`
}

type CompanyHandler struct {
	db *gorm.DB
}

func NewCompanyHandler(db *gorm.DB) *CompanyHandler {
	return &CompanyHandler{db: db}
}

func (h *CompanyHandler) GetCompanies(c *fiber.Ctx) error {
	var companies []model.Company
	if err := h.db.WithContext(c.UserContext()).Preload("Location").Order("company_name ASC").Find(&companies).Error; err != nil {
		return apperror.Server("could not fetch companies", err)
	}
	return respond(c, fiber.StatusOK, companies)
}

func (h *CompanyHandler) GetCompany(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	var company model.Company
	if err := h.db.WithContext(c.UserContext()).Preload("Location").First(&company, id).Error; err != nil {
		return notFoundOr(err, "company", "could not fetch company")
	}
	return respond(c, fiber.StatusOK, company)
}

func (h *CompanyHandler) CreateCompany(c *fiber.Ctx) error {
	var in CompanyInput
	if err := parseBody(c, &in); err != nil {
		return err
	}

	db := h.db.WithContext(c.UserContext())
	company := model.Company{
		CompanyName:    strings.TrimSpace(in.CompanyName),
		StreetAddress:  in.StreetAddress,
		StreetAddress2: in.StreetAddress2,
		LocationID:     in.LocationID,
		Phone:          in.Phone,
		Phone2:         in.Phone2,
		Email:          in.Email,
	}
	links, err := socialLinks(in.SocialLinks)
	if err != nil {
		return err
	}
	company.SocialLinks = links

	if err := ensureUnique(db, &model.Company{}, "company_name", company.CompanyName, 0); err != nil {
		return err
	}
	if err := ensureLocation(db, company.LocationID); err != nil {
		return err
	}
	if err := db.Create(&company).Error; err != nil {
		return apperror.Server("could not create company", err)
	}
	return respond(c, fiber.StatusCreated, company)
}

func (h *CompanyHandler) UpdateCompany(c *fiber.Ctx) error {
	var in CompanyUpdateInput
	if err := parseBody(c, &in); err != nil {
		return err
	}

	db := h.db.WithContext(c.UserContext())
	var company model.Company
	if err := db.First(&company, in.ID).Error; err != nil {
		return notFoundOr(err, "company", "could not fetch company")
	}

	if in.CompanyName != nil {
		company.CompanyName = strings.TrimSpace(*in.CompanyName)
		if err := ensureUnique(db, &model.Company{}, "company_name", company.CompanyName, company.ID); err != nil {
			return err
		}
	}
	if in.LocationID != nil {
		if err := ensureLocation(db, in.LocationID); err != nil {
			return err
		}
		company.LocationID = in.LocationID
	}
	assign(&company.StreetAddress, in.StreetAddress)
	assign(&company.StreetAddress2, in.StreetAddress2)
	assign(&company.Phone, in.Phone)
	assign(&company.Phone2, in.Phone2)
	assign(&company.Email, in.Email)
	if in.SocialLinks != nil {
		links, err := socialLinks(in.SocialLinks)
		if err != nil {
			return err
		}
		company.SocialLinks = links
	}

	if err := db.Omit("Location").Save(&company).Error; err != nil {
		return apperror.Server("could not update company", err)
	}
	return respond(c, fiber.StatusOK, company)
}

func (h *CompanyHandler) DeleteCompany(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	res := h.db.WithContext(c.UserContext()).Delete(&model.Company{}, id)
	if res.Error != nil {
		return apperror.Server("could not delete company", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperror.NotFound("company")
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func ensureLocation(db *gorm.DB, id *uint) error {
	if id == nil {
		return nil
	}
	var count int64
	if err := db.Model(&model.Location{}).Where("id = ?", *id).Count(&count).Error; err != nil {
		return apperror.Server("could not check location", err)
	}
	if count == 0 {
		return apperror.ValidationFields(map[string]string{"locationId": "locationId does not reference an existing location"})
	}
	return nil
}

func socialLinks(links map[string]string) (datatypes.JSON, error) {
	if len(links) == 0 {
		return datatypes.JSON("{}"), nil
	}
	b, err := json.Marshal(links)
	if err != nil {
		return nil, apperror.Server("could not encode social links", err)
	}
	return datatypes.JSON(b), nil
}

func assign(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}
