package controller

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"listings_backend/internal/model"
	"listings_backend/pkg/cache"
	"listings_backend/pkg/utils/apperror"
)

const catalogAllKey = "all"

type FeatureInput struct {
	Name        string `json:"name" validate:"required,max=100"`
	Description string `json:"description"`
}

type FeatureUpdateInput struct {
	ID          uint    `json:"id" validate:"required,gt=0"`
	Name        *string `json:"name" validate:"omitempty,min=1,max=100"`
	Description *string `json:"description"`
}

type PropertyTypeInput struct {
	Name string `json:"name" validate:"required,max=100"`
}

type PropertyTypeUpdateInput struct {
	ID   uint   `json:"id" validate:"required,gt=0"`
	Name string `json:"name" validate:"required,max=100"`
}

type bulkDeleteInput struct {
	IDs []uint `json:"ids" validate:"required,min=1"`
}

// CatalogHandler manages features and property types. Both lists are read on every
// listing form, so full lists are cached until the next write.
type CatalogHandler struct {
	db       *gorm.DB
	features *cache.Cache[[]model.PropertyFeature]
	types    *cache.Cache[[]model.PropertyType]
}

func NewCatalogHandler(db *gorm.DB, features *cache.Cache[[]model.PropertyFeature], types *cache.Cache[[]model.PropertyType]) *CatalogHandler {
	return &CatalogHandler{db: db, features: features, types: types}
}

func (h *CatalogHandler) GetFeatures(c *fiber.Ctx) error {
	db := h.db.WithContext(c.UserContext())
	features, err := h.features.Get(catalogAllKey, func() ([]model.PropertyFeature, error) {
		var out []model.PropertyFeature
		err := db.Order("name ASC").Find(&out).Error
		return out, err
	})
	if err != nil {
		return apperror.Server("could not fetch features", err)
	}
	return respond(c, fiber.StatusOK, features)
}

func (h *CatalogHandler) GetFeature(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	var feature model.PropertyFeature
	if err := h.db.WithContext(c.UserContext()).First(&feature, id).Error; err != nil {
		return notFoundOr(err, "feature", "could not fetch feature")
	}
	return respond(c, fiber.StatusOK, feature)
}

func (h *CatalogHandler) CreateFeature(c *fiber.Ctx) error {
	var in FeatureInput
	if err := parseBody(c, &in); err != nil {
		return err
	}

	feature := model.PropertyFeature{Name: strings.TrimSpace(in.Name), Description: in.Description}
	db := h.db.WithContext(c.UserContext())
	if err := ensureUnique(db, &model.PropertyFeature{}, "name", feature.Name, 0); err != nil {
		return err
	}
	if err := db.Create(&feature).Error; err != nil {
		return apperror.Server("could not create feature", err)
	}

	h.features.Invalidate()
	return respond(c, fiber.StatusCreated, feature)
}

func (h *CatalogHandler) UpdateFeature(c *fiber.Ctx) error {
	var in FeatureUpdateInput
	if err := parseBody(c, &in); err != nil {
		return err
	}

	db := h.db.WithContext(c.UserContext())
	var feature model.PropertyFeature
	if err := db.First(&feature, in.ID).Error; err != nil {
		return notFoundOr(err, "feature", "could not fetch feature")
	}

	if in.Name != nil {
		feature.Name = strings.TrimSpace(*in.Name)
		if err := ensureUnique(db, &model.PropertyFeature{}, "name", feature.Name, feature.ID); err != nil {
			return err
		}
	}
	if in.Description != nil {
		feature.Description = *in.Description
	}
	if err := db.Save(&feature).Error; err != nil {
		return apperror.Server("could not update feature", err)
	}

	h.features.Invalidate()
	return respond(c, fiber.StatusOK, feature)
}

// DeleteFeature removes a feature. Association rows go with it through the foreign key.
func (h *CatalogHandler) DeleteFeature(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	if err := h.deleteFeatures(c, []uint{id}); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *CatalogHandler) DeleteFeatures(c *fiber.Ctx) error {
	var in bulkDeleteInput
	if err := parseBody(c, &in); err != nil {
		return err
	}
	if err := h.deleteFeatures(c, in.IDs); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *CatalogHandler) deleteFeatures(c *fiber.Ctx, ids []uint) error {
	err := h.db.WithContext(c.UserContext()).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("feature_id IN ?", ids).Delete(&model.PropertyToFeature{}).Error; err != nil {
			return err
		}
		res := tx.Where("id IN ?", ids).Delete(&model.PropertyFeature{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperror.NotFound("feature")
		}
		return nil
	})
	if err != nil {
		if _, ok := apperror.As(err); ok {
			return err
		}
		return apperror.Server("could not delete features", err)
	}

	h.features.Invalidate()
	return nil
}

func (h *CatalogHandler) GetPropertyTypes(c *fiber.Ctx) error {
	db := h.db.WithContext(c.UserContext())
	types, err := h.types.Get(catalogAllKey, func() ([]model.PropertyType, error) {
		var out []model.PropertyType
		err := db.Order("name ASC").Find(&out).Error
		return out, err
	})
	if err != nil {
		return apperror.Server("could not fetch property types", err)
	}
	return respond(c, fiber.StatusOK, types)
}

func (h *CatalogHandler) GetPropertyType(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	var pt model.PropertyType
	if err := h.db.WithContext(c.UserContext()).First(&pt, id).Error; err != nil {
		return notFoundOr(err, "property type", "could not fetch property type")
	}
	return respond(c, fiber.StatusOK, pt)
}

// GetPropertyTypeByName matches case-insensitively.
func (h *CatalogHandler) GetPropertyTypeByName(c *fiber.Ctx) error {
	name := strings.TrimSpace(c.Params("name"))
	if name == "" {
		return apperror.Validation("name is required")
	}
	var pt model.PropertyType
	if err := h.db.WithContext(c.UserContext()).Where("LOWER(name) = LOWER(?)", name).First(&pt).Error; err != nil {
		return notFoundOr(err, "property type", "could not fetch property type")
	}
	return respond(c, fiber.StatusOK, pt)
}

func (h *CatalogHandler) CreatePropertyType(c *fiber.Ctx) error {
	var in PropertyTypeInput
	if err := parseBody(c, &in); err != nil {
		return err
	}

	pt := model.PropertyType{Name: strings.TrimSpace(in.Name)}
	db := h.db.WithContext(c.UserContext())
	if err := ensureUnique(db, &model.PropertyType{}, "name", pt.Name, 0); err != nil {
		return err
	}
	if err := db.Create(&pt).Error; err != nil {
		return apperror.Server("could not create property type", err)
	}

	h.types.Invalidate()
	return respond(c, fiber.StatusCreated, pt)
}

func (h *CatalogHandler) UpdatePropertyType(c *fiber.Ctx) error {
	var in PropertyTypeUpdateInput
	if err := parseBody(c, &in); err != nil {
		return err
	}

	db := h.db.WithContext(c.UserContext())
	var pt model.PropertyType
	if err := db.First(&pt, in.ID).Error; err != nil {
		return notFoundOr(err, "property type", "could not fetch property type")
	}
	pt.Name = strings.TrimSpace(in.Name)
	if err := ensureUnique(db, &model.PropertyType{}, "name", pt.Name, pt.ID); err != nil {
		return err
	}
	if err := db.Save(&pt).Error; err != nil {
		return apperror.Server("could not update property type", err)
	}

	h.types.Invalidate()
	return respond(c, fiber.StatusOK, pt)
}

// DeletePropertyType refuses while properties still use the type.
func (h *CatalogHandler) DeletePropertyType(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}

	db := h.db.WithContext(c.UserContext())
	var inUse int64
	if err := db.Model(&model.Property{}).Where("property_type_id = ?", id).Count(&inUse).Error; err != nil {
		return apperror.Server("could not check property type usage", err)
	}
	if inUse > 0 {
		return apperror.Conflict("property type is used by existing properties")
	}

	res := db.Delete(&model.PropertyType{}, id)
	if res.Error != nil {
		return apperror.Server("could not delete property type", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperror.NotFound("property type")
	}

	h.types.Invalidate()
	return c.SendStatus(fiber.StatusNoContent)
}

// notFoundOr maps gorm.ErrRecordNotFound to a NotFound error and anything else to a
// server error.
func notFoundOr(err error, entity, message string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperror.NotFound(entity)
	}
	return apperror.Server(message, err)
}

// ensureUnique returns a Conflict when another row already holds value in column.
func ensureUnique(db *gorm.DB, m interface{}, column, value string, exceptID uint) error {
	q := db.Model(m).Where(column+" = ?", value)
	if exceptID != 0 {
		q = q.Where("id <> ?", exceptID)
	}
	var count int64
	if err := q.Count(&count).Error; err != nil {
		return apperror.Server("could not check "+column, err)
	}
	if count > 0 {
		return apperror.Conflict(column + " already exists")
	}
	return nil
}
