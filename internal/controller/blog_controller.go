package controller

import (
	"context"
	"mime/multipart"
	"strings"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"listings_backend/internal/middleware"
	"listings_backend/internal/model"
	"listings_backend/pkg/cron"
	"listings_backend/pkg/logger"
	"listings_backend/pkg/utils/apperror"
	"listings_backend/pkg/utils/storage"
	"listings_backend/pkg/utils/validation"
)

const recentBlogsLimit = 3

type BlogInput struct {
	Name             string `json:"name" validate:"required,max=255"`
	Description      string `json:"description" validate:"required"`
	ShortDescription string `json:"shortDescription" validate:"required,max=500"`
}

type BlogUpdateInput struct {
	ID               uint    `json:"id" validate:"required,gt=0"`
	Name             *string `json:"name" validate:"omitempty,min=1,max=255"`
	Description      *string `json:"description" validate:"omitempty,min=1"`
	ShortDescription *string `json:"shortDescription" validate:"omitempty,min=1,max=500"`
}

// BlogHandler serves blog posts. Each post carries at most one cover image in the
// object store.
type BlogHandler struct {
	db    *gorm.DB
	store storage.ObjectStore
}

func NewBlogHandler(db *gorm.DB, store storage.ObjectStore) *BlogHandler {
	return &BlogHandler{db: db, store: store}
}

func (h *BlogHandler) GetBlogs(c *fiber.Ctx) error {
	var blogs []model.Blog
	if err := h.withAuthor(c).Order("created_at DESC").Find(&blogs).Error; err != nil {
		return apperror.Server("could not fetch blogs", err)
	}
	return respond(c, fiber.StatusOK, blogs)
}

func (h *BlogHandler) GetRecentBlogs(c *fiber.Ctx) error {
	var blogs []model.Blog
	if err := h.withAuthor(c).Order("created_at DESC").Limit(recentBlogsLimit).Find(&blogs).Error; err != nil {
		return apperror.Server("could not fetch blogs", err)
	}
	return respond(c, fiber.StatusOK, blogs)
}

func (h *BlogHandler) GetBlog(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	var blog model.Blog
	if err := h.withAuthor(c).First(&blog, id).Error; err != nil {
		return notFoundOr(err, "blog", "could not fetch blog")
	}
	return respond(c, fiber.StatusOK, blog)
}

// CreateBlog expects multipart form data with the post in "json" and an optional "image".
func (h *BlogHandler) CreateBlog(c *fiber.Ctx) error {
	var in BlogInput
	files, err := parseMultipart(c, &in, "image")
	if err != nil {
		return err
	}
	if err := validation.Struct(in); err != nil {
		return err
	}
	file, err := singleImage(files)
	if err != nil {
		return err
	}

	ctx := c.UserContext()
	db := h.db.WithContext(ctx)
	blog := model.Blog{
		Name:             strings.TrimSpace(in.Name),
		Description:      in.Description,
		ShortDescription: in.ShortDescription,
	}
	if claims := middleware.Claims(c); claims != nil {
		blog.UserID = &claims.UserID
	}
	if err := ensureUnique(db, &model.Blog{}, "name", blog.Name, 0); err != nil {
		return err
	}

	var upload storage.UploadResult
	if file != nil {
		if upload, err = h.store.Upload(ctx, file, "blogs/"+blog.Name); err != nil {
			return apperror.Server("could not upload blog image", err)
		}
		blog.ImageURL = upload.URL
		blog.ExternalID = upload.ExternalID
	}

	if err := db.Create(&blog).Error; err != nil {
		h.discard(ctx, upload.ExternalID, "blog create failed")
		return apperror.Server("could not create blog", err)
	}
	return respond(c, fiber.StatusCreated, blog)
}

// UpdateBlog accepts JSON or multipart. A new image replaces the old one, which is removed
// from the store after the row is saved.
func (h *BlogHandler) UpdateBlog(c *fiber.Ctx) error {
	var in BlogUpdateInput
	files, err := parseMultipart(c, &in, "image")
	if err != nil {
		return err
	}
	if err := validation.Struct(in); err != nil {
		return err
	}
	file, err := singleImage(files)
	if err != nil {
		return err
	}

	ctx := c.UserContext()
	db := h.db.WithContext(ctx)
	var blog model.Blog
	if err := db.First(&blog, in.ID).Error; err != nil {
		return notFoundOr(err, "blog", "could not fetch blog")
	}

	if in.Name != nil {
		blog.Name = strings.TrimSpace(*in.Name)
		if err := ensureUnique(db, &model.Blog{}, "name", blog.Name, blog.ID); err != nil {
			return err
		}
	}
	assign(&blog.Description, in.Description)
	assign(&blog.ShortDescription, in.ShortDescription)

	previous := blog.ExternalID
	var upload storage.UploadResult
	if file != nil {
		if upload, err = h.store.Upload(ctx, file, "blogs/"+blog.Name); err != nil {
			return apperror.Server("could not upload blog image", err)
		}
		blog.ImageURL = upload.URL
		blog.ExternalID = upload.ExternalID
	}

	if err := db.Omit("User").Save(&blog).Error; err != nil {
		h.discard(ctx, upload.ExternalID, "blog update failed")
		return apperror.Server("could not update blog", err)
	}
	if file != nil {
		h.discard(ctx, previous, "blog image replaced")
	}
	return respond(c, fiber.StatusOK, blog)
}

func (h *BlogHandler) DeleteBlog(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}

	ctx := c.UserContext()
	db := h.db.WithContext(ctx)
	var blog model.Blog
	if err := db.First(&blog, id).Error; err != nil {
		return notFoundOr(err, "blog", "could not fetch blog")
	}
	if err := db.Delete(&blog).Error; err != nil {
		return apperror.Server("could not delete blog", err)
	}

	h.discard(ctx, blog.ExternalID, "blog deleted")
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *BlogHandler) withAuthor(c *fiber.Ctx) *gorm.DB {
	return h.db.WithContext(c.UserContext()).Preload("User")
}

// discard removes an object no row references any more; failures are queued for the
// reconciliation job.
func (h *BlogHandler) discard(ctx context.Context, externalID, reason string) {
	if externalID == "" {
		return
	}
	err := h.store.Delete(ctx, externalID)
	if err == nil {
		return
	}
	log := logger.FromContext(ctx).WithField("externalId", externalID)
	log.WithError(err).Warn("could not delete blog image, queued for reconciliation")
	if err := cron.RecordOrphan(h.db.WithContext(ctx), externalID, reason, err); err != nil {
		log.WithError(err).Error("could not record orphaned image")
	}
}

func singleImage(files []*multipart.FileHeader) (*multipart.FileHeader, error) {
	switch len(files) {
	case 0:
		return nil, nil
	case 1:
		if err := validation.ValidateImage(files[0]); err != nil {
			return nil, apperror.ValidationFields(map[string]string{"image": err.Error()})
		}
		return files[0], nil
	default:
		return nil, apperror.ValidationFields(map[string]string{"image": "only one image is allowed"})
	}
}
