package controller

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"listings_backend/internal/model"
	"listings_backend/pkg/email"
	"listings_backend/pkg/logger"
	"listings_backend/pkg/utils/apperror"
)

type AccessRequestInput struct {
	Email string `json:"email" validate:"required,email"`
}

type AccessStatusInput struct {
	ID     uint               `json:"id" validate:"required,gt=0"`
	Status model.AccessStatus `json:"status" validate:"required,oneof=PENDING APPROVED REJECTED"`
}

// AccessHandler manages requests for an account on the admin side.
type AccessHandler struct {
	db     *gorm.DB
	mailer email.Mailer
}

func NewAccessHandler(db *gorm.DB, mailer email.Mailer) *AccessHandler {
	return &AccessHandler{db: db, mailer: mailer}
}

func (h *AccessHandler) RequestAccess(c *fiber.Ctx) error {
	var in AccessRequestInput
	if err := parseBody(c, &in); err != nil {
		return err
	}

	db := h.db.WithContext(c.UserContext())
	request := model.AccessRequest{Email: strings.ToLower(strings.TrimSpace(in.Email)), Status: model.AccessStatusPending}
	if err := ensureUnique(db, &model.AccessRequest{}, "email", request.Email, 0); err != nil {
		if apperror.Is(err, apperror.KindConflict) {
			return apperror.Conflict("an access request for this email already exists")
		}
		return err
	}
	if err := db.Create(&request).Error; err != nil {
		return apperror.Server("could not create access request", err)
	}
	return respond(c, fiber.StatusCreated, request)
}

func (h *AccessHandler) GetAccessRequests(c *fiber.Ctx) error {
	var requests []model.AccessRequest
	q := h.db.WithContext(c.UserContext()).Order("created_at DESC")
	if status := strings.ToUpper(c.Query("status")); status != "" {
		q = q.Where("status = ?", status)
	}
	if err := q.Find(&requests).Error; err != nil {
		return apperror.Server("could not fetch access requests", err)
	}
	return respond(c, fiber.StatusOK, requests)
}

func (h *AccessHandler) GetAccessRequest(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	var request model.AccessRequest
	if err := h.db.WithContext(c.UserContext()).First(&request, id).Error; err != nil {
		return notFoundOr(err, "access request", "could not fetch access request")
	}
	return respond(c, fiber.StatusOK, request)
}

// UpdateAccessStatus changes the status and, when it moves to APPROVED or REJECTED, tells
// the requester by e-mail. A failed e-mail does not undo the change.
func (h *AccessHandler) UpdateAccessStatus(c *fiber.Ctx) error {
	var in AccessStatusInput
	if err := parseBody(c, &in); err != nil {
		return err
	}

	ctx := c.UserContext()
	db := h.db.WithContext(ctx)
	var request model.AccessRequest
	if err := db.First(&request, in.ID).Error; err != nil {
		return notFoundOr(err, "access request", "could not fetch access request")
	}

	changed := request.Status != in.Status
	request.Status = in.Status
	if err := db.Save(&request).Error; err != nil {
		return apperror.Server("could not update access request", err)
	}

	if changed && in.Status != model.AccessStatusPending {
		if err := h.mailer.SendAccessRequestStatus(ctx, request.Email, request.Status); err != nil {
			logger.FromContext(ctx).WithError(err).WithField("accessRequestId", request.ID).Warn("could not send access request e-mail")
		}
	}
	return respond(c, fiber.StatusOK, request)
}

func (h *AccessHandler) DeleteAccessRequest(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	res := h.db.WithContext(c.UserContext()).Delete(&model.AccessRequest{}, id)
	if res.Error != nil {
		return apperror.Server("could not delete access request", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperror.NotFound("access request")
	}
	return c.SendStatus(fiber.StatusNoContent)
}
