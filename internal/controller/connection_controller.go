package controller

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"listings_backend/internal/model"
	"listings_backend/pkg/email"
	"listings_backend/pkg/logger"
	"listings_backend/pkg/utils/apperror"
)

type ConnectionInput struct {
	PropertyID *uint  `json:"propertyId" validate:"omitempty,gt=0"`
	Name       string `json:"name" validate:"required,max=255"`
	Email      string `json:"email" validate:"required,email"`
	Phone      string `json:"phone" validate:"required,max=50"`
	Message    string `json:"message" validate:"required"`
}

type ConnectionReadInput struct {
	ID         uint `json:"id" validate:"required,gt=0"`
	ReadStatus bool `json:"readStatus"`
}

// ConnectionHandler stores contact-form messages and forwards them to the site admin.
type ConnectionHandler struct {
	db         *gorm.DB
	mailer     email.Mailer
	adminEmail string
}

func NewConnectionHandler(db *gorm.DB, mailer email.Mailer, adminEmail string) *ConnectionHandler {
	return &ConnectionHandler{db: db, mailer: mailer, adminEmail: adminEmail}
}

func (h *ConnectionHandler) CreateConnection(c *fiber.Ctx) error {
	var in ConnectionInput
	if err := parseBody(c, &in); err != nil {
		return err
	}

	ctx := c.UserContext()
	db := h.db.WithContext(ctx)

	var propertyName string
	if in.PropertyID != nil {
		var property model.Property
		if err := db.Select("id", "name").First(&property, *in.PropertyID).Error; err != nil {
			return notFoundOr(err, "property", "could not fetch property")
		}
		propertyName = property.Name
	}

	conn := model.Connection{
		PropertyID: in.PropertyID,
		Name:       in.Name,
		Email:      in.Email,
		Phone:      in.Phone,
		Message:    in.Message,
	}
	if err := db.Create(&conn).Error; err != nil {
		return apperror.Server("could not create connection", err)
	}

	if h.adminEmail != "" {
		if err := h.mailer.SendConnectionNotification(ctx, h.adminEmail, conn, propertyName); err != nil {
			logger.FromContext(ctx).WithError(err).WithField("connectionId", conn.ID).Warn("could not send connection notification")
		}
	}

	return respond(c, fiber.StatusCreated, conn)
}

// GetConnections lists messages newest first; ?unread=true keeps only unread ones.
func (h *ConnectionHandler) GetConnections(c *fiber.Ctx) error {
	q := h.db.WithContext(c.UserContext()).
		Preload("Property", func(db *gorm.DB) *gorm.DB { return db.Select("id", "name") }).
		Order("created_at DESC")
	if c.QueryBool("unread") {
		q = q.Where("read_status = ?", false)
	}

	var connections []model.Connection
	if err := q.Find(&connections).Error; err != nil {
		return apperror.Server("could not fetch connections", err)
	}
	return respond(c, fiber.StatusOK, connections)
}

func (h *ConnectionHandler) GetConnection(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	var conn model.Connection
	if err := h.db.WithContext(c.UserContext()).First(&conn, id).Error; err != nil {
		return notFoundOr(err, "connection", "could not fetch connection")
	}
	return respond(c, fiber.StatusOK, conn)
}

func (h *ConnectionHandler) MarkConnection(c *fiber.Ctx) error {
	var in ConnectionReadInput
	if err := parseBody(c, &in); err != nil {
		return err
	}

	db := h.db.WithContext(c.UserContext())
	res := db.Model(&model.Connection{}).Where("id = ?", in.ID).Update("read_status", in.ReadStatus)
	if res.Error != nil {
		return apperror.Server("could not update connection", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperror.NotFound("connection")
	}

	var conn model.Connection
	if err := db.First(&conn, in.ID).Error; err != nil {
		return apperror.Server("could not fetch connection", err)
	}
	return respond(c, fiber.StatusOK, conn)
}

func (h *ConnectionHandler) DeleteConnection(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	res := h.db.WithContext(c.UserContext()).Delete(&model.Connection{}, id)
	if res.Error != nil {
		return apperror.Server("could not delete connection", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperror.NotFound("connection")
	}
	return c.SendStatus(fiber.StatusNoContent)
}
