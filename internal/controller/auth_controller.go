package controller

import (
	"errors"
	"net/url"
	"strings"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"listings_backend/internal/middleware"
	"listings_backend/internal/model"
	"listings_backend/pkg/email"
	"listings_backend/pkg/logger"
	"listings_backend/pkg/utils/apperror"
	"listings_backend/pkg/utils/jwt"
)

type RegisterInput struct {
	Username        string `json:"username" validate:"required,min=3,max=50"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required,strongpassword"`
	ConfirmPassword string `json:"confirmPassword" validate:"required,eqfield=Password"`
	FirstName       string `json:"firstName" validate:"required"`
	LastName        string `json:"lastName" validate:"required"`
	Contact         string `json:"contact" validate:"required"`
	CompanyID       *uint  `json:"companyId" validate:"omitempty,gt=0"`
}

type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type ForgotPasswordInput struct {
	Email string `json:"email" validate:"required,email"`
}

type ResetPasswordInput struct {
	Token           string `json:"token" validate:"required"`
	Password        string `json:"password" validate:"required,strongpassword"`
	ConfirmPassword string `json:"confirmPassword" validate:"required,eqfield=Password"`
}

type UpdateUserInput struct {
	ID              uint    `json:"id" validate:"required,gt=0"`
	Username        *string `json:"username" validate:"omitempty,min=3,max=50"`
	Email           *string `json:"email" validate:"omitempty,email"`
	Password        *string `json:"password" validate:"omitempty,strongpassword"`
	ConfirmPassword *string `json:"confirmPassword"`
	FirstName       *string `json:"firstName" validate:"omitempty,min=1"`
	LastName        *string `json:"lastName" validate:"omitempty,min=1"`
	Contact         *string `json:"contact" validate:"omitempty,min=1"`
	CompanyID       *uint   `json:"companyId" validate:"omitempty,gt=0"`
}

// AuthHandler covers sign-up, login, password recovery and the user profile routes.
type AuthHandler struct {
	db     *gorm.DB
	tokens *jwt.Manager
	mailer email.Mailer
	appURL string
}

func NewAuthHandler(db *gorm.DB, tokens *jwt.Manager, mailer email.Mailer, appURL string) *AuthHandler {
	return &AuthHandler{db: db, tokens: tokens, mailer: mailer, appURL: strings.TrimSuffix(appURL, "/")}
}

func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var in RegisterInput
	if err := parseBody(c, &in); err != nil {
		return err
	}

	db := h.db.WithContext(c.UserContext())
	emailAddr := strings.ToLower(strings.TrimSpace(in.Email))
	username := strings.TrimSpace(in.Username)
	if err := ensureUnique(db, &model.User{}, "email", emailAddr, 0); err != nil {
		return err
	}
	if err := ensureUnique(db, &model.User{}, "username", username, 0); err != nil {
		return err
	}
	if err := ensureCompany(db, in.CompanyID); err != nil {
		return err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return apperror.Server("could not hash password", err)
	}

	user := model.User{
		Username:  username,
		Email:     emailAddr,
		Password:  string(hashedPassword),
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Contact:   in.Contact,
		CompanyID: in.CompanyID,
	}
	if err := db.Create(&user).Error; err != nil {
		return apperror.Server("could not create user", err)
	}

	token, err := h.tokens.GenerateToken(user.ID, user.Email, user.CompanyID)
	if err != nil {
		return apperror.Server("could not generate token", err)
	}

	return respond(c, fiber.StatusCreated, fiber.Map{
		"token": token,
		"user":  user.GetPublicProfile(),
	})
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var in LoginInput
	if err := parseBody(c, &in); err != nil {
		return err
	}

	ctx := c.UserContext()
	db := h.db.WithContext(ctx)
	var user model.User
	if err := db.Where("email = ?", strings.ToLower(strings.TrimSpace(in.Email))).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperror.Unauthorized("invalid credentials")
		}
		return apperror.Server("could not fetch user", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(in.Password)); err != nil {
		return apperror.Unauthorized("invalid credentials")
	}

	token, err := h.tokens.GenerateToken(user.ID, user.Email, user.CompanyID)
	if err != nil {
		return apperror.Server("could not generate token", err)
	}

	history := model.LoginHistory{UserID: user.ID, Device: c.Get(fiber.HeaderUserAgent), IP: c.IP()}
	if err := db.Create(&history).Error; err != nil {
		logger.FromContext(ctx).WithError(err).WithField("userId", user.ID).Warn("could not record login")
	}

	return respond(c, fiber.StatusOK, fiber.Map{
		"token": token,
		"user":  user.GetPublicProfile(),
	})
}

// ForgotPassword always answers 200 so the endpoint cannot be used to probe for accounts.
func (h *AuthHandler) ForgotPassword(c *fiber.Ctx) error {
	var in ForgotPasswordInput
	if err := parseBody(c, &in); err != nil {
		return err
	}

	ctx := c.UserContext()
	log := logger.FromContext(ctx)
	var user model.User
	err := h.db.WithContext(ctx).Where("email = ?", strings.ToLower(strings.TrimSpace(in.Email))).First(&user).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		log.Debug("password reset requested for unknown email")
	case err != nil:
		return apperror.Server("could not fetch user", err)
	default:
		token, err := h.tokens.GenerateResetToken(user.ID, user.Email)
		if err != nil {
			return apperror.Server("could not generate reset token", err)
		}
		link := h.appURL + "/reset-password?token=" + url.QueryEscape(token)
		if err := h.mailer.SendPasswordReset(ctx, user.Email, link); err != nil {
			log.WithError(err).WithField("userId", user.ID).Error("could not send password reset e-mail")
			return apperror.Server("could not send password reset e-mail", err)
		}
	}

	return respond(c, fiber.StatusOK, fiber.Map{
		"message": "if the address belongs to an account, a reset link has been sent",
	})
}

func (h *AuthHandler) ResetPassword(c *fiber.Ctx) error {
	var in ResetPasswordInput
	if err := parseBody(c, &in); err != nil {
		return err
	}

	claims, err := h.tokens.ValidateResetToken(in.Token)
	if err != nil {
		return apperror.Unauthorized("invalid or expired reset token")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return apperror.Server("could not hash password", err)
	}

	res := h.db.WithContext(c.UserContext()).Model(&model.User{}).
		Where("id = ? AND email = ?", claims.UserID, claims.Email).
		Update("password", string(hashedPassword))
	if res.Error != nil {
		return apperror.Server("could not update password", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperror.Unauthorized("invalid or expired reset token")
	}

	return respond(c, fiber.StatusOK, fiber.Map{"message": "password updated"})
}

func (h *AuthHandler) GetUser(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	var user model.User
	if err := h.db.WithContext(c.UserContext()).Preload("Company").First(&user, id).Error; err != nil {
		return notFoundOr(err, "user", "could not fetch user")
	}
	return respond(c, fiber.StatusOK, user)
}

func (h *AuthHandler) GetCompanyUsers(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	var users []model.User
	if err := h.db.WithContext(c.UserContext()).Where("company_id = ?", id).Order("id ASC").Find(&users).Error; err != nil {
		return apperror.Server("could not fetch company users", err)
	}
	return respond(c, fiber.StatusOK, users)
}

// UpdateUser changes the caller's own account.
func (h *AuthHandler) UpdateUser(c *fiber.Ctx) error {
	var in UpdateUserInput
	if err := parseBody(c, &in); err != nil {
		return err
	}
	claims := middleware.Claims(c)
	if claims == nil || claims.UserID != in.ID {
		return apperror.Forbidden("you can only update your own account")
	}

	db := h.db.WithContext(c.UserContext())
	var user model.User
	if err := db.First(&user, in.ID).Error; err != nil {
		return notFoundOr(err, "user", "could not fetch user")
	}

	if in.Username != nil {
		user.Username = strings.TrimSpace(*in.Username)
		if err := ensureUnique(db, &model.User{}, "username", user.Username, user.ID); err != nil {
			return err
		}
	}
	if in.Email != nil {
		user.Email = strings.ToLower(strings.TrimSpace(*in.Email))
		if err := ensureUnique(db, &model.User{}, "email", user.Email, user.ID); err != nil {
			return err
		}
	}
	if in.CompanyID != nil {
		if err := ensureCompany(db, in.CompanyID); err != nil {
			return err
		}
		user.CompanyID = in.CompanyID
	}
	assign(&user.FirstName, in.FirstName)
	assign(&user.LastName, in.LastName)
	assign(&user.Contact, in.Contact)
	if in.Password != nil {
		if in.ConfirmPassword == nil || *in.ConfirmPassword != *in.Password {
			return apperror.ValidationFields(map[string]string{"confirmPassword": "confirmPassword must match password"})
		}
		hashedPassword, err := bcrypt.GenerateFromPassword([]byte(*in.Password), bcrypt.DefaultCost)
		if err != nil {
			return apperror.Server("could not hash password", err)
		}
		user.Password = string(hashedPassword)
	}

	if err := db.Omit("Company").Save(&user).Error; err != nil {
		return apperror.Server("could not update user", err)
	}
	return respond(c, fiber.StatusOK, user.GetPublicProfile())
}

func ensureCompany(db *gorm.DB, id *uint) error {
	if id == nil {
		return nil
	}
	var count int64
	if err := db.Model(&model.Company{}).Where("id = ?", *id).Count(&count).Error; err != nil {
		return apperror.Server("could not check company", err)
	}
	if count == 0 {
		return apperror.ValidationFields(map[string]string{"companyId": "companyId does not reference an existing company"})
	}
	return nil
}
