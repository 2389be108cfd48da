package handlers

import (
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/example/grocer/internal/config"
	"github.com/example/grocer/internal/middleware"
	"github.com/example/grocer/internal/models"
	"github.com/example/grocer/internal/utils"
)

const resetTokenTTL = 15 * time.Minute

// AuthHandler bundles dependencies for authentication endpoints.
type AuthHandler struct {
	db  *gorm.DB
	cfg *config.Config
	lg  *zap.Logger
}

// NewAuthHandler constructs an AuthHandler.
func NewAuthHandler(db *gorm.DB, cfg *config.Config, lg *zap.Logger) *AuthHandler {
	return &AuthHandler{db: db, cfg: cfg, lg: lg}
}

type registerRequest struct {
	UserName    string `json:"userName" validate:"required,min=2,max=64"`
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	Email       string `json:"email" validate:"required_without=PhoneNumber,omitempty,email"`
	PhoneNumber string `json:"phoneNumber" validate:"required_without=Email,omitempty,min=7,max=20"`
	Password    string `json:"password" validate:"required,min=6"`
	Gender      string `json:"gender"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required_without=UserName,omitempty,email"`
	UserName string `json:"userName" validate:"required_without=Email"`
	Password string `json:"password" validate:"required"`
}

type forgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type resetPasswordRequest struct {
	Token       string `json:"token" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required,min=6"`
}

// Register creates a new customer account.
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req registerRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	phone := strings.TrimSpace(req.PhoneNumber)

	if email != "" {
		if err := h.ensureFree("email = ?", email, "email is already registered"); err != nil {
			return err
		}
	}
	if phone != "" {
		if err := h.ensureFree("phone_number = ?", phone, "phone number is already registered"); err != nil {
			return err
		}
	}

	passwordHash, err := utils.HashPassword(req.Password)
	if err != nil {
		return err
	}

	user := models.User{
		UserName:     strings.TrimSpace(req.UserName),
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		PasswordHash: passwordHash,
		Gender:       req.Gender,
		RoleType:     models.RoleCustomer,
	}
	if email != "" {
		user.Email = &email
	}
	if phone != "" {
		user.PhoneNumber = &phone
	}

	if err := h.db.Create(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fiber.NewError(fiber.StatusConflict, "user already exists")
		}
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"message": "user registered",
		"data":    userData(&user),
	})
}

func (h *AuthHandler) ensureFree(where, value, message string) error {
	var count int64
	if err := h.db.Model(&models.User{}).Where(where, value).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return fiber.NewError(fiber.StatusConflict, message)
	}
	return nil
}

// Login authenticates by email or user name and issues both token cookies.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	query := h.db.Where("user_name = ?", strings.TrimSpace(req.UserName))
	if req.Email != "" {
		query = h.db.Where("email = ?", strings.ToLower(strings.TrimSpace(req.Email)))
	}

	var user models.User
	if err := query.First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid credentials")
		}
		return err
	}

	if !utils.CheckPassword(user.PasswordHash, req.Password) {
		return fiber.NewError(fiber.StatusUnauthorized, "invalid credentials")
	}

	access, err := h.issueTokens(c, &user)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "login successful",
		"data": fiber.Map{
			"userData": userData(&user),
			"token":    access,
		},
	})
}

// Refresh exchanges the refresh cookie for a new access token.
func (h *AuthHandler) Refresh(c *fiber.Ctx) error {
	raw := c.Cookies(middleware.RefreshTokenCookie)
	if raw == "" {
		return fiber.NewError(fiber.StatusUnauthorized, "refresh token missing")
	}

	ident, err := utils.ParseToken(h.cfg.JWTSecret, raw, utils.RefreshToken)
	if err != nil {
		return fiber.NewError(fiber.StatusUnauthorized, "invalid or expired refresh token")
	}

	var user models.User
	if err := h.db.First(&user, "id = ?", ident.ID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusUnauthorized, "user no longer exists")
		}
		return err
	}

	access, err := h.issueTokens(c, &user)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, fiber.Map{"token": access})
}

// Logout clears both token cookies.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	for _, name := range []string{middleware.AccessTokenCookie, middleware.RefreshTokenCookie} {
		c.Cookie(&fiber.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			Expires:  time.Unix(0, 0),
			HTTPOnly: true,
			Secure:   h.cfg.CookieSecure,
			SameSite: fiber.CookieSameSiteLaxMode,
		})
	}
	return respondMessage(c, "logged out", nil)
}

// Me returns the identity carried by the access token.
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	ident, err := currentUser(c)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, ident)
}

// ForgotPassword stores a short-lived reset token for the account. The
// token is only written to the log.
func (h *AuthHandler) ForgotPassword(c *fiber.Ctx) error {
	var req forgotPasswordRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	var user models.User
	if err := h.db.First(&user, "email = ?", strings.ToLower(strings.TrimSpace(req.Email))).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "user not found")
		}
		return err
	}

	token, digest, err := utils.NewResetToken()
	if err != nil {
		return err
	}
	expires := time.Now().Add(resetTokenTTL)

	if err := h.db.Model(&user).Updates(map[string]interface{}{
		"reset_password_token":   digest,
		"reset_password_expires": expires,
	}).Error; err != nil {
		return err
	}

	// TODO: deliver the token by email once a mail provider is configured.
	h.lg.Info("Password reset requested",
		zap.String("user_id", user.ID.String()),
		zap.String("reset_token", token),
		zap.Time("expires", expires),
	)
	return respondMessage(c, "password reset instructions sent", nil)
}

// ResetPassword sets a new password using a token from ForgotPassword.
func (h *AuthHandler) ResetPassword(c *fiber.Ctx) error {
	var req resetPasswordRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	var user models.User
	err := h.db.Where("reset_password_token = ? AND reset_password_expires > ?",
		utils.DigestToken(req.Token), time.Now()).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusBadRequest, "invalid or expired reset token")
		}
		return err
	}

	hash, err := utils.HashPassword(req.NewPassword)
	if err != nil {
		return err
	}

	if err := h.db.Model(&user).Updates(map[string]interface{}{
		"password_hash":          hash,
		"reset_password_token":   "",
		"reset_password_expires": nil,
	}).Error; err != nil {
		return err
	}
	return respondMessage(c, "password updated successfully", nil)
}

func (h *AuthHandler) issueTokens(c *fiber.Ctx, user *models.User) (string, error) {
	ident := utils.Identity{
		ID:       user.ID,
		UserName: user.UserName,
		Email:    user.EmailValue(),
		RoleType: user.RoleType,
	}

	access, err := utils.GenerateToken(h.cfg.JWTSecret, ident, utils.AccessToken, h.cfg.AccessTokenTTL)
	if err != nil {
		return "", errors.Wrap(err, "generate access token")
	}
	refresh, err := utils.GenerateToken(h.cfg.JWTSecret, ident, utils.RefreshToken, h.cfg.RefreshTokenTTL)
	if err != nil {
		return "", errors.Wrap(err, "generate refresh token")
	}

	h.setCookie(c, middleware.AccessTokenCookie, access, h.cfg.AccessTokenTTL)
	h.setCookie(c, middleware.RefreshTokenCookie, refresh, h.cfg.RefreshTokenTTL)
	return access, nil
}

func (h *AuthHandler) setCookie(c *fiber.Ctx, name, value string, ttl time.Duration) {
	c.Cookie(&fiber.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Expires:  time.Now().Add(ttl),
		HTTPOnly: true,
		Secure:   h.cfg.CookieSecure,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

func userData(u *models.User) fiber.Map {
	return fiber.Map{
		"id":       u.ID,
		"userName": u.UserName,
		"email":    u.EmailValue(),
		"roleType": u.RoleType,
	}
}
