package user

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/log"
	"gorm.io/gorm"
)

type Handler struct {
	db       *gorm.DB
	guard    *Guard
	validate *validator.Validate
	now      func() time.Time
}

func NewHandler(db *gorm.DB, guard *Guard) *Handler {
	return &Handler{db: db, guard: guard, validate: validator.New(), now: time.Now}
}

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

func (h *Handler) Login(c fiber.Ctx) error {
	req := new(loginRequest)
	if err := c.Bind().JSON(req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if err := h.validate.Struct(req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "username and password are required"})
	}

	var u User
	err := h.db.WithContext(c.Context()).Where("email = ?", strings.ToLower(strings.TrimSpace(req.Username))).First(&u).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		log.Errorf("login lookup: %v", err)
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "could not sign in"})
	}
	if err != nil || !u.CheckPassword(req.Password) {
		return c.Status(http.StatusUnauthorized).JSON(fiber.Map{"error": "incorrect email or password"})
	}

	now := h.now()
	token, err := h.guard.Sign(u, now)
	if err != nil {
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	c.Cookie(&fiber.Cookie{
		Name:     tokenCookie,
		Value:    token,
		Expires:  now.Add(tokenTTL),
		HTTPOnly: true,
	})

	return c.Status(http.StatusOK).JSON(fiber.Map{
		"token": token,
		"user":  u,
	})
}

func (h *Handler) Logout(c fiber.Ctx) error {
	c.Cookie(&fiber.Cookie{
		Name:     tokenCookie,
		Value:    "",
		Expires:  h.now().Add(-time.Hour),
		HTTPOnly: true,
	})
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"message": "Successfully logged out",
	})
}

type passwordRequest struct {
	Password        string `json:"password" validate:"required,min=8"`
	ConfirmPassword string `json:"confirmPassword" validate:"required"`
}

// ChangePassword updates the signed-in admin's password.
func (h *Handler) ChangePassword(c fiber.Ctx) error {
	id, ok := userID(c)
	if !ok {
		return c.Status(http.StatusUnauthorized).JSON(fiber.Map{"error": "invalid token"})
	}

	req := new(passwordRequest)
	if err := c.Bind().JSON(req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if err := h.validate.Struct(req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "password must be at least 8 characters"})
	}
	if req.Password != req.ConfirmPassword {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "passwords don't match"})
	}

	hashed, err := generateHashPassword(req.Password)
	if err != nil {
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	result := h.db.WithContext(c.Context()).Model(&User{}).Where("id = ?", id).Update("password", hashed)
	if result.Error != nil {
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": result.Error.Error()})
	}
	if result.RowsAffected == 0 {
		return c.Status(http.StatusNotFound).JSON(fiber.Map{"error": "user not found"})
	}
	return c.SendStatus(http.StatusNoContent)
}

func (h *Handler) Me(c fiber.Ctx) error {
	id, ok := userID(c)
	if !ok {
		return c.Status(http.StatusUnauthorized).JSON(fiber.Map{"error": "invalid token"})
	}
	var u User
	if err := h.db.WithContext(c.Context()).First(&u, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(http.StatusNotFound).JSON(fiber.Map{"error": "user not found"})
		}
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.Status(http.StatusOK).JSON(u)
}
