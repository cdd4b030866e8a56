package user

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v3/log"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// User is a staff account for the admin console.
type User struct {
	gorm.Model
	Email    string `json:"email" gorm:"unique;not null" validate:"required,email"`
	Password string `json:"-"`
	Name     string `json:"name"`
	IsAdmin  bool   `json:"isAdmin" gorm:"default:false"`
	Role     string `json:"role"`
}

func (u *User) BeforeCreate(tx *gorm.DB) (err error) {
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	if u.Password == "" {
		return errors.New("password is required")
	}
	u.Password, err = generateHashPassword(u.Password)
	return
}

func (u User) CheckPassword(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)) == nil
}

func generateHashPassword(password string) (string, error) {
	hashedPasswordBytes, err := bcrypt.GenerateFromPassword([]byte(password), 10)
	if err != nil {
		return "", err
	}
	return string(hashedPasswordBytes), nil
}

// Seed creates the owner account unless an account with that email exists.
// Without a password nothing is seeded.
func Seed(db *gorm.DB, email, password string) error {
	if password == "" {
		log.Warnf("ADMIN_PASSWORD not set, skipping admin seed")
		return nil
	}
	email = strings.ToLower(strings.TrimSpace(email))

	var existing User
	result := db.Where("email = ?", email).First(&existing)
	if result.Error == nil {
		return nil
	}
	if !errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return result.Error
	}

	owner := User{Email: email, Password: password, Name: "Admin", IsAdmin: true, Role: "owner"}
	if err := db.Create(&owner).Error; err != nil {
		return err
	}
	log.Infof("admin %s seeded", email)
	return nil
}
