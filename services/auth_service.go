package services

import (
	"errors"
	"fmt"

	"lagsense/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type AuthService struct {
	DB *gorm.DB
}

func NewAuthService(db *gorm.DB) *AuthService {
	return &AuthService{DB: db}
}

// bcrypt only hashes the first 72 bytes; truncate explicitly rather than
// letting GenerateFromPassword error out on long inputs.
func hashPassword(password string) (string, error) {
	if len(password) > 72 {
		password = password[:72]
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

func verifyPassword(password, hash string) bool {
	if len(password) > 72 {
		password = password[:72]
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// RegisterUser creates an account; returns nil (no error) when the email is taken.
func (s *AuthService) RegisterUser(email, password string) (*models.User, error) {
	var existing models.User
	err := s.DB.Where("email = ?", email).First(&existing).Error
	if err == nil {
		return nil, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}

	hash, err := hashPassword(password)
	if err != nil {
		return nil, err
	}

	user := models.User{
		ID:          uuid.NewString(),
		Email:       email,
		Password:    hash,
		DisplayName: "Gamer",
	}
	if err := s.DB.Create(&user).Error; err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return &user, nil
}

// LoginUser returns the user on valid credentials, nil otherwise.
func (s *AuthService) LoginUser(email, password string) (*models.User, error) {
	var user models.User
	err := s.DB.Where("email = ?", email).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if !verifyPassword(password, user.Password) {
		return nil, nil
	}
	return &user, nil
}

// Register handles POST /register
func (s *AuthService) Register(c *fiber.Ctx) error {
	var data models.AuthRequest
	if err := c.BodyParser(&data); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false, "message": "invalid request body",
		})
	}

	user, err := s.RegisterUser(data.Email, data.Password)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false, "message": fmt.Sprintf("Registration error: %v", err),
		})
	}
	if user == nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false, "message": "User already exists",
		})
	}

	return c.JSON(fiber.Map{"success": true, "user_id": user.ID})
}

// Login handles POST /login
func (s *AuthService) Login(c *fiber.Ctx) error {
	var data models.AuthRequest
	if err := c.BodyParser(&data); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false, "message": "invalid request body",
		})
	}

	user, err := s.LoginUser(data.Email, data.Password)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false, "message": fmt.Sprintf("Login error: %v", err),
		})
	}
	if user == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"success": false, "message": "Invalid credentials",
		})
	}

	return c.JSON(fiber.Map{"success": true, "user_id": user.ID})
}

// GetUser handles GET /user/:id
func (s *AuthService) GetUser(c *fiber.Ctx) error {
	var user models.User
	err := s.DB.Where("id = ?", c.Params("id")).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "User not found"})
	}
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return c.JSON(fiber.Map{
		"id":           user.ID,
		"email":        user.Email,
		"display_name": user.DisplayName,
		"created_at":   user.CreatedAt,
	})
}

// UpdateProfile handles PUT /profile/:id
func (s *AuthService) UpdateProfile(c *fiber.Ctx) error {
	var data models.UserUpdate
	if err := c.BodyParser(&data); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false, "message": "invalid request body",
		})
	}

	var user models.User
	err := s.DB.Where("id = ?", c.Params("id")).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false, "message": "User not found",
		})
	}
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false, "message": err.Error(),
		})
	}

	if data.DisplayName != "" {
		user.DisplayName = data.DisplayName
	}
	if data.Password != "" {
		hash, err := hashPassword(data.Password)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"success": false, "message": err.Error(),
			})
		}
		user.Password = hash
	}

	if err := s.DB.Save(&user).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false, "message": err.Error(),
		})
	}

	return c.JSON(fiber.Map{"success": true, "message": "Profile updated"})
}
