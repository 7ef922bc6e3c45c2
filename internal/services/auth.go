package services

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/questboard/questboard/internal/config"
	"github.com/questboard/questboard/internal/models"
	"github.com/questboard/questboard/internal/utils"
	"github.com/questboard/questboard/pkg/response"
	"gorm.io/gorm"
)

var (
	usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_]{3,30}$`)
	emailPattern    = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
)

type AuthService struct {
	db  *gorm.DB
	cfg *config.JWTConfig
}

func NewAuthService(db *gorm.DB, cfg *config.JWTConfig) *AuthService {
	return &AuthService{db: db, cfg: cfg}
}

type RegisterInput struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResult bundles the issued token with the authenticated user.
type AuthResult struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

// Register validates the input, creates the account and issues a token.
// Validation reports every violated field at once.
func (s *AuthService) Register(input *RegisterInput) (*AuthResult, error) {
	input.Username = strings.TrimSpace(input.Username)
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))

	var fields []string
	if !usernamePattern.MatchString(input.Username) {
		fields = append(fields, "username must be 3-30 characters of letters, digits or underscore")
	}
	if !emailPattern.MatchString(input.Email) {
		fields = append(fields, "email must be a valid address")
	}
	if len(input.Password) < 6 {
		fields = append(fields, "password must be at least 6 characters")
	}
	if len(fields) > 0 {
		return nil, response.NewValidationError(fields)
	}

	var count int64
	if err := s.db.Model(&models.User{}).Where("username = ?", input.Username).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, response.NewConflict("username already taken")
	}
	if err := s.db.Model(&models.User{}).Where("email = ?", input.Email).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, response.NewConflict("email already registered")
	}

	hash, err := utils.HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Username:    input.Username,
		Email:       input.Email,
		Password:    hash,
		DisplayName: input.Username,
	}
	if err := s.db.Create(user).Error; err != nil {
		return nil, err
	}

	return s.issueToken(user)
}

// Login authenticates by email. Unknown email and wrong password produce the
// same error so the response does not leak which accounts exist.
func (s *AuthService) Login(input *LoginInput) (*AuthResult, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))

	var user models.User
	if err := s.db.Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, response.NewUnauthenticated("invalid email or password")
		}
		return nil, err
	}

	if !utils.CheckPassword(input.Password, user.Password) {
		return nil, response.NewUnauthenticated("invalid email or password")
	}

	return s.issueToken(&user)
}

func (s *AuthService) issueToken(user *models.User) (*AuthResult, error) {
	token, err := utils.GenerateToken(user.ID, user.Username, s.cfg.ExpireHour)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}
	return &AuthResult{Token: token, User: user}, nil
}
