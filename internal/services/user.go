package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/questboard/questboard/internal/models"
	"github.com/questboard/questboard/internal/utils"
	"github.com/questboard/questboard/pkg/response"
	"gorm.io/gorm"
)

type UserService struct {
	db *gorm.DB
}

func NewUserService(db *gorm.DB) *UserService {
	return &UserService{db: db}
}

type UpdateProfileInput struct {
	DisplayName *string `json:"display_name"`
	Bio         *string `json:"bio"`
	Avatar      *string `json:"avatar"`
}

type ChangePasswordInput struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// GetByID loads one user.
func (s *UserService) GetByID(userID uint) (*models.User, error) {
	var user models.User
	if err := s.db.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, response.NewNotFound("user not found")
		}
		return nil, err
	}
	return &user, nil
}

// UpdateProfile applies partial profile changes. Nil fields are untouched.
func (s *UserService) UpdateProfile(userID uint, input *UpdateProfileInput) (*models.User, error) {
	user, err := s.GetByID(userID)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if input.DisplayName != nil {
		name := strings.TrimSpace(*input.DisplayName)
		if len(name) > 100 {
			return nil, response.NewBadRequest("display name too long")
		}
		updates["display_name"] = name
	}
	if input.Bio != nil {
		if len(*input.Bio) > 500 {
			return nil, response.NewBadRequest("bio too long")
		}
		updates["bio"] = *input.Bio
	}
	if input.Avatar != nil {
		updates["avatar"] = *input.Avatar
	}

	if len(updates) > 0 {
		if err := s.db.Model(user).Updates(updates).Error; err != nil {
			return nil, err
		}
	}
	return user, nil
}

// ChangePassword verifies the current password before setting the new one.
func (s *UserService) ChangePassword(userID uint, input *ChangePasswordInput) error {
	user, err := s.GetByID(userID)
	if err != nil {
		return err
	}

	if !utils.CheckPassword(input.CurrentPassword, user.Password) {
		return response.NewForbidden("current password is incorrect")
	}
	if len(input.NewPassword) < 6 {
		return response.NewBadRequest("password must be at least 6 characters")
	}

	hash, err := utils.HashPassword(input.NewPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	return s.db.Model(user).Update("password", hash).Error
}
