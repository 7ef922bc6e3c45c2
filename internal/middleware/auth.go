package middleware

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/questboard/questboard/internal/models"
	"github.com/questboard/questboard/internal/utils"
	"github.com/questboard/questboard/pkg/response"
	"gorm.io/gorm"
)

const (
	ContextUserID   = "user_id"
	ContextUsername = "username"
	ContextUser     = "user"
)

// AuthRequired validates the bearer token and loads the current user.
// A missing token yields 401; a bad or expired one yields 403; a token
// for a deleted account yields 404.
func AuthRequired(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			response.Error(c, response.NewUnauthenticated("authorization header required"))
			c.Abort()
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			response.Error(c, response.NewUnauthenticated("invalid authorization header format"))
			c.Abort()
			return
		}

		claims, err := utils.ParseToken(parts[1])
		if err != nil {
			response.Error(c, response.NewInvalidToken("invalid or expired token"))
			c.Abort()
			return
		}

		var user models.User
		if err := db.First(&user, claims.UserID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				response.Error(c, response.NewNotFound("user not found"))
			} else {
				response.Error(c, response.NewServerError("failed to load user"))
			}
			c.Abort()
			return
		}

		c.Set(ContextUserID, user.ID)
		c.Set(ContextUsername, user.Username)
		c.Set(ContextUser, &user)
		c.Next()
	}
}

// GetUserID returns the authenticated user's id from the request context.
func GetUserID(c *gin.Context) uint {
	if v, ok := c.Get(ContextUserID); ok {
		if id, ok := v.(uint); ok {
			return id
		}
	}
	return 0
}

// GetUsername returns the authenticated username from the request context.
func GetUsername(c *gin.Context) string {
	if v, ok := c.Get(ContextUsername); ok {
		if name, ok := v.(string); ok {
			return name
		}
	}
	return ""
}

// GetUser returns the full user record loaded by AuthRequired.
func GetUser(c *gin.Context) *models.User {
	if v, ok := c.Get(ContextUser); ok {
		if u, ok := v.(*models.User); ok {
			return u
		}
	}
	return nil
}
