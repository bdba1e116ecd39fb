package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pquerna/otp/totp"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/ipgongchang/fanout/internal/models"
)

const userIDKey = "user_id"

var ErrInvalidToken = errors.New("invalid or expired token")

type AuthService struct {
	db         *gorm.DB
	logger     *zap.Logger
	totpSecret string
}

func NewAuthService(db *gorm.DB, logger *zap.Logger, totpSecret string) *AuthService {
	return &AuthService{
		db:         db,
		logger:     logger,
		totpSecret: totpSecret,
	}
}

// ResolveUser maps a bearer token to its owner.
func (a *AuthService) ResolveUser(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", ErrInvalidToken
	}

	var row models.APIToken
	err := a.db.WithContext(ctx).
		Where("token = ?", token).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", ErrInvalidToken
	}
	if err != nil {
		return "", err
	}
	if row.ExpiresAt != nil && !row.ExpiresAt.After(time.Now()) {
		return "", ErrInvalidToken
	}

	return row.UserID, nil
}

// UserMiddleware authenticates the public API and stores the caller's user
// id on the gin context.
func (a *AuthService) UserMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))

		userID, err := a.ResolveUser(c.Request.Context(), token)
		if err != nil {
			if !errors.Is(err, ErrInvalidToken) {
				a.logger.Error("token lookup failed", zap.Error(err))
			}
			c.AbortWithStatusJSON(401, gin.H{
				"ok":         false,
				"error_code": "unauthorized",
				"message":    "Authentication required",
				"details":    nil,
				"code":       "unauthorized",
			})
			return
		}

		c.Set(userIDKey, userID)
		c.Next()
	}
}

// AdminMiddleware guards the admin group with a TOTP code.
func (a *AuthService) AdminMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		code := c.GetHeader("X-Admin-Totp")
		if a.totpSecret == "" || !totp.Validate(code, a.totpSecret) {
			a.logger.Warn("TOTP validation failed")
			c.AbortWithStatusJSON(401, gin.H{"error": "Authentication required"})
			return
		}
		c.Next()
	}
}

// UserID returns the authenticated user id set by UserMiddleware.
func UserID(c *gin.Context) string {
	return c.GetString(userIDKey)
}
