package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	ConnectionStatusDisconnected = "disconnected"
	ConnectionStatusConnected    = "connected"
	ConnectionStatusExpired      = "expired"
)

// PlatformConnection is a per-user per-platform credential record. This
// engine only reads it; connection management lives upstream. Meta carries
// platform-client configuration consumed before each publish attempt.
type PlatformConnection struct {
	ID          string     `gorm:"primaryKey;size:36" json:"id"`
	UserID      string     `gorm:"not null;size:36;uniqueIndex:idx_conn_user_platform" json:"user_id"`
	Platform    string     `gorm:"not null;size:50;uniqueIndex:idx_conn_user_platform" json:"platform"`
	Status      string     `gorm:"size:20;default:'disconnected'" json:"status"`
	AccountID   *string    `gorm:"size:255" json:"account_id"`
	AccountName *string    `gorm:"size:255" json:"account_name"`
	AccessToken *string    `gorm:"type:text" json:"-"`
	ExpiresAt   *time.Time `json:"expires_at"`
	Meta        JSONMap    `gorm:"type:jsonb" json:"meta"`
	CreatedAt   time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (PlatformConnection) TableName() string {
	return "platform_connections"
}

func (c *PlatformConnection) BeforeCreate(*gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}

// Ready reports whether the connection can back a publish attempt at the
// given instant.
func (c *PlatformConnection) Ready(now time.Time) bool {
	if c.Status != ConnectionStatusConnected {
		return false
	}
	if c.ExpiresAt != nil && !c.ExpiresAt.After(now) {
		return false
	}
	return true
}
