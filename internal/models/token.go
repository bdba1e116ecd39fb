package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// APIToken maps a bearer token to a user for the public API.
type APIToken struct {
	ID        string     `gorm:"primaryKey;size:36" json:"id"`
	UserID    string     `gorm:"not null;size:36;index" json:"user_id"`
	Token     string     `gorm:"uniqueIndex;not null;size:128" json:"-"`
	Label     string     `gorm:"size:100" json:"label"`
	ExpiresAt *time.Time `json:"expires_at"`
	CreatedAt time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (APIToken) TableName() string {
	return "api_tokens"
}

func (t *APIToken) BeforeCreate(*gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	return nil
}
