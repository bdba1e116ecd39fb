package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// VideoRenderJob and ContentRewrite are owned by the content-generation
// pipeline. The dispatch engine only probes them to learn which store owns a
// content id, so only the identifying columns are modeled.

type VideoRenderJob struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	UserID    string    `gorm:"not null;size:36;index" json:"user_id"`
	Status    string    `gorm:"size:20" json:"status"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (VideoRenderJob) TableName() string {
	return "video_render_jobs"
}

func (v *VideoRenderJob) BeforeCreate(*gorm.DB) error {
	if v.ID == "" {
		v.ID = uuid.NewString()
	}
	return nil
}

type ContentRewrite struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	UserID    string    `gorm:"not null;size:36;index" json:"user_id"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (ContentRewrite) TableName() string {
	return "content_rewrites"
}

func (r *ContentRewrite) BeforeCreate(*gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}
