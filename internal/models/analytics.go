package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AnalyticsEvent is a best-effort observability record. Inserts must never
// block or fail the dispatch path.
type AnalyticsEvent struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	Event     string    `gorm:"not null;size:100;index" json:"event"`
	Path      string    `gorm:"size:255" json:"path"`
	Referrer  *string   `gorm:"size:500" json:"referrer"`
	UserAgent *string   `gorm:"size:500" json:"user_agent"`
	IPAddress string    `gorm:"size:64" json:"ip_address"`
	Props     JSONMap   `gorm:"type:jsonb" json:"props"`
	CreatedAt time.Time `gorm:"autoCreateTime;index" json:"created_at"`
}

func (AnalyticsEvent) TableName() string {
	return "analytics_events"
}

func (e *AnalyticsEvent) BeforeCreate(*gorm.DB) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	return nil
}

// DistributionStats is a per-day rollup of job and task outcomes, refreshed
// by the stats service for the admin dashboard.
type DistributionStats struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	Date           time.Time `gorm:"uniqueIndex;not null" json:"date"`
	TotalJobs      int       `gorm:"default:0" json:"total_jobs"`
	QueuedJobs     int       `gorm:"default:0" json:"queued_jobs"`
	RunningJobs    int       `gorm:"default:0" json:"running_jobs"`
	DoneJobs       int       `gorm:"default:0" json:"done_jobs"`
	FailedJobs     int       `gorm:"default:0" json:"failed_jobs"`
	TotalTasks     int       `gorm:"default:0" json:"total_tasks"`
	APITasks       int       `gorm:"default:0" json:"api_tasks"`
	AssistantTasks int       `gorm:"default:0" json:"assistant_tasks"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (DistributionStats) TableName() string {
	return "distribution_stats"
}
