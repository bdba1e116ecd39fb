package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// JSONMap represents a PostgreSQL jsonb object column
type JSONMap map[string]interface{}

// Scan implements the sql.Scanner interface
func (m *JSONMap) Scan(value interface{}) error {
	if value == nil {
		*m = JSONMap{}
		return nil
	}

	switch v := value.(type) {
	case []byte:
		if len(v) == 0 {
			*m = JSONMap{}
			return nil
		}
		return json.Unmarshal(v, m)
	case string:
		if v == "" {
			*m = JSONMap{}
			return nil
		}
		return json.Unmarshal([]byte(v), m)
	default:
		return errors.New(fmt.Sprintf("cannot scan %T into JSONMap", value))
	}
}

// Value implements the driver.Valuer interface
func (m JSONMap) Value() (driver.Value, error) {
	if m == nil {
		return "{}", nil
	}
	data, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// Job lifecycle states. Job status is always derived from its tasks.
const (
	JobStatusQueued  = "queued"
	JobStatusRunning = "running"
	JobStatusDone    = "done"
	JobStatusFailed  = "failed"
)

const (
	JobModeImmediate = "immediate"
	JobModeScheduled = "scheduled"
)

const (
	ContentTypeRewrite = "rewrite"
	ContentTypeVideo   = "video"
)

// Task lifecycle states. "submitted" means handed off to the assistant
// channel; completion happens outside this engine, so it is never "done".
const (
	TaskStatusQueued    = "queued"
	TaskStatusSubmitted = "submitted"
	TaskStatusDone      = "done"
	TaskStatusFailed    = "failed"
)

const (
	TaskModeAPI       = "api"
	TaskModeAssistant = "assistant"
)

// DistributionJob is one user-initiated request to distribute one content
// item to one or more platforms.
type DistributionJob struct {
	ID          string     `gorm:"primaryKey;size:36" json:"id"`
	UserID      string     `gorm:"not null;size:36;index" json:"user_id"`
	ContentID   string     `gorm:"not null;size:36;index" json:"content_id"`
	ContentType string     `gorm:"not null;size:20" json:"content_type"`
	Mode        string     `gorm:"not null;size:20" json:"mode"`
	ScheduleAt  *time.Time `json:"schedule_at"`
	Status      string     `gorm:"size:20;default:'queued';index" json:"status"`
	Error       *string    `gorm:"type:text" json:"error"`
	CreatedAt   time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (DistributionJob) TableName() string {
	return "distribution_jobs"
}

func (j *DistributionJob) BeforeCreate(*gorm.DB) error {
	if j.ID == "" {
		j.ID = uuid.NewString()
	}
	return nil
}

// DistributionTask is one platform leg of a job, exactly one per requested
// platform. ActionPayload is an audit trail replaced wholesale per attempt.
type DistributionTask struct {
	ID            string    `gorm:"primaryKey;size:36" json:"id"`
	JobID         string    `gorm:"not null;size:36;uniqueIndex:idx_task_job_platform" json:"job_id"`
	UserID        string    `gorm:"not null;size:36;index" json:"user_id"`
	Platform      string    `gorm:"not null;size:50;uniqueIndex:idx_task_job_platform" json:"platform"`
	Mode          string    `gorm:"size:20;default:'api'" json:"mode"`
	Status        string    `gorm:"size:20;default:'queued';index" json:"status"`
	PublishURL    *string   `gorm:"type:text" json:"publish_url"`
	ActionPayload JSONMap   `gorm:"type:jsonb" json:"action_payload"`
	Error         *string   `gorm:"type:text" json:"error"`
	RetryCount    int       `gorm:"default:0" json:"retry_count"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (DistributionTask) TableName() string {
	return "distribution_tasks"
}

func (t *DistributionTask) BeforeCreate(*gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	return nil
}
