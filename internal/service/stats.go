package service

import (
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/ipgongchang/fanout/internal/models"
)

type StatsService struct {
	db     *gorm.DB
	logger *zap.Logger
}

func NewStatsService(db *gorm.DB, logger *zap.Logger) *StatsService {
	return &StatsService{
		db:     db,
		logger: logger,
	}
}

// StatsSummary is the live view returned to the admin surface.
type StatsSummary struct {
	TotalJobs      int64 `json:"total_jobs"`
	QueuedJobs     int64 `json:"queued_jobs"`
	RunningJobs    int64 `json:"running_jobs"`
	DoneJobs       int64 `json:"done_jobs"`
	FailedJobs     int64 `json:"failed_jobs"`
	TotalTasks     int64 `json:"total_tasks"`
	APITasks       int64 `json:"api_tasks"`
	AssistantTasks int64 `json:"assistant_tasks"`
}

func (s *StatsService) Summary() (*StatsSummary, error) {
	var summary StatsSummary

	jobCounts := map[string]*int64{
		models.JobStatusQueued:  &summary.QueuedJobs,
		models.JobStatusRunning: &summary.RunningJobs,
		models.JobStatusDone:    &summary.DoneJobs,
		models.JobStatusFailed:  &summary.FailedJobs,
	}

	if err := s.db.Model(&models.DistributionJob{}).Count(&summary.TotalJobs).Error; err != nil {
		return nil, err
	}
	for status, target := range jobCounts {
		if err := s.db.Model(&models.DistributionJob{}).Where("status = ?", status).Count(target).Error; err != nil {
			return nil, err
		}
	}

	if err := s.db.Model(&models.DistributionTask{}).Count(&summary.TotalTasks).Error; err != nil {
		return nil, err
	}
	if err := s.db.Model(&models.DistributionTask{}).Where("mode = ?", models.TaskModeAPI).Count(&summary.APITasks).Error; err != nil {
		return nil, err
	}
	if err := s.db.Model(&models.DistributionTask{}).Where("mode = ?", models.TaskModeAssistant).Count(&summary.AssistantTasks).Error; err != nil {
		return nil, err
	}

	return &summary, nil
}

// UpdateStats upserts the daily rollup row from the live counts.
func (s *StatsService) UpdateStats() error {
	today := time.Now().UTC().Truncate(24 * time.Hour)

	summary, err := s.Summary()
	if err != nil {
		return err
	}

	var stats models.DistributionStats
	result := s.db.Where("date = ?", today).First(&stats)

	if result.Error == gorm.ErrRecordNotFound {
		stats = models.DistributionStats{
			Date:           today,
			TotalJobs:      int(summary.TotalJobs),
			QueuedJobs:     int(summary.QueuedJobs),
			RunningJobs:    int(summary.RunningJobs),
			DoneJobs:       int(summary.DoneJobs),
			FailedJobs:     int(summary.FailedJobs),
			TotalTasks:     int(summary.TotalTasks),
			APITasks:       int(summary.APITasks),
			AssistantTasks: int(summary.AssistantTasks),
		}
		return s.db.Create(&stats).Error
	}
	if result.Error != nil {
		return result.Error
	}

	return s.db.Model(&stats).Updates(map[string]interface{}{
		"total_jobs":      summary.TotalJobs,
		"queued_jobs":     summary.QueuedJobs,
		"running_jobs":    summary.RunningJobs,
		"done_jobs":       summary.DoneJobs,
		"failed_jobs":     summary.FailedJobs,
		"total_tasks":     summary.TotalTasks,
		"api_tasks":       summary.APITasks,
		"assistant_tasks": summary.AssistantTasks,
	}).Error
}
