package service

import (
	"context"
	"net/http"
	"time"

	"github.com/ipgongchang/fanout/internal/models"
)

// createJob persists the job row. Immediate jobs start running because
// dispatch happens synchronously in the same request; scheduled jobs wait in
// queued for the scheduler.
func (s *DistributionService) createJob(ctx context.Context, userID, contentID, contentType, mode string, scheduleAt *time.Time) (*models.DistributionJob, error) {
	status := models.JobStatusRunning
	if mode == models.JobModeScheduled {
		status = models.JobStatusQueued
	}

	job := &models.DistributionJob{
		UserID:      userID,
		ContentID:   contentID,
		ContentType: contentType,
		Mode:        mode,
		ScheduleAt:  scheduleAt,
		Status:      status,
	}

	if err := s.db.WithContext(ctx).Create(job).Error; err != nil {
		return nil, newDistributionError(models.ErrCodePlatformAPIDenied, http.StatusInternalServerError,
			"distribution_job_insert_failed: "+err.Error())
	}
	return job, nil
}

// createTasks writes one queued task per platform, in caller order, each
// seeded with the request context for audit.
func (s *DistributionService) createTasks(ctx context.Context, job *models.DistributionJob, platforms []string) ([]models.DistributionTask, error) {
	requestedAt := time.Now().UTC().Format(time.RFC3339)

	tasks := make([]models.DistributionTask, 0, len(platforms))
	for _, platform := range platforms {
		payload := models.JSONMap{
			"content_id":   job.ContentID,
			"content_type": job.ContentType,
			"publish_mode": job.Mode,
			"schedule_at":  nil,
			"requested_at": requestedAt,
			"route":        "api",
		}
		if job.ScheduleAt != nil {
			payload["schedule_at"] = job.ScheduleAt.Format(time.RFC3339)
		}

		tasks = append(tasks, models.DistributionTask{
			JobID:         job.ID,
			UserID:        job.UserID,
			Platform:      platform,
			Mode:          models.TaskModeAPI,
			Status:        models.TaskStatusQueued,
			ActionPayload: payload,
		})
	}

	if err := s.db.WithContext(ctx).Create(&tasks).Error; err != nil {
		return nil, newDistributionError(models.ErrCodePlatformAPIDenied, http.StatusInternalServerError,
			"distribution_task_insert_failed: "+err.Error())
	}
	return tasks, nil
}

// updateTask applies a single-row conditional update scoped by id and owner
// and returns the fresh row.
func (s *DistributionService) updateTask(ctx context.Context, userID, taskID string, patch map[string]interface{}) (*models.DistributionTask, error) {
	result := s.db.WithContext(ctx).
		Model(&models.DistributionTask{}).
		Where("id = ? AND user_id = ?", taskID, userID).
		Updates(patch)
	if result.Error != nil || result.RowsAffected == 0 {
		message := "distribution_task_update_failed"
		if result.Error != nil {
			message += ": " + result.Error.Error()
		}
		return nil, newDistributionError(models.ErrCodePlatformAPIDenied, http.StatusInternalServerError, message)
	}

	var task models.DistributionTask
	if err := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", taskID, userID).
		First(&task).Error; err != nil {
		return nil, newDistributionError(models.ErrCodePlatformAPIDenied, http.StatusInternalServerError,
			"distribution_task_reload_failed: "+err.Error())
	}
	return &task, nil
}

// updateJob mirrors updateTask for job rows.
func (s *DistributionService) updateJob(ctx context.Context, userID, jobID string, patch map[string]interface{}) (*models.DistributionJob, error) {
	result := s.db.WithContext(ctx).
		Model(&models.DistributionJob{}).
		Where("id = ? AND user_id = ?", jobID, userID).
		Updates(patch)
	if result.Error != nil || result.RowsAffected == 0 {
		message := "distribution_job_update_failed"
		if result.Error != nil {
			message += ": " + result.Error.Error()
		}
		return nil, newDistributionError(models.ErrCodePlatformAPIDenied, http.StatusInternalServerError, message)
	}

	var job models.DistributionJob
	if err := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", jobID, userID).
		First(&job).Error; err != nil {
		return nil, newDistributionError(models.ErrCodePlatformAPIDenied, http.StatusInternalServerError,
			"distribution_job_reload_failed: "+err.Error())
	}
	return &job, nil
}
