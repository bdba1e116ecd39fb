package service

import (
	"context"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/ipgongchang/fanout/internal/config"
	"github.com/ipgongchang/fanout/internal/models"
	"github.com/ipgongchang/fanout/internal/service/publisher"
	"github.com/ipgongchang/fanout/pkg/util"
)

// DistributionService owns the dispatch engine: submission validation, the
// connection gate, content resolution, job/task persistence, the per-task
// publish loop and the pollable status view.
type DistributionService struct {
	db        *gorm.DB
	logger    *zap.Logger
	publisher publisher.Publisher
	events    *EventService
	zone      *time.Location
}

func NewDistributionService(cfg *config.DistributionConfig, db *gorm.DB, logger *zap.Logger, pub publisher.Publisher, events *EventService) *DistributionService {
	return &DistributionService{
		db:        db,
		logger:    logger,
		publisher: pub,
		events:    events,
		zone:      LoadCanonicalZone(cfg.Timezone),
	}
}

// DistributeInput is the submit payload.
type DistributeInput struct {
	ContentID  string   `json:"content_id" binding:"required"`
	Platforms  []string `json:"platforms" binding:"required,min=1"`
	Mode       string   `json:"mode" binding:"required,oneof=immediate scheduled"`
	ScheduleAt string   `json:"schedule_at"`
}

// JobView is the job row minus internal foreign keys, with the schedule
// rendered in the canonical zone.
type JobView struct {
	ID          string    `json:"id"`
	ContentID   string    `json:"content_id"`
	ContentType string    `json:"content_type"`
	Mode        string    `json:"mode"`
	ScheduleAt  *string   `json:"schedule_at"`
	Status      string    `json:"status"`
	Error       *string   `json:"error"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type TaskView struct {
	ID            string         `json:"id"`
	Platform      string         `json:"platform"`
	Mode          string         `json:"mode"`
	Status        string         `json:"status"`
	PublishURL    *string        `json:"publish_url"`
	ActionPayload models.JSONMap `json:"action_payload"`
	Error         *string        `json:"error"`
	RetryCount    int            `json:"retry_count"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

type DistributionResult struct {
	Job   JobView    `json:"job"`
	Tasks []TaskView `json:"tasks"`
}

func (s *DistributionService) mapJob(job *models.DistributionJob) JobView {
	return JobView{
		ID:          job.ID,
		ContentID:   job.ContentID,
		ContentType: job.ContentType,
		Mode:        job.Mode,
		ScheduleAt:  formatScheduleAt(job.ScheduleAt, s.zone),
		Status:      job.Status,
		Error:       job.Error,
		CreatedAt:   job.CreatedAt,
		UpdatedAt:   job.UpdatedAt,
	}
}

func mapTask(task *models.DistributionTask) TaskView {
	payload := task.ActionPayload
	if payload == nil {
		payload = models.JSONMap{}
	}
	return TaskView{
		ID:            task.ID,
		Platform:      task.Platform,
		Mode:          task.Mode,
		Status:        task.Status,
		PublishURL:    task.PublishURL,
		ActionPayload: payload,
		Error:         task.Error,
		RetryCount:    task.RetryCount,
		UpdatedAt:     task.UpdatedAt,
	}
}

func (s *DistributionService) mapResult(job *models.DistributionJob, tasks []models.DistributionTask) *DistributionResult {
	views := make([]TaskView, 0, len(tasks))
	for i := range tasks {
		views = append(views, mapTask(&tasks[i]))
	}
	return &DistributionResult{
		Job:   s.mapJob(job),
		Tasks: views,
	}
}

// SubmitDistribution validates the request, creates the job and its tasks
// and, in immediate mode, runs the dispatch loop before returning. Gate,
// resolver and schedule failures happen before any row is written.
func (s *DistributionService) SubmitDistribution(ctx context.Context, userID string, input DistributeInput) (*DistributionResult, error) {
	platforms := util.DedupeStrings(input.Platforms)
	if len(platforms) == 0 {
		return nil, newDistributionError(models.ErrCodePlatformAPIDenied, http.StatusBadRequest,
			"platforms required")
	}

	scheduleAt, err := normalizeScheduleAt(input.Mode, input.ScheduleAt, s.zone)
	if err != nil {
		return nil, err
	}

	connections, err := s.ensureConnectedPlatforms(ctx, userID, platforms)
	if err != nil {
		return nil, err
	}

	contentType, err := s.resolveContentType(ctx, userID, input.ContentID)
	if err != nil {
		return nil, err
	}

	job, err := s.createJob(ctx, userID, input.ContentID, contentType, input.Mode, scheduleAt)
	if err != nil {
		return nil, err
	}

	tasks, err := s.createTasks(ctx, job, platforms)
	if err != nil {
		return nil, err
	}

	if input.Mode == models.JobModeScheduled {
		return s.mapResult(job, tasks), nil
	}

	updatedJob, updatedTasks, err := s.runImmediateDispatch(ctx, job, tasks, connections)
	if err != nil {
		return nil, err
	}

	return s.mapResult(updatedJob, updatedTasks), nil
}

// GetDistributionJob loads a job and its tasks, re-derives the aggregate
// status and persists a correction when the stored value drifted, so reads
// self-heal without a separate reconciliation process.
func (s *DistributionService) GetDistributionJob(ctx context.Context, userID, jobID string) (*DistributionResult, error) {
	var job models.DistributionJob
	err := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", jobID, userID).
		First(&job).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, newDistributionError(models.ErrCodeJobNotFound, http.StatusNotFound, "job_not_found")
	}
	if err != nil {
		return nil, newDistributionError(models.ErrCodePlatformAPIDenied, http.StatusInternalServerError,
			"distribution_job_query_failed: "+err.Error())
	}

	var tasks []models.DistributionTask
	if err := s.db.WithContext(ctx).
		Where("job_id = ? AND user_id = ?", job.ID, userID).
		Order("created_at ASC").
		Find(&tasks).Error; err != nil {
		return nil, newDistributionError(models.ErrCodePlatformAPIDenied, http.StatusInternalServerError,
			"distribution_tasks_query_failed: "+err.Error())
	}

	current := &job
	if summarized := SummarizeTaskStatus(tasks); summarized != job.Status {
		var jobError interface{}
		if e := firstTaskError(tasks); e != nil {
			jobError = *e
		}
		updated, err := s.updateJob(ctx, userID, job.ID, map[string]interface{}{
			"status": summarized,
			"error":  jobError,
		})
		if err != nil {
			return nil, err
		}
		current = updated
	}

	return s.mapResult(current, tasks), nil
}
