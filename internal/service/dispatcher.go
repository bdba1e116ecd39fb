package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ipgongchang/fanout/internal/models"
	"github.com/ipgongchang/fanout/internal/service/publisher"
)

const dueJobBatchSize = 20

// SummarizeTaskStatus derives a job's aggregate status from its tasks.
// Pure, deterministic and idempotent: any failed leg fails the job; a job is
// done only when every leg is done; submitted work keeps it running.
func SummarizeTaskStatus(tasks []models.DistributionTask) string {
	if len(tasks) == 0 {
		return models.JobStatusQueued
	}

	allDone := true
	anyProgress := false
	for _, task := range tasks {
		switch task.Status {
		case models.TaskStatusFailed:
			return models.JobStatusFailed
		case models.TaskStatusDone:
			anyProgress = true
		case models.TaskStatusSubmitted:
			anyProgress = true
			allDone = false
		default:
			allDone = false
		}
	}

	if allDone {
		return models.JobStatusDone
	}
	if anyProgress {
		return models.JobStatusRunning
	}
	return models.JobStatusQueued
}

// firstTaskError returns the first failing task's error for job attribution.
func firstTaskError(tasks []models.DistributionTask) *string {
	for _, task := range tasks {
		if task.Status == models.TaskStatusFailed && task.Error != nil {
			return task.Error
		}
	}
	return nil
}

// runImmediateDispatch processes a job's tasks strictly sequentially in
// caller order, persisting every transition before moving on, then
// recomputes and persists the aggregate. Per task:
//
//  1. no connection (it vanished since the gate ran): terminal failure. The
//     row keeps the historical audit quirk of flipping mode to assistant
//     even though no assistant attempt ran.
//  2. direct publish; success ends the task as done via the api channel.
//  3. only a platform_api_denied direct failure is considered
//     human-recoverable and goes to the assistant channel; every other code
//     is terminal immediately.
//  4. assistant hand-off success parks the task as submitted, never done;
//     assistant failure is terminal.
func (s *DistributionService) runImmediateDispatch(ctx context.Context, job *models.DistributionJob, tasks []models.DistributionTask, connections map[string]*models.PlatformConnection) (*models.DistributionJob, []models.DistributionTask, error) {
	nextTasks := make([]models.DistributionTask, 0, len(tasks))

	for _, task := range tasks {
		conn, ok := connections[task.Platform]
		if !ok {
			updated, err := s.updateTask(ctx, job.UserID, task.ID, map[string]interface{}{
				"mode":   models.TaskModeAssistant,
				"status": models.TaskStatusFailed,
				"error":  string(models.ErrCodePlatformNotConnected),
				"action_payload": models.JSONMap{
					"route":  "assistant",
					"reason": "platform_not_connected",
				},
			})
			if err != nil {
				return nil, nil, err
			}
			nextTasks = append(nextTasks, *updated)
			continue
		}

		direct := s.publisher.PublishDirect(ctx, publisher.DirectRequest{
			TaskID:     task.ID,
			JobID:      job.ID,
			Platform:   task.Platform,
			Connection: conn,
			ScheduleAt: job.ScheduleAt,
		})

		if direct.OK {
			updated, err := s.updateTask(ctx, job.UserID, task.ID, map[string]interface{}{
				"mode":           models.TaskModeAPI,
				"status":         models.TaskStatusDone,
				"publish_url":    direct.PublishURL,
				"error":          nil,
				"action_payload": direct.ActionPayload,
			})
			if err != nil {
				return nil, nil, err
			}
			nextTasks = append(nextTasks, *updated)
			continue
		}

		if direct.Code != models.ErrCodePlatformAPIDenied {
			payload := direct.ActionPayload
			if payload == nil {
				payload = models.JSONMap{}
			}
			payload["message"] = direct.Message

			updated, err := s.updateTask(ctx, job.UserID, task.ID, map[string]interface{}{
				"mode":           models.TaskModeAPI,
				"status":         models.TaskStatusFailed,
				"publish_url":    nil,
				"error":          string(direct.Code),
				"action_payload": payload,
			})
			if err != nil {
				return nil, nil, err
			}
			nextTasks = append(nextTasks, *updated)
			continue
		}

		fallback := s.publisher.SubmitAssistant(ctx, publisher.AssistantRequest{
			TaskID:        task.ID,
			JobID:         job.ID,
			Platform:      task.Platform,
			Connection:    conn,
			DirectCode:    direct.Code,
			DirectMessage: direct.Message,
		})

		if fallback.OK {
			updated, err := s.updateTask(ctx, job.UserID, task.ID, map[string]interface{}{
				"mode":           models.TaskModeAssistant,
				"status":         models.TaskStatusSubmitted,
				"publish_url":    nil,
				"error":          nil,
				"action_payload": fallback.ActionPayload,
			})
			if err != nil {
				return nil, nil, err
			}

			s.events.Emit("distribute_task_assistant_fallback", RequestMeta{Path: distributePath}, models.JSONMap{
				"job_id":    job.ID,
				"task_id":   task.ID,
				"platform":  task.Platform,
				"from_mode": models.TaskModeAPI,
				"to_mode":   models.TaskModeAssistant,
			})
			nextTasks = append(nextTasks, *updated)
			continue
		}

		updated, err := s.updateTask(ctx, job.UserID, task.ID, map[string]interface{}{
			"mode":           models.TaskModeAssistant,
			"status":         models.TaskStatusFailed,
			"publish_url":    nil,
			"error":          string(fallback.Code),
			"action_payload": fallback.ActionPayload,
		})
		if err != nil {
			return nil, nil, err
		}
		nextTasks = append(nextTasks, *updated)
	}

	status := SummarizeTaskStatus(nextTasks)
	var jobError interface{}
	if e := firstTaskError(nextTasks); e != nil {
		jobError = *e
	}

	updatedJob, err := s.updateJob(ctx, job.UserID, job.ID, map[string]interface{}{
		"status": status,
		"error":  jobError,
	})
	if err != nil {
		return nil, nil, err
	}

	s.logger.Info("dispatch finished",
		zap.String("job_id", job.ID),
		zap.String("status", status),
		zap.Int("tasks", len(nextTasks)))

	return updatedJob, nextTasks, nil
}

// DispatchDueJobs runs the per-task loop for scheduled jobs whose time has
// come. Connections are re-resolved at dispatch time; a connection that
// disappeared since submission fails its task, not the batch.
func (s *DistributionService) DispatchDueJobs(ctx context.Context) (int, error) {
	var jobs []models.DistributionJob
	if err := s.db.WithContext(ctx).
		Where("mode = ? AND status = ? AND schedule_at <= ?",
			models.JobModeScheduled, models.JobStatusQueued, time.Now()).
		Order("schedule_at ASC").
		Limit(dueJobBatchSize).
		Find(&jobs).Error; err != nil {
		return 0, fmt.Errorf("failed to scan due jobs: %w", err)
	}

	dispatched := 0
	for i := range jobs {
		job := &jobs[i]

		running, err := s.updateJob(ctx, job.UserID, job.ID, map[string]interface{}{
			"status": models.JobStatusRunning,
		})
		if err != nil {
			s.logger.Error("failed to mark due job running",
				zap.String("job_id", job.ID), zap.Error(err))
			continue
		}

		var tasks []models.DistributionTask
		if err := s.db.WithContext(ctx).
			Where("job_id = ? AND user_id = ? AND status = ?",
				job.ID, job.UserID, models.TaskStatusQueued).
			Order("created_at ASC").
			Find(&tasks).Error; err != nil {
			s.logger.Error("failed to load tasks for due job",
				zap.String("job_id", job.ID), zap.Error(err))
			continue
		}

		platforms := make([]string, 0, len(tasks))
		for _, task := range tasks {
			platforms = append(platforms, task.Platform)
		}

		connections, err := s.loadConnections(ctx, job.UserID, platforms)
		if err != nil {
			s.logger.Error("failed to load connections for due job",
				zap.String("job_id", job.ID), zap.Error(err))
			continue
		}

		if _, _, err := s.runImmediateDispatch(ctx, running, tasks, connections); err != nil {
			s.logger.Error("failed to dispatch due job",
				zap.String("job_id", job.ID), zap.Error(err))
			continue
		}
		dispatched++
	}

	return dispatched, nil
}
