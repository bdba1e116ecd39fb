package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ipgongchang/fanout/internal/models"
	"github.com/ipgongchang/fanout/internal/service"
)

func errorResponse(c *gin.Context, derr *service.DistributionError) {
	var details interface{}
	if derr.Details != nil {
		details = derr.Details
	}
	c.JSON(derr.Status, gin.H{
		"ok":         false,
		"error_code": derr.Code,
		"message":    derr.Message,
		"details":    details,
		// backward compatibility
		"code": derr.Code,
	})
}

func requestMeta(c *gin.Context) service.RequestMeta {
	referrer := c.GetHeader("Referer")
	if referrer == "" {
		referrer = c.GetHeader("Referrer")
	}
	return service.RequestMeta{
		Path:      c.FullPath(),
		IPAddress: c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
		Referrer:  referrer,
	}
}

func (s *Server) handleSubmitDistribution(c *gin.Context) {
	userID := service.UserID(c)

	var input service.DistributeInput
	if err := c.ShouldBindJSON(&input); err != nil {
		s.Events.Emit("distribute_fail", requestMeta(c), models.JSONMap{
			"user_id": userID,
			"code":    string(models.ErrCodePlatformAPIDenied),
			"message": "invalid_payload",
			"issues":  err.Error(),
		})
		errorResponse(c, &service.DistributionError{
			Code:    models.ErrCodePlatformAPIDenied,
			Status:  http.StatusBadRequest,
			Message: "invalid_payload",
			Details: map[string]interface{}{"issues": err.Error()},
		})
		return
	}

	s.Events.Emit("distribute_submit", requestMeta(c), models.JSONMap{
		"user_id":     userID,
		"content_id":  input.ContentID,
		"mode":        input.Mode,
		"platforms":   input.Platforms,
		"schedule_at": input.ScheduleAt,
	})

	result, err := s.Distribution.SubmitDistribution(c.Request.Context(), userID, input)
	if err != nil {
		normalized := service.NormalizeDistributionError(err)
		s.Logger.Warn("distribution submit failed",
			zap.String("user_id", userID),
			zap.String("code", string(normalized.Code)),
			zap.String("message", normalized.Message))

		s.Events.Emit("distribute_fail", requestMeta(c), models.JSONMap{
			"user_id": userID,
			"code":    string(normalized.Code),
			"message": normalized.Message,
		})
		errorResponse(c, normalized)
		return
	}

	if result.Job.Status == models.JobStatusFailed {
		s.Events.Emit("distribute_fail", requestMeta(c), models.JSONMap{
			"user_id": userID,
			"job_id":  result.Job.ID,
			"code":    failCode(result),
			"message": "distribution_job_failed",
		})
	} else {
		s.Events.Emit("distribute_success", requestMeta(c), models.JSONMap{
			"user_id": userID,
			"job_id":  result.Job.ID,
			"status":  result.Job.Status,
			"tasks":   taskProps(result.Tasks),
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"ok":    true,
		"job":   result.Job,
		"tasks": result.Tasks,
	})
}

func (s *Server) handleGetDistributionJob(c *gin.Context) {
	userID := service.UserID(c)

	jobID := strings.TrimSpace(c.Param("jobId"))
	if jobID == "" {
		errorResponse(c, &service.DistributionError{
			Code:    models.ErrCodePlatformAPIDenied,
			Status:  http.StatusBadRequest,
			Message: "missing_job_id",
		})
		return
	}

	result, err := s.Distribution.GetDistributionJob(c.Request.Context(), userID, jobID)
	if err != nil {
		errorResponse(c, service.NormalizeDistributionError(err))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"ok":    true,
		"job":   result.Job,
		"tasks": result.Tasks,
	})
}

func (s *Server) handleGetStats(c *gin.Context) {
	summary, err := s.Stats.Summary()
	if err != nil {
		s.Logger.Error("failed to compute stats summary", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute stats"})
		return
	}

	c.JSON(http.StatusOK, summary)
}

// failCode attributes a failed job to its first failing task's error, within
// the closed taxonomy.
func failCode(result *service.DistributionResult) string {
	for _, task := range result.Tasks {
		if task.Status == models.TaskStatusFailed && task.Error != nil && models.IsDistributionErrorCode(*task.Error) {
			return *task.Error
		}
	}
	return string(models.ErrCodePlatformAPIDenied)
}

func taskProps(tasks []service.TaskView) []models.JSONMap {
	props := make([]models.JSONMap, 0, len(tasks))
	for _, task := range tasks {
		props = append(props, models.JSONMap{
			"platform": task.Platform,
			"mode":     task.Mode,
			"status":   task.Status,
		})
	}
	return props
}
