package publisher

import (
	"context"
	"time"

	"github.com/ipgongchang/fanout/internal/models"
)

// DirectRequest asks for an automated publish through the platform's own
// integration.
type DirectRequest struct {
	TaskID     string
	JobID      string
	Platform   string
	Connection *models.PlatformConnection
	ScheduleAt *time.Time
}

// DirectResult reports the outcome of a direct publish attempt. On failure
// Code carries the taxonomy code; platform_api_denied marks the attempt as
// recoverable through the assistant channel. ActionPayload replaces the
// task's audit trail wholesale.
type DirectResult struct {
	OK            bool
	Code          models.ErrorCode
	Message       string
	PublishURL    string
	ActionPayload models.JSONMap
}

// AssistantRequest hands a task to the semi-automated assistant channel
// after a denied direct attempt.
type AssistantRequest struct {
	TaskID        string
	JobID         string
	Platform      string
	Connection    *models.PlatformConnection
	DirectCode    models.ErrorCode
	DirectMessage string
}

// AssistantResult reports the hand-off outcome. A successful hand-off mints
// a follow-up ticket; completion happens outside this engine.
type AssistantResult struct {
	OK            bool
	Code          models.ErrorCode
	Message       string
	Ticket        string
	ActionPayload models.JSONMap
}

// Publisher is the seam between the dispatch loop and platform delivery.
// Implementations decide how an individual attempt succeeds or fails; the
// dispatcher owns the fallback policy between the two channels.
type Publisher interface {
	PublishDirect(ctx context.Context, req DirectRequest) DirectResult
	SubmitAssistant(ctx context.Context, req AssistantRequest) AssistantResult
}
