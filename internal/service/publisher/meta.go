package publisher

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ipgongchang/fanout/internal/models"
	"github.com/ipgongchang/fanout/pkg/util"
)

// MetaPublisher resolves every attempt from the connection row and its meta
// map: api_enabled, force_api_fail, assistant_enabled, forced error codes
// and mock URLs. In production the meta map carries real platform-client
// configuration; in tests it deterministically drives every outcome without
// network access.
type MetaPublisher struct {
	logger  *zap.Logger
	baseURL string
}

func NewMetaPublisher(logger *zap.Logger, baseURL string) *MetaPublisher {
	return &MetaPublisher{
		logger:  logger,
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

func (p *MetaPublisher) PublishDirect(_ context.Context, req DirectRequest) DirectResult {
	meta := req.Connection.Meta

	if code, message := readForcedCode(meta, "force_error", "mock_error", "error_code"); code != "" {
		return DirectResult{
			Code:    code,
			Message: util.FirstNonEmpty(metaString(meta, "force_message"), message),
			ActionPayload: models.JSONMap{
				"route":       "api",
				"forced_code": string(code),
			},
		}
	}

	apiEnabled := metaBool(meta, "api_enabled", true)
	tokenReady := req.Connection.AccessToken != nil && *req.Connection.AccessToken != ""

	if !apiEnabled || !tokenReady {
		reason := "access_token_missing"
		if !apiEnabled {
			reason = "api_disabled"
		}
		return DirectResult{
			Code:    models.ErrCodePlatformAPIDenied,
			Message: string(models.ErrCodePlatformAPIDenied),
			ActionPayload: models.JSONMap{
				"route":  "api",
				"reason": reason,
			},
		}
	}

	if metaBool(meta, "force_api_fail", false) {
		return DirectResult{
			Code:    models.ErrCodePlatformAPIDenied,
			Message: string(models.ErrCodePlatformAPIDenied),
			ActionPayload: models.JSONMap{
				"route":  "api",
				"reason": "force_api_fail",
			},
		}
	}

	publishURL := metaString(meta, "mock_publish_url")
	if publishURL == "" {
		publishURL = fmt.Sprintf("%s/%s/%s", p.baseURL, req.Platform, req.JobID)
	}

	payload := models.JSONMap{
		"route":        "api",
		"provider":     "native_direct_api",
		"submitted_at": time.Now().UTC().Format(time.RFC3339),
		"schedule_at":  nil,
		"account_id":   nil,
		"account_name": nil,
	}
	if req.ScheduleAt != nil {
		payload["schedule_at"] = req.ScheduleAt.Format(time.RFC3339)
	}
	if req.Connection.AccountID != nil {
		payload["account_id"] = *req.Connection.AccountID
	}
	if req.Connection.AccountName != nil {
		payload["account_name"] = *req.Connection.AccountName
	}

	return DirectResult{
		OK:            true,
		PublishURL:    publishURL,
		ActionPayload: payload,
	}
}

func (p *MetaPublisher) SubmitAssistant(_ context.Context, req AssistantRequest) AssistantResult {
	meta := req.Connection.Meta

	if !metaBool(meta, "assistant_enabled", true) {
		return AssistantResult{
			Code:    models.ErrCodeAssistantFallbackRequired,
			Message: string(models.ErrCodeAssistantFallbackRequired),
			ActionPayload: models.JSONMap{
				"route":           "assistant",
				"reason":          "assistant_disabled",
				"from":            "api",
				"from_error_code": string(req.DirectCode),
			},
		}
	}

	if code, message := readForcedCode(meta, "assistant_force_error", "force_error", "mock_error", "error_code"); code != "" {
		return AssistantResult{
			Code:    code,
			Message: util.FirstNonEmpty(metaString(meta, "assistant_force_message"), metaString(meta, "force_message"), message),
			ActionPayload: models.JSONMap{
				"route":           "assistant",
				"forced_code":     string(code),
				"from":            "api",
				"from_error_code": string(req.DirectCode),
			},
		}
	}

	prefix := strings.TrimSpace(metaString(meta, "assistant_ticket_prefix"))
	if prefix == "" {
		prefix = "assistant"
	}
	ticket := fmt.Sprintf("%s_%s", prefix, util.ShortID(req.TaskID, 8))

	return AssistantResult{
		OK:     true,
		Ticket: ticket,
		ActionPayload: models.JSONMap{
			"route":              "assistant",
			"from":               "api",
			"from_error_code":    string(req.DirectCode),
			"from_error_message": req.DirectMessage,
			"assistant_ticket":   ticket,
			"submitted_at":       time.Now().UTC().Format(time.RFC3339),
			"next_action":        "assistant_followup_required",
		},
	}
}

// readForcedCode returns the first meta key holding a valid taxonomy code.
// The message falls back to the code itself.
func readForcedCode(meta models.JSONMap, keys ...string) (models.ErrorCode, string) {
	for _, key := range keys {
		value := metaString(meta, key)
		if value == "" {
			continue
		}
		if models.IsDistributionErrorCode(value) {
			return models.ErrorCode(value), value
		}
	}
	return "", ""
}

func metaString(meta models.JSONMap, key string) string {
	if meta == nil {
		return ""
	}
	if value, ok := meta[key].(string); ok {
		return strings.TrimSpace(value)
	}
	return ""
}

func metaBool(meta models.JSONMap, key string, fallback bool) bool {
	if meta == nil {
		return fallback
	}
	if value, ok := meta[key].(bool); ok {
		return value
	}
	return fallback
}
