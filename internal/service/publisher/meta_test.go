package publisher

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ipgongchang/fanout/internal/models"
)

func testConnection(meta models.JSONMap) *models.PlatformConnection {
	token := "tok_123"
	accountID := "acct_9"
	accountName := "Nine"
	return &models.PlatformConnection{
		UserID:      "user-1",
		Platform:    "douyin",
		Status:      models.ConnectionStatusConnected,
		AccountID:   &accountID,
		AccountName: &accountName,
		AccessToken: &token,
		Meta:        meta,
	}
}

func directRequest(conn *models.PlatformConnection) DirectRequest {
	return DirectRequest{
		TaskID:     "task-12345678-abc",
		JobID:      "job-1",
		Platform:   "douyin",
		Connection: conn,
	}
}

func TestPublishDirectSuccess(t *testing.T) {
	pub := NewMetaPublisher(zap.NewNop(), "https://publish.example.com/")

	result := pub.PublishDirect(context.Background(), directRequest(testConnection(nil)))

	require.True(t, result.OK)
	assert.Equal(t, "https://publish.example.com/douyin/job-1", result.PublishURL)
	assert.Equal(t, "api", result.ActionPayload["route"])
	assert.Equal(t, "native_direct_api", result.ActionPayload["provider"])
	assert.Equal(t, "acct_9", result.ActionPayload["account_id"])
	assert.Equal(t, "Nine", result.ActionPayload["account_name"])
}

func TestPublishDirectMockURL(t *testing.T) {
	pub := NewMetaPublisher(zap.NewNop(), "https://publish.example.com")

	conn := testConnection(models.JSONMap{"mock_publish_url": " https://mock.example.com/p/1 "})
	result := pub.PublishDirect(context.Background(), directRequest(conn))

	require.True(t, result.OK)
	assert.Equal(t, "https://mock.example.com/p/1", result.PublishURL)
}

func TestPublishDirectForcedError(t *testing.T) {
	pub := NewMetaPublisher(zap.NewNop(), "https://publish.example.com")

	tests := []struct {
		name string
		meta models.JSONMap
		code models.ErrorCode
		msg  string
	}{
		{"force_error", models.JSONMap{"force_error": "plan_required"}, models.ErrCodePlanRequired, "plan_required"},
		{"mock_error", models.JSONMap{"mock_error": "insufficient_credits"}, models.ErrCodeInsufficientCredits, "insufficient_credits"},
		{"error_code", models.JSONMap{"error_code": "platform_not_connected"}, models.ErrCodePlatformNotConnected, "platform_not_connected"},
		{"custom message", models.JSONMap{"force_error": "plan_required", "force_message": "upgrade first"}, models.ErrCodePlanRequired, "upgrade first"},
		{"invalid code ignored", models.JSONMap{"force_error": "not_a_code", "mock_error": "plan_required"}, models.ErrCodePlanRequired, "plan_required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := pub.PublishDirect(context.Background(), directRequest(testConnection(tt.meta)))
			require.False(t, result.OK)
			assert.Equal(t, tt.code, result.Code)
			assert.Equal(t, tt.msg, result.Message)
			assert.Equal(t, string(tt.code), result.ActionPayload["forced_code"])
		})
	}
}

func TestPublishDirectDenied(t *testing.T) {
	pub := NewMetaPublisher(zap.NewNop(), "https://publish.example.com")

	t.Run("api disabled", func(t *testing.T) {
		result := pub.PublishDirect(context.Background(), directRequest(testConnection(models.JSONMap{"api_enabled": false})))
		require.False(t, result.OK)
		assert.Equal(t, models.ErrCodePlatformAPIDenied, result.Code)
		assert.Equal(t, "api_disabled", result.ActionPayload["reason"])
	})

	t.Run("token missing", func(t *testing.T) {
		conn := testConnection(nil)
		conn.AccessToken = nil
		result := pub.PublishDirect(context.Background(), directRequest(conn))
		require.False(t, result.OK)
		assert.Equal(t, models.ErrCodePlatformAPIDenied, result.Code)
		assert.Equal(t, "access_token_missing", result.ActionPayload["reason"])
	})

	t.Run("forced hard failure", func(t *testing.T) {
		result := pub.PublishDirect(context.Background(), directRequest(testConnection(models.JSONMap{"force_api_fail": true})))
		require.False(t, result.OK)
		assert.Equal(t, models.ErrCodePlatformAPIDenied, result.Code)
		assert.Equal(t, "force_api_fail", result.ActionPayload["reason"])
	})
}

func assistantRequest(conn *models.PlatformConnection) AssistantRequest {
	return AssistantRequest{
		TaskID:        "task-12345678-abc",
		JobID:         "job-1",
		Platform:      "douyin",
		Connection:    conn,
		DirectCode:    models.ErrCodePlatformAPIDenied,
		DirectMessage: "platform_api_denied",
	}
}

func TestSubmitAssistantSuccess(t *testing.T) {
	pub := NewMetaPublisher(zap.NewNop(), "https://publish.example.com")

	result := pub.SubmitAssistant(context.Background(), assistantRequest(testConnection(nil)))

	require.True(t, result.OK)
	assert.Equal(t, "assistant_task-123", result.Ticket)
	assert.Equal(t, "assistant", result.ActionPayload["route"])
	assert.Equal(t, "api", result.ActionPayload["from"])
	assert.Equal(t, "platform_api_denied", result.ActionPayload["from_error_code"])
	assert.Equal(t, result.Ticket, result.ActionPayload["assistant_ticket"])
	assert.Equal(t, "assistant_followup_required", result.ActionPayload["next_action"])
}

func TestSubmitAssistantTicketPrefix(t *testing.T) {
	pub := NewMetaPublisher(zap.NewNop(), "https://publish.example.com")

	conn := testConnection(models.JSONMap{"assistant_ticket_prefix": "vip"})
	result := pub.SubmitAssistant(context.Background(), assistantRequest(conn))

	require.True(t, result.OK)
	assert.Equal(t, "vip_task-123", result.Ticket)
}

func TestSubmitAssistantDisabled(t *testing.T) {
	pub := NewMetaPublisher(zap.NewNop(), "https://publish.example.com")

	conn := testConnection(models.JSONMap{"assistant_enabled": false})
	result := pub.SubmitAssistant(context.Background(), assistantRequest(conn))

	require.False(t, result.OK)
	assert.Equal(t, models.ErrCodeAssistantFallbackRequired, result.Code)
	assert.Equal(t, "assistant_disabled", result.ActionPayload["reason"])
	assert.Equal(t, "platform_api_denied", result.ActionPayload["from_error_code"])
}

func TestSubmitAssistantForcedError(t *testing.T) {
	pub := NewMetaPublisher(zap.NewNop(), "https://publish.example.com")

	t.Run("assistant specific", func(t *testing.T) {
		conn := testConnection(models.JSONMap{
			"assistant_force_error":   "platform_not_connected",
			"assistant_force_message": "reconnect",
		})
		result := pub.SubmitAssistant(context.Background(), assistantRequest(conn))
		require.False(t, result.OK)
		assert.Equal(t, models.ErrCodePlatformNotConnected, result.Code)
		assert.Equal(t, "reconnect", result.Message)
	})

	t.Run("shared force_error applies to both channels", func(t *testing.T) {
		conn := testConnection(models.JSONMap{"force_error": "insufficient_credits"})
		result := pub.SubmitAssistant(context.Background(), assistantRequest(conn))
		require.False(t, result.OK)
		assert.Equal(t, models.ErrCodeInsufficientCredits, result.Code)
	})
}
