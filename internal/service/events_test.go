package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ipgongchang/fanout/internal/models"
)

func TestEventServicePersistsEvents(t *testing.T) {
	db := newTestDB(t)
	events := NewEventService(db, zap.NewNop())

	events.Emit("distribute_submit", RequestMeta{
		Path:      "/api/v1/distribute",
		IPAddress: "203.0.113.9",
		UserAgent: "curl/8.0",
		Referrer:  "https://app.example.com",
	}, models.JSONMap{"content_id": "c1"})
	events.Emit("distribute_success", RequestMeta{}, nil)
	events.Close()

	var rows []models.AnalyticsEvent
	require.NoError(t, db.Order("created_at ASC").Find(&rows).Error)
	require.Len(t, rows, 2)

	assert.Equal(t, "distribute_submit", rows[0].Event)
	assert.Equal(t, "203.0.113.9", rows[0].IPAddress)
	require.NotNil(t, rows[0].UserAgent)
	assert.Equal(t, "curl/8.0", *rows[0].UserAgent)
	assert.Equal(t, "c1", rows[0].Props["content_id"])

	assert.Equal(t, "distribute_success", rows[1].Event)
	assert.Equal(t, "/api/v1/distribute", rows[1].Path)
	assert.Equal(t, "unknown", rows[1].IPAddress)
	assert.Nil(t, rows[1].UserAgent)
}

func TestEventServiceDropsWhenBufferFull(t *testing.T) {
	db := newTestDB(t)
	events := &EventService{
		db:     db,
		logger: zap.NewNop(),
		ch:     make(chan models.AnalyticsEvent),
		done:   make(chan struct{}),
	}

	// No worker draining an unbuffered channel: Emit must return immediately
	// instead of blocking the caller.
	events.Emit("distribute_submit", RequestMeta{}, nil)

	var count int64
	require.NoError(t, db.Model(&models.AnalyticsEvent{}).Count(&count).Error)
	assert.Zero(t, count)
}
