package service

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/ipgongchang/fanout/internal/config"
	"github.com/ipgongchang/fanout/internal/models"
	"github.com/ipgongchang/fanout/internal/service/publisher"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, AutoMigrate(db))
	return db
}

func newTestService(t *testing.T, db *gorm.DB) (*DistributionService, *EventService) {
	t.Helper()

	logger := zap.NewNop()
	events := NewEventService(db, logger)
	t.Cleanup(events.Close)

	cfg := &config.DistributionConfig{
		Timezone:       "Asia/Shanghai",
		PublishBaseURL: "https://publish.example.com",
	}
	pub := publisher.NewMetaPublisher(logger, cfg.PublishBaseURL)
	return NewDistributionService(cfg, db, logger, pub, events), events
}

type connOption func(*models.PlatformConnection)

func withMeta(meta models.JSONMap) connOption {
	return func(c *models.PlatformConnection) { c.Meta = meta }
}

func withStatus(status string) connOption {
	return func(c *models.PlatformConnection) { c.Status = status }
}

func withExpiry(at time.Time) connOption {
	return func(c *models.PlatformConnection) { c.ExpiresAt = &at }
}

func withoutToken() connOption {
	return func(c *models.PlatformConnection) { c.AccessToken = nil }
}

func seedConnection(t *testing.T, db *gorm.DB, userID, platform string, opts ...connOption) *models.PlatformConnection {
	t.Helper()

	token := "tok_" + uuid.NewString()
	accountID := "acct_1001"
	accountName := "Demo Account"
	conn := &models.PlatformConnection{
		UserID:      userID,
		Platform:    platform,
		Status:      models.ConnectionStatusConnected,
		AccountID:   &accountID,
		AccountName: &accountName,
		AccessToken: &token,
	}
	for _, opt := range opts {
		opt(conn)
	}
	require.NoError(t, db.Create(conn).Error)
	return conn
}

func seedRewrite(t *testing.T, db *gorm.DB, userID string) *models.ContentRewrite {
	t.Helper()

	rewrite := &models.ContentRewrite{UserID: userID}
	require.NoError(t, db.Create(rewrite).Error)
	return rewrite
}

func seedVideoJob(t *testing.T, db *gorm.DB, userID string) *models.VideoRenderJob {
	t.Helper()

	video := &models.VideoRenderJob{UserID: userID, Status: "done"}
	require.NoError(t, db.Create(video).Error)
	return video
}

func countRows(t *testing.T, db *gorm.DB, model interface{}) int64 {
	t.Helper()

	var count int64
	require.NoError(t, db.Model(model).Count(&count).Error)
	return count
}
