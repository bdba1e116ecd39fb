package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"gorm.io/gorm"

	"github.com/ipgongchang/fanout/internal/models"
)

// ensureConnectedPlatforms verifies every requested platform has a live,
// non-expired connection. Any offender fails the whole submission before a
// single job or task row exists, naming every platform that is not ready.
func (s *DistributionService) ensureConnectedPlatforms(ctx context.Context, userID string, platforms []string) (map[string]*models.PlatformConnection, error) {
	byPlatform, err := s.loadConnections(ctx, userID, platforms)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	var notConnected []string
	for _, platform := range platforms {
		conn, ok := byPlatform[platform]
		if !ok || !conn.Ready(now) {
			notConnected = append(notConnected, platform)
		}
	}

	if len(notConnected) > 0 {
		return nil, newDistributionError(models.ErrCodePlatformNotConnected, http.StatusConflict,
			"platform_not_connected").withDetails(map[string]interface{}{
			"platforms": notConnected,
		})
	}

	return byPlatform, nil
}

// loadConnections batch-loads connection rows without judging readiness.
// The dispatcher uses it directly for scheduled jobs, where a connection
// that vanished since submission is a per-task failure, not a gate error.
func (s *DistributionService) loadConnections(ctx context.Context, userID string, platforms []string) (map[string]*models.PlatformConnection, error) {
	var rows []models.PlatformConnection
	if err := s.db.WithContext(ctx).
		Where("user_id = ? AND platform IN ?", userID, platforms).
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to load platform connections: %w", err)
	}

	byPlatform := make(map[string]*models.PlatformConnection, len(rows))
	for i := range rows {
		byPlatform[rows[i].Platform] = &rows[i]
	}
	return byPlatform, nil
}

// resolveContentType determines which store owns a content id: the video
// render store wins over the rewrite store. Both probes are scoped to the
// requesting user, so the ownership check is the existence check.
func (s *DistributionService) resolveContentType(ctx context.Context, userID, contentID string) (string, error) {
	var video models.VideoRenderJob
	err := s.db.WithContext(ctx).
		Select("id").
		Where("id = ? AND user_id = ?", contentID, userID).
		First(&video).Error
	if err == nil {
		return models.ContentTypeVideo, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", fmt.Errorf("failed to probe video render jobs: %w", err)
	}

	var rewrite models.ContentRewrite
	err = s.db.WithContext(ctx).
		Select("id").
		Where("id = ? AND user_id = ?", contentID, userID).
		First(&rewrite).Error
	if err == nil {
		return models.ContentTypeRewrite, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", fmt.Errorf("failed to probe content rewrites: %w", err)
	}

	return "", newDistributionError(models.ErrCodeContentNotFound, http.StatusNotFound,
		"content_id_not_found").withDetails(map[string]interface{}{
		"content_id": contentID,
	})
}
