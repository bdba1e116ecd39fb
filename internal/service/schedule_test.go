package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ipgongchang/fanout/internal/models"
)

func TestNormalizeScheduleAtImmediate(t *testing.T) {
	zone := LoadCanonicalZone("Asia/Shanghai")

	ts, err := normalizeScheduleAt(models.JobModeImmediate, "", zone)
	require.NoError(t, err)
	assert.Nil(t, ts)

	// Immediate mode ignores whatever the caller sent
	ts, err = normalizeScheduleAt(models.JobModeImmediate, "2025-03-01T10:00:00+08:00", zone)
	require.NoError(t, err)
	assert.Nil(t, ts)
}

func TestNormalizeScheduleAtMissing(t *testing.T) {
	zone := LoadCanonicalZone("Asia/Shanghai")

	for _, raw := range []string{"", "   "} {
		_, err := normalizeScheduleAt(models.JobModeScheduled, raw, zone)
		require.Error(t, err)
		derr := NormalizeDistributionError(err)
		assert.Equal(t, models.ErrCodePlatformAPIDenied, derr.Code)
		assert.Equal(t, 400, derr.Status)
	}
}

func TestNormalizeScheduleAtRelabelsWallClock(t *testing.T) {
	zone := LoadCanonicalZone("Asia/Shanghai")

	tests := []struct {
		name string
		raw  string
	}{
		{"matching offset", "2025-03-01T10:00:00+08:00"},
		{"utc marker", "2025-03-01T10:00:00Z"},
		{"foreign offset", "2025-03-01T10:00:00-05:00"},
		{"no seconds", "2025-03-01T10:00+02:00"},
		{"fractional seconds", "2025-03-01T10:00:00.123456+00:00"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts, err := normalizeScheduleAt(models.JobModeScheduled, tt.raw, zone)
			require.NoError(t, err)
			require.NotNil(t, ts)

			// The numeric wall clock survives; the original zone is
			// discarded in favor of the canonical one.
			got := ts.In(zone)
			assert.Equal(t, 2025, got.Year())
			assert.Equal(t, time.March, got.Month())
			assert.Equal(t, 1, got.Day())
			assert.Equal(t, 10, got.Hour())
			assert.Equal(t, 0, got.Minute())
			assert.Equal(t, 0, got.Second())
		})
	}
}

func TestNormalizeScheduleAtConvertsOtherShapes(t *testing.T) {
	zone := LoadCanonicalZone("Asia/Shanghai")

	// A zone-less timestamp is read as canonical-zone wall clock.
	ts, err := normalizeScheduleAt(models.JobModeScheduled, "2025-03-01 10:00:00", zone)
	require.NoError(t, err)
	require.NotNil(t, ts)
	assert.Equal(t, 10, ts.In(zone).Hour())

	ts, err = normalizeScheduleAt(models.JobModeScheduled, "2025-03-01", zone)
	require.NoError(t, err)
	require.NotNil(t, ts)
	assert.Equal(t, 0, ts.In(zone).Hour())
}

func TestNormalizeScheduleAtInvalid(t *testing.T) {
	zone := LoadCanonicalZone("Asia/Shanghai")

	for _, raw := range []string{"not-a-date", "2025-13-45T99:99", "tomorrow"} {
		_, err := normalizeScheduleAt(models.JobModeScheduled, raw, zone)
		require.Error(t, err, raw)
		derr := NormalizeDistributionError(err)
		assert.Equal(t, "schedule_at invalid", derr.Message)
	}
}

func TestLoadCanonicalZoneFallback(t *testing.T) {
	zone := LoadCanonicalZone("Not/AZone")
	_, offset := time.Now().In(zone).Zone()
	assert.Equal(t, 8*3600, offset)
}

func TestFormatScheduleAt(t *testing.T) {
	zone := LoadCanonicalZone("Asia/Shanghai")

	assert.Nil(t, formatScheduleAt(nil, zone))

	ts := time.Date(2025, 3, 1, 2, 0, 0, 0, time.UTC)
	got := formatScheduleAt(&ts, zone)
	require.NotNil(t, got)
	assert.Equal(t, "2025-03-01T10:00:00+08:00", *got)
}
