package service

import (
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/ipgongchang/fanout/internal/models"
)

// wallClockPattern matches a literal date+time string that carries an
// explicit zone or UTC marker, e.g. "2025-03-01T10:00:00+08:00" or
// "2025-03-01T10:00Z". Such inputs are re-labeled: the numeric date and time
// are kept as-is and stamped with the canonical zone, discarding whatever
// zone the caller wrote. Callers of the original product always meant local
// wall-clock time regardless of the marker their client appended.
var wallClockPattern = regexp.MustCompile(
	`^(\d{4}-\d{2}-\d{2})T(\d{2}:\d{2}(?::\d{2}(?:\.\d{1,6})?)?)(?:Z|[+-]\d{2}:\d{2})$`)

// parseLayouts are tried in order for inputs that are not literal wall-clock
// strings; matches are converted properly into the canonical zone.
var parseLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	time.RFC1123Z,
	time.RFC1123,
}

// LoadCanonicalZone resolves the configured canonical timezone, falling back
// to the +08:00 fixed zone the product has always stored schedules in.
func LoadCanonicalZone(name string) *time.Location {
	if name != "" {
		if loc, err := time.LoadLocation(name); err == nil {
			return loc
		}
	}
	return time.FixedZone("CST", 8*3600)
}

// normalizeScheduleAt turns raw scheduling input into the canonical stored
// timestamp. Immediate mode always yields nil. Scheduled mode requires a
// parseable value and fails before any row is created.
func normalizeScheduleAt(mode, raw string, zone *time.Location) (*time.Time, error) {
	if mode == models.JobModeImmediate {
		return nil, nil
	}

	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, newDistributionError(models.ErrCodePlatformAPIDenied, http.StatusBadRequest,
			"schedule_at required when mode=scheduled")
	}

	if m := wallClockPattern.FindStringSubmatch(raw); m != nil {
		clock := strings.SplitN(m[2], ".", 2)[0]
		if strings.Count(clock, ":") == 1 {
			clock += ":00"
		}
		ts, err := time.ParseInLocation("2006-01-02T15:04:05", fmt.Sprintf("%sT%s", m[1], clock), zone)
		if err != nil {
			return nil, newDistributionError(models.ErrCodePlatformAPIDenied, http.StatusBadRequest,
				"schedule_at invalid")
		}
		return &ts, nil
	}

	for _, layout := range parseLayouts {
		// Zone-less layouts are read as wall-clock time in the canonical
		// zone; layouts with an offset keep it and convert.
		ts, err := time.ParseInLocation(layout, raw, zone)
		if err != nil {
			continue
		}
		canonical := ts.In(zone)
		return &canonical, nil
	}

	return nil, newDistributionError(models.ErrCodePlatformAPIDenied, http.StatusBadRequest,
		"schedule_at invalid")
}

// formatScheduleAt renders a stored schedule in the canonical zone for views.
func formatScheduleAt(ts *time.Time, zone *time.Location) *string {
	if ts == nil {
		return nil
	}
	s := ts.In(zone).Format(time.RFC3339)
	return &s
}
