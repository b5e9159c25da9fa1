package domain

import (
	"time"
)

// StampLayout is the display format of LastUpdated.
const StampLayout = "2006-01-02 15:04"

// IST is the fixed UTC+05:30 offset the dashboard reports times in.
var IST = time.FixedZone("IST", 5*3600+30*60)

// Stamp formats t in IST truncated to the minute.
func Stamp(t time.Time) string {
	return t.In(IST).Truncate(time.Minute).Format(StampLayout)
}

var maintenanceLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	StampLayout,
}

// ParseTimestamp reads the timestamp shapes the dashboard produces.
// Values without an offset are read as IST.
func ParseTimestamp(raw string) (time.Time, bool) {
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range maintenanceLayouts {
		if t, err := time.ParseInLocation(layout, raw, IST); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// MaintenanceExpired reports whether s is under planned maintenance with a
// window that ended before now. A malformed end is never expired.
func MaintenanceExpired(s Service, now time.Time) bool {
	if s.Status != StatusPlannedMaintenance {
		return false
	}
	end, ok := ParseTimestamp(s.MaintenanceEnd)
	if !ok {
		return false
	}
	return end.Before(now)
}
