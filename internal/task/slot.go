package task

import (
	"fmt"
	"strings"
	"time"
)

// SlotLayout is the wire format of scheduled times.
const SlotLayout = "2006-01-02 15:04"

// slotInputLayouts are tried in order. Seconds are accepted and dropped.
var slotInputLayouts = []string{SlotLayout, "2006-01-02 15:04:05"}

// SlotOf truncates at to the minute, the granularity of scheduling.
func SlotOf(at time.Time) time.Time {
	return time.Date(at.Year(), at.Month(), at.Day(), at.Hour(), at.Minute(), 0, 0, at.Location())
}

// ParseSlot reads a scheduled time in loc. A "T" between date and time is
// accepted. An empty string means unscheduled and yields nil.
func ParseSlot(s string, loc *time.Location) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	s = strings.Replace(s, "T", " ", 1)
	for _, layout := range slotInputLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			slot := SlotOf(t)
			return &slot, nil
		}
	}
	return nil, fmt.Errorf("invalid scheduled time %q, expected YYYY-MM-DD HH:MM", s)
}

// FormatSlot renders at in loc, or "" when unscheduled.
func FormatSlot(at *time.Time, loc *time.Location) string {
	if at == nil {
		return ""
	}
	return at.In(loc).Format(SlotLayout)
}
