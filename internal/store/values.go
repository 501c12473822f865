package store

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

var dateTimeLayouts = []string{
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04",
	"2006-01-02T15:04",
	"2006-01-02",
}

// parseTime interprets a stored DATETIME/DATE value as wall-clock time in loc.
// Values carrying an explicit offset are converted to loc instead.
func parseTime(v any, loc *time.Location) (time.Time, error) {
	switch x := v.(type) {
	case time.Time:
		return wallClock(x, loc), nil
	case []byte:
		return parseTimeString(string(x), loc)
	case string:
		return parseTimeString(x, loc)
	case int64:
		return time.Unix(x, 0).In(loc), nil
	case float64:
		return time.Unix(int64(x), 0).In(loc), nil
	case nil:
		return time.Time{}, fmt.Errorf("null time value")
	default:
		return time.Time{}, fmt.Errorf("unsupported time value %T", v)
	}
}

func parseTimeString(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t.In(loc), nil
	}
	for _, layout := range dateTimeLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised time %q", s)
}

// wallClock keeps the calendar fields of t and re-anchors them in loc. The
// driver hands back DATETIME columns as UTC even though the feed writes local time.
func wallClock(t time.Time, loc *time.Location) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), loc)
}

// parseTimestamp accepts integer epochs as well as numeric or datetime strings.
func parseTimestamp(v any, loc *time.Location) (int64, error) {
	switch x := v.(type) {
	case int64:
		return x, nil
	case float64:
		return int64(x), nil
	case []byte:
		return parseTimestamp(string(x), loc)
	case string:
		if n, err := strconv.ParseInt(strings.TrimSpace(x), 10, 64); err == nil {
			return n, nil
		}
		t, err := parseTimeString(x, loc)
		if err != nil {
			return 0, err
		}
		return t.Unix(), nil
	case time.Time:
		return wallClock(x, loc).Unix(), nil
	default:
		return 0, fmt.Errorf("unsupported timestamp value %T", v)
	}
}

func dayOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
