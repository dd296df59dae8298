package model

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DateFormat is the canonical date layout used throughout the application
const DateFormat = "2006-01-02"

// TimeOfDay is a wall-clock time without a date
type TimeOfDay struct {
	Hour   int
	Minute int
}

// ParseTimeOfDay parses "HH:MM", "HH:MM:SS", "3:04 PM" and "3:04:05 PM" layouts
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return TimeOfDay{}, fmt.Errorf("empty time")
	}

	for _, layout := range []string{"15:04", "15:04:05", "3:04 PM", "3:04:05 PM", "03:04 PM"} {
		if t, err := time.Parse(layout, strings.ToUpper(s)); err == nil {
			return TimeOfDay{Hour: t.Hour(), Minute: t.Minute()}, nil
		}
	}

	return TimeOfDay{}, fmt.Errorf("unrecognised time %q", s)
}

// String formats the time as HH:MM
func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// ParseDate parses a date in ISO, US or day-first layouts, tried in that order.
// An ambiguous value such as 03/04/2024 is therefore read as March 4th.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}

	for _, layout := range []string{DateFormat, "01/02/2006", "02/01/2006"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("unrecognised date %q", s)
}

// ParseDuration parses decimal hours ("7.5") or "H:MM" into hours
func ParseDuration(s string) (float64, error) {
	s = strings.Trim(strings.TrimSpace(s), `"`)
	if s == "" {
		return 0, fmt.Errorf("empty duration")
	}

	if hours, err := strconv.ParseFloat(s, 64); err == nil {
		return hours, nil
	}

	if parts := strings.SplitN(s, ":", 2); len(parts) == 2 {
		h, errH := strconv.Atoi(parts[0])
		m, errM := strconv.Atoi(parts[1])
		if errH == nil && errM == nil {
			return float64(h) + float64(m)/60, nil
		}
	}

	return 0, fmt.Errorf("unrecognised duration %q", s)
}

// NormalizeDate truncates a time to midnight UTC on the same calendar day
func NormalizeDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// DayIndex returns the weekday with Monday=0 and Sunday=6
func DayIndex(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}

// IsWeekendIndex returns true for Saturday (5) and Sunday (6)
func IsWeekendIndex(day int) bool {
	return day == 5 || day == 6
}

// WeekStart returns the Monday of the ISO week containing t
func WeekStart(t time.Time) time.Time {
	d := NormalizeDate(t)
	return d.AddDate(0, 0, -DayIndex(d))
}

// DatesInRange returns every calendar date from start to end inclusive.
// Returns an empty slice if end is before start.
func DatesInRange(start, end time.Time) []time.Time {
	start = NormalizeDate(start)
	end = NormalizeDate(end)

	dates := make([]time.Time, 0)
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		dates = append(dates, d)
	}
	return dates
}

// TimeBucket categorises a shift by its start hour
type TimeBucket string

const (
	BucketMorning   TimeBucket = "morning"
	BucketAfternoon TimeBucket = "afternoon"
	BucketEvening   TimeBucket = "evening"
	BucketNight     TimeBucket = "night"
)

// TimeBuckets lists all buckets in index order
var TimeBuckets = []TimeBucket{BucketMorning, BucketAfternoon, BucketEvening, BucketNight}

// BucketForHour maps a start hour to its bucket:
// [0,6) night, [6,12) morning, [12,17) afternoon, [17,22) evening, [22,24) night
func BucketForHour(hour int) TimeBucket {
	switch {
	case hour < 6:
		return BucketNight
	case hour < 12:
		return BucketMorning
	case hour < 17:
		return BucketAfternoon
	case hour < 22:
		return BucketEvening
	default:
		return BucketNight
	}
}

// Index returns the numeric encoding of the bucket used in feature vectors
func (b TimeBucket) Index() int {
	for i, bucket := range TimeBuckets {
		if bucket == b {
			return i
		}
	}
	return 0
}
