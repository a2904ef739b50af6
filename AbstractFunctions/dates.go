// Package AbstractFunctions holds the date and time helpers shared by the
// storage layer, the lifecycle engine and the reports.
//
// Persisted rows carry dates as "27/Dec/2025" and times as "01:05:30 PM", but
// older rows were written in other layouts. Everything in here degrades to a
// (zero, false) result instead of failing so one bad row never blocks the rest
// of a table.
package AbstractFunctions

import (
	"fmt"
	"strings"
	"time"
)

const (
	// DateLayout is the only date layout ever written back to storage.
	DateLayout = "02/Jan/2006"
	// TimeLayout is the only time layout ever written back to storage.
	TimeLayout = "03:04:05 PM"
)

// dateLayouts are tried in order. Ambiguous values such as "03/04/2025" resolve
// to the first layout that accepts them (month/day before day/month).
var dateLayouts = []string{
	"2/Jan/2006",
	"1/2/2006",
	"2/1/2006",
	"2006-1-2",
	"2006/1/2",
	"2006-1-2 15:04:05",
}

// TimeOfDay is a wall clock time without a date.
type TimeOfDay struct {
	Hour   int
	Minute int
	Second int
}

// Seconds returns the number of seconds since midnight.
func (t TimeOfDay) Seconds() int {
	return t.Hour*3600 + t.Minute*60 + t.Second
}

func (t TimeOfDay) valid() bool {
	return t.Hour >= 0 && t.Hour < 24 &&
		t.Minute >= 0 && t.Minute < 60 &&
		t.Second >= 0 && t.Second < 60
}

func (t TimeOfDay) String() string {
	return FormatTime(t)
}

// ParseDate converts a persisted date into a canonical date (midnight UTC).
// It accepts strings in any of the historical layouts as well as values that
// are already canonical, so calling it twice is safe.
func ParseDate(value any) (time.Time, bool) {
	switch v := value.(type) {
	case nil:
		return time.Time{}, false
	case time.Time:
		if v.IsZero() {
			return time.Time{}, false
		}
		return dateOnly(v), true
	case *time.Time:
		if v == nil {
			return time.Time{}, false
		}
		return ParseDate(*v)
	case string:
		return parseDateString(v)
	case fmt.Stringer:
		return parseDateString(v.String())
	default:
		return time.Time{}, false
	}
}

func parseDateString(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return dateOnly(t), true
		}
	}
	return time.Time{}, false
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// FormatDate renders a canonical date in the persisted "02/Jan/2006" layout.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// ParseTime converts a 12-hour clock string ("1:05:30 PM", "09:00 am") into a
// TimeOfDay. A missing seconds component counts as ":00" and "00" with AM is
// midnight.
func ParseTime(value any) (TimeOfDay, bool) {
	switch v := value.(type) {
	case nil:
		return TimeOfDay{}, false
	case TimeOfDay:
		return v, v.valid()
	case time.Time:
		if v.IsZero() {
			return TimeOfDay{}, false
		}
		return TimeOfDay{Hour: v.Hour(), Minute: v.Minute(), Second: v.Second()}, true
	case string:
		return parseTimeString(v)
	default:
		return TimeOfDay{}, false
	}
}

func parseTimeString(value string) (TimeOfDay, bool) {
	value = strings.ToUpper(strings.TrimSpace(value))
	var marker string
	switch {
	case strings.HasSuffix(value, "AM"):
		marker = "AM"
	case strings.HasSuffix(value, "PM"):
		marker = "PM"
	default:
		return TimeOfDay{}, false
	}

	clock := strings.TrimSpace(strings.TrimSuffix(value, marker))
	switch strings.Count(clock, ":") {
	case 1:
		clock += ":00"
	case 2:
	default:
		return TimeOfDay{}, false
	}

	t, err := time.Parse("3:04:05 PM", clock+" "+marker)
	if err != nil {
		return TimeOfDay{}, false
	}
	return TimeOfDay{Hour: t.Hour(), Minute: t.Minute(), Second: t.Second()}, true
}

// FormatTime renders a TimeOfDay in the persisted "03:04:05 PM" layout.
func FormatTime(t TimeOfDay) string {
	return time.Date(0, 1, 1, t.Hour, t.Minute, t.Second, 0, time.UTC).Format(TimeLayout)
}

// Combine joins a canonical date and a time of day into one instant. Both
// sides are naive wall clock values, so the result is in UTC.
func Combine(date time.Time, tod TimeOfDay) time.Time {
	y, m, d := date.Date()
	return time.Date(y, m, d, tod.Hour, tod.Minute, tod.Second, 0, time.UTC)
}

// Split breaks an instant into the persisted date and time strings, reading
// the wall clock in the instant's own location.
func Split(now time.Time) (string, string) {
	return FormatDate(now), FormatTime(TimeOfDay{Hour: now.Hour(), Minute: now.Minute(), Second: now.Second()})
}

// NormalizeDateString rewrites a date into the persisted layout when it can be
// parsed and returns it untouched otherwise.
func NormalizeDateString(value string) string {
	if d, ok := ParseDate(value); ok {
		return FormatDate(d)
	}
	if d, ok := ParseExcelDate(value); ok {
		return FormatDate(d)
	}
	return value
}

// NormalizeTimeString rewrites a time into the persisted layout when it can be
// parsed and returns it untouched otherwise.
func NormalizeTimeString(value string) string {
	if t, ok := ParseTime(value); ok {
		return FormatTime(t)
	}
	if t, ok := ParseExcelTime(value); ok {
		return FormatTime(t)
	}
	return value
}
