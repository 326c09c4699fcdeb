package task

import "time"

// DateLayout is the only accepted due date format.
const DateLayout = "2006-01-02"

// ParseDate parses a YYYY-MM-DD string into midnight UTC of that day.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}

// CalendarDay drops the time-of-day part of a stored due date.
// Due dates are kept at midnight UTC, so the UTC calendar fields are authoritative.
func CalendarDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Today returns the calendar day of now in now's own location, expressed as midnight UTC
// so it compares directly with stored due dates.
func Today(now time.Time) time.Time {
	y, m, d := now.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// FormatDate formats a due date as YYYY-MM-DD. A nil date formats as "".
func FormatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return CalendarDay(*t).Format(DateLayout)
}
