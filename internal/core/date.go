// Date parsing and comparison for the two date shapes the store contains:
// plain calendar dates ("2024-01-15") and full timestamps (RFC 3339).
//
// Every date comparison in the module goes through this type. Parsing a
// calendar date with a generic ISO parser yields midnight UTC and shifts the
// day in western timezones; ParseDate builds calendar dates in local time to
// avoid that defect class.
package core

import (
	"strings"
	"time"
)

// DayFormat is the canonical wire format for calendar dates.
const DayFormat = "2006-01-02"

// Date is an instant with helpers for day-granularity comparison. The zero
// value means "no date" (null in the store).
type Date struct {
	time.Time
}

// NewDate builds a calendar date at local midnight.
func NewDate(year int, month time.Month, day int) Date {
	return Date{time.Date(year, month, day, 0, 0, 0, 0, time.Local)}
}

// Today returns the current calendar date at local midnight.
func Today() Date {
	return DateOf(time.Now())
}

// DateOf truncates an instant to its local calendar date.
func DateOf(t time.Time) Date {
	y, m, d := t.Local().Date()
	return NewDate(y, m, d)
}

// ParseDate parses a raw date string from the store. Empty and unparseable
// strings yield the zero Date; values with a time component are parsed as
// timestamps, anything else as a local-midnight calendar date.
func ParseDate(raw string) Date {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Date{}
	}
	if strings.ContainsRune(raw, 'T') {
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			return Date{t.Local()}
		}
		if t, err := time.ParseInLocation("2006-01-02T15:04:05", raw, time.Local); err == nil {
			return Date{t}
		}
		return Date{}
	}
	t, err := time.ParseInLocation(DayFormat, raw, time.Local)
	if err != nil {
		return Date{}
	}
	return Date{t}
}

// Day returns the date truncated to local midnight, the form used for all
// due-date comparisons.
func (d Date) Day() Date {
	return DateOf(d.Time)
}

// BeforeDay reports whether d falls on an earlier calendar day than x.
func (d Date) BeforeDay(x Date) bool {
	return d.Day().Time.Before(x.Day().Time)
}

// AfterDay reports whether d falls on a later calendar day than x.
func (d Date) AfterDay(x Date) bool {
	return d.Day().Time.After(x.Day().Time)
}

// SameDay reports whether d and x fall on the same calendar day.
func (d Date) SameDay(x Date) bool {
	return d.Day().Time.Equal(x.Day().Time)
}

// InMonth reports whether d falls in the given year and month.
func (d Date) InMonth(year int, month time.Month) bool {
	return !d.IsZero() && d.Time.Year() == year && d.Time.Month() == month
}

// AddDays returns d shifted by n calendar days.
func (d Date) AddDays(n int) Date {
	return Date{d.Time.AddDate(0, 0, n)}
}

// AddMonths returns d shifted by n calendar months, preserving the day of
// month where possible. Month-end overflow follows time.Date normalization:
// Jan 31 + 1 month lands in early March. One consistent policy, applied to
// every generated due date.
func (d Date) AddMonths(n int) Date {
	return Date{d.Time.AddDate(0, n, 0)}
}

// String formats the calendar date in its canonical wire form. The zero
// Date formats as the empty string.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Time.Format(DayFormat)
}

// Timestamp formats the full instant in RFC 3339, the wire form used for
// creation timestamps. The zero Date formats as the empty string.
func (d Date) Timestamp() string {
	if d.IsZero() {
		return ""
	}
	return d.Time.Format(time.RFC3339)
}
