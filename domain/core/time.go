package core

import (
	"time"
)

// Timestamp represents a point in time with timezone awareness
type Timestamp time.Time

// NewTimestamp creates a new timestamp from time.Time
func NewTimestamp(t time.Time) Timestamp {
	return Timestamp(t)
}

// Now returns the current timestamp
func Now() Timestamp {
	return Timestamp(time.Now())
}

// Time returns the underlying time.Time
func (t Timestamp) Time() time.Time {
	return time.Time(t)
}

// IsZero checks if the timestamp is zero
func (t Timestamp) IsZero() bool {
	return time.Time(t).IsZero()
}

// Before returns true if t is before u
func (t Timestamp) Before(u Timestamp) bool {
	return time.Time(t).Before(time.Time(u))
}

// After returns true if t is after u
func (t Timestamp) After(u Timestamp) bool {
	return time.Time(t).After(time.Time(u))
}

// Day represents a calendar date with no time-of-day component.
// All dates in loading records are normalized to midnight UTC so that
// range comparisons are pure date comparisons regardless of source timezone.
type Day time.Time

// NewDay truncates a time to its calendar date at midnight UTC
func NewDay(t time.Time) Day {
	return Day(time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC))
}

// DayOf builds a Day from explicit calendar components
func DayOf(year int, month time.Month, day int) Day {
	return Day(time.Date(year, month, day, 0, 0, 0, 0, time.UTC))
}

// Time returns the underlying midnight-UTC time.Time
func (d Day) Time() time.Time {
	return time.Time(d)
}

// IsZero checks if the day is zero
func (d Day) IsZero() bool {
	return time.Time(d).IsZero()
}

// Before returns true if d is an earlier calendar date than u
func (d Day) Before(u Day) bool {
	return time.Time(d).Before(time.Time(u))
}

// After returns true if d is a later calendar date than u
func (d Day) After(u Day) bool {
	return time.Time(d).After(time.Time(u))
}

// Equal returns true if d and u are the same calendar date
func (d Day) Equal(u Day) bool {
	return time.Time(d).Equal(time.Time(u))
}

// Within reports whether d falls in [start, end], both ends inclusive
func (d Day) Within(start, end Day) bool {
	return !d.Before(start) && !d.After(end)
}

// String formats the day as yyyy-mm-dd
func (d Day) String() string {
	return time.Time(d).Format("2006-01-02")
}

// JSON marshaling for Timestamp
func (t Timestamp) MarshalJSON() ([]byte, error) {
	return time.Time(t).MarshalJSON()
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	var tm time.Time
	if err := tm.UnmarshalJSON(data); err != nil {
		return err
	}
	*t = Timestamp(tm)
	return nil
}

// JSON marshaling for Day keeps the date-only form
func (d Day) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Day) UnmarshalJSON(data []byte) error {
	s := string(data)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	tm, err := time.Parse("2006-01-02", s)
	if err != nil {
		return err
	}
	*d = NewDay(tm)
	return nil
}
