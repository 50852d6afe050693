package models

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"
)

// DateLayout is the wire format for calendar dates.
const DateLayout = "2006-01-02"

var dateLayouts = []string{
	DateLayout,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006/01/02",
	"01/02/2006",
}

// Date is a calendar date without time of day. Unparsable input yields a Date
// with Valid=false so callers can tell it apart from a real date.
type Date struct {
	Year  int
	Month time.Month
	Day   int
	Valid bool
}

// NewDate builds a valid Date from its parts.
func NewDate(year int, month time.Month, day int) Date {
	return DateOf(time.Date(year, month, day, 0, 0, 0, 0, time.UTC))
}

// DateOf returns the calendar date of t in t's location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d, Valid: true}
}

// ParseDate parses the supported date layouts. It never fails; unknown input
// produces an invalid Date.
func ParseDate(value string) Date {
	value = strings.TrimSpace(value)
	if value == "" {
		return Date{}
	}
	for _, layout := range dateLayouts {
		if parsed, err := time.Parse(layout, value); err == nil {
			return DateOf(parsed)
		}
	}
	return Date{}
}

// In returns midnight of the date in loc.
func (d Date) In(loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, loc)
}

// Equal reports whether both dates are valid and name the same day.
func (d Date) Equal(other Date) bool {
	return d.Valid && other.Valid && d.Year == other.Year && d.Month == other.Month && d.Day == other.Day
}

// Before orders two valid dates. Invalid dates never compare.
func (d Date) Before(other Date) bool {
	if !d.Valid || !other.Valid {
		return false
	}
	return d.In(time.UTC).Before(other.In(time.UTC))
}

func (d Date) String() string {
	if !d.Valid {
		return "invalid date"
	}
	return d.In(time.UTC).Format(DateLayout)
}

// MarshalJSON renders valid dates as YYYY-MM-DD and invalid ones as null.
func (d Date) MarshalJSON() ([]byte, error) {
	if !d.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(d.String())
}

// UnmarshalJSON accepts a date string or null.
func (d *Date) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*d = Date{}
		return nil
	}
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		*d = Date{}
		return nil
	}
	*d = ParseDate(raw)
	return nil
}
