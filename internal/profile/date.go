package profile

import (
	"fmt"
	"strings"
	"time"
)

// CurrentMarker is the end date value for an ongoing interval.
const CurrentMarker = "current"

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02",
	"2006-01",
	"2006",
}

// Date is a calendar date that may also mean "current" (still ongoing).
// All values are in UTC.
type Date struct {
	t       time.Time
	current bool
}

// NewDate returns the first day of the given month.
func NewDate(year int, month time.Month) Date {
	return Date{t: time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to a UTC calendar day.
func DateOf(t time.Time) Date {
	t = t.UTC()
	return Date{t: time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)}
}

// Current returns the ongoing marker.
func Current() Date {
	return Date{current: true}
}

// ParseDate accepts "current", RFC3339, YYYY-MM-DD, YYYY-MM and YYYY. An
// empty string yields the zero Date.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	switch {
	case s == "":
		return Date{}, nil
	case strings.EqualFold(s, CurrentMarker):
		return Current(), nil
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return DateOf(t), nil
		}
	}
	return Date{}, fmt.Errorf("invalid date %q: want YYYY-MM-DD or %q", s, CurrentMarker)
}

// MustDate is ParseDate for literals known to be valid.
func MustDate(s string) Date {
	d, err := ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

func (d Date) IsCurrent() bool { return d.current }

// IsZero reports an unset date. The current marker is not zero.
func (d Date) IsZero() bool { return !d.current && d.t.IsZero() }

// Resolve returns the point in time, substituting now for the current marker.
func (d Date) Resolve(now time.Time) time.Time {
	if d.current {
		return now.UTC()
	}
	return d.t
}

func (d Date) String() string {
	switch {
	case d.current:
		return CurrentMarker
	case d.t.IsZero():
		return ""
	default:
		return d.t.Format("2006-01-02")
	}
}

func (d Date) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Date) UnmarshalText(text []byte) error {
	parsed, err := ParseDate(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// MonthsBetween counts calendar months from a to b ignoring days. It is
// negative when b is before a.
func MonthsBetween(a, b time.Time) int {
	a, b = a.UTC(), b.UTC()
	return (b.Year()-a.Year())*12 + int(b.Month()) - int(a.Month())
}

// MonthIndex numbers months continuously across years.
func MonthIndex(t time.Time) int {
	t = t.UTC()
	return t.Year()*12 + int(t.Month()) - 1
}
