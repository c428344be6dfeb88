// Package market implements trading-calendar arithmetic. Weekends are the
// only non-trading days; there is no holiday calendar. That is a documented
// limitation carried over from the notification schedule this calendar
// serves, not a bug.
package market

import (
	"fmt"
	"time"
)

// Calendar decides whether a wall-clock instant falls within trading hours.
type Calendar struct {
	location    *time.Location
	openMinute  int
	closeMinute int
}

// NewCalendar builds a calendar for the given location and "HH:MM" open and
// close bounds.
func NewCalendar(location *time.Location, openTime, closeTime string) (*Calendar, error) {
	openMinute, err := parseMinuteOfDay(openTime)
	if err != nil {
		return nil, fmt.Errorf("invalid market open time: %w", err)
	}
	closeMinute, err := parseMinuteOfDay(closeTime)
	if err != nil {
		return nil, fmt.Errorf("invalid market close time: %w", err)
	}
	if location == nil {
		location = time.UTC
	}
	return &Calendar{
		location:    location,
		openMinute:  openMinute,
		closeMinute: closeMinute,
	}, nil
}

// Location returns the calendar's time zone.
func (c *Calendar) Location() *time.Location {
	return c.location
}

// IsOpen reports whether now falls Monday-Friday with its local time of day
// within the open/close bounds, inclusive on both ends.
func (c *Calendar) IsOpen(now time.Time) bool {
	local := now.In(c.location)
	if isWeekend(local) {
		return false
	}
	minute := local.Hour()*60 + local.Minute()
	return minute >= c.openMinute && minute <= c.closeMinute
}

// PreviousTradingDay steps back one calendar day at a time until the result
// is not a Saturday or Sunday.
func PreviousTradingDay(date time.Time) time.Time {
	d := date.AddDate(0, 0, -1)
	for isWeekend(d) {
		d = d.AddDate(0, 0, -1)
	}
	return d
}

// TradingDaysBack steps backward one calendar day at a time, counting only
// weekdays, until n trading days have been counted.
func TradingDaysBack(date time.Time, n int) time.Time {
	d := date
	for counted := 0; counted < n; {
		d = d.AddDate(0, 0, -1)
		if !isWeekend(d) {
			counted++
		}
	}
	return d
}

func isWeekend(d time.Time) bool {
	wd := d.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

func parseMinuteOfDay(value string) (int, error) {
	t, err := time.Parse("15:04", value)
	if err != nil {
		return 0, fmt.Errorf("expected HH:MM, got %q: %w", value, err)
	}
	return t.Hour()*60 + t.Minute(), nil
}
