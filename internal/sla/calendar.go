// Package sla implements business-hours accounting against a working calendar.
// Everything here is pure: no I/O, no logging, no package-level clock.
package sla

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// ClockTime is a time of day expressed in minutes after midnight.
type ClockTime int

// NewClockTime builds a ClockTime from hours and minutes.
func NewClockTime(hour, minute int) ClockTime {
	return ClockTime(hour*60 + minute)
}

// ParseClockTime parses "HH:MM".
func ParseClockTime(raw string) (ClockTime, error) {
	parts := strings.Split(strings.TrimSpace(raw), ":")
	if len(parts) != 2 {
		return 0, fmt.Errorf("invalid clock time %q: want HH:MM", raw)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, fmt.Errorf("invalid clock time %q: bad hour", raw)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("invalid clock time %q: bad minute", raw)
	}
	return NewClockTime(hour, minute), nil
}

func (c ClockTime) Hour() int   { return int(c) / 60 }
func (c ClockTime) Minute() int { return int(c) % 60 }

func (c ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour(), c.Minute())
}

// on returns the instant c on the civil date of day, in day's location.
func (c ClockTime) on(day time.Time) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), c.Hour(), c.Minute(), 0, 0, day.Location())
}

// Calendar describes when work happens. The zero value has no working days;
// start from DefaultCalendar.
//
// A Calendar is not safe for concurrent mutation. Hand out Clone()s to readers.
type Calendar struct {
	WorkStart  ClockTime
	WorkEnd    ClockTime
	LunchBreak time.Duration
	// LunchThreshold is the per-day span that must be exceeded before the
	// lunch break is deducted.
	LunchThreshold time.Duration
	WorkingDays    map[time.Weekday]bool
	// SaturdayParity restricts working Saturdays to the 2nd and 4th of the month.
	SaturdayParity bool
	Location       *time.Location

	holidays map[string]struct{}
}

// DefaultCalendar returns 08:30-17:30, Monday to Saturday with Saturday
// parity, a one hour lunch break and no holidays, in UTC.
func DefaultCalendar() Calendar {
	return Calendar{
		WorkStart:      NewClockTime(8, 30),
		WorkEnd:        NewClockTime(17, 30),
		LunchBreak:     time.Hour,
		LunchThreshold: 4 * time.Hour,
		WorkingDays: map[time.Weekday]bool{
			time.Monday:    true,
			time.Tuesday:   true,
			time.Wednesday: true,
			time.Thursday:  true,
			time.Friday:    true,
			time.Saturday:  true,
		},
		SaturdayParity: true,
		Location:       time.UTC,
		holidays:       map[string]struct{}{},
	}
}

// Validate checks the calendar is usable.
func (c Calendar) Validate() error {
	if c.WorkEnd <= c.WorkStart {
		return fmt.Errorf("work end %s must be after work start %s", c.WorkEnd, c.WorkStart)
	}
	if c.LunchBreak < 0 {
		return fmt.Errorf("lunch break must not be negative")
	}
	return nil
}

// Clone returns a deep copy.
func (c Calendar) Clone() Calendar {
	out := c
	out.WorkingDays = make(map[time.Weekday]bool, len(c.WorkingDays))
	for day, ok := range c.WorkingDays {
		out.WorkingDays[day] = ok
	}
	out.holidays = make(map[string]struct{}, len(c.holidays))
	for key := range c.holidays {
		out.holidays[key] = struct{}{}
	}
	return out
}

// AddHoliday marks the civil date of date as non-working.
func (c *Calendar) AddHoliday(date time.Time) {
	if c.holidays == nil {
		c.holidays = map[string]struct{}{}
	}
	c.holidays[dateKey(date)] = struct{}{}
}

// RemoveHoliday unmarks the civil date of date. It reports whether the date
// was a holiday.
func (c *Calendar) RemoveHoliday(date time.Time) bool {
	key := dateKey(date)
	if _, ok := c.holidays[key]; !ok {
		return false
	}
	delete(c.holidays, key)
	return true
}

// SetHolidays replaces the whole holiday set.
func (c *Calendar) SetHolidays(dates []time.Time) {
	c.holidays = make(map[string]struct{}, len(dates))
	for _, date := range dates {
		c.holidays[dateKey(date)] = struct{}{}
	}
}

// Holidays returns the holiday dates in ascending order, at midnight UTC.
func (c Calendar) Holidays() []time.Time {
	out := make([]time.Time, 0, len(c.holidays))
	for key := range c.holidays {
		day, err := time.Parse(time.DateOnly, key)
		if err != nil {
			continue
		}
		out = append(out, day)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}

// IsHoliday matches the civil date of t; the time of day is ignored.
func (c Calendar) IsHoliday(t time.Time) bool {
	_, ok := c.holidays[dateKey(t.In(c.location()))]
	return ok
}

// IsWorkingDay reports whether the civil date of t contributes business hours.
func (c Calendar) IsWorkingDay(t time.Time) bool {
	day := t.In(c.location())
	if c.IsHoliday(day) {
		return false
	}
	weekday := day.Weekday()
	if !c.WorkingDays[weekday] {
		return false
	}
	if weekday == time.Saturday && c.SaturdayParity {
		return IsEvenSaturday(day)
	}
	return true
}

// IsEvenSaturday reports whether t falls on the 2nd or 4th Saturday of its
// month, i.e. ceil(day/7) is even.
func IsEvenSaturday(t time.Time) bool {
	if t.Weekday() != time.Saturday {
		return false
	}
	week := (t.Day() + 6) / 7
	return week%2 == 0
}

func (c Calendar) location() *time.Location {
	if c.Location == nil {
		return time.UTC
	}
	return c.Location
}

func (c Calendar) lunchThreshold() time.Duration {
	if c.LunchThreshold <= 0 {
		return 4 * time.Hour
	}
	return c.LunchThreshold
}

func dateKey(t time.Time) string {
	return t.Format(time.DateOnly)
}
