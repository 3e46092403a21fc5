package sla

import (
	"errors"
	"math"
	"time"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// MaxSpanYears bounds the intervals callers may submit for calculation.
const MaxSpanYears = 10

// ErrSpanTooLong is returned by CheckHorizon.
var ErrSpanTooLong = errors.New("interval exceeds the calculation horizon")

// CheckHorizon rejects intervals longer than MaxSpanYears in either direction.
func CheckHorizon(start, end time.Time) error {
	if end.After(start.AddDate(MaxSpanYears, 0, 0)) || start.After(end.AddDate(MaxSpanYears, 0, 0)) {
		return ErrSpanTooLong
	}
	return nil
}

// ElapsedBusinessHours returns the business hours between start and end,
// rounded to two decimals. Non-positive intervals yield 0.
func ElapsedBusinessHours(start, end time.Time, cal Calendar) float64 {
	if !end.After(start) {
		return 0
	}
	loc := cal.location()
	start, end = start.In(loc), end.In(loc)

	// Summed per day in hours; a Duration total overflows after ~290 years.
	var total float64
	day := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, loc)
	for day.Before(end) {
		if cal.IsWorkingDay(day) {
			total += cal.dayContribution(day, start, end).Hours()
		}
		day = day.AddDate(0, 0, 1)
	}
	return roundHours(total)
}

// dayContribution clips [start, end) to the work window of day and applies
// the lunch deduction at most once.
func (c Calendar) dayContribution(day, start, end time.Time) time.Duration {
	from := c.WorkStart.on(day)
	to := c.WorkEnd.on(day)
	if start.After(from) {
		from = start
	}
	if end.Before(to) {
		to = end
	}
	if !to.After(from) {
		return 0
	}
	span := to.Sub(from)
	if span > c.lunchThreshold() {
		span -= c.LunchBreak
		if span < 0 {
			span = 0
		}
	}
	return span
}

func roundHours(h float64) float64 {
	return math.Round(h*100) / 100
}

// EstimateHours is the business time from the ticket becoming actionable to
// its projected close date. Nil when no due date is set.
func EstimateHours(t *domain.Ticket, cal Calendar) *float64 {
	if t == nil || t.DueAt == nil {
		return nil
	}
	hours := ElapsedBusinessHours(t.ActionableSince(), *t.DueAt, cal)
	return &hours
}

// LeadHours is the business time from the ticket becoming actionable to its
// completion. Nil until the ticket is completed.
func LeadHours(t *domain.Ticket, cal Calendar) *float64 {
	if t == nil || t.CompletedAt == nil {
		return nil
	}
	hours := ElapsedBusinessHours(t.ActionableSince(), *t.CompletedAt, cal)
	return &hours
}
