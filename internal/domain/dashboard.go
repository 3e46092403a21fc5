package domain

import "time"

// DashboardSummary counts the tickets visible to one user.
type DashboardSummary struct {
	Total      int
	New        int
	InProgress int
	Completed  int
}

// CategoryBreakdown is one category/month bucket of visible tickets.
type CategoryBreakdown struct {
	CategoryID int64
	Month      string // YYYY-MM
	Count      int
}

// Holiday is a non-working calendar date.
type Holiday struct {
	Date time.Time
	Name string
}
