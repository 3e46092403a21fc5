package dto

import "time"

// RegisterAttachmentRequest payload. The file body is stored elsewhere; this
// only allocates the stored name.
type RegisterAttachmentRequest struct {
	Tag       string `json:"tag"`
	Extension string `json:"extension"`
}

// AttachmentResponse metadata.
type AttachmentResponse struct {
	ID         int64      `json:"id"`
	TicketID   int64      `json:"ticket_id"`
	Tag        string     `json:"tag"`
	Extension  string     `json:"extension"`
	StoredName string     `json:"stored_name"`
	Sequence   int        `json:"sequence"`
	CreatedBy  int64      `json:"created_by"`
	CreatedAt  time.Time  `json:"created_at"`
	Active     bool       `json:"active"`
	DeletedAt  *time.Time `json:"deleted_at,omitempty"`
}

// AssignRequest payload.
type AssignRequest struct {
	UserID int64 `json:"user_id"`
}

// AssignmentResponse describes one assignee.
type AssignmentResponse struct {
	TicketID   int64     `json:"ticket_id"`
	UserID     int64     `json:"user_id"`
	AssignedBy int64     `json:"assigned_by"`
	AssignedAt time.Time `json:"assigned_at"`
}

// HolidayRequest payload; Date is YYYY-MM-DD.
type HolidayRequest struct {
	Date string `json:"date"`
	Name string `json:"name"`
}

// HolidayResponse describes one non-working date.
type HolidayResponse struct {
	Date string `json:"date"`
	Name string `json:"name,omitempty"`
}

// ElapsedResponse is the business time between two instants.
type ElapsedResponse struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
	Hours float64   `json:"hours"`
}

// DashboardSummaryResponse counts visible tickets.
type DashboardSummaryResponse struct {
	Total      int `json:"total"`
	New        int `json:"new"`
	InProgress int `json:"in_progress"`
	Completed  int `json:"completed"`
}

// CategoryBreakdownResponse is one category/month bucket.
type CategoryBreakdownResponse struct {
	CategoryID int64  `json:"category_id"`
	Month      string `json:"month"`
	Count      int    `json:"count"`
}
