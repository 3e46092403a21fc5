package dto

import (
	"time"
)

// CreateTicketRequest payload.
type CreateTicketRequest struct {
	ProjectID  int64  `json:"project_id"`
	CategoryID int64  `json:"category_id"`
	Priority   string `json:"priority"`
	Issue      string `json:"issue"`
}

// UpdateTicketRequest lists editable fields; omitted fields stay unchanged.
type UpdateTicketRequest struct {
	ProjectID  *int64  `json:"project_id"`
	CategoryID *int64  `json:"category_id"`
	Priority   *string `json:"priority"`
	Issue      *string `json:"issue"`
}

// TransitionRequest accepts a status name (OPEN_TICKET) or number (2).
type TransitionRequest struct {
	Status string `json:"status"`
}

// DueDateRequest payload.
type DueDateRequest struct {
	DueAt time.Time `json:"due_at"`
}

// ResolutionRequest payload.
type ResolutionRequest struct {
	Resolution string `json:"resolution"`
}

// RatingRequest payload.
type RatingRequest struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

// TicketResponse is the full ticket view.
type TicketResponse struct {
	ID            int64      `json:"id"`
	Number        string     `json:"number"`
	ProjectID     int64      `json:"project_id"`
	CategoryID    int64      `json:"category_id"`
	Priority      string     `json:"priority"`
	Status        string     `json:"status"`
	StatusID      int        `json:"status_id"`
	Issue         string     `json:"issue"`
	Resolution    string     `json:"resolution,omitempty"`
	CreatedBy     int64      `json:"created_by"`
	UpdatedBy     int64      `json:"updated_by"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
	OpenedAt      *time.Time `json:"opened_at,omitempty"`
	DueAt         *time.Time `json:"due_at,omitempty"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`
	EstimateHours *float64   `json:"estimate_hours,omitempty"`
	LeadHours     *float64   `json:"lead_hours,omitempty"`
	Rating        *int       `json:"rating,omitempty"`
	RatingComment string     `json:"rating_comment,omitempty"`
}

// TicketListResponse is one page of tickets.
type TicketListResponse struct {
	Items    []TicketResponse `json:"items"`
	Total    int              `json:"total"`
	Page     int              `json:"page"`
	PageSize int              `json:"page_size"`
}

// HistoryEntryResponse is one status history row.
type HistoryEntryResponse struct {
	ID          int64     `json:"id"`
	Status      string    `json:"status"`
	EnteredAt   time.Time `json:"entered_at"`
	ActorID     int64     `json:"actor_id"`
	Synthesized bool      `json:"synthesized,omitempty"`
}

// DeletedTicketResponse is one trash entry.
type DeletedTicketResponse struct {
	ID              int64     `json:"id"`
	Number          string    `json:"number"`
	Issue           string    `json:"issue"`
	DeletedAt       time.Time `json:"deleted_at"`
	CanRestore      bool      `json:"can_restore"`
	RestoreDeadline time.Time `json:"restore_deadline"`
}
