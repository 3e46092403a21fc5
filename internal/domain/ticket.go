package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// TicketStatus enumerates lifecycle states for tickets. Values are persisted.
type TicketStatus int

const (
	TicketStatusCreated TicketStatus = iota + 1
	TicketStatusOpen
	TicketStatusInProgress
	TicketStatusResolved
	TicketStatusCompleted
	TicketStatusCancelled
)

var ticketStatusNames = map[TicketStatus]string{
	TicketStatusCreated:    "CREATED",
	TicketStatusOpen:       "OPEN_TICKET",
	TicketStatusInProgress: "IN_PROGRESS",
	TicketStatusResolved:   "RESOLVED",
	TicketStatusCompleted:  "COMPLETED",
	TicketStatusCancelled:  "CANCELLED",
}

// AllTicketStatuses lists every status in workflow order.
func AllTicketStatuses() []TicketStatus {
	return []TicketStatus{
		TicketStatusCreated,
		TicketStatusOpen,
		TicketStatusInProgress,
		TicketStatusResolved,
		TicketStatusCompleted,
		TicketStatusCancelled,
	}
}

func (s TicketStatus) String() string {
	if name, ok := ticketStatusNames[s]; ok {
		return name
	}
	return "UNKNOWN(" + strconv.Itoa(int(s)) + ")"
}

func (s TicketStatus) IsValid() bool {
	_, ok := ticketStatusNames[s]
	return ok
}

// IsTerminal reports whether no transition may leave s.
func (s TicketStatus) IsTerminal() bool {
	return s == TicketStatusCompleted || s == TicketStatusCancelled
}

// CanTransitionTo applies the workflow graph: any non-terminal state may move
// to any other state, except that a resolved ticket may only be completed or
// reopened.
func (s TicketStatus) CanTransitionTo(next TicketStatus) bool {
	if !s.IsValid() || !next.IsValid() || s.IsTerminal() || s == next {
		return false
	}
	if s == TicketStatusResolved {
		return next == TicketStatusCompleted || next == TicketStatusInProgress
	}
	return true
}

// CanTransition is the package-level form of TicketStatus.CanTransitionTo.
func CanTransition(from, to TicketStatus) bool {
	return from.CanTransitionTo(to)
}

// ParseTicketStatus accepts either the numeric id or the status name.
func ParseTicketStatus(raw string) (TicketStatus, error) {
	raw = strings.TrimSpace(raw)
	if n, err := strconv.Atoi(raw); err == nil {
		status := TicketStatus(n)
		if !status.IsValid() {
			return 0, fmt.Errorf("invalid ticket status: %s", raw)
		}
		return status, nil
	}
	upper := strings.ToUpper(raw)
	for status, name := range ticketStatusNames {
		if name == upper {
			return status, nil
		}
	}
	return 0, fmt.Errorf("invalid ticket status: %s", raw)
}

// TicketPriority enumerates SLA urgency.
type TicketPriority string

const (
	TicketPriorityLow    TicketPriority = "LOW"
	TicketPriorityMedium TicketPriority = "MEDIUM"
	TicketPriorityHigh   TicketPriority = "HIGH"
)

func (p TicketPriority) IsValid() bool {
	switch p {
	case TicketPriorityLow, TicketPriorityMedium, TicketPriorityHigh:
		return true
	}
	return false
}

// Ticket is the aggregate for support requests.
type Ticket struct {
	ID         int64
	Number     string
	ProjectID  int64
	CategoryID int64
	Priority   TicketPriority
	Status     TicketStatus
	Issue      string
	Resolution string
	CreatedBy  int64
	UpdatedBy  int64
	CreatedAt  time.Time
	UpdatedAt  time.Time

	Active    bool
	DeletedAt *time.Time

	// SLA accounting. OpenedAt is set the first time the ticket becomes
	// actionable and is never moved afterwards.
	OpenedAt      *time.Time
	DueAt         *time.Time
	CompletedAt   *time.Time
	EstimateHours *float64
	LeadHours     *float64

	Rating        *int
	RatingComment string
}

// ActionableSince returns when business-hours accounting starts for t.
func (t *Ticket) ActionableSince() time.Time {
	if t.OpenedAt != nil {
		return *t.OpenedAt
	}
	return t.CreatedAt
}
