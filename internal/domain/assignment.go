package domain

import "time"

// Assignment links a ticket to a supporter responsible for it.
type Assignment struct {
	TicketID   int64
	UserID     int64
	AssignedBy int64
	AssignedAt time.Time
}
