package domain

import "time"

// StatusHistoryEntry records one status a ticket occupied. Entries are
// append-only.
type StatusHistoryEntry struct {
	ID        int64
	TicketID  int64
	Status    TicketStatus
	EnteredAt time.Time
	ActorID   int64
	// Synthesized marks an entry written lazily by a history read because
	// the ticket's current status had no entry yet.
	Synthesized bool
}

// LatestEntry returns the most recent entry, or nil for an empty history.
func LatestEntry(entries []StatusHistoryEntry) *StatusHistoryEntry {
	if len(entries) == 0 {
		return nil
	}
	latest := &entries[0]
	for i := range entries[1:] {
		e := &entries[i+1]
		if e.EnteredAt.After(latest.EnteredAt) || (e.EnteredAt.Equal(latest.EnteredAt) && e.ID > latest.ID) {
			latest = e
		}
	}
	return latest
}
