package domain

import "time"

// RestoreWindow is how long a soft-deleted ticket or attachment stays recoverable.
const RestoreWindow = 7 * 24 * time.Hour

// CanRestore reports whether a record deleted at deletedAt is still
// recoverable at now. A nil deletedAt means the record is not deleted.
func CanRestore(deletedAt *time.Time, now time.Time) bool {
	if deletedAt == nil {
		return false
	}
	return now.Sub(*deletedAt) < RestoreWindow
}

// RestoreDeadline returns the instant the restore window closes.
func RestoreDeadline(deletedAt time.Time) time.Time {
	return deletedAt.Add(RestoreWindow)
}

// PurgeCutoff returns the deletion timestamp before which records are
// permanently unrecoverable at now.
func PurgeCutoff(now time.Time) time.Time {
	return now.Add(-RestoreWindow)
}
