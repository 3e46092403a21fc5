package domain

import (
	"fmt"
	"strings"
	"time"
)

// AttachmentTag tells whether a file came with the issue or with its resolution.
type AttachmentTag string

const (
	AttachmentTagIssue      AttachmentTag = "issue"
	AttachmentTagResolution AttachmentTag = "resolution"
)

func (t AttachmentTag) IsValid() bool {
	return t == AttachmentTagIssue || t == AttachmentTagResolution
}

// Attachment stores metadata for a file bound to a ticket.
type Attachment struct {
	ID         int64
	TicketID   int64
	Tag        AttachmentTag
	Extension  string
	StoredName string
	Sequence   int
	CreatedBy  int64
	CreatedAt  time.Time
	Active     bool
	DeletedAt  *time.Time
}

// NormalizeExtension lowercases ext and strips a leading dot.
func NormalizeExtension(ext string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
}

// StoredFileName builds the on-disk name for the seq-th attachment of a tag.
func StoredFileName(ticketNumber string, tag AttachmentTag, seq int, ext string) string {
	name := fmt.Sprintf("%s_%s_%03d", ticketNumber, tag, seq)
	if ext = NormalizeExtension(ext); ext != "" {
		name += "." + ext
	}
	return name
}
