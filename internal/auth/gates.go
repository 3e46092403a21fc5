package auth

import (
	"time"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util"
)

// One gate per operation. Gates only look at the actor and the record; the
// workflow graph is checked separately by domain.TicketStatus.

func ticketDetails(actor Actor, t *domain.Ticket) map[string]any {
	details := map[string]any{"actor_id": actor.UserID}
	if t != nil {
		details["ticket_id"] = t.ID
		details["status"] = t.Status.String()
	}
	return details
}

// CanCreateTicket allows reporters and administrators to file tickets.
func CanCreateTicket(actor Actor) error {
	if actor.Can(CapCreatorScope) || actor.Can(CapAdministerTickets) {
		return nil
	}
	return apperrors.NewForbidden("role may not create tickets", map[string]any{"actor_id": actor.UserID})
}

// CanChangeStatus is the role gate for status transitions. Viewers never pass;
// holders of CapTransitionStatus always do; reporters may only cancel tickets
// they created.
func CanChangeStatus(actor Actor, t *domain.Ticket, next domain.TicketStatus) error {
	details := ticketDetails(actor, t)
	details["target_status"] = next.String()

	if actor.Can(CapTransitionStatus) {
		return nil
	}
	if actor.Can(CapCancelOwnTicket) {
		if next == domain.TicketStatusCancelled && t != nil && t.CreatedBy == actor.UserID {
			return nil
		}
		return apperrors.NewForbidden("role may only cancel its own tickets", details)
	}
	return apperrors.NewForbidden("role may not change ticket status", details)
}

// CanEditTicket allows field edits while the ticket is Created (creator or
// staff) or OpenTicket (administrators only).
func CanEditTicket(actor Actor, t *domain.Ticket) error {
	details := ticketDetails(actor, t)
	switch t.Status {
	case domain.TicketStatusCreated:
		if t.CreatedBy == actor.UserID || actor.IsStaff() {
			return nil
		}
		return apperrors.NewForbidden("role may not edit this ticket", details)
	case domain.TicketStatusOpen:
		if actor.Can(CapAdministerTickets) {
			return nil
		}
		return apperrors.NewForbidden("only administrators may edit an open ticket", details)
	}
	return apperrors.NewForbidden("ticket can no longer be edited in status "+t.Status.String(), details)
}

// CanDeleteTicket allows the creator to soft-delete an active ticket. Missing,
// foreign and already deleted tickets are all reported as not found.
func CanDeleteTicket(actor Actor, t *domain.Ticket) error {
	if t == nil || t.CreatedBy != actor.UserID || !t.Active {
		return notFoundTicket(t)
	}
	if !actor.Can(CapDeleteTicket) {
		return apperrors.NewForbidden("role may not delete tickets", ticketDetails(actor, t))
	}
	return nil
}

// CanRestoreTicket allows the creator to restore a deleted ticket inside the
// restore window.
func CanRestoreTicket(actor Actor, t *domain.Ticket, now time.Time) error {
	if t == nil || t.CreatedBy != actor.UserID || t.Active {
		return notFoundTicket(t)
	}
	if !actor.Can(CapRestoreTicket) {
		return apperrors.NewForbidden("role may not restore tickets", ticketDetails(actor, t))
	}
	if !domain.CanRestore(t.DeletedAt, now) {
		details := ticketDetails(actor, t)
		if t.DeletedAt != nil {
			details["deleted_at"] = *t.DeletedAt
			details["restore_deadline"] = domain.RestoreDeadline(*t.DeletedAt)
		}
		return apperrors.NewExpired("restore window has expired", details)
	}
	return nil
}

// CanManageAssignments guards assigning supporters to tickets.
func CanManageAssignments(actor Actor) error {
	if actor.Can(CapAdministerTickets) {
		return nil
	}
	return apperrors.NewForbidden("role may not manage assignments", map[string]any{"actor_id": actor.UserID})
}

// CanManageCalendar guards holiday administration.
func CanManageCalendar(actor Actor) error {
	if actor.Can(CapManageCalendar) {
		return nil
	}
	return apperrors.NewForbidden("role may not manage the working calendar", map[string]any{"actor_id": actor.UserID})
}

// CanSetDueDate lets staff set the projected close date of an open ticket.
func CanSetDueDate(actor Actor, t *domain.Ticket) error {
	if !actor.IsStaff() {
		return apperrors.NewForbidden("role may not set due dates", ticketDetails(actor, t))
	}
	if t.Status.IsTerminal() {
		return apperrors.NewValidationError("ticket is closed", ticketDetails(actor, t))
	}
	return nil
}

// CanSetResolution lets staff record how a ticket was fixed while it is still
// in the workflow.
func CanSetResolution(actor Actor, t *domain.Ticket) error {
	if !actor.IsStaff() {
		return apperrors.NewForbidden("role may not record resolutions", ticketDetails(actor, t))
	}
	if t.Status.IsTerminal() {
		return apperrors.NewValidationError("ticket is closed", ticketDetails(actor, t))
	}
	return nil
}

// CanRate lets the creator rate a completed ticket once.
func CanRate(actor Actor, t *domain.Ticket) error {
	details := ticketDetails(actor, t)
	if t.CreatedBy != actor.UserID {
		return apperrors.NewForbidden("only the creator may rate a ticket", details)
	}
	if t.Status != domain.TicketStatusCompleted {
		return apperrors.NewValidationError("only completed tickets can be rated", details)
	}
	if t.Rating != nil {
		return apperrors.NewConflict("ticket already rated", details)
	}
	return nil
}

// CanAttach checks who may add files: issue files come from the creator or an
// administrator, resolution files from staff.
func CanAttach(actor Actor, t *domain.Ticket, tag domain.AttachmentTag) error {
	details := ticketDetails(actor, t)
	details["tag"] = string(tag)
	switch tag {
	case domain.AttachmentTagIssue:
		if t.CreatedBy == actor.UserID || actor.Can(CapAdministerTickets) {
			return nil
		}
	case domain.AttachmentTagResolution:
		if actor.IsStaff() {
			return nil
		}
	default:
		return apperrors.NewValidationError("invalid attachment tag", details)
	}
	return apperrors.NewForbidden("role may not add "+string(tag)+" attachments", details)
}

// CanDeleteAttachment allows the uploader to soft-delete an active attachment.
func CanDeleteAttachment(actor Actor, a *domain.Attachment) error {
	if a == nil || a.CreatedBy != actor.UserID || !a.Active {
		return notFoundAttachment(a)
	}
	return nil
}

// CanRestoreAttachment allows the uploader to restore an attachment inside
// its own restore window.
func CanRestoreAttachment(actor Actor, a *domain.Attachment, now time.Time) error {
	if a == nil || a.CreatedBy != actor.UserID || a.Active {
		return notFoundAttachment(a)
	}
	if !domain.CanRestore(a.DeletedAt, now) {
		return apperrors.NewExpired("restore window has expired", map[string]any{
			"attachment_id": a.ID,
			"actor_id":      actor.UserID,
		})
	}
	return nil
}

func notFoundTicket(t *domain.Ticket) error {
	details := map[string]any{}
	if t != nil {
		details["ticket_id"] = t.ID
	}
	return apperrors.NewNotFound("ticket", details)
}

func notFoundAttachment(a *domain.Attachment) error {
	details := map[string]any{}
	if a != nil {
		details["attachment_id"] = a.ID
	}
	return apperrors.NewNotFound("attachment", details)
}
