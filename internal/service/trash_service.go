package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/auth"
	"github.com/spec-kit/helpdesk-service/internal/clock"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/events"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util"
)

// DeletedTicket is one entry of a user's trash. CanRestore is computed from
// the clock at read time.
type DeletedTicket struct {
	Ticket          domain.Ticket
	CanRestore      bool
	RestoreDeadline time.Time
}

// TrashService implements soft delete and restore for tickets and their
// attachments.
type TrashService struct {
	tickets     repository.TicketRepository
	attachments repository.AttachmentRepository
	clock       clock.Clock
	logger      *zap.Logger
	events      publisher
}

// TrashDependencies bundles collaborators for the trash service.
type TrashDependencies struct {
	TicketRepo     repository.TicketRepository
	AttachmentRepo repository.AttachmentRepository
	Dispatcher     events.Dispatcher
	Clock          clock.Clock
	Logger         *zap.Logger
}

// NewTrashService constructs the service.
func NewTrashService(deps TrashDependencies) *TrashService {
	logger := orNop(deps.Logger)
	c := orReal(deps.Clock)
	return &TrashService{
		tickets:     deps.TicketRepo,
		attachments: deps.AttachmentRepo,
		clock:       c,
		logger:      logger,
		events:      publisher{dispatcher: deps.Dispatcher, clock: c, logger: logger},
	}
}

func (s *TrashService) lookup(ctx context.Context, ticketID int64) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if repository.IsNoRows(err) {
			return nil, nil
		}
		return nil, apperrors.NewUpstreamFailure("load ticket", err)
	}
	return ticket, nil
}

// Delete soft-deletes the actor's own active ticket, then its attachments.
// Attachment failures are logged and never undo the ticket deletion.
func (s *TrashService) Delete(ctx context.Context, actor auth.Actor, ticketID int64) error {
	ticket, err := s.lookup(ctx, ticketID)
	if err != nil {
		return err
	}
	if err := auth.CanDeleteTicket(actor, ticket); err != nil {
		return err
	}

	now := s.clock.Now()
	if err := s.tickets.SoftDelete(ctx, ticket.ID, now); err != nil {
		if repository.IsNoRows(err) {
			return apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticket.ID})
		}
		return apperrors.NewUpstreamFailure("delete ticket", err)
	}

	deleted, failed := 0, 0
	attachments, err := s.attachments.ListByTicket(ctx, ticket.ID, false)
	if err != nil {
		s.logger.Error("list attachments for delete cascade", zap.Int64("ticket_id", ticket.ID), zap.Error(err))
	}
	for _, a := range attachments {
		if err := s.attachments.SoftDelete(ctx, a.ID, now); err != nil {
			failed++
			s.logger.Error("attachment delete failed",
				zap.Int64("ticket_id", ticket.ID),
				zap.Int64("attachment_id", a.ID),
				zap.Error(err))
			continue
		}
		deleted++
	}

	s.logger.Info("ticket deleted",
		zap.Int64("ticket_id", ticket.ID),
		zap.Int("attachments_deleted", deleted),
		zap.Int("attachments_failed", failed))
	s.events.publish(ctx, events.Event{
		Type:     events.EventTicketDeleted,
		TicketID: ticket.ID,
		ActorID:  actor.UserID,
		Payload:  events.TicketTrashPayload{Number: ticket.Number, AttachmentsAffected: deleted, AttachmentsFailed: failed},
	})
	return nil
}

// Restore brings back the actor's own deleted ticket inside the restore
// window. Attachments deleted together with or after the ticket are restored
// when their own window is still open.
func (s *TrashService) Restore(ctx context.Context, actor auth.Actor, ticketID int64) (*domain.Ticket, error) {
	ticket, err := s.lookup(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	now := s.clock.Now()
	if err := auth.CanRestoreTicket(actor, ticket, now); err != nil {
		return nil, err
	}

	deletedAt := *ticket.DeletedAt
	if err := s.tickets.Restore(ctx, ticket.ID, now); err != nil {
		if repository.IsNoRows(err) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticket.ID})
		}
		return nil, apperrors.NewUpstreamFailure("restore ticket", err)
	}
	ticket.Active = true
	ticket.DeletedAt = nil

	restored, failed := 0, 0
	attachments, err := s.attachments.ListByTicket(ctx, ticket.ID, true)
	if err != nil {
		s.logger.Error("list attachments for restore cascade", zap.Int64("ticket_id", ticket.ID), zap.Error(err))
	}
	for _, a := range attachments {
		if a.Active || a.DeletedAt == nil || a.DeletedAt.Before(deletedAt) || !domain.CanRestore(a.DeletedAt, now) {
			continue
		}
		if err := s.attachments.Restore(ctx, a.ID); err != nil {
			failed++
			s.logger.Error("attachment restore failed",
				zap.Int64("ticket_id", ticket.ID),
				zap.Int64("attachment_id", a.ID),
				zap.Error(err))
			continue
		}
		restored++
	}

	s.logger.Info("ticket restored",
		zap.Int64("ticket_id", ticket.ID),
		zap.Int("attachments_restored", restored),
		zap.Int("attachments_failed", failed))
	s.events.publish(ctx, events.Event{
		Type:     events.EventTicketRestored,
		TicketID: ticket.ID,
		ActorID:  actor.UserID,
		Payload:  events.TicketTrashPayload{Number: ticket.Number, AttachmentsAffected: restored, AttachmentsFailed: failed},
	})
	return ticket, nil
}

// ListDeleted returns the actor's deleted tickets, newest first.
func (s *TrashService) ListDeleted(ctx context.Context, actor auth.Actor) ([]DeletedTicket, error) {
	tickets, err := s.tickets.ListDeleted(ctx, actor.UserID)
	if err != nil {
		return nil, apperrors.NewUpstreamFailure("list deleted tickets", err)
	}

	now := s.clock.Now()
	result := make([]DeletedTicket, 0, len(tickets))
	for _, t := range tickets {
		entry := DeletedTicket{Ticket: t, CanRestore: domain.CanRestore(t.DeletedAt, now)}
		if t.DeletedAt != nil {
			entry.RestoreDeadline = domain.RestoreDeadline(*t.DeletedAt)
		}
		result = append(result, entry)
	}
	return result, nil
}

// ListExpired returns deleted tickets whose restore window has closed, for
// the retention sweeper.
func (s *TrashService) ListExpired(ctx context.Context) ([]domain.Ticket, error) {
	tickets, err := s.tickets.ListDeletedBefore(ctx, domain.PurgeCutoff(s.clock.Now()))
	if err != nil {
		return nil, apperrors.NewUpstreamFailure("list expired tickets", err)
	}
	if tickets == nil {
		tickets = []domain.Ticket{}
	}
	return tickets, nil
}

// ListExpiredAttachments is ListExpired for attachments.
func (s *TrashService) ListExpiredAttachments(ctx context.Context) ([]domain.Attachment, error) {
	attachments, err := s.attachments.ListDeletedBefore(ctx, domain.PurgeCutoff(s.clock.Now()))
	if err != nil {
		return nil, apperrors.NewUpstreamFailure("list expired attachments", err)
	}
	if attachments == nil {
		attachments = []domain.Attachment{}
	}
	return attachments, nil
}

// DeleteAttachment soft-deletes one attachment uploaded by the actor.
func (s *TrashService) DeleteAttachment(ctx context.Context, actor auth.Actor, attachmentID int64) error {
	attachment, err := s.lookupAttachment(ctx, attachmentID)
	if err != nil {
		return err
	}
	if err := auth.CanDeleteAttachment(actor, attachment); err != nil {
		return err
	}
	if err := s.attachments.SoftDelete(ctx, attachment.ID, s.clock.Now()); err != nil {
		if repository.IsNoRows(err) {
			return apperrors.NewNotFound("attachment", map[string]any{"attachment_id": attachment.ID})
		}
		return apperrors.NewUpstreamFailure("delete attachment", err)
	}
	s.logger.Info("attachment deleted", zap.Int64("attachment_id", attachment.ID), zap.Int64("ticket_id", attachment.TicketID))
	return nil
}

// RestoreAttachment restores one attachment inside its own window. The parent
// ticket must be active.
func (s *TrashService) RestoreAttachment(ctx context.Context, actor auth.Actor, attachmentID int64) (*domain.Attachment, error) {
	attachment, err := s.lookupAttachment(ctx, attachmentID)
	if err != nil {
		return nil, err
	}
	now := s.clock.Now()
	if err := auth.CanRestoreAttachment(actor, attachment, now); err != nil {
		return nil, err
	}

	parent, err := s.lookup(ctx, attachment.TicketID)
	if err != nil {
		return nil, err
	}
	if parent == nil || !parent.Active {
		return nil, apperrors.NewConflict("restore the ticket first", map[string]any{
			"attachment_id": attachment.ID,
			"ticket_id":     attachment.TicketID,
		})
	}

	if err := s.attachments.Restore(ctx, attachment.ID); err != nil {
		if repository.IsNoRows(err) {
			return nil, apperrors.NewNotFound("attachment", map[string]any{"attachment_id": attachment.ID})
		}
		return nil, apperrors.NewUpstreamFailure("restore attachment", err)
	}
	attachment.Active = true
	attachment.DeletedAt = nil
	s.logger.Info("attachment restored", zap.Int64("attachment_id", attachment.ID), zap.Int64("ticket_id", attachment.TicketID))
	return attachment, nil
}

func (s *TrashService) lookupAttachment(ctx context.Context, attachmentID int64) (*domain.Attachment, error) {
	attachment, err := s.attachments.GetByID(ctx, attachmentID)
	if err != nil {
		if repository.IsNoRows(err) {
			return nil, nil
		}
		return nil, apperrors.NewUpstreamFailure("load attachment", err)
	}
	return attachment, nil
}
