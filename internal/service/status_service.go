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
	"github.com/spec-kit/helpdesk-service/internal/sla"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util"
)

// StatusService drives tickets through the workflow graph and keeps the
// status history.
type StatusService struct {
	tickets   repository.TicketRepository
	history   repository.TicketHistoryRepository
	tx        repository.TxManager
	calendars CalendarSource
	clock     clock.Clock
	logger    *zap.Logger
	visible   visibility
	events    publisher
}

// StatusDependencies bundles collaborators for the status service.
type StatusDependencies struct {
	TicketRepo     repository.TicketRepository
	HistoryRepo    repository.TicketHistoryRepository
	AssignmentRepo repository.AssignmentRepository
	TxManager      repository.TxManager
	Calendars      CalendarSource
	Dispatcher     events.Dispatcher
	Clock          clock.Clock
	Logger         *zap.Logger
}

// NewStatusService constructs the service.
func NewStatusService(deps StatusDependencies) *StatusService {
	logger := orNop(deps.Logger)
	c := orReal(deps.Clock)
	return &StatusService{
		tickets:   deps.TicketRepo,
		history:   deps.HistoryRepo,
		tx:        deps.TxManager,
		calendars: deps.Calendars,
		clock:     c,
		logger:    logger,
		visible:   visibility{tickets: deps.TicketRepo, assignments: deps.AssignmentRepo},
		events:    publisher{dispatcher: deps.Dispatcher, clock: c, logger: logger},
	}
}

// Transition moves a ticket to next. Checks run in order: visibility
// (NotFound), workflow graph (InvalidTransition), role gate (Forbidden). The
// status update and its history entry commit together or not at all.
func (s *StatusService) Transition(ctx context.Context, actor auth.Actor, ticketID int64, next domain.TicketStatus) (*domain.Ticket, error) {
	if !next.IsValid() {
		return nil, apperrors.NewValidationError("unknown ticket status", map[string]any{"target_status": int(next)})
	}

	ticket, err := s.visible.load(ctx, actor, ticketID)
	if err != nil {
		return nil, err
	}
	if !ticket.Status.CanTransitionTo(next) {
		return nil, apperrors.NewInvalidTransition("transition not allowed", map[string]any{
			"ticket_id":     ticket.ID,
			"status":        ticket.Status.String(),
			"target_status": next.String(),
		})
	}
	if err := auth.CanChangeStatus(actor, ticket, next); err != nil {
		return nil, err
	}

	cal, err := s.calendars.Calendar(ctx)
	if err != nil {
		return nil, upstream("load calendar", err)
	}

	previous := ticket.Status
	now := s.clock.Now()
	err = s.tx.WithinTx(ctx, func(txCtx context.Context) error {
		current, err := s.tickets.GetForUpdate(txCtx, ticket.ID)
		if err != nil {
			return err
		}
		if current.Status != previous || !current.Active {
			return apperrors.NewConflict("ticket changed concurrently", map[string]any{
				"ticket_id": ticket.ID,
				"status":    current.Status.String(),
			})
		}

		applyStatusChange(current, next, now, actor.UserID, cal)
		if err := s.tickets.Update(txCtx, current); err != nil {
			return err
		}
		if err := s.history.Append(txCtx, &domain.StatusHistoryEntry{
			TicketID:  current.ID,
			Status:    next,
			EnteredAt: now,
			ActorID:   actor.UserID,
		}); err != nil {
			return err
		}
		ticket = current
		return nil
	})
	if err != nil {
		return nil, upstream("change ticket status", err)
	}

	s.logger.Info("ticket status changed",
		zap.Int64("ticket_id", ticket.ID),
		zap.String("from", previous.String()),
		zap.String("to", next.String()),
		zap.Int64("actor_id", actor.UserID))
	s.events.publish(ctx, events.Event{
		Type:     events.EventTicketStatusChanged,
		TicketID: ticket.ID,
		ActorID:  actor.UserID,
		Payload:  events.TicketStatusChangedPayload{OldStatus: previous, NewStatus: next, CreatedBy: ticket.CreatedBy},
	})
	return ticket, nil
}

// History lists the status history of a visible ticket. When the current
// status has no entry yet, one is written with the read time and included.
func (s *StatusService) History(ctx context.Context, actor auth.Actor, ticketID int64) ([]domain.StatusHistoryEntry, error) {
	ticket, err := s.visible.load(ctx, actor, ticketID)
	if err != nil {
		return nil, err
	}

	entries, err := s.history.ListByTicket(ctx, ticket.ID)
	if err != nil {
		return nil, upstream("load history", err)
	}

	latest := domain.LatestEntry(entries)
	if latest == nil || latest.Status != ticket.Status {
		entry := domain.StatusHistoryEntry{
			TicketID:    ticket.ID,
			Status:      ticket.Status,
			EnteredAt:   s.clock.Now(),
			ActorID:     ticket.UpdatedBy,
			Synthesized: true,
		}
		if err := s.history.Append(ctx, &entry); err != nil {
			return nil, upstream("append history", err)
		}
		s.logger.Info("synthesized missing history entry",
			zap.Int64("ticket_id", ticket.ID),
			zap.String("status", ticket.Status.String()))
		entries = append(entries, entry)
	}
	if entries == nil {
		entries = []domain.StatusHistoryEntry{}
	}
	return entries, nil
}

// applyStatusChange updates status and the SLA fields that depend on it.
// OpenedAt is stamped the first time the ticket is opened and never moved.
func applyStatusChange(t *domain.Ticket, next domain.TicketStatus, now time.Time, actorID int64, cal sla.Calendar) {
	t.Status = next
	t.UpdatedBy = actorID
	t.UpdatedAt = now

	if next == domain.TicketStatusOpen && t.OpenedAt == nil {
		opened := now
		t.OpenedAt = &opened
	}
	if t.DueAt != nil {
		t.EstimateHours = sla.EstimateHours(t, cal)
	}
	if next == domain.TicketStatusCompleted {
		completed := now
		t.CompletedAt = &completed
		t.LeadHours = sla.LeadHours(t, cal)
	}
}
