package service

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/auth"
	"github.com/spec-kit/helpdesk-service/internal/clock"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/events"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	"github.com/spec-kit/helpdesk-service/internal/sla"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util"
)

// CalendarSource yields the effective working calendar.
type CalendarSource interface {
	Calendar(ctx context.Context) (sla.Calendar, error)
}

// visibility resolves single-ticket reads through the caller's scope.
type visibility struct {
	tickets     repository.TicketRepository
	assignments repository.AssignmentRepository
}

// load returns the ticket if the actor's scope covers it. Tickets outside the
// scope, soft-deleted tickets and missing tickets all surface as NotFound. An
// empty scope returns before touching the repository.
func (v visibility) load(ctx context.Context, actor auth.Actor, ticketID int64) (*domain.Ticket, error) {
	notFound := apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})

	scope := actor.Scope()
	if scope.IsNone() {
		return nil, notFound
	}

	ticket, err := v.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if repository.IsNoRows(err) {
			return nil, notFound
		}
		return nil, apperrors.NewUpstreamFailure("load ticket", err)
	}

	assigned := false
	if scope.Kind == auth.ScopeAssigned && ticket.Active {
		assigned, err = v.assignments.IsAssigned(ctx, ticketID, actor.UserID)
		if err != nil {
			return nil, apperrors.NewUpstreamFailure("load assignments", err)
		}
	}
	if !scope.Permits(ticket, assigned) {
		return nil, notFound
	}
	return ticket, nil
}

// publisher stamps and publishes events after commit. Handler failures are
// logged and never reach the caller.
type publisher struct {
	dispatcher events.Dispatcher
	clock      clock.Clock
	logger     *zap.Logger
}

func (p publisher) publish(ctx context.Context, event events.Event) {
	if p.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = p.clock.Now()
	}
	if err := p.dispatcher.Publish(ctx, event); err != nil {
		p.logger.Warn("event handler failed",
			zap.String("event_type", string(event.Type)),
			zap.Int64("ticket_id", event.TicketID),
			zap.Error(err))
	}
}

// upstream wraps err unless it already is a DomainError.
func upstream(message string, err error) error {
	if err == nil {
		return nil
	}
	if apperrors.CodeOf(err) != "" {
		return err
	}
	return apperrors.NewUpstreamFailure(message, err)
}

func orNop(logger *zap.Logger) *zap.Logger {
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}

func orReal(c clock.Clock) clock.Clock {
	if c == nil {
		return clock.Real()
	}
	return c
}
