package service

import (
	"context"
	"strings"
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

const maxRatingComment = 1000

// TicketService coordinates ticket creation, edits and reads.
type TicketService struct {
	tickets   repository.TicketRepository
	history   repository.TicketHistoryRepository
	tx        repository.TxManager
	sequencer *Sequencer
	calendars CalendarSource
	clock     clock.Clock
	logger    *zap.Logger
	visible   visibility
	events    publisher
}

// TicketDependencies bundles repositories for ticket service.
type TicketDependencies struct {
	TicketRepo     repository.TicketRepository
	HistoryRepo    repository.TicketHistoryRepository
	AssignmentRepo repository.AssignmentRepository
	TxManager      repository.TxManager
	Sequencer      *Sequencer
	Calendars      CalendarSource
	Dispatcher     events.Dispatcher
	Clock          clock.Clock
	Logger         *zap.Logger
}

// TicketCreateInput describes ticket creation payload.
type TicketCreateInput struct {
	ProjectID  int64
	CategoryID int64
	Priority   domain.TicketPriority
	Issue      string
}

// TicketPatch lists editable fields; nil means unchanged.
type TicketPatch struct {
	ProjectID  *int64
	CategoryID *int64
	Priority   *domain.TicketPriority
	Issue      *string
}

// TicketListFilter describes listing filters applied within the caller's scope.
type TicketListFilter struct {
	ProjectID   *int64
	CategoryID  *int64
	Statuses    []domain.TicketStatus
	Priorities  []domain.TicketPriority
	SearchTerm  *string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
	Limit       int
	Offset      int
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	logger := orNop(deps.Logger)
	c := orReal(deps.Clock)
	return &TicketService{
		tickets:   deps.TicketRepo,
		history:   deps.HistoryRepo,
		tx:        deps.TxManager,
		sequencer: deps.Sequencer,
		calendars: deps.Calendars,
		clock:     c,
		logger:    logger,
		visible:   visibility{tickets: deps.TicketRepo, assignments: deps.AssignmentRepo},
		events:    publisher{dispatcher: deps.Dispatcher, clock: c, logger: logger},
	}
}

// Create files a new ticket in status Created with its first history entry.
func (s *TicketService) Create(ctx context.Context, actor auth.Actor, input TicketCreateInput) (*domain.Ticket, error) {
	if err := auth.CanCreateTicket(actor); err != nil {
		return nil, err
	}
	input.Issue = strings.TrimSpace(input.Issue)
	if input.Priority == "" {
		input.Priority = domain.TicketPriorityMedium
	}
	if err := validateTicketFields(input.ProjectID, input.CategoryID, input.Priority, input.Issue); err != nil {
		return nil, err
	}

	var ticket *domain.Ticket
	_, err := s.sequencer.Issue(ctx, func(txCtx context.Context, number string) error {
		now := s.clock.Now()
		ticket = &domain.Ticket{
			Number:     number,
			ProjectID:  input.ProjectID,
			CategoryID: input.CategoryID,
			Priority:   input.Priority,
			Status:     domain.TicketStatusCreated,
			Issue:      input.Issue,
			CreatedBy:  actor.UserID,
			UpdatedBy:  actor.UserID,
			CreatedAt:  now,
			UpdatedAt:  now,
			Active:     true,
		}
		if err := s.tickets.Create(txCtx, ticket); err != nil {
			return err
		}
		return s.history.Append(txCtx, &domain.StatusHistoryEntry{
			TicketID:  ticket.ID,
			Status:    domain.TicketStatusCreated,
			EnteredAt: now,
			ActorID:   actor.UserID,
		})
	})
	if err != nil {
		return nil, upstream("create ticket", err)
	}

	s.logger.Info("ticket created",
		zap.Int64("ticket_id", ticket.ID),
		zap.String("number", ticket.Number),
		zap.Int64("actor_id", actor.UserID))
	s.events.publish(ctx, events.Event{
		Type:     events.EventTicketCreated,
		TicketID: ticket.ID,
		ActorID:  actor.UserID,
		Payload: events.TicketCreatedPayload{
			Number:     ticket.Number,
			ProjectID:  ticket.ProjectID,
			CategoryID: ticket.CategoryID,
			Priority:   ticket.Priority,
		},
	})
	return ticket, nil
}

// Get returns a ticket visible to the actor.
func (s *TicketService) Get(ctx context.Context, actor auth.Actor, ticketID int64) (*domain.Ticket, error) {
	return s.visible.load(ctx, actor, ticketID)
}

// List returns one page of the tickets in the actor's scope plus the total.
func (s *TicketService) List(ctx context.Context, actor auth.Actor, filter TicketListFilter) ([]domain.Ticket, int, error) {
	scope := actor.Scope()
	if scope.IsNone() {
		return []domain.Ticket{}, 0, nil
	}
	items, total, err := s.tickets.List(ctx, scope, repository.TicketFilter{
		ProjectID:   filter.ProjectID,
		CategoryID:  filter.CategoryID,
		Statuses:    filter.Statuses,
		Priorities:  filter.Priorities,
		SearchTerm:  filter.SearchTerm,
		CreatedFrom: filter.CreatedFrom,
		CreatedTo:   filter.CreatedTo,
		Limit:       filter.Limit,
		Offset:      filter.Offset,
	})
	if err != nil {
		return nil, 0, upstream("list tickets", err)
	}
	if items == nil {
		items = []domain.Ticket{}
	}
	return items, total, nil
}

// edit runs apply against the row locked inside a transaction and writes the
// result. Gates belong in apply so they see the locked row: a transition that
// committed after the visibility read is never written back over.
func (s *TicketService) edit(ctx context.Context, actor auth.Actor, ticketID int64, op string, apply func(t *domain.Ticket) error) (*domain.Ticket, error) {
	if _, err := s.visible.load(ctx, actor, ticketID); err != nil {
		return nil, err
	}

	var ticket *domain.Ticket
	err := s.tx.WithinTx(ctx, func(txCtx context.Context) error {
		current, err := s.tickets.GetForUpdate(txCtx, ticketID)
		if err != nil {
			if repository.IsNoRows(err) {
				return apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
			}
			return err
		}
		if !current.Active {
			return apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
		}
		if err := apply(current); err != nil {
			return err
		}
		current.UpdatedBy = actor.UserID
		current.UpdatedAt = s.clock.Now()
		if err := s.tickets.Update(txCtx, current); err != nil {
			return err
		}
		ticket = current
		return nil
	})
	if err != nil {
		return nil, upstream(op, err)
	}
	return ticket, nil
}

// Update edits ticket fields while the workflow still allows it.
func (s *TicketService) Update(ctx context.Context, actor auth.Actor, ticketID int64, patch TicketPatch) (*domain.Ticket, error) {
	return s.edit(ctx, actor, ticketID, "update ticket", func(ticket *domain.Ticket) error {
		if err := auth.CanEditTicket(actor, ticket); err != nil {
			return err
		}
		if patch.ProjectID != nil {
			ticket.ProjectID = *patch.ProjectID
		}
		if patch.CategoryID != nil {
			ticket.CategoryID = *patch.CategoryID
		}
		if patch.Priority != nil {
			ticket.Priority = *patch.Priority
		}
		if patch.Issue != nil {
			ticket.Issue = strings.TrimSpace(*patch.Issue)
		}
		return validateTicketFields(ticket.ProjectID, ticket.CategoryID, ticket.Priority, ticket.Issue)
	})
}

// SetResolution records the resolution text. Staff only, open tickets only.
func (s *TicketService) SetResolution(ctx context.Context, actor auth.Actor, ticketID int64, resolution string) (*domain.Ticket, error) {
	return s.edit(ctx, actor, ticketID, "update ticket", func(ticket *domain.Ticket) error {
		if err := auth.CanSetResolution(actor, ticket); err != nil {
			return err
		}
		ticket.Resolution = strings.TrimSpace(resolution)
		return nil
	})
}

// SetDueDate stores the projected close date and recomputes the estimate.
func (s *TicketService) SetDueDate(ctx context.Context, actor auth.Actor, ticketID int64, due time.Time) (*domain.Ticket, error) {
	if err := sla.CheckHorizon(s.clock.Now(), due); err != nil {
		return nil, apperrors.NewValidationError("due date out of range", map[string]any{
			"ticket_id": ticketID,
			"due_at":    due,
		})
	}
	cal, err := s.calendars.Calendar(ctx)
	if err != nil {
		return nil, upstream("load calendar", err)
	}

	return s.edit(ctx, actor, ticketID, "update ticket", func(ticket *domain.Ticket) error {
		if err := auth.CanSetDueDate(actor, ticket); err != nil {
			return err
		}
		if due.Before(ticket.ActionableSince()) {
			return apperrors.NewValidationError("due date precedes the ticket", map[string]any{
				"ticket_id": ticket.ID,
				"due_at":    due,
			})
		}
		ticket.DueAt = &due
		ticket.EstimateHours = sla.EstimateHours(ticket, cal)
		return nil
	})
}

// Rate records the creator's satisfaction score for a completed ticket.
func (s *TicketService) Rate(ctx context.Context, actor auth.Actor, ticketID int64, score int, comment string) (*domain.Ticket, error) {
	if score < 1 || score > 5 {
		return nil, apperrors.NewValidationError("rating must be between 1 and 5", map[string]any{"rating": score})
	}
	comment = strings.TrimSpace(comment)
	if len(comment) > maxRatingComment {
		return nil, apperrors.NewValidationError("rating comment too long", nil)
	}

	ticket, err := s.edit(ctx, actor, ticketID, "rate ticket", func(ticket *domain.Ticket) error {
		if err := auth.CanRate(actor, ticket); err != nil {
			return err
		}
		ticket.Rating = &score
		ticket.RatingComment = comment
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("ticket rated", zap.Int64("ticket_id", ticket.ID), zap.Int("rating", score))
	return ticket, nil
}

func validateTicketFields(projectID, categoryID int64, priority domain.TicketPriority, issue string) error {
	details := map[string]any{}
	if projectID <= 0 {
		details["project_id"] = "required"
	}
	if categoryID <= 0 {
		details["category_id"] = "required"
	}
	if !priority.IsValid() {
		details["priority"] = "must be LOW, MEDIUM or HIGH"
	}
	if issue == "" {
		details["issue"] = "required"
	}
	if len(details) > 0 {
		return apperrors.NewValidationError("invalid ticket", details)
	}
	return nil
}
