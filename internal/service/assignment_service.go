package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/auth"
	"github.com/spec-kit/helpdesk-service/internal/clock"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/events"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util"
)

// AssignmentService handles ticket assignment operations. Assignment rows are
// what the assigned-tickets scope matches on.
type AssignmentService struct {
	assignments repository.AssignmentRepository
	permissions auth.PermissionLookup
	clock       clock.Clock
	logger      *zap.Logger
	visible     visibility
	events      publisher
}

// AssignmentDependencies bundles repositories.
type AssignmentDependencies struct {
	TicketRepo     repository.TicketRepository
	AssignmentRepo repository.AssignmentRepository
	Permissions    auth.PermissionLookup
	Dispatcher     events.Dispatcher
	Clock          clock.Clock
	Logger         *zap.Logger
}

// NewAssignmentService creates the service.
func NewAssignmentService(deps AssignmentDependencies) *AssignmentService {
	logger := orNop(deps.Logger)
	c := orReal(deps.Clock)
	return &AssignmentService{
		assignments: deps.AssignmentRepo,
		permissions: deps.Permissions,
		clock:       c,
		logger:      logger,
		visible:     visibility{tickets: deps.TicketRepo, assignments: deps.AssignmentRepo},
		events:      publisher{dispatcher: deps.Dispatcher, clock: c, logger: logger},
	}
}

// Assign makes assigneeID responsible for the ticket. The assignee must be
// able to work tickets. Assigning twice is a no-op.
func (s *AssignmentService) Assign(ctx context.Context, actor auth.Actor, ticketID, assigneeID int64) (*domain.Assignment, error) {
	if err := auth.CanManageAssignments(actor); err != nil {
		return nil, err
	}
	ticket, err := s.visible.load(ctx, actor, ticketID)
	if err != nil {
		return nil, err
	}
	if ticket.Status.IsTerminal() {
		return nil, apperrors.NewConflict("ticket is closed", map[string]any{
			"ticket_id": ticket.ID,
			"status":    ticket.Status.String(),
		})
	}

	perms, err := s.permissions.PermissionsForUser(ctx, assigneeID)
	if err != nil {
		return nil, apperrors.NewUpstreamFailure("load assignee permissions", err)
	}
	if !perms.Has(auth.CapTransitionStatus) {
		return nil, apperrors.NewValidationError("assignee cannot work tickets", map[string]any{"assignee_id": assigneeID})
	}

	assignment := &domain.Assignment{
		TicketID:   ticket.ID,
		UserID:     assigneeID,
		AssignedBy: actor.UserID,
		AssignedAt: s.clock.Now(),
	}
	created, err := s.assignments.Assign(ctx, assignment)
	if err != nil {
		return nil, apperrors.NewUpstreamFailure("assign ticket", err)
	}
	if !created {
		return assignment, nil
	}

	s.logger.Info("ticket assigned",
		zap.Int64("ticket_id", ticket.ID),
		zap.Int64("assignee_id", assigneeID),
		zap.Int64("actor_id", actor.UserID))
	s.events.publish(ctx, events.Event{
		Type:     events.EventTicketAssigned,
		TicketID: ticket.ID,
		ActorID:  actor.UserID,
		Payload:  events.TicketAssignedPayload{AssigneeID: assigneeID, Assigned: true},
	})
	return assignment, nil
}

// Unassign removes an assignment.
func (s *AssignmentService) Unassign(ctx context.Context, actor auth.Actor, ticketID, assigneeID int64) error {
	if err := auth.CanManageAssignments(actor); err != nil {
		return err
	}
	ticket, err := s.visible.load(ctx, actor, ticketID)
	if err != nil {
		return err
	}
	if err := s.assignments.Unassign(ctx, ticket.ID, assigneeID); err != nil {
		if repository.IsNoRows(err) {
			return apperrors.NewNotFound("assignment", map[string]any{"ticket_id": ticket.ID, "assignee_id": assigneeID})
		}
		return apperrors.NewUpstreamFailure("unassign ticket", err)
	}

	s.events.publish(ctx, events.Event{
		Type:     events.EventTicketAssigned,
		TicketID: ticket.ID,
		ActorID:  actor.UserID,
		Payload:  events.TicketAssignedPayload{AssigneeID: assigneeID, Assigned: false},
	})
	return nil
}

// List returns the assignments of a visible ticket.
func (s *AssignmentService) List(ctx context.Context, actor auth.Actor, ticketID int64) ([]domain.Assignment, error) {
	ticket, err := s.visible.load(ctx, actor, ticketID)
	if err != nil {
		return nil, err
	}
	items, err := s.assignments.ListByTicket(ctx, ticket.ID)
	if err != nil {
		return nil, apperrors.NewUpstreamFailure("list assignments", err)
	}
	if items == nil {
		items = []domain.Assignment{}
	}
	return items, nil
}
