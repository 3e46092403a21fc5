package handlers

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-service/internal/api/dto"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/service"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util"
)

// TicketsHandler exposes ticket reads, edits and the status workflow.
type TicketsHandler struct {
	tickets *service.TicketService
	status  *service.StatusService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(tickets *service.TicketService, status *service.StatusService) *TicketsHandler {
	return &TicketsHandler{tickets: tickets, status: status}
}

// CreateTicket POST /tickets.
func (h *TicketsHandler) CreateTicket(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	var req dto.CreateTicketRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	ticket, err := h.tickets.Create(c.UserContext(), actor, service.TicketCreateInput{
		ProjectID:  req.ProjectID,
		CategoryID: req.CategoryID,
		Priority:   domain.TicketPriority(strings.ToUpper(req.Priority)),
		Issue:      req.Issue,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": ticketResponse(ticket)})
}

// ListTickets GET /tickets.
func (h *TicketsHandler) ListTickets(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	filter, page, pageSize, err := parseTicketQuery(c)
	if err != nil {
		return err
	}
	items, total, err := h.tickets.List(c.UserContext(), actor, filter)
	if err != nil {
		return err
	}
	resp := dto.TicketListResponse{
		Items:    make([]dto.TicketResponse, 0, len(items)),
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	}
	for i := range items {
		resp.Items = append(resp.Items, ticketResponse(&items[i]))
	}
	return c.JSON(fiber.Map{"data": resp})
}

// GetTicket GET /tickets/:id.
func (h *TicketsHandler) GetTicket(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	ticket, err := h.tickets.Get(c.UserContext(), actor, id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketResponse(ticket)})
}

// UpdateTicket PATCH /tickets/:id.
func (h *TicketsHandler) UpdateTicket(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	var req dto.UpdateTicketRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	patch := service.TicketPatch{ProjectID: req.ProjectID, CategoryID: req.CategoryID, Issue: req.Issue}
	if req.Priority != nil {
		priority := domain.TicketPriority(strings.ToUpper(*req.Priority))
		patch.Priority = &priority
	}
	ticket, err := h.tickets.Update(c.UserContext(), actor, id, patch)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketResponse(ticket)})
}

// ChangeStatus POST /tickets/:id/status.
func (h *TicketsHandler) ChangeStatus(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	var req dto.TransitionRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	next, err := domain.ParseTicketStatus(req.Status)
	if err != nil {
		return apperrors.NewValidationError("unknown ticket status", map[string]any{"status": req.Status})
	}
	ticket, err := h.status.Transition(c.UserContext(), actor, id, next)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketResponse(ticket)})
}

// History GET /tickets/:id/history.
func (h *TicketsHandler) History(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	entries, err := h.status.History(c.UserContext(), actor, id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": historyResponses(entries)})
}

// SetDueDate PUT /tickets/:id/due-date.
func (h *TicketsHandler) SetDueDate(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	var req dto.DueDateRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if req.DueAt.IsZero() {
		return apperrors.NewValidationError("due_at required", nil)
	}
	ticket, err := h.tickets.SetDueDate(c.UserContext(), actor, id, req.DueAt)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketResponse(ticket)})
}

// SetResolution PUT /tickets/:id/resolution.
func (h *TicketsHandler) SetResolution(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	var req dto.ResolutionRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	ticket, err := h.tickets.SetResolution(c.UserContext(), actor, id, req.Resolution)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketResponse(ticket)})
}

// Rate POST /tickets/:id/rating.
func (h *TicketsHandler) Rate(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	var req dto.RatingRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	ticket, err := h.tickets.Rate(c.UserContext(), actor, id, req.Rating, req.Comment)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketResponse(ticket)})
}

func parseTicketQuery(c *fiber.Ctx) (service.TicketListFilter, int, int, error) {
	var filter service.TicketListFilter
	for _, raw := range splitList(c.Query("status")) {
		status, err := domain.ParseTicketStatus(raw)
		if err != nil {
			return filter, 0, 0, apperrors.NewValidationError("unknown ticket status", map[string]any{"status": raw})
		}
		filter.Statuses = append(filter.Statuses, status)
	}
	for _, raw := range splitList(c.Query("priority")) {
		filter.Priorities = append(filter.Priorities, domain.TicketPriority(strings.ToUpper(raw)))
	}

	var err error
	if filter.ProjectID, err = parseInt64(c.Query("project_id")); err != nil {
		return filter, 0, 0, err
	}
	if filter.CategoryID, err = parseInt64(c.Query("category_id")); err != nil {
		return filter, 0, 0, err
	}
	if filter.CreatedFrom, err = parseTime(c.Query("created_from")); err != nil {
		return filter, 0, 0, err
	}
	if filter.CreatedTo, err = parseTime(c.Query("created_to")); err != nil {
		return filter, 0, 0, err
	}
	if q := strings.TrimSpace(c.Query("q")); q != "" {
		filter.SearchTerm = &q
	}

	page := parseInt(c.Query("page"), 1)
	pageSize := parseInt(c.Query("page_size"), 20)
	if pageSize > 100 {
		pageSize = 100
	}
	filter.Offset = (page - 1) * pageSize
	filter.Limit = pageSize
	return filter, page, pageSize, nil
}
