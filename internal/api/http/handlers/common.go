package handlers

import (
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-service/internal/api/dto"
	"github.com/spec-kit/helpdesk-service/internal/auth"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/service"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util"
)

const dateLayout = "2006-01-02"

func actorFrom(c *fiber.Ctx) (auth.Actor, error) {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return auth.Actor{}, apperrors.NewUnauthorized("authentication required")
	}
	return actor, nil
}

func idParam(c *fiber.Ctx, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Params(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.NewValidationError("invalid "+name, map[string]any{name: c.Params(name)})
	}
	return id, nil
}

func parseBody(c *fiber.Ctx, out any) error {
	if err := c.BodyParser(out); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	return nil
}

func parseTime(val string) (*time.Time, error) {
	if val == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, val)
	if err != nil {
		return nil, apperrors.NewValidationError("invalid timestamp", map[string]any{"value": val})
	}
	return &t, nil
}

func parseDate(val string) (time.Time, error) {
	d, err := time.Parse(dateLayout, strings.TrimSpace(val))
	if err != nil {
		return time.Time{}, apperrors.NewValidationError("date must be YYYY-MM-DD", map[string]any{"date": val})
	}
	return d, nil
}

func parseInt(val string, def int) int {
	if val == "" {
		return def
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}

func parseInt64(val string) (*int64, error) {
	if val == "" {
		return nil, nil
	}
	parsed, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return nil, apperrors.NewValidationError("invalid id", map[string]any{"value": val})
	}
	return &parsed, nil
}

func splitList(val string) []string {
	var out []string
	for _, part := range strings.Split(val, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func ticketResponse(t *domain.Ticket) dto.TicketResponse {
	return dto.TicketResponse{
		ID:            t.ID,
		Number:        t.Number,
		ProjectID:     t.ProjectID,
		CategoryID:    t.CategoryID,
		Priority:      string(t.Priority),
		Status:        t.Status.String(),
		StatusID:      int(t.Status),
		Issue:         t.Issue,
		Resolution:    t.Resolution,
		CreatedBy:     t.CreatedBy,
		UpdatedBy:     t.UpdatedBy,
		CreatedAt:     t.CreatedAt,
		UpdatedAt:     t.UpdatedAt,
		OpenedAt:      t.OpenedAt,
		DueAt:         t.DueAt,
		CompletedAt:   t.CompletedAt,
		EstimateHours: t.EstimateHours,
		LeadHours:     t.LeadHours,
		Rating:        t.Rating,
		RatingComment: t.RatingComment,
	}
}

func historyResponses(entries []domain.StatusHistoryEntry) []dto.HistoryEntryResponse {
	resp := make([]dto.HistoryEntryResponse, 0, len(entries))
	for _, e := range entries {
		resp = append(resp, dto.HistoryEntryResponse{
			ID:          e.ID,
			Status:      e.Status.String(),
			EnteredAt:   e.EnteredAt,
			ActorID:     e.ActorID,
			Synthesized: e.Synthesized,
		})
	}
	return resp
}

func deletedTicketResponse(d service.DeletedTicket) dto.DeletedTicketResponse {
	resp := dto.DeletedTicketResponse{
		ID:              d.Ticket.ID,
		Number:          d.Ticket.Number,
		Issue:           d.Ticket.Issue,
		CanRestore:      d.CanRestore,
		RestoreDeadline: d.RestoreDeadline,
	}
	if d.Ticket.DeletedAt != nil {
		resp.DeletedAt = *d.Ticket.DeletedAt
	}
	return resp
}

func attachmentResponse(a *domain.Attachment) dto.AttachmentResponse {
	return dto.AttachmentResponse{
		ID:         a.ID,
		TicketID:   a.TicketID,
		Tag:        string(a.Tag),
		Extension:  a.Extension,
		StoredName: a.StoredName,
		Sequence:   a.Sequence,
		CreatedBy:  a.CreatedBy,
		CreatedAt:  a.CreatedAt,
		Active:     a.Active,
		DeletedAt:  a.DeletedAt,
	}
}
