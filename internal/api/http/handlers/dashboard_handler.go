package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-service/internal/api/dto"
	"github.com/spec-kit/helpdesk-service/internal/clock"
	"github.com/spec-kit/helpdesk-service/internal/service"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util"
)

// DashboardHandler serves ticket counts.
type DashboardHandler struct {
	dashboard *service.DashboardService
	clock     clock.Clock
}

// NewDashboardHandler constructs handler.
func NewDashboardHandler(dashboard *service.DashboardService, c clock.Clock) *DashboardHandler {
	if c == nil {
		c = clock.Real()
	}
	return &DashboardHandler{dashboard: dashboard, clock: c}
}

// Summary GET /dashboard/summary.
func (h *DashboardHandler) Summary(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	summary, err := h.dashboard.Summary(c.UserContext(), actor)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.DashboardSummaryResponse{
		Total:      summary.Total,
		New:        summary.New,
		InProgress: summary.InProgress,
		Completed:  summary.Completed,
	}})
}

// Breakdown GET /dashboard/breakdown?year=2025. Defaults to the current year.
func (h *DashboardHandler) Breakdown(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	year := h.clock.Now().Year()
	if raw := c.Query("year"); raw != "" {
		if year, err = strconv.Atoi(raw); err != nil {
			return apperrors.NewValidationError("invalid year", map[string]any{"year": raw})
		}
	}
	rows, err := h.dashboard.Breakdown(c.UserContext(), actor, year)
	if err != nil {
		return err
	}
	items := make([]dto.CategoryBreakdownResponse, 0, len(rows))
	for _, r := range rows {
		items = append(items, dto.CategoryBreakdownResponse{CategoryID: r.CategoryID, Month: r.Month, Count: r.Count})
	}
	return c.JSON(fiber.Map{"data": items})
}
