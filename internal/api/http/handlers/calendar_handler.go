package handlers

import (
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-service/internal/api/dto"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/service"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util"
)

// CalendarHandler exposes holiday administration and the business-hours
// calculator.
type CalendarHandler struct {
	calendar *service.CalendarService
}

// NewCalendarHandler constructs handler.
func NewCalendarHandler(calendar *service.CalendarService) *CalendarHandler {
	return &CalendarHandler{calendar: calendar}
}

// ListHolidays GET /calendar/holidays.
func (h *CalendarHandler) ListHolidays(c *fiber.Ctx) error {
	holidays, err := h.calendar.ListHolidays(c.UserContext())
	if err != nil {
		return err
	}
	items := make([]dto.HolidayResponse, 0, len(holidays))
	for _, hol := range holidays {
		items = append(items, dto.HolidayResponse{Date: hol.Date.Format(dateLayout), Name: hol.Name})
	}
	return c.JSON(fiber.Map{"data": items})
}

// AddHoliday POST /calendar/holidays.
func (h *CalendarHandler) AddHoliday(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	var req dto.HolidayRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	date, err := parseDate(req.Date)
	if err != nil {
		return err
	}
	if err := h.calendar.AddHoliday(c.UserContext(), actor, date, req.Name); err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.HolidayResponse{Date: req.Date, Name: req.Name}})
}

// ReplaceHolidays PUT /calendar/holidays.
func (h *CalendarHandler) ReplaceHolidays(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	var req []dto.HolidayRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	holidays := make([]domain.Holiday, 0, len(req))
	for _, r := range req {
		date, err := parseDate(r.Date)
		if err != nil {
			return err
		}
		holidays = append(holidays, domain.Holiday{Date: date, Name: r.Name})
	}
	if err := h.calendar.ReplaceHolidays(c.UserContext(), actor, holidays); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// RemoveHoliday DELETE /calendar/holidays/:date.
func (h *CalendarHandler) RemoveHoliday(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	date, err := parseDate(c.Params("date"))
	if err != nil {
		return err
	}
	if err := h.calendar.RemoveHoliday(c.UserContext(), actor, date); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// Elapsed GET /calendar/elapsed?start=...&end=...
func (h *CalendarHandler) Elapsed(c *fiber.Ctx) error {
	start, err := parseTime(c.Query("start"))
	if err != nil {
		return err
	}
	end, err := parseTime(c.Query("end"))
	if err != nil {
		return err
	}
	if start == nil || end == nil {
		return apperrors.NewValidationError("start and end required", nil)
	}
	hours, err := h.calendar.Elapsed(c.UserContext(), *start, *end)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.ElapsedResponse{
		Start: start.In(time.UTC),
		End:   end.In(time.UTC),
		Hours: hours,
	}})
}
