package service

import (
	"context"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/auth"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	"github.com/spec-kit/helpdesk-service/internal/sla"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util"
)

// CalendarService owns the working calendar: the configured base plus the
// holidays administrators store in the database.
type CalendarService struct {
	base     sla.Calendar
	holidays repository.HolidayRepository
	tx       repository.TxManager
	logger   *zap.Logger
}

// CalendarDependencies bundles collaborators for the calendar service.
type CalendarDependencies struct {
	Base        sla.Calendar
	HolidayRepo repository.HolidayRepository
	TxManager   repository.TxManager
	Logger      *zap.Logger
}

// NewCalendarService constructs the service.
func NewCalendarService(deps CalendarDependencies) *CalendarService {
	return &CalendarService{
		base:     deps.Base.Clone(),
		holidays: deps.HolidayRepo,
		tx:       deps.TxManager,
		logger:   orNop(deps.Logger),
	}
}

// Calendar returns the effective calendar. Callers get their own copy.
func (s *CalendarService) Calendar(ctx context.Context) (sla.Calendar, error) {
	cal := s.base.Clone()
	stored, err := s.holidays.List(ctx)
	if err != nil {
		return sla.Calendar{}, apperrors.NewUpstreamFailure("load holidays", err)
	}
	for _, h := range stored {
		cal.AddHoliday(h.Date)
	}
	return cal, nil
}

// Elapsed returns the business hours between start and end.
func (s *CalendarService) Elapsed(ctx context.Context, start, end time.Time) (float64, error) {
	if err := sla.CheckHorizon(start, end); err != nil {
		return 0, apperrors.NewValidationError("interval out of range", map[string]any{
			"start":          start,
			"end":            end,
			"max_span_years": sla.MaxSpanYears,
		})
	}
	cal, err := s.Calendar(ctx)
	if err != nil {
		return 0, err
	}
	return sla.ElapsedBusinessHours(start, end, cal), nil
}

// ListHolidays returns configured and stored holidays, in date order.
func (s *CalendarService) ListHolidays(ctx context.Context) ([]domain.Holiday, error) {
	stored, err := s.holidays.List(ctx)
	if err != nil {
		return nil, apperrors.NewUpstreamFailure("load holidays", err)
	}
	byDate := map[string]domain.Holiday{}
	for _, d := range s.base.Holidays() {
		byDate[d.Format("2006-01-02")] = domain.Holiday{Date: d}
	}
	for _, h := range stored {
		byDate[h.Date.Format("2006-01-02")] = h
	}

	keys := make([]string, 0, len(byDate))
	for key := range byDate {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	result := make([]domain.Holiday, 0, len(keys))
	for _, key := range keys {
		result = append(result, byDate[key])
	}
	return result, nil
}

// AddHoliday stores a holiday.
func (s *CalendarService) AddHoliday(ctx context.Context, actor auth.Actor, date time.Time, name string) error {
	if err := auth.CanManageCalendar(actor); err != nil {
		return err
	}
	if date.IsZero() {
		return apperrors.NewValidationError("holiday date required", nil)
	}
	if err := s.holidays.Add(ctx, domain.Holiday{Date: date, Name: strings.TrimSpace(name)}); err != nil {
		return apperrors.NewUpstreamFailure("add holiday", err)
	}
	s.logger.Info("holiday added", zap.Time("date", date), zap.Int64("actor_id", actor.UserID))
	return nil
}

// RemoveHoliday deletes a stored holiday.
func (s *CalendarService) RemoveHoliday(ctx context.Context, actor auth.Actor, date time.Time) error {
	if err := auth.CanManageCalendar(actor); err != nil {
		return err
	}
	if err := s.holidays.Remove(ctx, date); err != nil {
		if repository.IsNoRows(err) {
			return apperrors.NewNotFound("holiday", map[string]any{"date": date.Format("2006-01-02")})
		}
		return apperrors.NewUpstreamFailure("remove holiday", err)
	}
	s.logger.Info("holiday removed", zap.Time("date", date), zap.Int64("actor_id", actor.UserID))
	return nil
}

// ReplaceHolidays swaps the stored holiday set atomically.
func (s *CalendarService) ReplaceHolidays(ctx context.Context, actor auth.Actor, holidays []domain.Holiday) error {
	if err := auth.CanManageCalendar(actor); err != nil {
		return err
	}
	for _, h := range holidays {
		if h.Date.IsZero() {
			return apperrors.NewValidationError("holiday date required", nil)
		}
	}
	err := s.tx.WithinTx(ctx, func(txCtx context.Context) error {
		return s.holidays.Replace(txCtx, holidays)
	})
	if err != nil {
		return apperrors.NewUpstreamFailure("replace holidays", err)
	}
	s.logger.Info("holidays replaced", zap.Int("count", len(holidays)), zap.Int64("actor_id", actor.UserID))
	return nil
}
