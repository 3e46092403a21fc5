package service

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/spec-kit/helpdesk-service/internal/auth"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util"
)

// DashboardService aggregates the tickets in the caller's scope.
type DashboardService struct {
	tickets  repository.TicketRepository
	timezone string
	logger   *zap.Logger
}

// DashboardDependencies bundles collaborators for the dashboard.
type DashboardDependencies struct {
	TicketRepo repository.TicketRepository
	// Timezone buckets the monthly breakdown.
	Timezone string
	Logger   *zap.Logger
}

// NewDashboardService constructs the service.
func NewDashboardService(deps DashboardDependencies) *DashboardService {
	tz := deps.Timezone
	if tz == "" {
		tz = "UTC"
	}
	return &DashboardService{tickets: deps.TicketRepo, timezone: tz, logger: orNop(deps.Logger)}
}

// Summary counts visible tickets: all of them, new ones (Created or
// OpenTicket), in progress and completed. Each count is scoped on its own.
func (s *DashboardService) Summary(ctx context.Context, actor auth.Actor) (domain.DashboardSummary, error) {
	var summary domain.DashboardSummary
	scope := actor.Scope()
	if scope.IsNone() {
		return summary, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	count := func(dst *int, statuses ...domain.TicketStatus) {
		g.Go(func() error {
			n, err := s.tickets.CountByStatus(gctx, scope, statuses...)
			if err != nil {
				return err
			}
			*dst = n
			return nil
		})
	}
	count(&summary.Total)
	count(&summary.New, domain.TicketStatusCreated, domain.TicketStatusOpen)
	count(&summary.InProgress, domain.TicketStatusInProgress)
	count(&summary.Completed, domain.TicketStatusCompleted)

	if err := g.Wait(); err != nil {
		return domain.DashboardSummary{}, apperrors.NewUpstreamFailure("dashboard summary", err)
	}
	return summary, nil
}

// Breakdown groups the visible tickets created in year by category and month.
func (s *DashboardService) Breakdown(ctx context.Context, actor auth.Actor, year int) ([]domain.CategoryBreakdown, error) {
	if year < 2000 || year > 9999 {
		return nil, apperrors.NewValidationError("invalid year", map[string]any{"year": year})
	}
	scope := actor.Scope()
	if scope.IsNone() {
		return []domain.CategoryBreakdown{}, nil
	}
	rows, err := s.tickets.CategoryBreakdown(ctx, scope, year, s.timezone)
	if err != nil {
		return nil, apperrors.NewUpstreamFailure("dashboard breakdown", err)
	}
	if rows == nil {
		rows = []domain.CategoryBreakdown{}
	}
	return rows, nil
}
