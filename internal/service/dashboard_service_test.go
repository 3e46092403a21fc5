package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/helpdesk-service/internal/auth"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util"
)

func TestDashboardSummary(t *testing.T) {
	env := newTestEnv(t)
	env.create(t, env.reporter)
	opened := env.create(t, env.reporter)
	working := env.create(t, env.reporter)
	done := env.create(t, env.other)
	env.move(t, opened.ID, domain.TicketStatusOpen)
	env.move(t, working.ID, domain.TicketStatusOpen, domain.TicketStatusInProgress)
	env.move(t, done.ID, domain.TicketStatusOpen, domain.TicketStatusInProgress,
		domain.TicketStatusResolved, domain.TicketStatusCompleted)

	summary, err := env.dashboard.Summary(context.Background(), env.admin)
	require.NoError(t, err)
	assert.Equal(t, domain.DashboardSummary{Total: 4, New: 2, InProgress: 1, Completed: 1}, summary)

	mine, err := env.dashboard.Summary(context.Background(), env.reporter)
	require.NoError(t, err)
	assert.Equal(t, domain.DashboardSummary{Total: 3, New: 2, InProgress: 1}, mine)
}

func TestDashboardEmptyScopeSkipsQueries(t *testing.T) {
	env := newTestEnv(t)
	env.create(t, env.reporter)
	nobody := auth.NewActor(77, auth.PermissionSet{})
	before := env.db.queryCount()

	summary, err := env.dashboard.Summary(context.Background(), nobody)
	require.NoError(t, err)
	assert.Zero(t, summary)

	rows, err := env.dashboard.Breakdown(context.Background(), nobody, 2025)
	require.NoError(t, err)
	assert.Empty(t, rows)

	assert.Equal(t, before, env.db.queryCount())
}

func TestDashboardBreakdown(t *testing.T) {
	env := newTestEnv(t)
	env.create(t, env.reporter)
	env.create(t, env.reporter)
	env.clock.Set(time.Date(2025, time.April, 2, 10, 0, 0, 0, time.UTC))
	env.create(t, env.reporter)

	rows, err := env.dashboard.Breakdown(context.Background(), env.admin, 2025)
	require.NoError(t, err)
	assert.Equal(t, []domain.CategoryBreakdown{
		{CategoryID: 20, Month: "2025-03", Count: 2},
		{CategoryID: 20, Month: "2025-04", Count: 1},
	}, rows)

	_, err = env.dashboard.Breakdown(context.Background(), env.admin, 1999)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeValidation))
}
