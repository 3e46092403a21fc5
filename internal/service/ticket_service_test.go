package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/helpdesk-service/internal/auth"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util"
)

func TestCreateTicket(t *testing.T) {
	env := newTestEnv(t)

	ticket, err := env.tickets.Create(context.Background(), env.reporter, TicketCreateInput{
		ProjectID:  7,
		CategoryID: 3,
		Priority:   domain.TicketPriorityHigh,
		Issue:      "  vpn drops every hour  ",
	})
	require.NoError(t, err)

	assert.Equal(t, "T250300001", ticket.Number)
	assert.Equal(t, domain.TicketStatusCreated, ticket.Status)
	assert.Equal(t, "vpn drops every hour", ticket.Issue)
	assert.Equal(t, reporterID, ticket.CreatedBy)
	assert.Equal(t, envStart, ticket.CreatedAt)
	assert.True(t, ticket.Active)

	history := env.db.historyOf(ticket.ID)
	require.Len(t, history, 1)
	assert.Equal(t, domain.TicketStatusCreated, history[0].Status)
	assert.Equal(t, envStart, history[0].EnteredAt)
}

func TestCreateTicketValidation(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name  string
		actor auth.Actor
		input TicketCreateInput
		code  string
	}{
		{"viewer", env.viewer, TicketCreateInput{ProjectID: 1, CategoryID: 1, Issue: "x"}, apperrors.CodeForbidden},
		{"supporter", env.supporter, TicketCreateInput{ProjectID: 1, CategoryID: 1, Issue: "x"}, apperrors.CodeForbidden},
		{"missing project", env.reporter, TicketCreateInput{CategoryID: 1, Issue: "x"}, apperrors.CodeValidation},
		{"blank issue", env.reporter, TicketCreateInput{ProjectID: 1, CategoryID: 1, Issue: "   "}, apperrors.CodeValidation},
		{"bad priority", env.reporter, TicketCreateInput{ProjectID: 1, CategoryID: 1, Issue: "x", Priority: "URGENT"}, apperrors.CodeValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.tickets.Create(context.Background(), tt.actor, tt.input)
			require.Error(t, err)
			assert.Equal(t, tt.code, apperrors.CodeOf(err))
		})
	}
	assert.Empty(t, env.db.tickets)
}

func TestGetTicketScopes(t *testing.T) {
	env := newTestEnv(t)
	ticket := env.create(t, env.reporter)

	_, err := env.tickets.Get(context.Background(), env.reporter, ticket.ID)
	assert.NoError(t, err)
	_, err = env.tickets.Get(context.Background(), env.viewer, ticket.ID)
	assert.NoError(t, err)

	_, err = env.tickets.Get(context.Background(), env.other, ticket.ID)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeNotFound))
	_, err = env.tickets.Get(context.Background(), env.supporter, ticket.ID)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeNotFound))

	require.NoError(t, env.trash.Delete(context.Background(), env.reporter, ticket.ID))
	_, err = env.tickets.Get(context.Background(), env.admin, ticket.ID)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeNotFound))
}

func TestEmptyPermissionSetIssuesNoQuery(t *testing.T) {
	env := newTestEnv(t)
	ticket := env.create(t, env.reporter)
	nobody := auth.NewActor(99, nil)
	before := env.db.queryCount()

	_, err := env.tickets.Get(context.Background(), nobody, ticket.ID)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeNotFound))

	items, total, err := env.tickets.List(context.Background(), nobody, TicketListFilter{})
	require.NoError(t, err)
	assert.Empty(t, items)
	assert.NotNil(t, items)
	assert.Zero(t, total)

	assert.Equal(t, before, env.db.queryCount())
}

func TestListTicketsWithinScope(t *testing.T) {
	env := newTestEnv(t)
	for i := 0; i < 3; i++ {
		env.clock.Advance(time.Minute)
		env.create(t, env.reporter)
	}
	env.create(t, env.other)

	items, total, err := env.tickets.List(context.Background(), env.reporter, TicketListFilter{Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, items, 2)
	assert.Equal(t, "T250300003", items[0].Number)

	_, total, err = env.tickets.List(context.Background(), env.admin, TicketListFilter{})
	require.NoError(t, err)
	assert.Equal(t, 4, total)
}

func TestUpdateTicketByStatus(t *testing.T) {
	env := newTestEnv(t)
	ticket := env.create(t, env.reporter)
	issue := "updated issue"

	updated, err := env.tickets.Update(context.Background(), env.reporter, ticket.ID, TicketPatch{Issue: &issue})
	require.NoError(t, err)
	assert.Equal(t, issue, updated.Issue)

	env.move(t, ticket.ID, domain.TicketStatusOpen)
	_, err = env.tickets.Update(context.Background(), env.reporter, ticket.ID, TicketPatch{Issue: &issue})
	assert.True(t, apperrors.IsCode(err, apperrors.CodeForbidden))

	priority := domain.TicketPriorityLow
	updated, err = env.tickets.Update(context.Background(), env.admin, ticket.ID, TicketPatch{Priority: &priority})
	require.NoError(t, err)
	assert.Equal(t, domain.TicketPriorityLow, updated.Priority)

	env.move(t, ticket.ID, domain.TicketStatusInProgress)
	_, err = env.tickets.Update(context.Background(), env.admin, ticket.ID, TicketPatch{Priority: &priority})
	assert.True(t, apperrors.IsCode(err, apperrors.CodeForbidden))
}

func TestSetDueDateComputesEstimate(t *testing.T) {
	env := newTestEnv(t)
	ticket := env.create(t, env.reporter)
	env.move(t, ticket.ID, domain.TicketStatusOpen)

	// Opened Monday 09:00; due Tuesday 09:00 spans 8.5h Monday minus lunch
	// and 0.5h Tuesday.
	due := envStart.Add(24 * time.Hour)
	updated, err := env.tickets.SetDueDate(context.Background(), env.admin, ticket.ID, due)
	require.NoError(t, err)
	require.NotNil(t, updated.EstimateHours)
	assert.InDelta(t, 8.0, *updated.EstimateHours, 0.001)

	_, err = env.tickets.SetDueDate(context.Background(), env.admin, ticket.ID, envStart.Add(-time.Hour))
	assert.True(t, apperrors.IsCode(err, apperrors.CodeValidation))

	_, err = env.tickets.SetDueDate(context.Background(), env.reporter, ticket.ID, due)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeForbidden))
}

func TestSetResolution(t *testing.T) {
	env := newTestEnv(t)
	ticket := env.create(t, env.reporter)

	updated, err := env.tickets.SetResolution(context.Background(), env.admin, ticket.ID, " replaced cable ")
	require.NoError(t, err)
	assert.Equal(t, "replaced cable", updated.Resolution)

	env.move(t, ticket.ID, domain.TicketStatusCancelled)
	_, err = env.tickets.SetResolution(context.Background(), env.admin, ticket.ID, "late")
	assert.True(t, apperrors.IsCode(err, apperrors.CodeValidation))
}

func TestRateTicket(t *testing.T) {
	env := newTestEnv(t)
	ticket := env.create(t, env.reporter)

	_, err := env.tickets.Rate(context.Background(), env.reporter, ticket.ID, 5, "")
	assert.True(t, apperrors.IsCode(err, apperrors.CodeValidation), "not completed yet")

	env.move(t, ticket.ID, domain.TicketStatusOpen, domain.TicketStatusInProgress,
		domain.TicketStatusResolved, domain.TicketStatusCompleted)

	_, err = env.tickets.Rate(context.Background(), env.reporter, ticket.ID, 0, "")
	assert.True(t, apperrors.IsCode(err, apperrors.CodeValidation))
	_, err = env.tickets.Rate(context.Background(), env.reporter, ticket.ID, 4, strings.Repeat("x", 1001))
	assert.True(t, apperrors.IsCode(err, apperrors.CodeValidation))
	_, err = env.tickets.Rate(context.Background(), env.admin, ticket.ID, 4, "")
	assert.True(t, apperrors.IsCode(err, apperrors.CodeForbidden))

	rated, err := env.tickets.Rate(context.Background(), env.reporter, ticket.ID, 4, "quick fix")
	require.NoError(t, err)
	require.NotNil(t, rated.Rating)
	assert.Equal(t, 4, *rated.Rating)

	_, err = env.tickets.Rate(context.Background(), env.reporter, ticket.ID, 5, "")
	assert.True(t, apperrors.IsCode(err, apperrors.CodeConflict))
}

func TestEditsKeepConcurrentTransition(t *testing.T) {
	env := newTestEnv(t)
	ticket := env.create(t, env.reporter)
	env.move(t, ticket.ID, domain.TicketStatusOpen)

	svc := env.racingTicketService(func() {
		env.move(t, ticket.ID, domain.TicketStatusInProgress)
	})
	updated, err := svc.SetDueDate(context.Background(), env.admin, ticket.ID, envStart.Add(24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusInProgress, updated.Status)

	stored := env.db.ticket(t, ticket.ID)
	history := env.db.historyOf(ticket.ID)
	assert.Equal(t, domain.TicketStatusInProgress, stored.Status)
	assert.Equal(t, stored.Status, history[len(history)-1].Status)
	require.NotNil(t, stored.DueAt)
}

func TestUpdateGatesOnLockedRow(t *testing.T) {
	env := newTestEnv(t)
	ticket := env.create(t, env.reporter)

	svc := env.racingTicketService(func() {
		env.move(t, ticket.ID, domain.TicketStatusOpen)
	})
	issue := "printer still on fire"
	_, err := svc.Update(context.Background(), env.reporter, ticket.ID, TicketPatch{Issue: &issue})
	assert.True(t, apperrors.IsCode(err, apperrors.CodeForbidden))

	stored := env.db.ticket(t, ticket.ID)
	assert.Equal(t, domain.TicketStatusOpen, stored.Status)
	assert.Equal(t, "printer on fire", stored.Issue)
}

func TestEditRejectsTicketDeletedMeanwhile(t *testing.T) {
	env := newTestEnv(t)
	ticket := env.create(t, env.reporter)

	svc := env.racingTicketService(func() {
		require.NoError(t, env.trash.Delete(context.Background(), env.reporter, ticket.ID))
	})
	_, err := svc.SetResolution(context.Background(), env.admin, ticket.ID, "rebooted")
	assert.True(t, apperrors.IsCode(err, apperrors.CodeNotFound))
	assert.Empty(t, env.db.ticket(t, ticket.ID).Resolution)
}

func TestSetDueDateBeyondHorizon(t *testing.T) {
	env := newTestEnv(t)
	ticket := env.create(t, env.reporter)

	_, err := env.tickets.SetDueDate(context.Background(), env.admin, ticket.ID,
		time.Date(9999, time.December, 31, 0, 0, 0, 0, time.UTC))
	assert.True(t, apperrors.IsCode(err, apperrors.CodeValidation))
	assert.Nil(t, env.db.ticket(t, ticket.ID).DueAt)
}
