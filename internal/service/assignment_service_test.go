package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/events"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util"
)

func TestAssignTicket(t *testing.T) {
	env := newTestEnv(t)
	ticket := env.create(t, env.reporter)

	assignment, err := env.assignments.Assign(context.Background(), env.admin, ticket.ID, supporterID)
	require.NoError(t, err)
	assert.Equal(t, supporterID, assignment.UserID)
	assert.Equal(t, adminID, assignment.AssignedBy)

	_, err = env.assignments.Assign(context.Background(), env.admin, ticket.ID, supporterID)
	require.NoError(t, err)

	list, err := env.assignments.List(context.Background(), env.supporter, ticket.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)

	assert.Equal(t, []events.EventType{events.EventTicketCreated, events.EventTicketAssigned}, env.dispatcher.types())
}

func TestAssignTicketRules(t *testing.T) {
	env := newTestEnv(t)
	ticket := env.create(t, env.reporter)
	closed := env.create(t, env.reporter)
	env.move(t, closed.ID, domain.TicketStatusCancelled)

	_, err := env.assignments.Assign(context.Background(), env.supporter, ticket.ID, supporterID)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeForbidden))

	_, err = env.assignments.Assign(context.Background(), env.admin, ticket.ID, viewerID)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeValidation))

	_, err = env.assignments.Assign(context.Background(), env.admin, closed.ID, supporterID)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeConflict))

	_, err = env.assignments.Assign(context.Background(), env.admin, 404, supporterID)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeNotFound))
}

func TestUnassignTicket(t *testing.T) {
	env := newTestEnv(t)
	ticket := env.create(t, env.reporter)
	_, err := env.assignments.Assign(context.Background(), env.admin, ticket.ID, supporterID)
	require.NoError(t, err)

	require.NoError(t, env.assignments.Unassign(context.Background(), env.admin, ticket.ID, supporterID))
	_, err = env.tickets.Get(context.Background(), env.supporter, ticket.ID)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeNotFound))

	err = env.assignments.Unassign(context.Background(), env.admin, ticket.ID, supporterID)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeNotFound))
}
