package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// AssignmentRepository stores which supporters work which tickets.
type AssignmentRepository interface {
	// Assign is idempotent; it reports whether a new row was written.
	Assign(ctx context.Context, assignment *domain.Assignment) (bool, error)
	Unassign(ctx context.Context, ticketID, userID int64) error
	ListByTicket(ctx context.Context, ticketID int64) ([]domain.Assignment, error)
	IsAssigned(ctx context.Context, ticketID, userID int64) (bool, error)
}

type assignmentRepository struct {
	pool *pgxpool.Pool
}

// NewAssignmentRepository constructs repository.
func NewAssignmentRepository(pool *pgxpool.Pool) AssignmentRepository {
	return &assignmentRepository{pool: pool}
}

func (r *assignmentRepository) Assign(ctx context.Context, assignment *domain.Assignment) (bool, error) {
	const query = `
        INSERT INTO ticket_assignments (ticket_id, user_id, assigned_by, assigned_at)
        VALUES ($1,$2,$3,$4)
        ON CONFLICT (ticket_id, user_id) DO NOTHING`
	cmd, err := conn(ctx, r.pool).Exec(ctx, query,
		assignment.TicketID,
		assignment.UserID,
		assignment.AssignedBy,
		assignment.AssignedAt,
	)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() > 0, nil
}

func (r *assignmentRepository) Unassign(ctx context.Context, ticketID, userID int64) error {
	cmd, err := conn(ctx, r.pool).Exec(ctx,
		`DELETE FROM ticket_assignments WHERE ticket_id=$1 AND user_id=$2`, ticketID, userID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *assignmentRepository) ListByTicket(ctx context.Context, ticketID int64) ([]domain.Assignment, error) {
	const query = `
        SELECT ticket_id, user_id, assigned_by, assigned_at
        FROM ticket_assignments WHERE ticket_id=$1 ORDER BY assigned_at, user_id`
	rows, err := conn(ctx, r.pool).Query(ctx, query, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Assignment
	for rows.Next() {
		var assignment domain.Assignment
		if err := rows.Scan(&assignment.TicketID, &assignment.UserID, &assignment.AssignedBy, &assignment.AssignedAt); err != nil {
			return nil, err
		}
		result = append(result, assignment)
	}
	return result, rows.Err()
}

func (r *assignmentRepository) IsAssigned(ctx context.Context, ticketID, userID int64) (bool, error) {
	var exists bool
	err := conn(ctx, r.pool).QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM ticket_assignments WHERE ticket_id=$1 AND user_id=$2)`,
		ticketID, userID).Scan(&exists)
	return exists, err
}
