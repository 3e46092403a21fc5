package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk-service/internal/auth"
	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// TicketFilter captures list parameters on top of the caller's scope.
type TicketFilter struct {
	ProjectID   *int64
	CategoryID  *int64
	Statuses    []domain.TicketStatus
	Priorities  []domain.TicketPriority
	SearchTerm  *string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
	Limit       int
	Offset      int
}

// TicketRepository encapsulates ticket persistence. Reads by id or number
// return soft-deleted rows too; scoped reads never do.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	Update(ctx context.Context, ticket *domain.Ticket) error
	GetByID(ctx context.Context, id int64) (*domain.Ticket, error)
	// GetForUpdate reads and row-locks a ticket inside a transaction.
	GetForUpdate(ctx context.Context, id int64) (*domain.Ticket, error)
	GetByNumber(ctx context.Context, number string) (*domain.Ticket, error)
	// MaxNumberWithPrefix returns the highest number starting with prefix,
	// ordered by numeric suffix, or "" when there is none.
	MaxNumberWithPrefix(ctx context.Context, prefix string) (string, error)
	ExistsNumber(ctx context.Context, number string) (bool, error)
	List(ctx context.Context, scope auth.Scope, filter TicketFilter) ([]domain.Ticket, int, error)
	// CountByStatus counts scoped tickets; no statuses means every status.
	CountByStatus(ctx context.Context, scope auth.Scope, statuses ...domain.TicketStatus) (int, error)
	CategoryBreakdown(ctx context.Context, scope auth.Scope, year int, tz string) ([]domain.CategoryBreakdown, error)
	SoftDelete(ctx context.Context, id int64, at time.Time) error
	Restore(ctx context.Context, id int64, at time.Time) error
	ListDeleted(ctx context.Context, creatorID int64) ([]domain.Ticket, error)
	ListDeletedBefore(ctx context.Context, cutoff time.Time) ([]domain.Ticket, error)
}

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

const ticketColumns = `id, number, project_id, category_id, priority, status, issue, resolution,
               created_by, updated_by, created_at, updated_at, active, deleted_at,
               opened_at, due_at, completed_at, estimate_hours, lead_hours, rating, rating_comment`

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO tickets (number, project_id, category_id, priority, status, issue, resolution,
                             created_by, updated_by, created_at, updated_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$10)
        RETURNING id, active`
	return conn(ctx, r.pool).QueryRow(ctx, query,
		ticket.Number,
		ticket.ProjectID,
		ticket.CategoryID,
		ticket.Priority,
		ticket.Status,
		ticket.Issue,
		ticket.Resolution,
		ticket.CreatedBy,
		ticket.UpdatedBy,
		ticket.CreatedAt,
	).Scan(&ticket.ID, &ticket.Active)
}

func (r *ticketRepository) Update(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        UPDATE tickets SET project_id=$1, category_id=$2, priority=$3, status=$4, issue=$5, resolution=$6,
            updated_by=$7, updated_at=$8, opened_at=$9, due_at=$10, completed_at=$11,
            estimate_hours=$12, lead_hours=$13, rating=$14, rating_comment=$15
        WHERE id=$16`
	cmd, err := conn(ctx, r.pool).Exec(ctx, query,
		ticket.ProjectID,
		ticket.CategoryID,
		ticket.Priority,
		ticket.Status,
		ticket.Issue,
		ticket.Resolution,
		ticket.UpdatedBy,
		ticket.UpdatedAt,
		ticket.OpenedAt,
		ticket.DueAt,
		ticket.CompletedAt,
		ticket.EstimateHours,
		ticket.LeadHours,
		ticket.Rating,
		ticket.RatingComment,
		ticket.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *ticketRepository) GetByID(ctx context.Context, id int64) (*domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE id=$1`
	return scanTicket(conn(ctx, r.pool).QueryRow(ctx, query, id))
}

func (r *ticketRepository) GetForUpdate(ctx context.Context, id int64) (*domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE id=$1 FOR UPDATE`
	return scanTicket(conn(ctx, r.pool).QueryRow(ctx, query, id))
}

func (r *ticketRepository) GetByNumber(ctx context.Context, number string) (*domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE number=$1`
	return scanTicket(conn(ctx, r.pool).QueryRow(ctx, query, number))
}

func (r *ticketRepository) MaxNumberWithPrefix(ctx context.Context, prefix string) (string, error) {
	const query = `
        SELECT number FROM tickets
        WHERE number LIKE $1 || '%'
        ORDER BY CAST(SUBSTRING(number FROM $2) AS INTEGER) DESC
        LIMIT 1`
	var number string
	err := conn(ctx, r.pool).QueryRow(ctx, query, prefix, len(prefix)+1).Scan(&number)
	if IsNoRows(err) {
		return "", nil
	}
	return number, err
}

func (r *ticketRepository) ExistsNumber(ctx context.Context, number string) (bool, error) {
	var exists bool
	err := conn(ctx, r.pool).QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM tickets WHERE number=$1)`, number).Scan(&exists)
	return exists, err
}

// scopeClause renders scope as a WHERE fragment. Callers must not query with
// ScopeNone.
func scopeClause(scope auth.Scope, args *[]any) string {
	switch scope.Kind {
	case auth.ScopeAll:
		return "t.active"
	case auth.ScopeAssigned:
		*args = append(*args, scope.UserID)
		return fmt.Sprintf("t.active AND EXISTS (SELECT 1 FROM ticket_assignments a WHERE a.ticket_id = t.id AND a.user_id = $%d)", len(*args))
	case auth.ScopeCreator:
		*args = append(*args, scope.UserID)
		return fmt.Sprintf("t.active AND t.created_by = $%d", len(*args))
	}
	return "FALSE"
}

func (r *ticketRepository) List(ctx context.Context, scope auth.Scope, filter TicketFilter) ([]domain.Ticket, int, error) {
	if scope.IsNone() {
		return nil, 0, nil
	}

	args := []any{}
	clauses := []string{scopeClause(scope, &args)}

	if filter.ProjectID != nil {
		args = append(args, *filter.ProjectID)
		clauses = append(clauses, fmt.Sprintf("t.project_id=$%d", len(args)))
	}
	if filter.CategoryID != nil {
		args = append(args, *filter.CategoryID)
		clauses = append(clauses, fmt.Sprintf("t.category_id=$%d", len(args)))
	}
	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("t.status IN (%s)", strings.Join(placeholders, ",")))
	}
	if len(filter.Priorities) > 0 {
		placeholders := make([]string, len(filter.Priorities))
		for i, pr := range filter.Priorities {
			args = append(args, pr)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("t.priority IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.CreatedFrom != nil {
		args = append(args, *filter.CreatedFrom)
		clauses = append(clauses, fmt.Sprintf("t.created_at >= $%d", len(args)))
	}
	if filter.CreatedTo != nil {
		args = append(args, *filter.CreatedTo)
		clauses = append(clauses, fmt.Sprintf("t.created_at <= $%d", len(args)))
	}
	if filter.SearchTerm != nil && strings.TrimSpace(*filter.SearchTerm) != "" {
		search := "%" + strings.ToLower(strings.TrimSpace(*filter.SearchTerm)) + "%"
		args = append(args, search)
		placeholder := fmt.Sprintf("$%d", len(args))
		clauses = append(clauses, fmt.Sprintf("(LOWER(t.number) LIKE %s OR LOWER(t.issue) LIKE %s)", placeholder, placeholder))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	where := strings.Join(clauses, " AND ")
	db := conn(ctx, r.pool)

	var total int
	if err := db.QueryRow(ctx, `SELECT COUNT(*) FROM tickets t WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`SELECT %s FROM tickets t WHERE %s ORDER BY t.created_at DESC, t.id DESC LIMIT %d OFFSET %d`,
		qualified(ticketColumns), where, limit, offset)
	rows, err := db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	items, err := scanTickets(rows)
	return items, total, err
}

func (r *ticketRepository) CountByStatus(ctx context.Context, scope auth.Scope, statuses ...domain.TicketStatus) (int, error) {
	if scope.IsNone() {
		return 0, nil
	}
	args := []any{}
	where := scopeClause(scope, &args)
	if len(statuses) > 0 {
		placeholders := make([]string, len(statuses))
		for i, status := range statuses {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		where += fmt.Sprintf(" AND t.status IN (%s)", strings.Join(placeholders, ","))
	}

	var count int
	err := conn(ctx, r.pool).QueryRow(ctx, `SELECT COUNT(*) FROM tickets t WHERE `+where, args...).Scan(&count)
	return count, err
}

func (r *ticketRepository) CategoryBreakdown(ctx context.Context, scope auth.Scope, year int, tz string) ([]domain.CategoryBreakdown, error) {
	if scope.IsNone() {
		return nil, nil
	}
	if tz == "" {
		tz = "UTC"
	}
	args := []any{tz, year}
	where := scopeClause(scope, &args)

	query := `
        SELECT t.category_id, to_char(t.created_at AT TIME ZONE $1, 'YYYY-MM') AS month, COUNT(*)
        FROM tickets t
        WHERE ` + where + ` AND EXTRACT(YEAR FROM t.created_at AT TIME ZONE $1) = $2
        GROUP BY t.category_id, month
        ORDER BY month, t.category_id`
	rows, err := conn(ctx, r.pool).Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.CategoryBreakdown
	for rows.Next() {
		var row domain.CategoryBreakdown
		if err := rows.Scan(&row.CategoryID, &row.Month, &row.Count); err != nil {
			return nil, err
		}
		result = append(result, row)
	}
	return result, rows.Err()
}

func (r *ticketRepository) SoftDelete(ctx context.Context, id int64, at time.Time) error {
	cmd, err := conn(ctx, r.pool).Exec(ctx,
		`UPDATE tickets SET active=FALSE, deleted_at=$1, updated_at=$1 WHERE id=$2 AND active`, at, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *ticketRepository) Restore(ctx context.Context, id int64, at time.Time) error {
	cmd, err := conn(ctx, r.pool).Exec(ctx,
		`UPDATE tickets SET active=TRUE, deleted_at=NULL, updated_at=$1 WHERE id=$2 AND NOT active`, at, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *ticketRepository) ListDeleted(ctx context.Context, creatorID int64) ([]domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE NOT active AND created_by=$1 ORDER BY deleted_at DESC`
	rows, err := conn(ctx, r.pool).Query(ctx, query, creatorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

func (r *ticketRepository) ListDeletedBefore(ctx context.Context, cutoff time.Time) ([]domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE NOT active AND deleted_at <= $1 ORDER BY deleted_at`
	rows, err := conn(ctx, r.pool).Query(ctx, query, cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

// qualified prefixes every column in cols with the t alias.
func qualified(cols string) string {
	parts := strings.Split(cols, ",")
	for i, part := range parts {
		parts[i] = "t." + strings.TrimSpace(part)
	}
	return strings.Join(parts, ", ")
}

func scanTicket(row pgx.Row) (*domain.Ticket, error) {
	var ticket domain.Ticket
	if err := row.Scan(
		&ticket.ID,
		&ticket.Number,
		&ticket.ProjectID,
		&ticket.CategoryID,
		&ticket.Priority,
		&ticket.Status,
		&ticket.Issue,
		&ticket.Resolution,
		&ticket.CreatedBy,
		&ticket.UpdatedBy,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
		&ticket.Active,
		&ticket.DeletedAt,
		&ticket.OpenedAt,
		&ticket.DueAt,
		&ticket.CompletedAt,
		&ticket.EstimateHours,
		&ticket.LeadHours,
		&ticket.Rating,
		&ticket.RatingComment,
	); err != nil {
		return nil, err
	}
	return &ticket, nil
}

func scanTickets(rows pgx.Rows) ([]domain.Ticket, error) {
	var result []domain.Ticket
	for rows.Next() {
		ticket, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *ticket)
	}
	return result, rows.Err()
}
