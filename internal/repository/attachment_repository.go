package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// AttachmentRepository persists attachment metadata.
type AttachmentRepository interface {
	Create(ctx context.Context, attachment *domain.Attachment) error
	// NextSequence returns the next per-(ticket, tag) sequence. It locks the
	// parent ticket row, so it must run inside a transaction.
	NextSequence(ctx context.Context, ticketID int64, tag domain.AttachmentTag) (int, error)
	GetByID(ctx context.Context, id int64) (*domain.Attachment, error)
	ListByTicket(ctx context.Context, ticketID int64, includeDeleted bool) ([]domain.Attachment, error)
	SoftDelete(ctx context.Context, id int64, at time.Time) error
	Restore(ctx context.Context, id int64) error
	ListDeletedBefore(ctx context.Context, cutoff time.Time) ([]domain.Attachment, error)
}

type attachmentRepository struct {
	pool *pgxpool.Pool
}

// NewAttachmentRepository constructs repository.
func NewAttachmentRepository(pool *pgxpool.Pool) AttachmentRepository {
	return &attachmentRepository{pool: pool}
}

const attachmentColumns = `id, ticket_id, tag, extension, stored_name, sequence, created_by, created_at, active, deleted_at`

func (r *attachmentRepository) Create(ctx context.Context, attachment *domain.Attachment) error {
	const query = `
        INSERT INTO ticket_attachments (ticket_id, tag, extension, stored_name, sequence, created_by, created_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        RETURNING id, active`
	return conn(ctx, r.pool).QueryRow(ctx, query,
		attachment.TicketID,
		attachment.Tag,
		attachment.Extension,
		attachment.StoredName,
		attachment.Sequence,
		attachment.CreatedBy,
		attachment.CreatedAt,
	).Scan(&attachment.ID, &attachment.Active)
}

func (r *attachmentRepository) NextSequence(ctx context.Context, ticketID int64, tag domain.AttachmentTag) (int, error) {
	db := conn(ctx, r.pool)
	var locked int64
	if err := db.QueryRow(ctx, `SELECT id FROM tickets WHERE id=$1 FOR UPDATE`, ticketID).Scan(&locked); err != nil {
		return 0, err
	}
	var next int
	err := db.QueryRow(ctx,
		`SELECT COALESCE(MAX(sequence), 0) + 1 FROM ticket_attachments WHERE ticket_id=$1 AND tag=$2`,
		ticketID, tag).Scan(&next)
	return next, err
}

func (r *attachmentRepository) GetByID(ctx context.Context, id int64) (*domain.Attachment, error) {
	query := `SELECT ` + attachmentColumns + ` FROM ticket_attachments WHERE id=$1`
	return scanAttachment(conn(ctx, r.pool).QueryRow(ctx, query, id))
}

func (r *attachmentRepository) ListByTicket(ctx context.Context, ticketID int64, includeDeleted bool) ([]domain.Attachment, error) {
	query := `SELECT ` + attachmentColumns + ` FROM ticket_attachments WHERE ticket_id=$1`
	if !includeDeleted {
		query += ` AND active`
	}
	query += ` ORDER BY tag, sequence`
	rows, err := conn(ctx, r.pool).Query(ctx, query, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanAttachments(rows)
}

func (r *attachmentRepository) SoftDelete(ctx context.Context, id int64, at time.Time) error {
	cmd, err := conn(ctx, r.pool).Exec(ctx,
		`UPDATE ticket_attachments SET active=FALSE, deleted_at=$1 WHERE id=$2 AND active`, at, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *attachmentRepository) Restore(ctx context.Context, id int64) error {
	cmd, err := conn(ctx, r.pool).Exec(ctx,
		`UPDATE ticket_attachments SET active=TRUE, deleted_at=NULL WHERE id=$1 AND NOT active`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *attachmentRepository) ListDeletedBefore(ctx context.Context, cutoff time.Time) ([]domain.Attachment, error) {
	query := `SELECT ` + attachmentColumns + ` FROM ticket_attachments WHERE NOT active AND deleted_at <= $1 ORDER BY deleted_at`
	rows, err := conn(ctx, r.pool).Query(ctx, query, cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanAttachments(rows)
}

func scanAttachment(row pgx.Row) (*domain.Attachment, error) {
	var attachment domain.Attachment
	if err := row.Scan(
		&attachment.ID,
		&attachment.TicketID,
		&attachment.Tag,
		&attachment.Extension,
		&attachment.StoredName,
		&attachment.Sequence,
		&attachment.CreatedBy,
		&attachment.CreatedAt,
		&attachment.Active,
		&attachment.DeletedAt,
	); err != nil {
		return nil, err
	}
	return &attachment, nil
}

func scanAttachments(rows pgx.Rows) ([]domain.Attachment, error) {
	var result []domain.Attachment
	for rows.Next() {
		attachment, err := scanAttachment(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *attachment)
	}
	return result, rows.Err()
}
