package service

import (
	"context"
	"regexp"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/auth"
	"github.com/spec-kit/helpdesk-service/internal/clock"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util"
)

var extensionPattern = regexp.MustCompile(`^[a-z0-9]{0,10}$`)

// AttachmentService registers attachment metadata and names stored files.
// File contents live elsewhere; this service only hands out names.
type AttachmentService struct {
	attachments repository.AttachmentRepository
	tx          repository.TxManager
	clock       clock.Clock
	logger      *zap.Logger
	visible     visibility
}

// AttachmentDependencies bundles collaborators for the attachment service.
type AttachmentDependencies struct {
	TicketRepo     repository.TicketRepository
	AttachmentRepo repository.AttachmentRepository
	AssignmentRepo repository.AssignmentRepository
	TxManager      repository.TxManager
	Clock          clock.Clock
	Logger         *zap.Logger
}

// NewAttachmentService constructs the service.
func NewAttachmentService(deps AttachmentDependencies) *AttachmentService {
	return &AttachmentService{
		attachments: deps.AttachmentRepo,
		tx:          deps.TxManager,
		clock:       orReal(deps.Clock),
		logger:      orNop(deps.Logger),
		visible:     visibility{tickets: deps.TicketRepo, assignments: deps.AssignmentRepo},
	}
}

// Register records a new attachment and returns it with its stored name
// {number}_{tag}_{seq:03d}.{ext}. The sequence is allocated in the database
// per ticket and tag.
func (s *AttachmentService) Register(ctx context.Context, actor auth.Actor, ticketID int64, tag domain.AttachmentTag, ext string) (*domain.Attachment, error) {
	ext = domain.NormalizeExtension(ext)
	if !extensionPattern.MatchString(ext) {
		return nil, apperrors.NewValidationError("invalid file extension", map[string]any{"extension": ext})
	}

	ticket, err := s.visible.load(ctx, actor, ticketID)
	if err != nil {
		return nil, err
	}
	if err := auth.CanAttach(actor, ticket, tag); err != nil {
		return nil, err
	}

	var attachment *domain.Attachment
	err = s.tx.WithinTx(ctx, func(txCtx context.Context) error {
		seq, err := s.attachments.NextSequence(txCtx, ticket.ID, tag)
		if err != nil {
			return err
		}
		attachment = &domain.Attachment{
			TicketID:   ticket.ID,
			Tag:        tag,
			Extension:  ext,
			StoredName: domain.StoredFileName(ticket.Number, tag, seq, ext),
			Sequence:   seq,
			CreatedBy:  actor.UserID,
			CreatedAt:  s.clock.Now(),
			Active:     true,
		}
		return s.attachments.Create(txCtx, attachment)
	})
	if err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, apperrors.NewConflict("attachment name already taken", map[string]any{"ticket_id": ticket.ID})
		}
		return nil, upstream("register attachment", err)
	}

	s.logger.Info("attachment registered",
		zap.Int64("ticket_id", ticket.ID),
		zap.String("stored_name", attachment.StoredName))
	return attachment, nil
}

// ListByTicket returns the active attachments of a visible ticket.
func (s *AttachmentService) ListByTicket(ctx context.Context, actor auth.Actor, ticketID int64) ([]domain.Attachment, error) {
	ticket, err := s.visible.load(ctx, actor, ticketID)
	if err != nil {
		return nil, err
	}
	items, err := s.attachments.ListByTicket(ctx, ticket.ID, false)
	if err != nil {
		return nil, apperrors.NewUpstreamFailure("list attachments", err)
	}
	if items == nil {
		items = []domain.Attachment{}
	}
	return items, nil
}
