package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// ExpiredTrash lists trash entries whose restore window has closed.
type ExpiredTrash interface {
	ListExpired(ctx context.Context) ([]domain.Ticket, error)
	ListExpiredAttachments(ctx context.Context) ([]domain.Attachment, error)
}

// RetentionWorker periodically reports expired trash so an operator job can
// purge it. It never deletes rows itself.
type RetentionWorker struct {
	trash    ExpiredTrash
	interval time.Duration
	logger   *zap.Logger
}

// NewRetentionWorker builds the worker. A non-positive interval disables Run.
func NewRetentionWorker(trash ExpiredTrash, interval time.Duration, logger *zap.Logger) *RetentionWorker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RetentionWorker{trash: trash, interval: interval, logger: logger}
}

// SweepResult is the outcome of one sweep.
type SweepResult struct {
	Tickets     []int64
	Attachments []int64
}

// SweepOnce lists expired tickets and attachments and logs them.
func (w *RetentionWorker) SweepOnce(ctx context.Context) (SweepResult, error) {
	var result SweepResult

	tickets, err := w.trash.ListExpired(ctx)
	if err != nil {
		return result, err
	}
	for _, t := range tickets {
		result.Tickets = append(result.Tickets, t.ID)
	}

	attachments, err := w.trash.ListExpiredAttachments(ctx)
	if err != nil {
		return result, err
	}
	for _, a := range attachments {
		result.Attachments = append(result.Attachments, a.ID)
	}

	if len(result.Tickets) > 0 || len(result.Attachments) > 0 {
		w.logger.Info("expired trash awaiting purge",
			zap.Int64s("ticket_ids", result.Tickets),
			zap.Int64s("attachment_ids", result.Attachments))
	}
	return result, nil
}

// Run sweeps on every tick until ctx is cancelled.
func (w *RetentionWorker) Run(ctx context.Context) {
	if w.interval <= 0 {
		w.logger.Info("retention sweep disabled")
		return
	}
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := w.SweepOnce(ctx); err != nil {
				w.logger.Error("retention sweep failed", zap.Error(err))
			}
		}
	}
}
