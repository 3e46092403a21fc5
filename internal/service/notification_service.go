package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/config"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/events"
)

// NotificationChannel is a delivery route for a notification.
type NotificationChannel string

const (
	ChannelEmail   NotificationChannel = "email"
	ChannelWebhook NotificationChannel = "webhook"
)

// Notification is one outbound message derived from a ticket event.
type Notification struct {
	Channel     NotificationChannel
	TicketID    int64
	RecipientID int64
	Subject     string
}

// NotificationService turns ticket events into outbound notifications.
// Delivery is stubbed: messages are logged against the configured sender
// address and webhook URL.
type NotificationService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	cfg        config.NotificationConfig
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, logger *zap.Logger, cfg config.NotificationConfig) *NotificationService {
	return &NotificationService{
		dispatcher: dispatcher,
		logger:     orNop(logger),
		cfg:        cfg,
	}
}

// RegisterHandlers subscribes to every ticket lifecycle event.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	for _, t := range []events.EventType{
		events.EventTicketCreated,
		events.EventTicketStatusChanged,
		events.EventTicketAssigned,
		events.EventTicketDeleted,
		events.EventTicketRestored,
	} {
		n.dispatcher.Subscribe(t, n.handle)
	}
}

func (n *NotificationService) handle(ctx context.Context, event events.Event) error {
	n.logger.Info("ticket event",
		zap.String("event_id", event.ID),
		zap.String("event_type", string(event.Type)),
		zap.Int64("ticket_id", event.TicketID),
		zap.Int64("actor_id", event.ActorID))

	for _, msg := range NotificationsFor(event) {
		switch msg.Channel {
		case ChannelEmail:
			n.sendEmailNotificationStub(ctx, msg)
		case ChannelWebhook:
			n.sendWebhookNotificationStub(ctx, msg)
		}
	}
	return nil
}

// NotificationsFor lists the messages an event produces. Every event goes to
// the webhook; email goes to the person who has to act next.
func NotificationsFor(event events.Event) []Notification {
	webhook := Notification{Channel: ChannelWebhook, TicketID: event.TicketID, Subject: string(event.Type)}

	switch p := event.Payload.(type) {
	case events.TicketCreatedPayload:
		webhook.Subject = fmt.Sprintf("Ticket %s created", p.Number)
		return []Notification{webhook}

	case events.TicketStatusChangedPayload:
		webhook.Subject = fmt.Sprintf("Ticket moved from %s to %s", p.OldStatus, p.NewStatus)
		out := []Notification{webhook}
		if p.NewStatus == domain.TicketStatusResolved && p.CreatedBy != 0 {
			out = append(out, Notification{
				Channel:     ChannelEmail,
				TicketID:    event.TicketID,
				RecipientID: p.CreatedBy,
				Subject:     "Your ticket was resolved, please confirm",
			})
		}
		return out

	case events.TicketAssignedPayload:
		if !p.Assigned {
			webhook.Subject = "Assignee removed"
			return []Notification{webhook}
		}
		webhook.Subject = "Ticket assigned"
		return []Notification{webhook, {
			Channel:     ChannelEmail,
			TicketID:    event.TicketID,
			RecipientID: p.AssigneeID,
			Subject:     "A ticket was assigned to you",
		}}

	case events.TicketTrashPayload:
		verb := "deleted"
		if event.Type == events.EventTicketRestored {
			verb = "restored"
		}
		webhook.Subject = fmt.Sprintf("Ticket %s %s", p.Number, verb)
		return []Notification{webhook}
	}
	return []Notification{webhook}
}

func (n *NotificationService) sendEmailNotificationStub(_ context.Context, msg Notification) {
	if strings.TrimSpace(n.cfg.EmailFrom) == "" {
		return
	}
	n.logger.Debug("sendEmailNotificationStub",
		zap.String("from", n.cfg.EmailFrom),
		zap.Int64("recipient_id", msg.RecipientID),
		zap.Int64("ticket_id", msg.TicketID),
		zap.String("subject", msg.Subject))
}

func (n *NotificationService) sendWebhookNotificationStub(_ context.Context, msg Notification) {
	if strings.TrimSpace(n.cfg.WebhookURL) == "" {
		return
	}
	n.logger.Debug("sendWebhookNotificationStub",
		zap.String("url", n.cfg.WebhookURL),
		zap.Int64("ticket_id", msg.TicketID),
		zap.String("subject", msg.Subject))
}
