package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-service/internal/api/dto"
	"github.com/spec-kit/helpdesk-service/internal/service"
)

// TrashHandler exposes soft delete and restore.
type TrashHandler struct {
	trash *service.TrashService
}

// NewTrashHandler constructs handler.
func NewTrashHandler(trash *service.TrashService) *TrashHandler {
	return &TrashHandler{trash: trash}
}

// DeleteTicket DELETE /tickets/:id.
func (h *TrashHandler) DeleteTicket(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	if err := h.trash.Delete(c.UserContext(), actor, id); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// RestoreTicket POST /tickets/:id/restore.
func (h *TrashHandler) RestoreTicket(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	ticket, err := h.trash.Restore(c.UserContext(), actor, id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketResponse(ticket)})
}

// ListDeleted GET /trash.
func (h *TrashHandler) ListDeleted(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	deleted, err := h.trash.ListDeleted(c.UserContext(), actor)
	if err != nil {
		return err
	}
	items := make([]dto.DeletedTicketResponse, 0, len(deleted))
	for _, d := range deleted {
		items = append(items, deletedTicketResponse(d))
	}
	return c.JSON(fiber.Map{"data": items})
}

// DeleteAttachment DELETE /attachments/:id.
func (h *TrashHandler) DeleteAttachment(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	if err := h.trash.DeleteAttachment(c.UserContext(), actor, id); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// RestoreAttachment POST /attachments/:id/restore.
func (h *TrashHandler) RestoreAttachment(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	attachment, err := h.trash.RestoreAttachment(c.UserContext(), actor, id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": attachmentResponse(attachment)})
}
