package handlers

import (
	"context"

	"apega/internal/services/notification"
	"apega/internal/utils"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type Inbox interface {
	List(ctx context.Context, userID uint, limit, offset int) (*notification.Page, error)
	MarkRead(ctx context.Context, userID, id uint) error
	MarkAllRead(ctx context.Context, userID uint) (int64, error)
}

type NotificationHandler struct {
	inbox  Inbox
	logger *zap.Logger
}

func NewNotificationHandler(inbox Inbox, logger *zap.Logger) *NotificationHandler {
	return &NotificationHandler{inbox: inbox, logger: logger}
}

func (h *NotificationHandler) List(c *fiber.Ctx) error {
	claims, err := claimsOf(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	p := utils.GetPagination(c, 1, 30)
	page, err := h.inbox.List(c.UserContext(), claims.UserID, p.Limit, p.Offset)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	p.SetTotal(page.Total)
	return utils.Success(c, fiber.Map{
		"notifications": page.Notifications,
		"unread_count":  page.Unread,
		"pagination":    p,
	})
}

func (h *NotificationHandler) MarkRead(c *fiber.Ctx) error {
	claims, err := claimsOf(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}
	id, err := pathID(c, "id")
	if err != nil {
		return respondError(c, h.logger, err)
	}

	if err := h.inbox.MarkRead(c.UserContext(), claims.UserID, id); err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.Success(c, fiber.Map{"success": true})
}

func (h *NotificationHandler) MarkAllRead(c *fiber.Ctx) error {
	claims, err := claimsOf(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	n, err := h.inbox.MarkAllRead(c.UserContext(), claims.UserID)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.Success(c, fiber.Map{"updated": n})
}
