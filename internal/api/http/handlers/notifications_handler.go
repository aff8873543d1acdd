package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/notification-center/internal/api/dto"
	"github.com/spec-kit/notification-center/internal/auth"
	"github.com/spec-kit/notification-center/internal/domain"
	"github.com/spec-kit/notification-center/internal/repository"
	"github.com/spec-kit/notification-center/internal/service"
)

// NotificationsHandler exposes the recipient inbox and the send endpoints.
type NotificationsHandler struct {
	inbox    *service.InboxService
	delivery *service.DeliveryService
}

// NewNotificationsHandler constructs handler.
func NewNotificationsHandler(inbox *service.InboxService, delivery *service.DeliveryService) *NotificationsHandler {
	return &NotificationsHandler{inbox: inbox, delivery: delivery}
}

// List handles GET /api/v1/notifications.
func (h *NotificationsHandler) List(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return fiber.NewError(http.StatusUnauthorized, "unauthenticated")
	}

	filter := repository.NotificationFilter{
		UnreadOnly: c.QueryBool("unread"),
		Limit:      c.QueryInt("limit", 20),
		Offset:     c.QueryInt("offset", 0),
	}
	if category := c.Query("category"); category != "" {
		cat := domain.NotificationCategory(category)
		filter.Category = &cat
	}

	notifications, err := h.inbox.List(c.UserContext(), principal.SubjectID, filter)
	if err != nil {
		return err
	}

	items := make([]dto.NotificationResponse, 0, len(notifications))
	for i := range notifications {
		items = append(items, dto.FromNotification(&notifications[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// UnreadCount handles GET /api/v1/notifications/unread-count.
func (h *NotificationsHandler) UnreadCount(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return fiber.NewError(http.StatusUnauthorized, "unauthenticated")
	}

	count, err := h.inbox.UnreadCount(c.UserContext(), principal.SubjectID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"unread": count}})
}

// MarkRead handles POST /api/v1/notifications/:id/read.
func (h *NotificationsHandler) MarkRead(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return fiber.NewError(http.StatusUnauthorized, "unauthenticated")
	}

	if err := h.inbox.MarkAsRead(c.UserContext(), c.Params("id"), principal.SubjectID); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// MarkAllRead handles POST /api/v1/notifications/read-all.
func (h *NotificationsHandler) MarkAllRead(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return fiber.NewError(http.StatusUnauthorized, "unauthenticated")
	}

	updated, err := h.inbox.MarkAllAsRead(c.UserContext(), principal.SubjectID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"updated": updated}})
}

// Delete handles DELETE /api/v1/notifications/:id.
func (h *NotificationsHandler) Delete(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return fiber.NewError(http.StatusUnauthorized, "unauthenticated")
	}

	if err := h.inbox.Delete(c.UserContext(), c.Params("id"), principal.SubjectID); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// DeliveryLogs handles GET /api/v1/notifications/:id/deliveries.
func (h *NotificationsHandler) DeliveryLogs(c *fiber.Ctx) error {
	entries, err := h.inbox.DeliveryLogs(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}

	items := make([]dto.DeliveryLogResponse, 0, len(entries))
	for _, entry := range entries {
		items = append(items, dto.FromDeliveryLog(entry))
	}
	return c.JSON(fiber.Map{"data": items})
}

// Send handles POST /api/v1/send.
func (h *NotificationsHandler) Send(c *fiber.Ctx) error {
	var req dto.SendRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	if req.UserID == "" || req.Type == "" || req.Title == "" {
		return fiber.NewError(http.StatusBadRequest, "user_id, type, title required")
	}
	channels, ok := dto.ParseChannels(req.Channels)
	if !ok {
		return fiber.NewError(http.StatusBadRequest, "unknown channel")
	}

	notification, outcomes, err := h.delivery.Send(c.UserContext(), service.SendInput{
		UserID:      req.UserID,
		Type:        domain.NotificationType(req.Type),
		Title:       req.Title,
		Body:        req.Body,
		ReferenceID: req.ReferenceID,
		DeepLink:    req.DeepLink,
		Channels:    channels,
	})
	if err != nil {
		return err
	}

	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": fiber.Map{
		"notification": dto.FromNotification(notification),
		"outcomes":     dto.FromOutcomes(outcomes),
	}})
}

// SendBulk handles POST /api/v1/send/bulk.
func (h *NotificationsHandler) SendBulk(c *fiber.Ctx) error {
	var req dto.BulkSendRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	if len(req.UserIDs) == 0 || req.Type == "" || req.Title == "" {
		return fiber.NewError(http.StatusBadRequest, "user_ids, type, title required")
	}
	channels, ok := dto.ParseChannels(req.Channels)
	if !ok {
		return fiber.NewError(http.StatusBadRequest, "unknown channel")
	}

	failures := h.delivery.SendBulk(c.UserContext(), req.UserIDs, service.SendInput{
		Type:        domain.NotificationType(req.Type),
		Title:       req.Title,
		Body:        req.Body,
		ReferenceID: req.ReferenceID,
		DeepLink:    req.DeepLink,
		Channels:    channels,
	})

	failed := make([]fiber.Map, 0, len(failures))
	for _, failure := range failures {
		failed = append(failed, fiber.Map{
			"user_id": failure.UserID,
			"error":   failure.Err.Error(),
		})
	}
	return c.Status(http.StatusAccepted).JSON(fiber.Map{"data": fiber.Map{
		"recipients": len(req.UserIDs),
		"failures":   failed,
	}})
}

// SendToRole handles POST /api/v1/send/role.
func (h *NotificationsHandler) SendToRole(c *fiber.Ctx) error {
	var req dto.RoleSendRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	if req.Role == "" || req.Type == "" || req.Title == "" {
		return fiber.NewError(http.StatusBadRequest, "role, type, title required")
	}
	channels, ok := dto.ParseChannels(req.Channels)
	if !ok {
		return fiber.NewError(http.StatusBadRequest, "unknown channel")
	}

	recipients, failures, err := h.delivery.SendToRole(c.UserContext(), domain.StaffRole(req.Role), service.SendInput{
		Type:        domain.NotificationType(req.Type),
		Title:       req.Title,
		Body:        req.Body,
		ReferenceID: req.ReferenceID,
		DeepLink:    req.DeepLink,
		Channels:    channels,
	})
	if err != nil {
		return err
	}

	failed := make([]fiber.Map, 0, len(failures))
	for _, failure := range failures {
		failed = append(failed, fiber.Map{
			"user_id": failure.UserID,
			"error":   failure.Err.Error(),
		})
	}
	return c.Status(http.StatusAccepted).JSON(fiber.Map{"data": fiber.Map{
		"recipients": len(recipients),
		"failures":   failed,
	}})
}
