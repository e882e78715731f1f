package handlers

import (
	"strconv"

	"shelfmate/internal/adapters/persistence/repositories"
	"shelfmate/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// NotificationHandler handles in-app notification endpoints
type NotificationHandler struct {
	notifRepo *repositories.NotificationRepository
}

// NewNotificationHandler creates a new notification handler
func NewNotificationHandler(notifRepo *repositories.NotificationRepository) *NotificationHandler {
	return &NotificationHandler{
		notifRepo: notifRepo,
	}
}

// List lists the current user's notifications
// @Summary List notifications
// @Description List the authenticated user's notifications, newest first
// @Tags Notifications
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param limit query int false "Max items" default(50)
// @Success 200 {object} response.Response
// @Router /notifications [get]
func (h *NotificationHandler) List(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uint)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	limit, _ := strconv.Atoi(c.Query("limit", "50"))
	if limit < 1 || limit > 200 {
		limit = 50
	}

	notifications, err := h.notifRepo.GetByUserID(c.Context(), userID, limit)
	if err != nil {
		return response.InternalServerError(c, "Failed to list notifications")
	}

	unread, err := h.notifRepo.CountUnread(c.Context(), userID)
	if err != nil {
		return response.InternalServerError(c, "Failed to count notifications")
	}

	return response.Success(c, "Notifications retrieved", fiber.Map{
		"notifications": notifications,
		"unread":        unread,
	})
}

// MarkRead marks one notification as read
// @Summary Mark notification read
// @Description Mark one of the authenticated user's notifications as read
// @Tags Notifications
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Notification ID"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /notifications/{id}/read [post]
func (h *NotificationHandler) MarkRead(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uint)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid notification ID")
	}

	if err := h.notifRepo.MarkRead(c.Context(), uint(id), userID); err != nil {
		return response.InternalServerError(c, "Failed to mark notification read")
	}

	return response.Success(c, "Notification marked read", nil)
}

// MarkAllRead marks all notifications as read
// @Summary Mark all notifications read
// @Description Mark all of the authenticated user's notifications as read
// @Tags Notifications
// @Accept json
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /notifications/read-all [post]
func (h *NotificationHandler) MarkAllRead(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uint)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	if err := h.notifRepo.MarkAllRead(c.Context(), userID); err != nil {
		return response.InternalServerError(c, "Failed to mark notifications read")
	}

	return response.Success(c, "All notifications marked read", nil)
}
