package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/wodoo-app/subscription-service/internal/api/rest/middleware"
	"github.com/wodoo-app/subscription-service/internal/domain"
	"github.com/wodoo-app/subscription-service/internal/service"
	"github.com/wodoo-app/subscription-service/pkg/logger"
)

// NotificationHandler handles notification endpoints
type NotificationHandler struct {
	service service.NotificationService
	log     *logger.Logger
}

// NewNotificationHandler creates a new notification handler
func NewNotificationHandler(svc service.NotificationService, log *logger.Logger) *NotificationHandler {
	return &NotificationHandler{
		service: svc,
		log:     log,
	}
}

// SendTest sends a test notification to the caller's device
func (h *NotificationHandler) SendTest(c *gin.Context) {
	userID := middleware.UserID(c)

	if err := h.service.SendTest(c.Request.Context(), userID); err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		case errors.Is(err, domain.ErrInvalidInput):
			c.JSON(http.StatusBadRequest, gin.H{"error": "No FCM token registered"})
		default:
			h.log.Error("Failed to send test notification to user %s: %v", userID, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to send test notification"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Test bildirimi gönderildi",
	})
}

// History returns the caller's notification delivery records
func (h *NotificationHandler) History(c *gin.Context) {
	userID := middleware.UserID(c)

	records, err := h.service.History(c.Request.Context(), userID)
	if err != nil {
		h.log.Error("Failed to list notifications for user %s: %v", userID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list notifications"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"notifications": records})
}
