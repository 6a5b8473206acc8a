package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/wodoo-app/subscription-service/internal/api/rest/middleware"
	"github.com/wodoo-app/subscription-service/internal/domain"
	"github.com/wodoo-app/subscription-service/internal/repository"
	"github.com/wodoo-app/subscription-service/internal/service"
	"github.com/wodoo-app/subscription-service/pkg/logger"
)

// SubscriptionHandler handles subscription lifecycle endpoints
type SubscriptionHandler struct {
	service  service.SubscriptionService
	payments repository.PaymentRepository
	log      *logger.Logger
}

// NewSubscriptionHandler creates a new subscription handler
func NewSubscriptionHandler(svc service.SubscriptionService, payments repository.PaymentRepository, log *logger.Logger) *SubscriptionHandler {
	return &SubscriptionHandler{
		service:  svc,
		payments: payments,
		log:      log,
	}
}

type verifyRequest struct {
	PaymentID string                  `json:"paymentId" binding:"required"`
	Plan      domain.SubscriptionPlan `json:"plan" binding:"required"`
	Amount    float64                 `json:"amount" binding:"required"`
}

// Verify activates a subscription from a verified client-side purchase
func (h *SubscriptionHandler) Verify(c *gin.Context) {
	userID := middleware.UserID(c)

	var req verifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	sub, err := h.service.VerifyAndActivate(c.Request.Context(), userID, req.Plan, req.PaymentID, req.Amount)
	if err != nil {
		h.writeError(c, err, "Failed to activate subscription")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"message":      "Abonelik başarıyla oluşturuldu",
		"subscription": sub,
	})
}

// Status returns the caller's subscription view
func (h *SubscriptionHandler) Status(c *gin.Context) {
	userID := middleware.UserID(c)

	status, err := h.service.CheckStatus(c.Request.Context(), userID)
	if err != nil {
		h.log.Error("Failed to check subscription status for user %s: %v", userID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check subscription status"})
		return
	}

	c.JSON(http.StatusOK, status)
}

type cancelRequest struct {
	Reason string `json:"reason"`
}

// Cancel cancels the caller's subscription
func (h *SubscriptionHandler) Cancel(c *gin.Context) {
	userID := middleware.UserID(c)

	var req cancelRequest
	_ = c.ShouldBindJSON(&req)

	if err := h.service.Cancel(c.Request.Context(), userID, req.Reason); err != nil {
		h.writeError(c, err, "Failed to cancel subscription")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Abonelik iptal edildi",
	})
}

type renewRequest struct {
	Plan domain.SubscriptionPlan `json:"plan" binding:"required"`
}

// Renew charges the stored payment method and renews the subscription
func (h *SubscriptionHandler) Renew(c *gin.Context) {
	userID := middleware.UserID(c)

	var req renewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	sub, err := h.service.ManualRenew(c.Request.Context(), userID, req.Plan)
	if err != nil {
		h.writeError(c, err, "Failed to renew subscription")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"message":      "Abonelik başarıyla yenilendi",
		"paymentId":    sub.PaymentID,
		"subscription": sub,
	})
}

type autoRenewalRequest struct {
	AutoRenewal   bool   `json:"autoRenewal"`
	PaymentMethod string `json:"paymentMethod"`
}

// UpdateAutoRenewal stores the caller's auto-renewal settings
func (h *SubscriptionHandler) UpdateAutoRenewal(c *gin.Context) {
	userID := middleware.UserID(c)

	var req autoRenewalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	if err := h.service.UpdateAutoRenewalSettings(c.Request.Context(), userID, req.AutoRenewal, req.PaymentMethod); err != nil {
		h.writeError(c, err, "Failed to update auto-renewal settings")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Otomatik yenileme ayarları güncellendi",
	})
}

// Payments returns the caller's charge history
func (h *SubscriptionHandler) Payments(c *gin.Context) {
	userID := middleware.UserID(c)

	records, err := h.payments.GetByUserID(c.Request.Context(), userID)
	if err != nil {
		h.log.Error("Failed to list payments for user %s: %v", userID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list payments"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"payments": records})
}

func (h *SubscriptionHandler) writeError(c *gin.Context, err error, fallback string) {
	var paymentErr *domain.PaymentError
	switch {
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
	case errors.As(err, &paymentErr):
		h.log.Warn("Payment failure: %v", err)
		c.JSON(http.StatusPaymentRequired, gin.H{"error": paymentErr.Message, "code": paymentErr.Code})
	case errors.Is(err, domain.ErrVersionConflict):
		c.JSON(http.StatusConflict, gin.H{"error": "Concurrent update, retry"})
	default:
		h.log.Error("%s: %v", fallback, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": fallback})
	}
}
