package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/wodoo-app/subscription-service/internal/api/rest/middleware"
	"github.com/wodoo-app/subscription-service/internal/domain"
	"github.com/wodoo-app/subscription-service/internal/service"
	"github.com/wodoo-app/subscription-service/pkg/logger"
)

// InvoiceHandler handles invoice endpoints
type InvoiceHandler struct {
	service service.InvoiceService
	log     *logger.Logger
}

// NewInvoiceHandler creates a new invoice handler
func NewInvoiceHandler(svc service.InvoiceService, log *logger.Logger) *InvoiceHandler {
	return &InvoiceHandler{
		service: svc,
		log:     log,
	}
}

type createInvoiceRequest struct {
	PaymentID string                  `json:"paymentId" binding:"required"`
	Plan      domain.SubscriptionPlan `json:"subscriptionPlan" binding:"required"`
	Amount    float64                 `json:"amount" binding:"required"`
}

// Create issues an invoice for a completed payment
func (h *InvoiceHandler) Create(c *gin.Context) {
	userID := middleware.UserID(c)

	var req createInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	invoice, err := h.service.CreateInvoiceForUser(c.Request.Context(), userID, req.PaymentID, req.Plan, req.Amount)
	if err != nil {
		h.writeError(c, err, "Failed to create invoice")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":       true,
		"invoiceId":     invoice.InvoiceID,
		"invoiceNumber": invoice.InvoiceNumber,
		"message":       "E-fatura başarıyla oluşturuldu",
	})
}

// Get returns one invoice belonging to the caller
func (h *InvoiceHandler) Get(c *gin.Context) {
	userID := middleware.UserID(c)
	invoiceID := c.Param("id")

	invoice, err := h.service.GetInvoice(c.Request.Context(), userID, invoiceID)
	if err != nil {
		h.writeError(c, err, "Failed to get invoice")
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "invoice": invoice})
}

// List returns the caller's invoices, newest first
func (h *InvoiceHandler) List(c *gin.Context) {
	userID := middleware.UserID(c)
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	invoices, err := h.service.ListInvoices(c.Request.Context(), userID, limit, offset)
	if err != nil {
		h.log.Error("Failed to list invoices for user %s: %v", userID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list invoices"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"invoices": invoices,
		"total":    len(invoices),
	})
}

// Send hands the invoice off to the e-invoice portal
func (h *InvoiceHandler) Send(c *gin.Context) {
	userID := middleware.UserID(c)
	invoiceID := c.Param("id")

	invoice, err := h.service.SendEInvoice(c.Request.Context(), userID, invoiceID)
	if err != nil {
		h.writeError(c, err, "Failed to send e-invoice")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"eInvoiceId":  invoice.EInvoiceID,
		"eInvoiceUrl": invoice.EInvoiceURL,
		"message":     "E-fatura başarıyla gönderildi",
	})
}

// GeneratePDF produces the invoice PDF and returns its URL
func (h *InvoiceHandler) GeneratePDF(c *gin.Context) {
	userID := middleware.UserID(c)
	invoiceID := c.Param("id")

	invoice, err := h.service.GeneratePDF(c.Request.Context(), userID, invoiceID)
	if err != nil {
		h.writeError(c, err, "Failed to generate PDF")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"pdfUrl":  invoice.PDFURL,
		"message": "PDF başarıyla oluşturuldu",
	})
}

func (h *InvoiceHandler) writeError(c *gin.Context, err error, fallback string) {
	if errors.Is(err, domain.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Fatura bulunamadı"})
		return
	}
	h.log.Error("%s: %v", fallback, err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": fallback})
}
