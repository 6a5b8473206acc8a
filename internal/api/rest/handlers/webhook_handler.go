package handlers

import (
	"crypto/hmac"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/wodoo-app/subscription-service/internal/domain"
	"github.com/wodoo-app/subscription-service/internal/service"
	"github.com/wodoo-app/subscription-service/pkg/logger"
)

// signatureHeader carries the provider's HMAC of the request body
const signatureHeader = "X-Iyz-Signature"

// WebhookHandler handles provider callbacks
type WebhookHandler struct {
	service       service.WebhookService
	webhookSecret string
	log           *logger.Logger
}

// NewWebhookHandler creates a new webhook handler
func NewWebhookHandler(svc service.WebhookService, webhookSecret string, log *logger.Logger) *WebhookHandler {
	return &WebhookHandler{
		service:       svc,
		webhookSecret: webhookSecret,
		log:           log,
	}
}

// HandleIyzicoWebhook verifies the signature, decodes the event and hands it
// to the webhook service. The provider always gets 200 once the payload is
// accepted; processing problems are resolved by replay plus deduplication.
func (h *WebhookHandler) HandleIyzicoWebhook(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		h.log.Error("Failed to read webhook body: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read webhook body"})
		return
	}

	if !h.verifySignature(body, c.GetHeader(signatureHeader)) {
		h.log.Warn("Invalid webhook signature from %s", c.ClientIP())
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid signature"})
		return
	}

	var event domain.WebhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		h.log.Error("Failed to decode webhook payload: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid webhook payload"})
		return
	}

	h.service.HandleEvent(c.Request.Context(), event)
	c.String(http.StatusOK, "OK")
}

// verifySignature checks the HMAC-SHA1 of the body against the header. An
// empty configured secret disables verification for local development.
func (h *WebhookHandler) verifySignature(body []byte, signature string) bool {
	if h.webhookSecret == "" {
		return true
	}
	if signature == "" {
		return false
	}

	mac := hmac.New(sha1.New, []byte(h.webhookSecret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(expected), []byte(signature))
}
