package domain

// Webhook event types sent by the payment provider
const (
	WebhookEventPaymentSuccess        = "payment.success"
	WebhookEventPaymentFailed         = "payment.failed"
	WebhookEventSubscriptionCancelled = "subscription.cancelled"
	WebhookEventSubscriptionRenewed   = "subscription.renewed"
)

// WebhookEvent is an asynchronous provider callback. EventID is the
// provider-assigned identifier used for replay deduplication.
type WebhookEvent struct {
	EventID            string           `json:"eventId"`
	EventType          string           `json:"eventType"`
	UserID             string           `json:"userId"`
	PaymentID          string           `json:"paymentId,omitempty"`
	SubscriptionPlan   SubscriptionPlan `json:"subscriptionPlan,omitempty"`
	Amount             float64          `json:"amount,omitempty"`
	ErrorMessage       string           `json:"errorMessage,omitempty"`
	CancellationReason string           `json:"cancellationReason,omitempty"`
}
