package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/wodoo-app/subscription-service/internal/domain"
	"github.com/wodoo-app/subscription-service/internal/metrics"
	"github.com/wodoo-app/subscription-service/internal/repository"
	"github.com/wodoo-app/subscription-service/pkg/logger"
)

// WebhookService processes provider callbacks. HandleEvent never returns an
// error: the provider gets a 200 regardless, a failed event is logged and the
// provider's replay plus the dedup store handle the rest.
type WebhookService interface {
	HandleEvent(ctx context.Context, event domain.WebhookEvent)
}

type webhookService struct {
	payments      repository.PaymentRepository
	deduper       repository.EventDeduper
	subscriptions SubscriptionService
	notifications NotificationService
	metrics       metrics.SubscriptionMetrics
	log           *logger.Logger
}

// NewWebhookService creates a new webhook service
func NewWebhookService(
	payments repository.PaymentRepository,
	deduper repository.EventDeduper,
	subscriptions SubscriptionService,
	notifications NotificationService,
	m metrics.SubscriptionMetrics,
	log *logger.Logger,
) WebhookService {
	return &webhookService{
		payments:      payments,
		deduper:       deduper,
		subscriptions: subscriptions,
		notifications: notifications,
		metrics:       m,
		log:           log,
	}
}

func (s *webhookService) HandleEvent(ctx context.Context, event domain.WebhookEvent) {
	s.log.Info("Webhook event received: %s (%s) for user %s", event.EventType, event.EventID, event.UserID)

	// Dedup before any side effect so a replayed event is a full no-op.
	if event.EventID != "" {
		fresh, err := s.deduper.MarkProcessed(ctx, event.EventID)
		if err != nil {
			s.log.Error("Failed to check event id %s: %v", event.EventID, err)
			return
		}
		if !fresh {
			s.log.Info("Duplicate webhook event %s, skipping", event.EventID)
			s.metrics.IncWebhookEvent(event.EventType, "duplicate")
			return
		}
	}

	switch event.EventType {
	case domain.WebhookEventPaymentSuccess:
		s.handlePaymentSuccess(ctx, event)
	case domain.WebhookEventPaymentFailed:
		s.handlePaymentFailed(ctx, event)
	case domain.WebhookEventSubscriptionCancelled:
		s.handleSubscriptionCancelled(ctx, event)
	case domain.WebhookEventSubscriptionRenewed:
		s.handleSubscriptionRenewed(ctx, event)
	default:
		s.log.Warn("Unknown webhook event type: %s", event.EventType)
		s.metrics.IncWebhookEvent(event.EventType, "unknown_type")
	}
}

func (s *webhookService) handlePaymentSuccess(ctx context.Context, event domain.WebhookEvent) {
	_, err := s.subscriptions.Renew(ctx, event.UserID, event.SubscriptionPlan, event.PaymentID, domain.PaymentTypeInitial)
	if err != nil {
		s.logTransitionFailure(event, err)
		return
	}

	s.metrics.IncWebhookEvent(event.EventType, "processed")
	s.notifications.Dispatch(ctx, event.UserID, domain.Notification{
		Type:  domain.NotificationTypePaymentSuccess,
		Title: "Ödeme Başarılı! 🎉",
		Body:  fmt.Sprintf("%s aboneliğiniz aktifleştirildi.", event.SubscriptionPlan),
		Data:  map[string]string{"plan": string(event.SubscriptionPlan)},
	})
}

func (s *webhookService) handlePaymentFailed(ctx context.Context, event domain.WebhookEvent) {
	// A failed charge does not touch the subscription, only the history.
	record := domain.PaymentRecord{
		UserID:    event.UserID,
		PaymentID: event.PaymentID,
		Plan:      event.SubscriptionPlan,
		Amount:    event.Amount,
		Status:    domain.PaymentStatusFailed,
		Type:      domain.PaymentTypeRenewal,
		CreatedAt: time.Now(),
	}
	if err := s.payments.Append(ctx, record); err != nil {
		s.log.Error("Failed to append failed payment record for user %s: %v", event.UserID, err)
	}

	s.metrics.IncWebhookEvent(event.EventType, "processed")
	s.notifications.Dispatch(ctx, event.UserID, domain.Notification{
		Type:  domain.NotificationTypePaymentFailed,
		Title: "Ödeme Başarısız ❌",
		Body:  "Ödeme işleminiz tamamlanamadı. Lütfen tekrar deneyin.",
		Data:  map[string]string{"error": event.ErrorMessage},
	})
}

func (s *webhookService) handleSubscriptionCancelled(ctx context.Context, event domain.WebhookEvent) {
	if err := s.subscriptions.Cancel(ctx, event.UserID, event.CancellationReason); err != nil {
		s.logTransitionFailure(event, err)
		return
	}
	s.metrics.IncWebhookEvent(event.EventType, "processed")
}

func (s *webhookService) handleSubscriptionRenewed(ctx context.Context, event domain.WebhookEvent) {
	_, err := s.subscriptions.Renew(ctx, event.UserID, event.SubscriptionPlan, event.PaymentID, domain.PaymentTypeRenewal)
	if err != nil {
		s.logTransitionFailure(event, err)
		return
	}

	s.metrics.IncWebhookEvent(event.EventType, "processed")
	s.notifications.Dispatch(ctx, event.UserID, domain.Notification{
		Type:  domain.NotificationTypeSubscriptionRenewed,
		Title: "Abonelik Yenilendi 🔄",
		Body:  fmt.Sprintf("%s aboneliğiniz başarıyla yenilendi.", event.SubscriptionPlan),
		Data:  map[string]string{"plan": string(event.SubscriptionPlan)},
	})
}

func (s *webhookService) logTransitionFailure(event domain.WebhookEvent, err error) {
	if errors.Is(err, domain.ErrNotFound) {
		s.log.Warn("Webhook event %s references unknown user %s", event.EventID, event.UserID)
		s.metrics.IncWebhookEvent(event.EventType, "unknown_user")
		return
	}
	s.log.Error("Failed to process webhook event %s: %v", event.EventID, err)
	s.metrics.IncWebhookEvent(event.EventType, "failed")
}
