package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/wodoo-app/subscription-service/internal/domain"
	"github.com/wodoo-app/subscription-service/internal/kafka/producer"
	"github.com/wodoo-app/subscription-service/internal/metrics"
	"github.com/wodoo-app/subscription-service/internal/repository"
	"github.com/wodoo-app/subscription-service/pkg/logger"
)

// casRetries bounds the reload-and-retry loop on version conflicts
const casRetries = 3

// PaymentGateway charges stored payment methods and verifies completed
// payments on the provider side
type PaymentGateway interface {
	Charge(ctx context.Context, req domain.ChargeRequest) (*domain.ChargeResult, error)
	VerifyPayment(ctx context.Context, paymentID string, amount float64) (bool, error)
}

// SubscriptionStatus is the status view returned to clients
type SubscriptionStatus struct {
	IsSubscribed    bool                      `json:"is_subscribed"`
	Plan            domain.SubscriptionPlan   `json:"plan,omitempty"`
	Status          domain.SubscriptionStatus `json:"status,omitempty"`
	IsActive        bool                      `json:"is_active"`
	StartDate       *time.Time                `json:"start_date,omitempty"`
	EndDate         *time.Time                `json:"end_date,omitempty"`
	DaysUntilExpiry int                       `json:"days_until_expiry"`
}

// SubscriptionService owns the subscription lifecycle. User-initiated
// operations surface typed errors; background paths reuse Renew.
type SubscriptionService interface {
	// VerifyAndActivate validates a client-side purchase with the gateway
	// and activates a fresh cycle. Fails with ErrPaymentFailed when the
	// gateway does not confirm the payment.
	VerifyAndActivate(ctx context.Context, userID string, plan domain.SubscriptionPlan, paymentID string, amount float64) (domain.Subscription, error)

	// CheckStatus returns the subscription view for one user. A missing
	// user is reported as not subscribed, not as an error.
	CheckStatus(ctx context.Context, userID string) (SubscriptionStatus, error)

	// Cancel marks the subscription cancelled and inactive.
	Cancel(ctx context.Context, userID, reason string) error

	// ManualRenew charges the stored payment method synchronously and
	// starts a fresh cycle. A declined charge surfaces as a PaymentError.
	ManualRenew(ctx context.Context, userID string, plan domain.SubscriptionPlan) (domain.Subscription, error)

	// UpdateAutoRenewalSettings stores the auto-renewal opt-in and payment
	// method token.
	UpdateAutoRenewalSettings(ctx context.Context, userID string, autoRenewal bool, paymentMethod string) error

	// Renew starts a fresh active cycle from a confirmed payment and
	// appends the payment record. Shared by the activation, manual,
	// auto-renewal and webhook paths.
	Renew(ctx context.Context, userID string, plan domain.SubscriptionPlan, paymentID string, paymentType domain.PaymentType) (domain.Subscription, error)
}

type subscriptionService struct {
	users         repository.UserRepository
	payments      repository.PaymentRepository
	gateway       PaymentGateway
	notifications NotificationService
	invoices      InvoiceService
	events        producer.LifecycleProducer
	metrics       metrics.SubscriptionMetrics
	log           *logger.Logger
}

// NewSubscriptionService creates a new subscription service
func NewSubscriptionService(
	users repository.UserRepository,
	payments repository.PaymentRepository,
	gateway PaymentGateway,
	notifications NotificationService,
	invoices InvoiceService,
	events producer.LifecycleProducer,
	m metrics.SubscriptionMetrics,
	log *logger.Logger,
) SubscriptionService {
	return &subscriptionService{
		users:         users,
		payments:      payments,
		gateway:       gateway,
		notifications: notifications,
		invoices:      invoices,
		events:        events,
		metrics:       m,
		log:           log,
	}
}

func (s *subscriptionService) VerifyAndActivate(ctx context.Context, userID string, plan domain.SubscriptionPlan, paymentID string, amount float64) (domain.Subscription, error) {
	s.log.Debug("Verifying payment %s for user %s, plan %s", paymentID, userID, plan)

	verified, err := s.gateway.VerifyPayment(ctx, paymentID, amount)
	if err != nil {
		return domain.Subscription{}, fmt.Errorf("payment verification failed: %w", err)
	}
	if !verified {
		return domain.Subscription{}, domain.NewPaymentError("verification_failed", "payment could not be verified", paymentID, nil)
	}

	sub, err := s.Renew(ctx, userID, plan, paymentID, domain.PaymentTypeInitial)
	if err != nil {
		return domain.Subscription{}, err
	}

	s.metrics.IncActivated(string(plan))
	if err := s.events.PublishActivated(ctx, userID, sub); err != nil {
		s.log.Error("Failed to publish activation event for user %s: %v", userID, err)
	}

	s.notifications.Dispatch(ctx, userID, domain.Notification{
		Type:  domain.NotificationTypePaymentSuccess,
		Title: "Ödeme Başarılı! 🎉",
		Body:  fmt.Sprintf("%s aboneliğiniz aktifleştirildi.", plan),
		Data:  map[string]string{"plan": string(plan)},
	})

	s.log.Info("Subscription activated for user %s, plan %s", userID, plan)
	return sub, nil
}

func (s *subscriptionService) CheckStatus(ctx context.Context, userID string) (SubscriptionStatus, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return SubscriptionStatus{}, nil
		}
		return SubscriptionStatus{}, err
	}

	now := time.Now()
	sub := user.Subscription
	active := sub.IsActive && sub.EndDate != nil && sub.EndDate.After(now)

	status := SubscriptionStatus{
		IsSubscribed: active,
		Plan:         sub.Plan,
		Status:       sub.Status,
		IsActive:     active,
		StartDate:    sub.StartDate,
		EndDate:      sub.EndDate,
	}
	if active {
		status.DaysUntilExpiry = sub.DaysUntilExpiry(now)
	}

	return status, nil
}

func (s *subscriptionService) Cancel(ctx context.Context, userID, reason string) error {
	s.log.Debug("Cancelling subscription for user %s", userID)

	for attempt := 0; attempt < casRetries; attempt++ {
		user, err := s.users.GetByID(ctx, userID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return domain.NewNotFoundError("user", userID)
			}
			return err
		}

		now := time.Now()
		sub := user.Subscription
		sub.Status = domain.SubscriptionStatusCancelled
		sub.IsActive = false
		sub.CancelledAt = &now

		err = s.users.UpdateSubscription(ctx, userID, sub, user.Version)
		if errors.Is(err, repository.ErrVersionConflict) {
			continue
		}
		if err != nil {
			return err
		}

		s.metrics.IncCancelled(string(sub.Plan))
		if err := s.events.PublishCancelled(ctx, userID, sub, reason); err != nil {
			s.log.Error("Failed to publish cancellation event for user %s: %v", userID, err)
		}

		s.notifications.Dispatch(ctx, userID, domain.Notification{
			Type:  domain.NotificationTypeSubscriptionCancelled,
			Title: "Abonelik İptal Edildi",
			Body:  "Aboneliğiniz iptal edildi. Tekrar abone olmak için uygulamayı ziyaret edin.",
			Data:  map[string]string{"reason": reason},
		})

		s.log.Info("Subscription cancelled for user %s", userID)
		return nil
	}

	return domain.ErrVersionConflict
}

func (s *subscriptionService) ManualRenew(ctx context.Context, userID string, plan domain.SubscriptionPlan) (domain.Subscription, error) {
	s.log.Debug("Manual renewal for user %s, plan %s", userID, plan)

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.Subscription{}, domain.NewNotFoundError("user", userID)
		}
		return domain.Subscription{}, err
	}

	result, err := s.gateway.Charge(ctx, domain.ChargeRequest{
		UserID:        userID,
		Amount:        domain.PlanAmount(plan),
		PaymentMethod: user.PaymentMethod,
		Plan:          plan,
	})
	if err != nil {
		return domain.Subscription{}, fmt.Errorf("payment gateway error: %w", err)
	}
	if !result.Success {
		return domain.Subscription{}, domain.NewPaymentError("charge_declined", result.ErrorMessage, "", nil)
	}

	sub, err := s.Renew(ctx, userID, plan, result.PaymentID, domain.PaymentTypeManual)
	if err != nil {
		return domain.Subscription{}, err
	}

	s.metrics.IncRenewed(string(plan), string(domain.PaymentTypeManual))
	if err := s.events.PublishRenewed(ctx, userID, sub); err != nil {
		s.log.Error("Failed to publish renewal event for user %s: %v", userID, err)
	}

	s.notifications.Dispatch(ctx, userID, domain.Notification{
		Type:  domain.NotificationTypeSubscriptionRenewed,
		Title: "Abonelik Yenilendi 🔄",
		Body:  fmt.Sprintf("%s aboneliğiniz başarıyla yenilendi.", plan),
		Data:  map[string]string{"plan": string(plan)},
	})

	s.log.Info("Subscription manually renewed for user %s, plan %s", userID, plan)
	return sub, nil
}

func (s *subscriptionService) UpdateAutoRenewalSettings(ctx context.Context, userID string, autoRenewal bool, paymentMethod string) error {
	s.log.Debug("Updating auto-renewal settings for user %s: enabled=%t", userID, autoRenewal)

	if err := s.users.UpdateAutoRenewal(ctx, userID, autoRenewal, paymentMethod); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.NewNotFoundError("user", userID)
		}
		return err
	}

	return nil
}

func (s *subscriptionService) Renew(ctx context.Context, userID string, plan domain.SubscriptionPlan, paymentID string, paymentType domain.PaymentType) (domain.Subscription, error) {
	var sub domain.Subscription

	for attempt := 0; attempt < casRetries; attempt++ {
		user, err := s.users.GetByID(ctx, userID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return domain.Subscription{}, domain.NewNotFoundError("user", userID)
			}
			return domain.Subscription{}, err
		}

		now := time.Now()
		sub = domain.NewActiveSubscription(plan, paymentID, now)
		if paymentType != domain.PaymentTypeInitial {
			sub.RenewedAt = &now
		}

		err = s.users.UpdateSubscription(ctx, userID, sub, user.Version)
		if errors.Is(err, repository.ErrVersionConflict) {
			s.log.Warn("Version conflict renewing subscription for user %s, retrying", userID)
			continue
		}
		if err != nil {
			return domain.Subscription{}, err
		}

		record := domain.PaymentRecord{
			UserID:    userID,
			PaymentID: paymentID,
			Plan:      plan,
			Amount:    domain.PlanAmount(plan),
			Status:    domain.PaymentStatusCompleted,
			Type:      paymentType,
			CreatedAt: now,
		}
		if err := s.payments.Append(ctx, record); err != nil {
			s.log.Error("Failed to append payment record for user %s: %v", userID, err)
		}

		if s.invoices != nil {
			s.invoices.AutoCreateForPayment(ctx, user, record)
		}

		return sub, nil
	}

	return domain.Subscription{}, domain.ErrVersionConflict
}
