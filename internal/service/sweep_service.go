package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/wodoo-app/subscription-service/internal/domain"
	"github.com/wodoo-app/subscription-service/internal/kafka/producer"
	"github.com/wodoo-app/subscription-service/internal/metrics"
	"github.com/wodoo-app/subscription-service/internal/repository"
	"github.com/wodoo-app/subscription-service/pkg/logger"
)

const (
	// sweepWorkers caps concurrent per-user renewal checks
	sweepWorkers = 5

	// renewalWindow is how far ahead the renewal sweep looks
	renewalWindow = 3 * 24 * time.Hour

	// notificationRetention is how long dispatch records are kept
	notificationRetention = 30 * 24 * time.Hour
)

// SweepService runs the scheduled maintenance passes. None of its methods
// return an error: each user is handled in isolation and problems are logged,
// never propagated, so one bad document cannot abort the sweep.
type SweepService interface {
	// CheckRenewals walks subscriptions expiring within three days, sends
	// the reminder ladder and attempts auto-renewal where the user opted in.
	CheckRenewals(ctx context.Context)

	// DeactivateExpired transitions subscriptions past their end date to
	// expired. Safe to replay.
	DeactivateExpired(ctx context.Context)

	// CleanupNotifications removes dispatch records older than 30 days.
	CleanupNotifications(ctx context.Context)
}

type sweepService struct {
	users         repository.UserRepository
	history       repository.NotificationRepository
	gateway       PaymentGateway
	subscriptions SubscriptionService
	notifications NotificationService
	events        producer.LifecycleProducer
	metrics       metrics.SubscriptionMetrics
	log           *logger.Logger
	now           func() time.Time
}

// NewSweepService creates a new sweep service
func NewSweepService(
	users repository.UserRepository,
	history repository.NotificationRepository,
	gateway PaymentGateway,
	subscriptions SubscriptionService,
	notifications NotificationService,
	events producer.LifecycleProducer,
	m metrics.SubscriptionMetrics,
	log *logger.Logger,
) SweepService {
	return &sweepService{
		users:         users,
		history:       history,
		gateway:       gateway,
		subscriptions: subscriptions,
		notifications: notifications,
		events:        events,
		metrics:       m,
		log:           log,
		now:           time.Now,
	}
}

func (s *sweepService) CheckRenewals(ctx context.Context) {
	started := s.now()
	s.log.Info("Renewal sweep started")

	expiring, err := s.users.FindExpiringBetween(ctx, started, started.Add(renewalWindow))
	if err != nil {
		s.log.Error("Failed to query expiring subscriptions: %v", err)
		return
	}
	s.log.Info("%d subscriptions expire within three days", len(expiring))

	sem := make(chan struct{}, sweepWorkers)
	var wg sync.WaitGroup
	for _, user := range expiring {
		wg.Add(1)
		sem <- struct{}{}
		go func(u domain.User) {
			defer wg.Done()
			defer func() { <-sem }()
			s.checkAndRenew(ctx, u)
		}(user)
	}
	wg.Wait()

	s.metrics.ObserveSweepDuration("check_renewals", time.Since(started).Seconds())
	s.log.Info("Renewal sweep finished in %s", time.Since(started))
}

// checkAndRenew handles one user: reminder at exactly three days, final
// reminder at exactly one day, auto-renewal attempt inside the final day.
func (s *sweepService) checkAndRenew(ctx context.Context, user domain.User) {
	days := user.Subscription.DaysUntilExpiry(s.now())
	s.log.Debug("User %s: %d days until expiry", user.ID, days)

	if days == 3 {
		s.notifications.Dispatch(ctx, user.ID, domain.Notification{
			Type:  domain.NotificationTypeRenewalReminder,
			Title: "⏰ Abonelik Yenileme Hatırlatması",
			Body:  fmt.Sprintf("%s aboneliğinizin süresi %d gün sonra dolacak.", user.Subscription.Plan, days),
			Data: map[string]string{
				"plan":     string(user.Subscription.Plan),
				"daysLeft": fmt.Sprintf("%d", days),
			},
		})
	}

	if days == 1 {
		s.notifications.Dispatch(ctx, user.ID, domain.Notification{
			Type:  domain.NotificationTypeFinalRenewalReminder,
			Title: "🚨 Son Gün!",
			Body:  fmt.Sprintf("%s aboneliğinizin süresi yarın dolacak. Hemen yenileyin!", user.Subscription.Plan),
			Data:  map[string]string{"plan": string(user.Subscription.Plan)},
		})
	}

	if user.AutoRenewalEligible() && days <= 1 {
		s.attemptAutoRenewal(ctx, user)
	}
}

// attemptAutoRenewal charges the stored payment method and starts a fresh
// cycle. A declined charge leaves the subscription untouched; the next sweep
// is the retry mechanism.
func (s *sweepService) attemptAutoRenewal(ctx context.Context, user domain.User) {
	plan := user.Subscription.Plan
	s.log.Info("Attempting auto-renewal for user %s, plan %s", user.ID, plan)

	result, err := s.gateway.Charge(ctx, domain.ChargeRequest{
		UserID:        user.ID,
		Amount:        domain.PlanAmount(plan),
		PaymentMethod: user.PaymentMethod,
		Plan:          plan,
	})
	if err != nil || !result.Success {
		reason := "payment gateway error"
		if err != nil {
			s.log.Error("Auto-renewal charge failed for user %s: %v", user.ID, err)
		} else {
			reason = result.ErrorMessage
			s.log.Warn("Auto-renewal declined for user %s: %s", user.ID, reason)
		}

		s.metrics.IncRenewalFailed(string(plan))
		if err := s.events.PublishPaymentFailed(ctx, user.ID, plan, reason); err != nil {
			s.log.Error("Failed to publish payment failure event for user %s: %v", user.ID, err)
		}

		s.notifications.Dispatch(ctx, user.ID, domain.Notification{
			Type:  domain.NotificationTypeAutoRenewalFailed,
			Title: "❌ Otomatik Yenileme Başarısız",
			Body:  "Aboneliğiniz otomatik olarak yenilenemedi. Lütfen manuel olarak yenileyin.",
			Data:  map[string]string{"error": reason},
		})
		return
	}

	sub, err := s.subscriptions.Renew(ctx, user.ID, plan, result.PaymentID, domain.PaymentTypeAutoRenewal)
	if err != nil {
		s.log.Error("Auto-renewal update failed for user %s: %v", user.ID, err)
		return
	}

	s.metrics.IncRenewed(string(plan), string(domain.PaymentTypeAutoRenewal))
	if err := s.events.PublishRenewed(ctx, user.ID, sub); err != nil {
		s.log.Error("Failed to publish renewal event for user %s: %v", user.ID, err)
	}

	s.notifications.Dispatch(ctx, user.ID, domain.Notification{
		Type:  domain.NotificationTypeAutoRenewalSuccess,
		Title: "✅ Abonelik Otomatik Yenilendi",
		Body:  fmt.Sprintf("%s aboneliğiniz başarıyla yenilendi.", plan),
		Data:  map[string]string{"plan": string(plan)},
	})
	s.log.Info("Auto-renewal succeeded for user %s", user.ID)
}

func (s *sweepService) DeactivateExpired(ctx context.Context) {
	started := s.now()

	expired, err := s.users.FindExpiredBefore(ctx, started)
	if err != nil {
		s.log.Error("Failed to query expired subscriptions: %v", err)
		return
	}
	s.log.Info("%d subscriptions have expired", len(expired))

	deactivated := 0
	for _, user := range expired {
		now := s.now()
		sub := user.Subscription
		sub.Status = domain.SubscriptionStatusExpired
		sub.IsActive = false
		sub.ExpiredAt = &now

		err := s.users.UpdateSubscription(ctx, user.ID, sub, user.Version)
		if errors.Is(err, repository.ErrVersionConflict) {
			// Another path already moved this user, the next sweep picks
			// it up again if still needed.
			s.log.Warn("Version conflict deactivating user %s, skipping", user.ID)
			continue
		}
		if err != nil {
			s.log.Error("Failed to deactivate subscription for user %s: %v", user.ID, err)
			continue
		}

		deactivated++
		s.metrics.IncExpired(string(sub.Plan))
		if err := s.events.PublishExpired(ctx, user.ID, sub); err != nil {
			s.log.Error("Failed to publish expiry event for user %s: %v", user.ID, err)
		}

		s.notifications.Dispatch(ctx, user.ID, domain.Notification{
			Type:  domain.NotificationTypeSubscriptionExpired,
			Title: "❌ Abonelik Süresi Doldu",
			Body:  "Premium özellikler için aboneliğinizi yenileyin.",
		})
	}

	s.metrics.ObserveSweepDuration("deactivate_expired", time.Since(started).Seconds())
	if deactivated > 0 {
		s.log.Info("%d subscriptions deactivated", deactivated)
	}
}

func (s *sweepService) CleanupNotifications(ctx context.Context) {
	started := s.now()
	cutoff := started.Add(-notificationRetention)

	deleted, err := s.history.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		s.log.Error("Failed to clean up old notifications: %v", err)
		return
	}

	s.metrics.ObserveSweepDuration("cleanup_notifications", time.Since(started).Seconds())
	s.log.Info("Deleted %d notification records older than %s", deleted, cutoff.Format(time.RFC3339))
}
