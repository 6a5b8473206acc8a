package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/wodoo-app/subscription-service/internal/domain"
	"github.com/wodoo-app/subscription-service/internal/metrics"
	"github.com/wodoo-app/subscription-service/internal/repository"
	"github.com/wodoo-app/subscription-service/pkg/logger"
)

// dispatchWorkers caps concurrent pushes in DispatchToMany
const dispatchWorkers = 10

// PushSender delivers one push message to a device token
type PushSender interface {
	Send(ctx context.Context, token string, notification domain.Notification) error
}

// NotificationService dispatches push notifications and keeps the per-user
// delivery history. Dispatch never fails the caller: a notification problem
// must not break a lifecycle transition.
type NotificationService interface {
	// Dispatch sends one notification to one user, honoring the user's
	// notification preferences. Missing user, missing token and disabled
	// preference are silent no-ops.
	Dispatch(ctx context.Context, userID string, notification domain.Notification)

	// DispatchToMany fans one notification out to several users with
	// bounded concurrency.
	DispatchToMany(ctx context.Context, userIDs []string, notification domain.Notification)

	// DispatchToAllMatching sends to every user that has the notification
	// type enabled.
	DispatchToAllMatching(ctx context.Context, notification domain.Notification)

	// SendTest sends a test notification and reports delivery problems to
	// the caller, unlike Dispatch.
	SendTest(ctx context.Context, userID string) error

	// History returns the delivery records for one user.
	History(ctx context.Context, userID string) ([]domain.NotificationRecord, error)
}

type notificationService struct {
	users   repository.UserRepository
	history repository.NotificationRepository
	sender  PushSender
	metrics metrics.SubscriptionMetrics
	log     *logger.Logger
}

// NewNotificationService creates a new notification service
func NewNotificationService(
	users repository.UserRepository,
	history repository.NotificationRepository,
	sender PushSender,
	m metrics.SubscriptionMetrics,
	log *logger.Logger,
) NotificationService {
	return &notificationService{
		users:   users,
		history: history,
		sender:  sender,
		metrics: m,
		log:     log,
	}
}

func (s *notificationService) Dispatch(ctx context.Context, userID string, notification domain.Notification) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.log.Warn("User not found for notification: %s", userID)
		} else {
			s.log.Error("Failed to load user %s for notification: %v", userID, err)
		}
		s.metrics.IncNotification(notification.Type, "skipped")
		return
	}

	if user.FCMToken == "" {
		s.log.Debug("No FCM token for user %s, skipping %s", userID, notification.Type)
		s.metrics.IncNotification(notification.Type, "skipped")
		return
	}

	if !user.NotificationEnabled(notification.Type) {
		s.log.Debug("Notification %s disabled for user %s", notification.Type, userID)
		s.metrics.IncNotification(notification.Type, "skipped")
		return
	}

	record := domain.NotificationRecord{
		Notification: notification,
		SentAt:       time.Now(),
		Status:       domain.NotificationStatusSent,
	}

	if err := s.sender.Send(ctx, user.FCMToken, notification); err != nil {
		s.log.Error("Failed to send notification %s to user %s: %v", notification.Type, userID, err)
		record.Status = domain.NotificationStatusFailed
		record.Error = err.Error()
		s.metrics.IncNotification(notification.Type, "failed")
	} else {
		s.log.Info("Sent notification %s to user %s", notification.Type, userID)
		s.metrics.IncNotification(notification.Type, "sent")
	}

	// History is best-effort. A logging failure must not surface.
	if err := s.history.Append(ctx, userID, record); err != nil {
		s.log.Error("Failed to record notification for user %s: %v", userID, err)
	}
}

func (s *notificationService) DispatchToMany(ctx context.Context, userIDs []string, notification domain.Notification) {
	sem := make(chan struct{}, dispatchWorkers)
	var wg sync.WaitGroup

	for _, userID := range userIDs {
		wg.Add(1)
		sem <- struct{}{}
		go func(id string) {
			defer wg.Done()
			defer func() { <-sem }()
			s.Dispatch(ctx, id, notification)
		}(userID)
	}

	wg.Wait()
}

func (s *notificationService) DispatchToAllMatching(ctx context.Context, notification domain.Notification) {
	users, err := s.users.GetAll(ctx)
	if err != nil {
		s.log.Error("Failed to list users for broadcast %s: %v", notification.Type, err)
		return
	}

	var userIDs []string
	for _, user := range users {
		if user.NotificationEnabled(notification.Type) {
			userIDs = append(userIDs, user.ID)
		}
	}

	s.log.Info("Broadcasting %s to %d users", notification.Type, len(userIDs))
	s.DispatchToMany(ctx, userIDs, notification)
}

func (s *notificationService) SendTest(ctx context.Context, userID string) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.ErrNotFound
		}
		return err
	}

	if user.FCMToken == "" {
		return domain.ErrInvalidInput
	}

	notification := domain.Notification{
		Type:  domain.NotificationTypeTest,
		Title: "🔔 Test Bildirimi",
		Body:  "Bildirim ayarlarınız doğru çalışıyor.",
	}

	if err := s.sender.Send(ctx, user.FCMToken, notification); err != nil {
		s.metrics.IncNotification(notification.Type, "failed")
		return err
	}

	s.metrics.IncNotification(notification.Type, "sent")
	if err := s.history.Append(ctx, userID, domain.NotificationRecord{
		Notification: notification,
		SentAt:       time.Now(),
		Status:       domain.NotificationStatusSent,
	}); err != nil {
		s.log.Error("Failed to record test notification for user %s: %v", userID, err)
	}

	return nil
}

func (s *notificationService) History(ctx context.Context, userID string) ([]domain.NotificationRecord, error) {
	s.log.Debug("Listing notification history for user %s", userID)
	return s.history.ListByUser(ctx, userID)
}
