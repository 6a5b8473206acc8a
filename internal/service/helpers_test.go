package service

import (
	"context"
	"sync"
	"time"

	"github.com/wodoo-app/subscription-service/internal/domain"
	"github.com/wodoo-app/subscription-service/internal/kafka/producer"
	"github.com/wodoo-app/subscription-service/internal/metrics"
	"github.com/wodoo-app/subscription-service/internal/repository"
	"github.com/wodoo-app/subscription-service/pkg/logger"
)

func testLogger() *logger.Logger {
	return logger.New(logger.ERROR)
}

// fakeGateway is a scriptable payment gateway
type fakeGateway struct {
	mu             sync.Mutex
	chargeResult   *domain.ChargeResult
	chargeErr      error
	verifyResult   bool
	verifyErr      error
	chargeRequests []domain.ChargeRequest
}

func (g *fakeGateway) Charge(ctx context.Context, req domain.ChargeRequest) (*domain.ChargeResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.chargeRequests = append(g.chargeRequests, req)
	if g.chargeErr != nil {
		return nil, g.chargeErr
	}
	if g.chargeResult != nil {
		return g.chargeResult, nil
	}
	return &domain.ChargeResult{Success: true, PaymentID: "payment_test"}, nil
}

func (g *fakeGateway) VerifyPayment(ctx context.Context, paymentID string, amount float64) (bool, error) {
	return g.verifyResult, g.verifyErr
}

func (g *fakeGateway) chargeCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.chargeRequests)
}

// fakeSender records pushes instead of delivering them
type fakeSender struct {
	mu      sync.Mutex
	sendErr error
	sent    []domain.Notification
	tokens  []string
}

func (s *fakeSender) Send(ctx context.Context, token string, n domain.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sendErr != nil {
		return s.sendErr
	}
	s.sent = append(s.sent, n)
	s.tokens = append(s.tokens, token)
	return nil
}

func (s *fakeSender) sentTypes() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	types := make([]string, 0, len(s.sent))
	for _, n := range s.sent {
		types = append(types, n.Type)
	}
	return types
}

// conflictingUserRepository fails the next N subscription writes with a
// version conflict before delegating
type conflictingUserRepository struct {
	repository.UserRepository
	mu        sync.Mutex
	conflicts int
}

func (r *conflictingUserRepository) UpdateSubscription(ctx context.Context, userID string, sub domain.Subscription, expectedVersion int64) error {
	r.mu.Lock()
	if r.conflicts > 0 {
		r.conflicts--
		r.mu.Unlock()
		return repository.ErrVersionConflict
	}
	r.mu.Unlock()
	return r.UserRepository.UpdateSubscription(ctx, userID, sub, expectedVersion)
}

// testEnv wires the service stack onto in-memory repositories
type testEnv struct {
	users         *repository.InMemoryUserRepository
	payments      *repository.InMemoryPaymentRepository
	history       *repository.InMemoryNotificationRepository
	invoices      *repository.InMemoryInvoiceRepository
	gateway       *fakeGateway
	sender        *fakeSender
	notifications NotificationService
	invoiceSvc    InvoiceService
	subscriptions SubscriptionService
	sweep         *sweepService
	webhooks      WebhookService
}

func newTestEnv() *testEnv {
	log := testLogger()

	env := &testEnv{
		users:    repository.NewInMemoryUserRepository(log),
		payments: repository.NewInMemoryPaymentRepository(log),
		history:  repository.NewInMemoryNotificationRepository(log),
		invoices: repository.NewInMemoryInvoiceRepository(log),
		gateway:  &fakeGateway{verifyResult: true},
		sender:   &fakeSender{},
	}

	env.notifications = NewNotificationService(env.users, env.history, env.sender, metrics.NopSubscriptionMetrics{}, log)
	env.invoiceSvc = NewInvoiceService(env.invoices, env.users, log)
	env.subscriptions = NewSubscriptionService(
		env.users, env.payments, env.gateway, env.notifications, env.invoiceSvc,
		producer.NopLifecycleProducer{}, metrics.NopSubscriptionMetrics{}, log,
	)
	env.sweep = NewSweepService(
		env.users, env.history, env.gateway, env.subscriptions,
		env.notifications, producer.NopLifecycleProducer{}, metrics.NopSubscriptionMetrics{}, log,
	).(*sweepService)
	env.webhooks = NewWebhookService(
		env.payments, repository.NewInMemoryEventDeduper(),
		env.subscriptions, env.notifications, metrics.NopSubscriptionMetrics{}, log,
	)

	return env
}

// addUser seeds a user with a working device token
func (e *testEnv) addUser(ctx context.Context, id string, sub domain.Subscription) domain.User {
	user, err := e.users.Create(ctx, domain.User{
		ID:           id,
		Email:        id + "@example.com",
		FCMToken:     "token-" + id,
		Subscription: sub,
	})
	if err != nil {
		panic(err)
	}
	return user
}

func activeSubscription(plan domain.SubscriptionPlan, endsIn time.Duration) domain.Subscription {
	now := time.Now()
	start := now.Add(endsIn - time.Duration(domain.PlanDurationDays(plan))*24*time.Hour)
	end := now.Add(endsIn)
	return domain.Subscription{
		Plan:      plan,
		Status:    domain.SubscriptionStatusActive,
		IsActive:  true,
		StartDate: &start,
		EndDate:   &end,
		PaymentID: "payment_seed",
	}
}
