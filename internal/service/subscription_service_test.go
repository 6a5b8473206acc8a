package service

import (
	"context"
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wodoo-app/subscription-service/internal/domain"
	"github.com/wodoo-app/subscription-service/internal/kafka/producer"
	"github.com/wodoo-app/subscription-service/internal/metrics"
)

func TestVerifyAndActivate(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()
	env.addUser(ctx, "user1", domain.Subscription{Status: domain.SubscriptionStatusInactive})

	sub, err := env.subscriptions.VerifyAndActivate(ctx, "user1", domain.PlanMonthly, "payment_abc", 829)
	require.NoError(t, err)

	assert.Equal(t, domain.SubscriptionStatusActive, sub.Status)
	assert.True(t, sub.IsActive)
	assert.Equal(t, "payment_abc", sub.PaymentID)
	require.NotNil(t, sub.EndDate)
	assert.WithinDuration(t, time.Now().AddDate(0, 0, 30), *sub.EndDate, time.Minute)
	assert.Nil(t, sub.RenewedAt)

	// Stored on the user document with a version bump
	user, err := env.users.GetByID(ctx, "user1")
	require.NoError(t, err)
	assert.Equal(t, domain.SubscriptionStatusActive, user.Subscription.Status)
	assert.Equal(t, int64(1), user.Version)

	// Payment history records the initial charge as completed
	records, err := env.payments.GetByUserID(ctx, "user1")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, domain.PaymentStatusCompleted, records[0].Status)
	assert.Equal(t, domain.PaymentTypeInitial, records[0].Type)
	assert.Equal(t, 829.0, records[0].Amount)

	// The user is told about the successful payment
	assert.Contains(t, env.sender.sentTypes(), domain.NotificationTypePaymentSuccess)

	// An invoice is auto-created for the completed payment
	invoices, err := env.invoices.ListByUser(ctx, "user1", 10, 0)
	require.NoError(t, err)
	assert.Len(t, invoices, 1)
}

func TestVerifyAndActivateVerificationFails(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()
	env.gateway.verifyResult = false
	env.addUser(ctx, "user1", domain.Subscription{})

	_, err := env.subscriptions.VerifyAndActivate(ctx, "user1", domain.PlanAnnual, "payment_bad", 7999)

	var paymentErr *domain.PaymentError
	require.ErrorAs(t, err, &paymentErr)
	assert.Equal(t, "verification_failed", paymentErr.Code)

	// Nothing changed and nobody was notified
	user, _ := env.users.GetByID(ctx, "user1")
	assert.False(t, user.Subscription.IsActive)
	assert.Empty(t, env.sender.sentTypes())
}

func TestCheckStatus(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()
	env.addUser(ctx, "active", activeSubscription(domain.PlanSemiAnnual, 50*24*time.Hour))

	status, err := env.subscriptions.CheckStatus(ctx, "active")
	require.NoError(t, err)
	assert.True(t, status.IsSubscribed)
	assert.True(t, status.IsActive)
	assert.Equal(t, domain.PlanSemiAnnual, status.Plan)
	assert.Equal(t, 50, status.DaysUntilExpiry)
}

func TestCheckStatusMissingUser(t *testing.T) {
	env := newTestEnv()

	status, err := env.subscriptions.CheckStatus(context.Background(), "nobody")
	require.NoError(t, err)
	assert.False(t, status.IsSubscribed)
	assert.False(t, status.IsActive)
}

func TestCheckStatusLapsedSubscription(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()
	// Still flagged active in storage but the end date has passed
	env.addUser(ctx, "lapsed", activeSubscription(domain.PlanMonthly, -time.Hour))

	status, err := env.subscriptions.CheckStatus(ctx, "lapsed")
	require.NoError(t, err)
	assert.False(t, status.IsSubscribed)
	assert.False(t, status.IsActive)
	assert.Equal(t, 0, status.DaysUntilExpiry)
}

func TestCancel(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()
	env.addUser(ctx, "user1", activeSubscription(domain.PlanMonthly, 10*24*time.Hour))

	err := env.subscriptions.Cancel(ctx, "user1", "too expensive")
	require.NoError(t, err)

	user, err := env.users.GetByID(ctx, "user1")
	require.NoError(t, err)
	assert.Equal(t, domain.SubscriptionStatusCancelled, user.Subscription.Status)
	assert.False(t, user.Subscription.IsActive)
	require.NotNil(t, user.Subscription.CancelledAt)

	assert.Contains(t, env.sender.sentTypes(), domain.NotificationTypeSubscriptionCancelled)
}

func TestCancelMissingUser(t *testing.T) {
	env := newTestEnv()

	err := env.subscriptions.Cancel(context.Background(), "nobody", "")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestManualRenew(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()
	user := env.addUser(ctx, "user1", activeSubscription(domain.PlanMonthly, 24*time.Hour))
	require.NoError(t, env.users.UpdateAutoRenewal(ctx, user.ID, false, "card_stored"))

	sub, err := env.subscriptions.ManualRenew(ctx, "user1", domain.PlanAnnual)
	require.NoError(t, err)

	assert.Equal(t, domain.PlanAnnual, sub.Plan)
	assert.True(t, sub.IsActive)
	require.NotNil(t, sub.RenewedAt)

	// The gateway was asked for the annual price with the stored method
	require.Equal(t, 1, env.gateway.chargeCount())
	assert.Equal(t, 7999.0, env.gateway.chargeRequests[0].Amount)
	assert.Equal(t, "card_stored", env.gateway.chargeRequests[0].PaymentMethod)

	records, _ := env.payments.GetByUserID(ctx, "user1")
	require.Len(t, records, 1)
	assert.Equal(t, domain.PaymentTypeManual, records[0].Type)

	assert.Contains(t, env.sender.sentTypes(), domain.NotificationTypeSubscriptionRenewed)
}

func TestManualRenewDeclined(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()
	env.gateway.chargeResult = &domain.ChargeResult{
		Success:      false,
		ErrorMessage: "Kart bilgileri geçersiz veya yetersiz bakiye",
	}
	env.addUser(ctx, "user1", activeSubscription(domain.PlanMonthly, 24*time.Hour))

	_, err := env.subscriptions.ManualRenew(ctx, "user1", domain.PlanMonthly)

	var paymentErr *domain.PaymentError
	require.ErrorAs(t, err, &paymentErr)
	assert.Equal(t, "charge_declined", paymentErr.Code)
	assert.Contains(t, paymentErr.Message, "yetersiz bakiye")

	// Declined charges leave the subscription and history alone
	records, _ := env.payments.GetByUserID(ctx, "user1")
	assert.Empty(t, records)
}

func TestManualRenewGatewayError(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()
	env.gateway.chargeErr = errors.New("connection reset")
	env.addUser(ctx, "user1", activeSubscription(domain.PlanMonthly, 24*time.Hour))

	_, err := env.subscriptions.ManualRenew(ctx, "user1", domain.PlanMonthly)
	require.Error(t, err)

	var paymentErr *domain.PaymentError
	assert.False(t, errors.As(err, &paymentErr))
}

func TestUpdateAutoRenewalSettings(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()
	env.addUser(ctx, "user1", domain.Subscription{})

	require.NoError(t, env.subscriptions.UpdateAutoRenewalSettings(ctx, "user1", true, "card_99"))

	user, err := env.users.GetByID(ctx, "user1")
	require.NoError(t, err)
	assert.True(t, user.AutoRenewal)
	assert.Equal(t, "card_99", user.PaymentMethod)
	assert.True(t, user.AutoRenewalEligible())

	assert.ErrorIs(t, env.subscriptions.UpdateAutoRenewalSettings(ctx, "nobody", true, "x"), domain.ErrNotFound)
}

func TestRenewRetriesOnVersionConflict(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()
	env.addUser(ctx, "user1", activeSubscription(domain.PlanMonthly, 24*time.Hour))

	// First write hits a stale version, the retry loop reloads and lands
	// the update on the second attempt.
	users := &conflictingUserRepository{UserRepository: env.users, conflicts: 1}
	subscriptions := NewSubscriptionService(
		users, env.payments, env.gateway, env.notifications, nil,
		producer.NopLifecycleProducer{}, metrics.NopSubscriptionMetrics{}, testLogger(),
	)

	sub, err := subscriptions.Renew(ctx, "user1", domain.PlanMonthly, "payment_retry", domain.PaymentTypeRenewal)
	require.NoError(t, err)
	assert.True(t, sub.IsActive)
	assert.Equal(t, "payment_retry", sub.PaymentID)
	assert.Equal(t, 0, users.conflicts)
}

func TestTransitionSequencesKeepInvariant(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()
	env.addUser(ctx, "user1", domain.Subscription{Status: domain.SubscriptionStatusInactive})

	rng := rand.New(rand.NewSource(42))
	plans := []domain.SubscriptionPlan{domain.PlanMonthly, domain.PlanSemiAnnual, domain.PlanAnnual}

	for i := 0; i < 100; i++ {
		plan := plans[rng.Intn(len(plans))]
		switch rng.Intn(3) {
		case 0:
			_, _ = env.subscriptions.VerifyAndActivate(ctx, "user1", plan, "p", domain.PlanAmount(plan))
		case 1:
			_ = env.subscriptions.Cancel(ctx, "user1", "")
		case 2:
			_, _ = env.subscriptions.Renew(ctx, "user1", plan, "p", domain.PaymentTypeRenewal)
		}

		user, err := env.users.GetByID(ctx, "user1")
		require.NoError(t, err)
		require.NoError(t, user.Subscription.Validate(), "invariant broken after step %d", i)
	}
}

func TestRenewGivesUpAfterRepeatedConflicts(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()
	env.addUser(ctx, "user1", activeSubscription(domain.PlanMonthly, 24*time.Hour))

	users := &conflictingUserRepository{UserRepository: env.users, conflicts: 10}
	subscriptions := NewSubscriptionService(
		users, env.payments, env.gateway, env.notifications, nil,
		producer.NopLifecycleProducer{}, metrics.NopSubscriptionMetrics{}, testLogger(),
	)

	_, err := subscriptions.Renew(ctx, "user1", domain.PlanMonthly, "p", domain.PaymentTypeRenewal)
	assert.ErrorIs(t, err, domain.ErrVersionConflict)
}
