package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wodoo-app/subscription-service/internal/domain"
)

func TestDispatchRecordsHistory(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()
	env.addUser(ctx, "user1", domain.Subscription{})

	env.notifications.Dispatch(ctx, "user1", domain.Notification{
		Type:  domain.NotificationTypePaymentSuccess,
		Title: "Ödeme Başarılı! 🎉",
		Body:  "monthly aboneliğiniz aktifleştirildi.",
	})

	require.Equal(t, []string{domain.NotificationTypePaymentSuccess}, env.sender.sentTypes())
	assert.Equal(t, []string{"token-user1"}, env.sender.tokens)

	records, err := env.history.ListByUser(ctx, "user1")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, domain.NotificationStatusSent, records[0].Status)
	assert.Empty(t, records[0].Error)
}

func TestDispatchSkipsDisabledPreference(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()
	user := env.addUser(ctx, "user1", domain.Subscription{})
	user.NotificationPreferences = map[string]bool{domain.NotificationTypeRenewalReminder: false}
	require.NoError(t, env.users.Update(ctx, user))

	env.notifications.Dispatch(ctx, "user1", domain.Notification{
		Type: domain.NotificationTypeRenewalReminder,
	})

	// Nothing sent and nothing recorded
	assert.Empty(t, env.sender.sentTypes())
	records, _ := env.history.ListByUser(ctx, "user1")
	assert.Empty(t, records)
}

func TestDispatchSkipsMissingToken(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()
	_, err := env.users.Create(ctx, domain.User{ID: "tokenless"})
	require.NoError(t, err)

	env.notifications.Dispatch(ctx, "tokenless", domain.Notification{
		Type: domain.NotificationTypePaymentSuccess,
	})

	assert.Empty(t, env.sender.sentTypes())
}

func TestDispatchMissingUser(t *testing.T) {
	env := newTestEnv()

	// Silent no-op
	env.notifications.Dispatch(context.Background(), "nobody", domain.Notification{
		Type: domain.NotificationTypePaymentSuccess,
	})

	assert.Empty(t, env.sender.sentTypes())
}

func TestDispatchDeliveryFailureRecorded(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()
	env.sender.sendErr = errors.New("fcm: 503")
	env.addUser(ctx, "user1", domain.Subscription{})

	env.notifications.Dispatch(ctx, "user1", domain.Notification{
		Type: domain.NotificationTypeRenewalReminder,
	})

	records, err := env.history.ListByUser(ctx, "user1")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, domain.NotificationStatusFailed, records[0].Status)
	assert.Contains(t, records[0].Error, "503")
}

func TestDispatchToMany(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()
	ids := []string{"a", "b", "c", "d"}
	for _, id := range ids {
		env.addUser(ctx, id, domain.Subscription{})
	}

	env.notifications.DispatchToMany(ctx, ids, domain.Notification{
		Type: domain.NotificationTypeRenewalReminder,
	})

	assert.Len(t, env.sender.sentTypes(), len(ids))
}

func TestDispatchToAllMatching(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()
	env.addUser(ctx, "wants", domain.Subscription{})
	muted := env.addUser(ctx, "muted", domain.Subscription{})
	muted.NotificationPreferences = map[string]bool{domain.NotificationTypeRenewalReminder: false}
	require.NoError(t, env.users.Update(ctx, muted))

	env.notifications.DispatchToAllMatching(ctx, domain.Notification{
		Type: domain.NotificationTypeRenewalReminder,
	})

	require.Len(t, env.sender.sentTypes(), 1)
	assert.Equal(t, []string{"token-wants"}, env.sender.tokens)
}

func TestSendTest(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()
	env.addUser(ctx, "user1", domain.Subscription{})

	require.NoError(t, env.notifications.SendTest(ctx, "user1"))
	assert.Equal(t, []string{domain.NotificationTypeTest}, env.sender.sentTypes())
}

func TestSendTestErrors(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()

	assert.ErrorIs(t, env.notifications.SendTest(ctx, "nobody"), domain.ErrNotFound)

	_, err := env.users.Create(ctx, domain.User{ID: "tokenless"})
	require.NoError(t, err)
	assert.ErrorIs(t, env.notifications.SendTest(ctx, "tokenless"), domain.ErrInvalidInput)

	env.sender.sendErr = errors.New("fcm down")
	env.addUser(ctx, "user1", domain.Subscription{})
	assert.Error(t, env.notifications.SendTest(ctx, "user1"))
}
