package repository

import (
	"context"
	"sync"
	"time"

	"github.com/wodoo-app/subscription-service/internal/domain"
	"github.com/wodoo-app/subscription-service/pkg/logger"
)

// UserRepository defines storage operations on user documents. Subscription
// mutations go through UpdateSubscription, which performs a compare-and-swap
// on the document version so that a sweep-driven and a webhook-driven update
// to the same user cannot silently overwrite each other.
type UserRepository interface {
	GetByID(ctx context.Context, userID string) (domain.User, error)
	Create(ctx context.Context, user domain.User) (domain.User, error)
	Update(ctx context.Context, user domain.User) error

	// UpdateSubscription replaces the user's subscription if the stored
	// version still equals expectedVersion. Returns ErrVersionConflict
	// otherwise.
	UpdateSubscription(ctx context.Context, userID string, sub domain.Subscription, expectedVersion int64) error

	// UpdateAutoRenewal stores the user's auto-renewal opt-in and payment
	// method token.
	UpdateAutoRenewal(ctx context.Context, userID string, autoRenewal bool, paymentMethod string) error

	// FindExpiringBetween returns users with an active subscription whose
	// end date falls in (after, until].
	FindExpiringBetween(ctx context.Context, after, until time.Time) ([]domain.User, error)

	// FindExpiredBefore returns users with an active subscription whose end
	// date is at or before the given instant.
	FindExpiredBefore(ctx context.Context, now time.Time) ([]domain.User, error)

	GetAll(ctx context.Context) ([]domain.User, error)
}

// InMemoryUserRepository keeps user documents in a map. It backs the dev-mode
// store and the test suite.
type InMemoryUserRepository struct {
	users map[string]domain.User
	mutex sync.RWMutex
	log   *logger.Logger
}

// NewInMemoryUserRepository creates a new in-memory user repository
func NewInMemoryUserRepository(log *logger.Logger) *InMemoryUserRepository {
	return &InMemoryUserRepository{
		users: make(map[string]domain.User),
		log:   log,
	}
}

// GetByID returns a user by ID
func (r *InMemoryUserRepository) GetByID(ctx context.Context, userID string) (domain.User, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	user, exists := r.users[userID]
	if !exists {
		return domain.User{}, ErrNotFound
	}

	return user, nil
}

// Create stores a new user document
func (r *InMemoryUserRepository) Create(ctx context.Context, user domain.User) (domain.User, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if _, exists := r.users[user.ID]; exists {
		return domain.User{}, ErrDuplicate
	}

	user.CreatedAt = time.Now()
	user.UpdatedAt = time.Now()
	r.users[user.ID] = user

	return user, nil
}

// Update replaces a user document unconditionally (last write wins)
func (r *InMemoryUserRepository) Update(ctx context.Context, user domain.User) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if _, exists := r.users[user.ID]; !exists {
		return ErrNotFound
	}

	user.UpdatedAt = time.Now()
	r.users[user.ID] = user

	return nil
}

// UpdateSubscription replaces the subscription if the version matches
func (r *InMemoryUserRepository) UpdateSubscription(ctx context.Context, userID string, sub domain.Subscription, expectedVersion int64) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	user, exists := r.users[userID]
	if !exists {
		return ErrNotFound
	}

	if user.Version != expectedVersion {
		r.log.Warn("Subscription update version conflict for user %s: have %d, want %d", userID, user.Version, expectedVersion)
		return ErrVersionConflict
	}

	user.Subscription = sub
	user.Version++
	user.UpdatedAt = time.Now()
	r.users[userID] = user

	return nil
}

// UpdateAutoRenewal stores auto-renewal settings
func (r *InMemoryUserRepository) UpdateAutoRenewal(ctx context.Context, userID string, autoRenewal bool, paymentMethod string) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	user, exists := r.users[userID]
	if !exists {
		return ErrNotFound
	}

	user.AutoRenewal = autoRenewal
	user.PaymentMethod = paymentMethod
	user.UpdatedAt = time.Now()
	r.users[userID] = user

	return nil
}

// FindExpiringBetween returns active subscriptions ending in (after, until]
func (r *InMemoryUserRepository) FindExpiringBetween(ctx context.Context, after, until time.Time) ([]domain.User, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	var users []domain.User
	for _, user := range r.users {
		sub := user.Subscription
		if !sub.IsActive || sub.EndDate == nil {
			continue
		}
		if sub.EndDate.After(after) && !sub.EndDate.After(until) {
			users = append(users, user)
		}
	}

	return users, nil
}

// FindExpiredBefore returns active subscriptions with endDate <= now
func (r *InMemoryUserRepository) FindExpiredBefore(ctx context.Context, now time.Time) ([]domain.User, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	var users []domain.User
	for _, user := range r.users {
		sub := user.Subscription
		if !sub.IsActive || sub.EndDate == nil {
			continue
		}
		if !sub.EndDate.After(now) {
			users = append(users, user)
		}
	}

	return users, nil
}

// GetAll returns all users
func (r *InMemoryUserRepository) GetAll(ctx context.Context) ([]domain.User, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	users := make([]domain.User, 0, len(r.users))
	for _, user := range r.users {
		users = append(users, user)
	}

	return users, nil
}
