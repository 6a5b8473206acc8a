package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wodoo-app/subscription-service/internal/domain"
	"github.com/wodoo-app/subscription-service/internal/repository"
	"github.com/wodoo-app/subscription-service/pkg/logger"
)

const userColumns = `
	id, email, display_name, fcm_token, notification_preferences,
	auto_renewal, payment_method,
	sub_plan, sub_status, sub_is_active, sub_start_date, sub_end_date,
	sub_payment_id, sub_last_payment_date, sub_cancelled_at, sub_expired_at,
	sub_renewed_at, version, created_at, updated_at`

// UserRepository is the Postgres implementation of repository.UserRepository.
// The subscription is flattened into sub_* columns on the users row so a
// single-row update stays atomic.
type UserRepository struct {
	pool *pgxpool.Pool
	log  *logger.Logger
}

// NewUserRepository creates a new Postgres user repository
func NewUserRepository(pool *pgxpool.Pool, log *logger.Logger) *UserRepository {
	return &UserRepository{pool: pool, log: log}
}

func scanUser(row pgx.Row) (domain.User, error) {
	var (
		user     domain.User
		prefs    []byte
		fcmToken *string
		method   *string
		plan     *string
	)

	err := row.Scan(
		&user.ID, &user.Email, &user.DisplayName, &fcmToken, &prefs,
		&user.AutoRenewal, &method,
		&plan, &user.Subscription.Status, &user.Subscription.IsActive,
		&user.Subscription.StartDate, &user.Subscription.EndDate,
		&user.Subscription.PaymentID, &user.Subscription.LastPaymentDate,
		&user.Subscription.CancelledAt, &user.Subscription.ExpiredAt,
		&user.Subscription.RenewedAt, &user.Version,
		&user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		return domain.User{}, err
	}

	if fcmToken != nil {
		user.FCMToken = *fcmToken
	}
	if method != nil {
		user.PaymentMethod = *method
	}
	if plan != nil {
		user.Subscription.Plan = domain.SubscriptionPlan(*plan)
	}
	if len(prefs) > 0 {
		if err := json.Unmarshal(prefs, &user.NotificationPreferences); err != nil {
			return domain.User{}, fmt.Errorf("failed to decode notification preferences: %w", err)
		}
	}

	return user, nil
}

// GetByID returns a user by ID
func (r *UserRepository) GetByID(ctx context.Context, userID string) (domain.User, error) {
	query := `SELECT` + userColumns + ` FROM users WHERE id = $1`

	user, err := scanUser(r.pool.QueryRow(ctx, query, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.User{}, repository.ErrNotFound
		}
		r.log.Error("Failed to get user %s: %v", userID, err)
		return domain.User{}, fmt.Errorf("failed to get user: %w", err)
	}

	return user, nil
}

// Create stores a new user document
func (r *UserRepository) Create(ctx context.Context, user domain.User) (domain.User, error) {
	prefs, err := json.Marshal(user.NotificationPreferences)
	if err != nil {
		return domain.User{}, fmt.Errorf("failed to encode notification preferences: %w", err)
	}

	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now

	query := `
		INSERT INTO users (
			id, email, display_name, fcm_token, notification_preferences,
			auto_renewal, payment_method,
			sub_plan, sub_status, sub_is_active, sub_start_date, sub_end_date,
			sub_payment_id, sub_last_payment_date, sub_cancelled_at,
			sub_expired_at, sub_renewed_at, version, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
			$15, $16, $17, $18, $19, $20)`

	sub := user.Subscription
	_, err = r.pool.Exec(ctx, query,
		user.ID, user.Email, user.DisplayName, user.FCMToken, prefs,
		user.AutoRenewal, user.PaymentMethod,
		string(sub.Plan), string(sub.Status), sub.IsActive, sub.StartDate,
		sub.EndDate, sub.PaymentID, sub.LastPaymentDate, sub.CancelledAt,
		sub.ExpiredAt, sub.RenewedAt, user.Version, user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		r.log.Error("Failed to create user %s: %v", user.ID, err)
		return domain.User{}, fmt.Errorf("failed to create user: %w", err)
	}

	return user, nil
}

// Update replaces a user document unconditionally
func (r *UserRepository) Update(ctx context.Context, user domain.User) error {
	prefs, err := json.Marshal(user.NotificationPreferences)
	if err != nil {
		return fmt.Errorf("failed to encode notification preferences: %w", err)
	}

	query := `
		UPDATE users SET
			email = $2, display_name = $3, fcm_token = $4,
			notification_preferences = $5, auto_renewal = $6,
			payment_method = $7, sub_plan = $8, sub_status = $9,
			sub_is_active = $10, sub_start_date = $11, sub_end_date = $12,
			sub_payment_id = $13, sub_last_payment_date = $14,
			sub_cancelled_at = $15, sub_expired_at = $16, sub_renewed_at = $17,
			updated_at = now()
		WHERE id = $1`

	sub := user.Subscription
	tag, err := r.pool.Exec(ctx, query,
		user.ID, user.Email, user.DisplayName, user.FCMToken, prefs,
		user.AutoRenewal, user.PaymentMethod,
		string(sub.Plan), string(sub.Status), sub.IsActive, sub.StartDate,
		sub.EndDate, sub.PaymentID, sub.LastPaymentDate, sub.CancelledAt,
		sub.ExpiredAt, sub.RenewedAt,
	)
	if err != nil {
		r.log.Error("Failed to update user %s: %v", user.ID, err)
		return fmt.Errorf("failed to update user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// UpdateSubscription replaces the subscription columns when the stored
// version matches
func (r *UserRepository) UpdateSubscription(ctx context.Context, userID string, sub domain.Subscription, expectedVersion int64) error {
	query := `
		UPDATE users SET
			sub_plan = $3, sub_status = $4, sub_is_active = $5,
			sub_start_date = $6, sub_end_date = $7, sub_payment_id = $8,
			sub_last_payment_date = $9, sub_cancelled_at = $10,
			sub_expired_at = $11, sub_renewed_at = $12,
			version = version + 1, updated_at = now()
		WHERE id = $1 AND version = $2`

	tag, err := r.pool.Exec(ctx, query,
		userID, expectedVersion,
		string(sub.Plan), string(sub.Status), sub.IsActive, sub.StartDate,
		sub.EndDate, sub.PaymentID, sub.LastPaymentDate, sub.CancelledAt,
		sub.ExpiredAt, sub.RenewedAt,
	)
	if err != nil {
		r.log.Error("Failed to update subscription for user %s: %v", userID, err)
		return fmt.Errorf("failed to update subscription: %w", err)
	}

	if tag.RowsAffected() == 0 {
		// Either the user is missing or a concurrent writer bumped the
		// version; a follow-up read disambiguates.
		var exists bool
		if err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)`, userID).Scan(&exists); err != nil {
			return fmt.Errorf("failed to check user existence: %w", err)
		}
		if !exists {
			return repository.ErrNotFound
		}
		return repository.ErrVersionConflict
	}

	return nil
}

// UpdateAutoRenewal stores auto-renewal settings
func (r *UserRepository) UpdateAutoRenewal(ctx context.Context, userID string, autoRenewal bool, paymentMethod string) error {
	query := `
		UPDATE users SET auto_renewal = $2, payment_method = $3, updated_at = now()
		WHERE id = $1`

	tag, err := r.pool.Exec(ctx, query, userID, autoRenewal, paymentMethod)
	if err != nil {
		r.log.Error("Failed to update auto-renewal settings for user %s: %v", userID, err)
		return fmt.Errorf("failed to update auto-renewal settings: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

func (r *UserRepository) queryUsers(ctx context.Context, query string, args ...any) ([]domain.User, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read users: %w", err)
	}

	return users, nil
}

// FindExpiringBetween returns active subscriptions ending in (after, until]
func (r *UserRepository) FindExpiringBetween(ctx context.Context, after, until time.Time) ([]domain.User, error) {
	query := `SELECT` + userColumns + `
		FROM users
		WHERE sub_is_active = true AND sub_end_date > $1 AND sub_end_date <= $2`

	return r.queryUsers(ctx, query, after, until)
}

// FindExpiredBefore returns active subscriptions with an end date at or
// before the given instant
func (r *UserRepository) FindExpiredBefore(ctx context.Context, now time.Time) ([]domain.User, error) {
	query := `SELECT` + userColumns + `
		FROM users
		WHERE sub_is_active = true AND sub_end_date <= $1`

	return r.queryUsers(ctx, query, now)
}

// GetAll returns all users
func (r *UserRepository) GetAll(ctx context.Context) ([]domain.User, error) {
	return r.queryUsers(ctx, `SELECT`+userColumns+` FROM users`)
}
