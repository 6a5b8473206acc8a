package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wodoo-app/subscription-service/internal/domain"
	"github.com/wodoo-app/subscription-service/pkg/logger"
)

// PaymentRepository is the Postgres implementation of
// repository.PaymentRepository
type PaymentRepository struct {
	pool *pgxpool.Pool
	log  *logger.Logger
}

// NewPaymentRepository creates a new Postgres payment repository
func NewPaymentRepository(pool *pgxpool.Pool, log *logger.Logger) *PaymentRepository {
	return &PaymentRepository{pool: pool, log: log}
}

// Append adds one charge attempt record
func (r *PaymentRepository) Append(ctx context.Context, record domain.PaymentRecord) error {
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now()
	}

	query := `
		INSERT INTO payments (user_id, payment_id, plan, amount, status, type, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.pool.Exec(ctx, query,
		record.UserID, record.PaymentID, string(record.Plan), record.Amount,
		string(record.Status), string(record.Type), record.CreatedAt,
	)
	if err != nil {
		r.log.Error("Failed to append payment record for user %s: %v", record.UserID, err)
		return fmt.Errorf("failed to append payment record: %w", err)
	}

	return nil
}

// GetByUserID returns charge records for one user, newest first
func (r *PaymentRepository) GetByUserID(ctx context.Context, userID string) ([]domain.PaymentRecord, error) {
	query := `
		SELECT user_id, payment_id, plan, amount, status, type, created_at
		FROM payments
		WHERE user_id = $1
		ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query payment records: %w", err)
	}
	defer rows.Close()

	var records []domain.PaymentRecord
	for rows.Next() {
		var record domain.PaymentRecord
		if err := rows.Scan(&record.UserID, &record.PaymentID, &record.Plan,
			&record.Amount, &record.Status, &record.Type, &record.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan payment record: %w", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read payment records: %w", err)
	}

	return records, nil
}
