package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wodoo-app/subscription-service/internal/domain"
	"github.com/wodoo-app/subscription-service/pkg/logger"
)

// NotificationRepository is the Postgres implementation of
// repository.NotificationRepository
type NotificationRepository struct {
	pool *pgxpool.Pool
	log  *logger.Logger
}

// NewNotificationRepository creates a new Postgres notification repository
func NewNotificationRepository(pool *pgxpool.Pool, log *logger.Logger) *NotificationRepository {
	return &NotificationRepository{pool: pool, log: log}
}

// Append adds one dispatch record under a user
func (r *NotificationRepository) Append(ctx context.Context, userID string, record domain.NotificationRecord) error {
	if record.SentAt.IsZero() {
		record.SentAt = time.Now()
	}

	var data []byte
	if record.Data != nil {
		var err error
		data, err = json.Marshal(record.Data)
		if err != nil {
			return fmt.Errorf("failed to marshal notification data: %w", err)
		}
	}

	query := `
		INSERT INTO notifications (user_id, type, title, body, data, status, error, sent_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := r.pool.Exec(ctx, query,
		userID, record.Type, record.Title, record.Body,
		data, string(record.Status), record.Error, record.SentAt,
	)
	if err != nil {
		r.log.Error("Failed to append notification record for user %s: %v", userID, err)
		return fmt.Errorf("failed to append notification record: %w", err)
	}

	return nil
}

// ListByUser returns dispatch records for one user, newest first
func (r *NotificationRepository) ListByUser(ctx context.Context, userID string) ([]domain.NotificationRecord, error) {
	query := `
		SELECT type, title, body, data, status, error, sent_at
		FROM notifications
		WHERE user_id = $1
		ORDER BY sent_at DESC`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query notification records: %w", err)
	}
	defer rows.Close()

	var records []domain.NotificationRecord
	for rows.Next() {
		var record domain.NotificationRecord
		var data []byte
		if err := rows.Scan(&record.Type, &record.Title, &record.Body,
			&data, &record.Status, &record.Error, &record.SentAt); err != nil {
			return nil, fmt.Errorf("failed to scan notification record: %w", err)
		}
		if len(data) > 0 {
			if err := json.Unmarshal(data, &record.Data); err != nil {
				return nil, fmt.Errorf("failed to unmarshal notification data: %w", err)
			}
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read notification records: %w", err)
	}

	return records, nil
}

// DeleteOlderThan removes records sent before the cutoff, returning the count
func (r *NotificationRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM notifications WHERE sent_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete old notification records: %w", err)
	}
	return int(tag.RowsAffected()), nil
}
