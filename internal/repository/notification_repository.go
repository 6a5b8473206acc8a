package repository

import (
	"context"
	"sync"
	"time"

	"github.com/wodoo-app/subscription-service/internal/domain"
	"github.com/wodoo-app/subscription-service/pkg/logger"
)

// NotificationRepository stores per-user dispatch records. Records are
// immutable once written; DeleteOlderThan implements the 30-day retention
// sweep.
type NotificationRepository interface {
	Append(ctx context.Context, userID string, record domain.NotificationRecord) error
	ListByUser(ctx context.Context, userID string) ([]domain.NotificationRecord, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int, error)
}

// InMemoryNotificationRepository in-memory notification history
type InMemoryNotificationRepository struct {
	records map[string][]domain.NotificationRecord
	mutex   sync.RWMutex
	log     *logger.Logger
}

// NewInMemoryNotificationRepository creates a new in-memory notification repository
func NewInMemoryNotificationRepository(log *logger.Logger) *InMemoryNotificationRepository {
	return &InMemoryNotificationRepository{
		records: make(map[string][]domain.NotificationRecord),
		log:     log,
	}
}

// Append adds one dispatch record under a user
func (r *InMemoryNotificationRepository) Append(ctx context.Context, userID string, record domain.NotificationRecord) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if record.SentAt.IsZero() {
		record.SentAt = time.Now()
	}
	r.records[userID] = append(r.records[userID], record)

	return nil
}

// ListByUser returns dispatch records for one user
func (r *InMemoryNotificationRepository) ListByUser(ctx context.Context, userID string) ([]domain.NotificationRecord, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	records := make([]domain.NotificationRecord, len(r.records[userID]))
	copy(records, r.records[userID])

	return records, nil
}

// DeleteOlderThan removes records sent before the cutoff, returning the count
func (r *InMemoryNotificationRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	deleted := 0
	for userID, records := range r.records {
		kept := records[:0]
		for _, record := range records {
			if record.SentAt.Before(cutoff) {
				deleted++
				continue
			}
			kept = append(kept, record)
		}
		r.records[userID] = kept
	}

	return deleted, nil
}
