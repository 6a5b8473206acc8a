package repository

import (
	"context"
	"sync"
	"time"

	"github.com/wodoo-app/subscription-service/internal/domain"
	"github.com/wodoo-app/subscription-service/pkg/logger"
)

// PaymentRepository stores append-only charge attempt records
type PaymentRepository interface {
	Append(ctx context.Context, record domain.PaymentRecord) error
	GetByUserID(ctx context.Context, userID string) ([]domain.PaymentRecord, error)
}

// InMemoryPaymentRepository in-memory payment history
type InMemoryPaymentRepository struct {
	records []domain.PaymentRecord
	mutex   sync.RWMutex
	log     *logger.Logger
}

// NewInMemoryPaymentRepository creates a new in-memory payment repository
func NewInMemoryPaymentRepository(log *logger.Logger) *InMemoryPaymentRepository {
	return &InMemoryPaymentRepository{log: log}
}

// Append adds one charge attempt record
func (r *InMemoryPaymentRepository) Append(ctx context.Context, record domain.PaymentRecord) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now()
	}
	r.records = append(r.records, record)

	return nil
}

// GetByUserID returns charge records for one user
func (r *InMemoryPaymentRepository) GetByUserID(ctx context.Context, userID string) ([]domain.PaymentRecord, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	var records []domain.PaymentRecord
	for _, record := range r.records {
		if record.UserID == userID {
			records = append(records, record)
		}
	}

	return records, nil
}
