package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/wodoo-app/subscription-service/internal/domain"
	"github.com/wodoo-app/subscription-service/pkg/logger"
)

// InvoiceRepository stores generated invoices
type InvoiceRepository interface {
	Create(ctx context.Context, invoice domain.Invoice) error
	GetByInvoiceID(ctx context.Context, userID, invoiceID string) (domain.Invoice, error)
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]domain.Invoice, error)
	Update(ctx context.Context, invoice domain.Invoice) error
}

// InMemoryInvoiceRepository in-memory invoice store
type InMemoryInvoiceRepository struct {
	invoices map[string]domain.Invoice
	mutex    sync.RWMutex
	log      *logger.Logger
}

// NewInMemoryInvoiceRepository creates a new in-memory invoice repository
func NewInMemoryInvoiceRepository(log *logger.Logger) *InMemoryInvoiceRepository {
	return &InMemoryInvoiceRepository{
		invoices: make(map[string]domain.Invoice),
		log:      log,
	}
}

// Create stores a new invoice
func (r *InMemoryInvoiceRepository) Create(ctx context.Context, invoice domain.Invoice) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if _, exists := r.invoices[invoice.InvoiceID]; exists {
		return ErrDuplicate
	}
	r.invoices[invoice.InvoiceID] = invoice

	return nil
}

// GetByInvoiceID returns one invoice scoped to its owner
func (r *InMemoryInvoiceRepository) GetByInvoiceID(ctx context.Context, userID, invoiceID string) (domain.Invoice, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	invoice, exists := r.invoices[invoiceID]
	if !exists || invoice.UserID != userID {
		return domain.Invoice{}, ErrNotFound
	}

	return invoice, nil
}

// ListByUser returns a user's invoices, newest first
func (r *InMemoryInvoiceRepository) ListByUser(ctx context.Context, userID string, limit, offset int) ([]domain.Invoice, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	var invoices []domain.Invoice
	for _, invoice := range r.invoices {
		if invoice.UserID == userID {
			invoices = append(invoices, invoice)
		}
	}

	sort.Slice(invoices, func(i, j int) bool {
		return invoices[i].CreatedAt.After(invoices[j].CreatedAt)
	})

	if offset >= len(invoices) {
		return nil, nil
	}
	invoices = invoices[offset:]
	if limit > 0 && limit < len(invoices) {
		invoices = invoices[:limit]
	}

	return invoices, nil
}

// Update replaces an existing invoice
func (r *InMemoryInvoiceRepository) Update(ctx context.Context, invoice domain.Invoice) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if _, exists := r.invoices[invoice.InvoiceID]; !exists {
		return ErrNotFound
	}
	r.invoices[invoice.InvoiceID] = invoice

	return nil
}
