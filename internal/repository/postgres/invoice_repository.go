package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wodoo-app/subscription-service/internal/domain"
	"github.com/wodoo-app/subscription-service/internal/repository"
	"github.com/wodoo-app/subscription-service/pkg/logger"
)

// InvoiceRepository is the Postgres implementation of
// repository.InvoiceRepository
type InvoiceRepository struct {
	pool *pgxpool.Pool
	log  *logger.Logger
}

// NewInvoiceRepository creates a new Postgres invoice repository
func NewInvoiceRepository(pool *pgxpool.Pool, log *logger.Logger) *InvoiceRepository {
	return &InvoiceRepository{pool: pool, log: log}
}

const invoiceColumns = `
	invoice_id, invoice_number, user_id, payment_id, plan, amount, currency,
	status, issue_date, due_date, seller, buyer, items, totals,
	e_invoice_status, e_invoice_id, e_invoice_url, pdf_url, sent_at,
	created_at, updated_at`

// Create persists a new invoice
func (r *InvoiceRepository) Create(ctx context.Context, invoice domain.Invoice) error {
	seller, err := json.Marshal(invoice.Seller)
	if err != nil {
		return fmt.Errorf("failed to marshal invoice seller: %w", err)
	}
	buyer, err := json.Marshal(invoice.Buyer)
	if err != nil {
		return fmt.Errorf("failed to marshal invoice buyer: %w", err)
	}
	items, err := json.Marshal(invoice.Items)
	if err != nil {
		return fmt.Errorf("failed to marshal invoice items: %w", err)
	}
	totals, err := json.Marshal(invoice.Totals)
	if err != nil {
		return fmt.Errorf("failed to marshal invoice totals: %w", err)
	}

	query := `
		INSERT INTO invoices (` + invoiceColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
			$15, $16, $17, $18, $19, $20, $21)`

	_, err = r.pool.Exec(ctx, query,
		invoice.InvoiceID, invoice.InvoiceNumber, invoice.UserID, invoice.PaymentID,
		string(invoice.Plan), invoice.Amount, invoice.Currency, invoice.Status,
		invoice.IssueDate, invoice.DueDate, seller, buyer, items, totals,
		string(invoice.EInvoiceStatus), invoice.EInvoiceID, invoice.EInvoiceURL,
		invoice.PDFURL, invoice.SentAt, invoice.CreatedAt, invoice.UpdatedAt,
	)
	if err != nil {
		r.log.Error("Failed to create invoice %s: %v", invoice.InvoiceID, err)
		return fmt.Errorf("failed to create invoice: %w", err)
	}

	return nil
}

func scanInvoice(row pgx.Row) (domain.Invoice, error) {
	var invoice domain.Invoice
	var seller, buyer, items, totals []byte

	err := row.Scan(
		&invoice.InvoiceID, &invoice.InvoiceNumber, &invoice.UserID, &invoice.PaymentID,
		&invoice.Plan, &invoice.Amount, &invoice.Currency, &invoice.Status,
		&invoice.IssueDate, &invoice.DueDate, &seller, &buyer, &items, &totals,
		&invoice.EInvoiceStatus, &invoice.EInvoiceID, &invoice.EInvoiceURL,
		&invoice.PDFURL, &invoice.SentAt, &invoice.CreatedAt, &invoice.UpdatedAt,
	)
	if err != nil {
		return domain.Invoice{}, err
	}

	if err := json.Unmarshal(seller, &invoice.Seller); err != nil {
		return domain.Invoice{}, fmt.Errorf("failed to unmarshal invoice seller: %w", err)
	}
	if err := json.Unmarshal(buyer, &invoice.Buyer); err != nil {
		return domain.Invoice{}, fmt.Errorf("failed to unmarshal invoice buyer: %w", err)
	}
	if err := json.Unmarshal(items, &invoice.Items); err != nil {
		return domain.Invoice{}, fmt.Errorf("failed to unmarshal invoice items: %w", err)
	}
	if err := json.Unmarshal(totals, &invoice.Totals); err != nil {
		return domain.Invoice{}, fmt.Errorf("failed to unmarshal invoice totals: %w", err)
	}

	return invoice, nil
}

// GetByInvoiceID returns one invoice scoped to its owner
func (r *InvoiceRepository) GetByInvoiceID(ctx context.Context, userID, invoiceID string) (domain.Invoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM invoices WHERE user_id = $1 AND invoice_id = $2`

	invoice, err := scanInvoice(r.pool.QueryRow(ctx, query, userID, invoiceID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Invoice{}, repository.ErrNotFound
		}
		return domain.Invoice{}, fmt.Errorf("failed to get invoice: %w", err)
	}

	return invoice, nil
}

// ListByUser returns invoices for one user, newest first
func (r *InvoiceRepository) ListByUser(ctx context.Context, userID string, limit, offset int) ([]domain.Invoice, error) {
	query := `
		SELECT ` + invoiceColumns + `
		FROM invoices
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`

	rows, err := r.pool.Query(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query invoices: %w", err)
	}
	defer rows.Close()

	var invoices []domain.Invoice
	for rows.Next() {
		invoice, err := scanInvoice(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan invoice: %w", err)
		}
		invoices = append(invoices, invoice)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read invoices: %w", err)
	}

	return invoices, nil
}

// Update rewrites the mutable e-invoice fields of an existing invoice
func (r *InvoiceRepository) Update(ctx context.Context, invoice domain.Invoice) error {
	query := `
		UPDATE invoices
		SET status = $3, e_invoice_status = $4, e_invoice_id = $5,
			e_invoice_url = $6, pdf_url = $7, sent_at = $8, updated_at = $9
		WHERE user_id = $1 AND invoice_id = $2`

	tag, err := r.pool.Exec(ctx, query,
		invoice.UserID, invoice.InvoiceID, invoice.Status,
		string(invoice.EInvoiceStatus), invoice.EInvoiceID, invoice.EInvoiceURL,
		invoice.PDFURL, invoice.SentAt, invoice.UpdatedAt,
	)
	if err != nil {
		r.log.Error("Failed to update invoice %s: %v", invoice.InvoiceID, err)
		return fmt.Errorf("failed to update invoice: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}
