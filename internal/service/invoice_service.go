package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/wodoo-app/subscription-service/internal/domain"
	"github.com/wodoo-app/subscription-service/internal/repository"
	"github.com/wodoo-app/subscription-service/pkg/logger"
)

// sellerParty is the fixed issuer block on every invoice
var sellerParty = domain.InvoiceParty{
	Name:      "Wodoo CrossFit Training",
	TaxNumber: "1234567890",
	Address:   "İstanbul, Türkiye",
	Phone:     "+90 212 123 45 67",
	Email:     "info@wodoo.com",
	Website:   "www.wodoo.com",
}

// InvoiceService issues invoices for completed payments and mutates their
// e-invoice hand-off state
type InvoiceService interface {
	// CreateInvoice issues an invoice for one completed payment.
	CreateInvoice(ctx context.Context, user domain.User, record domain.PaymentRecord) (domain.Invoice, error)

	// CreateInvoiceForUser looks the user up and issues an invoice for a
	// payment reported by the client.
	CreateInvoiceForUser(ctx context.Context, userID, paymentID string, plan domain.SubscriptionPlan, amount float64) (domain.Invoice, error)

	// AutoCreateForPayment issues an invoice after a completed payment
	// record without surfacing failures. Non-completed records are ignored.
	AutoCreateForPayment(ctx context.Context, user domain.User, record domain.PaymentRecord)

	// GetInvoice returns one invoice scoped to its owner.
	GetInvoice(ctx context.Context, userID, invoiceID string) (domain.Invoice, error)

	// ListInvoices returns invoices for one user, newest first.
	ListInvoices(ctx context.Context, userID string, limit, offset int) ([]domain.Invoice, error)

	// SendEInvoice hands the invoice off to the e-invoice portal.
	SendEInvoice(ctx context.Context, userID, invoiceID string) (domain.Invoice, error)

	// GeneratePDF produces the invoice PDF and stores its URL.
	GeneratePDF(ctx context.Context, userID, invoiceID string) (domain.Invoice, error)
}

type invoiceService struct {
	invoices repository.InvoiceRepository
	users    repository.UserRepository
	log      *logger.Logger
}

// NewInvoiceService creates a new invoice service
func NewInvoiceService(invoices repository.InvoiceRepository, users repository.UserRepository, log *logger.Logger) InvoiceService {
	return &invoiceService{
		invoices: invoices,
		users:    users,
		log:      log,
	}
}

func (s *invoiceService) CreateInvoice(ctx context.Context, user domain.User, record domain.PaymentRecord) (domain.Invoice, error) {
	now := time.Now()

	buyerName := user.DisplayName
	if buyerName == "" {
		buyerName = "Kullanıcı"
	}

	invoice := domain.Invoice{
		InvoiceID:     domain.InvoiceIDFor(user.ID, now),
		InvoiceNumber: domain.InvoiceNumberFor(now),
		UserID:        user.ID,
		PaymentID:     record.PaymentID,
		Plan:          record.Plan,
		Amount:        record.Amount,
		Currency:      "TRY",
		Status:        "issued",
		IssueDate:     now,
		DueDate:       now.AddDate(0, 0, 30),
		Seller:        sellerParty,
		Buyer: domain.InvoiceParty{
			Name:      buyerName,
			Email:     user.Email,
			TaxNumber: "11111111111",
		},
		Items: []domain.InvoiceItem{
			domain.NewInvoiceItem(domain.PlanDescription(record.Plan), record.Amount),
		},
		Totals:         domain.InvoiceTotalsFor(record.Amount),
		EInvoiceStatus: domain.EInvoiceStatusPending,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.invoices.Create(ctx, invoice); err != nil {
		return domain.Invoice{}, fmt.Errorf("failed to store invoice: %w", err)
	}

	s.log.Info("Invoice %s issued for user %s, payment %s", invoice.InvoiceID, user.ID, record.PaymentID)
	return invoice, nil
}

func (s *invoiceService) CreateInvoiceForUser(ctx context.Context, userID, paymentID string, plan domain.SubscriptionPlan, amount float64) (domain.Invoice, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.Invoice{}, domain.ErrNotFound
		}
		return domain.Invoice{}, err
	}

	return s.CreateInvoice(ctx, user, domain.PaymentRecord{
		UserID:    userID,
		PaymentID: paymentID,
		Plan:      plan,
		Amount:    amount,
		Status:    domain.PaymentStatusCompleted,
	})
}

func (s *invoiceService) AutoCreateForPayment(ctx context.Context, user domain.User, record domain.PaymentRecord) {
	if record.Status != domain.PaymentStatusCompleted {
		return
	}

	if _, err := s.CreateInvoice(ctx, user, record); err != nil {
		s.log.Error("Failed to auto-create invoice for payment %s: %v", record.PaymentID, err)
	}
}

func (s *invoiceService) GetInvoice(ctx context.Context, userID, invoiceID string) (domain.Invoice, error) {
	invoice, err := s.invoices.GetByInvoiceID(ctx, userID, invoiceID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.Invoice{}, domain.ErrNotFound
		}
		return domain.Invoice{}, err
	}
	return invoice, nil
}

func (s *invoiceService) ListInvoices(ctx context.Context, userID string, limit, offset int) ([]domain.Invoice, error) {
	if limit <= 0 {
		limit = 10
	}
	if offset < 0 {
		offset = 0
	}
	return s.invoices.ListByUser(ctx, userID, limit, offset)
}

func (s *invoiceService) SendEInvoice(ctx context.Context, userID, invoiceID string) (domain.Invoice, error) {
	invoice, err := s.GetInvoice(ctx, userID, invoiceID)
	if err != nil {
		return domain.Invoice{}, err
	}

	now := time.Now()
	invoice.EInvoiceStatus = domain.EInvoiceStatusSent
	invoice.EInvoiceID = fmt.Sprintf("EINV-%d", now.UnixMilli())
	invoice.EInvoiceURL = fmt.Sprintf("https://earsivportal.efatura.gov.tr/invoice/%s", invoice.EInvoiceID)
	invoice.SentAt = &now
	invoice.UpdatedAt = now

	if err := s.invoices.Update(ctx, invoice); err != nil {
		return domain.Invoice{}, fmt.Errorf("failed to update invoice: %w", err)
	}

	s.log.Info("E-invoice %s sent for invoice %s", invoice.EInvoiceID, invoiceID)
	return invoice, nil
}

func (s *invoiceService) GeneratePDF(ctx context.Context, userID, invoiceID string) (domain.Invoice, error) {
	invoice, err := s.GetInvoice(ctx, userID, invoiceID)
	if err != nil {
		return domain.Invoice{}, err
	}

	invoice.PDFURL = fmt.Sprintf("https://wodoo.com/invoices/%s.pdf", invoiceID)
	invoice.UpdatedAt = time.Now()

	if err := s.invoices.Update(ctx, invoice); err != nil {
		return domain.Invoice{}, fmt.Errorf("failed to update invoice: %w", err)
	}

	return invoice, nil
}
