package domain

import (
	"fmt"
	"time"
)

// EInvoiceStatus state of the e-invoice hand-off to the tax authority portal
type EInvoiceStatus string

const (
	EInvoiceStatusPending   EInvoiceStatus = "pending"
	EInvoiceStatusSent      EInvoiceStatus = "sent"
	EInvoiceStatusDelivered EInvoiceStatus = "delivered"
	EInvoiceStatusRejected  EInvoiceStatus = "rejected"
)

const invoiceVATRate = 0.18

// InvoiceParty seller or buyer block on an invoice
type InvoiceParty struct {
	Name      string `json:"name"`
	TaxNumber string `json:"tax_number,omitempty"`
	Address   string `json:"address,omitempty"`
	Phone     string `json:"phone,omitempty"`
	Email     string `json:"email,omitempty"`
	Website   string `json:"website,omitempty"`
}

// InvoiceItem one line item with the VAT split
type InvoiceItem struct {
	Description string  `json:"description"`
	Quantity    int     `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"`
	TotalPrice  float64 `json:"total_price"`
	TaxRate     float64 `json:"tax_rate"`
	TaxAmount   float64 `json:"tax_amount"`
	NetAmount   float64 `json:"net_amount"`
}

// InvoiceTotals aggregate amounts on an invoice
type InvoiceTotals struct {
	NetAmount   float64 `json:"net_amount"`
	TaxAmount   float64 `json:"tax_amount"`
	TotalAmount float64 `json:"total_amount"`
}

// Invoice is generated for every completed payment
type Invoice struct {
	InvoiceID      string           `json:"invoice_id"`
	InvoiceNumber  string           `json:"invoice_number"`
	UserID         string           `json:"user_id"`
	PaymentID      string           `json:"payment_id"`
	Plan           SubscriptionPlan `json:"plan"`
	Amount         float64          `json:"amount"`
	Currency       string           `json:"currency"`
	Status         string           `json:"status"`
	IssueDate      time.Time        `json:"issue_date"`
	DueDate        time.Time        `json:"due_date"`
	Seller         InvoiceParty     `json:"seller"`
	Buyer          InvoiceParty     `json:"buyer"`
	Items          []InvoiceItem    `json:"items"`
	Totals         InvoiceTotals    `json:"totals"`
	EInvoiceStatus EInvoiceStatus   `json:"e_invoice_status"`
	EInvoiceID     string           `json:"e_invoice_id,omitempty"`
	EInvoiceURL    string           `json:"e_invoice_url,omitempty"`
	PDFURL         string           `json:"pdf_url,omitempty"`
	SentAt         *time.Time       `json:"sent_at,omitempty"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`
}

// NewInvoiceItem builds a single line item applying the 18% VAT split
func NewInvoiceItem(description string, amount float64) InvoiceItem {
	return InvoiceItem{
		Description: description,
		Quantity:    1,
		UnitPrice:   amount,
		TotalPrice:  amount,
		TaxRate:     invoiceVATRate * 100,
		TaxAmount:   amount * invoiceVATRate,
		NetAmount:   amount * (1 - invoiceVATRate),
	}
}

// InvoiceTotalsFor returns the totals for a single-item invoice
func InvoiceTotalsFor(amount float64) InvoiceTotals {
	return InvoiceTotals{
		NetAmount:   amount * (1 - invoiceVATRate),
		TaxAmount:   amount * invoiceVATRate,
		TotalAmount: amount,
	}
}

// InvoiceIDFor derives the invoice identifier from the issue time and user
func InvoiceIDFor(userID string, issuedAt time.Time) string {
	uid := userID
	if len(uid) > 8 {
		uid = uid[:8]
	}
	return fmt.Sprintf("INV-%d-%s", issuedAt.UnixMilli(), uid)
}

// InvoiceNumberFor derives the sequential-looking invoice number
func InvoiceNumberFor(issuedAt time.Time) string {
	millis := fmt.Sprintf("%d", issuedAt.UnixMilli())
	return fmt.Sprintf("WOO-%d-%s", issuedAt.Year(), millis[len(millis)-6:])
}

// PlanDescription returns the human-readable line item description per plan
func PlanDescription(plan SubscriptionPlan) string {
	switch plan {
	case PlanMonthly:
		return "Wodoo Aylık Abonelik - Tüm programlara sınırsız erişim"
	case PlanSemiAnnual:
		return "Wodoo 6 Aylık Abonelik - Tüm programlara sınırsız erişim"
	case PlanAnnual:
		return "Wodoo Yıllık Abonelik - Tüm programlara sınırsız erişim"
	default:
		return "Wodoo Abonelik"
	}
}
