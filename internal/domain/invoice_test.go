package domain

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewInvoiceItem(t *testing.T) {
	item := NewInvoiceItem("Wodoo Aylık Abonelik", 829)

	assert.Equal(t, 1, item.Quantity)
	assert.Equal(t, 829.0, item.UnitPrice)
	assert.Equal(t, 829.0, item.TotalPrice)
	assert.Equal(t, 18.0, item.TaxRate)
	assert.InDelta(t, 149.22, item.TaxAmount, 0.001)
	assert.InDelta(t, 679.78, item.NetAmount, 0.001)
	assert.InDelta(t, item.TotalPrice, item.TaxAmount+item.NetAmount, 0.001)
}

func TestInvoiceTotalsFor(t *testing.T) {
	totals := InvoiceTotalsFor(7999)

	assert.Equal(t, 7999.0, totals.TotalAmount)
	assert.InDelta(t, 7999*0.18, totals.TaxAmount, 0.001)
	assert.InDelta(t, totals.TotalAmount, totals.NetAmount+totals.TaxAmount, 0.001)
}

func TestInvoiceIDFor(t *testing.T) {
	issued := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

	id := InvoiceIDFor("user-12345678-long", issued)
	assert.True(t, strings.HasPrefix(id, "INV-"))
	assert.True(t, strings.HasSuffix(id, "user-123"))

	short := InvoiceIDFor("u1", issued)
	assert.True(t, strings.HasSuffix(short, "u1"))
}

func TestInvoiceNumberFor(t *testing.T) {
	issued := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

	number := InvoiceNumberFor(issued)
	assert.True(t, strings.HasPrefix(number, "WOO-2025-"))
	// Six trailing digits of the millisecond timestamp
	parts := strings.Split(number, "-")
	assert.Len(t, parts, 3)
	assert.Len(t, parts[2], 6)
}

func TestPlanDescription(t *testing.T) {
	assert.Contains(t, PlanDescription(PlanMonthly), "Aylık")
	assert.Contains(t, PlanDescription(PlanSemiAnnual), "6 Aylık")
	assert.Contains(t, PlanDescription(PlanAnnual), "Yıllık")
	assert.Equal(t, "Wodoo Abonelik", PlanDescription(SubscriptionPlan("other")))
}
