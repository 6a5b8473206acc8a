package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wodoo-app/subscription-service/internal/domain"
)

func TestCreateInvoiceForUser(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()
	user := env.addUser(ctx, "user1", domain.Subscription{})
	user.DisplayName = "Ayşe Yılmaz"
	require.NoError(t, env.users.Update(ctx, user))

	invoice, err := env.invoiceSvc.CreateInvoiceForUser(ctx, "user1", "payment_1", domain.PlanMonthly, 829)
	require.NoError(t, err)

	assert.Equal(t, "user1", invoice.UserID)
	assert.Equal(t, "payment_1", invoice.PaymentID)
	assert.Equal(t, "TRY", invoice.Currency)
	assert.Equal(t, "issued", invoice.Status)
	assert.Equal(t, domain.EInvoiceStatusPending, invoice.EInvoiceStatus)
	assert.Equal(t, "Wodoo CrossFit Training", invoice.Seller.Name)
	assert.Equal(t, "Ayşe Yılmaz", invoice.Buyer.Name)
	assert.Equal(t, "11111111111", invoice.Buyer.TaxNumber)
	assert.Equal(t, invoice.IssueDate.AddDate(0, 0, 30), invoice.DueDate)

	require.Len(t, invoice.Items, 1)
	assert.Contains(t, invoice.Items[0].Description, "Aylık")
	assert.Equal(t, 829.0, invoice.Totals.TotalAmount)

	// Retrievable under the owner only
	stored, err := env.invoiceSvc.GetInvoice(ctx, "user1", invoice.InvoiceID)
	require.NoError(t, err)
	assert.Equal(t, invoice.InvoiceID, stored.InvoiceID)

	_, err = env.invoiceSvc.GetInvoice(ctx, "someone-else", invoice.InvoiceID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCreateInvoiceForUserMissingUser(t *testing.T) {
	env := newTestEnv()

	_, err := env.invoiceSvc.CreateInvoiceForUser(context.Background(), "nobody", "p", domain.PlanMonthly, 829)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCreateInvoiceDefaultBuyerName(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()
	user := env.addUser(ctx, "anon", domain.Subscription{})

	invoice, err := env.invoiceSvc.CreateInvoice(ctx, user, domain.PaymentRecord{
		PaymentID: "p1",
		Plan:      domain.PlanAnnual,
		Amount:    7999,
		Status:    domain.PaymentStatusCompleted,
	})
	require.NoError(t, err)
	assert.Equal(t, "Kullanıcı", invoice.Buyer.Name)
}

func TestAutoCreateForPaymentIgnoresFailures(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()
	user := env.addUser(ctx, "user1", domain.Subscription{})

	env.invoiceSvc.AutoCreateForPayment(ctx, user, domain.PaymentRecord{
		PaymentID: "p_failed",
		Plan:      domain.PlanMonthly,
		Amount:    829,
		Status:    domain.PaymentStatusFailed,
	})

	invoices, err := env.invoiceSvc.ListInvoices(ctx, "user1", 10, 0)
	require.NoError(t, err)
	assert.Empty(t, invoices)
}

func TestSendEInvoice(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()
	env.addUser(ctx, "user1", domain.Subscription{})

	created, err := env.invoiceSvc.CreateInvoiceForUser(ctx, "user1", "p1", domain.PlanMonthly, 829)
	require.NoError(t, err)

	sent, err := env.invoiceSvc.SendEInvoice(ctx, "user1", created.InvoiceID)
	require.NoError(t, err)

	assert.Equal(t, domain.EInvoiceStatusSent, sent.EInvoiceStatus)
	assert.Contains(t, sent.EInvoiceID, "EINV-")
	assert.Contains(t, sent.EInvoiceURL, "earsivportal.efatura.gov.tr")
	require.NotNil(t, sent.SentAt)
}

func TestGeneratePDF(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()
	env.addUser(ctx, "user1", domain.Subscription{})

	created, err := env.invoiceSvc.CreateInvoiceForUser(ctx, "user1", "p1", domain.PlanSemiAnnual, 4199)
	require.NoError(t, err)

	withPDF, err := env.invoiceSvc.GeneratePDF(ctx, "user1", created.InvoiceID)
	require.NoError(t, err)
	assert.Equal(t, "https://wodoo.com/invoices/"+created.InvoiceID+".pdf", withPDF.PDFURL)
}

func TestListInvoicesDefaultsLimit(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()
	env.addUser(ctx, "user1", domain.Subscription{})

	_, err := env.invoiceSvc.CreateInvoiceForUser(ctx, "user1", "p1", domain.PlanMonthly, 829)
	require.NoError(t, err)

	invoices, err := env.invoiceSvc.ListInvoices(ctx, "user1", 0, -5)
	require.NoError(t, err)
	assert.Len(t, invoices, 1)
}
