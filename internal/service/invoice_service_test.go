package service

import (
	"context"
	"regexp"
	"testing"
	"time"

	"storefront/internal/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var invoiceNumberPattern = regexp.MustCompile(`^INV-\d{4}-\d{4}$`)

func placeOrder(t *testing.T, env *testEnv, method string) (OrderResponse, *model.Profile) {
	t.Helper()
	ctx := context.Background()
	user := env.seedUser(t, "buyer@example.com")
	product := env.seedProduct(t, "Phone A", 1, 500)
	bookApproved(t, env, product.ID.String(), user.ID.String())

	order, err := env.payments.CompletePayment(ctx, CompletePaymentRequest{
		ProductID:       product.ID.String(),
		PaymentMethod:   method,
		ShippingAddress: "1 Main St",
		PaymentSlipURL:  "https://cdn.example.com/slips/abc.jpg",
	})
	require.NoError(t, err)
	return order, user
}

func TestCreateInvoiceForPaidOrder(t *testing.T) {
	env := newTestEnv(t)
	order, _ := placeOrder(t, env, model.PaymentOnline)

	invoice, err := env.invoices.CreateForOrder(context.Background(), order.ID)
	require.NoError(t, err)

	assert.Regexp(t, invoiceNumberPattern, invoice.InvoiceNumber)
	assert.Equal(t, model.InvoicePaid, invoice.Status)
	assert.True(t, invoice.Subtotal.Equal(decimal.NewFromInt(500)))
	assert.True(t, invoice.Tax.IsZero())
	assert.True(t, invoice.Total.Equal(decimal.NewFromInt(500)))

	issued, err := time.Parse(time.RFC3339, invoice.InvoiceDate)
	require.NoError(t, err)
	due, err := time.Parse(time.RFC3339, invoice.DueDate)
	require.NoError(t, err)
	assert.WithinDuration(t, issued.AddDate(0, 0, 14), due, time.Second)
}

func TestCreateInvoiceUnpaidMirrorsOrder(t *testing.T) {
	env := newTestEnv(t)
	order, _ := placeOrder(t, env, model.PaymentBankTransfer)

	invoice, err := env.invoices.CreateForOrder(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, model.InvoiceUnpaid, invoice.Status)
}

func TestCreateInvoiceIdempotent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	order, _ := placeOrder(t, env, model.PaymentOnline)

	first, err := env.invoices.CreateForOrder(ctx, order.ID)
	require.NoError(t, err)

	second, err := env.invoices.CreateForOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, first.InvoiceNumber, second.InvoiceNumber)
}

func TestGetInvoiceByOrder(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	order, _ := placeOrder(t, env, model.PaymentOnline)

	_, err := env.invoices.GetByOrderID(ctx, order.ID)
	require.Error(t, err)

	created, err := env.invoices.CreateForOrder(ctx, order.ID)
	require.NoError(t, err)

	fetched, err := env.invoices.GetByOrderID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, created.InvoiceNumber, fetched.InvoiceNumber)
}

func TestListUserInvoices(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	order, user := placeOrder(t, env, model.PaymentOnline)

	_, err := env.invoices.CreateForOrder(ctx, order.ID)
	require.NoError(t, err)

	invoices, err := env.invoices.ListUserInvoices(ctx, user.ID.String())
	require.NoError(t, err)
	require.Len(t, invoices, 1)
	assert.Equal(t, order.ID, invoices[0].OrderID)

	stranger := env.seedUser(t, "stranger@example.com")
	invoices, err = env.invoices.ListUserInvoices(ctx, stranger.ID.String())
	require.NoError(t, err)
	assert.Empty(t, invoices)
}
