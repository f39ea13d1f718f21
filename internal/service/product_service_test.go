package service

import (
	"context"
	"testing"

	"storefront/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateProductDerivesStatus(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	cases := []struct {
		stock  int
		status string
	}{
		{0, model.ProductOutOfStock},
		{3, model.ProductLowStock},
		{5, model.ProductLowStock},
		{6, model.ProductInStock},
		{50, model.ProductInStock},
	}

	for _, tc := range cases {
		resp, err := env.products.CreateProduct(ctx, "", CreateProductRequest{
			Name:  "Phone",
			Price: 499.99,
			Stock: tc.stock,
		})
		require.NoError(t, err)
		assert.Equal(t, tc.status, resp.Status, "stock %d", tc.stock)
	}
}

func TestCreateProductDefaults(t *testing.T) {
	env := newTestEnv(t)

	resp, err := env.products.CreateProduct(context.Background(), "", CreateProductRequest{
		Name:  "Phone",
		Price: 499.99,
		Stock: 10,
	})
	require.NoError(t, err)
	assert.Equal(t, "mobile", resp.Category)
	assert.Equal(t, model.DefaultMaxBookingPerUser, resp.MaxBookingPerUser)
	assert.Nil(t, resp.DiscountedPrice)
}

func TestBulkUpload(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	count, err := env.products.BulkUpload(ctx, "", BulkUploadRequest{
		Products: []CreateProductRequest{
			{Name: "Phone A", Price: 499.99, Stock: 10},
			{Name: "Phone B", Price: 599.99, Stock: 2},
			{Name: "Phone C", Price: 699.99, Stock: 0},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	products, total, err := env.products.ListProducts(ctx, 1, 10, "")
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)

	statuses := map[string]string{}
	for _, p := range products {
		statuses[p.Name] = p.Status
	}
	assert.Equal(t, model.ProductInStock, statuses["Phone A"])
	assert.Equal(t, model.ProductLowStock, statuses["Phone B"])
	assert.Equal(t, model.ProductOutOfStock, statuses["Phone C"])
}

func TestListProductsSearch(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.seedProduct(t, "Galaxy S25", 5, 899.99)
	env.seedProduct(t, "Pixel 10", 5, 799.99)

	matched, total, err := env.products.ListProducts(ctx, 1, 10, "Galaxy")
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, matched, 1)
	assert.Equal(t, "Galaxy S25", matched[0].Name)
}

func TestUpdateProductKeepsBookedOverride(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.seedUser(t, "alice@example.com")
	product := env.seedProduct(t, "Phone A", 1, 499.99)

	_, err := env.bookings.CreateBooking(ctx, CreateBookingRequest{
		ProductID: product.ID.String(),
		UserID:    user.ID.String(),
	})
	require.NoError(t, err)

	updated, err := env.products.UpdateProduct(ctx, "", product.ID.String(), UpdateProductRequest{
		Name:  "Phone A (2026)",
		Price: 459.99,
		Stock: 4,
	})
	require.NoError(t, err)
	assert.Equal(t, "Phone A (2026)", updated.Name)
	assert.Equal(t, 4, updated.Stock)
	assert.Equal(t, model.ProductBooked, updated.Status)
}

func TestUpdateProductRecomputesStatus(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	product := env.seedProduct(t, "Phone A", 10, 499.99)

	updated, err := env.products.UpdateProduct(ctx, "", product.ID.String(), UpdateProductRequest{
		Name:  "Phone A",
		Price: 499.99,
		Stock: 0,
	})
	require.NoError(t, err)
	assert.Equal(t, model.ProductOutOfStock, updated.Status)
}

func TestDeleteProductGuards(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.seedUser(t, "alice@example.com")
	admin := env.seedUser(t, "admin@example.com")
	product := env.seedProduct(t, "Phone A", 1, 499.99)

	resp, err := env.bookings.CreateBooking(ctx, CreateBookingRequest{
		ProductID: product.ID.String(),
		UserID:    user.ID.String(),
	})
	require.NoError(t, err)

	// Currently booked
	err = env.products.DeleteProduct(ctx, "", product.ID.String())
	assert.ErrorIs(t, err, ErrProductIsBooked)

	// Released but with history
	require.NoError(t, env.bookings.UpdateApproval(ctx, admin.ID.String(), resp.ID, BookingDecisionRequest{
		Decision: model.ApprovalRejected,
	}))
	err = env.products.DeleteProduct(ctx, "", product.ID.String())
	assert.ErrorIs(t, err, ErrProductHasHistory)

	// A clean product deletes fine
	clean := env.seedProduct(t, "Phone B", 5, 599.99)
	require.NoError(t, env.products.DeleteProduct(ctx, "", clean.ID.String()))

	_, err = env.products.GetProduct(ctx, clean.ID.String())
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestStatsCountersAndRevenue(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.seedUser(t, "alice@example.com")
	product := env.seedProduct(t, "Phone A", 1, 500)
	env.seedProduct(t, "Phone B", 5, 600)

	bookApproved(t, env, product.ID.String(), user.ID.String())
	_, err := env.payments.CompletePayment(ctx, CompletePaymentRequest{
		ProductID:       product.ID.String(),
		PaymentMethod:   model.PaymentOnline,
		ShippingAddress: "1 Main St",
	})
	require.NoError(t, err)

	stats, err := env.stats.GetDashboardStats(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, stats.TotalProducts)
	assert.EqualValues(t, 1, stats.TotalOrders)
	assert.InDelta(t, 500.0, stats.TotalRevenue, 0.01)
	require.Len(t, stats.RecentOrders, 1)
	assert.Equal(t, "Phone A", stats.RecentOrders[0].ProductName)
	assert.Equal(t, "alice@example.com", stats.RecentOrders[0].CustomerEmail)
	assert.NotEmpty(t, stats.RecentProducts)
}

func TestGetProductMalformedID(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.products.GetProduct(context.Background(), "not-a-uuid")
	assert.ErrorIs(t, err, ErrInvalidID)
}
