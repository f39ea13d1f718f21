package service

import (
	"context"
	"testing"
	"time"

	"storefront/internal/model"
	"storefront/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateBookingReservesUnit(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.seedUser(t, "alice@example.com")
	product := env.seedProduct(t, "Phone A", 1, 499.99)

	resp, err := env.bookings.CreateBooking(ctx, CreateBookingRequest{
		ProductID: product.ID.String(),
		UserID:    user.ID.String(),
	})
	require.NoError(t, err)
	assert.Equal(t, model.BookingPending, resp.Status)

	updated, err := env.productRepo.FindByID(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, updated.Stock)
	assert.Equal(t, model.ProductBooked, updated.Status)
}

func TestCreateBookingLastUnitRace(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.seedUser(t, "alice@example.com")
	bob := env.seedUser(t, "bob@example.com")
	product := env.seedProduct(t, "Phone A", 1, 499.99)

	_, err := env.bookings.CreateBooking(ctx, CreateBookingRequest{
		ProductID: product.ID.String(),
		UserID:    alice.ID.String(),
	})
	require.NoError(t, err)

	_, err = env.bookings.CreateBooking(ctx, CreateBookingRequest{
		ProductID: product.ID.String(),
		UserID:    bob.ID.String(),
	})
	assert.ErrorIs(t, err, ErrAlreadyBooked)

	// Exactly one booking holds the unit
	count, err := env.bookingRepo.CountByProduct(ctx, product.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
}

func TestCreateBookingOutOfStock(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.seedUser(t, "alice@example.com")
	product := env.seedProduct(t, "Phone A", 0, 499.99)

	_, err := env.bookings.CreateBooking(ctx, CreateBookingRequest{
		ProductID: product.ID.String(),
		UserID:    user.ID.String(),
	})
	assert.ErrorIs(t, err, ErrOutOfStock)
}

func TestCreateBookingGuestRequiresExplicitFlag(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	product := env.seedProduct(t, "Phone A", 3, 499.99)

	_, err := env.bookings.CreateBooking(ctx, CreateBookingRequest{ProductID: product.ID.String()})
	assert.ErrorIs(t, err, ErrLoginRequired)

	resp, err := env.bookings.CreateBooking(ctx, CreateBookingRequest{
		ProductID:    product.ID.String(),
		GuestBooking: true,
	})
	require.NoError(t, err)
	assert.Empty(t, resp.UserID)
}

func TestCreateBookingDuplicatePending(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.seedUser(t, "alice@example.com")
	first := env.seedProduct(t, "Phone A", 3, 499.99)
	second := env.seedProduct(t, "Phone B", 3, 599.99)

	_, err := env.bookings.CreateBooking(ctx, CreateBookingRequest{
		ProductID: first.ID.String(),
		UserID:    user.ID.String(),
	})
	require.NoError(t, err)

	_, err = env.bookings.CreateBooking(ctx, CreateBookingRequest{
		ProductID: second.ID.String(),
		UserID:    user.ID.String(),
	})
	assert.ErrorIs(t, err, ErrDuplicateBooking)

	// Flipping the setting lifts the restriction
	settings, err := env.settingsRepo.Get(ctx)
	require.NoError(t, err)
	settings.AllowDuplicateBookings = true
	require.NoError(t, env.settingsRepo.Update(ctx, settings))

	_, err = env.bookings.CreateBooking(ctx, CreateBookingRequest{
		ProductID: second.ID.String(),
		UserID:    user.ID.String(),
	})
	require.NoError(t, err)
}

func TestCreateBookingPerProductLimit(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.seedUser(t, "alice@example.com")
	product := env.seedProduct(t, "Phone A", 3, 499.99)

	// An earlier paid booking still counts against the per-product limit
	userID := user.ID
	paid := &model.Booking{
		ProductID:      product.ID,
		UserID:         &userID,
		ExpiresAt:      time.Now().Add(time.Hour),
		Status:         model.BookingPaid,
		ApprovalStatus: model.ApprovalApproved,
	}
	require.NoError(t, env.bookingRepo.Create(ctx, paid))

	_, err := env.bookings.CreateBooking(ctx, CreateBookingRequest{
		ProductID: product.ID.String(),
		UserID:    user.ID.String(),
	})
	assert.ErrorIs(t, err, ErrBookingLimitReached)
}

func TestCreateBookingApprovalFollowsSettings(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.seedUser(t, "alice@example.com")

	product := env.seedProduct(t, "Phone A", 3, 499.99)
	resp, err := env.bookings.CreateBooking(ctx, CreateBookingRequest{
		ProductID: product.ID.String(),
		UserID:    user.ID.String(),
	})
	require.NoError(t, err)
	assert.Equal(t, model.ApprovalPending, resp.ApprovalStatus)

	env.setApprovalRequired(t, false)
	guest := env.seedProduct(t, "Phone B", 3, 599.99)
	resp, err = env.bookings.CreateBooking(ctx, CreateBookingRequest{
		ProductID:    guest.ID.String(),
		GuestBooking: true,
	})
	require.NoError(t, err)
	assert.Equal(t, model.ApprovalApproved, resp.ApprovalStatus)
}

func TestCreateBookingExpiryWindow(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.seedUser(t, "alice@example.com")
	product := env.seedProduct(t, "Phone A", 3, 499.99)

	before := time.Now()
	resp, err := env.bookings.CreateBooking(ctx, CreateBookingRequest{
		ProductID: product.ID.String(),
		UserID:    user.ID.String(),
	})
	require.NoError(t, err)

	expiresAt, err := time.Parse(time.RFC3339, resp.ExpiresAt)
	require.NoError(t, err)
	expected := before.Add(time.Duration(model.DefaultPaymentTimeoutHours) * time.Hour)
	assert.WithinDuration(t, expected, expiresAt, 5*time.Second)
}

func TestRejectBookingRestoresStockOnce(t *testing.T) {
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

	err = env.bookings.UpdateApproval(ctx, admin.ID.String(), resp.ID, BookingDecisionRequest{
		Decision: model.ApprovalRejected,
		Notes:    "slip missing",
	})
	require.NoError(t, err)

	restored, err := env.productRepo.FindByID(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, restored.Stock)
	assert.Equal(t, model.ProductLowStock, restored.Status)

	booking, err := env.bookingRepo.FindByID(ctx, mustUUID(t, resp.ID))
	require.NoError(t, err)
	assert.Equal(t, model.BookingCancelled, booking.Status)
	assert.Equal(t, model.ApprovalRejected, booking.ApprovalStatus)
	assert.Equal(t, "slip missing", booking.AdminNotes)

	// A second decision must not restore stock again
	err = env.bookings.UpdateApproval(ctx, admin.ID.String(), resp.ID, BookingDecisionRequest{
		Decision: model.ApprovalRejected,
	})
	assert.ErrorIs(t, err, ErrApprovalDecided)

	restored, err = env.productRepo.FindByID(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, restored.Stock)
}

func TestApproveBookingKeepsReservation(t *testing.T) {
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

	err = env.bookings.UpdateApproval(ctx, admin.ID.String(), resp.ID, BookingDecisionRequest{
		Decision: model.ApprovalApproved,
	})
	require.NoError(t, err)

	booking, err := env.bookingRepo.FindByID(ctx, mustUUID(t, resp.ID))
	require.NoError(t, err)
	assert.Equal(t, model.BookingPending, booking.Status)
	assert.Equal(t, model.ApprovalApproved, booking.ApprovalStatus)

	held, err := env.productRepo.FindByID(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, held.Stock)
	assert.Equal(t, model.ProductBooked, held.Status)
}

func TestExtendExpiration(t *testing.T) {
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

	original, err := time.Parse(time.RFC3339, resp.ExpiresAt)
	require.NoError(t, err)

	extended, err := env.bookings.ExtendExpiration(ctx, admin.ID.String(), resp.ID, 24)
	require.NoError(t, err)
	assert.WithinDuration(t, original.Add(24*time.Hour), extended, 2*time.Second)
}

func TestExpireDueBookings(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.seedUser(t, "alice@example.com")
	product := env.seedProduct(t, "Phone A", 1, 499.99)

	resp, err := env.bookings.CreateBooking(ctx, CreateBookingRequest{
		ProductID: product.ID.String(),
		UserID:    user.ID.String(),
	})
	require.NoError(t, err)

	bookingID := mustUUID(t, resp.ID)
	require.NoError(t, env.bookingRepo.UpdateExpiry(ctx, bookingID, time.Now().Add(-time.Minute)))

	expired, err := env.bookings.ExpireDueBookings(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, expired)

	booking, err := env.bookingRepo.FindByID(ctx, bookingID)
	require.NoError(t, err)
	assert.Equal(t, model.BookingExpired, booking.Status)

	restored, err := env.productRepo.FindByID(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, restored.Stock)
	assert.Equal(t, model.ProductLowStock, restored.Status)

	// A second sweep finds nothing and restores nothing
	expired, err = env.bookings.ExpireDueBookings(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, expired)

	restored, err = env.productRepo.FindByID(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, restored.Stock)
}

func TestExpireSkipsAlreadyPaidBooking(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.seedUser(t, "alice@example.com")
	product := env.seedProduct(t, "Phone A", 1, 499.99)

	resp, err := env.bookings.CreateBooking(ctx, CreateBookingRequest{
		ProductID: product.ID.String(),
		UserID:    user.ID.String(),
	})
	require.NoError(t, err)

	bookingID := mustUUID(t, resp.ID)
	require.NoError(t, env.bookingRepo.UpdateExpiry(ctx, bookingID, time.Now().Add(-time.Minute)))

	// The payment wins the race before the sweep fires
	flipped, err := env.bookingRepo.TransitionStatus(ctx, bookingID, model.BookingPending, model.BookingPaid)
	require.NoError(t, err)
	require.True(t, flipped)

	expired, err := env.bookings.ExpireDueBookings(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, expired)

	product2, err := env.productRepo.FindByID(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, product2.Stock)
}

func TestReleaseKeepsBookedWithOtherPending(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.seedUser(t, "alice@example.com")
	admin := env.seedUser(t, "admin@example.com")
	product := env.seedProduct(t, "Phone A", 2, 499.99)

	resp, err := env.bookings.CreateBooking(ctx, CreateBookingRequest{
		ProductID: product.ID.String(),
		UserID:    user.ID.String(),
	})
	require.NoError(t, err)

	// A second pending booking holding the other unit
	other := &model.Booking{
		ProductID:      product.ID,
		ExpiresAt:      time.Now().Add(time.Hour),
		Status:         model.BookingPending,
		ApprovalStatus: model.ApprovalPending,
	}
	require.NoError(t, env.bookingRepo.Create(ctx, other))

	err = env.bookings.UpdateApproval(ctx, admin.ID.String(), resp.ID, BookingDecisionRequest{
		Decision: model.ApprovalRejected,
	})
	require.NoError(t, err)

	updated, err := env.productRepo.FindByID(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, updated.Stock)
	assert.Equal(t, model.ProductBooked, updated.Status)
}

func TestGetBookedProduct(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.seedUser(t, "alice@example.com")
	product := env.seedProduct(t, "Phone A", 1, 499.99)

	// No reservation yet
	booked, err := env.bookings.GetBookedProduct(ctx, product.ID.String())
	require.NoError(t, err)
	assert.Nil(t, booked)

	resp, err := env.bookings.CreateBooking(ctx, CreateBookingRequest{
		ProductID: product.ID.String(),
		UserID:    user.ID.String(),
	})
	require.NoError(t, err)

	booked, err = env.bookings.GetBookedProduct(ctx, product.ID.String())
	require.NoError(t, err)
	require.NotNil(t, booked)
	assert.Equal(t, product.ID.String(), booked.ID)
	assert.Equal(t, resp.ExpiresAt, booked.ExpiresAt)
}

func TestListBookingsFilters(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.seedUser(t, "alice@example.com")
	first := env.seedProduct(t, "Phone A", 1, 499.99)
	second := env.seedProduct(t, "Phone B", 1, 599.99)

	env.setApprovalRequired(t, false)

	settings, err := env.settingsRepo.Get(ctx)
	require.NoError(t, err)
	settings.AllowDuplicateBookings = true
	require.NoError(t, env.settingsRepo.Update(ctx, settings))

	_, err = env.bookings.CreateBooking(ctx, CreateBookingRequest{
		ProductID: first.ID.String(),
		UserID:    user.ID.String(),
	})
	require.NoError(t, err)
	_, err = env.bookings.CreateBooking(ctx, CreateBookingRequest{
		ProductID: second.ID.String(),
		UserID:    user.ID.String(),
	})
	require.NoError(t, err)

	all, total, err := env.bookings.ListBookings(ctx, repository.BookingFilter{})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Len(t, all, 2)

	pending, total, err := env.bookings.ListBookings(ctx, repository.BookingFilter{Status: model.BookingPending})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Len(t, pending, 2)

	none, total, err := env.bookings.ListBookings(ctx, repository.BookingFilter{Status: model.BookingPaid})
	require.NoError(t, err)
	assert.EqualValues(t, 0, total)
	assert.Empty(t, none)
}
