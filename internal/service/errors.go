package service

import "errors"

// Business-rule errors surfaced verbatim to the caller. None of these are
// retryable; infrastructure failures are wrapped separately with %w.
var (
	ErrProductNotFound     = errors.New("product not found")
	ErrOutOfStock          = errors.New("product is out of stock")
	ErrAlreadyBooked       = errors.New("product is already booked")
	ErrDuplicateBooking    = errors.New("you already have a pending booking, complete or cancel it before booking another product")
	ErrBookingLimitReached = errors.New("you have reached the maximum number of bookings for this product")
	ErrLoginRequired       = errors.New("you must be logged in to book a product")
	ErrAccountBlocked      = errors.New("your account has been blocked, contact support")

	ErrBookingNotFound    = errors.New("booking not found")
	ErrBookingExpired     = errors.New("booking has expired")
	ErrBookingNotApproved = errors.New("booking has not been approved by admin yet")
	ErrBookingFinal       = errors.New("booking is no longer pending")
	ErrApprovalDecided    = errors.New("booking approval has already been decided")

	ErrOrderNotFound     = errors.New("order not found")
	ErrPaymentDecided    = errors.New("payment has already been reviewed")
	ErrProductIsBooked   = errors.New("cannot delete a product that is currently booked")
	ErrProductHasHistory = errors.New("cannot delete a product that has booking history, consider marking it as out of stock instead")

	ErrInvalidID = errors.New("identifier is not a valid uuid")
)
