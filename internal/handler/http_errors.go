package handler

import (
	"errors"
	"net/http"

	"storefront/internal/service"
)

// statusFor maps business errors to HTTP codes. Anything unrecognized is a 500
// so infrastructure failures never masquerade as client mistakes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrProductNotFound),
		errors.Is(err, service.ErrBookingNotFound),
		errors.Is(err, service.ErrOrderNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrInvalidID):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrLoginRequired):
		return http.StatusUnauthorized
	case errors.Is(err, service.ErrAccountBlocked):
		return http.StatusForbidden
	case errors.Is(err, service.ErrOutOfStock),
		errors.Is(err, service.ErrAlreadyBooked),
		errors.Is(err, service.ErrDuplicateBooking),
		errors.Is(err, service.ErrBookingLimitReached),
		errors.Is(err, service.ErrBookingExpired),
		errors.Is(err, service.ErrBookingNotApproved),
		errors.Is(err, service.ErrBookingFinal),
		errors.Is(err, service.ErrApprovalDecided),
		errors.Is(err, service.ErrPaymentDecided),
		errors.Is(err, service.ErrProductIsBooked),
		errors.Is(err, service.ErrProductHasHistory):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
