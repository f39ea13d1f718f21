package handler

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"storefront/internal/service"

	"github.com/stretchr/testify/assert"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"product not found", service.ErrProductNotFound, http.StatusNotFound},
		{"malformed id", fmt.Errorf("invalid product id: %w", service.ErrInvalidID), http.StatusBadRequest},
		{"login required", service.ErrLoginRequired, http.StatusUnauthorized},
		{"blocked account", service.ErrAccountBlocked, http.StatusForbidden},
		{"already booked", service.ErrAlreadyBooked, http.StatusConflict},
		{"booking no longer pending", service.ErrBookingFinal, http.StatusConflict},
		{"infrastructure failure", errors.New("connection refused"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, statusFor(tt.err))
		})
	}
}
