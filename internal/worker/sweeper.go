package worker

import (
	"context"
	"time"

	"storefront/internal/service"

	"github.com/rs/zerolog"
)

const defaultSweepInterval = time.Minute

// Sweeper periodically expires bookings whose payment window has lapsed and
// returns their units to inventory.
type Sweeper struct {
	bookings service.BookingService
	interval time.Duration
	logger   zerolog.Logger
}

// NewSweeper builds a sweeper. A non-positive interval falls back to the
// one-minute default.
func NewSweeper(bookings service.BookingService, interval time.Duration, logger zerolog.Logger) *Sweeper {
	if interval <= 0 {
		interval = defaultSweepInterval
	}
	return &Sweeper{
		bookings: bookings,
		interval: interval,
		logger:   logger.With().Str("component", "booking_sweeper").Logger(),
	}
}

// Run blocks until the context is cancelled. One sweep fires immediately so a
// restart does not leave stale bookings sitting for a full interval.
func (s *Sweeper) Run(ctx context.Context) {
	s.logger.Info().Dur("interval", s.interval).Msg("booking sweeper started")

	s.sweep(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("booking sweeper stopped")
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *Sweeper) sweep(ctx context.Context) {
	expired, err := s.bookings.ExpireDueBookings(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("sweep failed")
		return
	}
	if expired > 0 {
		s.logger.Info().Int("expired", expired).Msg("expired overdue bookings")
	}
}
