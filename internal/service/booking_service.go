package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"storefront/internal/model"
	"storefront/internal/repository"
	ws "storefront/internal/websocket"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// --- DTOs ---

type CreateBookingRequest struct {
	ProductID    string `json:"product_id" binding:"required"`
	UserID       string `json:"user_id"`
	GuestBooking bool   `json:"guest_booking"`
}

type BookingDecisionRequest struct {
	Decision string `json:"decision" binding:"required,oneof=approved rejected"`
	Notes    string `json:"notes"`
}

type ExtendBookingRequest struct {
	AdditionalHours int `json:"additional_hours" binding:"required,gt=0"`
}

type BookingResponse struct {
	ID             string `json:"id"`
	ProductID      string `json:"product_id"`
	ProductName    string `json:"product_name,omitempty"`
	UserID         string `json:"user_id,omitempty"`
	BookedAt       string `json:"booked_at"`
	ExpiresAt      string `json:"expires_at"`
	Status         string `json:"status"`
	ApprovalStatus string `json:"approval_status"`
	AdminNotes     string `json:"admin_notes,omitempty"`
}

// BookedProductResponse carries the product along with its live reservation
type BookedProductResponse struct {
	ProductResponse
	BookedAt  string `json:"booked_at"`
	ExpiresAt string `json:"expires_at"`
}

// --- Interface ---

type BookingService interface {
	CreateBooking(ctx context.Context, req CreateBookingRequest) (BookingResponse, error)
	UpdateApproval(ctx context.Context, adminID, bookingID string, req BookingDecisionRequest) error
	ExtendExpiration(ctx context.Context, adminID, bookingID string, additionalHours int) (time.Time, error)
	ExpireDueBookings(ctx context.Context) (int, error)
	GetBookedProduct(ctx context.Context, productID string) (*BookedProductResponse, error)
	ListBookings(ctx context.Context, filter repository.BookingFilter) ([]BookingResponse, int64, error)
}

type bookingService struct {
	productRepo  repository.ProductRepository
	bookingRepo  repository.BookingRepository
	settingsRepo repository.SettingsRepository
	auditRepo    repository.AuditRepository
	txManager    repository.TransactionManager
	hub          *ws.Hub
}

func NewBookingService(
	productRepo repository.ProductRepository,
	bookingRepo repository.BookingRepository,
	settingsRepo repository.SettingsRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	hub *ws.Hub,
) BookingService {
	return &bookingService{
		productRepo:  productRepo,
		bookingRepo:  bookingRepo,
		settingsRepo: settingsRepo,
		auditRepo:    auditRepo,
		txManager:    txManager,
		hub:          hub,
	}
}

// CreateBooking reserves one unit of a product for the payment window.
// The stock check-and-decrement is a single conditional update committed
// together with the booking row, so two requests racing for the last unit
// cannot both succeed.
func (s *bookingService) CreateBooking(ctx context.Context, req CreateBookingRequest) (BookingResponse, error) {
	productID, err := uuid.Parse(req.ProductID)
	if err != nil {
		return BookingResponse{}, fmt.Errorf("invalid product id: %w", ErrInvalidID)
	}

	var userID *uuid.UUID
	if req.UserID != "" {
		parsed, parseErr := uuid.Parse(req.UserID)
		if parseErr != nil {
			return BookingResponse{}, fmt.Errorf("invalid user id: %w", ErrInvalidID)
		}
		userID = &parsed
	}

	// A session user or an explicit guest flag is required, never a fallback.
	if userID == nil && !req.GuestBooking {
		return BookingResponse{}, ErrLoginRequired
	}

	var booking model.Booking
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		settings, settingsErr := s.settingsRepo.Get(txCtx)
		if settingsErr != nil {
			return fmt.Errorf("failed to load system settings: %w", settingsErr)
		}

		product, findErr := s.productRepo.FindByID(txCtx, productID)
		if findErr != nil {
			if errors.Is(findErr, gorm.ErrRecordNotFound) {
				return ErrProductNotFound
			}
			return fmt.Errorf("failed to fetch product: %w", findErr)
		}

		if userID != nil {
			if !settings.AllowDuplicateBookings {
				hasPending, pendingErr := s.bookingRepo.HasPendingByUser(txCtx, *userID)
				if pendingErr != nil {
					return fmt.Errorf("failed to check existing bookings: %w", pendingErr)
				}
				if hasPending {
					return ErrDuplicateBooking
				}
			}

			maxPerUser := product.MaxBookingPerUser
			if maxPerUser <= 0 {
				maxPerUser = model.DefaultMaxBookingPerUser
			}
			active, countErr := s.bookingRepo.CountActiveByProductAndUser(txCtx, productID, *userID)
			if countErr != nil {
				return fmt.Errorf("failed to count bookings: %w", countErr)
			}
			if active >= int64(maxPerUser) {
				return ErrBookingLimitReached
			}
		}

		reserved, reserveErr := s.productRepo.Reserve(txCtx, productID)
		if reserveErr != nil {
			return fmt.Errorf("failed to reserve stock: %w", reserveErr)
		}
		if !reserved {
			if product.Status == model.ProductBooked {
				return ErrAlreadyBooked
			}
			return ErrOutOfStock
		}

		approvalStatus := model.ApprovalApproved
		if settings.DefaultApprovalRequired {
			approvalStatus = model.ApprovalPending
		}

		booking = model.Booking{
			ProductID:      productID,
			UserID:         userID,
			ExpiresAt:      time.Now().Add(time.Duration(settings.PaymentTimeoutHours) * time.Hour),
			Status:         model.BookingPending,
			ApprovalStatus: approvalStatus,
		}
		if createErr := s.bookingRepo.Create(txCtx, &booking); createErr != nil {
			return fmt.Errorf("failed to create booking: %w", createErr)
		}

		details, _ := json.Marshal(map[string]interface{}{
			"product_id": productID.String(),
			"guest":      userID == nil,
			"expires_at": booking.ExpiresAt,
		})
		audit := &model.AuditLog{
			UserID:     userID,
			Action:     model.ActionCreateBooking,
			EntityID:   booking.ID.String(),
			EntityName: product.Name,
			Details:    string(details),
		}
		if auditErr := s.auditRepo.Log(txCtx, audit); auditErr != nil {
			return fmt.Errorf("failed to write audit log: %w", auditErr)
		}

		return nil
	})

	if err != nil {
		return BookingResponse{}, err
	}

	s.hub.Publish(ws.EventProductBooked, map[string]interface{}{
		"product_id": productID.String(),
		"booking_id": booking.ID.String(),
	})

	return toBookingResponse(booking, ""), nil
}

// UpdateApproval records an admin decision on a pending booking.
// Rejection cancels the booking and returns the unit to inventory,
// guarded against double restore.
func (s *bookingService) UpdateApproval(ctx context.Context, adminID, bookingID string, req BookingDecisionRequest) error {
	id, err := uuid.Parse(bookingID)
	if err != nil {
		return fmt.Errorf("invalid booking id: %w", ErrInvalidID)
	}

	var adminUUID *uuid.UUID
	if parsed, parseErr := uuid.Parse(adminID); parseErr == nil {
		adminUUID = &parsed
	}

	var productID uuid.UUID
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		booking, findErr := s.bookingRepo.FindByID(txCtx, id)
		if findErr != nil {
			if errors.Is(findErr, gorm.ErrRecordNotFound) {
				return ErrBookingNotFound
			}
			return fmt.Errorf("failed to fetch booking: %w", findErr)
		}

		if booking.ApprovalStatus != model.ApprovalPending {
			return ErrApprovalDecided
		}

		action := model.ActionApproveBooking
		switch req.Decision {
		case model.ApprovalApproved:
			if updateErr := s.bookingRepo.UpdateApproval(txCtx, id, model.ApprovalApproved, req.Notes); updateErr != nil {
				return fmt.Errorf("failed to update booking approval: %w", updateErr)
			}
		case model.ApprovalRejected:
			action = model.ActionRejectBooking
			flipped, flipErr := s.bookingRepo.TransitionStatus(txCtx, id, model.BookingPending, model.BookingCancelled)
			if flipErr != nil {
				return fmt.Errorf("failed to cancel booking: %w", flipErr)
			}
			if !flipped {
				return ErrBookingFinal
			}
			if updateErr := s.bookingRepo.UpdateApproval(txCtx, id, model.ApprovalRejected, req.Notes); updateErr != nil {
				return fmt.Errorf("failed to update booking approval: %w", updateErr)
			}
			if releaseErr := releaseUnit(txCtx, s.productRepo, s.bookingRepo, booking.ProductID); releaseErr != nil {
				return releaseErr
			}
			productID = booking.ProductID
		default:
			return fmt.Errorf("unknown decision: %s", req.Decision)
		}

		details, _ := json.Marshal(map[string]interface{}{
			"booking_id": id.String(),
			"decision":   req.Decision,
			"notes":      req.Notes,
		})
		audit := &model.AuditLog{
			UserID:   adminUUID,
			Action:   action,
			EntityID: id.String(),
			Details:  string(details),
		}
		if auditErr := s.auditRepo.Log(txCtx, audit); auditErr != nil {
			return fmt.Errorf("failed to write audit log: %w", auditErr)
		}

		return nil
	})

	if err != nil {
		return err
	}

	if productID != uuid.Nil {
		s.hub.Publish(ws.EventProductReleased, map[string]interface{}{
			"product_id": productID.String(),
			"booking_id": bookingID,
		})
	}

	return nil
}

// ExtendExpiration pushes a booking's payment deadline forward
func (s *bookingService) ExtendExpiration(ctx context.Context, adminID, bookingID string, additionalHours int) (time.Time, error) {
	id, err := uuid.Parse(bookingID)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid booking id: %w", ErrInvalidID)
	}

	var adminUUID *uuid.UUID
	if parsed, parseErr := uuid.Parse(adminID); parseErr == nil {
		adminUUID = &parsed
	}

	var newExpiry time.Time
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		booking, findErr := s.bookingRepo.FindByID(txCtx, id)
		if findErr != nil {
			if errors.Is(findErr, gorm.ErrRecordNotFound) {
				return ErrBookingNotFound
			}
			return fmt.Errorf("failed to fetch booking: %w", findErr)
		}

		newExpiry = booking.ExpiresAt.Add(time.Duration(additionalHours) * time.Hour)
		if updateErr := s.bookingRepo.UpdateExpiry(txCtx, id, newExpiry); updateErr != nil {
			return fmt.Errorf("failed to extend booking expiration: %w", updateErr)
		}

		details, _ := json.Marshal(map[string]interface{}{
			"booking_id":       id.String(),
			"additional_hours": additionalHours,
			"new_expiry":       newExpiry,
		})
		audit := &model.AuditLog{
			UserID:   adminUUID,
			Action:   model.ActionExtendBooking,
			EntityID: id.String(),
			Details:  string(details),
		}
		if auditErr := s.auditRepo.Log(txCtx, audit); auditErr != nil {
			return fmt.Errorf("failed to write audit log: %w", auditErr)
		}
		return nil
	})

	if err != nil {
		return time.Time{}, err
	}
	return newExpiry, nil
}

// ExpireDueBookings flips past-due pending bookings to expired and restores
// their stock. Each booking is swept in its own transaction keyed on the
// pending->expired flip, so a booking paid at the same instant is skipped and
// stock is restored at most once.
func (s *bookingService) ExpireDueBookings(ctx context.Context) (int, error) {
	due, err := s.bookingRepo.ListDue(ctx, time.Now())
	if err != nil {
		return 0, fmt.Errorf("failed to list due bookings: %w", err)
	}

	expired := 0
	for _, booking := range due {
		bookingID := booking.ID
		productID := booking.ProductID
		err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
			flipped, flipErr := s.bookingRepo.TransitionStatus(txCtx, bookingID, model.BookingPending, model.BookingExpired)
			if flipErr != nil {
				return fmt.Errorf("failed to expire booking: %w", flipErr)
			}
			if !flipped {
				// Lost the race against a payment, nothing to restore.
				return nil
			}

			if releaseErr := releaseUnit(txCtx, s.productRepo, s.bookingRepo, productID); releaseErr != nil {
				return releaseErr
			}

			details, _ := json.Marshal(map[string]interface{}{
				"booking_id": bookingID.String(),
				"product_id": productID.String(),
			})
			audit := &model.AuditLog{
				Action:   model.ActionExpireBooking,
				EntityID: bookingID.String(),
				Details:  string(details),
			}
			if auditErr := s.auditRepo.Log(txCtx, audit); auditErr != nil {
				return fmt.Errorf("failed to write audit log: %w", auditErr)
			}

			expired++
			return nil
		})
		if err != nil {
			return expired, err
		}

		s.hub.Publish(ws.EventProductReleased, map[string]interface{}{
			"product_id": productID.String(),
			"booking_id": bookingID.String(),
		})
	}

	return expired, nil
}

// GetBookedProduct returns a product together with its most recent pending
// booking, or nil when no reservation is live.
func (s *bookingService) GetBookedProduct(ctx context.Context, productID string) (*BookedProductResponse, error) {
	id, err := uuid.Parse(productID)
	if err != nil {
		return nil, fmt.Errorf("invalid product id: %w", ErrInvalidID)
	}

	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to fetch product: %w", err)
	}

	booking, err := s.bookingRepo.LatestPendingByProduct(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to fetch booking: %w", err)
	}

	return &BookedProductResponse{
		ProductResponse: toProductResponse(product),
		BookedAt:        booking.BookedAt.Format(time.RFC3339),
		ExpiresAt:       booking.ExpiresAt.Format(time.RFC3339),
	}, nil
}

func (s *bookingService) ListBookings(ctx context.Context, filter repository.BookingFilter) ([]BookingResponse, int64, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.Limit <= 0 {
		filter.Limit = 20
	}

	bookings, total, err := s.bookingRepo.List(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list bookings: %w", err)
	}

	res := make([]BookingResponse, 0, len(bookings))
	for _, b := range bookings {
		name := ""
		if b.Product != nil {
			name = b.Product.Name
		}
		res = append(res, toBookingResponse(b, name))
	}
	return res, total, nil
}

// releaseUnit returns one unit of a product to the pool and recomputes its
// status from stock. The product stays "booked" while any other pending
// booking still holds it. Shared by booking rejection, payment rejection and
// the expiry sweep so restore logic exists exactly once.
func releaseUnit(
	txCtx context.Context,
	productRepo repository.ProductRepository,
	bookingRepo repository.BookingRepository,
	productID uuid.UUID,
) error {
	if err := productRepo.IncrementStock(txCtx, productID); err != nil {
		return fmt.Errorf("failed to restore stock: %w", err)
	}

	product, err := productRepo.FindByID(txCtx, productID)
	if err != nil {
		return fmt.Errorf("failed to fetch product after restore: %w", err)
	}

	status := model.StatusForStock(product.Stock)
	pending, err := bookingRepo.CountPendingByProduct(txCtx, productID)
	if err != nil {
		return fmt.Errorf("failed to count pending bookings: %w", err)
	}
	if pending > 0 {
		status = model.ProductBooked
	}

	if err := productRepo.SetStatus(txCtx, productID, status); err != nil {
		return fmt.Errorf("failed to update product status: %w", err)
	}
	return nil
}

func toBookingResponse(b model.Booking, productName string) BookingResponse {
	userID := ""
	if b.UserID != nil {
		userID = b.UserID.String()
	}
	return BookingResponse{
		ID:             b.ID.String(),
		ProductID:      b.ProductID.String(),
		ProductName:    productName,
		UserID:         userID,
		BookedAt:       b.BookedAt.Format(time.RFC3339),
		ExpiresAt:      b.ExpiresAt.Format(time.RFC3339),
		Status:         b.Status,
		ApprovalStatus: b.ApprovalStatus,
		AdminNotes:     b.AdminNotes,
	}
}
