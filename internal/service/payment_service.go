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
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// --- DTOs ---

type CompletePaymentRequest struct {
	ProductID       string `json:"product_id" binding:"required"`
	PaymentMethod   string `json:"payment_method" binding:"required,oneof=online bank_transfer"`
	ShippingAddress string `json:"shipping_address" binding:"required"`
	PaymentSlipURL  string `json:"payment_slip_url"`
}

type PaymentDecisionRequest struct {
	Decision string `json:"decision" binding:"required,oneof=approved rejected"`
	Notes    string `json:"notes"`
}

type UpdateOrderStatusRequest struct {
	Status         string `json:"status" binding:"required,oneof=pending paid shipped delivered cancelled"`
	TrackingNumber string `json:"tracking_number"`
}

type OrderResponse struct {
	ID                    string          `json:"id"`
	BookingID             string          `json:"booking_id,omitempty"`
	UserID                string          `json:"user_id,omitempty"`
	ProductName           string          `json:"product_name,omitempty"`
	TotalAmount           decimal.Decimal `json:"total_amount"`
	Status                string          `json:"status"`
	PaymentMethod         string          `json:"payment_method"`
	PaymentSlipURL        string          `json:"payment_slip_url,omitempty"`
	PaymentApprovalStatus string          `json:"payment_approval_status"`
	ShippingAddress       string          `json:"shipping_address"`
	TrackingNumber        string          `json:"tracking_number,omitempty"`
	CreatedAt             string          `json:"created_at"`
}

// --- Interface ---

type PaymentService interface {
	CompletePayment(ctx context.Context, req CompletePaymentRequest) (OrderResponse, error)
	UpdatePaymentApproval(ctx context.Context, adminID, orderID string, req PaymentDecisionRequest) error
	UpdateOrderStatus(ctx context.Context, adminID, orderID string, req UpdateOrderStatusRequest) error
	GetOrder(ctx context.Context, orderID string) (OrderResponse, error)
	ListOrders(ctx context.Context, page, limit int) ([]OrderResponse, int64, error)
	ListUserOrders(ctx context.Context, userID string, page, limit int) ([]OrderResponse, int64, error)
}

type paymentService struct {
	productRepo repository.ProductRepository
	bookingRepo repository.BookingRepository
	orderRepo   repository.OrderRepository
	auditRepo   repository.AuditRepository
	txManager   repository.TransactionManager
	hub         *ws.Hub
}

func NewPaymentService(
	productRepo repository.ProductRepository,
	bookingRepo repository.BookingRepository,
	orderRepo repository.OrderRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	hub *ws.Hub,
) PaymentService {
	return &paymentService{
		productRepo: productRepo,
		bookingRepo: bookingRepo,
		orderRepo:   orderRepo,
		auditRepo:   auditRepo,
		txManager:   txManager,
		hub:         hub,
	}
}

// CompletePayment converts the most recent pending booking of a product into
// an order. Online payment settles immediately; bank transfer leaves both the
// booking and the order awaiting manual slip review.
func (s *paymentService) CompletePayment(ctx context.Context, req CompletePaymentRequest) (OrderResponse, error) {
	productID, err := uuid.Parse(req.ProductID)
	if err != nil {
		return OrderResponse{}, fmt.Errorf("invalid product id: %w", ErrInvalidID)
	}

	var order model.Order
	var productName string
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		booking, findErr := s.bookingRepo.LatestPendingByProduct(txCtx, productID)
		if findErr != nil {
			if errors.Is(findErr, gorm.ErrRecordNotFound) {
				return ErrBookingNotFound
			}
			return fmt.Errorf("failed to fetch booking: %w", findErr)
		}

		if booking.Expired(time.Now()) {
			return ErrBookingExpired
		}
		if booking.ApprovalStatus != model.ApprovalApproved {
			return ErrBookingNotApproved
		}

		orderStatus := model.OrderPending
		paymentApproval := model.ApprovalPending
		var approvedAt *time.Time

		if req.PaymentMethod == model.PaymentOnline {
			// Idealized synchronous gateway: the charge settles here.
			flipped, flipErr := s.bookingRepo.TransitionStatus(txCtx, booking.ID, model.BookingPending, model.BookingPaid)
			if flipErr != nil {
				return fmt.Errorf("failed to update booking status: %w", flipErr)
			}
			if !flipped {
				return ErrBookingFinal
			}
			now := time.Now()
			orderStatus = model.OrderPaid
			paymentApproval = model.ApprovalApproved
			approvedAt = &now
		}

		total := decimal.Zero
		if booking.Product != nil {
			total = booking.Product.EffectivePrice()
			productName = booking.Product.Name
		}

		bookingID := booking.ID
		order = model.Order{
			BookingID:             &bookingID,
			UserID:                booking.UserID,
			TotalAmount:           total,
			Status:                orderStatus,
			PaymentMethod:         req.PaymentMethod,
			PaymentSlipURL:        req.PaymentSlipURL,
			PaymentApprovalStatus: paymentApproval,
			PaymentApprovedAt:     approvedAt,
			ShippingAddress:       req.ShippingAddress,
		}
		if createErr := s.orderRepo.Create(txCtx, &order); createErr != nil {
			return fmt.Errorf("failed to create order: %w", createErr)
		}

		details, _ := json.Marshal(map[string]interface{}{
			"order_id":       order.ID.String(),
			"booking_id":     bookingID.String(),
			"payment_method": req.PaymentMethod,
			"total_amount":   total,
		})
		audit := &model.AuditLog{
			UserID:     booking.UserID,
			Action:     model.ActionCompletePayment,
			EntityID:   order.ID.String(),
			EntityName: productName,
			Details:    string(details),
		}
		if auditErr := s.auditRepo.Log(txCtx, audit); auditErr != nil {
			return fmt.Errorf("failed to write audit log: %w", auditErr)
		}

		return nil
	})

	if err != nil {
		return OrderResponse{}, err
	}

	return toOrderResponse(order, productName), nil
}

// UpdatePaymentApproval records the admin review of a bank-transfer slip.
// Rejection cancels the linked booking and returns the unit to inventory,
// mirroring booking rejection through the same release path.
func (s *paymentService) UpdatePaymentApproval(ctx context.Context, adminID, orderID string, req PaymentDecisionRequest) error {
	id, err := uuid.Parse(orderID)
	if err != nil {
		return fmt.Errorf("invalid order id: %w", ErrInvalidID)
	}

	var adminUUID *uuid.UUID
	if parsed, parseErr := uuid.Parse(adminID); parseErr == nil {
		adminUUID = &parsed
	}

	var releasedProduct uuid.UUID
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		order, findErr := s.orderRepo.FindByID(txCtx, id)
		if findErr != nil {
			if errors.Is(findErr, gorm.ErrRecordNotFound) {
				return ErrOrderNotFound
			}
			return fmt.Errorf("failed to fetch order: %w", findErr)
		}

		if order.PaymentApprovalStatus != model.ApprovalPending {
			return ErrPaymentDecided
		}

		action := model.ActionApprovePayment
		switch req.Decision {
		case model.ApprovalApproved:
			now := time.Now()
			fields := map[string]interface{}{
				"status":                  model.OrderPaid,
				"payment_approval_status": model.ApprovalApproved,
				"payment_approved_at":     now,
			}
			if updateErr := s.orderRepo.UpdateFields(txCtx, id, fields); updateErr != nil {
				return fmt.Errorf("failed to update order: %w", updateErr)
			}
			if order.BookingID != nil {
				flipped, flipErr := s.bookingRepo.TransitionStatus(txCtx, *order.BookingID, model.BookingPending, model.BookingPaid)
				if flipErr != nil {
					return fmt.Errorf("failed to update booking status: %w", flipErr)
				}
				// the sweep may have expired the booking and resold its unit
				if !flipped {
					return ErrBookingFinal
				}
			}
		case model.ApprovalRejected:
			action = model.ActionRejectPayment
			fields := map[string]interface{}{
				"status":                  model.OrderCancelled,
				"payment_approval_status": model.ApprovalRejected,
			}
			if updateErr := s.orderRepo.UpdateFields(txCtx, id, fields); updateErr != nil {
				return fmt.Errorf("failed to update order: %w", updateErr)
			}
			if order.BookingID != nil {
				booking, bookingErr := s.bookingRepo.FindByID(txCtx, *order.BookingID)
				if bookingErr != nil {
					return fmt.Errorf("failed to fetch booking: %w", bookingErr)
				}
				flipped, flipErr := s.bookingRepo.TransitionStatus(txCtx, booking.ID, model.BookingPending, model.BookingCancelled)
				if flipErr != nil {
					return fmt.Errorf("failed to cancel booking: %w", flipErr)
				}
				if flipped {
					if notesErr := s.bookingRepo.UpdateNotes(txCtx, booking.ID, req.Notes); notesErr != nil {
						return fmt.Errorf("failed to update booking notes: %w", notesErr)
					}
					if releaseErr := releaseUnit(txCtx, s.productRepo, s.bookingRepo, booking.ProductID); releaseErr != nil {
						return releaseErr
					}
					releasedProduct = booking.ProductID
				}
			}
		default:
			return fmt.Errorf("unknown decision: %s", req.Decision)
		}

		details, _ := json.Marshal(map[string]interface{}{
			"order_id": id.String(),
			"decision": req.Decision,
			"notes":    req.Notes,
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

	if releasedProduct != uuid.Nil {
		s.hub.Publish(ws.EventProductReleased, map[string]interface{}{
			"product_id": releasedProduct.String(),
			"order_id":   orderID,
		})
	}

	return nil
}

// UpdateOrderStatus lets an admin move an order along the fulfilment states
func (s *paymentService) UpdateOrderStatus(ctx context.Context, adminID, orderID string, req UpdateOrderStatusRequest) error {
	id, err := uuid.Parse(orderID)
	if err != nil {
		return fmt.Errorf("invalid order id: %w", ErrInvalidID)
	}

	var adminUUID *uuid.UUID
	if parsed, parseErr := uuid.Parse(adminID); parseErr == nil {
		adminUUID = &parsed
	}

	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if _, findErr := s.orderRepo.FindByID(txCtx, id); findErr != nil {
			if errors.Is(findErr, gorm.ErrRecordNotFound) {
				return ErrOrderNotFound
			}
			return fmt.Errorf("failed to fetch order: %w", findErr)
		}

		fields := map[string]interface{}{"status": req.Status}
		if req.TrackingNumber != "" {
			fields["tracking_number"] = req.TrackingNumber
		}
		if updateErr := s.orderRepo.UpdateFields(txCtx, id, fields); updateErr != nil {
			return fmt.Errorf("failed to update order status: %w", updateErr)
		}

		details, _ := json.Marshal(map[string]interface{}{
			"order_id":        id.String(),
			"status":          req.Status,
			"tracking_number": req.TrackingNumber,
		})
		audit := &model.AuditLog{
			UserID:   adminUUID,
			Action:   model.ActionUpdateOrderStatus,
			EntityID: id.String(),
			Details:  string(details),
		}
		if auditErr := s.auditRepo.Log(txCtx, audit); auditErr != nil {
			return fmt.Errorf("failed to write audit log: %w", auditErr)
		}
		return nil
	})
}

func (s *paymentService) GetOrder(ctx context.Context, orderID string) (OrderResponse, error) {
	id, err := uuid.Parse(orderID)
	if err != nil {
		return OrderResponse{}, fmt.Errorf("invalid order id: %w", ErrInvalidID)
	}

	order, err := s.orderRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return OrderResponse{}, ErrOrderNotFound
		}
		return OrderResponse{}, fmt.Errorf("failed to fetch order: %w", err)
	}

	return toOrderResponse(*order, orderProductName(order)), nil
}

func (s *paymentService) ListOrders(ctx context.Context, page, limit int) ([]OrderResponse, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}

	orders, total, err := s.orderRepo.List(ctx, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list orders: %w", err)
	}

	return mapOrders(orders), total, nil
}

func (s *paymentService) ListUserOrders(ctx context.Context, userID string, page, limit int) ([]OrderResponse, int64, error) {
	uid, err := uuid.Parse(userID)
	if err != nil {
		return nil, 0, fmt.Errorf("invalid user id: %w", ErrInvalidID)
	}
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}

	orders, total, err := s.orderRepo.ListByUser(ctx, uid, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list orders: %w", err)
	}

	return mapOrders(orders), total, nil
}

func mapOrders(orders []model.Order) []OrderResponse {
	res := make([]OrderResponse, 0, len(orders))
	for i := range orders {
		res = append(res, toOrderResponse(orders[i], orderProductName(&orders[i])))
	}
	return res
}

func orderProductName(order *model.Order) string {
	if order.Booking != nil && order.Booking.Product != nil {
		return order.Booking.Product.Name
	}
	return ""
}

func toOrderResponse(o model.Order, productName string) OrderResponse {
	bookingID := ""
	if o.BookingID != nil {
		bookingID = o.BookingID.String()
	}
	userID := ""
	if o.UserID != nil {
		userID = o.UserID.String()
	}
	return OrderResponse{
		ID:                    o.ID.String(),
		BookingID:             bookingID,
		UserID:                userID,
		ProductName:           productName,
		TotalAmount:           o.TotalAmount,
		Status:                o.Status,
		PaymentMethod:         o.PaymentMethod,
		PaymentSlipURL:        o.PaymentSlipURL,
		PaymentApprovalStatus: o.PaymentApprovalStatus,
		ShippingAddress:       o.ShippingAddress,
		TrackingNumber:        o.TrackingNumber,
		CreatedAt:             o.CreatedAt.Format(time.RFC3339),
	}
}
