package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"storefront/internal/model"
	"storefront/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Invoices fall due two weeks after issue
const invoiceDueDays = 14

type InvoiceResponse struct {
	ID            string          `json:"id"`
	OrderID       string          `json:"order_id"`
	InvoiceNumber string          `json:"invoice_number"`
	InvoiceDate   string          `json:"invoice_date"`
	DueDate       string          `json:"due_date"`
	Subtotal      decimal.Decimal `json:"subtotal"`
	Tax           decimal.Decimal `json:"tax"`
	Total         decimal.Decimal `json:"total"`
	Status        string          `json:"status"`
	Notes         string          `json:"notes,omitempty"`
	ProductName   string          `json:"product_name,omitempty"`
}

type InvoiceService interface {
	CreateForOrder(ctx context.Context, orderID string) (InvoiceResponse, error)
	GetByOrderID(ctx context.Context, orderID string) (InvoiceResponse, error)
	ListUserInvoices(ctx context.Context, userID string) ([]InvoiceResponse, error)
}

type invoiceService struct {
	orderRepo   repository.OrderRepository
	invoiceRepo repository.InvoiceRepository
	auditRepo   repository.AuditRepository
	txManager   repository.TransactionManager
}

func NewInvoiceService(
	orderRepo repository.OrderRepository,
	invoiceRepo repository.InvoiceRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
) InvoiceService {
	return &invoiceService{
		orderRepo:   orderRepo,
		invoiceRepo: invoiceRepo,
		auditRepo:   auditRepo,
		txManager:   txManager,
	}
}

// CreateForOrder generates an invoice for an order. Idempotent: an existing
// invoice for the order is returned as-is.
func (s *invoiceService) CreateForOrder(ctx context.Context, orderID string) (InvoiceResponse, error) {
	id, err := uuid.Parse(orderID)
	if err != nil {
		return InvoiceResponse{}, fmt.Errorf("invalid order id: %w", ErrInvalidID)
	}

	if existing, findErr := s.invoiceRepo.FindByOrderID(ctx, id); findErr == nil {
		return toInvoiceResponse(existing), nil
	} else if !errors.Is(findErr, gorm.ErrRecordNotFound) {
		return InvoiceResponse{}, fmt.Errorf("failed to check existing invoice: %w", findErr)
	}

	order, err := s.orderRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return InvoiceResponse{}, ErrOrderNotFound
		}
		return InvoiceResponse{}, fmt.Errorf("failed to fetch order: %w", err)
	}

	now := time.Now()
	status := model.InvoiceUnpaid
	if order.Status == model.OrderPaid {
		status = model.InvoicePaid
	}

	invoice := model.Invoice{
		OrderID:       id,
		InvoiceNumber: generateInvoiceNumber(now),
		InvoiceDate:   now,
		DueDate:       now.AddDate(0, 0, invoiceDueDays),
		Subtotal:      order.TotalAmount,
		Tax:           decimal.Zero,
		Total:         order.TotalAmount,
		Status:        status,
		Notes:         fmt.Sprintf("Invoice for order %s", id),
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if createErr := s.invoiceRepo.Create(txCtx, &invoice); createErr != nil {
			return fmt.Errorf("failed to create invoice: %w", createErr)
		}

		audit := &model.AuditLog{
			UserID:     order.UserID,
			Action:     model.ActionCreateInvoice,
			EntityID:   invoice.ID.String(),
			EntityName: invoice.InvoiceNumber,
			Details:    fmt.Sprintf(`{"order_id": %q}`, id),
		}
		if auditErr := s.auditRepo.Log(txCtx, audit); auditErr != nil {
			return fmt.Errorf("failed to write audit log: %w", auditErr)
		}
		return nil
	})

	if err != nil {
		return InvoiceResponse{}, err
	}
	return toInvoiceResponse(&invoice), nil
}

func (s *invoiceService) GetByOrderID(ctx context.Context, orderID string) (InvoiceResponse, error) {
	id, err := uuid.Parse(orderID)
	if err != nil {
		return InvoiceResponse{}, fmt.Errorf("invalid order id: %w", ErrInvalidID)
	}

	invoice, err := s.invoiceRepo.FindByOrderID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return InvoiceResponse{}, errors.New("invoice not found")
		}
		return InvoiceResponse{}, fmt.Errorf("failed to fetch invoice: %w", err)
	}

	return toInvoiceResponse(invoice), nil
}

func (s *invoiceService) ListUserInvoices(ctx context.Context, userID string) ([]InvoiceResponse, error) {
	uid, err := uuid.Parse(userID)
	if err != nil {
		return nil, fmt.Errorf("invalid user id: %w", ErrInvalidID)
	}

	invoices, err := s.invoiceRepo.ListByUser(ctx, uid)
	if err != nil {
		return nil, fmt.Errorf("failed to list invoices: %w", err)
	}

	res := make([]InvoiceResponse, 0, len(invoices))
	for i := range invoices {
		res = append(res, toInvoiceResponse(&invoices[i]))
	}
	return res, nil
}

// generateInvoiceNumber derives INV-YYMM-NNNN from the issue time plus a
// random four digit suffix
func generateInvoiceNumber(now time.Time) string {
	return fmt.Sprintf("INV-%02d%02d-%04d", now.Year()%100, int(now.Month()), rand.Intn(10000))
}

func toInvoiceResponse(inv *model.Invoice) InvoiceResponse {
	productName := ""
	if inv.Order != nil && inv.Order.Booking != nil && inv.Order.Booking.Product != nil {
		productName = inv.Order.Booking.Product.Name
	}
	return InvoiceResponse{
		ID:            inv.ID.String(),
		OrderID:       inv.OrderID.String(),
		InvoiceNumber: inv.InvoiceNumber,
		InvoiceDate:   inv.InvoiceDate.Format(time.RFC3339),
		DueDate:       inv.DueDate.Format(time.RFC3339),
		Subtotal:      inv.Subtotal,
		Tax:           inv.Tax,
		Total:         inv.Total,
		Status:        inv.Status,
		Notes:         inv.Notes,
		ProductName:   productName,
	}
}
