package repository

import (
	"context"

	"storefront/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type InvoiceRepository interface {
	Create(ctx context.Context, invoice *model.Invoice) error
	FindByOrderID(ctx context.Context, orderID uuid.UUID) (*model.Invoice, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]model.Invoice, error)
}

type invoiceRepository struct {
	db *gorm.DB
}

func NewInvoiceRepository(db *gorm.DB) InvoiceRepository {
	return &invoiceRepository{db: db}
}

func (r *invoiceRepository) Create(ctx context.Context, invoice *model.Invoice) error {
	return GetDB(ctx, r.db).Create(invoice).Error
}

func (r *invoiceRepository) FindByOrderID(ctx context.Context, orderID uuid.UUID) (*model.Invoice, error) {
	var invoice model.Invoice
	err := GetDB(ctx, r.db).
		Preload("Order").
		Preload("Order.Booking").
		Preload("Order.Booking.Product").
		First(&invoice, "order_id = ?", orderID).Error
	if err != nil {
		return nil, err
	}
	return &invoice, nil
}

func (r *invoiceRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]model.Invoice, error) {
	var invoices []model.Invoice
	err := GetDB(ctx, r.db).
		Joins("JOIN orders ON orders.id = invoices.order_id").
		Where("orders.user_id = ?", userID).
		Preload("Order").
		Preload("Order.Booking").
		Preload("Order.Booking.Product").
		Order("invoices.created_at desc").
		Find(&invoices).Error
	return invoices, err
}
