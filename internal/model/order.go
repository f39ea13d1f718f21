package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Order status constants
const (
	OrderPending   = "pending"
	OrderPaid      = "paid"
	OrderShipped   = "shipped"
	OrderDelivered = "delivered"
	OrderCancelled = "cancelled"
)

// Payment method constants
const (
	PaymentOnline       = "online"
	PaymentBankTransfer = "bank_transfer"
)

// Order is created once at payment completion, distinct from the booking that
// preceded it. Bank-transfer orders carry a payment slip awaiting admin review.
type Order struct {
	ID                    uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	BookingID             *uuid.UUID      `gorm:"type:uuid;index" json:"booking_id"`
	Booking               *Booking        `gorm:"foreignKey:BookingID" json:"booking,omitempty"`
	UserID                *uuid.UUID      `gorm:"type:uuid;index" json:"user_id"`
	User                  *Profile        `gorm:"foreignKey:UserID" json:"user,omitempty"`
	TotalAmount           decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"total_amount"`
	Status                string          `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	PaymentMethod         string          `gorm:"type:varchar(20);not null" json:"payment_method"`
	PaymentSlipURL        string          `gorm:"type:text" json:"payment_slip_url,omitempty"`
	PaymentApprovalStatus string          `gorm:"type:varchar(20);not null;default:'pending';index" json:"payment_approval_status"`
	PaymentApprovedAt     *time.Time      `json:"payment_approved_at"`
	ShippingAddress       string          `gorm:"type:text" json:"shipping_address"`
	TrackingNumber        string          `gorm:"type:varchar(100)" json:"tracking_number,omitempty"`
	CreatedAt             time.Time       `json:"created_at"`
	UpdatedAt             time.Time       `json:"updated_at"`
}

func (o *Order) BeforeCreate(tx *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}
