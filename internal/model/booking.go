package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Booking status constants. Paid, expired and cancelled are terminal.
const (
	BookingPending   = "pending"
	BookingPaid      = "paid"
	BookingExpired   = "expired"
	BookingCancelled = "cancelled"
)

// Admin approval status constants, shared by bookings and order payments
const (
	ApprovalPending  = "pending"
	ApprovalApproved = "approved"
	ApprovalRejected = "rejected"
)

// Booking is a time-limited reservation of one unit of a product.
// UserID is nullable: guest bookings are permitted. Bookings are never deleted.
type Booking struct {
	ID             uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	ProductID      uuid.UUID  `gorm:"type:uuid;not null;index" json:"product_id"`
	Product        *Product   `gorm:"foreignKey:ProductID" json:"product,omitempty"`
	UserID         *uuid.UUID `gorm:"type:uuid;index" json:"user_id"`
	User           *Profile   `gorm:"foreignKey:UserID" json:"user,omitempty"`
	BookedAt       time.Time  `gorm:"autoCreateTime" json:"booked_at"`
	ExpiresAt      time.Time  `gorm:"not null;index" json:"expires_at"`
	Status         string     `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	ApprovalStatus string     `gorm:"type:varchar(20);not null;default:'pending';index" json:"approval_status"`
	AdminNotes     string     `gorm:"type:text" json:"admin_notes,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

func (b *Booking) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

// Expired reports whether the reservation deadline has passed at the given instant
func (b *Booking) Expired(now time.Time) bool {
	return now.After(b.ExpiresAt)
}
