package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Default settings seeded when the table is empty
const (
	DefaultPaymentTimeoutHours = 48
	DefaultMaxBookingPerUser   = 1
)

// SystemSettings is a singleton row read by booking creation and mutated only
// by the admin settings endpoint.
type SystemSettings struct {
	ID                      uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	PaymentTimeoutHours     int       `gorm:"type:int;not null;default:48" json:"payment_timeout_hours"`
	AllowDuplicateBookings  bool      `gorm:"default:false" json:"allow_duplicate_bookings"`
	DefaultApprovalRequired bool      `gorm:"default:true" json:"default_approval_required"`
	UpdatedAt               time.Time `json:"updated_at"`
}

func (SystemSettings) TableName() string { return "system_settings" }

func (s *SystemSettings) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}
