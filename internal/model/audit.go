package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	ActionCreateProduct  = "CREATE_PRODUCT"
	ActionUpdateProduct  = "UPDATE_PRODUCT"
	ActionDeleteProduct  = "DELETE_PRODUCT"
	ActionBulkUpload     = "BULK_UPLOAD_PRODUCTS"
	ActionCreateBooking  = "CREATE_BOOKING"
	ActionApproveBooking = "APPROVE_BOOKING"
	ActionRejectBooking  = "REJECT_BOOKING"
	ActionExtendBooking  = "EXTEND_BOOKING"
	ActionExpireBooking  = "EXPIRE_BOOKING"

	// Payment / order actions
	ActionCompletePayment   = "COMPLETE_PAYMENT"
	ActionApprovePayment    = "APPROVE_PAYMENT"
	ActionRejectPayment     = "REJECT_PAYMENT"
	ActionUpdateOrderStatus = "UPDATE_ORDER_STATUS"
	ActionCreateInvoice     = "CREATE_INVOICE"

	ActionCreateUser     = "CREATE_USER"
	ActionUpdateUser     = "UPDATE_USER"
	ActionUpdateSettings = "UPDATE_SETTINGS"
)

// AuditLog tracks who did what and when for every mutation of the store
type AuditLog struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID     *uuid.UUID `gorm:"type:uuid;index" json:"user_id"` // nil for guest actions and the sweeper
	User       *Profile   `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Action     string     `gorm:"type:varchar(50);not null;index" json:"action"`
	EntityID   string     `gorm:"type:varchar(50);index" json:"entity_id"`
	EntityName string     `gorm:"type:varchar(255)" json:"entity_name,omitempty"`
	Details    string     `gorm:"type:text" json:"details"` // serialized JSON payload of the action
	CreatedAt  time.Time  `gorm:"index" json:"created_at"`
}

func (a *AuditLog) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
