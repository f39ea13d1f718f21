package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Product status constants. Status is always derivable from stock except for
// the transient "booked" override while a pending booking holds the product.
const (
	ProductInStock    = "in-stock"
	ProductLowStock   = "low-stock"
	ProductOutOfStock = "out-of-stock"
	ProductBooked     = "booked"
)

// LowStockThreshold is the stock level at or below which a product is flagged low-stock.
const LowStockThreshold = 5

// Product represents a phone listed in the storefront catalog
type Product struct {
	ID                uuid.UUID        `gorm:"type:uuid;primaryKey" json:"id"`
	Name              string           `gorm:"type:varchar(255);not null" json:"name"`
	Description       string           `gorm:"type:text" json:"description"`
	Price             decimal.Decimal  `gorm:"type:decimal(12,2);not null" json:"price"`
	DiscountedPrice   *decimal.Decimal `gorm:"type:decimal(12,2)" json:"discounted_price"`
	ImageURL          string           `gorm:"type:text" json:"image_url"`
	Category          string           `gorm:"type:varchar(50);default:'mobile'" json:"category"`
	Stock             int              `gorm:"type:int;default:0;not null" json:"stock"`
	Status            string           `gorm:"type:varchar(20);not null;index" json:"status"`
	MaxBookingPerUser int              `gorm:"type:int;default:1;not null" json:"max_booking_per_user"`
	CreatedAt         time.Time        `json:"created_at"`
	UpdatedAt         time.Time        `json:"updated_at"`
	DeletedAt         gorm.DeletedAt   `gorm:"index" json:"-"`
}

func (p *Product) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// StatusForStock derives the catalog status from a stock count.
// The "booked" override is applied by the booking flow, never here.
func StatusForStock(stock int) string {
	switch {
	case stock <= 0:
		return ProductOutOfStock
	case stock <= LowStockThreshold:
		return ProductLowStock
	default:
		return ProductInStock
	}
}

// EffectivePrice returns the discounted price when one is set
func (p *Product) EffectivePrice() decimal.Decimal {
	if p.DiscountedPrice != nil {
		return *p.DiscountedPrice
	}
	return p.Price
}
