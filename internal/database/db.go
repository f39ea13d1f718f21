package database

import (
	"log"

	"storefront/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// NewConnection initializes a new connection pool using GORM
func NewConnection(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	if err := Migrate(db); err != nil {
		log.Println("WARNING: Failed to auto-migrate models:", err)
	}

	return db, nil
}

// Migrate runs AutoMigrate for the core models and seeds the settings singleton.
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&model.Profile{},
		&model.Product{},
		&model.Booking{},
		&model.Order{},
		&model.Invoice{},
		&model.SystemSettings{},
		&model.AuditLog{},
	)
	if err != nil {
		return err
	}

	return seedSettings(db)
}

// seedSettings inserts the system_settings row if the table is empty
func seedSettings(db *gorm.DB) error {
	var count int64
	if err := db.Model(&model.SystemSettings{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	settings := model.SystemSettings{
		PaymentTimeoutHours:     model.DefaultPaymentTimeoutHours,
		AllowDuplicateBookings:  false,
		DefaultApprovalRequired: true,
	}
	return db.Create(&settings).Error
}
