package repository

import (
	"context"

	"storefront/internal/model"

	"gorm.io/gorm"
)

// SettingsRepository reads and mutates the system_settings singleton row
type SettingsRepository interface {
	Get(ctx context.Context) (*model.SystemSettings, error)
	Update(ctx context.Context, settings *model.SystemSettings) error
}

type settingsRepository struct {
	db *gorm.DB
}

func NewSettingsRepository(db *gorm.DB) SettingsRepository {
	return &settingsRepository{db: db}
}

func (r *settingsRepository) Get(ctx context.Context) (*model.SystemSettings, error) {
	var settings model.SystemSettings
	if err := GetDB(ctx, r.db).First(&settings).Error; err != nil {
		return nil, err
	}
	return &settings, nil
}

func (r *settingsRepository) Update(ctx context.Context, settings *model.SystemSettings) error {
	return GetDB(ctx, r.db).Save(settings).Error
}
