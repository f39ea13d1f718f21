package service

import (
	"context"
	"errors"
	"fmt"

	"storefront/internal/model"
	"storefront/internal/repository"

	"github.com/google/uuid"
)

type UpdateSettingsRequest struct {
	PaymentTimeoutHours     *int  `json:"payment_timeout_hours" binding:"omitempty,min=1,max=720"`
	AllowDuplicateBookings  *bool `json:"allow_duplicate_bookings"`
	DefaultApprovalRequired *bool `json:"default_approval_required"`
}

type SettingsResponse struct {
	PaymentTimeoutHours     int    `json:"payment_timeout_hours"`
	AllowDuplicateBookings  bool   `json:"allow_duplicate_bookings"`
	DefaultApprovalRequired bool   `json:"default_approval_required"`
	UpdatedAt               string `json:"updated_at"`
}

// SettingsService reads and mutates the storewide settings singleton
type SettingsService interface {
	GetSettings(ctx context.Context) (*SettingsResponse, error)
	UpdateSettings(ctx context.Context, actorID *uuid.UUID, req UpdateSettingsRequest) (*SettingsResponse, error)
}

type settingsService struct {
	repo      repository.SettingsRepository
	auditRepo repository.AuditRepository
	txManager repository.TransactionManager
}

func NewSettingsService(repo repository.SettingsRepository, auditRepo repository.AuditRepository, txManager repository.TransactionManager) SettingsService {
	return &settingsService{repo: repo, auditRepo: auditRepo, txManager: txManager}
}

func toSettingsResponse(s *model.SystemSettings) *SettingsResponse {
	return &SettingsResponse{
		PaymentTimeoutHours:     s.PaymentTimeoutHours,
		AllowDuplicateBookings:  s.AllowDuplicateBookings,
		DefaultApprovalRequired: s.DefaultApprovalRequired,
		UpdatedAt:               s.UpdatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}

func (s *settingsService) GetSettings(ctx context.Context) (*SettingsResponse, error) {
	settings, err := s.repo.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}
	return toSettingsResponse(settings), nil
}

func (s *settingsService) UpdateSettings(ctx context.Context, actorID *uuid.UUID, req UpdateSettingsRequest) (*SettingsResponse, error) {
	if req.PaymentTimeoutHours == nil && req.AllowDuplicateBookings == nil && req.DefaultApprovalRequired == nil {
		return nil, errors.New("no settings fields provided")
	}

	var updated *model.SystemSettings
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		settings, err := s.repo.Get(txCtx)
		if err != nil {
			return fmt.Errorf("failed to load settings: %w", err)
		}

		if req.PaymentTimeoutHours != nil {
			settings.PaymentTimeoutHours = *req.PaymentTimeoutHours
		}
		if req.AllowDuplicateBookings != nil {
			settings.AllowDuplicateBookings = *req.AllowDuplicateBookings
		}
		if req.DefaultApprovalRequired != nil {
			settings.DefaultApprovalRequired = *req.DefaultApprovalRequired
		}

		if err := s.repo.Update(txCtx, settings); err != nil {
			return fmt.Errorf("failed to update settings: %w", err)
		}

		audit := &model.AuditLog{
			UserID:     actorID,
			Action:     model.ActionUpdateSettings,
			EntityID:   settings.ID.String(),
			EntityName: "system_settings",
			Details: fmt.Sprintf(`{"payment_timeout_hours": %d, "allow_duplicate_bookings": %t, "default_approval_required": %t}`,
				settings.PaymentTimeoutHours, settings.AllowDuplicateBookings, settings.DefaultApprovalRequired),
		}
		if err := s.auditRepo.Log(txCtx, audit); err != nil {
			return fmt.Errorf("failed to write audit log: %w", err)
		}

		updated = settings
		return nil
	})
	if err != nil {
		return nil, err
	}
	return toSettingsResponse(updated), nil
}
