package repository

import (
	"context"
	"time"

	"storefront/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BookingFilter narrows admin booking listings
type BookingFilter struct {
	Status         string
	ApprovalStatus string
	Page           int
	Limit          int
}

type BookingRepository interface {
	Create(ctx context.Context, booking *model.Booking) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Booking, error)
	LatestPendingByProduct(ctx context.Context, productID uuid.UUID) (*model.Booking, error)
	HasPendingByUser(ctx context.Context, userID uuid.UUID) (bool, error)
	CountActiveByProductAndUser(ctx context.Context, productID, userID uuid.UUID) (int64, error)
	CountByProduct(ctx context.Context, productID uuid.UUID) (int64, error)
	CountPendingByProduct(ctx context.Context, productID uuid.UUID) (int64, error)
	CountByStatus(ctx context.Context, status string) (int64, error)
	ListDue(ctx context.Context, now time.Time) ([]model.Booking, error)
	List(ctx context.Context, filter BookingFilter) ([]model.Booking, int64, error)
	TransitionStatus(ctx context.Context, id uuid.UUID, from, to string) (bool, error)
	UpdateApproval(ctx context.Context, id uuid.UUID, approvalStatus, notes string) error
	UpdateExpiry(ctx context.Context, id uuid.UUID, expiresAt time.Time) error
	UpdateNotes(ctx context.Context, id uuid.UUID, notes string) error
}

type bookingRepository struct {
	db *gorm.DB
}

func NewBookingRepository(db *gorm.DB) BookingRepository {
	return &bookingRepository{db: db}
}

func (r *bookingRepository) Create(ctx context.Context, booking *model.Booking) error {
	return GetDB(ctx, r.db).Create(booking).Error
}

func (r *bookingRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Booking, error) {
	var booking model.Booking
	if err := GetDB(ctx, r.db).Preload("Product").First(&booking, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &booking, nil
}

func (r *bookingRepository) LatestPendingByProduct(ctx context.Context, productID uuid.UUID) (*model.Booking, error) {
	var booking model.Booking
	err := GetDB(ctx, r.db).Preload("Product").
		Where("product_id = ? AND status = ?", productID, model.BookingPending).
		Order("created_at desc").
		First(&booking).Error
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

func (r *bookingRepository) HasPendingByUser(ctx context.Context, userID uuid.UUID) (bool, error) {
	var count int64
	err := GetDB(ctx, r.db).Model(&model.Booking{}).
		Where("user_id = ? AND status = ?", userID, model.BookingPending).
		Count(&count).Error
	return count > 0, err
}

// CountActiveByProductAndUser counts a user's non-cancelled bookings for a
// product, used against max_booking_per_user.
func (r *bookingRepository) CountActiveByProductAndUser(ctx context.Context, productID, userID uuid.UUID) (int64, error) {
	var count int64
	err := GetDB(ctx, r.db).Model(&model.Booking{}).
		Where("product_id = ? AND user_id = ? AND status <> ?", productID, userID, model.BookingCancelled).
		Count(&count).Error
	return count, err
}

func (r *bookingRepository) CountByProduct(ctx context.Context, productID uuid.UUID) (int64, error) {
	var count int64
	err := GetDB(ctx, r.db).Model(&model.Booking{}).
		Where("product_id = ?", productID).
		Count(&count).Error
	return count, err
}

func (r *bookingRepository) CountPendingByProduct(ctx context.Context, productID uuid.UUID) (int64, error) {
	var count int64
	err := GetDB(ctx, r.db).Model(&model.Booking{}).
		Where("product_id = ? AND status = ?", productID, model.BookingPending).
		Count(&count).Error
	return count, err
}

func (r *bookingRepository) CountByStatus(ctx context.Context, status string) (int64, error) {
	var count int64
	err := GetDB(ctx, r.db).Model(&model.Booking{}).
		Where("status = ?", status).
		Count(&count).Error
	return count, err
}

func (r *bookingRepository) ListDue(ctx context.Context, now time.Time) ([]model.Booking, error) {
	var bookings []model.Booking
	err := GetDB(ctx, r.db).
		Where("status = ? AND expires_at < ?", model.BookingPending, now).
		Find(&bookings).Error
	return bookings, err
}

func (r *bookingRepository) List(ctx context.Context, filter BookingFilter) ([]model.Booking, int64, error) {
	var bookings []model.Booking
	var total int64

	db := GetDB(ctx, r.db).Model(&model.Booking{})
	if filter.Status != "" {
		db = db.Where("status = ?", filter.Status)
	}
	if filter.ApprovalStatus != "" {
		db = db.Where("approval_status = ?", filter.ApprovalStatus)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (filter.Page - 1) * filter.Limit
	if err := db.Preload("Product").Preload("User").
		Order("created_at desc").Offset(offset).Limit(filter.Limit).
		Find(&bookings).Error; err != nil {
		return nil, 0, err
	}

	return bookings, total, nil
}

// TransitionStatus flips the booking status only if it still holds the expected
// one. The affected-row count makes the pending->paid and pending->expired
// races lose cleanly: whoever commits second sees zero rows.
func (r *bookingRepository) TransitionStatus(ctx context.Context, id uuid.UUID, from, to string) (bool, error) {
	res := GetDB(ctx, r.db).Model(&model.Booking{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *bookingRepository) UpdateApproval(ctx context.Context, id uuid.UUID, approvalStatus, notes string) error {
	return GetDB(ctx, r.db).Model(&model.Booking{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"approval_status": approvalStatus,
			"admin_notes":     notes,
		}).Error
}

func (r *bookingRepository) UpdateExpiry(ctx context.Context, id uuid.UUID, expiresAt time.Time) error {
	return GetDB(ctx, r.db).Model(&model.Booking{}).
		Where("id = ?", id).
		Update("expires_at", expiresAt).Error
}

func (r *bookingRepository) UpdateNotes(ctx context.Context, id uuid.UUID, notes string) error {
	return GetDB(ctx, r.db).Model(&model.Booking{}).
		Where("id = ?", id).
		Update("admin_notes", notes).Error
}
