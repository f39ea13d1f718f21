package service

import (
	"context"
	"fmt"

	"storefront/internal/model"
	"storefront/internal/repository"
)

const recentItemsLimit = 5

type DashboardRecentOrder struct {
	ID            string  `json:"id"`
	CustomerEmail string  `json:"customer_email"`
	ProductName   string  `json:"product_name"`
	TotalAmount   float64 `json:"total_amount"`
	Status        string  `json:"status"`
	CreatedAt     string  `json:"created_at"`
}

type DashboardRecentProduct struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Stock     int    `json:"stock"`
	Status    string `json:"status"`
	CreatedAt string `json:"created_at"`
}

// DashboardStats aggregates the headline numbers of the admin landing page
type DashboardStats struct {
	TotalProducts   int64                    `json:"total_products"`
	TotalUsers      int64                    `json:"total_users"`
	TotalOrders     int64                    `json:"total_orders"`
	PendingBookings int64                    `json:"pending_bookings"`
	TotalRevenue    float64                  `json:"total_revenue"`
	RecentOrders    []DashboardRecentOrder   `json:"recent_orders"`
	RecentProducts  []DashboardRecentProduct `json:"recent_products"`
}

type StatsService interface {
	GetDashboardStats(ctx context.Context) (*DashboardStats, error)
}

type statsService struct {
	productRepo repository.ProductRepository
	bookingRepo repository.BookingRepository
	orderRepo   repository.OrderRepository
	profileRepo repository.ProfileRepository
}

func NewStatsService(
	productRepo repository.ProductRepository,
	bookingRepo repository.BookingRepository,
	orderRepo repository.OrderRepository,
	profileRepo repository.ProfileRepository,
) StatsService {
	return &statsService{
		productRepo: productRepo,
		bookingRepo: bookingRepo,
		orderRepo:   orderRepo,
		profileRepo: profileRepo,
	}
}

func (s *statsService) GetDashboardStats(ctx context.Context) (*DashboardStats, error) {
	stats := &DashboardStats{}

	var err error
	if stats.TotalProducts, err = s.productRepo.Count(ctx); err != nil {
		return nil, fmt.Errorf("failed to count products: %w", err)
	}
	if stats.TotalUsers, err = s.profileRepo.Count(ctx); err != nil {
		return nil, fmt.Errorf("failed to count users: %w", err)
	}
	if stats.TotalOrders, err = s.orderRepo.Count(ctx); err != nil {
		return nil, fmt.Errorf("failed to count orders: %w", err)
	}
	if stats.PendingBookings, err = s.bookingRepo.CountByStatus(ctx, model.BookingPending); err != nil {
		return nil, fmt.Errorf("failed to count pending bookings: %w", err)
	}
	if stats.TotalRevenue, err = s.orderRepo.SumPaidAmount(ctx); err != nil {
		return nil, fmt.Errorf("failed to sum revenue: %w", err)
	}

	orders, err := s.orderRepo.ListRecent(ctx, recentItemsLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to list recent orders: %w", err)
	}
	stats.RecentOrders = make([]DashboardRecentOrder, 0, len(orders))
	for i := range orders {
		o := &orders[i]
		email := ""
		if o.User != nil {
			email = o.User.Email
		}
		amount, _ := o.TotalAmount.Float64()
		stats.RecentOrders = append(stats.RecentOrders, DashboardRecentOrder{
			ID:            o.ID.String(),
			CustomerEmail: email,
			ProductName:   orderProductName(o),
			TotalAmount:   amount,
			Status:        o.Status,
			CreatedAt:     o.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		})
	}

	products, err := s.productRepo.ListRecent(ctx, recentItemsLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to list recent products: %w", err)
	}
	stats.RecentProducts = make([]DashboardRecentProduct, 0, len(products))
	for i := range products {
		p := &products[i]
		stats.RecentProducts = append(stats.RecentProducts, DashboardRecentProduct{
			ID:        p.ID.String(),
			Name:      p.Name,
			Stock:     p.Stock,
			Status:    p.Status,
			CreatedAt: p.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		})
	}

	return stats, nil
}
