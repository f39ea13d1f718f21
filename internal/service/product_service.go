package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"storefront/internal/model"
	"storefront/internal/repository"
	ws "storefront/internal/websocket"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// --- DTOs ---

type CreateProductRequest struct {
	Name              string  `json:"name" binding:"required"`
	Description       string  `json:"description"`
	Price             float64 `json:"price" binding:"required,gt=0"`
	DiscountedPrice   float64 `json:"discounted_price" binding:"omitempty,gt=0"`
	ImageURL          string  `json:"image_url"`
	Category          string  `json:"category"`
	Stock             int     `json:"stock" binding:"min=0"`
	MaxBookingPerUser int     `json:"max_booking_per_user" binding:"omitempty,gt=0"`
}

type UpdateProductRequest struct {
	Name              string  `json:"name" binding:"required"`
	Description       string  `json:"description"`
	Price             float64 `json:"price" binding:"required,gt=0"`
	DiscountedPrice   float64 `json:"discounted_price" binding:"omitempty,gt=0"`
	ImageURL          string  `json:"image_url"`
	Category          string  `json:"category"`
	Stock             int     `json:"stock" binding:"min=0"`
	MaxBookingPerUser int     `json:"max_booking_per_user" binding:"omitempty,gt=0"`
}

type BulkUploadRequest struct {
	Products []CreateProductRequest `json:"products" binding:"required,min=1,dive"`
}

type ProductResponse struct {
	ID                string           `json:"id"`
	Name              string           `json:"name"`
	Description       string           `json:"description"`
	Price             decimal.Decimal  `json:"price"`
	DiscountedPrice   *decimal.Decimal `json:"discounted_price,omitempty"`
	ImageURL          string           `json:"image_url"`
	Category          string           `json:"category"`
	Stock             int              `json:"stock"`
	Status            string           `json:"status"`
	MaxBookingPerUser int              `json:"max_booking_per_user"`
}

// --- Interface ---

type ProductService interface {
	GetProduct(ctx context.Context, id string) (ProductResponse, error)
	ListProducts(ctx context.Context, page, limit int, search string) ([]ProductResponse, int64, error)
	CreateProduct(ctx context.Context, userID string, req CreateProductRequest) (ProductResponse, error)
	BulkUpload(ctx context.Context, userID string, req BulkUploadRequest) (int, error)
	UpdateProduct(ctx context.Context, userID string, id string, req UpdateProductRequest) (ProductResponse, error)
	DeleteProduct(ctx context.Context, userID string, id string) error
}

type productService struct {
	productRepo repository.ProductRepository
	bookingRepo repository.BookingRepository
	auditRepo   repository.AuditRepository
	txManager   repository.TransactionManager
	hub         *ws.Hub
}

func NewProductService(
	productRepo repository.ProductRepository,
	bookingRepo repository.BookingRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	hub *ws.Hub,
) ProductService {
	return &productService{
		productRepo: productRepo,
		bookingRepo: bookingRepo,
		auditRepo:   auditRepo,
		txManager:   txManager,
		hub:         hub,
	}
}

func (s *productService) GetProduct(ctx context.Context, id string) (ProductResponse, error) {
	productID, err := uuid.Parse(id)
	if err != nil {
		return ProductResponse{}, fmt.Errorf("invalid product id: %w", ErrInvalidID)
	}

	product, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ProductResponse{}, ErrProductNotFound
		}
		return ProductResponse{}, fmt.Errorf("failed to fetch product: %w", err)
	}

	return toProductResponse(product), nil
}

func (s *productService) ListProducts(ctx context.Context, page, limit int, search string) ([]ProductResponse, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}

	products, total, err := s.productRepo.List(ctx, page, limit, search)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list products: %w", err)
	}

	res := make([]ProductResponse, 0, len(products))
	for i := range products {
		res = append(res, toProductResponse(&products[i]))
	}
	return res, total, nil
}

func (s *productService) CreateProduct(ctx context.Context, userID string, req CreateProductRequest) (ProductResponse, error) {
	product := productFromRequest(req)

	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if createErr := s.productRepo.Create(txCtx, &product); createErr != nil {
			return fmt.Errorf("failed to create product: %w", createErr)
		}

		details, _ := json.Marshal(req)
		audit := &model.AuditLog{
			UserID:     parseOptionalID(userID),
			Action:     model.ActionCreateProduct,
			EntityID:   product.ID.String(),
			EntityName: product.Name,
			Details:    string(details),
		}
		if auditErr := s.auditRepo.Log(txCtx, audit); auditErr != nil {
			return fmt.Errorf("failed to write audit log: %w", auditErr)
		}
		return nil
	})

	if err != nil {
		return ProductResponse{}, err
	}

	return toProductResponse(&product), nil
}

// BulkUpload inserts a batch of products, deriving each status from its stock.
// Returns the number of products inserted.
func (s *productService) BulkUpload(ctx context.Context, userID string, req BulkUploadRequest) (int, error) {
	products := make([]model.Product, 0, len(req.Products))
	for _, p := range req.Products {
		products = append(products, productFromRequest(p))
	}

	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if createErr := s.productRepo.CreateBatch(txCtx, products); createErr != nil {
			return fmt.Errorf("failed to insert products: %w", createErr)
		}

		details, _ := json.Marshal(map[string]interface{}{"count": len(products)})
		audit := &model.AuditLog{
			UserID:  parseOptionalID(userID),
			Action:  model.ActionBulkUpload,
			Details: string(details),
		}
		if auditErr := s.auditRepo.Log(txCtx, audit); auditErr != nil {
			return fmt.Errorf("failed to write audit log: %w", auditErr)
		}
		return nil
	})

	if err != nil {
		return 0, err
	}
	return len(products), nil
}

func (s *productService) UpdateProduct(ctx context.Context, userID string, id string, req UpdateProductRequest) (ProductResponse, error) {
	productID, err := uuid.Parse(id)
	if err != nil {
		return ProductResponse{}, fmt.Errorf("invalid product id: %w", ErrInvalidID)
	}

	product, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ProductResponse{}, ErrProductNotFound
		}
		return ProductResponse{}, fmt.Errorf("failed to fetch product: %w", err)
	}

	product.Name = req.Name
	product.Description = req.Description
	product.Price = decimal.NewFromFloat(req.Price)
	product.DiscountedPrice = nil
	if req.DiscountedPrice > 0 {
		discounted := decimal.NewFromFloat(req.DiscountedPrice)
		product.DiscountedPrice = &discounted
	}
	product.ImageURL = req.ImageURL
	if req.Category != "" {
		product.Category = req.Category
	}
	product.Stock = req.Stock
	if req.MaxBookingPerUser > 0 {
		product.MaxBookingPerUser = req.MaxBookingPerUser
	}
	// The booked override survives an edit; everything else follows stock.
	if product.Status != model.ProductBooked {
		product.Status = model.StatusForStock(req.Stock)
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if updateErr := s.productRepo.Update(txCtx, product); updateErr != nil {
			return fmt.Errorf("failed to update product: %w", updateErr)
		}

		details, _ := json.Marshal(req)
		audit := &model.AuditLog{
			UserID:     parseOptionalID(userID),
			Action:     model.ActionUpdateProduct,
			EntityID:   product.ID.String(),
			EntityName: product.Name,
			Details:    string(details),
		}
		if auditErr := s.auditRepo.Log(txCtx, audit); auditErr != nil {
			return fmt.Errorf("failed to write audit log: %w", auditErr)
		}
		return nil
	})

	if err != nil {
		return ProductResponse{}, err
	}

	s.hub.Publish(ws.EventProductUpdated, map[string]interface{}{
		"product_id": product.ID.String(),
		"stock":      product.Stock,
		"status":     product.Status,
	})

	return toProductResponse(product), nil
}

// DeleteProduct removes a product unless it is currently booked or has any
// booking history.
func (s *productService) DeleteProduct(ctx context.Context, userID string, id string) error {
	productID, err := uuid.Parse(id)
	if err != nil {
		return fmt.Errorf("invalid product id: %w", ErrInvalidID)
	}

	product, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrProductNotFound
		}
		return fmt.Errorf("failed to fetch product: %w", err)
	}

	if product.Status == model.ProductBooked {
		return ErrProductIsBooked
	}

	history, err := s.bookingRepo.CountByProduct(ctx, productID)
	if err != nil {
		return fmt.Errorf("failed to check booking history: %w", err)
	}
	if history > 0 {
		return ErrProductHasHistory
	}

	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if deleteErr := s.productRepo.Delete(txCtx, productID); deleteErr != nil {
			return fmt.Errorf("failed to delete product: %w", deleteErr)
		}

		audit := &model.AuditLog{
			UserID:     parseOptionalID(userID),
			Action:     model.ActionDeleteProduct,
			EntityID:   product.ID.String(),
			EntityName: product.Name,
			Details:    `{"deleted": true}`,
		}
		if auditErr := s.auditRepo.Log(txCtx, audit); auditErr != nil {
			return fmt.Errorf("failed to write audit log: %w", auditErr)
		}
		return nil
	})
}

func productFromRequest(req CreateProductRequest) model.Product {
	category := req.Category
	if category == "" {
		category = "mobile"
	}
	maxPerUser := req.MaxBookingPerUser
	if maxPerUser <= 0 {
		maxPerUser = model.DefaultMaxBookingPerUser
	}

	product := model.Product{
		Name:              req.Name,
		Description:       req.Description,
		Price:             decimal.NewFromFloat(req.Price),
		ImageURL:          req.ImageURL,
		Category:          category,
		Stock:             req.Stock,
		Status:            model.StatusForStock(req.Stock),
		MaxBookingPerUser: maxPerUser,
	}
	if req.DiscountedPrice > 0 {
		discounted := decimal.NewFromFloat(req.DiscountedPrice)
		product.DiscountedPrice = &discounted
	}
	return product
}

func parseOptionalID(id string) *uuid.UUID {
	if parsed, err := uuid.Parse(id); err == nil {
		return &parsed
	}
	return nil
}

func toProductResponse(p *model.Product) ProductResponse {
	return ProductResponse{
		ID:                p.ID.String(),
		Name:              p.Name,
		Description:       p.Description,
		Price:             p.Price,
		DiscountedPrice:   p.DiscountedPrice,
		ImageURL:          p.ImageURL,
		Category:          p.Category,
		Stock:             p.Stock,
		Status:            p.Status,
		MaxBookingPerUser: p.MaxBookingPerUser,
	}
}
