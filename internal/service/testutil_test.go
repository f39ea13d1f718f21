package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"storefront/internal/database"
	"storefront/internal/model"
	"storefront/internal/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// testEnv wires the full repository/service stack against an in-memory
// database, one per test.
type testEnv struct {
	db           *gorm.DB
	productRepo  repository.ProductRepository
	bookingRepo  repository.BookingRepository
	orderRepo    repository.OrderRepository
	invoiceRepo  repository.InvoiceRepository
	profileRepo  repository.ProfileRepository
	settingsRepo repository.SettingsRepository
	auditRepo    repository.AuditRepository
	txManager    repository.TransactionManager

	products ProductService
	bookings BookingService
	payments PaymentService
	invoices InvoiceService
	users    UserService
	settings SettingsService
	stats    StatsService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", t.Name(), time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.Migrate(db))

	env := &testEnv{
		db:           db,
		productRepo:  repository.NewProductRepository(db),
		bookingRepo:  repository.NewBookingRepository(db),
		orderRepo:    repository.NewOrderRepository(db),
		invoiceRepo:  repository.NewInvoiceRepository(db),
		profileRepo:  repository.NewProfileRepository(db),
		settingsRepo: repository.NewSettingsRepository(db),
		auditRepo:    repository.NewAuditRepository(db),
		txManager:    repository.NewTransactionManager(db),
	}

	env.products = NewProductService(env.productRepo, env.bookingRepo, env.auditRepo, env.txManager, nil)
	env.bookings = NewBookingService(env.productRepo, env.bookingRepo, env.settingsRepo, env.auditRepo, env.txManager, nil)
	env.payments = NewPaymentService(env.productRepo, env.bookingRepo, env.orderRepo, env.auditRepo, env.txManager, nil)
	env.invoices = NewInvoiceService(env.orderRepo, env.invoiceRepo, env.auditRepo, env.txManager)
	env.users = NewUserService(env.profileRepo, env.auditRepo, env.txManager, "test-secret")
	env.settings = NewSettingsService(env.settingsRepo, env.auditRepo, env.txManager)
	env.stats = NewStatsService(env.productRepo, env.bookingRepo, env.orderRepo, env.profileRepo)

	return env
}

func mustUUID(t *testing.T, raw string) uuid.UUID {
	t.Helper()
	id, err := uuid.Parse(raw)
	require.NoError(t, err)
	return id
}

// seedProduct inserts a product with the given stock and derived status
func (e *testEnv) seedProduct(t *testing.T, name string, stock int, price float64) *model.Product {
	t.Helper()
	resp, err := e.products.CreateProduct(context.Background(), "", CreateProductRequest{
		Name:  name,
		Price: price,
		Stock: stock,
	})
	require.NoError(t, err)

	id := mustUUID(t, resp.ID)
	product, err := e.productRepo.FindByID(context.Background(), id)
	require.NoError(t, err)
	return product
}

// seedUser registers a customer account and returns its profile
func (e *testEnv) seedUser(t *testing.T, email string) *model.Profile {
	t.Helper()
	_, err := e.users.Register(context.Background(), RegisterRequest{
		Email:    email,
		FullName: "Test User",
		Password: "password123",
	})
	require.NoError(t, err)

	profile, err := e.profileRepo.GetByEmail(context.Background(), email)
	require.NoError(t, err)
	return profile
}

// setApprovalRequired flips the auto-approval setting directly on the
// settings row
func (e *testEnv) setApprovalRequired(t *testing.T, required bool) {
	t.Helper()
	settings, err := e.settingsRepo.Get(context.Background())
	require.NoError(t, err)
	settings.DefaultApprovalRequired = required
	require.NoError(t, e.settingsRepo.Update(context.Background(), settings))
}
