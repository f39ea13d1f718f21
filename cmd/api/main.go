package main

import (
	"context"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	_ "storefront/api/swagger" // swagger docs
	"storefront/internal/database"
	"storefront/internal/handler"
	"storefront/internal/logging"
	"storefront/internal/middleware"
	"storefront/internal/repository"
	"storefront/internal/service"
	"storefront/internal/websocket"
	"storefront/internal/worker"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// @title           Phone Store Booking API
// @version         1.0
// @description     Booking-then-purchase storefront for mobile phones.
// @host            localhost:8080
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	logger := logging.New("storefront")

	if err := godotenv.Load("configs/.env"); err != nil {
		logger.Debug().Msg("no configs/.env file found")
	}

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		logger.Fatal().Msg("JWT_SECRET environment variable is required")
	}

	dsn := "postgres://" + envOr("DB_USER", "postgres") + ":" + envOr("DB_PASSWORD", "postgres") +
		"@" + envOr("DB_HOST", "localhost") + ":" + envOr("DB_PORT", "5432") +
		"/" + envOr("DB_NAME", "storefront") + "?sslmode=" + envOr("DB_SSLMODE", "disable")

	db, err := database.NewConnection(dsn)
	if err != nil {
		logger.Fatal().Err(err).Msg("database connection failed")
	}
	logger.Info().Msg("connected to postgres")

	wsHub := websocket.NewHub(logger)
	go wsHub.Run()

	// Repositories
	txManager := repository.NewTransactionManager(db)
	productRepo := repository.NewProductRepository(db)
	bookingRepo := repository.NewBookingRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	invoiceRepo := repository.NewInvoiceRepository(db)
	profileRepo := repository.NewProfileRepository(db)
	settingsRepo := repository.NewSettingsRepository(db)
	auditRepo := repository.NewAuditRepository(db)

	// Services
	productService := service.NewProductService(productRepo, bookingRepo, auditRepo, txManager, wsHub)
	bookingService := service.NewBookingService(productRepo, bookingRepo, settingsRepo, auditRepo, txManager, wsHub)
	paymentService := service.NewPaymentService(productRepo, bookingRepo, orderRepo, auditRepo, txManager, wsHub)
	invoiceService := service.NewInvoiceService(orderRepo, invoiceRepo, auditRepo, txManager)
	userService := service.NewUserService(profileRepo, auditRepo, txManager, jwtSecret)
	settingsService := service.NewSettingsService(settingsRepo, auditRepo, txManager)
	statsService := service.NewStatsService(productRepo, bookingRepo, orderRepo, profileRepo)

	// Handlers
	auth := middleware.NewAuth(jwtSecret, profileRepo)
	productHandler := handler.NewProductHandler(productService, bookingService)
	bookingHandler := handler.NewBookingHandler(bookingService)
	orderHandler := handler.NewOrderHandler(paymentService, invoiceService)
	userHandler := handler.NewUserHandler(userService)
	adminHandler := handler.NewAdminHandler(statsService, settingsService, auditRepo)

	router := gin.Default()

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{envOr("FRONTEND_URL", "http://localhost:3000")}
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	router.Use(cors.New(corsConfig))

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "OK"})
	})

	router.GET("/ws", func(c *gin.Context) {
		websocket.ServeWs(wsHub, c)
	})

	api := router.Group("")
	productHandler.RegisterRoutes(api, auth)
	bookingHandler.RegisterRoutes(api, auth)
	orderHandler.RegisterRoutes(api, auth)
	userHandler.RegisterRoutes(api, auth)
	adminHandler.RegisterRoutes(api, auth)

	// Background expiry sweep
	sweepCtx, cancelSweep := context.WithCancel(context.Background())
	defer cancelSweep()

	sweepInterval := time.Minute
	if raw := os.Getenv("SWEEP_INTERVAL_SECONDS"); raw != "" {
		if secs, err := strconv.Atoi(raw); err == nil && secs > 0 {
			sweepInterval = time.Duration(secs) * time.Second
		}
	}
	sweeper := worker.NewSweeper(bookingService, sweepInterval, logger)
	go sweeper.Run(sweepCtx)

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		cancelSweep()
	}()

	port := envOr("PORT", "8080")
	logger.Info().Str("port", port).Msg("server listening")
	if err := router.Run(":" + port); err != nil {
		logger.Fatal().Err(err).Msg("server failed")
	}
}
