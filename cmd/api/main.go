package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "cafeledger/api/swagger" // swagger docs
	"cafeledger/internal/config"
	"cafeledger/internal/database"
	"cafeledger/internal/events"
	"cafeledger/internal/handler"
	"cafeledger/internal/lock"
	"cafeledger/internal/logger"
	"cafeledger/internal/middleware"
	"cafeledger/internal/repository"
	"cafeledger/internal/service"
	"cafeledger/internal/websocket"
	"cafeledger/pkg/zatca"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// @title           Cafe Ledger API
// @version         1.0
// @description     Cost accounting and hash-chained tax invoices for a cafe chain.
// @host            localhost:8080
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg := config.Load()
	log := logger.New(cfg.App.LogLevel)

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
		if cfg.JWT.Secret == "default_super_secret_key" {
			log.Fatal("JWT_SECRET must be set in production")
		}
	}
	middleware.InitAuth(cfg.JWT.Secret)

	db, err := database.NewConnection(cfg.Database, log)
	if err != nil {
		log.WithError(err).Fatal("database connection failed")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Invoice chain lock: Redis lease across instances, else in-process
	var chainLocker lock.Locker = lock.NewMutexLocker()
	rdb, err := database.NewRedis(ctx, cfg.Redis.URL, log)
	if err != nil {
		log.WithError(err).Fatal("redis connection failed")
	}
	if rdb != nil {
		defer rdb.Close()
		chainLocker = lock.NewRedisLocker(rdb, cfg.Invoice.LockTTL, log)
	} else {
		log.Warn("REDIS_URL not set, invoice chain lock is local to this instance")
	}

	// Event fan-out: log, operator websocket, optional Kafka
	wsHub := websocket.NewHub(log)
	go wsHub.Run()

	publishers := []events.Publisher{events.NewLogPublisher(log), events.NewHubPublisher(wsHub, log)}
	if len(cfg.Kafka.Brokers) > 0 {
		kp := events.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic, log)
		defer kp.Close()
		publishers = append(publishers, kp)
	}
	publisher := events.Multi(publishers...)

	// Set up dependencies (Repository -> Service -> Handler)
	txManager := repository.NewTransactionManager(db)
	productRepo := repository.NewProductRepository(db)
	rawItemRepo := repository.NewRawItemRepository(db)
	addonRepo := repository.NewProductAddonRepository(db)
	recipeRepo := repository.NewRecipeRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	movementRepo := repository.NewStockMovementRepository(db)
	snapshotRepo := repository.NewAccountingSnapshotRepository(db)
	taxRuleRepo := repository.NewTaxRuleRepository(db)
	invoiceRepo := repository.NewTaxInvoiceRepository(db)
	revenueRepo := repository.NewRevenueRepository(db)
	auditRepo := repository.NewAuditRepository(db)

	retries := cfg.Database.ConflictRetries
	recipeService := service.NewRecipeService(productRepo, rawItemRepo, recipeRepo, auditRepo, txManager, publisher, retries)
	costingService := service.NewCostingService(recipeRepo, rawItemRepo, addonRepo, publisher)
	orderService := service.NewOrderService(productRepo, orderRepo, auditRepo, txManager, costingService)
	inventoryService := service.NewInventoryService(productRepo, rawItemRepo, addonRepo, movementRepo, auditRepo, txManager)
	accountingService := service.NewAccountingService(orderRepo, movementRepo, rawItemRepo, snapshotRepo, auditRepo, txManager, publisher, cfg.Report.Location(), retries)
	reportExporter := service.NewReportExporter(orderRepo, rawItemRepo, accountingService)
	taxService := service.NewTaxService(taxRuleRepo, auditRepo, txManager, cfg.Invoice.DefaultTaxRate)
	invoiceService := service.NewTaxInvoiceService(invoiceRepo, orderRepo, auditRepo, txManager, taxService, chainLocker, publisher, service.InvoiceSettings{
		Seller: zatca.Party{
			Name:       cfg.Seller.Name,
			VATNumber:  cfg.Seller.VATNumber,
			CRNumber:   cfg.Seller.CRNumber,
			Street:     cfg.Seller.Street,
			City:       cfg.Seller.City,
			PostalCode: cfg.Seller.PostalCode,
			Country:    cfg.Seller.CountryCode,
		},
		DefaultTaxRate: cfg.Invoice.DefaultTaxRate,
		MaxRetries:     cfg.Invoice.MaxRetries,
		PhoneRegion:    cfg.Seller.CountryCode,
	})
	revenueService := service.NewRevenueService(revenueRepo)
	auditService := service.NewAuditService(auditRepo)

	if cfg.Seller.VATNumber == "" {
		log.Warn("SELLER_VAT_NUMBER not set, invoice issuance will be rejected")
	}

	// Initialize Handlers
	invoiceLimiter := middleware.NewRateLimiter(cfg.Invoice.RateLimitRPS, cfg.Invoice.RateLimitBurst)
	handlers := []interface{ RegisterRoutes(*gin.RouterGroup) }{
		handler.NewRecipeHandler(recipeService),
		handler.NewOrderHandler(costingService, orderService),
		handler.NewInventoryHandler(inventoryService),
		handler.NewAccountingHandler(accountingService),
		handler.NewReportHandler(reportExporter, accountingService),
		handler.NewTaxInvoiceHandler(invoiceService, revenueService, invoiceLimiter),
		handler.NewTaxHandler(taxService),
		handler.NewAuditHandler(auditService),
	}

	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestLogger(log))

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.CORS.AllowedOrigins
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept", "X-Request-ID"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.ExposeHeaders = []string{"Content-Disposition", "X-Request-ID"}
	router.Use(cors.New(corsConfig))

	// Swagger route
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		status := "OK"
		if sqlDB, err := db.DB(); err != nil || sqlDB.PingContext(c.Request.Context()) != nil {
			status = "DEGRADED"
		}
		c.JSON(http.StatusOK, gin.H{"status": status, "ws_clients": wsHub.ClientCount()})
	})

	// WebSocket endpoint
	router.GET("/ws", func(c *gin.Context) {
		websocket.ServeWs(wsHub, c, middleware.GetJWTSecret(), middleware.RoleAdmin, middleware.RoleManager, middleware.RoleAccountant)
	})

	// API Routing
	for _, h := range handlers {
		h.RegisterRoutes(router.Group(""))
	}

	srv := &http.Server{
		Addr:              ":" + cfg.App.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.WithField("port", cfg.App.Port).Info("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("server failed")
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("graceful shutdown failed")
	}
}
