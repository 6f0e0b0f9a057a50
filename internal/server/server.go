package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	validatorv10 "github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/farellandr/donatrack/config"
	"github.com/farellandr/donatrack/internal/events"
	"github.com/farellandr/donatrack/internal/handlers"
	"github.com/farellandr/donatrack/internal/ledger"
	"github.com/farellandr/donatrack/internal/metrics"
	"github.com/farellandr/donatrack/internal/middleware"
	"github.com/farellandr/donatrack/internal/models"
	"github.com/farellandr/donatrack/internal/payment"
	"github.com/farellandr/donatrack/internal/validation"
)

// Deps are the collaborators the routes are built from.
type Deps struct {
	DB        *gorm.DB
	Store     ledger.Store
	Gateway   payment.Gateway
	Publisher events.Publisher
	Validator *validatorv10.Validate
	Logger    *slog.Logger
}

func Start(cfg *config.Config, logger *slog.Logger) error {
	db, err := config.InitDatabase(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %v", err)
	}

	metrics.Setup(cfg.Metrics, logger)

	publisher := events.NewPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
	defer publisher.Close()

	gin.SetMode(cfg.Server.Mode)
	r := gin.New()
	r.Use(gin.Recovery())

	setupRoutes(r, cfg, Deps{
		DB:    db,
		Store: ledger.NewGormStore(db),
		Gateway: payment.NewGateway(payment.RazorpayConfig{
			KeyID:     cfg.Razorpay.KeyID,
			KeySecret: cfg.Razorpay.KeySecret,
			BaseURL:   cfg.Razorpay.BaseURL,
			Timeout:   time.Duration(cfg.Razorpay.TimeoutMs) * time.Millisecond,
		}),
		Publisher: publisher,
		Validator: validation.New(),
		Logger:    logger,
	})

	warnMissingSecrets(cfg, logger)

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting server", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func warnMissingSecrets(cfg *config.Config, logger *slog.Logger) {
	if cfg.Razorpay.KeyID == "" || cfg.Razorpay.KeySecret == "" {
		logger.Error("Razorpay key id or key secret missing, orders and verification will fail", "config_error", true)
	}
	if cfg.Razorpay.WebhookSecret == "" {
		logger.Error("Razorpay webhook secret missing, webhooks will be rejected", "config_error", true)
	}
	if cfg.JWT.Secret == "" {
		logger.Error("JWT secret missing, admin login is disabled", "config_error", true)
	}
}

func setupRoutes(r *gin.Engine, cfg *config.Config, deps Deps) {
	logger := deps.Logger
	r.Use(middleware.RequestLogger(logger))

	donations := handlers.NewDonationHandler(
		deps.Gateway,
		payment.NewVerifier(cfg.Razorpay.KeySecret),
		deps.Store,
		deps.Publisher,
		deps.Validator,
		handlers.DonationConfig{
			MinAmount: decimal.NewFromFloat(cfg.Donations.MinAmount),
			Currency:  cfg.Donations.Currency,
		},
		logger,
	)
	webhooks := handlers.NewWebhookHandler(payment.NewVerifier(cfg.Razorpay.WebhookSecret), deps.Store, deps.Publisher, logger)
	ledgerHandler := handlers.NewLedgerHandler(deps.Store, deps.Publisher, deps.Validator, cfg.Donations.Currency, logger)
	receipts := handlers.NewReceiptHandler(deps.Store, cfg.Receipt.Secret, deps.Validator, logger)
	auth := handlers.NewAuthHandler(deps.DB, cfg.JWT.Secret, time.Duration(cfg.JWT.TTLHours)*time.Hour, deps.Validator, logger)
	users := handlers.NewUserHandler(deps.DB, deps.Validator, logger)

	r.GET("/metrics", metrics.Handler())

	public := r.Group("/api")
	{
		public.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
		})
		public.POST("/auth/login", auth.Login)

		donationPublic := public.Group("/donations")
		{
			donationPublic.POST("/order", donations.CreateOrder)
			donationPublic.POST("/verify", donations.VerifyPayment)
			donationPublic.POST("/webhook", webhooks.Handle)
		}

		public.POST("/receipts/validate", receipts.ValidateReceipt)
	}

	protected := r.Group("/api")
	protected.Use(middleware.JWTAuthMiddleware(cfg.JWT.Secret, logger))
	{
		protected.GET("/auth/me", auth.Me)
		protected.POST("/auth/logout", auth.Logout)

		donationAdmin := protected.Group("/donations")
		donationAdmin.Use(middleware.RequireRole(logger, models.RoleSuperAdmin, models.RoleFinanceAdmin))
		{
			donationAdmin.GET("", ledgerHandler.ListDonations)
			donationAdmin.POST("", ledgerHandler.RecordManual)
			donationAdmin.GET("/report", ledgerHandler.Report)
			donationAdmin.GET("/stats", ledgerHandler.Stats)
			donationAdmin.POST("/:id/receipt", ledgerHandler.GenerateReceipt)
			donationAdmin.GET("/:id/receipt/qr", receipts.ReceiptQR)
		}

		userAdmin := protected.Group("/users")
		userAdmin.Use(middleware.RequireRole(logger, models.RoleSuperAdmin))
		{
			userAdmin.GET("", users.ListUsers)
			userAdmin.POST("", users.CreateUser)
			userAdmin.PUT("/:id", users.UpdateUser)
			userAdmin.DELETE("/:id", users.DeleteUser)
		}
	}
}
