package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/afepanou/payments/internal"
	"github.com/afepanou/payments/internal/core/events"
	"github.com/afepanou/payments/internal/dashboard"
	dashboardPostgres "github.com/afepanou/payments/internal/dashboard/postgres"
	"github.com/afepanou/payments/internal/moncash"
	"github.com/afepanou/payments/internal/order"
	orderPostgres "github.com/afepanou/payments/internal/order/postgres"
	"github.com/afepanou/payments/internal/payment"
	paymentPostgres "github.com/afepanou/payments/internal/payment/postgres"
	"github.com/afepanou/payments/internal/transport"
	"github.com/afepanou/payments/internal/transport/rest"
	"github.com/afepanou/payments/pkg/logger"

	"github.com/go-chi/chi"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var httpServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start HTTP server",
	Long:  `Start the HTTP server to handle API requests`,
	Run: func(cmd *cobra.Command, args []string) {
		startHTTPServer()
	},
}

type Dependencies struct {
	Config   *internal.Config
	DB       *sqlx.DB
	GormDB   *gorm.DB
	Router   *chi.Mux
	Logger   *slog.Logger
	EventBus *events.EventBus

	OrderHandler     *order.Handler
	PaymentHandler   *payment.Handler
	WebhookHandler   *payment.WebhookHandler
	DashboardHandler *dashboard.Handler
}

func startHTTPServer() {
	deps, err := initializeDependencies()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}

	rest.RegisterAllRoutes(deps.Router, deps.DB.DB, deps.OrderHandler, deps.PaymentHandler, deps.WebhookHandler, deps.DashboardHandler, deps.Logger)

	addr := fmt.Sprintf(":%d", deps.Config.Server.Port)
	deps.Logger.Info("starting HTTP server", "address", addr)

	server := &http.Server{
		Addr:         addr,
		Handler:      deps.Router,
		ReadTimeout:  deps.Config.Server.ReadTimeout,
		WriteTimeout: deps.Config.Server.WriteTimeout,
		IdleTimeout:  deps.Config.Server.IdleTimeout,
	}

	// Signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrChan := make(chan error, 1)
	go func() {
		serverErrChan <- server.ListenAndServe()
	}()

	select {
	case sig := <-sigChan:
		deps.Logger.Info("received signal, shutting down", "signal", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			deps.Logger.Error("server shutdown error", "error", err)
		}
		// finish in-flight audit writes before closing the pool
		deps.EventBus.Drain()
		if err := deps.DB.Close(); err != nil {
			deps.Logger.Error("database close error", "error", err)
		}
	case err := <-serverErrChan:
		if err != nil && err != http.ErrServerClosed {
			deps.Logger.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}

	deps.Logger.Info("server stopped")
}

func initializeDependencies() (*Dependencies, error) {
	config, err := loadConfig(".")
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger.Init(config.Observability.Logging.Format, config.Observability.Logging.Level)
	appLogger := logger.LoggerWrapper()

	db, err := initDB(config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	gormDB, err := initGorm(db)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize orm: %w", err)
	}

	// Repositories
	orderRepo := orderPostgres.NewOrderRepository(gormDB)
	txnRepo := paymentPostgres.NewTransactionRepository(gormDB)
	historyRepo := paymentPostgres.NewHistoryRepository(gormDB)
	dashboardRepo := dashboardPostgres.NewDashboardRepository(gormDB)

	// Provider client
	moncashClient := moncash.NewClient(moncash.Config{
		ClientID:     config.MonCash.ClientID,
		ClientSecret: config.MonCash.ClientSecret,
		BaseURL:      fmt.Sprintf("https://%s", config.MonCash.Host()),
		GatewayURL:   config.MonCash.Gateway(),
		Timeout:      config.MonCash.RequestTimeout(),
	}, appLogger)

	// Event bus with the status audit recorder
	eventBus := events.NewEventBus(appLogger)
	historyRecorder := payment.NewHistoryRecorder(historyRepo, appLogger)
	historyRecorder.RegisterEventHandlers(eventBus)

	// Services
	orderService := order.NewService(orderRepo, appLogger)
	paymentService := payment.NewService(txnRepo, orderService, moncashClient, eventBus, appLogger)
	dashboardService := dashboard.NewService(dashboardRepo, appLogger)

	// Handlers
	baseHandler := transport.NewBaseHandler(appLogger)
	orderHandler := order.NewHandler(baseHandler, orderService, appLogger)
	paymentHandler := payment.NewHandler(baseHandler, paymentService, appLogger)
	webhookHandler := payment.NewWebhookHandler(baseHandler, paymentService, appLogger)
	dashboardHandler := dashboard.NewHandler(baseHandler, dashboardService, appLogger)

	return &Dependencies{
		Config:           config,
		Logger:           appLogger,
		DB:               db,
		GormDB:           gormDB,
		EventBus:         eventBus,
		Router:           chi.NewRouter(),
		OrderHandler:     orderHandler,
		PaymentHandler:   paymentHandler,
		WebhookHandler:   webhookHandler,
		DashboardHandler: dashboardHandler,
	}, nil
}

// initDB initializes the database connection
func initDB(cfg internal.DatabaseConfig) (*sqlx.DB, error) {
	const driver = "pgx"

	dbConn, err := sqlx.Connect(driver, cfg.Source)
	if err != nil {
		return nil, fmt.Errorf("failed to open db connection: %w", err)
	}

	dbConn.SetMaxIdleConns(cfg.MaxIdleConns)
	dbConn.SetMaxOpenConns(cfg.MaxOpenConns)
	dbConn.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	dbConn.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	if err := dbConn.Ping(); err != nil {
		_ = dbConn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return dbConn, nil
}

// initGorm wraps the already-open pgx connection so the ORM shares the
// same pool as raw sql access.
func initGorm(db *sqlx.DB) (*gorm.DB, error) {
	return gorm.Open(gormpostgres.New(gormpostgres.Config{
		Conn: db.DB,
	}), &gorm.Config{})
}
