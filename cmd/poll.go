package cmd

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/afepanou/payments/internal/core/events"
	"github.com/afepanou/payments/internal/moncash"
	"github.com/afepanou/payments/internal/order"
	orderPostgres "github.com/afepanou/payments/internal/order/postgres"
	"github.com/afepanou/payments/internal/payment"
	paymentPostgres "github.com/afepanou/payments/internal/payment/postgres"
	"github.com/afepanou/payments/pkg/logger"

	"github.com/spf13/cobra"
)

var (
	pollOlderThan time.Duration
	pollLimit     int

	pollCmd = &cobra.Command{
		Use:   "poll",
		Short: "Reconcile unresolved payment transactions against the provider",
		Long: `Fetches transactions still in initiated or pending status and asks the
provider for their authoritative state. Intended to run from cron; each
invocation processes one batch and exits.`,
		RunE: runPoll,
	}
)

func init() {
	pollCmd.Flags().DurationVar(&pollOlderThan, "older-than", 5*time.Minute, "only reconcile transactions created at least this long ago")
	pollCmd.Flags().IntVar(&pollLimit, "limit", 100, "maximum number of transactions per run")
}

func runPoll(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig(".")
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger.Init(cfg.Observability.Logging.Format, cfg.Observability.Logging.Level)
	appLogger := logger.LoggerWrapper()

	db, err := initDB(cfg.Database)
	if err != nil {
		log.Fatalf("failed to init db: %v", err)
	}
	defer db.Close()

	gormDB, err := initGorm(db)
	if err != nil {
		log.Fatalf("failed to init orm: %v", err)
	}

	orderRepo := orderPostgres.NewOrderRepository(gormDB)
	txnRepo := paymentPostgres.NewTransactionRepository(gormDB)
	historyRepo := paymentPostgres.NewHistoryRepository(gormDB)

	moncashClient := moncash.NewClient(moncash.Config{
		ClientID:     cfg.MonCash.ClientID,
		ClientSecret: cfg.MonCash.ClientSecret,
		BaseURL:      fmt.Sprintf("https://%s", cfg.MonCash.Host()),
		GatewayURL:   cfg.MonCash.Gateway(),
		Timeout:      cfg.MonCash.RequestTimeout(),
	}, appLogger)

	eventBus := events.NewEventBus(appLogger)
	payment.NewHistoryRecorder(historyRepo, appLogger).RegisterEventHandlers(eventBus)

	orderService := order.NewService(orderRepo, appLogger)
	paymentService := payment.NewService(txnRepo, orderService, moncashClient, eventBus, appLogger)

	ctx := context.Background()
	settled, err := paymentService.PollUnresolved(ctx, pollOlderThan, pollLimit)

	// let the audit handlers finish before the process exits
	eventBus.Drain()

	if err != nil {
		return err
	}

	appLogger.Info("poll run finished", "settled", settled, "older_than", pollOlderThan.String(), "limit", pollLimit)
	return nil
}
