package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"linkcart/internal/client"
	"linkcart/internal/config"
	"linkcart/internal/logger"
	"linkcart/internal/repository"
	"linkcart/internal/server"
	"linkcart/internal/service"
	"linkcart/internal/store"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func main() {
	// load .env into os.Environ
	if err := godotenv.Load(); err != nil {
		fmt.Println("No .env file found (ok in prod)")
	}

	cfg := &config.Config{}
	if err := env.Parse(cfg); err != nil {
		fmt.Printf("Failed to parse config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.Log, cfg.Environment.Name)
	if err != nil {
		fmt.Printf("Failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if err := run(cfg, log); err != nil {
		log.Fatal("linkcart stopped", zap.Error(err))
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	ctx := context.Background()

	db, err := client.InitDBClient(cfg.Database)
	if err != nil {
		return fmt.Errorf("init database: %w", err)
	}

	local, closeStore, err := initLocalStore(ctx, cfg.Store, db)
	if err != nil {
		return err
	}
	defer closeStore()

	notifier, err := client.NewNotifier(cfg.Notify)
	if err != nil {
		return fmt.Errorf("init notifier: %w", err)
	}
	defer notifier.Close()

	submissionRepo := repository.NewSubmissionRepository(db)
	invoiceRepo := repository.NewInvoiceRepository(db)
	completionRepo := repository.NewPaymentCompletionRepository(db)

	invoiceService := service.NewInvoiceService(invoiceRepo, log)
	ledgerService := service.NewLedgerService(invoiceService, local)
	cartService := service.NewCartService(local)

	svcs := server.Services{
		Submissions: service.NewSubmissionService(submissionRepo, notifier, local, log),
		Invoices:    invoiceService,
		Ledger:      ledgerService,
		Cart:        cartService,
	}

	var gateway client.PaymentGateway
	var paypalClient client.PaypalClient
	switch cfg.Checkout.Provider {
	case "", "paypal":
		paypalClient = client.NewPaypalClient(&cfg.Paypal, cfg.BaseURL)
		gateway = paypalClient
	case "braintree":
		gateway = client.NewBraintreeClient(&cfg.BrainTree)
	default:
		return fmt.Errorf("unknown checkout provider %q", cfg.Checkout.Provider)
	}
	if !gateway.Ready() {
		log.Warn("payment gateway is not configured, checkout disabled",
			zap.String("provider", cfg.Checkout.Provider))
	}

	svcs.Checkout, err = service.NewCheckoutService(gateway, cartService, ledgerService, completionRepo, cfg.Checkout, log)
	if err != nil {
		return err
	}
	if paypalClient != nil {
		svcs.Paypal = service.NewPaypalService(paypalClient, svcs.Checkout, log)
	}

	serverAddr := cfg.HTTP.Host + ":" + cfg.HTTP.Port

	// Init HTTP server
	srv := server.NewServer(svcs, cfg.Auth.JWTSecret, log)

	log.Info("Starting HTTP server", zap.String("addr", serverAddr))
	serverErr := make(chan error, 1)
	go func() {
		if err := srv.Start(serverAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)

	select {
	case err := <-serverErr:
		return fmt.Errorf("http server: %w", err)
	case <-sigChan:
	}
	log.Info("Signal received, starting graceful shutdown...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}
	return nil
}

func initLocalStore(ctx context.Context, cfg config.Store, db *gorm.DB) (store.LocalStore, func(), error) {
	switch cfg.Driver {
	case "", "database":
		return store.NewGormStore(db), func() {}, nil
	case "redis":
		rdb, err := client.InitRedisClient(ctx, cfg)
		if err != nil {
			return nil, nil, fmt.Errorf("init redis: %w", err)
		}
		return store.NewRedisStore(rdb), func() { rdb.Close() }, nil
	}
	return nil, nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
}
