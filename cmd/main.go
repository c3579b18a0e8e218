package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"food-marketplace/internal/api"
	"food-marketplace/internal/auth"
	"food-marketplace/internal/catalog"
	"food-marketplace/internal/config"
	"food-marketplace/internal/database"
	"food-marketplace/internal/kafka"
	"food-marketplace/internal/logger"
	"food-marketplace/internal/messaging"
	"food-marketplace/internal/models"
	"food-marketplace/internal/services/ledger"
	"food-marketplace/internal/services/outbox"
	"food-marketplace/internal/services/payment"
	"food-marketplace/internal/store"
	"food-marketplace/internal/store/lite"
	"food-marketplace/internal/store/postgres"
)

func main() {
	var (
		mode       = flag.String("mode", "", "Service mode (api, migrate, outbox-relay, payment-subscriber, token)")
		configPath = flag.String("config", "config.yaml", "Path to the YAML config file")
		port       = flag.Int("port", 0, "HTTP port, overrides server.port")
		prefetch   = flag.Int("prefetch", 10, "RabbitMQ prefetch count")
		subject    = flag.String("subject", "", "Principal id for token mode")
		role       = flag.String("role", string(models.RoleCustomer), "Principal role for token mode")
		ttl        = flag.Duration("ttl", 24*time.Hour, "Token lifetime for token mode")
	)
	flag.Parse()

	if *mode == "" {
		fmt.Fprintf(os.Stderr, "Error: --mode flag is required\n")
		flag.Usage()
		os.Exit(1)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if *port != 0 {
		cfg.Server.Port = *port
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(*mode)
	requestID := logger.GenerateRequestID()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var runErr error
	switch *mode {
	case "api":
		runErr = runAPI(ctx, cfg, log)
	case "migrate":
		runErr = runMigrate(ctx, cfg, log)
	case "outbox-relay":
		runErr = runOutboxRelay(ctx, cfg, log)
	case "payment-subscriber":
		runErr = runPaymentSubscriber(ctx, cfg, log, *prefetch)
	case "token":
		runErr = printToken(cfg, *subject, *role, *ttl)
	default:
		log.Error("validation_failed", fmt.Sprintf("Unknown mode: %s", *mode), requestID, nil, nil)
		os.Exit(1)
	}

	if runErr != nil {
		log.Error("service_failed", fmt.Sprintf("%s failed", *mode), requestID, runErr, nil)
		os.Exit(1)
	}
	log.Info("service_stopped", "Service stopped gracefully", requestID, nil)
}

// openStore connects the configured database and brings its schema up to date
func openStore(ctx context.Context, cfg *config.Config, log *logger.Logger) (store.Store, error) {
	requestID := logger.GenerateRequestID()

	if cfg.Database.Driver == config.DriverSQLite {
		st, err := lite.Open(cfg.Database.SQLitePath)
		if err != nil {
			return nil, err
		}
		log.Info("db_connected", "Opened SQLite database", requestID, map[string]interface{}{
			"path": cfg.Database.SQLitePath,
		})
		return st, nil
	}

	db, err := database.New(ctx, cfg, log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	if err := db.RunMigrations(ctx, cfg.Database.MigrationsPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return postgres.New(db), nil
}

func runAPI(ctx context.Context, cfg *config.Config, log *logger.Logger) error {
	requestID := logger.GenerateRequestID()

	st, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer st.Close()

	var ownership catalog.OwnershipLookup = catalog.NewStoreOwnership(st)
	if cfg.Catalog.OwnershipURL != "" {
		ownership = catalog.NewRemoteOwnership(cfg.Catalog.OwnershipURL, cfg.Catalog.Timeout, log)
	}

	router := api.NewRouter(cfg.Server, api.Dependencies{
		Store:     st,
		Ownership: ownership,
		Verifier:  auth.NewVerifier(cfg.Auth.JWTSecret),
		Logger:    log,
	})

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info("service_started", fmt.Sprintf("Marketplace API started on port %d", cfg.Server.Port), requestID, map[string]interface{}{
			"port":      cfg.Server.Port,
			"driver":    cfg.Database.Driver,
			"ownership": cfg.Catalog.OwnershipURL,
		})
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("http server failed: %w", err)
		}
	case <-ctx.Done():
		log.Info("graceful_shutdown", "Received shutdown signal", requestID, nil)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func runMigrate(ctx context.Context, cfg *config.Config, log *logger.Logger) error {
	st, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	st.Close()
	log.Info("migrations_applied", "Schema is up to date", "", map[string]interface{}{
		"driver": cfg.Database.Driver,
	})
	return nil
}

func runOutboxRelay(ctx context.Context, cfg *config.Config, log *logger.Logger) error {
	st, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer st.Close()

	var pub outbox.Publisher
	switch cfg.Events.Broker {
	case config.BrokerRabbitMQ:
		conn, err := messaging.New(cfg, log)
		if err != nil {
			return fmt.Errorf("failed to initialize messaging: %w", err)
		}
		p := messaging.NewPublisher(conn, log)
		defer p.Close()
		pub = p
	case config.BrokerKafka:
		p := kafka.NewPublisher(cfg.Kafka)
		defer p.Close()
		pub = p
	default:
		pub = outbox.Discard{}
	}

	return outbox.NewRelay(st, pub, cfg.Events.RelayInterval, cfg.Events.BatchSize, log).Start(ctx)
}

func runPaymentSubscriber(ctx context.Context, cfg *config.Config, log *logger.Logger, prefetch int) error {
	st, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer st.Close()

	conn, err := messaging.New(cfg, log)
	if err != nil {
		return fmt.Errorf("failed to initialize messaging: %w", err)
	}

	consumer := messaging.NewConsumer(conn, log, messaging.PaymentConfirmationsQueue, "payment-subscriber", prefetch)
	return payment.NewSubscriber(consumer, ledger.NewService(st, log), log).Start(ctx)
}

// printToken writes a signed bearer token for local testing
func printToken(cfg *config.Config, subject, role string, ttl time.Duration) error {
	id, err := uuid.Parse(subject)
	if err != nil {
		return fmt.Errorf("--subject must be a uuid: %w", err)
	}
	p := models.Principal{ID: id, Role: models.Role(role)}
	if !p.Role.Valid() {
		return fmt.Errorf("unknown role %q", role)
	}

	token, err := auth.NewVerifier(cfg.Auth.JWTSecret).Issue(p, ttl)
	if err != nil {
		return err
	}
	fmt.Println(token)
	return nil
}
