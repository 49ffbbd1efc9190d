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

	"github.com/charmbracelet/huh"
	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/arcbank/funds-engine/src/internal/adapter/gateway"
	"github.com/arcbank/funds-engine/src/internal/adapter/repository/memory"
	"github.com/arcbank/funds-engine/src/internal/config"
	"github.com/arcbank/funds-engine/src/internal/domain"
	"github.com/arcbank/funds-engine/src/internal/logger"
	"github.com/arcbank/funds-engine/src/internal/usecase/services"
)

func main() {
	envErr := godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.LogLevel, cfg.LogFormat); err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if envErr != nil {
		logger.Warn("teller could not load .env file", logger.Fields{"error": envErr.Error()})
	}

	if err := run(cfg); err != nil && !errors.Is(err, huh.ErrUserAborted) {
		logger.Error("teller stopped", err, nil)
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cfg config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	if cfg.MetricsAddr != "" {
		server := serveMetrics(cfg.MetricsAddr, registry)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = server.Shutdown(shutdownCtx)
		}()
	}

	// The catalog needs the client, and the client asks the catalog which
	// token in a rejection message is the reason code.
	var catalog *services.ReasonCatalog
	client, err := gateway.NewClient(gateway.Options{
		BaseURL:            cfg.GatewayURL,
		ChannelID:          cfg.ChannelID,
		ChannelKey:         cfg.ChannelKey,
		Timeout:            cfg.HTTPTimeout,
		BreakerMaxFailures: cfg.BreakerMaxFailures,
		BreakerOpenTimeout: cfg.BreakerOpenTimeout,
		Location:           cfg.Location,
		Registerer:         registry,
		KnownReasonCode: func(code string) bool {
			return catalog != nil && catalog.Known(code)
		},
	})
	if err != nil {
		return fmt.Errorf("create gateway client: %w", err)
	}

	bankRepo, err := memory.NewParticipantBankRepository(cfg.BankRegistryFile)
	if err != nil {
		return fmt.Errorf("load bank registry: %w", err)
	}

	book := memory.NewAccountBook(nil)
	reconciler := services.NewBalanceReconciler(client, book)
	catalog = services.NewReasonCatalog(client)
	banks := services.NewParticipantBankService(bankRepo, cfg.OwnBankCode)

	app := &teller{
		accounts: services.NewAccountService(client, book, reconciler),
		banks:    banks,
		transfers: services.NewTransferService(
			services.NewAccountResolver(client),
			banks,
			client,
			reconciler,
			book,
			cfg.ExternalAccountMinLength,
			cfg.Channel,
			cfg.BranchID,
		),
		reversals: services.NewReversalService(client, catalog, reconciler, services.PolicyFromConfig(cfg)),
		catalog:   catalog,
		location:  cfg.Location,
		workstation: domain.SessionContext{
			CashierID: cfg.CashierID,
			BranchID:  cfg.BranchID,
			Channel:   cfg.Channel,
		},
	}

	logger.Info("teller started", logger.Fields{
		"gatewayUrl":     cfg.GatewayURL,
		"channel":        cfg.Channel,
		"reversalPolicy": cfg.ReversalPolicy,
	})
	return app.run(ctx)
}

func serveMetrics(addr string, registry *prometheus.Registry) *http.Server {
	router := mux.NewRouter()
	router.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry})).Methods(http.MethodGet)

	server := &http.Server{Addr: addr, Handler: router, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("teller metrics server failed", err, logger.Fields{"addr": addr})
		}
	}()
	return server
}
