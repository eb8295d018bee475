package main

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	grpclib "google.golang.org/grpc"
	"google.golang.org/grpc/reflection"

	"github.com/simaogato/multibank-backend/internal/adapter/gateway"
	grpcadapter "github.com/simaogato/multibank-backend/internal/adapter/grpc"
	"github.com/simaogato/multibank-backend/internal/adapter/httpapi"
	"github.com/simaogato/multibank-backend/internal/adapter/repository/memory"
	"github.com/simaogato/multibank-backend/internal/adapter/repository/postgres"
	"github.com/simaogato/multibank-backend/internal/config"
	"github.com/simaogato/multibank-backend/internal/domain"
	"github.com/simaogato/multibank-backend/internal/ledger"
	"github.com/simaogato/multibank-backend/internal/logger"
	"github.com/simaogato/multibank-backend/internal/metrics"
	"github.com/simaogato/multibank-backend/internal/usecase/account"
	"github.com/simaogato/multibank-backend/internal/usecase/dashboard"
	"github.com/simaogato/multibank-backend/internal/usecase/product"
	"github.com/simaogato/multibank-backend/internal/usecase/quest"
	"github.com/simaogato/multibank-backend/internal/usecase/remote"
	"github.com/simaogato/multibank-backend/internal/usecase/seeder"
	"github.com/simaogato/multibank-backend/internal/usecase/transfer"
)

func main() {
	// 1. Configuration and logging
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	logr := logger.Must(cfg.Log.Level, cfg.Log.Development)
	defer func() { _ = logr.Sync() }()

	ctx := context.Background()

	// 2. Ledger Store
	store := ledger.NewStore(ledger.Options{
		Currency:     cfg.Ledger.Currency,
		NumberPrefix: cfg.NumberPrefix(),
	})
	store.Subscribe(func(kinds []ledger.ChangeKind) {
		logr.Debug("ledger changed", zap.Any("kinds", kinds))
	})

	// 3. Premium flag persistence
	var flags domain.PremiumFlagRepository = memory.NewPremiumFlagRepository()
	if cfg.DB.DSN != "" {
		db, err := postgres.NewDB(cfg.DB.DSN)
		if err != nil {
			logr.Fatal("Failed to connect to database", zap.Error(err))
		}
		defer db.Close()
		if err := db.EnsureSchema(ctx); err != nil {
			logr.Fatal("Failed to prepare schema", zap.Error(err))
		}
		flags = postgres.NewPremiumFlagRepository(db, cfg.Gateway.UserID)
	}

	// 4. Services (Use Cases)
	questService := quest.NewQuestService(store, flags, seeder.FreeQuests(), seeder.PremiumQuests(), logr)
	questService.PremiumPrice = decimal.NewFromInt(cfg.Quest.PremiumPrice)
	questService.OnUpgradeOffer = func(state domain.QuestState) {
		logr.Info("free quests exhausted, premium upgrade offered",
			zap.Int("completed", state.CurrentFreeQuestIndex))
	}

	accountService := account.NewAccountService(store, questService, logr)
	transferService := transfer.NewTransferService(store, questService, logr)
	productService := product.NewProductService(store, questService, seeder.ProductCatalog(), logr)
	productService.DedicatedCardAccounts = cfg.Cards.DedicatedBackingAccount

	var questReader dashboard.QuestReader = questService
	var remoteService *remote.RemoteService
	var refresher *dashboard.Refresher

	switch cfg.Mode {
	case config.ModeAPI:
		// Backend Gateway is the source of truth; the ledger is a read model
		client := gateway.NewClient(cfg.Gateway.BaseURL, cfg.Gateway.UserID, &http.Client{Timeout: gateway.DefaultTimeout}, logr)
		refresher = dashboard.NewRefresher(client, store, logr)
		if err := refresher.Refresh(ctx).Err(); err != nil {
			logr.Warn("initial refresh incomplete", zap.Error(err))
		}
		remoteService = remote.NewRemoteService(client, refresher, store, cfg.Ledger.Currency, logr)
		questReader = refresher
	default:
		demoSeeder := seeder.NewDemoSeeder(store, logr)
		if err := demoSeeder.Seed(ctx); err != nil {
			logr.Fatal("Failed to seed demo accounts", zap.Error(err))
		}
		logr.Info("Demo accounts seeded successfully")
	}

	dashboardService := dashboard.NewDashboardService(store, questReader, cfg.Ledger.Currency, cfg.History.PageSize)

	metrics.RegisterLedgerGauges(
		func() float64 { return store.TotalBalance().InexactFloat64() },
		func() float64 { return float64(len(store.ListAccounts())) },
	)

	// 5. Start gRPC Server
	grpcServer := grpclib.NewServer(
		grpclib.ChainUnaryInterceptor(
			grpcadapter.LoggingInterceptor(logr),
			grpcadapter.AuthInterceptor(cfg.Auth.Token),
		),
	)

	server := grpcadapter.NewServer(store, accountService, transferService, productService, questService, dashboardService, logr)
	if remoteService != nil {
		server.WithRemote(remoteService, refresher)
	}
	grpcadapter.Register(grpcServer, server)
	reflection.Register(grpcServer)

	lis, err := net.Listen("tcp", cfg.GRPC.Addr)
	if err != nil {
		logr.Fatal("Failed to listen", zap.String("addr", cfg.GRPC.Addr), zap.Error(err))
	}

	go func() {
		logr.Info("gRPC server listening", zap.String("addr", cfg.GRPC.Addr), zap.String("mode", string(cfg.Mode)))
		if err := grpcServer.Serve(lis); err != nil {
			logr.Fatal("Failed to serve gRPC server", zap.Error(err))
		}
	}()

	// 6. Start HTTP server (health, metrics, read-only JSON)
	httpServer := &http.Server{
		Addr: cfg.HTTP.Addr,
		Handler: httpapi.NewRouter(&httpapi.Handler{
			Dashboard: dashboardService,
			Ledger:    store,
			Log:       logr,
		}),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logr.Info("HTTP server listening", zap.String("addr", cfg.HTTP.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Fatal("Failed to serve HTTP server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	waitForShutdown(logr, grpcServer, httpServer)
}

// waitForShutdown waits for SIGTERM or SIGINT and gracefully shuts down the servers
func waitForShutdown(logr *zap.Logger, grpcServer *grpclib.Server, httpServer *http.Server) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)

	sig := <-sigChan
	logr.Info("Shutting down gracefully", zap.String("signal", sig.String()))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		logr.Warn("HTTP server shutdown failed", zap.Error(err))
	}

	grpcServer.GracefulStop()
	logr.Info("Servers stopped")
}
