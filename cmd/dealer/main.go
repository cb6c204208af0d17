// Command dealer runs the reconciliation and hedging control loop as a
// scheduled background process, grounded on cmd/worker/main.go's bootstrap
// sequence (logger → config → database → redis → graceful shutdown).
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/hxuan190/stable_payment_gateway/internal/config"
	"github.com/hxuan190/stable_payment_gateway/internal/modules/dealer/domain"
	"github.com/hxuan190/stable_payment_gateway/internal/modules/dealer/job"
	"github.com/hxuan190/stable_payment_gateway/internal/modules/dealer/repository"
	"github.com/hxuan190/stable_payment_gateway/internal/modules/dealer/service"
	"github.com/hxuan190/stable_payment_gateway/internal/modules/dealer/strategy"
	"github.com/hxuan190/stable_payment_gateway/internal/modules/dealer/wallet"
	"github.com/hxuan190/stable_payment_gateway/internal/pkg/cache"
	"github.com/hxuan190/stable_payment_gateway/internal/pkg/database"
	"github.com/hxuan190/stable_payment_gateway/internal/pkg/logger"
)

func main() {
	logger.Init(logger.Config{
		Level:  "info",
		Format: "json",
	})

	logger.Info("Starting dealer control loop service...")

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", err)
	}
	logger.Info("Configuration loaded successfully", logger.Fields{
		"environment":    cfg.Environment,
		"wallet_impl":    cfg.Dealer.WalletImpl,
		"strategy_impl":  cfg.Dealer.StrategyImpl,
		"tick_interval_s": cfg.Dealer.TickInterval.Seconds(),
	})

	db, err := database.New(&cfg.Database)
	if err != nil {
		logger.Fatal("Failed to initialize database connection", err)
	}

	waitCtx, waitCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer waitCancel()
	if err := db.WaitForConnection(waitCtx, 5); err != nil {
		logger.Fatal("Database connection failed", err)
	}
	if err := migrateModels(db); err != nil {
		logger.Fatal("Failed to migrate dealer tables", err)
	}
	logger.Info("Database connection established")

	redisCache, err := cache.NewRedisCache(cfg.Redis.Host, cfg.Redis.Port, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		logger.Fatal("Failed to initialize Redis connection", err)
	}
	pingCtx, pingCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer pingCancel()
	if err := redisCache.Ping(pingCtx); err != nil {
		logger.Fatal("Redis connection failed", err)
	}
	logger.Info("Redis connection established")

	walletClient, err := wallet.New(cfg.Dealer.WalletImpl, cfg)
	if err != nil {
		logger.Fatal("Failed to construct wallet client", err)
	}
	hedgingStrategy, err := strategy.New(cfg.Dealer.StrategyImpl, cfg)
	if err != nil {
		logger.Fatal("Failed to construct hedging strategy", err)
	}

	ledger := repository.NewTransferLedger(db.GetGORM())
	tickLog := repository.NewTickLog(db.GetGORM())

	reconciler := service.NewTransferReconciler(ledger, hedgingStrategy)
	position := service.NewPositionPhase(hedgingStrategy, cfg.Dealer.MinimumPositiveLiabilityUSD)
	callbacks := service.NewTransferCallbacks(walletClient, ledger, hedgingStrategy.Name()).
		WithDepositRetries(cfg.Dealer.DepositRetries)
	rebalance := service.NewRebalancePhase(walletClient, hedgingStrategy, callbacks)
	controlLoop := service.NewControlLoop(reconciler, position, rebalance, ledger, hedgingStrategy, walletClient)

	tickJob := job.NewTickJob(controlLoop)

	redisAddr := cfg.GetRedisAddr()
	scheduler := asynq.NewScheduler(asynq.RedisClientOpt{Addr: redisAddr, Password: cfg.Redis.Password, DB: cfg.Redis.DB}, nil)
	cronSpec := fmt.Sprintf("@every %ds", int(cfg.Dealer.TickInterval.Seconds()))
	if _, err := scheduler.Register(cronSpec, asynq.NewTask(job.TickJobName, nil)); err != nil {
		logger.Fatal("Failed to register dealer tick schedule", err)
	}

	server := asynq.NewServer(
		asynq.RedisClientOpt{Addr: redisAddr, Password: cfg.Redis.Password, DB: cfg.Redis.DB},
		asynq.Config{Concurrency: 1, Queues: map[string]int{"default": 1}},
	)
	mux := asynq.NewServeMux()
	mux.HandleFunc(job.TickJobName, func(ctx context.Context, _ *asynq.Task) error {
		startedAt := time.Now()
		outcome, err := tickJob.Run(ctx)
		recordTickHistory(ctx, tickLog, startedAt, outcome, err)
		return err
	})

	go func() {
		logger.Info("Starting dealer tick scheduler...")
		if err := scheduler.Run(); err != nil {
			logger.Fatal("Dealer scheduler failed", err)
		}
	}()

	go func() {
		logger.Info("Starting dealer tick worker...")
		if err := server.Run(mux); err != nil {
			logger.Fatal("Dealer worker server failed", err)
		}
	}()

	logger.Info("Dealer service started successfully")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Received shutdown signal, gracefully shutting down...")

	scheduler.Shutdown()
	server.Shutdown()

	if err := redisCache.Close(); err != nil {
		logger.Error("Error closing Redis connection", err)
	}
	if err := db.Close(); err != nil {
		logger.Error("Error closing database connection", err)
	}

	fmt.Println("Dealer service stopped")
}

func migrateModels(db *database.PostgresDB) error {
	return db.GetGORM().AutoMigrate(&domain.Transfer{}, &repository.TickLogEntry{})
}

func recordTickHistory(ctx context.Context, tickLog *repository.TickLog, startedAt time.Time, outcome domain.TickOutcome, tickErr error) {
	entry := repository.TickLogEntry{
		StartedAt:       startedAt,
		FinishedAt:      time.Now(),
		Success:         tickErr == nil,
		PositionSkipped: outcome.PositionSkipped,
		LeverageSkipped: outcome.LeverageSkipped,
		PendingCount:    outcome.PendingCount,
	}
	if tickErr != nil {
		entry.ErrorMessage = tickErr.Error()
	}
	if err := tickLog.Record(ctx, entry); err != nil {
		logger.Error("failed to record tick history", err)
	}
}
