package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/govalues/decimal"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/tinoosan/fintrack/internal/config"
	httpapi "github.com/tinoosan/fintrack/internal/httpapi/v1"
	"github.com/tinoosan/fintrack/internal/ledger"
	"github.com/tinoosan/fintrack/internal/rates"
	"github.com/tinoosan/fintrack/internal/service/currency"
	"github.com/tinoosan/fintrack/internal/service/rules"
	"github.com/tinoosan/fintrack/internal/storage/memory"
	pgstore "github.com/tinoosan/fintrack/internal/storage/postgres"
	"github.com/tinoosan/fintrack/internal/worker"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Logger (slog to stdout). Level via LOG_LEVEL; format via LOG_FORMAT
	// (json|text, default json)
	logger := buildLoggerFromEnv()
	slog.SetDefault(logger)

	cfg, err := config.Load(os.Getenv("FINTRACK_CONFIG"))
	if err != nil {
		logger.Error("failed to load config", "err", err)
		os.Exit(1)
	}

	rateClient := rates.NewClient(nil, cfg.RateAPIURL)

	var store httpapi.Store
	var closeFn func()

	if dsn := strings.TrimSpace(cfg.DatabaseURL); dsn != "" {
		pg, err := pgstore.Open(ctx, dsn)
		if err != nil {
			logger.Error("failed to connect to postgres", "err", err)
			os.Exit(1)
		}
		store = pg
		closeFn = pg.Close
		logger.Info("storage backend: postgres")
	} else {
		mem := memory.New()
		if cfg.DevSeed {
			seedDev(ctx, mem, logger)
		}
		store = mem
		logger.Info("storage backend: memory")
	}

	api := httpapi.New(store, rateClient, logger)

	pool := worker.New(cfg.WorkerCount, cfg.WorkerQueueSize, logger)
	pool.Register(prometheus.DefaultRegisterer)
	defer pool.Stop()

	// Periodic rate refresh runs through the pool so failures are counted
	// rather than silent.
	if cfg.RateRefreshInterval > 0 {
		currencySvc := currency.New(store, store, rateClient)
		go func() {
			ticker := time.NewTicker(cfg.RateRefreshInterval)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					pool.Submit(worker.Job{
						Name: "rate_refresh",
						Run: func(jobCtx context.Context) error {
							updated, err := currencySvc.RefreshRates(jobCtx)
							if err != nil {
								return err
							}
							logger.Info("rates refreshed", "updated", updated)
							return nil
						},
					})
				}
			}
		}()
	}

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           api.Handler(),
		ReadTimeout:       5 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("fintrack service listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctxShutdown); err != nil {
			logger.Error("server shutdown error", "err", err)
		}
	case err := <-errCh:
		logger.Error("server error", "err", err)
	}
	if closeFn != nil {
		closeFn()
	}
}

// seedDev loads a demo user with two accounts, the base currency pair and
// the default category/rule set for quick local testing.
func seedDev(ctx context.Context, mem *memory.Store, logger *slog.Logger) {
	user := ledger.User{ID: uuid.New(), Name: "Demo User"}
	mem.SeedUser(user)

	checking := ledger.Account{
		ID: uuid.New(), UserID: user.ID, Name: "Demo Checking",
		Type: ledger.AccountTypeChecking, Currency: "USD",
		Balance: ledger.ZeroAmount("USD"), ImportSource: ledger.SourceManual, Active: true,
	}
	savings := ledger.Account{
		ID: uuid.New(), UserID: user.ID, Name: "Demo Savings",
		Type: ledger.AccountTypeSavings, Currency: "USD",
		Balance: ledger.ZeroAmount("USD"), ImportSource: ledger.SourceManual, Active: true,
	}
	mem.SeedAccount(checking)
	mem.SeedAccount(savings)

	now := time.Now().UTC()
	eurRate, _ := decimal.Parse("1.1")
	mem.SeedCurrency(ledger.Currency{Code: "USD", Name: "US Dollar", Symbol: "$", RateToBase: decimal.One, IsBase: true, LastUpdated: now})
	mem.SeedCurrency(ledger.Currency{Code: "EUR", Name: "Euro", Symbol: "€", RateToBase: eurRate, LastUpdated: now})

	rulesSvc := rules.New(mem, mem)
	created, err := rulesSvc.SeedDefaults(ctx, user.ID)
	if err != nil {
		logger.Error("dev seed failed", "err", err)
		return
	}

	logger.Info("DEV seed (memory)",
		"user_id", user.ID.String(),
		"checking_account_id", checking.ID.String(),
		"savings_account_id", savings.ID.String(),
		"rules_created", created,
	)
	printDevSeedBanner(user, checking, savings)
}

// printDevSeedBanner prints a simple banner to stdout for easy copy/paste
// of IDs.
func printDevSeedBanner(user ledger.User, checking, savings ledger.Account) {
	fmt.Println("==================== DEV SEED ====================")
	fmt.Printf("user_id: %s\n", user.ID.String())
	fmt.Printf("checking_account_id: %s\n", checking.ID.String())
	fmt.Printf("savings_account_id: %s\n", savings.ID.String())
	fmt.Println("==================================================")
}

// parseLogLevel maps env values to slog.Leveler
func parseLogLevel(s string) slog.Leveler {
	switch s {
	case "DEBUG", "debug":
		return slog.LevelDebug
	case "WARN", "WARNING", "warn", "warning":
		return slog.LevelWarn
	case "ERROR", "ERR", "error", "err":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func buildLoggerFromEnv() *slog.Logger {
	level := parseLogLevel(os.Getenv("LOG_LEVEL"))
	format := strings.ToLower(strings.TrimSpace(os.Getenv("LOG_FORMAT")))
	if format == "text" {
		return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	}
	// default to JSON
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
}
