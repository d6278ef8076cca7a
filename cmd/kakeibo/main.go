package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/Nadarsha111/kakeibo/internal/config"
	"github.com/Nadarsha111/kakeibo/internal/database"
	"github.com/Nadarsha111/kakeibo/internal/service"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	if err := os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
		log.Fatalf("mkdir db dir: %v", err)
	}

	db, err := database.Open(cfg.Database.Path)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	defer db.Close()

	if err := database.InitSchema(db); err != nil {
		log.Fatalf("schema: %v", err)
	}
	if err := database.SeedDefaults(ctx, db); err != nil {
		log.Fatalf("seed: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	accounts := service.NewAccountService(db, logger)
	loans := service.NewLoanService(db, logger)
	settings := service.NewSettingsService(db, cfg.UI, logger)

	if _, err := loans.MarkOverdueSweep(ctx); err != nil {
		logger.Warn("overdue sweep failed", "error", err)
	}

	symbol := settings.CurrencySymbol(ctx)
	fmt.Printf("Total balance: %s%s\n", symbol, accounts.TotalActiveBalance(ctx))
	fmt.Printf("This month:    %s%s\n", symbol, accounts.CurrentPeriodBalance(ctx))

	summary := loans.Summary(ctx)
	fmt.Printf("Loans out:     %s%s (%d open, %d overdue)\n",
		symbol, summary.TotalOutstanding, summary.OpenCount, summary.OverdueCount)
}
