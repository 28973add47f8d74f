package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/udid-foundation/udid-chain/internal/config"
	"github.com/udid-foundation/udid-chain/internal/database"
	"github.com/udid-foundation/udid-chain/internal/env"
	"github.com/udid-foundation/udid-chain/internal/ledger"
	"github.com/udid-foundation/udid-chain/internal/repository"
	"github.com/udid-foundation/udid-chain/internal/service"
	"github.com/udid-foundation/udid-chain/internal/util"
)

// this function run before main
func init() {
	env.LoadEnv(".env")
}

func newLedgerClient(cfg config.LedgerConfig) (ledger.Client, error) {
	switch cfg.Mode {
	case "memory":
		return ledger.NewMemoryLedger(cfg.IssuerIdentity), nil
	case "http":
		return ledger.NewHTTPLedger(cfg)
	default:
		return nil, fmt.Errorf("unknown ledger mode %q", cfg.Mode)
	}
}

func main() {
	cfg := config.GetConfig()
	logger := util.NewLogger(cfg.ENV)

	db, err := database.ConnectReturnGormDB(cfg.DB)
	if err != nil {
		logger.Panic(err)
	}

	sqlDb, err := db.DB()
	if err != nil {
		logger.Panic(err)
	}
	defer sqlDb.Close()
	logger.Info("Database connected \n")

	ledgerClient, err := newLedgerClient(cfg.Ledger)
	if err != nil {
		logger.Panic(err)
	}

	repo := repository.NewRepository(db, logger)
	svc := service.NewService(repo, ledgerClient, nil, cfg.FrontendURL, cfg.Reconciler.PageSize, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runAudit := func() {
		report, err := svc.Reconcile.Audit(ctx)
		if err != nil {
			logger.Errorf("Audit failed: %v", err)
			return
		}

		logger.Infof("Audit: checked=%d confirmed=%d mismatched=%d orphaned=%d",
			report.Checked, report.Confirmed, len(report.Mismatched), len(report.Orphaned))
		for _, number := range report.Mismatched {
			logger.Warnf("Audit: certificate %s has no ledger entry", number)
		}
		for _, digest := range report.Orphaned {
			logger.Warnf("Audit: ledger digest %s has no certificate record", digest)
		}
	}

	logger.Infof("Reconciler running every %s", cfg.Reconciler.Interval)
	runAudit()

	ticker := time.NewTicker(cfg.Reconciler.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("Reconciler shutting down")
			return
		case <-ticker.C:
			runAudit()
		}
	}
}
