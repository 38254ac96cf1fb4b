package main

import (
	"context"
	"errors"
	"os"
	"time"

	"financas/internal/amqp"
	"financas/internal/cli"
	"financas/internal/sheets"
	gsheet "financas/internal/sheets/google"
	memsheet "financas/internal/sheets/memory"
	"financas/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger()
	cfg := cli.LoadAndValidateConfig(logger)

	logger.Info("Starting financas-worker")

	store := cli.InitStore(logger, cfg.SQLiteDBPath)
	defer func() { _ = store.Close() }()

	var mirror sheets.ExpenseMirror
	switch cfg.SheetsMirror {
	case "google":
		client, err := gsheet.NewFromEnv(context.Background())
		if err != nil {
			logger.Error("Failed to initialize Google Sheets client", "error", err)
			os.Exit(1)
		}
		mirror = client
		logger.Info("Google Sheets mirror initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID, "sheet", cfg.GoogleSheetName)
	case "memory":
		mirror = memsheet.New()
		logger.Info("In-memory mirror initialized (inspection only, nothing leaves the process)")
	default:
		logger.Info("Mirror disabled - nothing to consume, exiting")
		return
	}

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}

	syncWorker := worker.NewSyncWorker(store, mirror)

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func() {
		_ = amqpClient.Close()
	})

	// Catch up on anything written while the worker was down before
	// consuming new events.
	if cfg.ResyncOnStart {
		logger.Info("Performing startup resync", "timeout", cfg.ResyncTimeout.String())
		resyncCtx, cancel := context.WithTimeout(ctx, cfg.ResyncTimeout)
		if err := syncWorker.ResyncAll(resyncCtx); err != nil {
			logger.Error("Startup resync incomplete", "error", err)
			// Keep going: the queue will converge the mirror over time.
		}
		cancel()
	}

	go func() {
		err := amqpClient.ConsumeExpenseSync(ctx, func(msg *amqp.ExpenseSyncMessage) error {
			return syncWorker.HandleSyncMessage(ctx, msg)
		})
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("Message consumption stopped", "error", err)
		}
	}()

	logger.Info("Worker running, waiting for sync messages", "queue", cfg.AMQPQueue)
	cli.WaitForShutdown(ctx, done)
	logger.Info("Worker stopped gracefully")
}
