package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"financas/internal/amqp"
	"financas/internal/cli"
	apphttp "financas/internal/http"
	"financas/internal/receipt"
	"financas/internal/services"
	"financas/internal/suggest"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger()
	cfg := cli.LoadAndValidateConfig(logger)

	logger.Info("Starting financas server", "port", cfg.Port)

	store := cli.InitStore(logger, cfg.SQLiteDBPath)
	defer func() { _ = store.Close() }()

	// The broker is optional for the server: local writes must succeed
	// even when nothing can be mirrored.
	var publisher services.SyncPublisher
	if cfg.AMQPURL != "" {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("AMQP broker unavailable, sync publishing disabled", "error", err)
		} else {
			defer func() { _ = amqpClient.Close() }()
			publisher = amqpClient
			logger.Info("AMQP publisher initialized", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
		}
	}

	settingsSvc := services.NewSettingsService(store)

	suggester := suggest.NewClient(cfg.GeminiAPIKey)
	if suggester == nil {
		logger.Info("Suggestions disabled - no GEMINI_API_KEY provided")
	}

	srv := apphttp.NewServer(":"+cfg.Port, apphttp.Deps{
		Expenses:   services.NewExpenseService(store, publisher, settingsSvc),
		Categories: services.NewCategoryService(store),
		Settings:   settingsSvc,
		Store:      store,
		Suggester:  suggester,
		Receipts:   receipt.NewNormalizer(),
	})
	srv.ReadTimeout = 30 * time.Second
	srv.WriteTimeout = 30 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server error", "error", err)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}
