package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/Checker-Finance/secrets-manager-sdk/gateway/internal/api"
	"github.com/Checker-Finance/secrets-manager-sdk/gateway/pkg/config"
	"github.com/Checker-Finance/secrets-manager-sdk/internal/client"
	"github.com/Checker-Finance/secrets-manager-sdk/pkg/logger"
	"github.com/Checker-Finance/secrets-manager-sdk/pkg/utils"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Load configuration ---
	cfg := config.Load()

	log := logger.Init(cfg.ServiceName, cfg.Client.Env, cfg.Client.LogLevel)
	defer logger.Sync()
	logg := log.Sugar()
	logg.Info("starting [sm-gateway]...")
	if cfg.Client.DatabaseURL != "" {
		logg.Info("audit journal DSN: ", utils.MaskDSN(cfg.Client.DatabaseURL))
	}

	// --- Secrets Manager client (auth, transport, observers) ---
	smClient, err := client.New(ctx, cfg.Client, log, client.Deps{Source: cfg.ServiceName})
	if err != nil {
		logg.Fatalw("failed to init secrets manager client", "error", err)
	}

	// --- IAM token refresher ---
	if smClient.Refresher != nil {
		go smClient.Refresher.Start(ctx)
	}

	// --- Fiber HTTP Server ---
	app := fiber.New(fiber.Config{
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
		BodyLimit:    cfg.HTTPBodyLimit,
	})

	checks := map[string]api.HealthCheck{}
	for name, check := range smClient.HealthChecks() {
		checks[name] = check
	}
	handler := api.NewOperationHandler(log.Named("api"), smClient.Service)
	api.RegisterRoutes(app, handler, checks)

	go func() {
		logg.Infof("HTTP API listening on :%d", cfg.Port)
		if err := app.Listen(fmt.Sprintf(":%d", cfg.Port)); err != nil {
			logg.Fatalw("fiber.listen_failed", "error", err)
		}
	}()

	logg.Infow("[sm-gateway] running",
		"env", cfg.Client.Env,
		"generation", smClient.Service.Generation(),
		"operations", len(smClient.Service.Operations()))

	<-ctx.Done()
	logg.Info("shutting down [sm-gateway]...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logg.Warnw("fiber.shutdown_failed", "error", err)
	}
	if err := smClient.Close(); err != nil {
		log.Warn("client.close_failed", zap.Error(err))
	}
}
