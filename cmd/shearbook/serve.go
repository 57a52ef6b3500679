// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Shearbook Contributors

package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/shearbook/shearbook/internal/auth"
	authpg "github.com/shearbook/shearbook/internal/auth/postgres"
	"github.com/shearbook/shearbook/internal/config"
	"github.com/shearbook/shearbook/internal/httpapi"
	"github.com/shearbook/shearbook/internal/logging"
	"github.com/shearbook/shearbook/internal/observability"
	"github.com/shearbook/shearbook/internal/store"
)

const shutdownTimeout = 10 * time.Second

// newServeCmd creates the serve subcommand with all flags configured.
func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the auth API server",
		Long: `Start the authentication HTTP API, serving signup, login, profile
lookup, and token refresh, plus a separate metrics/health listener.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), cmd)
		},
	}

	cmd.Flags().String("http-addr", config.DefaultHTTPAddr, "auth API listen address")
	cmd.Flags().String("metrics-addr", config.DefaultMetricsAddr, "metrics/health HTTP address (empty = disabled)")
	cmd.Flags().String("log-format", config.DefaultLogFormat, "log format (json or text)")

	return cmd
}

func runServe(ctx context.Context, cmd *cobra.Command) error {
	cfg, err := config.Load(configFile, cmd.Flags())
	if err != nil {
		return err
	}

	logging.SetDefault("auth-api", cmd.Root().Version, cfg.LogFormat)
	logger := slog.Default()

	logger.Info("starting auth service",
		"http_addr", cfg.HTTPAddr,
		"metrics_addr", cfg.MetricsAddr,
		"access_ttl", cfg.AccessTokenTTL.String(),
		"refresh_ttl", cfg.RefreshTokenTTL.String(),
	)

	pool, err := store.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer pool.Close()

	codec, err := auth.NewTokenCodec(auth.TokenConfig{
		Secret:     []byte(cfg.JWTSecret),
		AccessTTL:  cfg.AccessTokenTTL,
		RefreshTTL: cfg.RefreshTokenTTL,
	})
	if err != nil {
		return err
	}

	accounts := authpg.NewAccountRepository(pool)
	service, err := auth.NewServiceWithLogger(accounts, auth.NewArgon2idHasher(), codec, logger)
	if err != nil {
		return err
	}

	// Observability listener is optional; the API works without it.
	var metrics *observability.Metrics
	var obsErrCh <-chan error
	var obs *observability.Server
	if cfg.MetricsAddr != "" {
		obs = observability.NewServer(cfg.MetricsAddr, func() bool {
			pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
			defer cancel()
			return pool.Ping(pingCtx) == nil
		})
		obsErrCh, err = obs.Start()
		if err != nil {
			return err
		}
		metrics = obs.Metrics()
	}

	api, err := httpapi.NewServer(cfg.HTTPAddr, service, codec, logger, metrics)
	if err != nil {
		return err
	}
	apiErrCh, err := api.Start()
	if err != nil {
		return err
	}

	// Wait for a signal or a server failure.
	sigCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case <-sigCtx.Done():
		logger.Info("shutdown signal received")
	case serveErr := <-apiErrCh:
		if serveErr != nil {
			return serveErr
		}
	case obsErr := <-obsErrCh:
		if obsErr != nil {
			return obsErr
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := api.Stop(shutdownCtx); err != nil {
		logger.Warn("auth API shutdown error", "error", err)
	}
	if obs != nil {
		if err := obs.Stop(shutdownCtx); err != nil {
			logger.Warn("observability shutdown error", "error", err)
		}
	}

	return nil
}
