// GeoDesk - Web GIS Dataset Viewer and Editor
// Copyright 2026 choiwjun
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/choiwjun/gis

package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/choiwjun/gis/internal/api"
	"github.com/choiwjun/gis/internal/auth"
	"github.com/choiwjun/gis/internal/blob"
	"github.com/choiwjun/gis/internal/config"
	"github.com/choiwjun/gis/internal/database"
	"github.com/choiwjun/gis/internal/demo"
	"github.com/choiwjun/gis/internal/logging"
	"github.com/choiwjun/gis/internal/store"
	"github.com/choiwjun/gis/internal/store/memory"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	seed := flag.Bool("seed", false, "seed demo users and data on startup")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logging.Fatal().Err(err).Msg("configuration invalid")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := openStore(ctx, cfg)
	if err != nil {
		logging.Fatal().Err(err).Msg("opening store failed")
	}
	defer func() {
		if err := st.Close(); err != nil {
			logging.Error().Err(err).Msg("closing store failed")
		}
	}()

	blobs, err := openBlobStore(cfg)
	if err != nil {
		logging.Fatal().Err(err).Msg("opening blob store failed")
	}

	// The memory backend starts empty on every boot, so it is always
	// seeded; persistent backends only on request.
	if *seed || cfg.Database.Backend == "memory" {
		if err := demo.Seed(ctx, st, cfg.Security.BcryptCost); err != nil {
			logging.Fatal().Err(err).Msg("seeding demo data failed")
		}
	}

	tokens := auth.NewManager(cfg.Security.JWTSecret, cfg.Security.TokenTTL)
	handler := api.NewHandler(st, blobs, cfg, tokens)

	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      handler.Routes(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logging.Info().
			Str("addr", server.Addr).
			Str("database", cfg.Database.Backend).
			Str("blob", cfg.Blob.Backend).
			Msg("server listening")
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logging.Info().Msg("shutdown signal received")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Fatal().Err(err).Msg("server failed")
		}
		return
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logging.Error().Err(err).Msg("graceful shutdown failed")
	}
	logging.Info().Msg("server stopped")
}

func openStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	switch cfg.Database.Backend {
	case "memory":
		return memory.New(), nil
	default:
		return database.New(ctx, cfg.Database)
	}
}

func openBlobStore(cfg *config.Config) (blob.Store, error) {
	switch cfg.Blob.Backend {
	case "memory":
		return blob.NewMemoryStore(), nil
	default:
		return blob.NewFSStore(cfg.Blob.Dir)
	}
}
