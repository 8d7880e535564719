// Package main runs the shipenv sync server.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shipenv/shipenv/server"
	"github.com/shipenv/shipenv/server/stores"
)

func main() {
	level := slog.LevelInfo
	if os.Getenv("SHIPENV_DEBUG") != "" {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	store, cleanup, err := buildStore(logger)
	if err != nil {
		logger.Error("failed to initialize store", "error", err)
		os.Exit(1)
	}
	defer cleanup()

	srv := server.NewServer(store, stores.NewMemoryUserStore(), server.Options{Logger: logger})

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe(":" + port)
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	case sig := <-sigCh:
		logger.Info("shutting down", "signal", sig.String())
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			os.Exit(1)
		}
	}
}

// buildStore selects the profile store backend from SHIPENV_STORE
// (memory, bolt or datastore).
func buildStore(logger *slog.Logger) (stores.ProfileStore, func(), error) {
	noop := func() {}
	switch os.Getenv("SHIPENV_STORE") {
	case "bolt":
		path := os.Getenv("SHIPENV_BOLT_PATH")
		if path == "" {
			path = "shipenv-sync.db"
		}
		boltStore, err := stores.NewBoltStore(path)
		if err != nil {
			return nil, noop, err
		}
		logger.Info("using BoltDB store", "path", path)
		return boltStore, func() { boltStore.Close() }, nil
	case "datastore":
		dsStore, err := stores.NewDatastoreStoreFromEnv(context.Background())
		if err != nil {
			return nil, noop, err
		}
		logger.Info("using Cloud Datastore store")
		return dsStore, func() { dsStore.Close() }, nil
	default:
		logger.Info("using in-memory store")
		return stores.NewMemoryStore(), noop, nil
	}
}
