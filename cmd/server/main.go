// Package main SACCO back-office API server
//
// @title PesaFlow SACCO API
// @version 1.0
// @description Savings cooperative back-office: members, accounts and the transaction ledger
//
// @host localhost:8080
// @BasePath /api
//
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the access token
package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pesaflow/sacco-api/internal/api"
	"github.com/pesaflow/sacco-api/internal/auth"
	"github.com/pesaflow/sacco-api/internal/config"
	"github.com/pesaflow/sacco-api/internal/ledger"
	"github.com/pesaflow/sacco-api/internal/store"
)

func main() {
	// Setup structured JSON logging.
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	st, err := store.New(cfg.DBPath)
	if err != nil {
		slog.Error("failed to initialize store", "error", err, "db_path", cfg.DBPath)
		os.Exit(1)
	}
	defer func() {
		if err := st.Close(); err != nil {
			slog.Error("failed to close store", "error", err)
		}
	}()

	slog.Info("database initialized", "db_path", cfg.DBPath)

	r := api.NewRouter(api.Deps{
		Store:      st,
		Ledger:     ledger.NewService(st),
		Tokens:     auth.NewManager(cfg.JWTSecret, cfg.TokenTTL),
		BcryptCost: cfg.BcryptCost,
	})

	addr := fmt.Sprintf(":%s", cfg.Port)
	slog.Info("starting SACCO API server", "addr", addr)

	server := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	go func() {
		sigint := make(chan os.Signal, 1)
		signal.Notify(sigint, os.Interrupt, syscall.SIGTERM)
		<-sigint

		slog.Info("shutting down server")
		if err := server.Close(); err != nil {
			slog.Error("server shutdown error", "error", err)
		}
	}()

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}

	slog.Info("server stopped")
}
