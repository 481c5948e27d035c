// Command api is the Pokedex Data API server.
//
// Usage:
//
//	pokedex-api
//	API_PORT=8080 pokedex-api

// @title Pokedex Data API
// @version 1.0.0
// @description Pokemon lookup API backed by a Postgres cache of PokeAPI resources. Cache misses are fetched on demand, upserted, and audited in a request log.
// @host localhost:8000
// @BasePath /api/v1
// @schemes http https
// @license.name MIT
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"

	"github.com/pokedexhub/pokedex-data/internal/api"
	"github.com/pokedexhub/pokedex-data/internal/api/handler"
	"github.com/pokedexhub/pokedex-data/internal/archive"
	"github.com/pokedexhub/pokedex-data/internal/cache"
	"github.com/pokedexhub/pokedex-data/internal/config"
	"github.com/pokedexhub/pokedex-data/internal/db"
	"github.com/pokedexhub/pokedex-data/internal/maintenance"
	"github.com/pokedexhub/pokedex-data/internal/pokedex"
	"github.com/pokedexhub/pokedex-data/internal/provider/pokeapi"
	"github.com/pokedexhub/pokedex-data/internal/store"

	_ "github.com/pokedexhub/pokedex-data/docs" // swagger docs
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	// Load .env if present
	_ = godotenv.Load(".env")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Context with signal handling
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	// Connect to database
	logger.Info("Connecting to database...")
	pool, err := db.New(ctx, cfg)
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()
	logger.Info("Database connected",
		"min_conns", cfg.DBPoolMinConns,
		"max_conns", cfg.DBPoolMaxConns)

	// Stores over the shared pool
	pokemons := store.NewPokemonStore(pool.Pool)
	requests := store.NewRequestLogStore(pool.Pool)

	// PokeAPI client
	client := pokeapi.NewClient(pokeapi.Config{
		BaseURL:           cfg.PokeAPIBaseURL,
		UserAgent:         cfg.PokeAPIUserAgent,
		Timeout:           cfg.PokeAPITimeout,
		RequestsPerMinute: cfg.PokeAPIPerMinute,
	}, logger)

	// Best-effort raw payload archive
	var arc pokedex.Archiver
	if cfg.ArchiveEnabled {
		arc = archive.NewStore(cfg.MediaRoot, logger)
	}

	// Reconciliation service
	service := pokedex.NewService(pokemons, requests, client, arc, logger)

	// Response cache
	appCache := cache.New(cfg.CacheEnabled)
	logger.Info("Response cache initialized", "enabled", cfg.CacheEnabled)

	// Request log retention sweep
	go maintenance.Start(ctx, requests, maintenance.DefaultConfig(cfg.RequestLogMaxAge), logger)

	// Create router
	h := handler.New(service, pokemons, requests, pool, appCache, cfg)
	router := api.NewRouter(h, cfg)

	// Create HTTP server
	addr := fmt.Sprintf("%s:%d", cfg.APIHost, cfg.APIPort)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in background
	go func() {
		logger.Info("Starting Pokedex Data API",
			"addr", addr,
			"environment", cfg.Environment,
			"docs", fmt.Sprintf("http://localhost:%d/docs/", cfg.APIPort))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt
	<-ctx.Done()
	logger.Info("Shutting down...")

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Shutdown error", "error", err)
	}
	logger.Info("Server stopped")
}
