// Command ingest is the Pokedex cache seeding CLI.
//
// Usage:
//
//	pokedex-ingest fetch pikachu charizard ditto
//	pokedex-ingest range --start 1 --end 151
//	pokedex-ingest requests --limit 20
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/pokedexhub/pokedex-data/internal/archive"
	"github.com/pokedexhub/pokedex-data/internal/config"
	"github.com/pokedexhub/pokedex-data/internal/db"
	"github.com/pokedexhub/pokedex-data/internal/pokedex"
	"github.com/pokedexhub/pokedex-data/internal/provider/pokeapi"
	"github.com/pokedexhub/pokedex-data/internal/store"
)

var logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

func main() {
	// Load .env if present
	_ = godotenv.Load(".env")

	root := &cobra.Command{
		Use:   "pokedex-ingest",
		Short: "Pokedex cache seeding CLI",
	}

	root.AddCommand(fetchCmd())
	root.AddCommand(rangeCmd())
	root.AddCommand(requestsCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// --------------------------------------------------------------------------
// fetch command
// --------------------------------------------------------------------------

func fetchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "fetch <name>...",
		Short: "Fetch named Pokemon into the cache",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIngest(func(ctx context.Context, svc *pokedex.Service) error {
				start := time.Now()
				fetched, missing, failed := resolveAll(ctx, svc, args)
				logger.Info("Fetch finished",
					"duration", time.Since(start).Round(time.Millisecond),
					"fetched", fetched, "missing", missing, "failed", failed)
				return nil
			})
		},
	}
}

func rangeCmd() *cobra.Command {
	var start, end int
	cmd := &cobra.Command{
		Use:   "range",
		Short: "Fetch a numeric id range into the cache",
		RunE: func(cmd *cobra.Command, args []string) error {
			if start < 1 || end < start {
				return fmt.Errorf("invalid range %d..%d", start, end)
			}
			return runIngest(func(ctx context.Context, svc *pokedex.Service) error {
				names := make([]string, 0, end-start+1)
				for id := start; id <= end; id++ {
					// PokeAPI resolves numeric ids through the same endpoint.
					names = append(names, strconv.Itoa(id))
				}
				startAt := time.Now()
				fetched, missing, failed := resolveAll(ctx, svc, names)
				logger.Info("Range fetch finished",
					"duration", time.Since(startAt).Round(time.Millisecond),
					"fetched", fetched, "missing", missing, "failed", failed)
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&start, "start", 1, "First Pokemon id")
	cmd.Flags().IntVar(&end, "end", 151, "Last Pokemon id")
	return cmd
}

// resolveAll resolves names one at a time; there is no batching in the
// reconciliation flow, so the CLI just loops.
func resolveAll(ctx context.Context, svc *pokedex.Service, names []string) (fetched, missing, failed int) {
	for i, name := range names {
		if ctx.Err() != nil {
			logger.Warn("Interrupted", "remaining", len(names)-i)
			return
		}
		p, err := svc.Resolve(ctx, name)
		var notFound *pokeapi.NotFoundError
		switch {
		case err == nil:
			fetched++
			logger.Info("Cached", "name", p.Name, "id", p.PokemonID)
		case errors.As(err, &notFound):
			missing++
			logger.Warn("Not found", "name", name)
		default:
			failed++
			logger.Error("Fetch failed", "name", name, "error", err)
		}
		if (i+1)%50 == 0 {
			logger.Info("Progress", "processed", i+1, "total", len(names))
		}
	}
	return
}

// --------------------------------------------------------------------------
// requests command
// --------------------------------------------------------------------------

func requestsCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "requests",
		Short: "Show recent PokeAPI request log entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithPool(func(ctx context.Context, cfg *config.Config, pool *db.Pool) error {
				entries, err := store.NewRequestLogStore(pool.Pool).Recent(ctx, limit)
				if err != nil {
					return err
				}
				for _, e := range entries {
					fmt.Println(e.String())
				}
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 10, "Maximum entries to show")
	return cmd
}

// --------------------------------------------------------------------------
// Shared plumbing
// --------------------------------------------------------------------------

func runIngest(fn func(ctx context.Context, svc *pokedex.Service) error) error {
	return runWithPool(func(ctx context.Context, cfg *config.Config, pool *db.Pool) error {
		client := pokeapi.NewClient(pokeapi.Config{
			BaseURL:           cfg.PokeAPIBaseURL,
			UserAgent:         cfg.PokeAPIUserAgent,
			Timeout:           cfg.PokeAPITimeout,
			RequestsPerMinute: cfg.PokeAPIPerMinute,
		}, logger)

		var arc pokedex.Archiver
		if cfg.ArchiveEnabled {
			arc = archive.NewStore(cfg.MediaRoot, logger)
		}

		svc := pokedex.NewService(
			store.NewPokemonStore(pool.Pool),
			store.NewRequestLogStore(pool.Pool),
			client, arc, logger,
		)
		return fn(ctx, svc)
	})
}

func runWithPool(fn func(ctx context.Context, cfg *config.Config, pool *db.Pool) error) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	pool, err := db.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer pool.Close()

	return fn(ctx, cfg, pool)
}
