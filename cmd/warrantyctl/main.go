package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/danmuck/fulfillment/internal/config"
	"github.com/danmuck/fulfillment/internal/database"
	"github.com/danmuck/fulfillment/internal/observability"
	"github.com/danmuck/fulfillment/internal/warranty"
	"github.com/rs/zerolog/log"
)

func main() {
	observability.InitLogger("warranty")
	configPath := flag.String("config", "cmd/warrantyctl/config.toml", "config path (empty for defaults)")
	flag.Parse()

	cfg, err := config.LoadWarrantyConfig(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load warranty config")
	}
	log.Info().Str("path", *configPath).Msg("loaded warranty config")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdown, err := observability.SetupTracing(ctx, cfg.ID, cfg.Tracing.Endpoint)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to set up tracing")
	}
	defer func() { _ = shutdown(context.Background()) }()

	var store warranty.Store = warranty.NewMemoryStore()
	if cfg.Database.UsesGorm() {
		db, err := database.Open(cfg.Database)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to open database")
		}
		defer func() { _ = database.Close(db) }()
		gs := warranty.NewGormStore(db)
		if err := gs.Migrate(); err != nil {
			log.Fatal().Err(err).Msg("failed to migrate warranty schema")
		}
		store = gs
	}

	server := warranty.Appear(cfg.ID, cfg.Addr, cfg.CorsOrigins, warranty.NewEngine(store))
	log.Info().Str("id", server.ID).Str("addr", server.Addr).Str("driver", cfg.Database.Driver).Msg("warranty started")
	if err := server.Serve(ctx); err != nil {
		log.Fatal().Err(err).Msg("warranty stopped")
	}
	log.Info().Msg("warranty stopped")
}
