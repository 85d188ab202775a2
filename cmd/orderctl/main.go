package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/danmuck/fulfillment/internal/config"
	"github.com/danmuck/fulfillment/internal/database"
	"github.com/danmuck/fulfillment/internal/inventory"
	"github.com/danmuck/fulfillment/internal/observability"
	"github.com/danmuck/fulfillment/internal/orders"
	"github.com/danmuck/fulfillment/internal/warranty"
	"github.com/rs/zerolog/log"
)

func main() {
	observability.InitLogger("orders")
	configPath := flag.String("config", "cmd/orderctl/config.toml", "config path (empty for defaults)")
	flag.Parse()

	cfg, err := config.LoadOrdersConfig(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load orders config")
	}
	log.Info().Str("path", *configPath).Msg("loaded orders config")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdown, err := observability.SetupTracing(ctx, cfg.ID, cfg.Tracing.Endpoint)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to set up tracing")
	}
	defer func() { _ = shutdown(context.Background()) }()

	var store orders.Store = orders.NewMemoryStore()
	if cfg.Database.UsesGorm() {
		db, err := database.Open(cfg.Database)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to open database")
		}
		defer func() { _ = database.Close(db) }()
		gs := orders.NewGormStore(db)
		if err := gs.Migrate(); err != nil {
			log.Fatal().Err(err).Msg("failed to migrate orders schema")
		}
		store = gs
	}

	orch := orders.NewOrchestrator(
		store,
		inventory.NewClient(cfg.ID, cfg.Inventory.Addr, cfg.Inventory.TimeoutDuration()),
		warranty.NewClient(cfg.ID, cfg.Warranty.Addr, cfg.Warranty.TimeoutDuration()),
	)
	server := orders.Appear(cfg.ID, cfg.Addr, cfg.CorsOrigins, orch)
	log.Info().
		Str("id", server.ID).
		Str("addr", server.Addr).
		Str("inventory", cfg.Inventory.Addr).
		Str("warranty", cfg.Warranty.Addr).
		Msg("orders started")
	if err := server.Serve(ctx); err != nil {
		log.Fatal().Err(err).Msg("orders stopped")
	}
	log.Info().Msg("orders stopped")
}
