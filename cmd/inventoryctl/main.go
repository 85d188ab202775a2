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
	"github.com/danmuck/fulfillment/internal/warranty"
	"github.com/rs/zerolog/log"
)

func main() {
	observability.InitLogger("inventory")
	configPath := flag.String("config", "cmd/inventoryctl/config.toml", "config path (empty for defaults)")
	flag.Parse()

	cfg, err := config.LoadInventoryConfig(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load inventory config")
	}
	catalog, err := loadCatalog(cfg.Catalog)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load catalog")
	}
	log.Info().Str("path", *configPath).Int("catalog_items", len(catalog)).Msg("loaded inventory config")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdown, err := observability.SetupTracing(ctx, cfg.ID, cfg.Tracing.Endpoint)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to set up tracing")
	}
	defer func() { _ = shutdown(context.Background()) }()

	var store inventory.Store = inventory.NewMemoryStore()
	if cfg.Database.UsesGorm() {
		db, err := database.Open(cfg.Database)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to open database")
		}
		defer func() { _ = database.Close(db) }()
		gs := inventory.NewGormStore(db)
		if err := gs.Migrate(); err != nil {
			log.Fatal().Err(err).Msg("failed to migrate inventory schema")
		}
		store = gs
	}

	decider := warranty.NewClient(cfg.ID, cfg.Warranty.Addr, cfg.Warranty.TimeoutDuration())
	ledger := inventory.NewLedger(store, decider)
	if err := ledger.Seed(ctx, catalog, cfg.ResetStock); err != nil {
		log.Fatal().Err(err).Msg("failed to seed stock")
	}

	server := inventory.Appear(cfg.ID, cfg.Addr, cfg.CorsOrigins, ledger)
	log.Info().
		Str("id", server.ID).
		Str("addr", server.Addr).
		Str("warranty", cfg.Warranty.Addr).
		Msg("inventory started")
	if err := server.Serve(ctx); err != nil {
		log.Fatal().Err(err).Msg("inventory stopped")
	}
	log.Info().Msg("inventory stopped")
}
