package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/danmuck/fulfillment/internal/config"
	"github.com/danmuck/fulfillment/internal/inventory"
	"github.com/danmuck/fulfillment/internal/observability"
	"github.com/danmuck/fulfillment/internal/orders"
	"github.com/danmuck/fulfillment/internal/storefront"
	"github.com/danmuck/fulfillment/internal/warranty"
	"github.com/rs/zerolog/log"
)

func main() {
	observability.InitLogger("storefront")
	configPath := flag.String("config", "cmd/storefrontctl/config.toml", "config path (empty for defaults)")
	flag.Parse()

	cfg, err := config.LoadStorefrontConfig(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load storefront config")
	}
	users, err := loadUsers(cfg.Users)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load users")
	}
	log.Info().Str("path", *configPath).Int("users", len(users)).Msg("loaded storefront config")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdown, err := observability.SetupTracing(ctx, cfg.ID, cfg.Tracing.Endpoint)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to set up tracing")
	}
	defer func() { _ = shutdown(context.Background()) }()

	store := storefront.New(
		users,
		orders.NewClient(cfg.ID, cfg.Orders.Addr, cfg.Orders.TimeoutDuration()),
		inventory.NewClient(cfg.ID, cfg.Inventory.Addr, cfg.Inventory.TimeoutDuration()),
		warranty.NewClient(cfg.ID, cfg.Warranty.Addr, cfg.Warranty.TimeoutDuration()),
	)
	server := storefront.Appear(cfg.ID, cfg.Addr, cfg.CorsOrigins, store)
	log.Info().Str("id", server.ID).Str("addr", server.Addr).Msg("storefront started")
	if err := server.Serve(ctx); err != nil {
		log.Fatal().Err(err).Msg("storefront stopped")
	}
	log.Info().Msg("storefront stopped")
}
