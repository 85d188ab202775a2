// Package config loads the per-service TOML files and applies the environment
// overrides each process honours.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/danmuck/fulfillment/internal/database"
	"github.com/pelletier/go-toml/v2"
)

// Node holds the settings every service shares.
type Node struct {
	ID          string          `toml:"id"`
	Addr        string          `toml:"addr"`
	CorsOrigins []string        `toml:"cors_origins"`
	Database    database.Config `toml:"database"`
	Tracing     TracingConfig   `toml:"tracing"`
}

type TracingConfig struct {
	Endpoint string `toml:"endpoint"`
}

// UpstreamConfig points at another service. Timeout is a Go duration string; empty
// or "0" leaves calls unbounded.
type UpstreamConfig struct {
	Addr    string `toml:"addr"`
	Timeout string `toml:"timeout"`
}

func (u UpstreamConfig) TimeoutDuration() time.Duration {
	d, err := time.ParseDuration(strings.TrimSpace(u.Timeout))
	if err != nil {
		return 0
	}
	return d
}

type WarrantyConfig struct {
	Node
}

type InventoryConfig struct {
	Node
	Catalog    string         `toml:"catalog"`
	ResetStock bool           `toml:"reset_stock"`
	Warranty   UpstreamConfig `toml:"warranty"`
}

type OrdersConfig struct {
	Node
	Inventory UpstreamConfig `toml:"inventory"`
	Warranty  UpstreamConfig `toml:"warranty"`
}

type StorefrontConfig struct {
	Node
	Users     string         `toml:"users"`
	Orders    UpstreamConfig `toml:"orders"`
	Inventory UpstreamConfig `toml:"inventory"`
	Warranty  UpstreamConfig `toml:"warranty"`
}

const (
	defaultWarrantyAddr   = ":8180"
	defaultInventoryAddr  = ":8280"
	defaultOrdersAddr     = ":8380"
	defaultStorefrontAddr = ":8480"
)

// LoadWarrantyConfig reads path (skipped when empty), fills defaults, applies env
// overrides and validates the result.
func LoadWarrantyConfig(path string) (WarrantyConfig, error) {
	var cfg WarrantyConfig
	if err := loadToml(path, &cfg); err != nil {
		return WarrantyConfig{}, err
	}
	cfg.Node.defaults("warrantyctl", defaultWarrantyAddr)
	cfg.Node.applyEnv()
	if err := cfg.Node.validate("warranty"); err != nil {
		return WarrantyConfig{}, err
	}
	return cfg, nil
}

func LoadInventoryConfig(path string) (InventoryConfig, error) {
	var cfg InventoryConfig
	if err := loadToml(path, &cfg); err != nil {
		return InventoryConfig{}, err
	}
	cfg.Node.defaults("inventoryctl", defaultInventoryAddr)
	upstreamDefault(&cfg.Warranty, defaultWarrantyAddr)

	cfg.Node.applyEnv()
	envUpstream(&cfg.Warranty, "WARRANTY_SERVICE")

	if err := cfg.Node.validate("inventory"); err != nil {
		return InventoryConfig{}, err
	}
	if err := validateUpstream("warranty", cfg.Warranty); err != nil {
		return InventoryConfig{}, err
	}
	return cfg, nil
}

func LoadOrdersConfig(path string) (OrdersConfig, error) {
	var cfg OrdersConfig
	if err := loadToml(path, &cfg); err != nil {
		return OrdersConfig{}, err
	}
	cfg.Node.defaults("orderctl", defaultOrdersAddr)
	upstreamDefault(&cfg.Inventory, defaultInventoryAddr)
	upstreamDefault(&cfg.Warranty, defaultWarrantyAddr)

	cfg.Node.applyEnv()
	envUpstream(&cfg.Inventory, "WAREHOUSE_SERVICE", "INVENTORY_SERVICE")
	envUpstream(&cfg.Warranty, "WARRANTY_SERVICE")

	if err := cfg.Node.validate("orders"); err != nil {
		return OrdersConfig{}, err
	}
	for name, u := range map[string]UpstreamConfig{"inventory": cfg.Inventory, "warranty": cfg.Warranty} {
		if err := validateUpstream(name, u); err != nil {
			return OrdersConfig{}, err
		}
	}
	return cfg, nil
}

func LoadStorefrontConfig(path string) (StorefrontConfig, error) {
	var cfg StorefrontConfig
	if err := loadToml(path, &cfg); err != nil {
		return StorefrontConfig{}, err
	}
	cfg.Node.defaults("storefrontctl", defaultStorefrontAddr)
	upstreamDefault(&cfg.Orders, defaultOrdersAddr)
	upstreamDefault(&cfg.Inventory, defaultInventoryAddr)
	upstreamDefault(&cfg.Warranty, defaultWarrantyAddr)

	cfg.Node.applyEnv()
	envUpstream(&cfg.Orders, "ORDER_SERVICE")
	envUpstream(&cfg.Inventory, "WAREHOUSE_SERVICE", "INVENTORY_SERVICE")
	envUpstream(&cfg.Warranty, "WARRANTY_SERVICE")

	if err := cfg.Node.validate("storefront"); err != nil {
		return StorefrontConfig{}, err
	}
	for name, u := range map[string]UpstreamConfig{"orders": cfg.Orders, "inventory": cfg.Inventory, "warranty": cfg.Warranty} {
		if err := validateUpstream(name, u); err != nil {
			return StorefrontConfig{}, err
		}
	}
	return cfg, nil
}

func loadToml(path string, out any) error {
	if strings.TrimSpace(path) == "" {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config load failed (%s): %w", path, err)
	}
	if err := toml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("config parse failed (%s): %w", path, err)
	}
	return nil
}

func (n *Node) defaults(id, addr string) {
	if strings.TrimSpace(n.ID) == "" {
		n.ID = id
	}
	if strings.TrimSpace(n.Addr) == "" {
		n.Addr = addr
	}
	if strings.TrimSpace(n.Database.Driver) == "" {
		n.Database.Driver = database.DriverMemory
	}
}

func (n *Node) applyEnv() {
	if port := env("PORT"); port != "" {
		n.Addr = ":" + strings.TrimPrefix(port, ":")
	}
	if driver := env("DATABASE_DRIVER"); driver != "" {
		n.Database.Driver = driver
	}
	if dsn := env("DATABASE_DSN"); dsn != "" {
		n.Database.DSN = dsn
	}
	if endpoint := env("OTEL_EXPORTER_OTLP_ENDPOINT"); endpoint != "" {
		n.Tracing.Endpoint = endpoint
	}
}

func (n Node) validate(kind string) error {
	if strings.TrimSpace(n.ID) == "" {
		return fmt.Errorf("%s config missing id", kind)
	}
	if strings.TrimSpace(n.Addr) == "" {
		return fmt.Errorf("%s config missing addr", kind)
	}
	switch strings.ToLower(strings.TrimSpace(n.Database.Driver)) {
	case database.DriverMemory, database.DriverSQLite:
	case database.DriverPostgres:
		if strings.TrimSpace(n.Database.DSN) == "" {
			return fmt.Errorf("%s config: postgres requires database.dsn", kind)
		}
	default:
		return fmt.Errorf("%s config: unknown database driver %q", kind, n.Database.Driver)
	}
	return nil
}

func upstreamDefault(u *UpstreamConfig, addr string) {
	if strings.TrimSpace(u.Addr) == "" {
		u.Addr = "localhost" + addr
	}
}

// envUpstream applies the first non-empty variable of names.
func envUpstream(u *UpstreamConfig, names ...string) {
	for _, name := range names {
		if v := env(name); v != "" {
			u.Addr = v
			return
		}
	}
}

func validateUpstream(name string, u UpstreamConfig) error {
	if strings.TrimSpace(u.Addr) == "" {
		return fmt.Errorf("%s upstream missing addr", name)
	}
	if t := strings.TrimSpace(u.Timeout); t != "" {
		d, err := time.ParseDuration(t)
		if err != nil {
			return fmt.Errorf("%s upstream timeout: %w", name, err)
		}
		if d < 0 {
			return fmt.Errorf("%s upstream timeout must not be negative", name)
		}
	}
	return nil
}

func env(name string) string {
	return strings.TrimSpace(os.Getenv(name))
}
