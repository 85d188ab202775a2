package main

import (
	"flag"
	"fmt"

	"github.com/danmuck/fulfillment/internal/config"
	"github.com/danmuck/fulfillment/internal/observability"
	"github.com/rs/zerolog/log"
)

var defaultPaths = map[string]string{
	"warranty":   "cmd/warrantyctl/config.toml",
	"inventory":  "cmd/inventoryctl/config.toml",
	"orders":     "cmd/orderctl/config.toml",
	"storefront": "cmd/storefrontctl/config.toml",
	"catalog":    "cmd/inventoryctl/catalog.toml",
	"users":      "cmd/storefrontctl/users.toml",
}

func main() {
	observability.InitLogger("configgen")
	kind := flag.String("kind", "orders", fmt.Sprintf("config kind: %v", config.Kinds))
	output := flag.String("output", "", "output path for config template")
	validate := flag.Bool("validate", false, "validate an existing config file")
	input := flag.String("input", "", "config path for validation (defaults to per-kind cmd path)")
	force := flag.Bool("force", false, "overwrite existing config file")
	flag.Parse()

	if *validate {
		path := *input
		if path == "" {
			path = defaultPaths[*kind]
		}
		if err := validateFile(*kind, path); err != nil {
			log.Fatal().Err(err).Str("kind", *kind).Msg("config invalid")
		}
		log.Info().Str("kind", *kind).Str("path", path).Msg("validated config")
		return
	}

	target := *output
	if target == "" {
		p, ok := defaultPaths[*kind]
		if !ok {
			log.Fatal().Str("kind", *kind).Msg("unknown kind")
		}
		target = p
	}
	if err := config.WriteTemplate(target, *kind, *force); err != nil {
		log.Fatal().Err(err).Msg("write template failed")
	}
	log.Info().Str("kind", *kind).Str("path", target).Msg("wrote config template")
}

func validateFile(kind, path string) error {
	var err error
	switch kind {
	case "warranty":
		_, err = config.LoadWarrantyConfig(path)
	case "inventory":
		_, err = config.LoadInventoryConfig(path)
	case "orders":
		_, err = config.LoadOrdersConfig(path)
	case "storefront":
		_, err = config.LoadStorefrontConfig(path)
	default:
		err = fmt.Errorf("kind %q has no validator", kind)
	}
	return err
}
