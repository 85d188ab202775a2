package config

import (
	"fmt"
	"os"
	"strings"
)

// Kinds lists the config kinds Template knows.
var Kinds = []string{"warranty", "inventory", "orders", "storefront", "catalog", "users"}

func Template(kind string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "warranty":
		return warrantyTemplate, nil
	case "inventory":
		return inventoryTemplate, nil
	case "orders":
		return ordersTemplate, nil
	case "storefront":
		return storefrontTemplate, nil
	case "catalog":
		return catalogTemplate, nil
	case "users":
		return usersTemplate, nil
	default:
		return "", fmt.Errorf("unknown config kind: %s", kind)
	}
}

func WriteTemplate(path, kind string, overwrite bool) error {
	template, err := Template(kind)
	if err != nil {
		return err
	}
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config already exists: %s", path)
		}
	}
	return os.WriteFile(path, []byte(template), 0o600)
}

const warrantyTemplate = `id = "warrantyctl"
addr = ":8180"
cors_origins = ["http://localhost:3000"]

[database]
driver = "sqlite"
dsn = "warranty.db"

[tracing]
endpoint = ""
`

const inventoryTemplate = `id = "inventoryctl"
addr = ":8280"
cors_origins = ["http://localhost:3000"]
catalog = "cmd/inventoryctl/catalog.toml"
reset_stock = false

[database]
driver = "sqlite"
dsn = "inventory.db"

[tracing]
endpoint = ""

[warranty]
addr = "localhost:8180"
timeout = "0"
`

const ordersTemplate = `id = "orderctl"
addr = ":8380"
cors_origins = ["http://localhost:3000"]

[database]
driver = "sqlite"
dsn = "orders.db"

[tracing]
endpoint = ""

[inventory]
addr = "localhost:8280"
timeout = "0"

[warranty]
addr = "localhost:8180"
timeout = "0"
`

const storefrontTemplate = `id = "storefrontctl"
addr = ":8480"
cors_origins = ["http://localhost:3000"]
users = "cmd/storefrontctl/users.toml"

[tracing]
endpoint = ""

[orders]
addr = "localhost:8380"
timeout = "0"

[inventory]
addr = "localhost:8280"
timeout = "0"

[warranty]
addr = "localhost:8180"
timeout = "0"
`

const catalogTemplate = `[[items]]
id = 1
model = "Lego 8070"
size = "M"
available_count = 10000

[[items]]
id = 2
model = "Lego 42070"
size = "L"
available_count = 10000

[[items]]
id = 3
model = "Lego 8880"
size = "L"
available_count = 10000
`

const usersTemplate = `[[users]]
name = "Alex"
uid = "6d2cb5a0-943c-4b96-9aa6-89eac7bdfd2b"
`
