package main

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/danmuck/fulfillment/internal/storefront"
	"github.com/google/uuid"
)

type usersFile struct {
	Users []storefront.User `toml:"users"`
}

// loadUsers reads the storefront user list. An empty path, or a file without a users
// table, yields the default user.
func loadUsers(path string) ([]storefront.User, error) {
	if strings.TrimSpace(path) == "" {
		return storefront.DefaultUsers(), nil
	}

	var raw usersFile
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return nil, fmt.Errorf("load users: %w", err)
	}
	if !meta.IsDefined("users") {
		return storefront.DefaultUsers(), nil
	}

	out := make([]storefront.User, 0, len(raw.Users))
	seen := make(map[string]struct{}, len(raw.Users))
	for i, u := range raw.Users {
		uid := strings.TrimSpace(u.UID)
		if _, err := uuid.Parse(uid); err != nil {
			return nil, fmt.Errorf("user[%d]: uid %q: %w", i, u.UID, err)
		}
		if _, dup := seen[uid]; dup {
			return nil, fmt.Errorf("user[%d]: duplicate uid %s", i, uid)
		}
		seen[uid] = struct{}{}
		out = append(out, storefront.User{Name: strings.TrimSpace(u.Name), UID: uid})
	}
	return out, nil
}
