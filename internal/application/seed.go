package application

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

//go:embed data/users.json
var bundledUsersJSON []byte

// BundledUsers returns the default directory shipped with the binary.
func BundledUsers() ([]User, error) {
	users, err := ParseUsers(bundledUsersJSON)
	if err != nil {
		return nil, fmt.Errorf("bundled users: %w", err)
	}
	return users, nil
}

// LoadSeedUsers returns the directory defaults. An empty path selects the bundled
// list; otherwise the JSON file at path replaces it.
func LoadSeedUsers(path string) ([]User, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return BundledUsers()
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed users %s: %w", path, err)
	}
	users, err := ParseUsers(raw)
	if err != nil {
		return nil, fmt.Errorf("seed users %s: %w", path, err)
	}
	return users, nil
}

// ParseUsers decodes a JSON array of user records.
func ParseUsers(raw []byte) ([]User, error) {
	var users []User
	if err := json.Unmarshal(raw, &users); err != nil {
		return nil, err
	}
	return cloneUsers(users), nil
}

func cloneUsers(users []User) []User {
	cloned := make([]User, len(users))
	for i, u := range users {
		u.Favorites = cloneInts(u.Favorites)
		cloned[i] = u
	}
	return cloned
}
