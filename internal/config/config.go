package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

// DefaultQuery selects the label shipment notifications are filed under.
const DefaultQuery = "label:shipments"

// Config drives one scan: the mailbox search query and the table mapping
// sender addresses (or bare domains) to purchasing-group labels. Both are
// passed explicitly into the pipeline rather than read as globals.
type Config struct {
	Query        string            `json:"query"`
	Destinations map[string]string `json:"destinations,omitempty"`
}

func Default() Config {
	return Config{Query: DefaultQuery}
}

// Load reads a JSON config file. A missing file yields defaults so a
// fresh install can run on flags alone; a malformed file is an error.
func Load(path string) (Config, error) {
	cfg := Default()
	b, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if err := json.Unmarshal(b, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	if cfg.Query == "" {
		cfg.Query = DefaultQuery
	}
	return cfg, nil
}
