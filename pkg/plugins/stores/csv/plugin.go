// Package csv provides a plugin wrapper for the CSV store backend.
package csv

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/ArionMiles/voiceledger/pkg/api"
	csvstore "github.com/ArionMiles/voiceledger/pkg/store/csv"
)

// DefaultDir is used when no directory is configured.
const DefaultDir = "data/ledger"

// Plugin implements the StorePlugin interface for CSV files.
type Plugin struct{}

// Name returns the plugin name.
func (p *Plugin) Name() string {
	return "csv"
}

// Description returns a human-readable description.
func (p *Plugin) Description() string {
	return "Append records to one CSV file per store, with a header row"
}

// RequiredScopes returns the OAuth scopes needed by this plugin.
func (p *Plugin) RequiredScopes() []string {
	return nil
}

// ConfigSchema returns a JSON schema describing the plugin's configuration.
func (p *Plugin) ConfigSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"dir": map[string]any{
				"type":        "string",
				"description": "Directory holding the store files",
				"default":     DefaultDir,
			},
		},
	}
}

// Config represents the CSV backend configuration.
type Config struct {
	Dir string `json:"dir,omitempty"`
}

// NewBackend creates a new CSV backend.
func (p *Plugin) NewBackend(_ context.Context, _ *http.Client, configData json.RawMessage, logger *slog.Logger) (api.Backend, error) {
	var cfg Config
	if len(configData) > 0 {
		if err := json.Unmarshal(configData, &cfg); err != nil {
			return nil, fmt.Errorf("unmarshaling csv config: %w", err)
		}
	}
	if cfg.Dir == "" {
		cfg.Dir = DefaultDir
	}

	return csvstore.New(csvstore.Config{Dir: cfg.Dir}, logger)
}
