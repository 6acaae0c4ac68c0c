// Package sqlite provides a plugin wrapper for the SQLite store backend.
package sqlite

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/ArionMiles/voiceledger/pkg/api"
	sqlitestore "github.com/ArionMiles/voiceledger/pkg/store/sqlite"
)

// DefaultPath is used when no database path is configured.
const DefaultPath = "data/voiceledger.db"

// Plugin implements the StorePlugin interface for SQLite.
type Plugin struct{}

// Name returns the plugin name.
func (p *Plugin) Name() string {
	return "sqlite"
}

// Description returns a human-readable description.
func (p *Plugin) Description() string {
	return "Keep records in a local SQLite database, one table per store"
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
			"path": map[string]any{
				"type":        "string",
				"description": "Path to the database file",
				"default":     DefaultPath,
			},
		},
	}
}

// Config represents the SQLite backend configuration.
type Config struct {
	Path string `json:"path,omitempty"`
}

// NewBackend creates a new SQLite backend.
func (p *Plugin) NewBackend(_ context.Context, _ *http.Client, configData json.RawMessage, logger *slog.Logger) (api.Backend, error) {
	var cfg Config
	if len(configData) > 0 {
		if err := json.Unmarshal(configData, &cfg); err != nil {
			return nil, fmt.Errorf("unmarshaling sqlite config: %w", err)
		}
	}
	if cfg.Path == "" {
		cfg.Path = DefaultPath
	}

	return sqlitestore.New(sqlitestore.Config{Path: cfg.Path}, logger)
}
