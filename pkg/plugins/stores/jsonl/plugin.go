// Package jsonl provides a plugin wrapper for the JSON Lines store backend.
package jsonl

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/ArionMiles/voiceledger/pkg/api"
	jsonlstore "github.com/ArionMiles/voiceledger/pkg/store/jsonl"
)

// DefaultDir is used when no directory is configured.
const DefaultDir = "data/ledger"

// Plugin implements the StorePlugin interface for JSON Lines files.
type Plugin struct{}

// Name returns the plugin name.
func (p *Plugin) Name() string {
	return "jsonl"
}

// Description returns a human-readable description.
func (p *Plugin) Description() string {
	return "Append records to one JSON Lines file per store"
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

// Config represents the JSON Lines backend configuration.
type Config struct {
	Dir string `json:"dir,omitempty"`
}

// NewBackend creates a new JSON Lines backend.
func (p *Plugin) NewBackend(_ context.Context, _ *http.Client, configData json.RawMessage, logger *slog.Logger) (api.Backend, error) {
	var cfg Config
	if len(configData) > 0 {
		if err := json.Unmarshal(configData, &cfg); err != nil {
			return nil, fmt.Errorf("unmarshaling jsonl config: %w", err)
		}
	}
	if cfg.Dir == "" {
		cfg.Dir = DefaultDir
	}

	return jsonlstore.New(jsonlstore.Config{Dir: cfg.Dir}, logger)
}
