// Package sheets provides a plugin wrapper for the Google Sheets store backend.
package sheets

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"

	"github.com/ArionMiles/voiceledger/pkg/api"
	sheetsstore "github.com/ArionMiles/voiceledger/pkg/store/sheets"
)

// Plugin implements the StorePlugin interface for Google Sheets.
type Plugin struct{}

// Name returns the plugin name.
func (p *Plugin) Name() string {
	return "sheets"
}

// Description returns a human-readable description.
func (p *Plugin) Description() string {
	return "Keep records in a Google Sheets spreadsheet, one tab per store"
}

// RequiredScopes returns the OAuth scopes needed by this plugin.
func (p *Plugin) RequiredScopes() []string {
	return []string{
		sheetsapi.SpreadsheetsScope,
	}
}

// ConfigSchema returns a JSON schema describing the plugin's configuration.
func (p *Plugin) ConfigSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"sheetTitle": map[string]any{
				"type":        "string",
				"description": "Title for a new spreadsheet (used if sheetId is not provided)",
			},
			"sheetId": map[string]any{
				"type":        "string",
				"description": "ID of an existing spreadsheet to use",
			},
			"retryDelay": map[string]any{
				"type":        "integer",
				"description": "Seconds to wait before retrying a rate-limited request (default: 30)",
				"default":     30,
			},
		},
	}
}

// Config represents the Sheets backend configuration.
type Config struct {
	SheetTitle string `json:"sheetTitle,omitempty"`
	SheetID    string `json:"sheetId,omitempty"`
	RetryDelay int    `json:"retryDelay,omitempty"` // in seconds
}

// NewBackend creates a new Sheets backend using the OAuth client.
func (p *Plugin) NewBackend(ctx context.Context, httpClient *http.Client, configData json.RawMessage, logger *slog.Logger) (api.Backend, error) {
	var cfg Config
	if len(configData) > 0 {
		if err := json.Unmarshal(configData, &cfg); err != nil {
			return nil, fmt.Errorf("unmarshaling sheets config: %w", err)
		}
	}

	if cfg.SheetID == "" && cfg.SheetTitle == "" {
		return nil, fmt.Errorf("either sheetId or sheetTitle is required")
	}
	if httpClient == nil {
		return nil, fmt.Errorf("sheets backend requires an authenticated http client")
	}

	return sheetsstore.New(ctx, sheetsstore.Config{
		SheetTitle: cfg.SheetTitle,
		SheetID:    cfg.SheetID,
		RetryDelay: time.Duration(cfg.RetryDelay) * time.Second,
	}, logger, option.WithHTTPClient(httpClient))
}
