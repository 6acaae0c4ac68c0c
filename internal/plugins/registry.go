// Package plugins provides a plugin registry for record stores and
// transcribers.
package plugins

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"sort"

	"github.com/ArionMiles/voiceledger/pkg/api"
)

// StorePlugin defines the interface for record store backends.
type StorePlugin interface {
	// Name returns the plugin name (e.g., "jsonl", "postgres").
	Name() string
	// Description returns a human-readable description.
	Description() string
	// RequiredScopes returns the OAuth scopes needed by this plugin.
	RequiredScopes() []string
	// ConfigSchema returns a JSON schema describing the plugin's configuration.
	ConfigSchema() map[string]any
	// NewBackend creates a backend with the given config. httpClient is nil
	// unless the plugin requires OAuth scopes.
	NewBackend(ctx context.Context, httpClient *http.Client, config json.RawMessage, logger *slog.Logger) (api.Backend, error)
}

// TranscriberPlugin defines the interface for speech-to-text backends.
type TranscriberPlugin interface {
	// Name returns the plugin name (e.g., "speech-v1").
	Name() string
	// Description returns a human-readable description.
	Description() string
	// RequiredScopes returns the OAuth scopes needed by this plugin.
	RequiredScopes() []string
	// ConfigSchema returns a JSON schema describing the plugin's configuration.
	ConfigSchema() map[string]any
	// NewTranscriber creates a transcriber with the given config.
	NewTranscriber(ctx context.Context, httpClient *http.Client, config json.RawMessage, logger *slog.Logger) (api.Transcriber, error)
}

// Registry manages available store and transcriber plugins.
type Registry struct {
	stores       map[string]StorePlugin
	transcribers map[string]TranscriberPlugin
}

// NewRegistry creates a new plugin registry.
func NewRegistry() *Registry {
	return &Registry{
		stores:       make(map[string]StorePlugin),
		transcribers: make(map[string]TranscriberPlugin),
	}
}

// RegisterStore registers a store plugin.
func (r *Registry) RegisterStore(plugin StorePlugin) error {
	name := plugin.Name()
	if _, exists := r.stores[name]; exists {
		return fmt.Errorf("store plugin %q already registered", name)
	}
	r.stores[name] = plugin
	return nil
}

// RegisterTranscriber registers a transcriber plugin.
func (r *Registry) RegisterTranscriber(plugin TranscriberPlugin) error {
	name := plugin.Name()
	if _, exists := r.transcribers[name]; exists {
		return fmt.Errorf("transcriber plugin %q already registered", name)
	}
	r.transcribers[name] = plugin
	return nil
}

// GetStore returns a store plugin by name.
func (r *Registry) GetStore(name string) (StorePlugin, error) {
	plugin, exists := r.stores[name]
	if !exists {
		return nil, fmt.Errorf("store plugin %q not found", name)
	}
	return plugin, nil
}

// GetTranscriber returns a transcriber plugin by name.
func (r *Registry) GetTranscriber(name string) (TranscriberPlugin, error) {
	plugin, exists := r.transcribers[name]
	if !exists {
		return nil, fmt.Errorf("transcriber plugin %q not found", name)
	}
	return plugin, nil
}

// ListStores returns all registered store plugins sorted by name.
func (r *Registry) ListStores() []StorePlugin {
	plugins := make([]StorePlugin, 0, len(r.stores))
	for _, plugin := range r.stores {
		plugins = append(plugins, plugin)
	}
	sort.Slice(plugins, func(i, j int) bool { return plugins[i].Name() < plugins[j].Name() })
	return plugins
}

// ListTranscribers returns all registered transcriber plugins sorted by name.
func (r *Registry) ListTranscribers() []TranscriberPlugin {
	plugins := make([]TranscriberPlugin, 0, len(r.transcribers))
	for _, plugin := range r.transcribers {
		plugins = append(plugins, plugin)
	}
	sort.Slice(plugins, func(i, j int) bool { return plugins[i].Name() < plugins[j].Name() })
	return plugins
}

// GetAllScopes returns the sorted, deduplicated OAuth scopes required by the
// named store and transcriber. An empty transcriber name means audio input
// is not used.
func (r *Registry) GetAllScopes(storeName, transcriberName string) ([]string, error) {
	store, err := r.GetStore(storeName)
	if err != nil {
		return nil, err
	}

	scopeSet := make(map[string]struct{})
	for _, scope := range store.RequiredScopes() {
		scopeSet[scope] = struct{}{}
	}

	if transcriberName != "" {
		transcriber, err := r.GetTranscriber(transcriberName)
		if err != nil {
			return nil, err
		}
		for _, scope := range transcriber.RequiredScopes() {
			scopeSet[scope] = struct{}{}
		}
	}

	scopes := make([]string, 0, len(scopeSet))
	for scope := range scopeSet {
		scopes = append(scopes, scope)
	}
	slices.Sort(scopes)

	return scopes, nil
}

// CreateBackend creates a store backend from a plugin.
func (r *Registry) CreateBackend(ctx context.Context, name string, httpClient *http.Client, config json.RawMessage, logger *slog.Logger) (api.Backend, error) {
	plugin, err := r.GetStore(name)
	if err != nil {
		return nil, err
	}
	return plugin.NewBackend(ctx, httpClient, config, logger)
}

// CreateTranscriber creates a transcriber from a plugin.
func (r *Registry) CreateTranscriber(ctx context.Context, name string, httpClient *http.Client, config json.RawMessage, logger *slog.Logger) (api.Transcriber, error) {
	plugin, err := r.GetTranscriber(name)
	if err != nil {
		return nil, err
	}
	return plugin.NewTranscriber(ctx, httpClient, config, logger)
}
