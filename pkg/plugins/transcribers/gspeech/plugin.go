// Package gspeech provides plugin wrappers for the Google Cloud Speech
// transcribers.
package gspeech

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"google.golang.org/api/option"
	speechv1 "google.golang.org/api/speech/v1"

	"github.com/ArionMiles/voiceledger/pkg/api"
	speechtranscriber "github.com/ArionMiles/voiceledger/pkg/transcribe/gspeech"
)

// Config represents the transcriber configuration shared by both plugins.
type Config struct {
	SampleRateHertz int64  `json:"sampleRateHertz,omitempty"`
	LanguageCode    string `json:"languageCode,omitempty"`
	RetryDelay      int    `json:"retryDelay,omitempty"` // in seconds
}

func configSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"sampleRateHertz": map[string]any{
				"type":        "integer",
				"description": "Sample rate of the LINEAR16 audio (default: 16000)",
				"default":     speechtranscriber.DefaultSampleRateHertz,
			},
			"languageCode": map[string]any{
				"type":        "string",
				"description": "BCP-47 language of the speech (default: en-US)",
				"default":     speechtranscriber.DefaultLanguageCode,
			},
			"retryDelay": map[string]any{
				"type":        "integer",
				"description": "Seconds to wait before retrying a transient API error (default: 2)",
				"default":     2,
			},
		},
	}
}

func parseConfig(name string, configData json.RawMessage, httpClient *http.Client) (speechtranscriber.Config, error) {
	var cfg Config
	if len(configData) > 0 {
		if err := json.Unmarshal(configData, &cfg); err != nil {
			return speechtranscriber.Config{}, fmt.Errorf("unmarshaling %s config: %w", name, err)
		}
	}
	if httpClient == nil {
		return speechtranscriber.Config{}, fmt.Errorf("%s requires an authenticated http client", name)
	}

	return speechtranscriber.Config{
		SampleRateHertz: cfg.SampleRateHertz,
		LanguageCode:    cfg.LanguageCode,
		RetryDelay:      time.Duration(cfg.RetryDelay) * time.Second,
	}, nil
}

// V1Plugin implements the TranscriberPlugin interface for the speech/v1 API.
type V1Plugin struct{}

// Name returns the plugin name.
func (p *V1Plugin) Name() string {
	return "speech-v1"
}

// Description returns a human-readable description.
func (p *V1Plugin) Description() string {
	return "Transcribe audio with Google Cloud Speech-to-Text v1"
}

// RequiredScopes returns the OAuth scopes needed by this plugin.
func (p *V1Plugin) RequiredScopes() []string {
	return []string{speechv1.CloudPlatformScope}
}

// ConfigSchema returns a JSON schema describing the plugin's configuration.
func (p *V1Plugin) ConfigSchema() map[string]any {
	return configSchema()
}

// NewTranscriber creates a new v1 transcriber.
func (p *V1Plugin) NewTranscriber(ctx context.Context, httpClient *http.Client, configData json.RawMessage, logger *slog.Logger) (api.Transcriber, error) {
	cfg, err := parseConfig(p.Name(), configData, httpClient)
	if err != nil {
		return nil, err
	}
	return speechtranscriber.NewV1(ctx, cfg, logger, option.WithHTTPClient(httpClient))
}

// V1p1beta1Plugin implements the TranscriberPlugin interface for the
// speech/v1p1beta1 API.
type V1p1beta1Plugin struct{}

// Name returns the plugin name.
func (p *V1p1beta1Plugin) Name() string {
	return "speech-v1p1beta1"
}

// Description returns a human-readable description.
func (p *V1p1beta1Plugin) Description() string {
	return "Transcribe audio with Google Cloud Speech-to-Text v1p1beta1"
}

// RequiredScopes returns the OAuth scopes needed by this plugin.
func (p *V1p1beta1Plugin) RequiredScopes() []string {
	return []string{speechv1.CloudPlatformScope}
}

// ConfigSchema returns a JSON schema describing the plugin's configuration.
func (p *V1p1beta1Plugin) ConfigSchema() map[string]any {
	return configSchema()
}

// NewTranscriber creates a new v1p1beta1 transcriber.
func (p *V1p1beta1Plugin) NewTranscriber(ctx context.Context, httpClient *http.Client, configData json.RawMessage, logger *slog.Logger) (api.Transcriber, error) {
	cfg, err := parseConfig(p.Name(), configData, httpClient)
	if err != nil {
		return nil, err
	}
	return speechtranscriber.NewV1p1beta1(ctx, cfg, logger, option.WithHTTPClient(httpClient))
}
