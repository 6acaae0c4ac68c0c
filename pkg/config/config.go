// Package config loads voiceledger configuration from an optional JSON file
// and the environment.
package config

import (
	"encoding/json"
	"fmt"
	"strings"

	koanfjson "github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Defaults applied when a setting is absent.
const (
	DefaultStore       = "jsonl"
	DefaultTranscriber = "speech-v1"
	// ClientSecretFile is the default path to the Google OAuth credentials JSON file.
	ClientSecretFile = "data/client_secret.json"
	// TokenFile is the default path the OAuth token is cached at.
	TokenFile = "data/token.json"
)

// EnvPrefix is the prefix of every environment variable read by Load.
const EnvPrefix = "VOICELEDGER_"

// Config holds the application configuration.
type Config struct {
	// Store is the name of the store plugin to use.
	// Environment variable: VOICELEDGER_STORE
	Store string `koanf:"VOICELEDGER_STORE"`

	// StoreConfig is the JSON configuration for the store plugin.
	// Environment variable: VOICELEDGER_STORE_CONFIG
	StoreConfig json.RawMessage `koanf:"-"`

	// Transcriber is the name of the transcriber plugin used for audio input.
	// Environment variable: VOICELEDGER_TRANSCRIBER
	Transcriber string `koanf:"VOICELEDGER_TRANSCRIBER"`

	// TranscriberConfig is the JSON configuration for the transcriber plugin.
	// Environment variable: VOICELEDGER_TRANSCRIBER_CONFIG
	TranscriberConfig json.RawMessage `koanf:"-"`

	// Vocabulary is an optional path to a vocabulary JSON file replacing the
	// built-in one.
	// Environment variable: VOICELEDGER_VOCABULARY
	Vocabulary string `koanf:"VOICELEDGER_VOCABULARY"`

	// ClientSecret is the path to the Google OAuth client secret.
	// Environment variable: VOICELEDGER_CLIENT_SECRET
	ClientSecret string `koanf:"VOICELEDGER_CLIENT_SECRET"`

	// Token is the path the OAuth token is cached at.
	// Environment variable: VOICELEDGER_TOKEN
	Token string `koanf:"VOICELEDGER_TOKEN"`
}

// Load reads the JSON file at path, if path is not empty, then overlays
// VOICELEDGER_* environment variables. Plugin configs may be given as JSON
// objects in the file or as JSON strings in either source.
func Load(path string) (Config, error) {
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), koanfjson.Parser()); err != nil {
			return Config{}, fmt.Errorf("loading config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", nil), nil); err != nil {
		return Config{}, fmt.Errorf("loading environment: %w", err)
	}

	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf", FlatPaths: true}); err != nil {
		return Config{}, fmt.Errorf("unmarshaling config: %w", err)
	}

	var err error
	if cfg.StoreConfig, err = rawJSON(k.Get("VOICELEDGER_STORE_CONFIG")); err != nil {
		return Config{}, fmt.Errorf("VOICELEDGER_STORE_CONFIG: %w", err)
	}
	if cfg.TranscriberConfig, err = rawJSON(k.Get("VOICELEDGER_TRANSCRIBER_CONFIG")); err != nil {
		return Config{}, fmt.Errorf("VOICELEDGER_TRANSCRIBER_CONFIG: %w", err)
	}

	cfg.setDefaults()
	return cfg, nil
}

func (cfg *Config) setDefaults() {
	if cfg.Store == "" {
		cfg.Store = DefaultStore
	}
	if cfg.Transcriber == "" {
		cfg.Transcriber = DefaultTranscriber
	}
	if cfg.ClientSecret == "" {
		cfg.ClientSecret = ClientSecretFile
	}
	if cfg.Token == "" {
		cfg.Token = TokenFile
	}
}

// rawJSON turns a koanf value into raw JSON. Strings must already hold JSON;
// anything else (a nested object from the file) is re-encoded.
func rawJSON(v any) (json.RawMessage, error) {
	switch v := v.(type) {
	case nil:
		return nil, nil
	case string:
		v = strings.TrimSpace(v)
		if v == "" {
			return nil, nil
		}
		if !json.Valid([]byte(v)) {
			return nil, fmt.Errorf("invalid JSON")
		}
		return json.RawMessage(v), nil
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("encoding plugin config: %w", err)
		}
		return b, nil
	}
}
