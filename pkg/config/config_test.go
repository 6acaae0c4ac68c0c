package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("VOICELEDGER_STORE", "")
	t.Setenv("VOICELEDGER_STORE_CONFIG", "")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, DefaultStore, cfg.Store)
	assert.Equal(t, DefaultTranscriber, cfg.Transcriber)
	assert.Equal(t, ClientSecretFile, cfg.ClientSecret)
	assert.Equal(t, TokenFile, cfg.Token)
	assert.Empty(t, cfg.StoreConfig)
}

func TestLoad_Env(t *testing.T) {
	t.Setenv("VOICELEDGER_STORE", "sqlite")
	t.Setenv("VOICELEDGER_STORE_CONFIG", `{"path":"/tmp/ledger.db"}`)
	t.Setenv("VOICELEDGER_TRANSCRIBER", "speech-v1p1beta1")
	t.Setenv("VOICELEDGER_VOCABULARY", "vocab.json")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "sqlite", cfg.Store)
	assert.JSONEq(t, `{"path":"/tmp/ledger.db"}`, string(cfg.StoreConfig))
	assert.Equal(t, "speech-v1p1beta1", cfg.Transcriber)
	assert.Equal(t, "vocab.json", cfg.Vocabulary)
}

func TestLoad_FileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"VOICELEDGER_STORE": "postgres",
		"VOICELEDGER_STORE_CONFIG": {"host": "db", "database": "ledger", "user": "u", "port": 5433},
		"VOICELEDGER_TRANSCRIBER_CONFIG": {"languageCode": "en-NG"},
		"VOICELEDGER_TOKEN": "secrets/token.json"
	}`), 0o600))

	t.Setenv("VOICELEDGER_TOKEN", "override/token.json")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "postgres", cfg.Store)
	assert.JSONEq(t, `{"host":"db","database":"ledger","user":"u","port":5433}`, string(cfg.StoreConfig))
	assert.JSONEq(t, `{"languageCode":"en-NG"}`, string(cfg.TranscriberConfig))
	assert.Equal(t, "override/token.json", cfg.Token)
}

func TestLoad_Errors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "nope.json"))
		require.Error(t, err)
	})

	t.Run("invalid plugin config", func(t *testing.T) {
		t.Setenv("VOICELEDGER_STORE_CONFIG", `{"dir":`)
		_, err := Load("")
		require.Error(t, err)
	})
}
