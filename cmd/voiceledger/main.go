// Command voiceledger is a chat-style assistant that records money transfers
// and airtime topups described in plain text or speech.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ArionMiles/voiceledger/internal/plugins"
	"github.com/ArionMiles/voiceledger/pkg/config"
	"github.com/ArionMiles/voiceledger/pkg/logging"
	csvplugin "github.com/ArionMiles/voiceledger/pkg/plugins/stores/csv"
	jsonlplugin "github.com/ArionMiles/voiceledger/pkg/plugins/stores/jsonl"
	postgresplugin "github.com/ArionMiles/voiceledger/pkg/plugins/stores/postgres"
	sheetsplugin "github.com/ArionMiles/voiceledger/pkg/plugins/stores/sheets"
	sqliteplugin "github.com/ArionMiles/voiceledger/pkg/plugins/stores/sqlite"
	gspeechplugin "github.com/ArionMiles/voiceledger/pkg/plugins/transcribers/gspeech"
)

var (
	cfgFile  string
	logLevel string

	cfg    config.Config
	logger *slog.Logger

	rootCmd = &cobra.Command{
		Use:   "voiceledger",
		Short: "Record money transfers and airtime topups from plain language",
		Long: `voiceledger turns sentences like "transfer 5000 to UBA 1234567890" or
"buy airtime 500 for 08011112222", typed or spoken, into ledger records.

Records are appended to one store per transaction kind. The store backend
and the speech transcriber are chosen by configuration.`,
		SilenceUsage:      true,
		PersistentPreRunE: initConfig,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "JSON config file (environment variables override it)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error); defaults to LOG_LEVEL")

	rootCmd.AddCommand(chatCmd())
	rootCmd.AddCommand(sayCmd())
	rootCmd.AddCommand(listenCmd())
	rootCmd.AddCommand(showCmd())
	rootCmd.AddCommand(setupCmd())
	rootCmd.AddCommand(statusCmd())
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		slog.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	err := rootCmd.ExecuteContext(ctx)
	cancel()

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func initConfig(_ *cobra.Command, _ []string) error {
	logCfg := logging.DefaultConfig()
	if logLevel != "" {
		logCfg.Level = logging.ParseLevel(logLevel)
	}
	logger = logging.Setup(logCfg)

	var err error
	if cfg, err = config.Load(cfgFile); err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger.Debug("configuration loaded",
		"store", cfg.Store,
		"transcriber", cfg.Transcriber,
		"vocabulary", cfg.Vocabulary,
	)
	return nil
}

// newRegistry registers every built-in plugin.
func newRegistry() (*plugins.Registry, error) {
	registry := plugins.NewRegistry()

	stores := []plugins.StorePlugin{
		&jsonlplugin.Plugin{},
		&csvplugin.Plugin{},
		&sqliteplugin.Plugin{},
		&postgresplugin.Plugin{},
		&sheetsplugin.Plugin{},
	}
	for _, p := range stores {
		if err := registry.RegisterStore(p); err != nil {
			return nil, fmt.Errorf("registering %s plugin: %w", p.Name(), err)
		}
	}

	transcribers := []plugins.TranscriberPlugin{
		&gspeechplugin.V1Plugin{},
		&gspeechplugin.V1p1beta1Plugin{},
	}
	for _, p := range transcribers {
		if err := registry.RegisterTranscriber(p); err != nil {
			return nil, fmt.Errorf("registering %s plugin: %w", p.Name(), err)
		}
	}

	return registry, nil
}
