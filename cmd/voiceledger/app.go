package main

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"sync"

	"github.com/ArionMiles/voiceledger/internal/assistant"
	"github.com/ArionMiles/voiceledger/internal/plugins"
	"github.com/ArionMiles/voiceledger/pkg/api"
	"github.com/ArionMiles/voiceledger/pkg/classifier"
	"github.com/ArionMiles/voiceledger/pkg/client"
	"github.com/ArionMiles/voiceledger/pkg/config"
	"github.com/ArionMiles/voiceledger/pkg/logging"
	"github.com/ArionMiles/voiceledger/pkg/ledger"
)

//go:embed config/vocabulary.json
var vocabularyInput []byte

// app is everything one command needs to talk to the ledger.
type app struct {
	assistant *assistant.Assistant
	backend   api.Backend
	logger    *slog.Logger
}

// openApp builds the classifier, store backend, ledger and assistant from
// cfg. The transcriber is only created when audio is first handled.
func openApp(ctx context.Context, cfg config.Config, logger *slog.Logger) (*app, error) {
	registry, err := newRegistry()
	if err != nil {
		return nil, err
	}

	vocab, err := loadVocabulary(cfg.Vocabulary)
	if err != nil {
		return nil, err
	}
	c, err := classifier.New(vocab)
	if err != nil {
		return nil, fmt.Errorf("creating classifier: %w", err)
	}

	backend, err := openBackend(ctx, registry, cfg, logger)
	if err != nil {
		return nil, err
	}

	stores := make([]api.Store, 0, len(api.Kinds()))
	for _, kind := range api.Kinds() {
		s, err := backend.Store(ctx, kind.StoreName())
		if err != nil {
			_ = backend.Close()
			return nil, fmt.Errorf("opening store %s: %w", kind.StoreName(), err)
		}
		stores = append(stores, s)
	}

	l := ledger.New(stores, logging.Component(logger, "ledger"))
	tr := &lazyTranscriber{
		create: func(ctx context.Context) (api.Transcriber, error) {
			return openTranscriber(ctx, registry, cfg, logger)
		},
	}

	return &app{
		assistant: assistant.New(c, l, tr, logging.Component(logger, "assistant")),
		backend:   backend,
		logger:    logger,
	}, nil
}

// Close releases the store backend.
func (a *app) Close() {
	if err := a.backend.Close(); err != nil {
		a.logger.Error("failed to close store backend", "error", err)
	}
}

func loadVocabulary(path string) (classifier.Vocabulary, error) {
	data := vocabularyInput
	if path != "" {
		var err error
		if data, err = os.ReadFile(path); err != nil {
			return classifier.Vocabulary{}, fmt.Errorf("reading vocabulary: %w", err)
		}
	}
	return classifier.ParseVocabulary(data)
}

func openBackend(ctx context.Context, registry *plugins.Registry, cfg config.Config, logger *slog.Logger) (api.Backend, error) {
	plugin, err := registry.GetStore(cfg.Store)
	if err != nil {
		return nil, err
	}

	httpClient, err := oauthClient(ctx, cfg, plugin.RequiredScopes())
	if err != nil {
		return nil, err
	}

	backend, err := plugin.NewBackend(ctx, httpClient, cfg.StoreConfig, logging.Component(logger, cfg.Store+"_store"))
	if err != nil {
		return nil, fmt.Errorf("creating %s store backend: %w", cfg.Store, err)
	}
	return backend, nil
}

func openTranscriber(ctx context.Context, registry *plugins.Registry, cfg config.Config, logger *slog.Logger) (api.Transcriber, error) {
	scopes, err := registry.GetAllScopes(cfg.Store, cfg.Transcriber)
	if err != nil {
		return nil, err
	}

	httpClient, err := oauthClient(ctx, cfg, scopes)
	if err != nil {
		return nil, err
	}

	tr, err := registry.CreateTranscriber(ctx, cfg.Transcriber, httpClient, cfg.TranscriberConfig, logging.Component(logger, "transcriber"))
	if err != nil {
		return nil, fmt.Errorf("creating %s transcriber: %w", cfg.Transcriber, err)
	}
	return tr, nil
}

// oauthClient returns nil when no scopes are needed.
func oauthClient(ctx context.Context, cfg config.Config, scopes []string) (*http.Client, error) {
	if len(scopes) == 0 {
		return nil, nil
	}

	httpClient, err := client.New(ctx, client.Options{
		SecretFile:  cfg.ClientSecret,
		TokenFile:   cfg.Token,
		Interactive: true,
	}, scopes...)
	if err != nil {
		return nil, fmt.Errorf("creating http client: %w", err)
	}
	return httpClient, nil
}

// lazyTranscriber defers creating the real transcriber, and the OAuth flow it
// may trigger, until audio is actually transcribed.
type lazyTranscriber struct {
	create func(ctx context.Context) (api.Transcriber, error)

	mu    sync.Mutex
	inner api.Transcriber
}

func (l *lazyTranscriber) Transcribe(ctx context.Context, audio []byte) (string, error) {
	l.mu.Lock()
	if l.inner == nil {
		inner, err := l.create(ctx)
		if err != nil {
			l.mu.Unlock()
			return "", err
		}
		l.inner = inner
	}
	inner := l.inner
	l.mu.Unlock()

	return inner.Transcribe(ctx, audio)
}
