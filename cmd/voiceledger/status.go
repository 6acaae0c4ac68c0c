package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ArionMiles/voiceledger/internal/plugins"
	"github.com/ArionMiles/voiceledger/pkg/api"
	"github.com/ArionMiles/voiceledger/pkg/client"
	"github.com/ArionMiles/voiceledger/pkg/config"
	"github.com/ArionMiles/voiceledger/pkg/logging"
)

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Check configuration, credentials and store access",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			registry, err := newRegistry()
			if err != nil {
				return err
			}
			s := &statusChecker{out: cmd.OutOrStdout(), registry: registry, allGood: true}
			s.run(cmd.Context(), cfg)
			return nil
		},
	}
}

type statusChecker struct {
	out      io.Writer
	registry *plugins.Registry
	allGood  bool
}

func (s *statusChecker) ok(format string, args ...any) {
	fmt.Fprintf(s.out, "✓ "+format+"\n", args...)
}

func (s *statusChecker) fail(err error) {
	fmt.Fprintf(s.out, "✗ %v\n", err)
	s.allGood = false
}

func (s *statusChecker) run(ctx context.Context, cfg config.Config) {
	fmt.Fprintln(s.out, "=== Voiceledger Status ===")
	fmt.Fprintln(s.out)

	fmt.Fprint(s.out, "Config file: ")
	if cfgFile == "" {
		s.ok("None (using environment and defaults)")
	} else {
		s.ok("Loaded %s", cfgFile)
	}

	fmt.Fprint(s.out, "Vocabulary: ")
	if vocab, err := loadVocabulary(cfg.Vocabulary); err != nil {
		s.fail(err)
	} else {
		s.ok("%d banks, %d transfer keywords, %d airtime keywords",
			len(vocab.Banks), len(vocab.TransferKeywords), len(vocab.AirtimeKeywords))
	}

	fmt.Fprintf(s.out, "Store plugin (%s): ", cfg.Store)
	store, err := s.registry.GetStore(cfg.Store)
	if err != nil {
		s.fail(err)
	} else {
		s.ok("%s", store.Description())
	}

	fmt.Fprintf(s.out, "Transcriber plugin (%s): ", cfg.Transcriber)
	if transcriber, err := s.registry.GetTranscriber(cfg.Transcriber); err != nil {
		s.fail(err)
	} else {
		s.ok("%s", transcriber.Description())
	}

	scopes, err := s.registry.GetAllScopes(cfg.Store, cfg.Transcriber)
	if err == nil && len(scopes) > 0 {
		s.checkCredentials(cfg)
	}

	if store != nil {
		s.checkStore(ctx, cfg, store)
	}

	s.printFinalStatus()
}

func (s *statusChecker) checkCredentials(cfg config.Config) {
	fmt.Fprintf(s.out, "Client secret (%s): ", cfg.ClientSecret)
	if _, err := os.Stat(cfg.ClientSecret); err != nil {
		s.fail(errors.New("not found"))
	} else {
		s.ok("Found")
	}

	fmt.Fprintf(s.out, "OAuth token (%s): ", cfg.Token)
	token, err := client.TokenFromFile(cfg.Token)
	switch {
	case os.IsNotExist(err):
		s.fail(errors.New("not found (run 'voiceledger setup')"))
	case err != nil:
		s.fail(err)
	case token.Expiry.IsZero():
		s.ok("Valid")
	case token.Expiry.Before(time.Now()):
		fmt.Fprintln(s.out, "⚠ Expired (will refresh on next run)")
	default:
		s.ok("Valid (expires: %s)", token.Expiry.Format(time.RFC3339))
	}
}

func (s *statusChecker) checkStore(ctx context.Context, cfg config.Config, store plugins.StorePlugin) {
	fmt.Fprintln(s.out)
	fmt.Fprintln(s.out, "Store Access:")

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	var httpClient *http.Client
	if len(store.RequiredScopes()) > 0 {
		c, err := client.New(ctx, client.Options{SecretFile: cfg.ClientSecret, TokenFile: cfg.Token}, store.RequiredScopes()...)
		if err != nil {
			fmt.Fprint(s.out, "  OAuth client: ")
			s.fail(err)
			return
		}
		httpClient = c
	}

	fmt.Fprint(s.out, "  Backend: ")
	backend, err := store.NewBackend(ctx, httpClient, cfg.StoreConfig, logging.Component(logger, cfg.Store+"_store"))
	if err != nil {
		s.fail(err)
		return
	}
	defer backend.Close()
	s.ok("Connected")

	for _, kind := range api.Kinds() {
		fmt.Fprintf(s.out, "  %s: ", kind.StoreName())
		st, err := backend.Store(ctx, kind.StoreName())
		if err != nil {
			s.fail(err)
			continue
		}
		records, err := st.LoadAll(ctx)
		if err != nil {
			s.fail(err)
			continue
		}
		s.ok("%d records", len(records))
	}
}

func (s *statusChecker) printFinalStatus() {
	fmt.Fprintln(s.out)
	if s.allGood {
		fmt.Fprintln(s.out, "Status: ✓ Ready to run")
		fmt.Fprintln(s.out)
		fmt.Fprintln(s.out, "Run 'voiceledger chat' to start recording transactions.")
	} else {
		fmt.Fprintln(s.out, "Status: ✗ Configuration issues detected")
		fmt.Fprintln(s.out)
		fmt.Fprintln(s.out, "Fix the issues above, then run 'voiceledger status' again.")
	}
}
