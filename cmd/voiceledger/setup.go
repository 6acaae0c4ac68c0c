package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ArionMiles/voiceledger/pkg/client"
)

func setupCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "setup",
		Short: "Authorize voiceledger with Google",
		Long: `Run the OAuth browser flow for the scopes the configured store and
transcriber need, and cache the token for later runs.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSetup(cmd, force)
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "re-authenticate even if a token exists")
	return cmd
}

func runSetup(cmd *cobra.Command, force bool) error {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "=== Voiceledger Setup ===")
	fmt.Fprintln(out)

	registry, err := newRegistry()
	if err != nil {
		return err
	}
	scopes, err := registry.GetAllScopes(cfg.Store, cfg.Transcriber)
	if err != nil {
		return err
	}
	if len(scopes) == 0 {
		fmt.Fprintf(out, "Nothing to do: the %s store and %s transcriber need no authorization.\n", cfg.Store, cfg.Transcriber)
		return nil
	}

	if _, err := os.Stat(cfg.ClientSecret); os.IsNotExist(err) {
		return fmt.Errorf("client secret file not found: %s\n\nTo get your credentials:\n"+
			"1. Go to https://console.cloud.google.com/apis/credentials\n"+
			"2. Create an OAuth 2.0 Client ID (Desktop application)\n"+
			"3. Download the JSON file and save it as '%s'", cfg.ClientSecret, cfg.ClientSecret)
	}

	if !force {
		if _, err := os.Stat(cfg.Token); err == nil {
			fmt.Fprintf(out, "Already authenticated! Token file exists: %s\n", cfg.Token)
			fmt.Fprintln(out)
			fmt.Fprintln(out, "To re-authenticate, run: voiceledger setup --force")
			return nil
		}
	} else {
		if err := os.Remove(cfg.Token); err != nil && !os.IsNotExist(err) {
			logger.Warn("failed to remove existing token", "error", err)
		}
		fmt.Fprintln(out, "Forcing re-authentication...")
		fmt.Fprintln(out)
	}

	printScopes(out, scopes)
	fmt.Fprintln(out, "Starting authentication...")
	fmt.Fprintln(out)

	err = client.Authenticate(cmd.Context(), client.Options{
		SecretFile: cfg.ClientSecret,
		TokenFile:  cfg.Token,
	}, scopes...)
	if err != nil {
		return fmt.Errorf("authentication failed: %w", err)
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, "=== Setup Complete ===")
	fmt.Fprintln(out)
	fmt.Fprintf(out, "Token saved to: %s\n", cfg.Token)
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Next steps:")
	fmt.Fprintln(out, "  1. Run 'voiceledger status' to check the configuration")
	fmt.Fprintln(out, "  2. Run 'voiceledger chat' to start recording transactions")
	fmt.Fprintln(out)
	return nil
}

func printScopes(out io.Writer, scopes []string) {
	fmt.Fprintln(out, "Required permissions:")
	for _, scope := range scopes {
		name := scope[strings.LastIndex(scope, "/")+1:]
		switch name {
		case "spreadsheets":
			fmt.Fprintln(out, "  - Sheets: Read and write spreadsheets")
		case "cloud-platform":
			fmt.Fprintln(out, "  - Cloud Speech-to-Text: Transcribe audio messages")
		default:
			fmt.Fprintf(out, "  - %s\n", scope)
		}
	}
	fmt.Fprintln(out)
}
