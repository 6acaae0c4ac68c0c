package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ArionMiles/voiceledger/pkg/conversation"
	"github.com/ArionMiles/voiceledger/pkg/display"
)

func listenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "listen <file>",
		Short: "Transcribe a LINEAR16 audio file and handle it as a message",
		Long: `Transcribe a WAV or raw LINEAR16 audio file with the configured
transcriber, then classify and record the transcript like typed text.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			audio, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("reading audio file: %w", err)
			}

			a, err := openApp(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer a.Close()

			conv, reply, err := a.assistant.HandleAudio(cmd.Context(), conversation.Conversation{}, audio)
			if err != nil {
				return err
			}
			if last, ok := conv.Last(); ok {
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", display.UserStyle.Render("Heard:"), last.User)
			}
			fmt.Fprint(cmd.OutOrStdout(), display.Reply(reply.Text))
			return nil
		},
	}
}
