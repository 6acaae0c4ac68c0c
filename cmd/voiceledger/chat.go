package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ArionMiles/voiceledger/internal/assistant"
	"github.com/ArionMiles/voiceledger/pkg/conversation"
	"github.com/ArionMiles/voiceledger/pkg/display"
)

const chatHelp = `Type a message such as "transfer 5000 to UBA 1234567890".
Commands:
  /show [store]    display recorded transactions
  /history         display this conversation
  /listen <file>   transcribe an audio file and handle it as a message
  /quit            leave the chat
`

func chatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := openApp(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer a.Close()

			fmt.Fprint(cmd.OutOrStdout(), display.SubtleStyle.Render(chatHelp)+"\n")
			_, err = chatLoop(cmd.Context(), a.assistant, cmd.InOrStdin(), cmd.OutOrStdout())
			return err
		},
	}
}

// chatLoop reads one message or command per line until /quit, end of input
// or cancellation, and returns the conversation so far.
func chatLoop(ctx context.Context, a *assistant.Assistant, in io.Reader, out io.Writer) (conversation.Conversation, error) {
	var conv conversation.Conversation
	scanner := bufio.NewScanner(in)

	for {
		fmt.Fprint(out, display.UserStyle.Render("> "))
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return conv, scanner.Err()
		}
		if ctx.Err() != nil {
			return conv, ctx.Err()
		}

		line := strings.TrimSpace(scanner.Text())
		command, arg, _ := strings.Cut(line, " ")
		arg = strings.TrimSpace(arg)

		switch command {
		case "":
			continue
		case "/quit", "/exit":
			return conv, nil
		case "/help":
			fmt.Fprint(out, chatHelp)
		case "/history":
			fmt.Fprint(out, display.Conversation(conv))
		case "/show":
			kinds, err := kindsToShow([]string{arg})
			if err != nil {
				fmt.Fprintln(out, display.WarningStyle.Render(err.Error()))
				continue
			}
			showViews(ctx, out, a, kinds)
		case "/listen":
			if arg == "" {
				fmt.Fprintln(out, display.WarningStyle.Render("usage: /listen <file>"))
				continue
			}
			audio, err := os.ReadFile(arg)
			if err != nil {
				fmt.Fprintln(out, display.WarningStyle.Render(fmt.Sprintf("reading audio file: %v", err)))
				continue
			}
			var reply assistant.Reply
			conv, reply, err = a.HandleAudio(ctx, conv, audio)
			if err != nil {
				fmt.Fprintln(out, display.WarningStyle.Render(err.Error()))
				continue
			}
			fmt.Fprint(out, display.Reply(reply.Text))
		default:
			var reply assistant.Reply
			conv, reply = a.HandleText(ctx, conv, line)
			fmt.Fprint(out, display.Reply(reply.Text))
		}
	}
}
