package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ArionMiles/voiceledger/pkg/conversation"
	"github.com/ArionMiles/voiceledger/pkg/display"
)

func sayCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "say <text...>",
		Short: "Handle one typed message",
		Example: `  voiceledger say transfer 5000 to UBA 1234567890
  voiceledger say "buy airtime 500 for 08011112222"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer a.Close()

			_, reply := a.assistant.HandleText(cmd.Context(), conversation.Conversation{}, strings.Join(args, " "))
			fmt.Fprint(cmd.OutOrStdout(), display.Reply(reply.Text))
			return nil
		},
	}
}
