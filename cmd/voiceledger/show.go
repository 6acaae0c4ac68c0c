package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/ArionMiles/voiceledger/internal/assistant"
	"github.com/ArionMiles/voiceledger/pkg/api"
	"github.com/ArionMiles/voiceledger/pkg/display"
)

func showCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "show [money_transfer|airtime_topup]",
		Short:     "Display recorded transactions",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{string(api.KindMoneyTransfer), string(api.KindAirtimeTopup)},
		RunE: func(cmd *cobra.Command, args []string) error {
			kinds, err := kindsToShow(args)
			if err != nil {
				return err
			}

			a, err := openApp(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer a.Close()

			showViews(cmd.Context(), cmd.OutOrStdout(), a.assistant, kinds)
			return nil
		},
	}
}

// kindsToShow returns the kind named in args, or every kind.
func kindsToShow(args []string) ([]api.Kind, error) {
	if len(args) == 0 || args[0] == "" {
		return api.Kinds(), nil
	}
	kind, ok := api.ParseKind(args[0])
	if !ok {
		return nil, fmt.Errorf("unknown store %q (expected %s or %s)", args[0], api.KindMoneyTransfer, api.KindAirtimeTopup)
	}
	return []api.Kind{kind}, nil
}

func showViews(ctx context.Context, out io.Writer, a *assistant.Assistant, kinds []api.Kind) {
	for i, kind := range kinds {
		if i > 0 {
			fmt.Fprintln(out)
		}
		fmt.Fprint(out, display.Records(a.View(ctx, kind)))
	}
}
