package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newProbeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "probe <screenshot|URL>",
		Short: "Ask the model for a plain-text description to check the backend works",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			analyzer, err := a.newAnalyzer()
			if err != nil {
				return err
			}
			img, err := analyzer.Processor().LoadImageSmart(args[0])
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			if timeout := time.Duration(a.cfg.Provider.Timeout); timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, timeout)
				defer cancel()
			}
			text, err := analyzer.Probe(ctx, img)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), text)
			return nil
		},
	}
}
