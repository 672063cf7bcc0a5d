package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"mediabin/internal/jobs"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status <identifier>",
		Short: "Report the processing status of a stored item",
		Long: "Report whether an item is still processing, done, or failed.\n" +
			"Reading a failure consumes its reason: a second status call for the\n" +
			"same failure reports done.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(func(a *app) error {
				status, err := a.catalog().Status(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				printStatus(cmd, status)
				return nil
			})
		},
	}
}

func newRatioCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "ratio <identifier>",
		Short: "Report the compression ratio achieved for an item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(func(a *app) error {
				ratio, err := a.catalog().CompressionRatio(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if ratio == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No compression targets for this content type")
					return nil
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%.2fx\n", ratio)
				return nil
			})
		},
	}
}

func printStatus(cmd *cobra.Command, status jobs.Status) {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, colorizeStatus(statusText(status), status.State, shouldColorize(out)))
}

func statusText(status jobs.Status) string {
	switch status.State {
	case jobs.StateProcessing:
		return "processing"
	case jobs.StateFailed:
		return "failed: " + status.Reason
	default:
		return "done"
	}
}
