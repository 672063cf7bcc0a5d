package main

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"mediabin/internal/metadata"
)

func newQueueCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "queue",
		Short: "List identifiers waiting for a worker",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(func(a *app) error {
				pending, err := a.queue.Pending(cmd.Context())
				if err != nil {
					return err
				}
				if len(pending) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "Queue is empty")
					return nil
				}

				rows := make([][]string, 0, len(pending))
				for i, identifier := range pending {
					file := "?"
					item, err := a.items.GetByIdentifier(cmd.Context(), identifier)
					switch {
					case err == nil:
						file = item.OriginalFilename
					case !errors.Is(err, metadata.ErrNotFound):
						return err
					}
					rows = append(rows, []string{strconv.Itoa(i + 1), identifier, file})
				}

				fmt.Fprintln(cmd.OutOrStdout(), renderTable(
					[]string{"#", "Identifier", "File"},
					rows,
					0,
				))
				return nil
			})
		},
	}
}
