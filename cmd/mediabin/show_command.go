package main

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"mediabin/internal/blob"
	"mediabin/internal/mediatype"
)

func newShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <identifier>",
		Short: "Display a stored item and its renditions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(func(a *app) error {
				identifier := args[0]
				item, err := a.items.GetByIdentifier(cmd.Context(), identifier)
				if err != nil {
					return err
				}

				status, err := a.catalog().Status(cmd.Context(), identifier)
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Identifier: %s\n", item.Identifier)
				fmt.Fprintf(out, "File:       %s\n", item.OriginalFilename)
				fmt.Fprintf(out, "Status:     %s\n", statusText(status))
				if !item.CreatedAt.IsZero() {
					fmt.Fprintf(out, "Created:    %s\n", item.CreatedAt.Format("2006-01-02 15:04:05"))
				}

				rows, err := renditionRows(a, item.Identifier, item.Extension())
				if err != nil {
					return err
				}
				fmt.Fprintln(out, renderTable(
					[]string{"Rendition", "Size", "Produced"},
					rows,
					1,
				))
				return nil
			})
		},
	}
}

func renditionRows(a *app, identifier, ext string) ([][]string, error) {
	formats := []mediatype.Format{{MIME: "original", Ext: ext}}
	if profile, ok := mediatype.ProfileForExtension(ext); ok {
		formats = append(formats, profile.Targets...)
		formats = append(formats, profile.Extras...)
	}

	rows := make([][]string, 0, len(formats))
	for _, format := range formats {
		size, err := a.blobs.SizeOf(identifier, format.Ext)
		switch {
		case errors.Is(err, blob.ErrNotFound):
			rows = append(rows, []string{format.Ext, "-", "no"})
		case err != nil:
			return nil, err
		default:
			rows = append(rows, []string{format.Ext, strconv.FormatInt(size, 10), "yes"})
		}
	}
	return rows, nil
}
