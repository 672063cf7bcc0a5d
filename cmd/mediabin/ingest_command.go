package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"mediabin/internal/ingest"
	"mediabin/internal/mediatype"
)

// cliCaller is the rate-limit key for local command-line ingestion.
const cliCaller = "cli"

func newIngestCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "ingest <path>",
		Short: "Store a media file and queue its transcodes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			absPath, err := filepath.Abs(args[0])
			if err != nil {
				return fmt.Errorf("resolve path: %w", err)
			}

			info, err := os.Stat(absPath)
			if err != nil {
				if errors.Is(err, os.ErrNotExist) {
					return fmt.Errorf("file does not exist: %s", absPath)
				}
				return fmt.Errorf("inspect file: %w", err)
			}
			if info.IsDir() {
				return fmt.Errorf("%s is a directory", absPath)
			}
			if !mediatype.AllowedFilename(info.Name()) {
				return fmt.Errorf("unsupported file extension %q", filepath.Ext(info.Name()))
			}

			file, err := os.Open(absPath)
			if err != nil {
				return fmt.Errorf("open file: %w", err)
			}
			defer file.Close()

			return ctx.withApp(func(a *app) error {
				result, err := a.pipeline().Ingest(cmd.Context(), file, info.Name(), "", cliCaller)
				if err != nil {
					return describeIngestError(err)
				}
				printIngestResult(cmd, result, filepath.Base(absPath))
				return nil
			})
		},
	}
}

func newFetchCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "fetch <url>",
		Short: "Download a remote media URL and ingest it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(func(a *app) error {
				fetcher := a.fetcher()
				result, err := a.pipeline().IngestURL(cmd.Context(), fetcher, args[0], cliCaller)
				if err != nil {
					return describeIngestError(err)
				}
				printIngestResult(cmd, result, args[0])
				return nil
			})
		},
	}
}

func printIngestResult(cmd *cobra.Command, result *ingest.Result, source string) {
	if result.Duplicate {
		fmt.Fprintf(cmd.OutOrStdout(), "Already stored as %s (%s)\n", result.Identifier, source)
		return
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Stored %s as %s\n", source, result.Identifier)
}

func describeIngestError(err error) error {
	switch {
	case errors.Is(err, ingest.ErrUnsupportedType):
		return errors.New("unsupported media type")
	case errors.Is(err, ingest.ErrRateLimited):
		return errors.New("rate limit exceeded; try again later")
	default:
		return err
	}
}
