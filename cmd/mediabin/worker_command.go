package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"mediabin/internal/transcode"
	"mediabin/internal/worker"
)

func newWorkerCommand(ctx *commandContext) *cobra.Command {
	var once bool

	cmd := &cobra.Command{
		Use:   "worker",
		Short: "Run the transcode worker",
		Long: "Consume the transcode queue, producing every rendition declared\n" +
			"for each item's content type. Only one worker instance may run per\n" +
			"data directory.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(func(a *app) error {
				lock := flock.New(a.cfg.WorkerLockPath())
				ok, err := lock.TryLock()
				if err != nil {
					return fmt.Errorf("acquire worker lock: %w", err)
				}
				if !ok {
					return errors.New("another worker instance is already running")
				}
				defer func() {
					if err := lock.Unlock(); err != nil {
						a.logger.Warn("failed to release worker lock", slog.String("error", err.Error()))
					}
				}()

				runner := worker.New(
					a.queue,
					a.items,
					a.blobs,
					transcode.NewFFmpeg(a.cfg.Worker.FFmpegBinary),
					a.logger,
					time.Duration(a.cfg.Worker.PollIntervalSeconds)*time.Second,
				)

				runCtx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
				defer stop()

				if once {
					return drainQueue(runCtx, runner)
				}

				if err := runner.Start(runCtx); err != nil {
					return err
				}
				<-runCtx.Done()
				runner.Stop()
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&once, "once", false, "Drain the queue and exit instead of polling")
	return cmd
}

func drainQueue(ctx context.Context, runner *worker.Runner) error {
	for {
		worked, err := runner.RunOnce(ctx)
		if err != nil {
			return err
		}
		if !worked {
			return nil
		}
	}
}
