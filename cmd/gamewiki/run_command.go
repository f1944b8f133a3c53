package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"gamewiki/internal/daemon"
	"gamewiki/internal/logging"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the worker daemon in the foreground",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.processLogger()
			if err != nil {
				return err
			}

			signalCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			rt, err := openRuntime(cfg, logger)
			if err != nil {
				logger.Error("open runtime", logging.Error(err))
				return err
			}
			defer rt.Close()

			d, err := daemon.New(cfg, rt.queue, logger, rt.manager, rt.client)
			if err != nil {
				return fmt.Errorf("create daemon: %w", err)
			}
			if err := d.Run(signalCtx); err != nil {
				return err
			}
			logger.Info("gamewiki daemon shutting down")
			return nil
		},
	}
}
