package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"gamewiki/internal/config"
	"gamewiki/internal/daemon"
	"gamewiki/internal/listing"
)

func newSyncCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var continueToken string
	var run bool

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Queue a listing batch and optionally process the queue",
		Long: `Queue a listing batch starting at the beginning of the wiki or at --continue.

Each batch queues one page task per listed page plus the next batch, so a
single sync walks the whole namespace. With --run the queue is drained in this
process; otherwise a running daemon picks the work up.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.processLogger()
			if err != nil {
				return err
			}
			rt, err := openRuntime(cfg, logger)
			if err != nil {
				return err
			}
			defer rt.Close()

			req := listing.BatchRequest{
				Limit:     cfg.Sync.BatchLimit,
				Continue:  continueToken,
				Namespace: cfg.Wiki.Namespace,
			}
			if cmd.Flags().Changed("limit") {
				req.Limit = config.ClampBatchLimit(limit)
			}
			if err := rt.scheduler.ScheduleListBatch(cmd.Context(), req); err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Queued listing batch (limit %d", req.Limit)
			if req.Continue != "" {
				fmt.Fprintf(out, ", continue %q", req.Continue)
			}
			fmt.Fprintln(out, ")")

			if !run {
				return nil
			}
			running, err := daemon.IsRunning(cfg)
			if err != nil {
				return err
			}
			if running {
				fmt.Fprintln(out, "Daemon is running; it will process the queue")
				return nil
			}

			signalCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()
			if err := rt.manager.Drain(signalCtx); err != nil {
				return err
			}

			health, err := rt.queue.Health(cmd.Context())
			if err != nil {
				return err
			}
			counts, err := rt.catalog.Counts(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Sync finished: %d completed, %d skipped, %d failed tasks; %d games stored\n",
				health.Completed, health.Skipped, health.Failed, counts["games"])
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Pages per listing batch (1-500, defaults to sync.batch_limit)")
	cmd.Flags().StringVar(&continueToken, "continue", "", "Continuation token to resume listing from")
	cmd.Flags().BoolVar(&run, "run", false, "Process the queue in this process until it is empty")
	return cmd
}
