package main

import (
	"fmt"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"gamewiki/internal/logging"
	"gamewiki/internal/logs"
)

func newLogsCommand(ctx *commandContext) *cobra.Command {
	var lines int
	var follow bool
	var taskID int64
	var page string

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show the persistent gamewiki log",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			path := logging.LogPath(cfg)
			if path == "" {
				return fmt.Errorf("file logging is disabled (paths.log_dir is empty)")
			}

			var filter logs.Filter
			if taskID > 0 {
				id := strconv.FormatInt(taskID, 10)
				// Console headers read "Task #N"; JSON lines carry the task_id field.
				filter.Require("Task #"+id+" ", `"`+logging.FieldTaskID+`":`+id+",", `"`+logging.FieldTaskID+`":`+id+"}")
			}
			if page != "" {
				filter.Require(page)
			}

			out := cmd.OutOrStdout()
			recent, offset, err := logs.Last(path, lines, filter)
			if err != nil {
				return err
			}
			for _, line := range recent {
				fmt.Fprintln(out, line)
			}
			if !follow {
				return nil
			}

			signalCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()
			return logs.Follow(signalCtx, path, offset, 0, filter, func(line string) {
				fmt.Fprintln(out, line)
			})
		},
	}

	cmd.Flags().IntVarP(&lines, "lines", "n", 50, "Number of trailing entries to show")
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Keep printing new lines until interrupted")
	cmd.Flags().Int64Var(&taskID, "task", 0, "Only lines for this queue task id")
	cmd.Flags().StringVar(&page, "page", "", "Only lines mentioning this page title")
	return cmd
}
