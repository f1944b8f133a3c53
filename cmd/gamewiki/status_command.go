package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"gamewiki/internal/catalog"
	"gamewiki/internal/daemon"
	"gamewiki/internal/preflight"
	"gamewiki/internal/queue"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show daemon, dependency, queue, and catalog status",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			client, err := ctx.wikiClient()
			if err != nil {
				return err
			}
			report := newStatusReport(cmd.OutOrStdout())

			report.section("System")
			switch running, lockErr := daemon.IsRunning(cfg); {
			case lockErr != nil:
				report.line("Daemon", statusWarn, lockErr.Error())
			case running:
				report.line("Daemon", statusOK, "Running")
			default:
				report.line("Daemon", statusInfo, "Not running")
			}
			if ctx.configPath != "" {
				report.line("Config", statusInfo, ctx.configPath)
			}

			report.section("Dependencies")
			for _, result := range preflight.RunAll(cmd.Context(), cfg, client) {
				report.check(result)
			}
			queueStore, queueErr := queue.Open(cfg)
			if queueErr != nil {
				report.line("Queue database", statusError, queueErr.Error())
			} else {
				defer queueStore.Close()
				report.check(preflight.CheckDatabase(cmd.Context(), "Queue database", cfg.QueuePath(), queueStore))
			}
			catalogStore, catalogErr := catalog.Open(cfg)
			if catalogErr != nil {
				report.line("Catalog database", statusError, catalogErr.Error())
			} else {
				defer catalogStore.Close()
				report.check(preflight.CheckDatabase(cmd.Context(), "Catalog database", cfg.CatalogPath(), catalogStore))
			}

			if queueErr == nil {
				if health, err := queueStore.Health(cmd.Context()); err == nil {
					failed := statusInfo
					if health.Failed > 0 {
						failed = statusWarn
					}
					report.section("Queue")
					report.line("Pending", statusInfo, strconv.Itoa(health.Pending))
					report.line("Processing", statusInfo, strconv.Itoa(health.Processing))
					report.line("Completed", statusOK, strconv.Itoa(health.Completed))
					report.line("Skipped", statusInfo, strconv.Itoa(health.Skipped))
					report.line("Failed", failed, strconv.Itoa(health.Failed))
				}
			}
			if catalogErr == nil {
				if counts, err := catalogStore.Counts(cmd.Context()); err == nil {
					report.section("Catalog")
					for _, key := range []string{"games", "companies", "genres", "platforms", "modes", "series", "engines", "game_links"} {
						report.line(key, statusInfo, strconv.Itoa(counts[key]))
					}
				}
			}

			fmt.Fprintln(cmd.OutOrStdout(), report.String())
			return nil
		},
	}
}
