package main

import "github.com/spf13/cobra"

func newRootCommand() *cobra.Command {
	var configFlag string

	ctx := newCommandContext(&configFlag)

	rootCmd := &cobra.Command{
		Use:           "gamewiki",
		Short:         "PCGamingWiki metadata enrichment",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if shouldSkipConfig(cmd) {
				return nil
			}
			_, err := ctx.ensureConfig()
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Configuration file path")

	rootCmd.AddCommand(
		newSyncCommand(ctx),
		newRunCommand(ctx),
		newPageCommand(ctx),
		newGamesCommand(ctx),
		newQueueCommand(ctx),
		newStatusCommand(ctx),
		newLogsCommand(ctx),
		newConfigCommand(ctx),
	)

	return rootCmd
}
