package main

import (
	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	var configFlag string

	ctx := newCommandContext(&configFlag)

	rootCmd := &cobra.Command{
		Use:           "streampanel",
		Short:         "Administer per-user library access on Plex servers",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Configuration file path")

	rootCmd.AddCommand(newShareLibrariesCommand(ctx))
	rootCmd.AddCommand(newCheckUserCommand(ctx))
	rootCmd.AddCommand(newRemoveUserCommand(ctx))
	rootCmd.AddCommand(newUsersWithAccessCommand(ctx))
	rootCmd.AddCommand(newUsersWithActivityCommand(ctx))
	rootCmd.AddCommand(newAuditCommand(ctx))
	rootCmd.AddCommand(newConfigCommand())

	return rootCmd
}
