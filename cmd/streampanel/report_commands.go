package main

import (
	"github.com/spf13/cobra"
)

func newUsersWithAccessCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "users-with-access <server-json>",
		Short: "List every user holding library access on a server",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			server, err := parseServerConfig(args[0])
			if err != nil {
				return err
			}

			service, store, err := ctx.newAccessService()
			if err != nil {
				return err
			}
			defer store.Close()

			runCtx, cancel, err := ctx.operationContext("users_with_access", server.Name)
			if err != nil {
				return err
			}
			defer cancel()

			report := service.UsersWithAccess(runCtx, server)
			return writeJSON(cmd, report)
		},
	}
}

func newUsersWithActivityCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "users-with-activity <server-json>",
		Short: "List active users and pending invites with last-seen timestamps",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			server, err := parseServerConfig(args[0])
			if err != nil {
				return err
			}

			collector, err := ctx.newCollector()
			if err != nil {
				return err
			}

			runCtx, cancel, err := ctx.operationContext("users_with_activity", server.Name)
			if err != nil {
				return err
			}
			defer cancel()

			report := collector.Collect(runCtx, server)
			return writeJSON(cmd, report)
		},
	}
}
