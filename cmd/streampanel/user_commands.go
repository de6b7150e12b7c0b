package main

import (
	"github.com/spf13/cobra"

	"streampanel/internal/logging"
)

func newCheckUserCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "check-user <user> <server-json>",
		Short: "Verify a user's account and share status on a server",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			identifier := args[0]
			server, err := parseServerConfig(args[1])
			if err != nil {
				return err
			}

			service, store, err := ctx.newAccessService()
			if err != nil {
				return err
			}
			defer store.Close()

			runCtx, cancel, err := ctx.operationContext("check_user", server.Name)
			if err != nil {
				return err
			}
			defer cancel()

			result := service.CheckUser(runCtx, server, identifier)
			return writeJSON(cmd, result)
		},
	}
}

func newRemoveUserCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "remove-user <user> <server-json>",
		Short: "Remove a user's account access, cancelling a pending invite if present",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			identifier := args[0]
			server, err := parseServerConfig(args[1])
			if err != nil {
				return err
			}

			service, store, err := ctx.newAccessService()
			if err != nil {
				return err
			}
			defer store.Close()

			unlock, err := ctx.lockServer(server.Name)
			if err != nil {
				return err
			}
			defer unlock()

			runCtx, cancel, err := ctx.operationContext("remove_user", server.Name)
			if err != nil {
				return err
			}
			defer cancel()

			logger, _ := ctx.ensureLogger()
			logging.WithContext(runCtx, logger).Info("remove user",
				logging.String("user", identifier))

			outcome := service.RemoveUser(runCtx, server, identifier)
			return writeJSON(cmd, outcome)
		},
	}
}
