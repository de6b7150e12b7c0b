package main

import (
	"github.com/spf13/cobra"

	"streampanel/internal/logging"
)

func newShareLibrariesCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "share-libraries <user> <server-json> <library-ids-json>",
		Short: "Reconcile a user's library access on a server",
		Long: `Reconcile the user's library set on the server toward the given IDs.
An unknown user is invited, an existing share is replaced in full, and an
empty ID array revokes all access. The result is one JSON document on stdout.`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			identifier := args[0]
			server, err := parseServerConfig(args[1])
			if err != nil {
				return err
			}
			libraryIDs, err := parseLibraryIDs(args[2])
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

			runCtx, cancel, err := ctx.operationContext("share_libraries", server.Name)
			if err != nil {
				return err
			}
			defer cancel()

			logger, _ := ctx.ensureLogger()
			logging.WithContext(runCtx, logger).Info("share libraries",
				logging.String("user", identifier),
				logging.Int("requested", len(libraryIDs)))

			outcome := service.ShareLibraries(runCtx, server, identifier, libraryIDs)
			return writeJSON(cmd, outcome)
		},
	}
}
