package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"streampanel/internal/auditlog"
)

func newAuditCommand(ctx *commandContext) *cobra.Command {
	auditCmd := &cobra.Command{
		Use:   "audit",
		Short: "Local mutation audit log",
	}
	auditCmd.AddCommand(newAuditListCommand(ctx))
	return auditCmd
}

func newAuditListCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Show recent mutation outcomes",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if !cfg.Audit.Enabled {
				return fmt.Errorf("audit log is disabled in configuration")
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}

			store, err := auditlog.Open(cfg, logger)
			if err != nil {
				return fmt.Errorf("open audit log: %w", err)
			}
			defer store.Close()

			runCtx, cancel, err := ctx.operationContext("audit_list", "")
			if err != nil {
				return err
			}
			defer cancel()

			entries, err := store.Recent(runCtx, limit)
			if err != nil {
				return err
			}

			if jsonOutput || !isatty.IsTerminal(os.Stdout.Fd()) {
				if entries == nil {
					entries = []auditlog.Entry{}
				}
				return writeJSON(cmd, map[string]any{"entries": entries})
			}

			if len(entries) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No audit entries recorded")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderAuditTable(entries))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of entries to show")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit JSON even on a terminal")
	return cmd
}

func renderAuditTable(entries []auditlog.Entry) string {
	headers := []string{"When", "Server", "Operation", "User", "Result", "Message"}
	rows := make([][]string, 0, len(entries))
	for _, entry := range entries {
		result := "ok"
		if !entry.Success {
			result = "failed"
		}
		if entry.Success && len(entry.Warnings) > 0 {
			result = "ok (warnings)"
		}
		rows = append(rows, []string{
			entry.RecordedAt.Local().Format(time.DateTime),
			entry.Server,
			entry.Operation,
			entry.User,
			result,
			truncateMessage(entry.Message, 60),
		})
	}
	return renderTable(headers, rows, []columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignLeft, alignLeft})
}

// truncateMessage shortens a message to max characters. It counts runes so a
// cut never lands inside a multi-byte sequence.
func truncateMessage(message string, max int) string {
	message = strings.TrimSpace(message)
	runes := []rune(message)
	if len(runes) <= max {
		return message
	}
	return string(runes[:max-3]) + "..."
}
