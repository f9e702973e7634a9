package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"storyreel/internal/config"
	"storyreel/internal/queue"
	"storyreel/internal/workflow"
)

func newHealthCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check pipeline stage and database readiness",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withProducer(func(cfg *config.Config, store *queue.Store, producer *workflow.Producer) error {
				out := cmd.OutOrStdout()
				colorize := shouldColorize(out)

				for _, line := range renderSectionHeader("Pipeline stages", colorize) {
					fmt.Fprintln(out, line)
				}
				failures := 0
				for _, health := range producer.Health(cmd.Context()) {
					kind := statusOK
					message := "ready"
					if !health.Ready {
						kind = statusError
						failures++
					}
					if health.Detail != "" {
						message = health.Detail
						if health.Ready {
							kind = statusWarn
						}
					}
					fmt.Fprintln(out, renderStatusLine(health.Name, kind, message, colorize))
				}

				for _, line := range renderSectionHeader("Run database", colorize) {
					fmt.Fprintln(out, line)
				}
				db, err := store.CheckHealth(cmd.Context())
				if err != nil {
					failures++
					fmt.Fprintln(out, renderStatusLine("database", statusError, err.Error(), colorize))
				} else {
					fmt.Fprintln(out, renderStatusLine("path", statusInfo, db.DBPath, colorize))
					fmt.Fprintln(out, renderStatusLine("readable", statusOK, yesNo(db.DatabaseReadable), colorize))
					fmt.Fprintln(out, renderStatusLine("runs", statusInfo, fmt.Sprintf("%d", db.TotalRuns), colorize))
				}

				if failures > 0 {
					return fmt.Errorf("%d health checks failed", failures)
				}
				return nil
			})
		},
	}
}
