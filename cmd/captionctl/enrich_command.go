package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var (
	errEnrichFailed = errors.New("enrichment failed for some keys")
	errNoKeys       = errors.New("give at least one key or --pending")
)

func newEnrichCommand(ctx *commandContext) *cobra.Command {
	var (
		pending   bool
		olderThan time.Duration
		limit     int
	)

	cmd := &cobra.Command{
		Use:   "enrich [KEY...]",
		Short: "Caption and thumbnail the given uploads now",
		Long: "Runs enrichment inline for each image key, e.g. to retry FAILED records.\n" +
			"Keys look like uploads/dog.jpg. With --pending, also picks up records\n" +
			"that have been PENDING for longer than --older-than.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 && !pending {
				return errNoKeys
			}

			svc, err := ctx.services(cmd.Context())
			if err != nil {
				return err
			}
			defer svc.close()

			keys := args
			if pending {
				stale, err := svc.records.ListPendingBefore(cmd.Context(), time.Now().Add(-olderThan), limit)
				if err != nil {
					return fmt.Errorf("list pending records: %w", err)
				}
				for _, r := range stale {
					keys = append(keys, r.ImageKey)
				}
			}

			rows := make([][]string, 0, len(keys))
			failed := false

			for _, key := range keys {
				status, err := svc.enrich.Enrich(cmd.Context(), key)
				if err != nil {
					failed = true
					rows = append(rows, []string{key, "error", err.Error()})
					continue
				}
				rows = append(rows, []string{key, string(status), ""})
			}

			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Key", "Status", "Error"}, rows))

			if failed {
				return errEnrichFailed
			}

			return nil
		},
	}

	cmd.Flags().BoolVar(&pending, "pending", false, "also enrich records stuck in PENDING")
	cmd.Flags().DurationVar(&olderThan, "older-than", 10*time.Minute, "minimum age of a PENDING record picked up by --pending")
	cmd.Flags().IntVar(&limit, "limit", 100, "maximum number of PENDING records picked up by --pending")

	return cmd
}
