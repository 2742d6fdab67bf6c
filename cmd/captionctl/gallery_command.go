package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newGalleryCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "gallery",
		Short: "Print the gallery, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if limit < 0 {
				return fmt.Errorf("--limit must not be negative")
			}

			svc, err := ctx.services(cmd.Context())
			if err != nil {
				return err
			}
			defer svc.close()

			items, err := svc.gallery.List(cmd.Context(), limit)
			if err != nil {
				return err
			}

			rows := make([][]string, 0, len(items))
			for _, item := range items {
				rows = append(rows, []string{
					item.UploadedAt.Local().Format(time.DateTime),
					item.ImageKey,
					string(item.Status),
					item.Caption,
				})
			}

			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Uploaded", "Key", "Status", "Caption"}, rows))

			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of uploads to show (0 for all)")

	return cmd
}
