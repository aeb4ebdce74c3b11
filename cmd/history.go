package cmd

import (
	"errors"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/pixdl/pixdl/internal/config"
	"github.com/pixdl/pixdl/internal/history"
	"github.com/pixdl/pixdl/internal/utils"
)

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recently downloaded artworks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := config.GetHistoryPath()
			if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
				fmt.Fprintln(cmd.OutOrStdout(), "No downloads recorded yet")
				return nil
			}

			store, err := history.Open(path)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			limit, _ := cmd.Flags().GetInt("limit")
			failedOnly, _ := cmd.Flags().GetBool("failed")

			if failedOnly {
				ids, err := store.Failed(cmd.Context())
				if err != nil {
					return err
				}
				for _, id := range ids {
					fmt.Fprintln(cmd.OutOrStdout(), id)
				}
				return nil
			}

			entries, err := store.Recent(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No downloads recorded yet")
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tTITLE\tIMAGES\tWHEN\tSTATUS")
			for _, e := range entries {
				status := "ok"
				if e.Failed() {
					status = e.Error
				}
				fmt.Fprintf(w, "%d\t%s\t%d\t%s\t%s\n", e.ArtworkID, truncate(e.Title, 40), e.Images, utils.Ago(e.FinishedAt), truncate(status, 60))
			}
			return w.Flush()
		},
	}

	cmd.Flags().IntP("limit", "n", 20, "Number of entries to show")
	cmd.Flags().Bool("failed", false, "Only print ids whose last attempt failed")
	return cmd
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
