package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pixdl/pixdl/internal/engine/driver"
	"github.com/pixdl/pixdl/internal/utils"
)

func newArtworkCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "artwork <id|url>...",
		Aliases: []string{"get", "a"},
		Short:   "Download artworks by id or URL",
		Long: `Download every image of the given artworks. Arguments are artwork ids or
artwork page URLs such as https://www.pixiv.net/artworks/123.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			refs := append([]string(nil), args...)
			if batch, _ := cmd.Flags().GetString("batch"); batch != "" {
				lines, err := readIDsFromFile(batch)
				if err != nil {
					return err
				}
				refs = append(refs, lines...)
			}
			retry, _ := cmd.Flags().GetBool("retry-failed")
			if len(refs) == 0 && !retry {
				return fmt.Errorf("no artworks given")
			}

			ids := make([]uint64, 0, len(refs))
			for _, ref := range refs {
				id, err := utils.ParseArtworkID(ref)
				if err != nil {
					return err
				}
				ids = append(ids, id)
			}

			settings, err := loadSettings(cmd)
			if err != nil {
				return err
			}
			mode, err := sweepMode(cmd, settings)
			if err != nil {
				return err
			}
			includeID, _ := cmd.Flags().GetBool("with-id")

			svc := newService(cmd, settings, includeID)
			defer func() { _ = svc.Shutdown() }()

			ctx, cancel := signalContext(cmd)
			defer cancel()

			if retry {
				failed, err := svc.FailedArtworks(ctx)
				if err != nil {
					return err
				}
				ids = append(ids, failed...)
				if len(ids) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No failed artworks to retry")
					return nil
				}
			}
			return runSweep(ctx, svc, driver.FromSlice(uniqueIDs(ids)), mode, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringP("batch", "b", "", "File containing artwork ids or URLs (one per line)")
	cmd.Flags().Bool("retry-failed", false, "Also download every artwork whose last attempt failed")
	cmd.Flags().Bool("with-id", false, "Name files {title}-{id}-{index} instead of {title}-{index}")
	addSweepFlags(cmd)
	return cmd
}
