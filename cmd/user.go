package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pixdl/pixdl/internal/engine/driver"
	"github.com/pixdl/pixdl/internal/utils"
)

func newUserCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user <id|url>",
		Short: "Download every artwork of a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := utils.ParseUserID(args[0])
			if err != nil {
				return err
			}

			settings, err := loadSettings(cmd)
			if err != nil {
				return err
			}
			mode, err := sweepMode(cmd, settings)
			if err != nil {
				return err
			}

			svc := newService(cmd, settings, true)
			defer func() { _ = svc.Shutdown() }()

			ctx, cancel := signalContext(cmd)
			defer cancel()

			ids, err := svc.UserArtworks(ctx, userID)
			if err != nil {
				return fmt.Errorf("listing artworks of user %d: %w", userID, err)
			}
			if limit, _ := cmd.Flags().GetInt("limit"); limit > 0 && limit < len(ids) {
				ids = ids[:limit]
			}
			fmt.Fprintf(cmd.OutOrStdout(), "User %d: %d artwork(s)\n", userID, len(ids))

			return runSweep(ctx, svc, driver.FromSlice(ids), mode, cmd.OutOrStdout())
		},
	}

	cmd.Flags().IntP("limit", "n", 0, "Only download the newest N artworks")
	addSweepFlags(cmd)
	return cmd
}
