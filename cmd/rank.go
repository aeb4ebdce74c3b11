package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pixdl/pixdl/internal/engine/driver"
	"github.com/pixdl/pixdl/internal/engine/types"
	"github.com/pixdl/pixdl/internal/pixiv"
)

func newRankCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rank",
		Short: "Download a range of a ranking",
		Long: fmt.Sprintf(`Download the artworks ranked --start..--end (1-based, inclusive) of a
ranking. Modes: %v.`, types.RankModes),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := loadSettings(cmd)
			if err != nil {
				return err
			}

			q := pixiv.RankQuery{
				Mode:  settings.Rank.Mode,
				R18:   settings.Rank.R18,
				Start: settings.Rank.Start,
				End:   settings.Rank.End,
			}
			if cmd.Flags().Changed("mode") {
				s, _ := cmd.Flags().GetString("mode")
				if q.Mode, err = types.ParseRankMode(s); err != nil {
					return err
				}
			}
			if cmd.Flags().Changed("r18") {
				q.R18, _ = cmd.Flags().GetBool("r18")
			}
			if cmd.Flags().Changed("start") {
				q.Start, _ = cmd.Flags().GetInt("start")
			}
			if cmd.Flags().Changed("end") {
				q.End, _ = cmd.Flags().GetInt("end")
			}

			mode, err := sweepMode(cmd, settings)
			if err != nil {
				return err
			}

			svc := newService(cmd, settings, true)
			defer func() { _ = svc.Shutdown() }()

			ranking, err := svc.Ranking(q)
			if err != nil {
				return err
			}

			ctx, cancel := signalContext(cmd)
			defer cancel()
			return runSweep(ctx, svc, driver.SourceFunc(ranking.NextID), mode, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringP("mode", "m", string(types.RankDaily), "Ranking to download")
	cmd.Flags().Bool("r18", false, "Use the R-18 variant of the ranking")
	cmd.Flags().IntP("start", "s", 1, "First rank to download")
	cmd.Flags().IntP("end", "e", 50, "Last rank to download")
	addSweepFlags(cmd)
	return cmd
}
