package cmd

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/pixdl/pixdl/internal/config"
	"github.com/pixdl/pixdl/internal/core"
	"github.com/pixdl/pixdl/internal/tui"
	"github.com/pixdl/pixdl/internal/utils"
)

// Version information - set via ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
)

// NewRootCmd builds the command tree. Running it without a subcommand
// starts the TUI.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "pixdl",
		Short:         "Download artworks, rankings and users from pixiv",
		Long:          `pixdl is a terminal (TUI) and command-line bulk downloader for pixiv artworks, rankings and user galleries.`,
		Version:       Version,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			verbose, _ := cmd.Flags().GetBool("verbose")
			// The TUI owns the terminal; console logging would tear its frames
			if cmd.Name() == "pixdl" {
				verbose = false
			}
			return initializeGlobalState(verbose)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			utils.CloseLogger()
		},
		RunE: runTUI,
	}

	root.PersistentFlags().BoolP("verbose", "v", false, "Log engine events to stderr")
	root.PersistentFlags().StringP("output", "o", "", "Output directory (overrides settings for this run)")
	root.PersistentFlags().String("group", "", "Group files by none, author or artwork (overrides settings for this run)")
	root.PersistentFlags().String("base-url", "", "Site root to talk to")
	_ = root.PersistentFlags().MarkHidden("base-url")
	root.SetVersionTemplate("pixdl version {{.Version}}\n")

	root.AddCommand(
		newArtworkCmd(),
		newRankCmd(),
		newUserCmd(),
		newHistoryCmd(),
		newConfigCmd(),
	)
	return root
}

// runTUI starts the dashboard. Only one TUI may run at a time.
func runTUI(cmd *cobra.Command, args []string) error {
	isMaster, err := AcquireLock()
	if err != nil {
		return fmt.Errorf("acquiring lock: %w", err)
	}
	if !isMaster {
		return fmt.Errorf("pixdl is already running; use 'pixdl artwork', 'pixdl rank' or 'pixdl user' for headless downloads")
	}
	defer ReleaseLock()

	settings, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	baseURL, _ := cmd.Flags().GetString("base-url")

	svc := core.NewLocalService(settings, core.Options{
		BaseURL:     baseURL,
		HistoryPath: config.GetHistoryPath(),
		IncludeID:   true,
	})
	defer func() { _ = svc.Shutdown() }()

	tui.ApplyTheme(settings.General.Theme)
	m := tui.InitialRootModel(svc, settings, svc.BaseURL())

	p := tea.NewProgram(m, tea.WithAltScreen())
	final, err := p.Run()
	if rm, ok := final.(tui.RootModel); ok {
		rm.Close()
	}
	if err != nil {
		return fmt.Errorf("running TUI: %w", err)
	}
	return nil
}

// Execute runs the command tree and exits non-zero on error.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// initializeGlobalState creates the pixdl directories and opens the debug log
func initializeGlobalState(verbose bool) error {
	if err := config.EnsureDirs(); err != nil {
		return fmt.Errorf("creating directories: %w", err)
	}

	retention := config.DefaultSettings().General.LogRetentionCount
	if settings, err := config.LoadSettings(); err == nil {
		retention = settings.General.LogRetentionCount
	}

	if err := utils.InitLogger(config.GetLogsDir(), verbose, retention); err != nil {
		// Logging is best effort
		fmt.Fprintf(os.Stderr, "Warning: debug log unavailable: %v\n", err)
	}
	utils.Log().Debug().Str("version", Version).Str("build", BuildTime).Msg("pixdl starting")
	return nil
}
