package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pixdl/pixdl/internal/config"
	"github.com/pixdl/pixdl/internal/core"
	"github.com/pixdl/pixdl/internal/engine/driver"
	"github.com/pixdl/pixdl/internal/engine/types"
)

// loadSettings reads the saved settings and applies per-run flag overrides
func loadSettings(cmd *cobra.Command) (*config.Settings, error) {
	settings, err := config.LoadSettings()
	if err != nil {
		return nil, fmt.Errorf("loading settings from %s: %w", config.GetSettingsPath(), err)
	}

	if out, _ := cmd.Flags().GetString("output"); out != "" {
		settings.General.OutputDir = out
	}
	if group, _ := cmd.Flags().GetString("group"); group != "" {
		mode, err := types.ParseGroupMode(group)
		if err != nil {
			return nil, err
		}
		settings.General.GroupMode = mode
	}
	return settings, nil
}

// addSweepFlags registers the scheduling flags shared by sweep commands
func addSweepFlags(cmd *cobra.Command) {
	cmd.Flags().Bool("all", false, "Download every artwork at once")
	cmd.Flags().IntP("parallel", "p", 0, "Download up to N artworks at once")
}

// sweepMode reads --all / --parallel. --parallel also overrides the
// configured limit.
func sweepMode(cmd *cobra.Command, settings *config.Settings) (driver.Mode, error) {
	all, _ := cmd.Flags().GetBool("all")
	parallel, _ := cmd.Flags().GetInt("parallel")

	switch {
	case all && parallel > 0:
		return driver.Sequential, fmt.Errorf("--all and --parallel are mutually exclusive")
	case all:
		return driver.SweepAll, nil
	case parallel > 0:
		settings.Network.MaxParallel = parallel
		return driver.Parallel, nil
	case parallel < 0:
		return driver.Sequential, fmt.Errorf("--parallel must be positive")
	}
	return driver.Sequential, nil
}

// newService builds a headless service for a command
func newService(cmd *cobra.Command, settings *config.Settings, includeID bool) *core.LocalService {
	baseURL, _ := cmd.Flags().GetString("base-url")
	return core.NewLocalService(settings, core.Options{
		BaseURL:     baseURL,
		HistoryPath: config.GetHistoryPath(),
		IncludeID:   includeID,
	})
}

// signalContext is cancelled on Ctrl+C so running transfers stop cleanly
func signalContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, os.Interrupt)
}

// uniqueIDs drops repeated ids, keeping the first occurrence of each
func uniqueIDs(ids []uint64) []uint64 {
	seen := make(map[uint64]bool, len(ids))
	out := ids[:0:0]
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

// readIDsFromFile reads artwork ids or URLs, one per line. Blank lines and
// lines starting with # are skipped.
func readIDsFromFile(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var lines []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" && !strings.HasPrefix(line, "#") {
			lines = append(lines, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return lines, nil
}
