package core

import (
	"context"

	"github.com/pixdl/pixdl/internal/config"
	"github.com/pixdl/pixdl/internal/engine/driver"
	"github.com/pixdl/pixdl/internal/engine/types"
	"github.com/pixdl/pixdl/internal/history"
	"github.com/pixdl/pixdl/internal/pixiv"
)

// Service defines the interface the TUI and the CLI use to drive the engine.
type Service interface {
	// Resolve fetches the metadata and image URLs of one artwork.
	Resolve(ctx context.Context, id uint64) (types.ArtworkMetadata, error)

	// RankPage fetches one page of a ranking for display.
	RankPage(ctx context.Context, mode types.RankMode, r18 bool, page int) ([]types.RankEntry, error)

	// UserArtworks lists every artwork id of a user, newest first.
	UserArtworks(ctx context.Context, userID uint64) ([]uint64, error)

	// Sweep downloads every artwork the source yields and blocks until done.
	Sweep(ctx context.Context, src driver.IDSource, mode driver.Mode) []types.Outcome

	// SweepRank downloads the artworks of a ranking range.
	SweepRank(ctx context.Context, q pixiv.RankQuery, mode driver.Mode) ([]types.Outcome, error)

	// Progress returns a snapshot of every running transfer.
	Progress() []types.TransferSnapshot

	// Totals sums received and expected bytes of running transfers with a known size.
	Totals() (downloaded, total int64)

	// History returns the most recent batch outcomes, newest first.
	History(ctx context.Context, limit int) ([]history.Entry, error)

	// LastOutcome returns the latest recorded outcome of an artwork.
	LastOutcome(ctx context.Context, id uint64) (history.Entry, bool, error)

	// StreamEvents returns the channel lifecycle events are published on.
	// The caller must keep draining it while sweeps run.
	StreamEvents() <-chan any

	// ApplySettings updates output and scheduling options for later sweeps.
	ApplySettings(s *config.Settings)

	// Shutdown releases the history database
	Shutdown() error
}
