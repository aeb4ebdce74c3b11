// Package messages holds the results of TUI commands that fetch listings.
// Engine lifecycle events live in internal/engine/events.
package messages

import (
	"time"

	"github.com/pixdl/pixdl/internal/engine/types"
	"github.com/pixdl/pixdl/internal/history"
)

// TickMsg drives progress polling
type TickMsg time.Time

// RankPageMsg carries one loaded ranking page
type RankPageMsg struct {
	Gen     int // Listing generation; stale results are dropped
	Mode    types.RankMode
	R18     bool
	Page    int
	Entries []types.RankEntry
	Err     error
}

// UserListMsg carries a user's artwork ids
type UserListMsg struct {
	Gen    int
	UserID uint64
	IDs    []uint64
	Err    error
}

// ArtworkMsg carries one resolved artwork
type ArtworkMsg struct {
	Gen      int
	ID       uint64
	Meta     types.ArtworkMetadata
	Previous *history.Entry // Last recorded download, if any
	Err      error
}

// SweepFinishedMsg is returned by the command that ran a sweep
type SweepFinishedMsg struct {
	Outcomes []types.Outcome
}

// NotificationMsg shows a transient line in the footer
type NotificationMsg struct {
	Text string
}

// ClearNotificationMsg clears the footer line if it still shows Seq
type ClearNotificationMsg struct {
	Seq int
}
