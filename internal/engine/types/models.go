package types

import (
	"fmt"
	"strings"
	"time"
)

// ArtworkMetadata is a resolved artwork: what to call it and where its images live.
type ArtworkMetadata struct {
	ID     uint64   `json:"id"`
	Title  string   `json:"title"`
	Author string   `json:"author"`
	Images []string `json:"images"` // Original image URLs in page order
}

// RankEntry is one row of a ranking listing
type RankEntry struct {
	Rank   int      `json:"rank"`
	ID     uint64   `json:"id"`
	Title  string   `json:"title"`
	Author string   `json:"author"`
	Tags   []string `json:"tags"`
}

// TransferSnapshot is a copy of one in-flight transfer's progress
type TransferSnapshot struct {
	ID         string
	Label      string
	Downloaded int64
	Total      int64 // Only meaningful when TotalKnown
	TotalKnown bool
	StartedAt  time.Time
}

// Percent returns completion in [0,1], or -1 while the total is unknown.
func (s TransferSnapshot) Percent() float64 {
	if !s.TotalKnown {
		return -1
	}
	if s.Total <= 0 {
		return 1
	}
	p := float64(s.Downloaded) / float64(s.Total)
	if p > 1 {
		p = 1
	}
	return p
}

// Outcome is the terminal result of one artwork batch within a sweep
type Outcome struct {
	ArtworkID uint64
	Title     string
	Images    int
	Err       error
	Finished  time.Time
}

// Failed reports whether the batch (or its resolution) failed
func (o Outcome) Failed() bool {
	return o.Err != nil
}

// GroupMode selects how downloaded files are organised into subdirectories
type GroupMode int

const (
	GroupNone GroupMode = iota
	GroupByAuthor
	GroupByArtwork
)

// GroupModes lists the modes in the order the settings overlay cycles through them
var GroupModes = []GroupMode{GroupNone, GroupByAuthor, GroupByArtwork}

func (g GroupMode) String() string {
	switch g {
	case GroupByAuthor:
		return "author"
	case GroupByArtwork:
		return "artwork"
	default:
		return "none"
	}
}

// ParseGroupMode accepts the names printed by String plus "title" as an alias for artwork.
func ParseGroupMode(s string) (GroupMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return GroupNone, nil
	case "author", "user":
		return GroupByAuthor, nil
	case "artwork", "title":
		return GroupByArtwork, nil
	}
	return GroupNone, fmt.Errorf("unknown group mode %q (want none, author or artwork)", s)
}

// MarshalText implements encoding.TextMarshaler so settings store the name
func (g GroupMode) MarshalText() ([]byte, error) {
	return []byte(g.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (g *GroupMode) UnmarshalText(b []byte) error {
	mode, err := ParseGroupMode(string(b))
	if err != nil {
		return err
	}
	*g = mode
	return nil
}

// RankMode is a ranking category on the remote service
type RankMode string

const (
	RankDaily    RankMode = "daily"
	RankWeekly   RankMode = "weekly"
	RankMonthly  RankMode = "monthly"
	RankRookie   RankMode = "rookie"
	RankOriginal RankMode = "original"
	RankDailyAI  RankMode = "daily_ai"
	RankMale     RankMode = "male"
	RankFemale   RankMode = "female"
)

// RankModes is the tab order used by the TUI
var RankModes = []RankMode{
	RankDaily, RankWeekly, RankMonthly, RankRookie,
	RankOriginal, RankDailyAI, RankMale, RankFemale,
}

// ParseRankMode validates a category name
func ParseRankMode(s string) (RankMode, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, m := range RankModes {
		if string(m) == s {
			return m, nil
		}
	}
	return "", fmt.Errorf("unknown rank mode %q", s)
}
