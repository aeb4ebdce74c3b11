// Package driver runs many artwork batches from a lazy id source.
package driver

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/pixdl/pixdl/internal/engine/events"
	"github.com/pixdl/pixdl/internal/engine/types"
	"github.com/pixdl/pixdl/internal/utils"
)

// Mode selects how batches are scheduled
type Mode int

const (
	// Sequential pulls the next id only after the current batch finished
	Sequential Mode = iota
	// Parallel keeps up to MaxParallel batches in flight
	Parallel
	// SweepAll starts a batch for every id as soon as it is pulled
	SweepAll
)

func (m Mode) String() string {
	switch m {
	case Parallel:
		return "parallel"
	case SweepAll:
		return "all"
	default:
		return "sequential"
	}
}

// ParseMode accepts the names printed by String
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "sequential", "seq":
		return Sequential, nil
	case "parallel":
		return Parallel, nil
	case "all", "sweep":
		return SweepAll, nil
	}
	return Sequential, fmt.Errorf("unknown sweep mode %q", s)
}

// IDSource yields artwork ids. ok is false once the source is exhausted.
type IDSource interface {
	Next(ctx context.Context) (id uint64, ok bool, err error)
}

// SourceFunc adapts a function to IDSource
type SourceFunc func(ctx context.Context) (uint64, bool, error)

func (f SourceFunc) Next(ctx context.Context) (uint64, bool, error) { return f(ctx) }

// FromSlice yields ids in order
func FromSlice(ids []uint64) IDSource {
	i := 0
	return SourceFunc(func(context.Context) (uint64, bool, error) {
		if i >= len(ids) {
			return 0, false, nil
		}
		i++
		return ids[i-1], true, nil
	})
}

// Resolver turns an artwork id into its metadata and image URLs
type Resolver interface {
	ResolveArtwork(ctx context.Context, id uint64) (types.ArtworkMetadata, error)
}

// BatchDownloader downloads every image of one artwork
type BatchDownloader interface {
	Download(ctx context.Context, meta types.ArtworkMetadata) error
}

// Recorder persists outcomes. Failures to record are logged, never fatal.
type Recorder interface {
	Record(ctx context.Context, o types.Outcome) error
}

// Driver schedules batches. A failing artwork never stops the sweep.
type Driver struct {
	Resolver    Resolver
	Batches     BatchDownloader
	Events      chan<- any
	Recorder    Recorder
	MaxParallel int
}

// New creates a Driver. events may be nil.
func New(resolver Resolver, batches BatchDownloader, events chan<- any) *Driver {
	return &Driver{
		Resolver:    resolver,
		Batches:     batches,
		Events:      events,
		MaxParallel: 1,
	}
}

// Run drains src and returns one outcome per id, in the order the ids were
// pulled. When the source itself fails the sweep ends and the error is
// appended as a final outcome with ArtworkID 0.
func (d *Driver) Run(ctx context.Context, src IDSource, mode Mode) []types.Outcome {
	var (
		mu       sync.Mutex
		outcomes []types.Outcome
		srcErr   error
	)

	switch mode {
	case Sequential:
		for ctx.Err() == nil {
			id, ok, err := src.Next(ctx)
			if err != nil {
				srcErr = err
				break
			}
			if !ok {
				break
			}
			outcomes = append(outcomes, d.runOne(ctx, id))
		}

	default:
		var g errgroup.Group
		if mode == Parallel {
			limit := d.MaxParallel
			if limit <= 0 {
				limit = 1
			}
			g.SetLimit(limit)
		} else {
			g.SetLimit(-1)
		}

		for ctx.Err() == nil {
			id, ok, err := src.Next(ctx)
			if err != nil {
				srcErr = err
				break
			}
			if !ok {
				break
			}

			mu.Lock()
			slot := len(outcomes)
			outcomes = append(outcomes, types.Outcome{ArtworkID: id})
			mu.Unlock()

			// Blocks while the limit is reached, which keeps the source lazy
			g.Go(func() error {
				o := d.runOne(ctx, id)
				mu.Lock()
				outcomes[slot] = o
				mu.Unlock()
				return nil
			})
		}
		_ = g.Wait()
	}

	if srcErr == nil && ctx.Err() != nil {
		srcErr = ctx.Err()
	}
	if srcErr != nil {
		utils.Log().Warn().Err(srcErr).Msg("id source failed, sweep ended")
		outcomes = append(outcomes, types.Outcome{Err: fmt.Errorf("listing artworks: %w", srcErr), Finished: time.Now()})
	}

	failed := 0
	for _, o := range outcomes {
		if o.Failed() {
			failed++
		}
	}
	events.Publish(ctx, d.Events, events.SweepDoneMsg{Total: len(outcomes), Failed: failed})
	return outcomes
}

func (d *Driver) runOne(ctx context.Context, id uint64) types.Outcome {
	o := types.Outcome{ArtworkID: id}

	meta, err := d.Resolver.ResolveArtwork(ctx, id)
	if err != nil {
		o.Err = fmt.Errorf("resolving artwork %d: %w", id, err)
		o.Finished = time.Now()
		utils.Log().Warn().Err(err).Uint64("artwork_id", id).Msg("resolve failed")
		// The coordinator never ran, so report the outcome here
		events.Publish(ctx, d.Events, events.BatchDoneMsg{ArtworkID: id, Err: o.Err})
		d.record(ctx, o)
		return o
	}

	o.Title = meta.Title
	o.Images = len(meta.Images)
	o.Err = d.Batches.Download(ctx, meta)
	o.Finished = time.Now()
	d.record(ctx, o)
	return o
}

func (d *Driver) record(ctx context.Context, o types.Outcome) {
	if d.Recorder == nil {
		return
	}
	if err := d.Recorder.Record(ctx, o); err != nil {
		utils.Log().Warn().Err(err).Uint64("artwork_id", o.ArtworkID).Msg("failed to record outcome")
	}
}
