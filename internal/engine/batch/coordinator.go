// Package batch downloads every image of one artwork concurrently and joins
// the results into a single outcome.
package batch

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pixdl/pixdl/internal/engine/events"
	"github.com/pixdl/pixdl/internal/engine/paths"
	"github.com/pixdl/pixdl/internal/engine/registry"
	"github.com/pixdl/pixdl/internal/engine/transfer"
	"github.com/pixdl/pixdl/internal/engine/types"
	"github.com/pixdl/pixdl/internal/utils"
)

// Downloader performs one transfer. *transfer.Transfer satisfies it.
type Downloader interface {
	Download(ctx context.Context, id, rawurl, destPath string, r transfer.Reporter) (int64, error)
}

// Options control where a batch writes its files
type Options struct {
	BaseDir        string
	Group          types.GroupMode
	TitleDirWithID bool // Artwork-grouped directories become {title}-{id}
	IncludeID      bool // Filenames become {title}-{id}-{index}.{ext}
}

// Coordinator spawns one transfer per image. Images of a batch are not
// capped; every one runs at once.
type Coordinator struct {
	transfer Downloader
	registry *registry.Registry
	events   chan<- any

	mu   sync.RWMutex
	opts Options

	newID func() string
}

// New creates a Coordinator. events may be nil.
func New(t Downloader, reg *registry.Registry, events chan<- any, opts Options) *Coordinator {
	return &Coordinator{
		transfer: t,
		registry: reg,
		events:   events,
		opts:     opts,
		newID:    uuid.NewString,
	}
}

// SetOptions replaces the options used by batches started afterwards
func (c *Coordinator) SetOptions(opts Options) {
	c.mu.Lock()
	c.opts = opts
	c.mu.Unlock()
}

// Options returns the current options
func (c *Coordinator) Options() Options {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.opts
}

// Download fetches every image of meta and waits for all of them. A failing
// image never cancels its siblings; files that completed stay on disk. When
// any image fails the result is a *types.BatchError listing each failure.
func (c *Coordinator) Download(ctx context.Context, meta types.ArtworkMetadata) error {
	opts := c.Options()
	dir := paths.Plan(opts.BaseDir, meta, opts.Group, opts.TitleDirWithID)

	log := utils.Log().With().Uint64("artwork_id", meta.ID).Logger()
	log.Debug().Str("dir", dir).Int("images", len(meta.Images)).Msg("batch started")

	events.Publish(ctx, c.events, events.BatchStartedMsg{
		ArtworkID: meta.ID,
		Title:     meta.Title,
		Author:    meta.Author,
		Images:    len(meta.Images),
		Dir:       dir,
	})

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		failures []types.ImageError
	)

	for i, rawurl := range meta.Images {
		id := c.newID()
		dest := filepath.Join(dir, paths.Filename(meta, i, rawurl, opts.IncludeID))
		label := fmt.Sprintf("%s #%d", meta.Title, i+1)

		// Registered before the request so progress never targets a missing key
		c.registry.Insert(id, label)
		events.Publish(ctx, c.events, events.TransferStartedMsg{
			TransferID: id,
			ArtworkID:  meta.ID,
			Index:      i,
			URL:        rawurl,
			Label:      label,
			DestPath:   dest,
		})

		wg.Add(1)
		go func(i int, id, rawurl, dest string) {
			defer wg.Done()

			start := time.Now()
			n, err := c.transfer.Download(ctx, id, rawurl, dest, c.registry)
			c.registry.Remove(id)

			if err != nil {
				log.Warn().Err(err).Str("transfer_id", id).Int("index", i).Msg("image failed")
				mu.Lock()
				failures = append(failures, types.ImageError{Index: i, URL: rawurl, Err: err})
				mu.Unlock()
				events.Publish(ctx, c.events, events.TransferErrorMsg{
					TransferID: id,
					ArtworkID:  meta.ID,
					Index:      i,
					DestPath:   dest,
					Err:        err,
				})
				return
			}

			events.Publish(ctx, c.events, events.TransferCompleteMsg{
				TransferID: id,
				ArtworkID:  meta.ID,
				Index:      i,
				DestPath:   dest,
				Elapsed:    time.Since(start),
				Total:      n,
			})
		}(i, id, rawurl, dest)
	}

	wg.Wait()

	var err error
	if len(failures) > 0 {
		sort.Slice(failures, func(a, b int) bool { return failures[a].Index < failures[b].Index })
		err = &types.BatchError{ArtworkID: meta.ID, Total: len(meta.Images), Failures: failures}
	}

	log.Debug().Int("failed", len(failures)).Msg("batch finished")
	events.Publish(ctx, c.events, events.BatchDoneMsg{
		ArtworkID: meta.ID,
		Title:     meta.Title,
		Images:    len(meta.Images),
		Failed:    len(failures),
		Err:       err,
	})
	return err
}
