package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/pixdl/pixdl/internal/core"
	"github.com/pixdl/pixdl/internal/engine/driver"
	"github.com/pixdl/pixdl/internal/engine/events"
	"github.com/pixdl/pixdl/internal/engine/types"
	"github.com/pixdl/pixdl/internal/utils"
)

// ErrSweepFailed is returned when at least one artwork of a sweep failed
var ErrSweepFailed = errors.New("some artworks failed")

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// StartHeadlessConsumer prints lifecycle events to out until the sweep
// ends. The returned channel is closed once the consumer has stopped.
func StartHeadlessConsumer(ctx context.Context, ch <-chan any, out io.Writer) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			var msg any
			select {
			case msg = <-ch:
			case <-ctx.Done():
				return
			}

			switch m := msg.(type) {
			case events.BatchStartedMsg:
				fmt.Fprintf(out, "Artwork %d: %s by %s (%d images) -> %s\n", m.ArtworkID, m.Title, m.Author, m.Images, m.Dir)
			case events.TransferStartedMsg:
				utils.Log().Debug().Str("transfer_id", m.TransferID).Str("url", m.URL).Msg("transfer started")
			case events.TransferCompleteMsg:
				fmt.Fprintf(out, "  Completed: %s [%s] (%s in %s)\n", m.DestPath, shortID(m.TransferID),
					utils.ConvertBytesToHumanReadable(m.Total), m.Elapsed.Round(time.Millisecond))
			case events.TransferErrorMsg:
				fmt.Fprintf(out, "  Error: %s [%s]: %v\n", m.DestPath, shortID(m.TransferID), m.Err)
			case events.BatchDoneMsg:
				if m.Err != nil && m.Images == 0 {
					// Resolution failed before any transfer started
					fmt.Fprintf(out, "Artwork %d failed: %v\n", m.ArtworkID, m.Err)
				}
			case events.SweepDoneMsg:
				return
			}
		}
	}()
	return done
}

// runSweep runs src through svc while printing progress to out, then
// prints a summary. It returns ErrSweepFailed when any artwork failed.
func runSweep(ctx context.Context, svc *core.LocalService, src driver.IDSource, mode driver.Mode, out io.Writer) error {
	consumerCtx, stop := context.WithCancel(context.Background())
	defer stop()
	done := StartHeadlessConsumer(consumerCtx, svc.StreamEvents(), out)

	outcomes := svc.Sweep(ctx, src, mode)
	if ctx.Err() != nil {
		// The final sweep event may have been dropped on cancellation
		stop()
	}
	<-done

	return summarize(outcomes, out)
}

func summarize(outcomes []types.Outcome, out io.Writer) error {
	var failed []types.Outcome
	images := 0
	for _, o := range outcomes {
		if o.Failed() {
			failed = append(failed, o)
			continue
		}
		images += o.Images
	}

	fmt.Fprintf(out, "\nDownloaded %d of %d artwork(s), %d image(s)\n", len(outcomes)-len(failed), len(outcomes), images)
	if len(failed) == 0 {
		return nil
	}
	for _, o := range failed {
		if o.ArtworkID == 0 {
			fmt.Fprintf(out, "  sweep aborted: %v\n", o.Err)
			continue
		}
		fmt.Fprintf(out, "  %d: %v\n", o.ArtworkID, o.Err)
	}
	return fmt.Errorf("%w: %d of %d", ErrSweepFailed, len(failed), len(outcomes))
}
