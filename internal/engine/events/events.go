package events

import (
	"context"
	"time"
)

// TransferStartedMsg is sent when a transfer has been registered and its request is about to be issued
type TransferStartedMsg struct {
	TransferID string
	ArtworkID  uint64
	Index      int
	URL        string
	Label      string
	DestPath   string // Full path to the destination file
}

// TransferCompleteMsg signals that a transfer finished successfully
type TransferCompleteMsg struct {
	TransferID string
	ArtworkID  uint64
	Index      int
	DestPath   string
	Elapsed    time.Duration
	Total      int64
}

// TransferErrorMsg signals that a transfer failed
type TransferErrorMsg struct {
	TransferID string
	ArtworkID  uint64
	Index      int
	DestPath   string
	Err        error
}

// BatchStartedMsg is sent before the transfers of one artwork are spawned
type BatchStartedMsg struct {
	ArtworkID uint64
	Title     string
	Author    string
	Images    int
	Dir       string
}

// BatchDoneMsg is sent once every transfer of an artwork is terminal
type BatchDoneMsg struct {
	ArtworkID uint64
	Title     string
	Images    int
	Failed    int
	Err       error
}

// SweepDoneMsg is sent when a driver run has consumed its whole id source
type SweepDoneMsg struct {
	Total  int
	Failed int
}

// Publish sends msg on ch without blocking forever: if the consumer has gone
// away and the buffer is full, the message is dropped once ctx is done.
// A nil channel discards the message.
func Publish(ctx context.Context, ch chan<- any, msg any) {
	if ch == nil {
		return
	}
	select {
	case ch <- msg:
	case <-ctx.Done():
	}
}
