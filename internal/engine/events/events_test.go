package events

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

// =============================================================================
// Message Type Assertions
// =============================================================================

func TestMessageTypes_AreDistinct(t *testing.T) {
	messages := []any{
		TransferStartedMsg{TransferID: "started"},
		TransferCompleteMsg{TransferID: "complete"},
		TransferErrorMsg{TransferID: "error"},
		BatchStartedMsg{ArtworkID: 1},
		BatchDoneMsg{ArtworkID: 1},
		SweepDoneMsg{},
	}

	typeNames := make(map[string]bool)
	for _, msg := range messages {
		typeName := fmt.Sprintf("%T", msg)
		if typeNames[typeName] {
			t.Errorf("Duplicate type: %s", typeName)
		}
		typeNames[typeName] = true
	}

	if len(typeNames) != len(messages) {
		t.Errorf("Expected %d distinct types, got %d", len(messages), len(typeNames))
	}
}

func TestTransferCompleteMsg_ChannelCommunication(t *testing.T) {
	ch := make(chan any, 1)

	sent := TransferCompleteMsg{
		TransferID: "channel-complete",
		ArtworkID:  7,
		Elapsed:    5 * time.Second,
	}

	ch <- sent
	received, ok := (<-ch).(TransferCompleteMsg)
	if !ok {
		t.Fatal("Type switch should recover TransferCompleteMsg")
	}
	if received != sent {
		t.Error("Message should be identical after channel send/receive")
	}
}

// =============================================================================
// Publish
// =============================================================================

func TestPublish_NilChannelIsNoop(t *testing.T) {
	Publish(context.Background(), nil, BatchDoneMsg{})
}

func TestPublish_DropsAfterCancel(t *testing.T) {
	ch := make(chan any) // unbuffered, nobody reading
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done := make(chan struct{})
	go func() {
		Publish(ctx, ch, BatchDoneMsg{})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Publish blocked after context cancel")
	}
}

func TestPublish_DeliversErrorsIntact(t *testing.T) {
	ch := make(chan any, 1)
	cause := errors.New("unexpected status code 404")
	Publish(context.Background(), ch, BatchDoneMsg{ArtworkID: 5, Images: 3, Failed: 1, Err: fmt.Errorf("artwork 5: %w", cause)})

	got, ok := (<-ch).(BatchDoneMsg)
	if !ok {
		t.Fatal("expected BatchDoneMsg")
	}
	if !errors.Is(got.Err, cause) {
		t.Errorf("Err = %v, want it to wrap %v", got.Err, cause)
	}
}
