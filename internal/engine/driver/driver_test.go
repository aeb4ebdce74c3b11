package driver

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pixdl/pixdl/internal/engine/events"
	"github.com/pixdl/pixdl/internal/engine/types"
)

type fakeResolver struct {
	fail map[uint64]bool
}

func (r *fakeResolver) ResolveArtwork(_ context.Context, id uint64) (types.ArtworkMetadata, error) {
	if r.fail[id] {
		return types.ArtworkMetadata{}, &types.RemoteError{StatusCode: 404}
	}
	return types.ArtworkMetadata{ID: id, Title: fmt.Sprintf("art-%d", id), Images: []string{"a", "b"}}, nil
}

// fakeBatches tracks concurrency and optionally waits for a release signal
type fakeBatches struct {
	fail    map[uint64]bool
	delay   time.Duration
	active  atomic.Int32
	peak    atomic.Int32
	release chan struct{}
}

func (b *fakeBatches) Download(ctx context.Context, meta types.ArtworkMetadata) error {
	n := b.active.Add(1)
	defer b.active.Add(-1)
	for {
		p := b.peak.Load()
		if n <= p || b.peak.CompareAndSwap(p, n) {
			break
		}
	}
	if b.release != nil {
		select {
		case <-b.release:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if b.delay > 0 {
		time.Sleep(b.delay)
	}
	if b.fail[meta.ID] {
		return &types.BatchError{ArtworkID: meta.ID, Total: len(meta.Images)}
	}
	return nil
}

type memRecorder struct {
	mu       sync.Mutex
	outcomes []types.Outcome
}

func (r *memRecorder) Record(_ context.Context, o types.Outcome) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outcomes = append(r.outcomes, o)
	return nil
}

func ids(n int) []uint64 {
	out := make([]uint64, n)
	for i := range out {
		out[i] = uint64(i + 1)
	}
	return out
}

func TestRun_SweepAllReturnsOutcomePerID(t *testing.T) {
	batches := &fakeBatches{fail: map[uint64]bool{3: true}}
	res := &fakeResolver{fail: map[uint64]bool{5: true}}
	rec := &memRecorder{}
	d := New(res, batches, nil)
	d.Recorder = rec

	outcomes := d.Run(context.Background(), FromSlice(ids(8)), SweepAll)

	require.Len(t, outcomes, 8)
	for i, o := range outcomes {
		assert.Equal(t, uint64(i+1), o.ArtworkID, "outcomes follow consumption order")
		assert.False(t, o.Finished.IsZero())
	}
	assert.True(t, outcomes[2].Failed())
	assert.True(t, outcomes[4].Failed())

	var batchErr *types.BatchError
	assert.True(t, errors.As(outcomes[2].Err, &batchErr))
	var remote *types.RemoteError
	assert.True(t, errors.As(outcomes[4].Err, &remote))

	failed := 0
	for _, o := range outcomes {
		if o.Failed() {
			failed++
		}
	}
	assert.Equal(t, 2, failed)
	assert.Len(t, rec.outcomes, 8, "every outcome is recorded")
}

func TestRun_SweepAllStartsEveryBatchAtOnce(t *testing.T) {
	const k = 6
	batches := &fakeBatches{release: make(chan struct{})}
	d := New(&fakeResolver{}, batches, nil)

	done := make(chan []types.Outcome, 1)
	go func() { done <- d.Run(context.Background(), FromSlice(ids(k)), SweepAll) }()

	require.Eventually(t, func() bool { return batches.active.Load() == k }, 5*time.Second, 5*time.Millisecond)
	close(batches.release)

	outcomes := <-done
	assert.Len(t, outcomes, k)
}

func TestRun_SequentialPullsLazily(t *testing.T) {
	batches := &fakeBatches{delay: 5 * time.Millisecond}
	d := New(&fakeResolver{}, batches, nil)

	all := ids(5)
	i := 0
	src := SourceFunc(func(context.Context) (uint64, bool, error) {
		if batches.active.Load() != 0 {
			t.Error("next id pulled while a batch was still running")
		}
		if i >= len(all) {
			return 0, false, nil
		}
		i++
		return all[i-1], true, nil
	})

	outcomes := d.Run(context.Background(), src, Sequential)
	assert.Len(t, outcomes, 5)
	assert.Equal(t, int32(1), batches.peak.Load())
}

func TestRun_ParallelRespectsLimit(t *testing.T) {
	batches := &fakeBatches{delay: 20 * time.Millisecond}
	d := New(&fakeResolver{}, batches, nil)
	d.MaxParallel = 3

	outcomes := d.Run(context.Background(), FromSlice(ids(12)), Parallel)

	assert.Len(t, outcomes, 12)
	assert.LessOrEqual(t, batches.peak.Load(), int32(3))
	assert.GreaterOrEqual(t, batches.peak.Load(), int32(2), "parallel mode should overlap batches")
}

func TestRun_SourceErrorEndsSweep(t *testing.T) {
	d := New(&fakeResolver{}, &fakeBatches{}, nil)

	n := 0
	boom := errors.New("page 3 failed")
	src := SourceFunc(func(context.Context) (uint64, bool, error) {
		n++
		if n == 3 {
			return 0, false, boom
		}
		return uint64(n), true, nil
	})

	for _, mode := range []Mode{Sequential, Parallel, SweepAll} {
		t.Run(mode.String(), func(t *testing.T) {
			n = 0
			outcomes := d.Run(context.Background(), src, mode)
			require.Len(t, outcomes, 3)
			assert.False(t, outcomes[0].Failed())
			assert.False(t, outcomes[1].Failed())
			last := outcomes[2]
			assert.Zero(t, last.ArtworkID)
			assert.ErrorIs(t, last.Err, boom)
		})
	}
}

func TestRun_PublishesResolveFailureAndSweepDone(t *testing.T) {
	ch := make(chan any, 16)
	d := New(&fakeResolver{fail: map[uint64]bool{2: true}}, &fakeBatches{}, ch)

	d.Run(context.Background(), FromSlice([]uint64{1, 2}), Sequential)
	close(ch)

	var batchDone []events.BatchDoneMsg
	var sweep *events.SweepDoneMsg
	for msg := range ch {
		switch m := msg.(type) {
		case events.BatchDoneMsg:
			batchDone = append(batchDone, m)
		case events.SweepDoneMsg:
			sweep = &m
		}
	}

	require.Len(t, batchDone, 1, "only the unresolved artwork is reported by the driver")
	assert.Equal(t, uint64(2), batchDone[0].ArtworkID)
	assert.Error(t, batchDone[0].Err)
	require.NotNil(t, sweep)
	assert.Equal(t, 2, sweep.Total)
	assert.Equal(t, 1, sweep.Failed)
}

func TestRun_CancelStopsPulling(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	d := New(&fakeResolver{}, &fakeBatches{}, nil)

	pulled := 0
	src := SourceFunc(func(context.Context) (uint64, bool, error) {
		pulled++
		if pulled == 2 {
			cancel()
		}
		return uint64(pulled), true, nil
	})

	outcomes := d.Run(ctx, src, Sequential)
	assert.Equal(t, 2, pulled)
	require.NotEmpty(t, outcomes)
	assert.ErrorIs(t, outcomes[len(outcomes)-1].Err, context.Canceled)
}

func TestParseMode(t *testing.T) {
	for _, m := range []Mode{Sequential, Parallel, SweepAll} {
		got, err := ParseMode(m.String())
		require.NoError(t, err)
		assert.Equal(t, m, got)
	}
	_, err := ParseMode("random")
	assert.Error(t, err)
}
