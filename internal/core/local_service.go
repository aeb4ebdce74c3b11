package core

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/pixdl/pixdl/internal/config"
	"github.com/pixdl/pixdl/internal/engine/batch"
	"github.com/pixdl/pixdl/internal/engine/driver"
	"github.com/pixdl/pixdl/internal/engine/registry"
	"github.com/pixdl/pixdl/internal/engine/transfer"
	"github.com/pixdl/pixdl/internal/engine/types"
	"github.com/pixdl/pixdl/internal/history"
	"github.com/pixdl/pixdl/internal/pixiv"
	"github.com/pixdl/pixdl/internal/utils"
)

// ErrNoHistory is returned by History when the database could not be opened
var ErrNoHistory = errors.New("history is not available")

// Options tune a LocalService beyond what settings cover
type Options struct {
	BaseURL     string // Overrides the site root (tests and mirrors)
	HistoryPath string // Empty disables the history store
	IncludeID   bool   // Filenames carry the artwork id
}

// LocalService runs the engine in-process.
type LocalService struct {
	client      *pixiv.Client
	registry    *registry.Registry
	coordinator *batch.Coordinator
	store       *history.Store
	events      chan any

	mu          sync.RWMutex
	maxParallel int
}

var _ Service = (*LocalService)(nil)

// NewLocalService wires a pixiv client, a progress registry, a batch
// coordinator and, when opts.HistoryPath is set, the history store.
// Network settings are fixed for the lifetime of the service.
func NewLocalService(settings *config.Settings, opts Options) *LocalService {
	if settings == nil {
		settings = config.DefaultSettings()
	}
	runtime := settings.ToRuntimeConfig()
	runtime.BaseURL = opts.BaseURL

	s := &LocalService{
		client:      pixiv.NewClient(runtime),
		registry:    registry.New(),
		events:      make(chan any, types.EventChannelBuffer),
		maxParallel: runtime.GetMaxParallel(),
	}
	s.coordinator = batch.New(transfer.New(runtime), s.registry, s.events, batchOptions(settings, opts.IncludeID))

	if opts.HistoryPath != "" {
		store, err := history.Open(opts.HistoryPath)
		if err != nil {
			utils.Log().Warn().Err(err).Str("path", opts.HistoryPath).Msg("history disabled")
		} else {
			s.store = store
		}
	}
	return s
}

func batchOptions(s *config.Settings, includeID bool) batch.Options {
	return batch.Options{
		BaseDir:        s.General.OutputDir,
		Group:          s.General.GroupMode,
		TitleDirWithID: s.General.TitleDirWithID,
		IncludeID:      includeID,
	}
}

// Resolve fetches the metadata and image URLs of one artwork.
func (s *LocalService) Resolve(ctx context.Context, id uint64) (types.ArtworkMetadata, error) {
	return s.client.ResolveArtwork(ctx, id)
}

// RankPage fetches one ranking page.
func (s *LocalService) RankPage(ctx context.Context, mode types.RankMode, r18 bool, page int) ([]types.RankEntry, error) {
	return s.client.RankPage(ctx, mode, r18, page)
}

// UserArtworks lists a user's artwork ids.
func (s *LocalService) UserArtworks(ctx context.Context, userID uint64) ([]uint64, error) {
	return s.client.ListUserArtworkIDs(ctx, userID)
}

// Sweep downloads every artwork src yields.
func (s *LocalService) Sweep(ctx context.Context, src driver.IDSource, mode driver.Mode) []types.Outcome {
	d := driver.New(s.client, s.coordinator, s.events)
	s.mu.RLock()
	d.MaxParallel = s.maxParallel
	s.mu.RUnlock()
	if s.store != nil {
		d.Recorder = s.store
	}
	return d.Run(ctx, src, mode)
}

// Ranking returns a cursor over the entries ranked q.Start..q.End.
func (s *LocalService) Ranking(q pixiv.RankQuery) (*pixiv.Ranking, error) {
	return pixiv.NewRanking(s.client, q)
}

// SweepRank downloads the artworks ranked q.Start..q.End.
func (s *LocalService) SweepRank(ctx context.Context, q pixiv.RankQuery, mode driver.Mode) ([]types.Outcome, error) {
	ranking, err := s.Ranking(q)
	if err != nil {
		return nil, err
	}
	return s.Sweep(ctx, driver.SourceFunc(ranking.NextID), mode), nil
}

// SweepUser downloads every artwork of a user.
func (s *LocalService) SweepUser(ctx context.Context, userID uint64, mode driver.Mode) ([]types.Outcome, error) {
	ids, err := s.client.ListUserArtworkIDs(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("listing artworks of user %d: %w", userID, err)
	}
	return s.Sweep(ctx, driver.FromSlice(ids), mode), nil
}

// Progress returns the registry snapshot.
func (s *LocalService) Progress() []types.TransferSnapshot {
	return s.registry.Snapshot()
}

// Totals sums the bytes of running transfers whose size is known.
func (s *LocalService) Totals() (downloaded, total int64) {
	return s.registry.Totals()
}

// History returns recent outcomes.
func (s *LocalService) History(ctx context.Context, limit int) ([]history.Entry, error) {
	if s.store == nil {
		return nil, ErrNoHistory
	}
	return s.store.Recent(ctx, limit)
}

// LastOutcome returns the latest recorded outcome of an artwork.
func (s *LocalService) LastOutcome(ctx context.Context, id uint64) (history.Entry, bool, error) {
	if s.store == nil {
		return history.Entry{}, false, ErrNoHistory
	}
	return s.store.Last(ctx, id)
}

// FailedArtworks returns ids whose latest batch failed.
func (s *LocalService) FailedArtworks(ctx context.Context) ([]uint64, error) {
	if s.store == nil {
		return nil, ErrNoHistory
	}
	return s.store.Failed(ctx)
}

// StreamEvents returns the event channel.
func (s *LocalService) StreamEvents() <-chan any {
	return s.events
}

// ApplySettings updates output directory, grouping and parallelism.
func (s *LocalService) ApplySettings(settings *config.Settings) {
	includeID := s.coordinator.Options().IncludeID
	s.coordinator.SetOptions(batchOptions(settings, includeID))

	s.mu.Lock()
	s.maxParallel = settings.ToRuntimeConfig().GetMaxParallel()
	s.mu.Unlock()
}

// BaseURL returns the site root requests go to.
func (s *LocalService) BaseURL() string {
	return s.client.BaseURL()
}

// Shutdown closes the history store.
func (s *LocalService) Shutdown() error {
	if s.store == nil {
		return nil
	}
	return s.store.Close()
}
