package pixiv

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pixdl/pixdl/internal/engine/types"
	"github.com/pixdl/pixdl/internal/testutil"
)

func newTestClient(t *testing.T) (*Client, *testutil.MockPixiv) {
	t.Helper()
	site := testutil.NewMockPixivT(t)
	site.RequireReferer = true
	return NewClient(&types.RuntimeConfig{BaseURL: site.URL()}), site
}

func seedRanking(site *testutil.MockPixiv, mode string, n int) {
	entries := make([]testutil.MockRankEntry, n)
	for i := range entries {
		entries[i] = testutil.MockRankEntry{
			ID:     uint64(10000 + i + 1),
			Title:  fmt.Sprintf("work %d", i+1),
			Author: "artist",
			Tags:   []string{"tag"},
		}
	}
	site.SetRanking(mode, entries)
}

func collect(t *testing.T, r *Ranking) []types.RankEntry {
	t.Helper()
	var out []types.RankEntry
	for {
		e, ok, err := r.Next(context.Background())
		require.NoError(t, err)
		if !ok {
			return out
		}
		out = append(out, e)
	}
}

func TestResolveArtwork(t *testing.T) {
	client, site := newTestClient(t)
	site.AddArtwork(testutil.MockArtwork{ID: 106483793, Title: `星空 "night"`, Author: "絵師", Pages: 3, Ext: "jpg"})

	meta, err := client.ResolveArtwork(context.Background(), 106483793)
	require.NoError(t, err)

	assert.Equal(t, uint64(106483793), meta.ID)
	assert.Equal(t, `星空 "night"`, meta.Title)
	assert.Equal(t, "絵師", meta.Author)
	require.Len(t, meta.Images, 3)
	for i, u := range meta.Images {
		assert.Equal(t, site.ImageURL(106483793, i, "jpg"), u)
	}
}

func TestResolveArtwork_NotFound(t *testing.T) {
	client, _ := newTestClient(t)

	_, err := client.ResolveArtwork(context.Background(), 404404)
	require.Error(t, err)

	var remote *types.RemoteError
	require.True(t, errors.As(err, &remote), "got %v", err)
	assert.Equal(t, http.StatusNotFound, remote.StatusCode)
}

func TestResolveArtwork_ZeroID(t *testing.T) {
	client, _ := newTestClient(t)
	_, err := client.ResolveArtwork(context.Background(), 0)
	assert.ErrorIs(t, err, types.ErrInvalidID)
}

func TestFindPreloadData(t *testing.T) {
	page := `<html><head><meta charset="utf-8"><meta name="x" content="y">` +
		`<meta id="meta-preload-data" content='{"illust":{"1":{"title":"a &amp; b"}}}'></head><body></body></html>`
	content, err := findPreloadData(strings.NewReader(page))
	require.NoError(t, err)
	assert.Equal(t, `{"illust":{"1":{"title":"a & b"}}}`, content)

	_, err = findPreloadData(strings.NewReader(`<html><head></head><body><meta id="meta-preload-data" content="{}"></body></html>`))
	assert.Error(t, err, "preload data outside <head> is ignored")

	_, err = findPreloadData(strings.NewReader(`<html></html>`))
	assert.Error(t, err)
}

func TestRanking_FirstPageNeedsOneFetch(t *testing.T) {
	client, site := newTestClient(t)
	seedRanking(site, "daily", 150)

	r, err := NewRanking(client, RankQuery{Mode: types.RankDaily, Start: 1, End: 50})
	require.NoError(t, err)

	entries := collect(t, r)
	require.Len(t, entries, 50)
	for i, e := range entries {
		assert.Equal(t, i+1, e.Rank)
	}
	assert.Equal(t, []int{1}, site.RankPagesFetched())
}

func TestRanking_RangeAcrossPages(t *testing.T) {
	client, site := newTestClient(t)
	seedRanking(site, "weekly", 150)

	r, err := NewRanking(client, RankQuery{Mode: types.RankWeekly, Start: 44, End: 66})
	require.NoError(t, err)

	entries := collect(t, r)
	require.Len(t, entries, 23)
	for i, e := range entries {
		assert.Equal(t, 44+i, e.Rank, "rank order without gaps or duplicates")
		assert.Equal(t, uint64(10000+44+i), e.ID)
	}
	assert.Equal(t, []int{1, 2}, site.RankPagesFetched())
}

func TestRanking_StartsOnLaterPage(t *testing.T) {
	client, site := newTestClient(t)
	seedRanking(site, "monthly", 150)

	r, err := NewRanking(client, RankQuery{Mode: types.RankMonthly, Start: 101, End: 105})
	require.NoError(t, err)

	entries := collect(t, r)
	require.Len(t, entries, 5)
	assert.Equal(t, 101, entries[0].Rank)
	assert.Equal(t, []int{3}, site.RankPagesFetched())
}

func TestRanking_StopsAtEndOfRanking(t *testing.T) {
	client, site := newTestClient(t)
	seedRanking(site, "rookie", 60)

	r, err := NewRanking(client, RankQuery{Mode: types.RankRookie, Start: 45, End: 500})
	require.NoError(t, err)

	entries := collect(t, r)
	assert.Len(t, entries, 16)
	assert.Equal(t, 60, entries[len(entries)-1].Rank)
}

func TestRanking_ExactMultipleOfPageSize(t *testing.T) {
	client, site := newTestClient(t)
	seedRanking(site, "original", 100)

	r, err := NewRanking(client, RankQuery{Mode: types.RankOriginal, Start: 1, End: 500})
	require.NoError(t, err)

	entries := collect(t, r)
	assert.Len(t, entries, 100)
	// The third page is requested and comes back 404
	assert.Equal(t, []int{1, 2, 3}, site.RankPagesFetched())
}

func TestRanking_R18Mode(t *testing.T) {
	client, site := newTestClient(t)
	seedRanking(site, "daily_r18", 5)

	r, err := NewRanking(client, RankQuery{Mode: types.RankDaily, R18: true, Start: 1, End: 10})
	require.NoError(t, err)
	assert.Len(t, collect(t, r), 5)
}

func TestRanking_Reset(t *testing.T) {
	client, site := newTestClient(t)
	seedRanking(site, "daily", 10)

	r, err := NewRanking(client, RankQuery{Mode: types.RankDaily, Start: 3, End: 4})
	require.NoError(t, err)

	first := collect(t, r)
	r.Reset()
	second := collect(t, r)
	assert.Equal(t, first, second)
	assert.Len(t, second, 2)
}

func TestRanking_NextID(t *testing.T) {
	client, site := newTestClient(t)
	seedRanking(site, "daily", 3)

	r, err := NewRanking(client, RankQuery{Mode: types.RankDaily, Start: 2, End: 2})
	require.NoError(t, err)

	id, ok, err := r.NextID(context.Background())
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, uint64(10002), id)

	_, ok, err = r.NextID(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestNewRanking_Validation(t *testing.T) {
	client, _ := newTestClient(t)

	_, err := NewRanking(client, RankQuery{Mode: types.RankDaily, Start: 0, End: 10})
	assert.Error(t, err)
	_, err = NewRanking(client, RankQuery{Mode: types.RankDaily, Start: 10, End: 5})
	assert.Error(t, err)
	_, err = NewRanking(client, RankQuery{Mode: "yearly", Start: 1, End: 5})
	assert.Error(t, err)
}

func TestRankPage_ServerError(t *testing.T) {
	site := testutil.NewHTTPServerT(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "maintenance", http.StatusServiceUnavailable)
	}))
	client := NewClient(&types.RuntimeConfig{BaseURL: site.URL})

	_, err := client.RankPage(context.Background(), types.RankDaily, false, 1)
	var remote *types.RemoteError
	require.True(t, errors.As(err, &remote))
	assert.Equal(t, http.StatusServiceUnavailable, remote.StatusCode)
}

func TestRankPage_RejectsNonJSON(t *testing.T) {
	site := testutil.NewHTTPServerT(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("<html>login required</html>"))
	}))
	client := NewClient(&types.RuntimeConfig{BaseURL: site.URL})

	_, err := client.RankPage(context.Background(), types.RankDaily, false, 1)
	var parseErr *types.ParseError
	require.True(t, errors.As(err, &parseErr), "got %v", err)
}

func TestListUserArtworkIDs(t *testing.T) {
	client, site := newTestClient(t)
	site.SetUser(3115085, []uint64{5, 300, 42})

	ids, err := client.ListUserArtworkIDs(context.Background(), 3115085)
	require.NoError(t, err)
	assert.Equal(t, []uint64{300, 42, 5}, ids)
}

func TestListUserArtworkIDs_UnknownUser(t *testing.T) {
	client, _ := newTestClient(t)

	_, err := client.ListUserArtworkIDs(context.Background(), 1)
	var remote *types.RemoteError
	require.True(t, errors.As(err, &remote))
	assert.Equal(t, http.StatusNotFound, remote.StatusCode)
	assert.NotEmpty(t, remote.Message)
}

func TestIDKeys(t *testing.T) {
	ids, err := idKeys([]byte(`[]`))
	require.NoError(t, err)
	assert.Empty(t, ids)

	ids, err = idKeys([]byte(`{"12":null,"7":null}`))
	require.NoError(t, err)
	assert.ElementsMatch(t, []uint64{12, 7}, ids)

	_, err = idKeys([]byte(`{"abc":null}`))
	assert.Error(t, err)
}

func TestAPIErrorFlagWithOK(t *testing.T) {
	site := testutil.NewHTTPServerT(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"error":true,"message":"rate limited","body":[]}`))
	}))
	client := NewClient(&types.RuntimeConfig{BaseURL: site.URL})

	_, err := client.ImageURLs(context.Background(), 1)
	var remote *types.RemoteError
	require.True(t, errors.As(err, &remote))
	assert.Equal(t, "rate limited", remote.Message)
}
