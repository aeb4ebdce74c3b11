package pixiv

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/pixdl/pixdl/internal/engine/types"
)

// RankQuery selects a ranking and a 1-based inclusive range of positions
type RankQuery struct {
	Mode  types.RankMode
	R18   bool
	Start int
	End   int
}

func (q RankQuery) modeParam() string {
	if q.R18 {
		return string(q.Mode) + "_r18"
	}
	return string(q.Mode)
}

type rankContent struct {
	IllustID uint64   `json:"illust_id"`
	Title    string   `json:"title"`
	UserName string   `json:"user_name"`
	Tags     []string `json:"tags"`
	Rank     int      `json:"rank"`
	URL      string   `json:"url"`
}

type rankPage struct {
	Contents []rankContent `json:"contents"`
	Date     string        `json:"date"`
}

// RankPage fetches one page of a ranking. A page past the end of the
// ranking yields no entries and no error.
func (c *Client) RankPage(ctx context.Context, mode types.RankMode, r18 bool, page int) ([]types.RankEntry, error) {
	q := RankQuery{Mode: mode, R18: r18}
	params := url.Values{}
	params.Set("mode", q.modeParam())
	params.Set("format", "json")
	params.Set("p", strconv.Itoa(page))

	resp, rawurl, err := c.get(ctx, "/ranking.php?"+params.Encode())
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound, http.StatusBadRequest:
		// Out-of-range pages are reported this way
		return nil, nil
	default:
		return nil, &types.RemoteError{URL: rawurl, StatusCode: resp.StatusCode}
	}

	var data rankPage
	if err := decodeJSON(resp, rawurl, &data); err != nil {
		return nil, err
	}

	entries := make([]types.RankEntry, 0, len(data.Contents))
	for i, content := range data.Contents {
		rank := content.Rank
		if rank <= 0 {
			rank = (page-1)*types.RankPageSize + i + 1
		}
		entries = append(entries, types.RankEntry{
			Rank:   rank,
			ID:     content.IllustID,
			Title:  content.Title,
			Author: content.UserName,
			Tags:   content.Tags,
		})
	}
	return entries, nil
}

// Ranking walks a range of a ranking lazily, fetching one page of
// RankPageSize entries at a time and only when the previous one is used up.
type Ranking struct {
	client *Client
	query  RankQuery

	page  int
	queue []types.RankEntry
	done  bool
}

// NewRanking validates q and returns a paginator positioned at q.Start
func NewRanking(client *Client, q RankQuery) (*Ranking, error) {
	if _, err := types.ParseRankMode(string(q.Mode)); err != nil {
		return nil, err
	}
	if q.Start < 1 {
		return nil, fmt.Errorf("rank range must start at 1 or later, got %d", q.Start)
	}
	if q.End < q.Start {
		return nil, fmt.Errorf("rank range end %d is before start %d", q.End, q.Start)
	}
	r := &Ranking{client: client, query: q}
	r.Reset()
	return r, nil
}

// Query returns the ranking and range being walked
func (r *Ranking) Query() RankQuery {
	return r.query
}

// Reset restarts the walk from the start of the range
func (r *Ranking) Reset() {
	r.page = (r.query.Start-1)/types.RankPageSize + 1
	r.queue = nil
	r.done = false
}

// Next returns the next entry in rank order. ok is false once the range or
// the ranking is exhausted.
func (r *Ranking) Next(ctx context.Context) (types.RankEntry, bool, error) {
	for !r.done && len(r.queue) == 0 {
		if err := r.fill(ctx); err != nil {
			return types.RankEntry{}, false, err
		}
	}
	if len(r.queue) == 0 {
		return types.RankEntry{}, false, nil
	}

	e := r.queue[0]
	r.queue = r.queue[1:]
	if e.Rank >= r.query.End {
		// Nothing past the range is needed, so no further page is fetched
		r.done = true
		r.queue = nil
	}
	return e, true, nil
}

// NextID adapts Next to an artwork id source
func (r *Ranking) NextID(ctx context.Context) (uint64, bool, error) {
	e, ok, err := r.Next(ctx)
	return e.ID, ok, err
}

func (r *Ranking) fill(ctx context.Context) error {
	entries, err := r.client.RankPage(ctx, r.query.Mode, r.query.R18, r.page)
	if err != nil {
		return fmt.Errorf("fetching ranking page %d: %w", r.page, err)
	}
	r.page++
	if len(entries) == 0 {
		r.done = true
		return nil
	}

	for _, e := range entries {
		if e.Rank < r.query.Start || e.Rank > r.query.End {
			continue
		}
		r.queue = append(r.queue, e)
	}
	if len(entries) < types.RankPageSize {
		// Short page: the ranking ends here
		r.done = true
	}
	return nil
}
