package testutil

import (
	"encoding/json"
	"fmt"
	"html"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// MockArtwork describes an artwork served by MockPixiv.
type MockArtwork struct {
	ID        uint64
	Title     string
	Author    string
	Pages     int
	Ext       string      // Image extension, "png" when empty
	ImageSize int64       // Per-image body size, MockPixiv.ImageSize when zero
	FailPages map[int]int // page index -> HTTP status returned for that image
}

// MockRankEntry is one row of a served ranking
type MockRankEntry struct {
	ID     uint64
	Title  string
	Author string
	Tags   []string
}

// MockPixiv is a fake pixiv site: artwork pages, the pages/ranking/profile
// JSON endpoints and original images, all on one httptest server.
type MockPixiv struct {
	Server *httptest.Server

	mu       sync.Mutex
	artworks map[uint64]*MockArtwork
	rankings map[string][]MockRankEntry // keyed by mode, including any _r18 suffix
	users    map[uint64][]uint64

	ImageSize      int64
	OmitLength     bool
	ImageLatency   time.Duration
	RequireReferer bool

	// Tracking
	RankRequests    atomic.Int64
	PagesRequests   atomic.Int64
	ImageRequests   atomic.Int64
	ActiveImages    atomic.Int64
	MaxActiveImages atomic.Int64
	rankPagesMu     sync.Mutex
	rankPages       []int
}

// NewMockPixivT starts a fake pixiv site and skips the test if binding fails.
func NewMockPixivT(t *testing.T) *MockPixiv {
	t.Helper()
	m := &MockPixiv{
		artworks:  make(map[uint64]*MockArtwork),
		rankings:  make(map[string][]MockRankEntry),
		users:     make(map[uint64][]uint64),
		ImageSize: 16 * 1024,
	}
	m.Server = NewHTTPServerT(t, m.routes())
	return m
}

// URL returns the site root
func (m *MockPixiv) URL() string {
	return m.Server.URL
}

// AddArtwork registers an artwork
func (m *MockPixiv) AddArtwork(a MockArtwork) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if a.Ext == "" {
		a.Ext = "png"
	}
	m.artworks[a.ID] = &a
}

// SetRanking registers the full ranking for mode (e.g. "daily" or "daily_r18")
func (m *MockPixiv) SetRanking(mode string, entries []MockRankEntry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rankings[mode] = entries
}

// SetUser registers the artwork ids of a user
func (m *MockPixiv) SetUser(id uint64, artworks []uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[id] = artworks
}

// RankPagesFetched returns the ranking page numbers requested, in order
func (m *MockPixiv) RankPagesFetched() []int {
	m.rankPagesMu.Lock()
	defer m.rankPagesMu.Unlock()
	return append([]int(nil), m.rankPages...)
}

// ImageURL is the original image URL served for page index of artwork id
func (m *MockPixiv) ImageURL(id uint64, index int, ext string) string {
	return fmt.Sprintf("%s/img-original/img/2024/01/01/00/00/00/%d_p%d.%s", m.Server.URL, id, index, ext)
}

// ImageData is the exact body served for page index of artwork id
func (m *MockPixiv) ImageData(id uint64, index int) []byte {
	m.mu.Lock()
	size := m.ImageSize
	if a, ok := m.artworks[id]; ok && a.ImageSize > 0 {
		size = a.ImageSize
	}
	m.mu.Unlock()
	return ImageBytes(size, byte(id)+byte(index))
}

var (
	pagesPath   = regexp.MustCompile(`^/ajax/illust/(\d+)/pages$`)
	artworkPath = regexp.MustCompile(`^/(?:[a-z]{2}/)?artworks/(\d+)$`)
	profilePath = regexp.MustCompile(`^/ajax/user/(\d+)/profile/all$`)
	imagePath   = regexp.MustCompile(`/(\d+)_p(\d+)\.[A-Za-z0-9]+$`)
)

func (m *MockPixiv) routes() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.RequireReferer && r.Referer() != "https://www.pixiv.net/" {
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}

		p := r.URL.Path
		switch {
		case p == "/ranking.php":
			m.handleRanking(w, r)
		case pagesPath.MatchString(p):
			m.handlePages(w, parseID(pagesPath, p))
		case artworkPath.MatchString(p):
			m.handleArtworkPage(w, parseID(artworkPath, p))
		case profilePath.MatchString(p):
			m.handleProfile(w, parseID(profilePath, p))
		case strings.HasPrefix(p, "/img-original/") && imagePath.MatchString(p):
			m.handleImage(w, r, p)
		default:
			http.NotFound(w, r)
		}
	})
}

func parseID(re *regexp.Regexp, p string) uint64 {
	id, _ := strconv.ParseUint(re.FindStringSubmatch(p)[1], 10, 64)
	return id
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func apiError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"error": true, "message": msg, "body": []any{}})
}

func (m *MockPixiv) lookup(id uint64) (MockArtwork, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.artworks[id]
	if !ok {
		return MockArtwork{}, false
	}
	return *a, true
}

func (m *MockPixiv) handlePages(w http.ResponseWriter, id uint64) {
	m.PagesRequests.Add(1)
	a, ok := m.lookup(id)
	if !ok {
		apiError(w, http.StatusNotFound, "Artwork has been deleted or the ID does not exist.")
		return
	}

	type urls struct {
		Original string `json:"original"`
	}
	type page struct {
		URLs urls `json:"urls"`
	}
	body := make([]page, 0, a.Pages)
	for i := 0; i < a.Pages; i++ {
		body = append(body, page{URLs: urls{Original: m.ImageURL(id, i, a.Ext)}})
	}
	writeJSON(w, http.StatusOK, map[string]any{"error": false, "message": "", "body": body})
}

func (m *MockPixiv) handleArtworkPage(w http.ResponseWriter, id uint64) {
	a, ok := m.lookup(id)
	if !ok {
		http.Error(w, "Not Found", http.StatusNotFound)
		return
	}

	preload := map[string]any{
		"timestamp": "2024-01-01T00:00:00+09:00",
		"illust": map[string]any{
			strconv.FormatUint(id, 10): map[string]any{
				"illustId":    strconv.FormatUint(id, 10),
				"title":       a.Title,
				"description": "",
				"userName":    a.Author,
				"pageCount":   a.Pages,
			},
		},
	}
	data, _ := json.Marshal(preload)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprintf(w, `<!DOCTYPE html>
<html lang="ja"><head><meta charset="utf-8"><title>%s - pixiv</title>
<meta name="preload-data" id="meta-preload-data" content='%s'>
</head><body><div id="root"></div></body></html>`,
		html.EscapeString(a.Title), html.EscapeString(string(data)))
}

func (m *MockPixiv) handleRanking(w http.ResponseWriter, r *http.Request) {
	m.RankRequests.Add(1)
	q := r.URL.Query()
	page, err := strconv.Atoi(q.Get("p"))
	if err != nil || page < 1 {
		page = 1
	}
	m.rankPagesMu.Lock()
	m.rankPages = append(m.rankPages, page)
	m.rankPagesMu.Unlock()

	if q.Get("format") != "json" {
		http.Error(w, "html ranking not supported", http.StatusBadRequest)
		return
	}

	m.mu.Lock()
	entries, ok := m.rankings[q.Get("mode")]
	m.mu.Unlock()
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid mode"})
		return
	}

	start := (page - 1) * 50
	if start >= len(entries) {
		writeJSON(w, http.StatusNotFound, map[string]any{"error": "page not found"})
		return
	}
	end := start + 50
	if end > len(entries) {
		end = len(entries)
	}

	contents := make([]map[string]any, 0, end-start)
	for i, e := range entries[start:end] {
		contents = append(contents, map[string]any{
			"illust_id": e.ID,
			"title":     e.Title,
			"user_name": e.Author,
			"tags":      e.Tags,
			"rank":      start + i + 1,
			"url":       fmt.Sprintf("%s/c/240x480/img-master/img/%d_p0_master1200.jpg", m.Server.URL, e.ID),
		})
	}

	next := any(false)
	if end < len(entries) {
		next = page + 1
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"contents": contents,
		"mode":     q.Get("mode"),
		"date":     "20240101",
		"page":     page,
		"next":     next,
	})
}

func (m *MockPixiv) handleProfile(w http.ResponseWriter, id uint64) {
	m.mu.Lock()
	ids, ok := m.users[id]
	m.mu.Unlock()
	if !ok {
		apiError(w, http.StatusNotFound, "User has left pixiv or the user ID does not exist.")
		return
	}

	illusts := make(map[string]any, len(ids))
	for _, a := range ids {
		illusts[strconv.FormatUint(a, 10)] = nil
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"error":   false,
		"message": "",
		"body": map[string]any{
			"illusts": illusts,
			"manga":   []any{},
		},
	})
}

func (m *MockPixiv) handleImage(w http.ResponseWriter, r *http.Request, p string) {
	m.ImageRequests.Add(1)
	active := m.ActiveImages.Add(1)
	defer m.ActiveImages.Add(-1)
	for {
		peak := m.MaxActiveImages.Load()
		if active <= peak || m.MaxActiveImages.CompareAndSwap(peak, active) {
			break
		}
	}

	match := imagePath.FindStringSubmatch(p)
	id, _ := strconv.ParseUint(match[1], 10, 64)
	index, _ := strconv.Atoi(match[2])

	a, ok := m.lookup(id)
	if !ok || index >= a.Pages {
		http.NotFound(w, r)
		return
	}
	if status, fail := a.FailPages[index]; fail {
		http.Error(w, "Simulated failure", status)
		return
	}

	if m.ImageLatency > 0 {
		time.Sleep(m.ImageLatency)
	}

	serveBody(w, m.ImageData(id, index), serveOptions{omitLength: m.OmitLength})
}
