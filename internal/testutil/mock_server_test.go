package testutil

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"
)

func TestMockServer_ServesImageWithLength(t *testing.T) {
	server := NewMockServerT(t, WithFileSize(10*1024))

	resp, err := http.Get(server.URL())
	if err != nil {
		t.Fatalf("Failed to connect: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected 200, got %d", resp.StatusCode)
	}
	if resp.ContentLength != 10*1024 {
		t.Errorf("Expected Content-Length 10240, got %d", resp.ContentLength)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("Failed to read: %v", err)
	}
	if !bytes.Equal(data, server.Data()) {
		t.Error("Body differs from Data()")
	}
	if !bytes.HasPrefix(data, pngMagic) {
		t.Error("Body should start with PNG magic")
	}
}

func TestMockServer_WithoutContentLength(t *testing.T) {
	server := NewMockServerT(t, WithFileSize(20*1024), WithoutContentLength())

	resp, err := http.Get(server.URL())
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.ContentLength != -1 {
		t.Errorf("Expected unknown length, got %d", resp.ContentLength)
	}
	data, _ := io.ReadAll(resp.Body)
	if len(data) != 20*1024 {
		t.Errorf("Expected 20480 bytes, got %d", len(data))
	}
}

func TestMockServer_RequiredReferer(t *testing.T) {
	server := NewMockServerT(t, WithRequiredReferer("https://www.pixiv.net/"))

	resp, err := http.Get(server.URL())
	if err != nil {
		t.Fatal(err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("Expected 403 without referer, got %d", resp.StatusCode)
	}

	req, _ := http.NewRequest(http.MethodGet, server.URL(), nil)
	req.Header.Set("Referer", "https://www.pixiv.net/")
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected 200 with referer, got %d", resp.StatusCode)
	}
}

func TestMockPixiv_RankingPages(t *testing.T) {
	site := NewMockPixivT(t)
	entries := make([]MockRankEntry, 60)
	for i := range entries {
		entries[i] = MockRankEntry{ID: uint64(1000 + i), Title: "t"}
	}
	site.SetRanking("weekly", entries)

	get := func(page string) (int, map[string]any) {
		resp, err := http.Get(site.URL() + "/ranking.php?mode=weekly&format=json&p=" + page)
		if err != nil {
			t.Fatal(err)
		}
		defer func() { _ = resp.Body.Close() }()
		var out map[string]any
		_ = json.NewDecoder(resp.Body).Decode(&out)
		return resp.StatusCode, out
	}

	status, body := get("2")
	if status != http.StatusOK {
		t.Fatalf("page 2 status %d", status)
	}
	if got := len(body["contents"].([]any)); got != 10 {
		t.Errorf("page 2 should have 10 entries, got %d", got)
	}

	status, _ = get("3")
	if status != http.StatusNotFound {
		t.Errorf("page past the end should 404, got %d", status)
	}

	if got := site.RankPagesFetched(); len(got) != 2 || got[0] != 2 || got[1] != 3 {
		t.Errorf("unexpected page log %v", got)
	}
}

func TestMockPixiv_ArtworkPageEmbedsPreload(t *testing.T) {
	site := NewMockPixivT(t)
	site.AddArtwork(MockArtwork{ID: 7, Title: `Quote's "Test"`, Author: "someone", Pages: 1})

	resp, err := http.Get(site.URL() + "/artworks/7")
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = resp.Body.Close() }()
	data, _ := io.ReadAll(resp.Body)

	if !strings.Contains(string(data), `id="meta-preload-data"`) {
		t.Error("page should contain the preload meta tag")
	}
}
