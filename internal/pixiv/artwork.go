package pixiv

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
	"golang.org/x/sync/errgroup"

	"github.com/pixdl/pixdl/internal/engine/types"
)

type pageURLs struct {
	URLs struct {
		Original string `json:"original"`
	} `json:"urls"`
}

type preloadData struct {
	Illust map[string]struct {
		Title    string `json:"title"`
		UserName string `json:"userName"`
	} `json:"illust"`
}

// ResolveArtwork returns the title, author and original image URLs of an
// artwork. The page list and the artwork page are fetched concurrently.
func (c *Client) ResolveArtwork(ctx context.Context, id uint64) (types.ArtworkMetadata, error) {
	if id == 0 {
		return types.ArtworkMetadata{}, types.ErrInvalidID
	}

	meta := types.ArtworkMetadata{ID: id}
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		images, err := c.ImageURLs(gctx, id)
		meta.Images = images
		return err
	})
	g.Go(func() error {
		title, author, err := c.artworkInfo(gctx, id)
		meta.Title, meta.Author = title, author
		return err
	})

	if err := g.Wait(); err != nil {
		return types.ArtworkMetadata{}, err
	}
	return meta, nil
}

// ImageURLs lists the original image URL of every page of an artwork
func (c *Client) ImageURLs(ctx context.Context, id uint64) ([]string, error) {
	var pages []pageURLs
	if err := c.getAPI(ctx, fmt.Sprintf("/ajax/illust/%d/pages", id), &pages); err != nil {
		return nil, err
	}

	images := make([]string, 0, len(pages))
	for i, p := range pages {
		if p.URLs.Original == "" {
			return nil, &types.ParseError{
				URL: fmt.Sprintf("%s/ajax/illust/%d/pages", c.baseURL, id),
				Err: fmt.Errorf("page %d has no original url", i),
			}
		}
		images = append(images, p.URLs.Original)
	}
	return images, nil
}

// artworkInfo reads title and author from the preload JSON embedded in the
// artwork page.
func (c *Client) artworkInfo(ctx context.Context, id uint64) (title, author string, err error) {
	resp, rawurl, err := c.get(ctx, fmt.Sprintf("/artworks/%d", id))
	if err != nil {
		return "", "", err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", "", &types.RemoteError{URL: rawurl, StatusCode: resp.StatusCode}
	}

	content, err := findPreloadData(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return "", "", &types.ParseError{URL: rawurl, Err: err}
	}

	var data preloadData
	if err := json.Unmarshal([]byte(content), &data); err != nil {
		return "", "", &types.ParseError{URL: rawurl, Err: fmt.Errorf("decoding preload data: %w", err)}
	}
	illust, ok := data.Illust[strconv.FormatUint(id, 10)]
	if !ok {
		return "", "", &types.ParseError{URL: rawurl, Err: fmt.Errorf("preload data has no entry for %d", id)}
	}
	return illust.Title, illust.UserName, nil
}

var errNoPreload = errors.New("meta-preload-data not found")

// findPreloadData returns the content attribute of <meta id="meta-preload-data">.
func findPreloadData(r io.Reader) (string, error) {
	z := html.NewTokenizer(r)
	for {
		switch z.Next() {
		case html.ErrorToken:
			if errors.Is(z.Err(), io.EOF) {
				return "", errNoPreload
			}
			return "", z.Err()
		case html.StartTagToken, html.SelfClosingTagToken:
			tok := z.Token()
			if tok.DataAtom == atom.Body {
				// The preload tag lives in <head>
				return "", errNoPreload
			}
			if tok.DataAtom != atom.Meta {
				continue
			}
			var id, content string
			for _, a := range tok.Attr {
				switch a.Key {
				case "id":
					id = a.Val
				case "content":
					content = a.Val
				}
			}
			if id == "meta-preload-data" {
				return content, nil
			}
		}
	}
}
