package utils

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/pixdl/pixdl/internal/engine/types"
)

// ParseArtworkID accepts a bare artwork id or an artwork page URL such as
// https://www.pixiv.net/artworks/123 or https://www.pixiv.net/en/artworks/123.
func ParseArtworkID(s string) (uint64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, types.ErrInvalidID
	}

	if id, err := strconv.ParseUint(s, 10, 64); err == nil {
		if id == 0 {
			return 0, types.ErrInvalidID
		}
		return id, nil
	}

	parsed, err := url.Parse(s)
	if err != nil || parsed.Host == "" {
		return 0, fmt.Errorf("%w: %q", types.ErrInvalidID, s)
	}

	segments := strings.Split(strings.Trim(parsed.Path, "/"), "/")
	for i := 0; i < len(segments)-1; i++ {
		if segments[i] != "artworks" && segments[i] != "i" {
			continue
		}
		id, err := strconv.ParseUint(segments[i+1], 10, 64)
		if err != nil || id == 0 {
			break
		}
		return id, nil
	}

	// Legacy member_illust.php?illust_id=
	if v := parsed.Query().Get("illust_id"); v != "" {
		if id, err := strconv.ParseUint(v, 10, 64); err == nil && id != 0 {
			return id, nil
		}
	}

	return 0, fmt.Errorf("%w: %q", types.ErrInvalidID, s)
}

// ParseUserID accepts a bare user id or a /users/{id} URL
func ParseUserID(s string) (uint64, error) {
	s = strings.TrimSpace(s)
	if id, err := strconv.ParseUint(s, 10, 64); err == nil && id != 0 {
		return id, nil
	}

	parsed, err := url.Parse(s)
	if err != nil || parsed.Host == "" {
		return 0, fmt.Errorf("%w: %q", types.ErrInvalidID, s)
	}
	segments := strings.Split(strings.Trim(parsed.Path, "/"), "/")
	for i := 0; i < len(segments)-1; i++ {
		if segments[i] == "users" {
			if id, err := strconv.ParseUint(segments[i+1], 10, 64); err == nil && id != 0 {
				return id, nil
			}
		}
	}
	return 0, fmt.Errorf("%w: %q", types.ErrInvalidID, s)
}

// ArtworkURL is the public page of an artwork
func ArtworkURL(baseURL string, id uint64) string {
	return fmt.Sprintf("%s/artworks/%d", strings.TrimSuffix(baseURL, "/"), id)
}
