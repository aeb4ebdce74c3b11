// Package paths decides where downloaded images land on disk. Nothing here
// touches the filesystem.
package paths

import (
	"fmt"
	"net/url"
	"path"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/flytam/filenamify"
	"github.com/h2non/filetype"

	"github.com/pixdl/pixdl/internal/engine/types"
)

const (
	// maxComponent caps a sanitised name in characters
	maxComponent = 200
	// maxNameBytes is the per-component limit of common filesystems
	maxNameBytes = 255
)

// Plan returns the directory that holds an artwork's images.
//
//	GroupNone      -> base
//	GroupByAuthor  -> base/{author}
//	GroupByArtwork -> base/{title}, or base/{title}-{id} when withID is set
func Plan(base string, meta types.ArtworkMetadata, mode types.GroupMode, withID bool) string {
	switch mode {
	case types.GroupByAuthor:
		return filepath.Join(base, Sanitize(meta.Author, "unknown"))
	case types.GroupByArtwork:
		suffix := ""
		if withID {
			suffix = fmt.Sprintf("-%d", meta.ID)
		}
		title := fitBytes(Sanitize(meta.Title, "untitled"), maxNameBytes-len(suffix), "untitled")
		return filepath.Join(base, title+suffix)
	default:
		return base
	}
}

// Filename names the image at index (0-based) of an artwork:
// {title}-{id}-{index}.{ext}, or {title}-{index}.{ext} without the id.
func Filename(meta types.ArtworkMetadata, index int, rawurl string, includeID bool) string {
	suffix := fmt.Sprintf("-%d.%s", index, Extension(rawurl))
	if includeID {
		suffix = fmt.Sprintf("-%d%s", meta.ID, suffix)
	}
	return fitBytes(Sanitize(meta.Title, "untitled"), maxNameBytes-len(suffix), "untitled") + suffix
}

// Extension derives a file extension from an image URL. A recognised
// extension on the URL path wins; otherwise the last three characters of
// the URL are used when they are alphanumeric, and "bin" when they are not.
func Extension(rawurl string) string {
	if u, err := url.Parse(rawurl); err == nil {
		ext := strings.ToLower(strings.TrimPrefix(path.Ext(u.Path), "."))
		if ext == "jpeg" {
			ext = "jpg"
		}
		if ext != "" && filetype.IsSupported(ext) {
			return ext
		}
	}
	if len(rawurl) < 3 {
		return "bin"
	}
	tail := strings.ToLower(rawurl[len(rawurl)-3:])
	for _, c := range tail {
		if (c < 'a' || c > 'z') && (c < '0' || c > '9') {
			return "bin"
		}
	}
	return tail
}

// Sanitize turns s into a single safe path component. Empty results become
// fallback.
func Sanitize(s, fallback string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return fallback
	}
	out, err := filenamify.Filenamify(s, filenamify.Options{
		Replacement: "_",
		MaxLength:   maxComponent,
	})
	if err != nil {
		return fallback
	}
	out = strings.TrimSpace(out)
	if out == "" || out == "." || out == ".." {
		return fallback
	}
	return fitBytes(out, maxNameBytes, fallback)
}

// fitBytes cuts s to at most n bytes on a rune boundary. Trailing spaces and
// dots left by the cut are dropped.
func fitBytes(s string, n int, fallback string) string {
	if len(s) <= n {
		return s
	}
	cut := 0
	for i, r := range s {
		size := utf8.RuneLen(r)
		if size < 0 {
			size = 1
		}
		if i+size > n {
			break
		}
		cut = i + size
	}
	s = strings.TrimRight(s[:cut], " .")
	if s == "" {
		return fallback
	}
	return s
}
