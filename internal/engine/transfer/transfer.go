// Package transfer performs one HTTP GET into one file and reports byte-level
// progress to a Reporter.
package transfer

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/h2non/filetype"

	"github.com/pixdl/pixdl/internal/engine/types"
	"github.com/pixdl/pixdl/internal/utils"
)

// Reporter receives progress for transfers keyed by id.
// SetTotal is called at most once, before any Update, and only when the
// response declares its length.
type Reporter interface {
	SetTotal(id string, total int64)
	Update(id string, downloaded, total int64)
}

type nopReporter struct{}

func (nopReporter) SetTotal(string, int64)       {}
func (nopReporter) Update(string, int64, int64) {}

// Transfer downloads single files. It holds no per-transfer state and is
// safe to share between goroutines.
type Transfer struct {
	Client  *http.Client
	Runtime *types.RuntimeConfig
}

// New creates a Transfer with a client that never times out a body.
func New(runtime *types.RuntimeConfig) *Transfer {
	return &Transfer{
		Client:  NewHTTPClient(runtime, 0),
		Runtime: runtime,
	}
}

// Download fetches rawurl into destPath, creating parent directories as
// needed, and returns the number of bytes written. An existing file is
// overwritten; on failure whatever was written stays on disk.
func (t *Transfer) Download(ctx context.Context, id, rawurl, destPath string, r Reporter) (int64, error) {
	if r == nil {
		r = nopReporter{}
	}

	if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		return 0, &types.IoError{Path: filepath.Dir(destPath), Op: "mkdir", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawurl, nil)
	if err != nil {
		return 0, &types.NetworkError{URL: rawurl, Err: err}
	}
	SetRequestHeaders(req, t.Runtime)

	resp, err := t.Client.Do(req)
	if err != nil {
		return 0, &types.NetworkError{URL: rawurl, Err: err}
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			utils.Debug("Error closing response body: %v", err)
		}
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return 0, &types.RemoteError{URL: rawurl, StatusCode: resp.StatusCode}
	}

	total := resp.ContentLength
	known := total >= 0
	if known {
		r.SetTotal(id, total)
	}

	outFile, err := os.Create(destPath)
	if err != nil {
		return 0, &types.IoError{Path: destPath, Op: "create", Err: err}
	}
	defer func() { _ = outFile.Close() }()

	start := time.Now()

	var written int64
	buf := make([]byte, t.Runtime.GetWorkerBufferSize())

	for {
		select {
		case <-ctx.Done():
			return written, &types.NetworkError{URL: rawurl, Err: ctx.Err()}
		default:
		}

		nr, readErr := resp.Body.Read(buf)
		if nr > 0 {
			if written == 0 {
				sniff(id, rawurl, buf[:nr])
			}
			nw, writeErr := outFile.Write(buf[:nr])
			if nw > 0 {
				written += int64(nw)
				if known {
					r.Update(id, written, total)
				}
			}
			if writeErr != nil {
				return written, &types.IoError{Path: destPath, Op: "write", Err: writeErr}
			}
			if nr != nw {
				return written, &types.IoError{Path: destPath, Op: "write", Err: io.ErrShortWrite}
			}
		}
		if readErr != nil {
			if readErr == io.EOF {
				break
			}
			return written, &types.NetworkError{URL: rawurl, Err: fmt.Errorf("read error: %w", readErr)}
		}
	}

	if err := outFile.Sync(); err != nil {
		return written, &types.IoError{Path: destPath, Op: "sync", Err: err}
	}
	if err := outFile.Close(); err != nil {
		return written, &types.IoError{Path: destPath, Op: "close", Err: err}
	}

	elapsed := time.Since(start)
	utils.Log().Debug().
		Str("transfer_id", id).
		Str("path", destPath).
		Int64("bytes", written).
		Dur("elapsed", elapsed).
		Msgf("downloaded at %s", utils.FormatRate(written, elapsed))

	return written, nil
}

// sniff logs bodies that do not look like images. The file is still kept.
func sniff(id, rawurl string, head []byte) {
	if filetype.IsImage(head) {
		return
	}
	kind, _ := filetype.Match(head)
	utils.Log().Warn().
		Str("transfer_id", id).
		Str("url", rawurl).
		Str("mime", kind.MIME.Value).
		Msg("response body does not look like an image")
}
