// Package pixiv talks to pixiv's public web and JSON endpoints: artwork
// metadata, rankings and user artwork listings.
package pixiv

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/vfaronov/httpheader"

	"github.com/pixdl/pixdl/internal/engine/transfer"
	"github.com/pixdl/pixdl/internal/engine/types"
	"github.com/pixdl/pixdl/internal/utils"
)

// maxBody caps how much of a page or JSON document is read.
const maxBody = 16 * types.MB

// Client issues metadata requests. Requests carry the service referer and
// are bounded by the runtime request timeout.
type Client struct {
	http    *http.Client
	runtime *types.RuntimeConfig
	baseURL string
}

// NewClient creates a client for the configured base URL
func NewClient(runtime *types.RuntimeConfig) *Client {
	return &Client{
		http:    transfer.NewHTTPClient(runtime, runtime.GetRequestTimeout()),
		runtime: runtime,
		baseURL: strings.TrimSuffix(runtime.GetBaseURL(), "/"),
	}
}

// BaseURL returns the site root requests are sent to
func (c *Client) BaseURL() string {
	return c.baseURL
}

// apiEnvelope is the wrapper every /ajax endpoint uses
type apiEnvelope struct {
	Error   bool            `json:"error"`
	Message string          `json:"message"`
	Body    json.RawMessage `json:"body"`
}

func (c *Client) get(ctx context.Context, path string) (*http.Response, string, error) {
	rawurl := c.baseURL + path
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawurl, nil)
	if err != nil {
		return nil, rawurl, &types.NetworkError{URL: rawurl, Err: err}
	}
	transfer.SetRequestHeaders(req, c.runtime)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, rawurl, &types.NetworkError{URL: rawurl, Err: err}
	}
	utils.Log().Debug().Str("url", rawurl).Int("status", resp.StatusCode).Msg("GET")
	return resp, rawurl, nil
}

// getAPI fetches an /ajax endpoint and decodes its body into v.
func (c *Client) getAPI(ctx context.Context, path string, v any) error {
	resp, rawurl, err := c.get(ctx, path)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	var env apiEnvelope
	decodeErr := decodeJSON(resp, rawurl, &env)

	if resp.StatusCode != http.StatusOK || env.Error {
		status := resp.StatusCode
		if status == http.StatusOK {
			// error:true with a 200 still means the request was refused
			status = http.StatusBadRequest
		}
		return &types.RemoteError{URL: rawurl, StatusCode: status, Message: env.Message}
	}
	if decodeErr != nil {
		return decodeErr
	}
	if err := json.Unmarshal(env.Body, v); err != nil {
		return &types.ParseError{URL: rawurl, Err: fmt.Errorf("decoding body: %w", err)}
	}
	return nil
}

// decodeJSON reads a JSON response into v after checking its media type.
func decodeJSON(resp *http.Response, rawurl string, v any) error {
	mtype, _ := httpheader.ContentType(resp.Header)
	if mtype != "application/json" && !strings.HasSuffix(mtype, "+json") {
		return &types.ParseError{URL: rawurl, Err: fmt.Errorf("unexpected content type %q", mtype)}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return &types.NetworkError{URL: rawurl, Err: err}
	}
	if err := json.Unmarshal(data, v); err != nil {
		return &types.ParseError{URL: rawurl, Err: err}
	}
	return nil
}
