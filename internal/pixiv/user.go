package pixiv

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"

	"github.com/pixdl/pixdl/internal/engine/types"
)

type profileAll struct {
	Illusts json.RawMessage `json:"illusts"`
	Manga   json.RawMessage `json:"manga"`
}

// ListUserArtworkIDs returns every illustration and manga id of a user,
// newest first.
func (c *Client) ListUserArtworkIDs(ctx context.Context, userID uint64) ([]uint64, error) {
	if userID == 0 {
		return nil, types.ErrInvalidID
	}

	path := fmt.Sprintf("/ajax/user/%d/profile/all", userID)
	var body profileAll
	if err := c.getAPI(ctx, path, &body); err != nil {
		return nil, err
	}

	seen := make(map[uint64]struct{})
	for _, raw := range []json.RawMessage{body.Illusts, body.Manga} {
		keys, err := idKeys(raw)
		if err != nil {
			return nil, &types.ParseError{URL: c.baseURL + path, Err: err}
		}
		for _, id := range keys {
			seen[id] = struct{}{}
		}
	}

	ids := make([]uint64, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] > ids[j] })
	return ids, nil
}

// idKeys reads the keys of an id-keyed object. The service sends an empty
// array instead of an empty object.
func idKeys(raw json.RawMessage) ([]uint64, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '{' {
		return nil, nil
	}

	var m map[string]json.RawMessage
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	ids := make([]uint64, 0, len(m))
	for k := range m {
		id, err := strconv.ParseUint(k, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("non-numeric artwork id %q", k)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
